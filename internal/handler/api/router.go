package api

import (
	xhttp "TradeDesk/pkg/http"
)

// Router registers every facade handler on one echo instance.
type Router struct {
	xhttp.Handlers
}

func NewRouter(m *ModelsHandler, d *DataHandler, dash *DashboardHandler, st *StrategiesHandler, health *HealthHandler) *Router {
	return &Router{Handlers: xhttp.Handlers{m, d, dash, st, health}}
}
