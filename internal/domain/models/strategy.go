package models

import (
	"encoding/json"
	"time"
)

type StrategyType string

const (
	StrategyTechnical StrategyType = "technical"
	StrategyML        StrategyType = "ml"
	StrategyHybrid    StrategyType = "hybrid"
)

// Strategy is a backend strategy definition that backtests refer to by id.
type Strategy struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	StrategyType StrategyType `json:"strategy_type"`
	CreatedAt    time.Time    `json:"created_at"`
	IsActive     bool         `json:"is_active"`
}

// StrategySpec is the request body for a new strategy. Config must be a JSON object.
type StrategySpec struct {
	Name         string          `json:"name" validate:"required,max=100"`
	Description  string          `json:"description"`
	StrategyType StrategyType    `json:"strategy_type" default:"technical" validate:"oneof=technical ml hybrid"`
	Config       json.RawMessage `json:"config,omitempty"`
}
