package usecase

import (
	"context"
	"fmt"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"
)

// AverageAccuracy is the mean over models that report an accuracy. ok is false
// when none do, which is distinct from an average of zero.
func AverageAccuracy(list []models.Model) (avg float64, ok bool) {
	var sum float64
	var n int
	for _, m := range list {
		if m.Accuracy == nil {
			continue
		}
		sum += *m.Accuracy
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func CountByStatus(list []models.Model) map[models.Status]int {
	out := make(map[models.Status]int, 4)
	for _, m := range list {
		out[m.Status]++
	}
	return out
}

// Aggregate derives the dashboard view. Backend figures pass through verbatim.
func Aggregate(list []models.Model, snap models.DashboardSnapshot) models.DashboardView {
	counts := CountByStatus(list)
	view := models.DashboardView{
		TotalStrategies: snap.TotalStrategies,
		TotalBacktests:  snap.TotalBacktests,
		KiteConnected:   snap.KiteConnected,
		KiteStatus:      snap.KiteStatus,
		TotalModels:     len(list),
		TrainedModels:   counts[models.StatusTrained],
		TrainingModels:  counts[models.StatusTraining],
		RecentBacktests: snap.RecentBacktests,
	}
	if avg, ok := AverageAccuracy(list); ok {
		view.AverageAccuracy = &avg
	}
	if view.RecentBacktests == nil {
		view.RecentBacktests = []models.RecentBacktest{}
	}
	return view
}

// DashboardService recomputes the view on every call; nothing is cached.
type DashboardService struct {
	gw  repository.Gateway
	reg *Registry
}

func NewDashboardService(gw repository.Gateway, reg *Registry) *DashboardService {
	return &DashboardService{gw: gw, reg: reg}
}

func (s *DashboardService) View(ctx context.Context) (models.DashboardView, error) {
	snap, err := s.gw.Dashboard(ctx)
	if err != nil {
		return models.DashboardView{}, fmt.Errorf("dashboard: %w", err)
	}
	return Aggregate(s.reg.Snapshot(), snap), nil
}

func (s *DashboardService) KiteStatus(ctx context.Context) (models.KiteStatus, error) {
	st, err := s.gw.KiteStatus(ctx)
	if err != nil {
		return models.KiteStatus{}, fmt.Errorf("kite status: %w", err)
	}
	return st, nil
}

func (s *DashboardService) RefreshKite(ctx context.Context) (models.KiteStatus, error) {
	st, err := s.gw.RefreshKite(ctx)
	if err != nil {
		return models.KiteStatus{}, fmt.Errorf("refresh kite: %w", err)
	}
	return st, nil
}
