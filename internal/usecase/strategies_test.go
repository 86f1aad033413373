package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"TradeDesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStrategyDefaults(t *testing.T) {
	gw := newFakeGateway()
	pub := &fakePublisher{}
	s := NewStrategyCatalog(gw, pub, nil)

	st, err := s.Create(context.Background(), models.StrategySpec{Name: "ema cross"})
	require.NoError(t, err)
	assert.Equal(t, "s1", st.ID)
	assert.Equal(t, models.StrategyTechnical, gw.stratSpec.StrategyType)
	assert.JSONEq(t, `{}`, string(gw.stratSpec.Config))
	assert.Equal(t, []models.EventType{models.EventStrategyCreated}, pub.types())
}

func TestCreateStrategyCompactsConfig(t *testing.T) {
	gw := newFakeGateway()
	s := NewStrategyCatalog(gw, nil, nil)

	_, err := s.Create(context.Background(), models.StrategySpec{
		Name: "rsi", StrategyType: models.StrategyML, Config: json.RawMessage("{ \"period\" : 14 }"),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"period":14}`, string(gw.stratSpec.Config))
}

func TestCreateStrategyRejectedLocally(t *testing.T) {
	cases := map[string]struct {
		spec  models.StrategySpec
		field string
	}{
		"missing name":  {models.StrategySpec{}, "name"},
		"unknown type":  {models.StrategySpec{Name: "x", StrategyType: "quantum"}, "strategy_type"},
		"config array":  {models.StrategySpec{Name: "x", Config: json.RawMessage(`[1,2]`)}, "config"},
		"config broken": {models.StrategySpec{Name: "x", Config: json.RawMessage(`{"a":`)}, "config"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			gw := newFakeGateway()
			s := NewStrategyCatalog(gw, nil, nil)

			_, err := s.Create(context.Background(), tc.spec)
			var verr *models.ValidationError
			require.True(t, errors.As(err, &verr))
			require.NotEmpty(t, verr.Violations)
			assert.Equal(t, tc.field, verr.Violations[0].Field)
			assert.Zero(t, gw.total())
		})
	}
}

func TestListStrategiesWrapsRemoteFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.stratErr = remote(models.RemoteUnreachable)
	s := NewStrategyCatalog(gw, nil, nil)

	_, err := s.List(context.Background())
	kind, ok := models.RemoteKindOf(err)
	require.True(t, ok)
	assert.Equal(t, models.RemoteUnreachable, kind)
}
