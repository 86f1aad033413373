package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TradeDesk/internal/domain/models"
	"TradeDesk/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(gw *fakeGateway, reg *Registry, pub *fakePublisher) *LifecycleController {
	var events repository.EventPublisher
	if pub != nil {
		events = pub
	}
	return NewLifecycleController(gw, reg, staticCatalog{"TCS", "INFY"}, events, nil, nil)
}

func validSpec() models.ModelSpec {
	return models.ModelSpec{Name: "momentum", ModelType: models.ModelXGBoost, Symbol: "TCS", Timeframe: models.TF5Minute}
}

func TestCreateModelAddsPending(t *testing.T) {
	gw := newFakeGateway()
	gw.created = models.Model{ID: "42", Status: models.StatusTraining}
	reg := NewRegistry()
	pub := &fakePublisher{}
	c := newController(gw, reg, pub)

	m, err := c.CreateModel(context.Background(), validSpec())
	require.NoError(t, err)
	assert.Equal(t, "42", m.ID)
	assert.Equal(t, models.StatusPending, m.Status)
	assert.Equal(t, models.TargetPriceDirection, m.Target)

	got, ok := reg.Get("42")
	require.True(t, ok)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, []models.EventType{models.EventModelCreated}, pub.types())
}

func TestCreateModelValidationNeverCallsGateway(t *testing.T) {
	cases := map[string]func(*models.ModelSpec){
		"empty name":      func(s *models.ModelSpec) { s.Name = "" },
		"blank name":      func(s *models.ModelSpec) { s.Name = "   " },
		"bad model type":  func(s *models.ModelSpec) { s.ModelType = "prophet" },
		"bad timeframe":   func(s *models.ModelSpec) { s.Timeframe = "1hour" },
		"bad target":      func(s *models.ModelSpec) { s.Target = "alpha" },
		"empty symbol":    func(s *models.ModelSpec) { s.Symbol = "" },
		"unknown symbol":  func(s *models.ModelSpec) { s.Symbol = "GME" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			gw := newFakeGateway()
			reg := NewRegistry()
			c := newController(gw, reg, nil)

			spec := validSpec()
			mutate(&spec)
			_, err := c.CreateModel(context.Background(), spec)

			assert.ErrorIs(t, err, models.ErrValidation)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Violations)
			assert.Zero(t, gw.total())
			assert.Zero(t, reg.Len())
		})
	}
}

func TestCreateModelWithoutCatalogueAcceptsAnySymbol(t *testing.T) {
	gw := newFakeGateway()
	gw.created = models.Model{ID: "1"}
	c := NewLifecycleController(gw, NewRegistry(), staticCatalog{}, nil, nil, nil)

	spec := validSpec()
	spec.Symbol = "GME"
	_, err := c.CreateModel(context.Background(), spec)
	assert.NoError(t, err)
}

func TestCreateModelRemoteFailureLeavesRegistry(t *testing.T) {
	gw := newFakeGateway()
	gw.createErr = remote(models.RemoteServerError)
	reg := NewRegistry()
	c := newController(gw, reg, nil)

	_, err := c.CreateModel(context.Background(), validSpec())
	kind, ok := models.RemoteKindOf(err)
	require.True(t, ok)
	assert.Equal(t, models.RemoteServerError, kind)
	assert.Zero(t, reg.Len())
}

func TestTrainLegalOnlyFromPending(t *testing.T) {
	for _, st := range []models.Status{models.StatusTraining, models.StatusTrained, models.StatusFailed} {
		t.Run(string(st), func(t *testing.T) {
			gw := newFakeGateway()
			reg := NewRegistry()
			require.NoError(t, reg.Put(model("1", st)))
			c := newController(gw, reg, nil)

			_, err := c.TrainModel(context.Background(), "1", nil)
			assert.ErrorIs(t, err, models.ErrIllegalTransition)
			assert.Zero(t, gw.count("train"))
		})
	}

	gw := newFakeGateway()
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("1", models.StatusPending)))
	pub := &fakePublisher{}
	c := newController(gw, reg, pub)

	m, err := c.TrainModel(context.Background(), "1", models.Hyperparameters{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusTraining, m.Status)
	assert.Equal(t, 1, gw.count("train"))
	assert.Equal(t, []models.EventType{models.EventModelTrainRequested}, pub.types())
}

func TestTrainUnknownModel(t *testing.T) {
	gw := newFakeGateway()
	c := newController(gw, NewRegistry(), nil)
	_, err := c.TrainModel(context.Background(), "404", nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Zero(t, gw.total())
}

func TestTrainRemoteFailureKeepsPending(t *testing.T) {
	gw := newFakeGateway()
	gw.trainErr = remote(models.RemoteUnreachable)
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("1", models.StatusPending)))
	c := newController(gw, reg, nil)

	_, err := c.TrainModel(context.Background(), "1", nil)
	require.Error(t, err)
	got, _ := reg.Get("1")
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestPredictLegalOnlyWhenTrained(t *testing.T) {
	for _, st := range []models.Status{models.StatusPending, models.StatusTraining, models.StatusFailed} {
		gw := newFakeGateway()
		reg := NewRegistry()
		require.NoError(t, reg.Put(model("1", st)))
		c := newController(gw, reg, nil)

		_, err := c.Predict(context.Background(), "1")
		assert.ErrorIs(t, err, models.ErrIllegalTransition, string(st))
		assert.Zero(t, gw.count("predict"))
	}

	gw := newFakeGateway()
	gw.prediction = models.PredictionResult{ModelID: "1", Prediction: []float64{1}, Confidence: 0.85}
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("1", models.StatusTrained, 0.9)))
	c := newController(gw, reg, nil)

	res, err := c.Predict(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 0.85, res.Confidence)
	got, _ := reg.Get("1")
	assert.Equal(t, model("1", models.StatusTrained, 0.9), got)
}

func TestFeatureImportanceRequiresTrained(t *testing.T) {
	gw := newFakeGateway()
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("1", models.StatusTraining)))
	require.NoError(t, reg.Put(model("2", models.StatusTrained)))
	c := newController(gw, reg, nil)

	_, err := c.FeatureImportance(context.Background(), "1")
	assert.ErrorIs(t, err, models.ErrIllegalTransition)

	w, err := c.FeatureImportance(context.Background(), "2")
	require.NoError(t, err)
	assert.Len(t, w, 1)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	gw := newFakeGateway()
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("1", models.StatusTrained)))
	c := newController(gw, reg, nil)

	err := c.DeleteModel(context.Background(), "1", false)
	assert.ErrorIs(t, err, models.ErrConfirmationRequired)
	assert.Zero(t, gw.total())
	assert.Equal(t, 1, reg.Len())
}

func TestDeleteFromAnyState(t *testing.T) {
	for _, st := range []models.Status{models.StatusPending, models.StatusTraining, models.StatusTrained, models.StatusFailed} {
		gw := newFakeGateway()
		reg := NewRegistry()
		require.NoError(t, reg.Put(model("1", st)))
		c := newController(gw, reg, nil)

		require.NoError(t, c.DeleteModel(context.Background(), "1", true), string(st))
		_, ok := reg.Get("1")
		assert.False(t, ok)
	}
}

func TestDeleteFailureLeavesRegistry(t *testing.T) {
	gw := newFakeGateway()
	gw.deleteErr = remote(models.RemoteServerError)
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("1", models.StatusTrained)))
	c := newController(gw, reg, nil)

	require.Error(t, c.DeleteModel(context.Background(), "1", true))
	_, ok := reg.Get("1")
	assert.True(t, ok)
}

func TestDeleteBackendNotFoundReportedAndRemovesLocal(t *testing.T) {
	gw := newFakeGateway()
	gw.deleteErr = remote(models.RemoteNotFound)
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("1", models.StatusTrained)))
	pub := &fakePublisher{}
	c := newController(gw, reg, pub)

	err := c.DeleteModel(context.Background(), "1", true)
	require.Error(t, err)
	kind, ok := models.RemoteKindOf(err)
	require.True(t, ok)
	assert.Equal(t, models.RemoteNotFound, kind)
	assert.Zero(t, reg.Len())
	assert.Empty(t, pub.types())
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	gw := newFakeGateway()
	gw.created = models.Model{ID: "9"}
	pub := &fakePublisher{err: errors.New("broker down")}
	c := newController(gw, NewRegistry(), pub)

	_, err := c.CreateModel(context.Background(), validSpec())
	assert.NoError(t, err)
}

func TestRefreshAllResolvesTerminalStates(t *testing.T) {
	gw := newFakeGateway()
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("1", models.StatusTraining)))
	gw.list = []models.Model{model("1", models.StatusTrained, 0.9), model("2", models.StatusFailed)}
	c := newController(gw, reg, nil)

	list, err := c.RefreshAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.StatusTrained, list[0].Status)

	again, err := c.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, list, again)
}

func TestRefreshFailureKeepsRegistry(t *testing.T) {
	gw := newFakeGateway()
	gw.listErr = remote(models.RemoteUnreachable)
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("1", models.StatusTraining)))
	c := newController(gw, reg, nil)

	_, err := c.RefreshAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, reg.Len())
}

// Train is accepted by the backend only after the delete already completed.
func TestDeleteWinsOverInFlightTrain(t *testing.T) {
	gw := newFakeGateway()
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("1", models.StatusPending)))
	c := newController(gw, reg, nil)

	trainStarted := make(chan struct{})
	releaseTrain := make(chan struct{})
	gw.onTrain = func(ctx context.Context, id string) error {
		close(trainStarted)
		<-releaseTrain
		return nil
	}

	var trainErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, trainErr = c.TrainModel(context.Background(), "1", nil)
	}()

	<-trainStarted
	require.NoError(t, c.DeleteModel(context.Background(), "1", true))
	close(releaseTrain)
	wg.Wait()

	assert.ErrorIs(t, trainErr, models.ErrNotFound)
	_, ok := reg.Get("1")
	assert.False(t, ok)
}

// Delete completes after train was accepted.
func TestDeleteAfterTrainLeavesAbsent(t *testing.T) {
	gw := newFakeGateway()
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("1", models.StatusPending)))
	c := newController(gw, reg, nil)

	deleteStarted := make(chan struct{})
	releaseDelete := make(chan struct{})
	gw.onDelete = func(ctx context.Context, id string) error {
		close(deleteStarted)
		<-releaseDelete
		return nil
	}

	var deleteErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		deleteErr = c.DeleteModel(context.Background(), "1", true)
	}()

	<-deleteStarted
	m, err := c.TrainModel(context.Background(), "1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTraining, m.Status)
	close(releaseDelete)
	wg.Wait()

	require.NoError(t, deleteErr)
	_, ok := reg.Get("1")
	assert.False(t, ok)
}

func TestPredictRacingDeleteReportsNotFound(t *testing.T) {
	gw := newFakeGateway()
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("1", models.StatusTrained)))
	c := newController(gw, reg, nil)

	gw.onPredict = func(ctx context.Context, id string) (models.PredictionResult, error) {
		require.NoError(t, c.DeleteModel(ctx, id, true))
		return models.PredictionResult{ModelID: id}, nil
	}

	_, err := c.Predict(context.Background(), "1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// A listing fetched before a delete completed must not bring the model back.
func TestRefreshRacingDelete(t *testing.T) {
	gw := newFakeGateway()
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("1", models.StatusTrained)))
	require.NoError(t, reg.Put(model("2", models.StatusTrained)))
	c := newController(gw, reg, nil)

	listFetched := make(chan struct{})
	releaseList := make(chan struct{})
	gw.onList = func(ctx context.Context) ([]models.Model, error) {
		close(listFetched)
		<-releaseList
		return []models.Model{model("1", models.StatusTrained), model("2", models.StatusTrained)}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.RefreshAll(context.Background())
		done <- err
	}()

	<-listFetched
	require.NoError(t, c.DeleteModel(context.Background(), "1", true))
	close(releaseList)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not finish")
	}

	_, ok := reg.Get("1")
	assert.False(t, ok)
	_, ok = reg.Get("2")
	assert.True(t, ok)
}

// A refresh that started before a delete lands after a newer refresh.
func TestOverlappingRefreshesCannotResurrect(t *testing.T) {
	gw := newFakeGateway()
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("a", models.StatusTrained)))
	c := newController(gw, reg, nil)

	var mu sync.Mutex
	calls := 0
	firstFetched := make(chan struct{})
	releaseFirst := make(chan struct{})
	gw.onList = func(ctx context.Context) ([]models.Model, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstFetched)
			<-releaseFirst
			return []models.Model{model("a", models.StatusTrained)}, nil
		}
		return []models.Model{}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.RefreshAll(context.Background())
		done <- err
	}()

	<-firstFetched
	require.NoError(t, c.DeleteModel(context.Background(), "a", true))
	list, err := c.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	close(releaseFirst)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not finish")
	}

	_, ok := reg.Get("a")
	assert.False(t, ok, "deleted model came back")
	assert.Zero(t, reg.Len())
}

// The backend resolved training while the train request was in flight.
func TestTrainOvertakenByRefreshRecordsNothing(t *testing.T) {
	gw := newFakeGateway()
	reg := NewRegistry()
	require.NoError(t, reg.Put(model("1", models.StatusPending)))
	pub := &fakePublisher{}
	c := newController(gw, reg, pub)

	gw.list = []models.Model{model("1", models.StatusTrained, 0.7)}
	gw.onTrain = func(ctx context.Context, id string) error {
		_, err := c.RefreshAll(ctx)
		return err
	}

	m, err := c.TrainModel(context.Background(), "1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTrained, m.Status)
	assert.NotContains(t, pub.types(), models.EventModelTrainRequested)
}
