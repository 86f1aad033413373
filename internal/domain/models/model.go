package models

import (
	"encoding/json"
	"time"
)

// ModelType is the estimator family a model job trains.
type ModelType string

const (
	ModelRandomForest ModelType = "random_forest"
	ModelXGBoost      ModelType = "xgboost"
	ModelSVM          ModelType = "svm"
	ModelLSTM         ModelType = "lstm"
)

// Target is the prediction objective of a model.
type Target string

const (
	TargetPriceDirection Target = "price_direction"
	TargetPriceChange    Target = "price_change"
	TargetVolatility     Target = "volatility"
)

// Status is the lifecycle state of a model job.
type Status string

const (
	StatusPending  Status = "pending"
	StatusTraining Status = "training"
	StatusTrained  Status = "trained"
	StatusFailed   Status = "failed"
)

// Terminal reports whether the backend has finished with the job.
func (s Status) Terminal() bool {
	return s == StatusTrained || s == StatusFailed
}

// Model mirrors one ML job held by the backend. The local copy is advisory
// until the next reconciliation read.
type Model struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ModelType ModelType `json:"model_type"`
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	Target    Target    `json:"target,omitempty"`
	Status    Status    `json:"status"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
}

// ModelSpec is the creation request for a new model job.
type ModelSpec struct {
	Name      string    `json:"name" validate:"required,notblank"`
	ModelType ModelType `json:"model_type" validate:"required,oneof=random_forest xgboost svm lstm"`
	Symbol    string    `json:"symbol" validate:"required"`
	Timeframe Timeframe `json:"timeframe" validate:"required,oneof=1minute 5minute 15minute day"`
	Target    Target    `json:"target" default:"price_direction" validate:"oneof=price_direction price_change volatility"`
	Features  []string  `json:"features,omitempty"`
}

// Hyperparameters are passed through to the trainer untouched.
type Hyperparameters map[string]json.RawMessage

// PredictionResult is an ephemeral inference output; it is never stored on the model.
type PredictionResult struct {
	ModelID     string    `json:"model_id"`
	Prediction  []float64 `json:"prediction"`
	Confidence  float64   `json:"confidence"`
	GeneratedAt time.Time `json:"timestamp"`
}

// FeatureWeight is one row of a trained model's feature importance table.
type FeatureWeight struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}
