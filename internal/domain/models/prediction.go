package models

// PredictionResult is the outcome of a next-close prediction.
type PredictionResult struct {
	Ticker         string  `json:"ticker"`
	FixedSymbol    string  `json:"fixed_symbol"`
	Algorithm      string  `json:"algorithm"`
	CurrentPrice   float64 `json:"current_price"`
	PredictedPrice float64 `json:"predicted_price"`
	InputDaysUsed  int     `json:"input_days_used"`
}

// PredictRequest is the /api/predict request body.
type PredictRequest struct {
	Ticker    string `json:"ticker" validate:"required,min=1,max=20"`
	InputDays int    `json:"input_days" default:"60" validate:"gte=1,lte=3650"`
	Algorithm string `json:"algorithm" default:"best" validate:"oneof=lstm ann gru cnn_lstm arima xgboost prophet best"`
}

// TrainRequest is the /api/train request body.
type TrainRequest struct {
	Ticker    string `json:"ticker" validate:"required,min=1,max=20"`
	Algorithm string `json:"algorithm" default:"lstm" validate:"oneof=lstm ann gru cnn_lstm arima xgboost prophet"`
	Epochs    int    `json:"epochs" default:"50" validate:"gte=1,lte=1000"`
	Period    string `json:"period" default:"5y"`
}

// BatchTrainRequest is the /api/train/batch request body.
type BatchTrainRequest struct {
	Tickers    []string `json:"tickers" validate:"required,min=1,dive,min=1,max=20"`
	Algorithms []string `json:"algorithms" validate:"required,min=1,dive,oneof=lstm ann gru cnn_lstm arima xgboost prophet"`
	Epochs     int      `json:"epochs" default:"50" validate:"gte=1,lte=1000"`
	Period     string   `json:"period" default:"5y"`
}

// HistoryResult is the /api/history response payload.
type HistoryResult struct {
	Symbol string    `json:"symbol"`
	Dates  []string  `json:"dates"`
	Close  []float64 `json:"close"`
}

// StockInfo is one entry of the stock registry.
type StockInfo struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// TrainingEvent is published to Kafka after each training run.
type TrainingEvent struct {
	Symbol    string `json:"symbol"`
	Algorithm string `json:"algorithm"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	Duration  int64  `json:"duration_ms"`
}
