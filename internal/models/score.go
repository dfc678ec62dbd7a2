package models

// Rating is the risk tier derived from a credit score
type Rating string

const (
	RatingPoor      Rating = "Poor"
	RatingAverage   Rating = "Average"
	RatingGood      Rating = "Good"
	RatingExcellent Rating = "Excellent"
	RatingUndefined Rating = "Undefined"
)

// ScoreResult is the outcome of scoring one application
type ScoreResult struct {
	DefaultProbability float64 `json:"default_probability"`
	CreditScore        int     `json:"credit_score"`
	Rating             Rating  `json:"rating"`
}

// ModelInfo summarizes the loaded model artifact
type ModelInfo struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	ScalerKind     string   `json:"scaler_kind"`
	Features       []string `json:"features"`
	ScaledFeatures []string `json:"scaled_features"`
	Fingerprint    string   `json:"fingerprint"`
}
