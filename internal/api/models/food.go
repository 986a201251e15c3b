package models

// ResolveFoodRequest is the body of POST /v1/foods/resolve.
type ResolveFoodRequest struct {
	Label string `json:"label"`
	// Confidence is set when the label came from a classifier, in 0..1.
	Confidence *float64 `json:"confidence,omitempty"`
	Source     string   `json:"source,omitempty"`
}
