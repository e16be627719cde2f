package worker

// RefreshRequest asks for a pipeline run. Every field is optional.
type RefreshRequest struct {
	Reason        string `json:"reason,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
