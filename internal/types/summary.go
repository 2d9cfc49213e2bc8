package types

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Form field names of the summarize endpoint.
const (
	FieldDocURL    = "doc_url"
	FieldCSRFToken = "csrf_token"
)

// SummarizeRequest is the decoded form body of a summarize call.
type SummarizeRequest struct {
	DocURL    string `validate:"required,url"`
	CSRFToken string `validate:"required"`
}

var validate = validator.New()

// Validate validates the SummarizeRequest using the validator.
func (r *SummarizeRequest) Validate() error {
	return validate.Struct(r)
}

// SummaryResponse is the success/failure envelope returned by the summarize endpoint.
type SummaryResponse struct {
	Success bool   `json:"success"`
	Summary string `json:"summary,omitempty"`
	Cached  bool   `json:"cached"`
	Error   string `json:"error,omitempty"`
}

// SummarySucceeded builds a success envelope.
func SummarySucceeded(summary string, cached bool) SummaryResponse {
	return SummaryResponse{Success: true, Summary: summary, Cached: cached}
}

// SummaryFailed builds a failure envelope.
func SummaryFailed(message string) SummaryResponse {
	return SummaryResponse{Success: false, Error: message}
}

// TokenResponse carries a freshly issued anti-forgery token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
