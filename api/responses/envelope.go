package responses

// Envelope wraps every successful payload under "data".
type Envelope struct {
	Data any `json:"data"`
}

// ErrorBody is the client-visible part of a failure. RequestID echoes X-Request-Id so
// support can find the matching log line.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorEnvelope wraps a failure under "error".
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}
