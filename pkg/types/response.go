// Package types holds the JSON envelopes the gateway answers with. Every
// response is either data or a coded error, never both.
package types

// SuccessEnvelope wraps a successful payload under a single data key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a pkg/errors code: details only appear when
// the code's metadata allows them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
