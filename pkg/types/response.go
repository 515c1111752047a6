package types

// SuccessEnvelope wraps every successful API payload. Data is null when an
// operation legitimately resolves to nothing, e.g. a point no polygon
// contains.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape: a stable machine code, a safe message
// and optional structured details such as the offending field or index.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
