package model

// ErrorBody is the JSON envelope for every rejected request. Code is set for
// authorization failures ("FORBIDDEN", "PERMISSION_DENIED"); RetryAfter is
// set, in seconds, for rate-limit rejections.
type ErrorBody struct {
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// ListResponse is the standard envelope for list endpoints.
type ListResponse struct {
	Data interface{}   `json:"data"`
	Meta *ResponseMeta `json:"meta,omitempty"`
}

// ResponseMeta carries pagination information for list responses.
type ResponseMeta struct {
	Count  int `json:"count"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}
