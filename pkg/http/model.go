package http

// APIResponse is the envelope every JSON endpoint answers with. Status mirrors
// the HTTP status; Data holds the payload or a list of errors.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one rejected query or body field.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_ONEOF"`
	Field   string                 `json:"field,omitempty" example:"commodity"`
	Message string                 `json:"message,omitempty" example:"commodity must be one of: coffee, wheat, rice, corn, soybean"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
