package types

// SuccessEnvelope is the uniform success body. Payload keys other than data
// (order, review) are written through KeyedEnvelope.
type SuccessEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Error   APIError `json:"error"`
}

// KeyedEnvelope renders {success, message, <key>: payload}.
func KeyedEnvelope(message, key string, payload any) map[string]any {
	return map[string]any{
		"success": true,
		"message": message,
		key:       payload,
	}
}
