package oauthmodel

// ErrorResponse is the error body the backend sends with non-2xx statuses.
// Detail may be a plain string or a list of validation problems, so it is
// kept raw and rendered by Message.
type ErrorResponse struct {
	Detail any `json:"detail"`
}

// Message returns a printable form of Detail.
func (e ErrorResponse) Message() string {
	switch d := e.Detail.(type) {
	case nil:
		return ""
	case string:
		return d
	case []any:
		if len(d) == 0 {
			return ""
		}
		if first, ok := d[0].(map[string]any); ok {
			if msg, ok := first["msg"].(string); ok {
				return msg
			}
		}
		return "validation error"
	default:
		return "request failed"
	}
}
