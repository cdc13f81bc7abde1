package middleware

// Context keys used to store request and authentication metadata.
const (
	ContextKeyOperatorEmail = "operator_email"
	ContextKeyTokenScope    = "token_scope"
	ContextKeyRequestID     = "request_id"
)
