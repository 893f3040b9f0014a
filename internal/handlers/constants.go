package handlers

const (
	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrTooManyRequests     = "Too many requests, slow down"
	ErrInternalServerError = "Internal server error"
	ErrScoringUnavailable  = "Scoring service unavailable"

	maxRequestBody = 1 << 20
)
