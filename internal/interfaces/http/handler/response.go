package handler

import "github.com/customers/backend/internal/interfaces/http/dto"

// APIResponse documents the envelope with a typed data field
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// ErrorResponse documents an error envelope
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// HealthStatus is the liveness body
type HealthStatus struct {
	Status string `json:"status" example:"ok"`
}
