package models

import (
	"time"
)

// APIResponse represents a standard API response structure
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError represents an API error response
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ValidationError describes one rejected request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PageInfo describes an offset page of notifications
type PageInfo struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	APIResponse
	Pagination *PageInfo `json:"pagination,omitempty"`
}

// SnapshotResult is the body of a forced snapshot run
type SnapshotResult struct {
	Message   string   `json:"message"`
	Count     int      `json:"count"`
	WeekStart string   `json:"week_start"`
	TickID    string   `json:"tick_id"`
	Failed    []string `json:"failed,omitempty"`
}

type AddMemberRequest struct {
	Username string `json:"username"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

// NewSuccessResponse creates a successful API response
func NewSuccessResponse(data interface{}, message string) *APIResponse {
	return &APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewErrorResponse creates an error API response
func NewErrorResponse(code, message string, details map[string]string) *APIResponse {
	return &APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now(),
	}
}

// NewPaginatedResponse creates a paginated API response
func NewPaginatedResponse(data interface{}, page *PageInfo, message string) *PaginatedResponse {
	return &PaginatedResponse{
		APIResponse: APIResponse{
			Success:   true,
			Message:   message,
			Data:      data,
			Timestamp: time.Now(),
		},
		Pagination: page,
	}
}

// HealthCheck represents a health check response
type HealthCheck struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version"`
	Commit     string                     `json:"commit"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health status of a component
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func NewHealthCheck(version, commit string) *HealthCheck {
	return &HealthCheck{
		Status:     "healthy",
		Timestamp:  time.Now(),
		Version:    version,
		Commit:     commit,
		Components: make(map[string]ComponentHealth),
	}
}

// AddComponent adds a component health status
func (h *HealthCheck) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{Status: status, Message: message}

	// any unhealthy component marks the whole service unhealthy
	if status != "healthy" {
		h.Status = "unhealthy"
	}
}
