// Package server provides the HTTP surface of videosend.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "github.com/maauso/videosend/internal/pipeline"

// SourceRequest is the HTTP request body for endpoints that take an asset reference.
type SourceRequest struct {
	// Source is a file:// reference, an absolute path, or an s3:// reference
	// when S3 is configured.
	Source string `json:"source" validate:"required,max=4096"`
}

// CreateConversionResponse is the HTTP response after accepting a conversion.
type CreateConversionResponse struct {
	// ID is the unique identifier for the conversion.
	ID string `json:"id"`
	// State is the initial conversion state.
	State string `json:"state"`
}

// ConversionResponse is the HTTP response for getting conversion details.
type ConversionResponse struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	State     string `json:"state"`
	SessionID string `json:"session_id,omitempty"`
	// Progress is the percentage of completion (0-100).
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
	// Item is set once the conversion succeeded and its output still exists.
	Item *pipeline.SenderItem `json:"item,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
	// Reason carries the asset validation rule that failed, if any.
	Reason string `json:"reason,omitempty"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
