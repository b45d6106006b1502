package api

import "github.com/starford/dayvault/internal/models"

// Response headers carrying the run counters next to the ZIP body.
const (
	HeaderRunID     = "X-Dayvault-Run-Id"
	HeaderConverted = "X-Dayvault-Converted"
	HeaderSkipped   = "X-Dayvault-Skipped"
)

// ConversionListResponse wraps the history listing.
type ConversionListResponse struct {
	Conversions []models.Run `json:"conversions" validate:"required"`
}
