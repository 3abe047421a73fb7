package types

import "strings"

// Placeholders substituted when a snapshot or relation is missing. Every
// response DTO resolves optional values through Fallback so the defaults live
// in exactly one place.
const (
	FallbackProductName = "Unnamed product"
	FallbackDescription = "No description"
	FallbackCategory    = "Uncategorized"
	FallbackUsername    = "Unknown user"
	FallbackOrderItem   = "Unknown product"
	FallbackRole        = "Customer"
)

// Fallback returns the trimmed value or the placeholder when the value is nil or blank.
func Fallback(value *string, placeholder string) string {
	if value == nil {
		return placeholder
	}
	if trimmed := strings.TrimSpace(*value); trimmed != "" {
		return trimmed
	}
	return placeholder
}

// Optional converts the zero value of a string into a nil pointer.
func Optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Deref returns the pointed-to string or empty.
func Deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
