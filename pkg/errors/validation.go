package errors

import (
	"strings"
	"unicode"
)

// ValidateAttrName validates an attribute column name before it is used in
// redistribution or dot-group configuration.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - Maximum length of 64 characters
//
// Census-style names such as "HSP_POP23" or "2OM_CVAP23" are valid; the rules
// only reject names that could never appear in a real attribute table.
func ValidateAttrName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidAttr, "attribute name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidAttr, "attribute name too long (max 64 characters): %q", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidAttr, "attribute name contains invalid characters: %q", name)
		}
	}
	return nil
}

// ValidateAttrNames validates a list of attribute column names.
func ValidateAttrNames(names []string) error {
	if len(names) == 0 {
		return New(ErrCodeInvalidAttr, "at least one attribute name is required")
	}
	for _, n := range names {
		if err := ValidateAttrName(n); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCRS validates a coordinate reference system identifier.
// Identifiers are opaque (e.g. "EPSG:5070"); only obviously broken values
// are rejected.
func ValidateCRS(crs string) error {
	if strings.TrimSpace(crs) == "" {
		return New(ErrCodeInvalidLayer, "layer CRS cannot be empty")
	}
	for _, r := range crs {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidLayer, "CRS identifier contains control characters")
		}
	}
	return nil
}

// ValidateUnit validates a people-per-dot unit. The unit must be strictly
// positive; zero or negative values would make expected dot counts undefined.
func ValidateUnit(unit float64) error {
	if !(unit > 0) { // also rejects NaN
		return New(ErrCodeInvalidUnit, "people per dot must be positive, got %g", unit)
	}
	return nil
}
