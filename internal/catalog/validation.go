package catalog

import (
	"context"
	"strings"
)

func validTemperature(temp string) bool {
	switch temp {
	case TempHot, TempIced, TempIcedOnly, TempBoth:
		return true
	}
	return false
}

func ValidateOfferingCreate(ctx context.Context, req OfferingCreateRequest) []string {
	var errors []string

	if strings.TrimSpace(req.Name) == "" {
		errors = append(errors, "name is required")
	}

	if strings.TrimSpace(req.Category) == "" {
		errors = append(errors, "category is required")
	}

	if req.BasePrice < 0 {
		errors = append(errors, "base_price cannot be negative")
	}

	if req.Temperature != "" && !validTemperature(req.Temperature) {
		errors = append(errors, "invalid temperature option")
	}

	return errors
}

func ValidateOfferingUpdate(ctx context.Context, req OfferingUpdateRequest) []string {
	var errors []string

	if req.BasePrice != nil && *req.BasePrice < 0 {
		errors = append(errors, "base_price cannot be negative")
	}

	if req.Temperature != nil && !validTemperature(*req.Temperature) {
		errors = append(errors, "invalid temperature option")
	}

	return errors
}
