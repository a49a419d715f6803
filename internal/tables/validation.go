package tables

import (
	"context"
	"strings"
)

func ValidateTableCreate(ctx context.Context, req TableCreateRequest) []string {
	var errors []string

	if strings.TrimSpace(req.Number) == "" {
		errors = append(errors, "number is required")
	}

	return errors
}
