package catalog

import (
	"context"
	"testing"
)

func TestOfferingTemperatureHelpers(t *testing.T) {
	tests := []struct {
		name        string
		capability  string
		wantCold    bool
		wantDefault string
		allowed     []string
		denied      []string
	}{
		{
			name:        "hotOnly",
			capability:  TempHot,
			wantCold:    false,
			wantDefault: TempHot,
			allowed:     []string{TempHot},
			denied:      []string{TempIced},
		},
		{
			name:        "dualCapability",
			capability:  TempBoth,
			wantCold:    false,
			wantDefault: TempHot,
			allowed:     []string{TempHot, TempIced},
			denied:      []string{TempIcedOnly, ""},
		},
		{
			name:        "icedOnly",
			capability:  TempIcedOnly,
			wantCold:    true,
			wantDefault: TempIced,
			allowed:     []string{TempIced},
			denied:      []string{TempHot},
		},
		{
			name:        "icedCapability",
			capability:  TempIced,
			wantCold:    true,
			wantDefault: TempIced,
			allowed:     []string{TempIced},
			denied:      []string{TempHot},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off := &Offering{Temperature: tt.capability}
			if got := off.ColdOnly(); got != tt.wantCold {
				t.Errorf("ColdOnly() = %v, want %v", got, tt.wantCold)
			}
			if got := off.DefaultTemperature(); got != tt.wantDefault {
				t.Errorf("DefaultTemperature() = %q, want %q", got, tt.wantDefault)
			}
			for _, temp := range tt.allowed {
				if !off.AllowsTemperature(temp) {
					t.Errorf("AllowsTemperature(%q) = false, want true", temp)
				}
			}
			for _, temp := range tt.denied {
				if off.AllowsTemperature(temp) {
					t.Errorf("AllowsTemperature(%q) = true, want false", temp)
				}
			}
		})
	}
}

func TestValidateOfferingCreate(t *testing.T) {
	tests := []struct {
		name       string
		req        OfferingCreateRequest
		wantErrors int
	}{
		{
			name: "valid",
			req: OfferingCreateRequest{
				Name:      "Latte",
				Category:  "coffee",
				BasePrice: 120,
			},
			wantErrors: 0,
		},
		{
			name:       "missingEverything",
			req:        OfferingCreateRequest{BasePrice: -1},
			wantErrors: 3,
		},
		{
			name: "badTemperature",
			req: OfferingCreateRequest{
				Name:        "Latte",
				Category:    "coffee",
				Temperature: "lukewarm",
			},
			wantErrors: 1,
		},
		{
			name: "whitespaceName",
			req: OfferingCreateRequest{
				Name:     "   ",
				Category: "coffee",
			},
			wantErrors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateOfferingCreate(context.Background(), tt.req)
			if len(errs) != tt.wantErrors {
				t.Errorf("ValidateOfferingCreate() = %v, want %d errors", errs, tt.wantErrors)
			}
		})
	}
}

func TestValidateOfferingUpdate(t *testing.T) {
	negative := -5.0
	bad := "lukewarm"
	errs := ValidateOfferingUpdate(context.Background(), OfferingUpdateRequest{
		BasePrice:   &negative,
		Temperature: &bad,
	})
	if len(errs) != 2 {
		t.Errorf("ValidateOfferingUpdate() = %v, want 2 errors", errs)
	}

	if errs := ValidateOfferingUpdate(context.Background(), OfferingUpdateRequest{}); len(errs) != 0 {
		t.Errorf("empty update: errors = %v, want none", errs)
	}
}
