package utils

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Reason string `json:"reason" validate:"max=5"`
}

func TestValidateStruct(t *testing.T) {
	errs := ValidateStruct(sampleRequest{Email: "nope", Reason: "too long reason"})
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if errs["Email"] != "Invalid email format" {
		t.Errorf("Email message = %q", errs["Email"])
	}
	if !strings.Contains(errs["Reason"], "5") {
		t.Errorf("Reason message = %q", errs["Reason"])
	}

	formatted := FormatValidationErrors(errs)
	if !strings.HasPrefix(formatted, "Email:") {
		t.Errorf("formatted errors not sorted: %q", formatted)
	}

	if errs := ValidateStruct(sampleRequest{Email: "a@b.co"}); errs != nil {
		t.Errorf("expected no errors, got %v", errs)
	}
}
