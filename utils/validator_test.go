package utils

import "testing"

type sampleInput struct {
	Email string `validate:"required,email"`
	Name  string `validate:"required,min=2,max=10"`
	Role  string `validate:"omitempty,oneof=admin manager staff"`
}

func TestValidateStructValid(t *testing.T) {
	errs := ValidateStruct(sampleInput{Email: "a@b.co", Name: "Ada", Role: "admin"})
	if errs != nil {
		t.Errorf("expected no errors, got %+v", errs)
	}
}

func TestValidateStructCollectsFieldErrors(t *testing.T) {
	errs := ValidateStruct(sampleInput{Email: "not-an-email", Name: "", Role: "superuser"})
	if len(errs) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %+v", len(errs), errs)
	}

	byField := map[string]string{}
	for _, fe := range errs {
		byField[fe.Field] = fe.Message
	}
	if byField["email"] != "email must be a valid email" {
		t.Errorf("email message = %q", byField["email"])
	}
	if byField["name"] != "name is required" {
		t.Errorf("name message = %q", byField["name"])
	}
	if byField["role"] == "" {
		t.Error("missing role error")
	}
}

func TestValidateStructBounds(t *testing.T) {
	errs := ValidateStruct(sampleInput{Email: "a@b.co", Name: "x"})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].Message != "name must be at least 2 characters" {
		t.Errorf("min message = %q", errs[0].Message)
	}
}
