package validation

import (
	"strings"
	"testing"
)

type account struct {
	Email string `es:"email" validate:"required,email"`
	Name  string `es:"display_name" validate:"required,min=3"`
	Age   int    `json:"age" validate:"gte=0,lte=150"`
	Plan  string `validate:"omitempty,oneof=free pro"`
}

func TestValidateStruct_ReportsDocumentFieldNames(t *testing.T) {
	fields := ValidateStruct(&account{Email: "not-an-email", Name: "ab", Age: 200})

	if len(fields) != 3 {
		t.Fatalf("expected 3 violations, got %v", fields)
	}
	if _, ok := fields["email"]; !ok {
		t.Fatalf("es tag name must be used, got %v", fields)
	}
	if msg, ok := fields["display_name"]; !ok || !strings.Contains(msg, "at least 3") {
		t.Fatalf("unexpected min message: %v", fields)
	}
	if _, ok := fields["age"]; !ok {
		t.Fatalf("json tag must be the fallback name, got %v", fields)
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	fields := ValidateStruct(&account{Email: "a@b.co", Name: "ann", Age: 30, Plan: "pro"})
	if len(fields) != 0 {
		t.Fatalf("expected no violations, got %v", fields)
	}
}

func TestValidate_ErrorMessage(t *testing.T) {
	err := Validate(&account{})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	vErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if len(vErr.Fields) != 2 {
		t.Fatalf("expected email and display_name violations, got %v", vErr.Fields)
	}
	msg := err.Error()
	// Messages are sorted by field name for stable output.
	if !strings.Contains(msg, "display_name") || strings.Index(msg, "display_name") > strings.Index(msg, "email") {
		t.Fatalf("unexpected message order: %q", msg)
	}

	if err := Validate(&account{Email: "a@b.co", Name: "ann"}); err != nil {
		t.Fatalf("valid entity must pass, got %v", err)
	}
}

func TestFieldName_GoNameFallback(t *testing.T) {
	if got := ValidateStruct(&account{Email: "a@b.co", Name: "ann", Plan: "enterprise"}); len(got) != 1 {
		t.Fatalf("expected one violation, got %v", got)
	} else if _, ok := got["Plan"]; !ok {
		t.Fatalf("untagged field must use the Go name, got %v", got)
	}
}
