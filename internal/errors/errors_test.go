package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

func TestNewSchemaError_EmptyIsNil(t *testing.T) {
	if err := NewSchemaError(nil); err != nil {
		t.Fatalf("expected nil for empty list, got %v", err)
	}
	if err := NewSchemaError(field.ErrorList{}); err != nil {
		t.Fatalf("expected nil for empty list, got %v", err)
	}
}

func TestSchemaError_SingleMessage(t *testing.T) {
	errs := field.ErrorList{
		field.Invalid(field.NewPath("devices").Key("3070").Child("fp16"), -1.0, "must be non-negative"),
	}
	err := NewSchemaError(errs)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "catalog: schema violation: ") {
		t.Errorf("unexpected prefix: %q", msg)
	}
	if !strings.Contains(msg, "devices[3070].fp16") {
		t.Errorf("message should name record and field: %q", msg)
	}
}

func TestSchemaError_MultipleMessages(t *testing.T) {
	p := field.NewPath("devices")
	errs := field.ErrorList{
		field.Required(p.Index(0).Child("name"), "short name is required"),
		field.Duplicate(p.Key("A10").Child("name"), "A10"),
	}
	err := NewSchemaError(errs)
	msg := err.Error()
	if !strings.HasPrefix(msg, "catalog: 2 schema violations: [") {
		t.Errorf("unexpected message: %q", msg)
	}
	if !strings.Contains(msg, "devices[0].name") || !strings.Contains(msg, "devices[A10].name") {
		t.Errorf("message should list both paths: %q", msg)
	}
}

func TestSchemaError_CodeAndCounts(t *testing.T) {
	p := field.NewPath("devices")
	err := NewSchemaError(field.ErrorList{
		field.Required(p.Index(0).Child("tdp"), ""),
		field.Required(p.Index(0).Child("sms"), ""),
		field.Duplicate(p.Key("T4").Child("name"), "T4"),
	})

	se, ok := AsSchemaError(err)
	if !ok {
		t.Fatal("AsSchemaError should succeed")
	}
	if se.Code != ErrSchemaViolation {
		t.Errorf("Code = %q, want %q", se.Code, ErrSchemaViolation)
	}
	counts := se.CountByType()
	if counts[string(field.ErrorTypeRequired)] != 2 {
		t.Errorf("required count = %d, want 2", counts[string(field.ErrorTypeRequired)])
	}
	if counts[string(field.ErrorTypeDuplicate)] != 1 {
		t.Errorf("duplicate count = %d, want 1", counts[string(field.ErrorTypeDuplicate)])
	}
}

func TestIsSchemaViolation_Wrapped(t *testing.T) {
	inner := NewSchemaError(field.ErrorList{field.Required(field.NewPath("devices").Index(2), "")})
	wrapped := fmt.Errorf("build: load catalog: %w", inner)

	if !IsSchemaViolation(wrapped) {
		t.Error("wrapped SchemaError should be detected")
	}
	if IsSchemaViolation(stderrors.New("disk full")) {
		t.Error("plain error must not be a schema violation")
	}
	if IsSchemaViolation(nil) {
		t.Error("nil must not be a schema violation")
	}
}

func TestSchemaError_UnwrapFieldErrors(t *testing.T) {
	fe := field.Invalid(field.NewPath("devices").Key("V100").Child("vram"), int64(-1), "must be non-negative")
	err := NewSchemaError(field.ErrorList{fe})

	var got *field.Error
	if !stderrors.As(err, &got) {
		t.Fatal("errors.As should reach the field error")
	}
	if got.Field != "devices[V100].vram" {
		t.Errorf("Field = %q, want devices[V100].vram", got.Field)
	}
}
