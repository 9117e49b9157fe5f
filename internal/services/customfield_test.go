package services

import (
	"testing"

	"github.com/nordiska/pricewatch-backend/internal/domain/customfields"
)

func TestInferFieldType(t *testing.T) {
	cases := []struct {
		in   interface{}
		want customfields.FieldType
	}{
		{true, customfields.TypeBoolean},
		{"true", customfields.TypeBoolean},
		{"false", customfields.TypeBoolean},
		{42.5, customfields.TypeNumber},
		{"42.5", customfields.TypeNumber},
		{"-3", customfields.TypeNumber},
		{"https://x.test/a", customfields.TypeURL},
		{"http://example.com", customfields.TypeURL},
		{"2024-01-15", customfields.TypeDate},
		{"2024-01-15T10:30:00Z", customfields.TypeDate},
		{"01/15/2024", customfields.TypeDate},
		{"2024-13-45", customfields.TypeText}, // shaped like a date, is not one
		{"matte black", customfields.TypeText},
		{"ftp://host/file", customfields.TypeText}, // only http(s) counts as url
		{nil, customfields.TypeText},
	}
	for _, tc := range cases {
		if got := InferFieldType(tc.in); got != tc.want {
			t.Fatalf("InferFieldType(%v): want=%s got=%s", tc.in, tc.want, got)
		}
	}
}

func TestReservedFieldNames(t *testing.T) {
	for _, name := range []string{"id", "name", "sku", "ean", "price", "created_at", "competitor_id"} {
		if _, ok := reservedFields[name]; !ok {
			t.Fatalf("%q should be reserved", name)
		}
	}
	if _, ok := reservedFields["weight_kg"]; ok {
		t.Fatalf("weight_kg should be discoverable")
	}
}

func TestFieldNameValidation(t *testing.T) {
	valid := []string{"color", "weight_kg", "warrantyMonths", "a1"}
	invalid := []string{"1color", "has space", "da-sh", "", "åäö"}
	for _, n := range valid {
		if !fieldNameRe.MatchString(n) {
			t.Fatalf("%q should be a valid field name", n)
		}
	}
	for _, n := range invalid {
		if fieldNameRe.MatchString(n) {
			t.Fatalf("%q should be rejected", n)
		}
	}
}

func TestStringifyValue(t *testing.T) {
	if got := stringifyValue(42.0); got != "42" {
		t.Fatalf("float: got %q", got)
	}
	if got := stringifyValue(true); got != "true" {
		t.Fatalf("bool: got %q", got)
	}
	if got := stringifyValue("  padded  "); got != "padded" {
		t.Fatalf("string: got %q", got)
	}
	if got := stringifyValue(nil); got != "" {
		t.Fatalf("nil: got %q", got)
	}
}
