package tenantkey

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestCanonicalPassesThroughPlainUUID(t *testing.T) {
	id := uuid.New()
	got, err := Canonical(id.String())
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if got != id {
		t.Fatalf("plain uuid must pass through: want=%s got=%s", id, got)
	}

	upper, err := Canonical(strings.ToUpper(id.String()))
	if err != nil {
		t.Fatalf("Canonical upper: %v", err)
	}
	if upper != id {
		t.Fatalf("case must not matter: want=%s got=%s", id, upper)
	}
}

func TestCanonicalDerivesFromExternalID(t *testing.T) {
	// md5("test") = 098f6bcd4621d373cade4e832627b4f6, laid out as uuid
	// bytes directly, no version bits.
	got, err := Canonical("test")
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if got.String() != "098f6bcd-4621-d373-cade-4e832627b4f6" {
		t.Fatalf("derived uuid: got %s", got)
	}
}

func TestCanonicalIsDeterministic(t *testing.T) {
	a, err := Canonical("shop-1234")
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	b, err := Canonical("shop-1234")
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if a != b {
		t.Fatalf("same external id must map to same uuid: %s vs %s", a, b)
	}
	c, err := Canonical("shop-1235")
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if a == c {
		t.Fatalf("different external ids must not collide")
	}
}

func TestCanonicalRejectsEmpty(t *testing.T) {
	if _, err := Canonical("   "); err == nil {
		t.Fatalf("blank id must error")
	}
}
