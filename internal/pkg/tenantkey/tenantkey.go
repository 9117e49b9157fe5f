// Package tenantkey derives the canonical tenant identifier used by every
// lookup and write in the pipeline.
//
// Scheme v1: an external id that is already a plain-form RFC 4122 UUID is
// used verbatim (case-folded); anything else is mapped to the 16 MD5 bytes
// of the raw id laid out as a UUID. The mapping is pure and stable across
// process restarts. Changing the scheme invalidates every stored tenant
// reference, so it is part of the storage format and must never be bumped
// without a data migration.
package tenantkey

import (
	"crypto/md5"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ErrEmptyID is returned when the external id is blank.
var ErrEmptyID = errors.New("empty tenant id")

// SchemeVersion identifies the derivation scheme in use.
const SchemeVersion = 1

var plainUUIDRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Canonical maps an external tenant id to the canonical internal key.
func Canonical(externalID string) (uuid.UUID, error) {
	id := strings.TrimSpace(externalID)
	if id == "" {
		return uuid.Nil, ErrEmptyID
	}
	if plainUUIDRe.MatchString(strings.ToLower(id)) {
		return uuid.Parse(strings.ToLower(id))
	}
	sum := md5.Sum([]byte(id))
	return uuid.FromBytes(sum[:])
}
