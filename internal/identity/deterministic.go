package identity

import (
	"strings"
	"time"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// DocumentUUID derives the stable id for a document from its identifier, so
// repeated loads of the same source produce the same record.
func DocumentUUID(identifier string) uuid.UUID {
	return UUID("go-press:document:" + strings.TrimSpace(identifier))
}

// BuildUUID derives the id for a publish run from its start time.
func BuildUUID(startedAt time.Time) uuid.UUID {
	return UUID("go-press:build:" + startedAt.UTC().Format(time.RFC3339Nano))
}
