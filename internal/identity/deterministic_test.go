package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestUUIDIsDeterministic(t *testing.T) {
	first := UUID("go-press:document:2025-05-26-program-verification-intro")
	second := UUID("go-press:document:2025-05-26-program-verification-intro")

	if first == uuid.Nil {
		t.Fatal("UUID returned uuid.Nil for a valid key")
	}
	if first != second {
		t.Fatalf("UUID not deterministic: %s vs %s", first, second)
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if got := UUID("   "); got != uuid.Nil {
		t.Fatalf("UUID of blank key = %s, want uuid.Nil", got)
	}
}

func TestDocumentUUIDDistinctPerIdentifier(t *testing.T) {
	intro := DocumentUUID("2025-05-26-program-verification-intro")
	followUp := DocumentUUID("2025-08-09-when-one-run-isnt-enough")

	if intro == followUp {
		t.Fatal("distinct identifiers produced the same document id")
	}
	if intro != DocumentUUID(" 2025-05-26-program-verification-intro ") {
		t.Fatal("surrounding whitespace changed the document id")
	}
}

func TestBuildUUIDTracksStartTime(t *testing.T) {
	at := time.Date(2025, 8, 9, 7, 30, 0, 0, time.UTC)

	if BuildUUID(at) != BuildUUID(at) {
		t.Fatal("BuildUUID not deterministic for the same instant")
	}
	if BuildUUID(at) == BuildUUID(at.Add(time.Second)) {
		t.Fatal("BuildUUID collided across instants")
	}
}
