package storecmd

import "testing"

func TestReloadStoreCommandValidate(t *testing.T) {
	cmd := ReloadStoreCommand{}
	if err := cmd.Validate(); err != nil {
		t.Fatalf("unexpected error for empty reload command: %v", err)
	}

	cmd.Reason = "watcher"
	if err := cmd.Validate(); err != nil {
		t.Fatalf("unexpected error with reason set: %v", err)
	}
}

func TestSyncArchiveCommandValidateRejectsBlankIdentifier(t *testing.T) {
	cmd := SyncArchiveCommand{
		Identifiers: []string{"2025-05-26-program-verification-intro", "  "},
	}
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected error for blank identifier entry")
	}

	cmd.Identifiers = []string{"2025-05-26-program-verification-intro"}
	if err := cmd.Validate(); err != nil {
		t.Fatalf("unexpected error with valid identifiers: %v", err)
	}
}

func TestSyncArchiveCommandValidateAllowsEmptySelection(t *testing.T) {
	cmd := SyncArchiveCommand{Prune: true}
	if err := cmd.Validate(); err != nil {
		t.Fatalf("unexpected error for full-snapshot sync: %v", err)
	}
}

func TestMessageTypes(t *testing.T) {
	if got := (ReloadStoreCommand{}).Type(); got != "press.store.reload" {
		t.Fatalf("expected reload message type, got %q", got)
	}
	if got := (SyncArchiveCommand{}).Type(); got != "press.store.sync_archive" {
		t.Fatalf("expected sync archive message type, got %q", got)
	}
}
