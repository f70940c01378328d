package publishcmd

import "testing"

func TestBuildSiteCommandValidateRejectsBlankIdentifier(t *testing.T) {
	cmd := BuildSiteCommand{
		Identifiers: []string{"2025-05-26-program-verification-intro", ""},
	}
	if err := cmd.Validate(); err == nil {
		t.Fatal("expected error for blank identifier entry")
	}

	cmd.Identifiers = []string{"2025-05-26-program-verification-intro"}
	if err := cmd.Validate(); err != nil {
		t.Fatalf("unexpected error with valid identifiers: %v", err)
	}
}

func TestBuildSiteCommandValidateAllowsFullBuild(t *testing.T) {
	cmd := BuildSiteCommand{DryRun: true}
	if err := cmd.Validate(); err != nil {
		t.Fatalf("unexpected error for full build: %v", err)
	}
}

func TestBuildSiteCommandType(t *testing.T) {
	if got := (BuildSiteCommand{}).Type(); got != "press.publish.build" {
		t.Fatalf("expected build message type, got %q", got)
	}
}
