package storecmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	reloadStoreMessageType = "press.store.reload"
	syncArchiveMessageType = "press.store.sync_archive"
)

// ReloadStoreCommand triggers a full re-read of the content directory followed
// by an atomic snapshot swap. Reads issued while the reload runs keep serving
// the previous snapshot.
type ReloadStoreCommand struct {
	// Reason annotates what triggered the reload (watcher, cron, operator) in logs.
	Reason string `json:"reason,omitempty"`
}

// Type implements command.Message.
func (ReloadStoreCommand) Type() string { return reloadStoreMessageType }

// Validate implements command.Message. Reloads carry no required input.
func (ReloadStoreCommand) Validate() error { return nil }

// SyncArchiveCommand mirrors the current snapshot into the archive repository
// outside the regular reload cycle, for example after restoring the archive
// database. Prune removes archive rows without a matching snapshot document.
type SyncArchiveCommand struct {
	// Identifiers limits the sync to the named documents. Empty syncs the full snapshot.
	Identifiers []string `json:"identifiers,omitempty"`
	// Prune deletes archive rows that are no longer part of the snapshot.
	Prune bool `json:"prune,omitempty"`
}

// Type implements command.Message.
func (SyncArchiveCommand) Type() string { return syncArchiveMessageType }

// Validate rejects blank identifier entries before handlers execute.
func (cmd SyncArchiveCommand) Validate() error {
	err := validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Identifiers, validation.Each(validation.By(func(value any) error {
			s, _ := value.(string)
			if strings.TrimSpace(s) == "" {
				return validation.NewError("press.store.sync_archive.identifier_blank", "identifier cannot be blank")
			}
			return nil
		}))),
	)
	if err != nil {
		return err
	}
	return nil
}
