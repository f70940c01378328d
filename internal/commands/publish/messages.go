package publishcmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const buildSiteMessageType = "press.publish.build"

// BuildSiteCommand renders the document store into static pages, feeds, and
// sitemap files. Identifiers scope the build to specific documents; an empty
// list performs a full site build including index and category surfaces.
type BuildSiteCommand struct {
	// Identifiers limits rendering to the named documents.
	Identifiers []string `json:"identifiers,omitempty"`
	// DryRun collects the artifact plan without writing any files.
	DryRun bool `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate rejects blank identifier entries before handlers execute.
func (cmd BuildSiteCommand) Validate() error {
	err := validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Identifiers, validation.Each(validation.By(func(value any) error {
			s, _ := value.(string)
			if strings.TrimSpace(s) == "" {
				return validation.NewError("press.publish.build.identifier_blank", "identifier cannot be blank")
			}
			return nil
		}))),
	)
	if err != nil {
		return err
	}
	return nil
}
