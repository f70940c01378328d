package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-press/pkg/interfaces"
)

var (
	ErrSchemaInvalid    = errors.New("schema invalid")
	ErrSchemaValidation = errors.New("schema validation failed")
)

// ValidationIssue captures a single validation failure.
type ValidationIssue struct {
	Location string
	Message  string
}

// PayloadValidationError surfaces validation issues with schema-aware context.
type PayloadValidationError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *PayloadValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *PayloadValidationError) Unwrap() error {
	return ErrSchemaValidation
}

// Issues extracts validation issues from an error.
func Issues(err error) []ValidationIssue {
	if err == nil {
		return nil
	}
	var payloadErr *PayloadValidationError
	if errors.As(err, &payloadErr) && payloadErr != nil {
		return payloadErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectValidationIssues(validationErr)
	}
	return []ValidationIssue{{Message: err.Error()}}
}

// FrontMatterSchema returns the default JSON schema front matter is checked
// against: title and date are required, the remaining conventional keys are
// type-checked, and unknown keys pass through untouched.
func FrontMatterSchema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"layout":  map[string]any{"type": "string"},
			"title":   map[string]any{"type": "string", "minLength": 1},
			"slug":    map[string]any{"type": "string", "pattern": "^[a-z0-9]+(?:-[a-z0-9]+)*$"},
			"summary": map[string]any{"type": "string"},
			"date":    map[string]any{"type": "string", "minLength": 1},
			"categories": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"draft": map[string]any{"type": "boolean"},
		},
		"required":             []any{"title", "date"},
		"additionalProperties": true,
	}
}

var (
	frontMatterOnce     sync.Once
	frontMatterCompiled *jsonschema.Schema
	frontMatterErr      error
)

// ValidateFrontMatter checks parsed front matter against FrontMatterSchema.
// Violations come back as a PayloadValidationError listing every issue.
func ValidateFrontMatter(fm interfaces.FrontMatter) error {
	frontMatterOnce.Do(func() {
		frontMatterCompiled, frontMatterErr = compileSchema(FrontMatterSchema())
	})
	if frontMatterErr != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, frontMatterErr)
	}

	if err := frontMatterCompiled.Validate(FrontMatterPayload(fm)); err != nil {
		return &PayloadValidationError{
			Issues: Issues(err),
			Cause:  err,
		}
	}
	return nil
}

// ValidateSchema ensures the schema can be compiled.
func ValidateSchema(schema map[string]any) error {
	if len(schema) == 0 {
		return nil
	}
	if _, err := compileSchema(schema); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return nil
}

// ValidatePayload validates payload against the provided schema. Hosts that
// enforce extra front matter conventions supply their own schema here.
func ValidatePayload(schema map[string]any, payload map[string]any) error {
	if len(schema) == 0 {
		return nil
	}
	compiled, err := compileSchema(schema)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if err := compiled.Validate(jsonSafe(payload)); err != nil {
		return &PayloadValidationError{
			Issues: Issues(err),
			Cause:  err,
		}
	}
	return nil
}

// FrontMatterPayload projects front matter into the JSON shapes the schema
// validator understands. Dates become RFC 3339 strings and custom keys are
// carried through as-is.
func FrontMatterPayload(fm interfaces.FrontMatter) map[string]any {
	payload := make(map[string]any, len(fm.Custom)+7)
	for key, value := range fm.Custom {
		payload[key] = jsonSafe(value)
	}

	if fm.Layout != "" {
		payload["layout"] = fm.Layout
	}
	if fm.Title != "" {
		payload["title"] = fm.Title
	}
	if fm.Slug != "" {
		payload["slug"] = fm.Slug
	}
	if fm.Summary != "" {
		payload["summary"] = fm.Summary
	}
	if len(fm.Categories) > 0 {
		categories := make([]any, len(fm.Categories))
		for i, category := range fm.Categories {
			categories[i] = category
		}
		payload["categories"] = categories
	}
	if !fm.Date.IsZero() {
		payload["date"] = fm.Date.Format(time.RFC3339)
	}
	payload["draft"] = fm.Draft

	return payload
}

// jsonSafe rewrites YAML-decoded values into the types a JSON schema
// validator accepts.
func jsonSafe(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = jsonSafe(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[fmt.Sprintf("%v", key)] = jsonSafe(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = jsonSafe(item)
		}
		return out
	case []string:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out
	case time.Time:
		return typed.Format(time.RFC3339)
	case int:
		return float64(typed)
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case float32:
		return float64(typed)
	default:
		return value
	}
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

func collectValidationIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
