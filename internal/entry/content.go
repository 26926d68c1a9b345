package entry

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaVersion is the current content wrapper version.
const SchemaVersion = 1

// Content is the one canonical shape every stored entry carries: an ordered
// list of user-authored text lines plus a schema version. Nothing else is
// ever written to the store's content column, and no line may itself be a
// serialized structure.
type Content struct {
	Lines         []string
	SchemaVersion int
}

type contentJSON struct {
	Content       []string `json:"content"`
	SchemaVersion int      `json:"schema_version"`
}

// InvalidContentError reports a violation of the content wrapper rules.
type InvalidContentError struct {
	Reason string
}

func (e *InvalidContentError) Error() string {
	return "invalid content: " + e.Reason
}

// looksSerialized reports whether a line appears to already be an encoded
// structure. Such lines must be rejected, not wrapped a second time.
func looksSerialized(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return false
	}
	return json.Valid([]byte(trimmed))
}

// NewContent builds a validated wrapper from user-authored lines.
func NewContent(lines ...string) (Content, error) {
	if len(lines) == 0 {
		return Content{}, &InvalidContentError{Reason: "no content lines"}
	}
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if looksSerialized(trimmed) {
			return Content{}, &InvalidContentError{
				Reason: "line is already a serialized structure; refusing to double-encode",
			}
		}
		kept = append(kept, trimmed)
	}
	if len(kept) == 0 {
		return Content{}, &InvalidContentError{Reason: "no content lines"}
	}
	return Content{Lines: kept, SchemaVersion: SchemaVersion}, nil
}

// FromText wraps a bare user string as a one-element content list.
// A string that starts with a structure-opening token is rejected: it is
// almost certainly an upstream double-encoding bug.
func FromText(text string) (Content, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Content{}, &InvalidContentError{Reason: "empty text"}
	}
	if first := trimmed[0]; first == '{' || first == '[' {
		return Content{}, &InvalidContentError{
			Reason: "text looks like a serialized structure; pass the lines instead",
		}
	}
	return Content{Lines: []string{trimmed}, SchemaVersion: SchemaVersion}, nil
}

// Marshal serializes the wrapper for storage.
func (c Content) Marshal() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	raw, err := json.Marshal(contentJSON{Content: c.Lines, SchemaVersion: c.SchemaVersion})
	if err != nil {
		return "", fmt.Errorf("marshal content: %w", err)
	}
	return string(raw), nil
}

// UnmarshalContent normalizes a stored content column back into the
// canonical in-memory shape. Downstream code never branches on the
// storage representation.
func UnmarshalContent(raw string) (Content, error) {
	var cj contentJSON
	if err := json.Unmarshal([]byte(raw), &cj); err != nil {
		return Content{}, &InvalidContentError{Reason: "stored content is not a content wrapper"}
	}
	c := Content{Lines: cj.Content, SchemaVersion: cj.SchemaVersion}
	if err := c.Validate(); err != nil {
		return Content{}, err
	}
	return c, nil
}

// Validate enforces the serialization invariant.
func (c Content) Validate() error {
	if c.SchemaVersion != SchemaVersion {
		return &InvalidContentError{Reason: fmt.Sprintf("unsupported schema_version %d", c.SchemaVersion)}
	}
	if len(c.Lines) == 0 {
		return &InvalidContentError{Reason: "no content lines"}
	}
	for _, line := range c.Lines {
		if strings.TrimSpace(line) == "" {
			return &InvalidContentError{Reason: "blank content line"}
		}
		if looksSerialized(line) {
			return &InvalidContentError{Reason: "line is already a serialized structure"}
		}
	}
	return nil
}
