package entry

import (
	"time"

	"github.com/agenthands/scribe/internal/session"
	"github.com/agenthands/scribe/internal/subject"
)

// Payload is the assembled record at save time. It exists only in memory:
// the store persists Lines through the content wrapper, and the subject
// metadata through the entry's subject and tags columns.
type Payload struct {
	Person    *subject.Person
	Domain    *subject.Domain
	Project   *subject.Project
	Lines     []string
	CreatedAt time.Time
}

// BuildSubject derives the entry's grouping key from the resolved subjects.
// Precedence: person label, then project label, then domain label.
func BuildSubject(ctx *session.Context) string {
	if p := ctx.ActivePerson; p != nil {
		if label, ok := p.Descriptors["user_provided"]; ok && label != "" {
			return label
		}
		if label, ok := p.Descriptors["name"]; ok && label != "" {
			return label
		}
	}
	if pr := ctx.ActiveProject; pr != nil && pr.Descriptors != "" {
		return pr.Descriptors
	}
	if d := ctx.ActiveDomain; d != nil {
		return d.Domain
	}
	return ""
}

// BuildPayload assembles the canonical record from the session context.
func BuildPayload(ctx *session.Context, now time.Time) Payload {
	lines := make([]string, len(ctx.CollectedText))
	copy(lines, ctx.CollectedText)

	return Payload{
		Person:    ctx.ActivePerson,
		Domain:    ctx.ActiveDomain,
		Project:   ctx.ActiveProject,
		Lines:     lines,
		CreatedAt: now,
	}
}

// Tags derives the entry tags from the payload's subject metadata. The
// domain label is tagged so domain-requiring agents stay groupable even
// when the subject column holds a person.
func (p Payload) Tags() []string {
	var tags []string
	if p.Domain != nil && p.Domain.Domain != "" {
		tags = append(tags, p.Domain.Domain)
	}
	return tags
}
