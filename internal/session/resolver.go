package session

import (
	"strings"

	"github.com/agenthands/scribe/internal/subject"
)

// Resolve consumes the user's text as the answer to a pending clarification,
// if there is one. Answers are taken verbatim: no parsing, no guessing.
// False inference on personal data is worse than asking again, so free-text
// subject inference is deliberately disabled.
//
// Returns true when the text was consumed as a clarification answer, in
// which case the caller must not buffer it as record content.
func Resolve(text string, ctx *Context) bool {
	switch ctx.Pending {
	case KindPerson:
		ctx.ActivePerson = &subject.Person{
			SubjectKey: "tmp_person",
			Role:       "unspecified",
			Descriptors: map[string]string{
				"user_provided": strings.TrimSpace(text),
			},
			Confidence: 1.0,
			Source:     subject.SourceExplicit,
		}
		ctx.Pending = KindNone
		return true

	case KindDomain:
		trimmed := strings.TrimSpace(text)
		ctx.ActiveDomain = &subject.Domain{
			Domain:     trimmed,
			Subdomain:  trimmed,
			Confidence: 1.0,
			Source:     subject.SourceExplicit,
		}
		ctx.Pending = KindNone
		return true

	case KindProject:
		// An empty answer leaves the question pending rather than
		// silently clearing it.
		name := strings.TrimSpace(text)
		if name == "" {
			return true
		}
		ctx.ActiveProject = &subject.Project{Descriptors: name}
		ctx.Pending = KindNone
		return true
	}

	return false
}
