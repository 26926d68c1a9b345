package session

import "github.com/agenthands/scribe/internal/subject"

// Clarification questions, one per subject kind. The wording is fixed;
// which one is asked is determined solely by the precedence order below.
const (
	AskPerson  = "Before I save this, who is this record about?"
	AskDomain  = "What area does this record belong to? (e.g. health, learning, finance)"
	AskProject = "Which project does this record belong to? Please give the project name."
)

// Enforce checks the agent's subject policy against the session context.
// It returns (true, "") when the record may be saved. On failure it returns
// the single clarification question to ask, setting the pending marker as a
// side effect — except when a question is already pending, in which case it
// returns (false, "") and leaves the context untouched.
//
// The precedence order (person, then domain, then project) is fixed and
// identical for every agent.
func Enforce(policy subject.Policy, ctx *Context) (bool, string) {
	// Already waiting for an answer: never ask again, never overwrite.
	if ctx.Pending != KindNone {
		return false, ""
	}

	if policy.RequirePerson && ctx.ActivePerson == nil {
		ctx.Pending = KindPerson
		return false, AskPerson
	}

	if policy.RequireDomain && ctx.ActiveDomain == nil {
		ctx.Pending = KindDomain
		return false, AskDomain
	}

	if policy.RequireProject && ctx.ActiveProject == nil {
		ctx.Pending = KindProject
		return false, AskProject
	}

	return true, ""
}

// PendingQuestion returns the question text for the currently pending
// clarification, so a turn that arrives while one is outstanding can
// restate it instead of going silent.
func PendingQuestion(ctx *Context) string {
	switch ctx.Pending {
	case KindPerson:
		return AskPerson
	case KindDomain:
		return AskDomain
	case KindProject:
		return AskProject
	}
	return ""
}
