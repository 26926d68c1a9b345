package entry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agenthands/scribe/internal/session"
	"github.com/agenthands/scribe/internal/subject"
)

func TestBuildSubjectPrefersPerson(t *testing.T) {
	ctx := &session.Context{
		ActivePerson: &subject.Person{
			Descriptors: map[string]string{"user_provided": "Mia"},
		},
		ActiveProject: &subject.Project{Descriptors: "garden shed"},
		ActiveDomain:  &subject.Domain{Domain: "health"},
	}

	assert.Equal(t, "Mia", BuildSubject(ctx))
}

func TestBuildSubjectFallsBackToNameKey(t *testing.T) {
	ctx := &session.Context{
		ActivePerson: &subject.Person{
			Descriptors: map[string]string{"name": "Oskar"},
		},
	}

	assert.Equal(t, "Oskar", BuildSubject(ctx))
}

func TestBuildSubjectProjectBeforeDomain(t *testing.T) {
	ctx := &session.Context{
		ActiveProject: &subject.Project{Descriptors: "garden shed"},
		ActiveDomain:  &subject.Domain{Domain: "health"},
	}

	assert.Equal(t, "garden shed", BuildSubject(ctx))
}

func TestBuildSubjectDomainLast(t *testing.T) {
	ctx := &session.Context{ActiveDomain: &subject.Domain{Domain: "health"}}
	assert.Equal(t, "health", BuildSubject(ctx))
}

func TestBuildSubjectEmpty(t *testing.T) {
	assert.Equal(t, "", BuildSubject(&session.Context{}))
}

func TestBuildPayloadCopiesLines(t *testing.T) {
	now := time.Now().UTC()
	ctx := &session.Context{CollectedText: []string{"one", "two"}}

	p := BuildPayload(ctx, now)
	ctx.CollectedText[0] = "mutated"

	assert.Equal(t, []string{"one", "two"}, p.Lines)
	assert.Equal(t, now, p.CreatedAt)
}

func TestPayloadTagsCarryDomainLabel(t *testing.T) {
	p := Payload{Domain: &subject.Domain{Domain: "health"}}
	assert.Equal(t, []string{"health"}, p.Tags())

	assert.Nil(t, Payload{}.Tags())
}
