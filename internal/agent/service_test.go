package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/scribe/internal/config"
	"github.com/agenthands/scribe/internal/session"
	"github.com/agenthands/scribe/internal/store"
	"github.com/agenthands/scribe/internal/subject"
)

type mockLLM struct {
	response string
	err      error
	prompts  []string
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func newTestService(t *testing.T, llmClient *mockLLM) *Service {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	registry := NewRegistry(map[string]config.AgentConfig{
		"caretaker": {
			EntryType:    "medical",
			SystemPrompt: "You are Caretaker.",
			Policy:       subject.Policy{RequirePerson: true, RequireDomain: true},
		},
		"workbench": {
			EntryType:    "note",
			SystemPrompt: "You are Workbench.",
		},
	})

	return NewService(registry, session.NewManager(), st, llmClient)
}

func TestCaretakerThreeTurnScenario(t *testing.T) {
	llmClient := &mockLLM{response: "Noted."}
	svc := newTestService(t, llmClient)
	ctx := context.Background()

	// Turn 1: free text is buffered, person clarification comes back.
	r1, err := svc.HandleTurn(ctx, "conv-1", "caretaker", "Checkup went fine")
	require.NoError(t, err)
	assert.False(t, r1.Saved)
	assert.Equal(t, session.AskPerson, r1.Reply)

	// Turn 2: the answer resolves the person, domain is asked next.
	r2, err := svc.HandleTurn(ctx, "conv-1", "caretaker", "Mia")
	require.NoError(t, err)
	assert.False(t, r2.Saved)
	assert.Equal(t, session.AskDomain, r2.Reply)

	// Turn 3: the gate passes and the record is saved.
	r3, err := svc.HandleTurn(ctx, "conv-1", "caretaker", "health")
	require.NoError(t, err)
	assert.True(t, r3.Saved)
	assert.NotEmpty(t, r3.EntryUUID)
	assert.Equal(t, "Noted.", r3.Reply)

	entries, err := svc.Store.Entries(ctx, store.Filter{Agent: "caretaker"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	saved := entries[0]
	assert.Equal(t, "Mia", saved.Subject)
	assert.Equal(t, "medical", saved.Type)
	assert.Equal(t, []string{"health"}, saved.Tags)
	assert.Equal(t, []string{"Checkup went fine"}, saved.Lines)
	assert.Equal(t, r3.EntryUUID, saved.UUID)
}

func TestSessionResetsAfterSave(t *testing.T) {
	llmClient := &mockLLM{response: "Noted."}
	svc := newTestService(t, llmClient)
	ctx := context.Background()

	turns := []string{"Checkup went fine", "Mia", "health"}
	for _, msg := range turns {
		_, err := svc.HandleTurn(ctx, "conv-1", "caretaker", msg)
		require.NoError(t, err)
	}

	// A fresh record starts the clarification cycle over.
	r, err := svc.HandleTurn(ctx, "conv-1", "caretaker", "Fever in the evening")
	require.NoError(t, err)
	assert.False(t, r.Saved)
	assert.Equal(t, session.AskPerson, r.Reply)
}

func TestClarificationAnswersAreNotBuffered(t *testing.T) {
	llmClient := &mockLLM{response: "Noted."}
	svc := newTestService(t, llmClient)
	ctx := context.Background()

	for _, msg := range []string{"Checkup went fine", "Mia", "health"} {
		_, err := svc.HandleTurn(ctx, "conv-1", "caretaker", msg)
		require.NoError(t, err)
	}

	entries, err := svc.Store.Entries(ctx, store.Filter{Agent: "caretaker"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Lines, "Mia")
	assert.NotContains(t, entries[0].Lines, "health")
}

func TestRejectedMessageDoesNotPoisonSession(t *testing.T) {
	llmClient := &mockLLM{response: "Noted."}
	svc := newTestService(t, llmClient)
	ctx := context.Background()

	_, err := svc.HandleTurn(ctx, "conv-1", "workbench", `{"note":"from my exported data"}`)
	var validation *store.ValidationError
	require.ErrorAs(t, err, &validation)

	// The rejected message must not linger in the buffer: the next
	// ordinary note saves cleanly in the same conversation.
	r, err := svc.HandleTurn(ctx, "conv-1", "workbench", "Read about B-trees today")
	require.NoError(t, err)
	assert.True(t, r.Saved)

	entries, err := svc.Store.Entries(ctx, store.Filter{Agent: "workbench"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"Read about B-trees today"}, entries[0].Lines)
}

func TestLLMFailureDoesNotLoseSave(t *testing.T) {
	llmClient := &mockLLM{err: errors.New("model unavailable")}
	svc := newTestService(t, llmClient)
	ctx := context.Background()

	r, err := svc.HandleTurn(ctx, "conv-1", "workbench", "Read about B-trees today")
	require.NoError(t, err)
	assert.True(t, r.Saved, "a failed reply must not abort the save")
	assert.Equal(t, ApologyReply, r.Reply)

	entries, err := svc.Store.Entries(ctx, store.Filter{Agent: "workbench"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"Read about B-trees today"}, entries[0].Lines)
}

func TestIndependentConversationsDoNotShareState(t *testing.T) {
	llmClient := &mockLLM{response: "Noted."}
	svc := newTestService(t, llmClient)
	ctx := context.Background()

	_, err := svc.HandleTurn(ctx, "conv-1", "caretaker", "Checkup went fine")
	require.NoError(t, err)

	// A different conversation starts its own clarification cycle.
	r, err := svc.HandleTurn(ctx, "conv-2", "caretaker", "Slept badly")
	require.NoError(t, err)
	assert.Equal(t, session.AskPerson, r.Reply)

	// conv-1 is still waiting on its person answer.
	r, err = svc.HandleTurn(ctx, "conv-1", "caretaker", "Mia")
	require.NoError(t, err)
	assert.Equal(t, session.AskDomain, r.Reply)
}

func TestUnknownAgentIsValidationError(t *testing.T) {
	svc := newTestService(t, &mockLLM{})

	_, err := svc.HandleTurn(context.Background(), "conv-1", "nonexistent", "hello")
	var validation *store.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestEmptyMessageIsValidationError(t *testing.T) {
	svc := newTestService(t, &mockLLM{})

	_, err := svc.HandleTurn(context.Background(), "conv-1", "workbench", "   ")
	var validation *store.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestReplyPromptCarriesRecentContext(t *testing.T) {
	llmClient := &mockLLM{response: "Noted."}
	svc := newTestService(t, llmClient)
	ctx := context.Background()

	_, err := svc.HandleTurn(ctx, "conv-1", "workbench", "Read about B-trees today")
	require.NoError(t, err)
	_, err = svc.HandleTurn(ctx, "conv-2", "workbench", "Practiced SQL window functions")
	require.NoError(t, err)

	require.Len(t, llmClient.prompts, 2)
	last := llmClient.prompts[1]
	assert.True(t, strings.Contains(last, "Read about B-trees today"),
		"second reply should see the first record as context")
	assert.Contains(t, last, "You are Workbench.")
	assert.Contains(t, last, "USER MESSAGE:")
}
