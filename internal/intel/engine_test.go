package intel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/scribe/internal/agent"
	"github.com/agenthands/scribe/internal/config"
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

func testAgent() agent.Agent {
	registry := agent.NewRegistry(map[string]config.AgentConfig{
		"caretaker": {
			EntryType:    "medical",
			SystemPrompt: "You are Caretaker.",
			Policy:       subject.Policy{RequirePerson: true, RequireDomain: true},
			Reports: map[string]string{
				"weekly_reflection": "Summarize neutrally:\n%s",
			},
		},
	})
	ag, _ := registry.Lookup("caretaker")
	return ag
}

func newTestEngine(t *testing.T, llmClient *mockLLM) *Engine {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewEngine(st, llmClient)
}

func TestGenerateReportPersistsResult(t *testing.T) {
	llmClient := &mockLLM{response: "A calm weekly summary."}
	e := newTestEngine(t, llmClient)
	ctx := context.Background()
	ag := testAgent()

	_, err := e.Store.AddText(ctx, "caretaker", "medical", "Mia", []string{"health"}, "Checkup went fine")
	require.NoError(t, err)

	entries, err := e.RecentEntries(ctx, ag, 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	report, err := e.GenerateReport(ctx, ag, "weekly_reflection", entries)
	require.NoError(t, err)
	assert.Equal(t, "A calm weekly summary.", report.Content)
	assert.NotZero(t, report.ID)

	require.Len(t, llmClient.prompts, 1)
	assert.Contains(t, llmClient.prompts[0], "Checkup went fine")
	assert.Contains(t, llmClient.prompts[0], "Summarize neutrally:")

	saved, err := e.Store.Reports(ctx, "caretaker", "weekly_reflection")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, report.Content, saved[0].Content)
}

func TestGenerateReportTemplateKeepsPercentLiterals(t *testing.T) {
	llmClient := &mockLLM{response: "Summary."}
	e := newTestEngine(t, llmClient)
	ctx := context.Background()

	registry := agent.NewRegistry(map[string]config.AgentConfig{
		"caretaker": {
			EntryType: "medical",
			Reports: map[string]string{
				"weekly_reflection": "Note values like 80% verbatim.\n%s",
			},
		},
	})
	ag, err := registry.Lookup("caretaker")
	require.NoError(t, err)

	_, err = e.Store.AddText(ctx, "caretaker", "medical", "Mia", nil, "Oxygen saturation 98%")
	require.NoError(t, err)
	entries, err := e.RecentEntries(ctx, ag, 24*time.Hour)
	require.NoError(t, err)

	_, err = e.GenerateReport(ctx, ag, "weekly_reflection", entries)
	require.NoError(t, err)

	require.Len(t, llmClient.prompts, 1)
	assert.Contains(t, llmClient.prompts[0], "Note values like 80% verbatim.")
	assert.Contains(t, llmClient.prompts[0], "Oxygen saturation 98%")
	assert.NotContains(t, llmClient.prompts[0], "%!")
}

func TestGenerateReportNoEntries(t *testing.T) {
	e := newTestEngine(t, &mockLLM{})

	_, err := e.GenerateReport(context.Background(), testAgent(), "weekly_reflection", nil)
	assert.ErrorIs(t, err, ErrNoEntries)
}

func TestGenerateReportUnknownType(t *testing.T) {
	e := newTestEngine(t, &mockLLM{})
	entries := []store.Entry{{Lines: []string{"x"}}}

	_, err := e.GenerateReport(context.Background(), testAgent(), "horoscope", entries)
	var validation *store.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestGenerateReportLLMFailure(t *testing.T) {
	e := newTestEngine(t, &mockLLM{err: errors.New("model unavailable")})
	ctx := context.Background()

	_, err := e.Store.AddText(ctx, "caretaker", "medical", "Mia", nil, "Checkup went fine")
	require.NoError(t, err)
	entries, err := e.RecentEntries(ctx, testAgent(), 24*time.Hour)
	require.NoError(t, err)

	_, err = e.GenerateReport(ctx, testAgent(), "weekly_reflection", entries)
	require.Error(t, err)

	// Nothing half-written: failures leave the reports table untouched.
	reports, err := e.Store.Reports(ctx, "caretaker", "")
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestCategorySummaryGroupsBySubject(t *testing.T) {
	llmClient := &mockLLM{response: "Grouped summary."}
	e := newTestEngine(t, llmClient)
	ctx := context.Background()
	ag := testAgent()

	for _, text := range []string{"Checkup went fine", "Vaccination done"} {
		_, err := e.Store.AddText(ctx, "caretaker", "medical", "Mia", []string{"health"}, text)
		require.NoError(t, err)
	}
	_, err := e.Store.AddText(ctx, "caretaker", "medical", "Oskar", []string{"health"}, "Dentist appointment")
	require.NoError(t, err)

	summary, err := e.CategorySummary(ctx, ag, false)
	require.NoError(t, err)
	assert.Equal(t, "category_summary", summary.SummaryType)
	assert.Equal(t, "Person", summary.CategoryLabel)
	require.Len(t, summary.Items, 2)

	counts := map[string]int{}
	for _, item := range summary.Items {
		counts[item.Category] = item.Count
		assert.Empty(t, item.Content, "no generation requested")
	}
	assert.Equal(t, map[string]int{"Mia": 2, "Oskar": 1}, counts)
	assert.Empty(t, llmClient.prompts)
}

func TestCategorySummaryGenerates(t *testing.T) {
	llmClient := &mockLLM{response: "Grouped summary."}
	e := newTestEngine(t, llmClient)
	ctx := context.Background()

	_, err := e.Store.AddText(ctx, "caretaker", "medical", "Mia", nil, "Checkup went fine")
	require.NoError(t, err)

	summary, err := e.CategorySummary(ctx, testAgent(), true)
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, "Grouped summary.", summary.Items[0].Content)
	require.Len(t, llmClient.prompts, 1)
	assert.Contains(t, llmClient.prompts[0], "Checkup went fine")
}

func TestCategorySummaryFallsBackToTag(t *testing.T) {
	e := newTestEngine(t, &mockLLM{})
	ctx := context.Background()

	// No subject column: the domain tag is the grouping key.
	_, err := e.Store.AddText(ctx, "caretaker", "medical", "", []string{"health"}, "General note")
	require.NoError(t, err)

	summary, err := e.CategorySummary(ctx, testAgent(), false)
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, "health", summary.Items[0].Category)
}
