package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/agenthands/scribe/internal/entry"
	"github.com/agenthands/scribe/internal/llm"
	"github.com/agenthands/scribe/internal/session"
	"github.com/agenthands/scribe/internal/store"
)

// ApologyReply is the fixed fallback when the model call fails. The save
// that triggered the reply has already happened by then and is never
// rolled back.
const ApologyReply = "I'm having a little trouble responding right now. Nothing is lost, we can try again later."

const recentContextLimit = 5

// Service orchestrates one conversation turn: resolve pending
// clarifications, enforce the agent's subject policy, persist when the
// gate passes, then generate the conversational reply.
type Service struct {
	Registry *Registry
	Sessions *session.Manager
	Store    *store.Store
	LLM      llm.LLMClient
}

func NewService(registry *Registry, sessions *session.Manager, st *store.Store, llmClient llm.LLMClient) *Service {
	return &Service{
		Registry: registry,
		Sessions: sessions,
		Store:    st,
		LLM:      llmClient,
	}
}

// TurnResult is the outcome of one user turn. Saved is decided by the
// enforcement gate alone; model output is never parsed for save markers.
type TurnResult struct {
	Reply     string `json:"reply"`
	Saved     bool   `json:"saved"`
	EntryUUID string `json:"uuid,omitempty"`
}

func (s *Service) HandleTurn(ctx context.Context, conversationID, agentName, message string) (TurnResult, error) {
	ag, err := s.Registry.Lookup(agentName)
	if err != nil {
		return TurnResult{}, err
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return TurnResult{}, &store.ValidationError{Reason: "empty message"}
	}

	sctx, release := s.Sessions.Acquire(conversationID, agentName)
	defer release()

	// A pending clarification consumes the message verbatim; anything
	// else is record content. Content is validated before it enters the
	// buffer: a rejected message must not leave the session unable to
	// save later turns.
	if !session.Resolve(message, sctx) {
		if _, err := entry.NewContent(message); err != nil {
			return TurnResult{}, &store.ValidationError{Reason: err.Error()}
		}
		sctx.CollectedText = append(sctx.CollectedText, message)
	}

	ok, question := session.Enforce(ag.Policy, sctx)
	if !ok {
		if question == "" {
			question = session.PendingQuestion(sctx)
		}
		return TurnResult{Reply: question}, nil
	}

	payload := entry.BuildPayload(sctx, time.Now().UTC())
	content, err := entry.NewContent(payload.Lines...)
	if err != nil {
		return TurnResult{}, &store.ValidationError{Reason: err.Error()}
	}

	saved, err := s.Store.Add(ctx, store.AddParams{
		Agent:   ag.Name,
		Type:    ag.EntryType,
		Subject: entry.BuildSubject(sctx),
		Tags:    payload.Tags(),
		Content: content,
	})
	if err != nil {
		return TurnResult{}, err
	}

	sctx.Reset()

	return TurnResult{
		Reply:     s.reply(ctx, ag, message),
		Saved:     true,
		EntryUUID: saved.UUID,
	}, nil
}

// reply generates the conversational response. Failures degrade to the
// fixed apology; the caller's save is already durable.
func (s *Service) reply(ctx context.Context, ag Agent, message string) string {
	prompt := llm.ComposePrompt(ag.SystemPrompt, ag.DeveloperPrompt, s.recentContext(ctx, ag), message)

	text, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		log.Printf("llm call failed for agent %s: %v", ag.Name, err)
		return ApologyReply
	}
	return strings.TrimSpace(text)
}

// recentContext renders the agent's latest entries as a prompt block.
func (s *Service) recentContext(ctx context.Context, ag Agent) string {
	entries, err := s.Store.Entries(ctx, store.Filter{Agent: ag.Name, Type: ag.EntryType, Limit: recentContextLimit})
	if err != nil {
		log.Printf("failed to load recent entries for %s: %v", ag.Name, err)
		return ""
	}
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Recent records:\n")
	for _, e := range entries {
		for _, line := range e.Lines {
			fmt.Fprintf(&b, "- %s: %s\n", e.CreatedAt.Format("2006-01-02"), line)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
