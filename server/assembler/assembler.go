// Package assembler builds the full prompt sent to the completion backend:
// a system prompt derived from the learner profile plus a bounded, grouped
// transcript of recent conversation history, and a user prompt that combines
// an optional scripted instruction with the learner's raw input.
//
// Assembly is pure composition. It never calls the completion backend and
// has no side effects, so identical store contents always produce identical
// output.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hrygo/linguasense/store"
)

// ErrLearnerNotFound is returned when the learner id resolves to no profile.
// Callers decide whether to abort or fall back to onboarding.
var ErrLearnerNotFound = errors.New("learner not found")

// Store is the interface for store operations needed by the assembler.
type Store interface {
	GetLearner(ctx context.Context, find *store.FindLearner) (*store.Learner, error)
	ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error)
}

// Prompt is the assembled result for a single generation call. It is never
// cached or shared across calls; every assembly re-reads current history.
type Prompt struct {
	System string
	User   string
}

// Config controls the history window and rendering bounds.
type Config struct {
	// SystemTemplate is the base system prompt with {placeholder} fields
	// substituted from the learner profile. Empty selects DefaultSystemTemplate.
	SystemTemplate string
	// HistoryWindow is the maximum number of history entries fetched (N).
	HistoryWindow int
	// CollapseAfter is the number of most recent entries rendered verbatim
	// (K); anything older is collapsed into a single summary line.
	CollapseAfter int
	// Location renders transcript timestamps; defaults to UTC.
	Location *time.Location
}

// Assembler composes prompts from stored history and learner profiles.
type Assembler struct {
	store    Store
	template string
	window   int
	collapse int
	loc      *time.Location
	// now is injectable for deterministic tests.
	now func() time.Time
}

// New creates an Assembler.
func New(s Store, cfg Config) *Assembler {
	if cfg.SystemTemplate == "" {
		cfg.SystemTemplate = DefaultSystemTemplate
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 50
	}
	if cfg.CollapseAfter <= 0 || cfg.CollapseAfter > cfg.HistoryWindow {
		cfg.CollapseAfter = 20
		if cfg.CollapseAfter > cfg.HistoryWindow {
			cfg.CollapseAfter = cfg.HistoryWindow
		}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Assembler{
		store:    s,
		template: cfg.SystemTemplate,
		window:   cfg.HistoryWindow,
		collapse: cfg.CollapseAfter,
		loc:      cfg.Location,
		now:      time.Now,
	}
}

// Assemble produces the prompt for one generation call.
//
// instructionOverride, when non-empty, prefixes the raw user input in the
// user prompt; this lets a scripted scenario or a scheduled session wrap an
// empty user turn.
func (a *Assembler) Assemble(ctx context.Context, learnerID int32, userInput, instructionOverride string) (*Prompt, error) {
	learner, err := a.store.GetLearner(ctx, &store.FindLearner{ID: &learnerID})
	if err != nil {
		return nil, fmt.Errorf("failed to load learner %d: %w", learnerID, err)
	}
	if learner == nil {
		return nil, fmt.Errorf("learner %d: %w", learnerID, ErrLearnerNotFound)
	}

	systemPrompt, err := RenderTemplate(a.template, learner)
	if err != nil {
		return nil, err
	}

	limit := a.window
	messages, err := a.store.ListMessages(ctx, &store.FindMessage{
		LearnerID: &learnerID,
		Limit:     &limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load history for learner %d: %w", learnerID, err)
	}

	// The store returns entries newest first; the transcript reads top to
	// bottom in chronological order.
	entries := make([]Entry, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		entries = append(entries, Entry{
			Role:      m.Role,
			Content:   m.Content,
			CreatedTs: m.CreatedTs,
		})
	}

	transcript := FormatTranscript(entries, a.collapse, a.loc)

	system := datePreamble(a.now().In(a.loc)) + "\n\n" + systemPrompt + "\n" + transcript

	user := userInput
	if instructionOverride != "" {
		user = instructionOverride + userInput
	}

	return &Prompt{System: system, User: user}, nil
}

// datePreamble tells the model what day it is, at day precision so output
// stays stable within a calendar day.
func datePreamble(now time.Time) string {
	return fmt.Sprintf("Today is %s, %s.", now.Weekday(), now.Format("2006-01-02"))
}
