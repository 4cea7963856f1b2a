// Package progress accumulates per-learner practice counters and renders
// the weekly report from them.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/linguasense/store"
)

// Store is the interface for store operations needed by the tracker.
type Store interface {
	GetLearner(ctx context.Context, find *store.FindLearner) (*store.Learner, error)
	UpsertProgress(ctx context.Context, upsert *store.UpsertProgress) (*store.Progress, error)
	GetProgress(ctx context.Context, find *store.FindProgress) (*store.Progress, error)
	ResetWeeklyProgress(ctx context.Context, reset *store.ResetWeeklyProgress) error
}

// Tracker records completed practice sessions and keeps the day streak.
// Day boundaries are evaluated in the fixed practice time zone, the same
// zone session triggers fire in.
type Tracker struct {
	store  Store
	loc    *time.Location
	logger *slog.Logger

	// now is injectable for deterministic tests.
	now func() time.Time
}

func NewTracker(s Store, loc *time.Location, logger *slog.Logger) *Tracker {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:  s,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

// RecordSession bumps the counters for one completed session and advances
// the streak. Two sessions on the same day keep the streak unchanged; a
// session on the day after the last one extends it; any longer gap restarts
// it at one.
func (t *Tracker) RecordSession(ctx context.Context, learnerID int32, kind string) error {
	current, err := t.store.GetProgress(ctx, &store.FindProgress{LearnerID: learnerID})
	if err != nil {
		return errors.Wrap(err, "failed to get progress")
	}

	now := t.now().In(t.loc)
	streak := int32(1)
	if current != nil && current.LastPracticeTs > 0 {
		last := time.Unix(current.LastPracticeTs, 0).In(t.loc)
		switch daysBetween(last, now) {
		case 0:
			streak = current.StreakDays
		case 1:
			streak = current.StreakDays + 1
		}
	}

	upsert := &store.UpsertProgress{
		LearnerID:              learnerID,
		SessionsCompletedDelta: 1,
	}
	switch kind {
	case "morning":
		upsert.MorningSessionsDelta = 1
	case "midday":
		upsert.MiddaySessionsDelta = 1
	case "evening":
		upsert.EveningSessionsDelta = 1
	}
	ts := now.Unix()
	upsert.StreakDays = &streak
	upsert.LastPracticeTs = &ts

	if _, err := t.store.UpsertProgress(ctx, upsert); err != nil {
		return errors.Wrap(err, "failed to upsert progress")
	}
	return nil
}

// RecordLearned bumps the vocabulary and fact counters outside of the
// session lifecycle, e.g. after an interactive chat turn taught new words.
func (t *Tracker) RecordLearned(ctx context.Context, learnerID int32, words, facts int32) error {
	if words == 0 && facts == 0 {
		return nil
	}
	_, err := t.store.UpsertProgress(ctx, &store.UpsertProgress{
		LearnerID:         learnerID,
		WordsLearnedDelta: words,
		FactsLearnedDelta: facts,
	})
	if err != nil {
		return errors.Wrap(err, "failed to upsert progress")
	}
	return nil
}

// WeeklyReport renders the week's counters as a plain text message in the
// learner's voice. An empty week still produces an encouraging report.
func (t *Tracker) WeeklyReport(ctx context.Context, learnerID int32) (string, error) {
	learner, err := t.store.GetLearner(ctx, &store.FindLearner{ID: &learnerID})
	if err != nil {
		return "", errors.Wrap(err, "failed to get learner")
	}
	if learner == nil {
		return "", errors.Errorf("learner %d not found", learnerID)
	}

	progress, err := t.store.GetProgress(ctx, &store.FindProgress{LearnerID: learnerID})
	if err != nil {
		return "", errors.Wrap(err, "failed to get progress")
	}
	if progress == nil {
		progress = &store.Progress{LearnerID: learnerID}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Your %s week in review\n\n", learner.TargetLanguage)
	if progress.SessionsCompleted == 0 {
		b.WriteString("No practice sessions this week. That happens! Your triggers are still on, so next week is a fresh start.\n")
		return b.String(), nil
	}

	fmt.Fprintf(&b, "Practice sessions: %d (%d morning, %d midday, %d evening)\n",
		progress.SessionsCompleted,
		progress.MorningSessions,
		progress.MiddaySessions,
		progress.EveningSessions)
	if progress.WordsLearned > 0 {
		fmt.Fprintf(&b, "New words: %d\n", progress.WordsLearned)
	}
	if progress.FactsLearned > 0 {
		fmt.Fprintf(&b, "Language facts: %d\n", progress.FactsLearned)
	}
	if progress.StreakDays > 1 {
		fmt.Fprintf(&b, "Current streak: %d days 🔥\n", progress.StreakDays)
	}
	b.WriteString("\nKeep it up! See you tomorrow morning.")
	return b.String(), nil
}

// ResetWeek zeroes the weekly counters after the report is dispatched.
// The streak survives the reset.
func (t *Tracker) ResetWeek(ctx context.Context, learnerID int32) error {
	if err := t.store.ResetWeeklyProgress(ctx, &store.ResetWeeklyProgress{LearnerID: learnerID}); err != nil {
		return errors.Wrap(err, "failed to reset weekly progress")
	}
	return nil
}

// daysBetween counts calendar day boundaries between two instants in the
// tracker's zone, not 24h periods.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, a.Location())
	end := time.Date(by, bm, bd, 0, 0, 0, 0, b.Location())
	return int(end.Sub(start) / (24 * time.Hour))
}
