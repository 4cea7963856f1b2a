package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hrygo/linguasense/store"
)

func (d *DB) UpsertProgress(ctx context.Context, upsert *store.UpsertProgress) (*store.Progress, error) {
	if upsert == nil {
		return nil, fmt.Errorf("upsert parameter cannot be nil")
	}

	now := time.Now().Unix()
	streakDays := int32(0)
	if upsert.StreakDays != nil {
		streakDays = *upsert.StreakDays
	}
	lastPracticeTs := int64(0)
	if upsert.LastPracticeTs != nil {
		lastPracticeTs = *upsert.LastPracticeTs
	}

	stmt := `
		INSERT INTO progress (
			learner_id, sessions_completed, morning_sessions, midday_sessions,
			evening_sessions, words_learned, facts_learned, streak_days,
			last_practice_ts, updated_ts
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id) DO UPDATE SET
			sessions_completed = progress.sessions_completed + excluded.sessions_completed,
			morning_sessions = progress.morning_sessions + excluded.morning_sessions,
			midday_sessions = progress.midday_sessions + excluded.midday_sessions,
			evening_sessions = progress.evening_sessions + excluded.evening_sessions,
			words_learned = progress.words_learned + excluded.words_learned,
			facts_learned = progress.facts_learned + excluded.facts_learned,
			streak_days = CASE WHEN excluded.streak_days > 0 THEN excluded.streak_days ELSE progress.streak_days END,
			last_practice_ts = CASE WHEN excluded.last_practice_ts > 0 THEN excluded.last_practice_ts ELSE progress.last_practice_ts END,
			updated_ts = excluded.updated_ts
		RETURNING learner_id, sessions_completed, morning_sessions, midday_sessions,
			evening_sessions, words_learned, facts_learned, streak_days,
			last_practice_ts, updated_ts`

	var progress store.Progress
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.LearnerID, upsert.SessionsCompletedDelta, upsert.MorningSessionsDelta, upsert.MiddaySessionsDelta,
		upsert.EveningSessionsDelta, upsert.WordsLearnedDelta, upsert.FactsLearnedDelta, streakDays,
		lastPracticeTs, now,
	).Scan(
		&progress.LearnerID,
		&progress.SessionsCompleted,
		&progress.MorningSessions,
		&progress.MiddaySessions,
		&progress.EveningSessions,
		&progress.WordsLearned,
		&progress.FactsLearned,
		&progress.StreakDays,
		&progress.LastPracticeTs,
		&progress.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert progress: %w", err)
	}

	return &progress, nil
}

func (d *DB) GetProgress(ctx context.Context, find *store.FindProgress) (*store.Progress, error) {
	query := `
		SELECT learner_id, sessions_completed, morning_sessions, midday_sessions,
			evening_sessions, words_learned, facts_learned, streak_days,
			last_practice_ts, updated_ts
		FROM progress
		WHERE learner_id = ?`

	var progress store.Progress
	if err := d.db.QueryRowContext(ctx, query, find.LearnerID).Scan(
		&progress.LearnerID,
		&progress.SessionsCompleted,
		&progress.MorningSessions,
		&progress.MiddaySessions,
		&progress.EveningSessions,
		&progress.WordsLearned,
		&progress.FactsLearned,
		&progress.StreakDays,
		&progress.LastPracticeTs,
		&progress.UpdatedTs,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	return &progress, nil
}

func (d *DB) ResetWeeklyProgress(ctx context.Context, reset *store.ResetWeeklyProgress) error {
	stmt := `
		UPDATE progress SET
			sessions_completed = 0,
			morning_sessions = 0,
			midday_sessions = 0,
			evening_sessions = 0,
			words_learned = 0,
			facts_learned = 0,
			updated_ts = ?
		WHERE learner_id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, time.Now().Unix(), reset.LearnerID); err != nil {
		return fmt.Errorf("failed to reset weekly progress: %w", err)
	}
	return nil
}
