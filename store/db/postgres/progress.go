package postgres

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

	query := `
		INSERT INTO progress (
			learner_id, sessions_completed, morning_sessions, midday_sessions,
			evening_sessions, words_learned, facts_learned, streak_days,
			last_practice_ts, updated_ts
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (learner_id) DO UPDATE SET
			sessions_completed = progress.sessions_completed + EXCLUDED.sessions_completed,
			morning_sessions = progress.morning_sessions + EXCLUDED.morning_sessions,
			midday_sessions = progress.midday_sessions + EXCLUDED.midday_sessions,
			evening_sessions = progress.evening_sessions + EXCLUDED.evening_sessions,
			words_learned = progress.words_learned + EXCLUDED.words_learned,
			facts_learned = progress.facts_learned + EXCLUDED.facts_learned,
			streak_days = CASE WHEN EXCLUDED.streak_days > 0 THEN EXCLUDED.streak_days ELSE progress.streak_days END,
			last_practice_ts = CASE WHEN EXCLUDED.last_practice_ts > 0 THEN EXCLUDED.last_practice_ts ELSE progress.last_practice_ts END,
			updated_ts = EXCLUDED.updated_ts
		RETURNING learner_id, sessions_completed, morning_sessions, midday_sessions,
			evening_sessions, words_learned, facts_learned, streak_days,
			last_practice_ts, updated_ts`

	var progress store.Progress
	if err := d.db.QueryRowContext(ctx, query,
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
	if find == nil {
		return nil, fmt.Errorf("find parameter cannot be nil")
	}

	query := `
		SELECT learner_id, sessions_completed, morning_sessions, midday_sessions,
			evening_sessions, words_learned, facts_learned, streak_days,
			last_practice_ts, updated_ts
		FROM progress
		WHERE learner_id = $1`

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
	if reset == nil {
		return fmt.Errorf("reset parameter cannot be nil")
	}

	query := `
		UPDATE progress SET
			sessions_completed = 0,
			morning_sessions = 0,
			midday_sessions = 0,
			evening_sessions = 0,
			words_learned = 0,
			facts_learned = 0,
			updated_ts = $1
		WHERE learner_id = $2`
	if _, err := d.db.ExecContext(ctx, query, time.Now().Unix(), reset.LearnerID); err != nil {
		return fmt.Errorf("failed to reset weekly progress: %w", err)
	}
	return nil
}
