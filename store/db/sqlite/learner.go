package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/linguasense/store"
)

func (d *DB) CreateLearner(ctx context.Context, create *store.Learner) (*store.Learner, error) {
	fields := []string{"uid", "username", "native_language", "target_language", "current_level", "target_level", "learning_goal", "weekly_hours"}
	args := []any{create.UID, create.Username, create.NativeLanguage, create.TargetLanguage, create.CurrentLevel, create.TargetLevel, create.LearningGoal, create.WeeklyHours}

	stmt := `INSERT INTO learner (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts, updated_ts, row_status`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
		&create.RowStatus,
	); err != nil {
		return nil, fmt.Errorf("failed to create learner: %w", err)
	}

	return create, nil
}

func (d *DB) ListLearners(ctx context.Context, find *store.FindLearner) ([]*store.Learner, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "learner.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "learner.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Username; v != nil {
		where, args = append(where, "learner.username = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.RowStatus; v != nil {
		where, args = append(where, "learner.row_status = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, uid, created_ts, updated_ts, row_status,
			username, native_language, target_language,
			current_level, target_level, learning_goal, weekly_hours
		FROM learner
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY learner.id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query learners: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Learner, 0)
	for rows.Next() {
		var learner store.Learner
		if err := rows.Scan(
			&learner.ID,
			&learner.UID,
			&learner.CreatedTs,
			&learner.UpdatedTs,
			&learner.RowStatus,
			&learner.Username,
			&learner.NativeLanguage,
			&learner.TargetLanguage,
			&learner.CurrentLevel,
			&learner.TargetLevel,
			&learner.LearningGoal,
			&learner.WeeklyHours,
		); err != nil {
			return nil, fmt.Errorf("failed to scan learner: %w", err)
		}
		list = append(list, &learner)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate learners: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateLearner(ctx context.Context, update *store.UpdateLearner) (*store.Learner, error) {
	set, args := []string{}, []any{}

	if v := update.RowStatus; v != nil {
		set, args = append(set, "row_status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Username; v != nil {
		set, args = append(set, "username = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.CurrentLevel; v != nil {
		set, args = append(set, "current_level = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.LearningGoal; v != nil {
		set, args = append(set, "learning_goal = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.WeeklyHours; v != nil {
		set, args = append(set, "weekly_hours = "+placeholder(len(args)+1)), append(args, *v)
	}

	updatedTs := time.Now().Unix()
	if v := update.UpdatedTs; v != nil {
		updatedTs = *v
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, updatedTs)

	args = append(args, update.ID)
	stmt := `UPDATE learner SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, created_ts, updated_ts, row_status,
			username, native_language, target_language,
			current_level, target_level, learning_goal, weekly_hours`

	var learner store.Learner
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&learner.ID,
		&learner.UID,
		&learner.CreatedTs,
		&learner.UpdatedTs,
		&learner.RowStatus,
		&learner.Username,
		&learner.NativeLanguage,
		&learner.TargetLanguage,
		&learner.CurrentLevel,
		&learner.TargetLevel,
		&learner.LearningGoal,
		&learner.WeeklyHours,
	); err != nil {
		return nil, fmt.Errorf("failed to update learner: %w", err)
	}

	return &learner, nil
}

func (d *DB) DeleteLearner(ctx context.Context, delete *store.DeleteLearner) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM learner WHERE id = ?`, delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete learner: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("learner not found")
	}
	return nil
}
