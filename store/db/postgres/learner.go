package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/linguasense/store"
)

func (d *DB) CreateLearner(ctx context.Context, create *store.Learner) (*store.Learner, error) {
	if create == nil {
		return nil, fmt.Errorf("create parameter cannot be nil")
	}

	query := `
		INSERT INTO learner (uid, username, native_language, target_language, current_level, target_level, learning_goal, weekly_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_ts, updated_ts, row_status`
	if err := d.db.QueryRowContext(ctx, query,
		create.UID, create.Username, create.NativeLanguage, create.TargetLanguage,
		create.CurrentLevel, create.TargetLevel, create.LearningGoal, create.WeeklyHours,
	).Scan(
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
	if find == nil {
		return nil, fmt.Errorf("find parameter cannot be nil")
	}

	where, args := []string{"1 = 1"}, []any{}
	argIndex := 1

	if v := find.ID; v != nil {
		where = append(where, fmt.Sprintf("learner.id = $%d", argIndex))
		args = append(args, *v)
		argIndex++
	}
	if v := find.UID; v != nil {
		where = append(where, fmt.Sprintf("learner.uid = $%d", argIndex))
		args = append(args, *v)
		argIndex++
	}
	if v := find.Username; v != nil {
		where = append(where, fmt.Sprintf("learner.username = $%d", argIndex))
		args = append(args, *v)
		argIndex++
	}
	if v := find.RowStatus; v != nil {
		where = append(where, fmt.Sprintf("learner.row_status = $%d", argIndex))
		args = append(args, *v)
		argIndex++
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
	if update == nil {
		return nil, fmt.Errorf("update parameter cannot be nil")
	}

	set, args := []string{}, []any{}
	argIndex := 1

	if v := update.RowStatus; v != nil {
		set = append(set, fmt.Sprintf("row_status = $%d", argIndex))
		args = append(args, *v)
		argIndex++
	}
	if v := update.Username; v != nil {
		set = append(set, fmt.Sprintf("username = $%d", argIndex))
		args = append(args, *v)
		argIndex++
	}
	if v := update.CurrentLevel; v != nil {
		set = append(set, fmt.Sprintf("current_level = $%d", argIndex))
		args = append(args, *v)
		argIndex++
	}
	if v := update.LearningGoal; v != nil {
		set = append(set, fmt.Sprintf("learning_goal = $%d", argIndex))
		args = append(args, *v)
		argIndex++
	}
	if v := update.WeeklyHours; v != nil {
		set = append(set, fmt.Sprintf("weekly_hours = $%d", argIndex))
		args = append(args, *v)
		argIndex++
	}

	updatedTs := time.Now().Unix()
	if v := update.UpdatedTs; v != nil {
		updatedTs = *v
	}
	set = append(set, fmt.Sprintf("updated_ts = $%d", argIndex))
	args = append(args, updatedTs)
	argIndex++

	args = append(args, update.ID)
	query := `UPDATE learner SET ` + strings.Join(set, ", ") + fmt.Sprintf(` WHERE id = $%d`, argIndex) + `
		RETURNING id, uid, created_ts, updated_ts, row_status,
			username, native_language, target_language,
			current_level, target_level, learning_goal, weekly_hours`

	var learner store.Learner
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(
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
	if delete == nil {
		return fmt.Errorf("delete parameter cannot be nil")
	}

	result, err := d.db.ExecContext(ctx, `DELETE FROM learner WHERE id = $1`, delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete learner: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("learner not found")
	}
	return nil
}
