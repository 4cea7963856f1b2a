package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/linguasense/store"
)

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	if create == nil {
		return nil, fmt.Errorf("create parameter cannot be nil")
	}

	fields := []string{"uid", "learner_id", "role", "content", "session_tag"}
	args := []any{create.UID, create.LearnerID, create.Role, create.Content, create.SessionTag}

	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		args = append(args, create.CreatedTs)
	}

	phs := make([]string, len(args))
	for i := range args {
		phs[i] = fmt.Sprintf("$%d", i+1)
	}

	query := `INSERT INTO message (` + strings.Join(fields, ", ") + `)
		VALUES (` + strings.Join(phs, ", ") + `)
		RETURNING id, created_ts`
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return create, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	if find == nil {
		return nil, fmt.Errorf("find parameter cannot be nil")
	}

	where, args := []string{"1 = 1"}, []any{}
	argIndex := 1

	if v := find.ID; v != nil {
		where = append(where, fmt.Sprintf("message.id = $%d", argIndex))
		args = append(args, *v)
		argIndex++
	}
	if v := find.UID; v != nil {
		where = append(where, fmt.Sprintf("message.uid = $%d", argIndex))
		args = append(args, *v)
		argIndex++
	}
	if v := find.LearnerID; v != nil {
		where = append(where, fmt.Sprintf("message.learner_id = $%d", argIndex))
		args = append(args, *v)
		argIndex++
	}
	if v := find.Role; v != nil {
		where = append(where, fmt.Sprintf("message.role = $%d", argIndex))
		args = append(args, *v)
		argIndex++
	}

	// Newest first; id breaks ties in favor of insertion order.
	query := `
		SELECT id, uid, learner_id, role, content, session_tag, created_ts
		FROM message
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY message.created_ts DESC, message.id DESC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Message, 0)
	for rows.Next() {
		var message store.Message
		if err := rows.Scan(
			&message.ID,
			&message.UID,
			&message.LearnerID,
			&message.Role,
			&message.Content,
			&message.SessionTag,
			&message.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		list = append(list, &message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return list, nil
}
