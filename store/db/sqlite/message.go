package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/linguasense/store"
)

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	fields := []string{"uid", "learner_id", "role", "content", "session_tag"}
	args := []any{create.UID, create.LearnerID, create.Role, create.Content, create.SessionTag}

	if create.CreatedTs != 0 {
		fields = append(fields, "created_ts")
		args = append(args, create.CreatedTs)
	}

	stmt := `INSERT INTO message (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return create, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "message.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "message.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.LearnerID; v != nil {
		where, args = append(where, "message.learner_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Role; v != nil {
		where, args = append(where, "message.role = "+placeholder(len(args)+1)), append(args, *v)
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
