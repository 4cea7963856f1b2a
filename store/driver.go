package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Learner model related methods.
	CreateLearner(ctx context.Context, create *Learner) (*Learner, error)
	ListLearners(ctx context.Context, find *FindLearner) ([]*Learner, error)
	UpdateLearner(ctx context.Context, update *UpdateLearner) (*Learner, error)
	DeleteLearner(ctx context.Context, delete *DeleteLearner) error

	// Message model related methods.
	CreateMessage(ctx context.Context, create *Message) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)

	// Progress model related methods.
	UpsertProgress(ctx context.Context, upsert *UpsertProgress) (*Progress, error)
	GetProgress(ctx context.Context, find *FindProgress) (*Progress, error)
	ResetWeeklyProgress(ctx context.Context, reset *ResetWeeklyProgress) error
}
