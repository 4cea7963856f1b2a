package store

// Learner is the onboarded user profile the tutoring core reads.
// Created once during onboarding; immutable afterwards except through the
// explicit update operations below.
type Learner struct {
	ID  int32
	UID string

	// Standard fields
	CreatedTs int64
	UpdatedTs int64
	RowStatus RowStatus

	// Domain specific fields
	Username       string
	NativeLanguage string
	TargetLanguage string
	CurrentLevel   string
	TargetLevel    string
	LearningGoal   string
	WeeklyHours    int32
}

type FindLearner struct {
	ID        *int32
	UID       *string
	Username  *string
	RowStatus *RowStatus

	Limit *int
}

type UpdateLearner struct {
	ID int32

	UpdatedTs    *int64
	RowStatus    *RowStatus
	Username     *string
	CurrentLevel *string
	LearningGoal *string
	WeeklyHours  *int32
}

type DeleteLearner struct {
	ID int32
}
