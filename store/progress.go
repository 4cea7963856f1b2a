package store

// Progress accumulates per-learner practice counters. The weekly report
// trigger renders these directly, without a completion call.
type Progress struct {
	LearnerID int32

	SessionsCompleted int32
	MorningSessions   int32
	MiddaySessions    int32
	EveningSessions   int32
	WordsLearned      int32
	FactsLearned      int32
	StreakDays        int32
	LastPracticeTs    int64
	UpdatedTs         int64
}

type UpsertProgress struct {
	LearnerID int32

	// Deltas are added to the stored counters.
	SessionsCompletedDelta int32
	MorningSessionsDelta   int32
	MiddaySessionsDelta    int32
	EveningSessionsDelta   int32
	WordsLearnedDelta      int32
	FactsLearnedDelta      int32

	// Absolute values, applied when non-nil.
	StreakDays     *int32
	LastPracticeTs *int64
}

type FindProgress struct {
	LearnerID int32
}

// ResetWeeklyProgress zeroes the weekly counters after a report is sent.
type ResetWeeklyProgress struct {
	LearnerID int32
}
