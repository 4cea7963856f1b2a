package practice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/linguasense/server/assembler"
	"github.com/hrygo/linguasense/store"
)

type fakeStore struct {
	mu       sync.Mutex
	learners map[int32]*store.Learner
	saved    []*store.Message

	getErr    map[int32]error
	createErr error
}

func (f *fakeStore) GetLearner(_ context.Context, find *store.FindLearner) (*store.Learner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if find.ID == nil {
		return nil, nil
	}
	if err := f.getErr[*find.ID]; err != nil {
		return nil, err
	}
	return f.learners[*find.ID], nil
}

func (f *fakeStore) CreateMessage(_ context.Context, create *store.Message) (*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.saved = append(f.saved, create)
	return create, nil
}

func (f *fakeStore) savedMessages() []*store.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*store.Message(nil), f.saved...)
}

type fakeAssembler struct {
	err   error
	panic bool
}

func (f *fakeAssembler) Assemble(_ context.Context, learnerID int32, userInput, instructionOverride string) (*assembler.Prompt, error) {
	if f.panic {
		panic("assembler exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &assembler.Prompt{System: "system", User: instructionOverride + userInput}, nil
}

type fakeCompletion struct {
	text string
	err  error
}

func (f *fakeCompletion) Complete(_ context.Context, _, _ string) (string, error) {
	return f.text, f.err
}

type fakeDispatcher struct {
	mu    sync.Mutex
	sends []string
	err   error
}

func (f *fakeDispatcher) Send(_ context.Context, _ int32, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sends = append(f.sends, text)
	return nil
}

func (f *fakeDispatcher) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sends...)
}

type fakeProgress struct {
	mu       sync.Mutex
	recorded []string
	report   string
	resets   int
}

func (f *fakeProgress) RecordSession(_ context.Context, _ int32, kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, kind)
	return nil
}

func (f *fakeProgress) WeeklyReport(_ context.Context, _ int32) (string, error) {
	return f.report, nil
}

func (f *fakeProgress) ResetWeek(_ context.Context, _ int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

func mustCatalog(t *testing.T) *TemplateCatalog {
	t.Helper()
	catalog, err := LoadTemplateCatalog()
	require.NoError(t, err)
	return catalog
}

func newTestScheduler(t *testing.T, fs *fakeStore, fc *fakeCompletion, fd *fakeDispatcher, fp *fakeProgress) *Scheduler {
	t.Helper()
	return NewScheduler(fs, &fakeAssembler{}, fc, fd, fp, mustCatalog(t), Config{Location: time.UTC}, slog.Default())
}

func russianLearner(id int32) *store.Learner {
	return &store.Learner{
		ID:             id,
		UID:            "uid",
		Username:       "maria",
		NativeLanguage: "Russian",
		TargetLanguage: "Turkish",
		CurrentLevel:   "A1",
		LearningGoal:   "travel",
	}
}

func TestRegisterLearnerIdempotent(t *testing.T) {
	fs := &fakeStore{learners: map[int32]*store.Learner{1: russianLearner(1)}}
	s := newTestScheduler(t, fs, &fakeCompletion{text: "ok"}, &fakeDispatcher{}, &fakeProgress{})

	require.NoError(t, s.RegisterLearner(1))
	require.NoError(t, s.RegisterLearner(1))
	require.NoError(t, s.RegisterLearner(1))

	infos := s.Triggers(1)
	assert.Len(t, infos, 4)

	kinds := map[Kind]int{}
	for _, info := range infos {
		kinds[info.Kind]++
		assert.Equal(t, StateScheduled, info.State)
	}
	for _, kind := range AllKinds {
		assert.Equal(t, 1, kinds[kind], "exactly one trigger per kind: %s", kind)
	}
}

func TestUnregisterLearnerRemovesAllTriggers(t *testing.T) {
	fs := &fakeStore{learners: map[int32]*store.Learner{1: russianLearner(1), 2: russianLearner(2)}}
	s := newTestScheduler(t, fs, &fakeCompletion{text: "ok"}, &fakeDispatcher{}, &fakeProgress{})

	require.NoError(t, s.RegisterLearner(1))
	require.NoError(t, s.RegisterLearner(2))

	s.UnregisterLearner(1)
	assert.Empty(t, s.Triggers(1))
	assert.Len(t, s.Triggers(2), 4)
}

func TestStartStopIdempotent(t *testing.T) {
	fs := &fakeStore{learners: map[int32]*store.Learner{}}
	s := newTestScheduler(t, fs, &fakeCompletion{text: "ok"}, &fakeDispatcher{}, &fakeProgress{})

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}

func TestFirePersistsThenDispatches(t *testing.T) {
	fs := &fakeStore{learners: map[int32]*store.Learner{1: russianLearner(1)}}
	fd := &fakeDispatcher{}
	fp := &fakeProgress{}
	s := newTestScheduler(t, fs, &fakeCompletion{text: "Günaydın Maria!"}, fd, fp)

	s.fire(context.Background(), 1, KindMorning)

	saved := fs.savedMessages()
	require.Len(t, saved, 1)
	assert.Equal(t, store.MessageRoleAssistant, saved[0].Role)
	assert.Equal(t, "Günaydın Maria!", saved[0].Content)
	assert.Equal(t, "morning", saved[0].SessionTag)
	assert.NotEmpty(t, saved[0].UID)

	require.Len(t, fd.sent(), 1)
	assert.Equal(t, "Günaydın Maria!", fd.sent()[0])
	assert.Equal(t, []string{"morning"}, fp.recorded)
}

func TestFireFallbackOnCompletionError(t *testing.T) {
	tests := []struct {
		name       string
		completion *fakeCompletion
	}{
		{name: "error", completion: &fakeCompletion{err: errors.New("backend down")}},
		{name: "empty output", completion: &fakeCompletion{text: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeStore{learners: map[int32]*store.Learner{1: russianLearner(1)}}
			fd := &fakeDispatcher{}
			s := newTestScheduler(t, fs, tt.completion, fd, &fakeProgress{})

			s.fire(context.Background(), 1, KindEvening)

			want := FallbackMessage(KindEvening, "Russian")
			require.NotEmpty(t, want)

			saved := fs.savedMessages()
			require.Len(t, saved, 1)
			assert.Equal(t, want, saved[0].Content)
			require.Len(t, fd.sent(), 1)
			assert.Equal(t, want, fd.sent()[0])
		})
	}
}

func TestFireSkipsDispatchWhenSaveFails(t *testing.T) {
	fs := &fakeStore{
		learners:  map[int32]*store.Learner{1: russianLearner(1)},
		createErr: errors.New("disk full"),
	}
	fd := &fakeDispatcher{}
	s := newTestScheduler(t, fs, &fakeCompletion{text: "ok"}, fd, &fakeProgress{})

	s.fire(context.Background(), 1, KindMorning)
	assert.Empty(t, fd.sent())
}

func TestFireMissingLearnerAbortsWithoutSending(t *testing.T) {
	fs := &fakeStore{learners: map[int32]*store.Learner{}}
	fd := &fakeDispatcher{}
	s := newTestScheduler(t, fs, &fakeCompletion{text: "ok"}, fd, &fakeProgress{})

	s.fire(context.Background(), 99, KindMorning)
	assert.Empty(t, fd.sent())
	assert.Empty(t, fs.savedMessages())
}

func TestFireFaultIsolation(t *testing.T) {
	fs := &fakeStore{
		learners: map[int32]*store.Learner{2: russianLearner(2)},
		getErr:   map[int32]error{1: errors.New("corrupt row")},
	}
	fd := &fakeDispatcher{}
	s := newTestScheduler(t, fs, &fakeCompletion{text: "hello"}, fd, &fakeProgress{})

	// Learner 1's failure must not affect learner 2's fire.
	s.fire(context.Background(), 1, KindMorning)
	s.fire(context.Background(), 2, KindMorning)

	require.Len(t, fd.sent(), 1)
	assert.Equal(t, "hello", fd.sent()[0])
}

func TestFireRecoversFromPanic(t *testing.T) {
	fs := &fakeStore{learners: map[int32]*store.Learner{1: russianLearner(1)}}
	s := NewScheduler(fs, &fakeAssembler{panic: true}, &fakeCompletion{}, &fakeDispatcher{}, &fakeProgress{}, mustCatalog(t), Config{Location: time.UTC}, slog.Default())

	assert.NotPanics(t, func() {
		s.fire(context.Background(), 1, KindMorning)
	})
}

func TestFireTemplateDefectAbortsWithoutFallback(t *testing.T) {
	fs := &fakeStore{learners: map[int32]*store.Learner{1: russianLearner(1)}}
	fd := &fakeDispatcher{}
	fa := &fakeAssembler{err: &assembler.TemplateError{Placeholder: "bogus"}}
	s := NewScheduler(fs, fa, &fakeCompletion{text: "ok"}, fd, &fakeProgress{}, mustCatalog(t), Config{Location: time.UTC}, slog.Default())

	s.fire(context.Background(), 1, KindMorning)
	assert.Empty(t, fd.sent())
	assert.Empty(t, fs.savedMessages())
}

func TestFireAssemblyErrorFallsBack(t *testing.T) {
	fs := &fakeStore{learners: map[int32]*store.Learner{1: russianLearner(1)}}
	fd := &fakeDispatcher{}
	fa := &fakeAssembler{err: errors.New("history unavailable")}
	s := NewScheduler(fs, fa, &fakeCompletion{text: "unused"}, fd, &fakeProgress{}, mustCatalog(t), Config{Location: time.UTC}, slog.Default())

	s.fire(context.Background(), 1, KindMidday)
	require.Len(t, fd.sent(), 1)
	assert.Equal(t, FallbackMessage(KindMidday, "Russian"), fd.sent()[0])
}

func TestWeeklyReportFromProgress(t *testing.T) {
	fs := &fakeStore{learners: map[int32]*store.Learner{1: russianLearner(1)}}
	fd := &fakeDispatcher{}
	fp := &fakeProgress{report: "Sessions this week: 12"}
	s := newTestScheduler(t, fs, &fakeCompletion{err: errors.New("must not be called")}, fd, fp)

	s.fire(context.Background(), 1, KindWeeklyReport)

	require.Len(t, fd.sent(), 1)
	assert.Equal(t, "Sessions this week: 12", fd.sent()[0])
	assert.Equal(t, 1, fp.resets)
	// Weekly reports do not count as practice sessions.
	assert.Empty(t, fp.recorded)

	saved := fs.savedMessages()
	require.Len(t, saved, 1)
	assert.Equal(t, "weekly_report", saved[0].SessionTag)
}

func TestWeeklyReportFailedDispatchKeepsCounters(t *testing.T) {
	fs := &fakeStore{learners: map[int32]*store.Learner{1: russianLearner(1)}}
	fd := &fakeDispatcher{err: errors.New("webhook down")}
	fp := &fakeProgress{report: "Sessions this week: 12"}
	s := newTestScheduler(t, fs, &fakeCompletion{}, fd, fp)

	s.fire(context.Background(), 1, KindWeeklyReport)

	// The report never reached the learner, so the week's counters must
	// survive for the next attempt.
	assert.Equal(t, 0, fp.resets)
}

func TestRunSkipsMissedOccurrence(t *testing.T) {
	fs := &fakeStore{learners: map[int32]*store.Learner{1: russianLearner(1)}}
	fd := &fakeDispatcher{}
	s := newTestScheduler(t, fs, &fakeCompletion{text: "ok"}, fd, &fakeProgress{})

	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	require.NoError(t, s.RegisterLearner(1))

	s.mu.Lock()
	tr := s.triggers[triggerKey{learnerID: 1, kind: KindMorning}]
	s.mu.Unlock()
	require.NotNil(t, tr)

	// The process wakes up long after the due time; within grace would fire,
	// beyond grace must skip.
	s.now = func() time.Time { return tr.next.Add(10 * time.Minute) }
	s.run(tr)

	assert.Equal(t, StateMissed, tr.state)
	assert.Empty(t, fd.sent())
	assert.Empty(t, fs.savedMessages())
}

func TestRunFiresWithinGracePeriod(t *testing.T) {
	fs := &fakeStore{learners: map[int32]*store.Learner{1: russianLearner(1)}}
	fd := &fakeDispatcher{}
	s := newTestScheduler(t, fs, &fakeCompletion{text: "morning text"}, fd, &fakeProgress{})

	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	require.NoError(t, s.RegisterLearner(1))

	s.mu.Lock()
	tr := s.triggers[triggerKey{learnerID: 1, kind: KindMorning}]
	s.mu.Unlock()
	require.NotNil(t, tr)

	due := tr.next
	s.now = func() time.Time { return due.Add(time.Minute) }
	s.run(tr)

	require.Len(t, fd.sent(), 1)
	assert.Equal(t, StateFired, tr.state)
	assert.True(t, tr.next.After(due))

	infos := s.Triggers(1)
	for _, info := range infos {
		if info.Kind != KindMorning {
			continue
		}
		assert.Equal(t, StateFired, info.State)
		assert.Equal(t, due.Add(time.Minute), info.LastFired)
	}
}

func TestCronSpecShape(t *testing.T) {
	fs := &fakeStore{}
	s := newTestScheduler(t, fs, &fakeCompletion{}, &fakeDispatcher{}, &fakeProgress{})

	assert.Equal(t, "0 20 * * 0", s.cronSpec(KindWeeklyReport))

	for _, kind := range DailyKinds {
		spec := s.cronSpec(kind)
		var minute, hour int
		var rest string
		n, err := fmt.Sscanf(spec, "%d %d %s", &minute, &hour, &rest)
		require.NoError(t, err)
		require.Equal(t, 3, n)
		assert.GreaterOrEqual(t, minute, 0)
		assert.Less(t, minute, 60)
		assert.Equal(t, hourOf(kind), hour)
	}
}
