// Package practice owns the proactive side of the assistant: recurring
// per-learner practice triggers, the end-to-end generation of scheduled
// practice messages, and the weekly progress report.
//
// Every learner gets four triggers (morning, midday, evening, weekly
// report) evaluated against one fixed time zone; sessions are anchored to
// the learning culture's clock, not the learner's location. Each fire runs
// inside its own fault boundary: one learner's failure never stops the
// scheduler or touches other learners' triggers.
package practice

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/hrygo/linguasense/server/assembler"
	"github.com/hrygo/linguasense/store"
)

const (
	// defaultGracePeriod bounds how late an occurrence may fire. A stale
	// "good morning" delivered hours late has negative value, so late
	// occurrences are skipped, never queued for catch-up.
	defaultGracePeriod = 5 * time.Minute

	// defaultDrainTimeout bounds how long Stop waits for in-flight fires, so
	// shutdown never kills a fire mid-write.
	defaultDrainTimeout = 30 * time.Second

	// fireTimeout bounds a single fire's assembly, completion and dispatch.
	fireTimeout = 2 * time.Minute
)

// Store is the interface for store operations needed by the scheduler.
type Store interface {
	GetLearner(ctx context.Context, find *store.FindLearner) (*store.Learner, error)
	CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error)
}

// PromptAssembler builds the prompt for a scheduled session.
type PromptAssembler interface {
	Assemble(ctx context.Context, learnerID int32, userInput, instructionOverride string) (*assembler.Prompt, error)
}

// Completion is the opaque text-completion backend.
type Completion interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Dispatcher delivers a text message to a learner's chat session.
// Failures are logged by the scheduler, not retried; retry policy, if any,
// belongs to the dispatcher.
type Dispatcher interface {
	Send(ctx context.Context, learnerID int32, text string) error
}

// ProgressReporter supplies the weekly report and records completed sessions.
type ProgressReporter interface {
	RecordSession(ctx context.Context, learnerID int32, kind string) error
	WeeklyReport(ctx context.Context, learnerID int32) (string, error)
	ResetWeek(ctx context.Context, learnerID int32) error
}

type triggerKey struct {
	learnerID int32
	kind      Kind
}

// trigger is one live (learnerID, kind) registration. Exactly one exists per
// key at any time; re-registration replaces it.
type trigger struct {
	key      triggerKey
	spec     string
	entryID  cron.EntryID
	schedule cron.Schedule
	state    TriggerState
	next     time.Time
	lastFire time.Time
}

// TriggerInfo is a read-only view of a live trigger for the admin surface.
type TriggerInfo struct {
	LearnerID int32
	Kind      Kind
	Spec      string
	State     TriggerState
	Next      time.Time
	LastFired time.Time
}

// Config holds scheduler construction parameters.
type Config struct {
	// Location is the fixed practice time zone all cron evaluation uses.
	Location *time.Location
	// GracePeriod overrides defaultGracePeriod when positive.
	GracePeriod time.Duration
	// DrainTimeout overrides defaultDrainTimeout when positive.
	DrainTimeout time.Duration
}

// Scheduler maintains the per-learner trigger registry and drives proactive
// practice message generation.
type Scheduler struct {
	cron      *cron.Cron
	loc       *time.Location
	catalog   *TemplateCatalog
	store     Store
	assembler PromptAssembler
	completer Completion
	dispatch  Dispatcher
	progress  ProgressReporter
	logger    *slog.Logger

	grace time.Duration
	drain time.Duration

	mu       sync.Mutex
	triggers map[triggerKey]*trigger
	started  bool

	// now is injectable for deterministic tests.
	now func() time.Time
}

// NewScheduler creates a Scheduler. All collaborators are required except
// progress, which may be nil when no progress tracking is wired (the weekly
// report then falls back to its canned message).
func NewScheduler(s Store, pa PromptAssembler, completer Completion, dispatch Dispatcher, progress ProgressReporter, catalog *TemplateCatalog, cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	grace := cfg.GracePeriod
	if grace <= 0 {
		grace = defaultGracePeriod
	}
	drain := cfg.DrainTimeout
	if drain <= 0 {
		drain = defaultDrainTimeout
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		loc:       loc,
		catalog:   catalog,
		store:     s,
		assembler: pa,
		completer: completer,
		dispatch:  dispatch,
		progress:  progress,
		logger:    logger,
		grace:     grace,
		drain:     drain,
		triggers:  make(map[triggerKey]*trigger),
		now:       time.Now,
	}
}

// RegisterLearner installs the four recurring triggers for a learner.
// Registration is idempotent: an existing trigger for the same (learner,
// kind) is canceled before the replacement is installed, so a learner never
// holds more than one live trigger per kind.
func (s *Scheduler) RegisterLearner(learnerID int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, kind := range AllKinds {
		spec := s.cronSpec(kind)
		if err := s.installLocked(learnerID, kind, spec); err != nil {
			return errors.Wrapf(err, "failed to install trigger (%d, %s)", learnerID, kind)
		}
	}

	s.logger.Info("learner registered for practice sessions",
		"learner_id", learnerID,
		"triggers", len(AllKinds))
	return nil
}

// UnregisterLearner cancels all pending trigger occurrences for a learner,
// leaving no orphaned timers. In-flight fires are unaffected.
func (s *Scheduler) UnregisterLearner(learnerID int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, t := range s.triggers {
		if key.learnerID != learnerID {
			continue
		}
		s.cron.Remove(t.entryID)
		delete(s.triggers, key)
		removed++
	}

	s.logger.Info("learner unregistered", "learner_id", learnerID, "removed", removed)
}

// Triggers returns a snapshot of the live trigger registry.
func (s *Scheduler) Triggers(learnerID int32) []TriggerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]TriggerInfo, 0, len(AllKinds))
	for key, t := range s.triggers {
		if key.learnerID != learnerID {
			continue
		}
		infos = append(infos, TriggerInfo{
			LearnerID: key.learnerID,
			Kind:      key.kind,
			Spec:      t.spec,
			State:     t.state,
			Next:      t.next,
			LastFired: t.lastFire,
		})
	}
	return infos
}

// Start begins evaluating triggers. Calling Start twice is a no-op with a
// warning, not an error.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.logger.Warn("scheduler already started, ignoring")
		return
	}
	s.started = true
	s.cron.Start()
	s.logger.Info("practice scheduler started", "timezone", s.loc.String())
}

// Stop halts trigger evaluation and waits up to the drain timeout for
// in-flight fires to finish. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		s.logger.Warn("scheduler not started, ignoring stop")
		return
	}
	s.started = false
	s.mu.Unlock()

	// The cron runtime tracks running jobs itself and completes the returned
	// context once they all return, so there is no window where a fire has
	// started but is not yet counted.
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("practice scheduler stopped")
	case <-time.After(s.drain):
		s.logger.Warn("practice scheduler stopped with fires still in flight", "drain_timeout", s.drain)
	}
}

// cronSpec builds the recurrence expression for a kind. Daily kinds get a
// random minute within their fixed hour to spread load.
func (s *Scheduler) cronSpec(kind Kind) string {
	if kind == KindWeeklyReport {
		// Sunday evening.
		return "0 20 * * 0"
	}
	return fmt.Sprintf("%d %d * * *", rand.Intn(60), hourOf(kind))
}

// installLocked replaces any existing trigger for (learnerID, kind): the old
// scheduled occurrence is canceled before the new one is installed.
func (s *Scheduler) installLocked(learnerID int32, kind Kind, spec string) error {
	key := triggerKey{learnerID: learnerID, kind: kind}
	if old, ok := s.triggers[key]; ok {
		s.cron.Remove(old.entryID)
		delete(s.triggers, key)
	}

	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return errors.Wrapf(err, "invalid cron spec %q", spec)
	}

	t := &trigger{
		key:      key,
		spec:     spec,
		schedule: schedule,
		state:    StateScheduled,
		next:     schedule.Next(s.now().In(s.loc)),
	}

	entryID, err := s.cron.AddFunc(spec, func() { s.run(t) })
	if err != nil {
		return errors.Wrapf(err, "failed to add cron entry %q", spec)
	}
	t.entryID = entryID
	s.triggers[key] = t

	return nil
}

// run is the cron entry point for one occurrence. The cron runtime already
// invokes it off the timer goroutine, so blocking on assembly, completion
// and dispatch here cannot stall other due triggers.
func (s *Scheduler) run(t *trigger) {
	now := s.now().In(s.loc)

	s.mu.Lock()
	due := t.next
	t.next = t.schedule.Next(now)
	if !due.IsZero() && now.Sub(due) > s.grace {
		t.state = StateMissed
		s.mu.Unlock()
		s.logger.Warn("skipping missed practice occurrence",
			"learner_id", t.key.learnerID,
			"kind", t.key.kind,
			"due", due,
			"late_by", now.Sub(due))
		return
	}
	t.state = StateFiring
	t.lastFire = now
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()
	s.fire(ctx, t.key.learnerID, t.key.kind)

	s.mu.Lock()
	t.state = StateFired
	s.mu.Unlock()
}

// fire generates and delivers one proactive practice message. It is the
// per-occurrence fault boundary: every failure path ends in a log entry
// tagged with (learner, kind) and never propagates.
func (s *Scheduler) fire(ctx context.Context, learnerID int32, kind Kind) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("practice fire panicked",
				"learner_id", learnerID,
				"kind", kind,
				"panic", r)
		}
	}()

	logger := s.logger.With("learner_id", learnerID, "kind", kind)

	learner, err := s.store.GetLearner(ctx, &store.FindLearner{ID: &learnerID})
	if err != nil {
		logger.Error("failed to load learner for practice fire", "error", err)
		return
	}
	if learner == nil {
		// A missing profile aborts this occurrence only; it must never crash
		// the scheduler or cancel other learners' triggers.
		logger.Warn("learner profile missing, skipping practice fire")
		return
	}

	var text string
	if kind == KindWeeklyReport {
		text = s.weeklyReport(ctx, learner, logger)
	} else {
		text = s.dailySession(ctx, learner, kind, logger)
	}
	if text == "" {
		return
	}

	// Persist before dispatch: a sent message must always be visible as
	// context in future prompts, and shutdown must not leave a half-sent,
	// half-persisted message.
	if _, err := s.store.CreateMessage(ctx, &store.Message{
		UID:        newUID(),
		LearnerID:  learnerID,
		Role:       store.MessageRoleAssistant,
		Content:    text,
		SessionTag: string(kind),
	}); err != nil {
		logger.Error("failed to persist practice message, not dispatching", "error", err)
		return
	}

	if err := s.dispatch.Send(ctx, learnerID, text); err != nil {
		logger.Error("failed to dispatch practice message", "error", err)
		return
	}

	if s.progress != nil {
		if kind == KindWeeklyReport {
			// Counters reset only once the report is actually delivered; a
			// failed dispatch keeps them intact for the next attempt.
			if err := s.progress.ResetWeek(ctx, learnerID); err != nil {
				logger.Error("failed to reset weekly counters", "error", err)
			}
		} else if err := s.progress.RecordSession(ctx, learnerID, string(kind)); err != nil {
			logger.Error("failed to record practice session", "error", err)
		}
	}

	logger.Info("practice message dispatched", "length", len(text))
}

// dailySession produces the message for a morning/midday/evening fire.
// Empty or failed generation degrades to the kind's canned fallback; an
// empty proactive message is worse than a generic one.
func (s *Scheduler) dailySession(ctx context.Context, learner *store.Learner, kind Kind, logger *slog.Logger) string {
	instruction, err := s.catalog.Instruction(kind)
	if err != nil {
		// Configuration defect: fatal for this kind's occurrence, but the
		// trigger stays installed and will try again next time.
		logger.Error("session instruction unavailable", "error", err)
		return ""
	}

	prompt, err := s.assembler.Assemble(ctx, learner.ID, "", instruction)
	if err != nil {
		var templateErr *assembler.TemplateError
		if errors.As(err, &templateErr) {
			logger.Error("prompt template defect, aborting occurrence", "error", err)
			return ""
		}
		logger.Error("prompt assembly failed, using fallback", "error", err)
		return FallbackMessage(kind, learner.NativeLanguage)
	}

	text, err := s.completer.Complete(ctx, prompt.System, prompt.User)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			logger.Warn("completion failed, using fallback", "error", err)
		} else {
			logger.Warn("completion returned empty text, using fallback")
		}
		return FallbackMessage(kind, learner.NativeLanguage)
	}

	return text
}

// weeklyReport renders the progress report directly from accumulated
// counters; no completion call is involved.
func (s *Scheduler) weeklyReport(ctx context.Context, learner *store.Learner, logger *slog.Logger) string {
	if s.progress == nil {
		return FallbackMessage(KindWeeklyReport, learner.NativeLanguage)
	}

	report, err := s.progress.WeeklyReport(ctx, learner.ID)
	if err != nil || strings.TrimSpace(report) == "" {
		if err != nil {
			logger.Error("failed to build weekly report, using fallback", "error", err)
		}
		return FallbackMessage(KindWeeklyReport, learner.NativeLanguage)
	}

	return report
}
