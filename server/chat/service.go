// Package chat handles the reactive side of the assistant: one learner
// message in, one assistant reply out, both persisted to history.
package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/linguasense/server/assembler"
	"github.com/hrygo/linguasense/store"
)

// Canned reply when generation fails mid-conversation. Unlike scheduled
// sessions there is a learner actively waiting, so the reply is apologetic
// rather than a session opener.
var apologyReplies = map[string]string{
	"english": "Sorry, I could not come up with a reply just now. Please try again in a moment.",
	"russian": "Извините, я не смог ответить прямо сейчас. Пожалуйста, попробуйте ещё раз через минуту.",
	"turkish": "Üzgünüm, şu anda bir yanıt oluşturamadım. Lütfen birazdan tekrar dener misin?",
	"spanish": "Lo siento, no pude generar una respuesta ahora mismo. Inténtalo de nuevo en un momento.",
}

// ResultState says how the reply in a Result was produced.
type ResultState string

const (
	// StateEmpty means the input was blank and nothing was generated,
	// persisted or charged.
	StateEmpty ResultState = "EMPTY"
	// StateGenerated means the reply came from the completion backend.
	StateGenerated ResultState = "GENERATED"
	// StateFallback means generation failed and the reply is the canned
	// apology. The learner message is still persisted.
	StateFallback ResultState = "FALLBACK"
)

// Result is the outcome of one chat turn.
type Result struct {
	State ResultState
	// Reply is the persisted assistant message, nil when State is EMPTY.
	Reply *store.Message
}

// Store is the interface for store operations needed by the chat service.
type Store interface {
	GetLearner(ctx context.Context, find *store.FindLearner) (*store.Learner, error)
	CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error)
}

// Completion is the opaque text-completion backend.
type Completion interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// PromptAssembler builds the prompt for a chat turn.
type PromptAssembler interface {
	Assemble(ctx context.Context, learnerID int32, userInput, instructionOverride string) (*assembler.Prompt, error)
}

// ScenarioCatalog resolves a named conversation scenario to its
// instruction override text.
type ScenarioCatalog interface {
	Scenario(name string) string
}

// Service runs interactive chat turns.
type Service struct {
	store     Store
	assembler PromptAssembler
	completer Completion
	scenarios ScenarioCatalog
	logger    *slog.Logger
}

func NewService(s Store, pa PromptAssembler, completer Completion, scenarios ScenarioCatalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     s,
		assembler: pa,
		completer: completer,
		scenarios: scenarios,
		logger:    logger,
	}
}

// Reply runs one chat turn: persist the learner's message, assemble the
// prompt over the updated history, complete, persist the assistant reply.
// A blank input short-circuits with StateEmpty before anything is written.
// scenario is optional; when set it selects a named instruction override.
func (s *Service) Reply(ctx context.Context, learnerID int32, input, scenario string) (*Result, error) {
	if strings.TrimSpace(input) == "" {
		return &Result{State: StateEmpty}, nil
	}

	learner, err := s.store.GetLearner(ctx, &store.FindLearner{ID: &learnerID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get learner")
	}
	if learner == nil {
		return nil, assembler.ErrLearnerNotFound
	}

	var override string
	if scenario != "" && s.scenarios != nil {
		override = s.scenarios.Scenario(scenario)
		if override == "" {
			s.logger.Warn("unknown chat scenario, using free conversation",
				"learner_id", learnerID, "scenario", scenario)
		}
	}

	// The learner message is saved first so the reply's prompt, and every
	// future prompt, sees it in history.
	if _, err := s.store.CreateMessage(ctx, &store.Message{
		UID:       shortuuid.New(),
		LearnerID: learnerID,
		Role:      store.MessageRoleUser,
		Content:   input,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to persist learner message")
	}

	state := StateGenerated
	text, err := s.generate(ctx, learnerID, input, override)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.logger.Warn("chat generation failed, using apology reply",
				"learner_id", learnerID, "error", err)
		}
		state = StateFallback
		text = apologyReply(learner.NativeLanguage)
	}

	reply, err := s.store.CreateMessage(ctx, &store.Message{
		UID:       shortuuid.New(),
		LearnerID: learnerID,
		Role:      store.MessageRoleAssistant,
		Content:   text,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to persist assistant reply")
	}

	return &Result{State: state, Reply: reply}, nil
}

func (s *Service) generate(ctx context.Context, learnerID int32, input, override string) (string, error) {
	prompt, err := s.assembler.Assemble(ctx, learnerID, input, override)
	if err != nil {
		return "", errors.Wrap(err, "failed to assemble prompt")
	}
	return s.completer.Complete(ctx, prompt.System, prompt.User)
}

func apologyReply(nativeLanguage string) string {
	lang := strings.ToLower(strings.TrimSpace(nativeLanguage))
	if reply, ok := apologyReplies[lang]; ok {
		return reply
	}
	return apologyReplies["english"]
}
