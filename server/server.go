// Package server wires the tutoring components together and runs the HTTP
// surface and the practice scheduler as one unit.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/linguasense/internal/profile"
	"github.com/hrygo/linguasense/server/ai"
	"github.com/hrygo/linguasense/server/assembler"
	"github.com/hrygo/linguasense/server/chat"
	"github.com/hrygo/linguasense/server/dispatch"
	"github.com/hrygo/linguasense/server/practice"
	"github.com/hrygo/linguasense/server/progress"
	apiv1 "github.com/hrygo/linguasense/server/router/api/v1"
	"github.com/hrygo/linguasense/server/timezone"
	"github.com/hrygo/linguasense/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	scheduler  *practice.Scheduler
	logger     *slog.Logger
}

// NewServer builds the full component graph from the profile: completion
// provider, prompt assembler, dispatcher, progress tracker, scheduler, chat
// service and the REST routes.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	logger := slog.Default()

	loc, err := timezone.ParseTimezone(profile.PracticeTimezone)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse practice timezone")
	}

	providerCfg := ai.DefaultConfig()
	providerCfg.BaseURL = profile.AIBaseURL
	providerCfg.APIKey = profile.AIAPIKey
	providerCfg.Model = profile.AIModel
	provider, err := ai.NewProvider(providerCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create completion provider")
	}

	promptAssembler := assembler.New(store, assembler.Config{
		HistoryWindow: profile.HistoryWindow,
		CollapseAfter: profile.HistoryCollapseAfter,
		Location:      loc,
	})

	catalog, err := practice.LoadTemplateCatalog()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load template catalog")
	}

	var dispatcher dispatch.Dispatcher
	if profile.DispatchWebhookURL != "" {
		dispatcher = dispatch.NewWebhookDispatcher(profile.DispatchWebhookURL, profile.DispatchTimeout)
	} else {
		logger.Warn("no dispatch webhook configured, messages will be logged only")
		dispatcher = dispatch.NewLogDispatcher(logger)
	}

	tracker := progress.NewTracker(store, loc, logger)
	scheduler := practice.NewScheduler(store, promptAssembler, provider, dispatcher, tracker, catalog, practice.Config{Location: loc}, logger)
	chatService := chat.NewService(store, promptAssembler, provider, catalog, logger)

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	apiV1Service := apiv1.NewAPIV1Service(profile, store, scheduler, chatService, tracker, catalog)
	apiV1Service.RegisterRoutes(echoServer)

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: echoServer,
		scheduler:  scheduler,
		logger:     logger,
	}

	if err := s.registerExistingLearners(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to register existing learners")
	}

	return s, nil
}

// registerExistingLearners reinstalls triggers for every active learner.
// Registrations do not survive a restart on their own; a learner onboarded
// before the last restart must keep receiving sessions.
func (s *Server) registerExistingLearners(ctx context.Context) error {
	normal := store.Normal
	learners, err := s.Store.ListLearners(ctx, &store.FindLearner{RowStatus: &normal})
	if err != nil {
		return errors.Wrap(err, "failed to list learners")
	}
	for _, learner := range learners {
		if err := s.scheduler.RegisterLearner(learner.ID); err != nil {
			return errors.Wrapf(err, "failed to register learner %d", learner.ID)
		}
	}
	s.logger.Info("registered practice triggers for existing learners", "count", len(learners))
	return nil
}

// Start runs the HTTP server and the scheduler until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	s.scheduler.Start()

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	s.logger.Info("server started", "address", address, "mode", s.Profile.Mode, "version", s.Profile.Version)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.Shutdown(context.Background())
		return nil
	})
	return g.Wait()
}

// Shutdown stops the scheduler (draining in-flight fires), the HTTP server
// and the store, in that order.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	s.scheduler.Stop()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		s.logger.Error("failed to shut down http server", "error", err)
	}

	if err := s.Store.Close(); err != nil {
		s.logger.Error("failed to close store", "error", err)
	}

	s.logger.Info("server shut down")
}
