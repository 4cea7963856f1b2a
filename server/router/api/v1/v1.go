// Package v1 exposes the REST surface: learner onboarding, interactive
// chat, history and progress reads, and trigger introspection.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/linguasense/internal/profile"
	"github.com/hrygo/linguasense/server/chat"
	"github.com/hrygo/linguasense/server/middleware"
	"github.com/hrygo/linguasense/server/practice"
	"github.com/hrygo/linguasense/server/progress"
	"github.com/hrygo/linguasense/store"
)

type APIV1Service struct {
	Profile   *profile.Profile
	Store     *store.Store
	Scheduler *practice.Scheduler
	Chat      *chat.Service
	Progress  *progress.Tracker
	Catalog   *practice.TemplateCatalog
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, scheduler *practice.Scheduler, chatService *chat.Service, tracker *progress.Tracker, catalog *practice.TemplateCatalog) *APIV1Service {
	return &APIV1Service{
		Profile:   profile,
		Store:     store,
		Scheduler: scheduler,
		Chat:      chatService,
		Progress:  tracker,
		Catalog:   catalog,
	}
}

// RegisterRoutes registers all v1 routes on the given Echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.Use(echomw.Recover())
	e.Use(middleware.NewRateLimiter().Middleware())

	e.GET("/healthz", s.GetHealthz)

	g := e.Group("/api/v1")
	g.POST("/learners", s.CreateLearner)
	g.GET("/learners/:uid", s.GetLearner)
	g.PATCH("/learners/:uid", s.UpdateLearner)
	g.DELETE("/learners/:uid", s.DeleteLearner)
	g.GET("/learners/:uid/triggers", s.ListTriggers)
	g.GET("/learners/:uid/progress", s.GetProgress)
	g.GET("/learners/:uid/messages", s.ListMessages)
	g.POST("/learners/:uid/messages", s.CreateMessage)
	g.GET("/scenarios", s.ListScenarios)
}

func (s *APIV1Service) GetHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.Profile.Version,
	})
}

func (s *APIV1Service) ListScenarios(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"scenarios": s.Catalog.Scenarios(),
	})
}

// findLearnerByUID resolves the :uid path parameter to an active learner.
func (s *APIV1Service) findLearnerByUID(c echo.Context) (*store.Learner, error) {
	uid := c.Param("uid")
	if uid == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "missing learner uid")
	}
	learner, err := s.Store.GetLearner(c.Request().Context(), &store.FindLearner{UID: &uid})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to get learner").SetInternal(err)
	}
	if learner == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "learner not found")
	}
	return learner, nil
}
