package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/linguasense/store"
)

type CreateLearnerRequest struct {
	Username       string `json:"username"`
	NativeLanguage string `json:"nativeLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	CurrentLevel   string `json:"currentLevel"`
	TargetLevel    string `json:"targetLevel"`
	LearningGoal   string `json:"learningGoal"`
	WeeklyHours    int32  `json:"weeklyHours"`
}

type UpdateLearnerRequest struct {
	Username     *string `json:"username"`
	CurrentLevel *string `json:"currentLevel"`
	LearningGoal *string `json:"learningGoal"`
	WeeklyHours  *int32  `json:"weeklyHours"`
}

type LearnerResponse struct {
	UID            string `json:"uid"`
	Username       string `json:"username"`
	NativeLanguage string `json:"nativeLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	CurrentLevel   string `json:"currentLevel"`
	TargetLevel    string `json:"targetLevel"`
	LearningGoal   string `json:"learningGoal"`
	WeeklyHours    int32  `json:"weeklyHours"`
	CreatedTs      int64  `json:"createdTs"`
}

func convertLearner(learner *store.Learner) *LearnerResponse {
	return &LearnerResponse{
		UID:            learner.UID,
		Username:       learner.Username,
		NativeLanguage: learner.NativeLanguage,
		TargetLanguage: learner.TargetLanguage,
		CurrentLevel:   learner.CurrentLevel,
		TargetLevel:    learner.TargetLevel,
		LearningGoal:   learner.LearningGoal,
		WeeklyHours:    learner.WeeklyHours,
		CreatedTs:      learner.CreatedTs,
	}
}

// CreateLearner onboards a learner and installs their practice triggers.
func (s *APIV1Service) CreateLearner(c echo.Context) error {
	req := &CreateLearnerRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if req.Username == "" || req.NativeLanguage == "" || req.TargetLanguage == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username, nativeLanguage and targetLanguage are required")
	}

	ctx := c.Request().Context()
	learner, err := s.Store.CreateLearner(ctx, &store.Learner{
		UID:            shortuuid.New(),
		Username:       req.Username,
		NativeLanguage: req.NativeLanguage,
		TargetLanguage: req.TargetLanguage,
		CurrentLevel:   req.CurrentLevel,
		TargetLevel:    req.TargetLevel,
		LearningGoal:   req.LearningGoal,
		WeeklyHours:    req.WeeklyHours,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create learner").SetInternal(err)
	}

	if err := s.Scheduler.RegisterLearner(learner.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to register practice triggers").SetInternal(err)
	}

	return c.JSON(http.StatusOK, convertLearner(learner))
}

func (s *APIV1Service) GetLearner(c echo.Context) error {
	learner, err := s.findLearnerByUID(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertLearner(learner))
}

func (s *APIV1Service) UpdateLearner(c echo.Context) error {
	learner, err := s.findLearnerByUID(c)
	if err != nil {
		return err
	}

	req := &UpdateLearnerRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	now := time.Now().Unix()
	update := &store.UpdateLearner{
		ID:           learner.ID,
		UpdatedTs:    &now,
		Username:     req.Username,
		CurrentLevel: req.CurrentLevel,
		LearningGoal: req.LearningGoal,
		WeeklyHours:  req.WeeklyHours,
	}
	updated, err := s.Store.UpdateLearner(c.Request().Context(), update)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update learner").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertLearner(updated))
}

// DeleteLearner archives a learner and cancels all their pending triggers.
// History is retained; only the triggers and the active profile go away.
func (s *APIV1Service) DeleteLearner(c echo.Context) error {
	learner, err := s.findLearnerByUID(c)
	if err != nil {
		return err
	}

	s.Scheduler.UnregisterLearner(learner.ID)

	now := time.Now().Unix()
	archived := store.Archived
	if _, err := s.Store.UpdateLearner(c.Request().Context(), &store.UpdateLearner{
		ID:        learner.ID,
		UpdatedTs: &now,
		RowStatus: &archived,
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to archive learner").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

type TriggerResponse struct {
	Kind      string `json:"kind"`
	Spec      string `json:"spec"`
	State     string `json:"state"`
	Next      string `json:"next"`
	LastFired string `json:"lastFired,omitempty"`
}

func (s *APIV1Service) ListTriggers(c echo.Context) error {
	learner, err := s.findLearnerByUID(c)
	if err != nil {
		return err
	}

	infos := s.Scheduler.Triggers(learner.ID)
	triggers := make([]*TriggerResponse, 0, len(infos))
	for _, info := range infos {
		tr := &TriggerResponse{
			Kind:  string(info.Kind),
			Spec:  info.Spec,
			State: string(info.State),
			Next:  info.Next.Format(time.RFC3339),
		}
		if !info.LastFired.IsZero() {
			tr.LastFired = info.LastFired.Format(time.RFC3339)
		}
		triggers = append(triggers, tr)
	}
	return c.JSON(http.StatusOK, map[string]any{"triggers": triggers})
}

func (s *APIV1Service) GetProgress(c echo.Context) error {
	learner, err := s.findLearnerByUID(c)
	if err != nil {
		return err
	}

	p, err := s.Store.GetProgress(c.Request().Context(), &store.FindProgress{LearnerID: learner.ID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get progress").SetInternal(err)
	}
	if p == nil {
		p = &store.Progress{LearnerID: learner.ID}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"sessionsCompleted": p.SessionsCompleted,
		"morningSessions":   p.MorningSessions,
		"middaySessions":    p.MiddaySessions,
		"eveningSessions":   p.EveningSessions,
		"wordsLearned":      p.WordsLearned,
		"factsLearned":      p.FactsLearned,
		"streakDays":        p.StreakDays,
	})
}
