package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/linguasense/internal/profile"
	"github.com/hrygo/linguasense/server/assembler"
	"github.com/hrygo/linguasense/server/chat"
	"github.com/hrygo/linguasense/server/dispatch"
	"github.com/hrygo/linguasense/server/practice"
	"github.com/hrygo/linguasense/server/progress"
	"github.com/hrygo/linguasense/store"
	"github.com/hrygo/linguasense/store/db/sqlite"
)

type stubCompletion struct {
	text string
}

func (s *stubCompletion) Complete(_ context.Context, _, _ string) (string, error) {
	return s.text, nil
}

func newTestAPI(t *testing.T) (*echo.Echo, *APIV1Service) {
	t.Helper()

	p := &profile.Profile{
		Mode:    "dev",
		Driver:  "sqlite",
		DSN:     filepath.Join(t.TempDir(), "test.db"),
		Version: "test",
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	storeInstance := store.New(driver, p)
	require.NoError(t, storeInstance.Migrate(context.Background()))
	t.Cleanup(func() { _ = storeInstance.Close() })

	catalog, err := practice.LoadTemplateCatalog()
	require.NoError(t, err)

	completion := &stubCompletion{text: "Merhaba! Hazır mısın?"}
	promptAssembler := assembler.New(storeInstance, assembler.Config{})
	tracker := progress.NewTracker(storeInstance, time.UTC, nil)
	dispatcher := dispatch.NewLogDispatcher(nil)
	scheduler := practice.NewScheduler(storeInstance, promptAssembler, completion, dispatcher, tracker, catalog, practice.Config{Location: time.UTC}, nil)
	chatService := chat.NewService(storeInstance, promptAssembler, completion, catalog, nil)

	e := echo.New()
	service := NewAPIV1Service(p, storeInstance, scheduler, chatService, tracker, catalog)
	service.RegisterRoutes(e)
	return e, service
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func onboardLearner(t *testing.T, e *echo.Echo) *LearnerResponse {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/api/v1/learners",
		`{"username":"maria","nativeLanguage":"Russian","targetLanguage":"Turkish","currentLevel":"A1","learningGoal":"travel"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var learner LearnerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &learner))
	require.NotEmpty(t, learner.UID)
	return &learner
}

func TestHealthz(t *testing.T) {
	e, _ := newTestAPI(t)
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestOnboardingRegistersTriggers(t *testing.T) {
	e, _ := newTestAPI(t)
	learner := onboardLearner(t, e)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/learners/"+learner.UID+"/triggers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Triggers []*TriggerResponse `json:"triggers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Triggers, 4)
}

func TestOnboardingValidation(t *testing.T) {
	e, _ := newTestAPI(t)
	rec := doJSON(t, e, http.MethodPost, "/api/v1/learners", `{"username":"maria"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLearnerNotFound(t *testing.T) {
	e, _ := newTestAPI(t)
	rec := doJSON(t, e, http.MethodGet, "/api/v1/learners/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateLearner(t *testing.T) {
	e, _ := newTestAPI(t)
	learner := onboardLearner(t, e)

	rec := doJSON(t, e, http.MethodPatch, "/api/v1/learners/"+learner.UID, `{"currentLevel":"A2"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated LearnerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "A2", updated.CurrentLevel)
	assert.Equal(t, "maria", updated.Username)
}

func TestDeleteLearnerCancelsTriggers(t *testing.T) {
	e, service := newTestAPI(t)
	learner := onboardLearner(t, e)

	rec := doJSON(t, e, http.MethodDelete, "/api/v1/learners/"+learner.UID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := service.Store.GetLearner(context.Background(), &store.FindLearner{UID: &learner.UID})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, store.Archived, stored.RowStatus)
	assert.Empty(t, service.Scheduler.Triggers(stored.ID))
}

func TestChatTurn(t *testing.T) {
	e, _ := newTestAPI(t)
	learner := onboardLearner(t, e)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/learners/"+learner.UID+"/messages", `{"content":"merhaba"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		State string           `json:"state"`
		Reply *MessageResponse `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(chat.StateGenerated), resp.State)
	require.NotNil(t, resp.Reply)
	assert.Equal(t, "Merhaba! Hazır mısın?", resp.Reply.Content)

	// History holds the learner turn and the reply, newest first.
	rec = doJSON(t, e, http.MethodGet, "/api/v1/learners/"+learner.UID+"/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Messages []*MessageResponse `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Messages, 2)
	assert.Equal(t, string(store.MessageRoleAssistant), history.Messages[0].Role)
	assert.Equal(t, string(store.MessageRoleUser), history.Messages[1].Role)
}

func TestChatTurnEmptyInput(t *testing.T) {
	e, _ := newTestAPI(t)
	learner := onboardLearner(t, e)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/learners/"+learner.UID+"/messages", `{"content":"   "}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGetProgressEmpty(t *testing.T) {
	e, _ := newTestAPI(t)
	learner := onboardLearner(t, e)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/learners/"+learner.UID+"/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sessionsCompleted":0`)
}

func TestListScenarios(t *testing.T) {
	e, _ := newTestAPI(t)
	rec := doJSON(t, e, http.MethodGet, "/api/v1/scenarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "grammar")
}

func TestListMessagesInvalidLimit(t *testing.T) {
	e, _ := newTestAPI(t)
	learner := onboardLearner(t, e)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/learners/"+learner.UID+"/messages?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
