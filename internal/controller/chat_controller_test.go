package controller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ai-airquality-be/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChatService struct {
	orchestrated int
	attached     int
	deleted      int
}

func (s *stubChatService) Orchestrate(_ context.Context, _ *dto.QueryRequest) (*dto.QueryResponse, error) {
	s.orchestrated++
	return &dto.QueryResponse{SessionId: "s1"}, nil
}

func (s *stubChatService) CreateSession(_ context.Context) (*dto.CreateSessionResponse, error) {
	return &dto.CreateSessionResponse{Id: "s1"}, nil
}

func (s *stubChatService) GetHistory(_ context.Context, sessionId string, _ int) (*dto.GetHistoryResponse, error) {
	return &dto.GetHistoryResponse{SessionId: sessionId}, nil
}

func (s *stubChatService) AttachDocument(_ context.Context, _ string, _ *dto.AttachDocumentRequest) (*dto.AttachDocumentResponse, error) {
	s.attached++
	return &dto.AttachDocumentResponse{Id: "d1"}, nil
}

func (s *stubChatService) DeleteSession(_ context.Context, _ string) error {
	s.deleted++
	return nil
}

func (s *stubChatService) GetUsage(_ context.Context) (*dto.UsageResponse, error) {
	return &dto.UsageResponse{}, nil
}

func newTestApp(svc *stubChatService) *fiber.App {
	app := fiber.New()
	api := app.Group("/api")
	NewChatController(svc).RegisterRoutes(api)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestQueryRejectsMissingQueryField(t *testing.T) {
	svc := &stubChatService{}
	app := newTestApp(svc)

	resp := doJSON(t, app, http.MethodPost, "/api/chat/query", `{"session_id":"s1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, svc.orchestrated, "service must not run for an invalid request")

	resp = doJSON(t, app, http.MethodPost, "/api/chat/query", `{"query":"air quality in jakarta"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, svc.orchestrated)
}

func TestAttachDocumentRejectsMissingFields(t *testing.T) {
	svc := &stubChatService{}
	app := newTestApp(svc)

	resp := doJSON(t, app, http.MethodPost, "/api/chat/session/s1/document", `{"name":"report.pdf"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/chat/session/s1/document", `{"summary":"annual report"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, svc.attached)

	resp = doJSON(t, app, http.MethodPost, "/api/chat/session/s1/document", `{"name":"report.pdf","summary":"annual report"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, svc.attached)
}

func TestDeleteSessionRejectsMissingID(t *testing.T) {
	svc := &stubChatService{}
	app := newTestApp(svc)

	resp := doJSON(t, app, http.MethodDelete, "/api/chat/session", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, svc.deleted)

	resp = doJSON(t, app, http.MethodDelete, "/api/chat/session", `{"session_id":"s1"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, svc.deleted)
}
