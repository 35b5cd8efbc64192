package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-airquality-be/internal/constant"
	"ai-airquality-be/internal/dto"
	"ai-airquality-be/internal/pkg/logger"
	"ai-airquality-be/pkg/classify"
	"ai-airquality-be/pkg/fallback"
	"ai-airquality-be/pkg/respcache"
	"ai-airquality-be/pkg/session"

	"github.com/gofiber/fiber/v2"
)

// IChatService is the query orchestration engine behind the chat API.
type IChatService interface {
	Orchestrate(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error)
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	GetHistory(ctx context.Context, sessionId string, maxMessages int) (*dto.GetHistoryResponse, error)
	AttachDocument(ctx context.Context, sessionId string, req *dto.AttachDocumentRequest) (*dto.AttachDocumentResponse, error)
	DeleteSession(ctx context.Context, sessionId string) error
	GetUsage(ctx context.Context) (*dto.UsageResponse, error)
}

type chatService struct {
	orchestrator     *fallback.Orchestrator
	cache            respcache.Store
	sessions         *session.Manager
	publisherService IPublisherService
	consumerService  IConsumerService
	sysLogger        logger.ILogger
}

func NewChatService(
	orchestrator *fallback.Orchestrator,
	cache respcache.Store,
	sessions *session.Manager,
	publisherService IPublisherService,
	consumerService IConsumerService,
	sysLogger logger.ILogger,
) IChatService {
	return &chatService{
		orchestrator:     orchestrator,
		cache:            cache,
		sessions:         sessions,
		publisherService: publisherService,
		consumerService:  consumerService,
		sysLogger:        sysLogger,
	}
}

// Orchestrate runs the full query pipeline: classify, consult the cache,
// fall back across data sources on a miss, record the turn in the
// session. Idempotent with respect to the cache, never with respect to
// session history.
func (cs *chatService) Orchestrate(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "query must not be empty")
	}
	if req.Coords != nil && !req.Coords.Valid() {
		return nil, fiber.NewError(fiber.StatusBadRequest, "coordinates out of range")
	}

	classification := classify.Classify(query, req.Coords)

	sessionId, err := cs.sessions.Append(req.SessionId, session.Message{
		Role:    session.RoleUser,
		Content: query,
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.QueryResponse{
		SessionId: sessionId,
		Intent:    classification.Intent,
	}

	if !classification.RequiresData() {
		// No external call happens for these intents; the prompt-assembly
		// layer upstream produces the real answer.
		resp.Answer = answerWithoutData(classification.Intent)
		cs.appendModelTurn(sessionId, resp.Answer)
		cs.publishUsage(ctx, classification.Intent, false, 0, 0)
		return resp, nil
	}

	key := respcache.Key(query, classification)
	if cached, hit := cs.cache.Get(ctx, key); hit {
		cs.sysLogger.Debug("chat", "cache hit", map[string]interface{}{"intent": classification.Intent})
		resp.CacheHit = true
		resp.Result = cached
		cs.appendModelTurn(sessionId, summarizeResult(cached))
		cs.publishUsage(ctx, classification.Intent, true, len(cached.Successes), len(cached.Failures))
		return resp, nil
	}

	result, err := cs.orchestrator.Execute(ctx, classification)
	if err != nil {
		cs.sysLogger.Warn("chat", "orchestration failed", map[string]interface{}{
			"intent": classification.Intent,
			"error":  err.Error(),
		})
		cs.publishUsage(ctx, classification.Intent, false, 0, len(classification.Locations))
		return nil, err
	}

	cs.cache.Put(ctx, key, classification.Intent, result)
	resp.Result = result
	cs.appendModelTurn(sessionId, summarizeResult(result))
	cs.publishUsage(ctx, classification.Intent, false, len(result.Successes), len(result.Failures))
	return resp, nil
}

func (cs *chatService) CreateSession(_ context.Context) (*dto.CreateSessionResponse, error) {
	id, err := cs.sessions.Append("", session.Message{
		Role:    session.RoleModel,
		Content: "Hi, ask me about air quality anywhere.",
	})
	if err != nil {
		return nil, err
	}
	return &dto.CreateSessionResponse{Id: id}, nil
}

func (cs *chatService) GetHistory(_ context.Context, sessionId string, maxMessages int) (*dto.GetHistoryResponse, error) {
	snapshot, err := cs.sessions.GetContext(sessionId, maxMessages)
	if err != nil {
		return nil, err
	}

	resp := &dto.GetHistoryResponse{
		SessionId: snapshot.SessionID,
		Messages:  make([]dto.MessageDTO, 0, len(snapshot.Messages)),
		Documents: make([]dto.DocumentDTO, 0, len(snapshot.Documents)),
	}
	for _, m := range snapshot.Messages {
		resp.Messages = append(resp.Messages, dto.MessageDTO{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	for _, d := range snapshot.Documents {
		resp.Documents = append(resp.Documents, dto.DocumentDTO{
			Id:        d.ID,
			Name:      d.Name,
			Summary:   d.Summary,
			ExpiresAt: d.ExpiresAt,
		})
	}
	return resp, nil
}

func (cs *chatService) AttachDocument(_ context.Context, sessionId string, req *dto.AttachDocumentRequest) (*dto.AttachDocumentResponse, error) {
	stored, err := cs.sessions.AttachDocument(sessionId, session.Document{
		Name:    req.Name,
		Summary: req.Summary,
	})
	if err != nil {
		return nil, err
	}
	return &dto.AttachDocumentResponse{Id: stored.ID, ExpiresAt: stored.ExpiresAt}, nil
}

func (cs *chatService) DeleteSession(_ context.Context, sessionId string) error {
	return cs.sessions.Delete(sessionId)
}

func (cs *chatService) GetUsage(_ context.Context) (*dto.UsageResponse, error) {
	return cs.consumerService.Snapshot(), nil
}

func (cs *chatService) appendModelTurn(sessionId, content string) {
	if _, err := cs.sessions.Append(sessionId, session.Message{
		Role:    session.RoleModel,
		Content: content,
	}); err != nil {
		cs.sysLogger.Warn("chat", "failed to append model turn", map[string]interface{}{"error": err.Error()})
	}
}

func (cs *chatService) publishUsage(ctx context.Context, intent classify.Intent, cacheHit bool, successes, failures int) {
	payload, err := json.Marshal(dto.PublishQueryCompletedMessage{
		Intent:       string(intent),
		CacheHit:     cacheHit,
		SuccessCount: successes,
		FailureCount: failures,
	})
	if err != nil {
		return
	}
	if err := cs.publisherService.Publish(ctx, payload); err != nil {
		cs.sysLogger.Warn("chat", "failed to publish usage event", map[string]interface{}{"error": err.Error()})
	}
}

func answerWithoutData(intent classify.Intent) string {
	if intent == classify.IntentSearch {
		return constant.AnswerSearch
	}
	return constant.AnswerEducational
}

// summarizeResult renders a short per-source line for the session log,
// e.g. "los angeles/airnow: AQI 57 (Moderate)".
func summarizeResult(r *fallback.Result) string {
	if r == nil || len(r.Successes) == 0 {
		return "No readings available."
	}
	parts := make([]string, 0, len(r.Successes))
	for _, s := range r.Successes {
		parts = append(parts, fmt.Sprintf("%s/%s: AQI %d (%s)",
			s.Location, s.Adapter, s.Payload.AQI, s.Payload.Category))
	}
	return strings.Join(parts, "; ")
}
