package service

import (
	"context"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"ai-airquality-be/internal/dto"
	"ai-airquality-be/pkg/aqsource"
	"ai-airquality-be/pkg/breaker"
	"ai-airquality-be/pkg/classify"
	"ai-airquality-be/pkg/fallback"
	"ai-airquality-be/pkg/respcache"
	"ai-airquality-be/pkg/session"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type stubProvider struct {
	id    string
	fail  bool
	calls atomic.Int64
}

func (p *stubProvider) ID() string { return p.id }

func (p *stubProvider) Fetch(_ context.Context, loc classify.Location) (*aqsource.Payload, error) {
	p.calls.Add(1)
	if p.fail {
		return nil, &aqsource.AdapterError{Adapter: p.id, Kind: aqsource.KindUnreachable, Message: "connection refused"}
	}
	return &aqsource.Payload{
		Adapter:    p.id,
		Location:   loc.Key(),
		AQI:        57,
		Category:   "Moderate",
		ObservedAt: time.Now(),
	}, nil
}

func newTestChatService(t *testing.T, providers ...aqsource.Provider) IChatService {
	t.Helper()
	registry := breaker.NewRegistry(breaker.DefaultConfig())
	orch := fallback.NewOrchestrator(registry, providers, fallback.DefaultConfig(), log.New(io.Discard, "", 0))
	cache := respcache.NewMemoryStore(respcache.DefaultPolicy())
	sessions := session.NewManager(session.DefaultConfig(), log.New(io.Discard, "", 0))
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	pub := NewPublisherService("chat.query.completed", pubSub)
	cons := NewConsumerService(pubSub, "chat.query.completed", nil)
	return NewChatService(orch, cache, sessions, pub, cons, nopLogger{})
}

func allProviders(fail bool) []aqsource.Provider {
	return []aqsource.Provider{
		&stubProvider{id: classify.AdapterAirNow, fail: fail},
		&stubProvider{id: classify.AdapterOpenAQ, fail: fail},
		&stubProvider{id: classify.AdapterOpenMeteo, fail: fail},
	}
}

func TestOrchestrateRejectsEmptyQuery(t *testing.T) {
	svc := newTestChatService(t, allProviders(false)...)

	_, err := svc.Orchestrate(context.Background(), &dto.QueryRequest{Query: "   "})
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusBadRequest, fe.Code)
}

func TestOrchestrateEducationalSkipsDataSources(t *testing.T) {
	providers := allProviders(false)
	svc := newTestChatService(t, providers...)

	resp, err := svc.Orchestrate(context.Background(), &dto.QueryRequest{Query: "What is PM2.5?"})
	require.NoError(t, err)
	assert.Equal(t, classify.IntentEducational, resp.Intent)
	assert.Nil(t, resp.Result)
	assert.NotEmpty(t, resp.Answer)
	assert.NotEmpty(t, resp.SessionId)

	for _, p := range providers {
		assert.Zero(t, p.(*stubProvider).calls.Load(), "no adapter should be invoked for an educational query")
	}
}

func TestOrchestrateRealTimeFetchesAndCaches(t *testing.T) {
	providers := allProviders(false)
	svc := newTestChatService(t, providers...)

	query := "Air quality in Los Angeles right now"
	first, err := svc.Orchestrate(context.Background(), &dto.QueryRequest{Query: query})
	require.NoError(t, err)
	assert.Equal(t, classify.IntentRealTimeData, first.Intent)
	assert.False(t, first.CacheHit)
	require.NotNil(t, first.Result)
	require.True(t, first.Result.HasSuccess())
	// Real-time queries aggregate every healthy adapter
	assert.Len(t, first.Result.Successes, 3)

	airnow := providers[0].(*stubProvider)
	callsAfterFirst := airnow.calls.Load()

	second, err := svc.Orchestrate(context.Background(), &dto.QueryRequest{
		SessionId: first.SessionId,
		Query:     query,
	})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, callsAfterFirst, airnow.calls.Load(), "cache hit must not invoke adapters")
}

func TestOrchestrateAllSourcesFailed(t *testing.T) {
	svc := newTestChatService(t, allProviders(true)...)

	_, err := svc.Orchestrate(context.Background(), &dto.QueryRequest{Query: "Air quality in Los Angeles right now"})
	var allFailed *fallback.AllSourcesFailedError
	require.ErrorAs(t, err, &allFailed)
	assert.Len(t, allFailed.Failures, 3)
	assert.NotEmpty(t, allFailed.Suggestion)
}

func TestOrchestrateAppendsHistory(t *testing.T) {
	svc := newTestChatService(t, allProviders(false)...)

	resp, err := svc.Orchestrate(context.Background(), &dto.QueryRequest{Query: "Air quality in Paris today"})
	require.NoError(t, err)

	history, err := svc.GetHistory(context.Background(), resp.SessionId, 0)
	require.NoError(t, err)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, session.RoleUser, history.Messages[0].Role)
	assert.Equal(t, session.RoleModel, history.Messages[1].Role)
	assert.Contains(t, history.Messages[1].Content, "AQI 57")
}

func TestSessionLifecycle(t *testing.T) {
	svc := newTestChatService(t, allProviders(false)...)

	created, err := svc.CreateSession(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, created.Id)

	attach, err := svc.AttachDocument(context.Background(), created.Id, &dto.AttachDocumentRequest{
		Name:    "report.pdf",
		Summary: "Annual air quality report for 2024.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, attach.Id)
	assert.False(t, attach.ExpiresAt.IsZero())

	history, err := svc.GetHistory(context.Background(), created.Id, 0)
	require.NoError(t, err)
	require.Len(t, history.Documents, 1)
	assert.Equal(t, "report.pdf", history.Documents[0].Name)

	require.NoError(t, svc.DeleteSession(context.Background(), created.Id))
	_, err = svc.GetHistory(context.Background(), created.Id, 0)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestGetUsageCountsConsumedEvents(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	cons := NewConsumerService(pubSub, "chat.query.completed", nil)
	require.NoError(t, cons.Consume(context.Background()))

	registry := breaker.NewRegistry(breaker.DefaultConfig())
	orch := fallback.NewOrchestrator(registry, allProviders(false), fallback.DefaultConfig(), log.New(io.Discard, "", 0))
	svc := NewChatService(
		orch,
		respcache.NewMemoryStore(respcache.DefaultPolicy()),
		session.NewManager(session.DefaultConfig(), log.New(io.Discard, "", 0)),
		NewPublisherService("chat.query.completed", pubSub),
		cons,
		nopLogger{},
	)

	_, err := svc.Orchestrate(context.Background(), &dto.QueryRequest{Query: "What is PM2.5?"})
	require.NoError(t, err)

	// Delivery through the in-process channel is asynchronous
	deadline := time.Now().Add(2 * time.Second)
	for {
		usage, err := svc.GetUsage(context.Background())
		require.NoError(t, err)
		if usage.TotalQueries == 1 {
			assert.Equal(t, int64(1), usage.ByIntent[string(classify.IntentEducational)])
			assert.Zero(t, usage.CacheHits)
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("usage counter never reached 1, got %d", usage.TotalQueries)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
