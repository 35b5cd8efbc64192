package service

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"ai-airquality-be/internal/dto"
	"ai-airquality-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
	Snapshot() *dto.UsageResponse
}

// IEventSink forwards events to an external bus. Nil sink means counters
// stay process-local.
type IEventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

// consumerService subscribes to query-completed events and keeps running
// usage counters. Counters are process-local and reset on restart.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	sink      IEventSink

	mu           sync.Mutex
	totalQueries int64
	cacheHits    int64
	byIntent     map[string]int64
}

func NewConsumerService(pubSub *gochannel.GoChannel, topicName string, sink IEventSink) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		sink:      sink,
		byIntent:  make(map[string]int64),
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload dto.PublishQueryCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal usage message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.mu.Lock()
	cs.totalQueries++
	if payload.CacheHit {
		cs.cacheHits++
	}
	cs.byIntent[payload.Intent]++
	cs.mu.Unlock()

	if cs.sink != nil {
		event := events.NewQueryCompleted(payload.Intent, payload.CacheHit, payload.SuccessCount, payload.FailureCount)
		if err := cs.sink.Publish(context.Background(), event); err != nil {
			log.Printf("[WARN] Failed to forward usage event: %v", err)
		}
	}

	msg.Ack()
}

func (cs *consumerService) Snapshot() *dto.UsageResponse {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	byIntent := make(map[string]int64, len(cs.byIntent))
	for k, v := range cs.byIntent {
		byIntent[k] = v
	}
	return &dto.UsageResponse{
		TotalQueries: cs.totalQueries,
		CacheHits:    cs.cacheHits,
		ByIntent:     byIntent,
	}
}
