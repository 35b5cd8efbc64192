package dto

import (
	"time"

	"ai-airquality-be/pkg/classify"
	"ai-airquality-be/pkg/fallback"
)

type QueryRequest struct {
	SessionId string           `json:"session_id,omitempty"`
	Query     string           `json:"query" validate:"required"`
	Coords    *classify.LatLon `json:"coords,omitempty"`
}

type QueryResponse struct {
	SessionId string           `json:"session_id"`
	Intent    classify.Intent  `json:"intent"`
	CacheHit  bool             `json:"cache_hit"`
	Result    *fallback.Result `json:"result,omitempty"`
	Answer    string           `json:"answer,omitempty"` // set for intents answered without data sources
}

type CreateSessionResponse struct {
	Id string `json:"id"`
}

type DeleteSessionRequest struct {
	SessionId string `json:"session_id" validate:"required"`
}

type AttachDocumentRequest struct {
	Name    string `json:"name" validate:"required"`
	Summary string `json:"summary" validate:"required"`
}

type AttachDocumentResponse struct {
	Id        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MessageDTO struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type DocumentDTO struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Summary   string    `json:"summary"`
	ExpiresAt time.Time `json:"expires_at"`
}

type GetHistoryResponse struct {
	SessionId string        `json:"session_id"`
	Messages  []MessageDTO  `json:"messages"`
	Documents []DocumentDTO `json:"documents"`
}

// PublishQueryCompletedMessage is the payload carried on the in-process
// event bus for every answered query.
type PublishQueryCompletedMessage struct {
	Intent       string `json:"intent"`
	CacheHit     bool   `json:"cache_hit"`
	SuccessCount int    `json:"success_count"`
	FailureCount int    `json:"failure_count"`
}

type UsageResponse struct {
	TotalQueries int64            `json:"total_queries"`
	CacheHits    int64            `json:"cache_hits"`
	ByIntent     map[string]int64 `json:"by_intent"`
}
