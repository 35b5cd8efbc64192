package aqsource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ai-airquality-be/pkg/classify"
)

// Error kinds distinguished by the orchestration layer
const (
	KindTimeout     = "TIMEOUT"
	KindUnreachable = "UNREACHABLE"
	KindNotFound    = "NOT_FOUND"
	KindRateLimited = "RATE_LIMITED"
)

// AdapterError is a typed failure from a data source provider.
type AdapterError struct {
	Adapter string
	Kind    string
	Message string
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Adapter, e.Message, e.Kind)
}

// Payload is the uniform observation result returned by every provider.
type Payload struct {
	Adapter      string             `json:"adapter"`
	Location     string             `json:"location"`
	AQI          int                `json:"aqi,omitempty"`
	Category     string             `json:"category,omitempty"`
	Measurements map[string]float64 `json:"measurements,omitempty"`
	ObservedAt   time.Time          `json:"observed_at"`
}

// Provider is the uniform contract over one external data source.
// Implementations classify their transport failures into AdapterError
// kinds; the caller bounds the call via the context deadline.
type Provider interface {
	ID() string
	Fetch(ctx context.Context, loc classify.Location) (*Payload, error)
}

// httpClient is shared by all providers. No client-level timeout: the
// per-attempt deadline comes from the caller's context.
var httpClient = &http.Client{}

// classifyTransportError maps a transport-level error onto an AdapterError.
func classifyTransportError(adapter string, err error) *AdapterError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &AdapterError{Adapter: adapter, Kind: KindTimeout, Message: "request timed out"}
	}
	return &AdapterError{Adapter: adapter, Kind: KindUnreachable, Message: err.Error()}
}

// classifyStatus maps a non-2xx HTTP status onto an AdapterError.
func classifyStatus(adapter string, status int) *AdapterError {
	switch {
	case status == http.StatusTooManyRequests:
		return &AdapterError{Adapter: adapter, Kind: KindRateLimited, Message: "rate limit exceeded"}
	case status == http.StatusNotFound:
		return &AdapterError{Adapter: adapter, Kind: KindNotFound, Message: "no data for location"}
	default:
		return &AdapterError{Adapter: adapter, Kind: KindUnreachable, Message: fmt.Sprintf("unexpected status %d", status)}
	}
}

// targetCoords picks the coordinates to query for a location descriptor.
func targetCoords(loc classify.Location) (*classify.LatLon, error) {
	if loc.Coords != nil {
		return loc.Coords, nil
	}
	return nil, fmt.Errorf("location %q has no coordinates", loc.Key())
}
