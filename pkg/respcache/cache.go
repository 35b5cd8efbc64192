package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"ai-airquality-be/pkg/classify"
	"ai-airquality-be/pkg/fallback"
)

// Store is the differential response cache consulted before any
// orchestration runs. Implementations never mutate stored results.
type Store interface {
	Get(ctx context.Context, key string) (*fallback.Result, bool)
	Put(ctx context.Context, key string, intent classify.Intent, result *fallback.Result)
}

// Policy maps intents onto TTLs. Freshness-sensitive intents get short
// TTLs or no caching at all; educational answers barely change and are
// kept for hours.
type Policy struct {
	Educational    time.Duration
	Search         time.Duration
	RealTime       time.Duration
	Forecast       time.Duration
	BypassRealTime bool // never cache RealTimeData/Forecast results
	MaxEntries     int  // backstop cap, oldest entry evicted first
}

// DefaultPolicy returns the default TTL table.
func DefaultPolicy() Policy {
	return Policy{
		Educational:    6 * time.Hour,
		Search:         1 * time.Hour,
		RealTime:       2 * time.Minute,
		Forecast:       15 * time.Minute,
		BypassRealTime: false,
		MaxEntries:     1000,
	}
}

// TTLFor returns the TTL for an intent and whether caching applies at all.
func (p Policy) TTLFor(intent classify.Intent) (time.Duration, bool) {
	switch intent {
	case classify.IntentEducational:
		return p.Educational, true
	case classify.IntentSearch:
		return p.Search, true
	case classify.IntentRealTimeData, classify.IntentComparison, classify.IntentVisualization:
		if p.BypassRealTime {
			return 0, false
		}
		return p.RealTime, true
	case classify.IntentForecast:
		if p.BypassRealTime {
			return 0, false
		}
		return p.Forecast, true
	}
	return p.Educational, true
}

// Key derives the deterministic cache key for a query: normalized text,
// intent and the ordered location keys, hashed so key length stays fixed.
func Key(text string, c classify.Classification) string {
	var sb strings.Builder
	sb.WriteString(classify.Normalize(text))
	sb.WriteString("|")
	sb.WriteString(string(c.Intent))
	for _, loc := range c.Locations {
		sb.WriteString("|")
		sb.WriteString(loc.Key())
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
