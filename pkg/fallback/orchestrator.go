package fallback

import (
	"context"
	"log"
	"sync"
	"time"

	"ai-airquality-be/pkg/aqsource"
	"ai-airquality-be/pkg/breaker"
	"ai-airquality-be/pkg/classify"
)

// ReasonCircuitOpen marks an adapter that was skipped without being
// invoked because its breaker was open. Kept distinguishable from live
// adapter errors for debugging and tests.
const ReasonCircuitOpen = "circuit-open"

// Success is one successful adapter attempt.
type Success struct {
	Location string            `json:"location"`
	Adapter  string            `json:"adapter"`
	Payload  *aqsource.Payload `json:"payload"`
}

// Failure is one failed or skipped adapter attempt.
type Failure struct {
	Location string `json:"location"`
	Adapter  string `json:"adapter"`
	Reason   string `json:"reason"`
}

// Result aggregates every attempt of one orchestration. Entries appear in
// attempt order; Successes and Failures partition the attempted set.
// Partial failure is a valid outcome, not an error.
type Result struct {
	Successes []Success `json:"successes"`
	Failures  []Failure `json:"failures"`
}

// HasSuccess reports whether at least one adapter succeeded.
func (r *Result) HasSuccess() bool {
	return len(r.Successes) > 0
}

// AllSourcesFailedError is the only hard error an orchestration surfaces:
// zero successes across every location. It carries all collected failure
// reasons plus an actionable suggestion.
type AllSourcesFailedError struct {
	Failures   []Failure `json:"failures"`
	Suggestion string    `json:"suggestion"`
}

func (e *AllSourcesFailedError) Error() string {
	return "all data sources failed; " + e.Suggestion
}

// Config encapsulates orchestration parameters.
type Config struct {
	AdapterTimeout time.Duration
}

// DefaultConfig returns the default orchestration configuration.
func DefaultConfig() Config {
	return Config{AdapterTimeout: 10 * time.Second}
}

// Orchestrator executes a classification against registered providers,
// consulting the breaker registry before every attempt.
type Orchestrator struct {
	registry  *breaker.Registry
	providers map[string]aqsource.Provider
	cfg       Config
	logger    *log.Logger
}

// NewOrchestrator creates an orchestrator over a fixed provider set. The
// provider map is built once at startup and never mutated afterwards.
func NewOrchestrator(
	registry *breaker.Registry,
	providers []aqsource.Provider,
	cfg Config,
	logger *log.Logger,
) *Orchestrator {
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = DefaultConfig().AdapterTimeout
	}
	byID := make(map[string]aqsource.Provider, len(providers))
	for _, p := range providers {
		byID[p.ID()] = p
	}
	return &Orchestrator{
		registry:  registry,
		providers: byID,
		cfg:       cfg,
		logger:    logger,
	}
}

// locationOutcome holds one location's attempts so parallel fan-out can
// merge them back in location order.
type locationOutcome struct {
	successes []Success
	failures  []Failure
}

// Execute runs the fallback chain for every location in the
// classification. Adapters for one location are tried strictly in
// priority order; independent locations fan out in parallel.
func (o *Orchestrator) Execute(ctx context.Context, c classify.Classification) (*Result, error) {
	var targets []classify.Location
	for _, loc := range c.Locations {
		if len(loc.Adapters) > 0 {
			targets = append(targets, loc)
		}
	}
	if len(targets) == 0 {
		return nil, &AllSourcesFailedError{
			Suggestion: "no data sources are routable for this query; try naming a city or supplying coordinates",
		}
	}

	// RealTimeData merges every available source; other intents stop a
	// location's chain at the first success.
	aggregate := c.Intent == classify.IntentRealTimeData

	outcomes := make([]locationOutcome, len(targets))
	var wg sync.WaitGroup
	for i, loc := range targets {
		wg.Add(1)
		go func(i int, loc classify.Location) {
			defer wg.Done()
			outcomes[i] = o.executeLocation(ctx, loc, aggregate)
		}(i, loc)
	}
	wg.Wait()

	result := &Result{}
	for _, out := range outcomes {
		result.Successes = append(result.Successes, out.successes...)
		result.Failures = append(result.Failures, out.failures...)
	}

	if !result.HasSuccess() {
		return nil, &AllSourcesFailedError{
			Failures:   result.Failures,
			Suggestion: "all sources are unavailable right now; try again shortly or supply coordinates instead of a city name",
		}
	}
	return result, nil
}

func (o *Orchestrator) executeLocation(ctx context.Context, loc classify.Location, aggregate bool) locationOutcome {
	var out locationOutcome
	locKey := loc.Key()

	for _, adapterID := range loc.Adapters {
		if !o.registry.Allow(adapterID) {
			o.logger.Printf("[FALLBACK] %s/%s skipped: breaker open", locKey, adapterID)
			out.failures = append(out.failures, Failure{
				Location: locKey,
				Adapter:  adapterID,
				Reason:   ReasonCircuitOpen,
			})
			continue
		}

		provider, ok := o.providers[adapterID]
		if !ok {
			// Routing table names an adapter nobody registered. Not a
			// source failure, so the breaker is left untouched.
			out.failures = append(out.failures, Failure{
				Location: locKey,
				Adapter:  adapterID,
				Reason:   "adapter not registered",
			})
			continue
		}

		payload, err := o.fetchWithTimeout(ctx, provider, loc)
		if err != nil {
			o.registry.RecordFailure(adapterID)
			o.logger.Printf("[FALLBACK] %s/%s failed: %v", locKey, adapterID, err)
			out.failures = append(out.failures, Failure{
				Location: locKey,
				Adapter:  adapterID,
				Reason:   err.Error(),
			})
			continue
		}

		o.registry.RecordSuccess(adapterID)
		out.successes = append(out.successes, Success{
			Location: locKey,
			Adapter:  adapterID,
			Payload:  payload,
		})
		if !aggregate {
			break
		}
	}

	return out
}

func (o *Orchestrator) fetchWithTimeout(ctx context.Context, p aqsource.Provider, loc classify.Location) (*aqsource.Payload, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.AdapterTimeout)
	defer cancel()
	return p.Fetch(attemptCtx, loc)
}
