package classify

import (
	"strings"
)

// Intent represents the classified purpose of a user query
type Intent string

// Intent constants
const (
	IntentEducational   Intent = "EDUCATIONAL"
	IntentRealTimeData  Intent = "REALTIME_DATA"
	IntentForecast      Intent = "FORECAST"
	IntentComparison    Intent = "COMPARISON"
	IntentSearch        Intent = "SEARCH"
	IntentVisualization Intent = "VISUALIZATION"
)

// Region classes used by the routing table
const (
	RegionRegional = "REGIONAL"
	RegionGlobal   = "GLOBAL"
	RegionCoords   = "COORDS"
)

// LatLon is a coordinate pair supplied by the client
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinates are within WGS84 bounds
func (c LatLon) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Location describes one resolved query target. City and Coords are
// independent descriptors; both may be set when the user supplied both.
type Location struct {
	City        string   `json:"city,omitempty"`
	Country     string   `json:"country,omitempty"`
	Coords      *LatLon  `json:"coords,omitempty"`
	RegionClass string   `json:"region_class"`
	Adapters    []string `json:"adapters"`
}

// Key returns a stable identifier for this location, used in cache keys
// and fallback result maps.
func (l Location) Key() string {
	if l.City != "" {
		return strings.ToLower(l.City)
	}
	if l.Coords != nil {
		return coordKey(*l.Coords)
	}
	return "unknown"
}

// Classification is the routing decision for a query. It is a pure
// function of the input: identical input yields an identical value.
type Classification struct {
	Intent    Intent     `json:"intent"`
	Locations []Location `json:"locations"`
}

// RequiresData reports whether this classification needs external sources.
// Educational and Search queries are answered without adapter calls.
func (c Classification) RequiresData() bool {
	if len(c.Locations) == 0 {
		return false
	}
	for _, loc := range c.Locations {
		if len(loc.Adapters) > 0 {
			return true
		}
	}
	return false
}

// Classify maps raw user text plus optional coordinates onto an intent,
// location descriptors and a per-location adapter priority list.
// It never fails: when no data need is detected the result is Educational
// with no adapters, so no external call happens downstream.
func Classify(text string, coords *LatLon) Classification {
	normalized := Normalize(text)
	if normalized == "" {
		return Classification{Intent: IntentEducational}
	}

	cities := matchCities(normalized)

	var locations []Location
	for _, c := range cities {
		locations = append(locations, Location{
			City:        c.Name,
			Country:     c.Country,
			Coords:      &LatLon{Lat: c.Lat, Lon: c.Lon},
			RegionClass: c.RegionClass,
		})
	}

	// Supplied coordinates are kept as an independent descriptor even when
	// a city was recognized, so the caller may compare both readings.
	if coords != nil && coords.Valid() {
		locations = append(locations, Location{
			Coords:      &LatLon{Lat: coords.Lat, Lon: coords.Lon},
			RegionClass: RegionCoords,
		})
	}

	intent := detectIntent(normalized, locations)

	// Assign adapter priority per location from the static routing table.
	// Non-data intents keep empty adapter lists.
	if intentRequiresData(intent) {
		for i := range locations {
			locations[i].Adapters = routeAdapters(locations[i].RegionClass, intent)
		}
	}

	return Classification{
		Intent:    intent,
		Locations: locations,
	}
}

// Normalize lowercases, trims and collapses whitespace. The same
// normalization feeds the cache key so near-identical queries collide.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func intentRequiresData(intent Intent) bool {
	switch intent {
	case IntentRealTimeData, IntentForecast, IntentComparison, IntentVisualization:
		return true
	}
	return false
}

var educationalCues = []string{
	"what is", "what are", "why does", "why is", "how does", "how do",
	"explain", "meaning of", "define", "difference between",
}

var forecastCues = []string{
	"forecast", "tomorrow", "next week", "this weekend", "will the air",
	"expected", "prediction",
}

var realtimeCues = []string{
	"now", "right now", "current", "currently", "today", "at the moment",
	"air quality in", "aqi in", "aqi for", "pollution in", "how is the air",
}

var comparisonCues = []string{
	"compare", "versus", " vs ", " vs. ", "better than", "worse than", "or in",
}

var searchCues = []string{
	"which cities", "which city", "where is", "find cities", "list cities",
	"most polluted", "cleanest",
}

var visualizationCues = []string{
	"chart", "graph", "plot", "visualize", "visualise", "draw", "trend of",
}

// detectIntent applies lexical rules in precedence order. Multi-location
// mentions win over everything so that "Jakarta vs London" is a comparison
// even when phrased with real-time wording.
func detectIntent(normalized string, locations []Location) Intent {
	cityCount := 0
	for _, loc := range locations {
		if loc.City != "" {
			cityCount++
		}
	}

	if cityCount >= 2 {
		return IntentComparison
	}
	if len(locations) >= 2 && containsAny(normalized, comparisonCues) {
		// e.g. a city mention compared against the caller's own coordinates
		return IntentComparison
	}

	if containsAny(normalized, visualizationCues) && len(locations) > 0 {
		return IntentVisualization
	}

	if len(locations) > 0 {
		// Forecast wording beats real-time wording so that "what will the
		// air quality in Paris be tomorrow" is routed to the forecast chain.
		if containsAny(normalized, forecastCues) {
			return IntentForecast
		}
		if containsAny(normalized, realtimeCues) {
			return IntentRealTimeData
		}
		// A recognized location with no other cue is still a live
		// data request.
		return IntentRealTimeData
	}

	if containsAny(normalized, educationalCues) {
		return IntentEducational
	}

	if containsAny(normalized, searchCues) {
		return IntentSearch
	}

	return IntentEducational
}

func containsAny(s string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(s, cue) {
			return true
		}
	}
	return false
}
