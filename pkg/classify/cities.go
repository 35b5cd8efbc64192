package classify

import (
	"fmt"
	"strings"
)

// Adapter identifiers. Concrete providers register under these names at
// startup; the routing table below only ever refers to identifiers.
const (
	AdapterAirNow    = "airnow"
	AdapterOpenAQ    = "openaq"
	AdapterOpenMeteo = "openmeteo"
)

// CityEntry is one row of the curated city table. The centroid lets
// coordinate-based providers serve city mentions directly.
type CityEntry struct {
	Name        string
	Country     string
	RegionClass string
	Lat         float64
	Lon         float64
}

// cityTable maps lowercase city mentions to their region class. Cities
// covered by the regionally specialized network resolve to REGIONAL and
// get that adapter first; everything else is GLOBAL. Ambiguous names
// resolve to the first match — a documented limitation, not smart
// disambiguation.
var cityTable = []CityEntry{
	// Regional network coverage
	{"los angeles", "US", RegionRegional, 34.05, -118.24},
	{"new york", "US", RegionRegional, 40.71, -74.01},
	{"chicago", "US", RegionRegional, 41.88, -87.63},
	{"houston", "US", RegionRegional, 29.76, -95.37},
	{"phoenix", "US", RegionRegional, 33.45, -112.07},
	{"seattle", "US", RegionRegional, 47.61, -122.33},
	{"denver", "US", RegionRegional, 39.74, -104.99},
	{"san francisco", "US", RegionRegional, 37.77, -122.42},
	{"portland", "US", RegionRegional, 45.52, -122.68},
	{"boston", "US", RegionRegional, 42.36, -71.06},

	// Global network coverage
	{"london", "GB", RegionGlobal, 51.51, -0.13},
	{"paris", "FR", RegionGlobal, 48.86, 2.35},
	{"berlin", "DE", RegionGlobal, 52.52, 13.41},
	{"madrid", "ES", RegionGlobal, 40.42, -3.70},
	{"jakarta", "ID", RegionGlobal, -6.21, 106.85},
	{"singapore", "SG", RegionGlobal, 1.35, 103.82},
	{"bangkok", "TH", RegionGlobal, 13.76, 100.50},
	{"delhi", "IN", RegionGlobal, 28.61, 77.21},
	{"mumbai", "IN", RegionGlobal, 19.08, 72.88},
	{"beijing", "CN", RegionGlobal, 39.90, 116.41},
	{"shanghai", "CN", RegionGlobal, 31.23, 121.47},
	{"tokyo", "JP", RegionGlobal, 35.68, 139.69},
	{"seoul", "KR", RegionGlobal, 37.57, 126.98},
	{"sydney", "AU", RegionGlobal, -33.87, 151.21},
	{"mexico city", "MX", RegionGlobal, 19.43, -99.13},
	{"sao paulo", "BR", RegionGlobal, -23.55, -46.63},
	{"lagos", "NG", RegionGlobal, 6.52, 3.38},
	{"cairo", "EG", RegionGlobal, 30.04, 31.24},
}

// routingTable maps (regionClass, intent) to an adapter priority list.
// Built once; Classify hands out copies so callers cannot mutate it.
var routingTable = map[string]map[Intent][]string{
	RegionRegional: {
		IntentRealTimeData:  {AdapterAirNow, AdapterOpenAQ, AdapterOpenMeteo},
		IntentComparison:    {AdapterAirNow, AdapterOpenAQ, AdapterOpenMeteo},
		IntentVisualization: {AdapterAirNow, AdapterOpenAQ},
		IntentForecast:      {AdapterOpenMeteo, AdapterAirNow},
	},
	RegionGlobal: {
		IntentRealTimeData:  {AdapterOpenAQ, AdapterOpenMeteo},
		IntentComparison:    {AdapterOpenAQ, AdapterOpenMeteo},
		IntentVisualization: {AdapterOpenAQ, AdapterOpenMeteo},
		IntentForecast:      {AdapterOpenMeteo, AdapterOpenAQ},
	},
	RegionCoords: {
		IntentRealTimeData:  {AdapterOpenMeteo, AdapterOpenAQ},
		IntentComparison:    {AdapterOpenMeteo, AdapterOpenAQ},
		IntentVisualization: {AdapterOpenMeteo, AdapterOpenAQ},
		IntentForecast:      {AdapterOpenMeteo},
	},
}

// matchCities scans the normalized text against the city table in table
// order, so earlier rows win on ambiguity. Each city is reported once.
func matchCities(normalized string) []CityEntry {
	padded := " " + normalized + " "

	var matches []CityEntry
	seen := make(map[string]bool)
	for _, entry := range cityTable {
		if seen[entry.Name] {
			continue
		}
		if strings.Contains(padded, " "+entry.Name+" ") ||
			strings.Contains(padded, " "+entry.Name+",") ||
			strings.Contains(padded, " "+entry.Name+"?") {
			seen[entry.Name] = true
			matches = append(matches, entry)
		}
	}
	return matches
}

func routeAdapters(regionClass string, intent Intent) []string {
	byIntent, ok := routingTable[regionClass]
	if !ok {
		return nil
	}
	src, ok := byIntent[intent]
	if !ok {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

func coordKey(c LatLon) string {
	// Rounded to ~1km so nearby coordinates share a cache key
	return fmt.Sprintf("%.2f,%.2f", c.Lat, c.Lon)
}
