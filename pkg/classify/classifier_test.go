package classify

import (
	"reflect"
	"testing"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		coords     *LatLon
		wantIntent Intent
	}{
		{
			name:       "educational question without location",
			text:       "What is PM2.5?",
			wantIntent: IntentEducational,
		},
		{
			name:       "explanatory phrasing",
			text:       "why does ozone form in summer",
			wantIntent: IntentEducational,
		},
		{
			name:       "real-time query with regional city",
			text:       "How is the air quality in Los Angeles right now?",
			wantIntent: IntentRealTimeData,
		},
		{
			name:       "city mention without explicit cue",
			text:       "air pollution jakarta",
			wantIntent: IntentRealTimeData,
		},
		{
			name:       "forecast query",
			text:       "What is the air quality forecast for London tomorrow?",
			wantIntent: IntentForecast,
		},
		{
			name:       "comparison of two cities",
			text:       "Compare air quality in Jakarta and London",
			wantIntent: IntentComparison,
		},
		{
			name:       "two cities without compare keyword",
			text:       "is the air in Delhi or Beijing worse today",
			wantIntent: IntentComparison,
		},
		{
			name:       "city compared against own coordinates",
			text:       "is seattle better than here",
			coords:     &LatLon{Lat: 47.0, Lon: -120.0},
			wantIntent: IntentComparison,
		},
		{
			name:       "visualization request",
			text:       "plot the aqi trend of Paris",
			wantIntent: IntentVisualization,
		},
		{
			name:       "search without location",
			text:       "which cities have the cleanest air",
			wantIntent: IntentSearch,
		},
		{
			name:       "coordinates only",
			text:       "air quality here right now",
			coords:     &LatLon{Lat: -6.2, Lon: 106.8},
			wantIntent: IntentRealTimeData,
		},
		{
			name:       "empty text",
			text:       "   ",
			wantIntent: IntentEducational,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text, tt.coords)
			if got.Intent != tt.wantIntent {
				t.Errorf("Intent = %s, want %s", got.Intent, tt.wantIntent)
			}
		})
	}
}

func TestClassifyAdapterPriority(t *testing.T) {
	t.Run("regional city puts regional adapter first", func(t *testing.T) {
		got := Classify("air quality in Los Angeles now", nil)
		if len(got.Locations) != 1 {
			t.Fatalf("Locations = %d, want 1", len(got.Locations))
		}
		adapters := got.Locations[0].Adapters
		if len(adapters) == 0 || adapters[0] != AdapterAirNow {
			t.Errorf("Adapters = %v, want %s first", adapters, AdapterAirNow)
		}
	})

	t.Run("global city puts global adapter first", func(t *testing.T) {
		got := Classify("air quality in Jakarta now", nil)
		adapters := got.Locations[0].Adapters
		if len(adapters) == 0 || adapters[0] != AdapterOpenAQ {
			t.Errorf("Adapters = %v, want %s first", adapters, AdapterOpenAQ)
		}
	})

	t.Run("coordinates route to coordinate-only adapter first", func(t *testing.T) {
		got := Classify("current air quality", &LatLon{Lat: 10, Lon: 20})
		if len(got.Locations) != 1 {
			t.Fatalf("Locations = %d, want 1", len(got.Locations))
		}
		adapters := got.Locations[0].Adapters
		if len(adapters) == 0 || adapters[0] != AdapterOpenMeteo {
			t.Errorf("Adapters = %v, want %s first", adapters, AdapterOpenMeteo)
		}
	})

	t.Run("educational query has no adapters", func(t *testing.T) {
		got := Classify("what is PM2.5", nil)
		if got.RequiresData() {
			t.Errorf("RequiresData = true, want false")
		}
	})

	t.Run("city and coordinates kept as independent descriptors", func(t *testing.T) {
		got := Classify("air quality in Boston now", &LatLon{Lat: 42.3, Lon: -71.0})
		if len(got.Locations) != 2 {
			t.Fatalf("Locations = %d, want 2", len(got.Locations))
		}
		if got.Locations[0].City != "boston" {
			t.Errorf("first location = %q, want boston", got.Locations[0].City)
		}
		if got.Locations[1].RegionClass != RegionCoords {
			t.Errorf("second location class = %s, want %s", got.Locations[1].RegionClass, RegionCoords)
		}
	})

	t.Run("out-of-range coordinates are dropped", func(t *testing.T) {
		got := Classify("what is smog", &LatLon{Lat: 95, Lon: 10})
		if len(got.Locations) != 0 {
			t.Errorf("Locations = %d, want 0", len(got.Locations))
		}
	})
}

func TestClassifyDeterminism(t *testing.T) {
	coords := &LatLon{Lat: 51.5, Lon: -0.1}
	a := Classify("Compare air quality in Jakarta and London now", coords)
	b := Classify("Compare air quality in Jakarta and London now", coords)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical inputs produced different classifications:\n%+v\n%+v", a, b)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize("  How IS   the Air? ")
	want := "how is the air?"
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}
