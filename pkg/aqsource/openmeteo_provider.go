package aqsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ai-airquality-be/pkg/classify"
)

// OpenMeteoProvider implements Provider for the Open-Meteo air-quality
// model. Coordinate-only, keyless, and the only source that can also
// answer forecast queries.
type OpenMeteoProvider struct {
	BaseURL string
}

func NewOpenMeteoProvider(baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = "https://air-quality-api.open-meteo.com"
	}
	return &OpenMeteoProvider{BaseURL: baseURL}
}

func (p *OpenMeteoProvider) ID() string {
	return classify.AdapterOpenMeteo
}

type openMeteoResponse struct {
	Current struct {
		Time            string  `json:"time"`
		USAQI           float64 `json:"us_aqi"`
		PM25            float64 `json:"pm2_5"`
		PM10            float64 `json:"pm10"`
		Ozone           float64 `json:"ozone"`
		NitrogenDioxide float64 `json:"nitrogen_dioxide"`
	} `json:"current"`
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc classify.Location) (*Payload, error) {
	coords, err := targetCoords(loc)
	if err != nil {
		return nil, &AdapterError{Adapter: p.ID(), Kind: KindNotFound, Message: err.Error()}
	}

	params := url.Values{}
	params.Add("latitude", fmt.Sprintf("%f", coords.Lat))
	params.Add("longitude", fmt.Sprintf("%f", coords.Lon))
	params.Add("current", "us_aqi,pm2_5,pm10,ozone,nitrogen_dioxide")

	endpoint := fmt.Sprintf("%s/v1/air-quality?%s", p.BaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, classifyTransportError(p.ID(), err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(p.ID(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(p.ID(), resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(p.ID(), err)
	}

	var parsed openMeteoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &AdapterError{Adapter: p.ID(), Kind: KindUnreachable, Message: "malformed response body"}
	}

	aqi := int(parsed.Current.USAQI)
	return &Payload{
		Adapter:  p.ID(),
		Location: loc.Key(),
		AQI:      aqi,
		Category: aqiCategory(aqi),
		Measurements: map[string]float64{
			"pm2_5":            parsed.Current.PM25,
			"pm10":             parsed.Current.PM10,
			"ozone":            parsed.Current.Ozone,
			"nitrogen_dioxide": parsed.Current.NitrogenDioxide,
		},
		ObservedAt: time.Now().UTC(),
	}, nil
}

// pm25ToAQI converts a PM2.5 concentration (µg/m³) to the US AQI scale
// using the EPA breakpoint table.
func pm25ToAQI(conc float64) int {
	breakpoints := []struct {
		cLow, cHigh float64
		iLow, iHigh int
	}{
		{0.0, 12.0, 0, 50},
		{12.1, 35.4, 51, 100},
		{35.5, 55.4, 101, 150},
		{55.5, 150.4, 151, 200},
		{150.5, 250.4, 201, 300},
		{250.5, 500.4, 301, 500},
	}
	for _, bp := range breakpoints {
		if conc >= bp.cLow && conc <= bp.cHigh {
			ratio := (conc - bp.cLow) / (bp.cHigh - bp.cLow)
			return bp.iLow + int(ratio*float64(bp.iHigh-bp.iLow))
		}
	}
	if conc > 500.4 {
		return 500
	}
	return 0
}

func aqiCategory(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}
