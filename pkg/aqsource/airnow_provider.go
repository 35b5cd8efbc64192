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

// AirNowProvider implements Provider for the AirNow partner network.
// Coverage is limited to cities the regional network reports on, which is
// why the router only puts it first for REGIONAL cities.
type AirNowProvider struct {
	BaseURL string
	APIKey  string
}

func NewAirNowProvider(baseURL, apiKey string) *AirNowProvider {
	if baseURL == "" {
		baseURL = "https://www.airnowapi.org"
	}
	return &AirNowProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
	}
}

func (p *AirNowProvider) ID() string {
	return classify.AdapterAirNow
}

type airNowObservation struct {
	DateObserved  string  `json:"DateObserved"`
	HourObserved  int     `json:"HourObserved"`
	ParameterName string  `json:"ParameterName"`
	AQI           int     `json:"AQI"`
	Latitude      float64 `json:"Latitude"`
	Longitude     float64 `json:"Longitude"`
	Category      struct {
		Name string `json:"Name"`
	} `json:"Category"`
}

func (p *AirNowProvider) Fetch(ctx context.Context, loc classify.Location) (*Payload, error) {
	coords, err := targetCoords(loc)
	if err != nil {
		return nil, &AdapterError{Adapter: p.ID(), Kind: KindNotFound, Message: err.Error()}
	}

	params := url.Values{}
	params.Add("format", "application/json")
	params.Add("latitude", fmt.Sprintf("%f", coords.Lat))
	params.Add("longitude", fmt.Sprintf("%f", coords.Lon))
	params.Add("distance", "25")
	params.Add("API_KEY", p.APIKey)

	endpoint := fmt.Sprintf("%s/aq/observation/latLong/current/?%s", p.BaseURL, params.Encode())
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

	var observations []airNowObservation
	if err := json.Unmarshal(body, &observations); err != nil {
		return nil, &AdapterError{Adapter: p.ID(), Kind: KindUnreachable, Message: "malformed response body"}
	}
	if len(observations) == 0 {
		return nil, &AdapterError{Adapter: p.ID(), Kind: KindNotFound, Message: "no observations near location"}
	}

	// AirNow reports one row per parameter; the overall AQI is the
	// maximum across parameters, per the network's own convention.
	payload := &Payload{
		Adapter:      p.ID(),
		Location:     loc.Key(),
		Measurements: make(map[string]float64, len(observations)),
		ObservedAt:   time.Now().UTC(),
	}
	for _, obs := range observations {
		payload.Measurements[obs.ParameterName] = float64(obs.AQI)
		if obs.AQI > payload.AQI {
			payload.AQI = obs.AQI
			payload.Category = obs.Category.Name
		}
	}

	return payload, nil
}
