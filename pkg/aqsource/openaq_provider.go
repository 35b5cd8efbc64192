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

// OpenAQProvider implements Provider for the globally scoped OpenAQ
// network. It serves any location with a monitoring station nearby.
type OpenAQProvider struct {
	BaseURL string
	APIKey  string
}

func NewOpenAQProvider(baseURL, apiKey string) *OpenAQProvider {
	if baseURL == "" {
		baseURL = "https://api.openaq.org"
	}
	return &OpenAQProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
	}
}

func (p *OpenAQProvider) ID() string {
	return classify.AdapterOpenAQ
}

type openAQLatestResponse struct {
	Results []struct {
		Location     string `json:"location"`
		Measurements []struct {
			Parameter   string  `json:"parameter"`
			Value       float64 `json:"value"`
			LastUpdated string  `json:"lastUpdated"`
		} `json:"measurements"`
	} `json:"results"`
}

func (p *OpenAQProvider) Fetch(ctx context.Context, loc classify.Location) (*Payload, error) {
	coords, err := targetCoords(loc)
	if err != nil {
		return nil, &AdapterError{Adapter: p.ID(), Kind: KindNotFound, Message: err.Error()}
	}

	params := url.Values{}
	params.Add("coordinates", fmt.Sprintf("%f,%f", coords.Lat, coords.Lon))
	params.Add("radius", "25000")
	params.Add("limit", "1")
	params.Add("order_by", "distance")

	endpoint := fmt.Sprintf("%s/v2/latest?%s", p.BaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, classifyTransportError(p.ID(), err)
	}
	if p.APIKey != "" {
		req.Header.Set("X-API-Key", p.APIKey)
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

	var parsed openAQLatestResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &AdapterError{Adapter: p.ID(), Kind: KindUnreachable, Message: "malformed response body"}
	}
	if len(parsed.Results) == 0 || len(parsed.Results[0].Measurements) == 0 {
		return nil, &AdapterError{Adapter: p.ID(), Kind: KindNotFound, Message: "no station within radius"}
	}

	station := parsed.Results[0]
	payload := &Payload{
		Adapter:      p.ID(),
		Location:     loc.Key(),
		Measurements: make(map[string]float64, len(station.Measurements)),
		ObservedAt:   time.Now().UTC(),
	}
	for _, m := range station.Measurements {
		payload.Measurements[m.Parameter] = m.Value
	}
	if pm25, ok := payload.Measurements["pm25"]; ok {
		payload.AQI = pm25ToAQI(pm25)
		payload.Category = aqiCategory(payload.AQI)
	}

	return payload, nil
}
