// Package geocode turns coordinates into a display address.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"disaster-relief-api-server/config"
)

type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// Nominatim queries an OpenStreetMap Nominatim instance, which rejects
// requests without a User-Agent.
type Nominatim struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

func NewNominatim(cfg config.GeocoderConfig) *Nominatim {
	return &Nominatim{BaseURL: cfg.BaseURL, UserAgent: cfg.UserAgent, Client: http.DefaultClient}
}

func (n *Nominatim) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", n.UserAgent)

	resp, err := n.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocoding failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocoding returned %d", resp.StatusCode)
	}

	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding geocoder response: %w", err)
	}
	if body.DisplayName == "" {
		return "", fmt.Errorf("no address for %v,%v", lat, lng)
	}
	return body.DisplayName, nil
}
