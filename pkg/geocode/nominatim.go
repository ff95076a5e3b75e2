package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

type NominatimGeocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// NewNominatimGeocoder builds a reverse geocoder against the OSM Nominatim
// API. Nominatim's usage policy requires an identifying User-Agent.
func NewNominatimGeocoder(config *NominatimConfig) *NominatimGeocoder {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultNominatimBaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &NominatimGeocoder{
		baseURL:    baseURL,
		userAgent:  config.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (n *NominatimGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	endpoint := fmt.Sprintf("%s/reverse?%s", n.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build reverse geocode request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocode returned status %d", resp.StatusCode)
	}

	var result struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode reverse geocode response: %w", err)
	}
	if result.DisplayName == "" {
		return "", fmt.Errorf("no address found for %.4f,%.4f", lat, lng)
	}

	return result.DisplayName, nil
}
