package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"
)

// ErrGeocoderDisabled is returned when no provider key is configured.
var ErrGeocoderDisabled = errors.New("geocoder is not configured")

type Geocoder interface {
	Geocode(ctx context.Context, address string) (*model.Location, error)
}

// New returns a MapQuest geocoder, or Disabled when apiKey is empty.
func New(provider, apiKey, baseURL string) (Geocoder, error) {
	if apiKey == "" {
		return Disabled{}, nil
	}
	switch provider {
	case "mapquest":
		return NewMapQuest(apiKey, baseURL, &http.Client{Timeout: 10 * time.Second}), nil
	default:
		return nil, fmt.Errorf("unknown geocoder provider %q", provider)
	}
}

type Disabled struct{}

func (Disabled) Geocode(context.Context, string) (*model.Location, error) {
	return nil, common.Dependency(ErrGeocoderDisabled, "Geocoder is not configured")
}

type MapQuest struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewMapQuest(apiKey, baseURL string, client *http.Client) *MapQuest {
	return &MapQuest{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type mapQuestResponse struct {
	Info struct {
		StatusCode int      `json:"statuscode"`
		Messages   []string `json:"messages"`
	} `json:"info"`
	Results []struct {
		Locations []mapQuestLocation `json:"locations"`
	} `json:"results"`
}

type mapQuestLocation struct {
	Street     string `json:"street"`
	City       string `json:"adminArea5"`
	State      string `json:"adminArea3"`
	Country    string `json:"adminArea1"`
	PostalCode string `json:"postalCode"`
	LatLng     struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"latLng"`
}

func (g *MapQuest) Geocode(ctx context.Context, address string) (*model.Location, error) {
	q := url.Values{}
	q.Set("key", g.apiKey)
	q.Set("location", address)
	endpoint := g.baseURL + "/geocoding/v1/address?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, common.Dependency(err, "Geocoder request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, common.Dependency(fmt.Errorf("status %d", resp.StatusCode), "Geocoder request failed")
	}

	var body mapQuestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, common.Dependency(err, "Geocoder returned an invalid response")
	}
	if body.Info.StatusCode != 0 {
		return nil, common.Dependency(fmt.Errorf("mapquest status %d: %v", body.Info.StatusCode, body.Info.Messages), "Geocoder request failed")
	}
	if len(body.Results) == 0 || len(body.Results[0].Locations) == 0 {
		return nil, common.NotFound("No location found for %s", address)
	}

	return toLocation(body.Results[0].Locations[0]), nil
}

func toLocation(l mapQuestLocation) *model.Location {
	lat, lng := l.LatLng.Lat, l.LatLng.Lng
	formatted := formatAddress(l)
	return &model.Location{
		Latitude:         &lat,
		Longitude:        &lng,
		FormattedAddress: &formatted,
		Street:           optional(l.Street),
		City:             optional(l.City),
		State:            optional(l.State),
		Zipcode:          optional(l.PostalCode),
		Country:          optional(l.Country),
	}
}

// formatAddress renders "street, city, state zip, country", skipping blanks.
func formatAddress(l mapQuestLocation) string {
	var parts []string
	for _, p := range []string{l.Street, l.City, strings.TrimSpace(l.State + " " + l.PostalCode), l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
