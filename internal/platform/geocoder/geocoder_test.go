package geocoder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HelloTanvir/devcamper-api/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bostonResponse = `{
  "info": {"statuscode": 0, "messages": []},
  "results": [{
    "locations": [{
      "street": "233 Bay State Rd",
      "adminArea5": "Boston",
      "adminArea3": "MA",
      "adminArea1": "US",
      "postalCode": "02215",
      "latLng": {"lat": 42.350846, "lng": -71.105463}
    }]
  }]
}`

func TestMapQuest_Geocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocoding/v1/address", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "233 Bay State Rd Boston MA 02215", r.URL.Query().Get("location"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(bostonResponse))
	}))
	defer srv.Close()

	g := NewMapQuest("test-key", srv.URL+"/", srv.Client())
	loc, err := g.Geocode(context.Background(), "233 Bay State Rd Boston MA 02215")
	require.NoError(t, err)

	assert.InDelta(t, 42.350846, *loc.Latitude, 1e-9)
	assert.InDelta(t, -71.105463, *loc.Longitude, 1e-9)
	assert.Equal(t, "233 Bay State Rd, Boston, MA 02215, US", *loc.FormattedAddress)
	assert.Equal(t, "Boston", *loc.City)
	assert.Equal(t, "MA", *loc.State)
	assert.Equal(t, "02215", *loc.Zipcode)
	assert.Equal(t, "US", *loc.Country)
}

func TestMapQuest_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"info":{"statuscode":0},"results":[{"locations":[]}]}`))
	}))
	defer srv.Close()

	_, err := NewMapQuest("k", srv.URL, srv.Client()).Geocode(context.Background(), "nowhere")
	assert.Equal(t, http.StatusNotFound, common.HTTPStatusFromError(err))
}

func TestMapQuest_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) }},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<html>")) }},
		{"provider status", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"info":{"statuscode":403,"messages":["bad key"]},"results":[]}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewMapQuest("k", srv.URL, srv.Client()).Geocode(context.Background(), "x")
			assert.True(t, errors.Is(err, common.ErrDependency), "got %v", err)
			assert.Equal(t, http.StatusInternalServerError, common.HTTPStatusFromError(err))
		})
	}
}

func TestNew(t *testing.T) {
	g, err := New("mapquest", "", "https://www.mapquestapi.com")
	require.NoError(t, err)
	_, err = g.Geocode(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrGeocoderDisabled))

	g, err = New("mapquest", "key", "https://www.mapquestapi.com")
	require.NoError(t, err)
	assert.IsType(t, &MapQuest{}, g)

	_, err = New("google", "key", "")
	assert.Error(t, err)
}
