package ogame

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intel-server/internal/planet"
	"intel-server/internal/shared/config"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.FeedsConfig{
		GameAPIBaseURL:    srv.URL,
		FetchTimeout:      5 * time.Second,
		RequestsPerSecond: 1000,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFetchRoster(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/players.xml", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("toJson"))
		_, _ = w.Write([]byte(`{"player": [
			{"@attributes": {"id": "101", "name": "Alice"}},
			{"@attributes": {"id": "102", "name": "Bob"}}
		]}`))
	}))

	entries, err := client.FetchRoster(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, 101, entries[0].ID)
	assert.Equal(t, "Alice", entries[0].Name)
}

func TestFetchRosterSinglePlayerObject(t *testing.T) {
	// The toJson endpoint serializes one-element collections as bare objects.
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"player": {"@attributes": {"id": "101", "name": "Alice"}}}`))
	}))

	entries, err := client.FetchRoster(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, 101, entries[0].ID)
}

func TestFetchRosterBadPlayerID(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"player": {"@attributes": {"id": "abc", "name": "Ghost"}}}`))
	}))

	_, err := client.FetchRoster(context.Background())
	assert.Error(t, err)
}

func TestFetchPlayerData(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/playerData.xml", r.URL.Path)
		assert.Equal(t, "101", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`{
			"alliance": {"name": "The Syndicate"},
			"planets": {"planet": [
				{"@attributes": {"name": "Homeworld", "coords": "1:222:8"}, "moon": {"@attributes": {"name": "Moon"}}},
				{"@attributes": {"name": "Colony", "coords": "2:30:15"}}
			]}
		}`))
	}))

	data, err := client.FetchPlayerData(context.Background(), 101)
	require.NoError(t, err)

	assert.Equal(t, "The Syndicate", data.Alliance)
	require.Len(t, data.Planets, 2)
	assert.Equal(t, planet.Coords{Galaxy: 1, System: 222, Position: 8}, data.Planets[0].Coords)
	assert.True(t, data.Planets[0].HasMoon)
	assert.Equal(t, "Colony", data.Planets[1].Name)
	assert.False(t, data.Planets[1].HasMoon)
}

func TestFetchHighscores(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/highscore.xml", r.URL.Path)
		switch r.URL.Query().Get("type") {
		case highscoreTypeTotal:
			_, _ = w.Write([]byte(`{"@attributes": {"timestamp": "1767225600"},
				"player": [{"@attributes": {"id": "101", "position": "4", "score": "1500000"}}]}`))
		case highscoreTypeMilitary:
			_, _ = w.Write([]byte(`{"@attributes": {"timestamp": "1767225600"},
				"player": [{"@attributes": {"id": "101", "position": "2", "score": "400000"}}]}`))
		case highscoreTypeMilitaryBuilt:
			_, _ = w.Write([]byte(`{"@attributes": {"timestamp": "1767225600"},
				"player": [{"@attributes": {"id": "101", "position": "9", "score": "120000"}}]}`))
		default:
			t.Fatalf("unexpected board type %q", r.URL.Query().Get("type"))
		}
	}))

	feedTime, entries, err := client.FetchHighscores(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Unix(1767225600, 0).UTC(), feedTime)
	require.Contains(t, entries, 101)
	entry := entries[101]
	assert.Equal(t, int64(1500000), entry.TotalPoints)
	assert.Equal(t, 4, entry.TotalRank)
	assert.Equal(t, int64(400000), entry.MilitaryPoints)
	assert.Equal(t, 2, entry.MilitaryRank)
	assert.Equal(t, int64(120000), entry.MilitaryBuiltPoints)
}

func TestFetchUnitNames(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/localization.xml", r.URL.Path)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<localization>
  <techs>
    <name id="204">Light Fighter</name>
    <name id="109">Weapons Technology</name>
  </techs>
</localization>`))
	}))

	names, err := client.FetchUnitNames(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Light Fighter", names[204])
	assert.Equal(t, "Weapons Technology", names[109])
}

func TestUpstreamErrorIsExternal(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))

	_, err := client.FetchRoster(context.Background())
	assert.Error(t, err)
}
