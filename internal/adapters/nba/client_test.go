package nba_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alejandrodnm/pratracker/internal/adapters/nba"
	"github.com/alejandrodnm/pratracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *nba.Client {
	return nba.NewClient(srv.URL, srv.URL, 1000)
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../../testdata/fixtures/" + name)
	require.NoError(t, err)
	return data
}

func TestFetchGames_Success(t *testing.T) {
	data := fixture(t, "nba_scoreboard.json")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stats/scoreboardv3", r.URL.Path)
		assert.Equal(t, "2025-12-18", r.URL.Query().Get("GameDate"))
		assert.Equal(t, "00", r.URL.Query().Get("LeagueID"))
		assert.Equal(t, "https://www.nba.com", r.Header.Get("Origin"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	defer srv.Close()

	date := time.Date(2025, 12, 18, 0, 0, 0, 0, time.UTC)
	games, err := newTestClient(srv).FetchGames(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, games, 3)

	g := games[0]
	assert.Equal(t, "0022500401", g.ID)
	assert.Equal(t, domain.GameFinished, g.Status)
	assert.Equal(t, "LAL @ DEN", g.Matchup())
	assert.Equal(t, "114 - 121", g.Score())
	assert.Equal(t, date, g.Date)

	live := games[1]
	assert.Equal(t, domain.GameLive, live.Status)
	assert.Equal(t, 3, live.Period)
	assert.Equal(t, 5*time.Minute+12*time.Second, live.Clock)

	assert.Equal(t, domain.GameNotStarted, games[2].Status)
}

func TestFetchBoxScore_Success(t *testing.T) {
	data := fixture(t, "nba_boxscore.json")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/boxscore/boxscore_0022500401.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	defer srv.Close()

	snap, err := newTestClient(srv).FetchBoxScore(context.Background(), "0022500401")
	require.NoError(t, err)
	assert.Equal(t, domain.GameFinished, snap.Game.Status)
	require.Len(t, snap.Players, 4)

	jokic, ok := snap.Player(203999)
	require.True(t, ok)
	assert.Equal(t, "Nikola Jokic", jokic.Name)
	assert.Equal(t, "DEN", jokic.Team)
	require.NotNil(t, jokic.PRA)
	assert.Equal(t, 51.0, *jokic.PRA)
	require.NotNil(t, jokic.Minutes)
	assert.InDelta(t, 36.4167, *jokic.Minutes, 0.001)

	// minutes falls back to minutesCalculated
	lebron, _ := snap.Player(2544)
	require.NotNil(t, lebron.Minutes)
	assert.Equal(t, 35.0, *lebron.Minutes)

	dnp, _ := snap.Player(1629008)
	require.NotNil(t, dnp.PRA)
	assert.Equal(t, 0.0, *dnp.Minutes)

	// inactive: no statistics block, no observation yet
	inactive, _ := snap.Player(1630559)
	assert.Nil(t, inactive.PRA)
	assert.Nil(t, inactive.Minutes)
}

func TestFetch_ServerErrorIsUnavailable(t *testing.T) {
	for _, code := range []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusTooManyRequests} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		_, err := newTestClient(srv).FetchBoxScore(context.Background(), "0022500401")
		assert.ErrorIs(t, err, domain.ErrProviderUnavailable, "status %d", code)
		srv.Close()
	}
}

func TestFetch_ClientErrorIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such game", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchBoxScore(context.Background(), "bogus")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "404")
}

func TestFetch_NetworkErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := nba.NewClient(url, url, 1000).FetchGames(context.Background(), time.Now())
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestFetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv).FetchGames(ctx, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrProviderUnavailable)
}
