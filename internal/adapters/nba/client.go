package nba

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/pratracker/internal/domain"
)

const (
	defaultStatsBase = "https://stats.nba.com"
	defaultLiveBase  = "https://cdn.nba.com/static/json/liveData"

	// stats.nba.com corta conexiones si se le pega rápido; 2 req/s es seguro.
	defaultRatePerSec = 2
	rateBurst         = 2

	requestTimeout = 15 * time.Second
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Client es el HTTP client de la API de la NBA con rate limiting.
// Hace un único intento por llamada: los reintentos son del orquestador.
type Client struct {
	http      *http.Client
	statsBase string
	liveBase  string
	limiter   *rate.Limiter
}

// NewClient crea un Client con los base URLs dados.
// Si statsBase o liveBase están vacíos, usa los URLs de producción.
func NewClient(statsBase, liveBase string, ratePerSec float64) *Client {
	if statsBase == "" {
		statsBase = defaultStatsBase
	}
	if liveBase == "" {
		liveBase = defaultLiveBase
	}
	if ratePerSec <= 0 {
		ratePerSec = defaultRatePerSec
	}
	return &Client{
		http:      &http.Client{Timeout: requestTimeout},
		statsBase: statsBase,
		liveBase:  liveBase,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), rateBurst),
	}
}

// FetchGames devuelve los partidos de una fecha civil (hora del Este).
func (c *Client) FetchGames(ctx context.Context, date time.Time) ([]domain.Game, error) {
	q := url.Values{}
	q.Set("GameDate", date.Format(domain.DateLayout))
	q.Set("LeagueID", "00")

	var resp scoreboardResponse
	if err := c.get(ctx, c.statsBase+"/stats/scoreboardv3?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("nba.FetchGames %s: %w", date.Format(domain.DateLayout), err)
	}

	games := make([]domain.Game, 0, len(resp.Scoreboard.Games))
	for _, g := range resp.Scoreboard.Games {
		games = append(games, mapGame(g, domain.CivilDate(date)))
	}
	return games, nil
}

// FetchBoxScore devuelve el estado del partido y la línea de cada jugador.
func (c *Client) FetchBoxScore(ctx context.Context, gameID string) (domain.GameSnapshot, error) {
	var resp boxScoreResponse
	if err := c.get(ctx, c.liveBase+"/boxscore/boxscore_"+url.PathEscape(gameID)+".json", &resp); err != nil {
		return domain.GameSnapshot{}, fmt.Errorf("nba.FetchBoxScore %s: %w", gameID, err)
	}
	if resp.Game.GameID == "" {
		resp.Game.GameID = gameID
	}
	return mapBoxScore(resp.Game), nil
}

// get hace un GET con rate limiting y clasifica los fallos:
// red, 429 y 5xx envuelven domain.ErrProviderUnavailable; el resto de 4xx no.
func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Origin", "https://www.nba.com")
	req.Header.Set("Referer", "https://www.nba.com/")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		slog.Warn("rate limited by NBA API", "url", rawURL)
		return fmt.Errorf("%w: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: server error %d", domain.ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
