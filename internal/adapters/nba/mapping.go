package nba

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/pratracker/internal/domain"
)

var isoDuration = regexp.MustCompile(`^PT(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)

// mapGame convierte un partido del scoreboard a domain.Game.
func mapGame(g nbaGame, date time.Time) domain.Game {
	return domain.Game{
		ID:        g.GameID,
		Date:      date,
		Status:    mapStatus(g.GameStatus),
		Period:    g.Period,
		Clock:     parseClock(g.GameClock),
		HomeTeam:  g.HomeTeam.TeamTricode,
		AwayTeam:  g.AwayTeam.TeamTricode,
		HomeScore: g.HomeTeam.Score,
		AwayScore: g.AwayTeam.Score,
	}
}

// mapBoxScore convierte el box score a un snapshot con todos los jugadores de ambos equipos.
// El box score no trae fecha: Game.Date queda vacía y la pone quien lo pide.
func mapBoxScore(g nbaGame) domain.GameSnapshot {
	snap := domain.GameSnapshot{
		Game:    mapGame(g, time.Time{}),
		Players: make(map[int]domain.PlayerLine),
	}
	for _, team := range []nbaTeam{g.HomeTeam, g.AwayTeam} {
		for _, p := range team.Players {
			if p.PersonID == 0 {
				continue
			}
			snap.Players[p.PersonID] = mapPlayer(p, team.TeamTricode)
		}
	}
	return snap
}

// mapPlayer construye la línea del jugador. Sin bloque de estadísticas
// PRA y minutos quedan nil: todavía no hay observación.
func mapPlayer(p nbaPlayer, team string) domain.PlayerLine {
	line := domain.PlayerLine{
		PlayerID: p.PersonID,
		Name:     strings.TrimSpace(p.FirstName + " " + p.FamilyName),
		Team:     team,
	}
	if p.Statistics == nil {
		return line
	}

	st := p.Statistics
	line.Points = st.Points
	line.Rebounds = st.ReboundsTotal
	line.Assists = st.Assists
	line.PRA = domain.Float(st.Points + st.ReboundsTotal + st.Assists)

	raw := st.Minutes
	if len(raw) == 0 || string(raw) == "null" {
		raw = st.MinutesCalculated
	}
	line.Minutes = domain.Float(parseMinutesRaw(raw))
	return line
}

func mapStatus(code int) domain.GameStatus {
	switch code {
	case 2:
		return domain.GameLive
	case 3:
		return domain.GameFinished
	default:
		return domain.GameNotStarted
	}
}

// parseMinutesRaw acepta el campo tal cual llega: string, número o null.
func parseMinutesRaw(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseMinutes(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return minutesFromNumber(f)
	}
	return 0
}

// ParseMinutes parses a minutes value in any of the formats the NBA feeds use:
// ISO-8601 ("PT36M25.00S"), "MM:SS", or a plain number. Numbers above 100 are
// seconds. Empty, "DNP" and unparseable input are 0.
func ParseMinutes(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "DNP") {
		return 0
	}

	if m := isoDuration.FindStringSubmatch(s); m != nil {
		var mins, secs float64
		if m[1] != "" {
			mins, _ = strconv.ParseFloat(m[1], 64)
		}
		if m[2] != "" {
			secs, _ = strconv.ParseFloat(m[2], 64)
		}
		return mins + secs/60
	}

	if mm, ss, ok := strings.Cut(s, ":"); ok {
		mins, err1 := strconv.Atoi(mm)
		secs, err2 := strconv.Atoi(ss)
		if err1 == nil && err2 == nil {
			return float64(mins) + float64(secs)/60
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return minutesFromNumber(f)
}

func minutesFromNumber(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 100 {
		return f / 60
	}
	return f
}

// parseClock convierte el reloj del periodo ("PT05M12.00S" o "5:12") a duración.
func parseClock(s string) time.Duration {
	ms := math.Round(ParseMinutes(s) * 60 * 1000)
	return time.Duration(ms) * time.Millisecond
}
