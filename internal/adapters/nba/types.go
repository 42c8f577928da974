package nba

import "encoding/json"

// DTOs raw de la API de la NBA. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- stats.nba.com ---

// scoreboardResponse es la respuesta de GET /stats/scoreboardv3.
// El scoreboard live (cdn.nba.com) usa la misma forma.
type scoreboardResponse struct {
	Scoreboard struct {
		GameDate string    `json:"gameDate"`
		Games    []nbaGame `json:"games"`
	} `json:"scoreboard"`
}

// nbaGame es un partido tal como lo devuelve el scoreboard.
type nbaGame struct {
	GameID         string  `json:"gameId"`
	GameStatus     int     `json:"gameStatus"` // 1 no empezado, 2 en juego, 3 finalizado
	GameStatusText string  `json:"gameStatusText"`
	Period         int     `json:"period"`
	GameClock      string  `json:"gameClock"` // ISO-8601: PT05M12.00S
	HomeTeam       nbaTeam `json:"homeTeam"`
	AwayTeam       nbaTeam `json:"awayTeam"`
}

// nbaTeam es un equipo dentro de un partido. Players solo viene en el box score.
type nbaTeam struct {
	TeamID      int         `json:"teamId"`
	TeamTricode string      `json:"teamTricode"`
	Score       int         `json:"score"`
	Players     []nbaPlayer `json:"players,omitempty"`
}

// --- cdn.nba.com live ---

// boxScoreResponse es la respuesta de GET /boxscore/boxscore_{gameId}.json.
type boxScoreResponse struct {
	Game nbaGame `json:"game"`
}

// nbaPlayer es la línea de un jugador en el box score.
type nbaPlayer struct {
	PersonID   int          `json:"personId"`
	FirstName  string       `json:"firstName"`
	FamilyName string       `json:"familyName"`
	Status     string       `json:"status"`
	Played     string       `json:"played"`
	Statistics *playerStats `json:"statistics"`
}

// playerStats son las estadísticas acumuladas. Los minutos llegan como
// string ISO-8601 normalmente, pero algunos feeds mandan número o "MM:SS".
type playerStats struct {
	Points            float64         `json:"points"`
	ReboundsTotal     float64         `json:"reboundsTotal"`
	Assists           float64         `json:"assists"`
	Minutes           json.RawMessage `json:"minutes"`
	MinutesCalculated json.RawMessage `json:"minutesCalculated"`
}
