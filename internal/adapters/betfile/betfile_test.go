package betfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/pratracker/internal/adapters/betfile"
	"github.com/alejandrodnm/pratracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Fixture(t *testing.T) {
	bets, err := betfile.Load("../../../testdata/fixtures/bets.yaml")
	require.NoError(t, err)
	require.Len(t, bets, 3)

	b := bets[0]
	assert.Equal(t, 203999, b.PlayerID)
	assert.Equal(t, "Nikola Jokic", b.PlayerName)
	assert.Equal(t, "2025-12-18", b.GameDate.Format(domain.DateLayout))
	assert.Equal(t, domain.DirectionOver, b.Direction)
	assert.Equal(t, 1.5, b.Units)
	require.NotNil(t, b.Prediction)
	assert.InDelta(t, 52.3, *b.Prediction, 1e-9)
	assert.Equal(t, domain.ResultPending, b.Result)

	assert.Equal(t, domain.DirectionUnder, bets[1].Direction, "direction is case-insensitive")
	assert.Equal(t, 1.0, bets[2].Units, "units default to 1")
	assert.Nil(t, bets[2].Prediction)
}

func TestParse_InvalidEntry(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad date", "bets:\n  - {player_id: 1, game_date: 12/18/2025, betting_line: 20, direction: OVER}\n"},
		{"bad direction", "bets:\n  - {player_id: 1, game_date: 2025-12-18, betting_line: 20, direction: SIDEWAYS}\n"},
		{"no player", "bets:\n  - {game_date: 2025-12-18, betting_line: 20, direction: OVER}\n"},
		{"negative units", "bets:\n  - {player_id: 1, game_date: 2025-12-18, betting_line: 20, direction: OVER, units: -1}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := betfile.Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, domain.ErrInputContract)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := betfile.Parse([]byte("bets: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_Missing(t *testing.T) {
	_, err := betfile.Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
