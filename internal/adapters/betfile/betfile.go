// Package betfile lee apuestas nuevas desde el YAML que genera el pipeline de predicciones.
package betfile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/pratracker/internal/domain"
)

// entry es una apuesta tal como aparece en el archivo.
type entry struct {
	PlayerID    int      `yaml:"player_id"`
	PlayerName  string   `yaml:"player_name"`
	GameDate    string   `yaml:"game_date"`
	BettingLine float64  `yaml:"betting_line"`
	Direction   string   `yaml:"direction"`
	Tier        string   `yaml:"tier"`
	Units       float64  `yaml:"units"`
	Prediction  *float64 `yaml:"prediction"`
}

type file struct {
	Bets []entry `yaml:"bets"`
}

// Load lee el archivo y devuelve las apuestas como PENDING.
func Load(path string) ([]domain.Bet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("betfile.Load: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse interpreta el YAML. Una entrada inválida invalida el archivo entero.
func Parse(data []byte) ([]domain.Bet, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("betfile.Parse: %w", err)
	}

	bets := make([]domain.Bet, 0, len(f.Bets))
	for i, e := range f.Bets {
		date, err := domain.ParseDate(e.GameDate)
		if err != nil {
			return nil, fmt.Errorf("betfile.Parse: entry %d: %w", i, err)
		}
		units := e.Units
		if units == 0 {
			units = 1
		}
		b := domain.Bet{
			PlayerID:    e.PlayerID,
			PlayerName:  e.PlayerName,
			GameDate:    date,
			BettingLine: e.BettingLine,
			Direction:   domain.Direction(strings.ToUpper(e.Direction)),
			Tier:        e.Tier,
			Units:       units,
			Prediction:  e.Prediction,
			Result:      domain.ResultPending,
		}
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("betfile.Parse: entry %d: %w", i, err)
		}
		bets = append(bets, b)
	}
	return bets, nil
}
