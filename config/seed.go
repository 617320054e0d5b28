package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/marketd/internal/domain"
)

// SeedMarket es un mercado de arranque declarado en seed.yaml. EndTime se
// expresa como horas relativas para que las fixtures no caduquen.
type SeedMarket struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	OutcomeType string   `yaml:"outcome_type"`
	Outcomes    []string `yaml:"outcomes"`
	EndsInHours float64  `yaml:"ends_in_hours"`
	Creator     string   `yaml:"creator"`
}

type seedFile struct {
	Markets []SeedMarket `yaml:"markets"`
}

// LoadSeed lee las fixtures de mercados iniciales desde un archivo YAML.
func LoadSeed(path string) ([]SeedMarket, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.LoadSeed: read %q: %w", path, err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config.LoadSeed: parse YAML: %w", err)
	}

	for i, m := range f.Markets {
		if !domain.Category(m.Category).Valid() {
			return nil, fmt.Errorf("config.LoadSeed: market %d: unknown category %q", i, m.Category)
		}
		if m.EndsInHours <= 0 {
			return nil, fmt.Errorf("config.LoadSeed: market %d: ends_in_hours must be positive", i)
		}
	}
	return f.Markets, nil
}
