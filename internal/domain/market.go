package domain

import "time"

// Category clasifica el tema de un mercado de predicción.
type Category string

const (
	CategoryCrypto    Category = "crypto"
	CategorySports    Category = "sports"
	CategoryPolitics  Category = "politics"
	CategoryWeather   Category = "weather"
	CategoryEconomics Category = "economics"
)

// Valid devuelve true si la categoría es una de las conocidas.
func (c Category) Valid() bool {
	switch c {
	case CategoryCrypto, CategorySports, CategoryPolitics, CategoryWeather, CategoryEconomics:
		return true
	}
	return false
}

// OutcomeType describe la forma de los resultados posibles del mercado.
type OutcomeType string

const (
	OutcomeBinary   OutcomeType = "binary"
	OutcomeMultiple OutcomeType = "multiple"
	OutcomeScalar   OutcomeType = "scalar"
)

// MarketStatus es el estado del ciclo de vida de un mercado.
// Las transiciones permitidas son active→resolved y active→cancelled;
// ambos destinos son terminales.
type MarketStatus string

const (
	StatusActive    MarketStatus = "active"
	StatusResolved  MarketStatus = "resolved"
	StatusCancelled MarketStatus = "cancelled"
)

// Market es una pregunta de predicción con un conjunto fijo de resultados
// mutuamente excluyentes y una hora de cierre.
type Market struct {
	ID             string
	Title          string
	Description    string
	Category       Category
	OutcomeType    OutcomeType
	Outcomes       []string // fijado en la creación, nunca muta
	EndTime        time.Time
	ResolutionTime time.Time // EndTime + periodo de gracia
	Status         MarketStatus
	Creator        string
	CreatedAt      time.Time

	// Contadores acumulativos, monótonos mientras el mercado está activo.
	TotalVolume       float64
	TotalParticipants int
	Liquidity         float64
	Fees              float64
}

// Active devuelve true si el mercado sigue aceptando apuestas.
func (m Market) Active() bool {
	return m.Status == StatusActive
}

// HasOutcome devuelve true si la etiqueta pertenece al conjunto de
// resultados del mercado.
func (m Market) HasOutcome(outcome string) bool {
	for _, o := range m.Outcomes {
		if o == outcome {
			return true
		}
	}
	return false
}

// Expired devuelve true si ya no se aceptan apuestas. El contrato es
// estricto: cualquier instante >= EndTime rechaza.
func (m Market) Expired(now time.Time) bool {
	return !now.Before(m.EndTime)
}

// MarketDraft son los datos de entrada para crear un mercado.
type MarketDraft struct {
	Title       string
	Description string
	Category    Category
	OutcomeType OutcomeType
	Outcomes    []string
	EndTime     time.Time
	Creator     string
}

// Validate comprueba las invariantes de creación: resultados no vacíos y
// sin duplicados, y EndTime en el futuro respecto a now.
func (d MarketDraft) Validate(now time.Time) error {
	if len(d.Outcomes) == 0 {
		return ErrInvalidOutcomes
	}
	seen := make(map[string]struct{}, len(d.Outcomes))
	for _, o := range d.Outcomes {
		if _, dup := seen[o]; dup {
			return ErrInvalidOutcomes
		}
		seen[o] = struct{}{}
	}
	if !d.EndTime.After(now) {
		return ErrInvalidTimeRange
	}
	return nil
}
