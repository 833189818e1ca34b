package scoring

import "fmt"

// ScoreNotFoundError means no known location in the detector response held a number.
type ScoreNotFoundError struct{}

func (*ScoreNotFoundError) Error() string {
	return "no se pudo extraer el puntaje de IA de la respuesta del detector"
}

// InvalidScoreError means a score was found but cannot be read as a percentage.
type InvalidScoreError struct {
	Value  float64
	Source string
	Reason string
}

func (e *InvalidScoreError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("puntaje de IA inválido: %s", e.Reason)
	}
	return fmt.Sprintf("puntaje de IA inválido en %s: %s", e.Source, e.Reason)
}

const (
	reasonNotFinite  = "no es un número finito"
	reasonNegative   = "no puede ser negativo"
	reasonOutOfRange = "debe estar entre 0 y 100"
)
