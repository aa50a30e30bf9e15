package valores

import (
	"fmt"
	"strings"
	"time"
)

// Formatos aceitos, sempre com o dia antes do mês quando ambíguo.
var layoutsData = []string{
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02-01-2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"20060102",
}

var mesesPTBR = [...]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// ParseData interpreta uma data com dia primeiro ("01/02/2024" é 1º de fevereiro).
func ParseData(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layoutsData {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, &FormatError{Tipo: "data", Valor: s}
}

// SomenteData descarta hora e fuso, mantendo o dia do calendário em UTC.
func SomenteData(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DataISO formata como YYYY-MM-DD.
func DataISO(t time.Time) string {
	return t.Format("2006-01-02")
}

// Competencia devolve o período YYYY-MM ao qual a data pertence.
func Competencia(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01")
}

// CompetenciaBR devolve a competência para exibição, ex.: "Fev-2024".
func CompetenciaBR(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s-%d", mesesPTBR[t.Month()-1], t.Year())
}

// CompetenciaBRDe converte "2024-02" em "Fev-2024"; devolve "" se não reconhecer.
func CompetenciaBRDe(competencia string) string {
	t, err := time.Parse("2006-01", strings.TrimSpace(competencia))
	if err != nil {
		return ""
	}
	return CompetenciaBR(t)
}
