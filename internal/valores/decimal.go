package valores

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Escalas usadas no sistema.
const (
	EscalaMoeda      int32 = 2
	EscalaPercentual int32 = 4
	EscalaPreco      int32 = 4
	// SemEscala desliga a quantização em ParseDecimal.
	SemEscala int32 = -1
)

// FormatError indica um literal numérico ou de data que não pôde ser interpretado.
type FormatError struct {
	Tipo  string
	Valor string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s inválido: %q", e.Tipo, e.Valor)
}

func (e *FormatError) Unwrap() error { return e.Err }

// RoundHalfUp arredonda com empate para longe do zero (0,5 -> 1; -0,5 -> -1).
func RoundHalfUp(d decimal.Decimal, scale int32) decimal.Decimal {
	return d.Round(scale)
}

// ParseDecimal converte um numeral no formato brasileiro ("1.234,56") ou um tipo
// numérico nativo em decimal, quantizado em scale casas com arredondamento half-up.
// Vazio, "none" e nil devolvem (nil, nil). Não há fallback silencioso: um numeral
// malformado devolve *FormatError.
func ParseDecimal(v any, scale int32) (*decimal.Decimal, error) {
	var d decimal.Decimal
	switch x := v.(type) {
	case nil:
		return nil, nil
	case decimal.Decimal:
		d = x
	case *decimal.Decimal:
		if x == nil {
			return nil, nil
		}
		d = *x
	case int:
		d = decimal.NewFromInt(int64(x))
	case int32:
		d = decimal.NewFromInt32(x)
	case int64:
		d = decimal.NewFromInt(x)
	case float32:
		if naoFinito(float64(x)) {
			return nil, &FormatError{Tipo: "número", Valor: fmt.Sprint(x)}
		}
		d = decimal.NewFromFloat32(x)
	case float64:
		if naoFinito(x) {
			return nil, &FormatError{Tipo: "número", Valor: fmt.Sprint(x)}
		}
		d = decimal.NewFromFloat(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" || strings.EqualFold(s, "none") {
			return nil, nil
		}
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return nil, &FormatError{Tipo: "número", Valor: x, Err: err}
		}
		d = parsed
	default:
		return nil, &FormatError{Tipo: "número", Valor: fmt.Sprint(v)}
	}

	if scale >= 0 {
		d = RoundHalfUp(d, scale)
	}
	return &d, nil
}

func naoFinito(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}

// ParseDecimalOrZero é a política de borda "erro vira zero": devolve o erro para
// que o chamador registre, mas sempre entrega um valor utilizável.
func ParseDecimalOrZero(v any, scale int32) (decimal.Decimal, error) {
	d, err := ParseDecimal(v, scale)
	if err != nil || d == nil {
		return decimal.Zero, err
	}
	return *d, nil
}

// ParseDecimalLenient aceita também numerais com ponto decimal ("0.5081").
// Somente para exibição e caminhos legados; nunca para valores persistidos.
func ParseDecimalLenient(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if !(strings.Contains(s, ".") && !strings.Contains(s, ",")) {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// FormatBR formata no padrão brasileiro: "1.234,56".
func FormatBR(d decimal.Decimal, scale int32) string {
	if scale < 0 {
		scale = 0
	}
	s := d.StringFixed(scale)

	sinal := ""
	if strings.HasPrefix(s, "-") {
		sinal, s = "-", s[1:]
	}
	inteiro, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sinal)
	for i, c := range inteiro {
		if i > 0 && (len(inteiro)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}
