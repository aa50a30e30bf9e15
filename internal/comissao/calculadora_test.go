package comissao

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalcular(t *testing.T) {
	cases := []struct {
		liquido, percentual, want string
	}{
		{"0", "0", "0"},
		{"0", "5", "0"},
		{"100.00", "0", "0"},
		{"100.00", "0.01", "0.01"},
		{"100.00", "5", "5.00"},
		{"100.00", "100", "100.00"},
		{"1234.565", "0", "0"},
		{"1234.565", "0.01", "0.12"},
		{"1234.565", "5", "61.73"},
		{"1234.565", "100", "1234.57"},
		{"10.10", "7.5", "0.76"},
	}
	for _, tc := range cases {
		got := Calcular(d(tc.liquido), d(tc.percentual))
		assert.True(t, d(tc.want).Equal(got), "%s x %s%% = %s, esperado %s", tc.liquido, tc.percentual, got, tc.want)
	}
}

func TestCalcularDeterministico(t *testing.T) {
	a := Calcular(d("1234.565"), d("5"))
	b := Calcular(d("1234.565"), d("5"))
	assert.True(t, a.Equal(b))
	assert.Equal(t, "61.73", a.StringFixed(2))
}

func TestCalcularPercentualForaDoIntervalo(t *testing.T) {
	// aceito sem validação
	assert.Equal(t, "150.00", Calcular(d("100"), d("150")).StringFixed(2))
	assert.Equal(t, "-5.00", Calcular(d("100"), d("-5")).StringFixed(2))
}

func TestResolverPercentualPadraoLimites(t *testing.T) {
	faixas := []Faixa{{GrupoRegiao: 1, Minimo: d("1000"), Maximo: d("2000"), Percentual: d("3.5")}}

	assert.True(t, d("3.5").Equal(ResolverPercentualPadrao(1, d("1000"), faixas)))
	assert.True(t, d("3.5").Equal(ResolverPercentualPadrao(1, d("2000.00"), faixas)))
	assert.True(t, d("3.5").Equal(ResolverPercentualPadrao(1, d("2000.0001"), faixas)))
	assert.True(t, PercentualFallback.Equal(ResolverPercentualPadrao(1, d("2000.01"), faixas)))
	assert.True(t, PercentualFallback.Equal(ResolverPercentualPadrao(1, d("999.99"), faixas)))
	assert.True(t, PercentualFallback.Equal(ResolverPercentualPadrao(2, d("1500"), faixas)))
}

func TestResolverPercentualPadraoFaixaZeradaNuncaCasa(t *testing.T) {
	faixas := []Faixa{
		{GrupoRegiao: 1, Minimo: d("0"), Maximo: d("2000"), Percentual: d("9")},
		{GrupoRegiao: 1, Minimo: d("10"), Maximo: d("0"), Percentual: d("8")},
	}
	assert.True(t, PercentualFallback.Equal(ResolverPercentualPadrao(1, d("5"), faixas)))
	assert.True(t, PercentualFallback.Equal(ResolverPercentualPadrao(1, d("1500"), faixas)))
}

func TestResolverPercentualPadraoValorNaoPositivo(t *testing.T) {
	faixas := []Faixa{{GrupoRegiao: 1, Minimo: d("-10"), Maximo: d("10"), Percentual: d("2")}}
	assert.True(t, PercentualFallback.Equal(ResolverPercentualPadrao(1, d("0"), faixas)))
	assert.True(t, PercentualFallback.Equal(ResolverPercentualPadrao(1, d("-1"), faixas)))
}

func TestResolverPercentualPadraoPrimeiraFaixaVence(t *testing.T) {
	faixas := []Faixa{
		{GrupoRegiao: 3, Minimo: d("1"), Maximo: d("100"), Percentual: d("4")},
		{GrupoRegiao: 3, Minimo: d("50"), Maximo: d("150"), Percentual: d("6")},
	}
	assert.True(t, d("4").Equal(ResolverPercentualPadrao(3, d("75"), faixas)))
	assert.True(t, d("6").Equal(ResolverPercentualPadrao(3, d("120"), faixas)))
}

func TestResolverPercentualPadraoArtigo(t *testing.T) {
	faixas := []Faixa{
		{GrupoRegiao: 4, ArtigoMaeID: 10, Minimo: d("1"), Maximo: d("100"), Percentual: d("2")},
		{GrupoRegiao: 4, ArtigoMaeID: 0, Minimo: d("1"), Maximo: d("100"), Percentual: d("3")},
	}
	assert.True(t, d("2").Equal(ResolverPercentualPadraoArtigo(4, 10, d("50"), faixas)))
	assert.True(t, d("3").Equal(ResolverPercentualPadraoArtigo(4, 11, d("50"), faixas)))
}

func TestTabelaRegioes(t *testing.T) {
	tab := NovaTabelaRegioes(nil)
	assert.Equal(t, 1, tab.Grupo("BAHIA"))
	assert.Equal(t, 1, tab.Grupo(" MARANHAO "))
	assert.Equal(t, 2, tab.Grupo("Rio Grande do Sul"))
	assert.Equal(t, 3, tab.Grupo("Goiás"))
	assert.Equal(t, 3, tab.Grupo("SP"))
	assert.Equal(t, 4, tab.Grupo("PE"))
	assert.Equal(t, 5, tab.Grupo("CE"))
	assert.Equal(t, GrupoDesconhecido, tab.Grupo("Bahia"))
	assert.Equal(t, GrupoDesconhecido, tab.Grupo("São Paulo"))

	custom := NovaTabelaRegioes(map[string]int{"Bahia": 7})
	assert.Equal(t, 7, custom.Grupo("Bahia"))
	assert.Equal(t, GrupoDesconhecido, custom.Grupo("BAHIA"))
}
