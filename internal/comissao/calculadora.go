package comissao

import (
	"github.com/shopspring/decimal"

	"github.com/stik/comissys/internal/valores"
)

var (
	cem = decimal.NewFromInt(100)

	// PercentualFallback é usado quando nenhuma faixa casa ou o valor de venda não é positivo.
	PercentualFallback = decimal.RequireFromString("0.01")
	// PercentualSincronizacao é o percentual de uma linha nova quando nada é conhecido sobre ela.
	PercentualSincronizacao = decimal.NewFromInt(5)
	// EpsilonFaixa é a folga aceita acima do máximo da faixa.
	EpsilonFaixa = decimal.RequireFromString("0.0001")
)

// Calcular devolve round_half_up(liquido * percentual / 100, 2).
// Percentuais fora de 0-100 não são rejeitados; limitar é responsabilidade do chamador.
func Calcular(recebimentoLiquido, percentual decimal.Decimal) decimal.Decimal {
	return valores.RoundHalfUp(recebimentoLiquido.Mul(percentual).Div(cem), valores.EscalaMoeda)
}

// ResolverPercentualPadrao devolve o percentual da primeira faixa do grupo de região
// cujo intervalo [min, max+epsilon] contém valorVenda. Faixas com min ou max zerados
// nunca casam. Sem faixa, ou com valorVenda <= 0, devolve PercentualFallback.
func ResolverPercentualPadrao(grupo int, valorVenda decimal.Decimal, faixas []Faixa) decimal.Decimal {
	return ResolverPercentualPadraoArtigo(grupo, 0, valorVenda, faixas)
}

// ResolverPercentualPadraoArtigo também filtra pelo artigo mãe. artigoMae == 0 não filtra;
// faixa com ArtigoMaeID == 0 vale para qualquer artigo.
func ResolverPercentualPadraoArtigo(grupo int, artigoMae int64, valorVenda decimal.Decimal, faixas []Faixa) decimal.Decimal {
	if !valorVenda.IsPositive() {
		return PercentualFallback
	}
	for _, f := range faixas {
		if f.GrupoRegiao != grupo {
			continue
		}
		if artigoMae != 0 && f.ArtigoMaeID != 0 && f.ArtigoMaeID != artigoMae {
			continue
		}
		if f.Minimo.IsZero() || f.Maximo.IsZero() {
			continue
		}
		if valorVenda.GreaterThanOrEqual(f.Minimo) && valorVenda.LessThanOrEqual(f.Maximo.Add(EpsilonFaixa)) {
			return f.Percentual
		}
	}
	return PercentualFallback
}
