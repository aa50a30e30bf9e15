package extrato

import (
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/stik/comissys/internal/fonte"
	"github.com/stik/comissys/internal/valores"
)

// AdicionarDTO escolhe títulos da consulta ao ERP pelas chaves; os valores são
// relidos da fonte no servidor.
type AdicionarDTO struct {
	Inicio     string           `json:"inicio"`
	Fim        string           `json:"fim"`
	Vendedor   string           `json:"vendedor"`
	Chaves     []string         `json:"chaves"`
	Percentual *decimal.Decimal `json:"percentual"`
}

// TituloDTO é um título da consulta ao ERP com a chave usada para adicioná-lo.
type TituloDTO struct {
	fonte.Linha
	Chave string `json:"chave"`
}

func ToTituloDTOs(ls []fonte.Linha) []TituloDTO {
	out := make([]TituloDTO, 0, len(ls))
	for _, l := range ls {
		k, _ := l.Chave()
		out = append(out, TituloDTO{Linha: l, Chave: k.String()})
	}
	return out
}

type IDsDTO struct {
	IDs []uint `json:"ids"`
}

type PercentualDTO struct {
	IDs        []uint          `json:"ids"`
	Percentual decimal.Decimal `json:"percentual"`
}

// LancamentoDTO acrescenta campos de exibição à linha do extrato.
type LancamentoDTO struct {
	Lancamento
	Estado           string `json:"estado"`
	CompetenciaBR    string `json:"competenciaBr"`
	ValorComissaoBR  string `json:"valorComissaoBr"`
	RecebimentoLiqBR string `json:"recebimentoLiquidoBr"`
}

func ToDTO(l Lancamento) LancamentoDTO {
	return LancamentoDTO{
		Lancamento:       l,
		Estado:           EstadoDe(l).String(),
		CompetenciaBR:    valores.CompetenciaBRDe(l.Competencia),
		ValorComissaoBR:  valores.FormatBR(l.ValorComissao, valores.EscalaMoeda),
		RecebimentoLiqBR: valores.FormatBR(l.RecebimentoLiquido, valores.EscalaMoeda),
	}
}

func ToDTOs(ls []Lancamento) []LancamentoDTO {
	out := make([]LancamentoDTO, 0, len(ls))
	for _, l := range ls {
		out = append(out, ToDTO(l))
	}
	return out
}

// EscopoDaQuery lê inicio, fim e vendedor da query string.
func EscopoDaQuery(q url.Values) (fonte.Escopo, error) {
	return fonte.NovoEscopo(q.Get("inicio"), q.Get("fim"), q.Get("vendedor"))
}
