// Package fonte lê os títulos recebidos do ERP (TopManager) para um período e vendedor.
package fonte

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stik/comissys/internal/chave"
	"github.com/stik/comissys/internal/valores"
)

// Escopo delimita uma consulta ou sincronização: período de recebimento e vendedor opcional.
type Escopo struct {
	Inicio   time.Time `json:"inicio"`
	Fim      time.Time `json:"fim"`
	Vendedor string    `json:"vendedor,omitempty"`
}

// NovoEscopo interpreta as datas (dia primeiro) e valida o intervalo.
func NovoEscopo(inicio, fim, vendedor string) (Escopo, error) {
	i, err := valores.ParseData(inicio)
	if err != nil {
		return Escopo{}, errors.New("inicio inválido")
	}
	f, err := valores.ParseData(fim)
	if err != nil {
		return Escopo{}, errors.New("fim inválido")
	}
	if f.Before(i) {
		return Escopo{}, errors.New("fim anterior ao início")
	}
	return Escopo{Inicio: i, Fim: f, Vendedor: strings.TrimSpace(vendedor)}, nil
}

// Contem indica se a data e o vendedor caem dentro do escopo (Fim inclusivo, por dia).
func (e Escopo) Contem(recebimento time.Time, vendedor string) bool {
	dia := valores.SomenteData(recebimento)
	if dia.Before(e.Inicio) || !dia.Before(e.FimExclusivo()) {
		return false
	}
	return e.Vendedor == "" || strings.EqualFold(strings.TrimSpace(vendedor), strings.TrimSpace(e.Vendedor))
}

// FimExclusivo é o dia seguinte a Fim, para filtros "< fim".
func (e Escopo) FimExclusivo() time.Time {
	return e.Fim.AddDate(0, 0, 1)
}

// Descricao é usada em logs e relatórios.
func (e Escopo) Descricao() string {
	v := e.Vendedor
	if v == "" {
		v = "TODOS"
	}
	return e.Inicio.Format("02/01/2006") + " a " + e.Fim.Format("02/01/2006") + " - " + v
}

// Linha é um título recebido no ERP. É somente leitura e carrega o percentual padrão
// resolvido pelas faixas em vez de um percentual gravado.
type Linha struct {
	Documento          string          `json:"documento"`
	VendedorID         *int64          `json:"vendedorId,omitempty"`
	Vendedor           string          `json:"vendedor"`
	Titulo             string          `json:"titulo"`
	Cliente            string          `json:"cliente"`
	UF                 string          `json:"uf"`
	ArtigoMaeID        int64           `json:"artigoMaeId"`
	Artigo             string          `json:"artigo"`
	LinhaProduto       string          `json:"linha"`
	Recebido           decimal.Decimal `json:"recebido"`
	ICMSST             decimal.Decimal `json:"icmsst"`
	Frete              decimal.Decimal `json:"frete"`
	RecebimentoLiquido decimal.Decimal `json:"recebimentoLiquido"`
	PrazoMedio         decimal.Decimal `json:"prazoMedio"`
	PrecoMedio         decimal.Decimal `json:"precoMedio"`
	PrecoVenda         decimal.Decimal `json:"precoVenda"`
	MeioPagamento      string          `json:"meioPagamento"`
	Emissao            *time.Time      `json:"emissao,omitempty"`
	Vencimento         *time.Time      `json:"vencimento,omitempty"`
	Recebimento        time.Time       `json:"recebimento"`
	PercentualPadrao   decimal.Decimal `json:"percentualPadrao"`
}

// Chave devolve a identidade normalizada da linha.
func (l Linha) Chave() (chave.Chave, error) {
	return chave.Construir(l.Documento, l.Artigo, l.Titulo, l.Vendedor, l.Recebimento)
}

// Fonte é qualquer origem de títulos recebidos.
type Fonte interface {
	Buscar(ctx context.Context, escopo Escopo) ([]Linha, error)
}

// PercentualResolver resolve o percentual padrão pela tabela de faixas.
type PercentualResolver interface {
	PercentualPadrao(ctx context.Context, uf string, artigoMae int64, valorVenda decimal.Decimal) (decimal.Decimal, error)
}
