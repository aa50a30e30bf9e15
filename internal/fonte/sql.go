package fonte

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stik/comissys/internal/logger"
	"github.com/stik/comissys/internal/valores"
)

// linhaERP espelha as colunas finais da consulta de títulos recebidos do TopManager.
type linhaERP struct {
	ID                 string              `gorm:"column:ID"`
	VendedorID         *int64              `gorm:"column:VendedorID"`
	Vendedor           string              `gorm:"column:Vendedor"`
	Titulo             string              `gorm:"column:Titulo"`
	Cliente            string              `gorm:"column:Cliente"`
	UF                 string              `gorm:"column:UF"`
	CdObjMae           *int64              `gorm:"column:CdObjMae"`
	Artigo             string              `gorm:"column:Artigo"`
	Linha              string              `gorm:"column:Linha"`
	Recebido           decimal.NullDecimal `gorm:"column:Recebido"`
	ICMSST             decimal.NullDecimal `gorm:"column:ICMSST"`
	Frete              decimal.NullDecimal `gorm:"column:Frete"`
	RecLiquido         decimal.NullDecimal `gorm:"column:Rec Liquido"`
	PrazoMedio         decimal.NullDecimal `gorm:"column:Prazo Médio"`
	PrecoMedio         decimal.NullDecimal `gorm:"column:Preço Médio"`
	PrecoVenda         decimal.NullDecimal `gorm:"column:Preço Venda"`
	MeioPagamento      *string             `gorm:"column:M Pagamento"`
	Emissao            *time.Time          `gorm:"column:Emissão"`
	Vencimento         *time.Time          `gorm:"column:Vencimento"`
	Recebimento        *time.Time          `gorm:"column:Recebimento"`
	PercentualComissao decimal.NullDecimal `gorm:"column:Percentual_Comissao"`
}

// SQLFonte executa a consulta do ERP como caixa-preta. A consulta recebe os
// parâmetros nomeados @inicio, @fim (yyyymmdd) e @vendedor ('' para todos).
type SQLFonte struct {
	DB         *gorm.DB
	Query      string
	Resolvedor PercentualResolver
}

// NewSQLFonte lê a consulta de queryPath.
func NewSQLFonte(db *gorm.DB, queryPath string, resolvedor PercentualResolver) (*SQLFonte, error) {
	raw, err := os.ReadFile(queryPath)
	if err != nil {
		return nil, fmt.Errorf("ler consulta do ERP: %w", err)
	}
	return &SQLFonte{DB: db, Query: string(raw), Resolvedor: resolvedor}, nil
}

func (f *SQLFonte) Buscar(ctx context.Context, escopo Escopo) ([]Linha, error) {
	var rows []linhaERP
	err := f.DB.WithContext(ctx).Raw(f.Query, map[string]interface{}{
		"inicio":   escopo.Inicio.Format("20060102"),
		"fim":      escopo.Fim.Format("20060102"),
		"vendedor": strings.TrimSpace(escopo.Vendedor),
	}).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("consultar ERP (%s): %w", escopo.Descricao(), err)
	}

	linhas := make([]Linha, 0, len(rows))
	for _, r := range rows {
		if r.Recebimento == nil {
			logger.L.Warn("Título do ERP sem data de recebimento descartado", "documento", r.ID, "vendedor", r.Vendedor)
			continue
		}
		l := Linha{
			Documento:          documentoNumerico(r.ID),
			VendedorID:         r.VendedorID,
			Vendedor:           strings.TrimSpace(r.Vendedor),
			Titulo:             r.Titulo,
			Cliente:            r.Cliente,
			UF:                 r.UF,
			Artigo:             r.Artigo,
			LinhaProduto:       r.Linha,
			Recebido:           moeda(r.Recebido),
			ICMSST:             moeda(r.ICMSST),
			Frete:              moeda(r.Frete),
			RecebimentoLiquido: moeda(r.RecLiquido),
			PrazoMedio:         moeda(r.PrazoMedio),
			PrecoMedio:         preco(r.PrecoMedio),
			PrecoVenda:         preco(r.PrecoVenda),
			Emissao:            r.Emissao,
			Vencimento:         r.Vencimento,
			Recebimento:        *r.Recebimento,
		}
		if r.CdObjMae != nil {
			l.ArtigoMaeID = *r.CdObjMae
		}
		if r.MeioPagamento != nil {
			l.MeioPagamento = *r.MeioPagamento
		}
		if l.PrecoVenda.IsZero() {
			l.PrecoVenda = l.PrecoMedio
		}

		if err := definirPercentualPadrao(ctx, f.Resolvedor, &l, r.PercentualComissao); err != nil {
			return nil, err
		}
		linhas = append(linhas, l)
	}
	logger.L.Info("Títulos lidos do ERP", "escopo", escopo.Descricao(), "linhas", len(linhas))
	return linhas, nil
}

// definirPercentualPadrao usa as faixas locais quando há resolvedor; senão o
// percentual que a própria consulta trouxe.
func definirPercentualPadrao(ctx context.Context, res PercentualResolver, l *Linha, informado decimal.NullDecimal) error {
	if res != nil {
		p, err := res.PercentualPadrao(ctx, l.UF, l.ArtigoMaeID, l.PrecoVenda)
		if err != nil {
			return fmt.Errorf("resolver percentual padrão: %w", err)
		}
		l.PercentualPadrao = p
		return nil
	}
	if informado.Valid {
		l.PercentualPadrao = valores.RoundHalfUp(informado.Decimal, valores.EscalaPercentual)
	}
	return nil
}

func moeda(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return valores.RoundHalfUp(d.Decimal, valores.EscalaMoeda)
}

func preco(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return valores.RoundHalfUp(d.Decimal, valores.EscalaPreco)
}

// documentoNumerico normaliza "000123" e "123" para a mesma forma quando o documento é numérico.
func documentoNumerico(s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return s
}
