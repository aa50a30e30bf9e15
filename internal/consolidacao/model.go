// Package consolidacao fecha lotes validados do extrato e mantém o espelho consolidado.
package consolidacao

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stik/comissys/internal/extrato"
)

// Consolidado é a cópia imutável de uma linha no momento da consolidação.
type Consolidado struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	LancamentoID uint   `gorm:"not null;uniqueIndex" json:"lancamentoId"`
	Chave        string `gorm:"size:800;not null;index" json:"chave"`
	Competencia  string `gorm:"size:7;index" json:"competencia"`

	Documento   string    `gorm:"size:60;not null" json:"documento"`
	Vendedor    string    `gorm:"size:200;not null;index" json:"vendedor"`
	Titulo      string    `gorm:"size:255" json:"titulo"`
	Cliente     string    `gorm:"size:200" json:"cliente"`
	Artigo      string    `gorm:"size:255" json:"artigo"`
	UF          string    `gorm:"size:60" json:"uf"`
	Recebimento time.Time `gorm:"type:date;not null" json:"recebimento"`

	RecebimentoLiquido decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0" json:"recebimentoLiquido"`
	PercentualComissao decimal.Decimal `gorm:"type:numeric(9,4);not null;default:0" json:"percentualComissao"`
	ValorComissao      decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0" json:"valorComissao"`
	Observacao         string          `gorm:"size:500" json:"observacao"`

	ValidadoPor    *string    `gorm:"size:100" json:"validadoPor,omitempty"`
	ValidadoEm     *time.Time `json:"validadoEm,omitempty"`
	ConsolidadoPor string     `gorm:"size:100" json:"consolidadoPor"`
	ConsolidadoEm  time.Time  `json:"consolidadoEm"`
}

func (Consolidado) TableName() string { return "comissoes_consolidadas" }

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Consolidado{})
}

func espelho(l extrato.Lancamento, ator string, em time.Time) *Consolidado {
	return &Consolidado{
		LancamentoID:       l.ID,
		Chave:              l.Chave,
		Competencia:        l.Competencia,
		Documento:          l.Documento,
		Vendedor:           l.Vendedor,
		Titulo:             l.Titulo,
		Cliente:            l.Cliente,
		Artigo:             l.Artigo,
		UF:                 l.UF,
		Recebimento:        l.Recebimento,
		RecebimentoLiquido: l.RecebimentoLiquido,
		PercentualComissao: l.PercentualComissao,
		ValorComissao:      l.ValorComissao,
		Observacao:         l.Observacao,
		ValidadoPor:        l.ValidadoPor,
		ValidadoEm:         l.ValidadoEm,
		ConsolidadoPor:     ator,
		ConsolidadoEm:      em,
	}
}
