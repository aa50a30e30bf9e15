package extrato

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stik/comissys/internal/chave"
	"github.com/stik/comissys/internal/comissao"
	"github.com/stik/comissys/internal/fonte"
	"github.com/stik/comissys/internal/valores"
)

// CriadoPorSincronizacao identifica linhas inseridas pela sincronização automática.
const CriadoPorSincronizacao = "Sync-Auto"

// Lancamento é uma linha do extrato de comissões.
//
// A coluna chave é única entre as linhas não consolidadas; linhas consolidadas
// saem desse espaço de chaves e podem repetir a chave de uma linha ativa.
type Lancamento struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Chave       string `gorm:"size:800;not null;index:idx_extrato_chave_ativa,unique,where:consolidado = false;index:idx_extrato_chave" json:"chave"`
	Competencia string `gorm:"size:7;index" json:"competencia"`

	Documento     string     `gorm:"size:60;not null" json:"documento"`
	VendedorID    *int64     `json:"vendedorId,omitempty"`
	Vendedor      string     `gorm:"size:200;not null;index" json:"vendedor"`
	Titulo        string     `gorm:"size:255" json:"titulo"`
	Cliente       string     `gorm:"size:200" json:"cliente"`
	Artigo        string     `gorm:"size:255" json:"artigo"`
	ArtigoMaeID   int64      `gorm:"not null;default:0" json:"artigoMaeId"`
	LinhaProduto  string     `gorm:"size:200" json:"linha"`
	UF            string     `gorm:"size:60" json:"uf"`
	MeioPagamento string     `gorm:"size:100" json:"meioPagamento"`
	Emissao       *time.Time `gorm:"type:date" json:"emissao,omitempty"`
	Vencimento    *time.Time `gorm:"type:date" json:"vencimento,omitempty"`
	Recebimento   time.Time  `gorm:"type:date;not null;index" json:"recebimento"`

	Recebido           decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0" json:"recebido"`
	ICMSST             decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0" json:"icmsst"`
	Frete              decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0" json:"frete"`
	RecebimentoLiquido decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0" json:"recebimentoLiquido"`
	PrecoMedio         decimal.Decimal `gorm:"type:numeric(19,4);not null;default:0" json:"precoMedio"`
	PrecoVenda         decimal.Decimal `gorm:"type:numeric(19,4);not null;default:0" json:"precoVenda"`
	PrazoMedio         decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0" json:"prazoMedio"`
	PercentualPadrao   decimal.Decimal `gorm:"type:numeric(9,4);not null;default:0" json:"percentualPadrao"`
	PercentualComissao decimal.Decimal `gorm:"type:numeric(9,4);not null;default:0" json:"percentualComissao"`
	ValorComissao      decimal.Decimal `gorm:"type:numeric(19,2);not null;default:0" json:"valorComissao"`
	ValorManual        bool            `gorm:"not null;default:false" json:"valorManual"`

	Observacao string `gorm:"size:500" json:"observacao"`
	CriadoPor  string `gorm:"size:100" json:"criadoPor"`

	Validado    bool       `gorm:"not null;default:false;index" json:"validado"`
	ValidadoPor *string    `gorm:"size:100" json:"validadoPor,omitempty"`
	ValidadoEm  *time.Time `json:"validadoEm,omitempty"`
	Consolidado bool       `gorm:"not null;default:false;index" json:"consolidado"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Lancamento) TableName() string { return "extrato_comissoes" }

// Migrate cria a tabela no banco de dados.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Lancamento{})
}

// ChaveNormalizada reconstrói a chave a partir dos campos de identidade.
func (l Lancamento) ChaveNormalizada() (chave.Chave, error) {
	return chave.Construir(l.Documento, l.Artigo, l.Titulo, l.Vendedor, l.Recebimento)
}

// Recalcular aplica o percentual e recalcula o valor da comissão.
func (l *Lancamento) Recalcular(percentual decimal.Decimal) {
	l.PercentualComissao = valores.RoundHalfUp(percentual, valores.EscalaPercentual)
	l.ValorComissao = comissao.Calcular(l.RecebimentoLiquido, l.PercentualComissao)
	l.ValorManual = false
}

// NovoDaFonte monta uma linha não validada a partir de um título do ERP.
func NovoDaFonte(f fonte.Linha) (*Lancamento, error) {
	k, err := f.Chave()
	if err != nil {
		return nil, err
	}
	return &Lancamento{
		Chave:              k.String(),
		Competencia:        valores.Competencia(f.Recebimento),
		Documento:          f.Documento,
		VendedorID:         f.VendedorID,
		Vendedor:           f.Vendedor,
		Titulo:             f.Titulo,
		Cliente:            truncar(f.Cliente, 200),
		Artigo:             f.Artigo,
		ArtigoMaeID:        f.ArtigoMaeID,
		LinhaProduto:       truncar(f.LinhaProduto, 200),
		UF:                 f.UF,
		MeioPagamento:      truncar(f.MeioPagamento, 100),
		Emissao:            f.Emissao,
		Vencimento:         f.Vencimento,
		Recebimento:        valores.SomenteData(f.Recebimento),
		Recebido:           f.Recebido,
		ICMSST:             f.ICMSST,
		Frete:              f.Frete,
		RecebimentoLiquido: f.RecebimentoLiquido,
		PrecoMedio:         f.PrecoMedio,
		PrecoVenda:         f.PrecoVenda,
		PrazoMedio:         f.PrazoMedio,
		PercentualPadrao:   f.PercentualPadrao,
	}, nil
}

func truncar(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
