package comissao

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Faixa é uma linha da tabela rateada: (grupo de região, artigo mãe, intervalo de preço de venda) -> percentual.
type Faixa struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	GrupoRegiao int             `gorm:"not null;index" json:"grupoRegiao"`
	ArtigoMaeID int64           `gorm:"not null;default:0;index" json:"artigoMaeId"`
	Minimo      decimal.Decimal `gorm:"type:numeric(19,4);not null" json:"minimo"`
	Maximo      decimal.Decimal `gorm:"type:numeric(19,4);not null" json:"maximo"`
	Percentual  decimal.Decimal `gorm:"type:numeric(9,4);not null" json:"percentual"`
	Ordem       int             `gorm:"not null;default:0" json:"ordem"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (Faixa) TableName() string { return "faixas_percentuais" }

// Migrate cria a tabela no banco de dados.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Faixa{})
}
