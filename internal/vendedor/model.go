package vendedor

import (
	"gorm.io/gorm"

	"github.com/stik/comissys/internal/config"
)

// Vendedor é o cadastro de contato de um vendedor do ERP. Nome segue a grafia
// do TopManager; NomeNormalizado é a chave de busca.
type Vendedor struct {
	gorm.Model
	Nome            string `gorm:"size:150;not null" json:"nome"`
	NomeNormalizado string `gorm:"size:150;uniqueIndex" json:"-"`
	Email           string `gorm:"size:200" json:"email"`
	Telefone        string `gorm:"size:30" json:"telefone"`
	Ativo           bool   `gorm:"not null" json:"ativo"`
}

func (v *Vendedor) BeforeSave(*gorm.DB) error {
	v.NomeNormalizado = config.NormalizarVendedor(v.Nome)
	return nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Vendedor{})
}
