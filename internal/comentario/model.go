package comentario

import "gorm.io/gorm"

// Comentario é uma anotação no histórico de um lançamento do extrato.
// Sistema marca registros gerados pela aplicação (ex.: desconsolidação).
type Comentario struct {
	gorm.Model
	Texto        string `gorm:"size:1000;not null" json:"texto"`
	LancamentoID uint   `gorm:"index;not null" json:"lancamentoId"`
	Autor        string `gorm:"size:100" json:"autor"`
	Sistema      bool   `gorm:"default:false" json:"sistema"`
}

func (Comentario) TableName() string { return "comentarios_lancamento" }

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Comentario{})
}

// RegistrarSistema grava um comentário automático. Recebe o db da transação em curso.
func RegistrarSistema(db *gorm.DB, lancamentoID uint, texto string) error {
	return NewRepository().Criar(db, &Comentario{
		Texto:        texto,
		LancamentoID: lancamentoID,
		Sistema:      true,
	})
}
