package comissao

import (
	"context"

	"gorm.io/gorm"
)

// Repository encapsula o acesso às faixas percentuais.
type Repository struct {
	DB *gorm.DB
}

// NewRepository instancia um novo repositório.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// ListarOrdenadas devolve as faixas na ordem em que a resolução deve percorrê-las.
func (r *Repository) ListarOrdenadas(ctx context.Context) ([]Faixa, error) {
	var faixas []Faixa
	err := r.DB.WithContext(ctx).
		Order("ordem ASC").
		Order("id ASC").
		Find(&faixas).Error
	return faixas, err
}

// Create grava uma nova faixa.
func (r *Repository) Create(ctx context.Context, f *Faixa) error {
	return r.DB.WithContext(ctx).Create(f).Error
}

// DeleteByID apaga a faixa; retorna gorm.ErrRecordNotFound se nada foi deletado.
func (r *Repository) DeleteByID(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&Faixa{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
