package consolidacao

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) WithDB(db *gorm.DB) *Repository {
	if db == nil {
		db = r.DB
	}
	return &Repository{DB: db}
}

func (r *Repository) Create(ctx context.Context, c *Consolidado) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

// DeleteByLancamento remove o espelho de uma linha do extrato.
func (r *Repository) DeleteByLancamento(ctx context.Context, lancamentoID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Where("lancamento_id = ?", lancamentoID).Delete(&Consolidado{})
	return res.RowsAffected, res.Error
}

// Listar filtra por competência (YYYY-MM) e vendedor; vazios não filtram.
func (r *Repository) Listar(ctx context.Context, competencia, vendedor string) ([]Consolidado, error) {
	q := r.DB.WithContext(ctx)
	if competencia != "" {
		q = q.Where("competencia = ?", competencia)
	}
	if v := strings.TrimSpace(vendedor); v != "" {
		q = q.Where("LOWER(vendedor) = ?", strings.ToLower(v))
	}
	var cs []Consolidado
	err := q.Order("competencia DESC, vendedor, recebimento, documento").Find(&cs).Error
	return cs, err
}
