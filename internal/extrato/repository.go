package extrato

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stik/comissys/internal/fonte"
)

// Repository encapsula o acesso ao extrato de comissões.
type Repository struct {
	DB *gorm.DB
}

// NewRepository instancia um novo repositório.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// WithDB retorna uma cópia do repo usando um *gorm.DB específico (ex.: tx).
func (r *Repository) WithDB(db *gorm.DB) *Repository {
	if db == nil {
		db = r.DB
	}
	return &Repository{DB: db}
}

// Filtro para listagens do extrato.
type Filtro struct {
	Competencia string
	Vendedor    string
	// IncluirConsolidados traz também as linhas já consolidadas.
	IncluirConsolidados bool
}

/* ============================== Consultas ============================== */

func (r *Repository) escopo(ctx context.Context, e fonte.Escopo) *gorm.DB {
	q := r.DB.WithContext(ctx).
		Where("recebimento >= ? AND recebimento < ?", e.Inicio, e.FimExclusivo())
	if v := strings.TrimSpace(e.Vendedor); v != "" {
		q = q.Where("LOWER(vendedor) = ?", strings.ToLower(v))
	}
	return q
}

// ListarAtivos devolve as linhas não consolidadas do escopo.
func (r *Repository) ListarAtivos(ctx context.Context, e fonte.Escopo) ([]Lancamento, error) {
	var ls []Lancamento
	err := r.escopo(ctx, e).
		Where("consolidado = ?", false).
		Order("vendedor, documento, recebimento").
		Find(&ls).Error
	return ls, err
}

// ChavesNoEscopo devolve as chaves de todas as linhas do escopo, inclusive consolidadas.
func (r *Repository) ChavesNoEscopo(ctx context.Context, e fonte.Escopo) (map[string]struct{}, error) {
	var chaves []string
	if err := r.escopo(ctx, e).Model(&Lancamento{}).Pluck("chave", &chaves).Error; err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(chaves))
	for _, c := range chaves {
		out[c] = struct{}{}
	}
	return out, nil
}

// Listar atende a tela do extrato.
func (r *Repository) Listar(ctx context.Context, f Filtro) ([]Lancamento, error) {
	q := r.DB.WithContext(ctx)
	if !f.IncluirConsolidados {
		q = q.Where("consolidado = ?", false)
	}
	if f.Competencia != "" {
		q = q.Where("competencia = ?", f.Competencia)
	}
	if v := strings.TrimSpace(f.Vendedor); v != "" {
		q = q.Where("LOWER(vendedor) = ?", strings.ToLower(v))
	}
	var ls []Lancamento
	err := q.Order("vendedor, recebimento, documento").Find(&ls).Error
	return ls, err
}

// FindByID busca uma única linha.
func (r *Repository) FindByID(ctx context.Context, id uint) (*Lancamento, error) {
	var l Lancamento
	if err := r.DB.WithContext(ctx).First(&l, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNaoEncontrado
		}
		return nil, err
	}
	return &l, nil
}

// FindByIDs busca as linhas pedidas; ids inexistentes simplesmente não voltam.
func (r *Repository) FindByIDs(ctx context.Context, ids []uint) ([]Lancamento, error) {
	var ls []Lancamento
	if len(ids) == 0 {
		return ls, nil
	}
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&ls).Error
	return ls, err
}

// PercentualAnterior devolve o último percentual gravado para a chave em qualquer
// linha do extrato, consolidada ou não. nil quando a chave nunca apareceu.
func (r *Repository) PercentualAnterior(ctx context.Context, chave string) (*decimal.Decimal, error) {
	var ls []Lancamento
	err := r.DB.WithContext(ctx).
		Select("id", "percentual_comissao").
		Where("chave = ?", chave).
		Order("id DESC").
		Limit(1).
		Find(&ls).Error
	if err != nil || len(ls) == 0 {
		return nil, err
	}
	return &ls[0].PercentualComissao, nil
}

// ExisteChaveAtiva indica se já há linha não consolidada com a chave.
func (r *Repository) ExisteChaveAtiva(ctx context.Context, chave string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&Lancamento{}).
		Where("chave = ? AND consolidado = ?", chave, false).
		Count(&n).Error
	return n > 0, err
}

/* ============================== Escrita ============================== */

// Create grava uma linha nova.
func (r *Repository) Create(ctx context.Context, l *Lancamento) error {
	return r.DB.WithContext(ctx).Create(l).Error
}

// DeleteSeNaoConsolidado apaga a linha somente se ela ainda não estiver consolidada
// no momento do DELETE. Devolve as linhas afetadas (0 ou 1).
func (r *Repository) DeleteSeNaoConsolidado(ctx context.Context, id uint) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND consolidado = ?", id, false).
		Delete(&Lancamento{})
	return res.RowsAffected, res.Error
}

// AtualizarComissao grava percentual, valor e observação de uma linha não consolidada.
func (r *Repository) AtualizarComissao(ctx context.Context, l *Lancamento) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&Lancamento{}).
		Where("id = ? AND consolidado = ?", l.ID, false).
		Updates(map[string]interface{}{
			"percentual_comissao": l.PercentualComissao,
			"valor_comissao":      l.ValorComissao,
			"valor_manual":        l.ValorManual,
			"observacao":          l.Observacao,
		})
	return res.RowsAffected, res.Error
}

// MarcarValidados valida as linhas não consolidadas dentre ids.
func (r *Repository) MarcarValidados(ctx context.Context, ids []uint, ator string, em time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.DB.WithContext(ctx).Model(&Lancamento{}).
		Where("id IN ? AND consolidado = ?", ids, false).
		Updates(map[string]interface{}{
			"validado":     true,
			"validado_por": ator,
			"validado_em":  em,
		})
	return res.RowsAffected, res.Error
}

// MarcarConsolidado vira a flag de uma linha validada e ainda ativa.
func (r *Repository) MarcarConsolidado(ctx context.Context, id uint) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&Lancamento{}).
		Where("id = ? AND consolidado = ? AND validado = ?", id, false, true).
		Update("consolidado", true)
	return res.RowsAffected, res.Error
}

// DesmarcarConsolidado devolve a linha ao estado validado.
func (r *Repository) DesmarcarConsolidado(ctx context.Context, id uint) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&Lancamento{}).
		Where("id = ? AND consolidado = ?", id, true).
		Update("consolidado", false)
	return res.RowsAffected, res.Error
}
