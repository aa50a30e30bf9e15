package comissao

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

const chaveCacheFaixas = "faixas"

// Resolvedor calcula o percentual padrão de uma linha do ERP a partir das faixas
// gravadas no banco, mantidas em cache até a próxima alteração.
type Resolvedor struct {
	repo    *Repository
	regioes *TabelaRegioes
	cache   *cache.Cache
}

func NovoResolvedor(repo *Repository, regioes *TabelaRegioes, ttl time.Duration) *Resolvedor {
	return &Resolvedor{
		repo:    repo,
		regioes: regioes,
		cache:   cache.New(ttl, 2*ttl),
	}
}

// Faixas devolve as faixas ordenadas, do cache quando possível.
func (r *Resolvedor) Faixas(ctx context.Context) ([]Faixa, error) {
	if v, ok := r.cache.Get(chaveCacheFaixas); ok {
		return v.([]Faixa), nil
	}
	faixas, err := r.repo.ListarOrdenadas(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(chaveCacheFaixas, faixas)
	return faixas, nil
}

// Invalidar descarta o cache; chamar depois de qualquer alteração de faixa.
func (r *Resolvedor) Invalidar() {
	r.cache.Delete(chaveCacheFaixas)
}

// Grupo expõe a tabela de regiões.
func (r *Resolvedor) Grupo(uf string) int {
	return r.regioes.Grupo(uf)
}

// PercentualPadrao resolve o percentual para a UF, artigo mãe e preço de venda informados.
func (r *Resolvedor) PercentualPadrao(ctx context.Context, uf string, artigoMae int64, valorVenda decimal.Decimal) (decimal.Decimal, error) {
	faixas, err := r.Faixas(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return ResolverPercentualPadraoArtigo(r.regioes.Grupo(uf), artigoMae, valorVenda, faixas), nil
}
