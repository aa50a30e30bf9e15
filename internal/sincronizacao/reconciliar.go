// Package sincronizacao compara os títulos do ERP com o extrato e aplica as diferenças.
package sincronizacao

import (
	"sort"

	"github.com/stik/comissys/internal/extrato"
	"github.com/stik/comissys/internal/fonte"
)

// Resultado da comparação por chave. Os conjuntos vêm ordenados.
type Resultado struct {
	Faltando    []string
	Sobrando    []string
	EmSincronia []string

	// LinhasFaltando traz a primeira linha do ERP de cada chave faltante.
	LinhasFaltando []fonte.Linha
	// LinhasSobrando traz toda linha do extrato cuja chave não existe no ERP.
	LinhasSobrando []extrato.Lancamento
	// Duplicadas são linhas do ERP descartadas por repetirem uma chave já vista.
	Duplicadas []fonte.Linha
	// Invalidas são linhas do ERP sem chave montável.
	Invalidas []fonte.Linha
}

// Reconciliar é uma operação de conjuntos sobre as chaves: faltando = ERP − extrato,
// sobrando = extrato − ERP, em sincronia = interseção. Não acessa banco.
func Reconciliar(erp []fonte.Linha, ext []extrato.Lancamento) Resultado {
	var res Resultado

	noExtrato := make(map[string]struct{}, len(ext))
	for _, l := range ext {
		noExtrato[l.Chave] = struct{}{}
	}

	noERP := make(map[string]struct{}, len(erp))
	for _, f := range erp {
		k, err := f.Chave()
		if err != nil {
			res.Invalidas = append(res.Invalidas, f)
			continue
		}
		ks := k.String()
		if _, visto := noERP[ks]; visto {
			res.Duplicadas = append(res.Duplicadas, f)
			continue
		}
		noERP[ks] = struct{}{}

		if _, ok := noExtrato[ks]; ok {
			res.EmSincronia = append(res.EmSincronia, ks)
			continue
		}
		res.Faltando = append(res.Faltando, ks)
		res.LinhasFaltando = append(res.LinhasFaltando, f)
	}

	sobrando := map[string]struct{}{}
	for _, l := range ext {
		if _, ok := noERP[l.Chave]; ok {
			continue
		}
		res.LinhasSobrando = append(res.LinhasSobrando, l)
		sobrando[l.Chave] = struct{}{}
	}
	for k := range sobrando {
		res.Sobrando = append(res.Sobrando, k)
	}

	sort.Strings(res.Faltando)
	sort.Strings(res.Sobrando)
	sort.Strings(res.EmSincronia)
	return res
}
