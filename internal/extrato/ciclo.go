package extrato

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Estado do ciclo de vida: NaoValidado -> Validado -> Consolidado.
type Estado int

const (
	NaoValidado Estado = iota
	Validado
	Consolidado
)

func (e Estado) String() string {
	switch e {
	case Validado:
		return "validado"
	case Consolidado:
		return "consolidado"
	default:
		return "nao_validado"
	}
}

// EstadoDe deriva o estado a partir das flags da linha.
func EstadoDe(l Lancamento) Estado {
	switch {
	case l.Consolidado:
		return Consolidado
	case l.Validado:
		return Validado
	default:
		return NaoValidado
	}
}

var (
	// ErrConsolidado é devolvido para qualquer alteração em linha consolidada.
	ErrConsolidado = errors.New("lançamento consolidado não pode ser alterado")
	// ErrNaoEncontrado indica id inexistente no extrato.
	ErrNaoEncontrado = errors.New("lançamento não encontrado")
)

// PodeAlterar diz se a linha aceita edição, validação ou remoção.
func (l Lancamento) PodeAlterar() error {
	if l.Consolidado {
		return ErrConsolidado
	}
	return nil
}

// ErroPrecondicao rejeita um lote de consolidação inteiro.
type ErroPrecondicao struct {
	OK          bool     `json:"ok"`
	Motivo      string   `json:"reason"`
	Vendedores  []string `json:"offendingSellers"`
	IDs         []uint   `json:"offendingIds"`
	Inexistente []uint   `json:"missingIds,omitempty"`
}

func (e *ErroPrecondicao) Error() string {
	return fmt.Sprintf("%s (vendedores: %s)", e.Motivo, strings.Join(e.Vendedores, ", "))
}

// VerificarConsolidacao confere o lote inteiro: todas as linhas pedidas existem,
// estão validadas e nenhuma já foi consolidada. Qualquer falha rejeita o lote.
func VerificarConsolidacao(pedidos []uint, lote []Lancamento) *ErroPrecondicao {
	if len(pedidos) == 0 {
		return &ErroPrecondicao{Motivo: "nenhum lançamento selecionado"}
	}

	porID := make(map[uint]Lancamento, len(lote))
	for _, l := range lote {
		porID[l.ID] = l
	}

	var (
		naoValidados   []Lancamento
		jaConsolidados []Lancamento
		inexistentes   []uint
	)
	for _, id := range pedidos {
		l, ok := porID[id]
		switch {
		case !ok:
			inexistentes = append(inexistentes, id)
		case l.Consolidado:
			jaConsolidados = append(jaConsolidados, l)
		case !l.Validado:
			naoValidados = append(naoValidados, l)
		}
	}

	if len(naoValidados) == 0 && len(jaConsolidados) == 0 && len(inexistentes) == 0 {
		return nil
	}

	var motivos []string
	if len(naoValidados) > 0 {
		motivos = append(motivos, fmt.Sprintf("%d lançamento(s) não validado(s)", len(naoValidados)))
	}
	if len(jaConsolidados) > 0 {
		motivos = append(motivos, fmt.Sprintf("%d lançamento(s) já consolidado(s)", len(jaConsolidados)))
	}
	if len(inexistentes) > 0 {
		motivos = append(motivos, fmt.Sprintf("%d lançamento(s) inexistente(s)", len(inexistentes)))
	}

	ofensores := append(naoValidados, jaConsolidados...)
	e := &ErroPrecondicao{
		Motivo:      "consolidação rejeitada: " + strings.Join(motivos, "; "),
		Vendedores:  vendedoresDistintos(ofensores),
		Inexistente: inexistentes,
	}
	for _, l := range ofensores {
		e.IDs = append(e.IDs, l.ID)
	}
	return e
}

func vendedoresDistintos(ls []Lancamento) []string {
	vistos := map[string]struct{}{}
	var out []string
	for _, l := range ls {
		if _, ok := vistos[l.Vendedor]; ok {
			continue
		}
		vistos[l.Vendedor] = struct{}{}
		out = append(out, l.Vendedor)
	}
	sort.Strings(out)
	return out
}
