package extrato

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stik/comissys/internal/fonte"
)

// Notificador envia o extrato de um vendedor. A validação não depende do envio.
type Notificador interface {
	EnviarExtrato(ctx context.Context, vendedor string, lancamentos []Lancamento) error
}

// ErrSemEmail deve ser devolvido (embrulhado) pelo Notificador quando o vendedor não tem e-mail.
var ErrSemEmail = errors.New("vendedor sem e-mail cadastrado")

// Servico reúne as operações do extrato que mudam estado.
type Servico struct {
	repo        *Repository
	notificador Notificador
	log         *slog.Logger
	agora       func() time.Time
}

func NewServico(repo *Repository, notificador Notificador, log *slog.Logger) *Servico {
	return &Servico{repo: repo, notificador: notificador, log: log, agora: time.Now}
}

// Resultado é o placar de uma operação em lote.
type Resultado struct {
	Sucesso   int      `json:"sucesso"`
	Ignorados int      `json:"ignorados"`
	Erros     int      `json:"erros"`
	Falhas    []string `json:"falhas,omitempty"`
}

func (r *Resultado) falha(msg string) {
	r.Erros++
	r.Falhas = append(r.Falhas, msg)
}

// ResultadoValidacao separa a transição (Validados) do envio dos extratos.
type ResultadoValidacao struct {
	Validados         int      `json:"validados"`
	Ignorados         int      `json:"ignorados"`
	Enviados          []string `json:"enviados,omitempty"`
	SemEmail          []string `json:"semEmail,omitempty"`
	FalhasNotificacao []string `json:"falhasNotificacao,omitempty"`
}

// Adicionar inclui títulos do ERP manualmente. Títulos cuja chave já está ativa
// no extrato são ignorados. O percentual é o informado ou o padrão do título.
func (s *Servico) Adicionar(ctx context.Context, linhas []fonte.Linha, percentual *decimal.Decimal, ator string) Resultado {
	var res Resultado
	for _, f := range linhas {
		l, err := NovoDaFonte(f)
		if err != nil {
			res.falha(fmt.Sprintf("Doc %s: %v", f.Documento, err))
			continue
		}
		existe, err := s.repo.ExisteChaveAtiva(ctx, l.Chave)
		if err != nil {
			res.falha(fmt.Sprintf("Doc %s: %v", f.Documento, err))
			continue
		}
		if existe {
			res.Ignorados++
			continue
		}

		pct := f.PercentualPadrao
		if percentual != nil {
			pct = *percentual
		}
		l.Recalcular(pct)
		l.CriadoPor = ator
		if err := s.repo.Create(ctx, l); err != nil {
			s.log.Error("Erro ao adicionar título ao extrato", "documento", f.Documento, "erro", err)
			res.falha(fmt.Sprintf("Doc %s: %v", f.Documento, err))
			continue
		}
		res.Sucesso++
	}
	s.log.Info("Títulos adicionados manualmente", "ator", ator, "adicionados", res.Sucesso, "ignorados", res.Ignorados, "erros", res.Erros)
	return res
}

// AdicionarDaFonte relê o ERP no escopo e adiciona somente os títulos cujas chaves
// foram escolhidas. Valores e percentual padrão vêm sempre da fonte; chaves que não
// voltam na releitura (já no extrato ou inexistentes) são ignoradas.
func (s *Servico) AdicionarDaFonte(ctx context.Context, f fonte.Fonte, e fonte.Escopo, chaves []string, percentual *decimal.Decimal, ator string) (Resultado, error) {
	disponiveis, err := s.Consultar(ctx, f, e)
	if err != nil {
		return Resultado{}, err
	}
	pedidas := make(map[string]struct{}, len(chaves))
	for _, c := range chaves {
		pedidas[c] = struct{}{}
	}

	var escolhidas []fonte.Linha
	for _, l := range disponiveis {
		k, _ := l.Chave()
		if _, ok := pedidas[k.String()]; !ok {
			continue
		}
		delete(pedidas, k.String())
		escolhidas = append(escolhidas, l)
	}

	res := s.Adicionar(ctx, escolhidas, percentual, ator)
	if len(pedidas) > 0 {
		s.log.Warn("Chaves pedidas fora da consulta ao ERP", "ator", ator, "escopo", e.Descricao(), "quantidade", len(pedidas))
		res.Ignorados += len(pedidas)
	}
	return res, nil
}

// Edicao descreve uma alteração pontual. Campos nil não mudam.
type Edicao struct {
	Percentual  *decimal.Decimal `json:"percentual"`
	Observacao  *string          `json:"observacao"`
	ValorManual *decimal.Decimal `json:"valorManual"`
}

// Editar altera percentual e observação de uma linha ainda não consolidada,
// recalculando o valor. ValorManual sobrepõe o valor calculado.
func (s *Servico) Editar(ctx context.Context, id uint, e Edicao) (*Lancamento, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := l.PodeAlterar(); err != nil {
		return nil, err
	}

	if e.Percentual != nil {
		l.Recalcular(*e.Percentual)
	}
	if e.ValorManual != nil {
		l.ValorComissao = e.ValorManual.Round(2)
		l.ValorManual = true
	}
	if e.Observacao != nil {
		l.Observacao = truncar(*e.Observacao, 500)
	}

	n, err := s.repo.AtualizarComissao(ctx, l)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// consolidada entre a leitura e o UPDATE
		return nil, ErrConsolidado
	}
	return l, nil
}

// AplicarPercentual aplica o mesmo percentual a várias linhas.
func (s *Servico) AplicarPercentual(ctx context.Context, ids []uint, percentual decimal.Decimal) Resultado {
	var res Resultado
	for _, id := range ids {
		_, err := s.Editar(ctx, id, Edicao{Percentual: &percentual})
		switch {
		case err == nil:
			res.Sucesso++
		case errors.Is(err, ErrConsolidado):
			res.Ignorados++
		default:
			res.falha(fmt.Sprintf("ID %d: %v", id, err))
		}
	}
	return res
}

// Remover apaga linhas não consolidadas; consolidadas são ignoradas no próprio DELETE.
func (s *Servico) Remover(ctx context.Context, ids []uint) Resultado {
	var res Resultado
	for _, id := range ids {
		n, err := s.repo.DeleteSeNaoConsolidado(ctx, id)
		switch {
		case err != nil:
			res.falha(fmt.Sprintf("ID %d: %v", id, err))
		case n == 0:
			res.Ignorados++
		default:
			res.Sucesso++
		}
	}
	s.log.Info("Lançamentos removidos", "removidos", res.Sucesso, "ignorados", res.Ignorados, "erros", res.Erros)
	return res
}

// Validar marca as linhas como validadas numa transação e, depois do commit,
// envia o extrato de cada vendedor. Falhas de envio não desfazem a validação.
func (s *Servico) Validar(ctx context.Context, ids []uint, ator string) (ResultadoValidacao, error) {
	var res ResultadoValidacao
	ids = distintos(ids)

	tx := s.repo.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return res, tx.Error
	}
	txRepo := s.repo.WithDB(tx)

	n, err := txRepo.MarcarValidados(ctx, ids, ator, s.agora())
	if err != nil {
		tx.Rollback()
		return res, fmt.Errorf("validar lançamentos: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return res, fmt.Errorf("confirmar validação: %w", err)
	}
	res.Validados = int(n)
	res.Ignorados = len(ids) - int(n)
	s.log.Info("Lançamentos validados", "ator", ator, "validados", n, "ignorados", res.Ignorados)

	validados, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		res.FalhasNotificacao = append(res.FalhasNotificacao, fmt.Sprintf("recarregar lançamentos: %v", err))
		return res, nil
	}
	var ativos []Lancamento
	for _, l := range validados {
		if l.Validado && !l.Consolidado {
			ativos = append(ativos, l)
		}
	}
	s.notificar(ctx, ativos, &res)
	return res, nil
}

// Notificar envia os extratos das linhas pedidas sem alterar estado.
func (s *Servico) Notificar(ctx context.Context, ids []uint) (ResultadoValidacao, error) {
	var res ResultadoValidacao
	ls, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return res, err
	}
	s.notificar(ctx, ls, &res)
	return res, nil
}

func (s *Servico) notificar(ctx context.Context, ls []Lancamento, res *ResultadoValidacao) {
	if s.notificador == nil {
		return
	}
	for _, vendedor := range agruparPorVendedor(ls) {
		err := s.notificador.EnviarExtrato(ctx, vendedor.nome, vendedor.linhas)
		switch {
		case err == nil:
			res.Enviados = append(res.Enviados, vendedor.nome)
		case errors.Is(err, ErrSemEmail):
			res.SemEmail = append(res.SemEmail, vendedor.nome)
		default:
			s.log.Warn("Falha ao enviar extrato", "vendedor", vendedor.nome, "erro", err)
			res.FalhasNotificacao = append(res.FalhasNotificacao, fmt.Sprintf("%s: %v", vendedor.nome, err))
		}
	}
}

func distintos(ids []uint) []uint {
	vistos := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := vistos[id]; ok {
			continue
		}
		vistos[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

type grupoVendedor struct {
	nome   string
	linhas []Lancamento
}

func agruparPorVendedor(ls []Lancamento) []grupoVendedor {
	idx := map[string]int{}
	var grupos []grupoVendedor
	for _, l := range ls {
		i, ok := idx[l.Vendedor]
		if !ok {
			i = len(grupos)
			idx[l.Vendedor] = i
			grupos = append(grupos, grupoVendedor{nome: l.Vendedor})
		}
		grupos[i].linhas = append(grupos[i].linhas, l)
	}
	sort.Slice(grupos, func(a, b int) bool { return grupos[a].nome < grupos[b].nome })
	return grupos
}

// Consultar devolve os títulos do ERP que ainda não estão no extrato (nem consolidados).
func (s *Servico) Consultar(ctx context.Context, f fonte.Fonte, e fonte.Escopo) ([]fonte.Linha, error) {
	linhas, err := f.Buscar(ctx, e)
	if err != nil {
		return nil, err
	}
	existentes, err := s.repo.ChavesNoEscopo(ctx, e)
	if err != nil {
		return nil, err
	}
	out := make([]fonte.Linha, 0, len(linhas))
	for _, l := range linhas {
		k, err := l.Chave()
		if err != nil {
			s.log.Warn("Título com chave inválida ignorado na consulta", "documento", l.Documento, "erro", err)
			continue
		}
		if _, ok := existentes[k.String()]; ok {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
