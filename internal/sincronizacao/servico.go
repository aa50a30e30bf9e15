package sincronizacao

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stik/comissys/internal/comissao"
	"github.com/stik/comissys/internal/extrato"
	"github.com/stik/comissys/internal/fonte"
)

// ErrRelatorioNaoEncontrado: id desconhecido, expirado ou já aplicado.
var ErrRelatorioNaoEncontrado = errors.New("relatório de sincronização não encontrado ou expirado")

const (
	chaveTrava = "comissys:sincronizacao"
	ttlTrava   = 10 * time.Minute
)

// Relatorio é o resultado da análise, guardado até a confirmação.
type Relatorio struct {
	ID             string               `json:"id"`
	Escopo         fonte.Escopo         `json:"escopo"`
	GeradoEm       time.Time            `json:"geradoEm"`
	TotalFonte     int                  `json:"totalSource"`
	TotalExtrato   int                  `json:"totalLedger"`
	EmSincronia    int                  `json:"inSync"`
	Faltando       int                  `json:"missing"`
	Sobrando       int                  `json:"extra"`
	Duplicadas     int                  `json:"duplicateSourceRows"`
	Invalidas      int                  `json:"invalidSourceRows"`
	LinhasFaltando []fonte.Linha        `json:"missingRows"`
	LinhasSobrando []extrato.Lancamento `json:"extraRows"`
}

// Aplicacao é o placar da aplicação de um relatório.
type Aplicacao struct {
	RelatorioID string   `json:"relatorioId"`
	Adicionados int      `json:"adicionados"`
	Removidos   int      `json:"removidos"`
	Ignorados   int      `json:"ignorados"`
	Erros       int      `json:"erros"`
	Falhas      []string `json:"falhas,omitempty"`
}

func (a *Aplicacao) falha(msg string) {
	a.Erros++
	a.Falhas = append(a.Falhas, msg)
}

type Servico struct {
	fonte      fonte.Fonte
	db         *gorm.DB
	extrato    *extrato.Repository
	trava      Trava
	relatorios *cache.Cache
	log        *slog.Logger
	agora      func() time.Time
}

func NewServico(f fonte.Fonte, db *gorm.DB, trava Trava, ttlRelatorio time.Duration, log *slog.Logger) *Servico {
	if trava == nil {
		trava = NovaTravaLocal()
	}
	return &Servico{
		fonte:      f,
		db:         db,
		extrato:    extrato.NewRepository(db),
		trava:      trava,
		relatorios: cache.New(ttlRelatorio, 2*ttlRelatorio),
		log:        log,
		agora:      time.Now,
	}
}

// Analisar compara ERP e extrato (só linhas não consolidadas) no escopo e guarda o
// relatório. Nada é alterado; pode ser cancelado entre as etapas.
func (s *Servico) Analisar(ctx context.Context, e fonte.Escopo) (*Relatorio, error) {
	liberar, err := s.trava.Adquirir(ctx, chaveTrava, ttlTrava)
	if err != nil {
		return nil, err
	}
	defer liberar()

	s.log.Info("Iniciando análise de sincronização", "escopo", e.Descricao())
	erp, err := s.fonte.Buscar(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("buscar títulos no ERP: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext, err := s.extrato.ListarAtivos(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("buscar extrato: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := Reconciliar(erp, ext)
	rel := &Relatorio{
		ID:             uuid.NewString(),
		Escopo:         e,
		GeradoEm:       s.agora(),
		TotalFonte:     len(erp),
		TotalExtrato:   len(ext),
		EmSincronia:    len(res.EmSincronia),
		Faltando:       len(res.Faltando),
		Sobrando:       len(res.Sobrando),
		Duplicadas:     len(res.Duplicadas),
		Invalidas:      len(res.Invalidas),
		LinhasFaltando: res.LinhasFaltando,
		LinhasSobrando: res.LinhasSobrando,
	}
	for _, d := range res.Duplicadas {
		s.log.Warn("Título do ERP com chave repetida descartado", "documento", d.Documento, "titulo", d.Titulo, "vendedor", d.Vendedor)
	}
	s.relatorios.SetDefault(rel.ID, rel)

	s.log.Info("Análise concluída", "relatorio", rel.ID, "fonte", rel.TotalFonte, "extrato", rel.TotalExtrato,
		"emSincronia", rel.EmSincronia, "faltando", rel.Faltando, "sobrando", rel.Sobrando)
	return rel, nil
}

// Relatorio devolve um relatório ainda não aplicado.
func (s *Servico) Relatorio(id string) (*Relatorio, bool) {
	v, ok := s.relatorios.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Relatorio), true
}

// Aplicar executa o relatório confirmado: insere as faltantes e remove as sobrando
// ainda não consolidadas, numa única transação com savepoint por linha. Uma linha
// com erro é desfeita sozinha e contada; o lote segue. Não é cancelável. O
// relatório é consumido apenas quando a transação é confirmada.
func (s *Servico) Aplicar(ctx context.Context, id, ator string) (*Aplicacao, error) {
	ctx = context.WithoutCancel(ctx)

	liberar, err := s.trava.Adquirir(ctx, chaveTrava, ttlTrava)
	if err != nil {
		return nil, err
	}
	defer liberar()

	rel, ok := s.Relatorio(id)
	if !ok {
		return nil, ErrRelatorioNaoEncontrado
	}

	res := &Aplicacao{RelatorioID: id}
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	ext := s.extrato.WithDB(tx)

	for i, linha := range rel.LinhasFaltando {
		sp := fmt.Sprintf("sync_ins_%d", i)
		if err := tx.SavePoint(sp).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("savepoint: %w", err)
		}
		inserido, err := s.inserir(ctx, ext, linha)
		switch {
		case err != nil:
			tx.RollbackTo(sp)
			s.log.Error("Erro ao inserir título na sincronização", "documento", linha.Documento, "erro", err)
			res.falha(fmt.Sprintf("Doc %s: %v", linha.Documento, err))
		case !inserido:
			res.Ignorados++
		default:
			res.Adicionados++
		}
	}

	for i, l := range rel.LinhasSobrando {
		sp := fmt.Sprintf("sync_del_%d", i)
		if err := tx.SavePoint(sp).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("savepoint: %w", err)
		}
		n, err := ext.DeleteSeNaoConsolidado(ctx, l.ID)
		switch {
		case err != nil:
			tx.RollbackTo(sp)
			s.log.Error("Erro ao remover lançamento na sincronização", "id", l.ID, "erro", err)
			res.falha(fmt.Sprintf("ID %d: %v", l.ID, err))
		case n == 0:
			// consolidado ou removido depois da análise
			res.Ignorados++
		default:
			res.Removidos++
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("confirmar sincronização: %w", err)
	}
	// só some depois do commit; uma falha antes permite reaplicar o mesmo relatório
	s.relatorios.Delete(id)
	s.log.Info("Sincronização aplicada", "relatorio", id, "ator", ator, "escopo", rel.Escopo.Descricao(),
		"adicionados", res.Adicionados, "removidos", res.Removidos, "ignorados", res.Ignorados, "erros", res.Erros)
	return res, nil
}

// inserir grava a linha faltante. Devolve false quando a chave já ficou ativa
// depois da análise.
func (s *Servico) inserir(ctx context.Context, ext *extrato.Repository, linha fonte.Linha) (bool, error) {
	l, err := extrato.NovoDaFonte(linha)
	if err != nil {
		return false, err
	}
	ativa, err := ext.ExisteChaveAtiva(ctx, l.Chave)
	if err != nil {
		return false, err
	}
	if ativa {
		return false, nil
	}
	anterior, err := ext.PercentualAnterior(ctx, l.Chave)
	if err != nil {
		return false, err
	}
	l.Recalcular(PercentualInicial(anterior, linha.PercentualPadrao))
	l.CriadoPor = extrato.CriadoPorSincronizacao
	if err := ext.Create(ctx, l); err != nil {
		return false, err
	}
	return true, nil
}

// PercentualInicial escolhe o percentual de uma linha inserida pela sincronização:
// o último percentual já gravado para a chave, senão o padrão do ERP quando positivo,
// senão comissao.PercentualSincronizacao.
func PercentualInicial(anterior *decimal.Decimal, padraoERP decimal.Decimal) decimal.Decimal {
	switch {
	case anterior != nil:
		return *anterior
	case padraoERP.IsPositive():
		return padraoERP
	default:
		return comissao.PercentualSincronizacao
	}
}
