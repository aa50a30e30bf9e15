package consolidacao

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/stik/comissys/internal/auth"
	"github.com/stik/comissys/internal/comentario"
	"github.com/stik/comissys/internal/extrato"
)

var (
	// ErrNaoConsolidado: a linha pedida não está consolidada.
	ErrNaoConsolidado = errors.New("lançamento não está consolidado")
	// ErrChaveAtiva: já existe linha ativa com a mesma chave; reabrir violaria a unicidade.
	ErrChaveAtiva = errors.New("já existe lançamento ativo com a mesma chave")
)

// Aviso recebe um resumo de cada lote consolidado.
type Aviso interface {
	AvisarConsolidacao(ctx context.Context, ator string, quantidade int, vendedores, competencias []string) error
}

type Servico struct {
	db       *gorm.DB
	extrato  *extrato.Repository
	repo     *Repository
	elevacao auth.Elevacao
	aviso    Aviso
	log      *slog.Logger
	agora    func() time.Time
}

func NewServico(db *gorm.DB, elevacao auth.Elevacao, aviso Aviso, log *slog.Logger) *Servico {
	return &Servico{
		db:       db,
		extrato:  extrato.NewRepository(db),
		repo:     NewRepository(db),
		elevacao: elevacao,
		aviso:    aviso,
		log:      log,
		agora:    time.Now,
	}
}

// Resultado de um lote aceito.
type Resultado struct {
	OK         bool `json:"ok"`
	Quantidade int  `json:"consolidatedCount"`
}

// Consolidar fecha o lote inteiro ou nada. Qualquer linha não validada, já
// consolidada ou inexistente rejeita o lote com *extrato.ErroPrecondicao.
func (s *Servico) Consolidar(ctx context.Context, ids []uint, ator string) (Resultado, error) {
	ids = distintos(ids)
	lote, err := s.extrato.FindByIDs(ctx, ids)
	if err != nil {
		return Resultado{}, err
	}
	if e := extrato.VerificarConsolidacao(ids, lote); e != nil {
		s.log.Warn("Consolidação rejeitada", "ator", ator, "motivo", e.Motivo, "vendedores", e.Vendedores)
		return Resultado{}, e
	}

	agora := s.agora()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ext := s.extrato.WithDB(tx)
		rep := s.repo.WithDB(tx)
		for _, l := range lote {
			n, err := ext.MarcarConsolidado(ctx, l.ID)
			if err != nil {
				return err
			}
			if n == 0 {
				// mudou de estado depois da verificação
				return &extrato.ErroPrecondicao{
					Motivo:     "consolidação rejeitada: lançamento alterado durante a operação",
					Vendedores: []string{l.Vendedor},
					IDs:        []uint{l.ID},
				}
			}
			if err := rep.Create(ctx, espelho(l, ator, agora)); err != nil {
				return fmt.Errorf("gravar consolidado %d: %w", l.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return Resultado{}, err
	}

	vendedores, competencias := resumo(lote)
	s.log.Info("Lote consolidado", "ator", ator, "quantidade", len(lote), "vendedores", vendedores)
	if s.aviso != nil {
		if err := s.aviso.AvisarConsolidacao(ctx, ator, len(lote), vendedores, competencias); err != nil {
			s.log.Warn("Falha ao avisar consolidação", "erro", err)
		}
	}
	return Resultado{OK: true, Quantidade: len(lote)}, nil
}

// Desconsolidar devolve uma linha ao estado validado. Exige papel admin ou a
// senha de administrador.
func (s *Servico) Desconsolidar(ctx context.Context, id uint, senhaAdmin, ator string) error {
	if err := s.elevacao.Autorizar(ctx, senhaAdmin); err != nil {
		s.log.Warn("Desconsolidação negada", "ator", ator, "id", id)
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ext := s.extrato.WithDB(tx)
		l, err := ext.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !l.Consolidado {
			return ErrNaoConsolidado
		}
		ativa, err := ext.ExisteChaveAtiva(ctx, l.Chave)
		if err != nil {
			return err
		}
		if ativa {
			return ErrChaveAtiva
		}
		if _, err := ext.DesmarcarConsolidado(ctx, id); err != nil {
			return err
		}
		if _, err := s.repo.WithDB(tx).DeleteByLancamento(ctx, id); err != nil {
			return err
		}
		return comentario.RegistrarSistema(tx, id, fmt.Sprintf("Consolidação desfeita por %s", ator))
	})
	if err != nil {
		return err
	}
	s.log.Info("Lançamento desconsolidado", "ator", ator, "id", id)
	return nil
}

// Listar devolve o espelho consolidado.
func (s *Servico) Listar(ctx context.Context, competencia, vendedor string) ([]Consolidado, error) {
	return s.repo.Listar(ctx, competencia, vendedor)
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

func resumo(ls []extrato.Lancamento) (vendedores, competencias []string) {
	v := map[string]struct{}{}
	c := map[string]struct{}{}
	for _, l := range ls {
		v[l.Vendedor] = struct{}{}
		c[l.Competencia] = struct{}{}
	}
	for k := range v {
		vendedores = append(vendedores, k)
	}
	for k := range c {
		competencias = append(competencias, k)
	}
	sort.Strings(vendedores)
	sort.Strings(competencias)
	return vendedores, competencias
}
