package sincronizacao

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stik/comissys/internal/extrato"
	"github.com/stik/comissys/internal/fonte"
	"github.com/stik/comissys/internal/logger"
	"github.com/stik/comissys/internal/utils/db"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var fevereiro = fonte.Escopo{
	Inicio: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	Fim:    time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
}

func titulo(doc, padrao string) fonte.Linha {
	return fonte.Linha{
		Documento:          doc,
		Vendedor:           "JOAO",
		Titulo:             doc + "/1",
		Artigo:             "TINTA",
		UF:                 "PE",
		Recebimento:        time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
		RecebimentoLiquido: d("1000"),
		PercentualPadrao:   d(padrao),
	}
}

type fonteFixa struct {
	linhas []fonte.Linha
	err    error
}

func (f *fonteFixa) Buscar(context.Context, fonte.Escopo) ([]fonte.Linha, error) {
	return f.linhas, f.err
}

type cenario struct {
	db      *gorm.DB
	erp     *fonteFixa
	extrato *extrato.Repository
	servico *Servico
}

func novoCenario(t *testing.T, erp ...fonte.Linha) *cenario {
	t.Helper()
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, extrato.Migrate(database))
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	f := &fonteFixa{linhas: erp}
	return &cenario{
		db:      database,
		erp:     f,
		extrato: extrato.NewRepository(database),
		servico: NewServico(f, database, NovaTravaLocal(), time.Minute, logger.Discard()),
	}
}

// lancar grava no extrato a linha do documento com o percentual dado.
func (c *cenario) lancar(t *testing.T, doc, pct string, consolidado bool) *extrato.Lancamento {
	t.Helper()
	l, err := extrato.NovoDaFonte(titulo(doc, "0"))
	require.NoError(t, err)
	l.Recalcular(d(pct))
	l.Validado = consolidado
	l.Consolidado = consolidado
	require.NoError(t, c.extrato.Create(context.Background(), l))
	return l
}

func (c *cenario) ativos(t *testing.T) map[string]extrato.Lancamento {
	t.Helper()
	ls, err := c.extrato.ListarAtivos(context.Background(), fevereiro)
	require.NoError(t, err)
	out := map[string]extrato.Lancamento{}
	for _, l := range ls {
		out[l.Documento] = l
	}
	return out
}

func TestReconciliar(t *testing.T) {
	erp := []fonte.Linha{titulo("K1", "1"), titulo("K2", "1"), titulo("K3", "1"), titulo("K1", "9")}
	k2, _ := extrato.NovoDaFonte(titulo("K2", "0"))
	k3Linha := titulo("K3", "0")
	k3Linha.Vendedor = " joao "
	k3, _ := extrato.NovoDaFonte(k3Linha)
	k4, _ := extrato.NovoDaFonte(titulo("K4", "0"))
	ext := []extrato.Lancamento{*k2, *k3, *k4}

	res := Reconciliar(erp, ext)
	assert.Len(t, res.Faltando, 1)
	assert.Len(t, res.Sobrando, 1)
	assert.Len(t, res.EmSincronia, 2)
	require.Len(t, res.LinhasFaltando, 1)
	assert.True(t, d("1").Equal(res.LinhasFaltando[0].PercentualPadrao))
	require.Len(t, res.LinhasSobrando, 1)
	assert.Equal(t, "K4", res.LinhasSobrando[0].Documento)
	require.Len(t, res.Duplicadas, 1)

	again := Reconciliar(erp, ext)
	assert.Equal(t, res.Faltando, again.Faltando)
	assert.Equal(t, res.Sobrando, again.Sobrando)
	assert.Equal(t, res.EmSincronia, again.EmSincronia)

	vazio := Reconciliar(nil, nil)
	assert.Empty(t, vazio.Faltando)
	assert.Empty(t, vazio.Sobrando)
}

func TestSincronizacaoPontaAPonta(t *testing.T) {
	ctx := context.Background()
	c := novoCenario(t, titulo("K1", "2.5"), titulo("K2", "2.5"), titulo("K3", "2.5"))
	c.lancar(t, "K2", "7.5", false)
	c.lancar(t, "K3", "2.5", false)
	c.lancar(t, "K4", "2.5", false)

	rel, err := c.servico.Analisar(ctx, fevereiro)
	require.NoError(t, err)
	assert.Equal(t, 3, rel.TotalFonte)
	assert.Equal(t, 3, rel.TotalExtrato)
	assert.Equal(t, 2, rel.EmSincronia)
	assert.Equal(t, 1, rel.Faltando)
	assert.Equal(t, 1, rel.Sobrando)

	// analisar não altera nada
	assert.Len(t, c.ativos(t), 3)

	ap, err := c.servico.Aplicar(ctx, rel.ID, "ana")
	require.NoError(t, err)
	assert.Equal(t, 1, ap.Adicionados)
	assert.Equal(t, 1, ap.Removidos)
	assert.Zero(t, ap.Erros)

	ativos := c.ativos(t)
	require.Len(t, ativos, 3)
	assert.Contains(t, ativos, "K1")
	assert.NotContains(t, ativos, "K4")
	assert.True(t, d("7.5").Equal(ativos["K2"].PercentualComissao))
	assert.True(t, d("75").Equal(ativos["K2"].ValorComissao))
	assert.Equal(t, extrato.CriadoPorSincronizacao, ativos["K1"].CriadoPor)
	assert.True(t, d("2.5").Equal(ativos["K1"].PercentualComissao))

	_, err = c.servico.Aplicar(ctx, rel.ID, "ana")
	assert.ErrorIs(t, err, ErrRelatorioNaoEncontrado)

	rel, err = c.servico.Analisar(ctx, fevereiro)
	require.NoError(t, err)
	assert.Zero(t, rel.Faltando)
	assert.Zero(t, rel.Sobrando)
	assert.Equal(t, 3, rel.EmSincronia)
}

func TestConsolidadoFicaForaDaSincronizacao(t *testing.T) {
	ctx := context.Background()
	c := novoCenario(t, titulo("K2", "2.5"), titulo("K3", "2.5"))
	c.lancar(t, "K2", "2.5", false)
	c.lancar(t, "K3", "2.5", false)
	k4 := c.lancar(t, "K4", "2.5", true)

	rel, err := c.servico.Analisar(ctx, fevereiro)
	require.NoError(t, err)
	assert.Equal(t, 2, rel.TotalExtrato)
	assert.Zero(t, rel.Sobrando)

	_, err = c.servico.Aplicar(ctx, rel.ID, "ana")
	require.NoError(t, err)
	ainda, err := c.extrato.FindByID(ctx, k4.ID)
	require.NoError(t, err)
	assert.True(t, ainda.Consolidado)
}

func TestPercentualDeLinhaNova(t *testing.T) {
	ctx := context.Background()
	c := novoCenario(t, titulo("K1", "2.5"), titulo("K2", "2.5"), titulo("K3", "0"))
	// K1 já foi consolidado com 3% em outro momento; a chave volta do ERP
	c.lancar(t, "K1", "3", true)

	rel, err := c.servico.Analisar(ctx, fevereiro)
	require.NoError(t, err)
	require.Equal(t, 3, rel.Faltando)
	_, err = c.servico.Aplicar(ctx, rel.ID, "ana")
	require.NoError(t, err)

	ativos := c.ativos(t)
	assert.True(t, d("3").Equal(ativos["K1"].PercentualComissao))
	assert.True(t, d("2.5").Equal(ativos["K2"].PercentualComissao))
	assert.True(t, d("5").Equal(ativos["K3"].PercentualComissao))
	assert.True(t, d("50").Equal(ativos["K3"].ValorComissao))
}

func TestPercentualInicial(t *testing.T) {
	anterior := d("7.5")
	assert.True(t, d("7.5").Equal(PercentualInicial(&anterior, d("2"))))
	assert.True(t, d("2").Equal(PercentualInicial(nil, d("2"))))
	assert.True(t, d("5").Equal(PercentualInicial(nil, decimal.Zero)))
	assert.True(t, d("5").Equal(PercentualInicial(nil, d("-1"))))
}

func TestAplicarReconfereNoMomentoDaEscrita(t *testing.T) {
	ctx := context.Background()
	c := novoCenario(t, titulo("K1", "2.5"))
	k4 := c.lancar(t, "K4", "2.5", false)

	rel, err := c.servico.Analisar(ctx, fevereiro)
	require.NoError(t, err)
	require.Equal(t, 1, rel.Faltando)
	require.Equal(t, 1, rel.Sobrando)

	// entre a análise e a aplicação: K4 é consolidado e K1 é lançado à mão
	_, err = c.extrato.MarcarValidados(ctx, []uint{k4.ID}, "ana", time.Now())
	require.NoError(t, err)
	_, err = c.extrato.MarcarConsolidado(ctx, k4.ID)
	require.NoError(t, err)
	c.lancar(t, "K1", "4", false)

	ap, err := c.servico.Aplicar(ctx, rel.ID, "ana")
	require.NoError(t, err)
	assert.Equal(t, 2, ap.Ignorados)
	assert.Zero(t, ap.Adicionados)
	assert.Zero(t, ap.Removidos)

	ainda, err := c.extrato.FindByID(ctx, k4.ID)
	require.NoError(t, err)
	assert.True(t, ainda.Consolidado)
	assert.True(t, d("4").Equal(c.ativos(t)["K1"].PercentualComissao))
}

func TestErroEmUmaLinhaNaoDerrubaOLote(t *testing.T) {
	ctx := context.Background()
	c := novoCenario(t, titulo("K1", "2.5"), titulo("ERR", "2.5"), titulo("K3", "2.5"))
	require.NoError(t, c.db.Callback().Create().Before("gorm:create").Register("teste:falha", func(tx *gorm.DB) {
		if l, ok := tx.Statement.Dest.(*extrato.Lancamento); ok && l.Documento == "ERR" {
			_ = tx.AddError(errors.New("violação simulada"))
		}
	}))

	rel, err := c.servico.Analisar(ctx, fevereiro)
	require.NoError(t, err)
	ap, err := c.servico.Aplicar(ctx, rel.ID, "ana")
	require.NoError(t, err)
	assert.Equal(t, 2, ap.Adicionados)
	assert.Equal(t, 1, ap.Erros)
	require.Len(t, ap.Falhas, 1)
	assert.Contains(t, ap.Falhas[0], "ERR")

	ativos := c.ativos(t)
	assert.Len(t, ativos, 2)
	assert.NotContains(t, ativos, "ERR")
}

func TestAnalisarCancelado(t *testing.T) {
	c := novoCenario(t, titulo("K1", "2.5"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.servico.Analisar(ctx, fevereiro)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandlerAnaliseCanceladaNaoViraFalhaDoERP(t *testing.T) {
	c := novoCenario(t, titulo("K1", "2.5"))
	h := NewHandler(c.servico)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sincronizacao/analises",
		strings.NewReader(`{"inicio":"2024-02-01","fim":"2024-02-29"}`)).WithContext(ctx)
	h.Analisar(rr, req)
	assert.Equal(t, http.StatusRequestTimeout, rr.Code)

	c.erp.err = errors.New("ERP fora do ar")
	rr = httptest.NewRecorder()
	h.Analisar(rr, httptest.NewRequest(http.MethodPost, "/sincronizacao/analises",
		strings.NewReader(`{"inicio":"2024-02-01","fim":"2024-02-29"}`)))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestRelatorioSobreviveAFalhaNaAplicacao(t *testing.T) {
	ctx := context.Background()
	c := novoCenario(t, titulo("K1", "2.5"))
	rel, err := c.servico.Analisar(ctx, fevereiro)
	require.NoError(t, err)

	sqlDB, err := c.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = c.servico.Aplicar(ctx, rel.ID, "ana")
	require.Error(t, err)
	_, ok := c.servico.Relatorio(rel.ID)
	assert.True(t, ok)
}

func TestAnalisarFalhaNaFonte(t *testing.T) {
	c := novoCenario(t)
	c.erp.err = errors.New("ERP fora do ar")

	_, err := c.servico.Analisar(context.Background(), fevereiro)
	assert.ErrorContains(t, err, "ERP fora do ar")
}

func TestTravaLocal(t *testing.T) {
	tr := NovaTravaLocal()
	liberar, err := tr.Adquirir(context.Background(), "x", time.Minute)
	require.NoError(t, err)

	_, err = tr.Adquirir(context.Background(), "x", time.Minute)
	assert.ErrorIs(t, err, ErrExecucaoEmAndamento)

	outra, err := tr.Adquirir(context.Background(), "y", time.Minute)
	require.NoError(t, err)
	outra()

	liberar()
	liberar, err = tr.Adquirir(context.Background(), "x", time.Minute)
	require.NoError(t, err)
	liberar()
}

func TestExecucaoConcorrenteRecusada(t *testing.T) {
	c := novoCenario(t, titulo("K1", "2.5"))
	liberar, err := c.servico.trava.Adquirir(context.Background(), chaveTrava, time.Minute)
	require.NoError(t, err)
	defer liberar()

	_, err = c.servico.Analisar(context.Background(), fevereiro)
	assert.ErrorIs(t, err, ErrExecucaoEmAndamento)
	_, err = c.servico.Aplicar(context.Background(), "qualquer", "ana")
	assert.ErrorIs(t, err, ErrExecucaoEmAndamento)
}
