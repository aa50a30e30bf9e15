package consolidacao

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stik/comissys/internal/auth"
	"github.com/stik/comissys/internal/comentario"
	"github.com/stik/comissys/internal/config"
	"github.com/stik/comissys/internal/extrato"
	"github.com/stik/comissys/internal/fonte"
	"github.com/stik/comissys/internal/logger"
	"github.com/stik/comissys/internal/utils"
	"github.com/stik/comissys/internal/utils/db"
)

type avisoFake struct {
	chamadas   int
	vendedores []string
}

func (a *avisoFake) AvisarConsolidacao(_ context.Context, _ string, _ int, vendedores, _ []string) error {
	a.chamadas++
	a.vendedores = vendedores
	return nil
}

type cenario struct {
	db      *gorm.DB
	extrato *extrato.Repository
	servico *Servico
	aviso   *avisoFake
}

func novoCenario(t *testing.T) *cenario {
	t.Helper()
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, extrato.Migrate(database))
	require.NoError(t, Migrate(database))
	require.NoError(t, comentario.Migrate(database))
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	hash, err := utils.HashSenha("admin123")
	require.NoError(t, err)
	aviso := &avisoFake{}
	return &cenario{
		db:      database,
		extrato: extrato.NewRepository(database),
		servico: NewServico(database, auth.Elevacao{AdminSenhaHash: hash}, aviso, logger.Discard()),
		aviso:   aviso,
	}
}

// lancar grava uma linha no extrato e devolve o id.
func (c *cenario) lancar(t *testing.T, doc, vendedor string, validado bool) uint {
	t.Helper()
	l, err := extrato.NovoDaFonte(fonte.Linha{
		Documento:          doc,
		Vendedor:           vendedor,
		Titulo:             doc,
		Artigo:             "A",
		Recebimento:        time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
		RecebimentoLiquido: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	l.Recalcular(decimal.NewFromInt(2))
	l.Validado = validado
	require.NoError(t, c.extrato.Create(context.Background(), l))
	return l.ID
}

func TestConsolidarLoteInteiro(t *testing.T) {
	ctx := context.Background()
	c := novoCenario(t)
	ids := []uint{
		c.lancar(t, "1", "JOAO", true),
		c.lancar(t, "2", "JOAO", true),
		c.lancar(t, "3", "MARIA", true),
	}

	res, err := c.servico.Consolidar(ctx, append(ids, ids[0]), "controladoria")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 3, res.Quantidade)
	assert.Equal(t, 1, c.aviso.chamadas)
	assert.Equal(t, []string{"JOAO", "MARIA"}, c.aviso.vendedores)

	cs, err := c.servico.Listar(ctx, "2024-02", "")
	require.NoError(t, err)
	require.Len(t, cs, 3)
	assert.Equal(t, "controladoria", cs[0].ConsolidadoPor)
	assert.True(t, decimal.NewFromInt(2).Equal(cs[0].ValorComissao))

	ls, _ := c.extrato.FindByIDs(ctx, ids)
	for _, l := range ls {
		assert.True(t, l.Consolidado)
	}
}

func TestConsolidarRejeitaLoteComNaoValidado(t *testing.T) {
	ctx := context.Background()
	c := novoCenario(t)
	var ids []uint
	for i := 0; i < 5; i++ {
		ids = append(ids, c.lancar(t, string(rune('A'+i)), "JOAO", true))
	}
	ids = append(ids, c.lancar(t, "X", "MARIA", false))

	_, err := c.servico.Consolidar(ctx, ids, "controladoria")
	var pre *extrato.ErroPrecondicao
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, []string{"MARIA"}, pre.Vendedores)
	assert.Zero(t, c.aviso.chamadas)

	ls, _ := c.extrato.FindByIDs(ctx, ids)
	for _, l := range ls {
		assert.False(t, l.Consolidado, l.Documento)
	}
	cs, _ := c.servico.Listar(ctx, "", "")
	assert.Empty(t, cs)
}

func TestDesconsolidar(t *testing.T) {
	ctx := context.Background()
	c := novoCenario(t)
	id := c.lancar(t, "1", "JOAO", true)
	_, err := c.servico.Consolidar(ctx, []uint{id}, "controladoria")
	require.NoError(t, err)

	gestora := auth.ComUsuario(ctx, "ana", config.PapelGestora)
	assert.ErrorIs(t, c.servico.Desconsolidar(gestora, id, "", "ana"), auth.ErrNaoAutorizado)
	assert.ErrorIs(t, c.servico.Desconsolidar(gestora, id, "errada", "ana"), auth.ErrNaoAutorizado)

	l, _ := c.extrato.FindByID(ctx, id)
	assert.True(t, l.Consolidado)

	require.NoError(t, c.servico.Desconsolidar(gestora, id, "admin123", "ana"))
	l, _ = c.extrato.FindByID(ctx, id)
	assert.False(t, l.Consolidado)
	assert.True(t, l.Validado)
	cs, _ := c.servico.Listar(ctx, "", "")
	assert.Empty(t, cs)
	historico, err := comentario.NewRepository().ListarPorLancamento(c.db, id)
	require.NoError(t, err)
	require.Len(t, historico, 1)
	assert.True(t, historico[0].Sistema)
	assert.Equal(t, "Consolidação desfeita por ana", historico[0].Texto)

	admin := auth.ComUsuario(ctx, "root", config.PapelAdmin)
	assert.ErrorIs(t, c.servico.Desconsolidar(admin, id, "", "root"), ErrNaoConsolidado)
	assert.ErrorIs(t, c.servico.Desconsolidar(admin, 999, "", "root"), extrato.ErrNaoEncontrado)
}

func TestDesconsolidarComChaveAtiva(t *testing.T) {
	ctx := context.Background()
	c := novoCenario(t)
	id := c.lancar(t, "1", "JOAO", true)
	_, err := c.servico.Consolidar(ctx, []uint{id}, "controladoria")
	require.NoError(t, err)
	c.lancar(t, "1", "JOAO", false)

	admin := auth.ComUsuario(ctx, "root", config.PapelAdmin)
	assert.ErrorIs(t, c.servico.Desconsolidar(admin, id, "", "root"), ErrChaveAtiva)

	l, _ := c.extrato.FindByID(ctx, id)
	assert.True(t, l.Consolidado)
}

func TestHandler(t *testing.T) {
	c := novoCenario(t)
	ok := c.lancar(t, "1", "JOAO", true)
	pendente := c.lancar(t, "2", "MARIA", false)

	h := NewHandler(c.servico)
	router := mux.NewRouter()
	router.HandleFunc("/consolidados", h.Create).Methods(http.MethodPost)
	router.HandleFunc("/consolidados/{id}", h.Delete).Methods(http.MethodDelete)

	post := func(body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/consolidados", strings.NewReader(body)))
		return rr
	}

	rr := post(fmt.Sprintf(`{"ids":[%d,%d]}`, ok, pendente))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `"offendingSellers":["MARIA"]`)

	rr = post(fmt.Sprintf(`{"ids":[%d]}`, ok))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true,"consolidatedCount":1}`, rr.Body.String())

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/consolidados/%d", ok), nil)
	req = req.WithContext(auth.ComUsuario(req.Context(), "ana", config.PapelGestora))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/consolidados/%d", ok), nil)
	req = req.WithContext(auth.ComUsuario(req.Context(), "ana", config.PapelGestora))
	req.Header.Set(HeaderSenhaAdmin, "admin123")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

}
