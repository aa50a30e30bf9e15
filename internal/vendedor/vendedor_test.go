package vendedor

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stik/comissys/internal/config"
	"github.com/stik/comissys/internal/utils/db"
)

func novoDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, Migrate(database))
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return database
}

func TestCadastroComReserva(t *testing.T) {
	database := novoDB(t)
	repo := NewRepository()
	require.NoError(t, repo.Salvar(database, &Vendedor{Nome: "Joao Silva", Email: "joao@empresa.com", Ativo: true}))
	inativo := &Vendedor{Nome: "MARIA", Email: "maria@empresa.com", Ativo: true}
	require.NoError(t, repo.Salvar(database, inativo))
	require.NoError(t, database.Model(inativo).Update("ativo", false).Error)

	reserva := &config.AppConfig{EmailsVendedores: map[string]string{
		"MARIA": "maria@reserva.com",
		"PEDRO": "pedro@reserva.com",
	}}
	c := NovoCadastro(database, reserva)

	email, ok := c.EmailVendedor("  joao silva ")
	assert.True(t, ok)
	assert.Equal(t, "joao@empresa.com", email)

	_, ok = c.EmailVendedor("maria")
	assert.False(t, ok, "inativo no cadastro não recebe, mesmo com e-mail na reserva")

	email, ok = c.EmailVendedor("Pedro")
	assert.True(t, ok)
	assert.Equal(t, "pedro@reserva.com", email)

	_, ok = NovoCadastro(database, nil).EmailVendedor("PEDRO")
	assert.False(t, ok)
}

func TestHandlerVendedores(t *testing.T) {
	database := novoDB(t)
	h := NewHandler(database)
	r := mux.NewRouter()
	r.HandleFunc("/vendedores", h.ListarVendedores).Methods(http.MethodGet)
	r.HandleFunc("/vendedores", h.CriarVendedor).Methods(http.MethodPost)
	r.HandleFunc("/vendedores/{id}", h.AtualizarVendedor).Methods(http.MethodPut)
	r.HandleFunc("/vendedores/{id}", h.DeletarVendedor).Methods(http.MethodDelete)

	chamar := func(metodo, url, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(metodo, url, strings.NewReader(body)))
		return rr
	}

	assert.Equal(t, http.StatusCreated, chamar(http.MethodPost, "/vendedores", `{"nome":"Joao","email":"joao@empresa.com"}`).Code)
	assert.Equal(t, http.StatusConflict, chamar(http.MethodPost, "/vendedores", `{"nome":" JOAO "}`).Code)
	assert.Equal(t, http.StatusBadRequest, chamar(http.MethodPost, "/vendedores", `{"nome":"Ana","email":"nao-e-email"}`).Code)
	assert.Equal(t, http.StatusBadRequest, chamar(http.MethodPost, "/vendedores", `{"nome":"  "}`).Code)

	v, err := NewRepository().BuscarPorNome(database, "joao")
	require.NoError(t, err)
	assert.True(t, v.Ativo)

	url := fmt.Sprintf("/vendedores/%d", v.ID)
	rr := chamar(http.MethodPut, url, `{"nome":"Joao","email":"novo@empresa.com","ativo":false}`)
	require.Equal(t, http.StatusOK, rr.Code)
	v, err = NewRepository().BuscarPorID(database, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "novo@empresa.com", v.Email)
	assert.False(t, v.Ativo)

	assert.Equal(t, http.StatusNotFound, chamar(http.MethodPut, "/vendedores/999", `{"nome":"X"}`).Code)
	assert.Equal(t, http.StatusNoContent, chamar(http.MethodDelete, url, "").Code)
	assert.Equal(t, http.StatusCreated, chamar(http.MethodPost, "/vendedores", `{"nome":"Joao"}`).Code)
}
