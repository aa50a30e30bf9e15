package consolidacao

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/stik/comissys/internal/auth"
	"github.com/stik/comissys/internal/extrato"
	"github.com/stik/comissys/internal/logger"
)

// HeaderSenhaAdmin carrega a senha de administrador na desconsolidação.
const HeaderSenhaAdmin = "X-Admin-Senha"

type Handler struct {
	Servico *Servico
}

func NewHandler(s *Servico) *Handler {
	return &Handler{Servico: s}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// List trata GET /consolidados
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cs, err := h.Servico.Listar(r.Context(), strings.TrimSpace(q.Get("competencia")), q.Get("vendedor"))
	if err != nil {
		http.Error(w, "Erro ao listar consolidados", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// Create trata POST /consolidados
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var dto extrato.IDsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "JSON mal formado", http.StatusBadRequest)
		return
	}

	res, err := h.Servico.Consolidar(r.Context(), dto.IDs, auth.Usuario(r.Context()))
	var pre *extrato.ErroPrecondicao
	switch {
	case errors.As(err, &pre):
		writeJSON(w, http.StatusUnprocessableEntity, pre)
	case err != nil:
		logger.L.Error("Erro ao consolidar", "erro", err)
		http.Error(w, "Erro ao consolidar", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// Delete trata DELETE /consolidados/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}

	err = h.Servico.Desconsolidar(r.Context(), uint(id), r.Header.Get(HeaderSenhaAdmin), auth.Usuario(r.Context()))
	switch {
	case errors.Is(err, auth.ErrNaoAutorizado):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, extrato.ErrNaoEncontrado):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNaoConsolidado), errors.Is(err, ErrChaveAtiva):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		logger.L.Error("Erro ao desconsolidar", "id", id, "erro", err)
		http.Error(w, "Erro ao desconsolidar", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
