package sincronizacao

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/stik/comissys/internal/auth"
	"github.com/stik/comissys/internal/fonte"
	"github.com/stik/comissys/internal/logger"
)

type Handler struct {
	Servico *Servico
}

func NewHandler(s *Servico) *Handler {
	return &Handler{Servico: s}
}

type analiseDTO struct {
	Inicio   string `json:"inicio"`
	Fim      string `json:"fim"`
	Vendedor string `json:"vendedor"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Analisar trata POST /sincronizacao/analises
func (h *Handler) Analisar(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var dto analiseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "JSON mal formado", http.StatusBadRequest)
		return
	}
	e, err := fonte.NovoEscopo(dto.Inicio, dto.Fim, dto.Vendedor)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rel, err := h.Servico.Analisar(r.Context(), e)
	switch {
	case errors.Is(err, ErrExecucaoEmAndamento):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.L.Info("Análise de sincronização cancelada", "escopo", e.Descricao(), "erro", err)
		http.Error(w, "Análise cancelada", http.StatusRequestTimeout)
	case err != nil:
		logger.L.Error("Erro na análise de sincronização", "escopo", e.Descricao(), "erro", err)
		http.Error(w, "Erro na análise de sincronização", http.StatusBadGateway)
	default:
		writeJSON(w, http.StatusCreated, rel)
	}
}

// Relatorio trata GET /sincronizacao/analises/{id}
func (h *Handler) Relatorio(w http.ResponseWriter, r *http.Request) {
	rel, ok := h.Servico.Relatorio(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, ErrRelatorioNaoEncontrado.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

// Aplicar trata POST /sincronizacao/analises/{id}/aplicar
func (h *Handler) Aplicar(w http.ResponseWriter, r *http.Request) {
	res, err := h.Servico.Aplicar(r.Context(), mux.Vars(r)["id"], auth.Usuario(r.Context()))
	switch {
	case errors.Is(err, ErrRelatorioNaoEncontrado):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrExecucaoEmAndamento):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		logger.L.Error("Erro ao aplicar sincronização", "erro", err)
		http.Error(w, "Erro ao aplicar sincronização", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}
