package extrato

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/stik/comissys/internal/auth"
	"github.com/stik/comissys/internal/fonte"
	"github.com/stik/comissys/internal/logger"
)

// Handler expõe o extrato de comissões.
type Handler struct {
	Repo    *Repository
	Servico *Servico
	Fonte   fonte.Fonte
}

func NewHandler(repo *Repository, servico *Servico, f fonte.Fonte) *Handler {
	return &Handler{Repo: repo, Servico: servico, Fonte: f}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Consultar trata GET /consulta
func (h *Handler) Consultar(w http.ResponseWriter, r *http.Request) {
	escopo, err := EscopoDaQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	linhas, err := h.Servico.Consultar(r.Context(), h.Fonte, escopo)
	if err != nil {
		logger.L.Error("Erro ao consultar ERP", "escopo", escopo.Descricao(), "erro", err)
		http.Error(w, "Erro ao consultar títulos no ERP", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, ToTituloDTOs(linhas))
}

// List trata GET /extrato
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ls, err := h.Repo.Listar(r.Context(), Filtro{
		Competencia: strings.TrimSpace(q.Get("competencia")),
		Vendedor:    q.Get("vendedor"),
	})
	if err != nil {
		http.Error(w, "Erro ao listar extrato", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ToDTOs(ls))
}

// Create trata POST /extrato
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var dto AdicionarDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "JSON mal formado", http.StatusBadRequest)
		return
	}
	if len(dto.Chaves) == 0 {
		http.Error(w, "Nenhum título informado", http.StatusBadRequest)
		return
	}
	if dto.Percentual != nil && dto.Percentual.IsNegative() {
		http.Error(w, "Percentual inválido", http.StatusBadRequest)
		return
	}
	escopo, err := fonte.NovoEscopo(dto.Inicio, dto.Fim, dto.Vendedor)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := h.Servico.AdicionarDaFonte(r.Context(), h.Fonte, escopo, dto.Chaves, dto.Percentual, auth.Usuario(r.Context()))
	if err != nil {
		logger.L.Error("Erro ao reler títulos do ERP", "escopo", escopo.Descricao(), "erro", err)
		http.Error(w, "Erro ao consultar títulos no ERP", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func idDaRota(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	return uint(id), err == nil && id > 0
}

// Update trata PUT /extrato/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idDaRota(r)
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()
	var e Edicao
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, "JSON mal formado", http.StatusBadRequest)
		return
	}
	if e.Percentual != nil && e.Percentual.IsNegative() {
		http.Error(w, "Percentual inválido", http.StatusBadRequest)
		return
	}

	l, err := h.Servico.Editar(r.Context(), id, e)
	switch {
	case errors.Is(err, ErrNaoEncontrado):
		http.Error(w, "Lançamento não encontrado", http.StatusNotFound)
	case errors.Is(err, ErrConsolidado):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		http.Error(w, "Erro ao atualizar lançamento", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, ToDTO(*l))
	}
}

// AplicarPercentual trata POST /extrato/percentual
func (h *Handler) AplicarPercentual(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var dto PercentualDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "JSON mal formado", http.StatusBadRequest)
		return
	}
	if len(dto.IDs) == 0 || dto.Percentual.IsNegative() {
		http.Error(w, "IDs ou percentual inválidos", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.Servico.AplicarPercentual(r.Context(), dto.IDs, dto.Percentual))
}

// Delete trata DELETE /extrato/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idDaRota(r)
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	res := h.Servico.Remover(r.Context(), []uint{id})
	switch {
	case res.Erros > 0:
		http.Error(w, "Erro ao remover lançamento", http.StatusInternalServerError)
	case res.Ignorados > 0:
		http.Error(w, "Lançamento inexistente ou consolidado", http.StatusConflict)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// Remover trata POST /extrato/remover
func (h *Handler) Remover(w http.ResponseWriter, r *http.Request) {
	ids, ok := lerIDs(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Servico.Remover(r.Context(), ids))
}

// Validar trata POST /extrato/validar
func (h *Handler) Validar(w http.ResponseWriter, r *http.Request) {
	ids, ok := lerIDs(w, r)
	if !ok {
		return
	}
	res, err := h.Servico.Validar(r.Context(), ids, auth.Usuario(r.Context()))
	if err != nil {
		logger.L.Error("Erro ao validar lançamentos", "erro", err)
		http.Error(w, "Erro ao validar lançamentos", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Notificar trata POST /extrato/notificar
func (h *Handler) Notificar(w http.ResponseWriter, r *http.Request) {
	ids, ok := lerIDs(w, r)
	if !ok {
		return
	}
	res, err := h.Servico.Notificar(r.Context(), ids)
	if err != nil {
		http.Error(w, "Erro ao enviar extratos", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func lerIDs(w http.ResponseWriter, r *http.Request) ([]uint, bool) {
	defer r.Body.Close()
	var dto IDsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "JSON mal formado", http.StatusBadRequest)
		return nil, false
	}
	if len(dto.IDs) == 0 {
		http.Error(w, "Nenhum lançamento selecionado", http.StatusBadRequest)
		return nil, false
	}
	return dto.IDs, true
}
