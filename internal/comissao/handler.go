package comissao

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Handler expõe a configuração das faixas percentuais.
type Handler struct {
	Repo       *Repository
	Resolvedor *Resolvedor
}

func NewHandler(repo *Repository, resolvedor *Resolvedor) *Handler {
	return &Handler{Repo: repo, Resolvedor: resolvedor}
}

// List trata GET /faixas
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	faixas, err := h.Repo.ListarOrdenadas(r.Context())
	if err != nil {
		http.Error(w, "Erro ao listar faixas", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(faixas)
}

// Create trata POST /faixas
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var f Faixa
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		http.Error(w, "JSON mal formado", http.StatusBadRequest)
		return
	}
	if f.GrupoRegiao <= 0 || f.Maximo.LessThan(f.Minimo) {
		http.Error(w, "Faixa inválida", http.StatusBadRequest)
		return
	}
	f.ID = 0
	if err := h.Repo.Create(r.Context(), &f); err != nil {
		http.Error(w, "Erro ao criar faixa", http.StatusInternalServerError)
		return
	}
	h.Resolvedor.Invalidar()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(f)
}

// Delete trata DELETE /faixas/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	if err := h.Repo.DeleteByID(r.Context(), uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Faixa não encontrada", http.StatusNotFound)
			return
		}
		http.Error(w, "Erro ao deletar faixa", http.StatusInternalServerError)
		return
	}
	h.Resolvedor.Invalidar()
	w.WriteHeader(http.StatusNoContent)
}
