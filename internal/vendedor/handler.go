package vendedor

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/stik/comissys/internal/logger"
)

type vendedorRequest struct {
	Nome     string `json:"nome"`
	Email    string `json:"email"`
	Telefone string `json:"telefone"`
	Ativo    *bool  `json:"ativo"`
}

func (req vendedorRequest) validar() (*Vendedor, error) {
	nome := strings.TrimSpace(req.Nome)
	if nome == "" {
		return nil, errors.New("nome é obrigatório")
	}
	email := strings.TrimSpace(req.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, errors.New("e-mail inválido")
		}
	}
	ativo := true
	if req.Ativo != nil {
		ativo = *req.Ativo
	}
	return &Vendedor{Nome: nome, Email: email, Telefone: strings.TrimSpace(req.Telefone), Ativo: ativo}, nil
}

// Handler encapsula DB e repository
type Handler struct {
	DB         *gorm.DB
	Repository Repository
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func lerRequest(w http.ResponseWriter, r *http.Request) (*Vendedor, bool) {
	defer r.Body.Close()
	var req vendedorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return nil, false
	}
	v, err := req.validar()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return v, true
}

// ListarVendedores trata GET /vendedores
func (h *Handler) ListarVendedores(w http.ResponseWriter, r *http.Request) {
	vendedores, err := h.Repository.ListarTodos(h.DB.WithContext(r.Context()))
	if err != nil {
		http.Error(w, "erro ao listar vendedores", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, vendedores)
}

// CriarVendedor trata POST /vendedores
func (h *Handler) CriarVendedor(w http.ResponseWriter, r *http.Request) {
	v, ok := lerRequest(w, r)
	if !ok {
		return
	}
	db := h.DB.WithContext(r.Context())
	if _, err := h.Repository.BuscarPorNome(db, v.Nome); err == nil {
		http.Error(w, "vendedor já cadastrado", http.StatusConflict)
		return
	}
	if err := h.Repository.Salvar(db, v); err != nil {
		logger.L.Error("Erro ao salvar vendedor", "vendedor", v.Nome, "erro", err)
		http.Error(w, "erro ao salvar vendedor", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// AtualizarVendedor trata PUT /vendedores/{id}
func (h *Handler) AtualizarVendedor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	novos, ok := lerRequest(w, r)
	if !ok {
		return
	}
	db := h.DB.WithContext(r.Context())
	if outro, err := h.Repository.BuscarPorNome(db, novos.Nome); err == nil && outro.ID != uint(id) {
		http.Error(w, "vendedor já cadastrado", http.StatusConflict)
		return
	}
	v, err := h.Repository.Atualizar(db, uint(id), novos)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "vendedor não encontrado", http.StatusNotFound)
			return
		}
		http.Error(w, "erro ao atualizar vendedor", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// DeletarVendedor trata DELETE /vendedores/{id}
func (h *Handler) DeletarVendedor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	if err := h.Repository.Deletar(h.DB.WithContext(r.Context()), uint(id)); err != nil {
		http.Error(w, "erro ao deletar vendedor", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
