package comentario

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/stik/comissys/internal/auth"
	"github.com/stik/comissys/internal/config"
	"github.com/stik/comissys/internal/extrato"
	"github.com/stik/comissys/internal/logger"
)

const tamanhoMaximo = 1000

// Handler encapsula o DB e o Repository
type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Extrato    *extrato.Repository
}

// NewHandler cria um novo handler de comentários
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Extrato:    extrato.NewRepository(db),
	}
}

type textoRequest struct {
	Texto string `json:"texto"`
}

func lerTexto(w http.ResponseWriter, r *http.Request) (string, bool) {
	defer r.Body.Close()
	var req textoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "JSON inválido", http.StatusBadRequest)
		return "", false
	}
	texto := strings.TrimSpace(req.Texto)
	if texto == "" {
		http.Error(w, "O campo 'texto' é obrigatório", http.StatusBadRequest)
		return "", false
	}
	if len([]rune(texto)) > tamanhoMaximo {
		http.Error(w, "Comentário muito longo", http.StatusBadRequest)
		return "", false
	}
	return texto, true
}

func idDaRota(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	return uint(id), err == nil && id > 0
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// CriarComentario trata POST /extrato/{id}/comentarios
func (h *Handler) CriarComentario(w http.ResponseWriter, r *http.Request) {
	lancID, ok := idDaRota(r)
	if !ok {
		http.Error(w, "ID de lançamento inválido", http.StatusBadRequest)
		return
	}
	if _, err := h.Extrato.FindByID(r.Context(), lancID); err != nil {
		if errors.Is(err, extrato.ErrNaoEncontrado) {
			http.Error(w, "Lançamento não encontrado", http.StatusNotFound)
			return
		}
		http.Error(w, "Erro ao buscar lançamento", http.StatusInternalServerError)
		return
	}
	texto, ok := lerTexto(w, r)
	if !ok {
		return
	}

	c := Comentario{
		Texto:        texto,
		LancamentoID: lancID,
		Autor:        auth.Usuario(r.Context()),
	}
	if err := h.Repository.Criar(h.DB.WithContext(r.Context()), &c); err != nil {
		logger.L.Error("Erro ao criar comentário", "lancamento", lancID, "erro", err)
		http.Error(w, "Erro ao criar comentário", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toDTO(c))
}

// ListarPorLancamento trata GET /extrato/{id}/comentarios
func (h *Handler) ListarPorLancamento(w http.ResponseWriter, r *http.Request) {
	lancID, ok := idDaRota(r)
	if !ok {
		http.Error(w, "ID de lançamento inválido", http.StatusBadRequest)
		return
	}
	comentarios, err := h.Repository.ListarPorLancamento(h.DB.WithContext(r.Context()), lancID)
	if err != nil {
		http.Error(w, "Erro ao listar comentários", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toDTOs(comentarios))
}

// buscarProprio carrega o comentário e confere se o usuário pode alterá-lo:
// o autor, ou um admin. Comentários do sistema só o admin remove.
func (h *Handler) buscarProprio(w http.ResponseWriter, r *http.Request) (*Comentario, bool) {
	id, ok := idDaRota(r)
	if !ok {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return nil, false
	}
	c, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Comentário não encontrado", http.StatusNotFound)
			return nil, false
		}
		http.Error(w, "Erro ao buscar comentário", http.StatusInternalServerError)
		return nil, false
	}
	ctx := r.Context()
	if auth.Papel(ctx) != config.PapelAdmin && (c.Sistema || c.Autor != auth.Usuario(ctx)) {
		http.Error(w, "Sem permissão para alterar este comentário", http.StatusForbidden)
		return nil, false
	}
	return c, true
}

// Atualizar trata PUT /comentarios/{id}
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	c, ok := h.buscarProprio(w, r)
	if !ok {
		return
	}
	texto, ok := lerTexto(w, r)
	if !ok {
		return
	}
	if err := h.Repository.Atualizar(h.DB.WithContext(r.Context()), c.ID, texto); err != nil {
		http.Error(w, "Erro ao atualizar comentário", http.StatusInternalServerError)
		return
	}
	c.Texto = texto
	writeJSON(w, http.StatusOK, toDTO(*c))
}

// RemoverComentario trata DELETE /comentarios/{id}
func (h *Handler) RemoverComentario(w http.ResponseWriter, r *http.Request) {
	c, ok := h.buscarProprio(w, r)
	if !ok {
		return
	}
	if err := h.Repository.Remover(h.DB.WithContext(r.Context()), c.ID); err != nil {
		http.Error(w, "Erro ao remover comentário", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
