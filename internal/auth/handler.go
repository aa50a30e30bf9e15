package auth

import (
	"encoding/json"
	"net/http"

	"github.com/stik/comissys/internal/config"
	"github.com/stik/comissys/internal/logger"
	"github.com/stik/comissys/internal/utils"
)

// Usuarios resolve um usuário local pelo username.
type Usuarios interface {
	Usuario(username string) (config.Usuario, bool)
}

type loginRequest struct {
	Username string `json:"username"`
	Senha    string `json:"senha"`
}

// LoginHandler trata POST /auth/login
func LoginHandler(usuarios Usuarios, sessoes *Sessoes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "JSON mal formado", http.StatusBadRequest)
			return
		}

		u, ok := usuarios.Usuario(req.Username)
		if !ok || !utils.CheckSenha(u.SenhaHash, req.Senha) {
			logger.L.Warn("Login recusado", "username", req.Username)
			http.Error(w, "Usuário ou senha inválidos", http.StatusUnauthorized)
			return
		}

		access, err := sessoes.Emitir(w, u.Username, u.Papel, "")
		if err != nil {
			logger.L.Error("Erro ao emitir tokens", "username", u.Username, "erro", err)
			http.Error(w, "Erro interno", http.StatusInternalServerError)
			return
		}
		sessoes.responder(w, access, u.Papel)
	}
}
