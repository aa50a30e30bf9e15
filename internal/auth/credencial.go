package auth

import (
	"context"
	"errors"

	"github.com/stik/comissys/internal/config"
	"github.com/stik/comissys/internal/utils"
)

// ErrNaoAutorizado indica falta de papel ou credencial para uma operação elevada.
var ErrNaoAutorizado = errors.New("operação não autorizada")

// Elevacao confere a autorização de operações administrativas: papel admin no
// token ou a senha de administrador informada na própria requisição.
type Elevacao struct {
	AdminSenhaHash string
}

// Autorizar devolve nil se o chamador é admin ou se a senha confere com o hash configurado.
func (e Elevacao) Autorizar(ctx context.Context, senha string) error {
	if Papel(ctx) == config.PapelAdmin {
		return nil
	}
	if e.AdminSenhaHash == "" || senha == "" {
		return ErrNaoAutorizado
	}
	if !utils.CheckSenha(e.AdminSenhaHash, senha) {
		return ErrNaoAutorizado
	}
	return nil
}
