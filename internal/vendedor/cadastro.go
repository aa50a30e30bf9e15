package vendedor

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/stik/comissys/internal/logger"
)

// Reserva fornece e-mails quando o vendedor não está no cadastro (ex.: mapa da configuração).
type Reserva interface {
	EmailVendedor(vendedor string) (string, bool)
}

// Cadastro resolve o e-mail do vendedor pelo banco e, na falta, pela reserva.
// Um vendedor inativo no banco não recebe extrato, mesmo que a reserva tenha e-mail.
type Cadastro struct {
	DB         *gorm.DB
	Repository Repository
	Reserva    Reserva
}

func NovoCadastro(db *gorm.DB, reserva Reserva) *Cadastro {
	return &Cadastro{DB: db, Repository: NewRepository(), Reserva: reserva}
}

func (c *Cadastro) EmailVendedor(nome string) (string, bool) {
	v, err := c.Repository.BuscarPorNome(c.DB, nome)
	switch {
	case err == nil:
		email := strings.TrimSpace(v.Email)
		return email, v.Ativo && email != ""
	case !errors.Is(err, gorm.ErrRecordNotFound):
		logger.L.Warn("Erro ao buscar vendedor", "vendedor", nome, "erro", err)
	}
	if c.Reserva == nil {
		return "", false
	}
	return c.Reserva.EmailVendedor(nome)
}
