package vendedor

import (
	"gorm.io/gorm"

	"github.com/stik/comissys/internal/config"
)

type Repository interface {
	BuscarPorNome(db *gorm.DB, nome string) (*Vendedor, error)
	BuscarPorID(db *gorm.DB, id uint) (*Vendedor, error)
	ListarTodos(db *gorm.DB) ([]Vendedor, error)
	Salvar(db *gorm.DB, v *Vendedor) error
	Atualizar(db *gorm.DB, id uint, novosDados *Vendedor) (*Vendedor, error)
	Deletar(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) BuscarPorNome(db *gorm.DB, nome string) (*Vendedor, error) {
	var v Vendedor
	if err := db.Where("nome_normalizado = ?", config.NormalizarVendedor(nome)).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*Vendedor, error) {
	var v Vendedor
	if err := db.First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repositoryImpl) ListarTodos(db *gorm.DB) ([]Vendedor, error) {
	var vendedores []Vendedor
	err := db.Order("nome").Find(&vendedores).Error
	return vendedores, err
}

func (r *repositoryImpl) Salvar(db *gorm.DB, v *Vendedor) error {
	return db.Save(v).Error
}

func (r *repositoryImpl) Atualizar(db *gorm.DB, id uint, novosDados *Vendedor) (*Vendedor, error) {
	existente, err := r.BuscarPorID(db, id)
	if err != nil {
		return nil, err
	}

	existente.Nome = novosDados.Nome
	existente.Email = novosDados.Email
	existente.Telefone = novosDados.Telefone
	existente.Ativo = novosDados.Ativo

	if err := db.Save(existente).Error; err != nil {
		return nil, err
	}
	return existente, nil
}

// Deletar remove de fato, liberando o nome para um novo cadastro.
func (r *repositoryImpl) Deletar(db *gorm.DB, id uint) error {
	return db.Unscoped().Delete(&Vendedor{}, id).Error
}
