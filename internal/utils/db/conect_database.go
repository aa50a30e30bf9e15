package db

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	}
}

// ConnectDataBase abre o extrato no Postgres. Sem usuário e senha explícitos, as
// credenciais vêm do AWS Secrets Manager.
func ConnectDataBase(ctx context.Context, port uint, host, dbname, username, password, secretID string, sslDisabled bool) (*gorm.DB, error) {
	if username == "" || password == "" {
		var err error
		username, password, err = retrieveCredentials(ctx, secretID)
		if err != nil {
			return nil, err
		}
	}

	var sslMode string
	if sslDisabled {
		sslMode = " sslmode=disable"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d%s", host, username, password, dbname, port, sslMode)
	database, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("conectar postgres: %w", err)
	}
	return database, configurarPool(database)
}

// OpenSQLite abre um banco SQLite local (desenvolvimento e testes).
func OpenSQLite(path string) (*gorm.DB, error) {
	database, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("abrir sqlite %s: %w", path, err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	// um único escritor evita "database is locked" nas transações
	sqlDB.SetMaxOpenConns(1)
	return database, nil
}

// OpenSQLServer abre a conexão somente leitura com o ERP.
func OpenSQLServer(dsn string) (*gorm.DB, error) {
	database, err := gorm.Open(sqlserver.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("conectar sql server: %w", err)
	}
	return database, configurarPool(database)
}

func configurarPool(database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return nil
}
