package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/stik/comissys/internal/config"
)

// GetDB abre o banco do extrato conforme DB_DRIVER.
func GetDB(ctx context.Context, cfg *config.AppConfig) (*gorm.DB, error) {
	if cfg.DBDriver == "sqlite" {
		return OpenSQLite(cfg.DBPath)
	}
	port := cfg.DBPort
	if port == 0 {
		port = 5432 // Default PostgreSQL port
	}
	return ConnectDataBase(ctx, port, cfg.DBHost, cfg.DBName, cfg.DBUsername, cfg.DBPassword, cfg.DBSecretID, cfg.DBSSLModeDisable)
}
