package auth

import (
	"time"

	"gorm.io/gorm"
)

// RefreshToken guarda só o hash do token opaco entregue no cookie.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	Username  string    `gorm:"size:100;index"`
	FamilyID  string    `gorm:"size:64;index"`
	Hash      string    `gorm:"size:64;uniqueIndex"`
	Papel     string    `gorm:"size:30"`
	ExpiresAt time.Time `gorm:"index"`
	RevokedAt *time.Time
	CreatedAt time.Time
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&RefreshToken{})
}
