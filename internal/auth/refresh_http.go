package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const RefreshCookie = "rt"

// Sessoes emite e rotaciona refresh tokens guardados no banco.
type Sessoes struct {
	DB           *gorm.DB
	Tokens       *Tokens
	TTL          time.Duration
	CookieSecure bool
}

func genRaw() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashRaw(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

func (s *Sessoes) setCookie(w http.ResponseWriter, raw string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    raw,
		Path:     "/auth",
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

func (s *Sessoes) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/auth",
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Papel       string `json:"papel"`
}

func (s *Sessoes) responder(w http.ResponseWriter, access, papel string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.Tokens.TTL().Seconds()),
		Papel:       papel,
	})
}

// Emitir gera access + refresh para um login recém-validado.
func (s *Sessoes) Emitir(w http.ResponseWriter, username, papel, familia string) (string, error) {
	access, err := s.Tokens.GerarAccessToken(username, papel)
	if err != nil {
		return "", err
	}
	raw, err := genRaw()
	if err != nil {
		return "", err
	}
	if familia == "" {
		familia = uuid.NewString()
	}
	rt := RefreshToken{
		Username:  username,
		FamilyID:  familia,
		Hash:      hashRaw(raw),
		Papel:     papel,
		ExpiresAt: time.Now().Add(s.TTL),
	}
	if err := s.DB.Create(&rt).Error; err != nil {
		return "", err
	}
	s.setCookie(w, raw, rt.ExpiresAt)
	return access, nil
}

// Refresh trata POST /auth/refresh: revoga o token atual e emite um novo par.
// Reuso de um token já revogado derruba a família inteira.
func (s *Sessoes) Refresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		http.Error(w, "Refresh ausente", http.StatusUnauthorized)
		return
	}

	var cur RefreshToken
	if err := s.DB.Where("hash = ?", hashRaw(c.Value)).First(&cur).Error; err != nil {
		s.clearCookie(w)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Refresh inválido", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Erro interno", http.StatusInternalServerError)
		return
	}
	now := time.Now()
	if cur.RevokedAt != nil {
		_ = s.DB.Model(&RefreshToken{}).
			Where("family_id = ? AND revoked_at IS NULL", cur.FamilyID).
			Update("revoked_at", &now).Error
		s.clearCookie(w)
		http.Error(w, "Refresh reutilizado", http.StatusUnauthorized)
		return
	}
	if now.After(cur.ExpiresAt) {
		s.clearCookie(w)
		http.Error(w, "Refresh expirado", http.StatusUnauthorized)
		return
	}

	if err := s.DB.Model(&cur).Update("revoked_at", &now).Error; err != nil {
		http.Error(w, "Erro interno", http.StatusInternalServerError)
		return
	}
	access, err := s.Emitir(w, cur.Username, cur.Papel, cur.FamilyID)
	if err != nil {
		s.clearCookie(w)
		http.Error(w, "Erro interno", http.StatusInternalServerError)
		return
	}
	s.responder(w, access, cur.Papel)
}

// Logout trata POST /auth/logout
func (s *Sessoes) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(RefreshCookie); err == nil && c.Value != "" {
		now := time.Now()
		_ = s.DB.Model(&RefreshToken{}).Where("hash = ?", hashRaw(c.Value)).Update("revoked_at", &now).Error
	}
	s.clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
