package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const emissor = "comissys"

// Claims do access token: usuário e papel para RBAC.
type Claims struct {
	Username string `json:"username"`
	Papel    string `json:"papel"`
	jwt.RegisteredClaims
}

// Tokens assina e valida access tokens HS256 com o segredo da configuração.
type Tokens struct {
	segredo []byte
	ttl     time.Duration
	agora   func() time.Time
}

func NovoTokens(segredo string, ttl time.Duration) *Tokens {
	return &Tokens{segredo: []byte(segredo), ttl: ttl, agora: time.Now}
}

// TTL do access token.
func (t *Tokens) TTL() time.Duration { return t.ttl }

// GerarAccessToken gera um JWT com iss, sub, iat, nbf, exp e jti.
func (t *Tokens) GerarAccessToken(username, papel string) (string, error) {
	if len(t.segredo) == 0 {
		return "", errors.New("segredo JWT não configurado")
	}
	now := t.agora()
	claims := &Claims{
		Username: username,
		Papel:    papel,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    emissor,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.segredo)
}

// ParseAndValidate valida assinatura, emissor e expiração.
func (t *Tokens) ParseAndValidate(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(emissor),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.agora),
	)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.segredo, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token inválido ou expirado: %w", err)
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("claims inválidas")
	}
	if c.Username == "" || c.Papel == "" {
		return nil, errors.New("token sem usuário ou papel")
	}
	return c, nil
}
