package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/stik/comissys/internal/config"
)

type ctxKey string

const (
	CtxUsername ctxKey = "username"
	CtxPapel    ctxKey = "papel"
)

// Middleware exige um Bearer token válido e guarda usuário e papel no contexto.
func (t *Tokens) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		h := r.Header.Get("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "Token ausente", http.StatusUnauthorized)
			return
		}
		claims, err := t.ParseAndValidate(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			http.Error(w, "Token inválido", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ComUsuario(r.Context(), claims.Username, claims.Papel)))
	})
}

// ComUsuario grava usuário e papel no contexto.
func ComUsuario(ctx context.Context, username, papel string) context.Context {
	ctx = context.WithValue(ctx, CtxUsername, username)
	return context.WithValue(ctx, CtxPapel, papel)
}

// Usuario lê o usuário autenticado do contexto.
func Usuario(ctx context.Context) string {
	v, _ := ctx.Value(CtxUsername).(string)
	return v
}

// Papel lê o papel autenticado do contexto.
func Papel(ctx context.Context) string {
	v, _ := ctx.Value(CtxPapel).(string)
	return v
}

// RequirePapel libera a rota apenas para os papéis listados. Admin sempre passa.
func RequirePapel(papeis ...string) func(http.Handler) http.Handler {
	permitidos := map[string]bool{config.PapelAdmin: true}
	for _, p := range papeis {
		permitidos[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !permitidos[Papel(r.Context())] {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequirePapel()(next)
}
