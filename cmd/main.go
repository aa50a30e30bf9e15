package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/stik/comissys/internal/auth"
	"github.com/stik/comissys/internal/comentario"
	"github.com/stik/comissys/internal/comissao"
	"github.com/stik/comissys/internal/config"
	"github.com/stik/comissys/internal/consolidacao"
	"github.com/stik/comissys/internal/extrato"
	"github.com/stik/comissys/internal/fonte"
	"github.com/stik/comissys/internal/logger"
	"github.com/stik/comissys/internal/notificacao"
	"github.com/stik/comissys/internal/sincronizacao"
	"github.com/stik/comissys/internal/utils/db"
	"github.com/stik/comissys/internal/vendedor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Erro ao carregar configuração: %v", err)
	}
	logger.InitLogger(cfg.LogLevel)
	logger.L.Info("Comissys iniciando...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.GetDB(ctx, cfg)
	if err != nil {
		logger.L.Error("Erro ao conectar no banco", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}

	// AutoMigrate para todos os modelos
	for _, migrate := range []func(*gorm.DB) error{
		comissao.Migrate,
		extrato.Migrate,
		consolidacao.Migrate,
		comentario.Migrate,
		vendedor.Migrate,
		auth.Migrate,
	} {
		if err := migrate(gdb); err != nil {
			logger.L.Error("Erro no AutoMigrate", "error", err)
			os.Exit(1)
		}
	}

	faixas := comissao.NewRepository(gdb)
	resolvedor := comissao.NovoResolvedor(faixas, comissao.NovaTabelaRegioes(cfg.Regioes), cfg.FaixasCacheTTL)

	erp, err := abrirFonte(cfg, resolvedor)
	if err != nil {
		logger.L.Error("Erro ao abrir a fonte de títulos", "error", err)
		os.Exit(1)
	}

	var trava sincronizacao.Trava = sincronizacao.NovaTravaLocal()
	rdb, err := db.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.L.Error("Erro ao conectar no Redis", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		trava = sincronizacao.NovaTravaRedis(rdb)
		logger.L.Info("Trava de sincronização distribuída (Redis)")
	}

	notificador := notificacao.NovoNotificador(vendedor.NovoCadastro(gdb, cfg), cfg.EmailCopia, notificacao.NovoRemetente(cfg))
	tokens := auth.NovoTokens(cfg.JWTSecret, cfg.AccessTokenExpiry)
	sessoes := &auth.Sessoes{DB: gdb, Tokens: tokens, TTL: cfg.RefreshTokenTTL, CookieSecure: cfg.CookieSecure}

	extratoRepo := extrato.NewRepository(gdb)
	extratoServico := extrato.NewServico(extratoRepo, notificador, logger.L)
	consolidacaoServico := consolidacao.NewServico(gdb, auth.Elevacao{AdminSenhaHash: cfg.AdminSenhaHash}, notificacao.NovoWebhook(cfg.WebhookURL), logger.L)
	sincronizacaoServico := sincronizacao.NewServico(erp, gdb, trava, cfg.AnaliseTTL, logger.L)

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	// Rotas públicas de autenticação
	r.HandleFunc("/auth/login", auth.LoginHandler(cfg, sessoes)).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", sessoes.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", sessoes.Logout).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(tokens.Middleware)

	operar := auth.RequirePapel(config.PapelGestora, config.PapelControladoria)
	fechar := auth.RequirePapel(config.PapelControladoria)

	// Consulta ao ERP e extrato
	eh := extrato.NewHandler(extratoRepo, extratoServico, erp)
	api.HandleFunc("/consulta", eh.Consultar).Methods(http.MethodGet)
	api.HandleFunc("/extrato", eh.List).Methods(http.MethodGet)
	api.Handle("/extrato", operar(http.HandlerFunc(eh.Create))).Methods(http.MethodPost)
	api.Handle("/extrato/percentual", operar(http.HandlerFunc(eh.AplicarPercentual))).Methods(http.MethodPost)
	api.Handle("/extrato/remover", operar(http.HandlerFunc(eh.Remover))).Methods(http.MethodPost)
	api.Handle("/extrato/validar", operar(http.HandlerFunc(eh.Validar))).Methods(http.MethodPost)
	api.HandleFunc("/extrato/notificar", eh.Notificar).Methods(http.MethodPost)
	api.Handle("/extrato/{id:[0-9]+}", operar(http.HandlerFunc(eh.Update))).Methods(http.MethodPut)
	api.Handle("/extrato/{id:[0-9]+}", operar(http.HandlerFunc(eh.Delete))).Methods(http.MethodDelete)

	// Histórico de comentários por lançamento
	cmh := comentario.NewHandler(gdb)
	api.HandleFunc("/extrato/{id:[0-9]+}/comentarios", cmh.ListarPorLancamento).Methods(http.MethodGet)
	api.HandleFunc("/extrato/{id:[0-9]+}/comentarios", cmh.CriarComentario).Methods(http.MethodPost)
	api.HandleFunc("/comentarios/{id:[0-9]+}", cmh.Atualizar).Methods(http.MethodPut)
	api.HandleFunc("/comentarios/{id:[0-9]+}", cmh.RemoverComentario).Methods(http.MethodDelete)

	// Sincronização em duas fases
	sh := sincronizacao.NewHandler(sincronizacaoServico)
	api.Handle("/sincronizacao/analises", operar(http.HandlerFunc(sh.Analisar))).Methods(http.MethodPost)
	api.HandleFunc("/sincronizacao/analises/{id}", sh.Relatorio).Methods(http.MethodGet)
	api.Handle("/sincronizacao/analises/{id}/aplicar", operar(http.HandlerFunc(sh.Aplicar))).Methods(http.MethodPost)

	// Consolidação
	ch := consolidacao.NewHandler(consolidacaoServico)
	api.HandleFunc("/consolidados", ch.List).Methods(http.MethodGet)
	api.Handle("/consolidados", fechar(http.HandlerFunc(ch.Create))).Methods(http.MethodPost)
	api.HandleFunc("/consolidados/{id:[0-9]+}", ch.Delete).Methods(http.MethodDelete)

	// Cadastro de vendedores (e-mail do extrato)
	vh := vendedor.NewHandler(gdb)
	api.HandleFunc("/vendedores", vh.ListarVendedores).Methods(http.MethodGet)
	api.Handle("/vendedores", auth.RequireAdmin(http.HandlerFunc(vh.CriarVendedor))).Methods(http.MethodPost)
	api.Handle("/vendedores/{id:[0-9]+}", auth.RequireAdmin(http.HandlerFunc(vh.AtualizarVendedor))).Methods(http.MethodPut)
	api.Handle("/vendedores/{id:[0-9]+}", auth.RequireAdmin(http.HandlerFunc(vh.DeletarVendedor))).Methods(http.MethodDelete)

	// Faixas percentuais
	fh := comissao.NewHandler(faixas, resolvedor)
	api.HandleFunc("/faixas", fh.List).Methods(http.MethodGet)
	api.Handle("/faixas", auth.RequireAdmin(http.HandlerFunc(fh.Create))).Methods(http.MethodPost)
	api.Handle("/faixas/{id:[0-9]+}", auth.RequireAdmin(http.HandlerFunc(fh.Delete))).Methods(http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", consolidacao.HeaderSenhaAdmin},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(rateLimitMiddleware(cfg.RateLimitRPS)(r)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.L.Info("Servidor rodando", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.L.Error("Falha ao iniciar servidor", "error", err)
		os.Exit(1)
	}
	logger.L.Info("Servidor encerrado.")
}

// abrirFonte usa o SQL Server do ERP quando configurado; senão a exportação CSV.
func abrirFonte(cfg *config.AppConfig, res fonte.PercentualResolver) (fonte.Fonte, error) {
	switch {
	case cfg.TopManagerDSN != "":
		erpDB, err := db.OpenSQLServer(cfg.TopManagerDSN)
		if err != nil {
			return nil, err
		}
		logger.L.Info("Fonte de títulos: TopManager (SQL Server)", "query", cfg.TopManagerQueryPath)
		f, err := fonte.NewSQLFonte(erpDB, cfg.TopManagerQueryPath, res)
		if err != nil {
			return nil, err
		}
		return f, nil
	case cfg.FonteCSVPath != "":
		logger.L.Info("Fonte de títulos: exportação CSV", "path", cfg.FonteCSVPath)
		return fonte.NewCSVFonte(cfg.FonteCSVPath, res), nil
	default:
		return nil, errors.New("nenhuma fonte configurada: defina TOPMANAGER_DSN ou FONTE_CSV_PATH")
	}
}

func rateLimitMiddleware(rps int) func(http.Handler) http.Handler {
	if rps <= 0 {
		rps = 20
	}
	limiter := rate.NewLimiter(rate.Limit(rps), rps*2)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				logger.L.Warn("Rate limit excedido", "method", r.Method, "path", r.URL.Path, "remoteAddr", r.RemoteAddr)
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
