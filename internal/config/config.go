package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Papéis reconhecidos pelo sistema.
const (
	PapelAdmin         = "admin"
	PapelGestora       = "gestora"
	PapelControladoria = "controladoria"
)

// Usuario é uma credencial local. A senha fica apenas como hash bcrypt.
type Usuario struct {
	Username  string `json:"username"`
	SenhaHash string `json:"senhaHash"`
	Papel     string `json:"papel"`
}

// AppConfig é montada uma vez no startup e repassada aos construtores.
// Nenhum pacote lê variáveis de ambiente depois disso.
type AppConfig struct {
	Port     string
	LogLevel string

	DBDriver         string
	DBPath           string
	DBHost           string
	DBPort           uint
	DBName           string
	DBUsername       string
	DBPassword       string
	DBSecretID       string
	DBSSLModeDisable bool

	TopManagerDSN       string
	TopManagerQueryPath string
	FonteCSVPath        string

	JWTSecret         string
	AccessTokenExpiry time.Duration
	RefreshTokenTTL   time.Duration
	CookieSecure      bool
	Usuarios          []Usuario
	AdminSenhaHash    string

	EmailServiceProvider string
	SMTPServer           string
	SMTPPort             int
	SMTPUser             string
	SMTPPassword         string
	MailgunDomain        string
	MailgunPrivateAPIKey string
	SenderEmail          string
	SenderName           string
	EmailCopia           []string
	// EmailsVendedores é indexado pelo nome do vendedor em maiúsculas, sem espaços nas pontas.
	EmailsVendedores map[string]string
	WebhookURL       string

	// Regioes mapeia UF (exatamente como o ERP emite) para o grupo de região.
	// Vazio significa usar a tabela padrão do pacote comissao.
	Regioes map[string]int

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	AnaliseTTL     time.Duration
	FaixasCacheTTL time.Duration
	CORSOrigins    []string
	RateLimitRPS   int
}

// Load lê o .env (opcional), as variáveis de ambiente e os arquivos JSON referenciados.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: .env não encontrado, usando variáveis de ambiente e padrões")
	}

	cfg := &AppConfig{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:         strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBPath:           getEnv("DB_PATH", "comissys.db"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           uint(getEnvAsInt("DB_PORT", 5432)),
		DBName:           getEnv("DB_NAME", "comissys"),
		DBUsername:       getEnv("DB_USERNAME", ""),
		DBPassword:       getEnv("DB_PASSWORD", ""),
		DBSecretID:       getEnv("DB_SECRET_ID", ""),
		DBSSLModeDisable: getEnv("DB_SSL_MODE_DISABLE", "false") == "true",

		TopManagerDSN:       getEnv("TOPMANAGER_DSN", ""),
		TopManagerQueryPath: getEnv("TOPMANAGER_QUERY_PATH", "sql/titulos_recebidos.sql"),
		FonteCSVPath:        getEnv("FONTE_CSV_PATH", ""),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		AccessTokenExpiry: getEnvAsDuration("ACCESS_TOKEN_TTL", 8*time.Hour),
		RefreshTokenTTL:   getEnvAsDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		CookieSecure:      getEnv("COOKIE_SECURE", "false") == "true",
		AdminSenhaHash:    getEnv("ADMIN_PASSWORD_HASH", ""),

		EmailServiceProvider: strings.ToLower(getEnv("EMAIL_SERVICE_PROVIDER", "mock")),
		SMTPServer:           getEnv("SMTP_SERVER", ""),
		SMTPPort:             getEnvAsInt("SMTP_PORT", 25),
		SMTPUser:             getEnv("SMTP_USER", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),
		SenderEmail:          getEnv("SENDER_EMAIL", ""),
		SenderName:           getEnv("SENDER_NAME", "Comissys"),
		EmailCopia:           splitList(getEnv("EMAIL_COPIA", "")),
		WebhookURL:           getEnv("CONSOLIDATION_WEBHOOK_URL", ""),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		AnaliseTTL:     getEnvAsDuration("ANALYSIS_TTL", 30*time.Minute),
		FaixasCacheTTL: getEnvAsDuration("BRACKET_CACHE_TTL", 15*time.Minute),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPS:   getEnvAsInt("RATE_LIMIT_RPS", 20),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET não definida")
	}

	var err error
	if cfg.Usuarios, err = LoadUsuarios(getEnv("USERS_PATH", "")); err != nil {
		return nil, err
	}
	if cfg.EmailsVendedores, err = LoadEmailsVendedores(getEnv("SELLER_EMAILS_PATH", "")); err != nil {
		return nil, err
	}
	if cfg.Regioes, err = LoadRegioes(getEnv("REGION_TABLE_PATH", "")); err != nil {
		return nil, err
	}

	log.Printf("Configuração carregada: Port=%s, LogLevel=%s, EmailProvider=%s, Usuarios=%d",
		cfg.Port, cfg.LogLevel, cfg.EmailServiceProvider, len(cfg.Usuarios))
	return cfg, nil
}

// Usuario busca um usuário pelo username (case-insensitive).
func (c *AppConfig) Usuario(username string) (Usuario, bool) {
	for _, u := range c.Usuarios {
		if strings.EqualFold(u.Username, strings.TrimSpace(username)) {
			return u, true
		}
	}
	return Usuario{}, false
}

// EmailVendedor devolve o e-mail cadastrado para o vendedor.
func (c *AppConfig) EmailVendedor(vendedor string) (string, bool) {
	email, ok := c.EmailsVendedores[NormalizarVendedor(vendedor)]
	return email, ok && email != ""
}

// NormalizarVendedor é a forma usada como chave do mapa de e-mails.
func NormalizarVendedor(nome string) string {
	return strings.ToUpper(strings.TrimSpace(nome))
}

// LoadUsuarios lê um arquivo JSON com a lista de usuários. Caminho vazio devolve lista vazia.
func LoadUsuarios(path string) ([]Usuario, error) {
	var usuarios []Usuario
	if err := readJSON(path, &usuarios); err != nil {
		return nil, fmt.Errorf("usuários: %w", err)
	}
	for i := range usuarios {
		usuarios[i].Papel = strings.ToLower(strings.TrimSpace(usuarios[i].Papel))
	}
	return usuarios, nil
}

// LoadEmailsVendedores lê {"Nome do Vendedor": "email"} e normaliza as chaves.
func LoadEmailsVendedores(path string) (map[string]string, error) {
	bruto := map[string]string{}
	if err := readJSON(path, &bruto); err != nil {
		return nil, fmt.Errorf("e-mails de vendedores: %w", err)
	}
	m := make(map[string]string, len(bruto))
	for nome, email := range bruto {
		m[NormalizarVendedor(nome)] = strings.TrimSpace(email)
	}
	return m, nil
}

// LoadRegioes lê {"UF": grupo}. As chaves são mantidas como estão.
func LoadRegioes(path string) (map[string]int, error) {
	m := map[string]int{}
	if err := readJSON(path, &m); err != nil {
		return nil, fmt.Errorf("tabela de regiões: %w", err)
	}
	return m, nil
}

func readJSON(path string, v any) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Valor inteiro inválido para %s ('%s'), usando padrão: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Duração inválida para %s ('%s'), usando padrão: %s", key, valueStr, fallback)
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
