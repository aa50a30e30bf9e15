package notificacao

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/stik/comissys/internal/config"
	"github.com/stik/comissys/internal/extrato"
	"github.com/stik/comissys/internal/logger"
)

// Remetente entrega uma mensagem pronta.
type Remetente interface {
	Enviar(ctx context.Context, m Mensagem) error
}

// Notificador implementa extrato.Notificador sobre qualquer Remetente.
type Notificador struct {
	destinatarios Destinatarios
	copia         []string
	remetente     Remetente
}

var _ extrato.Notificador = (*Notificador)(nil)

func NovoNotificador(dest Destinatarios, copia []string, r Remetente) *Notificador {
	return &Notificador{destinatarios: dest, copia: copia, remetente: r}
}

// EnviarExtrato envia o extrato ao vendedor com cópia para a lista configurada.
func (n *Notificador) EnviarExtrato(ctx context.Context, vendedor string, ls []extrato.Lancamento) error {
	email, ok := n.destinatarios.EmailVendedor(vendedor)
	if !ok {
		logger.L.Warn("Vendedor sem e-mail cadastrado", "vendedor", vendedor)
		return fmt.Errorf("%s: %w", vendedor, extrato.ErrSemEmail)
	}
	return n.remetente.Enviar(ctx, MontarMensagem(email, n.copia, vendedor, ls))
}

// NovoRemetente escolhe o provedor pela configuração; configuração incompleta cai no mock.
func NovoRemetente(cfg *config.AppConfig) Remetente {
	provider := strings.ToLower(cfg.EmailServiceProvider)
	logger.L.Info("Inicializando serviço de e-mail", "provider", provider)

	switch provider {
	case "mailgun":
		if cfg.MailgunDomain == "" || cfg.MailgunPrivateAPIKey == "" || cfg.SenderEmail == "" {
			logger.L.Warn("Configuração do Mailgun incompleta. Usando MockRemetente.")
			return &MockRemetente{}
		}
		mg := mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunPrivateAPIKey)
		logger.L.Info("Cliente Mailgun inicializado", "domain", cfg.MailgunDomain)
		return &MailgunRemetente{mg: mg, senderEmail: cfg.SenderEmail, senderName: cfg.SenderName}
	case "smtp":
		if cfg.SMTPServer == "" || cfg.SenderEmail == "" {
			logger.L.Warn("Configuração SMTP incompleta. Usando MockRemetente.")
			return &MockRemetente{}
		}
		return &SMTPRemetente{
			SMTPServer:   cfg.SMTPServer,
			SMTPPort:     cfg.SMTPPort,
			SMTPUser:     cfg.SMTPUser,
			SMTPPassword: cfg.SMTPPassword,
			SenderEmail:  cfg.SenderEmail,
			SenderName:   cfg.SenderName,
		}
	default:
		return &MockRemetente{}
	}
}

type SMTPRemetente struct {
	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SenderEmail  string
	SenderName   string
}

func (s *SMTPRemetente) Enviar(_ context.Context, m Mensagem) error {
	boundary := fmt.Sprintf("comissys-%d", time.Now().UnixNano())

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.SenderName, s.SenderEmail)
	fmt.Fprintf(&b, "To: %s\r\n", m.Para)
	if len(m.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(m.Cc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Assunto)
	b.WriteString("MIME-version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s\r\n", boundary, m.Texto)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s\r\n", boundary, m.HTML)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	var auth smtp.Auth
	if s.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	}
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	to := append([]string{m.Para}, m.Cc...)
	if err := smtp.SendMail(addr, auth, s.SenderEmail, to, []byte(b.String())); err != nil {
		logger.L.Error("Falha ao enviar extrato via SMTP", "error", err, "to", m.Para)
		return fmt.Errorf("falha ao enviar extrato via SMTP: %w", err)
	}
	logger.L.Info("Extrato enviado via SMTP", "to", m.Para, "cc", len(m.Cc))
	return nil
}

type MailgunRemetente struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
}

func (s *MailgunRemetente) Enviar(ctx context.Context, m Mensagem) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	message := s.mg.NewMessage(from, m.Assunto, m.Texto, m.Para)
	message.SetHtml(m.HTML)
	for _, cc := range m.Cc {
		message.AddCC(cc)
	}
	message.AddTag("extrato-comissao")

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Falha ao enviar extrato via Mailgun", "error", err, "to", m.Para, "mailgunResp", resp)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	logger.L.Info("Extrato enviado via Mailgun", "to", m.Para, "id", id)
	return nil
}

// MockRemetente só registra o envio. Guarda as mensagens para inspeção.
type MockRemetente struct {
	mu        sync.Mutex
	Mensagens []Mensagem
}

func (m *MockRemetente) Enviar(_ context.Context, msg Mensagem) error {
	m.mu.Lock()
	m.Mensagens = append(m.Mensagens, msg)
	m.mu.Unlock()
	logger.L.Info("MockRemetente: extrato não enviado de fato", "to", msg.Para, "assunto", msg.Assunto)
	return nil
}
