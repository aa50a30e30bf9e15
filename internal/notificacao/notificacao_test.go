package notificacao

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stik/comissys/internal/config"
	"github.com/stik/comissys/internal/extrato"
)

func lancamento(doc, competencia string, dia int, liquido, pct, valor string) extrato.Lancamento {
	return extrato.Lancamento{
		Documento:          doc,
		Competencia:        competencia,
		Cliente:            "ACME & CIA",
		Artigo:             "TINTA",
		Recebimento:        time.Date(2024, 2, dia, 0, 0, 0, 0, time.UTC),
		RecebimentoLiquido: decimal.RequireFromString(liquido),
		PercentualComissao: decimal.RequireFromString(pct),
		ValorComissao:      decimal.RequireFromString(valor),
	}
}

func TestMontarMensagem(t *testing.T) {
	ls := []extrato.Lancamento{
		lancamento("200", "2024-02", 9, "1500", "2.5", "37.5"),
		lancamento("100", "2024-02", 5, "1000", "2.5", "25"),
	}
	m := MontarMensagem("joao@x.com", []string{"gestao@x.com"}, "JOAO", ls)

	assert.Equal(t, "Extrato de Comissão - JOAO (Validação)", m.Assunto)
	assert.Equal(t, "joao@x.com", m.Para)
	assert.Equal(t, []string{"gestao@x.com"}, m.Cc)
	assert.Contains(t, m.Texto, "Total: R$ 62,50")
	assert.Contains(t, m.Texto, "Fev-2024")
	assert.Less(t, strings.Index(m.Texto, "Doc 100"), strings.Index(m.Texto, "Doc 200"))
	assert.Contains(t, m.HTML, "ACME &amp; CIA")
	assert.Contains(t, m.HTML, "1.500,00")
}

func TestNotificadorSemEmail(t *testing.T) {
	cfg := &config.AppConfig{EmailsVendedores: map[string]string{"JOAO": "joao@x.com"}}
	mock := &MockRemetente{}
	n := NovoNotificador(cfg, []string{"cc@x.com"}, mock)

	require.NoError(t, n.EnviarExtrato(context.Background(), " joao ", []extrato.Lancamento{lancamento("1", "2024-02", 1, "10", "1", "0.1")}))
	require.Len(t, mock.Mensagens, 1)
	assert.Equal(t, "joao@x.com", mock.Mensagens[0].Para)

	err := n.EnviarExtrato(context.Background(), "MARIA", nil)
	assert.ErrorIs(t, err, extrato.ErrSemEmail)
	assert.Len(t, mock.Mensagens, 1)
}

func TestNovoRemetenteIncompletoCaiNoMock(t *testing.T) {
	assert.IsType(t, &MockRemetente{}, NovoRemetente(&config.AppConfig{EmailServiceProvider: "mailgun"}))
	assert.IsType(t, &MockRemetente{}, NovoRemetente(&config.AppConfig{EmailServiceProvider: "smtp"}))
	assert.IsType(t, &SMTPRemetente{}, NovoRemetente(&config.AppConfig{
		EmailServiceProvider: "smtp", SMTPServer: "localhost", SMTPPort: 25, SenderEmail: "a@b.c",
	}))
	assert.IsType(t, &MailgunRemetente{}, NovoRemetente(&config.AppConfig{
		EmailServiceProvider: "mailgun", MailgunDomain: "mg.x.com", MailgunPrivateAPIKey: "key", SenderEmail: "a@b.c",
	}))
}

func TestWebhook(t *testing.T) {
	var recebido avisoConsolidacao
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&recebido)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	require.NoError(t, NovoWebhook(srv.URL).AvisarConsolidacao(context.Background(), "ana", 3, []string{"JOAO"}, []string{"2024-02"}))
	assert.Equal(t, 3, recebido.Quantidade)
	assert.Equal(t, []string{"JOAO"}, recebido.Vendedores)

	assert.NoError(t, NovoWebhook("").AvisarConsolidacao(context.Background(), "ana", 1, nil, nil))
}
