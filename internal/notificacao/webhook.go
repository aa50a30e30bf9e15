package notificacao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stik/comissys/internal/logger"
)

// Webhook avisa um sistema externo (financeiro) quando um lote é consolidado.
type Webhook struct {
	URL    string
	Client *http.Client
}

func NovoWebhook(url string) *Webhook {
	return &Webhook{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

type avisoConsolidacao struct {
	Mensagem    string   `json:"mensagem"`
	Ator        string   `json:"ator"`
	Quantidade  int      `json:"quantidade"`
	Vendedores  []string `json:"vendedores"`
	Competencia []string `json:"competencias"`
}

// AvisarConsolidacao faz POST do resumo do lote consolidado. URL vazia não faz nada.
func (w *Webhook) AvisarConsolidacao(ctx context.Context, ator string, quantidade int, vendedores, competencias []string) error {
	if w == nil || w.URL == "" {
		return nil
	}
	body, err := json.Marshal(avisoConsolidacao{
		Mensagem:    "Lote de comissões consolidado",
		Ator:        ator,
		Quantidade:  quantidade,
		Vendedores:  vendedores,
		Competencia: competencias,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		logger.L.Error("Erro ao enviar webhook", "erro", err)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook respondeu %d", resp.StatusCode)
	}
	return nil
}
