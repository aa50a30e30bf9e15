package sincronizacao

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrExecucaoEmAndamento: outra análise ou aplicação está rodando contra o extrato.
var ErrExecucaoEmAndamento = errors.New("sincronização já em andamento")

// Trava serializa execuções. liberar deve ser chamado sempre que err for nil.
type Trava interface {
	Adquirir(ctx context.Context, chave string, ttl time.Duration) (liberar func(), err error)
}

// TravaLocal vale só para o processo atual.
type TravaLocal struct {
	mu     sync.Mutex
	ativas map[string]struct{}
}

func NovaTravaLocal() *TravaLocal {
	return &TravaLocal{ativas: map[string]struct{}{}}
}

func (t *TravaLocal) Adquirir(_ context.Context, chave string, _ time.Duration) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.ativas[chave]; ok {
		return nil, ErrExecucaoEmAndamento
	}
	t.ativas[chave] = struct{}{}
	return func() {
		t.mu.Lock()
		delete(t.ativas, chave)
		t.mu.Unlock()
	}, nil
}

// liberarSeDono só apaga a chave se ela ainda pertence a quem adquiriu.
var liberarSeDono = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// TravaRedis vale entre instâncias. O TTL evita trava órfã se o processo morrer.
type TravaRedis struct {
	client *redis.Client
}

func NovaTravaRedis(client *redis.Client) *TravaRedis {
	return &TravaRedis{client: client}
}

func (t *TravaRedis) Adquirir(ctx context.Context, chave string, ttl time.Duration) (func(), error) {
	dono := uuid.NewString()
	ok, err := t.client.SetNX(ctx, chave, dono, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrExecucaoEmAndamento
	}
	return func() {
		_ = liberarSeDono.Run(context.Background(), t.client, []string{chave}, dono).Err()
	}, nil
}
