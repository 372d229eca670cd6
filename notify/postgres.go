// Package notify carries permission cache invalidations between processes
// over Postgres LISTEN/NOTIFY.
package notify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultChannel is the NOTIFY channel used when none is configured.
const DefaultChannel = "bastion_invalidate"

// maxPayload stays under the 8000 byte NOTIFY limit. Larger invalidations
// are sent as "everything".
const maxPayload = 7900

type message struct {
	Origin  string   `json:"origin"`
	RoleIDs []string `json:"role_ids,omitempty"`
}

// Postgres publishes and receives invalidations on a NOTIFY channel.
// Messages published by the same instance are not delivered back to it.
type Postgres struct {
	pool           *pgxpool.Pool
	ownsPool       bool
	channel        string
	origin         string
	logger         *slog.Logger
	reconnectDelay time.Duration
}

// Option configures the notifier.
type Option func(*Postgres)

// WithChannel sets the NOTIFY channel.
func WithChannel(ch string) Option {
	return func(p *Postgres) {
		if ch != "" {
			p.channel = ch
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(p *Postgres) { p.logger = l } }

// WithReconnectDelay sets the pause between listener reconnect attempts.
func WithReconnectDelay(d time.Duration) Option {
	return func(p *Postgres) { p.reconnectDelay = d }
}

// Connect opens a pool for dsn and returns a notifier that owns it.
func Connect(ctx context.Context, dsn string, opts ...Option) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("notify: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("notify: pinging database: %w", err)
	}
	p := New(pool, opts...)
	p.ownsPool = true
	return p, nil
}

// New returns a notifier using an existing pool. Listen holds one pool
// connection for as long as it runs.
func New(pool *pgxpool.Pool, opts ...Option) *Postgres {
	p := &Postgres{
		pool:           pool,
		channel:        DefaultChannel,
		origin:         newOrigin(),
		logger:         slog.Default(),
		reconnectDelay: time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Close releases the pool when the notifier opened it.
func (p *Postgres) Close() {
	if p.ownsPool {
		p.pool.Close()
	}
}

// Publish sends an invalidation for roleIDs, or for everything when empty.
func (p *Postgres) Publish(ctx context.Context, roleIDs []string) error {
	payload, err := json.Marshal(message{Origin: p.origin, RoleIDs: roleIDs})
	if err != nil {
		return fmt.Errorf("notify: encode: %w", err)
	}
	if len(payload) > maxPayload {
		payload, _ = json.Marshal(message{Origin: p.origin})
	}
	if _, err := p.pool.Exec(ctx, "SELECT pg_notify($1, $2)", p.channel, string(payload)); err != nil {
		return fmt.Errorf("notify: publish: %w", err)
	}
	return nil
}

// Listen calls fn for every invalidation published by another instance. It
// reconnects after connection failures; since messages may have been missed
// meanwhile, every reconnect is reported as a full invalidation. Listen
// returns when ctx is done.
func (p *Postgres) Listen(ctx context.Context, fn func(roleIDs []string)) error {
	first := true
	for {
		err := p.listenOnce(ctx, fn, !first)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		first = false
		p.logger.Warn("notify: listener disconnected",
			slog.String("channel", p.channel),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.reconnectDelay):
		}
	}
}

func (p *Postgres) listenOnce(ctx context.Context, fn func([]string), resumed bool) error {
	pc, err := p.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	conn := pc.Hijack()
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{p.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	if resumed {
		fn(nil)
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait: %w", err)
		}
		var msg message
		if err := json.Unmarshal([]byte(n.Payload), &msg); err != nil {
			p.logger.Warn("notify: dropping malformed payload", slog.String("error", err.Error()))
			continue
		}
		if msg.Origin == p.origin {
			continue
		}
		fn(msg.RoleIDs)
	}
}

func newOrigin() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("t%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
