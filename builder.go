package goAccount

import (
	"errors"
	"fmt"
	"time"

	internalaudit "github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/password"
	"github.com/MrEthical07/goAccount/provider"
	"github.com/MrEthical07/goAccount/refresh"
	"github.com/MrEthical07/goAccount/user"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder collects the engine's collaborators.
//
// Builder instances are intended to be configured during initialization and
// used for exactly one Build.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	store     user.Store
	registry  refresh.Registry
	verifiers map[user.Provenance]provider.Verifier
	sender    Sender
	logger    *zap.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config:    defaultConfig(),
		verifiers: make(map[user.Provenance]provider.Verifier),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the account store. Required.
func (b *Builder) WithStore(s user.Store) *Builder {
	b.store = s
	return b
}

// WithRegistry sets the refresh-token registry. It takes precedence over WithRedis.
func (b *Builder) WithRegistry(r refresh.Registry) *Builder {
	b.registry = r
	return b
}

// WithRedis backs the refresh-token registry with Redis, keyed under
// Config.Registry.RedisPrefix.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithVerifier enables social sign-in for v.Provider(). A later verifier for
// the same provider replaces the earlier one.
func (b *Builder) WithVerifier(v provider.Verifier) *Builder {
	if v != nil {
		b.verifiers[v.Provider()] = v
	}
	return b
}

// WithSender wires confirmation-code delivery. Without a sender codes are
// stored but reported as not sent.
func (b *Builder) WithSender(s Sender) *Builder {
	b.sender = s
	return b
}

// WithLogger sets the engine logger. The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets where audit events go. Audit must also be enabled in Config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and assembles the Engine. A Builder can
// be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("user store required")
	}

	for p, v := range b.verifiers {
		if !p.Social() {
			return nil, fmt.Errorf("verifier for %q is not a social provider", p)
		}
		if v.Provider() != p {
			return nil, fmt.Errorf("verifier registered for %q reports %q", p, v.Provider())
		}
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		config:    cloneConfig(cfg),
		store:     b.store,
		verifiers: make(map[user.Provenance]provider.Verifier, len(b.verifiers)),
		sender:    b.sender,
		logger:    logger.Named("account"),
		now:       time.Now,
	}
	for p, v := range b.verifiers {
		engine.verifiers[p] = v
	}

	// -------- REFRESH REGISTRY --------
	switch {
	case b.registry != nil:
		engine.registry = b.registry
	case b.redis != nil:
		engine.registry = refresh.NewRedis(b.redis, cfg.Registry.RedisPrefix)
	default:
		mem := refresh.NewMemory(cfg.Registry.SweepInterval)
		engine.registry = mem
		engine.ownedRegistry = mem
	}

	ph, err := password.NewBcrypt(password.Config{Cost: cfg.Password.Cost})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	jm, err := jwt.NewManager(jwt.Config{
		AccessSecret:  cloneBytes(cfg.JWT.AccessSecret),
		RefreshSecret: cloneBytes(cfg.JWT.RefreshSecret),
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		MaxFutureIAT:  cfg.JWT.MaxFutureIAT,
	})
	if err != nil {
		if engine.ownedRegistry != nil {
			engine.ownedRegistry.Close()
		}
		return nil, err
	}
	engine.jwtManager = jm

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Now:        func() time.Time { return engine.now() },
		OnDrop: func(ev internalaudit.Event) {
			engine.logger.Debug("audit event dropped", zap.String("event_type", ev.EventType), zap.String("user_id", ev.UserID))
		},
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.initFlowDeps()

	b.built = true

	return engine, nil
}
