package goAccount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/internal"
	internalaudit "github.com/MrEthical07/goAccount/internal/audit"
	"github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/mailer"
	"github.com/MrEthical07/goAccount/password"
	"github.com/MrEthical07/goAccount/provider"
	"github.com/MrEthical07/goAccount/refresh"
	"github.com/MrEthical07/goAccount/user"
	"go.uber.org/zap"
)

// Engine runs every account operation. It is safe for concurrent use after
// Build; the only shared mutable state lives behind the store and registry.
type Engine struct {
	config        Config
	store         user.Store
	registry      refresh.Registry
	ownedRegistry *refresh.Memory
	verifiers     map[user.Provenance]provider.Verifier
	sender        Sender
	logger        *zap.Logger
	audit         *internalaudit.Dispatcher
	metrics       *Metrics
	passwordHash  *password.Bcrypt
	jwtManager    *jwt.Manager
	flowDeps      flows.Deps
	now           func() time.Time
}

// Close drains the audit dispatcher and stops the built-in registry janitor.
// Injected stores, registries and clients are left to their owners.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.ownedRegistry != nil {
		e.ownedRegistry.Close()
	}
}

// AuditDropped reports how many audit events were dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) initFlowDeps() {
	now := func() time.Time { return e.now() }
	policy := e.config.Policy.flows()

	confirmation := flows.ConfirmationDeps{
		NewCode:     internal.NewConfirmationCode,
		FindByID:    e.store.FindByID,
		FindByEmail: e.store.FindByEmail,
		Update:      e.store.Update,
		Consume:     e.store.ConsumeConfirmationCode,
	}
	if e.sender != nil {
		confirmation.Send = e.sendConfirmation
	}

	e.flowDeps = flows.Deps{
		SignUp: flows.SignUpDeps{
			Policy:       policy,
			Now:          now,
			FindByEmail:  e.store.FindByEmail,
			Create:       e.store.Create,
			HashPassword: e.passwordHash.Hash,
			IssueTokens:  e.issueTokens,
			Deliver: func(ctx context.Context, u *user.User, authToken string) flows.Delivery {
				return flows.RunDeliverCode(ctx, u, authToken, confirmation)
			},
		},
		Login: flows.LoginDeps{
			Policy:         policy,
			FindByEmail:    e.store.FindByEmail,
			VerifyPassword: e.passwordHash.Verify,
			IssueTokens:    e.issueTokens,
		},
		Social: flows.SocialDeps{
			Verifiers:      e.verifiers,
			Timeout:        e.config.Providers.Timeout,
			FindByEmail:    e.store.FindByEmail,
			Create:         e.store.Create,
			HashPassword:   e.passwordHash.Hash,
			VerifyPassword: e.passwordHash.Verify,
			IssueTokens:    e.issueTokens,
		},
		Refresh: flows.RefreshDeps{
			ParseRefresh:      e.jwtManager.ParseRefresh,
			DecodeUnverified:  e.jwtManager.DecodeUnverified,
			RequireRegistered: e.config.Registry.RequireRegistered,
			IsRegistered:      e.isRegistered,
			FindByID:          e.store.FindByID,
			Rotate:            e.rotateTokens,
		},
		Confirmation: confirmation,
	}
}

// issueTokens signs a pair and records its refresh token. A registry write
// failure is fatal only when registration is required.
func (e *Engine) issueTokens(ctx context.Context, claim user.Claim) (jwt.Pair, error) {
	pair, err := e.jwtManager.Issue(claim)
	if err != nil {
		return jwt.Pair{}, err
	}
	entry := refresh.Entry{User: claim, IssuedAt: e.now().UTC()}
	if err := e.registry.Put(ctx, pair.RefreshToken, entry, e.jwtManager.RefreshTTL()); err != nil {
		if e.config.Registry.RequireRegistered {
			return jwt.Pair{}, fmt.Errorf("register refresh token: %w", err)
		}
		e.logger.Warn("refresh registry write failed", zap.String("user_id", claim.ID), zap.Error(err))
	}
	return pair, nil
}

// rotateTokens issues a new pair for claim and swaps it for presented in the registry.
func (e *Engine) rotateTokens(ctx context.Context, presented string, claim user.Claim) (jwt.Pair, error) {
	pair, err := e.jwtManager.Issue(claim)
	if err != nil {
		return jwt.Pair{}, err
	}
	entry := refresh.Entry{User: claim, IssuedAt: e.now().UTC()}
	if err := refresh.Rotate(ctx, e.registry, presented, pair.RefreshToken, entry, e.jwtManager.RefreshTTL()); err != nil {
		if e.config.Registry.RequireRegistered {
			return jwt.Pair{}, fmt.Errorf("rotate refresh token: %w", err)
		}
		e.logger.Warn("refresh registry rotate failed", zap.String("user_id", claim.ID), zap.Error(err))
	}
	return pair, nil
}

func (e *Engine) isRegistered(ctx context.Context, token string) (bool, error) {
	_, err := e.registry.Get(ctx, token)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, refresh.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (e *Engine) sendConfirmation(ctx context.Context, to, code, authToken string) error {
	msg, err := mailer.ConfirmationMessage(to, code, authToken)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, e.config.Email.Timeout)
	defer cancel()
	if err := e.sender.Send(ctx, msg); err != nil {
		if errors.Is(err, mailer.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return ErrEmailServiceTimeout
		}
		return err
	}
	return nil
}

func (e *Engine) recordDelivery(ctx context.Context, u *user.User, d flows.Delivery) EmailDelivery {
	switch d.Status {
	case flows.DeliverySent:
		e.metricInc(MetricConfirmationSent)
		return EmailSent
	case flows.DeliveryNoCode:
		e.metricInc(MetricConfirmationUndelivered)
		e.logger.Warn("confirmation code not delivered",
			zap.String("user_id", u.ID),
			zap.Error(d.Err),
		)
		return EmailNoCode
	default:
		return EmailNotSent
	}
}

// ValidateAccess verifies an access token and returns its claim. Expired
// tokens yield ErrExpiredToken; anything else ErrNotAuthorized.
func (e *Engine) ValidateAccess(ctx context.Context, token string) (*user.Claim, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer func() {
		if e.metrics.LatencyEnabled() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}
	}()

	if token == "" {
		return nil, newFailure(KindAuthentication, ErrNotAuthorized)
	}
	claims, err := e.jwtManager.ParseAccess(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, newFailure(KindAuthentication, ErrExpiredToken)
		}
		return nil, newFailure(KindAuthentication, ErrNotAuthorized)
	}
	claim := claims.User
	return &claim, nil
}

// GetUser looks an account up by id when ref has the shape of an id, by
// nickname otherwise.
func (e *Engine) GetUser(ctx context.Context, ref string) (*UserResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	var (
		u   *user.User
		err error
	)
	if user.LooksLikeID(ref) {
		u, err = e.store.FindByID(ctx, ref)
	} else {
		u, err = e.store.FindByNickname(ctx, ref)
	}
	if err != nil {
		return nil, e.lookupFailure(err, "get user", ref)
	}
	return &UserResult{OK: true, User: u}, nil
}

// ListUsers returns every account and the total count.
func (e *Engine) ListUsers(ctx context.Context) (*UsersResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	users, err := e.store.List(ctx)
	if err != nil {
		return nil, e.storeFailure("list users", "", err)
	}
	count, err := e.store.Count(ctx)
	if err != nil {
		return nil, e.storeFailure("count users", "", err)
	}
	if users == nil {
		users = []*user.User{}
	}
	return &UsersResult{OK: true, Users: users, Count: count}, nil
}

func (e *Engine) lookupFailure(err error, op, userID string) error {
	if errors.Is(err, user.ErrNotFound) {
		return newFailure(KindNotFound, ErrUserNotFound)
	}
	return e.storeFailure(op, userID, err)
}

func (e *Engine) storeFailure(op, userID string, err error) error {
	e.logger.Error("store operation failed",
		zap.String("op", op),
		zap.String("user_id", userID),
		zap.Error(err),
	)
	return storeFailure(err)
}
