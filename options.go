package gatehouse

import (
	"log/slog"
	"time"

	"github.com/mercatohq/gatehouse/hook"
	"github.com/mercatohq/gatehouse/store"
)

// Option is a functional option for the Resolver.
type Option func(*Resolver)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(r *Resolver) { r.store = s } }

// WithCache sets the verdict cache.
func WithCache(c Cache) Option { return func(r *Resolver) { r.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(r *Resolver) { r.logger = l } }

// WithConfig sets the resolver configuration.
func WithConfig(c Config) Option { return func(r *Resolver) { r.config = c } }

// WithClock sets the time source used for assignment expiry checks.
// Tests inject a fixed clock here.
func WithClock(now func() time.Time) Option { return func(r *Resolver) { r.now = now } }

// WithHook registers a lifecycle hook with the resolver. Hooks are
// installed after all options apply, so option order relative to
// WithLogger does not matter.
func WithHook(h hook.Hook) Option {
	return func(r *Resolver) { r.pendingHooks = append(r.pendingHooks, h) }
}
