package gatehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mercatohq/gatehouse/decisionlog"
	"github.com/mercatohq/gatehouse/hook"
	"github.com/mercatohq/gatehouse/id"
	"github.com/mercatohq/gatehouse/role"
	"github.com/mercatohq/gatehouse/store"
)

// Resolver is the central permission resolution service. It coordinates
// the super-admin bypass, verdict cache, RBAC evaluation, and the legacy
// flag fallback, and it owns cache invalidation for every mutation.
type Resolver struct {
	store  store.Store
	cache  Cache
	hooks  *hook.Registry
	logger *slog.Logger
	config Config
	now    func() time.Time

	// pendingHooks collects hooks from options; the registry is built
	// after all options apply so it sees the configured logger.
	pendingHooks []hook.Hook
}

// New creates a Resolver with the given options. A store is required.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		logger: slog.Default(),
		config: DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		return nil, ErrStoreRequired
	}
	if len(r.pendingHooks) > 0 {
		r.hooks = hook.NewRegistry(r.logger)
		for _, h := range r.pendingHooks {
			r.hooks.Register(h)
		}
		r.pendingHooks = nil
	}
	return r, nil
}

// Store returns the underlying composite store.
func (r *Resolver) Store() store.Store { return r.store }

// Hooks returns the hook registry (may be nil).
func (r *Resolver) Hooks() *hook.Registry { return r.hooks }

// HasPermission reports whether the principal currently holds the
// permission identified by slug. It never returns an error: store
// failures degrade to the principal's legacy boolean flags, cache
// failures degrade to misses, and unknown slugs deny.
func (r *Resolver) HasPermission(ctx context.Context, p Principal, slug string) bool {
	return r.Check(ctx, p, slug).Allowed
}

// Check is the rich form of HasPermission. It reports the verdict along
// with which resolution stage produced it. This is the hot path.
func (r *Resolver) Check(ctx context.Context, p Principal, slug string) *Verdict {
	start := time.Now()
	kind, pid := p.PrincipalKind(), p.PrincipalID()

	v := &Verdict{Slug: slug}

	switch {
	// 1. Super admins pass every check, known slug or not.
	case p.SuperAdmin():
		v.Allowed = true
		v.Source = SourceSuperAdmin

	default:
		// 2. Cache hit short-circuits evaluation.
		if allowed, ok := r.cacheGet(ctx, kind, pid, slug); ok {
			v.Allowed = allowed
			v.Source = SourceCache
			break
		}

		// 3. Evaluate role assignments; fall back to legacy flags only
		// when the data layer errored, never on a clean deny.
		allowed, err := r.evaluate(ctx, kind, pid, slug)
		if err != nil {
			r.logger.Warn("rbac evaluation failed, using legacy flags",
				slog.String("principal_kind", string(kind)),
				slog.String("principal_id", pid),
				slog.String("slug", slug),
				slog.String("error", err.Error()),
			)
			v.Allowed = p.LegacyGrants()[slug]
			v.Source = SourceLegacy
			break
		}

		v.Allowed = allowed
		v.Source = SourceRBAC

		// 4. Cache both verdicts. Fallback verdicts are never cached so a
		// recovered store is consulted on the next check.
		r.cacheSet(ctx, kind, pid, slug, allowed)
	}

	v.EvalTimeNs = time.Since(start).Nanoseconds()

	r.logDecision(ctx, kind, pid, v)
	if r.hooks != nil {
		r.hooks.EmitAfterCheck(ctx, string(kind), pid, v)
	}

	return v
}

// Enforce returns ErrAccessDenied when the check fails. The error never
// reveals which stage denied.
func (r *Resolver) Enforce(ctx context.Context, p Principal, slug string) error {
	if !r.HasPermission(ctx, p, slug) {
		return ErrAccessDenied
	}
	return nil
}

// AllPermissions returns every permission slug the principal currently
// holds, sorted. Super admins get every active permission slug. Like
// HasPermission it never errors; on a store failure the result is the
// slugs the principal's legacy flags grant.
func (r *Resolver) AllPermissions(ctx context.Context, p Principal) []string {
	kind, pid := p.PrincipalKind(), p.PrincipalID()

	if p.SuperAdmin() {
		slugs, err := r.store.ListActiveSlugs(ctx)
		if err != nil {
			r.logger.Warn("listing active slugs failed, using legacy flags",
				slog.String("principal_id", pid),
				slog.String("error", err.Error()),
			)
			return legacySlugs(p)
		}
		sort.Strings(slugs)
		return slugs
	}

	if r.cache != nil {
		if slugs, ok := r.cache.GetPermissionSet(ctx, kind, pid); ok {
			return slugs
		}
	}

	slugs, err := r.collectPermissions(ctx, kind, pid)
	if err != nil {
		r.logger.Warn("collecting permissions failed, using legacy flags",
			slog.String("principal_kind", string(kind)),
			slog.String("principal_id", pid),
			slog.String("error", err.Error()),
		)
		return legacySlugs(p)
	}

	if r.cache != nil {
		r.cache.SetPermissionSet(ctx, kind, pid, slugs, r.config.cacheTTL())
	}
	return slugs
}

// PrimaryRole returns the principal's most significant current role: the
// active role with the highest priority among current assignments, ties
// broken by lowest assignment ID (the earliest created, since IDs are
// K-sortable). When the principal has no current assignment, or the data
// layer fails, the legacy role field is resolved or synthesized instead.
// A nil return means the principal has no role at all.
func (r *Resolver) PrimaryRole(ctx context.Context, p Principal) *role.Role {
	kind, pid := p.PrincipalKind(), p.PrincipalID()

	assignments, err := r.store.ListCurrentAssignments(ctx, string(kind), pid, r.now())
	if err != nil {
		r.logger.Warn("listing assignments failed, using legacy role",
			slog.String("principal_kind", string(kind)),
			slog.String("principal_id", pid),
			slog.String("error", err.Error()),
		)
		return r.legacyRole(ctx, p)
	}

	var (
		best       *role.Role
		bestAsgnID string
	)
	for _, a := range assignments {
		rl, err := r.store.GetRole(ctx, a.RoleID)
		if err != nil || rl == nil || !rl.IsActive {
			continue
		}
		switch {
		case best == nil,
			rl.Priority > best.Priority,
			rl.Priority == best.Priority && a.ID.String() < bestAsgnID:
			best = rl
			bestAsgnID = a.ID.String()
		}
	}
	if best != nil {
		return best
	}

	return r.legacyRole(ctx, p)
}

// evaluate walks the principal's current assignments in creation order.
// Within an assignment a custom override takes precedence over the role's
// grants; across assignments the first assignment that grants wins. A
// false override suppresses only its own assignment's role grant.
func (r *Resolver) evaluate(ctx context.Context, kind PrincipalKind, pid, slug string) (bool, error) {
	assignments, err := r.store.ListCurrentAssignments(ctx, string(kind), pid, r.now())
	if err != nil {
		return false, fmt.Errorf("list assignments: %w", err)
	}

	for _, a := range assignments {
		if allowed, ok := a.CustomPermissions[slug]; ok {
			if allowed {
				return true, nil
			}
			continue
		}

		granted, err := r.roleGrants(ctx, a.RoleID, slug)
		if err != nil {
			return false, err
		}
		if granted {
			return true, nil
		}
	}

	return false, nil
}

// roleGrants reports whether an active role carries an active permission
// with the given slug. An assignment may outlive its role; a missing
// role contributes no grant and is not a data-access failure.
func (r *Resolver) roleGrants(ctx context.Context, roleID id.RoleID, slug string) (bool, error) {
	rl, err := r.store.GetRole(ctx, roleID)
	if err != nil {
		if errors.Is(err, role.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get role %s: %w", roleID, err)
	}
	if rl == nil || !rl.IsActive {
		return false, nil
	}

	perms, err := r.store.ListActivePermissionsByRole(ctx, roleID)
	if err != nil {
		return false, fmt.Errorf("list role permissions %s: %w", roleID, err)
	}
	for _, perm := range perms {
		if perm.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// collectPermissions builds the full permission set: the union of active
// role grants across current assignments, with custom overrides applied
// in assignment order so the latest assignment's override wins.
func (r *Resolver) collectPermissions(ctx context.Context, kind PrincipalKind, pid string) ([]string, error) {
	assignments, err := r.store.ListCurrentAssignments(ctx, string(kind), pid, r.now())
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	set := make(map[string]bool)
	for _, a := range assignments {
		rl, err := r.store.GetRole(ctx, a.RoleID)
		if err != nil {
			if errors.Is(err, role.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get role %s: %w", a.RoleID, err)
		}
		if rl != nil && rl.IsActive {
			perms, err := r.store.ListActivePermissionsByRole(ctx, a.RoleID)
			if err != nil {
				return nil, fmt.Errorf("list role permissions %s: %w", a.RoleID, err)
			}
			for _, perm := range perms {
				set[perm.Slug] = true
			}
		}
	}

	// Overrides apply after all role grants, in assignment order.
	for _, a := range assignments {
		for slug, allowed := range a.CustomPermissions {
			set[slug] = allowed
		}
	}

	slugs := make([]string, 0, len(set))
	for slug, allowed := range set {
		if allowed {
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

// legacyRole resolves the principal's legacy role string against the role
// catalog, synthesizing an inactive placeholder when the catalog cannot
// supply it so callers always get the legacy identity back.
func (r *Resolver) legacyRole(ctx context.Context, p Principal) *role.Role {
	slug := p.LegacyRole()
	if slug == "" {
		return nil
	}

	if rl, err := r.store.GetRoleBySlug(ctx, slug); err == nil && rl != nil {
		return rl
	}

	return &role.Role{Slug: slug, Name: slug}
}

// legacySlugs returns the sorted slugs the principal's legacy flags grant.
func legacySlugs(p Principal) []string {
	grants := p.LegacyGrants()
	slugs := make([]string, 0, len(grants))
	for slug, allowed := range grants {
		if allowed {
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)
	return slugs
}

func (r *Resolver) cacheGet(ctx context.Context, kind PrincipalKind, pid, slug string) (bool, bool) {
	if r.cache == nil {
		return false, false
	}
	return r.cache.GetVerdict(ctx, kind, pid, slug)
}

func (r *Resolver) cacheSet(ctx context.Context, kind PrincipalKind, pid, slug string, allowed bool) {
	if r.cache == nil {
		return
	}
	r.cache.SetVerdict(ctx, kind, pid, slug, allowed, r.config.cacheTTL())
}

// logDecision persists the verdict to the decision log when enabled.
// Failures are logged and never affect the verdict.
func (r *Resolver) logDecision(ctx context.Context, kind PrincipalKind, pid string, v *Verdict) {
	if !r.config.LogDecisions {
		return
	}

	entry := &decisionlog.Entry{
		ID:            id.NewDecisionLogID(),
		PrincipalKind: string(kind),
		PrincipalID:   pid,
		Slug:          v.Slug,
		Allowed:       v.Allowed,
		Source:        string(v.Source),
		EvalTimeNs:    v.EvalTimeNs,
		CreatedAt:     r.now(),
	}
	if err := r.store.CreateEntry(ctx, entry); err != nil {
		r.logger.Warn("decision log write failed",
			slog.String("principal_id", pid),
			slog.String("error", err.Error()),
		)
	}
}
