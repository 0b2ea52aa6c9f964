// Package memory provides an in-memory store backend for tests and
// development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mercatohq/gatehouse/assignment"
	"github.com/mercatohq/gatehouse/decisionlog"
	"github.com/mercatohq/gatehouse/id"
	"github.com/mercatohq/gatehouse/permission"
	"github.com/mercatohq/gatehouse/role"
	"github.com/mercatohq/gatehouse/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a mutex-guarded map-backed implementation of store.Store.
// All reads return deep copies so callers cannot mutate stored state.
type Store struct {
	mu sync.RWMutex

	roles       map[string]*role.Role
	permissions map[string]*permission.Permission
	assignments map[string]*assignment.Assignment
	logs        map[string]*decisionlog.Entry

	// rolePerms maps role ID to the set of attached permission IDs.
	rolePerms map[string]map[string]struct{}
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		roles:       make(map[string]*role.Role),
		permissions: make(map[string]*permission.Permission),
		assignments: make(map[string]*assignment.Assignment),
		logs:        make(map[string]*decisionlog.Entry),
		rolePerms:   make(map[string]map[string]struct{}),
	}
}

// Migrate is a no-op for the memory backend.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory backend.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory backend.
func (s *Store) Close() error { return nil }

// ───── roles ─────

func (s *Store) CreateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) GetRole(_ context.Context, roleID id.RoleID) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID.String()]
	if !ok {
		return nil, role.ErrNotFound
	}
	return copyRole(r), nil
}

func (s *Store) GetRoleBySlug(_ context.Context, slug string) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.Slug == slug {
			return copyRole(r), nil
		}
	}
	return nil, role.ErrNotFound
}

func (s *Store) UpdateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.ID.String()]; !ok {
		return role.ErrNotFound
	}
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) DeleteRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := roleID.String()
	if _, ok := s.roles[key]; !ok {
		return role.ErrNotFound
	}
	delete(s.roles, key)
	delete(s.rolePerms, key)
	// Cascade like the SQL backends' ON DELETE CASCADE.
	for aKey, a := range s.assignments {
		if a.RoleID.String() == key {
			delete(s.assignments, aKey)
		}
	}
	return nil
}

func (s *Store) ListRoles(_ context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	if filter == nil {
		filter = &role.ListFilter{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*role.Role
	for _, r := range s.roles {
		if !matchRole(r, filter) {
			continue
		}
		out = append(out, copyRole(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (s *Store) CountRoles(_ context.Context, filter *role.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.roles {
		if matchRole(r, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListRolePermissions(_ context.Context, roleID id.RoleID) ([]id.PermissionID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []id.PermissionID
	for key := range s.rolePerms[roleID.String()] {
		permID, err := id.ParsePermissionID(key)
		if err != nil {
			continue
		}
		out = append(out, permID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (s *Store) AttachPermission(_ context.Context, roleID id.RoleID, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := roleID.String()
	if s.rolePerms[key] == nil {
		s.rolePerms[key] = make(map[string]struct{})
	}
	s.rolePerms[key][permID.String()] = struct{}{}
	return nil
}

func (s *Store) DetachPermission(_ context.Context, roleID id.RoleID, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rolePerms[roleID.String()], permID.String())
	return nil
}

func (s *Store) SetRolePermissions(_ context.Context, roleID id.RoleID, permIDs []id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]struct{}, len(permIDs))
	for _, permID := range permIDs {
		set[permID.String()] = struct{}{}
	}
	s.rolePerms[roleID.String()] = set
	return nil
}

// ───── permissions ─────

func (s *Store) CreatePermission(_ context.Context, p *permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions[p.ID.String()] = copyPermission(p)
	return nil
}

func (s *Store) GetPermission(_ context.Context, permID id.PermissionID) (*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.permissions[permID.String()]
	if !ok {
		return nil, permission.ErrNotFound
	}
	return copyPermission(p), nil
}

func (s *Store) GetPermissionBySlug(_ context.Context, slug string) (*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.permissions {
		if p.Slug == slug {
			return copyPermission(p), nil
		}
	}
	return nil, permission.ErrNotFound
}

func (s *Store) UpdatePermission(_ context.Context, p *permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.permissions[p.ID.String()]; !ok {
		return permission.ErrNotFound
	}
	s.permissions[p.ID.String()] = copyPermission(p)
	return nil
}

func (s *Store) DeletePermission(_ context.Context, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := permID.String()
	if _, ok := s.permissions[key]; !ok {
		return permission.ErrNotFound
	}
	delete(s.permissions, key)
	for _, perms := range s.rolePerms {
		delete(perms, key)
	}
	return nil
}

func (s *Store) ListPermissions(_ context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	if filter == nil {
		filter = &permission.ListFilter{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*permission.Permission
	for _, p := range s.permissions {
		if !matchPermission(p, filter) {
			continue
		}
		out = append(out, copyPermission(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (s *Store) CountPermissions(_ context.Context, filter *permission.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.permissions {
		if matchPermission(p, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListActiveSlugs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, p := range s.permissions {
		if p.IsActive {
			out = append(out, p.Slug)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) ListActivePermissionsByRole(_ context.Context, roleID id.RoleID) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*permission.Permission
	for key := range s.rolePerms[roleID.String()] {
		p, ok := s.permissions[key]
		if !ok || !p.IsActive {
			continue
		}
		out = append(out, copyPermission(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// ───── assignments ─────

func (s *Store) CreateAssignment(_ context.Context, a *assignment.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[a.ID.String()] = copyAssignment(a)
	return nil
}

func (s *Store) GetAssignment(_ context.Context, asgnID id.AssignmentID) (*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[asgnID.String()]
	if !ok {
		return nil, assignment.ErrNotFound
	}
	return copyAssignment(a), nil
}

func (s *Store) UpdateAssignment(_ context.Context, a *assignment.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[a.ID.String()]; !ok {
		return assignment.ErrNotFound
	}
	s.assignments[a.ID.String()] = copyAssignment(a)
	return nil
}

func (s *Store) DeleteAssignment(_ context.Context, asgnID id.AssignmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[asgnID.String()]; !ok {
		return assignment.ErrNotFound
	}
	delete(s.assignments, asgnID.String())
	return nil
}

func (s *Store) ListAssignments(_ context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	if filter == nil {
		filter = &assignment.ListFilter{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*assignment.Assignment
	for _, a := range s.assignments {
		if !matchAssignment(a, filter) {
			continue
		}
		out = append(out, copyAssignment(a))
	}
	sortByCreation(out)
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (s *Store) CountAssignments(_ context.Context, filter *assignment.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, a := range s.assignments {
		if matchAssignment(a, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListCurrentAssignments(_ context.Context, principalKind, principalID string, now time.Time) ([]*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*assignment.Assignment
	for _, a := range s.assignments {
		if a.PrincipalKind != principalKind || a.PrincipalID != principalID {
			continue
		}
		if !a.Current(now) {
			continue
		}
		out = append(out, copyAssignment(a))
	}
	sortByCreation(out)
	return out, nil
}

func (s *Store) ListAssignmentsByRole(_ context.Context, roleID id.RoleID) ([]*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*assignment.Assignment
	for _, a := range s.assignments {
		if a.RoleID.String() != roleID.String() {
			continue
		}
		out = append(out, copyAssignment(a))
	}
	sortByCreation(out)
	return out, nil
}

func (s *Store) DeleteExpiredAssignments(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for key, a := range s.assignments {
		if a.ExpiresAt != nil && !a.ExpiresAt.After(now) {
			delete(s.assignments, key)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteAssignmentsByPrincipal(_ context.Context, principalKind, principalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, a := range s.assignments {
		if a.PrincipalKind == principalKind && a.PrincipalID == principalID {
			delete(s.assignments, key)
		}
	}
	return nil
}

// ───── decision logs ─────

func (s *Store) CreateEntry(_ context.Context, e *decisionlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[e.ID.String()] = copyEntry(e)
	return nil
}

func (s *Store) GetEntry(_ context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.logs[logID.String()]
	if !ok {
		return nil, decisionlog.ErrNotFound
	}
	return copyEntry(e), nil
}

func (s *Store) ListEntries(_ context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	if filter == nil {
		filter = &decisionlog.QueryFilter{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*decisionlog.Entry
	for _, e := range s.logs {
		if !matchEntry(e, filter) {
			continue
		}
		out = append(out, copyEntry(e))
	}
	// Newest first.
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() > out[j].ID.String() })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (s *Store) CountEntries(_ context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.logs {
		if matchEntry(e, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) PurgeEntries(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for key, e := range s.logs {
		if e.CreatedAt.Before(before) {
			delete(s.logs, key)
			n++
		}
	}
	return n, nil
}

// ───── helpers ─────

func matchRole(r *role.Role, f *role.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.IsActive != nil && r.IsActive != *f.IsActive {
		return false
	}
	if f.IsSystem != nil && r.IsSystem != *f.IsSystem {
		return false
	}
	if f.Search != "" && !strings.Contains(r.Name, f.Search) && !strings.Contains(r.Slug, f.Search) {
		return false
	}
	return true
}

func matchPermission(p *permission.Permission, f *permission.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.Resource != "" && p.Resource != f.Resource {
		return false
	}
	if f.Action != "" && p.Action != f.Action {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.IsActive != nil && p.IsActive != *f.IsActive {
		return false
	}
	if f.IsSystem != nil && p.IsSystem != *f.IsSystem {
		return false
	}
	if f.Search != "" && !strings.Contains(p.Name, f.Search) && !strings.Contains(p.Slug, f.Search) {
		return false
	}
	return true
}

func matchAssignment(a *assignment.Assignment, f *assignment.ListFilter) bool {
	if f == nil {
		return true
	}
	if f.RoleID != nil && a.RoleID.String() != f.RoleID.String() {
		return false
	}
	if f.PrincipalKind != "" && a.PrincipalKind != f.PrincipalKind {
		return false
	}
	if f.PrincipalID != "" && a.PrincipalID != f.PrincipalID {
		return false
	}
	if f.IsActive != nil && a.IsActive != *f.IsActive {
		return false
	}
	return true
}

func matchEntry(e *decisionlog.Entry, f *decisionlog.QueryFilter) bool {
	if f == nil {
		return true
	}
	if f.PrincipalKind != "" && e.PrincipalKind != f.PrincipalKind {
		return false
	}
	if f.PrincipalID != "" && e.PrincipalID != f.PrincipalID {
		return false
	}
	if f.Slug != "" && e.Slug != f.Slug {
		return false
	}
	if f.Allowed != nil && e.Allowed != *f.Allowed {
		return false
	}
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	if f.After != nil && !e.CreatedAt.After(*f.After) {
		return false
	}
	if f.Before != nil && !e.CreatedAt.Before(*f.Before) {
		return false
	}
	return true
}

// sortByCreation orders assignments by CreatedAt, breaking ties on ID.
// IDs are K-sortable so the order is stable across equal timestamps.
func sortByCreation(out []*assignment.Assignment) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func copyRole(r *role.Role) *role.Role {
	cp := *r
	return &cp
}

func copyPermission(p *permission.Permission) *permission.Permission {
	cp := *p
	return &cp
}

func copyAssignment(a *assignment.Assignment) *assignment.Assignment {
	cp := *a
	if a.ExpiresAt != nil {
		t := *a.ExpiresAt
		cp.ExpiresAt = &t
	}
	if a.CustomPermissions != nil {
		cp.CustomPermissions = make(map[string]bool, len(a.CustomPermissions))
		for k, v := range a.CustomPermissions {
			cp.CustomPermissions[k] = v
		}
	}
	return &cp
}

func copyEntry(e *decisionlog.Entry) *decisionlog.Entry {
	cp := *e
	return &cp
}
