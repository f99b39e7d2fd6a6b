// Package scope carries the ambient RequestScope through a call tree the
// same way the rest of this codebase carries a logger or tracer: as a
// context.Context value, never as a package-level global.
package scope

import (
	"context"

	"github.com/google/uuid"
)

// Kind distinguishes a tenant-bound request from a system-level caller
// (migrations, scheduled compactors) that is allowed to bypass company
// scoping.
type Kind string

const (
	KindTenant Kind = "tenant"
	KindSystem Kind = "system"
)

// RequestScope is the immutable identity/authorization context bound to
// one inbound request. It is never mutated after creation; a nested
// scope is a new value, not an edit of the outer one.
type RequestScope struct {
	RequestID uuid.UUID
	UserID    uuid.UUID
	TenantID  uuid.UUID
	CompanyID uuid.UUID
	Roles     []string
	Kind      Kind

	hasCompany bool
	hasTenant  bool
}

// New builds a tenant-scoped RequestScope bound to a company.
func New(requestID, userID, tenantID, companyID uuid.UUID, roles ...string) RequestScope {
	return RequestScope{
		RequestID:  requestID,
		UserID:     userID,
		TenantID:   tenantID,
		CompanyID:  companyID,
		Roles:      roles,
		Kind:       KindTenant,
		hasCompany: true,
		hasTenant:  true,
	}
}

// System builds a scope for migrations/compactors/internal jobs that
// must read or write outside any single company's boundary. Callers
// reachable from an inbound tenant request must never construct this;
// every call site that does must audit-log the fact (spec.md §9 Open
// Questions).
func System(requestID uuid.UUID) RequestScope {
	return RequestScope{RequestID: requestID, Kind: KindSystem}
}

// HasCompany reports whether the scope is bound to a single company.
func (s RequestScope) HasCompany() bool { return s.hasCompany }

// HasRole reports whether role is among the scope's granted roles.
func (s RequestScope) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}

	return false
}

type ctxKey struct{}

// With returns a context carrying s as the innermost active scope.
func With(ctx context.Context, s RequestScope) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// Current returns the innermost active scope, or false if none is set.
func Current(ctx context.Context) (RequestScope, bool) {
	s, ok := ctx.Value(ctxKey{}).(RequestScope)
	return s, ok
}

// RequireCompany returns the active company ID, failing with ScopeMissing
// if no tenant scope bound to a company is active.
func RequireCompany(ctx context.Context) (uuid.UUID, error) {
	s, ok := Current(ctx)
	if !ok || s.Kind != KindTenant || !s.hasCompany {
		return uuid.Nil, ErrScopeMissing
	}

	return s.CompanyID, nil
}

// AssertCompanyScope fails with ErrCrossTenant if companyID is not the
// active scope's company.
func AssertCompanyScope(ctx context.Context, companyID uuid.UUID) error {
	active, err := RequireCompany(ctx)
	if err != nil {
		return err
	}

	if active != companyID {
		return ErrCrossTenant
	}

	return nil
}
