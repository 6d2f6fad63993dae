package domain

import "context"

// Role is the kind of authenticated caller.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleEmployee
}

// Principal is the authenticated caller resolved from a bearer credential.
// For customers UserID is the customer id.
type Principal struct {
	UserID string
	Role   Role
}

// SystemPrincipal acts on behalf of operators and background jobs.
var SystemPrincipal = Principal{UserID: "system", Role: RoleEmployee}

// IsEmployee reports whether p has employee rights.
func (p Principal) IsEmployee() bool {
	return p.Role == RoleEmployee
}

// CanAccess reports whether p may read or debit resources owned by ownerID.
func (p Principal) CanAccess(ownerID string) bool {
	return p.IsEmployee() || (p.UserID != "" && p.UserID == ownerID)
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored in ctx.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
