package middleware

import "context"

type callerKey struct{}

// Caller is the authenticated principal attached by Auth.
type Caller struct {
	UserID string
	Role   string
}

// CallerFromContext returns the caller attached to ctx, if any.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	if ctx == nil {
		return Caller{}, false
	}
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// WithCaller attaches the caller to ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerKey{}, c)
}

func UserIDFromContext(ctx context.Context) string {
	c, _ := CallerFromContext(ctx)
	return c.UserID
}

func RoleFromContext(ctx context.Context) string {
	c, _ := CallerFromContext(ctx)
	return c.Role
}

// WithUserID sets the caller's user id, keeping any role already present.
func WithUserID(ctx context.Context, userID string) context.Context {
	c, _ := CallerFromContext(ctx)
	c.UserID = userID
	return WithCaller(ctx, c)
}

// WithRole sets the caller's role, keeping any user id already present.
func WithRole(ctx context.Context, role string) context.Context {
	c, _ := CallerFromContext(ctx)
	c.Role = role
	return WithCaller(ctx, c)
}
