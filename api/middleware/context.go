package middleware

import "context"

type identityKey struct{}

type requestIDKey struct{}

// identity is the authenticated admin behind a request.
type identity struct {
	sessionID string
	email     string
}

func identityFrom(ctx context.Context) identity {
	if ctx == nil {
		return identity{}
	}
	id, _ := ctx.Value(identityKey{}).(identity)
	return id
}

func SessionIDFromContext(ctx context.Context) string { return identityFrom(ctx).sessionID }

func AdminEmailFromContext(ctx context.Context) string { return identityFrom(ctx).email }

// WithSession attaches the admin identity. The session middleware and tests
// use it.
func WithSession(ctx context.Context, sessionID, email string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey{}, identity{sessionID: sessionID, email: email})
}

// RequestIDFromContext returns the id assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}
