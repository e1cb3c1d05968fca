package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// IdentityFromContext derives the caller identity from the session in context.
// The zero Identity is returned for anonymous requests.
func IdentityFromContext(ctx context.Context) Identity {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return Identity{}
	}
	return sess.Identity()
}
