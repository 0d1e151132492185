// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services read them. Keeping the package free
// of net/http lets services consume actor and client metadata without pulling
// transport code into their import graph, and lets tests inject values
// directly:
//
//	ctx = requestcontext.WithActor(ctx, actor)
//	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.7", "curl/8.5")
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "shopflow/pkg/domain"
)

// Actor is the authenticated identity performing the request, supplied by
// the authentication collaborator.
type Actor struct {
	ID          id.ActorID
	Email       string
	Role        id.Role
	DisplayName string
}

// Context key types (unexported for encapsulation).
type (
	actorKey         struct{}
	clientIPKey      struct{}
	userAgentKey     struct{}
	deviceSummaryKey struct{}
	requestIDKey     struct{}
	requestTimeKey   struct{}
)

// ActorFrom retrieves the authenticated actor from the context.
// The second return is false when no actor was set.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

// WithActor injects the authenticated actor into the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the raw User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// DeviceSummary retrieves the normalized browser/OS summary parsed from the
// User-Agent, e.g. "Firefox 131 on Linux". Empty when parsing was skipped.
func DeviceSummary(ctx context.Context) string {
	if d, ok := ctx.Value(deviceSummaryKey{}).(string); ok {
		return d
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	return ctx
}

// WithDeviceSummary injects a pre-parsed device summary into a context.
func WithDeviceSummary(ctx context.Context, summary string) context.Context {
	return context.WithValue(ctx, deviceSummaryKey{}, summary)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for tests and for
// workers that need a consistent time within a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
