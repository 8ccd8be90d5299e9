// Package grpctransport provides interceptor shapes that guard RPC methods
// with authorization decisions. The types mirror the grpc-go interceptor
// signatures without importing the module, so adapters stay dependency-free
// until a server actually wires them in.
package grpctransport

import (
	"context"

	serrors "github.com/snapfest/authz/pkg/errors"
	"github.com/snapfest/authz/pkg/policy"
)

type Decider interface {
	Can(ctx context.Context, actor *policy.UserContext, action policy.Action, resource policy.Resource) (bool, error)
}

// ActorResolver extracts the acting user's context from the RPC context,
// typically populated by an authentication interceptor upstream. Return nil
// for anonymous callers.
type ActorResolver func(ctx context.Context) *policy.UserContext

// Rule binds a fully-qualified method name to the decision it requires.
type Rule struct {
	Action   policy.Action
	Resource func(req any) policy.Resource
}

type UnaryHandler func(ctx context.Context, req any) (any, error)

type UnaryServerInfo struct {
	FullMethod string
}

type UnaryServerInterceptor func(ctx context.Context, req any, info *UnaryServerInfo, handler UnaryHandler) (any, error)

type ServerStream interface {
	Context() context.Context
}

type StreamHandler func(srv any, stream ServerStream) error

type StreamServerInfo struct {
	FullMethod string
}

type StreamServerInterceptor func(srv any, stream ServerStream, info *StreamServerInfo, handler StreamHandler) error

// UnaryInterceptor guards the methods named in rules. Methods without a
// rule pass through untouched.
func UnaryInterceptor(decider Decider, actor ActorResolver, rules map[string]Rule) UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *UnaryServerInfo, handler UnaryHandler) (any, error) {
		rule, ok := rules[info.FullMethod]
		if !ok {
			return handler(ctx, req)
		}

		if err := check(ctx, decider, actor, rule, req); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamInterceptor guards stream-opening against the method's rule. The
// rule's resource resolver receives a nil request because stream payloads
// are not available at open time.
func StreamInterceptor(decider Decider, actor ActorResolver, rules map[string]Rule) StreamServerInterceptor {
	return func(srv any, stream ServerStream, info *StreamServerInfo, handler StreamHandler) error {
		rule, ok := rules[info.FullMethod]
		if !ok {
			return handler(srv, stream)
		}

		if err := check(stream.Context(), decider, actor, rule, nil); err != nil {
			return err
		}
		return handler(srv, stream)
	}
}

func check(ctx context.Context, decider Decider, actor ActorResolver, rule Rule, req any) error {
	var actorCtx *policy.UserContext
	if actor != nil {
		actorCtx = actor(ctx)
	}

	var resource policy.Resource
	if rule.Resource != nil {
		resource = rule.Resource(req)
	}

	allowed, err := decider.Can(ctx, actorCtx, rule.Action, resource)
	if err != nil {
		return serrors.Wrap(serrors.CodeStorageUnavailable, "failed to evaluate decision", err)
	}
	if !allowed {
		if actorCtx == nil {
			return serrors.New(serrors.CodeUnauthenticated, "authentication required")
		}
		return serrors.New(serrors.CodePermissionDenied, "permission denied")
	}
	return nil
}
