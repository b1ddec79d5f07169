package grpcsvc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/doceeser/orderboard/internal/auth"
	"github.com/doceeser/orderboard/internal/rpc/boardv1"
)

const authorizationHeader = "authorization"

// publicMethods не требуют токена входа.
var publicMethods = map[string]bool{
	boardv1.MethodLogin: true,
}

func authenticate(ctx context.Context, gate *auth.Gate) (context.Context, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	var token string
	if values := md.Get(authorizationHeader); len(values) > 0 {
		token = auth.TokenFromBearer(values[0])
	}
	session, err := gate.Verify(token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "valid bearer token is required")
	}
	return auth.WithSession(ctx, session), nil
}

// AuthUnaryInterceptor проверяет bearer-токен у всех методов, кроме Login.
func AuthUnaryInterceptor(gate *auth.Gate) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		ctx, err := authenticate(ctx, gate)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// AuthStreamInterceptor проверяет bearer-токен у потоковых методов.
func AuthStreamInterceptor(gate *auth.Gate) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if publicMethods[info.FullMethod] {
			return handler(srv, ss)
		}
		ctx, err := authenticate(ss.Context(), gate)
		if err != nil {
			return err
		}
		return handler(srv, &sessionStream{ServerStream: ss, ctx: ctx})
	}
}

type sessionStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *sessionStream) Context() context.Context { return s.ctx }

// BearerToken добавляет токен входа в исходящий контекст клиента.
func BearerToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, authorizationHeader, "Bearer "+token)
}
