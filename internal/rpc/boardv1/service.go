// Package boardv1 описывает gRPC-контракт доски заказов: сообщения,
// ServiceDesc и клиента. Сообщения передаются в JSON через собственный кодек.
package boardv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName = "doceeser.board.v1.BoardService"

	MethodLogin          = "/" + ServiceName + "/Login"
	MethodWatchBoard     = "/" + ServiceName + "/WatchBoard"
	MethodSetOrderStatus = "/" + ServiceName + "/SetOrderStatus"
)

// BoardServiceServer — серверная часть сервиса доски.
type BoardServiceServer interface {
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	WatchBoard(*WatchBoardRequest, BoardService_WatchBoardServer) error
	SetOrderStatus(context.Context, *SetOrderStatusRequest) (*SetOrderStatusResponse, error)
}

// UnimplementedBoardServiceServer отвечает Unimplemented на все методы.
type UnimplementedBoardServiceServer struct{}

func (UnimplementedBoardServiceServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}

func (UnimplementedBoardServiceServer) WatchBoard(*WatchBoardRequest, BoardService_WatchBoardServer) error {
	return status.Error(codes.Unimplemented, "method WatchBoard not implemented")
}

func (UnimplementedBoardServiceServer) SetOrderStatus(context.Context, *SetOrderStatusRequest) (*SetOrderStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetOrderStatus not implemented")
}

// BoardService_WatchBoardServer — серверный поток обновлений доски.
type BoardService_WatchBoardServer interface {
	Send(*BoardUpdate) error
	grpc.ServerStream
}

type watchBoardServer struct {
	grpc.ServerStream
}

func (x *watchBoardServer) Send(m *BoardUpdate) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterBoardServiceServer регистрирует реализацию на gRPC-сервере.
func RegisterBoardServiceServer(s grpc.ServiceRegistrar, srv BoardServiceServer) {
	s.RegisterService(&BoardService_ServiceDesc, srv)
}

func _BoardService_Login_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LoginRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BoardServiceServer).Login(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodLogin}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BoardServiceServer).Login(ctx, req.(*LoginRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _BoardService_SetOrderStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SetOrderStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BoardServiceServer).SetOrderStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodSetOrderStatus}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BoardServiceServer).SetOrderStatus(ctx, req.(*SetOrderStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _BoardService_WatchBoard_Handler(srv any, stream grpc.ServerStream) error {
	in := new(WatchBoardRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(BoardServiceServer).WatchBoard(in, &watchBoardServer{stream})
}

// BoardService_ServiceDesc — описание сервиса для grpc.Server.
var BoardService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BoardServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: _BoardService_Login_Handler},
		{MethodName: "SetOrderStatus", Handler: _BoardService_SetOrderStatus_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchBoard", Handler: _BoardService_WatchBoard_Handler, ServerStreams: true},
	},
	Metadata: "doceeser/board/v1/board",
}
