package boardv1

import (
	"context"

	"google.golang.org/grpc"
)

// BoardServiceClient — клиент сервиса доски.
type BoardServiceClient interface {
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	WatchBoard(ctx context.Context, in *WatchBoardRequest, opts ...grpc.CallOption) (BoardService_WatchBoardClient, error)
	SetOrderStatus(ctx context.Context, in *SetOrderStatusRequest, opts ...grpc.CallOption) (*SetOrderStatusResponse, error)
}

// BoardService_WatchBoardClient — клиентский поток обновлений доски.
type BoardService_WatchBoardClient interface {
	Recv() (*BoardUpdate, error)
	grpc.ClientStream
}

type boardServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewBoardServiceClient создаёт клиента. JSON-кодек выбирается для каждого вызова.
func NewBoardServiceClient(cc grpc.ClientConnInterface) BoardServiceClient {
	return &boardServiceClient{cc: cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *boardServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	out := new(LoginResponse)
	if err := c.cc.Invoke(ctx, MethodLogin, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *boardServiceClient) SetOrderStatus(ctx context.Context, in *SetOrderStatusRequest, opts ...grpc.CallOption) (*SetOrderStatusResponse, error) {
	out := new(SetOrderStatusResponse)
	if err := c.cc.Invoke(ctx, MethodSetOrderStatus, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *boardServiceClient) WatchBoard(ctx context.Context, in *WatchBoardRequest, opts ...grpc.CallOption) (BoardService_WatchBoardClient, error) {
	stream, err := c.cc.NewStream(ctx, &BoardService_ServiceDesc.Streams[0], MethodWatchBoard, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &watchBoardClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type watchBoardClient struct {
	grpc.ClientStream
}

func (x *watchBoardClient) Recv() (*BoardUpdate, error) {
	m := new(BoardUpdate)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
