package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/doceeser/orderboard/internal/rpc/boardv1"
)

type fakeClient struct {
	password string
	updates  []*boardv1.BoardUpdate
	lastAuth string
	setReq   *boardv1.SetOrderStatusRequest
}

func (f *fakeClient) Login(_ context.Context, in *boardv1.LoginRequest, _ ...grpc.CallOption) (*boardv1.LoginResponse, error) {
	if in.Password != f.password {
		return nil, errors.New("senha incorreta")
	}
	return &boardv1.LoginResponse{Token: "tok-1"}, nil
}

func (f *fakeClient) WatchBoard(ctx context.Context, _ *boardv1.WatchBoardRequest, _ ...grpc.CallOption) (boardv1.BoardService_WatchBoardClient, error) {
	f.lastAuth = authHeader(ctx)
	return &fakeStream{updates: f.updates}, nil
}

func (f *fakeClient) SetOrderStatus(ctx context.Context, in *boardv1.SetOrderStatusRequest, _ ...grpc.CallOption) (*boardv1.SetOrderStatusResponse, error) {
	f.lastAuth = authHeader(ctx)
	f.setReq = in
	return &boardv1.SetOrderStatusResponse{}, nil
}

type fakeStream struct {
	grpc.ClientStream
	updates []*boardv1.BoardUpdate
}

func (s *fakeStream) Recv() (*boardv1.BoardUpdate, error) {
	if len(s.updates) == 0 {
		return nil, io.EOF
	}
	next := s.updates[0]
	s.updates = s.updates[1:]
	return next, nil
}

func authHeader(ctx context.Context) string {
	md, _ := metadata.FromOutgoingContext(ctx)
	if values := md.Get("authorization"); len(values) > 0 {
		return values[0]
	}
	return ""
}

func TestRun_Login(t *testing.T) {
	client := &fakeClient{password: "071224"}
	var out bytes.Buffer

	if err := run(context.Background(), client, options{password: "071224"}, []string{"login"}, &out); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.HasPrefix(out.String(), "tok-1\n") {
		t.Fatalf("unexpected output: %q", out.String())
	}

	if err := run(context.Background(), client, options{password: "errada"}, []string{"login"}, &out); err == nil {
		t.Fatal("expected login error for wrong password")
	}
	if err := run(context.Background(), client, options{}, []string{"login"}, &out); err == nil {
		t.Fatal("expected error without password")
	}
}

func TestRun_WatchPrintsBoardAndAlerts(t *testing.T) {
	client := &fakeClient{password: "pw", updates: []*boardv1.BoardUpdate{
		{Kind: boardv1.UpdateKindSession, SessionID: "s-1"},
		{Kind: boardv1.UpdateKindBoard, Board: &boardv1.BoardState{Filter: "all", Loading: true, LoadingLabel: "Carregando pedidos..."}},
		{Kind: boardv1.UpdateKindBoard, Board: &boardv1.BoardState{
			Filter:        "all",
			BannerVisible: true,
			BannerText:    "Novo pedido recebido!",
			Cards: []boardv1.Card{{
				ID: "A1", StatusLabel: "Novo", Total: "R$ 12,30", Customer: "Ana",
				Items: []string{"2x Brigadeiro"},
			}},
		}},
		{Kind: boardv1.UpdateKindNotification, Notification: &boardv1.Notification{Title: "Novo pedido!", Body: "Pedido #A1 - R$ 12.30"}},
		{Kind: boardv1.UpdateKindSound},
	}}
	var out bytes.Buffer

	err := run(context.Background(), client, options{password: "pw"}, []string{"watch", "-filter", "new"}, &out)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if client.lastAuth != "Bearer tok-1" {
		t.Fatalf("expected bearer token from login, got %q", client.lastAuth)
	}

	text := out.String()
	for _, want := range []string{
		"session s-1",
		"Carregando pedidos...",
		"[Novo pedido recebido!]",
		"#A1  Novo",
		"- 2x Brigadeiro",
		">> Novo pedido!: Pedido #A1 - R$ 12.30",
		"\a",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output %q does not contain %q", text, want)
		}
	}
}

func TestRun_SetStatusUsesGivenToken(t *testing.T) {
	client := &fakeClient{}
	var out bytes.Buffer

	if err := run(context.Background(), client, options{token: "tok-9"}, []string{"set-status", "A1", "ready"}, &out); err != nil {
		t.Fatalf("set-status: %v", err)
	}
	if client.lastAuth != "Bearer tok-9" {
		t.Fatalf("unexpected auth header: %q", client.lastAuth)
	}
	if client.setReq == nil || client.setReq.OrderID != "A1" || client.setReq.Status != "ready" {
		t.Fatalf("unexpected request: %+v", client.setReq)
	}

	if err := run(context.Background(), client, options{token: "tok-9"}, []string{"set-status", "A1"}, &out); err == nil {
		t.Fatal("expected usage error")
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	if err := run(context.Background(), &fakeClient{}, options{}, nil, io.Discard); err == nil {
		t.Fatal("expected usage error without command")
	}
	if err := run(context.Background(), &fakeClient{}, options{}, []string{"dance"}, io.Discard); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
