package grpcsvc

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/doceeser/orderboard/internal/auth"
	"github.com/doceeser/orderboard/internal/board"
	"github.com/doceeser/orderboard/internal/domain"
	"github.com/doceeser/orderboard/internal/notify"
	"github.com/doceeser/orderboard/internal/rpc/boardv1"
)

// BoardService реализует gRPC API доски поверх тех же живых сессий,
// что и веб-панель.
type BoardService struct {
	boardv1.UnimplementedBoardServiceServer

	gate     *auth.Gate
	registry *board.Registry
	mutator  *board.StatusMutator
	logger   *log.Entry
}

// NewBoardService конструирует сервис с зависимостями.
func NewBoardService(gate *auth.Gate, registry *board.Registry, mutator *board.StatusMutator, logger *log.Entry) *BoardService {
	if logger == nil {
		logger = log.New().WithField("component", "board-service")
	}
	return &BoardService{
		gate:     gate,
		registry: registry,
		mutator:  mutator,
		logger:   logger,
	}
}

// Login сверяет общий пароль и выдаёт токен для metadata authorization.
func (s *BoardService) Login(_ context.Context, req *boardv1.LoginRequest) (*boardv1.LoginResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	session, token, err := s.gate.Login(req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidPassword):
		return nil, status.Error(codes.Unauthenticated, "invalid password")
	case err != nil:
		s.logger.WithError(err).Error("failed to issue session token")
		return nil, status.Error(codes.Internal, "failed to issue session token")
	}

	return &boardv1.LoginResponse{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// SetOrderStatus записывает статус заказа. Новое состояние придёт в поток WatchBoard.
func (s *BoardService) SetOrderStatus(ctx context.Context, req *boardv1.SetOrderStatusRequest) (*boardv1.SetOrderStatusResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}
	orderStatus, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.mutator.SetStatus(ctx, req.OrderID, orderStatus); err != nil {
		return nil, toStatusError(err)
	}
	return &boardv1.SetOrderStatusResponse{}, nil
}

// WatchBoard открывает живую сессию на время потока и пересылает клиенту
// состояние доски и оповещения.
func (s *BoardService) WatchBoard(req *boardv1.WatchBoardRequest, stream boardv1.BoardService_WatchBoardServer) error {
	if req == nil {
		req = &boardv1.WatchBoardRequest{}
	}
	if req.Filter != "" && !domain.ValidFilter(req.Filter) {
		return status.Errorf(codes.InvalidArgument, "unknown filter %q", req.Filter)
	}

	ctx := stream.Context()
	session, ok := auth.FromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "session is required")
	}

	live := s.registry.Open(ctx, session.ID, notify.ParsePermission(req.Permission))
	defer s.registry.Close(live.ID())

	if req.Filter != "" {
		_ = live.Board().SetFilter(req.Filter)
	}

	if err := stream.Send(&boardv1.BoardUpdate{Kind: boardv1.UpdateKindSession, SessionID: live.ID()}); err != nil {
		return err
	}
	if err := stream.Send(boardUpdate(live.Board())); err != nil {
		return err
	}

	for {
		var err error
		select {
		case <-ctx.Done():
			return nil
		case <-live.Done():
			return nil
		case <-live.Board().Changes():
			err = stream.Send(boardUpdate(live.Board()))
		case alert := <-live.Alerts():
			err = stream.Send(alertUpdate(alert))
		}
		if err != nil {
			s.logger.WithError(err).WithField("session_id", live.ID()).Debug("watch stream closed")
			return err
		}
	}
}

func boardUpdate(b *board.Board) *boardv1.BoardUpdate {
	view := b.View()
	state := &boardv1.BoardState{
		Filter:        view.Filter,
		Loading:       view.Loading,
		BannerVisible: view.BannerVisible,
		BannerText:    view.BannerText,
		LoadingLabel:  view.LoadingLabel,
		EmptyMessage:  view.EmptyMessage,
		Cards:         make([]boardv1.Card, 0, len(view.Cards)),
	}
	for _, card := range view.Cards {
		state.Cards = append(state.Cards, boardv1.Card{
			ID:          card.ID,
			Status:      card.Status,
			StatusLabel: card.StatusLabel,
			CreatedAt:   card.CreatedAt,
			Total:       card.Total,
			Customer:    card.Customer,
			Phone:       card.Phone,
			Address:     card.Address,
			Items:       card.Items,
		})
	}
	return &boardv1.BoardUpdate{Kind: boardv1.UpdateKindBoard, Board: state}
}

func alertUpdate(alert board.Alert) *boardv1.BoardUpdate {
	if alert.Kind == board.AlertSound || alert.Notification == nil {
		return &boardv1.BoardUpdate{Kind: boardv1.UpdateKindSound}
	}
	n := alert.Notification
	return &boardv1.BoardUpdate{
		Kind: boardv1.UpdateKindNotification,
		Notification: &boardv1.Notification{
			Title:   n.Title,
			Body:    n.Body,
			Tag:     n.Tag,
			OrderID: n.OrderID,
			Total:   n.Total,
		},
	}
}

// toStatusError переводит ошибки смены статуса в коды gRPC.
func toStatusError(err error) error {
	var alert *board.OperatorAlert
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return status.Error(codes.NotFound, domain.ErrOrderNotFound.Error())
	case errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrOrderIDRequired):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &alert):
		return status.Error(codes.Unavailable, alert.Message)
	default:
		return status.Error(codes.Internal, "failed to update order status")
	}
}
