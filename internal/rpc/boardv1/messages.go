package boardv1

import "time"

// Виды обновлений потока WatchBoard.
const (
	UpdateKindSession      = "session"
	UpdateKindBoard        = "board"
	UpdateKindNotification = "notification"
	UpdateKindSound        = "sound"
)

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type WatchBoardRequest struct {
	// Filter — начальный фильтр доски: all или один из статусов.
	Filter string `json:"filter,omitempty"`
	// Permission — ответ клиента на запрос системных уведомлений.
	Permission string `json:"permission,omitempty"`
}

type Card struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	StatusLabel string   `json:"status_label"`
	CreatedAt   string   `json:"created_at"`
	Total       string   `json:"total"`
	Customer    string   `json:"customer"`
	Phone       string   `json:"phone"`
	Address     string   `json:"address"`
	Items       []string `json:"items"`
}

type BoardState struct {
	Filter        string `json:"filter"`
	Loading       bool   `json:"loading"`
	BannerVisible bool   `json:"banner_visible"`
	BannerText    string `json:"banner_text,omitempty"`
	LoadingLabel  string `json:"loading_label,omitempty"`
	EmptyMessage  string `json:"empty_message,omitempty"`
	Cards         []Card `json:"cards"`
}

type Notification struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Tag     string `json:"tag"`
	OrderID string `json:"order_id"`
	Total   string `json:"total"`
}

// BoardUpdate — элемент потока WatchBoard. Заполнено поле, соответствующее Kind.
type BoardUpdate struct {
	Kind         string        `json:"kind"`
	SessionID    string        `json:"session_id,omitempty"`
	Board        *BoardState   `json:"board,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

type SetOrderStatusRequest struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type SetOrderStatusResponse struct{}
