package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/doceeser/orderboard/internal/domain"
)

const (
	opTimeout     = 5 * time.Second
	notifyChannel = "orders_changed"
)

type customerJSON struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
}

type itemJSON struct {
	Name     string   `json:"name"`
	Quantity int      `json:"quantity,omitempty"`
	Toppings []string `json:"toppings,omitempty"`
}

type orderStore struct {
	store  *Store
	logger *log.Entry
}

// NewOrderStore создаёт PostgreSQL-реализацию OrderStore.
// Живая подписка построена на LISTEN/NOTIFY: триггер на таблице orders
// сообщает об изменении, подписка перечитывает список.
func NewOrderStore(store *Store, logger *log.Entry) domain.OrderStore {
	if logger == nil {
		logger = log.WithField("component", "postgres-orders")
	}
	return &orderStore{store: store, logger: logger}
}

func (r *orderStore) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusNew
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	customer, items, err := encodeDetails(order)
	if err != nil {
		return domain.Order{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err = r.store.db.ExecContext(ctx, `
		INSERT INTO orders (id, status, created_at, total, customer, items)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, order.ID, string(order.Status), order.CreatedAt, order.Total.String(), string(customer), string(items))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Order{}, domain.ErrOrderExists
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return order, nil
}

func (r *orderStore) List(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.store.db.QueryContext(ctx, `
		SELECT id, status, created_at, total, customer, items
		FROM orders
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (r *orderStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.store.db.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderStore) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Watch открывает отдельное соединение под LISTEN и отдаёт снимок после
// каждого уведомления триггера.
func (r *orderStore) Watch(ctx context.Context) (<-chan domain.Snapshot, error) {
	conn, err := pgx.Connect(ctx, r.store.dsn)
	if err != nil {
		return nil, fmt.Errorf("connect listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		_ = conn.Close(context.Background())
		return nil, fmt.Errorf("listen %s: %w", notifyChannel, err)
	}

	out := make(chan domain.Snapshot)
	go func() {
		defer close(out)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), opTimeout)
			defer cancel()
			_ = conn.Close(closeCtx)
		}()

		for {
			orders, err := r.List(ctx)
			if err != nil {
				r.emitFailure(ctx, out, err)
				return
			}
			select {
			case <-ctx.Done():
				return
			case out <- domain.Snapshot{Orders: orders}:
			}

			if _, err := conn.WaitForNotification(ctx); err != nil {
				r.emitFailure(ctx, out, err)
				return
			}
		}
	}()

	return out, nil
}

// emitFailure отправляет терминальный снимок, если подписку не отменили.
func (r *orderStore) emitFailure(ctx context.Context, out chan<- domain.Snapshot, err error) {
	if ctx.Err() != nil {
		return
	}
	r.logger.WithError(err).Warn("order listener failed")
	select {
	case out <- domain.Snapshot{Err: err}:
	case <-ctx.Done():
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order         domain.Order
		status        string
		total         decimal.Decimal
		customerBytes []byte
		itemsBytes    []byte
	)
	if err := row.Scan(&order.ID, &status, &order.CreatedAt, &total, &customerBytes, &itemsBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("scan order: %w", err)
	}
	order.Status = domain.OrderStatus(status)
	order.Total = total

	var customer customerJSON
	if len(customerBytes) > 0 {
		if err := json.Unmarshal(customerBytes, &customer); err != nil {
			return domain.Order{}, fmt.Errorf("decode customer of %s: %w", order.ID, err)
		}
	}
	order.Customer = domain.Customer(customer)

	var items []itemJSON
	if len(itemsBytes) > 0 {
		if err := json.Unmarshal(itemsBytes, &items); err != nil {
			return domain.Order{}, fmt.Errorf("decode items of %s: %w", order.ID, err)
		}
	}
	for _, item := range items {
		order.Items = append(order.Items, domain.OrderItem(item))
	}
	return order, nil
}

func encodeDetails(order domain.Order) ([]byte, []byte, error) {
	customer, err := json.Marshal(customerJSON(order.Customer))
	if err != nil {
		return nil, nil, fmt.Errorf("encode customer: %w", err)
	}
	items := make([]itemJSON, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemJSON(item))
	}
	itemsRaw, err := json.Marshal(items)
	if err != nil {
		return nil, nil, fmt.Errorf("encode items: %w", err)
	}
	return customer, itemsRaw, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ domain.OrderStore = (*orderStore)(nil)
