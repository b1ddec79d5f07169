package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/doceeser/orderboard/internal/domain"
)

type orderStore struct {
	client *Client
	coll   *mongo.Collection
	logger *log.Entry
}

var _ domain.OrderStore = (*orderStore)(nil)

// NewOrderStore создаёт OrderStore поверх коллекции MongoDB.
// Живая подписка использует change stream коллекции, поэтому сервер
// должен работать как replica set.
func NewOrderStore(client *Client, collection string, logger *log.Entry) domain.OrderStore {
	if logger == nil {
		logger = log.WithField("component", "mongodb-orders")
	}
	return &orderStore{
		client: client,
		coll:   client.Database().Collection(collection),
		logger: logger,
	}
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

	doc, err := toDocument(order)
	if err != nil {
		return domain.Order{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Order{}, domain.ErrOrderExists
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return order, nil
}

func (r *orderStore) List(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []domain.Order
	for cursor.Next(ctx) {
		var doc orderDocument
		if err := cursor.Decode(&doc); err != nil {
			r.logger.WithError(err).WithField("raw_id", cursor.Current.Lookup("_id").String()).Warn("skipping undecodable order document")
			continue
		}
		orders = append(orders, fromDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (r *orderStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.coll.UpdateByID(ctx, id, bson.D{{Key: "$set", Value: bson.D{{Key: "status", Value: string(status)}}}})
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

// Watch отдаёт полный снимок коллекции сразу и после каждого события change stream.
func (r *orderStore) Watch(ctx context.Context) (<-chan domain.Snapshot, error) {
	stream, err := r.coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("open change stream: %w", err)
	}

	out := make(chan domain.Snapshot)
	go func() {
		defer close(out)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), opTimeout)
			defer cancel()
			_ = stream.Close(closeCtx)
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

			if !stream.Next(ctx) {
				err := stream.Err()
				if err == nil {
					err = errors.New("change stream closed")
				}
				r.emitFailure(ctx, out, err)
				return
			}
		}
	}()

	return out, nil
}

func (r *orderStore) emitFailure(ctx context.Context, out chan<- domain.Snapshot, err error) {
	if ctx.Err() != nil {
		return
	}
	r.logger.WithError(err).Warn("order change stream failed")
	select {
	case out <- domain.Snapshot{Err: err}:
	case <-ctx.Done():
	}
}
