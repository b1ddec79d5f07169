package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/doceeser/orderboard/internal/domain"
	"github.com/doceeser/orderboard/internal/fakeorders"
	"github.com/doceeser/orderboard/internal/messaging/kafka"
)

type config struct {
	brokers  []string
	topic    string
	count    int
	interval time.Duration
	seed     uint64
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	cfg, err := readConfig(flag.CommandLine, os.Args[1:], os.Getenv)
	if err != nil {
		fail("%v", err)
	}

	producer, err := kafka.NewProducer(cfg.brokers)
	if err != nil {
		fail("create producer: %v", err)
	}
	defer producer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sent, err := publishOrders(ctx, producer, fakeorders.New(cfg.seed), cfg)
	log.WithFields(log.Fields{"sent": sent, "topic": cfg.topic}).Info("order producer finished")
	if err != nil && !errors.Is(err, context.Canceled) {
		fail("publish orders: %v", err)
	}
}

func readConfig(fs *flag.FlagSet, args []string, getenv func(string) string) (config, error) {
	var (
		brokersRaw string
		cfg        config
	)
	fs.StringVar(&brokersRaw, "brokers", getenv("KAFKA_BROKERS"), "Kafka brokers as comma-separated list")
	fs.StringVar(&cfg.topic, "topic", kafka.TopicOrderIntake, "intake topic")
	fs.IntVar(&cfg.count, "count", 10, "number of orders to publish")
	fs.DurationVar(&cfg.interval, "interval", time.Second, "pause between orders")
	fs.Uint64Var(&cfg.seed, "seed", 0, "faker seed (0 = random)")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	for _, b := range strings.Split(brokersRaw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.brokers = append(cfg.brokers, b)
		}
	}
	if len(cfg.brokers) == 0 {
		return config{}, errors.New("kafka brokers are required (-brokers or KAFKA_BROKERS)")
	}
	if strings.TrimSpace(cfg.topic) == "" {
		return config{}, errors.New("topic is required")
	}
	if cfg.count <= 0 {
		return config{}, errors.New("count must be > 0")
	}
	if cfg.interval < 0 {
		return config{}, errors.New("interval must be >= 0")
	}
	return cfg, nil
}

type orderSource interface {
	Order() domain.Order
}

// publishOrders отправляет cfg.count случайных заказов как события order.placed.
func publishOrders(ctx context.Context, publisher kafka.EventPublisher, source orderSource, cfg config) (int, error) {
	sent := 0
	for sent < cfg.count {
		order := source.Order()
		if err := publisher.PublishEvent(cfg.topic, order.ID, kafka.NewOrderPlacedEvent(order)); err != nil {
			return sent, fmt.Errorf("order %s: %w", order.ID, err)
		}
		sent++
		log.WithFields(log.Fields{
			"order_id": order.ID,
			"total":    domain.FormatBRL(order.Total),
			"items":    len(order.Items),
		}).Info("order published")

		if sent == cfg.count || cfg.interval == 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		case <-time.After(cfg.interval):
		}
	}
	return sent, nil
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
