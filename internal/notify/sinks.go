package notify

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

// LogNotifier пишет уведомления в лог. Разрешение всегда выдано.
type LogNotifier struct {
	logger *log.Entry
}

// NewLogNotifier создаёт LogNotifier.
func NewLogNotifier(logger *log.Entry) *LogNotifier {
	if logger == nil {
		logger = log.WithField("component", "log-notifier")
	}
	return &LogNotifier{logger: logger}
}

// RequestPermission реализует SystemNotifier.
func (n *LogNotifier) RequestPermission(context.Context) (Permission, error) {
	return PermissionGranted, nil
}

// Show реализует SystemNotifier.
func (n *LogNotifier) Show(_ context.Context, notification Notification) error {
	n.logger.WithFields(log.Fields{
		"tag":   notification.Tag,
		"total": notification.Total,
	}).Info(notification.Body)
	return nil
}

// Fanout рассылает уведомление нескольким получателям.
type Fanout []SystemNotifier

// RequestPermission возвращает granted, если его выдал хотя бы один получатель.
func (f Fanout) RequestPermission(ctx context.Context) (Permission, error) {
	result := PermissionDenied
	var errs []error
	for _, n := range f {
		permission, err := n.RequestPermission(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if permission == PermissionGranted {
			result = PermissionGranted
		}
	}
	if result == PermissionGranted {
		return result, nil
	}
	return result, errors.Join(errs...)
}

// Show доставляет уведомление всем получателям и объединяет ошибки.
func (f Fanout) Show(ctx context.Context, notification Notification) error {
	var errs []error
	for _, n := range f {
		if err := n.Show(ctx, notification); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Silent — звук, который никогда не играет.
type Silent struct{}

// Play реализует SoundPlayer.
func (Silent) Play(context.Context) error { return nil }
