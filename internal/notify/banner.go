package notify

import (
	"sync"
	"time"
)

// DefaultBannerDuration — через сколько баннер скрывается сам.
const DefaultBannerDuration = 5 * time.Second

// Banner — временный баннер о новом заказе.
// Каждый Show перезапускает таймер; срабатывает только таймер последнего показа.
type Banner struct {
	mu       sync.Mutex
	visible  bool
	gen      uint64
	timer    *time.Timer
	duration time.Duration
	onChange func(visible bool)
}

// NewBanner создаёт скрытый баннер. onChange вызывается при каждой смене видимости.
func NewBanner(duration time.Duration, onChange func(visible bool)) *Banner {
	if duration <= 0 {
		duration = DefaultBannerDuration
	}
	return &Banner{duration: duration, onChange: onChange}
}

// Show показывает баннер и перезапускает таймер скрытия.
func (b *Banner) Show() {
	b.mu.Lock()
	wasVisible := b.visible
	b.visible = true
	b.gen++
	gen := b.gen
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.duration, func() { b.expire(gen) })
	b.mu.Unlock()

	if !wasVisible {
		b.emit(true)
	}
}

// Dismiss скрывает баннер. Повторный вызов ничего не делает.
func (b *Banner) Dismiss() {
	b.mu.Lock()
	if !b.visible {
		b.mu.Unlock()
		return
	}
	b.visible = false
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()

	b.emit(false)
}

// Visible сообщает, показан ли баннер.
func (b *Banner) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

// Stop останавливает таймер без вызова onChange.
func (b *Banner) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *Banner) expire(gen uint64) {
	b.mu.Lock()
	// Таймер предыдущего показа мог сработать до Stop.
	if gen != b.gen || !b.visible {
		b.mu.Unlock()
		return
	}
	b.visible = false
	b.timer = nil
	b.mu.Unlock()

	b.emit(false)
}

func (b *Banner) emit(visible bool) {
	if b.onChange != nil {
		b.onChange(visible)
	}
}
