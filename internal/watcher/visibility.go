package watcher

import (
	"sync"
	"time"
)

// Visibility сообщает, смотрит ли кто-нибудь на дашборд.
// Пока он не виден, тики опроса пропускаются.
type Visibility interface {
	Visible() bool
}

// VisibilityNotifier дополнительно сообщает о переходе в видимое состояние
type VisibilityNotifier interface {
	Visibility
	Subscribe() (<-chan struct{}, func())
}

// ViewerTracker считает дашборд видимым, если за последние idle
// был хотя бы один запрос зрителя.
type ViewerTracker struct {
	mu       sync.Mutex
	idle     time.Duration
	lastSeen time.Time
	now      func() time.Time
	nextID   int
	subs     map[int]chan struct{}
}

// TrackerOption настраивает ViewerTracker
type TrackerOption func(*ViewerTracker)

// WithTrackerClock подменяет источник времени
func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *ViewerTracker) {
		t.now = now
	}
}

// NewViewerTracker создаёт трекер зрителей
func NewViewerTracker(idle time.Duration, opts ...TrackerOption) *ViewerTracker {
	if idle <= 0 {
		idle = time.Minute
	}
	t := &ViewerTracker{
		idle: idle,
		now:  time.Now,
		subs: make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Touch отмечает активность зрителя. Если дашборд был скрыт,
// подписчики получают уведомление.
func (t *ViewerTracker) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	wasVisible := t.visibleAt(now)
	t.lastSeen = now
	if wasVisible {
		return
	}
	for _, ch := range t.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Visible реализует Visibility
func (t *ViewerTracker) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visibleAt(t.now())
}

// Subscribe возвращает канал уведомлений о появлении зрителя и функцию отписки
func (t *ViewerTracker) Subscribe() (<-chan struct{}, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	ch := make(chan struct{}, 1)
	t.subs[id] = ch

	return ch, func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

func (t *ViewerTracker) visibleAt(now time.Time) bool {
	return !t.lastSeen.IsZero() && now.Sub(t.lastSeen) < t.idle
}

type alwaysVisible struct{}

func (alwaysVisible) Visible() bool { return true }
