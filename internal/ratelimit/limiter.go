// Package ratelimit реализует клиентский ограничитель частоты запросов
// с фиксированным окном для каждого эндпоинта.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultMaxRequests - допустимое число запросов в окне по умолчанию
	DefaultMaxRequests = 10
	// DefaultWindow - длительность окна по умолчанию
	DefaultWindow = time.Minute
)

type bucketKey struct {
	endpoint string
	window   int64
}

// Limiter считает запросы по паре (эндпоинт, номер окна).
// Номер окна равен floor(now / window).
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	counts      map[bucketKey]int
	now         func() time.Time
}

// Option настраивает Limiter
type Option func(*Limiter)

// WithClock подменяет источник времени
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New создаёт ограничитель. Неположительные значения заменяются значениями по умолчанию.
func New(maxRequests int, window time.Duration, opts ...Option) *Limiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}

	l := &Limiter{
		maxRequests: maxRequests,
		window:      window,
		counts:      make(map[bucketKey]int),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow сообщает, можно ли выполнить запрос к эндпоинту, и учитывает его.
// Если окно заполнено, состояние не меняется.
func (l *Limiter) Allow(endpoint string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.currentWindow()
	l.purge(current)

	key := bucketKey{endpoint: endpoint, window: current}
	if l.counts[key] >= l.maxRequests {
		return false
	}
	l.counts[key]++
	return true
}

// Remaining возвращает число запросов, доступных в текущем окне
func (l *Limiter) Remaining(endpoint string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := bucketKey{endpoint: endpoint, window: l.currentWindow()}
	return l.maxRequests - l.counts[key]
}

// ResetAt возвращает момент начала следующего окна
func (l *Limiter) ResetAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.currentWindow() + 1
	return time.Unix(0, next*int64(l.window))
}

// Limit возвращает размер окна в запросах
func (l *Limiter) Limit() int {
	return l.maxRequests
}

func (l *Limiter) currentWindow() int64 {
	return l.now().UnixNano() / int64(l.window)
}

// purge удаляет окна старше предыдущего
func (l *Limiter) purge(current int64) {
	for key := range l.counts {
		if key.window < current-1 {
			delete(l.counts, key)
		}
	}
}
