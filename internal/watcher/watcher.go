// Package watcher содержит наблюдателей статистики: конечные автоматы
// loading → success | failure с опросом, ручным обновлением и защитой
// от устаревших ответов.
package watcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/cache"
	"github.com/KruglovEgor/RestoStats/internal/domain"
	"github.com/KruglovEgor/RestoStats/internal/ratelimit"
	"github.com/KruglovEgor/RestoStats/internal/telemetry"
)

// ErrStopped возвращается операциями остановленного наблюдателя
var ErrStopped = errors.New("watcher stopped")

// FetchFunc загружает данные для параметров params
type FetchFunc[P comparable, T any] func(ctx context.Context, params P) (T, error)

// Config описывает наблюдателя
type Config[P comparable, T any] struct {
	Name string
	// Endpoint - ключ ограничителя; по умолчанию Name
	Endpoint     string
	Fetch        FetchFunc[P, T]
	Params       P
	PollInterval time.Duration
	InitialDelay time.Duration
	// RefreshOnVisible перезагружает данные, когда появляется зритель
	RefreshOnVisible bool
}

// Deps - общие зависимости наблюдателей
type Deps struct {
	Limiter    *ratelimit.Limiter
	Visibility Visibility
	Logger     *zap.Logger
	Metrics    *telemetry.Metrics
}

// Watcher хранит StatResult для одного набора параметров
type Watcher[P comparable, T any] struct {
	cfg        Config[P, T]
	limiter    *ratelimit.Limiter
	visibility Visibility
	logger     *zap.Logger
	metrics    *telemetry.Metrics

	mu       sync.RWMutex
	state    domain.StatResult[T]
	params   P
	gen      uint64
	cancel   context.CancelFunc
	changed  chan struct{}

	// inflight - параметры текущей загрузки (валидны при cancel != nil),
	// dataParams - параметры, с которыми получены state.Data.
	inflight   P
	dataParams P
	// dirty: последняя смена параметров не привела к загрузке
	dirty bool

	started  bool
	stopped  bool
	pollKick chan struct{}

	runCtx  context.Context
	stopRun context.CancelFunc
	wg      sync.WaitGroup
}

// New создаёт наблюдателя. Загрузка начинается после Start.
func New[P comparable, T any](cfg Config[P, T], deps Deps) *Watcher[P, T] {
	if cfg.Endpoint == "" {
		cfg.Endpoint = cfg.Name
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoop()
	}
	visibility := deps.Visibility
	if visibility == nil {
		visibility = alwaysVisible{}
	}

	runCtx, stopRun := context.WithCancel(context.Background())

	return &Watcher[P, T]{
		cfg:        cfg,
		limiter:    deps.Limiter,
		visibility: visibility,
		logger:     logger.With(zap.String("watcher", cfg.Name)),
		metrics:    metrics,
		state: domain.StatResult[T]{
			Loading:   true,
			IsPolling: cfg.PollInterval > 0,
		},
		params:     cfg.Params,
		dataParams: cfg.Params,
		changed:    make(chan struct{}),
		pollKick:   make(chan struct{}, 1),
		runCtx:     runCtx,
		stopRun:    stopRun,
	}
}

// Name возвращает имя наблюдателя
func (w *Watcher[P, T]) Name() string {
	return w.cfg.Name
}

// Start запускает первую загрузку (после InitialDelay) и опрос.
// Отмена ctx останавливает наблюдателя.
func (w *Watcher[P, T]) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started || w.stopped {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.wg.Add(1)
	w.mu.Unlock()

	go w.loop()

	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.runCtx.Done():
		}
	}()
}

// Stop отменяет текущую загрузку, таймеры и опрос. После Stop состояние не меняется.
func (w *Watcher[P, T]) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.mu.Unlock()

	w.stopRun()
	w.wg.Wait()
	w.logger.Debug("watcher stopped")
}

// State возвращает копию текущего состояния
func (w *Watcher[P, T]) State() domain.StatResult[T] {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Params возвращает текущие параметры
func (w *Watcher[P, T]) Params() P {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.params
}

// DataParams возвращает параметры, с которыми были загружены текущие данные.
// После отклонённой смены параметров они отличаются от Params.
func (w *Watcher[P, T]) DataParams() P {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dataParams
}

// Changed возвращает канал, который закрывается при следующем изменении состояния
func (w *Watcher[P, T]) Changed() <-chan struct{} {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.changed
}

// Refetch выполняет ручное обновление в обход ограничителя и кэша
// и ждёт его завершения.
func (w *Watcher[P, T]) Refetch(ctx context.Context) (domain.StatResult[T], error) {
	return w.runAndWait(ctx, true)
}

// SetParams меняет параметры и ждёт загрузки. Для запущенного наблюдателя
// те же параметры не вызывают новой загрузки: ждём текущую. Исключение -
// параметры, загрузку которых отклонил ограничитель: они запрашиваются снова.
func (w *Watcher[P, T]) SetParams(ctx context.Context, params P) (domain.StatResult[T], error) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return domain.StatResult[T]{}, ErrStopped
	}
	if w.params == params && w.started && !w.dirty {
		w.mu.Unlock()
		return w.WaitLoaded(ctx)
	}
	w.params = params
	w.mu.Unlock()

	return w.runAndWait(ctx, false)
}

// SetPolling включает или выключает периодический опрос
func (w *Watcher[P, T]) SetPolling(enabled bool) {
	w.mu.Lock()
	if w.cfg.PollInterval <= 0 || w.state.IsPolling == enabled {
		w.mu.Unlock()
		return
	}
	w.state.IsPolling = enabled
	w.notifyLocked()
	w.mu.Unlock()

	select {
	case w.pollKick <- struct{}{}:
	default:
	}
}

func (w *Watcher[P, T]) runAndWait(ctx context.Context, manual bool) (domain.StatResult[T], error) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return domain.StatResult[T]{}, ErrStopped
	}
	w.wg.Add(1)
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer w.wg.Done()
		defer close(done)
		w.attempt(manual)
	}()

	select {
	case <-done:
		// попытка могла уступить загрузке, которая ещё идёт
		return w.WaitLoaded(ctx)
	case <-ctx.Done():
		return w.State(), ctx.Err()
	}
}

func (w *Watcher[P, T]) loop() {
	defer w.wg.Done()

	if w.cfg.InitialDelay > 0 {
		timer := time.NewTimer(w.cfg.InitialDelay)
		select {
		case <-w.runCtx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
	w.attempt(false)

	var visibleCh <-chan struct{}
	if notifier, ok := w.visibility.(VisibilityNotifier); ok && w.cfg.RefreshOnVisible {
		ch, unsubscribe := notifier.Subscribe()
		defer unsubscribe()
		visibleCh = ch
	}

	var ticker *time.Ticker
	var tick <-chan time.Time
	resetTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		if w.State().IsPolling {
			ticker = time.NewTicker(w.cfg.PollInterval)
			tick = ticker.C
		}
	}
	resetTicker()
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	for {
		select {
		case <-w.runCtx.Done():
			return
		case <-w.pollKick:
			resetTicker()
		case <-tick:
			if !w.visibility.Visible() {
				w.logger.Debug("poll tick skipped, no viewers")
				continue
			}
			w.attempt(false)
		case <-visibleCh:
			w.attempt(false)
		}
	}
}

// attempt выполняет одну попытку загрузки. Результат фиксируется,
// только если за это время не началась более новая попытка.
func (w *Watcher[P, T]) attempt(manual bool) {
	if !manual && w.limiter != nil && !w.limiter.Allow(w.cfg.Endpoint) {
		w.metrics.RateLimited(w.runCtx, w.cfg.Endpoint)
		w.logger.Warn("fetch rejected by rate limiter", zap.String("endpoint", w.cfg.Endpoint))

		w.mu.Lock()
		defer w.mu.Unlock()
		if w.stopped {
			return
		}
		if w.cancel != nil {
			if w.inflight == w.params {
				// идущая загрузка уже получит актуальные данные
				return
			}
			w.cancel()
			w.cancel = nil
			w.gen++
		}
		w.dirty = true
		w.state.Error = MsgRateLimited
		w.state.Loading = false
		w.notifyLocked()
		return
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.gen++
	gen := w.gen
	ctx, cancel := context.WithCancel(w.runCtx)
	w.cancel = cancel
	params := w.params
	w.inflight = params
	w.dirty = false
	w.state.Loading = true
	w.state.Error = ""
	w.notifyLocked()
	w.mu.Unlock()

	defer cancel()
	if manual {
		ctx = cache.WithRefresh(ctx)
	}

	start := time.Now()
	data, err := w.cfg.Fetch(ctx, params)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped || gen != w.gen {
		w.logger.Debug("discarding stale response", zap.Uint64("generation", gen))
		return
	}
	w.cancel = nil
	if params != w.params {
		// параметры сменились, новая попытка уже запланирована и завершит цикл
		w.logger.Debug("discarding response for replaced params", zap.Uint64("generation", gen))
		return
	}

	if err != nil {
		w.state.Error = ClassifyError(err)
		w.metrics.WatcherError(w.runCtx, w.cfg.Name)
		w.logger.Error("fetch failed",
			zap.Error(err),
			zap.Bool("manual", manual),
			zap.Duration("elapsed", time.Since(start)))
	} else {
		w.state.Data = &data
		w.dataParams = params
		w.state.Error = ""
		w.state.LastUpdate = time.Now()
		w.logger.Debug("fetch completed",
			zap.Bool("manual", manual),
			zap.Duration("elapsed", time.Since(start)))
	}
	w.state.Loading = false
	w.notifyLocked()
}

func (w *Watcher[P, T]) notifyLocked() {
	close(w.changed)
	w.changed = make(chan struct{})
}

// WaitLoaded ждёт, пока наблюдатель выйдет из состояния loading
func (w *Watcher[P, T]) WaitLoaded(ctx context.Context) (domain.StatResult[T], error) {
	for {
		w.mu.RLock()
		state, changed := w.state, w.changed
		w.mu.RUnlock()

		if !state.Loading {
			return state, nil
		}
		select {
		case <-changed:
		case <-w.runCtx.Done():
			return w.State(), nil
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}
