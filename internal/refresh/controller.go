package refresh

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mmeshcher/impact-dashboard/internal/model"
)

var (
	// ErrStale возвращается, если за время обновления был запущен более новый цикл.
	ErrStale = errors.New("refresh superseded by a newer generation")
	// ErrNoData возвращается, если не удалось загрузить ни одной обязательной коллекции.
	ErrNoData = errors.New("no data could be loaded for this scope")
	// ErrUnknownScope возвращается для области без плана загрузки.
	ErrUnknownScope = errors.New("unknown scope")
)

// Builder строит представление из загруженного снимка.
type Builder[V any] func(b *Bundle) V

// Mutation описывает завершившееся изменяющее действие.
type Mutation struct {
	Collection model.Collection
}

// Controller хранит представление одной сессии просмотра и решает, когда его
// нужно пересчитать: при первом открытии, смене области и после изменений.
type Controller[V any] struct {
	fetcher Fetcher
	build   Builder[V]
	logger  *zap.Logger

	mu         sync.Mutex
	generation uint64
	scope      model.Scope
	hasScope   bool
	view       V
	viewScope  model.Scope
	hasView    bool
	dirty      bool
}

// NewController создаёт контроллер обновления.
func NewController[V any](f Fetcher, build Builder[V], logger *zap.Logger) *Controller[V] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller[V]{
		fetcher: f,
		build:   build,
		logger:  logger,
	}
}

// NeedsRefresh сообщает, нужно ли пересчитать представление для области.
func (c *Controller[V]) NeedsRefresh(scope model.Scope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return !c.hasView || c.viewScope != scope || c.dirty
}

// Invalidate помечает текущее представление устаревшим.
func (c *Controller[V]) Invalidate() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

// Current возвращает последнее применённое представление.
func (c *Controller[V]) Current() (V, model.Scope, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.view, c.viewScope, c.hasView
}

// Generation возвращает номер последнего запущенного цикла.
func (c *Controller[V]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.generation
}

// Refresh выполняет полный цикл загрузки и расчёта для области.
//
// Представление применяется целиком только если за время загрузки не был
// запущен более новый цикл; иначе результат отбрасывается и возвращается
// ErrStale. Если не загрузилась ни одна обязательная коллекция, нулевое
// представление применяется, остаётся помеченным устаревшим и возвращается ErrNoData.
func (c *Controller[V]) Refresh(ctx context.Context, scope model.Scope) (V, error) {
	var zero V

	plan := PlanFor(scope)
	if len(plan) == 0 {
		return zero, ErrUnknownScope
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.scope = scope
	c.hasScope = true
	c.mu.Unlock()

	bundle := Load(ctx, c.fetcher, scope, plan, c.logger)
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	view := c.build(bundle)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.logger.Debug("discarding stale refresh result",
			zap.String("scope", scope.String()),
			zap.Uint64("generation", gen),
			zap.Uint64("current", c.generation),
		)
		return zero, ErrStale
	}

	c.view = view
	c.viewScope = scope
	c.hasView = true
	c.dirty = bundle.NoData()

	if c.dirty {
		return view, ErrNoData
	}
	return view, nil
}

// Reload принудительно пересчитывает представление текущей области.
func (c *Controller[V]) Reload(ctx context.Context) (V, error) {
	c.mu.Lock()
	scope, ok := c.scope, c.hasScope
	c.mu.Unlock()

	if !ok {
		var zero V
		return zero, ErrUnknownScope
	}

	c.Invalidate()
	return c.Refresh(ctx, scope)
}

// Notify сообщает контроллеру о завершённом изменении. Если изменённая
// коллекция входит в план текущей области, представление пересчитывается.
// Второе значение истинно, если пересчёт был выполнен.
func (c *Controller[V]) Notify(ctx context.Context, m Mutation) (V, bool, error) {
	var zero V

	c.mu.Lock()
	scope, ok := c.scope, c.hasScope
	c.mu.Unlock()

	if !ok || !Affects(PlanFor(scope), m.Collection) {
		return zero, false, nil
	}

	c.Invalidate()
	view, err := c.Refresh(ctx, scope)
	return view, true, err
}
