// Package orchestrator выполняет запросы к API каталога в ответ на действия хранилища.
// Из нескольких одновременных запросов страницы в хранилище попадает только результат последнего.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hazadus/ethiomusic/internal/api"
	"github.com/hazadus/ethiomusic/internal/catalog"
	"github.com/hazadus/ethiomusic/internal/store"
)

// CatalogAPI - операции API каталога, используемые оркестратором
type CatalogAPI interface {
	List(ctx context.Context, page, limit int) (*api.ListResponse, error)
	Create(ctx context.Context, item *catalog.Item) (*catalog.Item, error)
	Update(ctx context.Context, id string, item *catalog.Item) (*catalog.Item, error)
	Delete(ctx context.Context, id string) error
}

// Store - хранилище, в которое оркестратор отправляет результаты
type Store interface {
	Dispatch(action store.Action)
	OnAction(effect store.Effect)
	State() store.State
}

// Orchestrator обрабатывает FetchRequested и операции записи
type Orchestrator struct {
	api   CatalogAPI
	store Store

	mu     sync.Mutex
	latest string
	last   store.FetchRequested

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New создает оркестратор и регистрирует его эффектом хранилища
func New(catalogAPI CatalogAPI, st Store) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		api:    catalogAPI,
		store:  st,
		last:   store.FetchRequested{Page: 1, PageSize: catalog.DefaultPageSize},
		ctx:    ctx,
		cancel: cancel,
	}
	st.OnAction(o.handle)
	return o
}

// RequestPage запрашивает страницу каталога
func (o *Orchestrator) RequestPage(page, pageSize int) {
	o.store.Dispatch(normalize(store.FetchRequested{Page: page, PageSize: pageSize}))
}

// Retry повторяет последний запрос страницы
func (o *Orchestrator) Retry() {
	o.mu.Lock()
	last := o.last
	o.mu.Unlock()
	o.store.Dispatch(last)
}

// Create проверяет черновик, создает элемент и перезагружает текущую страницу
func (o *Orchestrator) Create(ctx context.Context, item *catalog.Item) (*catalog.Item, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	created, err := o.api.Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("не удалось добавить %q: %w", item.Title, err)
	}
	o.refresh(false)
	return created, nil
}

// Update проверяет черновик, сохраняет изменения и перезагружает текущую страницу
func (o *Orchestrator) Update(ctx context.Context, id string, item *catalog.Item) (*catalog.Item, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: не указан ID элемента", catalog.ErrValidation)
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	updated, err := o.api.Update(ctx, id, item)
	if err != nil {
		return nil, fmt.Errorf("не удалось сохранить %q: %w", item.Title, err)
	}
	o.refresh(false)
	return updated, nil
}

// Delete удаляет элемент и перезагружает текущую страницу
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: не указан ID элемента", catalog.ErrValidation)
	}
	if err := o.api.Delete(ctx, id); err != nil {
		return fmt.Errorf("не удалось удалить элемент %s: %w", id, err)
	}
	o.refresh(true)
	return nil
}

// Wait ждет завершения всех начатых запросов
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close отменяет начатые запросы
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

// refresh перезапрашивает текущую страницу после записи.
// После удаления последнего элемента страницы переходит на предыдущую.
func (o *Orchestrator) refresh(afterDelete bool) {
	state := o.store.State()
	page := state.Page
	if afterDelete && len(state.Items) == 1 && page > 1 {
		page--
	}
	o.RequestPage(page, state.PageSize)
}

// handle - эффект хранилища
func (o *Orchestrator) handle(action store.Action, _ store.State) {
	req, ok := action.(store.FetchRequested)
	if !ok {
		return
	}
	req = normalize(req)

	o.mu.Lock()
	id := uuid.NewString()
	o.latest = id
	o.last = req
	o.mu.Unlock()

	o.store.Dispatch(store.LoadingSet{Loading: true})

	o.wg.Add(1)
	go o.fetch(id, req)
}

func (o *Orchestrator) fetch(id string, req store.FetchRequested) {
	defer o.wg.Done()

	resp, err := o.api.List(o.ctx, req.Page, req.PageSize)

	// Проверка актуальности и отправка результата выполняются атомарно
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.latest != id {
		log.Printf("Ответ на устаревший запрос страницы %d отброшен", req.Page)
		return
	}
	if err != nil {
		if errors.Is(err, context.Canceled) && o.ctx.Err() != nil {
			return
		}
		log.Printf("Ошибка загрузки страницы %d: %v", req.Page, err)
		o.store.Dispatch(store.Failed{Message: err.Error()})
		return
	}

	page := resp.Page
	if page <= 0 {
		page = req.Page
	}
	o.store.Dispatch(store.Succeeded{
		Items:    resp.Data,
		Total:    resp.Total,
		Page:     page,
		PageSize: req.PageSize,
	})
}

func normalize(req store.FetchRequested) store.FetchRequested {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = catalog.DefaultPageSize
	}
	return req
}
