package store

import (
	"context"
	"sync"

	"github.com/hazadus/ethiomusic/internal/catalog"
)

// Effect вызывается после применения каждого действия с новым состоянием.
// Эффекты выполняются в горутине хранилища и не должны блокироваться.
type Effect func(action Action, state State)

// Store применяет действия по одному в порядке поступления
type Store struct {
	mu      sync.Mutex
	state   State
	pending []Action
	effects []Effect
	subs    map[int]chan State
	nextSub int

	wake chan struct{}
	done chan struct{}
}

// New создает хранилище с начальным состоянием
func New() *Store {
	return NewWithState(InitialState())
}

// NewWithState создает хранилище с заданным состоянием
func NewWithState(state State) *Store {
	return &Store{
		state: state,
		subs:  make(map[int]chan State),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Dispatch ставит действие в очередь. Никогда не блокируется.
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	s.pending = append(s.pending, action)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// OnAction регистрирует эффект
func (s *Store) OnAction(effect Effect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.effects = append(s.effects, effect)
}

// State возвращает копию текущего состояния
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

// Subscribe возвращает канал со снимками состояния и функцию отписки.
// Если подписчик не успевает читать, промежуточные снимки отбрасываются,
// в канале всегда остается самый свежий.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 1)
	id := s.nextSub
	s.nextSub++

	select {
	case <-s.done:
		close(ch)
		return ch, func() {}
	default:
	}
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
		})
	}
}

// Done закрывается после остановки Run
func (s *Store) Done() <-chan struct{} {
	return s.done
}

// Run обрабатывает очередь действий до отмены контекста
func (s *Store) Run(ctx context.Context) error {
	defer s.shutdown()

	for {
		s.drain()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		}
	}
}

// WaitRevision ждет состояние с номером ревизии больше after
func (s *Store) WaitRevision(ctx context.Context, after uint64) (State, error) {
	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	if state := s.State(); state.Revision > after {
		return state, nil
	}
	for {
		select {
		case <-ctx.Done():
			return s.State(), ctx.Err()
		case state, ok := <-updates:
			if !ok {
				return s.State(), context.Canceled
			}
			if state.Revision > after {
				return state, nil
			}
		}
	}
}

// drain применяет все накопленные действия
func (s *Store) drain() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		action := s.pending[0]
		s.pending = s.pending[1:]

		s.state = Reduce(s.state, action)
		state := cloneState(s.state)
		effects := make([]Effect, len(s.effects))
		copy(effects, s.effects)
		s.publishLocked(state)
		s.mu.Unlock()

		for _, effect := range effects {
			effect(action, state)
		}
	}
}

// publishLocked отправляет снимок подписчикам, заменяя непрочитанный
func (s *Store) publishLocked(state State) {
	for _, ch := range s.subs {
		select {
		case ch <- state:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
}

func (s *Store) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	close(s.done)
}

func cloneState(state State) State {
	if state.Items != nil {
		items := make([]catalog.Item, len(state.Items))
		copy(items, state.Items)
		state.Items = items
	}
	return state
}
