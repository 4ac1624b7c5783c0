package playback

import "time"

const eventBufferSize = 16

// PositionChange публикуется при обновлении позиции воспроизведения
type PositionChange struct {
	Position time.Duration
	Duration time.Duration
}

// ErrorEvent публикуется при ошибке воспроизведения
type ErrorEvent struct {
	Operation string // "load", "play", "seek"
	Source    string
	Err       error
}

// Subscription - каналы событий для одного подписчика
type Subscription struct {
	StateChanged    <-chan State
	PositionChanged <-chan PositionChange
	Error           <-chan ErrorEvent
	Done            <-chan struct{}

	stateCh    chan State
	positionCh chan PositionChange
	errorCh    chan ErrorEvent
	doneCh     chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		stateCh:    make(chan State, eventBufferSize),
		positionCh: make(chan PositionChange, eventBufferSize),
		errorCh:    make(chan ErrorEvent, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.PositionChanged = s.positionCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) close() {
	close(s.doneCh)
}

// Отправка не блокирует: при переполнении буфера событие отбрасывается

func (s *Subscription) sendState(e State) {
	select {
	case s.stateCh <- e:
	default:
	}
}

func (s *Subscription) sendPosition(e PositionChange) {
	select {
	case s.positionCh <- e:
	default:
	}
}

func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
