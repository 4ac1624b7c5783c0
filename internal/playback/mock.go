package playback

import (
	"context"
	"sync"
	"time"
)

// Mock - тестовая замена аудиовыхода
type Mock struct {
	mu sync.Mutex

	source   string
	playing  bool
	position time.Duration
	duration time.Duration
	seq      uint64

	loads     []string
	playCalls int
	seekCalls []time.Duration
	playErr   error
	loadErr   error
	loadGate  <-chan struct{}
	onEnded   func(seq uint64)
	closed    bool
}

// NewMock создает тестовый аудиовыход
func NewMock() *Mock {
	return &Mock{duration: 200 * time.Second}
}

// Load запоминает адрес и делает его текущим источником.
// Если задан шлюз загрузки, ждет его открытия или отмены ctx.
func (m *Mock) Load(ctx context.Context, url string) (uint64, error) {
	m.mu.Lock()
	m.loads = append(m.loads, url)
	gate := m.loadGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return 0, m.loadErr
	}
	m.seq++
	m.source = url
	m.playing = false
	m.position = 0
	return m.seq, nil
}

// Play запускает источник или возвращает ошибку, заданную SetPlayError
func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.playCalls++
	if m.playErr != nil {
		return m.playErr
	}
	if m.source != "" {
		m.playing = true
	}
	return nil
}

// Pause ставит источник на паузу
func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
}

// Stop выгружает источник
func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = ""
	m.playing = false
	m.position = 0
}

// Source возвращает адрес загруженного источника
func (m *Mock) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

// Playing возвращает true во время воспроизведения
func (m *Mock) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Position возвращает текущую позицию
func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// Duration возвращает длительность загруженного источника или 0
func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.source == "" {
		return 0
	}
	return m.duration
}

// SetPosition запоминает и устанавливает позицию
func (m *Mock) SetPosition(d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, d)
	m.position = d
	return nil
}

// OnEnded задает обработчик окончания источника
func (m *Mock) OnEnded(fn func(seq uint64)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnded = fn
}

// Close выгружает источник и помечает выход закрытым
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.source = ""
	m.playing = false
	return nil
}

// Вспомогательные методы для тестов

// SetPlayError задает ошибку, возвращаемую Play
func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// SetLoadError задает ошибку, возвращаемую Load
func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// SetLoadGate задает канал, открытия которого ждет Load. nil отключает ожидание.
func (m *Mock) SetLoadGate(gate <-chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadGate = gate
}

// SetDuration задает длительность загружаемых источников
func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

// Advance сдвигает позицию, имитируя воспроизведение
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position += d
}

// LoadCount возвращает количество вызовов Load
func (m *Mock) LoadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loads)
}

// Loads возвращает загруженные адреса по порядку
func (m *Mock) Loads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loads...)
}

// PlayCalls возвращает количество вызовов Play
func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

// SeekCalls возвращает позиции, переданные в SetPosition
func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

// Seq возвращает номер текущего источника
func (m *Mock) Seq() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}

// Closed возвращает true после вызова Close
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// SimulateEnded имитирует окончание текущего источника
func (m *Mock) SimulateEnded() {
	m.SimulateEndedSeq(m.Seq())
}

// SimulateEndedSeq имитирует уведомление об окончании источника с указанным номером
func (m *Mock) SimulateEndedSeq(seq uint64) {
	m.mu.Lock()
	fn := m.onEnded
	if seq == m.seq {
		m.playing = false
		m.position = m.duration
	}
	m.mu.Unlock()

	if fn != nil {
		fn(seq)
	}
}

var _ Output = (*Mock)(nil)
