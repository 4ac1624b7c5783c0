// Package player реализует аудиовыход поверх динамиков через beep
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/hazadus/ethiomusic/internal/playback"
)

// ErrNotLoaded возвращается при попытке воспроизведения без загруженного источника
var ErrNotLoaded = errors.New("источник не загружен")

// ErrLoadSuperseded возвращается, если загрузку вытеснили Stop, Close или другая загрузка
var ErrLoadSuperseded = errors.New("загрузка отменена более поздней операцией")

// resampleQuality - качество передискретизации для источников с другой частотой
const resampleQuality = 4

// Player управляет воспроизведением одного источника через динамики
type Player struct {
	mutex   sync.Mutex
	fetcher *Fetcher

	isInitialized bool
	sampleRate    beep.SampleRate

	seq      uint64
	loadGen  uint64
	source   string
	src      *Source
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl

	onEnded func(seq uint64)
	closed  bool
}

// NewPlayer создает новый экземпляр плеера
func NewPlayer() *Player {
	return &Player{fetcher: NewFetcher()}
}

// NewPlayerWithFetcher создает плеер с заданным загрузчиком источников
func NewPlayerWithFetcher(fetcher *Fetcher) *Player {
	return &Player{fetcher: fetcher}
}

// Load останавливает текущий источник и загружает новый на паузе.
// Скачивание и декодирование идут без блокировки плеера, поэтому Stop и
// Source не ждут сеть. Источник подключается, только если загрузка осталась последней.
func (p *Player) Load(ctx context.Context, url string) (uint64, error) {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return 0, errors.New("плеер закрыт")
	}
	// Останавливаем текущее воспроизведение, если есть
	p.stopInternal()
	gen := p.loadGen
	fetcher := p.fetcher
	p.mutex.Unlock()

	src, err := fetcher.Open(ctx, url)
	if err != nil {
		return 0, err
	}

	streamer, format, err := Decode(src)
	if err != nil {
		src.Close()
		return 0, err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed || gen != p.loadGen {
		streamer.Close()
		src.Close()
		return 0, ErrLoadSuperseded
	}

	// Инициализируем speaker (только один раз)
	if !p.isInitialized {
		err = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/5))
		if err != nil {
			streamer.Close()
			src.Close()
			return 0, fmt.Errorf("ошибка инициализации динамиков: %w", err)
		}
		p.isInitialized = true
		p.sampleRate = format.SampleRate
	}

	var output beep.Streamer = streamer
	if format.SampleRate != p.sampleRate {
		output = beep.Resample(resampleQuality, format.SampleRate, p.sampleRate, streamer)
	}

	p.seq++
	seq := p.seq
	p.source = url
	p.src = src
	p.streamer = streamer
	p.format = format

	// Создаем контроллер паузы, воспроизведение начинается по Play
	p.ctrl = &beep.Ctrl{Streamer: output, Paused: true}

	speaker.Play(beep.Seq(p.ctrl, beep.Callback(func() {
		// Колбэк вызывается под блокировкой динамиков, уведомляем асинхронно
		go p.notifyEnded(seq)
	})))

	return seq, nil
}

// Play запускает или возобновляет воспроизведение
func (p *Player) Play() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.ctrl == nil {
		return ErrNotLoaded
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Pause приостанавливает воспроизведение
func (p *Player) Pause() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.ctrl != nil {
		speaker.Lock()
		p.ctrl.Paused = true
		speaker.Unlock()
	}
}

// Stop останавливает воспроизведение
func (p *Player) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.stopInternal()
}

// stopInternal внутренний метод остановки (должен вызываться под мьютексом).
// Незавершенная загрузка после него считается устаревшей.
func (p *Player) stopInternal() {
	p.loadGen++

	if p.ctrl != nil {
		speaker.Clear()
		p.ctrl = nil
	}

	if p.streamer != nil {
		p.streamer.Close()
		p.streamer = nil
	}

	if p.src != nil {
		p.src.Close()
		p.src = nil
	}

	p.source = ""
}

// Source возвращает адрес загруженного источника
func (p *Player) Source() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.source
}

// Playing возвращает true, если источник воспроизводится
func (p *Player) Playing() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.ctrl == nil {
		return false
	}
	speaker.Lock()
	defer speaker.Unlock()
	return !p.ctrl.Paused
}

// Position возвращает текущую позицию
func (p *Player) Position() time.Duration {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return p.format.SampleRate.D(p.streamer.Position())
}

// Duration возвращает длительность источника
func (p *Player) Duration() time.Duration {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return p.format.SampleRate.D(p.streamer.Len())
}

// SetPosition перематывает источник, не меняя состояние паузы
func (p *Player) SetPosition(d time.Duration) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.streamer == nil {
		return ErrNotLoaded
	}

	speaker.Lock()
	defer speaker.Unlock()

	n := p.format.SampleRate.N(d)
	n = max(0, min(n, p.streamer.Len()-1))
	if err := p.streamer.Seek(n); err != nil {
		return fmt.Errorf("ошибка перемотки: %w", err)
	}
	return nil
}

// OnEnded регистрирует обработчик окончания источника
func (p *Player) OnEnded(fn func(seq uint64)) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.onEnded = fn
}

// Close закрывает плеер и освобождает ресурсы
func (p *Player) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.stopInternal()
	if p.isInitialized {
		speaker.Close()
		p.isInitialized = false
	}
	return nil
}

func (p *Player) notifyEnded(seq uint64) {
	p.mutex.Lock()
	fn := p.onEnded
	current := seq == p.seq && p.source != ""
	p.mutex.Unlock()

	if current && fn != nil {
		fn(seq)
	}
}

var _ playback.Output = (*Player)(nil)
