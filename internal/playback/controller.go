package playback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hazadus/ethiomusic/internal/catalog"
)

// DefaultTickInterval - период опроса позиции во время воспроизведения
const DefaultTickInterval = time.Second / 30

// restartThreshold - после этой позиции Previous перематывает текущий трек в начало
const restartThreshold = 3 * time.Second

// ErrNoAudio возвращается для трека без аудиофайла
var ErrNoAudio = errors.New("у трека нет аудиофайла")

// Controller последовательно управляет единственным аудиовыходом.
// Переходы выполняются под одним мьютексом. На время Load мьютекс отпускается,
// а результат загрузки применяется, только если ее не вытеснила более поздняя операция.
type Controller struct {
	mu    sync.Mutex
	out   Output
	state State
	seq   uint64

	loadGen    uint64
	loading    bool
	loadCancel context.CancelFunc

	tickInterval time.Duration
	tickStop     chan struct{}

	subs       []*Subscription
	subsMu     sync.Mutex
	subsClosed bool

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// Option настраивает контроллер
type Option func(*Controller)

// WithTickInterval задает период опроса позиции
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.tickInterval = d
		}
	}
}

// New создает контроллер поверх аудиовыхода и подписывается на его уведомления об окончании
func New(out Output, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		out:          out,
		tickInterval: DefaultTickInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	out.OnEnded(c.handleEnded)
	return c
}

// State возвращает копию текущего состояния
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe создает подписку на события контроллера
func (c *Controller) Subscribe() *Subscription {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	sub := newSubscription()
	if c.subsClosed {
		sub.close()
		return sub
	}
	c.subs = append(c.subs, sub)
	return sub
}

// ToggleSingle переключает паузу, если источник уже загружен, иначе запускает его с начала
func (c *Controller) ToggleSingle(ctx context.Context, url, id string) error {
	if url == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Source == url {
		if c.loading {
			return nil
		}
		if c.out.Source() == url {
			c.togglePauseLocked()
			return nil
		}
	}

	return c.loadAndPlayLocked(ctx, State{Source: url, TrackID: id})
}

// ToggleAlbum запускает альбом с первого трека или полностью останавливает его, если он играет
func (c *Controller) ToggleAlbum(ctx context.Context, album *catalog.Item) error {
	if album == nil || len(album.Tracks) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.AlbumID == album.ID && (c.state.IsPlaying || c.loading) {
		c.stopLocked()
		return nil
	}

	return c.playTrackLocked(ctx, album.ID, cloneTracks(album.Tracks), album.Tracks[0])
}

// PlayTrack останавливает текущий источник и запускает трек в контексте альбома
func (c *Controller) PlayTrack(ctx context.Context, albumID string, track catalog.Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playTrackLocked(ctx, albumID, c.state.Tracks, track)
}

// SelectTrack запускает трек альбома с указанным номером, делая альбом текущим.
// Трек выбирается по позиции, поэтому треки без ID тоже различаются.
func (c *Controller) SelectTrack(ctx context.Context, album *catalog.Item, index int) error {
	if album == nil {
		return nil
	}
	if index < 0 || index >= len(album.Tracks) {
		return fmt.Errorf("трек №%d не найден в альбоме %q", index+1, album.Title)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playTrackLocked(ctx, album.ID, cloneTracks(album.Tracks), album.Tracks[index])
}

// OnTrackEnded переходит к следующему треку альбома или останавливает воспроизведение
func (c *Controller) OnTrackEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trackEndedLocked()
}

// Seek перематывает на указанный процент длительности, не меняя состояние паузы
func (c *Controller) Seek(percent float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Source == "" || c.loading {
		return nil
	}
	percent = min(100, max(0, percent))

	duration := c.out.Duration()
	if duration <= 0 {
		duration = time.Duration(c.state.Duration * float64(time.Second))
	}
	if duration <= 0 {
		return nil
	}

	position := time.Duration(percent / 100 * float64(duration))
	wasPlaying := c.state.IsPlaying
	if err := c.out.SetPosition(position); err != nil {
		c.publishErrorLocked("seek", err)
		return fmt.Errorf("ошибка перемотки: %w", err)
	}
	if wasPlaying && !c.out.Playing() {
		if err := c.out.Play(); err != nil {
			c.playFailedLocked(err)
		}
	}

	c.state.CurrentTime = position.Seconds()
	c.state.Duration = duration.Seconds()
	c.publishPositionLocked()
	return nil
}

// SeekBy перематывает на указанный сдвиг относительно текущей позиции
func (c *Controller) SeekBy(delta time.Duration) error {
	c.mu.Lock()
	duration := c.out.Duration()
	position := c.out.Position()
	c.mu.Unlock()

	if duration <= 0 {
		return nil
	}
	target := min(duration, max(0, position+delta))
	return c.Seek(float64(target) / float64(duration) * 100)
}

// TogglePause переключает паузу текущего источника
func (c *Controller) TogglePause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Source == "" || c.loading {
		return
	}
	c.togglePauseLocked()
}

// Next запускает следующий трек альбома
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.state.TrackIndex()
	if c.state.AlbumID == "" || idx < 0 || idx+1 >= len(c.state.Tracks) {
		return nil
	}
	return c.playTrackLocked(ctx, c.state.AlbumID, c.state.Tracks, c.state.Tracks[idx+1])
}

// Previous запускает предыдущий трек альбома или перематывает текущий в начало
func (c *Controller) Previous(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.state.TrackIndex()
	if c.state.AlbumID == "" || idx < 0 {
		return nil
	}
	if idx == 0 && c.loading {
		return nil
	}
	if !c.loading && (idx == 0 || c.out.Position() > restartThreshold) {
		if err := c.out.SetPosition(0); err != nil {
			return fmt.Errorf("ошибка перемотки: %w", err)
		}
		c.state.CurrentTime = 0
		c.publishPositionLocked()
		return nil
	}
	return c.playTrackLocked(ctx, c.state.AlbumID, c.state.Tracks, c.state.Tracks[idx-1])
}

// Stop останавливает воспроизведение и очищает состояние
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Sampling возвращает true, пока работает опрос позиции
func (c *Controller) Sampling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickStop != nil
}

// Close останавливает воспроизведение, закрывает подписки и аудиовыход
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.stopLocked()
	c.closed = true
	c.cancel()
	c.mu.Unlock()

	c.subsMu.Lock()
	c.subsClosed = true
	for _, sub := range c.subs {
		sub.close()
	}
	c.subs = nil
	c.subsMu.Unlock()

	return c.out.Close()
}

// handleEnded - обработчик уведомления аудиовыхода
func (c *Controller) handleEnded(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.loading || seq != c.seq || c.state.Source == "" {
		return
	}
	c.trackEndedLocked()
}

func (c *Controller) trackEndedLocked() {
	if c.state.AlbumID != "" && len(c.state.Tracks) > 0 {
		idx := c.state.TrackIndex()
		if idx >= 0 && idx+1 < len(c.state.Tracks) {
			if err := c.playTrackLocked(c.ctx, c.state.AlbumID, c.state.Tracks, c.state.Tracks[idx+1]); err != nil {
				log.Printf("Не удалось перейти к следующему треку: %v", err)
				c.stopLocked()
			}
			return
		}
	}
	c.stopLocked()
}

// playTrackLocked запускает трек в контексте альбома. Трек без аудиофайла
// отклоняется до любых изменений, текущее воспроизведение при этом не трогается.
func (c *Controller) playTrackLocked(ctx context.Context, albumID string, tracks []catalog.Track, track catalog.Track) error {
	if track.AudioURL == "" {
		return fmt.Errorf("%w: %q", ErrNoAudio, track.Title)
	}
	return c.loadAndPlayLocked(ctx, State{
		Source:  track.AudioURL,
		TrackID: track.ID,
		AlbumID: albumID,
		Tracks:  tracks,
	})
}

// loadAndPlayLocked останавливает текущий источник, загружает target.Source и запускает его с начала.
// Пока идет Load, мьютекс отпущен, поэтому State, Stop и новые загрузки не ждут сеть.
// Если за это время началась другая загрузка или остановка, результат отбрасывается.
func (c *Controller) loadAndPlayLocked(ctx context.Context, target State) error {
	c.stopTickerLocked()
	c.out.Stop()
	c.cancelLoadLocked()

	loadCtx, cancel := context.WithCancel(ctx)
	c.loadCancel = cancel
	c.loading = true
	gen := c.loadGen

	c.state = State{
		Source:  target.Source,
		TrackID: target.TrackID,
		AlbumID: target.AlbumID,
		Tracks:  target.Tracks,
	}

	c.mu.Unlock()
	seq, err := c.out.Load(loadCtx, target.Source)
	c.mu.Lock()

	if gen != c.loadGen || c.closed {
		// Загрузку вытеснила более поздняя операция. После остановки
		// устаревший источник не должен остаться загруженным.
		if err == nil && !c.closed && c.state.Source == "" {
			c.out.Stop()
		}
		return nil
	}
	c.loading = false
	c.loadCancel = nil
	cancel()

	if err != nil {
		c.resetLocked()
		c.publishErrorLocked("load", err)
		c.publishStateLocked()
		return fmt.Errorf("не удалось загрузить %s: %w", target.Source, err)
	}

	c.seq = seq
	c.state.Duration = c.out.Duration().Seconds()

	if err := c.out.Play(); err != nil {
		c.playFailedLocked(err)
		c.publishStateLocked()
		return nil
	}
	c.state.IsPlaying = true
	c.startTickerLocked()
	c.publishStateLocked()
	return nil
}

// cancelLoadLocked отменяет незавершенную загрузку и делает ее результат устаревшим
func (c *Controller) cancelLoadLocked() {
	if c.loadCancel != nil {
		c.loadCancel()
		c.loadCancel = nil
	}
	c.loadGen++
	c.loading = false
}

func (c *Controller) togglePauseLocked() {
	if c.state.IsPlaying {
		c.out.Pause()
		c.stopTickerLocked()
		c.state.IsPlaying = false
		c.state.CurrentTime = c.out.Position().Seconds()
		c.publishStateLocked()
		return
	}

	if err := c.out.Play(); err != nil {
		c.playFailedLocked(err)
		c.publishStateLocked()
		return
	}
	c.state.IsPlaying = true
	c.startTickerLocked()
	c.publishStateLocked()
}

// playFailedLocked обрабатывает отказ запуска: источник остается загруженным на паузе
func (c *Controller) playFailedLocked(err error) {
	log.Printf("Ошибка запуска воспроизведения %s: %v", c.state.Source, err)
	c.stopTickerLocked()
	c.state.IsPlaying = false
	c.publishErrorLocked("play", err)
}

func (c *Controller) stopLocked() {
	c.cancelLoadLocked()
	c.stopTickerLocked()
	c.out.Stop()
	c.resetLocked()
	c.publishStateLocked()
}

func (c *Controller) resetLocked() {
	c.state = State{}
}

func cloneTracks(tracks []catalog.Track) []catalog.Track {
	out := make([]catalog.Track, len(tracks))
	copy(out, tracks)
	return out
}

// startTickerLocked запускает опрос позиции, если он еще не запущен
func (c *Controller) startTickerLocked() {
	if c.tickStop != nil {
		return
	}
	stop := make(chan struct{})
	c.tickStop = stop
	go c.sample(stop)
}

func (c *Controller) stopTickerLocked() {
	if c.tickStop != nil {
		close(c.tickStop)
		c.tickStop = nil
	}
}

func (c *Controller) sample(stop chan struct{}) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.tickStop != stop {
				c.mu.Unlock()
				return
			}
			c.state.CurrentTime = c.out.Position().Seconds()
			if d := c.out.Duration(); d > 0 {
				c.state.Duration = d.Seconds()
			}
			c.publishPositionLocked()
			c.mu.Unlock()
		}
	}
}

func (c *Controller) publishStateLocked() {
	state := c.state.clone()
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, sub := range c.subs {
		sub.sendState(state)
	}
}

func (c *Controller) publishPositionLocked() {
	e := PositionChange{
		Position: time.Duration(c.state.CurrentTime * float64(time.Second)),
		Duration: time.Duration(c.state.Duration * float64(time.Second)),
	}
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, sub := range c.subs {
		sub.sendPosition(e)
	}
}

func (c *Controller) publishErrorLocked(op string, err error) {
	e := ErrorEvent{Operation: op, Source: c.state.Source, Err: err}
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, sub := range c.subs {
		sub.sendError(e)
	}
}
