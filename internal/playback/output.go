// Package playback управляет воспроизведением синглов и альбомов через общий аудиовыход
package playback

import (
	"context"
	"time"
)

// Output - аудиовыход, которым владеет контроллер. В каждый момент загружен не более чем один источник.
type Output interface {
	// Load загружает источник и возвращает его порядковый номер.
	// Номер передается в обработчик окончания, чтобы отличать устаревшие уведомления.
	Load(ctx context.Context, url string) (uint64, error)
	Play() error
	Pause()
	Stop()
	Source() string
	Playing() bool
	Position() time.Duration
	Duration() time.Duration
	SetPosition(d time.Duration) error
	// OnEnded регистрирует обработчик окончания источника
	OnEnded(fn func(seq uint64))
	Close() error
}
