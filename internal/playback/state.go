package playback

import "github.com/hazadus/ethiomusic/internal/catalog"

// Status - состояние воспроизведения
type Status int

const (
	// StatusIdle - источник не загружен
	StatusIdle Status = iota
	// StatusPaused - источник загружен, воспроизведение на паузе
	StatusPaused
	// StatusPlaying - источник загружен и воспроизводится
	StatusPlaying
)

func (s Status) String() string {
	switch s {
	case StatusPaused:
		return "Пауза"
	case StatusPlaying:
		return "Воспроизведение"
	default:
		return "Остановлено"
	}
}

// State - снимок состояния контроллера
type State struct {
	Source    string
	TrackID   string
	AlbumID   string
	IsPlaying bool

	// Позиция и длительность в секундах
	CurrentTime float64
	Duration    float64

	// Треки альбома, пусто вне альбома
	Tracks []catalog.Track
}

// Status возвращает состояние воспроизведения
func (s State) Status() Status {
	switch {
	case s.Source == "":
		return StatusIdle
	case s.IsPlaying:
		return StatusPlaying
	default:
		return StatusPaused
	}
}

// Progress возвращает позицию в процентах от 0 до 100
func (s State) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return min(100, max(0, s.CurrentTime/s.Duration*100))
}

// TrackIndex возвращает номер текущего трека в альбоме или -1
func (s State) TrackIndex() int {
	for i, t := range s.Tracks {
		if sameTrack(t, s.TrackID, s.Source) {
			return i
		}
	}
	return -1
}

// IsActive возвращает true, если указанный элемент или трек сейчас загружен
func (s State) IsActive(id string) bool {
	return id != "" && (s.TrackID == id || s.AlbumID == id)
}

func sameTrack(t catalog.Track, id, source string) bool {
	if t.ID != "" || id != "" {
		return t.ID == id
	}
	return t.AudioURL == source
}

func (s State) clone() State {
	if s.Tracks != nil {
		tracks := make([]catalog.Track, len(s.Tracks))
		copy(tracks, s.Tracks)
		s.Tracks = tracks
	}
	return s
}
