package player

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

// ErrUnsupportedFormat возвращается для форматов, которые плеер не умеет декодировать
var ErrUnsupportedFormat = errors.New("неподдерживаемый аудиоформат")

const (
	formatMP3 = "mp3"
	formatWAV = "wav"
)

// Decode декодирует источник в поток beep
func Decode(src *Source) (beep.StreamSeekCloser, beep.Format, error) {
	kind, err := detectFormat(src)
	if err != nil {
		return nil, beep.Format{}, err
	}

	switch kind {
	case formatWAV:
		streamer, format, err := wav.Decode(src)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("ошибка декодирования WAV: %w", err)
		}
		return streamer, format, nil
	default:
		streamer, format, err := mp3.Decode(src)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("ошибка декодирования MP3: %w", err)
		}
		return streamer, format, nil
	}
}

// detectFormat определяет формат по расширению, MIME-типу или сигнатуре файла
func detectFormat(src *Source) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(src.Name), ".")) {
	case "mp3":
		return formatMP3, nil
	case "wav":
		return formatWAV, nil
	case "ogg", "flac", "m4a", "aac":
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(src.Name))
	}

	switch {
	case strings.Contains(src.ContentType, "mpeg"), strings.Contains(src.ContentType, "mp3"):
		return formatMP3, nil
	case strings.Contains(src.ContentType, "wav"):
		return formatWAV, nil
	}

	// Cloudinary отдает аудио по адресам без расширения, смотрим на сигнатуру
	header := make([]byte, 4)
	n, err := io.ReadFull(src, header)
	if _, seekErr := src.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("ошибка перемотки источника: %w", seekErr)
	}
	if err == nil && n == 4 && string(header) == "RIFF" {
		return formatWAV, nil
	}
	return formatMP3, nil
}
