package player

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

var testFormat = beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}

// writeSilence создает WAV-файл с тишиной указанной длительности
func writeSilence(t *testing.T, path string, d time.Duration) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Ошибка создания файла: %v", err)
	}
	defer file.Close()

	if err := wav.Encode(file, beep.Silence(testFormat.SampleRate.N(d)), testFormat); err != nil {
		t.Fatalf("Ошибка кодирования WAV: %v", err)
	}
}

func TestDecodeLocalWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	writeSilence(t, path, 2*time.Second)

	src, err := NewFetcher().Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Ошибка открытия файла: %v", err)
	}
	defer src.Close()

	streamer, format, err := Decode(src)
	if err != nil {
		t.Fatalf("Ошибка декодирования: %v", err)
	}
	defer streamer.Close()

	if format.SampleRate != testFormat.SampleRate {
		t.Errorf("Ожидалась частота %d, получено %d", testFormat.SampleRate, format.SampleRate)
	}
	if got := format.SampleRate.D(streamer.Len()); got != 2*time.Second {
		t.Errorf("Ожидалась длительность 2s, получено %v", got)
	}
}

func TestFetcherHTTP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	writeSilence(t, path, time.Second)
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Ошибка чтения файла: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/clip" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(content)
	}))
	defer server.Close()

	fetcher := NewFetcherWithClient(server.Client(), 0)

	src, err := fetcher.Open(context.Background(), server.URL+"/audio/clip")
	if err != nil {
		t.Fatalf("Ошибка загрузки: %v", err)
	}
	defer src.Close()

	// Адрес без расширения: формат определяется по сигнатуре RIFF
	streamer, _, err := Decode(src)
	if err != nil {
		t.Fatalf("Ошибка декодирования: %v", err)
	}
	streamer.Close()

	if _, err := fetcher.Open(context.Background(), server.URL+"/missing.mp3"); err == nil {
		t.Error("Ожидалась ошибка для ответа 404")
	}
}

func TestFetcherTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte{0}, 2048))
	}))
	defer server.Close()

	_, err := NewFetcherWithClient(server.Client(), 1024).Open(context.Background(), server.URL+"/big.mp3")
	if !errors.Is(err, ErrSourceTooLarge) {
		t.Errorf("Ожидалась ошибка ErrSourceTooLarge, получено %v", err)
	}
}

func TestFetcherUnsupportedScheme(t *testing.T) {
	if _, err := NewFetcher().Open(context.Background(), "ftp://example.com/a.mp3"); err == nil {
		t.Error("Ожидалась ошибка для схемы ftp")
	}
}

func TestDecodeUnsupportedExtension(t *testing.T) {
	src := &Source{ReadSeeker: bytes.NewReader([]byte("OggS")), Name: "track.ogg"}
	if _, _, err := Decode(src); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Ожидалась ошибка ErrUnsupportedFormat, получено %v", err)
	}
}

func TestDecodeInvalidMP3(t *testing.T) {
	src := &Source{ReadSeeker: bytes.NewReader([]byte("not an mp3 at all")), Name: "broken.mp3"}
	if _, _, err := Decode(src); err == nil {
		t.Error("Ожидалась ошибка декодирования невалидного MP3")
	}
}

func TestPlayerWithoutSource(t *testing.T) {
	player := NewPlayer()
	defer player.Close()

	if err := player.Play(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Ожидалась ошибка ErrNotLoaded, получено %v", err)
	}
	if player.Playing() {
		t.Error("Плеер не должен воспроизводить без источника")
	}
	if player.Source() != "" {
		t.Errorf("Источник должен быть пустым, получено %q", player.Source())
	}
	if player.Position() != 0 || player.Duration() != 0 {
		t.Error("Позиция и длительность без источника должны быть нулевыми")
	}
	if err := player.SetPosition(time.Second); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Ожидалась ошибка ErrNotLoaded, получено %v", err)
	}

	// Pause и Stop без источника не должны паниковать
	player.Pause()
	player.Stop()
}

func TestPlayerLoadInvalidURL(t *testing.T) {
	player := NewPlayer()
	defer player.Close()

	if _, err := player.Load(context.Background(), "/nonexistent/track.mp3"); err == nil {
		t.Error("Ожидалась ошибка при загрузке несуществующего файла")
	}
	if player.Source() != "" {
		t.Error("После ошибки загрузки источник должен быть пустым")
	}
}

func TestPlayerClosed(t *testing.T) {
	player := NewPlayer()
	if err := player.Close(); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if err := player.Close(); err != nil {
		t.Fatalf("Повторное закрытие не должно возвращать ошибку: %v", err)
	}
	if _, err := player.Load(context.Background(), "/tmp/a.wav"); err == nil {
		t.Error("Ожидалась ошибка загрузки в закрытый плеер")
	}
}

func TestPlayerStopDuringSlowLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	writeSilence(t, path, time.Second)
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Ошибка чтения файла: %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		_, _ = w.Write(content)
	}))
	defer server.Close()

	player := NewPlayerWithFetcher(NewFetcherWithClient(server.Client(), 0))
	defer player.Close()

	result := make(chan error, 1)
	go func() {
		_, err := player.Load(context.Background(), server.URL+"/slow.wav")
		result <- err
	}()
	<-started

	stopped := make(chan struct{})
	go func() {
		player.Stop()
		_ = player.Source()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop не должен ждать завершения загрузки")
	}

	close(release)
	select {
	case err := <-result:
		if !errors.Is(err, ErrLoadSuperseded) {
			t.Errorf("Ожидалась ошибка ErrLoadSuperseded, получено %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Загрузка не завершилась")
	}
	if player.Source() != "" {
		t.Errorf("Вытесненная загрузка не должна подключать источник, получено %q", player.Source())
	}
}
