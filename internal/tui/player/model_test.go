package player

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/ethiomusic/internal/catalog"
	"github.com/hazadus/ethiomusic/internal/playback"
)

func testSingle() catalog.Item {
	return catalog.Item{
		ID:       "s1",
		Title:    "Tizita",
		Artist:   "Mahmoud Ahmed",
		Type:     catalog.TypeSingle,
		AudioURL: "https://cdn/tizita.mp3",
		Duration: 200,
	}
}

func testAlbum() catalog.Item {
	return catalog.Item{
		ID:     "a1",
		Title:  "Ethiopiques",
		Artist: "Mulatu Astatke",
		Type:   catalog.TypeAlbum,
		Tracks: []catalog.Track{
			{ID: "t1", Title: "Yekatit", AudioURL: "https://cdn/t1.mp3", Duration: 180},
			{ID: "t2", Title: "Netsanet", AudioURL: "https://cdn/t2.mp3"},
		},
	}
}

func newTestController(t *testing.T) (*playback.Controller, *playback.Mock) {
	t.Helper()
	out := playback.NewMock()
	c := playback.New(out, playback.WithTickInterval(time.Hour))
	t.Cleanup(func() { _ = c.Close() })
	return c, out
}

// press отправляет клавишу, выполняет команду и применяет новое состояние контроллера
func press(t *testing.T, m *Model, c *playback.Controller, msg tea.KeyMsg) *Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	m = updated.(*Model)
	if cmd != nil {
		if result := cmd(); result != nil {
			updated, _ = m.Update(result)
			m = updated.(*Model)
		}
	}
	updated, _ = m.Update(StateMsg{State: c.State()})
	return updated.(*Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}

func TestNewModel(t *testing.T) {
	c, _ := newTestController(t)

	model := NewModel(context.Background(), testSingle(), c)
	if model == nil {
		t.Fatal("NewModel вернул nil")
	}
	if model.Active() {
		t.Error("До запуска элемент не должен быть активным")
	}
	if !strings.Contains(model.View(), "Tizita") {
		t.Error("Ожидалось название в представлении")
	}
}

func TestToggleSingle(t *testing.T) {
	c, out := newTestController(t)
	model := NewModel(context.Background(), testSingle(), c)

	model = press(t, model, c, space)
	if !model.Active() || model.state.Status() != playback.StatusPlaying {
		t.Fatalf("Ожидалось воспроизведение, состояние %+v", model.state)
	}

	model = press(t, model, c, space)
	if model.state.Status() != playback.StatusPaused {
		t.Errorf("Повторное нажатие должно ставить на паузу, состояние %v", model.state.Status())
	}
	if out.LoadCount() != 1 {
		t.Errorf("Источник не должен загружаться повторно, загрузок: %d", out.LoadCount())
	}
	if !strings.Contains(model.View(), "Пауза") {
		t.Error("Ожидался статус паузы")
	}
}

func TestAlbumTrackSelection(t *testing.T) {
	c, out := newTestController(t)
	model := NewModel(context.Background(), testAlbum(), c)

	model = press(t, model, c, tea.KeyMsg{Type: tea.KeyDown})
	model = press(t, model, c, tea.KeyMsg{Type: tea.KeyEnter})

	state := c.State()
	if state.AlbumID != "a1" || state.TrackID != "t2" {
		t.Fatalf("Ожидался трек t2 альбома a1, состояние %+v", state)
	}
	if got := out.Loads(); len(got) != 1 || got[0] != "https://cdn/t2.mp3" {
		t.Errorf("Неожиданные загрузки: %v", got)
	}

	model = press(t, model, c, runes("p"))
	if c.State().TrackID != "t1" {
		t.Errorf("Ожидался переход к предыдущему треку, состояние %+v", c.State())
	}
	if model.cursor != 0 {
		t.Errorf("Курсор должен следовать за текущим треком, курсор %d", model.cursor)
	}

	// Пробел на играющем альбоме останавливает его целиком
	model = press(t, model, c, space)
	if c.State().Status() != playback.StatusIdle || model.Active() {
		t.Errorf("Альбом должен быть остановлен, состояние %+v", c.State())
	}
}

func TestSeekKeys(t *testing.T) {
	c, out := newTestController(t)
	model := NewModel(context.Background(), testSingle(), c)

	// Без загруженного источника перемотка ничего не делает
	if _, cmd := model.Update(runes("5")); cmd != nil {
		t.Error("Перемотка неактивного элемента не нужна")
	}

	model = press(t, model, c, space)
	model = press(t, model, c, runes("5"))

	if got := out.Position(); got != 100*time.Second {
		t.Errorf("Ожидалась позиция 100s, получено %v", got)
	}

	model, _ = updateModel(model, PositionMsg{Position: playback.PositionChange{Position: 100 * time.Second, Duration: 200 * time.Second}})
	model = press(t, model, c, runes("]"))
	if got := out.Position(); got != 120*time.Second {
		t.Errorf("Ожидалась позиция 120s, получено %v", got)
	}
	if !strings.Contains(model.View(), "/ 03:20") {
		t.Errorf("Ожидалось время воспроизведения, получено %q", model.View())
	}
}

func TestPlaybackError(t *testing.T) {
	c, out := newTestController(t)
	out.SetLoadError(errors.New("сеть недоступна"))
	model := NewModel(context.Background(), testSingle(), c)

	model = press(t, model, c, space)
	if model.error == nil || !strings.Contains(model.View(), "сеть недоступна") {
		t.Errorf("Ожидалась ошибка воспроизведения, представление %q", model.View())
	}
}

func TestSingleWithoutAudio(t *testing.T) {
	c, _ := newTestController(t)
	item := testSingle()
	item.AudioURL = ""
	model := NewModel(context.Background(), item, c)

	_, cmd := model.Update(space)
	if cmd != nil {
		t.Error("Без аудиофайла воспроизведение не запускается")
	}
	if !errors.Is(model.error, playback.ErrNoAudio) {
		t.Errorf("Ожидалась ErrNoAudio, получено %v", model.error)
	}
}

func TestUpdateWindowSize(t *testing.T) {
	c, _ := newTestController(t)
	model := NewModel(context.Background(), testSingle(), c)

	// Тестируем обновление размера окна
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	playerModel := updated.(*Model)

	if playerModel.width != 100 || playerModel.height != 40 {
		t.Errorf("Ожидался размер 100x40, получено %dx%d", playerModel.width, playerModel.height)
	}
	if playerModel.progressBar.Width != 60 {
		t.Errorf("Ожидалась ширина прогресс-бара 60, получено %d", playerModel.progressBar.Width)
	}
}

func TestKeyHandling(t *testing.T) {
	c, _ := newTestController(t)
	model := NewModel(context.Background(), testSingle(), c)

	_, cmd := model.Update(runes("q"))
	if cmd == nil {
		t.Fatal("Ожидалась команда для клавиши 'q'")
	}
	if _, ok := cmd().(GoBackMsg); !ok {
		t.Error("Ожидалось GoBackMsg")
	}

	_, cmd = model.Update(runes("e"))
	if msg, ok := cmd().(EditMsg); !ok || msg.Item.ID != "s1" {
		t.Error("Ожидалось EditMsg с текущим элементом")
	}
}

func TestListen(t *testing.T) {
	c, _ := newTestController(t)
	sub := c.Subscribe()

	if err := c.ToggleSingle(context.Background(), "https://cdn/x.mp3", "x"); err != nil {
		t.Fatal(err)
	}
	msg := Listen(sub)()
	stateMsg, ok := msg.(StateMsg)
	if !ok || stateMsg.State.Source != "https://cdn/x.mp3" {
		t.Fatalf("Ожидалось StateMsg, получено %#v", msg)
	}

	_ = c.Close()
	// После закрытия в буфере могут остаться события, затем приходит nil
	for i := 0; i < 32; i++ {
		if Listen(sub)() == nil {
			return
		}
	}
	t.Error("После закрытия подписки Listen должен возвращать nil")
}

func updateModel(m *Model, msg tea.Msg) (*Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(*Model), cmd
}
