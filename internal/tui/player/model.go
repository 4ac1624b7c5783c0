// Package player содержит модель экрана элемента каталога с воспроизведением для TUI
package player

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/ethiomusic/internal/catalog"
	"github.com/hazadus/ethiomusic/internal/playback"
	"github.com/hazadus/ethiomusic/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000ff")).
			MarginBottom(1)

	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1)

	trackStyle       = lipgloss.NewStyle().PaddingLeft(2)
	cursorTrackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	activeTrackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)
)

// seekStep - шаг перемотки в процентах
const seekStep = 10

// Controller - операции воспроизведения, доступные экрану
type Controller interface {
	State() playback.State
	ToggleSingle(ctx context.Context, url, id string) error
	ToggleAlbum(ctx context.Context, album *catalog.Item) error
	SelectTrack(ctx context.Context, album *catalog.Item, index int) error
	Seek(percent float64) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
}

// GoBackMsg отправляется для возврата к каталогу
type GoBackMsg struct{}

// EditMsg отправляется при переходе к редактированию элемента
type EditMsg struct {
	Item catalog.Item
}

// StateMsg содержит новое состояние воспроизведения
type StateMsg struct {
	State playback.State
}

// PositionMsg содержит обновление позиции воспроизведения
type PositionMsg struct {
	Position playback.PositionChange
}

// PlaybackErrorMsg отправляется при ошибке воспроизведения
type PlaybackErrorMsg struct {
	Error error
}

// Listen ждет следующее событие подписки контроллера.
// После закрытия подписки возвращает nil.
func Listen(sub *playback.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case state := <-sub.StateChanged:
			return StateMsg{State: state}
		case pos := <-sub.PositionChanged:
			return PositionMsg{Position: pos}
		case e := <-sub.Error:
			return PlaybackErrorMsg{Error: e.Err}
		case <-sub.Done:
			return nil
		}
	}
}

// Model представляет модель экрана элемента каталога
type Model struct {
	ctx         context.Context
	item        catalog.Item
	controller  Controller
	progressBar progress.Model
	state       playback.State
	cursor      int
	error       error
	width       int
	height      int
}

// NewModel создает модель экрана для элемента каталога
func NewModel(ctx context.Context, item catalog.Item, controller Controller) *Model {
	// Создаем прогресс-бар
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	m := &Model{
		ctx:         ctx,
		item:        item,
		controller:  controller,
		progressBar: prog,
		state:       controller.State(),
	}
	// Курсор на текущем треке, если альбом уже играет
	if idx := m.state.TrackIndex(); idx >= 0 && m.state.AlbumID == item.ID {
		m.cursor = idx
	}
	return m
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// Item возвращает отображаемый элемент
func (m *Model) Item() catalog.Item {
	return m.item
}

// SetItem обновляет элемент после повторной загрузки каталога
func (m *Model) SetItem(item catalog.Item) {
	m.item = item
	m.cursor = min(m.cursor, max(0, len(item.Tracks)-1))
}

// Active возвращает true, если элемент загружен в плеер
func (m *Model) Active() bool {
	if m.item.IsAlbum() {
		return m.state.AlbumID == m.item.ID
	}
	return m.state.Source != "" && m.state.Source == m.item.AudioURL
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Обновляем ширину прогресс-бара
		m.progressBar.Width = max(10, min(60, msg.Width-10))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StateMsg:
		m.state = msg.State
		if m.state.Source != "" {
			m.error = nil
		}
		if idx := m.state.TrackIndex(); idx >= 0 && m.state.AlbumID == m.item.ID {
			m.cursor = idx
		}
		return m, nil

	case PositionMsg:
		m.state.CurrentTime = msg.Position.Position.Seconds()
		if msg.Position.Duration > 0 {
			m.state.Duration = msg.Position.Duration.Seconds()
		}
		return m, nil

	case PlaybackErrorMsg:
		m.error = msg.Error
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "esc", "backspace":
		return m, func() tea.Msg { return GoBackMsg{} }

	case "e":
		item := m.item
		return m, func() tea.Msg { return EditMsg{Item: item} }

	case " ":
		// Пауза/воспроизведение элемента целиком
		return m, m.toggle()

	case "enter":
		if m.item.IsAlbum() && len(m.item.Tracks) > 0 {
			return m, m.selectTrack(m.cursor)
		}
		return m, m.toggle()

	case "up", "k":
		m.cursor = max(0, m.cursor-1)
		return m, nil

	case "down", "j":
		m.cursor = min(max(0, len(m.item.Tracks)-1), m.cursor+1)
		return m, nil

	case "n":
		if m.Active() {
			return m, m.run(m.controller.Next)
		}
		return m, nil

	case "p":
		if m.Active() {
			return m, m.run(m.controller.Previous)
		}
		return m, nil

	case "left", "[":
		return m, m.seek(m.state.Progress() - seekStep)

	case "right", "]":
		return m, m.seek(m.state.Progress() + seekStep)
	}

	// Цифры перематывают к соответствующему десятку процентов
	if n, err := strconv.Atoi(key); err == nil && len(key) == 1 {
		return m, m.seek(float64(n * 10))
	}
	return m, nil
}

func (m *Model) toggle() tea.Cmd {
	item := m.item
	if item.IsAlbum() {
		return m.run(func(ctx context.Context) error {
			return m.controller.ToggleAlbum(ctx, &item)
		})
	}
	if item.AudioURL == "" {
		m.error = playback.ErrNoAudio
		return nil
	}
	return m.run(func(ctx context.Context) error {
		return m.controller.ToggleSingle(ctx, item.AudioURL, item.ID)
	})
}

func (m *Model) selectTrack(index int) tea.Cmd {
	item := m.item
	return m.run(func(ctx context.Context) error {
		return m.controller.SelectTrack(ctx, &item, index)
	})
}

func (m *Model) seek(percent float64) tea.Cmd {
	if !m.Active() {
		return nil
	}
	return m.run(func(context.Context) error {
		return m.controller.Seek(percent)
	})
}

// run выполняет операцию контроллера вне цикла обработки сообщений.
// Новое состояние приходит через подписку, поэтому команда возвращает только ошибки.
func (m *Model) run(op func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		if err := op(ctx); err != nil {
			return PlaybackErrorMsg{Error: err}
		}
		return nil
	}
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	// Заголовок
	icon := "🎵"
	if m.item.IsAlbum() {
		icon = "💿"
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s", icon, m.item.Title)))
	b.WriteString("\n\n")

	// Информация об элементе
	info := []string{"🎤 " + m.item.Artist}
	if m.item.Album != "" {
		info = append(info, "💿 "+m.item.Album)
	}
	if m.item.Year > 0 {
		info = append(info, "📅 "+strconv.Itoa(m.item.Year))
	}
	info = append(info, "⏱  "+utils.FormatSeconds(m.item.TotalDuration()))
	if m.item.Description != "" {
		info = append(info, m.item.Description)
	}
	b.WriteString(trackInfoStyle.Render(strings.Join(info, "\n")))
	b.WriteString("\n")

	if m.item.IsAlbum() {
		b.WriteString(m.trackListView())
	}

	// Статус воспроизведения
	status := playback.StatusIdle
	if m.Active() {
		status = m.state.Status()
	}
	b.WriteString(statusStyle.Render(fmt.Sprintf("%s %s", statusIcon(status), status)))
	b.WriteString("\n")

	if m.Active() {
		b.WriteString(m.progressBar.ViewAs(m.state.Progress() / 100))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s / %s",
			utils.FormatTime(m.state.CurrentTime),
			utils.FormatTime(m.state.Duration)))
		b.WriteString("\n")
	}

	if m.error != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("❌ " + m.error.Error()))
		b.WriteString("\n")
	}

	// Элементы управления
	controls := "Пробел: пауза/воспроизведение • ←/→, 0-9: перемотка • e: редактировать • q/esc: назад"
	if m.item.IsAlbum() {
		controls = "Пробел: весь альбом • Enter: играть трек • ↑/↓: выбор • n/p: следующий/предыдущий\n" + controls
	}
	b.WriteString(controlsStyle.Render(controls))

	return b.String()
}

func (m *Model) trackListView() string {
	if len(m.item.Tracks) == 0 {
		return trackStyle.Render("В альбоме нет треков") + "\n"
	}

	var b strings.Builder
	for i, track := range m.item.Tracks {
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%2d. %s %s",
			prefix, i+1,
			utils.PadRight(track.Title, 40),
			utils.FormatSeconds(track.Duration))

		switch {
		case m.Active() && m.state.TrackIndex() == i:
			line = activeTrackStyle.Render(line + " " + statusIcon(m.state.Status()))
		case i == m.cursor:
			line = cursorTrackStyle.Render(line)
		}
		b.WriteString(trackStyle.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// Вспомогательные функции

func statusIcon(status playback.Status) string {
	switch status {
	case playback.StatusPlaying:
		return "▶️"
	case playback.StatusPaused:
		return "⏸️"
	default:
		return "⏹"
	}
}

