// Package app содержит основную логику TUI приложения
package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/ethiomusic/internal/catalog"
	"github.com/hazadus/ethiomusic/internal/media"
	"github.com/hazadus/ethiomusic/internal/playback"
	"github.com/hazadus/ethiomusic/internal/store"
	"github.com/hazadus/ethiomusic/internal/tui/editor"
	tuiPlayer "github.com/hazadus/ethiomusic/internal/tui/player"
	"github.com/hazadus/ethiomusic/internal/tui/tracklist"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// CatalogScreen - экран каталога
	CatalogScreen ScreenType = iota
	// DetailScreen - экран элемента с плеером
	DetailScreen
	// EditorScreen - экран редактирования
	EditorScreen
)

// Catalog - операции с каталогом: запросы страниц и изменения
type Catalog interface {
	RequestPage(page, pageSize int)
	Retry()
	Create(ctx context.Context, item *catalog.Item) (*catalog.Item, error)
	Update(ctx context.Context, id string, item *catalog.Item) (*catalog.Item, error)
	Delete(ctx context.Context, id string) error
}

// StateSource - источник снимков состояния каталога
type StateSource interface {
	State() store.State
	Subscribe() (<-chan store.State, func())
}

// Player - контроллер воспроизведения
type Player interface {
	tuiPlayer.Controller
	Subscribe() *playback.Subscription
	Stop()
}

// Deps - зависимости TUI
type Deps struct {
	Catalog  Catalog
	Store    StateSource
	Player   Player
	Uploader media.Uploader // nil, если загрузка файлов не настроена
}

// storeMsg - новый снимок состояния каталога
type storeMsg struct {
	state store.State
}

// playbackEventMsg - событие подписки на воспроизведение
type playbackEventMsg struct {
	msg tea.Msg
}

// deleteResultMsg - результат удаления элемента
type deleteResultMsg struct {
	item catalog.Item
	err  error
}

// MainModel представляет главную модель TUI
type MainModel struct {
	ctx            context.Context
	deps           Deps
	currentScreen  ScreenType
	tracklistModel *tracklist.Model
	playerModel    *tuiPlayer.Model
	editorModel    *editor.Model

	storeUpdates     <-chan store.State
	unsubscribeStore func()
	playbackEvents   *playback.Subscription

	size *tea.WindowSizeMsg
}

// NewMainModel создает новую главную модель и подписывается на хранилище и плеер
func NewMainModel(ctx context.Context, deps Deps) *MainModel {
	updates, unsubscribe := deps.Store.Subscribe()

	return &MainModel{
		ctx:              ctx,
		deps:             deps,
		currentScreen:    CatalogScreen,
		tracklistModel:   tracklist.NewModel(deps.Store.State()),
		storeUpdates:     updates,
		unsubscribeStore: unsubscribe,
		playbackEvents:   deps.Player.Subscribe(),
	}
}

// Init запрашивает первую страницу и начинает слушать обновления
func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(
		m.tracklistModel.Init(),
		waitForStore(m.storeUpdates),
		listenPlayback(m.playbackEvents),
	)
}

// Screen возвращает текущий экран
func (m *MainModel) Screen() ScreenType {
	return m.currentScreen
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Глобальные горячие клавиши
		if msg.String() == "ctrl+c" {
			m.deps.Player.Stop()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		// Запоминаем размер для экранов, созданных позже
		m.size = &msg
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.tracklistModel, cmd = m.tracklistModel.Update(msg)
		cmds = append(cmds, cmd)
		if m.playerModel != nil {
			m.updatePlayer(msg)
		}
		if m.editorModel != nil {
			m.editorModel, cmd = m.editorModel.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case storeMsg:
		m.tracklistModel.SetState(msg.state)
		if m.playerModel != nil {
			if item, ok := findItem(msg.state.Items, m.playerModel.Item().ID); ok {
				m.playerModel.SetItem(item)
			}
		}
		return m, waitForStore(m.storeUpdates)

	case playbackEventMsg:
		if state, ok := msg.msg.(tuiPlayer.StateMsg); ok {
			m.tracklistModel.SetPlayback(state.State)
		}
		if m.playerModel != nil {
			m.updatePlayer(msg.msg)
		}
		return m, listenPlayback(m.playbackEvents)

	case tracklist.PageRequestedMsg:
		m.deps.Catalog.RequestPage(msg.Page, msg.PageSize)
		return m, nil

	case tracklist.RetryMsg:
		m.deps.Catalog.Retry()
		return m, nil

	case tracklist.ItemSelectedMsg:
		// Переключаемся на экран элемента
		m.currentScreen = DetailScreen
		m.playerModel = tuiPlayer.NewModel(m.ctx, msg.Item, m.deps.Player)
		var sizeCmd tea.Cmd
		if m.size != nil {
			sizeCmd = m.updatePlayer(*m.size)
		}
		return m, tea.Batch(sizeCmd, m.playerModel.Init())

	case tracklist.ItemEditMsg:
		return m, m.openEditor(msg.Item)

	case tuiPlayer.EditMsg:
		return m, m.openEditor(msg.Item)

	case tracklist.ItemCreateMsg:
		return m, m.openEditor(catalog.Item{})

	case tracklist.ItemDeleteMsg:
		if m.deps.Player.State().IsActive(msg.Item.ID) {
			m.deps.Player.Stop()
		}
		return m, m.deleteItem(msg.Item)

	case deleteResultMsg:
		if msg.err != nil {
			m.tracklistModel.SetStatus(fmt.Sprintf("❌ Ошибка удаления «%s»: %v", msg.item.Title, msg.err))
		} else {
			m.tracklistModel.SetStatus(fmt.Sprintf("🗑️ «%s» удален", msg.item.Title))
		}
		return m, nil

	case tracklist.StopPlaybackMsg:
		m.deps.Player.Stop()
		return m, nil

	case tuiPlayer.GoBackMsg:
		// Возвращаемся к каталогу
		m.currentScreen = CatalogScreen
		m.playerModel = nil
		return m, nil

	case editor.ItemSavedMsg:
		m.tracklistModel.SetStatus(fmt.Sprintf("✅ «%s» сохранен", msg.Item.Title))
		return m, nil

	case editor.GoBackMsg:
		// Возвращаемся к каталогу из редактора
		m.currentScreen = CatalogScreen
		m.editorModel = nil
		return m, nil
	}

	// Передаем сообщение активной модели
	var cmd tea.Cmd
	switch m.currentScreen {
	case CatalogScreen:
		m.tracklistModel, cmd = m.tracklistModel.Update(msg)

	case DetailScreen:
		if m.playerModel != nil {
			cmd = m.updatePlayer(msg)
		}

	case EditorScreen:
		if m.editorModel != nil {
			m.editorModel, cmd = m.editorModel.Update(msg)
		}
	}

	return m, cmd
}

func (m *MainModel) updatePlayer(msg tea.Msg) tea.Cmd {
	updatedModel, cmd := m.playerModel.Update(msg)
	if playerModel, ok := updatedModel.(*tuiPlayer.Model); ok {
		m.playerModel = playerModel
	}
	return cmd
}

func (m *MainModel) openEditor(item catalog.Item) tea.Cmd {
	save := func(ctx context.Context, draft *catalog.Item) (*catalog.Item, error) {
		return m.deps.Catalog.Create(ctx, draft)
	}
	if item.ID != "" {
		id := item.ID
		save = func(ctx context.Context, draft *catalog.Item) (*catalog.Item, error) {
			return m.deps.Catalog.Update(ctx, id, draft)
		}
	}

	m.currentScreen = EditorScreen
	m.playerModel = nil
	m.editorModel = editor.NewModel(m.ctx, item, save, m.deps.Uploader)
	var sizeCmd tea.Cmd
	if m.size != nil {
		m.editorModel, sizeCmd = m.editorModel.Update(*m.size)
	}
	return tea.Batch(sizeCmd, m.editorModel.Init())
}

func (m *MainModel) deleteItem(item catalog.Item) tea.Cmd {
	ctx, catalogAPI := m.ctx, m.deps.Catalog
	return func() tea.Msg {
		return deleteResultMsg{item: item, err: catalogAPI.Delete(ctx, item.ID)}
	}
}

// View отображает интерфейс
func (m *MainModel) View() string {
	switch m.currentScreen {
	case CatalogScreen:
		return m.tracklistModel.View()

	case DetailScreen:
		if m.playerModel != nil {
			return m.playerModel.View()
		}
		return "Ошибка: модель плеера не инициализирована"

	case EditorScreen:
		if m.editorModel != nil {
			return m.editorModel.View()
		}
		return "Ошибка: модель редактора не инициализирована"

	default:
		return "Неизвестный экран"
	}
}

// Close отписывается от хранилища
func (m *MainModel) Close() {
	if m.unsubscribeStore != nil {
		m.unsubscribeStore()
	}
}

func waitForStore(updates <-chan store.State) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-updates
		if !ok {
			return nil
		}
		return storeMsg{state: state}
	}
}

func listenPlayback(sub *playback.Subscription) tea.Cmd {
	listen := tuiPlayer.Listen(sub)
	return func() tea.Msg {
		msg := listen()
		if msg == nil {
			return nil
		}
		return playbackEventMsg{msg: msg}
	}
}

func findItem(items []catalog.Item, id string) (catalog.Item, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return catalog.Item{}, false
}
