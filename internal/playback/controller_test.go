package playback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazadus/ethiomusic/internal/catalog"
)

const (
	urlA = "https://cdn.example.com/a.mp3"
	urlB = "https://cdn.example.com/b.mp3"
)

func testAlbum() *catalog.Item {
	return &catalog.Item{
		ID:    "album-1",
		Title: "Ethiopiques 4",
		Type:  catalog.TypeAlbum,
		Tracks: []catalog.Track{
			{ID: "t1", Title: "Yègellé Tezeta", AudioURL: "https://cdn.example.com/t1.mp3"},
			{ID: "t2", Title: "Tezeta", AudioURL: "https://cdn.example.com/t2.mp3"},
		},
	}
}

func newTestController(t *testing.T) (*Controller, *Mock) {
	t.Helper()
	out := NewMock()
	c := New(out, WithTickInterval(5*time.Millisecond))
	t.Cleanup(func() { _ = c.Close() })
	return c, out
}

func TestToggleSingle_SameURLDoesNotReload(t *testing.T) {
	c, out := newTestController(t)
	ctx := context.Background()

	require.NoError(t, c.ToggleSingle(ctx, urlA, "s1"))
	state := c.State()
	assert.True(t, state.IsPlaying)
	assert.Equal(t, urlA, state.Source)
	assert.Equal(t, "s1", state.TrackID)
	assert.Equal(t, StatusPlaying, state.Status())
	assert.Equal(t, 1, out.LoadCount())

	require.NoError(t, c.ToggleSingle(ctx, urlA, "s1"))
	assert.False(t, c.State().IsPlaying)
	assert.Equal(t, StatusPaused, c.State().Status())
	assert.Equal(t, 1, out.LoadCount(), "повторный вызов не должен перезагружать источник")

	require.NoError(t, c.ToggleSingle(ctx, urlA, "s1"))
	assert.True(t, c.State().IsPlaying)
	assert.Equal(t, 1, out.LoadCount())
}

func TestToggleSingle_EmptyURLIsNoop(t *testing.T) {
	c, out := newTestController(t)

	require.NoError(t, c.ToggleSingle(context.Background(), "", "s1"))
	assert.Equal(t, 0, out.LoadCount())
	assert.Equal(t, StatusIdle, c.State().Status())
}

func TestToggleSingle_SwitchClearsAlbum(t *testing.T) {
	c, out := newTestController(t)
	ctx := context.Background()

	require.NoError(t, c.ToggleAlbum(ctx, testAlbum()))
	require.NoError(t, c.ToggleSingle(ctx, urlB, "s2"))

	state := c.State()
	assert.Equal(t, urlB, state.Source)
	assert.Equal(t, "s2", state.TrackID)
	assert.Empty(t, state.AlbumID)
	assert.Empty(t, state.Tracks)
	assert.Equal(t, []string{"https://cdn.example.com/t1.mp3", urlB}, out.Loads())
}

func TestToggleAlbum_AutoAdvanceThenIdle(t *testing.T) {
	c, out := newTestController(t)
	album := testAlbum()

	require.NoError(t, c.ToggleAlbum(context.Background(), album))
	state := c.State()
	assert.Equal(t, "t1", state.TrackID)
	assert.Equal(t, "album-1", state.AlbumID)
	assert.Len(t, state.Tracks, 2)
	assert.True(t, state.IsPlaying)

	out.SimulateEnded()
	state = c.State()
	assert.Equal(t, "t2", state.TrackID)
	assert.Equal(t, "album-1", state.AlbumID)
	assert.True(t, state.IsPlaying)

	out.SimulateEnded()
	state = c.State()
	assert.Equal(t, StatusIdle, state.Status())
	assert.Empty(t, state.AlbumID)
	assert.Empty(t, state.TrackID)
	assert.Empty(t, state.Tracks)
}

func TestToggleAlbum_StopsWholeAlbumWhenPlaying(t *testing.T) {
	c, out := newTestController(t)
	album := testAlbum()
	ctx := context.Background()

	require.NoError(t, c.ToggleAlbum(ctx, album))
	require.NoError(t, c.ToggleAlbum(ctx, album))

	state := c.State()
	assert.Equal(t, StatusIdle, state.Status())
	assert.Empty(t, state.AlbumID)
	assert.Empty(t, state.Tracks)
	assert.Empty(t, out.Source())
}

func TestToggleAlbum_WithoutTracksIsNoop(t *testing.T) {
	c, out := newTestController(t)

	require.NoError(t, c.ToggleAlbum(context.Background(), &catalog.Item{ID: "empty", Type: catalog.TypeAlbum}))
	require.NoError(t, c.ToggleAlbum(context.Background(), nil))
	assert.Equal(t, 0, out.LoadCount())
}

func TestOnTrackEnded_SingleGoesIdle(t *testing.T) {
	c, _ := newTestController(t)

	require.NoError(t, c.ToggleSingle(context.Background(), urlA, "s1"))
	c.OnTrackEnded()

	assert.Equal(t, StatusIdle, c.State().Status())
}

func TestStaleEndedNotificationIgnored(t *testing.T) {
	c, out := newTestController(t)
	ctx := context.Background()

	require.NoError(t, c.ToggleSingle(ctx, urlA, "s1"))
	staleSeq := out.Seq()
	require.NoError(t, c.ToggleSingle(ctx, urlB, "s2"))

	out.SimulateEndedSeq(staleSeq)

	state := c.State()
	assert.Equal(t, urlB, state.Source)
	assert.True(t, state.IsPlaying)
}

func TestPlayTrack_SetsAlbumContext(t *testing.T) {
	c, out := newTestController(t)
	album := testAlbum()

	require.NoError(t, c.PlayTrack(context.Background(), album.ID, album.Tracks[1]))
	state := c.State()
	assert.Equal(t, "t2", state.TrackID)
	assert.Equal(t, album.ID, state.AlbumID)
	assert.Equal(t, []string{"https://cdn.example.com/t2.mp3"}, out.Loads())

	err := c.PlayTrack(context.Background(), album.ID, catalog.Track{ID: "x", Title: "Silent"})
	assert.ErrorIs(t, err, ErrNoAudio)
}

func TestSelectTrack_NextPrevious(t *testing.T) {
	c, out := newTestController(t)
	album := testAlbum()
	ctx := context.Background()

	require.NoError(t, c.SelectTrack(ctx, album, 1))
	assert.Equal(t, 1, c.State().TrackIndex())

	require.NoError(t, c.Next(ctx))
	assert.Equal(t, "t2", c.State().TrackID, "после последнего трека Next ничего не делает")

	require.NoError(t, c.Previous(ctx))
	assert.Equal(t, "t1", c.State().TrackID)

	out.Advance(10 * time.Second)
	require.NoError(t, c.Previous(ctx))
	assert.Equal(t, "t1", c.State().TrackID)
	assert.Equal(t, time.Duration(0), out.Position())

	require.NoError(t, c.Next(ctx))
	assert.Equal(t, "t2", c.State().TrackID)

	assert.Error(t, c.SelectTrack(ctx, album, 5))
	assert.Error(t, c.SelectTrack(ctx, album, -1))
}

func TestSelectTrack_TracksWithoutIDs(t *testing.T) {
	c, out := newTestController(t)
	ctx := context.Background()
	album := &catalog.Item{
		ID:    "album-2",
		Title: "Без идентификаторов",
		Type:  catalog.TypeAlbum,
		Tracks: []catalog.Track{
			{Title: "Первый", AudioURL: urlA},
			{Title: "Второй", AudioURL: urlB},
		},
	}

	require.NoError(t, c.SelectTrack(ctx, album, 1))
	state := c.State()
	assert.Equal(t, urlB, state.Source)
	assert.Equal(t, 1, state.TrackIndex())
	assert.Equal(t, urlB, out.Source())

	require.NoError(t, c.Previous(ctx))
	assert.Equal(t, urlA, c.State().Source)
	assert.Equal(t, 0, c.State().TrackIndex())
}

func TestTrackWithoutAudioKeepsCurrentPlayback(t *testing.T) {
	c, out := newTestController(t)
	ctx := context.Background()
	album := &catalog.Item{
		ID:    "album-silent",
		Title: "Без аудио",
		Type:  catalog.TypeAlbum,
		Tracks: []catalog.Track{
			{ID: "x1", Title: "Пустой"},
			{ID: "x2", Title: "Со звуком", AudioURL: urlB},
		},
	}

	require.NoError(t, c.ToggleSingle(ctx, urlA, "s1"))

	assert.ErrorIs(t, c.ToggleAlbum(ctx, album), ErrNoAudio)
	assert.ErrorIs(t, c.SelectTrack(ctx, album, 0), ErrNoAudio)

	state := c.State()
	assert.Equal(t, urlA, state.Source)
	assert.Equal(t, "s1", state.TrackID)
	assert.Empty(t, state.AlbumID)
	assert.Empty(t, state.Tracks, "список треков не должен подменяться")
	assert.True(t, state.IsPlaying)
	assert.Equal(t, urlA, out.Source())
	assert.Equal(t, 1, out.LoadCount())
}

func TestSlowLoadDoesNotBlockStateOrStop(t *testing.T) {
	c, out := newTestController(t)
	out.SetLoadGate(make(chan struct{}))
	ctx := context.Background()

	result := make(chan error, 1)
	go func() { result <- c.ToggleSingle(ctx, urlA, "s1") }()
	require.Eventually(t, func() bool { return out.LoadCount() == 1 }, time.Second, time.Millisecond)

	done := make(chan State, 1)
	go func() {
		_ = c.ToggleSingle(ctx, urlA, "s1")
		state := c.State()
		c.Stop()
		done <- state
	}()

	select {
	case state := <-done:
		assert.Equal(t, urlA, state.Source)
		assert.Equal(t, "s1", state.TrackID)
		assert.False(t, state.IsPlaying)
	case <-time.After(time.Second):
		t.Fatal("State и Stop не должны ждать загрузку")
	}

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Остановка должна отменять загрузку")
	}

	assert.Equal(t, 1, out.LoadCount(), "повторный запуск того же адреса не начинает новую загрузку")
	assert.Equal(t, StatusIdle, c.State().Status())
	assert.Empty(t, out.Source())
	assert.False(t, c.Sampling())
}

func TestNewerLoadSupersedesPending(t *testing.T) {
	c, out := newTestController(t)
	out.SetLoadGate(make(chan struct{}))
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- c.ToggleSingle(ctx, urlA, "s1") }()
	require.Eventually(t, func() bool { return out.LoadCount() == 1 }, time.Second, time.Millisecond)

	out.SetLoadGate(nil)
	require.NoError(t, c.ToggleSingle(ctx, urlB, "s2"))

	select {
	case err := <-first:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Первая загрузка должна быть отменена")
	}

	state := c.State()
	assert.Equal(t, urlB, state.Source)
	assert.Equal(t, "s2", state.TrackID)
	assert.True(t, state.IsPlaying)
	assert.Equal(t, urlB, out.Source())
	assert.Equal(t, []string{urlA, urlB}, out.Loads())
}

func TestSeek_KeepsPlaying(t *testing.T) {
	c, out := newTestController(t)
	out.SetDuration(200 * time.Second)

	require.NoError(t, c.ToggleSingle(context.Background(), urlA, "s1"))
	require.NoError(t, c.Seek(50))

	assert.Equal(t, []time.Duration{100 * time.Second}, out.SeekCalls())
	assert.Equal(t, 100.0, c.State().CurrentTime)
	assert.True(t, c.State().IsPlaying)
	assert.True(t, out.Playing())
}

func TestSeek_PausedStaysPaused(t *testing.T) {
	c, out := newTestController(t)
	out.SetDuration(200 * time.Second)
	ctx := context.Background()

	require.NoError(t, c.ToggleSingle(ctx, urlA, "s1"))
	c.TogglePause()
	require.NoError(t, c.Seek(150))

	assert.Equal(t, []time.Duration{200 * time.Second}, out.SeekCalls(), "процент ограничивается 100")
	assert.False(t, c.State().IsPlaying)
	assert.False(t, out.Playing())
}

func TestSeek_IdleIsNoop(t *testing.T) {
	c, out := newTestController(t)

	require.NoError(t, c.Seek(50))
	assert.Empty(t, out.SeekCalls())
}

func TestSeekBy(t *testing.T) {
	c, out := newTestController(t)
	out.SetDuration(100 * time.Second)

	require.NoError(t, c.ToggleSingle(context.Background(), urlA, "s1"))
	out.Advance(95 * time.Second)
	require.NoError(t, c.SeekBy(10*time.Second))

	calls := out.SeekCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, 100*time.Second, calls[0])
}

func TestPlayFailureLeavesPaused(t *testing.T) {
	c, out := newTestController(t)
	out.SetPlayError(errors.New("NotAllowedError"))
	sub := c.Subscribe()

	require.NoError(t, c.ToggleSingle(context.Background(), urlA, "s1"))

	state := c.State()
	assert.False(t, state.IsPlaying)
	assert.Equal(t, urlA, state.Source)
	assert.False(t, c.Sampling())

	select {
	case e := <-sub.Error:
		assert.Equal(t, "play", e.Operation)
		assert.Equal(t, urlA, e.Source)
	case <-time.After(time.Second):
		t.Fatal("Ожидалось событие ошибки")
	}
}

func TestLoadFailureGoesIdle(t *testing.T) {
	c, out := newTestController(t)
	out.SetLoadError(errors.New("decode error"))

	err := c.ToggleSingle(context.Background(), urlA, "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode error")
	assert.Equal(t, StatusIdle, c.State().Status())
}

func TestPositionSamplingOnlyWhilePlaying(t *testing.T) {
	c, out := newTestController(t)
	sub := c.Subscribe()
	ctx := context.Background()

	require.NoError(t, c.ToggleSingle(ctx, urlA, "s1"))
	assert.True(t, c.Sampling())

	out.Advance(42 * time.Second)
	require.Eventually(t, func() bool { return c.State().CurrentTime == 42 }, time.Second, 5*time.Millisecond)

	select {
	case e := <-sub.PositionChanged:
		assert.Greater(t, e.Duration, time.Duration(0))
	case <-time.After(time.Second):
		t.Fatal("Ожидалось событие позиции")
	}

	c.TogglePause()
	assert.False(t, c.Sampling())

	require.NoError(t, c.ToggleSingle(ctx, urlA, "s1"))
	assert.True(t, c.Sampling())

	c.Stop()
	assert.False(t, c.Sampling())
	assert.Equal(t, StatusIdle, c.State().Status())
}

func TestSubscribeReceivesState(t *testing.T) {
	c, _ := newTestController(t)
	sub := c.Subscribe()

	require.NoError(t, c.ToggleSingle(context.Background(), urlA, "s1"))

	select {
	case state := <-sub.StateChanged:
		assert.Equal(t, urlA, state.Source)
	case <-time.After(time.Second):
		t.Fatal("Ожидалось событие состояния")
	}
}

func TestClose(t *testing.T) {
	out := NewMock()
	c := New(out)
	sub := c.Subscribe()

	require.NoError(t, c.ToggleSingle(context.Background(), urlA, "s1"))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.True(t, out.Closed())
	assert.False(t, c.Sampling())
	<-sub.Done

	late := c.Subscribe()
	<-late.Done
}

func TestStateHelpers(t *testing.T) {
	state := State{Source: urlA, CurrentTime: 50, Duration: 200, TrackID: "t2", AlbumID: "a",
		Tracks: testAlbum().Tracks}

	assert.Equal(t, 25.0, state.Progress())
	assert.Equal(t, 1, state.TrackIndex())
	assert.True(t, state.IsActive("a"))
	assert.True(t, state.IsActive("t2"))
	assert.False(t, state.IsActive(""))
	assert.Equal(t, 0.0, State{}.Progress())
	assert.Equal(t, "Пауза", StatusPaused.String())
}
