package playback

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomcast/roomcast/internal/client/protocol"
)

type recordingSender struct {
	sent []string
}

func (s *recordingSender) Send(messageType string, payload any) error {
	s.sent = append(s.sent, messageType)
	return nil
}

type recordingPlayer struct {
	calls []string
}

func (p *recordingPlayer) Play()          { p.calls = append(p.calls, "play") }
func (p *recordingPlayer) Pause()         { p.calls = append(p.calls, "pause") }
func (p *recordingPlayer) SeekTo(float64) { p.calls = append(p.calls, "seek") }
func (p *recordingPlayer) Load(string)    { p.calls = append(p.calls, "load") }

func newTestReconciler(t *testing.T) (*Reconciler, *recordingSender, *recordingPlayer, *time.Time) {
	t.Helper()

	sender := &recordingSender{}
	player := &recordingPlayer{}
	r := NewReconciler(Config{RoomId: "ROOM0001"}, sender, player, slog.Default())

	clock := time.Now()
	r.now = func() time.Time { return clock }
	return r, sender, player, &clock
}

func TestRemoteEventSuppressesEcho(t *testing.T) {
	r, sender, player, clock := newTestReconciler(t)

	r.ApplyPlay()
	assert.Equal(t, []string{"play"}, player.calls)

	// the player notifying us about the change we just applied is an
	// echo and must not go back to the room
	require.NoError(t, r.OnLocalPlay())
	assert.Empty(t, sender.sent)

	// past the window the same notification is a real user action
	*clock = clock.Add(DefaultSuppressWindow + time.Millisecond)
	require.NoError(t, r.OnLocalPlay())
	assert.Equal(t, []string{protocol.TypeVideoPlay}, sender.sent)
}

func TestLocalActionsForwarded(t *testing.T) {
	r, sender, _, _ := newTestReconciler(t)

	require.NoError(t, r.OnLocalPause())
	require.NoError(t, r.OnLocalSeek(42))
	require.NoError(t, r.OnLocalUrlChange("https://example.com/v2"))

	assert.Equal(t, []string{
		protocol.TypeVideoPause,
		protocol.TypeVideoSeek,
		protocol.TypeVideoUrlChange,
	}, sender.sent)
}

func TestUrlChangeAppliesAtomically(t *testing.T) {
	r, sender, player, _ := newTestReconciler(t)

	r.ApplyUrlChange(&protocol.VideoUrlChangeEventPayload{
		VideoUrl:    "https://example.com/v2",
		IsPlaying:   false,
		CurrentTime: 0,
	})
	assert.Equal(t, []string{"load", "pause", "seek"}, player.calls)

	// every player reaction to the three-step apply is one echo
	require.NoError(t, r.OnLocalPause())
	require.NoError(t, r.OnLocalSeek(0))
	assert.Empty(t, sender.sent)
}

func TestApplyRoomState(t *testing.T) {
	r, sender, player, _ := newTestReconciler(t)

	r.ApplyRoomState(&protocol.RoomStatePayload{
		VideoUrl:    "https://example.com/v1",
		IsPlaying:   true,
		CurrentTime: 17,
	})
	assert.Equal(t, []string{"load", "seek", "play"}, player.calls)
	assert.Empty(t, sender.sent)
}

func TestConsolePlayerTracksState(t *testing.T) {
	var buf nopWriter
	p := NewConsolePlayer(&buf)

	p.Load("https://example.com/v1")
	p.SeekTo(30)
	p.Play()

	url, playing, position := p.State()
	assert.Equal(t, "https://example.com/v1", url)
	assert.True(t, playing)
	assert.Equal(t, float64(30), position)

	p.Pause()
	_, playing, _ = p.State()
	assert.False(t, playing)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
