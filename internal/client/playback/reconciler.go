// Package playback keeps the local player in step with the room's
// authoritative playback state.
package playback

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roomcast/roomcast/internal/client/protocol"
)

// DefaultSuppressWindow is how long after applying a remote event the
// player's own change notifications are treated as echoes and dropped.
const DefaultSuppressWindow = 500 * time.Millisecond

// Player is the local video surface. Implementations must tolerate
// redundant calls (pausing an already paused player, seeking to the
// current position).
type Player interface {
	Play()
	Pause()
	SeekTo(seconds float64)
	Load(url string)
}

type iCommandSender interface {
	Send(messageType string, payload any) error
}

type Config struct {
	RoomId         string
	SuppressWindow time.Duration
}

// Reconciler sits between the local player and the room. Remote events
// are applied to the player inside a suppression window; player change
// notifications landing inside that window are echoes of our own apply
// and are discarded, everything else is forwarded as a room command.
type Reconciler struct {
	roomId string
	window time.Duration
	sender iCommandSender
	player Player
	logger *slog.Logger

	mu            sync.Mutex
	suppressUntil time.Time
	now           func() time.Time
}

func NewReconciler(cfg Config, sender iCommandSender, player Player, logger *slog.Logger) *Reconciler {
	if cfg.SuppressWindow <= 0 {
		cfg.SuppressWindow = DefaultSuppressWindow
	}
	return &Reconciler{
		roomId: cfg.RoomId,
		window: cfg.SuppressWindow,
		sender: sender,
		player: player,
		logger: logger,
		now:    time.Now,
	}
}

// ApplyRoomState brings a fresh player up to the room's current state,
// used once after joining.
func (r *Reconciler) ApplyRoomState(state *protocol.RoomStatePayload) {
	r.openWindow()
	r.player.Load(state.VideoUrl)
	r.player.SeekTo(state.CurrentTime)
	if state.IsPlaying {
		r.player.Play()
	} else {
		r.player.Pause()
	}
}

func (r *Reconciler) ApplyPlay() {
	r.openWindow()
	r.player.Play()
}

func (r *Reconciler) ApplyPause() {
	r.openWindow()
	r.player.Pause()
}

func (r *Reconciler) ApplySeek(seconds float64) {
	r.openWindow()
	r.player.SeekTo(seconds)
}

// ApplyUrlChange applies the combined url event: new video, paused, at
// position zero, under a single suppression window.
func (r *Reconciler) ApplyUrlChange(event *protocol.VideoUrlChangeEventPayload) {
	r.openWindow()
	r.player.Load(event.VideoUrl)
	r.player.Pause()
	r.player.SeekTo(0)
}

// OnLocalPlay forwards a user-initiated play to the room, unless it is
// an echo of a remote event we just applied.
func (r *Reconciler) OnLocalPlay() error {
	if r.suppressed() {
		return nil
	}
	return r.send(protocol.TypeVideoPlay, &protocol.VideoPlayPayload{RoomId: r.roomId})
}

func (r *Reconciler) OnLocalPause() error {
	if r.suppressed() {
		return nil
	}
	return r.send(protocol.TypeVideoPause, &protocol.VideoPausePayload{RoomId: r.roomId})
}

func (r *Reconciler) OnLocalSeek(seconds float64) error {
	if r.suppressed() {
		return nil
	}
	return r.send(protocol.TypeVideoSeek, &protocol.VideoSeekPayload{
		RoomId:      r.roomId,
		CurrentTime: seconds,
	})
}

func (r *Reconciler) OnLocalUrlChange(url string) error {
	if r.suppressed() {
		return nil
	}
	return r.send(protocol.TypeVideoUrlChange, &protocol.VideoUrlChangePayload{
		RoomId:   r.roomId,
		VideoUrl: url,
	})
}

func (r *Reconciler) openWindow() {
	r.mu.Lock()
	r.suppressUntil = r.now().Add(r.window)
	r.mu.Unlock()
}

func (r *Reconciler) suppressed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now().Before(r.suppressUntil)
}

func (r *Reconciler) send(messageType string, payload any) error {
	if err := r.sender.Send(messageType, payload); err != nil {
		return fmt.Errorf("send %s: %w", messageType, err)
	}
	return nil
}
