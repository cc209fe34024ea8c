package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomcast/roomcast/internal/client/protocol"
)

type fakeSource struct {
	closed bool
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeTransport struct {
	mu         sync.Mutex
	peerId     string
	cb         PeerCallbacks
	candidates []string
	closed     bool
}

func (t *fakeTransport) CreateOffer(ctx context.Context) (json.RawMessage, error) {
	return json.RawMessage(fmt.Sprintf(`{"type":"offer","for":%q}`, t.peerId)), nil
}

func (t *fakeTransport) AcceptOffer(ctx context.Context, offer json.RawMessage) (json.RawMessage, error) {
	return json.RawMessage(fmt.Sprintf(`{"type":"answer","for":%q}`, t.peerId)), nil
}

func (t *fakeTransport) AcceptAnswer(ctx context.Context, answer json.RawMessage) error {
	return nil
}

func (t *fakeTransport) AddCandidate(candidate json.RawMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.candidates = append(t.candidates, string(candidate))
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *fakeTransport) appliedCandidates() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.candidates...)
}

func (t *fakeTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

type fakeFactory struct {
	mu         sync.Mutex
	transports map[string][]*fakeTransport
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{transports: make(map[string][]*fakeTransport)}
}

func (f *fakeFactory) NewPeer(peerId string, cb PeerCallbacks) (PeerTransport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTransport{peerId: peerId, cb: cb}
	f.transports[peerId] = append(f.transports[peerId], t)
	return t, nil
}

// latest returns the most recently created transport toward peerId.
func (f *fakeFactory) latest(peerId string) *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	ts := f.transports[peerId]
	if len(ts) == 0 {
		return nil
	}
	return ts[len(ts)-1]
}

type relayEnvelope struct {
	from        string
	messageType string
	payload     any
}

// relayHub stands in for the server: it queues envelopes and delivers
// them in order when pumped, mirroring the relay's targeted/broadcast
// rules.
type relayHub struct {
	mu      sync.Mutex
	queue   []relayEnvelope
	members map[string]*Coordinator
}

func newRelayHub() *relayHub {
	return &relayHub{members: make(map[string]*Coordinator)}
}

type hubSender struct {
	hub    *relayHub
	userId string
}

func (s *hubSender) Send(messageType string, payload any) error {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.queue = append(s.hub.queue, relayEnvelope{
		from:        s.userId,
		messageType: messageType,
		payload:     payload,
	})
	return nil
}

func (h *relayHub) pump(t *testing.T) {
	t.Helper()
	for {
		h.mu.Lock()
		if len(h.queue) == 0 {
			h.mu.Unlock()
			return
		}
		env := h.queue[0]
		h.queue = h.queue[1:]
		h.mu.Unlock()

		h.deliver(t, env)
	}
}

func (h *relayHub) deliver(t *testing.T, env relayEnvelope) {
	t.Helper()
	ctx := context.Background()

	switch p := env.payload.(type) {
	case *protocol.VoicePresencePayload:
		for userId, c := range h.members {
			if userId == env.from {
				continue
			}
			switch env.messageType {
			case protocol.TypeVoiceUserJoined:
				require.NoError(t, c.HandlePeerJoined(ctx, env.from, env.from))
			case protocol.TypeVoiceUserLeft:
				c.HandlePeerLeft(env.from)
			}
		}
	case *protocol.VoiceOfferPayload:
		if c, ok := h.members[p.To]; ok {
			require.NoError(t, c.HandleOffer(ctx, env.from, p.Offer))
		}
	case *protocol.VoiceAnswerPayload:
		if c, ok := h.members[p.To]; ok {
			require.NoError(t, c.HandleAnswer(ctx, env.from, p.Answer))
		}
	case *protocol.VoiceIceCandidatePayload:
		if c, ok := h.members[p.To]; ok {
			require.NoError(t, c.HandleCandidate(env.from, p.Candidate))
		}
	default:
		t.Fatalf("unexpected payload type %T", env.payload)
	}
}

func (h *relayHub) addCoordinator(userId string, cfg Config) (*Coordinator, *fakeFactory) {
	factory := newFakeFactory()
	cfg.RoomId = "ROOM0001"
	cfg.UserId = userId
	cfg.Username = userId
	c := NewCoordinator(cfg, &hubSender{hub: h, userId: userId}, factory,
		func(context.Context) (MediaSource, error) { return &fakeSource{}, nil },
		slog.Default())
	h.members[userId] = c
	return c, factory
}

func TestMeshGrowsPairwise(t *testing.T) {
	hub := newRelayHub()
	a, fa := hub.addCoordinator("A", Config{})
	b, fb := hub.addCoordinator("B", Config{})
	c, fc := hub.addCoordinator("C", Config{})

	ctx := context.Background()

	// join one at a time, settling signaling in between
	require.NoError(t, a.JoinCall(ctx))
	hub.pump(t)
	require.NoError(t, b.JoinCall(ctx))
	hub.pump(t)
	require.NoError(t, c.JoinCall(ctx))
	hub.pump(t)

	// every pair has exactly one link on each end
	for name, coord := range map[string]*Coordinator{"A": a, "B": b, "C": c} {
		assert.Len(t, coord.LinkStates(), 2, "coordinator %s must link to both others", name)
	}

	// joiner initiates: B offered to A, C offered to A and B
	assert.Equal(t, LinkAnswerApplied, b.LinkStates()["A"])
	assert.Equal(t, LinkAnswerSent, a.LinkStates()["B"])
	assert.Equal(t, LinkAnswerApplied, c.LinkStates()["A"])
	assert.Equal(t, LinkAnswerApplied, c.LinkStates()["B"])

	// transports report connected, links follow
	for _, pair := range []struct {
		factory *fakeFactory
		peerId  string
	}{
		{fa, "B"}, {fa, "C"},
		{fb, "A"}, {fb, "C"},
		{fc, "A"}, {fc, "B"},
	} {
		transport := pair.factory.latest(pair.peerId)
		require.NotNil(t, transport)
		transport.cb.OnState(TransportConnected)
	}

	for _, coord := range []*Coordinator{a, b, c} {
		for peerId, state := range coord.LinkStates() {
			assert.Equal(t, LinkConnected, state, "link to %s", peerId)
		}
	}
}

func TestGlareLeavesSingleLink(t *testing.T) {
	hub := newRelayHub()
	a, fa := hub.addCoordinator("A", Config{})
	b, fb := hub.addCoordinator("B", Config{})

	ctx := context.Background()

	// both join before either announcement is delivered, so both sides
	// initiate and the offers cross
	require.NoError(t, a.JoinCall(ctx))
	require.NoError(t, b.JoinCall(ctx))
	hub.pump(t)

	aStates := a.LinkStates()
	bStates := b.LinkStates()
	assert.Len(t, aStates, 1, "A must hold exactly one link to B")
	assert.Len(t, bStates, 1, "B must hold exactly one link to A")

	// the greater userId yields and answers, the lesser keeps its offer
	// and receives the answer
	assert.Equal(t, LinkAnswerApplied, aStates["B"])
	assert.Equal(t, LinkAnswerSent, bStates["A"])

	fa.latest("B").cb.OnState(TransportConnected)
	fb.latest("A").cb.OnState(TransportConnected)
	assert.Equal(t, LinkConnected, a.LinkStates()["B"])
	assert.Equal(t, LinkConnected, b.LinkStates()["A"])
}

func TestCandidatesDrainInOrder(t *testing.T) {
	hub := newRelayHub()
	a, factory := hub.addCoordinator("A", Config{})
	hub.addCoordinator("B", Config{})

	ctx := context.Background()
	require.NoError(t, a.JoinCall(ctx))
	require.NoError(t, a.HandlePeerJoined(ctx, "B", "B"))

	transport := factory.latest("B")
	require.NotNil(t, transport)

	// candidates before the answer are queued, not applied
	require.NoError(t, a.HandleCandidate("B", json.RawMessage(`"c1"`)))
	require.NoError(t, a.HandleCandidate("B", json.RawMessage(`"c2"`)))
	assert.Empty(t, transport.appliedCandidates())

	require.NoError(t, a.HandleAnswer(ctx, "B", json.RawMessage(`{"type":"answer"}`)))
	assert.Equal(t, []string{`"c1"`, `"c2"`}, transport.appliedCandidates())

	// once the description is in, candidates apply immediately
	require.NoError(t, a.HandleCandidate("B", json.RawMessage(`"c3"`)))
	assert.Equal(t, []string{`"c1"`, `"c2"`, `"c3"`}, transport.appliedCandidates())
}

func TestNegotiationTimeoutIsolatedPerPair(t *testing.T) {
	hub := newRelayHub()

	states := make(chan string, 16)
	a, factory := hub.addCoordinator("A", Config{
		NegotiationTimeout: 30 * time.Millisecond,
		OnLinkState: func(peerId string, state LinkState) {
			states <- peerId + ":" + state.String()
		},
	})
	hub.addCoordinator("B", Config{})
	hub.addCoordinator("C", Config{})

	ctx := context.Background()
	require.NoError(t, a.JoinCall(ctx))
	require.NoError(t, a.HandlePeerJoined(ctx, "B", "B"))
	require.NoError(t, a.HandlePeerJoined(ctx, "C", "C"))

	// C's transport connects in time, B's never does
	factory.latest("C").cb.OnState(TransportConnected)

	deadline := time.After(time.Second)
	for {
		select {
		case s := <-states:
			if s == "B:failed" {
				assert.True(t, factory.latest("B").isClosed(), "failed transport must be released")
				assert.Equal(t, LinkConnected, a.LinkStates()["C"], "other links are unaffected")
				return
			}
		case <-deadline:
			t.Fatal("link to B never failed")
		}
	}
}

func TestMediaDeniedIsFatalToVoiceOnly(t *testing.T) {
	hub := newRelayHub()
	c := NewCoordinator(Config{RoomId: "ROOM0001", UserId: "A", Username: "A"},
		&hubSender{hub: hub, userId: "A"}, newFakeFactory(),
		func(context.Context) (MediaSource, error) {
			return nil, errors.New("microphone denied")
		}, slog.Default())

	err := c.JoinCall(context.Background())
	assert.ErrorIs(t, err, ErrMediaAccess)

	// no announcement went out and no links exist
	assert.Empty(t, hub.queue)
	assert.Empty(t, c.LinkStates())
}

func TestLeaveCallReleasesEverything(t *testing.T) {
	hub := newRelayHub()
	source := &fakeSource{}

	factory := newFakeFactory()
	a := NewCoordinator(Config{RoomId: "ROOM0001", UserId: "A", Username: "A"},
		&hubSender{hub: hub, userId: "A"}, factory,
		func(context.Context) (MediaSource, error) { return source, nil },
		slog.Default())
	hub.members["A"] = a
	hub.addCoordinator("B", Config{})

	ctx := context.Background()
	require.NoError(t, a.JoinCall(ctx))
	require.NoError(t, a.HandlePeerJoined(ctx, "B", "B"))
	require.Len(t, a.LinkStates(), 1)

	require.NoError(t, a.LeaveCall())
	assert.Empty(t, a.LinkStates())
	assert.True(t, source.closed, "local media is released with the last link")
	assert.True(t, factory.latest("B").isClosed())

	// leaving twice is a no-op
	require.NoError(t, a.LeaveCall())
}

func TestRejoinAcquiresFreshMedia(t *testing.T) {
	hub := newRelayHub()

	var sources []*fakeSource
	factory := newFakeFactory()
	a := NewCoordinator(Config{RoomId: "ROOM0001", UserId: "A", Username: "A"},
		&hubSender{hub: hub, userId: "A"}, factory,
		func(context.Context) (MediaSource, error) {
			s := &fakeSource{}
			sources = append(sources, s)
			return s, nil
		}, slog.Default())
	hub.members["A"] = a
	hub.addCoordinator("B", Config{})

	ctx := context.Background()
	require.NoError(t, a.JoinCall(ctx))
	require.NoError(t, a.HandlePeerJoined(ctx, "B", "B"))
	require.NoError(t, a.LeaveCall())

	require.Len(t, sources, 1)
	require.True(t, sources[0].closed)

	// joining again must not reuse the released source
	require.NoError(t, a.JoinCall(ctx))
	require.NoError(t, a.HandlePeerJoined(ctx, "B", "B"))

	require.Len(t, sources, 2, "every join acquires its own source")
	assert.False(t, sources[1].closed)
	assert.Len(t, a.LinkStates(), 1)
}

func TestPeerLeftClosesLink(t *testing.T) {
	hub := newRelayHub()
	a, factory := hub.addCoordinator("A", Config{})
	hub.addCoordinator("B", Config{})

	ctx := context.Background()
	require.NoError(t, a.JoinCall(ctx))
	require.NoError(t, a.HandlePeerJoined(ctx, "B", "B"))
	require.Len(t, a.LinkStates(), 1)

	a.HandlePeerLeft("B")
	assert.Empty(t, a.LinkStates())
	assert.True(t, factory.latest("B").isClosed())
}
