package playback

import (
	"fmt"
	"io"
	"sync"
)

// ConsolePlayer is a headless player that tracks playback state and
// narrates transitions to a writer. It stands in for a real video
// surface in the CLI and in tests.
type ConsolePlayer struct {
	mu       sync.Mutex
	out      io.Writer
	url      string
	playing  bool
	position float64
}

func NewConsolePlayer(out io.Writer) *ConsolePlayer {
	return &ConsolePlayer{out: out}
}

func (p *ConsolePlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return
	}
	p.playing = true
	fmt.Fprintf(p.out, "[player] playing at %.1fs\n", p.position)
}

func (p *ConsolePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.playing = false
	fmt.Fprintf(p.out, "[player] paused at %.1fs\n", p.position)
}

func (p *ConsolePlayer) SeekTo(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = seconds
	fmt.Fprintf(p.out, "[player] seeked to %.1fs\n", seconds)
}

func (p *ConsolePlayer) Load(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
	p.position = 0
	fmt.Fprintf(p.out, "[player] loaded %s\n", url)
}

// State reports the player's view of playback.
func (p *ConsolePlayer) State() (url string, playing bool, position float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, p.playing, p.position
}
