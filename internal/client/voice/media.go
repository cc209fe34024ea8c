package voice

import (
	"fmt"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

// OpusSource is a single outgoing opus track fed by an external capture
// pipeline through WriteSample.
type OpusSource struct {
	track  *webrtc.TrackLocalStaticSample
	closed atomic.Bool
}

func NewOpusSource(id string) (*OpusSource, error) {
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio", id,
	)
	if err != nil {
		return nil, fmt.Errorf("create opus track: %w", err)
	}
	return &OpusSource{track: track}, nil
}

func (s *OpusSource) Tracks() []webrtc.TrackLocal {
	return []webrtc.TrackLocal{s.track}
}

// WriteSample pushes one encoded opus frame onto the track.
func (s *OpusSource) WriteSample(sample media.Sample) error {
	if s.closed.Load() {
		return fmt.Errorf("media source closed")
	}
	return s.track.WriteSample(sample)
}

func (s *OpusSource) Close() error {
	s.closed.Store(true)
	return nil
}
