package voice

import (
	"context"
	"testing"
	"time"

	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireMediaBuildsFreshSource(t *testing.T) {
	factory := NewPionFactory(FactoryConfig{TrackId: "user-a"})
	ctx := context.Background()

	first, err := factory.AcquireMedia(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := factory.AcquireMedia(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	sample := media.Sample{Data: []byte{0}, Duration: 20 * time.Millisecond}
	assert.Error(t, first.(*OpusSource).WriteSample(sample), "released source stays closed")
	assert.NoError(t, second.(*OpusSource).WriteSample(sample), "re-acquired source is writable")
}
