package portaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-stage/core/audio"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-stage/core/audio/portaudio"

var logger = otelslog.NewLogger(scopeName)

// Client plays clips through a blocking PortAudio output stream. A pump
// goroutine writes mixed frames while any clip is playing.
type Client struct {
	bufferSize int
	stream     *portaudio.Stream
	mixer      *audio.Mixer

	out []int16

	mu      sync.Mutex
	pumping bool
	closed  bool
	pumps   sync.WaitGroup
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(0, 1, audio.DefaultSampleRate, bufferSize, out)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		mixer:      audio.NewMixer(audio.DefaultSampleRate),
		out:        out,
	}, nil
}

func (c *Client) Play(ctx context.Context, clip *audio.Clip, volume float64) (audio.Playback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, audio.ErrPlaybackBlocked
	}

	handle, err := c.mixer.Add(clip, volume)
	if err != nil {
		return nil, err
	}

	if !c.pumping {
		c.pumping = true
		c.pumps.Add(1)
		go c.pump()
	}
	return handle, nil
}

func (c *Client) pump() {
	defer c.pumps.Done()
	for {
		c.mu.Lock()
		if c.closed || c.mixer.Active() == 0 {
			c.pumping = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		c.mixer.Mix(c.out)
		if err := c.stream.Write(); err != nil {
			logger.Warn("failed to write to portaudio stream", "error", err)
		}
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.mixer.StopAll()
	c.pumps.Wait()
	c.stream.Close()
	portaudio.Terminate()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
		Channels:   1,
	}
}
