package miniaudio

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-stage/core/audio"
)

const sampleRate = 48000

// Client plays clips on the default output device through miniaudio. Clips
// started while others are playing are mixed together.
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	capture captureClient
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) { logger.Debug("malgo", "message", message) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{
		audioContext: audioCtx,
	}

	if err := client.playbackClient.Init(audioCtx, sampleRate); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}

	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	return &client, nil
}

// Play mixes clip into the output at volume. The playback outlives ctx, it
// only ends when the clip is exhausted or stopped.
func (c *Client) Play(ctx context.Context, clip *audio.Clip, volume float64) (audio.Playback, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return c.playbackClient.Play(clip, volume)
}

// StartCapture records the default input device and passes every captured
// buffer to onAudio, in CaptureEncodingInfo, until StopCapture is called.
func (c *Client) StartCapture(onAudio func(pcm []byte)) error {
	return c.capture.start(c.audioContext, onAudio)
}

func (c *Client) StopCapture() error {
	return c.capture.stop()
}

func (c *Client) CaptureEncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (c *Client) Close() {
	c.capture.uninit()
	c.playbackClient.StopAll()
	_ = c.playbackClient.Uninit()
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: sampleRate,
		Format:     audio.EncodingLinear16,
		Channels:   1,
	}
}
