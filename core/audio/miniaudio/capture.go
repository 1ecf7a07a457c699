package miniaudio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-stage/core/audio"
)

var ErrCaptureUnavailable = errors.New("capture device unavailable")

// captureClient records the default input device as mono linear16 at
// audio.DefaultSampleRate. The device is only opened on first use.
type captureClient struct {
	mu     sync.Mutex
	device *malgo.Device

	onAudio func(pcm []byte)
}

func (c *captureClient) init(audioContext *malgo.AllocatedContext) error {
	const channels = 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = uint32(audio.DefaultSampleRate)
	config.Capture.Format = format
	config.Capture.Channels = channels
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency
	config.PeriodSizeInFrames = 480
	config.Periods = 3

	device, err := malgo.InitDevice(audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}

			c.mu.Lock()
			onAudio := c.onAudio
			c.mu.Unlock()
			if onAudio != nil {
				// pInput is reused by miniaudio after the callback returns
				onAudio(append([]byte(nil), pInput[:n]...))
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	c.device = device
	return nil
}

func (c *captureClient) start(audioContext *malgo.AllocatedContext, onAudio func(pcm []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		if audioContext == nil {
			return ErrCaptureUnavailable
		}
		if err := c.init(audioContext); err != nil {
			return err
		}
	}

	c.onAudio = onAudio
	if c.device.IsStarted() {
		return nil
	}
	if err := c.device.Start(); err != nil {
		c.onAudio = nil
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

func (c *captureClient) stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onAudio = nil
	if c.device == nil || !c.device.IsStarted() {
		return nil
	}
	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}
	return nil
}

func (c *captureClient) uninit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	c.onAudio = nil
}
