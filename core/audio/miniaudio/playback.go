package miniaudio

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-stage/core/audio"
)

type playbackClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig
	mixer        *audio.Mixer

	frames []int16

	mu sync.Mutex
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext, sampleRate uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = sampleRate
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = sampleRate / 50 // ~20ms of audio
	c.config.Periods = 4

	c.audioContext = audioContext
	c.mixer = audio.NewMixer(int(sampleRate))

	var err error
	if c.device, err = malgo.InitDevice(
		c.audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: c.processAudio(bytesPerFrame)},
	); err != nil {
		return err
	}

	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (c *playbackClient) Play(clip *audio.Clip, volume float64) (audio.Playback, error) {
	c.mu.Lock()
	started := c.device != nil && c.device.IsStarted()
	c.mu.Unlock()
	if !started {
		return nil, audio.ErrPlaybackBlocked
	}

	return c.mixer.Add(clip, volume)
}

func (c *playbackClient) StopAll() {
	if c.mixer != nil {
		c.mixer.StopAll()
	}
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	c.device.Uninit()
	c.device = nil

	return nil
}

func (c *playbackClient) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame
		if cap(c.frames) < int(frameCount) {
			c.frames = make([]int16, frameCount)
		}
		frames := c.frames[:frameCount]

		if c.mixer.Mix(frames) == 0 {
			clear(pOutput[:need])
			return
		}

		for i, sample := range frames {
			binary.LittleEndian.PutUint16(pOutput[i*2:], uint16(sample))
		}
	}
}
