package audio

import "time"

const (
	DefaultSampleRate = 24000
	DefaultFormat     = "linear16"
	DefaultChannels   = 1
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{
		SampleRate: DefaultSampleRate,
		Format:     encodingFormat(DefaultFormat),
		Channels:   DefaultChannels,
	}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
	Channels   int
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

func (e EncodingInfo) channels() int {
	if e.Channels <= 0 {
		return 1
	}
	return e.Channels
}

// FrameSize is the number of bytes holding one sample for every channel.
func (e EncodingInfo) FrameSize() int {
	return e.Format.ByteSize() * e.channels()
}

// Duration returns how long byteCount bytes of audio in this encoding play.
func (e EncodingInfo) Duration(byteCount int) time.Duration {
	frameSize := e.FrameSize()
	if frameSize <= 0 || e.SampleRate <= 0 {
		return 0
	}

	frames := byteCount / frameSize
	return time.Duration(frames) * time.Second / time.Duration(e.SampleRate)
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case encodingFormat("mulaw"), encodingFormat("alaw"):
		return 1
	case encodingFormat("linear16"):
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
