package audio

import "time"

const (
	// DefaultCaptureSampleRate is the sample rate microphone audio is
	// captured and shipped to transcription at.
	DefaultCaptureSampleRate = 16000
	// DefaultSynthesisSampleRate is the sample rate synthesized speech is
	// produced and played back at.
	DefaultSynthesisSampleRate = 32000

	DefaultFormat = "linear16"
)

func GetDefaultCaptureEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultCaptureSampleRate, Format: encodingFormat(DefaultFormat)}
}

func GetDefaultSynthesisEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSynthesisSampleRate, Format: encodingFormat(DefaultFormat)}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

func (e EncodingInfo) SilenceValue() byte {
	switch e.Format {
	case EncodingALaw:
		return 0x55
	case EncodingMulaw:
		return 0xFF
	case EncodingLinear16:
		return 0
	}

	return 0
}

// Bytes converts a duration of audio to its size in bytes, aligned down to a
// whole sample.
func (e EncodingInfo) Bytes(duration time.Duration) int {
	n := int(float64(duration) / float64(time.Second) * float64(e.SampleRate) * float64(e.Format.ByteSize()))
	return n - n%e.Format.ByteSize()
}

// Duration converts a byte count of audio to its playback duration.
func (e EncodingInfo) Duration(byteCount int) time.Duration {
	return time.Duration(float64(byteCount) / float64(e.SampleRate) * float64(time.Second) / float64(e.Format.ByteSize()))
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
