package speech

import (
	"context"
	"time"

	"github.com/koscakluka/ava-core/core/audio"
	"github.com/koscakluka/ava-core/core/speechtotext"
	"github.com/koscakluka/ava-core/core/texttospeech"
)

// SpeechSynthesizer turns one unit of text into streamed PCM audio. Chunks
// are delivered through the callback registered with
// [texttospeech.WithAudioChunkCallback], in order.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) error
	EncodingInfo() audio.EncodingInfo
}

// AudioOutput is the playback side of an audio device.
type AudioOutput interface {
	EncodingInfo() audio.EncodingInfo
	SendAudio(audio []byte) error
	ClearBuffer()
}

// AudioInput is the capture side of an audio device. StartCapture must not
// block; the frame callback is invoked from the device's capture cadence and
// must itself never block.
type AudioInput interface {
	EncodingInfo() audio.EncodingInfo
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

// Transcriber is a duplex transcription session client. Transcribe opens the
// session and starts the read loop; SendAudio ships one binary frame.
type Transcriber interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
}

type SpeakerOption func(*Speaker)

func WithAudioOutput(client AudioOutput) SpeakerOption {
	return func(s *Speaker) { s.audioOutput.Set(client) }
}

// WithEndPunctuation replaces the set of runes treated as sentence
// terminators by segmentation.
func WithEndPunctuation(punctuation string) SpeakerOption {
	return func(s *Speaker) {
		if punctuation != "" {
			s.config.endPunctuation = punctuation
		}
	}
}

// WithMinimumChunkSize sets the minimum pending length, in runes, before a
// completed sentence is flushed for synthesis.
func WithMinimumChunkSize(runes int) SpeakerOption {
	return func(s *Speaker) {
		if runes > 0 {
			s.config.minChunkSize = runes
		}
	}
}

// WithEdgeSilence sets how much of each synthesized clip's head and tail is
// zeroed to suppress boundary clicks.
func WithEdgeSilence(duration time.Duration) SpeakerOption {
	return func(s *Speaker) {
		if duration >= 0 {
			s.config.edgeSilence = duration
		}
	}
}

// WithInterUnitSilence sets the synthetic gap inserted after each spoken
// sentence.
func WithInterUnitSilence(duration time.Duration) SpeakerOption {
	return func(s *Speaker) {
		if duration >= 0 {
			s.config.interUnitSilence = duration
		}
	}
}

// WithBufferWatermark sets how much audio must be queued before playback
// starts writing to the device.
func WithBufferWatermark(duration time.Duration) SpeakerOption {
	return func(s *Speaker) {
		if duration >= 0 {
			s.config.bufferWatermark = duration
		}
	}
}

// WithTextStreamStartCallback registers a callback fired when a speaking
// session starts consuming its text source.
func WithTextStreamStartCallback(callback func()) SpeakerOption {
	return func(s *Speaker) { s.callbacks.onTextStreamStart = callback }
}

// WithCharacterCallback registers a callback fired for every character of
// the text source, in stream order, before the character can be spoken.
func WithCharacterCallback(callback func(character rune)) SpeakerOption {
	return func(s *Speaker) { s.callbacks.onCharacter = callback }
}

// WithTextStreamStopCallback registers a callback fired when the text source
// is exhausted.
func WithTextStreamStopCallback(callback func()) SpeakerOption {
	return func(s *Speaker) { s.callbacks.onTextStreamStop = callback }
}

// WithAudioStreamStartCallback registers a callback fired the first time
// speech audio reaches the output device in a session. Leading silence does
// not trigger it.
func WithAudioStreamStartCallback(callback func()) SpeakerOption {
	return func(s *Speaker) { s.callbacks.onAudioStreamStart = callback }
}

// WithAudioStreamStopCallback registers a callback fired exactly once when a
// session's playback ends, whether it completed, was stopped, or never
// produced audio.
func WithAudioStreamStopCallback(callback func()) SpeakerOption {
	return func(s *Speaker) { s.callbacks.onAudioStreamStop = callback }
}

type speakerCallbacks struct {
	onTextStreamStart  func()
	onCharacter        func(character rune)
	onTextStreamStop   func()
	onAudioStreamStart func()
	onAudioStreamStop  func()
}

type ListenerOption func(*Listener)

// WithSendInterval sets the cadence at which buffered capture frames are
// drained and shipped to the transcriber.
func WithSendInterval(interval time.Duration) ListenerOption {
	return func(l *Listener) {
		if interval > 0 {
			l.sendInterval = interval
		}
	}
}

// WithCaptureCapacity sets how many capture frames the ring holds before the
// oldest frame is dropped.
func WithCaptureCapacity(frames int) ListenerOption {
	return func(l *Listener) {
		if frames > 0 {
			l.ring = newCaptureRing(frames)
		}
	}
}

// WithSpeechDetectedCallback registers a callback fired when the
// transcription service detects the start of user speech.
func WithSpeechDetectedCallback(callback func()) ListenerOption {
	return func(l *Listener) { l.callbacks.onSpeechDetected = callback }
}

// WithTranscriptReadyCallback registers a callback fired for each finalized
// transcript segment.
func WithTranscriptReadyCallback(callback func(transcript string)) ListenerOption {
	return func(l *Listener) { l.callbacks.onTranscriptReady = callback }
}

type listenerCallbacks struct {
	onSpeechDetected  func()
	onTranscriptReady func(transcript string)
}
