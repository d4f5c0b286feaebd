package speechtotext

import "github.com/koscakluka/ava-core/core/audio"

type TranscriptionOptions struct {
	// SpeechDetectedCallback is called when the service detects the start of
	// user speech.
	SpeechDetectedCallback func()
	// TranscriptionCallback is called with each finalized transcript segment.
	TranscriptionCallback func(transcript string)

	EncodingInfo audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

func WithSpeechDetectedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechDetectedCallback = callback
	}
}

func WithTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.TranscriptionCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}
