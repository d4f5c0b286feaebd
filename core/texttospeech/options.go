package texttospeech

import "github.com/koscakluka/ava-core/core/audio"

type SynthesisOptions struct {
	// AudioChunkCallback is called for each chunk of synthesized PCM, in
	// stream order. The slice is passed through as-is (no defensive copy);
	// receivers that retain it must copy.
	AudioChunkCallback func(audio []byte)

	EncodingInfo audio.EncodingInfo
}

type SynthesisOption func(*SynthesisOptions)

func WithAudioChunkCallback(callback func(audio []byte)) SynthesisOption {
	return func(o *SynthesisOptions) {
		o.AudioChunkCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SynthesisOption {
	return func(o *SynthesisOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}
