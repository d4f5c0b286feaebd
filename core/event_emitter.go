package speech

import "github.com/koscakluka/ava-core/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newSpeakerEventEmitter(callbacks speakerCallbacks) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.SpeechTextStarted:
			if callbacks.onTextStreamStart != nil {
				callbacks.onTextStreamStart()
			}
		case events.CharacterRevealed:
			if callbacks.onCharacter != nil {
				callbacks.onCharacter(typedEvent.Character)
			}
		case events.SpeechTextEnded:
			if callbacks.onTextStreamStop != nil {
				callbacks.onTextStreamStop()
			}
		case events.PlaybackStarted:
			if callbacks.onAudioStreamStart != nil {
				callbacks.onAudioStreamStart()
			}
		case events.PlaybackEnded:
			if callbacks.onAudioStreamStop != nil {
				callbacks.onAudioStreamStop()
			}
		}
	}
}

func newListenerEventEmitter(callbacks listenerCallbacks) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.UserSpeechDetected:
			if callbacks.onSpeechDetected != nil {
				callbacks.onSpeechDetected()
			}
		case events.UserTranscriptReady:
			if callbacks.onTranscriptReady != nil {
				callbacks.onTranscriptReady(typedEvent.Transcript)
			}
		}
	}
}
