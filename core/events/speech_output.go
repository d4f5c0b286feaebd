package events

const (
	// KindSpeechTextStarted identifies the start of the outgoing text stream.
	KindSpeechTextStarted Kind = "speech_output.text_started"
	// KindCharacterRevealed identifies a single revealed character of outgoing text.
	KindCharacterRevealed Kind = "speech_output.character_revealed"
	// KindSpeechTextEnded identifies exhaustion of the outgoing text stream.
	KindSpeechTextEnded Kind = "speech_output.text_ended"
)

// SpeechTextStarted marks the start of the outgoing text stream.
type SpeechTextStarted struct{ Base }

// NewSpeechTextStarted creates a speech text started event.
func NewSpeechTextStarted() SpeechTextStarted {
	return SpeechTextStarted{Base: NewBase(KindSpeechTextStarted)}
}

// CharacterRevealed carries one character of outgoing text, in stream order.
type CharacterRevealed struct {
	Base
	Character rune
}

// NewCharacterRevealed creates a character revealed event.
func NewCharacterRevealed(character rune) CharacterRevealed {
	return CharacterRevealed{Base: NewBase(KindCharacterRevealed), Character: character}
}

// SpeechTextEnded marks the end of the outgoing text stream.
type SpeechTextEnded struct{ Base }

// NewSpeechTextEnded creates a speech text ended event.
func NewSpeechTextEnded() SpeechTextEnded {
	return SpeechTextEnded{Base: NewBase(KindSpeechTextEnded)}
}
