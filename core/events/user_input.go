package events

const (
	// KindUserSpeechDetected identifies detected start of user speech.
	KindUserSpeechDetected Kind = "user_input.speech_detected"
	// KindUserTranscriptReady identifies a finalized transcript segment.
	KindUserTranscriptReady Kind = "user_input.transcript_ready"
)

// UserSpeechDetected marks when the transcription service detects the start
// of user speech.
type UserSpeechDetected struct{ Base }

// NewUserSpeechDetected creates a user speech detected event.
func NewUserSpeechDetected() UserSpeechDetected {
	return UserSpeechDetected{Base: NewBase(KindUserSpeechDetected)}
}

// UserTranscriptReady carries a finalized transcript segment.
type UserTranscriptReady struct {
	Base
	Transcript string
}

// NewUserTranscriptReady creates a transcript ready event.
func NewUserTranscriptReady(transcript string) UserTranscriptReady {
	return UserTranscriptReady{Base: NewBase(KindUserTranscriptReady), Transcript: transcript}
}
