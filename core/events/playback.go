package events

const (
	// KindPlaybackStarted identifies the first synthesized audio reaching the output device.
	KindPlaybackStarted Kind = "playback.started"
	// KindPlaybackEnded identifies the end of playback for a speaking session.
	KindPlaybackEnded Kind = "playback.ended"
)

// PlaybackStarted marks the first synthesized audio reaching the output device.
type PlaybackStarted struct{ Base }

// NewPlaybackStarted creates a playback started event.
func NewPlaybackStarted() PlaybackStarted {
	return PlaybackStarted{Base: NewBase(KindPlaybackStarted)}
}

// PlaybackEnded marks the end of playback. It fires exactly once per speaking
// session, whether playback completed, was stopped, or never produced audio.
type PlaybackEnded struct{ Base }

// NewPlaybackEnded creates a playback ended event.
func NewPlaybackEnded() PlaybackEnded {
	return PlaybackEnded{Base: NewBase(KindPlaybackEnded)}
}
