package speech

import (
	"context"
	"fmt"
	"iter"
	"log"
	"sync"
	"time"
)

const (
	defaultEndPunctuation   = ".。!！?？"
	defaultMinChunkSize     = 10
	defaultEdgeSilence      = 20 * time.Millisecond
	defaultInterUnitSilence = 150 * time.Millisecond
	defaultBufferWatermark  = 200 * time.Millisecond
)

type speakerConfig struct {
	endPunctuation   string
	minChunkSize     int
	edgeSilence      time.Duration
	interUnitSilence time.Duration
	bufferWatermark  time.Duration
}

// Speaker turns lazy text streams into audible, lip-synced speech. Feed arms
// an utterance, Play runs it, Stop cancels it. The loudness and mouth-value
// accessors are meant to be polled once per render frame.
type Speaker struct {
	synthesizer SpeechSynthesizer
	audioOutput *audioOutput
	config      speakerConfig
	callbacks   speakerCallbacks
	emitEvent   eventEmitter

	sessionMu sync.Mutex
	session   *speakSession

	closeOnce sync.Once
}

func NewSpeaker(synthesizer SpeechSynthesizer, opts ...SpeakerOption) *Speaker {
	speaker := &Speaker{
		synthesizer: synthesizer,
		audioOutput: newAudioOutput(nil),
		config: speakerConfig{
			endPunctuation:   defaultEndPunctuation,
			minChunkSize:     defaultMinChunkSize,
			edgeSilence:      defaultEdgeSilence,
			interUnitSilence: defaultInterUnitSilence,
			bufferWatermark:  defaultBufferWatermark,
		},
	}

	for _, opt := range opts {
		opt(speaker)
	}
	speaker.emitEvent = newSpeakerEventEmitter(speaker.callbacks)

	return speaker
}

// Feed arms a new speaking session with the given lazy text source.
// Single-flight: a still-running session is stopped and awaited first, so at
// most one utterance pipeline is ever live.
func (s *Speaker) Feed(source iter.Seq[string]) {
	if s == nil {
		return
	}

	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if previous := s.session; previous != nil {
		previous.Stop()
		if previous.runStarted.Load() {
			<-previous.done
		}
	}

	s.session = newSpeakSession(source, s.config, s.synthesizer, s.audioOutput, s.emitEvent)
}

// Play runs the armed session to completion. It blocks until the utterance
// has fully played, was stopped, or failed. Per-unit synthesis and device
// write failures are logged and skipped; only session-fatal errors are
// returned.
func (s *Speaker) Play(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("speaker is not configured")
	}

	s.sessionMu.Lock()
	session := s.session
	if session == nil {
		s.sessionMu.Unlock()
		return fmt.Errorf("no text source armed, call Feed first")
	}
	if !session.runStarted.CompareAndSwap(false, true) {
		s.sessionMu.Unlock()
		return fmt.Errorf("session already played")
	}
	s.sessionMu.Unlock()

	return session.Run(ctx)
}

// PlayAsync runs Play on its own goroutine, logging any session-fatal error.
func (s *Speaker) PlayAsync(ctx context.Context) {
	go func() {
		if err := s.Play(ctx); err != nil {
			log.Printf("Speech session failed: %v", err)
		}
	}()
}

// Stop cancels the current session, discarding all queued text and audio.
// Idempotent and safe to call with no session active.
func (s *Speaker) Stop() {
	if s == nil {
		return
	}

	s.sessionMu.Lock()
	session := s.session
	s.sessionMu.Unlock()

	session.Stop()
}

func (s *Speaker) IsPlaying() bool {
	if s == nil {
		return false
	}

	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	return s.session.IsPlaying()
}

// CurrentRMS returns the loudness of the most recently played audio frame,
// zero when idle.
func (s *Speaker) CurrentRMS() float32 {
	if s == nil {
		return 0
	}

	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	return s.session.CurrentRMS()
}

// MouthValue returns the smoothed mouth-openness value in [0, 1], zero when
// idle.
func (s *Speaker) MouthValue() float32 {
	if s == nil {
		return 0
	}

	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	return s.session.MouthValue()
}

// Close stops any running session and releases the output device.
func (s *Speaker) Close() error {
	if s == nil {
		return nil
	}

	var err error
	s.closeOnce.Do(func() {
		s.Stop()
		err = s.audioOutput.Close()
	})
	return err
}
