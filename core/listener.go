package speech

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ava-core/core/events"
	"github.com/koscakluka/ava-core/core/speechtotext"
)

const (
	defaultSendInterval    = 100 * time.Millisecond
	defaultCaptureCapacity = 50
)

// Listener is one recognition session: microphone frames are buffered in a
// bounded ring by the capture callback, a sender loop periodically ships the
// buffered audio to the transcriber, and the transcriber's read loop
// republishes speech-detected and transcript-ready events. Reconnecting is
// the caller's call; a dead session just stops producing events.
type Listener struct {
	input       AudioInput
	transcriber Transcriber

	ring         *captureRing
	sendInterval time.Duration
	callbacks    listenerCallbacks
	emitEvent    eventEmitter

	started    atomic.Bool
	cancel     context.CancelFunc
	senderDone chan struct{}
}

func NewListener(input AudioInput, transcriber Transcriber, opts ...ListenerOption) *Listener {
	listener := &Listener{
		input:        input,
		transcriber:  transcriber,
		ring:         newCaptureRing(defaultCaptureCapacity),
		sendInterval: defaultSendInterval,
	}

	for _, opt := range opts {
		opt(listener)
	}
	listener.emitEvent = newListenerEventEmitter(listener.callbacks)

	return listener
}

// Start opens the transcription session and the capture stream and launches
// the sender loop. A dial or capture failure is session-fatal: Start returns
// the error and leaves no partial session running.
func (l *Listener) Start(ctx context.Context) error {
	if l == nil {
		return fmt.Errorf("listener is not configured")
	}
	if l.input == nil || l.transcriber == nil {
		return fmt.Errorf("listener requires both an audio input and a transcriber")
	}

	if !l.started.CompareAndSwap(false, true) {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	transcriptionOptions := []speechtotext.TranscriptionOption{
		speechtotext.WithSpeechDetectedCallback(func() {
			l.emitEvent(events.NewUserSpeechDetected())
		}),
		speechtotext.WithTranscriptionCallback(func(transcript string) {
			l.emitEvent(events.NewUserTranscriptReady(transcript))
		}),
		speechtotext.WithEncodingInfo(l.input.EncodingInfo()),
	}

	if err := l.transcriber.Transcribe(ctx, transcriptionOptions...); err != nil {
		cancel()
		l.started.Store(false)
		return fmt.Errorf("failed to open transcription session: %w", err)
	}

	if err := l.input.StartCapture(ctx, l.ring.Append); err != nil {
		l.closeTranscriber()
		cancel()
		l.started.Store(false)
		return fmt.Errorf("failed to start audio capture: %w", err)
	}

	l.senderDone = make(chan struct{})
	go l.runSender(ctx)

	return nil
}

// runSender drains the ring on a fixed cadence and ships each batch as one
// binary message. A failed send ends the loop; there is no busy retry.
func (l *Listener) runSender(ctx context.Context) {
	defer close(l.senderDone)

	ticker := time.NewTicker(l.sendInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			buffered := l.ring.Drain()
			if len(buffered) == 0 {
				continue
			}
			if err := l.transcriber.SendAudio(buffered); err != nil {
				log.Printf("Failed to send captured audio, stopping sender: %v", err)
				return
			}
		}
	}
}

// Stop tears the session down: loops are cancelled, capture and the socket
// are closed, and the ring is cleared. It waits for the sender to observe
// the cancellation. Idempotent, and a no-op before Start.
func (l *Listener) Stop() error {
	if l == nil || !l.started.CompareAndSwap(true, false) {
		return nil
	}

	l.cancel()

	var errs error
	if err := l.input.StopCapture(); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to stop audio capture: %w", err))
	}
	if err := l.closeTranscriber(); err != nil {
		errs = errors.Join(errs, err)
	}

	<-l.senderDone
	l.ring.Clear()

	return errs
}

func (l *Listener) closeTranscriber() error {
	switch c := l.transcriber.(type) {
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close transcriber: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	}
	return nil
}
