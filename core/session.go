package speech

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const audioUnitQueueCapacity = 8

// speakSession is one utterance's worth of pipeline state: the armed text
// source, the two queues, and the three workers that move text through
// synthesis into the output device. At most one session is live per Speaker.
type speakSession struct {
	id     string
	source iter.Seq[string]

	config      speakerConfig
	synthesizer SpeechSynthesizer
	audioOutput *audioOutput
	emitEvent   eventEmitter

	textQueue  *textUnitQueue
	audioQueue *audioUnitQueue

	cancelled  atomic.Bool
	playing    atomic.Bool
	runStarted atomic.Bool
	currentRMS atomic.Uint32
	mouthValue atomic.Uint32

	done chan struct{}
}

func newSpeakSession(source iter.Seq[string], config speakerConfig, synthesizer SpeechSynthesizer, audioOutput *audioOutput, emitEvent eventEmitter) *speakSession {
	if emitEvent == nil {
		emitEvent = noopEventEmitter
	}

	return &speakSession{
		id:          uuid.NewString(),
		source:      source,
		config:      config,
		synthesizer: synthesizer,
		audioOutput: audioOutput,
		emitEvent:   emitEvent,
		textQueue:   newTextUnitQueue(),
		audioQueue:  newAudioUnitQueue(audioUnitQueueCapacity),
		done:        make(chan struct{}),
	}
}

// Run drives the session to completion: segmentation, synthesis and playback
// run as three workers joined by the queues, with panic capture and error
// fan-in. Per-unit failures are handled inside the workers; Run only returns
// session-fatal failures.
func (s *speakSession) Run(ctx context.Context) error {
	defer close(s.done)

	ctx, span := tracer.Start(ctx, "speak session")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", s.id))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hook := withContextCancelHook(ctx, func() {
		trace.SpanFromContext(ctx).AddEvent("session context cancelled")
		s.Stop()
	})
	defer close(hook)

	s.playing.Store(true)
	defer s.playing.Store(false)

	segmenter := newSentenceSegmenter(s.config.endPunctuation, s.config.minChunkSize, s.textQueue, s.emitEvent)
	worker := &synthesisWorker{
		synthesizer:      s.synthesizer,
		encodingInfo:     s.audioOutput.EncodingInfo(),
		edgeSilence:      s.config.edgeSilence,
		interUnitSilence: s.config.interUnitSilence,
		in:               s.textQueue,
		out:              s.audioQueue,
	}
	engine := &playbackEngine{
		output:       s.audioOutput,
		encodingInfo: s.audioOutput.EncodingInfo(),
		watermark:    s.config.bufferWatermark,
		queue:        s.audioQueue,
		emitEvent:    s.emitEvent,
		smoother:     newLipSyncSmoother(),
		setRMS:       s.setRMS,
		setMouth:     s.setMouth,
		cancelled:    s.IsCancelled,
	}

	var workerErr error
	workerErrMu := sync.Mutex{}
	addWorkerErr := func(err error) {
		if err == nil {
			return
		}
		workerErrMu.Lock()
		workerErr = errors.Join(workerErr, err)
		workerErrMu.Unlock()
	}

	run := func(name string, f func(context.Context) error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				addWorkerErr(fmt.Errorf("%s worker panicked: %v", name, recovered))
				s.Stop()
				cancel()
			}
		}()

		if err := f(ctx); err != nil {
			addWorkerErr(fmt.Errorf("%s worker failed: %w", name, err))
			s.Stop()
			cancel()
		}
	}

	wg := &sync.WaitGroup{}
	wg.Add(3)
	go func() {
		defer wg.Done()
		run("text segmentation", func(context.Context) error {
			segmenter.Run(s.source, s.IsCancelled)
			return nil
		})
	}()
	go func() {
		defer wg.Done()
		run("speech synthesis", func(ctx context.Context) error {
			worker.Run(ctx, s.IsCancelled)
			return nil
		})
	}()
	go func() {
		defer wg.Done()
		run("audio playback", func(context.Context) error {
			engine.Run()
			return nil
		})
	}()

	wg.Wait()

	if workerErr != nil {
		err := fmt.Errorf("one or more speech pipeline workers failed: %w", workerErr)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// Stop cancels the session: both queues are cleared so blocked workers wake
// within one queue receive, and buffered device audio is flushed. Idempotent
// and safe on a session that never ran.
func (s *speakSession) Stop() {
	if s == nil || !s.cancelled.CompareAndSwap(false, true) {
		return
	}

	s.textQueue.Clear()
	s.audioQueue.Close()
	s.audioOutput.Clear()
}

func (s *speakSession) IsCancelled() bool {
	return s != nil && s.cancelled.Load()
}

func (s *speakSession) IsPlaying() bool {
	return s != nil && s.playing.Load()
}

func (s *speakSession) setRMS(rms float32) {
	s.currentRMS.Store(math.Float32bits(rms))
}

func (s *speakSession) CurrentRMS() float32 {
	if s == nil {
		return 0
	}
	return math.Float32frombits(s.currentRMS.Load())
}

func (s *speakSession) setMouth(value float32) {
	s.mouthValue.Store(math.Float32bits(value))
}

func (s *speakSession) MouthValue() float32 {
	if s == nil {
		return 0
	}
	return math.Float32frombits(s.mouthValue.Load())
}
