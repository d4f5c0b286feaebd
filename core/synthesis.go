package speech

import (
	"context"
	"log"
	"time"

	"github.com/koscakluka/ava-core/core/audio"
	"github.com/koscakluka/ava-core/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// synthesisWorker pulls text units in order, streams each through the
// synthesizer and emits shaped speech plus a trailing silence unit. Running a
// single worker over the queue is what preserves sequence order end-to-end:
// network latency can vary per request but units leave in the order they
// arrived.
type synthesisWorker struct {
	synthesizer  SpeechSynthesizer
	encodingInfo audio.EncodingInfo

	edgeSilence      time.Duration
	interUnitSilence time.Duration

	in  *textUnitQueue
	out *audioUnitQueue
}

// Run processes units until the text queue finishes or cancellation is
// observed, then pushes the terminal sentinel. A failed synthesis call is
// logged and the unit skipped entirely, neither speech nor silence; the rest
// of the utterance still plays.
func (w *synthesisWorker) Run(ctx context.Context, cancelled func() bool) {
	defer w.out.Push(audioUnit{kind: audioUnitSentinel})

	for unit := range w.in.Units {
		if cancelled() {
			return
		}

		pcm, err := w.synthesize(ctx, unit)
		if err != nil {
			log.Printf("Failed to synthesize text unit %d: %v", unit.sequenceID, err)
			continue
		}

		shaped := shapeClipEdges(pcm, w.encodingInfo.Bytes(w.edgeSilence))
		if !w.out.Push(audioUnit{sequenceID: unit.sequenceID, kind: audioUnitSpeech, pcm: shaped}) {
			return
		}
		if !w.out.Push(audioUnit{sequenceID: unit.sequenceID, kind: audioUnitSilence, pcm: w.silenceClip()}) {
			return
		}
	}
}

func (w *synthesisWorker) synthesize(ctx context.Context, unit textUnit) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "synthesize text unit")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("unit.sequence_id", int64(unit.sequenceID)),
		attribute.Int("unit.length", len(unit.content)),
	)

	var pcm []byte
	err := w.synthesizer.Synthesize(ctx, unit.content,
		texttospeech.WithAudioChunkCallback(func(chunk []byte) {
			pcm = append(pcm, chunk...)
		}),
		texttospeech.WithEncodingInfo(w.encodingInfo),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("unit.audio_bytes", len(pcm)))
	return pcm, nil
}

func (w *synthesisWorker) silenceClip() []byte {
	clip := make([]byte, w.encodingInfo.Bytes(w.interUnitSilence))
	silence := w.encodingInfo.SilenceValue()
	for i := range clip {
		clip[i] = silence
	}
	return clip
}

// shapeClipEdges zeroes the first and last edgeBytes of a clip to suppress
// clicking artifacts at unit boundaries. Clips shorter than two edges are
// zeroed entirely.
func shapeClipEdges(pcm []byte, edgeBytes int) []byte {
	if edgeBytes <= 0 || len(pcm) == 0 {
		return pcm
	}

	if len(pcm) <= 2*edgeBytes {
		for i := range pcm {
			pcm[i] = 0
		}
		return pcm
	}

	for i := range edgeBytes {
		pcm[i] = 0
		pcm[len(pcm)-1-i] = 0
	}
	return pcm
}
