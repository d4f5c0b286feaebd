package speech

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/koscakluka/ava-core/core/audio"
	"github.com/koscakluka/ava-core/core/texttospeech"
)

type speechSynthesizerStub struct {
	encodingInfo audio.EncodingInfo
	synthesize   func(text string, options texttospeech.SynthesisOptions) error
}

func (s *speechSynthesizerStub) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) error {
	options := texttospeech.SynthesisOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return s.synthesize(text, options)
}

func (s *speechSynthesizerStub) EncodingInfo() audio.EncodingInfo {
	return s.encodingInfo
}

func testEncodingInfo() audio.EncodingInfo {
	info := audio.GetDefaultSynthesisEncodingInfo()
	info.SampleRate = 100
	return info
}

func drainAudioUnits(q *audioUnitQueue) []audioUnit {
	units := []audioUnit{}
	for {
		unit, ok := q.Pop()
		if !ok {
			return units
		}
		units = append(units, unit)
		if unit.kind == audioUnitSentinel {
			return units
		}
	}
}

func TestSynthesisWorkerEmitsSpeechThenSilencePerUnit(t *testing.T) {
	encodingInfo := testEncodingInfo()
	in := newTextUnitQueue()
	out := newAudioUnitQueue(16)
	worker := &synthesisWorker{
		synthesizer: &speechSynthesizerStub{
			encodingInfo: encodingInfo,
			synthesize: func(text string, options texttospeech.SynthesisOptions) error {
				options.AudioChunkCallback(bytes.Repeat([]byte{0x7f}, 40))
				return nil
			},
		},
		encodingInfo:     encodingInfo,
		interUnitSilence: 150 * time.Millisecond,
		in:               in,
		out:              out,
	}

	in.Push(textUnit{sequenceID: 1, content: "Hello world."})
	in.Push(textUnit{sequenceID: 2, content: "How are you?"})
	in.Finish()
	worker.Run(context.Background(), neverCancelled)

	units := drainAudioUnits(out)
	if len(units) != 5 {
		t.Fatalf("expected speech+silence per unit plus sentinel, got %d units", len(units))
	}

	expected := []struct {
		sequenceID uint64
		kind       audioUnitKind
	}{
		{1, audioUnitSpeech},
		{1, audioUnitSilence},
		{2, audioUnitSpeech},
		{2, audioUnitSilence},
		{0, audioUnitSentinel},
	}
	for i, unit := range units {
		if unit.sequenceID != expected[i].sequenceID || unit.kind != expected[i].kind {
			t.Fatalf("expected unit %d to be {%d %d}, got {%d %d}",
				i, expected[i].sequenceID, expected[i].kind, unit.sequenceID, unit.kind)
		}
	}

	// 150ms of silence at 100Hz linear16 mono is 30 bytes.
	if len(units[1].pcm) != 30 {
		t.Fatalf("expected 30 bytes of inter-unit silence, got %d", len(units[1].pcm))
	}
}

func TestSynthesisWorkerSkipsFailedUnits(t *testing.T) {
	encodingInfo := testEncodingInfo()
	in := newTextUnitQueue()
	out := newAudioUnitQueue(16)
	worker := &synthesisWorker{
		synthesizer: &speechSynthesizerStub{
			encodingInfo: encodingInfo,
			synthesize: func(text string, options texttospeech.SynthesisOptions) error {
				if text == "Broken." {
					return errors.New("synthesis backend unavailable")
				}
				options.AudioChunkCallback([]byte{1, 2, 3, 4})
				return nil
			},
		},
		encodingInfo: encodingInfo,
		in:           in,
		out:          out,
	}

	in.Push(textUnit{sequenceID: 1, content: "Fine."})
	in.Push(textUnit{sequenceID: 2, content: "Broken."})
	in.Push(textUnit{sequenceID: 3, content: "Also fine."})
	in.Finish()
	worker.Run(context.Background(), neverCancelled)

	units := drainAudioUnits(out)
	sequenceIDs := []uint64{}
	for _, unit := range units {
		if unit.kind == audioUnitSpeech {
			sequenceIDs = append(sequenceIDs, unit.sequenceID)
		}
		if unit.kind == audioUnitSilence && unit.sequenceID == 2 {
			t.Fatal("expected failed unit to skip its trailing silence too")
		}
	}
	if len(sequenceIDs) != 2 || sequenceIDs[0] != 1 || sequenceIDs[1] != 3 {
		t.Fatalf("expected speech for units 1 and 3 only, got %v", sequenceIDs)
	}
}

func TestSynthesisWorkerShapesClipEdges(t *testing.T) {
	encodingInfo := testEncodingInfo()
	in := newTextUnitQueue()
	out := newAudioUnitQueue(16)
	worker := &synthesisWorker{
		synthesizer: &speechSynthesizerStub{
			encodingInfo: encodingInfo,
			synthesize: func(text string, options texttospeech.SynthesisOptions) error {
				options.AudioChunkCallback(bytes.Repeat([]byte{0x7f}, 20))
				return nil
			},
		},
		encodingInfo: encodingInfo,
		edgeSilence:  20 * time.Millisecond, // 4 bytes at 100Hz
		in:           in,
		out:          out,
	}

	in.Push(textUnit{sequenceID: 1, content: "Hello."})
	in.Finish()
	worker.Run(context.Background(), neverCancelled)

	units := drainAudioUnits(out)
	if len(units) == 0 || units[0].kind != audioUnitSpeech {
		t.Fatalf("expected a speech unit first, got %v", units)
	}
	pcm := units[0].pcm
	for i := range 4 {
		if pcm[i] != 0 || pcm[len(pcm)-1-i] != 0 {
			t.Fatalf("expected 4 zeroed bytes at each clip edge, got %v", pcm)
		}
	}
	if pcm[4] != 0x7f || pcm[len(pcm)-5] != 0x7f {
		t.Fatalf("expected clip interior untouched, got %v", pcm)
	}
}

func TestShapeClipEdgesZeroesShortClipsEntirely(t *testing.T) {
	pcm := shapeClipEdges([]byte{1, 2, 3, 4, 5, 6}, 3)
	for i, b := range pcm {
		if b != 0 {
			t.Fatalf("expected short clip fully zeroed, got byte %d at %d", b, i)
		}
	}
}

func TestShapeClipEdgesNoopWithoutEdge(t *testing.T) {
	original := []byte{1, 2, 3}
	pcm := shapeClipEdges(original, 0)
	if !bytes.Equal(pcm, []byte{1, 2, 3}) {
		t.Fatalf("expected clip untouched with zero edge, got %v", pcm)
	}
}
