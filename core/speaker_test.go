package speech

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ava-core/core/texttospeech"
)

func TestSpeakerPlaysUtteranceEndToEnd(t *testing.T) {
	output := &audioOutputStub{encodingInfo: testEncodingInfo()}

	var mu sync.Mutex
	synthesized := []string{}
	revealedAtSynthesis := []int{}
	revealed := 0
	textStarts, textStops := 0, 0
	audioStarts, audioStops := 0, 0

	synthesizer := &speechSynthesizerStub{
		encodingInfo: output.encodingInfo,
		synthesize: func(text string, options texttospeech.SynthesisOptions) error {
			mu.Lock()
			synthesized = append(synthesized, text)
			revealedAtSynthesis = append(revealedAtSynthesis, revealed)
			mu.Unlock()
			options.AudioChunkCallback([]byte{1, 2, 3, 4})
			return nil
		},
	}

	speaker := NewSpeaker(synthesizer,
		WithAudioOutput(output),
		WithMinimumChunkSize(5),
		WithBufferWatermark(0),
		WithTextStreamStartCallback(func() { mu.Lock(); textStarts++; mu.Unlock() }),
		WithCharacterCallback(func(rune) { mu.Lock(); revealed++; mu.Unlock() }),
		WithTextStreamStopCallback(func() { mu.Lock(); textStops++; mu.Unlock() }),
		WithAudioStreamStartCallback(func() { mu.Lock(); audioStarts++; mu.Unlock() }),
		WithAudioStreamStopCallback(func() { mu.Lock(); audioStops++; mu.Unlock() }),
	)

	input := "Hello world. How are you?"
	speaker.Feed(slices.Values([]string{input}))
	if err := speaker.Play(context.Background()); err != nil {
		t.Fatalf("expected playback to succeed, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if len(synthesized) != 2 || synthesized[0] != "Hello world." || synthesized[1] != "How are you?" {
		t.Fatalf("expected two sentence units synthesized, got %v", synthesized)
	}
	if revealed != len([]rune(input)) {
		t.Fatalf("expected %d characters revealed, got %d", len([]rune(input)), revealed)
	}
	// Every character of a unit is revealed before that unit reaches synthesis.
	if revealedAtSynthesis[0] < len("Hello world.") {
		t.Fatalf("expected first unit fully revealed before synthesis, got %d characters", revealedAtSynthesis[0])
	}
	if textStarts != 1 || textStops != 1 {
		t.Fatalf("expected one text start and stop, got %d and %d", textStarts, textStops)
	}
	if audioStarts != 1 || audioStops != 1 {
		t.Fatalf("expected one audio start and stop, got %d and %d", audioStarts, audioStops)
	}
	if output.writtenBytes() == 0 {
		t.Fatal("expected synthesized audio to reach the output device")
	}
}

func TestSpeakerSkipsFailedSynthesisUnit(t *testing.T) {
	output := &audioOutputStub{encodingInfo: testEncodingInfo()}

	var mu sync.Mutex
	synthesized := []string{}
	synthesizer := &speechSynthesizerStub{
		encodingInfo: output.encodingInfo,
		synthesize: func(text string, options texttospeech.SynthesisOptions) error {
			mu.Lock()
			synthesized = append(synthesized, text)
			mu.Unlock()
			if text == "Second one." {
				return errors.New("backend refused")
			}
			options.AudioChunkCallback([]byte{1, 2})
			return nil
		},
	}

	speaker := NewSpeaker(synthesizer,
		WithAudioOutput(output),
		WithMinimumChunkSize(5),
		WithBufferWatermark(0),
		WithInterUnitSilence(0),
	)

	speaker.Feed(slices.Values([]string{"First one. Second one. Third one."}))
	if err := speaker.Play(context.Background()); err != nil {
		t.Fatalf("expected a per-unit failure to not fail the session, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(synthesized) != 3 {
		t.Fatalf("expected all 3 units attempted, got %v", synthesized)
	}
	if output.writtenBytes() != 4 {
		t.Fatalf("expected audio only for the 2 successful units, got %d bytes", output.writtenBytes())
	}
}

func TestSpeakerPlayWithoutFeedErrors(t *testing.T) {
	speaker := NewSpeaker(&speechSynthesizerStub{})
	if err := speaker.Play(context.Background()); err == nil {
		t.Fatal("expected an error when playing without a fed source")
	}
}

func TestSpeakerRejectsReplayOfSameSession(t *testing.T) {
	synthesizer := &speechSynthesizerStub{
		synthesize: func(text string, options texttospeech.SynthesisOptions) error { return nil },
	}
	speaker := NewSpeaker(synthesizer, WithBufferWatermark(0))

	speaker.Feed(slices.Values([]string{"Hi."}))
	if err := speaker.Play(context.Background()); err != nil {
		t.Fatalf("expected first play to succeed, got %v", err)
	}
	if err := speaker.Play(context.Background()); err == nil {
		t.Fatal("expected replay of a consumed session to error")
	}
}

func TestSpeakerStopIsIdempotent(t *testing.T) {
	speaker := NewSpeaker(&speechSynthesizerStub{})
	speaker.Stop()
	speaker.Stop()

	var nilSpeaker *Speaker
	nilSpeaker.Stop()
	if nilSpeaker.IsPlaying() {
		t.Fatal("expected nil speaker to report not playing")
	}
}

func TestSpeakerFeedTearsDownRunningSession(t *testing.T) {
	output := &audioOutputStub{encodingInfo: testEncodingInfo()}
	synthesizer := &speechSynthesizerStub{
		encodingInfo: output.encodingInfo,
		synthesize: func(text string, options texttospeech.SynthesisOptions) error {
			options.AudioChunkCallback([]byte{1, 2})
			return nil
		},
	}
	speaker := NewSpeaker(synthesizer,
		WithAudioOutput(output),
		WithMinimumChunkSize(1),
		WithBufferWatermark(0),
		WithInterUnitSilence(0),
	)

	// Endless source; only teardown ends the session.
	speaker.Feed(func(yield func(string) bool) {
		for {
			if !yield("More words. ") {
				return
			}
		}
	})
	speaker.PlayAsync(context.Background())

	deadline := time.Now().Add(time.Second)
	for !speaker.IsPlaying() {
		if time.Now().After(deadline) {
			t.Fatal("expected session to start playing")
		}
		time.Sleep(time.Millisecond)
	}

	speaker.Feed(slices.Values([]string{"Replacement."}))
	if speaker.IsPlaying() {
		t.Fatal("expected previous session to be stopped and awaited before rearming")
	}

	if err := speaker.Play(context.Background()); err != nil {
		t.Fatalf("expected replacement session to play, got %v", err)
	}
}

func TestSpeakerCloseStopsSession(t *testing.T) {
	output := &audioOutputStub{encodingInfo: testEncodingInfo()}
	speaker := NewSpeaker(&speechSynthesizerStub{encodingInfo: output.encodingInfo}, WithAudioOutput(output))
	if err := speaker.Close(); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}
	if err := speaker.Close(); err != nil {
		t.Fatalf("expected repeated close to succeed, got %v", err)
	}
}
