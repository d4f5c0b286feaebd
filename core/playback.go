package speech

import (
	"encoding/binary"
	"log"
	"math"
	"time"

	"github.com/koscakluka/ava-core/core/audio"
	"github.com/koscakluka/ava-core/core/events"
)

// playbackFrameDuration is the granularity playback writes and paces at.
// Loudness updates track wall-clock playback at this resolution.
const playbackFrameDuration = 100 * time.Millisecond

// playbackEngine drains the audio unit queue onto the output device. It
// buffers units until a watermark's worth of audio is queued before the first
// write so playback does not underrun on slow synthesis, then paces writes so
// the device stays fed roughly one watermark ahead of real time.
type playbackEngine struct {
	output       *audioOutput
	encodingInfo audio.EncodingInfo
	watermark    time.Duration

	queue     *audioUnitQueue
	emitEvent eventEmitter
	smoother  *lipSyncSmoother
	setRMS    func(rms float32)
	setMouth  func(value float32)
	cancelled func() bool

	started       bool
	playbackStart time.Time
	written       time.Duration
}

// Run plays units until the terminal sentinel, queue closure, or
// cancellation. It always ends the session: loudness and mouth value are
// zeroed and the playback-ended event fires exactly once, even when no audio
// was ever written.
func (e *playbackEngine) Run() {
	defer e.finish()

	var buffered []audioUnit
	bufferedBytes := 0
	buffering := true
	watermarkBytes := e.encodingInfo.Bytes(e.watermark)

	for unit := range e.queue.Units {
		if e.cancelled() {
			return
		}

		if unit.kind == audioUnitSentinel {
			// Short utterances can end before the watermark is reached;
			// whatever is buffered still plays.
			if buffering {
				e.playUnits(buffered)
			}
			return
		}

		if buffering {
			buffered = append(buffered, unit)
			bufferedBytes += len(unit.pcm)
			if bufferedBytes < watermarkBytes {
				continue
			}
			e.playUnits(buffered)
			buffered = nil
			buffering = false
			continue
		}

		e.playUnit(unit)
	}
}

func (e *playbackEngine) playUnits(units []audioUnit) {
	for _, unit := range units {
		if e.cancelled() {
			return
		}
		e.playUnit(unit)
	}
}

func (e *playbackEngine) playUnit(unit audioUnit) {
	frameBytes := e.encodingInfo.Bytes(playbackFrameDuration)
	if frameBytes <= 0 {
		frameBytes = len(unit.pcm)
	}

	for start := 0; start < len(unit.pcm); start += frameBytes {
		if e.cancelled() {
			return
		}

		frame := unit.pcm[start:min(start+frameBytes, len(unit.pcm))]
		if err := e.output.SendAudio(frame); err != nil {
			log.Printf("Failed to write audio frame: %v", err)
			continue
		}

		if unit.kind == audioUnitSpeech && !e.started {
			e.started = true
			e.emitEvent(events.NewPlaybackStarted())
		}

		rms := computeRMS(frame)
		e.setRMS(rms)
		e.setMouth(e.smoother.Update(rms))

		e.pace(e.encodingInfo.Duration(len(frame)))
	}
}

// pace sleeps off any lead beyond the watermark, measured against the wall
// clock since the first write so scheduling jitter does not accumulate.
func (e *playbackEngine) pace(frameDuration time.Duration) {
	if e.playbackStart.IsZero() {
		e.playbackStart = time.Now()
	}
	e.written += frameDuration

	lead := e.written - time.Since(e.playbackStart)
	if lead > e.watermark {
		time.Sleep(lead - e.watermark)
	}
}

func (e *playbackEngine) finish() {
	e.setRMS(0)
	e.smoother.Reset()
	e.setMouth(0)
	e.output.Clear()
	e.emitEvent(events.NewPlaybackEnded())
}

// computeRMS returns the root-mean-square amplitude of a 16-bit little-endian
// PCM frame, normalized to [0, 1].
func computeRMS(frame []byte) float32 {
	sampleCount := len(frame) / 2
	if sampleCount == 0 {
		return 0
	}

	var sum float64
	for i := 0; i+1 < len(frame); i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(frame[i:]))) / 32768
		sum += sample * sample
	}
	return float32(math.Sqrt(sum / float64(sampleCount)))
}
