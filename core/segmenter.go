package speech

import (
	"iter"
	"strings"

	"github.com/koscakluka/ava-core/core/events"
)

// sentenceSegmenter turns a lazy stream of text fragments into sentence-sized
// text units. Every character is revealed through an event before any flush
// decision is made, so letter-by-letter display starts immediately rather
// than waiting on synthesis.
type sentenceSegmenter struct {
	endPunctuation string
	minChunkSize   int

	queue     *textUnitQueue
	emitEvent eventEmitter

	nextSequenceID uint64
}

func newSentenceSegmenter(endPunctuation string, minChunkSize int, queue *textUnitQueue, emitEvent eventEmitter) *sentenceSegmenter {
	if emitEvent == nil {
		emitEvent = noopEventEmitter
	}
	return &sentenceSegmenter{
		endPunctuation: endPunctuation,
		minChunkSize:   minChunkSize,
		queue:          queue,
		emitEvent:      emitEvent,
		nextSequenceID: 1,
	}
}

// Run consumes the text source to exhaustion or cancellation. A completed
// sentence (buffer ending in terminal punctuation) joins the pending chunk;
// the pending chunk is flushed once it reaches the minimum size, so short
// sentences ride along with the next one instead of paying synthesis startup
// latency on their own. Whatever remains at end of input is flushed even
// without terminal punctuation.
func (s *sentenceSegmenter) Run(source iter.Seq[string], cancelled func() bool) {
	s.emitEvent(events.NewSpeechTextStarted())
	defer s.emitEvent(events.NewSpeechTextEnded())
	defer s.queue.Finish()

	var sentence []rune
	var pending []rune

sourceLoop:
	for fragment := range source {
		if cancelled() {
			break sourceLoop
		}
		for _, character := range fragment {
			s.emitEvent(events.NewCharacterRevealed(character))
			sentence = append(sentence, character)
			if !strings.ContainsRune(s.endPunctuation, character) {
				continue
			}

			pending = append(pending, sentence...)
			sentence = sentence[:0]
			if len(pending) >= s.minChunkSize {
				s.flush(&pending)
			}
		}
	}

	if cancelled() {
		return
	}

	pending = append(pending, sentence...)
	s.flush(&pending)
}

func (s *sentenceSegmenter) flush(pending *[]rune) {
	content := strings.TrimSpace(string(*pending))
	*pending = (*pending)[:0]
	if content == "" {
		return
	}

	s.queue.Push(textUnit{sequenceID: s.nextSequenceID, content: content})
	s.nextSequenceID++
}
