package speech

import "sync"

// textUnit is one sentence-or-larger chunk of text ready for synthesis.
// Sequence IDs are strictly increasing with no gaps, starting at 1.
type textUnit struct {
	sequenceID uint64
	content    string
}

// textUnitQueue hands text units from segmentation to synthesis in order.
// Push never blocks; Units blocks until a unit is available or the queue is
// finished or cleared.
type textUnitQueue struct {
	mu     sync.Mutex
	signal *sync.Cond

	units    []textUnit
	consumed int
	done     bool
}

func newTextUnitQueue() *textUnitQueue {
	q := &textUnitQueue{}
	q.signal = sync.NewCond(&q.mu)
	return q
}

func (q *textUnitQueue) Push(unit textUnit) {
	q.mu.Lock()
	q.units = append(q.units, unit)
	q.mu.Unlock()
	q.signal.Broadcast()
}

// Finish marks the end of input. Units returns once all pushed units are
// consumed.
func (q *textUnitQueue) Finish() {
	q.mu.Lock()
	q.done = true
	q.mu.Unlock()
	q.signal.Broadcast()
}

// Clear drops all pending units and wakes blocked consumers. Used on
// cancellation so stop latency stays low.
func (q *textUnitQueue) Clear() {
	q.mu.Lock()
	q.units = nil
	q.consumed = 0
	q.done = true
	q.mu.Unlock()
	q.signal.Broadcast()
}

// Units yields queued units in push order until Finish has been observed and
// the queue is drained.
func (q *textUnitQueue) Units(yield func(textUnit) bool) {
	for {
		q.mu.Lock()
		for q.consumed == len(q.units) && !q.done {
			q.signal.Wait()
		}
		if q.consumed == len(q.units) {
			q.mu.Unlock()
			return
		}
		unit := q.units[q.consumed]
		q.consumed++
		q.mu.Unlock()

		if !yield(unit) {
			return
		}
	}
}

type audioUnitKind int

const (
	audioUnitSpeech audioUnitKind = iota
	audioUnitSilence
	// audioUnitSentinel marks end of stream so playback drains instead of
	// blocking forever.
	audioUnitSentinel
)

// audioUnit is one chunk of PCM (speech or inter-sentence silence) ready for
// playback. Silence units share the sequence ID of the speech unit they
// trail.
type audioUnit struct {
	sequenceID uint64
	kind       audioUnitKind
	pcm        []byte
}

// audioUnitQueue is the bounded queue between synthesis and playback. Push
// blocks while the queue is full, which backpressures synthesis instead of
// buffering a whole utterance in memory.
type audioUnitQueue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	units    []audioUnit
	capacity int
	closed   bool
}

func newAudioUnitQueue(capacity int) *audioUnitQueue {
	q := &audioUnitQueue{capacity: capacity}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Push enqueues a unit, blocking while the queue is full. It reports false
// once the queue is closed; the unit is dropped in that case.
func (q *audioUnitQueue) Push(unit audioUnit) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.units) >= q.capacity && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return false
	}

	q.units = append(q.units, unit)
	q.notEmpty.Signal()
	return true
}

// Pop dequeues the oldest unit, blocking while the queue is empty. It
// reports false once the queue is closed.
func (q *audioUnitQueue) Pop() (audioUnit, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.units) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.closed {
		return audioUnit{}, false
	}

	unit := q.units[0]
	q.units = q.units[1:]
	q.notFull.Signal()
	return unit, true
}

// Units yields units in FIFO order until the queue is closed. The sequence
// ID order of speech units matches segmentation order regardless of
// synthesis latency, because a single worker feeds the queue.
func (q *audioUnitQueue) Units(yield func(audioUnit) bool) {
	for {
		unit, ok := q.Pop()
		if !ok {
			return
		}
		if !yield(unit) {
			return
		}
	}
}

func (q *audioUnitQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.units)
}

// Close discards all queued units and unblocks every producer and consumer.
// Idempotent.
func (q *audioUnitQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.units = nil
	q.mu.Unlock()
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}
