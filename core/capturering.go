package speech

import "sync"

// captureRing buffers raw PCM frames between the audio driver's capture
// callback and the sender loop. Append never blocks: on overflow the oldest
// frame is dropped, because stalling the audio driver is worse than losing a
// stale frame.
type captureRing struct {
	mu sync.Mutex

	frames   [][]byte
	capacity int
	dropped  uint64
}

func newCaptureRing(capacity int) *captureRing {
	return &captureRing{capacity: capacity}
}

// Append copies the frame into the ring. The copy matters: capture drivers
// reuse the callback buffer.
func (r *captureRing) Append(frame []byte) {
	if len(frame) == 0 {
		return
	}

	buffered := make([]byte, len(frame))
	copy(buffered, frame)

	r.mu.Lock()
	if len(r.frames) >= r.capacity {
		r.frames = r.frames[1:]
		r.dropped++
	}
	r.frames = append(r.frames, buffered)
	r.mu.Unlock()
}

// Drain atomically concatenates and clears all buffered frames.
func (r *captureRing) Drain() []byte {
	r.mu.Lock()
	frames := r.frames
	r.frames = nil
	r.mu.Unlock()

	if len(frames) == 0 {
		return nil
	}

	total := 0
	for _, frame := range frames {
		total += len(frame)
	}
	drained := make([]byte, 0, total)
	for _, frame := range frames {
		drained = append(drained, frame...)
	}
	return drained
}

func (r *captureRing) Clear() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}

func (r *captureRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Dropped reports how many frames overflow has discarded since creation.
func (r *captureRing) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
