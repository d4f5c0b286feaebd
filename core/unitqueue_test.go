package speech

import (
	"testing"
	"time"
)

func TestTextUnitQueueYieldsInPushOrder(t *testing.T) {
	queue := newTextUnitQueue()
	queue.Push(textUnit{sequenceID: 1, content: "First."})
	queue.Push(textUnit{sequenceID: 2, content: "Second."})
	queue.Finish()

	units := collectTextUnits(queue)
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].content != "First." || units[1].content != "Second." {
		t.Fatalf("expected push order preserved, got %v", units)
	}
}

func TestTextUnitQueueClearWakesConsumer(t *testing.T) {
	queue := newTextUnitQueue()

	drained := make(chan int, 1)
	go func() {
		drained <- len(collectTextUnits(queue))
	}()

	queue.Clear()

	select {
	case count := <-drained:
		if count != 0 {
			t.Fatalf("expected no units after clear, got %d", count)
		}
	case <-time.After(time.Second):
		t.Fatal("expected clear to wake the blocked consumer")
	}
}

func TestAudioUnitQueuePreservesOrder(t *testing.T) {
	queue := newAudioUnitQueue(4)
	queue.Push(audioUnit{sequenceID: 1, kind: audioUnitSpeech})
	queue.Push(audioUnit{sequenceID: 1, kind: audioUnitSilence})
	queue.Push(audioUnit{sequenceID: 2, kind: audioUnitSpeech})

	for _, expected := range []audioUnitKind{audioUnitSpeech, audioUnitSilence, audioUnitSpeech} {
		unit, ok := queue.Pop()
		if !ok {
			t.Fatal("expected unit, got closed queue")
		}
		if unit.kind != expected {
			t.Fatalf("expected kind %d, got %d", expected, unit.kind)
		}
	}
}

func TestAudioUnitQueuePushBlocksAtCapacity(t *testing.T) {
	queue := newAudioUnitQueue(1)
	queue.Push(audioUnit{sequenceID: 1})

	pushed := make(chan bool, 1)
	go func() {
		pushed <- queue.Push(audioUnit{sequenceID: 2})
	}()

	select {
	case <-pushed:
		t.Fatal("expected push to block while the queue is full")
	case <-time.After(50 * time.Millisecond):
	}

	if _, ok := queue.Pop(); !ok {
		t.Fatal("expected pop to succeed")
	}

	select {
	case ok := <-pushed:
		if !ok {
			t.Fatal("expected unblocked push to succeed")
		}
	case <-time.After(time.Second):
		t.Fatal("expected pop to unblock the pending push")
	}
}

func TestAudioUnitQueueCloseUnblocksProducerAndConsumer(t *testing.T) {
	queue := newAudioUnitQueue(1)
	queue.Push(audioUnit{sequenceID: 1})

	pushResult := make(chan bool, 1)
	go func() {
		pushResult <- queue.Push(audioUnit{sequenceID: 2})
	}()

	popResult := make(chan bool, 1)
	go func() {
		empty := newAudioUnitQueue(1)
		empty.Close()
		_, ok := empty.Pop()
		popResult <- ok
	}()

	queue.Close()

	select {
	case ok := <-pushResult:
		if ok {
			t.Fatal("expected push on closed queue to report false")
		}
	case <-time.After(time.Second):
		t.Fatal("expected close to unblock the pending push")
	}

	select {
	case ok := <-popResult:
		if ok {
			t.Fatal("expected pop on closed queue to report false")
		}
	case <-time.After(time.Second):
		t.Fatal("expected close to unblock the blocked pop")
	}

	if queue.Len() != 0 {
		t.Fatalf("expected closed queue to be empty, got %d units", queue.Len())
	}
}
