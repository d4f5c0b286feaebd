package audio

import (
	"testing"
	"time"
)

func TestBytesAlignsToWholeSamples(t *testing.T) {
	info := EncodingInfo{SampleRate: 32000, Format: EncodingLinear16}

	if n := info.Bytes(100 * time.Millisecond); n != 6400 {
		t.Fatalf("expected 6400 bytes for 100ms at 32kHz linear16, got %d", n)
	}
	if n := info.Bytes(100 * time.Millisecond); n%2 != 0 {
		t.Fatalf("expected sample-aligned byte count, got %d", n)
	}

	odd := EncodingInfo{SampleRate: 16000, Format: EncodingLinear16}
	if n := odd.Bytes(time.Millisecond * 1); n%2 != 0 {
		t.Fatalf("expected sample-aligned byte count, got %d", n)
	}
}

func TestDurationInvertsBytes(t *testing.T) {
	info := EncodingInfo{SampleRate: 32000, Format: EncodingLinear16}
	if d := info.Duration(6400); d != 100*time.Millisecond {
		t.Fatalf("expected 100ms for 6400 bytes, got %v", d)
	}
}

func TestSilenceValuePerFormat(t *testing.T) {
	cases := []struct {
		format   encodingFormat
		expected byte
	}{
		{EncodingLinear16, 0},
		{EncodingMulaw, 0xFF},
		{EncodingALaw, 0x55},
	}
	for _, c := range cases {
		info := EncodingInfo{SampleRate: 8000, Format: c.format}
		if v := info.SilenceValue(); v != c.expected {
			t.Fatalf("expected silence value %#x for %s, got %#x", c.expected, c.format.Name(), v)
		}
	}
}

func TestIsZero(t *testing.T) {
	if (EncodingInfo{}).IsZero() != true {
		t.Fatal("expected empty encoding info to be zero")
	}
	if GetDefaultCaptureEncodingInfo().IsZero() {
		t.Fatal("expected default capture encoding info to not be zero")
	}
}
