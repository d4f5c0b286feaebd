package audio

import (
	"bytes"
	"testing"
)

func wavHeader() []byte {
	header := make([]byte, wavHeaderSize)
	copy(header[0:4], "RIFF")
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	return header
}

func TestTrimWAVHeader(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	chunk := append(wavHeader(), pcm...)

	trimmed := TrimWAVHeader(chunk)
	if !bytes.Equal(trimmed, pcm) {
		t.Fatalf("Expected header to be stripped, got %v", trimmed)
	}
}

func TestTrimWAVHeaderPassthrough(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}

	trimmed := TrimWAVHeader(pcm)
	if !bytes.Equal(trimmed, pcm) {
		t.Fatalf("Expected raw PCM to pass through unchanged, got %v", trimmed)
	}
}

func TestTrimWAVHeaderShortChunk(t *testing.T) {
	chunk := []byte("RIFF")

	trimmed := TrimWAVHeader(chunk)
	if !bytes.Equal(trimmed, chunk) {
		t.Fatalf("Expected short chunk to pass through unchanged, got %v", trimmed)
	}
}
