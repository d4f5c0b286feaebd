package audio

import "bytes"

const wavHeaderSize = 44

// TrimWAVHeader strips the canonical 44 byte RIFF/WAVE header from a chunk of
// audio, if present, leaving only raw PCM. Chunks that do not start with a
// RIFF marker are returned unchanged.
func TrimWAVHeader(chunk []byte) []byte {
	if len(chunk) < wavHeaderSize {
		return chunk
	}
	if !bytes.Equal(chunk[0:4], []byte("RIFF")) || !bytes.Equal(chunk[8:12], []byte("WAVE")) {
		return chunk
	}
	return chunk[wavHeaderSize:]
}
