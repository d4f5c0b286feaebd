// Package portaudio provides an alternative audio device backed by a single
// duplex PortAudio stream. Both halves run at one sample rate, so it suits
// setups where capture and playback share an encoding.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ava-core/core/audio"
)

type Client struct {
	bufferSize   int
	encodingInfo audio.EncodingInfo
	stream       *portaudio.Stream

	leftoverAudio []byte
	capturing     atomic.Bool

	in  []int16
	out []int16
}

type ClientOption func(*Client)

func WithEncodingInfo(encodingInfo audio.EncodingInfo) ClientOption {
	return func(c *Client) {
		if !encodingInfo.IsZero() {
			c.encodingInfo = encodingInfo
		}
	}
}

func NewClient(bufferSize int, opts ...ClientOption) (*Client, error) {
	client := &Client{
		bufferSize:   bufferSize,
		encodingInfo: audio.GetDefaultCaptureEncodingInfo(),
	}
	for _, opt := range opts {
		opt(client)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	client.in = make([]int16, bufferSize)
	client.out = make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 1, float64(client.encodingInfo.SampleRate), bufferSize, client.in, client.out)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	client.stream = stream

	return client, nil
}

// StartCapture starts the stream and pumps captured frames to the callback
// from a background loop until the context is cancelled or StopCapture is
// called.
func (c *Client) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	if !c.capturing.CompareAndSwap(false, true) {
		return nil
	}

	if err := c.stream.Start(); err != nil {
		c.capturing.Store(false)
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if !c.capturing.Load() {
				return
			}

			if err := c.stream.Read(); err != nil {
				log.Printf("Failed to read from portaudio stream: %v", err)
				continue
			}

			audioBuffer := bytes.Buffer{}
			_ = binary.Write(&audioBuffer, binary.LittleEndian, c.in)
			onAudio(audioBuffer.Bytes())
		}
	}()

	return nil
}

func (c *Client) StopCapture() error {
	if !c.capturing.CompareAndSwap(true, false) {
		return nil
	}

	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop portaudio stream: %w", err)
	}
	return nil
}

// SendAudio writes PCM to the output half in bufferSize batches, carrying any
// remainder over to the next call.
func (c *Client) SendAudio(pcm []byte) error {
	batchBytes := c.bufferSize * c.encodingInfo.Format.ByteSize()

	pcm = append(c.leftoverAudio, pcm...)
	for len(pcm) >= batchBytes {
		batch := pcm[:batchBytes]
		pcm = pcm[batchBytes:]

		if err := binary.Read(bytes.NewReader(batch), binary.LittleEndian, c.out); err != nil {
			return fmt.Errorf("failed to stage playback audio: %w", err)
		}
		if err := c.stream.Write(); err != nil {
			return fmt.Errorf("failed to write to portaudio stream: %w", err)
		}
	}

	c.leftoverAudio = make([]byte, len(pcm))
	copy(c.leftoverAudio, pcm)
	return nil
}

func (c *Client) ClearBuffer() {
	c.leftoverAudio = nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return c.encodingInfo
}

func (c *Client) Close() {
	c.capturing.Store(false)
	_ = c.stream.Close()
	_ = portaudio.Terminate()
}
