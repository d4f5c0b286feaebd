// Package miniaudio provides the malgo-backed audio device: a playback side
// fed by the speech pipeline and a capture side feeding transcription.
package miniaudio

import (
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ava-core/core/audio"
)

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext

	playback PlaybackDevice
	capture  CaptureDevice
}

type ClientOption func(*Client)

// WithPlaybackEncoding sets the playback device's sample format. Defaults to
// the synthesis encoding (32 kHz linear16 mono).
func WithPlaybackEncoding(encodingInfo audio.EncodingInfo) ClientOption {
	return func(c *Client) {
		if !encodingInfo.IsZero() {
			c.playback.encodingInfo = encodingInfo
		}
	}
}

// WithCaptureEncoding sets the capture device's sample format. Defaults to
// the capture encoding (16 kHz linear16 mono).
func WithCaptureEncoding(encodingInfo audio.EncodingInfo) ClientOption {
	return func(c *Client) {
		if !encodingInfo.IsZero() {
			c.capture.encodingInfo = encodingInfo
		}
	}
}

func NewClient(opts ...ClientOption) (*Client, error) {
	client := Client{}
	client.playback.encodingInfo = audio.GetDefaultSynthesisEncodingInfo()
	client.capture.encodingInfo = audio.GetDefaultCaptureEncodingInfo()
	for _, opt := range opts {
		opt(&client)
	}

	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	client.audioContext = audioCtx

	if err := client.playback.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}
	if err := client.playback.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	if err := client.capture.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}

	return &client, nil
}

// Playback returns the output half of the device.
func (c *Client) Playback() *PlaybackDevice {
	return &c.playback
}

// Capture returns the input half of the device.
func (c *Client) Capture() *CaptureDevice {
	return &c.capture
}

func (c *Client) Close() {
	_ = c.capture.Uninit()
	_ = c.playback.Uninit()
	if c.audioContext != nil {
		_ = c.audioContext.Uninit()
		c.audioContext.Free()
		c.audioContext = nil
	}
}
