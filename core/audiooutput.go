package speech

import (
	"reflect"

	"github.com/koscakluka/ava-core/core/audio"
)

// audioOutput wraps the configured output device behind a nil-safe facade so
// the playback loop never branches on whether a device is present. Without a
// configured device audio is dropped, which keeps the rest of the pipeline
// (events, loudness, pacing) exercisable without hardware.
type audioOutput struct {
	client AudioOutput
}

func newAudioOutput(client AudioOutput) *audioOutput {
	output := audioOutput{}
	output.Set(client)
	return &output
}

// Set replaces the configured device. Nil and typed-nil clients are treated
// as unconfigured.
func (a *audioOutput) Set(client AudioOutput) {
	if a == nil {
		return
	}

	if isNilAudioOutput(client) {
		a.client = nil
		return
	}
	a.client = client
}

func (a *audioOutput) isConfigured() bool {
	return a != nil && a.client != nil
}

func (a *audioOutput) SendAudio(audio []byte) error {
	if !a.isConfigured() {
		return nil
	}

	return a.client.SendAudio(audio)
}

func (a *audioOutput) Clear() {
	if !a.isConfigured() {
		return
	}

	a.client.ClearBuffer()
}

// EncodingInfo returns the device's encoding, or the synthesis default when
// no device is configured.
func (a *audioOutput) EncodingInfo() audio.EncodingInfo {
	if !a.isConfigured() {
		return audio.GetDefaultSynthesisEncodingInfo()
	}

	if info := a.client.EncodingInfo(); !info.IsZero() {
		return info
	}
	return audio.GetDefaultSynthesisEncodingInfo()
}

// Close releases the device if it exposes any of the common close shapes.
func (a *audioOutput) Close() error {
	if !a.isConfigured() {
		return nil
	}

	switch c := a.client.(type) {
	case interface{ Close() error }:
		return c.Close()
	case interface{ Close() }:
		c.Close()
	}
	return nil
}

// isNilAudioOutput detects nil and typed-nil interface values so Set does not
// store unusable interface wrappers as configured clients.
func isNilAudioOutput(client AudioOutput) bool {
	if client == nil {
		return true
	}

	v := reflect.ValueOf(client)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
