package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ava-core/core/audio"
)

// PlaybackDevice buffers queued PCM and feeds it to the device's data
// callback. SendAudio only appends; the device pulls at its own cadence.
type PlaybackDevice struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig
	encodingInfo audio.EncodingInfo

	leftoverAudio []byte

	mu      sync.Mutex
	audioMu sync.Mutex
}

func (d *PlaybackDevice) Init(audioContext *malgo.AllocatedContext) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sampleRate := uint32(d.encodingInfo.SampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	d.config = malgo.DefaultDeviceConfig(malgo.Playback)
	d.config.SampleRate = sampleRate
	d.config.Playback.Format = format
	d.config.Playback.Channels = uint32(channels)
	d.config.Alsa.NoMMap = 1
	d.config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	d.config.Periods = 4

	d.audioContext = audioContext

	var err error
	if d.device, err = malgo.InitDevice(
		d.audioContext.Context,
		d.config,
		malgo.DeviceCallbacks{Data: d.processAudio(bytesPerFrame)},
	); err != nil {
		return err
	}

	return nil
}

func (d *PlaybackDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := d.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (d *PlaybackDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := d.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}

	d.ClearBuffer()
	return nil
}

func (d *PlaybackDevice) SendAudio(audio []byte) error {
	if d.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !d.device.IsStarted() {
		return fmt.Errorf("device not started")
	}

	d.audioMu.Lock()
	defer d.audioMu.Unlock()
	d.leftoverAudio = append(d.leftoverAudio, audio...)
	return nil
}

func (d *PlaybackDevice) ClearBuffer() {
	d.audioMu.Lock()
	defer d.audioMu.Unlock()
	d.leftoverAudio = make([]byte, 0)
}

func (d *PlaybackDevice) EncodingInfo() audio.EncodingInfo {
	return d.encodingInfo
}

func (d *PlaybackDevice) Uninit() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device == nil {
		return fmt.Errorf("device not initialized")
	}

	d.device.Uninit()
	d.device = nil

	return nil
}

func (d *PlaybackDevice) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		d.audioMu.Lock()
		defer d.audioMu.Unlock()

		if len(d.leftoverAudio) == 0 {
			return
		}

		if len(d.leftoverAudio) < need {
			_ = copy(pOutput, d.leftoverAudio)
			d.leftoverAudio = nil
			return
		}

		_ = copy(pOutput, d.leftoverAudio[:need])
		d.leftoverAudio = d.leftoverAudio[need:]
	}
}
