package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ava-core/core/audio"
)

// CaptureDevice invokes the registered frame callback from the device's
// capture cadence. The callback must not block and must not retain the frame
// slice; the driver reuses it.
type CaptureDevice struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig
	encodingInfo audio.EncodingInfo

	onAudio func(audio []byte)

	mu sync.Mutex
}

func (d *CaptureDevice) Init(audioContext *malgo.AllocatedContext) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sampleRate := uint32(d.encodingInfo.SampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	d.config = malgo.DefaultDeviceConfig(malgo.Capture)
	d.config.SampleRate = sampleRate
	d.config.Capture.Format = format
	d.config.Capture.Channels = uint32(channels)
	d.config.Alsa.NoMMap = 1
	d.config.PerformanceProfile = malgo.LowLatency
	d.config.PeriodSizeInFrames = 480
	d.config.Periods = 3

	d.audioContext = audioContext

	var err error
	d.device, err = malgo.InitDevice(d.audioContext.Context, d.config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			if d.onAudio != nil {
				d.onAudio(pInput[:n])
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	return nil
}

func (d *CaptureDevice) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return fmt.Errorf("device not initialized")
	} else if d.device.IsStarted() {
		return nil
	}

	d.onAudio = onAudio
	if err := d.device.Start(); err != nil {
		d.onAudio = nil
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	return nil
}

func (d *CaptureDevice) StopCapture() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !d.device.IsStarted() {
		return nil
	}

	if err := d.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}

	d.onAudio = nil
	return nil
}

func (d *CaptureDevice) EncodingInfo() audio.EncodingInfo {
	return d.encodingInfo
}

func (d *CaptureDevice) Uninit() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.device != nil {
		d.device.Uninit()
		d.device = nil
	}

	d.onAudio = nil
	return nil
}
