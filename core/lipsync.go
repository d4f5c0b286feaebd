package speech

// lipSyncSmoother turns raw loudness into a mouth-openness value in [0, 1].
// RMS is normalized against maxRMSScale and mapped quadratically so quiet
// audio barely moves the mouth while loud speech opens it fully, then
// exponentially smoothed so the value does not flicker frame to frame.
//
// Single writer: the playback loop. No locking.
type lipSyncSmoother struct {
	silenceThreshold float32
	maxRMSScale      float32
	mouthScale       float32
	smoothingFactor  float32

	value float32
}

func newLipSyncSmoother() *lipSyncSmoother {
	return &lipSyncSmoother{
		silenceThreshold: 0,
		maxRMSScale:      0.1,
		mouthScale:       1.0,
		smoothingFactor:  0.3,
	}
}

func (l *lipSyncSmoother) Update(rms float32) float32 {
	normalized := (rms - l.silenceThreshold) / l.maxRMSScale
	if normalized < 0 {
		normalized = 0
	}

	mapped := normalized * normalized
	if mapped > 1 {
		mapped = 1
	}
	mapped *= l.mouthScale

	l.value = l.smoothingFactor*mapped + (1-l.smoothingFactor)*l.value
	return l.value
}

func (l *lipSyncSmoother) Reset() {
	l.value = 0
}
