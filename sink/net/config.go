// Package net implements the TCP/syslog-TCP sink with OS-aware
// send-queue backoff: watch how full the kernel send buffer is and slow
// down before it fills completely.
package net

import "time"

// Backoff/probe/drain constants.
const (
	SendqBackoffHighPct = 60
	SendqBackoffSleep   = 2 * time.Millisecond
	SendqProbeStride    = 32
	TCPDrainPoll        = 10 * time.Millisecond

	BackoffSmallBypassBytes = 1024
	BackoffSmallProbeGate   = time.Millisecond
	BackoffLargeProbeGate   = time.Millisecond

	SmallStrideBaseDiv  = 16
	SmallStrideMinBytes = 64 * 1024
	SmallStrideMaxBytes = 256 * 1024
	LargeStrideMinBytes = 16 * 1024

	EmergPct400B  = 30
	EmergPct1K    = 50
	EmergPct2K    = 60
	EmergPctOther = 80
	EmergencySleep = 2 * time.Millisecond

	ReconnectMin = 100 * time.Millisecond
	ReconnectMax = 5 * time.Second

	DrainDeadline = 5 * time.Second
)

// SmallProbeStride computes the byte stride between send-queue probes
// for small packets: clamp(cap/16, [64KiB, 256KiB]).
func SmallProbeStride(sndbufCap int) int {
	base := sndbufCap / SmallStrideBaseDiv
	if base > SmallStrideMaxBytes {
		base = SmallStrideMaxBytes
	}
	if base < SmallStrideMinBytes {
		base = SmallStrideMinBytes
	}
	return base
}

// LargeProbeStride computes the byte stride for medium/large packets:
// max(cap/16, avg*16, 16KiB).
func LargeProbeStride(sndbufCap, avg int) int {
	capStride := sndbufCap / SmallStrideBaseDiv
	avgStride := avg * SmallStrideBaseDiv
	stride := capStride
	if avgStride > stride {
		stride = avgStride
	}
	if stride < LargeStrideMinBytes {
		stride = LargeStrideMinBytes
	}
	return stride
}

// IsProbeTickDue reports whether sentCnt lands on a probe stride
// boundary.
func IsProbeTickDue(sentCnt uint64) bool {
	return sentCnt%SendqProbeStride == 0
}

// EmergencyPctFor selects the emergency water threshold bracket for the
// given average write length.
func EmergencyPctFor(avgLen int) int {
	switch {
	case avgLen <= 400:
		return EmergPct400B
	case avgLen <= 1024:
		return EmergPct1K
	case avgLen <= 2048:
		return EmergPct2K
	default:
		return EmergPctOther
	}
}

// AdaptiveCfg tracks the hysteresis-based backoff sleep duration,
// stepping 1ms toward [0,8]ms as the observed fill percentage drifts
// above/below the target band.
type AdaptiveCfg struct {
	TargetPct   int
	Hysteresis  int
	MinSleep    time.Duration
	MaxSleep    time.Duration
	Step        time.Duration
	CurrentSleep time.Duration
}

func DefaultAdaptiveCfg() AdaptiveCfg {
	return AdaptiveCfg{TargetPct: 30, Hysteresis: 5, MinSleep: 0, MaxSleep: 8 * time.Millisecond, Step: time.Millisecond}
}

// BackpressureCfg is a sink's backoff policy: either fixed (sleep a
// constant duration once pct crosses HighWaterPct) or adaptive.
type BackpressureCfg struct {
	HighWaterPct int
	Sleep        time.Duration
	Adaptive     *AdaptiveCfg
}

func DefaultBackpressureCfg() BackpressureCfg {
	return BackpressureCfg{HighWaterPct: SendqBackoffHighPct, Sleep: SendqBackoffSleep}
}

func AdaptiveBackpressureCfg() BackpressureCfg {
	ad := DefaultAdaptiveCfg()
	return BackpressureCfg{HighWaterPct: SendqBackoffHighPct, Adaptive: &ad}
}

// AutoSleep returns the sleep duration to apply before the next write,
// given the current fill percentage, mutating the adaptive state's
// current sleep if adaptive mode is active.
func (c *BackpressureCfg) AutoSleep(pct int) time.Duration {
	if c.Adaptive != nil {
		ad := c.Adaptive
		hi := ad.TargetPct + ad.Hysteresis
		lo := ad.TargetPct - ad.Hysteresis
		switch {
		case pct > hi:
			ad.CurrentSleep += ad.Step
			if ad.CurrentSleep > ad.MaxSleep {
				ad.CurrentSleep = ad.MaxSleep
			}
		case pct < lo:
			ad.CurrentSleep -= ad.Step
			if ad.CurrentSleep < ad.MinSleep {
				ad.CurrentSleep = ad.MinSleep
			}
		}
		c.Sleep = ad.CurrentSleep
		return ad.CurrentSleep
	}
	if pct >= c.HighWaterPct && c.Sleep > 0 {
		return c.Sleep
	}
	return 0
}
