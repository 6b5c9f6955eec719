package roomrent

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	// MetricRegisterSuccess counts accounts created by Register.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterDuplicate counts registrations rejected because the email exists.
	MetricRegisterDuplicate
	// MetricVerificationSuccess counts confirmed email verifications.
	MetricVerificationSuccess
	// MetricVerificationFailure counts rejected verification confirmations.
	MetricVerificationFailure
	// MetricLoginSuccess counts credentials issued by Login.
	MetricLoginSuccess
	// MetricLoginFailure counts logins rejected for an unknown account or bad password.
	MetricLoginFailure
	// MetricLoginUnverified counts logins rejected because the email is unverified.
	MetricLoginUnverified
	// MetricPasswordUpgraded counts stored hashes re-encoded on login.
	MetricPasswordUpgraded
	// MetricRecoveryRequest counts accepted recovery requests, including unknown emails.
	MetricRecoveryRequest
	// MetricRecoveryRateLimited counts recovery requests and OTP checks refused by the limiter.
	MetricRecoveryRateLimited
	// MetricRecoveryDeliveryFailure counts OTP emails that could not be delivered.
	MetricRecoveryDeliveryFailure
	// MetricOTPVerifySuccess counts OTPs exchanged for a reset token.
	MetricOTPVerifySuccess
	// MetricOTPVerifyFailure counts OTP mismatches.
	MetricOTPVerifyFailure
	// MetricOTPLockout counts OTPs invalidated after too many mismatches.
	MetricOTPLockout
	// MetricPasswordResetSuccess counts passwords reset with an exchange token.
	MetricPasswordResetSuccess
	// MetricPasswordResetFailure counts rejected reset attempts.
	MetricPasswordResetFailure
	// MetricPasswordChangeSuccess counts authenticated password changes.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeFailure counts rejected password changes.
	MetricPasswordChangeFailure
	// MetricNotificationFailure counts asynchronous notifications that failed to send.
	MetricNotificationFailure
	// MetricAuthenticateFailure counts bearer credentials rejected by Authenticate.
	MetricAuthenticateFailure
	// MetricAuthenticateLatency is the latency histogram for Authenticate.
	MetricAuthenticateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and latency histograms. A disabled or nil
// Metrics ignores all updates.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all metric values.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics builds a Metrics from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram id. Only latency metrics accept
// observations.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricAuthenticateLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricAuthenticateLatency].buckets[i])
		}
		s.Histograms[MetricAuthenticateLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
