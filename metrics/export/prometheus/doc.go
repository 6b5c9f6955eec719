// Package prometheus renders roomrent engine metrics in the Prometheus text
// exposition format.
//
// Counter names are prefixed roomrent_ and end in _total. The single
// histogram is roomrent_authenticate_latency_seconds. Nothing is registered
// globally; callers mount Handler.
package prometheus
