// Package internaldefs holds the metric names, help strings and bucket
// bounds shared by the Prometheus and OTel exporters.
//
// It must not perform I/O or import an exporter package.
package internaldefs
