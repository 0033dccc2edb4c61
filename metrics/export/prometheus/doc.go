// Package prometheus renders authgate metrics in Prometheus text
// exposition format without importing the Prometheus client library.
// The exporter reads immutable snapshots, so scrapes never contend with
// the Manager's hot paths.
package prometheus
