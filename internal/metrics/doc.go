// Package metrics exposes crawl progress as Prometheus metrics.
//
// A Collector is a crawler.Observer backed by its own registry, so several
// collectors can coexist in one process (and in parallel tests). After a
// crawl the registry can be written in the text exposition format for the
// node exporter's textfile collector.
package metrics
