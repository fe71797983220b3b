// Package metrics exposes the job store's state in the Prometheus text
// format. Metric families are built from store.Stats on every scrape and
// encoded with prometheus/common/expfmt; there is no global registry.
//
//	jobtrack_jobs{status}                 gauge
//	jobtrack_events_total                 counter
//	jobtrack_events_rejected_total        counter
//	jobtrack_events_ignored_total         counter
//	jobtrack_sweeps_total                 counter
//	jobtrack_jobs_expired_total           counter
//	jobtrack_persist_total                counter
//	jobtrack_persist_failures_total       counter
package metrics
