// Package metrics exposes tenant pipeline outcomes to Prometheus.
//
// Collector implements tenancy.Observer; pass it with tenancy.WithObserver
// and mount Handler on /metrics:
//
//	collector, err := metrics.New(nil)
//	mgr, err := tenancy.New(cfg, store, domains, tenancy.WithObserver(collector))
//	r.Handle("/metrics", collector.Handler())
//
// Rejections are labelled with tenancy.ErrorKind, so the label set is small
// and fixed. Tenant ids are deliberately not used as labels.
package metrics
