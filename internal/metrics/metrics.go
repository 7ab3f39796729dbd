// Package metrics holds the prometheus collectors exported on /metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "invoice_api"

var (
	// BackendFallbacks counts data access requests that wanted the managed
	// backend but got the local emulation store because none was configured
	BackendFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_fallbacks_total",
		Help:      "Managed backend requests served by the local emulation store.",
	})

	PayloadDeleteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payload_delete_failures_total",
		Help:      "Invoice PDF deletions that failed and were skipped.",
	}, []string{"backend"})

	UploadsIncomplete = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_incomplete_total",
		Help:      "Invoices left without a PDF because the upload or patch step failed.",
	}, []string{"backend"})

	ShareLinksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "share_links_created_total",
		Help:      "Share links minted.",
	})

	// ShareLinkResolutions is labelled by result, "ok" or "not_found"
	ShareLinkResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "share_link_resolutions_total",
		Help:      "Share link lookups by outcome.",
	}, []string{"result"})

	ShareLinksCollected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "share_links_collected_total",
		Help:      "Expired share links removed by the cleanup job.",
	})
)
