package usecase

import "github.com/VictoriaMetrics/metrics"

var (
	eventsUnroutableCounter  = metrics.NewCounter(`events_unroutable_total`)
	errorsReportedCounter    = metrics.NewCounter(`errors_reported_total`)
	notificationsSentCounter = metrics.NewCounter(`notifications_sent_total`)
	mappingCacheHitCounter   = metrics.NewCounter(`mapping_cache_lookups_total{status="hit"}`)
	mappingCacheMissCounter  = metrics.NewCounter(`mapping_cache_lookups_total{status="miss"}`)

	eventsReceivedCounter = func(event, action string) *metrics.Counter {
		return metrics.GetOrCreateCounter(`events_received_total{event="` + event + `",action="` + action + `"}`)
	}
	messagesPostedCounter = func(kind string) *metrics.Counter {
		return metrics.GetOrCreateCounter(`messages_posted_total{kind="` + kind + `"}`)
	}
)
