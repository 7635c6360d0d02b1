package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var FederationRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "datapkg_federation_requests_total",
}, []string{"host", "action", "method"})
var FederationResponses = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "datapkg_federation_responses_total",
}, []string{"host", "action", "method", "statusCode"})
var FederationResponseTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name: "datapkg_federation_response_time_seconds",
}, []string{"host", "action", "method"})
var ResolveFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "datapkg_resolve_fallbacks_total",
}, []string{"outcome"})
var ObsolescenceHops = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "datapkg_obsolescence_hops_total",
})
var CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "datapkg_cache_hits_total",
}, []string{"cache"})
var CacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "datapkg_cache_misses_total",
}, []string{"cache"})
var MembersDownloaded = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "datapkg_members_downloaded_total",
}, []string{"kind"})
var BytesDownloaded = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "datapkg_bytes_downloaded_total",
})
var ObjectsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "datapkg_objects_published_total",
}, []string{"kind", "operation"})
var PublishFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "datapkg_publish_failures_total",
}, []string{"kind"})
var S3Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "datapkg_s3_operations_total",
}, []string{"operation"})

func init() {
	prometheus.MustRegister(FederationRequests)
	prometheus.MustRegister(FederationResponses)
	prometheus.MustRegister(FederationResponseTime)
	prometheus.MustRegister(ResolveFallbacks)
	prometheus.MustRegister(ObsolescenceHops)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(MembersDownloaded)
	prometheus.MustRegister(BytesDownloaded)
	prometheus.MustRegister(ObjectsPublished)
	prometheus.MustRegister(PublishFailures)
	prometheus.MustRegister(S3Operations)
}
