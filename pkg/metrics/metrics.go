// Package metrics exposes Prometheus collectors for HTTP traffic and image processing.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Image kinds used as label values.
const (
	KindCover   = "cover"
	KindGallery = "gallery"
	KindSingle  = "single"
	KindAvatar  = "avatar"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "HTTP requests by path, method and status."},
		[]string{"path", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request latency in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"path", "method"},
	)
	ImageUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "image_uploads_total", Help: "Object store image uploads by kind and result."},
		[]string{"kind", "result"},
	)
	ImageTranscode = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "image_transcode_seconds", Help: "Time spent re-encoding images to WebP.", Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5}},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPLatency, ImageUploads, ImageTranscode)
}

// Handler records request count and latency per route.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPLatency.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
		HTTPRequests.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Exposer serves the default registry.
func Exposer() gin.HandlerFunc { return gin.WrapH(promhttp.Handler()) }

// ObserveTranscode records how long a transcode of the given kind took.
func ObserveTranscode(kind string, start time.Time) {
	ImageTranscode.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// CountUpload records an upload outcome.
func CountUpload(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ImageUploads.WithLabelValues(kind, result).Inc()
}
