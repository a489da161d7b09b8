package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imranraza-AI/Clothing-brand-website/internal/studio"
)

// Registry holds every collector exported on /metrics.
var Registry = prometheus.NewRegistry()

var (
	editsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "creative_lab",
		Name:      "image_edits_total",
		Help:      "Image edit calls by outcome.",
	}, []string{"outcome"})

	editDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "creative_lab",
		Name:      "image_edit_duration_seconds",
		Help:      "Latency of image edit calls.",
		Buckets:   []float64{1, 2, 5, 10, 20, 40, 80},
	})

	videoSubmissions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "creative_lab",
		Name:      "video_submissions_total",
		Help:      "Video operations submitted to the provider.",
	})

	videoPolls = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "creative_lab",
		Name:      "video_polls_total",
		Help:      "Video operation status polls.",
	})

	videoJobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "creative_lab",
		Name:      "video_jobs_total",
		Help:      "Finished video jobs by terminal state.",
	}, []string{"state"})

	videoDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "creative_lab",
		Name:      "video_job_duration_seconds",
		Help:      "Wall time from submission to terminal state.",
		Buckets:   []float64{15, 30, 60, 120, 180, 300, 450, 600},
	})

	textCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "creative_lab",
		Name:      "stylist_calls_total",
		Help:      "Stylist text calls by call and outcome.",
	}, []string{"call", "outcome"})

	textDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "creative_lab",
		Name:      "stylist_call_duration_seconds",
		Help:      "Latency of stylist text calls.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20},
	}, []string{"call"})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "creative_lab",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		editsTotal, editDuration,
		videoSubmissions, videoPolls, videoJobs, videoDuration,
		textCalls, textDuration,
		httpRequests,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveHTTP counts one served request.
func ObserveHTTP(method, route string, status int) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// StudioObserver feeds studio activity into the collectors above.
type StudioObserver struct{}

func (StudioObserver) EditFinished(outcome string, elapsed time.Duration) {
	editsTotal.WithLabelValues(outcome).Inc()
	editDuration.Observe(elapsed.Seconds())
}

func (StudioObserver) VideoSubmitted() { videoSubmissions.Inc() }

func (StudioObserver) VideoPolled() { videoPolls.Inc() }

func (StudioObserver) VideoFinished(state studio.JobState, elapsed time.Duration) {
	videoJobs.WithLabelValues(string(state)).Inc()
	videoDuration.Observe(elapsed.Seconds())
}

func (StudioObserver) TextFinished(call, outcome string, elapsed time.Duration) {
	textCalls.WithLabelValues(call, outcome).Inc()
	textDuration.WithLabelValues(call).Observe(elapsed.Seconds())
}

var _ studio.Observer = StudioObserver{}
