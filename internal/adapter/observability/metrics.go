package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider and operation",
		},
		[]string{"provider", "operation"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "operation"},
	)
	AIFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_failures_total",
			Help: "AI request failures by provider, operation and reason",
		},
		[]string{"provider", "operation", "reason"},
	)
	AITokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_total",
			Help: "Estimated tokens exchanged with AI providers",
		},
		[]string{"provider", "kind"},
	)
	AIBreakerOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ai_circuit_breaker_open",
			Help: "1 when the provider circuit breaker is open",
		},
		[]string{"provider"},
	)

	InterviewSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "interview_sessions_active",
			Help: "Number of interview sessions currently registered",
		},
	)
	InterviewSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_sessions_total",
			Help: "Interview session lifecycle transitions",
		},
		[]string{"event"},
	)

	QuizSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Aptitude answer submissions by result",
		},
		[]string{"result"},
	)

	SpeechQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "speech_queue_depth",
			Help: "Pending speech playback jobs",
		},
	)
	SpeechJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speech_jobs_total",
			Help: "Speech playback jobs by outcome",
		},
		[]string{"status"},
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_events_published_total",
			Help: "Interview events published by type and status",
		},
		[]string{"type", "status"},
	)
)

var initOnce sync.Once

// InitMetrics registers all collectors with the default registry once per process.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(AIRequestsTotal)
		prometheus.MustRegister(AIRequestDuration)
		prometheus.MustRegister(AIFailuresTotal)
		prometheus.MustRegister(AITokensTotal)
		prometheus.MustRegister(AIBreakerOpen)
		prometheus.MustRegister(InterviewSessionsActive)
		prometheus.MustRegister(InterviewSessionsTotal)
		prometheus.MustRegister(QuizSubmissionsTotal)
		prometheus.MustRegister(SpeechQueueDepth)
		prometheus.MustRegister(SpeechJobsTotal)
		prometheus.MustRegister(EventsPublishedTotal)
	})
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// ObserveAIRequest records one provider call. reason is empty on success.
func ObserveAIRequest(provider, operation string, dur time.Duration, reason string) {
	AIRequestsTotal.WithLabelValues(provider, operation).Inc()
	AIRequestDuration.WithLabelValues(provider, operation).Observe(dur.Seconds())
	if reason != "" {
		AIFailuresTotal.WithLabelValues(provider, operation, reason).Inc()
	}
}

// AddAITokens accumulates estimated prompt or completion tokens.
func AddAITokens(provider, kind string, n int) {
	if n > 0 {
		AITokensTotal.WithLabelValues(provider, kind).Add(float64(n))
	}
}

// SetBreakerOpen mirrors the breaker state of a provider.
func SetBreakerOpen(provider string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	AIBreakerOpen.WithLabelValues(provider).Set(v)
}

// SessionStarted records a newly registered interview session.
func SessionStarted() {
	InterviewSessionsActive.Inc()
	InterviewSessionsTotal.WithLabelValues("started").Inc()
}

// SessionRemoved records a session leaving the registry; event is "completed" or "evicted".
func SessionRemoved(event string) {
	InterviewSessionsActive.Dec()
	InterviewSessionsTotal.WithLabelValues(event).Inc()
}

// QuizSubmitted records one answer submission.
func QuizSubmitted(correct bool) {
	result := "incorrect"
	if correct {
		result = "correct"
	}
	QuizSubmissionsTotal.WithLabelValues(result).Inc()
}

// SpeechJobDone records the outcome of a playback job.
func SpeechJobDone(status string) {
	SpeechJobsTotal.WithLabelValues(status).Inc()
}

// EventPublished records an interview event publish attempt.
func EventPublished(eventType string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}
