// Package metrics exports controller and session events as Prometheus
// metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/shaderscene"
)

// Observer implements shaderscene.Observer with Prometheus collectors.
type Observer struct {
	rejected   *prometheus.CounterVec
	compile    *prometheus.CounterVec
	builds     prometheus.Counter
	fetches    prometheus.Counter
	sessions   prometheus.Counter
	disposals  *prometheus.CounterVec
	frames     prometheus.Counter
	frameTimes prometheus.Histogram
}

var _ shaderscene.Observer = (*Observer)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shaderscene_payloads_rejected_total",
				Help: "Payloads rejected by validation, by reason",
			},
			[]string{"reason"},
		),
		compile: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shaderscene_shader_compile_errors_total",
				Help: "Shader compile errors, by stage",
			},
			[]string{"stage"},
		),
		builds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shaderscene_build_failures_total",
			Help: "Scene builds that failed after the previous session was disposed",
		}),
		fetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shaderscene_fetch_failures_total",
			Help: "Failed requests to the scene generator",
		}),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shaderscene_sessions_started_total",
			Help: "Render sessions started",
		}),
		disposals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shaderscene_sessions_disposed_total",
				Help: "Render sessions disposed, by result",
			},
			[]string{"result"},
		),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shaderscene_frames_total",
			Help: "Frames rendered",
		}),
		frameTimes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shaderscene_frame_duration_seconds",
			Help:    "Time spent encoding and submitting a frame",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	for _, c := range []prometheus.Collector{
		o.rejected, o.compile, o.builds, o.fetches,
		o.sessions, o.disposals, o.frames, o.frameTimes,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// RegisterLiveObjects exports the number of live GPU objects, as reported
// by live, as a gauge. live must be safe to call from any goroutine.
func RegisterLiveObjects(reg prometheus.Registerer, live func() int) error {
	return reg.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "shaderscene_gpu_live_objects",
			Help: "GPU objects currently allocated by the controller",
		},
		func() float64 { return float64(live()) },
	))
}

func (o *Observer) PayloadRejected(reason string) { o.rejected.WithLabelValues(reason).Inc() }

func (o *Observer) CompileFailed(stage string) { o.compile.WithLabelValues(stage).Inc() }

func (o *Observer) BuildFailed() { o.builds.Inc() }

func (o *Observer) FetchFailed() { o.fetches.Inc() }

func (o *Observer) SessionStarted() { o.sessions.Inc() }

func (o *Observer) SessionDisposed(err error) {
	result := "ok"
	if errors.Is(err, shaderscene.ErrDisposal) {
		result = "error"
	}
	o.disposals.WithLabelValues(result).Inc()
}

func (o *Observer) FrameRendered(d time.Duration) {
	o.frames.Inc()
	o.frameTimes.Observe(d.Seconds())
}
