// Package metrics exposes run statistics as prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SamplesStreamedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "convaccel_samples_streamed_total",
			Help: "Number of samples written to the accelerator",
		},
	)

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convaccel_runs_total",
			Help: "Number of full passes, by kernel and outcome",
		},
		[]string{"kernel", "outcome"},
	)

	VerifiedSamplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convaccel_verified_samples_total",
			Help: "Number of samples compared against the reference, by result",
		},
		[]string{"result"},
	)

	SwitchEdgesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convaccel_switch_edges_total",
			Help: "Number of rising switch edges that selected a kernel",
		},
		[]string{"kernel"},
	)

	SwitchPollsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "convaccel_switch_polls_total",
			Help: "Number of SWITCH register polls",
		},
	)

	LastRunCycles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "convaccel_last_run_cycles",
			Help: "Device cycles spent streaming the most recent pass",
		},
	)
)

// Outcome labels for RunsTotal.
const (
	OutcomePass  = "pass"
	OutcomeFail  = "fail"
	OutcomeError = "error"
)

// Collectors returns every collector in the package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		SamplesStreamedTotal,
		RunsTotal,
		VerifiedSamplesTotal,
		SwitchEdgesTotal,
		SwitchPollsTotal,
		LastRunCycles,
	}
}

// Register registers every collector with r.
func Register(r prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}

	return nil
}
