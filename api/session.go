package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rs/xid"
	"github.com/sarchlab/convaccel/kernel"
	"github.com/sarchlab/convaccel/metrics"
	"github.com/sarchlab/convaccel/verify"
)

// Session runs complete, verified passes of one sample stream: load the
// kernel, stream the samples with flush cycles, compute the reference and
// report the comparison.
//
// Sink receives the banners and the report. Give it the same writer as the
// driver's sink so that all diagnostics land on one stream in order.
type Session struct {
	Driver   Driver
	Samples  []uint32
	Geometry verify.Geometry
	Depth    int
	Sink     io.Writer
	Rows     verify.RowFilter

	runs   int
	failed bool
	last   verify.Summary
}

// Failed tells whether any pass so far mismatched or errored.
func (s *Session) Failed() bool {
	return s.failed
}

// Runs returns how many passes have been attempted.
func (s *Session) Runs() int {
	return s.runs
}

// Last returns the summary of the most recent completed pass.
func (s *Session) Last() verify.Summary {
	return s.last
}

// RunKernel runs one pass with a fresh run ID. A pass that has started is
// never interrupted; ctx is only checked before starting.
func (s *Session) RunKernel(ctx context.Context, k kernel.Kernel) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.Run(k, xid.New().String())

	return err
}

// Run loads k, streams the samples and verifies the outputs.
func (s *Session) Run(k kernel.Kernel, runID string) (verify.Summary, error) {
	s.runs++

	sink := s.Sink
	if sink == nil {
		sink = io.Discard
	}

	summary, err := s.pass(sink, k, runID)
	if err != nil {
		s.failed = true
		metrics.RunsTotal.WithLabelValues(k.Name(), metrics.OutcomeError).Inc()
		slog.Error("pass failed",
			"Run", runID,
			"Kernel", k.Name(),
			"Error", err,
		)

		return summary, err
	}

	outcome := metrics.OutcomePass
	if !summary.OK() {
		s.failed = true
		outcome = metrics.OutcomeFail
	}

	metrics.RunsTotal.WithLabelValues(k.Name(), outcome).Inc()
	metrics.VerifiedSamplesTotal.WithLabelValues(metrics.OutcomePass).
		Add(float64(summary.Pass))
	metrics.VerifiedSamplesTotal.WithLabelValues(metrics.OutcomeFail).
		Add(float64(summary.Fail))
	metrics.LastRunCycles.Set(float64(summary.Cycles))

	s.last = summary

	slog.Info("pass complete",
		"Run", runID,
		"Kernel", k.Name(),
		"Pass", summary.Pass,
		"Fail", summary.Fail,
		"Cycles", summary.Cycles,
	)

	return summary, nil
}

func (s *Session) pass(
	sink io.Writer,
	k kernel.Kernel,
	runID string,
) (verify.Summary, error) {
	if err := s.Driver.LoadKernel(k); err != nil {
		return verify.Summary{}, err
	}

	if k.Is2D() {
		fmt.Fprintf(sink, "Starting %dx%d 2D Convolution...\r\n",
			s.Geometry.Width, s.Geometry.Height)
	} else {
		fmt.Fprintf(sink, "Starting %d-tap FIR over %d samples...\r\n",
			k.Taps(), len(s.Samples))
	}

	res, err := s.Driver.Pass(s.Samples, s.Depth)
	if err != nil {
		return verify.Summary{}, err
	}

	ref := verify.Reference(s.Samples, k, s.Geometry)

	summary, err := verify.Compare(res.Inputs, res.Outputs, ref)
	if err != nil {
		return verify.Summary{}, err
	}

	summary.Kernel = k.Name()
	summary.RunID = runID
	summary.Cycles = res.Cycles

	rows := s.Rows
	if rows == nil {
		rows = verify.FailuresOnly
	}
	summary.WriteReport(sink, rows)

	return summary, nil
}
