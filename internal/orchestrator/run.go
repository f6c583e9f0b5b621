// Package orchestrator wires together the output destination, the
// keystream pipeline (given an already derived key), and the progress
// display into one run, translating interruption and I/O failure into a structured
// RunResult.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/randquik/randquik/internal/cipher"
	"github.com/randquik/randquik/internal/outfile"
	"github.com/randquik/randquik/internal/pipeline"
	"github.com/randquik/randquik/internal/progress"
	"github.com/randquik/randquik/internal/randerr"
)

// Config is the fully resolved set of parameters for one run, already
// past flag parsing and size-string parsing.
type Config struct {
	Output   string // "" or "-" means stdout
	HasTotal bool
	Total    int64
	ISeek    int64
	OSeek    int64
	Key      []byte
	Cipher   cipher.Cipher
	Workers  int
	Dry      bool
	Quiet    bool
	Action   string // "wrote" or "generated", cosmetic only

	// SeedForDisplay and LenFlag feed resumption/repeat command text;
	// empty SeedForDisplay suppresses both.
	SeedForDisplay string
	LenFlag        string
	GeneratedSeed  bool
}

// Run executes one pipeline run to completion or until ctx is
// cancelled, returning the structured result. ctx cancellation (e.g.
// from a SIGINT handler) is translated into result.Interrupted rather
// than propagated as an error.
func Run(ctx context.Context, cfg Config) (pipeline.RunResult, error) {
	start := time.Now()

	out, err := outfile.Open(cfg.Output, cfg.HasTotal, cfg.Total, cfg.OSeek, cfg.Dry)
	if err != nil {
		return pipeline.RunResult{}, err
	}
	defer out.Close()

	var written atomic.Int64
	disp := progress.New(cfg.Total, !cfg.HasTotal, &written, start, os.Stderr)
	if !cfg.Quiet {
		disp.Start()
	}

	type outcome struct {
		written       int64
		interrupted   bool
		consumerStats pipeline.ConsumerStats
		workerStats   []pipeline.WorkerStats
		singleStats   pipeline.SingleThreadedStats
		single        bool
		err           error
	}
	doneCh := make(chan outcome, 1)

	go func() {
		if cfg.Workers == 0 {
			w, st, interrupted, err := pipeline.RunSingle(pipeline.SingleConfig{
				Key:      cfg.Key,
				Cipher:   cfg.Cipher,
				Total:    cfg.Total,
				Infinite: !cfg.HasTotal,
				Out:      out,
				Dry:      cfg.Dry,
				Progress: &written,
				Cancel:   ctx.Done(),
			})
			doneCh <- outcome{written: w, singleStats: st, single: true, interrupted: interrupted, err: err}
			return
		}

		w, interrupted, cs, ws, err := pipeline.Run(pipeline.Config{
			Workers:    cfg.Workers,
			Key:        cfg.Key,
			Cipher:     cfg.Cipher,
			TotalBytes: cfg.Total,
			Infinite:   !cfg.HasTotal,
			Out:        out,
			Dry:        cfg.Dry,
			ISeek:      cfg.ISeek,
			Progress:   &written,
			Cancel:     ctx.Done(),
		})
		doneCh <- outcome{written: w, interrupted: interrupted, consumerStats: cs, workerStats: ws, err: err}
	}()

	oc := <-doneCh

	disp.Stop()
	elapsed := time.Since(start)

	interrupted := oc.interrupted
	if oc.err != nil {
		interrupted = interrupted || randerr.IsInterrupted(oc.err)
		if !randerr.IsInterrupted(oc.err) {
			return pipeline.RunResult{}, oc.err
		}
	}

	result := pipeline.RunResult{
		Written:     oc.written,
		Elapsed:     elapsed,
		Interrupted: interrupted,
		Action:      cfg.Action,
	}
	if oc.single {
		result.SingleThreadedStats = &oc.singleStats
	} else {
		result.ConsumerStats = &oc.consumerStats
		result.WorkerStats = oc.workerStats
	}

	result.ContinueCmd = buildContinueCmd(cfg, result)
	if !interrupted {
		result.RepeatCmd = buildRepeatCmd(cfg)
	}

	return result, nil
}

func buildContinueCmd(cfg Config, result pipeline.RunResult) string {
	if !result.Interrupted || result.Written <= 0 || cfg.Output == "" || cfg.SeedForDisplay == "" {
		return ""
	}
	newISeek := cfg.ISeek + result.Written
	newOSeek := cfg.OSeek + result.Written

	var cmd string
	if newISeek == newOSeek {
		cmd = fmt.Sprintf("randquik -s %s --seek %d -o %s", cfg.SeedForDisplay, newISeek, cfg.Output)
	} else {
		cmd = fmt.Sprintf("randquik -s %s --iseek %d --oseek %d -o %s", cfg.SeedForDisplay, newISeek, newOSeek, cfg.Output)
	}
	if cfg.LenFlag != "" {
		cmd += " -l " + cfg.LenFlag
	}
	return cmd
}

func buildRepeatCmd(cfg Config) string {
	if !cfg.GeneratedSeed || cfg.Quiet || cfg.SeedForDisplay == "" {
		return ""
	}
	cmd := "randquik -s " + cfg.SeedForDisplay
	if cfg.LenFlag != "" {
		cmd += " -l " + cfg.LenFlag
	}
	if cfg.Output != "" {
		cmd += " -o " + cfg.Output
	}
	return cmd
}
