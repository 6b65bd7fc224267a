package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"syncbench/internal/config"
	"syncbench/internal/logging"
	"syncbench/internal/metrics"
	"syncbench/internal/sink"
	"syncbench/internal/status"
)

// Driver runs a sweep: conditions are analysed by a bounded pool of workers
// and their rows are emitted in sweep order as soon as every earlier
// condition is done.
type Driver struct {
	cfg     *config.Sweep
	writer  sink.RowWriter
	sweepID string
	now     func() time.Time
}

// NewDriver prepares a sweep over cfg.
func NewDriver(cfg *config.Sweep) *Driver {
	return &Driver{
		cfg:     cfg,
		sweepID: uuid.NewString(),
		now:     time.Now,
	}
}

// ID is the identifier stamped on every row of this sweep.
func (d *Driver) ID() string { return d.sweepID }

type outcome struct {
	cond     Condition
	analysis *Analysis
	err      error
}

// Run analyses every condition and writes the rows to w. Integrity violations always abort; other
// per-condition failures abort unless ContinueOnError is set, in which case
// they are skipped and returned joined once the sweep completes.
func (d *Driver) Run(ctx context.Context, w sink.RowWriter) error {
	d.writer = w
	logger := logging.FromContext(ctx).With("sweep_id", d.sweepID)
	ctx = logging.NewContext(ctx, logger)
	conds := Matrix(d.cfg)
	logger.Info("sweep started", "conditions", len(conds), "workers", d.cfg.Workers)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	g, gctx := errgroup.WithContext(ctx)
	workers := d.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	outcomes := make(chan outcome)
	emitted := make(chan []error, 1)
	go func() { emitted <- d.emit(ctx, conds, outcomes, cancel) }()

	for _, c := range conds {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			a, err := AnalyzeDir(gctx, c.Dir, d.dirOptions(c))
			if err != nil {
				err = &ConditionError{Condition: c, Dir: c.Dir, Err: err}
				if fatal(err) || !d.cfg.ContinueOnError {
					return err
				}
			}
			select {
			case outcomes <- outcome{cond: c, analysis: a, err: err}:
			case <-gctx.Done():
				return context.Cause(gctx)
			}
			return nil
		})
	}
	werr := g.Wait()
	close(outcomes)
	failures := <-emitted

	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		logger.Error("sweep aborted", "err", cause)
		return cause
	}
	if werr != nil {
		logger.Error("sweep aborted", "err", werr)
		return werr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(failures) > 0 {
		logger.Warn("sweep finished with skipped conditions", "failed", len(failures))
		return errors.Join(failures...)
	}
	logger.Info("sweep finished", "conditions", len(conds))
	return nil
}

func (d *Driver) dirOptions(c Condition) DirOptions {
	return DirOptions{
		NodeCount: NodeCount(d.cfg, c),
		LogGlob:   d.cfg.LogGlob,
		Status: status.Layout{
			StartPrefix: d.cfg.Status.StartPrefix,
			EndPrefix:   d.cfg.Status.EndPrefix,
			Suffix:      d.cfg.Status.Suffix,
		},
		Counters: d.cfg.Counters,
	}
}

// emit consumes outcomes in completion order and writes them in sweep order.
// It drains outcomes until the channel is closed; a write failure cancels the
// sweep with that error as the cause.
func (d *Driver) emit(ctx context.Context, conds []Condition, outcomes <-chan outcome, cancel context.CancelCauseFunc) []error {
	logger := logging.FromContext(ctx)
	pending := make(map[int]outcome)
	groups := make(map[groupKey][]metrics.RunMetrics)
	progress := sink.Progress{SweepID: d.sweepID, Total: len(conds)}
	var failures []error
	broken := false
	next := 0

	for o := range outcomes {
		if broken {
			continue
		}
		pending[o.cond.Index] = o
		for {
			cur, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			progress.Current = cur.cond.String()
			progress.LastErr = ""
			if cur.err != nil {
				progress.Failed++
				progress.LastErr = cur.err.Error()
				failures = append(failures, cur.err)
				logger.Warn("condition skipped", "condition", cur.cond.String(), "err", cur.err)
			} else {
				progress.Done++
			}
			if err := d.write(cur, groups); err != nil {
				cancel(fmt.Errorf("write rows for %s: %w", cur.cond, err))
				broken = true
				break
			}
			if pw, ok := d.writer.(sink.ProgressWriter); ok {
				if err := pw.WriteProgress(progress); err != nil {
					logger.Warn("progress update failed", "err", err)
				}
			}
		}
	}
	return failures
}

func (d *Driver) write(o outcome, groups map[groupKey][]metrics.RunMetrics) error {
	c := o.cond
	meta := RowMeta{
		SweepID:        d.sweepID,
		Implementation: c.Implementation,
		ParamName:      d.cfg.Parameter.Name,
		Param:          c.Param,
		Run:            runLabel(c.Run),
		Timestamp:      d.now(),
	}
	var rows []sink.Row
	if o.err == nil {
		m := o.analysis.Metrics
		rows = RunRows(meta, m, d.cfg.PerPublisher)
		groups[c.group()] = append(groups[c.group()], m)
	}
	if c.Last {
		if runs := groups[c.group()]; len(runs) > 0 {
			rows = append(rows, AverageRow(meta, metrics.Average(runs)))
		}
		delete(groups, c.group())
	}
	if len(rows) == 0 {
		return nil
	}
	return sink.WriteAll(d.writer, rows)
}
