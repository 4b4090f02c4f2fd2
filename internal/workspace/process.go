package workspace

import (
	"context"
	"fmt"
	"strings"

	"saskit/internal/args"
)

// pipelineTasks maps each supported reduction task to the instruments
// whose products it creates.
var pipelineTasks = map[string][]Instrument{
	"epproc":   {PN},
	"epchain":  {PN},
	"emproc":   {M1, M2},
	"emchain":  {M1, M2},
	"rgsproc":  {R1, R2},
	"omichain": {OM},
}

// DefaultPipelines are the standard EPIC and RGS reductions.
var DefaultPipelines = []string{"epproc", "emproc", "rgsproc"}

// PipelinesFor returns the default pipeline tasks covering the named
// instruments, in reduction order. Names are the two-letter summary
// codes (PN, M1, M2, R1, R2, OM), case-insensitive.
func PipelinesFor(names []string) ([]string, error) {
	want := make(map[Instrument]bool, len(names))
	for _, n := range names {
		inst := Instrument(strings.ToUpper(strings.TrimSpace(n)))
		switch inst {
		case PN, M1, M2, R1, R2, OM:
			want[inst] = true
		default:
			return nil, fmt.Errorf("unknown instrument %q (want one of PN, M1, M2, R1, R2, OM)", n)
		}
	}
	var tasks []string
	for _, task := range append(append([]string(nil), DefaultPipelines...), "omichain") {
		for _, inst := range pipelineTasks[task] {
			if want[inst] {
				tasks = append(tasks, task)
				break
			}
		}
	}
	return tasks, nil
}

// ProcessOptions modify one processing run.
type ProcessOptions struct {
	Force    bool                // rerun pipelines whose products already exist
	Tasks    []string            // pipeline tasks; DefaultPipelines when empty
	TaskArgs map[string][]string // extra arguments per task
}

// Process runs the instrument pipelines over a calibrated observation.
// A pipeline is skipped when its instruments are inactive, or when any
// of its event lists already exist and the run is not forced; the
// existence check never inspects file contents, so partial outputs
// from an interrupted run still count as present.
func (o *Observation) Process(ctx context.Context, opts ProcessOptions) error {
	if err := o.Locate(); err != nil {
		return err
	}
	if o.state < Calibrated {
		return fmt.Errorf("observation %s: %w", o.ObsID, ErrNotCalibrated)
	}

	tasks := opts.Tasks
	if len(tasks) == 0 {
		tasks = DefaultPipelines
	}
	for _, task := range tasks {
		insts, ok := pipelineTasks[task]
		if !ok {
			return fmt.Errorf("unsupported pipeline task %q", task)
		}
		if !o.anyActive(insts) {
			o.log.Info("instruments inactive, skipping", "task", task)
			continue
		}
		if !opts.Force && o.hasProducts(insts) {
			o.log.Info("event lists exist, skipping", "task", task,
				"files", o.productCount(insts))
			continue
		}

		tokens := append([]string{"--odf=" + o.SumPath, "--ccf=" + o.CCFPath}, opts.TaskArgs[task]...)
		o.log.Info("running pipeline", "task", task, "args", opts.TaskArgs[task])
		if _, err := o.invoker.Invoke(ctx, task, args.NewTokens(tokens...), o.taskOptions()); err != nil {
			return fmt.Errorf("%s: %w", task, err)
		}

		if err := o.discoverProducts(); err != nil {
			return err
		}
		if !o.hasProducts(insts) && task != "omichain" {
			o.log.Warn("pipeline produced no event lists", "task", task)
		}
	}

	if err := o.discoverProducts(); err != nil {
		return err
	}
	if o.hasAnyEventList() {
		o.state = Processed
	}
	return nil
}

// anyActive reports whether at least one of the instruments was active
// during the observation. An empty activity map means the summary gave
// us nothing to go on; the pipeline runs and decides for itself.
func (o *Observation) anyActive(insts []Instrument) bool {
	if len(o.instruments) == 0 {
		return true
	}
	for _, inst := range insts {
		if o.instruments[inst] {
			return true
		}
	}
	return false
}

func (o *Observation) hasProducts(insts []Instrument) bool {
	for _, inst := range insts {
		if len(o.eventLists[inst]) > 0 {
			return true
		}
	}
	return false
}

func (o *Observation) productCount(insts []Instrument) int {
	n := 0
	for _, inst := range insts {
		n += len(o.eventLists[inst])
	}
	return n
}
