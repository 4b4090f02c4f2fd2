package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"saskit/internal/args"
)

// Download fetches raw data through the configured archive client.
// With force the observation directory is wiped and fetched fresh;
// otherwise a populated directory for the requested level is left
// alone.
func (o *Observation) Download(ctx context.Context, level string, force bool) error {
	switch level {
	case "ODF", "PPS", "ALL":
	default:
		return fmt.Errorf("unknown product level %q: want ODF, PPS or ALL", level)
	}
	if o.dl == nil {
		return fmt.Errorf("observation %s: %w", o.ObsID, ErrNoDownloader)
	}

	if force {
		o.log.Info("removing existing observation directory", "dir", o.ObsDir)
		if err := os.RemoveAll(o.ObsDir); err != nil {
			return fmt.Errorf("clear %s: %w", o.ObsDir, err)
		}
	} else if o.hasRawData(level) {
		o.log.Info("raw data present, skipping download", "level", level)
		return o.Locate()
	}

	if err := os.MkdirAll(o.ObsDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", o.ObsDir, err)
	}
	o.log.Info("downloading observation data", "level", level, "dest", o.ObsDir)
	if err := o.dl.Download(ctx, o.ObsID, level, o.ObsDir); err != nil {
		return fmt.Errorf("download observation %s: %w", o.ObsID, err)
	}
	return o.Locate()
}

func (o *Observation) hasRawData(level string) bool {
	switch level {
	case "PPS":
		return hasEntries(o.PPSDir)
	case "ALL":
		return hasEntries(o.ODFDir) && hasEntries(o.PPSDir)
	default:
		return hasEntries(o.ODFDir)
	}
}

// CalibrateOptions modify one calibration run.
type CalibrateOptions struct {
	Force         bool     // rerun cifbuild and odfingest even when outputs exist
	CifbuildArgs  []string // extra cifbuild arguments
	OdfingestArgs []string // extra odfingest arguments
}

// Calibrate brings the observation to the CALIBRATED state: verify the
// raw ODF is complete, build the calibration index with cifbuild, then
// ingest the ODF with odfingest and validate the summary it writes.
// When usable calibration products already exist this is a no-op
// unless forced.
func (o *Observation) Calibrate(ctx context.Context, opts CalibrateOptions) error {
	if err := o.Locate(); err != nil {
		return err
	}
	if !opts.Force && o.state >= Calibrated {
		o.log.Info("calibration products present, skipping",
			"ccf", o.CCFPath, "summary", o.SumPath)
		return nil
	}

	if !hasEntries(o.ODFDir) {
		return fmt.Errorf("observation %s has no ODF under %s: %w", o.ObsID, o.ODFDir, ErrNoRawData)
	}
	manifests, err := filepath.Glob(filepath.Join(o.ODFDir, "MANIFEST*"))
	if err != nil {
		return err
	}
	if len(manifests) == 0 {
		return fmt.Errorf("no MANIFEST file in %s: ODF is incomplete, download it again", o.ODFDir)
	}
	o.log.Info("ODF manifest found", "file", manifests[0])

	if err := os.MkdirAll(o.WorkDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", o.WorkDir, err)
	}

	// cifbuild reads the raw ODF and writes ccf.cif into the working
	// directory.
	tokens := append([]string{"--odf=" + o.ODFDir}, opts.CifbuildArgs...)
	o.log.Info("running cifbuild", "args", opts.CifbuildArgs)
	if _, err := o.invoker.Invoke(ctx, "cifbuild", args.NewTokens(tokens...), o.taskOptions()); err != nil {
		return fmt.Errorf("cifbuild: %w", err)
	}
	ccf := filepath.Join(o.WorkDir, "ccf.cif")
	if !isFile(ccf) {
		return fmt.Errorf("cifbuild did not produce %s", ccf)
	}
	o.CCFPath = ccf
	o.log.Info("calibration index built", "ccf", ccf)

	// odfingest writes <revolution><obsid>_SUM.SAS next to it.
	tokens = append([]string{"--odf=" + o.ODFDir, "--ccf=" + ccf}, opts.OdfingestArgs...)
	o.log.Info("running odfingest", "args", opts.OdfingestArgs)
	if _, err := o.invoker.Invoke(ctx, "odfingest", args.NewTokens(tokens...), o.taskOptions()); err != nil {
		return fmt.Errorf("odfingest: %w", err)
	}
	sums, err := filepath.Glob(filepath.Join(o.WorkDir, "*SUM.SAS"))
	if err != nil {
		return err
	}
	if len(sums) == 0 {
		return fmt.Errorf("odfingest did not produce a *SUM.SAS file in %s", o.WorkDir)
	}
	sum := sums[0]

	odfPath, active, err := parseSummary(sum)
	if err != nil {
		return err
	}
	if odfPath != o.ODFDir {
		return fmt.Errorf("summary file %s records PATH %q, want %q: stale ODF?", sum, odfPath, o.ODFDir)
	}
	o.SumPath = sum
	o.instruments = active
	o.checkInstrumentSet(sum)
	o.state = Calibrated
	o.log.Info("observation calibrated", "ccf", o.CCFPath, "summary", o.SumPath)
	return nil
}

// ReduceOptions modify one full reduction.
type ReduceOptions struct {
	Level         string // download level; ODF when empty
	Overwrite     bool   // wipe and redownload the raw data
	Recalibrate   bool   // force cifbuild and odfingest
	Rerun         bool   // force the instrument pipelines
	Tasks         []string
	TaskArgs      map[string][]string
	CifbuildArgs  []string
	OdfingestArgs []string
}

// Reduce runs the full chain for one observation: download when raw
// data is absent, calibrate, then the instrument pipelines.
func (o *Observation) Reduce(ctx context.Context, opts ReduceOptions) error {
	level := opts.Level
	if level == "" {
		level = "ODF"
	}
	if o.state == Uninitialized || opts.Overwrite {
		if o.dl == nil {
			if o.state == Uninitialized {
				return fmt.Errorf("observation %s: %w", o.ObsID, ErrNoRawData)
			}
		} else if err := o.Download(ctx, level, opts.Overwrite); err != nil {
			return err
		}
	}
	if err := o.Calibrate(ctx, CalibrateOptions{
		Force:         opts.Recalibrate,
		CifbuildArgs:  opts.CifbuildArgs,
		OdfingestArgs: opts.OdfingestArgs,
	}); err != nil {
		return err
	}
	return o.Process(ctx, ProcessOptions{
		Force:    opts.Rerun,
		Tasks:    opts.Tasks,
		TaskArgs: opts.TaskArgs,
	})
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
