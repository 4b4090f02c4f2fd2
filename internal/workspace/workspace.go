// Package workspace tracks one observation's on-disk layout and drives
// the calibration and instrument pipelines over it. State is derived
// from the filesystem on every open, so a workspace survives process
// restarts; rerun skipping is presence-based (a product file exists),
// never content-based.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"saskit/internal/args"
	"saskit/internal/dispatch"
	"saskit/internal/logging"
)

// State orders an observation's reduction progress.
type State int

const (
	// Uninitialized means no raw data exists on disk yet.
	Uninitialized State = iota
	// Located means the observation directories and files were found.
	Located
	// Calibrated means ccf.cif and the ODF summary file are in place.
	Calibrated
	// Processed means at least one instrument pipeline has produced
	// event lists.
	Processed
)

func (s State) String() string {
	switch s {
	case Located:
		return "LOCATED"
	case Calibrated:
		return "CALIBRATED"
	case Processed:
		return "PROCESSED"
	default:
		return "UNINITIALIZED"
	}
}

// Instrument identifies one XMM-Newton science instrument by its
// two-letter summary-file code.
type Instrument string

const (
	PN Instrument = "PN" // EPIC-pn camera
	M1 Instrument = "M1" // EPIC-MOS1 camera
	M2 Instrument = "M2" // EPIC-MOS2 camera
	R1 Instrument = "R1" // RGS1 spectrometer
	R2 Instrument = "R2" // RGS2 spectrometer
	OM Instrument = "OM" // optical monitor
)

// AllInstruments is the set every ODF summary file is expected to
// declare.
var AllInstruments = []Instrument{PN, M1, M2, R1, R2, OM}

// DisplayName returns the human-readable instrument name.
func (i Instrument) DisplayName() string {
	switch i {
	case PN:
		return "EPIC-pn"
	case M1:
		return "EPIC-MOS1"
	case M2:
		return "EPIC-MOS2"
	case R1:
		return "RGS1"
	case R2:
		return "RGS2"
	case OM:
		return "OM"
	}
	return string(i)
}

var (
	// ErrNoRawData means the ODF directory is absent or empty.
	ErrNoRawData = errors.New("raw observation data not found")
	// ErrNotCalibrated means ccf.cif or the summary file is missing.
	ErrNotCalibrated = errors.New("calibration products missing")
	// ErrNoDownloader means raw data is needed but no archive client
	// was configured.
	ErrNoDownloader = errors.New("no downloader configured")
)

// Invoker dispatches one task invocation; *dispatch.Dispatcher
// satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, task string, set args.ArgumentSet, opts dispatch.Options) (*dispatch.Result, error)
}

// Downloader fetches raw observation data from a remote archive into
// the observation directory, laying out the ODF/ and PPS/
// subdirectories. Level is ODF, PPS or ALL.
type Downloader interface {
	Download(ctx context.Context, obsid, level, obsDir string) error
}

// Config wires an observation workspace.
type Config struct {
	DataDir    string     // parent of per-observation directories
	Invoker    Invoker    // required; runs the SAS tasks
	Downloader Downloader // optional archive client
	Echo       io.Writer  // stream task output here
}

// Observation is one observation's workspace. Not safe for concurrent
// use: the pipelines it drives mutate shared process state through the
// dispatcher.
type Observation struct {
	ObsID   string
	DataDir string
	ObsDir  string
	ODFDir  string
	PPSDir  string
	WorkDir string

	// CCFPath and SumPath are the discovered calibration index and ODF
	// summary file, empty until found.
	CCFPath string
	SumPath string

	state       State
	instruments map[Instrument]bool
	eventLists  map[Instrument][]string
	spectra     map[Instrument][]string

	invoker Invoker
	dl      Downloader
	echo    io.Writer
	log     *slog.Logger
}

// Open builds the workspace for one observation and derives its state
// from disk. When no raw data exists and no downloader is configured
// the open fails: there is nothing the workspace could ever do.
func Open(obsid string, cfg Config) (*Observation, error) {
	if !validObsID(obsid) {
		return nil, fmt.Errorf("invalid observation id %q: want a 10-digit string", obsid)
	}
	if cfg.Invoker == nil {
		return nil, errors.New("workspace: no invoker configured")
	}
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	obsDir := filepath.Join(abs, obsid)
	o := &Observation{
		ObsID:   obsid,
		DataDir: abs,
		ObsDir:  obsDir,
		ODFDir:  filepath.Join(obsDir, "ODF"),
		PPSDir:  filepath.Join(obsDir, "PPS"),
		WorkDir: filepath.Join(obsDir, "work"),
		invoker: cfg.Invoker,
		dl:      cfg.Downloader,
		echo:    cfg.Echo,
		log:     logging.New("workspace").With("obsid", obsid),
	}
	if err := o.Locate(); err != nil {
		return nil, err
	}
	if o.state == Uninitialized && o.dl == nil {
		return nil, fmt.Errorf("observation %s has no data under %s and no downloader is configured, fetch the ODF into %s first: %w",
			obsid, abs, o.ODFDir, ErrNoRawData)
	}
	return o, nil
}

// Locate re-derives the workspace state from the filesystem: which
// directories exist, where ccf.cif and the *SUM.SAS summary live, which
// instruments were active and which products have been produced.
func (o *Observation) Locate() error {
	o.state = Uninitialized
	o.CCFPath = ""
	o.SumPath = ""
	o.instruments = nil
	o.eventLists = nil
	o.spectra = nil

	if !isDir(o.ObsDir) {
		return nil
	}
	hasODF := hasEntries(o.ODFDir)
	hasPPS := hasEntries(o.PPSDir)
	if !hasODF && !hasPPS {
		return nil
	}
	o.state = Located
	o.log.Debug("observation located", "dir", o.ObsDir, "odf", hasODF, "pps", hasPPS)

	ccf, sums, err := findCalibrationFiles(o.ObsDir)
	if err != nil {
		return err
	}
	o.CCFPath = ccf
	for _, sum := range sums {
		if summaryUsable(sum) {
			o.SumPath = sum
			break
		}
	}

	if err := o.discoverProducts(); err != nil {
		return err
	}

	if ccf == "" || o.SumPath == "" {
		return nil
	}
	odfPath, active, err := parseSummary(o.SumPath)
	if err != nil {
		return err
	}
	o.instruments = active
	o.checkInstrumentSet(o.SumPath)
	o.state = Calibrated
	o.log.Debug("calibration products found", "ccf", ccf, "summary", o.SumPath, "odf", odfPath)

	if o.hasAnyEventList() {
		o.state = Processed
	}
	return nil
}

// State returns the current reduction state.
func (o *Observation) State() State { return o.state }

// ActiveInstruments returns which instruments the summary file marks
// active. Empty before calibration.
func (o *Observation) ActiveInstruments() map[Instrument]bool {
	out := make(map[Instrument]bool, len(o.instruments))
	for k, v := range o.instruments {
		out[k] = v
	}
	return out
}

// EventLists returns the discovered event-list files for an
// instrument, sorted.
func (o *Observation) EventLists(inst Instrument) []string {
	return append([]string(nil), o.eventLists[inst]...)
}

// Spectra returns the discovered RGS spectrum files for an instrument,
// sorted.
func (o *Observation) Spectra(inst Instrument) []string {
	return append([]string(nil), o.spectra[inst]...)
}

// Status is a point-in-time summary of the workspace.
type Status struct {
	ObsID       string                  `json:"obsid"`
	State       string                  `json:"state"`
	ObsDir      string                  `json:"obs_dir"`
	CCF         string                  `json:"ccf,omitempty"`
	Summary     string                  `json:"summary,omitempty"`
	Instruments map[Instrument]bool     `json:"instruments,omitempty"`
	EventLists  map[Instrument][]string `json:"event_lists,omitempty"`
	Spectra     map[Instrument][]string `json:"spectra,omitempty"`
}

// Status reports the workspace as last located.
func (o *Observation) Status() Status {
	st := Status{
		ObsID:       o.ObsID,
		State:       o.state.String(),
		ObsDir:      o.ObsDir,
		CCF:         o.CCFPath,
		Summary:     o.SumPath,
		Instruments: o.ActiveInstruments(),
		EventLists:  make(map[Instrument][]string),
		Spectra:     make(map[Instrument][]string),
	}
	for inst, files := range o.eventLists {
		st.EventLists[inst] = append([]string(nil), files...)
	}
	for inst, files := range o.spectra {
		st.Spectra[inst] = append([]string(nil), files...)
	}
	return st
}

func (o *Observation) hasAnyEventList() bool {
	for _, files := range o.eventLists {
		if len(files) > 0 {
			return true
		}
	}
	return false
}

// checkInstrumentSet warns when the summary file does not declare
// exactly the expected instruments.
func (o *Observation) checkInstrumentSet(sum string) {
	if len(o.instruments) == 0 {
		o.log.Warn("summary file declares no instruments", "file", sum)
		return
	}
	ok := len(o.instruments) == len(AllInstruments)
	for _, inst := range AllInstruments {
		if _, found := o.instruments[inst]; !found {
			ok = false
		}
	}
	if !ok {
		o.log.Warn("summary file instrument records look wrong", "file", sum)
	}
}

func (o *Observation) taskOptions() dispatch.Options {
	return dispatch.Options{Strict: true, Echo: o.echo, Dir: o.WorkDir}
}

func validObsID(obsid string) bool {
	if len(obsid) != 10 {
		return false
	}
	for _, r := range obsid {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func hasEntries(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}
