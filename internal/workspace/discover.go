package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// markers identify each instrument's products by filename substring.
// The optical monitor is absent: its images need different handling
// and never feed the event-list checks.
var markers = map[Instrument]string{
	PN: "EPN",
	M1: "EMOS1",
	M2: "EMOS2",
	R1: "R1",
	R2: "R2",
}

// findCalibrationFiles walks the observation directory for the
// calibration index and the ODF summary files. The first ccf.cif in
// lexical walk order wins; summary candidates are all collected
// because a raw ODF ships its own *SUM.SAS without a PATH record and
// only the ingested one is usable.
func findCalibrationFiles(obsDir string) (ccf string, sums []string, err error) {
	err = filepath.WalkDir(obsDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if ccf == "" && strings.Contains(name, "ccf.cif") {
			ccf = path
		}
		if strings.Contains(name, "SUM.SAS") {
			sums = append(sums, path)
		}
		return nil
	})
	return ccf, sums, err
}

// discoverProducts scans the observation directory for pipeline
// outputs: EPIC event lists (*Evts.ds), RGS event lists (*EVENLI*FIT)
// and RGS spectra (*RSPEC*FIT), keyed by instrument marker.
func (o *Observation) discoverProducts() error {
	evts := make(map[Instrument][]string)
	specs := make(map[Instrument][]string)

	err := filepath.WalkDir(o.ObsDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		eventList := strings.HasSuffix(name, "Evts.ds") ||
			(strings.Contains(name, "EVENLI") && strings.HasSuffix(name, "FIT"))
		spectrum := strings.Contains(name, "RSPEC") && strings.HasSuffix(name, "FIT")
		if !eventList && !spectrum {
			return nil
		}
		for inst, marker := range markers {
			if !strings.Contains(name, marker) {
				continue
			}
			if eventList {
				evts[inst] = append(evts[inst], path)
			}
			if spectrum && (inst == R1 || inst == R2) {
				specs[inst] = append(specs[inst], path)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan %s for products: %w", o.ObsDir, err)
	}

	for _, files := range evts {
		sort.Strings(files)
	}
	for _, files := range specs {
		sort.Strings(files)
	}
	o.eventLists = evts
	o.spectra = specs
	return nil
}

// parseSummary extracts the raw-data path and the instrument activity
// flags from an ODF summary file. The PATH record is a "PATH <dir>"
// line; each "// Instrument Record" block carries the two-letter
// instrument code three lines down and a Y/N activity flag below it.
func parseSummary(file string) (odfPath string, active map[Instrument]bool, err error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", nil, fmt.Errorf("read summary file: %w", err)
	}
	lines := strings.Split(string(data), "\n")
	active = make(map[Instrument]bool)
	for i, line := range lines {
		if odfPath == "" {
			if fields := strings.Fields(line); len(fields) == 2 && fields[0] == "PATH" {
				odfPath = fields[1]
			}
		}
		if strings.Contains(line, "// Instrument Record") && i+4 < len(lines) {
			code := lines[i+3]
			if len(code) >= 2 {
				active[Instrument(code[:2])] = strings.HasPrefix(lines[i+4], "Y")
			}
		}
	}
	if odfPath == "" {
		return "", nil, fmt.Errorf("summary file %s has no PATH record", file)
	}
	return odfPath, active, nil
}

// summaryUsable reports whether the summary file still points at a
// real ODF: its PATH directory exists and holds a MANIFEST file.
// Summaries left behind by a moved or deleted ODF force recalibration.
func summaryUsable(file string) bool {
	odfPath, _, err := parseSummary(file)
	if err != nil {
		return false
	}
	if !isDir(odfPath) {
		return false
	}
	manifests, _ := filepath.Glob(filepath.Join(odfPath, "MANIFEST*"))
	return len(manifests) > 0
}
