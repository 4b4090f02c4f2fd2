package main

import (
	"fmt"
	"io"
	"strings"

	"saskit/internal/workspace"
)

// openObservation builds the workspace for one observation, wired to
// the shared dispatcher. Task output streams to w.
func openObservation(obsid string, tk *toolkit, w io.Writer) (*workspace.Observation, error) {
	return workspace.Open(obsid, workspace.Config{
		DataDir: cfg.DataDir,
		Invoker: tk.dispatcher,
		Echo:    w,
	})
}

// printWorkspace renders one observation's status block.
func printWorkspace(w io.Writer, st workspace.Status) {
	fmt.Fprintf(w, "observation %s: %s\n", st.ObsID, st.State)
	fmt.Fprintf(w, "  directory: %s\n", st.ObsDir)
	if st.CCF != "" {
		fmt.Fprintf(w, "  ccf:       %s\n", st.CCF)
	}
	if st.Summary != "" {
		fmt.Fprintf(w, "  summary:   %s\n", st.Summary)
	}

	var active []string
	for _, inst := range workspace.AllInstruments {
		if st.Instruments[inst] {
			active = append(active, inst.DisplayName())
		}
	}
	if len(active) > 0 {
		fmt.Fprintf(w, "  active:    %s\n", strings.Join(active, ", "))
	}
	for _, inst := range workspace.AllInstruments {
		for _, f := range st.EventLists[inst] {
			fmt.Fprintf(w, "  events   %-9s %s\n", inst.DisplayName(), f)
		}
		for _, f := range st.Spectra[inst] {
			fmt.Fprintf(w, "  spectrum %-9s %s\n", inst.DisplayName(), f)
		}
	}
}
