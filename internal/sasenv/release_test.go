package sasenv

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRelease_Underscored(t *testing.T) {
	out := `XMM-Newton SAS

SAS release: xmmsas_20230412_1735
Compiled on: Wed Apr 12 17:35:00 CEST 2023
Compiled by: sasbuild@sashost.example
Platform   : Ubuntu22.04
`
	want := ReleaseInfo{
		Release:      "xmmsas_20230412_1735",
		AKA:          "xmmsas",
		CompiledOn:   "Wed Apr 12 17:35:00 CEST 2023",
		CompiledBy:   "sasbuild",
		CompiledHost: "sashost.example",
		Platform:     "Ubuntu22.04",
	}
	if diff := cmp.Diff(want, parseRelease(out)); diff != "" {
		t.Errorf("parseRelease mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRelease_Dashed(t *testing.T) {
	got := parseRelease("SAS release: 22.1.0-8f2c41\n")
	if got.AKA != "22.1.0" {
		t.Errorf("AKA = %q, want 22.1.0", got.AKA)
	}
	if got.CommitID != "8f2c41" {
		t.Errorf("CommitID = %q, want 8f2c41", got.CommitID)
	}
}

func TestParseRelease_Empty(t *testing.T) {
	got := parseRelease("no version info here\n")
	if got.Release != "" {
		t.Errorf("Release = %q, want empty", got.Release)
	}
}
