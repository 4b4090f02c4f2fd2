package args

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"saskit/internal/schema"
)

func evselectSchema() *schema.Descriptor {
	return schema.NewDescriptor("evselect", schema.NativeExecutable,
		schema.Param{Name: "table", Type: schema.TypeTable, Mandatory: true},
		schema.Param{Name: "expression", Type: schema.TypeString},
		schema.Param{Name: "filtertype", Type: schema.TypeString, Default: "expression", Allowed: []string{"expression", "dataset"}},
		schema.Param{Name: "energycolumn", Type: schema.TypeString, Default: "PHA", Allowed: []string{"PHA", "PI"}},
		schema.Param{Name: "withfilteredset", Type: schema.TypeBool, Default: "no"},
		schema.Param{Name: "filteredset", Type: schema.TypeFile, Default: "filtered.fits", Parent: "withfilteredset"},
	)
}

func TestNormalize_DefaultsThenSupplied(t *testing.T) {
	inv, err := Normalize(evselectSchema(), NewTokens("table=evt.fits"))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	want := []Pair{
		{Name: "filtertype", Value: "expression"},
		{Name: "energycolumn", Value: "PHA"},
		{Name: "withfilteredset", Value: "no"},
		{Name: "filteredset", Value: "filtered.fits"},
		{Name: "table", Value: "evt.fits"},
	}
	if diff := cmp.Diff(want, inv.Pairs); diff != "" {
		t.Errorf("Pairs mismatch (-want +got):\n%s", diff)
	}
	if inv.EarlyExit != NoExit {
		t.Errorf("EarlyExit = %v, want none", inv.EarlyExit)
	}
}

func TestNormalize_OmitsParametersWithoutDefault(t *testing.T) {
	inv, err := Normalize(evselectSchema(), NewTokens("table=evt.fits"))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if _, ok := inv.Params()["expression"]; ok {
		t.Error("expression has no default and was not supplied, should be omitted")
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	in := map[string]any{"table": "evt.fits", "expression": "PI>150", "energycolumn": "PI"}

	a, err := Normalize(evselectSchema(), NewMap(in))
	if err != nil {
		t.Fatalf("first Normalize: %v", err)
	}
	b, err := Normalize(evselectSchema(), NewMap(in))
	if err != nil {
		t.Fatalf("second Normalize: %v", err)
	}
	if diff := cmp.Diff(a.Argv(), b.Argv()); diff != "" {
		t.Errorf("repeated normalization differs (-first +second):\n%s", diff)
	}
}

func TestNormalize_MapMatchesTokens(t *testing.T) {
	fromMap, err := Normalize(evselectSchema(), NewMap(map[string]any{
		"expression": "PI>150",
		"table":      "evt.fits",
	}))
	if err != nil {
		t.Fatalf("map input: %v", err)
	}
	fromTokens, err := Normalize(evselectSchema(), NewTokens("expression=PI>150", "table=evt.fits"))
	if err != nil {
		t.Fatalf("token input: %v", err)
	}
	if diff := cmp.Diff(fromMap.Pairs, fromTokens.Pairs); diff != "" {
		t.Errorf("map and token inputs disagree (-map +tokens):\n%s", diff)
	}
}

func TestNormalize_MapRendersValues(t *testing.T) {
	inv, err := Normalize(evselectSchema(), NewMap(map[string]any{
		"table":           "evt.fits",
		"withfilteredset": true,
	}))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := inv.Params()["withfilteredset"]; got != "yes" {
		t.Errorf("withfilteredset = %q, want yes", got)
	}
}

func TestNormalize_UnknownParameter(t *testing.T) {
	_, err := Normalize(evselectSchema(), NewTokens("table=evt.fits", "bogus=1"))

	var unknown *UnknownParameterError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownParameterError", err)
	}
	if unknown.Task != "evselect" || unknown.Name != "bogus" {
		t.Errorf("got task=%q name=%q, want evselect/bogus", unknown.Task, unknown.Name)
	}
}

func TestNormalize_OpenSchemaAcceptsUnknown(t *testing.T) {
	d := evselectSchema()
	d.Open = true

	inv, err := Normalize(d, NewTokens("table=evt.fits", "bogus=1"))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := inv.Params()["bogus"]; got != "1" {
		t.Errorf("bogus = %q, want 1", got)
	}
}

func TestNormalize_MissingMandatory(t *testing.T) {
	_, err := Normalize(evselectSchema(), NewTokens("expression=PI>150"))

	var missing *MissingParameterError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingParameterError", err)
	}
	if missing.Name != "table" {
		t.Errorf("Name = %q, want table", missing.Name)
	}
}

func TestNormalize_TypeMismatch(t *testing.T) {
	_, err := Normalize(evselectSchema(), NewTokens("table=evt.fits", "withfilteredset=maybe"))

	var mismatch *TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want TypeMismatchError", err)
	}
	if mismatch.Name != "withfilteredset" {
		t.Errorf("Name = %q, want withfilteredset", mismatch.Name)
	}
}

func TestNormalize_RejectsDisallowedValue(t *testing.T) {
	_, err := Normalize(evselectSchema(), NewTokens("table=evt.fits", "energycolumn=PW"))

	var mismatch *TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("err = %v, want TypeMismatchError", err)
	}
	if !strings.Contains(mismatch.Expected, "PHA") {
		t.Errorf("Expected = %q, should list the allowed values", mismatch.Expected)
	}
}

func TestNormalize_DuplicateLastValueWins(t *testing.T) {
	inv, err := Normalize(evselectSchema(), NewTokens("table=a.fits", "expression=X", "table=b.fits"))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	var positions []int
	for i, p := range inv.Pairs {
		if p.Name == "table" {
			positions = append(positions, i)
		}
	}
	if len(positions) != 1 {
		t.Fatalf("table appears %d times, want 1", len(positions))
	}
	if got := inv.Pairs[positions[0]].Value; got != "b.fits" {
		t.Errorf("table = %q, want b.fits (last value wins)", got)
	}
	// First occurrence fixes the position: table precedes expression.
	if inv.Pairs[positions[0]+1].Name != "expression" {
		t.Errorf("duplicate should keep its first position, got order %v", inv.Pairs)
	}
}

func TestNormalize_EarlyExitFlags(t *testing.T) {
	tests := []struct {
		token string
		want  EarlyExit
	}{
		{"-h", ExitHelp},
		{"--help", ExitHelp},
		{"-v", ExitVersion},
		{"--version", ExitVersion},
		{"-p", ExitParamDump},
		{"--param", ExitParamDump},
		{"-d", ExitDialog},
		{"--dialog", ExitDialog},
		{"-m", ExitManpage},
		{"--manpage", ExitManpage},
	}
	for _, tc := range tests {
		t.Run(tc.token, func(t *testing.T) {
			inv, err := Normalize(evselectSchema(), NewTokens("table=evt.fits", tc.token))
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if inv.EarlyExit != tc.want {
				t.Errorf("EarlyExit = %v, want %v", inv.EarlyExit, tc.want)
			}
			if len(inv.Pairs) != 0 {
				t.Errorf("Pairs = %v, want none on early exit", inv.Pairs)
			}
			if len(inv.Env) != 0 {
				t.Errorf("Env = %v, want none on early exit", inv.Env)
			}
		})
	}
}

func TestNormalize_EarlyExitSkipsValidation(t *testing.T) {
	// table is mandatory and absent, yet -h must win before any check.
	inv, err := Normalize(evselectSchema(), NewTokens("-h"))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if inv.EarlyExit != ExitHelp {
		t.Errorf("EarlyExit = %v, want help", inv.EarlyExit)
	}
}

func TestNormalize_EnvironmentFlags(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   map[string]string
	}{
		{"short verbosity", []string{"-V", "9"}, map[string]string{"verbosity": "9"}},
		{"long verbosity inline", []string{"--verbosity=9"}, map[string]string{"verbosity": "9"}},
		{"ccfpath", []string{"-a", "/calib"}, map[string]string{"ccfpath": "/calib"}},
		{"ccf inline", []string{"--ccf=/work/ccf.cif"}, map[string]string{"ccf": "/work/ccf.cif"}},
		{"ccf short", []string{"-i", "/work/ccf.cif"}, map[string]string{"ccf": "/work/ccf.cif"}},
		{"odf", []string{"--odf", "/data/odf"}, map[string]string{"odf": "/data/odf"}},
		{"warning", []string{"-w", "10"}, map[string]string{"warning": "10"}},
		{"noclobber short", []string{"-c"}, map[string]string{"clobber": "0"}},
		{"noclobber long", []string{"--noclobber"}, map[string]string{"clobber": "0"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tokens := append([]string{"table=evt.fits"}, tc.tokens...)
			inv, err := Normalize(evselectSchema(), NewTokens(tokens...))
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if diff := cmp.Diff(tc.want, inv.Env); diff != "" {
				t.Errorf("Env mismatch (-want +got):\n%s", diff)
			}
			if len(inv.Flags) != 0 {
				t.Errorf("Flags = %v, environment flags should not pass through", inv.Flags)
			}
		})
	}
}

func TestNormalize_EnvironmentFlagMissingValue(t *testing.T) {
	_, err := Normalize(evselectSchema(), NewTokens("table=evt.fits", "-V"))
	if err == nil || !strings.Contains(err.Error(), "requires a value") {
		t.Errorf("err = %v, want value-required error", err)
	}
}

func TestNormalize_OverrideKeyAsNamedParameter(t *testing.T) {
	// verbosity is not in the schema but names an environment override;
	// it survives as a pair for the dispatcher to partition.
	inv, err := Normalize(evselectSchema(), NewTokens("table=evt.fits", "verbosity=9"))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := inv.Params()["verbosity"]; got != "9" {
		t.Errorf("verbosity pair = %q, want 9", got)
	}
	if len(inv.Env) != 0 {
		t.Errorf("Env = %v, named overrides stay in Pairs", inv.Env)
	}
}

func TestNormalize_FlagPassthrough(t *testing.T) {
	inv, err := Normalize(evselectSchema(), NewTokens("table=evt.fits", "--chatter", "quiet"))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []string{"--chatter", "quiet"}
	if diff := cmp.Diff(want, inv.Flags); diff != "" {
		t.Errorf("Flags mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_StripsOuterQuotes(t *testing.T) {
	inv, err := Normalize(evselectSchema(), NewTokens("table='evt.fits'", `expression="PI>150"`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	params := inv.Params()
	if params["table"] != "evt.fits" {
		t.Errorf("table = %q, want evt.fits", params["table"])
	}
	if params["expression"] != "PI>150" {
		t.Errorf("expression = %q, want PI>150", params["expression"])
	}
}

func TestNormalize_ImplicitParentFlip(t *testing.T) {
	inv, err := Normalize(evselectSchema(), NewTokens("table=evt.fits", "filteredset=out.fits"))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	params := inv.Params()
	if params["withfilteredset"] != "yes" {
		t.Errorf("withfilteredset = %q, want yes (flipped by sub-parameter)", params["withfilteredset"])
	}
	if params["filteredset"] != "out.fits" {
		t.Errorf("filteredset = %q, want out.fits", params["filteredset"])
	}
}

func TestNormalize_ExplicitParentNotFlipped(t *testing.T) {
	inv, err := Normalize(evselectSchema(), NewTokens("table=evt.fits", "withfilteredset=no", "filteredset=out.fits"))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := inv.Params()["withfilteredset"]; got != "no" {
		t.Errorf("withfilteredset = %q, explicit value must not be overridden", got)
	}
}

func TestNormalize_MandatorySubParameterGated(t *testing.T) {
	d := schema.NewDescriptor("rgsproc", schema.NativeExecutable,
		schema.Param{Name: "withsrc", Type: schema.TypeBool, Default: "no"},
		schema.Param{Name: "srcra", Type: schema.TypeReal, Mandatory: true, Parent: "withsrc"},
	)

	if _, err := Normalize(d, NewTokens()); err != nil {
		t.Errorf("inactive group: %v, sub-parameter should not be required", err)
	}

	_, err := Normalize(d, NewTokens("withsrc=yes"))
	var missing *MissingParameterError
	if !errors.As(err, &missing) {
		t.Fatalf("active group: err = %v, want MissingParameterError", err)
	}
	if missing.Name != "srcra" {
		t.Errorf("Name = %q, want srcra", missing.Name)
	}

	if _, err := Normalize(d, NewTokens("withsrc=yes", "srcra=12.3")); err != nil {
		t.Errorf("satisfied group: %v", err)
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		param   schema.Param
		raw     string
		want    string
		wantErr bool
	}{
		{"bool yes", schema.Param{Name: "b", Type: schema.TypeBool}, "yes", "yes", false},
		{"bool T canonicalized", schema.Param{Name: "b", Type: schema.TypeBool}, "T", "yes", false},
		{"bool 0 canonicalized", schema.Param{Name: "b", Type: schema.TypeBool}, "0", "no", false},
		{"bool invalid", schema.Param{Name: "b", Type: schema.TypeBool}, "maybe", "", true},
		{"int keeps spelling", schema.Param{Name: "n", Type: schema.TypeInt}, "007", "007", false},
		{"int negative", schema.Param{Name: "n", Type: schema.TypeInt}, "-5", "-5", false},
		{"int invalid", schema.Param{Name: "n", Type: schema.TypeInt}, "1.5", "", true},
		{"real exponent", schema.Param{Name: "r", Type: schema.TypeReal}, "1e3", "1e3", false},
		{"real invalid", schema.Param{Name: "r", Type: schema.TypeReal}, "abc", "", true},
		{"allowed accepted", schema.Param{Name: "e", Type: schema.TypeString, Allowed: []string{"PHA", "PI"}}, "PI", "PI", false},
		{"allowed rejected", schema.Param{Name: "e", Type: schema.TypeString, Allowed: []string{"PHA", "PI"}}, "PW", "", true},
		{"list skips element checks", schema.Param{Name: "l", Type: schema.TypeInt, List: true}, "1 2 3", "1 2 3", false},
		{"quoted value stripped", schema.Param{Name: "s", Type: schema.TypeString}, "'evt.fits'", "evt.fits", false},
		{"quoted bool stripped first", schema.Param{Name: "b", Type: schema.TypeBool}, `"true"`, "yes", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := coerce(tc.param, tc.raw)
			if tc.wantErr {
				var mismatch *TypeMismatchError
				if !errors.As(err, &mismatch) {
					t.Fatalf("err = %v, want TypeMismatchError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("coerce: %v", err)
			}
			if got != tc.want {
				t.Errorf("coerce = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStripOuterQuotes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"'evt.fits'", "evt.fits"},
		{`"evt.fits"`, "evt.fits"},
		{`'mixed"`, `'mixed"`},
		{"''", ""},
		{"'", "'"},
		{"''x''", "'x'"},
		{"plain", "plain"},
	}
	for _, tc := range tests {
		if got := stripOuterQuotes(tc.in); got != tc.want {
			t.Errorf("stripOuterQuotes(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
