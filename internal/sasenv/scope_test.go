package sasenv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEnterExit_RestoresPreviousValue(t *testing.T) {
	t.Setenv("SAS_VERBOSITY", "5")

	scope, err := Enter(map[string]string{"verbosity": "9"})
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if got := os.Getenv("SAS_VERBOSITY"); got != "9" {
		t.Errorf("SAS_VERBOSITY during scope = %q, want 9", got)
	}

	if err := scope.Exit(); err != nil {
		t.Fatalf("Exit: %v", err)
	}
	if got := os.Getenv("SAS_VERBOSITY"); got != "5" {
		t.Errorf("SAS_VERBOSITY after exit = %q, want 5", got)
	}
}

func TestEnterExit_UnsetsVariableThatWasUnset(t *testing.T) {
	t.Setenv("SAS_CCF", "")
	os.Unsetenv("SAS_CCF")

	scope, err := Enter(map[string]string{"ccf": "/data/work/ccf.cif"})
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if got := os.Getenv("SAS_CCF"); got != "/data/work/ccf.cif" {
		t.Errorf("SAS_CCF during scope = %q", got)
	}

	if err := scope.Exit(); err != nil {
		t.Fatalf("Exit: %v", err)
	}
	if _, ok := os.LookupEnv("SAS_CCF"); ok {
		t.Error("SAS_CCF still set after exit, want unset")
	}
}

func TestEnterExit_WorkDir(t *testing.T) {
	start := t.TempDir()
	target := t.TempDir()
	t.Chdir(start)

	scope, err := Enter(map[string]string{WorkDirKey: target})
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}

	got, _ := os.Getwd()
	wantTarget, _ := filepath.EvalSymlinks(target)
	gotNow, _ := filepath.EvalSymlinks(got)
	if gotNow != wantTarget {
		t.Errorf("cwd during scope = %s, want %s", gotNow, wantTarget)
	}

	if err := scope.Exit(); err != nil {
		t.Fatalf("Exit: %v", err)
	}
	back, _ := os.Getwd()
	backResolved, _ := filepath.EvalSymlinks(back)
	startResolved, _ := filepath.EvalSymlinks(start)
	if backResolved != startResolved {
		t.Errorf("cwd after exit = %s, want %s", backResolved, startResolved)
	}
}

func TestEnter_UnknownKeyRollsBack(t *testing.T) {
	t.Setenv("SAS_CCF", "/original/ccf.cif")

	// Sorted application order puts "ccf" before the bogus key, so the
	// ccf override is applied and must be rolled back.
	_, err := Enter(map[string]string{
		"ccf":        "/new/ccf.cif",
		"zz_unknown": "x",
	})
	if err == nil {
		t.Fatal("Enter accepted an unknown override key")
	}
	if got := os.Getenv("SAS_CCF"); got != "/original/ccf.cif" {
		t.Errorf("SAS_CCF after failed enter = %q, want original", got)
	}
}

func TestExit_Idempotent(t *testing.T) {
	t.Setenv("SAS_ODF", "/before")

	scope, err := Enter(map[string]string{"odf": "/during"})
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if err := scope.Exit(); err != nil {
		t.Fatalf("first Exit: %v", err)
	}

	t.Setenv("SAS_ODF", "/changed-after-exit")
	if err := scope.Exit(); err != nil {
		t.Fatalf("second Exit: %v", err)
	}
	if got := os.Getenv("SAS_ODF"); got != "/changed-after-exit" {
		t.Errorf("second Exit re-restored: SAS_ODF = %q", got)
	}
}

func TestExit_NilScope(t *testing.T) {
	var scope *Scope
	if err := scope.Exit(); err != nil {
		t.Errorf("nil scope Exit = %v, want nil", err)
	}
}

func TestApplied(t *testing.T) {
	t.Setenv("SAS_VERBOSITY", "4")
	t.Setenv("SAS_CCFPATH", "/old")

	scope, err := Enter(map[string]string{"verbosity": "8", "ccfpath": "/new"})
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	defer scope.Exit()

	want := map[string]string{"SAS_VERBOSITY": "8", "SAS_CCFPATH": "/new"}
	if diff := cmp.Diff(want, scope.Applied()); diff != "" {
		t.Errorf("Applied (-want +got):\n%s", diff)
	}
}

func TestEnvBlock(t *testing.T) {
	got := EnvBlock(map[string]string{
		"verbosity": "9",
		"odf":       "/data/odf",
		WorkDirKey:  "/data/work",
	})

	want := []string{"SAS_ODF=/data/odf", "SAS_VERBOSITY=9"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("EnvBlock (-want +got):\n%s", diff)
	}
}

func TestIsOverrideKey(t *testing.T) {
	for _, key := range []string{"verbosity", "ccfpath", "ccf", "odf", "clobber", "warning", WorkDirKey} {
		if !IsOverrideKey(key) {
			t.Errorf("IsOverrideKey(%q) = false", key)
		}
	}
	if IsOverrideKey("table") {
		t.Error(`IsOverrideKey("table") = true`)
	}
}

func TestRestoreError_Unwrap(t *testing.T) {
	cause := errors.New("chdir failed")
	err := &RestoreError{Vars: []string{"cwd"}, Err: cause}
	if !errors.Is(err, cause) {
		t.Error("RestoreError does not unwrap to its cause")
	}
}
