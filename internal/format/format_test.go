package format_test

import (
	"strings"
	"testing"
	"time"

	"saskit/internal/format"
	"saskit/internal/schema"
)

func TestASCII_BasicTable(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Task", "Kind", "Duration")
	tb.Row("cifbuild", "native", "12s")
	tb.Row("sasver", "in-process", "3ms")
	out := tb.String()

	if !strings.Contains(out, "Task") {
		t.Errorf("expected header 'Task' in output:\n%s", out)
	}
	if !strings.Contains(out, "cifbuild") {
		t.Errorf("expected 'cifbuild' in output:\n%s", out)
	}
	// ASCII uses box-drawing characters from StyleLight.
	if strings.Contains(out, "───") == false {
		t.Errorf("expected box-drawing characters in ASCII output:\n%s", out)
	}
}

func TestMarkdown_BasicTable(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Header("Task", "Status")
	tb.Row("epproc", "SUCCESS")
	tb.Row("rgsproc", "FAILURE")
	out := tb.String()

	if !strings.Contains(out, "| Task") {
		t.Errorf("expected markdown header with '| Task':\n%s", out)
	}
	if !strings.Contains(out, "---") {
		t.Errorf("expected markdown separator '---':\n%s", out)
	}
	if !strings.Contains(out, "rgsproc") {
		t.Errorf("expected 'rgsproc' in output:\n%s", out)
	}
}

func TestMarkdown_WithFooter(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Header("Task", "Runs")
	tb.Row("cifbuild", 2)
	tb.Row("odfingest", 1)
	tb.Footer("TOTAL", 3)
	out := tb.String()

	if !strings.Contains(out, "TOTAL") {
		t.Errorf("expected footer 'TOTAL' in output:\n%s", out)
	}
}

func TestSameData_DualFormat(t *testing.T) {
	build := func(m format.Mode) string {
		tb := format.NewTable(m)
		tb.Header("A", "B")
		tb.Row("x", "y")
		return tb.String()
	}

	ascii := build(format.ASCII)
	md := build(format.Markdown)

	if ascii == md {
		t.Error("ASCII and Markdown output should differ")
	}
	for _, out := range []string{ascii, md} {
		if !strings.Contains(out, "x") || !strings.Contains(out, "y") {
			t.Errorf("expected data in output:\n%s", out)
		}
	}
}

func TestParamsTable(t *testing.T) {
	d := schema.NewDescriptor("evselect", schema.NativeExecutable,
		schema.Param{Name: "table", Type: schema.TypeTable, Mandatory: true, Description: "input event table"},
		schema.Param{Name: "withfilteredset", Type: schema.TypeBool, Default: "no"},
		schema.Param{Name: "filteredset", Type: schema.TypeFile, Default: "filtered.fits", Parent: "withfilteredset"},
		schema.Param{Name: "energycolumn", Type: schema.TypeString, Default: "PHA", Allowed: []string{"PHA", "PI"}},
	)
	out := format.ParamsTable(d, format.ASCII)

	for _, want := range []string{"table", "withfilteredset", "filtered.fits", "PHA|PI"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in params table:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "✓") {
		t.Errorf("expected mandatory mark in params table:\n%s", out)
	}
}

func TestTaskHelp(t *testing.T) {
	d := schema.NewDescriptor("cifbuild", schema.NativeExecutable,
		schema.Param{Name: "calindexset", Type: schema.TypeFile, Default: "ccf.cif"},
	)
	d.Version = "4.11"
	out := format.TaskHelp(d)

	if !strings.Contains(out, "cifbuild (cifbuild-4.11)") {
		t.Errorf("expected identification line:\n%s", out)
	}
	if !strings.Contains(out, "Usage: cifbuild") {
		t.Errorf("expected usage line:\n%s", out)
	}
	if !strings.Contains(out, "calindexset") {
		t.Errorf("expected parameter in help:\n%s", out)
	}
}

func TestParamDump(t *testing.T) {
	d := schema.NewDescriptor("odfingest", schema.NativeExecutable,
		schema.Param{Name: "odfdir", Type: schema.TypeString, Default: "."},
		schema.Param{Name: "outdir", Type: schema.TypeString, Default: "."},
		schema.Param{Name: "withodfdir", Type: schema.TypeBool, Default: "no"},
	)
	out := format.ParamDump(d)

	want := "odfdir=.\noutdir=.\nwithodfdir=no\n"
	if out != want {
		t.Errorf("ParamDump = %q, want %q", out, want)
	}
}

func TestFmtDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0ms"},
		{850 * time.Millisecond, "850ms"},
		{30 * time.Second, "30s"},
		{59 * time.Second, "59s"},
		{60 * time.Second, "1m 0s"},
		{5*time.Minute + 15*time.Second, "5m 15s"},
	}
	for _, tc := range tests {
		got := format.FmtDuration(tc.in)
		if got != tc.want {
			t.Errorf("FmtDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFmtBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1500, "1.5 kB"},
		{2_300_000, "2.3 MB"},
		{1_200_000_000, "1.2 GB"},
	}
	for _, tc := range tests {
		got := format.FmtBytes(tc.in)
		if got != tc.want {
			t.Errorf("FmtBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 8, "hello..."},
		{"ab", 3, "ab"},
		{"abcdef", 3, "abc"},
	}
	for _, tc := range tests {
		got := format.Truncate(tc.in, tc.maxLen)
		if got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.maxLen, got, tc.want)
		}
	}
}

func TestBoolMark(t *testing.T) {
	if format.BoolMark(true) != "✓" {
		t.Error("BoolMark(true) should be ✓")
	}
	if format.BoolMark(false) != "✗" {
		t.Error("BoolMark(false) should be ✗")
	}
}
