package format

import (
	"fmt"
	"strings"

	"saskit/internal/schema"
)

// ParamsTable renders a task's parameter schema, one row per parameter
// with sub-parameters indented under their group.
func ParamsTable(d *schema.Descriptor, m Mode) string {
	tb := NewTable(m)
	tb.Header("Parameter", "Mand", "Type", "Default", "Constraints", "Description")
	for _, p := range d.Params {
		name := p.Name
		if p.Parent != "" {
			name = "  " + name
		}
		typ := string(p.Type)
		if p.List {
			typ += " list"
		}
		constraints := p.Constraints
		if len(p.Allowed) > 0 {
			constraints = strings.Join(p.Allowed, "|")
		}
		tb.Row(name, BoolMark(p.Mandatory), typ, p.Default, constraints, p.Description)
	}
	tb.Wrap(6, 48)
	return tb.String()
}

// TaskHelp renders the help info action: an identification line, usage,
// and the parameter table.
func TaskHelp(d *schema.Descriptor) string {
	var b strings.Builder
	if d.Version != "" {
		fmt.Fprintf(&b, "%s (%s-%s)\n", d.Task, d.Task, d.Version)
	} else {
		fmt.Fprintf(&b, "%s\n", d.Task)
	}
	fmt.Fprintf(&b, "Usage: %s [param=value ...] [options]\n\n", d.Task)
	b.WriteString(ParamsTable(d, ASCII))
	b.WriteString("\n")
	return b.String()
}

// ParamDump renders the parameter-dump info action: name=default lines
// in schema order.
func ParamDump(d *schema.Descriptor) string {
	var b strings.Builder
	for _, p := range d.Params {
		fmt.Fprintf(&b, "%s=%s\n", p.Name, p.Default)
	}
	return b.String()
}
