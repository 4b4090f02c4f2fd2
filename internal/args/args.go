// Package args normalizes caller-supplied task arguments against a
// task parameter schema into one canonical, order-deterministic
// argument vector. Callers pass either a name→value map or a flat token
// list mixing "name=value" entries with bare flags; both shapes
// normalize to the same result for the same content.
package args

import (
	"fmt"
	"strconv"
	"strings"
)

// ArgumentSet is the caller's raw input in one of the two accepted
// shapes. A non-nil Map takes the map shape; otherwise Tokens is used.
type ArgumentSet struct {
	Map    map[string]any
	Tokens []string
}

// NewMap wraps a name→value map. Values are rendered with renderValue
// semantics: booleans become yes/no, numbers their decimal form.
func NewMap(m map[string]any) ArgumentSet { return ArgumentSet{Map: m} }

// NewTokens wraps a flat argument list.
func NewTokens(tokens ...string) ArgumentSet { return ArgumentSet{Tokens: tokens} }

// EarlyExit identifies the info action a recognized flag requests in
// place of normal execution.
type EarlyExit int

const (
	NoExit EarlyExit = iota
	ExitHelp
	ExitVersion
	ExitParamDump
	ExitDialog
	ExitManpage
)

func (e EarlyExit) String() string {
	switch e {
	case ExitHelp:
		return "help"
	case ExitVersion:
		return "version"
	case ExitParamDump:
		return "param-dump"
	case ExitDialog:
		return "dialog"
	case ExitManpage:
		return "manpage"
	}
	return "none"
}

// Pair is one named argument in canonical position.
type Pair struct {
	Name  string
	Value string
}

// Invocation is the canonical argument vector for one task invocation:
// default-injected parameters in schema order, then supplied parameters
// in caller order, then bare flags in caller order. Env carries
// override keys extracted from environment-modifier flags; the
// dispatcher merges in overrides that arrived as named parameters.
// Treat as read-only once built.
type Invocation struct {
	Task      string
	Pairs     []Pair
	Flags     []string
	Env       map[string]string
	EarlyExit EarlyExit
}

// Argv serializes the invocation for a subprocess: one verbatim
// name=value token per pair, then the bare flags. No quoting or
// escaping is applied; each token reaches the OS as a discrete argv
// element, so embedded spaces and quotes survive as-is.
func (inv *Invocation) Argv() []string {
	out := make([]string, 0, len(inv.Pairs)+len(inv.Flags))
	for _, p := range inv.Pairs {
		out = append(out, p.Name+"="+p.Value)
	}
	out = append(out, inv.Flags...)
	return out
}

// Params returns the named pairs as a map for the in-process strategy.
func (inv *Invocation) Params() map[string]string {
	out := make(map[string]string, len(inv.Pairs))
	for _, p := range inv.Pairs {
		out[p.Name] = p.Value
	}
	return out
}

// Render returns a shell-pasteable command line for logs. Values (not
// whole tokens) containing whitespace or shell metacharacters are
// single-quoted; the executed argv never carries this quoting.
func (inv *Invocation) Render() string {
	var b strings.Builder
	b.WriteString(inv.Task)
	for _, p := range inv.Pairs {
		b.WriteByte(' ')
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(quoteForShell(p.Value))
	}
	for _, f := range inv.Flags {
		b.WriteByte(' ')
		b.WriteString(f)
	}
	return b.String()
}

// shellMeta forces value quoting in Render.
const shellMeta = " \t|&;()<>$`\\\"'*?[]{}~#"

func quoteForShell(v string) string {
	if v == "" {
		return "''"
	}
	if !strings.ContainsAny(v, shellMeta) {
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}

// renderValue converts a caller-supplied map value to its argument
// string: booleans become yes/no, numbers their decimal form,
// everything else its natural formatting.
func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
