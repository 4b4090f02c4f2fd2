package args

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"saskit/internal/sasenv"
	"saskit/internal/schema"
)

// Recognized info flags. The first one found short-circuits
// normalization entirely.
var exitFlags = map[string]EarlyExit{
	"-h": ExitHelp, "--help": ExitHelp,
	"-v": ExitVersion, "--version": ExitVersion,
	"-p": ExitParamDump, "--param": ExitParamDump,
	"-d": ExitDialog, "--dialog": ExitDialog,
	"-m": ExitManpage, "--manpage": ExitManpage,
}

// Environment-modifier flags and the override key each one feeds. All
// of these consume a value; -c/--noclobber stands alone below.
var envFlags = map[string]string{
	"-V": "verbosity", "--verbosity": "verbosity",
	"-a": "ccfpath", "--ccfpath": "ccfpath",
	"-i": "ccf", "--ccf": "ccf",
	"-o": "odf", "--odf": "odf",
	"-w": "warning", "--warning": "warning",
}

// Normalize merges the argument set with the schema's defaults into a
// canonical Invocation. The result is deterministic for a given
// (schema, input) pair: defaults for unsupplied parameters are injected
// in schema order, supplied parameters follow in caller order (map
// input iterates in sorted name order), bare flags keep their relative
// order at the end. Validation fails with UnknownParameterError,
// TypeMismatchError or MissingParameterError; nothing is mutated on
// failure.
func Normalize(d *schema.Descriptor, set ArgumentSet) (*Invocation, error) {
	candidates, flags, env, exit, err := collect(set)
	if err != nil {
		return nil, err
	}
	if exit != NoExit {
		return &Invocation{Task: d.Task, Flags: flags, EarlyExit: exit}, nil
	}

	supplied := make([]Pair, 0, len(candidates))
	seen := make(map[string]int, len(candidates))
	for _, c := range candidates {
		p, declared := d.Get(c.Name)
		var value string
		switch {
		case declared:
			v, err := coerce(p, c.Value)
			if err != nil {
				return nil, err
			}
			value = v
		case sasenv.IsOverrideKey(c.Name), d.Open:
			value = stripOuterQuotes(c.Value)
		default:
			return nil, &UnknownParameterError{Task: d.Task, Name: c.Name}
		}
		if i, dup := seen[c.Name]; dup {
			supplied[i].Value = value
			continue
		}
		seen[c.Name] = len(supplied)
		supplied = append(supplied, Pair{Name: c.Name, Value: value})
	}

	flips := implicitParents(d, supplied, seen)

	var injected []Pair
	for _, p := range d.Params {
		if _, given := seen[p.Name]; given {
			continue
		}
		switch {
		case flips[p.Name]:
			injected = append(injected, Pair{Name: p.Name, Value: "yes"})
		case p.HasDefault():
			injected = append(injected, Pair{Name: p.Name, Value: p.Default})
		}
	}

	effective := make(map[string]string, len(injected)+len(supplied))
	for _, p := range injected {
		effective[p.Name] = p.Value
	}
	for _, p := range supplied {
		effective[p.Name] = p.Value
	}
	if err := checkMandatory(d, effective); err != nil {
		return nil, err
	}

	return &Invocation{
		Task:  d.Task,
		Pairs: append(injected, supplied...),
		Flags: flags,
		Env:   env,
	}, nil
}

// collect splits the raw input into named candidates, passthrough
// flags and environment overrides. Map input yields candidates in
// sorted name order so normalization stays deterministic.
func collect(set ArgumentSet) (candidates []Pair, flags []string, env map[string]string, exit EarlyExit, err error) {
	env = make(map[string]string)

	if set.Map != nil {
		names := make([]string, 0, len(set.Map))
		for name := range set.Map {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			candidates = append(candidates, Pair{Name: name, Value: renderValue(set.Map[name])})
		}
		return candidates, nil, env, NoExit, nil
	}

	for i := 0; i < len(set.Tokens); i++ {
		tok := set.Tokens[i]
		if e, ok := exitFlags[tok]; ok {
			return nil, []string{tok}, nil, e, nil
		}
		if strings.HasPrefix(tok, "-") {
			name, inline, hasInline := strings.Cut(tok, "=")
			if key, ok := envFlags[name]; ok {
				value := inline
				if !hasInline {
					if i+1 >= len(set.Tokens) {
						return nil, nil, nil, NoExit, fmt.Errorf("flag %s requires a value", tok)
					}
					i++
					value = set.Tokens[i]
				}
				env[key] = stripOuterQuotes(value)
				continue
			}
			if name == "-c" || name == "--noclobber" {
				env["clobber"] = "0"
				continue
			}
			flags = append(flags, tok)
			continue
		}
		if name, value, ok := strings.Cut(tok, "="); ok {
			candidates = append(candidates, Pair{Name: name, Value: value})
			continue
		}
		flags = append(flags, tok)
	}
	return candidates, flags, env, NoExit, nil
}

// implicitParents finds boolean group parents that must flip to yes
// because one of their sub-parameters was supplied without them.
func implicitParents(d *schema.Descriptor, supplied []Pair, seen map[string]int) map[string]bool {
	flips := make(map[string]bool)
	for _, sp := range supplied {
		p, ok := d.Get(sp.Name)
		if !ok || p.Parent == "" {
			continue
		}
		parent, ok := d.Get(p.Parent)
		if !ok || parent.Type != schema.TypeBool {
			continue
		}
		if _, given := seen[p.Parent]; !given {
			flips[p.Parent] = true
		}
	}
	return flips
}

// checkMandatory enforces required parameters. A mandatory
// sub-parameter applies only while its group is active: a boolean
// parent must be yes, any other parent merely present.
func checkMandatory(d *schema.Descriptor, effective map[string]string) error {
	for _, p := range d.Params {
		if !p.Mandatory {
			continue
		}
		if _, ok := effective[p.Name]; ok {
			continue
		}
		if p.Parent != "" {
			pv, present := effective[p.Parent]
			if !present {
				continue
			}
			if parent, ok := d.Get(p.Parent); ok && parent.Type == schema.TypeBool && pv != "yes" {
				continue
			}
		}
		return &MissingParameterError{Task: d.Task, Name: p.Name}
	}
	return nil
}

// coerce validates raw against the declared type and returns the value
// as it will appear in the argument vector. One layer of matching outer
// quotes is stripped first; booleans canonicalize to yes/no; numeric
// types validate but keep the caller's spelling; list-typed parameters
// pass through, their separators being task-specific.
func coerce(p schema.Param, raw string) (string, error) {
	v := stripOuterQuotes(raw)
	if !p.List {
		switch p.Type {
		case schema.TypeBool:
			b, ok := parseBool(v)
			if !ok {
				return "", &TypeMismatchError{Name: p.Name, Expected: "bool", Got: raw}
			}
			if b {
				v = "yes"
			} else {
				v = "no"
			}
		case schema.TypeInt:
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				return "", &TypeMismatchError{Name: p.Name, Expected: "int", Got: raw}
			}
		case schema.TypeReal:
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return "", &TypeMismatchError{Name: p.Name, Expected: "real", Got: raw}
			}
		}
	}
	if len(p.Allowed) > 0 && !containsString(p.Allowed, v) {
		return "", &TypeMismatchError{
			Name:     p.Name,
			Expected: "one of " + strings.Join(p.Allowed, "|"),
			Got:      raw,
		}
	}
	return v, nil
}

func parseBool(v string) (value, ok bool) {
	switch strings.ToLower(v) {
	case "y", "yes", "t", "true", "1":
		return true, true
	case "n", "no", "f", "false", "0":
		return false, true
	}
	return false, false
}

// stripOuterQuotes removes exactly one layer of matching single or
// double quotes. Values arriving through shells or notebooks often
// carry one quoting layer too many (SOC-SPR-7684).
func stripOuterQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '\'' || first == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
