// Package schema reads SAS task parameter files. Every task ships a
// config/<task>.par XML document describing the parameters it accepts;
// descriptors parsed from those files drive argument validation and
// dispatch. Files are static per SAS installation, so descriptors are
// cached process-wide by task name.
package schema

// Kind tags how a task executes.
type Kind int

const (
	// NativeExecutable tasks spawn the SAS binary of the same name.
	NativeExecutable Kind = iota
	// InProcess tasks run as registered Go routines inside this process.
	InProcess
)

func (k Kind) String() string {
	if k == InProcess {
		return "in-process"
	}
	return "native"
}

// ParamType is the declared type of one task parameter.
type ParamType string

const (
	TypeBool    ParamType = "bool"
	TypeInt     ParamType = "int"
	TypeReal    ParamType = "real"
	TypeString  ParamType = "string"
	TypeAngle   ParamType = "angle"
	TypeTime    ParamType = "time"
	TypeFile    ParamType = "file"
	TypeTable   ParamType = "table"
	TypeDataset ParamType = "dataset"
)

var validTypes = map[ParamType]bool{
	TypeBool: true, TypeInt: true, TypeReal: true, TypeString: true,
	TypeAngle: true, TypeTime: true, TypeFile: true, TypeTable: true,
	TypeDataset: true,
}

// Param describes one declared parameter.
type Param struct {
	Name        string
	Type        ParamType
	Default     string
	Mandatory   bool
	List        bool     // value may be a space/comma separated list
	Allowed     []string // ITEM alternatives; empty means unconstrained
	Constraints string   // free-form range text from CONSTRAINTS
	Description string
	Parent      string // enclosing parameter name for sub-parameters
}

// HasDefault reports whether the parameter declares a default value.
// Parameter files cannot distinguish an absent default attribute from
// an empty one, so empty counts as absent.
func (p Param) HasDefault() bool {
	return p.Default != ""
}

// Descriptor is one task's parameter schema in declaration order.
type Descriptor struct {
	Task    string
	Version string
	Kind    Kind
	Open    bool // accepts parameter names outside the schema
	Params  []Param

	index map[string]int
}

// NewDescriptor builds a descriptor from parameters in declaration
// order. Used for in-process tasks that register their schema in code
// rather than via a parameter file.
func NewDescriptor(task string, kind Kind, params ...Param) *Descriptor {
	d := &Descriptor{Task: task, Kind: kind, Params: params}
	d.reindex()
	return d
}

func (d *Descriptor) reindex() {
	d.index = make(map[string]int, len(d.Params))
	for i, p := range d.Params {
		d.index[p.Name] = i
	}
}

// Get returns the parameter declared under name.
func (d *Descriptor) Get(name string) (Param, bool) {
	i, ok := d.index[name]
	if !ok {
		return Param{}, false
	}
	return d.Params[i], true
}

// Names returns all parameter names in declaration order.
func (d *Descriptor) Names() []string {
	out := make([]string, len(d.Params))
	for i, p := range d.Params {
		out[i] = p.Name
	}
	return out
}

// Children returns the sub-parameters declared under parent, in order.
func (d *Descriptor) Children(parent string) []Param {
	var out []Param
	for _, p := range d.Params {
		if p.Parent == parent {
			out = append(out, p)
		}
	}
	return out
}
