package schema

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// SearchPath returns the directories scanned for config/<task>.par
// files: the SAS_PATH entries when set, else SAS_DIR alone.
func SearchPath() []string {
	if p := os.Getenv("SAS_PATH"); p != "" {
		return filepath.SplitList(p)
	}
	if d := os.Getenv("SAS_DIR"); d != "" {
		return []string{d}
	}
	return nil
}

// Reader locates and parses task parameter files. Construct with
// NewReader; the zero value has no cache.
type Reader struct {
	mu    sync.Mutex
	paths []string
	cache map[string]*Descriptor
}

// NewReader returns a reader scanning the given directories. With none,
// the SAS path is derived from the environment on every lookup, so a
// reader built before SAS initialization works after it too.
func NewReader(paths ...string) *Reader {
	return &Reader{paths: paths, cache: make(map[string]*Descriptor)}
}

// Register seeds the cache with a descriptor built in code. In-process
// tasks use this so they resolve without a SAS installation on disk.
func (r *Reader) Register(d *Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[d.Task] = d
}

// Load returns the descriptor for task, parsing its parameter file on
// first use. Fails with NotFoundError when no file exists on the SAS
// path and with MalformedError when the file does not parse.
func (r *Reader) Load(task string) (*Descriptor, error) {
	r.mu.Lock()
	if d, ok := r.cache[task]; ok {
		r.mu.Unlock()
		return d, nil
	}
	r.mu.Unlock()

	file, err := r.find(task)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, &MalformedError{Task: task, Field: "file", Err: err}
	}
	d, err := Parse(task, data)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[task] = d
	r.mu.Unlock()
	return d, nil
}

func (r *Reader) find(task string) (string, error) {
	paths := r.paths
	if len(paths) == 0 {
		paths = SearchPath()
	}
	for _, dir := range paths {
		cand := filepath.Join(dir, "config", task+".par")
		if info, err := os.Stat(cand); err == nil && !info.IsDir() {
			return cand, nil
		}
	}
	return "", &NotFoundError{Task: task}
}

// Tasks lists every task resolvable through this reader: descriptors
// registered in code plus config/<task>.par files on the search path.
// Sorted and deduplicated.
func (r *Reader) Tasks() []string {
	seen := make(map[string]bool)
	r.mu.Lock()
	for name := range r.cache {
		seen[name] = true
	}
	paths := r.paths
	r.mu.Unlock()
	if len(paths) == 0 {
		paths = SearchPath()
	}
	for _, dir := range paths {
		entries, err := os.ReadDir(filepath.Join(dir, "config"))
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ".par") {
				continue
			}
			seen[strings.TrimSuffix(name, ".par")] = true
		}
	}
	tasks := make([]string, 0, len(seen))
	for name := range seen {
		tasks = append(tasks, name)
	}
	sort.Strings(tasks)
	return tasks
}

// Parameter file XML shape. PARAM elements nest to declare
// sub-parameters, either directly or under CASE/ITEM alternatives.
type xmlTask struct {
	Name    string     `xml:"name,attr"`
	Version string     `xml:"version,attr"`
	Open    string     `xml:"open,attr"`
	Params  []xmlParam `xml:"PARAM"`
}

type xmlParam struct {
	ID          string     `xml:"id,attr"`
	Type        string     `xml:"type,attr"`
	Default     string     `xml:"default,attr"`
	Mandatory   string     `xml:"mandatory,attr"`
	List        string     `xml:"list,attr"`
	Description string     `xml:"DESCRIPTION"`
	Constraints string     `xml:"CONSTRAINTS"`
	Cases       []xmlCase  `xml:"CASE"`
	Children    []xmlParam `xml:"PARAM"`
}

type xmlCase struct {
	Items []xmlItem `xml:"ITEM"`
}

type xmlItem struct {
	Value    string     `xml:"value,attr"`
	Children []xmlParam `xml:"PARAM"`
}

// Parse decodes one parameter file. Exposed for tooling and tests; most
// callers go through Reader.Load.
func Parse(task string, data []byte) (*Descriptor, error) {
	var doc xmlTask
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedError{Task: task, Field: "document", Err: err}
	}
	d := &Descriptor{
		Task:    task,
		Version: doc.Version,
		Kind:    NativeExecutable,
		Open:    doc.Open == "yes",
	}
	if err := appendParams(d, doc.Params, ""); err != nil {
		return nil, err
	}
	d.reindex()
	return d, nil
}

func appendParams(d *Descriptor, params []xmlParam, parent string) error {
	for _, xp := range params {
		if xp.ID == "" {
			return &MalformedError{Task: d.Task, Field: "id", Err: errors.New("missing id attribute")}
		}
		pt := ParamType(xp.Type)
		if xp.Type == "" {
			pt = TypeString
		}
		if !validTypes[pt] {
			return &MalformedError{Task: d.Task, Field: xp.ID, Err: fmt.Errorf("unknown type %q", xp.Type)}
		}
		p := Param{
			Name:        xp.ID,
			Type:        pt,
			Default:     xp.Default,
			Mandatory:   xp.Mandatory == "yes",
			List:        xp.List == "yes",
			Constraints: collapse(xp.Constraints),
			Description: collapse(xp.Description),
			Parent:      parent,
		}
		for _, c := range xp.Cases {
			for _, item := range c.Items {
				if item.Value != "" {
					p.Allowed = append(p.Allowed, item.Value)
				}
			}
		}
		d.Params = append(d.Params, p)

		if err := appendParams(d, xp.Children, xp.ID); err != nil {
			return err
		}
		for _, c := range xp.Cases {
			for _, item := range c.Items {
				if err := appendParams(d, item.Children, xp.ID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// collapse trims and folds the multiline text blocks parameter files
// carry in DESCRIPTION and CONSTRAINTS elements.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
