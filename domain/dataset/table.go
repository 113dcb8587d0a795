package dataset

import (
	"fmt"
	"math"
	"strconv"

	"gostatsplot/domain/core"
)

// Kind is the storage type of a column
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Column is a named vector. Numeric columns mark missing values with NaN,
// categorical columns with the empty string.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
}

// NewNumeric creates a numeric column. The slice is copied.
func NewNumeric(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Numeric, Floats: append([]float64(nil), values...)}
}

// NewCategorical creates a categorical column. The slice is copied.
func NewCategorical(name string, values []string) *Column {
	return &Column{Name: name, Kind: Categorical, Strings: append([]string(nil), values...)}
}

// Len returns the number of rows
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// IsMissing reports whether row i holds no value
func (c *Column) IsMissing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Floats[i])
	}
	return c.Strings[i] == ""
}

// Label returns row i as a string. Numeric values use the shortest
// representation that round-trips.
func (c *Column) Label(i int) string {
	if c.Kind == Categorical {
		return c.Strings[i]
	}
	if math.IsNaN(c.Floats[i]) {
		return ""
	}
	return strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
}

func (c *Column) take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Numeric {
		out.Floats = make([]float64, len(rows))
		for j, i := range rows {
			out.Floats[j] = c.Floats[i]
		}
		return out
	}
	out.Strings = make([]string, len(rows))
	for j, i := range rows {
		out.Strings[j] = c.Strings[i]
	}
	return out
}

// Table is an immutable set of equally long named columns.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable builds a table from columns of equal length and distinct names.
func NewTable(cols ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if c.Name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, expected %d", core.ErrLengthMismatch, c.Name, c.Len(), t.rows)
		}
		t.index[c.Name] = i
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// MustTable is NewTable for fixtures; it panics on error.
func MustTable(cols ...*Column) *Table {
	t, err := NewTable(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of rows
func (t *Table) Len() int { return t.rows }

// Names returns column names in schema order
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether a column exists
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column looks a column up by name
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, core.NewMissingColumnError(name)
	}
	return t.columns[i], nil
}

// Numeric returns the values of a numeric column.
func (t *Table) Numeric(name string) ([]float64, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != Numeric {
		return nil, fmt.Errorf("%w: %q is %s, need numeric", core.ErrColumnKind, name, c.Kind)
	}
	return c.Floats, nil
}

// Categorical returns the values of a column as labels. Numeric columns are
// accepted and formatted, so integer codes can serve as factors.
func (t *Table) Categorical(name string) ([]string, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind == Categorical {
		return c.Strings, nil
	}
	out := make([]string, c.Len())
	for i := range out {
		out[i] = c.Label(i)
	}
	return out, nil
}

// Require validates variable references against the schema.
func (t *Table) Require(refs ...VarRef) error {
	for _, r := range refs {
		if r.Name == "" {
			continue
		}
		c, err := t.Column(r.Name)
		if err != nil {
			return fmt.Errorf("%s variable: %w", r.Role, err)
		}
		if r.Role.NeedsNumeric() && c.Kind != Numeric {
			return fmt.Errorf("%w: %s variable %q is %s, need numeric", core.ErrColumnKind, r.Role, r.Name, c.Kind)
		}
	}
	return nil
}

// DropMissing keeps the rows that are complete in every named column.
func (t *Table) DropMissing(names ...string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	rows := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		complete := true
		for _, c := range cols {
			if c.IsMissing(i) {
				complete = false
				break
			}
		}
		if complete {
			rows = append(rows, i)
		}
	}
	return t.take(rows), nil
}

// Levels returns distinct non-missing values in order of first appearance.
func (t *Table) Levels(name string) ([]string, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var levels []string
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		l := c.Label(i)
		if !seen[l] {
			seen[l] = true
			levels = append(levels, l)
		}
	}
	return levels, nil
}

// Filter keeps the rows whose column equals level.
func (t *Table) Filter(name, level string) (*Table, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	var rows []int
	for i := 0; i < c.Len(); i++ {
		if !c.IsMissing(i) && c.Label(i) == level {
			rows = append(rows, i)
		}
	}
	return t.take(rows), nil
}

// Select returns a table restricted to the named columns, in that order.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return NewTable(cols...)
}

// SplitBy partitions a numeric column by the levels of a grouping column.
// Groups follow first-appearance order.
func (t *Table) SplitBy(value, group string) ([]string, [][]float64, error) {
	ys, err := t.Numeric(value)
	if err != nil {
		return nil, nil, err
	}
	gs, err := t.Categorical(group)
	if err != nil {
		return nil, nil, err
	}
	levels, err := t.Levels(group)
	if err != nil {
		return nil, nil, err
	}
	pos := make(map[string]int, len(levels))
	for i, l := range levels {
		pos[l] = i
	}
	samples := make([][]float64, len(levels))
	for i, g := range gs {
		j, ok := pos[g]
		if !ok || math.IsNaN(ys[i]) {
			continue
		}
		samples[j] = append(samples[j], ys[i])
	}
	return levels, samples, nil
}

func (t *Table) take(rows []int) *Table {
	out := &Table{index: t.index, rows: len(rows), columns: make([]*Column, len(t.columns))}
	for i, c := range t.columns {
		out.columns[i] = c.take(rows)
	}
	return out
}
