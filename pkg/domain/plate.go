package domain

import (
	"fmt"
	"strconv"
)

// PlateConfig describes a plate construction request. Either explicit Rows
// and Cols or a recognized total WellCount must be supplied.
type PlateConfig struct {
	Rows      int    `json:"rows,omitempty"`
	Cols      int    `json:"cols,omitempty"`
	WellCount int    `json:"wells,omitempty"`
	Name      string `json:"name,omitempty"`
	Type      string `json:"type,omitempty"`
}

// plateFormats maps the recognized total well counts to their row/column shape.
var plateFormats = map[int][2]int{
	8:   {2, 4},
	48:  {6, 8},
	96:  {8, 12},
	384: {16, 24},
}

// KnownWellCounts returns the recognized total well counts in ascending order.
func KnownWellCounts() []int {
	return []int{8, 48, 96, 384}
}

// Plate is a rectangular container of sample-holding wells, addressed by row
// letter and column number. Dimensions are fixed at construction and the well
// sequence is generated eagerly in row-major order with row labels starting at
// "A" and column labels starting at 1. The attached data list is append-only.
type Plate struct {
	Base
	Name  string     `json:"name,omitempty"`
	Type  string     `json:"type,omitempty"`
	Rows  int        `json:"rows"`
	Cols  int        `json:"cols"`
	Wells []Well     `json:"wells"`
	Data  []DataFile `json:"data,omitempty"`
}

// NewPlate constructs a plate from the given configuration, allocating the
// full well sequence. It fails with a ConfigurationError when neither explicit
// dimensions nor a recognized well count is supplied, or when a generated well
// position would be invalid (rows beyond "Z" cannot be labelled).
func NewPlate(config PlateConfig) (Plate, error) {
	rows, cols := config.Rows, config.Cols
	if rows <= 0 || cols <= 0 {
		if config.WellCount == 0 {
			return Plate{}, ConfigurationError{Reason: "rows/cols or a well count is required"}
		}
		shape, ok := plateFormats[config.WellCount]
		if !ok {
			return Plate{}, ConfigurationError{Reason: fmt.Sprintf("unrecognized well count %d", config.WellCount)}
		}
		rows, cols = shape[0], shape[1]
	}
	p := Plate{
		Name:  config.Name,
		Type:  config.Type,
		Rows:  rows,
		Cols:  cols,
		Wells: make([]Well, 0, rows*cols),
	}
	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			w, err := NewWell(&p, rowLabel(r)+strconv.Itoa(c))
			if err != nil {
				return Plate{}, ConfigurationError{Reason: err.Error()}
			}
			p.Wells = append(p.Wells, w)
		}
	}
	return p, nil
}

// rowLabel returns the letter for a 1-based row number. Rows beyond 26 map to
// a non-letter byte which well validation rejects.
func rowLabel(row int) string {
	return string(rune('A' + row - 1))
}

// FilledWells returns the subsequence of wells holding at least one sample,
// in well order.
func (p Plate) FilledWells() []Well {
	var out []Well
	for _, w := range p.Wells {
		if w.Filled() {
			out = append(out, w.clone())
		}
	}
	return out
}

// WellAt returns the well exactly matching the position string. Positions are
// unique by construction.
func (p Plate) WellAt(position string) (Well, bool) {
	idx := p.wellIndex(position)
	if idx < 0 {
		return Well{}, false
	}
	return p.Wells[idx].clone(), true
}

// Row returns all wells whose row letter matches the label, or an empty
// sequence if none do.
func (p Plate) Row(label string) []Well {
	var out []Well
	for _, w := range p.Wells {
		if w.Row() == label {
			out = append(out, w.clone())
		}
	}
	return out
}

// Column returns all wells whose column label matches, or an empty sequence
// if none do.
func (p Plate) Column(label string) []Well {
	var out []Well
	for _, w := range p.Wells {
		if w.Column() == label {
			out = append(out, w.clone())
		}
	}
	return out
}

func (p Plate) wellIndex(position string) int {
	for i, w := range p.Wells {
		if w.Position == position {
			return i
		}
	}
	return -1
}

// AttachData appends the non-zero entries to the plate's data list and
// returns the current list.
func (p *Plate) AttachData(files ...DataFile) []DataFile {
	for _, f := range files {
		if f.IsZero() {
			continue
		}
		cp := f
		cp.Attributes = cloneExtensionMap(f.Attributes)
		p.Data = append(p.Data, cp)
	}
	return p.Data
}

// FillWell applies content to the well at position under the write-once
// rules, reporting rejected writes as warn violations in the result.
func (p *Plate) FillWell(position string, content WellContent) (Result, error) {
	idx := p.wellIndex(position)
	if idx < 0 {
		return Result{}, ValidationError{Position: position, Reason: "no such well on plate"}
	}
	return p.Wells[idx].Apply(content), nil
}

// Replicate produces n independent plates with the same dimensions, name, and
// type. Each replicate's wells are position-for-position duplicates of the
// source wells; mutating a replicate never affects the source or siblings.
// Replicates carry no ID until persisted and do not inherit the attached data
// list.
func (p Plate) Replicate(n int) ([]Plate, error) {
	if n <= 0 {
		return nil, ConfigurationError{Reason: fmt.Sprintf("replicate count %d must be positive", n)}
	}
	out := make([]Plate, 0, n)
	for i := 0; i < n; i++ {
		rep, err := NewPlate(PlateConfig{Rows: p.Rows, Cols: p.Cols, Name: p.Name, Type: p.Type})
		if err != nil {
			return nil, err
		}
		for _, w := range p.Wells {
			if _, err := w.Duplicate(&rep, w.Position); err != nil {
				return nil, err
			}
		}
		out = append(out, rep)
	}
	return out, nil
}

// Clone deep-copies the plate, including wells and attached data.
func (p Plate) Clone() Plate {
	cp := p
	if p.Wells != nil {
		cp.Wells = make([]Well, len(p.Wells))
		for i, w := range p.Wells {
			cp.Wells[i] = w.clone()
		}
	}
	if p.Data != nil {
		cp.Data = make([]DataFile, len(p.Data))
		for i, d := range p.Data {
			dc := d
			dc.Attributes = cloneExtensionMap(d.Attributes)
			cp.Data[i] = dc
		}
	}
	return cp
}

// SetWellPlateIDs stamps the plate's ID onto each well back-reference. The
// persistence layer calls this once the record ID is assigned.
func (p *Plate) SetWellPlateIDs() {
	for i := range p.Wells {
		p.Wells[i].PlateID = p.ID
	}
}
