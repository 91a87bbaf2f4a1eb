package domain

import (
	"fmt"
	"strconv"
)

// Well is one addressable location on a plate. The position string encodes a
// row letter followed by a column number ("A1"). Wells are created as part of
// plate construction and hold write-once lists of samples, treatments, and
// reporters: the first non-empty write wins, later writes are rejected as a
// soft policy violation rather than an error.
//
// PlateID is a non-owning back-reference. It is lookup-only and a well remains
// usable when the referenced plate no longer exists.
type Well struct {
	PlateID    string        `json:"plate_id,omitempty"`
	Position   string        `json:"position"`
	Label      string        `json:"label,omitempty"`
	Samples    []SampleRef   `json:"samples,omitempty"`
	Treatments []Treatment   `json:"treatments,omitempty"`
	Reporters  []ReporterRef `json:"reporters,omitempty"`
}

// RuleWellWriteOnce names the soft policy guarding write-once well state.
const RuleWellWriteOnce = "well_write_once"

// NewWell constructs a well at the given position on the plate. It fails with
// a ValidationError when the plate or position is missing or when the derived
// row or column falls outside the plate's declared bounds.
//
// The position is split at a fixed single-character boundary: the first
// character is the row letter (A-Z only), the remainder the column number.
// This matches the documented addressing scheme; plates beyond 26 rows are not
// supported.
func NewWell(plate *Plate, position string) (Well, error) {
	if plate == nil {
		return Well{}, ValidationError{Reason: "plate is required"}
	}
	if position == "" {
		return Well{}, ValidationError{Reason: "position is required"}
	}
	row := rowLetterIndex(position[0])
	if row < 1 || row > plate.Rows {
		return Well{}, ValidationError{Position: position, Reason: fmt.Sprintf("row %q outside plate rows 1..%d", position[:1], plate.Rows)}
	}
	col, err := strconv.Atoi(position[1:])
	if err != nil {
		return Well{}, ValidationError{Position: position, Reason: "column is not a number"}
	}
	if col < 1 || col > plate.Cols {
		return Well{}, ValidationError{Position: position, Reason: fmt.Sprintf("column %d outside plate columns 1..%d", col, plate.Cols)}
	}
	return Well{PlateID: plate.ID, Position: position}, nil
}

// rowLetterIndex maps row letters A-Z to 1-26. Anything else maps to 0, which
// the bounds check in NewWell rejects.
func rowLetterIndex(letter byte) int {
	if letter < 'A' || letter > 'Z' {
		return 0
	}
	return int(letter-'A') + 1
}

// Row returns the row letter derived from the position.
func (w Well) Row() string {
	if w.Position == "" {
		return ""
	}
	return w.Position[:1]
}

// RowIndex returns the 1-based row number (A=1), or 0 when unset or outside A-Z.
func (w Well) RowIndex() int {
	if w.Position == "" {
		return 0
	}
	return rowLetterIndex(w.Position[0])
}

// Column returns the column part of the position as written.
func (w Well) Column() string {
	if len(w.Position) < 2 {
		return ""
	}
	return w.Position[1:]
}

// ColumnIndex returns the 1-based column number, or 0 when not numeric.
func (w Well) ColumnIndex() int {
	col, err := strconv.Atoi(w.Column())
	if err != nil {
		return 0
	}
	return col
}

// Filled reports whether the well holds at least one sample.
func (w Well) Filled() bool {
	return len(w.Samples) > 0
}

// SetPosition assigns the position while unset. A second set attempt is a
// no-op returning false; the original value stays intact.
func (w *Well) SetPosition(position string) bool {
	if w.Position != "" {
		return false
	}
	w.Position = position
	return true
}

// SetSamples stores the sample references if none are set yet. Empty
// references are filtered out. Returns false without modifying the well when
// samples are already present.
func (w *Well) SetSamples(samples []SampleRef) bool {
	if len(w.Samples) > 0 {
		return false
	}
	for _, s := range samples {
		if s == "" {
			continue
		}
		w.Samples = append(w.Samples, s)
	}
	return true
}

// SetTreatments stores the treatments if none are set yet, filtering out
// zero-valued entries. Returns false without modifying the well otherwise.
func (w *Well) SetTreatments(treatments []Treatment) bool {
	if len(w.Treatments) > 0 {
		return false
	}
	for _, t := range treatments {
		if t.isZero() {
			continue
		}
		cp := t
		cp.Attributes = cloneExtensionMap(t.Attributes)
		w.Treatments = append(w.Treatments, cp)
	}
	return true
}

// SetReporters stores the reporter references if none are set yet. Empty
// references are filtered out. Returns false without modifying the well otherwise.
func (w *Well) SetReporters(reporters []ReporterRef) bool {
	if len(w.Reporters) > 0 {
		return false
	}
	for _, r := range reporters {
		if r == "" {
			continue
		}
		w.Reporters = append(w.Reporters, r)
	}
	return true
}

func (t Treatment) isZero() bool {
	return t.ID == "" && t.ReferenceDB == "" && t.Type == "" && t.Description == "" &&
		t.EFOTerm == "" && t.EFOID == "" && len(t.Attributes) == 0
}

// WellContent carries the fillable state of a well for Apply.
type WellContent struct {
	Label      string        `json:"label,omitempty"`
	Samples    []SampleRef   `json:"samples,omitempty"`
	Treatments []Treatment   `json:"treatments,omitempty"`
	Reporters  []ReporterRef `json:"reporters,omitempty"`
}

// Apply fills the well from the given content under the write-once rules.
// Rejected writes are reported as warn violations; Apply never fails.
func (w *Well) Apply(content WellContent) Result {
	var res Result
	if content.Label != "" {
		w.Label = content.Label
	}
	if len(content.Samples) > 0 && !w.SetSamples(content.Samples) {
		res.Warn(RuleWellWriteOnce, fmt.Sprintf("well %s already has samples", w.Position), EntityPlate, w.PlateID)
	}
	if len(content.Treatments) > 0 && !w.SetTreatments(content.Treatments) {
		res.Warn(RuleWellWriteOnce, fmt.Sprintf("well %s already has treatments", w.Position), EntityPlate, w.PlateID)
	}
	if len(content.Reporters) > 0 && !w.SetReporters(content.Reporters) {
		res.Warn(RuleWellWriteOnce, fmt.Sprintf("well %s already has reporters", w.Position), EntityPlate, w.PlateID)
	}
	return res
}

// Duplicate constructs a new well at position on the target plate, copies the
// label and content lists, and replaces the slot already occupying that
// position in the target's well sequence. The target must have been
// constructed with a placeholder well at the position, which holds for plates
// built by NewPlate and Replicate. Sequence order and length are unchanged.
func (w Well) Duplicate(target *Plate, position string) (Well, error) {
	if target == nil {
		return Well{}, ValidationError{Reason: "target plate is required"}
	}
	dup, err := NewWell(target, position)
	if err != nil {
		return Well{}, err
	}
	dup.Label = w.Label
	// The duplicate starts empty, so the write-once rule admits each copy.
	dup.SetSamples(w.Samples)
	dup.SetTreatments(w.Treatments)
	dup.SetReporters(w.Reporters)
	idx := target.wellIndex(position)
	if idx < 0 {
		return Well{}, ValidationError{Position: position, Reason: "target plate has no well slot at position"}
	}
	target.Wells[idx] = dup.clone()
	return dup, nil
}

// clone deep-copies the well so plates never share list state.
func (w Well) clone() Well {
	cp := w
	cp.Samples = append([]SampleRef(nil), w.Samples...)
	cp.Reporters = append([]ReporterRef(nil), w.Reporters...)
	if w.Treatments != nil {
		cp.Treatments = make([]Treatment, len(w.Treatments))
		for i, t := range w.Treatments {
			tc := t
			tc.Attributes = cloneExtensionMap(t.Attributes)
			cp.Treatments[i] = tc
		}
	}
	return cp
}
