package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewPlateKnownFormats(t *testing.T) {
	cases := []struct {
		wells int
		rows  int
		cols  int
	}{
		{8, 2, 4},
		{48, 6, 8},
		{96, 8, 12},
		{384, 16, 24},
	}
	for _, tc := range cases {
		p, err := NewPlate(PlateConfig{WellCount: tc.wells})
		if err != nil {
			t.Fatalf("new plate %d wells: %v", tc.wells, err)
		}
		if p.Rows != tc.rows || p.Cols != tc.cols {
			t.Fatalf("plate %d wells: got %dx%d want %dx%d", tc.wells, p.Rows, p.Cols, tc.rows, tc.cols)
		}
		if len(p.Wells) != tc.wells {
			t.Fatalf("plate %d wells: got %d well slots", tc.wells, len(p.Wells))
		}
	}
}

func TestNewPlateExplicitDimensions(t *testing.T) {
	p, err := NewPlate(PlateConfig{Rows: 3, Cols: 5, Name: "assay", Type: "custom"})
	if err != nil {
		t.Fatalf("new plate: %v", err)
	}
	if len(p.Wells) != 15 {
		t.Fatalf("expected 15 wells, got %d", len(p.Wells))
	}
	if p.Wells[0].Position != "A1" {
		t.Fatalf("first well position: %s", p.Wells[0].Position)
	}
	if p.Wells[14].Position != "C5" {
		t.Fatalf("last well position: %s", p.Wells[14].Position)
	}
	// Row-major: second slot is A2, not B1.
	if p.Wells[1].Position != "A2" {
		t.Fatalf("second well position: %s", p.Wells[1].Position)
	}
}

func TestNewPlateRejectsMissingConfig(t *testing.T) {
	if _, err := NewPlate(PlateConfig{}); err == nil {
		t.Fatal("expected error for empty config")
	}
	var cfgErr ConfigurationError
	_, err := NewPlate(PlateConfig{WellCount: 77})
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError for unknown well count, got %v", err)
	}
}

func TestPlateRowAndColumnLookups(t *testing.T) {
	p, err := NewPlate(PlateConfig{WellCount: 96})
	if err != nil {
		t.Fatalf("new plate: %v", err)
	}
	rowA := p.Row("A")
	if len(rowA) != 12 {
		t.Fatalf("row A: got %d wells, want 12", len(rowA))
	}
	for _, w := range rowA {
		if w.Row() != "A" {
			t.Fatalf("row A returned well %s", w.Position)
		}
	}
	col1 := p.Column("1")
	if len(col1) != 8 {
		t.Fatalf("column 1: got %d wells, want 8", len(col1))
	}
	// Column labels match as written, so "1" does not pick up "12".
	for _, w := range col1 {
		if w.Column() != "1" {
			t.Fatalf("column 1 returned well %s", w.Position)
		}
	}
	if got := p.Row("Q"); len(got) != 0 {
		t.Fatalf("row Q on 8-row plate returned %d wells", len(got))
	}
}

func TestPlateWellAt(t *testing.T) {
	p, err := NewPlate(PlateConfig{WellCount: 8})
	if err != nil {
		t.Fatalf("new plate: %v", err)
	}
	w, ok := p.WellAt("B3")
	if !ok {
		t.Fatal("B3 not found on 2x4 plate")
	}
	if w.RowIndex() != 2 || w.ColumnIndex() != 3 {
		t.Fatalf("B3 indexes: row %d col %d", w.RowIndex(), w.ColumnIndex())
	}
	if _, ok := p.WellAt("C1"); ok {
		t.Fatal("C1 should not exist on 2-row plate")
	}
}

func TestFillWellAndFilled(t *testing.T) {
	p, err := NewPlate(PlateConfig{WellCount: 8})
	if err != nil {
		t.Fatalf("new plate: %v", err)
	}
	res, err := p.FillWell("A1", WellContent{Samples: []SampleRef{"s-1", "s-2"}})
	if err != nil {
		t.Fatalf("fill well: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("first fill produced violations: %+v", res.Violations)
	}
	filled := p.FilledWells()
	if len(filled) != 1 || filled[0].Position != "A1" {
		t.Fatalf("filled wells: %+v", filled)
	}
	if _, err := p.FillWell("Z9", WellContent{}); err == nil {
		t.Fatal("expected error filling nonexistent well")
	}
}

func TestFillWellWriteOnceWarns(t *testing.T) {
	p, err := NewPlate(PlateConfig{WellCount: 8})
	if err != nil {
		t.Fatalf("new plate: %v", err)
	}
	if _, err := p.FillWell("A1", WellContent{Samples: []SampleRef{"s-1"}}); err != nil {
		t.Fatalf("first fill: %v", err)
	}
	res, err := p.FillWell("A1", WellContent{Samples: []SampleRef{"s-other"}})
	if err != nil {
		t.Fatalf("second fill must not error: %v", err)
	}
	warnings := res.Warnings()
	if len(warnings) != 1 || warnings[0].Rule != RuleWellWriteOnce {
		t.Fatalf("expected one write-once warning, got %+v", warnings)
	}
	w, _ := p.WellAt("A1")
	if len(w.Samples) != 1 || w.Samples[0] != "s-1" {
		t.Fatalf("original samples must survive: %+v", w.Samples)
	}
}

func TestReplicateProducesIndependentPlates(t *testing.T) {
	source, err := NewPlate(PlateConfig{WellCount: 8, Name: "source", Type: "assay"})
	if err != nil {
		t.Fatalf("new plate: %v", err)
	}
	if _, err := source.FillWell("A1", WellContent{Label: "ctrl", Samples: []SampleRef{"s-1"}}); err != nil {
		t.Fatalf("fill: %v", err)
	}
	source.AttachData(DataFile{Type: "raw", Filename: "run.csv"})

	reps, err := source.Replicate(3)
	if err != nil {
		t.Fatalf("replicate: %v", err)
	}
	if len(reps) != 3 {
		t.Fatalf("expected 3 replicates, got %d", len(reps))
	}
	for i := range reps {
		if reps[i].Rows != source.Rows || reps[i].Cols != source.Cols || reps[i].Name != source.Name {
			t.Fatalf("replicate %d shape/name mismatch", i)
		}
		w, ok := reps[i].WellAt("A1")
		if !ok || len(w.Samples) != 1 || w.Samples[0] != "s-1" || w.Label != "ctrl" {
			t.Fatalf("replicate %d well A1 content: %+v", i, w)
		}
		if len(reps[i].Data) != 0 {
			t.Fatalf("replicate %d inherited the data list", i)
		}
		if reps[i].ID != "" {
			t.Fatalf("replicate %d carries an ID before persistence", i)
		}
	}

	// Mutating a replicate leaves the source and siblings untouched.
	if _, err := reps[0].FillWell("B1", WellContent{Samples: []SampleRef{"s-new"}}); err != nil {
		t.Fatalf("fill replicate: %v", err)
	}
	if w, _ := source.WellAt("B1"); w.Filled() {
		t.Fatal("source gained samples from replicate mutation")
	}
	if w, _ := reps[1].WellAt("B1"); w.Filled() {
		t.Fatal("sibling replicate gained samples")
	}
}

func TestReplicateRejectsNonPositiveCount(t *testing.T) {
	p, err := NewPlate(PlateConfig{WellCount: 8})
	if err != nil {
		t.Fatalf("new plate: %v", err)
	}
	if _, err := p.Replicate(0); err == nil {
		t.Fatal("expected error for zero count")
	}
	if _, err := p.Replicate(-2); err == nil {
		t.Fatal("expected error for negative count")
	}
}

func TestAttachDataSkipsZeroEntries(t *testing.T) {
	p, err := NewPlate(PlateConfig{WellCount: 8})
	if err != nil {
		t.Fatalf("new plate: %v", err)
	}
	list := p.AttachData(DataFile{Type: "raw"}, DataFile{}, DataFile{Filename: "a.csv"})
	if len(list) != 2 {
		t.Fatalf("expected 2 attached files, got %d", len(list))
	}
}

func TestPlateCloneIsolation(t *testing.T) {
	p, err := NewPlate(PlateConfig{WellCount: 8})
	if err != nil {
		t.Fatalf("new plate: %v", err)
	}
	if _, err := p.FillWell("A1", WellContent{Samples: []SampleRef{"s-1"}}); err != nil {
		t.Fatalf("fill: %v", err)
	}
	p.AttachData(DataFile{Type: "raw", Attributes: map[string]any{"lane": 1}})

	cp := p.Clone()
	if _, err := cp.FillWell("A2", WellContent{Samples: []SampleRef{"s-2"}}); err != nil {
		t.Fatalf("fill clone: %v", err)
	}
	cp.Data[0].Attributes["lane"] = 2

	if w, _ := p.WellAt("A2"); w.Filled() {
		t.Fatal("clone mutation leaked into source wells")
	}
	if p.Data[0].Attributes["lane"] != 1 {
		t.Fatal("clone mutation leaked into source data attributes")
	}
}

func TestPlateJSONRoundTrip(t *testing.T) {
	p, err := NewPlate(PlateConfig{WellCount: 8, Name: "assay-1", Type: "screen"})
	if err != nil {
		t.Fatalf("new plate: %v", err)
	}
	if _, err := p.FillWell("B4", WellContent{
		Label:      "hit",
		Samples:    []SampleRef{"s-9"},
		Treatments: []Treatment{{Type: "compound", ReferenceDB: "chembl"}},
		Reporters:  []ReporterRef{"gfp"},
	}); err != nil {
		t.Fatalf("fill: %v", err)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Plate
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Rows != p.Rows || decoded.Cols != p.Cols || len(decoded.Wells) != len(p.Wells) {
		t.Fatalf("decoded shape mismatch: %dx%d/%d wells", decoded.Rows, decoded.Cols, len(decoded.Wells))
	}
	w, ok := decoded.WellAt("B4")
	if !ok || w.Label != "hit" || len(w.Treatments) != 1 || w.Treatments[0].Type != "compound" {
		t.Fatalf("decoded well B4: %+v", w)
	}
}

func TestSetWellPlateIDs(t *testing.T) {
	p, err := NewPlate(PlateConfig{WellCount: 8})
	if err != nil {
		t.Fatalf("new plate: %v", err)
	}
	p.ID = "plate-1"
	p.SetWellPlateIDs()
	for _, w := range p.Wells {
		if w.PlateID != "plate-1" {
			t.Fatalf("well %s plate id %q", w.Position, w.PlateID)
		}
	}
}
