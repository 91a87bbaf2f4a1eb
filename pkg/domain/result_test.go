package domain

import "testing"

func TestResultMergeAndFilters(t *testing.T) {
	var res Result
	if res.HasBlocking() {
		t.Fatal("empty result reported blocking")
	}
	res.Warn("soft_rule", "first warning", EntityPlate, "plate-1")

	var other Result
	other.Violations = append(other.Violations, Violation{
		Rule:     "hard_rule",
		Severity: SeverityBlock,
		Message:  "geometry broken",
		Entity:   EntityPlate,
		EntityID: "plate-1",
	})
	res.Merge(other)
	res.Merge(Result{})

	if len(res.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(res.Violations))
	}
	if !res.HasBlocking() {
		t.Fatal("blocking violation not detected")
	}
	warnings := res.Warnings()
	if len(warnings) != 1 || warnings[0].Rule != "soft_rule" {
		t.Fatalf("warnings filter: %+v", warnings)
	}
}

func TestErrorMessages(t *testing.T) {
	if got := (ConfigurationError{Reason: "missing dims"}).Error(); got != "plate configuration: missing dims" {
		t.Fatalf("configuration error: %q", got)
	}
	if got := (ValidationError{Reason: "plate is required"}).Error(); got != "well validation: plate is required" {
		t.Fatalf("validation error: %q", got)
	}
	if got := (ValidationError{Position: "A9", Reason: "out of range"}).Error(); got != "well validation: position A9: out of range" {
		t.Fatalf("positioned validation error: %q", got)
	}
	if got := (RuleViolationError{}).Error(); got == "" {
		t.Fatal("rule violation error must carry a message")
	}
}

func TestDataFileIsZero(t *testing.T) {
	if !(DataFile{}).IsZero() {
		t.Fatal("empty data file not zero")
	}
	if (DataFile{BlobKey: "k"}).IsZero() {
		t.Fatal("data file with blob key reported zero")
	}
	if (DataFile{Attributes: map[string]any{"a": 1}}).IsZero() {
		t.Fatal("data file with attributes reported zero")
	}
}
