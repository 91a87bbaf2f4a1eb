// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by platecore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityPlate identifies a sample-container plate record.
	EntityPlate EntityType = "plate"
	// EntityTreatment identifies a treatment record.
	EntityTreatment EntityType = "treatment"
	// EntityDataFile identifies a data file record.
	EntityDataFile EntityType = "data_file"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SampleRef references an external biological specimen by identity. The
// referenced object is opaque to this package and never introspected.
type SampleRef string

// ReporterRef references an external marker or assay object by identity.
type ReporterRef string

// Treatment records a perturbation (drug, RNAi, ...) applied to well contents.
// Declared fields cover the common annotation surface; anything else goes into
// the open Attributes map via SetAttribute.
type Treatment struct {
	Base
	ReferenceDB string         `json:"reference_db"`
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	EFOTerm     string         `json:"efo_term,omitempty"`
	EFOID       string         `json:"efo_id,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// DataFile describes one data file associated with a plate. When the payload
// is stored through the blob layer, BlobKey and SizeBytes identify the object.
type DataFile struct {
	Base
	Type       string         `json:"type"`
	Filepath   string         `json:"filepath,omitempty"`
	Filename   string         `json:"filename,omitempty"`
	Format     string         `json:"format,omitempty"`
	Origin     string         `json:"origin,omitempty"`
	BlobKey    string         `json:"blob_key,omitempty"`
	SizeBytes  int64          `json:"size_bytes,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// IsZero reports whether the data file carries no information at all.
// Zero-valued entries are skipped when attaching data to a plate.
func (d DataFile) IsZero() bool {
	return d.ID == "" && d.Type == "" && d.Filepath == "" && d.Filename == "" &&
		d.Format == "" && d.Origin == "" && d.BlobKey == "" && len(d.Attributes) == 0
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation or a rejected soft policy such as
// a second write to a write-once well list.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine and soft policy checks.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// Warn appends a warn-severity violation.
func (r *Result) Warn(rule, message string, entity EntityType, entityID string) {
	r.Violations = append(r.Violations, Violation{
		Rule:     rule,
		Severity: SeverityWarn,
		Message:  message,
		Entity:   entity,
		EntityID: entityID,
	})
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the warn-severity subset of the recorded violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityWarn {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}

// ConfigurationError reports an invalid plate construction request, such as
// missing dimensions or an unrecognized well count.
type ConfigurationError struct {
	Reason string
}

func (e ConfigurationError) Error() string {
	return "plate configuration: " + e.Reason
}

// ValidationError reports invalid well construction arguments, including
// positions outside the owning plate's declared bounds.
type ValidationError struct {
	Position string
	Reason   string
}

func (e ValidationError) Error() string {
	if e.Position == "" {
		return "well validation: " + e.Reason
	}
	return "well validation: position " + e.Position + ": " + e.Reason
}
