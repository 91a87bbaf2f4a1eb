package core

import (
	"context"
	"fmt"

	"platecore/pkg/domain"
)

// NewDataFileLocationRule returns the default rule warning when a data file
// attached to a plate carries neither a filesystem path nor a blob key.
func NewDataFileLocationRule() domain.Rule {
	return dataFileLocationRule{}
}

type dataFileLocationRule struct{}

func (dataFileLocationRule) Name() string { return "data_file_location" }

func (dataFileLocationRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, plate := range view.ListPlates() {
		for _, file := range plate.Data {
			if file.Filepath == "" && file.BlobKey == "" {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "data_file_location",
					Severity: domain.SeverityWarn,
					Message:  fmt.Sprintf("data file %s on plate %s has no filepath or blob key", file.ID, plate.ID),
					Entity:   domain.EntityDataFile,
					EntityID: file.ID,
				})
			}
		}
	}
	return res, nil
}

// DefaultRulesEngine constructs a rules engine with the standard plate rules
// registered.
func DefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewPlateGeometryRule())
	engine.Register(NewUniqueWellPositionsRule())
	engine.Register(NewDataFileLocationRule())
	return engine
}
