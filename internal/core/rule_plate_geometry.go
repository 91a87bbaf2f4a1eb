package core

import (
	"context"
	"fmt"

	"platecore/pkg/domain"
)

// NewPlateGeometryRule returns the default in-transaction rule enforcing that
// a plate's well count matches its declared rows x cols shape.
func NewPlateGeometryRule() domain.Rule {
	return plateGeometryRule{}
}

type plateGeometryRule struct{}

func (plateGeometryRule) Name() string { return "plate_geometry" }

func (plateGeometryRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, plate := range view.ListPlates() {
		want := plate.Rows * plate.Cols
		if len(plate.Wells) != want {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "plate_geometry",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("plate %s has %d wells, declared shape %dx%d requires %d", plate.ID, len(plate.Wells), plate.Rows, plate.Cols, want),
				Entity:   domain.EntityPlate,
				EntityID: plate.ID,
			})
		}
	}
	return res, nil
}
