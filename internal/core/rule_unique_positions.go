package core

import (
	"context"
	"fmt"

	"platecore/pkg/domain"
)

// NewUniqueWellPositionsRule returns the default in-transaction rule enforcing
// that no two wells on a plate share a position.
func NewUniqueWellPositionsRule() domain.Rule {
	return uniqueWellPositionsRule{}
}

type uniqueWellPositionsRule struct{}

func (uniqueWellPositionsRule) Name() string { return "unique_well_positions" }

func (uniqueWellPositionsRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, plate := range view.ListPlates() {
		seen := make(map[string]bool, len(plate.Wells))
		for _, well := range plate.Wells {
			if seen[well.Position] {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "unique_well_positions",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("plate %s has duplicate well position %s", plate.ID, well.Position),
					Entity:   domain.EntityPlate,
					EntityID: plate.ID,
				})
				continue
			}
			seen[well.Position] = true
		}
	}
	return res, nil
}
