package core

import "platecore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Base               = domain.Base
	Plate              = domain.Plate
	PlateConfig        = domain.PlateConfig
	Well               = domain.Well
	WellContent        = domain.WellContent
	Treatment          = domain.Treatment
	DataFile           = domain.DataFile
	SampleRef          = domain.SampleRef
	ReporterRef        = domain.ReporterRef
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	ConfigurationError = domain.ConfigurationError
	ValidationError    = domain.ValidationError
	RulesEngine        = domain.RulesEngine
	PersistentStore    = domain.PersistentStore
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
)

const (
	EntityPlate     = domain.EntityPlate
	EntityTreatment = domain.EntityTreatment
	EntityDataFile  = domain.EntityDataFile
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// NewRulesEngine constructs a rules engine instance.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }
