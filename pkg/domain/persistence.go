package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreatePlate(Plate) (Plate, error)
	UpdatePlate(id string, mutator func(*Plate) error) (Plate, error)
	DeletePlate(id string) error
	CreateTreatment(Treatment) (Treatment, error)
	UpdateTreatment(id string, mutator func(*Treatment) error) (Treatment, error)
	DeleteTreatment(id string) error
	CreateDataFile(DataFile) (DataFile, error)
	UpdateDataFile(id string, mutator func(*DataFile) error) (DataFile, error)
	DeleteDataFile(id string) error
	FindPlate(id string) (Plate, bool)
	FindTreatment(id string) (Treatment, bool)
	FindDataFile(id string) (DataFile, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListPlates() []Plate
	ListTreatments() []Treatment
	ListDataFiles() []DataFile
	FindPlate(id string) (Plate, bool)
	FindTreatment(id string) (Treatment, bool)
	FindDataFile(id string) (DataFile, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetPlate(id string) (Plate, bool)
	ListPlates() []Plate
	GetTreatment(id string) (Treatment, bool)
	ListTreatments() []Treatment
	GetDataFile(id string) (DataFile, bool)
	ListDataFiles() []DataFile
}
