// Package core exposes the transactional service layer over the platecore
// domain: plate construction and replication, well filling, data attachment,
// and treatment/data-file record CRUD.
package core

import (
	"context"
	"fmt"

	"platecore/pkg/domain"
)

// Service exposes higher-level transactional operations for the core schema.
type Service struct {
	store   PersistentStore
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// Option customizes service construction.
type Option func(*Service)

// WithLogger wires a logger receiving warn/error events.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics wires a metrics recorder observing operation outcomes.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(s *Service) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithTracer wires a tracer spanning service operations.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// ErrNotFound is returned when reference validation fails within transactional helpers.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// CreatePlate constructs a plate from the configuration and persists it. The
// full well sequence is allocated eagerly; configuration errors abort before
// anything is stored.
func (s *Service) CreatePlate(ctx context.Context, config PlateConfig) (Plate, Result, error) {
	var created Plate
	res, err := s.instrument(ctx, "create_plate", func(ctx context.Context) (Result, error) {
		plate, err := domain.NewPlate(config)
		if err != nil {
			return Result{}, err
		}
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreatePlate(plate)
			return err
		})
	})
	return created, res, err
}

// DeletePlate removes a plate record.
func (s *Service) DeletePlate(ctx context.Context, id string) (Result, error) {
	return s.instrument(ctx, "delete_plate", func(ctx context.Context) (Result, error) {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindPlate(id); !ok {
				return ErrNotFound{Entity: EntityPlate, ID: id}
			}
			return tx.DeletePlate(id)
		})
	})
}

// GetPlate retrieves a plate by ID from committed state.
func (s *Service) GetPlate(id string) (Plate, bool) {
	return s.store.GetPlate(id)
}

// ListPlates returns all plates from committed state.
func (s *Service) ListPlates() []Plate {
	return s.store.ListPlates()
}

// FillWell applies content to one well of a plate under the write-once rules.
// Rejected writes surface as warn violations in the result, not errors.
func (s *Service) FillWell(ctx context.Context, plateID, position string, content WellContent) (Plate, Result, error) {
	var updated Plate
	res, err := s.instrument(ctx, "fill_well", func(ctx context.Context) (Result, error) {
		var warnings Result
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindPlate(plateID); !ok {
				return ErrNotFound{Entity: EntityPlate, ID: plateID}
			}
			var err error
			updated, err = tx.UpdatePlate(plateID, func(p *Plate) error {
				r, err := p.FillWell(position, content)
				warnings.Merge(r)
				return err
			})
			return err
		})
		res.Merge(warnings)
		return res, err
	})
	return updated, res, err
}

// AttachPlateData appends the non-zero data file entries to the plate's data
// list.
func (s *Service) AttachPlateData(ctx context.Context, plateID string, files ...DataFile) (Plate, Result, error) {
	var updated Plate
	res, err := s.instrument(ctx, "attach_plate_data", func(ctx context.Context) (Result, error) {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindPlate(plateID); !ok {
				return ErrNotFound{Entity: EntityPlate, ID: plateID}
			}
			var err error
			updated, err = tx.UpdatePlate(plateID, func(p *Plate) error {
				p.AttachData(files...)
				return nil
			})
			return err
		})
	})
	return updated, res, err
}

// ReplicatePlate produces n independent copies of the source plate and
// persists them in one transaction.
func (s *Service) ReplicatePlate(ctx context.Context, plateID string, n int) ([]Plate, Result, error) {
	var created []Plate
	res, err := s.instrument(ctx, "replicate_plate", func(ctx context.Context) (Result, error) {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			source, ok := tx.FindPlate(plateID)
			if !ok {
				return ErrNotFound{Entity: EntityPlate, ID: plateID}
			}
			replicates, err := source.Replicate(n)
			if err != nil {
				return err
			}
			created = make([]Plate, 0, len(replicates))
			for _, rep := range replicates {
				stored, err := tx.CreatePlate(rep)
				if err != nil {
					return err
				}
				created = append(created, stored)
			}
			return nil
		})
	})
	if err != nil {
		return nil, res, err
	}
	return created, res, err
}

// CreateTreatment persists a new treatment record.
func (s *Service) CreateTreatment(ctx context.Context, treatment Treatment) (Treatment, Result, error) {
	var created Treatment
	res, err := s.instrument(ctx, "create_treatment", func(ctx context.Context) (Result, error) {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateTreatment(treatment)
			return err
		})
	})
	return created, res, err
}

// UpdateTreatment mutates a treatment using the provided mutator.
func (s *Service) UpdateTreatment(ctx context.Context, id string, mutator func(*Treatment) error) (Treatment, Result, error) {
	var updated Treatment
	res, err := s.instrument(ctx, "update_treatment", func(ctx context.Context) (Result, error) {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindTreatment(id); !ok {
				return ErrNotFound{Entity: EntityTreatment, ID: id}
			}
			var err error
			updated, err = tx.UpdateTreatment(id, mutator)
			return err
		})
	})
	return updated, res, err
}

// DeleteTreatment removes a treatment record.
func (s *Service) DeleteTreatment(ctx context.Context, id string) (Result, error) {
	return s.instrument(ctx, "delete_treatment", func(ctx context.Context) (Result, error) {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindTreatment(id); !ok {
				return ErrNotFound{Entity: EntityTreatment, ID: id}
			}
			return tx.DeleteTreatment(id)
		})
	})
}

// GetTreatment retrieves a treatment by ID from committed state.
func (s *Service) GetTreatment(id string) (Treatment, bool) {
	return s.store.GetTreatment(id)
}

// ListTreatments returns all treatments from committed state.
func (s *Service) ListTreatments() []Treatment {
	return s.store.ListTreatments()
}

// CreateDataFile persists a new data file record.
func (s *Service) CreateDataFile(ctx context.Context, file DataFile) (DataFile, Result, error) {
	var created DataFile
	res, err := s.instrument(ctx, "create_data_file", func(ctx context.Context) (Result, error) {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateDataFile(file)
			return err
		})
	})
	return created, res, err
}

// UpdateDataFile mutates a data file record using the provided mutator.
func (s *Service) UpdateDataFile(ctx context.Context, id string, mutator func(*DataFile) error) (DataFile, Result, error) {
	var updated DataFile
	res, err := s.instrument(ctx, "update_data_file", func(ctx context.Context) (Result, error) {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindDataFile(id); !ok {
				return ErrNotFound{Entity: EntityDataFile, ID: id}
			}
			var err error
			updated, err = tx.UpdateDataFile(id, mutator)
			return err
		})
	})
	return updated, res, err
}

// DeleteDataFile removes a data file record.
func (s *Service) DeleteDataFile(ctx context.Context, id string) (Result, error) {
	return s.instrument(ctx, "delete_data_file", func(ctx context.Context) (Result, error) {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindDataFile(id); !ok {
				return ErrNotFound{Entity: EntityDataFile, ID: id}
			}
			return tx.DeleteDataFile(id)
		})
	})
}

// GetDataFile retrieves a data file record by ID from committed state.
func (s *Service) GetDataFile(id string) (DataFile, bool) {
	return s.store.GetDataFile(id)
}

// ListDataFiles returns all data file records from committed state.
func (s *Service) ListDataFiles() []DataFile {
	return s.store.ListDataFiles()
}
