// Package memory provides the in-memory transactional store backing the
// platecore domain. Durable backends embed it and snapshot its state.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"platecore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

type state struct {
	plates     map[string]domain.Plate
	treatments map[string]domain.Treatment
	datafiles  map[string]domain.DataFile
}

func newState() state {
	return state{
		plates:     make(map[string]domain.Plate),
		treatments: make(map[string]domain.Treatment),
		datafiles:  make(map[string]domain.DataFile),
	}
}

func (s state) clone() state {
	cloned := newState()
	for k, v := range s.plates {
		cloned.plates[k] = v.Clone()
	}
	for k, v := range s.treatments {
		cloned.treatments[k] = cloneTreatment(v)
	}
	for k, v := range s.datafiles {
		cloned.datafiles[k] = cloneDataFile(v)
	}
	return cloned
}

func cloneTreatment(t domain.Treatment) domain.Treatment {
	cp := t
	cp.Attributes = t.AttributesMap()
	return cp
}

func cloneDataFile(d domain.DataFile) domain.DataFile {
	cp := d
	cp.Attributes = d.AttributesMap()
	return cp
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  state
	engine *domain.RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the transaction clock. Intended for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		s.nowFn = fn
	}
}

// Engine returns the rules engine evaluating transactions.
func (s *Store) Engine() *domain.RulesEngine { return s.engine }

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// Transaction represents a mutation set applied to the store state.
type Transaction struct {
	state   state
	changes []domain.Change
	now     time.Time
}

var _ domain.Transaction = (*Transaction)(nil)

// view exposes a read-only snapshot of transactional state to rules.
type view struct {
	state *state
}

var _ domain.TransactionView = view{}
var _ domain.RuleView = view{}

// ListPlates returns all plates within the snapshot.
func (v view) ListPlates() []domain.Plate {
	out := make([]domain.Plate, 0, len(v.state.plates))
	for _, p := range v.state.plates {
		out = append(out, p.Clone())
	}
	return out
}

// ListTreatments returns all treatments within the snapshot.
func (v view) ListTreatments() []domain.Treatment {
	out := make([]domain.Treatment, 0, len(v.state.treatments))
	for _, t := range v.state.treatments {
		out = append(out, cloneTreatment(t))
	}
	return out
}

// ListDataFiles returns all data file records within the snapshot.
func (v view) ListDataFiles() []domain.DataFile {
	out := make([]domain.DataFile, 0, len(v.state.datafiles))
	for _, d := range v.state.datafiles {
		out = append(out, cloneDataFile(d))
	}
	return out
}

// FindPlate retrieves a plate by ID from the snapshot.
func (v view) FindPlate(id string) (domain.Plate, bool) {
	p, ok := v.state.plates[id]
	if !ok {
		return domain.Plate{}, false
	}
	return p.Clone(), true
}

// FindTreatment retrieves a treatment by ID from the snapshot.
func (v view) FindTreatment(id string) (domain.Treatment, bool) {
	t, ok := v.state.treatments[id]
	if !ok {
		return domain.Treatment{}, false
	}
	return cloneTreatment(t), true
}

// FindDataFile retrieves a data file record by ID from the snapshot.
func (v view) FindDataFile(id string) (domain.DataFile, bool) {
	d, ok := v.state.datafiles[id]
	if !ok {
		return domain.DataFile{}, false
	}
	return cloneDataFile(d), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Rules are evaluated against the mutated snapshot before commit; blocking
// violations abort the transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, view{state: &tx.state}, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(ctx context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(view{state: &snapshot})
}

// Snapshot returns a read-only view over the transaction state.
func (tx *Transaction) Snapshot() domain.TransactionView {
	return view{state: &tx.state}
}

func (tx *Transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

// CreatePlate stores a new plate within the transaction. Well back-references
// are stamped with the assigned plate ID.
func (tx *Transaction) CreatePlate(p domain.Plate) (domain.Plate, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	if _, exists := tx.state.plates[p.ID]; exists {
		return domain.Plate{}, fmt.Errorf("plate %q already exists", p.ID)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	p.SetWellPlateIDs()
	tx.state.plates[p.ID] = p.Clone()
	tx.recordChange(domain.Change{Entity: domain.EntityPlate, Action: domain.ActionCreate, After: p.Clone()})
	return p.Clone(), nil
}

// UpdatePlate mutates a plate using the provided mutator function.
func (tx *Transaction) UpdatePlate(id string, mutator func(*domain.Plate) error) (domain.Plate, error) {
	current, ok := tx.state.plates[id]
	if !ok {
		return domain.Plate{}, fmt.Errorf("plate %q not found", id)
	}
	before := current.Clone()
	if err := mutator(&current); err != nil {
		return domain.Plate{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.plates[id] = current.Clone()
	tx.recordChange(domain.Change{Entity: domain.EntityPlate, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// DeletePlate removes a plate from the transaction state.
func (tx *Transaction) DeletePlate(id string) error {
	current, ok := tx.state.plates[id]
	if !ok {
		return fmt.Errorf("plate %q not found", id)
	}
	delete(tx.state.plates, id)
	tx.recordChange(domain.Change{Entity: domain.EntityPlate, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// CreateTreatment stores a new treatment record.
func (tx *Transaction) CreateTreatment(t domain.Treatment) (domain.Treatment, error) {
	if t.ID == "" {
		t.ID = newID()
	}
	if _, exists := tx.state.treatments[t.ID]; exists {
		return domain.Treatment{}, fmt.Errorf("treatment %q already exists", t.ID)
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	tx.state.treatments[t.ID] = cloneTreatment(t)
	tx.recordChange(domain.Change{Entity: domain.EntityTreatment, Action: domain.ActionCreate, After: cloneTreatment(t)})
	return cloneTreatment(t), nil
}

// UpdateTreatment mutates an existing treatment.
func (tx *Transaction) UpdateTreatment(id string, mutator func(*domain.Treatment) error) (domain.Treatment, error) {
	current, ok := tx.state.treatments[id]
	if !ok {
		return domain.Treatment{}, fmt.Errorf("treatment %q not found", id)
	}
	before := cloneTreatment(current)
	if err := mutator(&current); err != nil {
		return domain.Treatment{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.treatments[id] = cloneTreatment(current)
	tx.recordChange(domain.Change{Entity: domain.EntityTreatment, Action: domain.ActionUpdate, Before: before, After: cloneTreatment(current)})
	return cloneTreatment(current), nil
}

// DeleteTreatment removes a treatment record.
func (tx *Transaction) DeleteTreatment(id string) error {
	current, ok := tx.state.treatments[id]
	if !ok {
		return fmt.Errorf("treatment %q not found", id)
	}
	delete(tx.state.treatments, id)
	tx.recordChange(domain.Change{Entity: domain.EntityTreatment, Action: domain.ActionDelete, Before: cloneTreatment(current)})
	return nil
}

// CreateDataFile stores a new data file record.
func (tx *Transaction) CreateDataFile(d domain.DataFile) (domain.DataFile, error) {
	if d.ID == "" {
		d.ID = newID()
	}
	if _, exists := tx.state.datafiles[d.ID]; exists {
		return domain.DataFile{}, fmt.Errorf("data file %q already exists", d.ID)
	}
	d.CreatedAt = tx.now
	d.UpdatedAt = tx.now
	tx.state.datafiles[d.ID] = cloneDataFile(d)
	tx.recordChange(domain.Change{Entity: domain.EntityDataFile, Action: domain.ActionCreate, After: cloneDataFile(d)})
	return cloneDataFile(d), nil
}

// UpdateDataFile mutates an existing data file record.
func (tx *Transaction) UpdateDataFile(id string, mutator func(*domain.DataFile) error) (domain.DataFile, error) {
	current, ok := tx.state.datafiles[id]
	if !ok {
		return domain.DataFile{}, fmt.Errorf("data file %q not found", id)
	}
	before := cloneDataFile(current)
	if err := mutator(&current); err != nil {
		return domain.DataFile{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.datafiles[id] = cloneDataFile(current)
	tx.recordChange(domain.Change{Entity: domain.EntityDataFile, Action: domain.ActionUpdate, Before: before, After: cloneDataFile(current)})
	return cloneDataFile(current), nil
}

// DeleteDataFile removes a data file record.
func (tx *Transaction) DeleteDataFile(id string) error {
	current, ok := tx.state.datafiles[id]
	if !ok {
		return fmt.Errorf("data file %q not found", id)
	}
	delete(tx.state.datafiles, id)
	tx.recordChange(domain.Change{Entity: domain.EntityDataFile, Action: domain.ActionDelete, Before: cloneDataFile(current)})
	return nil
}

// FindPlate retrieves a plate by ID from the transaction state.
func (tx *Transaction) FindPlate(id string) (domain.Plate, bool) {
	return view{state: &tx.state}.FindPlate(id)
}

// FindTreatment retrieves a treatment by ID from the transaction state.
func (tx *Transaction) FindTreatment(id string) (domain.Treatment, bool) {
	return view{state: &tx.state}.FindTreatment(id)
}

// FindDataFile retrieves a data file record by ID from the transaction state.
func (tx *Transaction) FindDataFile(id string) (domain.DataFile, bool) {
	return view{state: &tx.state}.FindDataFile(id)
}

// Read helpers ---------------------------------------------------------------

// GetPlate retrieves a plate by ID from committed state.
func (s *Store) GetPlate(id string) (domain.Plate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.plates[id]
	if !ok {
		return domain.Plate{}, false
	}
	return p.Clone(), true
}

// ListPlates returns all plates from committed state.
func (s *Store) ListPlates() []domain.Plate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Plate, 0, len(s.state.plates))
	for _, p := range s.state.plates {
		out = append(out, p.Clone())
	}
	return out
}

// GetTreatment retrieves a treatment by ID from committed state.
func (s *Store) GetTreatment(id string) (domain.Treatment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.treatments[id]
	if !ok {
		return domain.Treatment{}, false
	}
	return cloneTreatment(t), true
}

// ListTreatments returns all treatments from committed state.
func (s *Store) ListTreatments() []domain.Treatment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Treatment, 0, len(s.state.treatments))
	for _, t := range s.state.treatments {
		out = append(out, cloneTreatment(t))
	}
	return out
}

// GetDataFile retrieves a data file record by ID from committed state.
func (s *Store) GetDataFile(id string) (domain.DataFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.state.datafiles[id]
	if !ok {
		return domain.DataFile{}, false
	}
	return cloneDataFile(d), true
}

// ListDataFiles returns all data file records from committed state.
func (s *Store) ListDataFiles() []domain.DataFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DataFile, 0, len(s.state.datafiles))
	for _, d := range s.state.datafiles {
		out = append(out, cloneDataFile(d))
	}
	return out
}

// Snapshot captures the full committed state for durable backends.
type Snapshot struct {
	Plates     []domain.Plate     `json:"plates"`
	Treatments []domain.Treatment `json:"treatments"`
	DataFiles  []domain.DataFile  `json:"data_files"`
}

// BucketNames lists the snapshot buckets durable backends persist.
func BucketNames() []string {
	return []string{"plates", "treatments", "datafiles"}
}

// EncodeBucket serializes one snapshot bucket as JSON.
func (s Snapshot) EncodeBucket(bucket string) ([]byte, error) {
	switch bucket {
	case "plates":
		return json.Marshal(s.Plates)
	case "treatments":
		return json.Marshal(s.Treatments)
	case "datafiles":
		return json.Marshal(s.DataFiles)
	}
	return nil, fmt.Errorf("unknown bucket %s", bucket)
}

// DecodeBucket hydrates one snapshot bucket from JSON.
func (s *Snapshot) DecodeBucket(bucket string, payload []byte) error {
	switch bucket {
	case "plates":
		if err := json.Unmarshal(payload, &s.Plates); err != nil {
			return fmt.Errorf("decode plates: %w", err)
		}
	case "treatments":
		if err := json.Unmarshal(payload, &s.Treatments); err != nil {
			return fmt.Errorf("decode treatments: %w", err)
		}
	case "datafiles":
		if err := json.Unmarshal(payload, &s.DataFiles); err != nil {
			return fmt.Errorf("decode data files: %w", err)
		}
	}
	return nil
}

// ExportState returns a deep copy of the committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{}
	for _, p := range s.state.plates {
		snap.Plates = append(snap.Plates, p.Clone())
	}
	for _, t := range s.state.treatments {
		snap.Treatments = append(snap.Treatments, cloneTreatment(t))
	}
	for _, d := range s.state.datafiles {
		snap.DataFiles = append(snap.DataFiles, cloneDataFile(d))
	}
	return snap
}

// ImportState replaces the committed state with the snapshot contents.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := newState()
	for _, p := range snap.Plates {
		st.plates[p.ID] = p.Clone()
	}
	for _, t := range snap.Treatments {
		st.treatments[t.ID] = cloneTreatment(t)
	}
	for _, d := range snap.DataFiles {
		st.datafiles[d.ID] = cloneDataFile(d)
	}
	s.state = st
}
