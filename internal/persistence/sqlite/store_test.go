package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"platecore/pkg/domain"
)

func TestStoreSnapshotSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "plates.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	plate, err := domain.NewPlate(domain.PlateConfig{WellCount: 8, Name: "persisted"})
	if err != nil {
		t.Fatalf("new plate: %v", err)
	}
	var plateID string
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		created, err := tx.CreatePlate(plate)
		if err != nil {
			return err
		}
		plateID = created.ID
		if _, err := tx.CreateTreatment(domain.Treatment{Type: "compound", ReferenceDB: "chembl"}); err != nil {
			return err
		}
		_, err = tx.CreateDataFile(domain.DataFile{Type: "raw", Filename: "run.csv"})
		return err
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, ok := reopened.GetPlate(plateID)
	if !ok {
		t.Fatal("plate not restored from snapshot")
	}
	if got.Name != "persisted" || len(got.Wells) != 8 {
		t.Fatalf("restored plate: name %q wells %d", got.Name, len(got.Wells))
	}
	if len(reopened.ListTreatments()) != 1 || len(reopened.ListDataFiles()) != 1 {
		t.Fatal("treatments or data files not restored")
	}
	if reopened.Path() != path {
		t.Fatalf("path: %s", reopened.Path())
	}
}

func TestStoreDefaultsPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "platecore.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()
	if store.DB() == nil {
		t.Fatal("db handle not exposed")
	}
}

func TestStoreFailedTransactionNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plates.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	plate, err := domain.NewPlate(domain.PlateConfig{WellCount: 8})
	if err != nil {
		t.Fatalf("new plate: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreatePlate(plate); err != nil {
			return err
		}
		return context.Canceled
	})
	if err == nil {
		t.Fatal("expected transaction error")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if len(reopened.ListPlates()) != 0 {
		t.Fatal("aborted transaction left persisted state")
	}
}
