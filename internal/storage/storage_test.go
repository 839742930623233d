package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Roll1ngo/Last-item-bot/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "params.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p := models.OfferParams{
		OfferID:         "G123",
		SeoTerm:         "thunderfury",
		RegionID:        "rgc_2299",
		FilterAttribute: "col_1:ds_7",
	}
	if err := s.PutParams(ctx, p); err != nil {
		t.Fatalf("PutParams failed: %v", err)
	}

	got, ok, err := s.GetParams(ctx, "G123")
	if err != nil {
		t.Fatalf("GetParams failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected a cache hit")
	}
	if got != p {
		t.Errorf("Got %+v, want %+v", got, p)
	}

	if err := s.DeleteParams(ctx, "G123"); err != nil {
		t.Fatalf("DeleteParams failed: %v", err)
	}
	if _, ok, err := s.GetParams(ctx, "G123"); err != nil || ok {
		t.Errorf("Expected a miss after delete, got ok=%v err=%v", ok, err)
	}
}

func TestGetMiss(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.GetParams(context.Background(), "absent")
	if err != nil {
		t.Fatalf("GetParams failed: %v", err)
	}
	if ok {
		t.Error("Expected a cache miss")
	}
}

func TestPutOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := models.OfferParams{OfferID: "G1", SeoTerm: "old", RegionID: "r1", FilterAttribute: "f1"}
	second := models.OfferParams{OfferID: "G1", SeoTerm: "new", RegionID: "r2", FilterAttribute: "f2"}

	if err := s.PutParams(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.PutParams(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.GetParams(ctx, "G1")
	if err != nil || !ok {
		t.Fatalf("GetParams failed: ok=%v err=%v", ok, err)
	}
	if got != second {
		t.Errorf("Got %+v, want %+v", got, second)
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "params.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if err := s.PutParams(context.Background(), models.OfferParams{
		OfferID: "G1", SeoTerm: "x", RegionID: "y", FilterAttribute: "z",
	}); err != nil {
		t.Fatalf("PutParams failed: %v", err)
	}
}
