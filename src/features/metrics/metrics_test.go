package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"shellac/src/catalog"
	"shellac/src/features/scanning"
)

// MockStore is a mock implementation of catalog.Store
type MockStore struct {
	catalog.Store // Embed interface, will panic if unused methods called
	counts        catalog.CatalogCounts
}

func (m *MockStore) Counts(ctx context.Context) (catalog.CatalogCounts, error) {
	return m.counts, nil
}

func TestScanLifecycleMetrics(t *testing.T) {
	store := &MockStore{counts: catalog.CatalogCounts{Folders: 2, Songs: 5, Albums: 1, Artists: 1, CoverArt: 1}}
	service := NewService(store)

	service.ScanStarted()
	if got := testutil.ToFloat64(service.scanRunning); got != 1 {
		t.Fatalf("expected scan running gauge 1, got %v", got)
	}

	started := time.Now()
	service.ScanFinished(&scanning.Summary{
		Started:  started,
		Finished: started.Add(2 * time.Second),
		Added:    5,
		Removed:  1,
		Errors:   1,
	}, false)

	if got := testutil.ToFloat64(service.scanRunning); got != 0 {
		t.Errorf("expected scan running gauge 0, got %v", got)
	}
	if got := testutil.ToFloat64(service.scansTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("expected one successful scan, got %v", got)
	}
	if got := testutil.ToFloat64(service.entitiesAdded); got != 5 {
		t.Errorf("expected 5 added entities, got %v", got)
	}
	if got := testutil.ToFloat64(service.catalogSize.WithLabelValues("songs")); got != 5 {
		t.Errorf("expected songs gauge 5, got %v", got)
	}
}

func TestFailedScanCountedSeparately(t *testing.T) {
	service := NewService(&MockStore{})

	now := time.Now()
	service.ScanFinished(&scanning.Summary{Started: now, Finished: now}, true)

	if got := testutil.ToFloat64(service.scansTotal.WithLabelValues("failed")); got != 1 {
		t.Errorf("expected one failed scan, got %v", got)
	}
	if got := testutil.ToFloat64(service.scansTotal.WithLabelValues("success")); got != 0 {
		t.Errorf("expected no successful scans, got %v", got)
	}
}
