package dataset

import (
	"testing"
	"time"

	"studiostats/internal/core"
)

func sampleRows() []core.Booking {
	return []core.Booking{
		{PersonID: "1", FirstName: "A", ClassName: "Spin", StartTime: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)},
		{PersonID: "2", FirstName: "B", ClassName: "Choreo", StartTime: time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)},
		{PersonID: "1", FirstName: "A", ClassName: "Spin", StartTime: time.Date(2024, 1, 9, 9, 0, 0, 0, time.UTC)},
	}
}

func TestPutAndGet(t *testing.T) {
	s := NewStore(time.Minute, 10)
	meta := s.Put(sampleRows())

	if meta.ID == "" || meta.RowCount != 3 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if len(meta.Periods) != 2 || meta.Periods[0] != "2024-01" || meta.Periods[1] != "2024-02" {
		t.Fatalf("periods wrong: %v", meta.Periods)
	}
	if len(meta.Students) != 2 || meta.Students[0].PersonID != "1" {
		t.Fatalf("students wrong: %+v", meta.Students)
	}

	rows, ok := s.Rows(meta.ID)
	if !ok || len(rows) != 3 {
		t.Fatalf("rows not retrievable")
	}
	got, ok := s.Get(meta.ID)
	if !ok || got.ID != meta.ID {
		t.Fatalf("meta not retrievable")
	}
}

func TestUnknownID(t *testing.T) {
	s := NewStore(time.Minute, 10)
	if _, ok := s.Rows("nope"); ok {
		t.Fatalf("expected miss")
	}
}

func TestExpiry(t *testing.T) {
	s := NewStore(-time.Second, 10) // already expired on insert
	meta := s.Put(sampleRows())

	if _, ok := s.Rows(meta.ID); ok {
		t.Fatalf("expired dataset still served")
	}
	if removed := s.CleanExpired(); removed != 1 {
		t.Fatalf("CleanExpired removed %d, want 1", removed)
	}
	if s.Size() != 0 {
		t.Fatalf("size got %d, want 0", s.Size())
	}
}

func TestSessionCapEvictsOldest(t *testing.T) {
	s := NewStore(time.Minute, 2)
	first := s.Put(sampleRows())
	time.Sleep(2 * time.Millisecond)
	s.Put(sampleRows())
	time.Sleep(2 * time.Millisecond)
	s.Put(sampleRows())

	if s.Size() != 2 {
		t.Fatalf("size got %d, want 2", s.Size())
	}
	if _, ok := s.Rows(first.ID); ok {
		t.Fatalf("oldest dataset should have been evicted")
	}
}
