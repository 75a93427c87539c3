package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/hall-sensor/internal/input"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func frame(at time.Time, value int32) []input.Event {
	return []input.Event{
		{Time: at, Type: input.EvSw, Code: input.SwLid, Value: value},
		{Time: at, Type: input.EvSyn, Code: input.SynReport},
	}
}

func TestDeliverAndRecent(t *testing.T) {
	s, _ := openTemp(t)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	values := []int32{1, 0, 0, 1}
	for i, v := range values {
		if err := s.Deliver(frame(start.Add(time.Duration(i)*time.Second), v)); err != nil {
			t.Fatalf("Deliver %d: %v", i, err)
		}
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 4 {
		t.Errorf("count: got %d, want 4 (sync events are not journaled)", n)
	}

	recs, err := s.Recent(3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	for i, r := range recs {
		wantSeq := uint64(i + 2)
		if r.Seq != wantSeq {
			t.Errorf("record %d: seq %d, want %d", i, r.Seq, wantSeq)
		}
		if r.Value != values[i+1] {
			t.Errorf("record %d: value %d, want %d", i, r.Value, values[i+1])
		}
		if !r.Time.Equal(start.Add(time.Duration(i+1) * time.Second)) {
			t.Errorf("record %d: time %v", i, r.Time)
		}
	}
	if recs[2].State != "NEAR" || recs[0].State != "FAR" {
		t.Errorf("states: got %s..%s", recs[0].State, recs[2].State)
	}
}

func TestRecentLimits(t *testing.T) {
	s, _ := openTemp(t)

	recs, err := s.Recent(10)
	if err != nil || len(recs) != 0 {
		t.Errorf("empty journal: got %d records, err %v", len(recs), err)
	}

	s.Deliver(frame(time.Now(), 1))
	if recs, _ := s.Recent(0); recs != nil {
		t.Errorf("limit 0: expected nil, got %v", recs)
	}
	if recs, _ := s.Recent(50); len(recs) != 1 {
		t.Errorf("limit above count: got %d records", len(recs))
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	s, path := openTemp(t)
	s.Deliver(frame(time.Now(), 1))
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	s2.Deliver(frame(time.Now(), 0))
	recs, _ := s2.Recent(10)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records after reopen, got %d", len(recs))
	}
	if recs[1].Seq != 2 {
		t.Errorf("sequence should continue after reopen, got %d", recs[1].Seq)
	}
}
