package observ

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTimerTrackRecordsFailures(t *testing.T) {
	tm := NewTimer()
	clock := time.Unix(0, 0)
	tm.now = func() time.Time {
		clock = clock.Add(2 * time.Millisecond)
		return clock
	}

	if err := tm.Track(PhaseLower, func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	if err := tm.Track(PhaseVerify, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Track must return fn's error, got %v", err)
	}

	r := tm.Report()
	if len(r.Phases) != 2 || r.TotalMS != 4 {
		t.Fatalf("unexpected report %+v", r)
	}
	v, ok := r.Phase(PhaseVerify)
	if !ok || v.Note != "failed" || v.DurationMS != 2 {
		t.Fatalf("verify phase = %+v, %v", v, ok)
	}
	if s := tm.Summary(); !strings.Contains(s, "verify") || !strings.Contains(s, "// failed") {
		t.Fatalf("summary missing rows:\n%s", s)
	}
}
