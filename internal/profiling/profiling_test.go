package profiling

import (
	"strings"
	"testing"
	"time"
)

func TestTrackAccumulatesUntilReset(t *testing.T) {
	ResetFrame()
	stop := Track("test.op")
	time.Sleep(time.Millisecond)
	stop()
	Track("test.op")()

	if Snapshot()["test.op"] <= 0 {
		t.Fatalf("expected recorded duration")
	}
	if !strings.Contains(TopN(3), "test.op:") {
		t.Fatalf("TopN missing entry: %q", TopN(3))
	}

	ResetFrame()
	if len(Snapshot()) != 0 {
		t.Fatalf("reset left entries: %v", Snapshot())
	}
}

func TestCountersSurviveReset(t *testing.T) {
	before := Counter("test.count")
	Count("test.count", 2)
	ResetFrame()
	if got := Counter("test.count"); got != before+2 {
		t.Fatalf("counter = %d, want %d", got, before+2)
	}
}
