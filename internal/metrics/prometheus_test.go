package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDailyClaim(t *testing.T) {
	DailyClaimsTotal.Reset()

	RecordDailyClaim("guild-1", "granted")
	RecordDailyClaim("guild-1", "granted")
	RecordDailyClaim("guild-1", "cooling_down")

	count := testutil.ToFloat64(DailyClaimsTotal.WithLabelValues("guild-1", "granted"))
	if count != 2 {
		t.Errorf("Expected granted count = 2, got %f", count)
	}

	count = testutil.ToFloat64(DailyClaimsTotal.WithLabelValues("guild-1", "cooling_down"))
	if count != 1 {
		t.Errorf("Expected cooling_down count = 1, got %f", count)
	}
}

func TestRecordWager(t *testing.T) {
	WagersTotal.Reset()
	PointsWageredTotal.Reset()

	RecordWager("guild-1", "won", 50)
	RecordWager("guild-1", "lost", 25)

	count := testutil.ToFloat64(WagersTotal.WithLabelValues("guild-1", "won"))
	if count != 1 {
		t.Errorf("Expected won count = 1, got %f", count)
	}

	staked := testutil.ToFloat64(PointsWageredTotal.WithLabelValues("guild-1"))
	if staked != 75 {
		t.Errorf("Expected 75 points staked, got %f", staked)
	}
}

func TestRecordTriggerFired(t *testing.T) {
	TriggersFiredTotal.Reset()

	RecordTriggerFired("guild-1", "add")
	RecordTriggerFired("guild-1", "remove")
	RecordTriggerFired("guild-1", "add")

	count := testutil.ToFloat64(TriggersFiredTotal.WithLabelValues("guild-1", "add"))
	if count != 2 {
		t.Errorf("Expected add count = 2, got %f", count)
	}
}
