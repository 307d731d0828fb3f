package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAdmission(t *testing.T) {
	before := testutil.ToFloat64(AdmissionsTotal.WithLabelValues(OutcomeAccepted, "MOVIE"))

	RecordAdmission(OutcomeAccepted, "MOVIE", 15*time.Millisecond)
	RecordAdmission(OutcomeAccepted, "MOVIE", 20*time.Millisecond)

	after := testutil.ToFloat64(AdmissionsTotal.WithLabelValues(OutcomeAccepted, "MOVIE"))
	if after-before != 2 {
		t.Errorf("expected counter to grow by 2, grew by %v", after-before)
	}

	if n := testutil.CollectAndCount(AdmissionDuration); n == 0 {
		t.Error("expected admission duration samples")
	}
}
