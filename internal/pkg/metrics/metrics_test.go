package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMarkReadTotal_Labels(t *testing.T) {
	before := testutil.ToFloat64(MarkReadTotal.WithLabelValues("bulk", "ok"))
	MarkReadTotal.WithLabelValues("bulk", "ok").Inc()
	after := testutil.ToFloat64(MarkReadTotal.WithLabelValues("bulk", "ok"))
	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestUnreadCount_Set(t *testing.T) {
	UnreadCount.WithLabelValues("test-view").Set(3)
	if got := testutil.ToFloat64(UnreadCount.WithLabelValues("test-view")); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
}
