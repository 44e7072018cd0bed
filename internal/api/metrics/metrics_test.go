package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
)

func TestObserver_IncrementsCounters(t *testing.T) {
	var o Observer

	before := counterValue(t, StoreMutationsTotal.WithLabelValues("cart", "add_item"))
	o.Mutation("cart", "add_item")
	if got := counterValue(t, StoreMutationsTotal.WithLabelValues("cart", "add_item")); got != before+1 {
		t.Fatalf("mutations = %v, want %v", got, before+1)
	}

	before = counterValue(t, SessionTransitionsTotal.WithLabelValues("anonymous", "authenticated"))
	o.SessionTransition(domain.SessionAnonymous, domain.SessionAuthenticated)
	if got := counterValue(t, SessionTransitionsTotal.WithLabelValues("anonymous", "authenticated")); got != before+1 {
		t.Fatalf("transitions = %v", got)
	}

	before = counterValue(t, RehydrationsTotal.WithLabelValues("cart", ports.RehydrateCorrupt))
	o.Rehydrated("cart", ports.RehydrateCorrupt)
	if got := counterValue(t, RehydrationsTotal.WithLabelValues("cart", ports.RehydrateCorrupt)); got != before+1 {
		t.Fatalf("rehydrations = %v", got)
	}

	before = counterValue(t, StorageFailuresTotal.WithLabelValues("session", "logout"))
	o.StorageFailed("session", "logout")
	if got := counterValue(t, StorageFailuresTotal.WithLabelValues("session", "logout")); got != before+1 {
		t.Fatalf("failures = %v", got)
	}

	before = counterValue(t, ProfilesEvictedTotal.WithLabelValues("idle"))
	o.ProfilesEvicted("idle", 3)
	if got := counterValue(t, ProfilesEvictedTotal.WithLabelValues("idle")); got != before+3 {
		t.Fatalf("evictions = %v", got)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}
