package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStorefrontMetricsExports(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStorefrontMetrics(reg)

	m.ObserveRemoteCall("get_cart", "success", 120*time.Millisecond)
	m.IncCheckout("accepted")
	m.IncCartEvent()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := counterValue(mfs, "remote_calls_total", map[string]string{"operation": "get_cart", "outcome": "success"}); err != nil {
		t.Fatalf("fetch remote calls: %v", err)
	} else if got != 1 {
		t.Fatalf("expected remote_calls_total=1, got %f", got)
	}

	if got, err := counterValue(mfs, "checkout_attempts_total", map[string]string{"result": "accepted"}); err != nil {
		t.Fatalf("fetch checkouts: %v", err)
	} else if got != 1 {
		t.Fatalf("expected checkout_attempts_total=1, got %f", got)
	}

	if got, err := counterValue(mfs, "cart_changed_events_total", nil); err != nil {
		t.Fatalf("fetch cart events: %v", err)
	} else if got != 1 {
		t.Fatalf("expected cart_changed_events_total=1, got %f", got)
	}
}

func TestNilRegistererIsSafe(t *testing.T) {
	m := NewStorefrontMetrics(nil)
	m.ObserveRemoteCall("get_cart", "success", time.Millisecond)
	m.IncCheckout("accepted")
	m.IncCartEvent()

	var zero *StorefrontMetrics
	zero.IncCartEvent()
}

func counterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, metric := range mf.GetMetric() {
			for key, want := range labels {
				found := false
				for _, pair := range metric.GetLabel() {
					if pair.GetName() == key && pair.GetValue() == want {
						found = true
						break
					}
				}
				if !found {
					continue metric
				}
			}
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q with labels %v not found", name, labels)
}
