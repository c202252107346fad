package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// Storefront holds the request-path collectors for carts, checkout and the
// shopping assistant. A nil *Storefront is a valid no-op recorder.
type Storefront struct {
	assistantTurns  *prometheus.CounterVec
	toolCalls       *prometheus.CounterVec
	modelLatency    prometheus.Histogram
	checkouts       *prometheus.CounterVec
	cartMerges      *prometheus.CounterVec
	droppedCartLine prometheus.Counter
}

// NewStorefront registers the storefront collectors on reg.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	s := &Storefront{
		assistantTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistant_turns_total",
			Help:      "Assistant turns by outcome.",
		}, []string{"outcome"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistant_tool_calls_total",
			Help:      "Tool invocations requested by the model.",
		}, []string{"tool"}),
		modelLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assistant_model_latency_seconds",
			Help:      "Latency of a single model generation call.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Checkout attempts by result.",
		}, []string{"result"}),
		cartMerges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_merge_total",
			Help:      "Device-to-user cart merges by result.",
		}, []string{"result"}),
		droppedCartLine: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_dropped_lines_total",
			Help:      "Cart lines dropped during hydration because the product no longer exists.",
		}),
	}
	reg.MustRegister(s.assistantTurns, s.toolCalls, s.modelLatency, s.checkouts, s.cartMerges, s.droppedCartLine)
	return s
}

func (s *Storefront) IncAssistantTurn(outcome string) {
	if s == nil || s.assistantTurns == nil {
		return
	}
	s.assistantTurns.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (s *Storefront) IncToolCall(tool string) {
	if s == nil || s.toolCalls == nil {
		return
	}
	s.toolCalls.WithLabelValues(normalizeLabel(tool)).Inc()
}

func (s *Storefront) ObserveModelLatency(d time.Duration) {
	if s == nil || s.modelLatency == nil {
		return
	}
	s.modelLatency.Observe(d.Seconds())
}

func (s *Storefront) IncCheckout(result string) {
	if s == nil || s.checkouts == nil {
		return
	}
	s.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
}

func (s *Storefront) IncCartMerge(result string) {
	if s == nil || s.cartMerges == nil {
		return
	}
	s.cartMerges.WithLabelValues(normalizeLabel(result)).Inc()
}

// AddDroppedCartLines counts hydration misses.
func (s *Storefront) AddDroppedCartLines(n int) {
	if s == nil || s.droppedCartLine == nil || n <= 0 {
		return
	}
	s.droppedCartLine.Add(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
