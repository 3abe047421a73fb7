package metrics

import "github.com/prometheus/client_golang/prometheus"

// SessionCacheMetrics counts redis session cache lookups.
type SessionCacheMetrics struct {
	lookups *prometheus.CounterVec
}

func NewSessionCacheMetrics(reg prometheus.Registerer) *SessionCacheMetrics {
	if reg == nil {
		return &SessionCacheMetrics{}
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_cache_lookups_total",
		Help:      "Session cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(lookups)
	return &SessionCacheMetrics{lookups: lookups}
}

// ObserveSessionCache satisfies session.CacheObserver.
func (s *SessionCacheMetrics) ObserveSessionCache(hit bool) {
	if s == nil || s.lookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	s.lookups.WithLabelValues(result).Inc()
}
