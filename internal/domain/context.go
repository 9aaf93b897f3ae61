package domain

// AnalysisContext is the per-run signal accumulator shared by every wave in
// an analysis. Signals are append-only: lookups never remove or reorder
// prior entries. The scratch cache carries transient artifacts (decoded
// frames, intermediate buffers) between waves and is cleared at run end.
//
// Waves run one at a time, so the context needs no locking. Concurrent wave
// execution would require making both maps safe for concurrent use.
type AnalysisContext struct {
	signals map[string][]Signal
	keys    []string
	cache   map[string]any
}

func NewAnalysisContext() *AnalysisContext {
	return &AnalysisContext{
		signals: make(map[string][]Signal),
		cache:   make(map[string]any),
	}
}

func (c *AnalysisContext) AddSignal(s Signal) {
	if _, seen := c.signals[s.Key]; !seen {
		c.keys = append(c.keys, s.Key)
	}
	c.signals[s.Key] = append(c.signals[s.Key], s)
}

func (c *AnalysisContext) AddSignals(signals []Signal) {
	for _, s := range signals {
		c.AddSignal(s)
	}
}

// GetSignals returns all signals recorded under key, in insertion order.
func (c *AnalysisContext) GetSignals(key string) []Signal {
	return c.signals[key]
}

// GetBestSignal returns the signal with the highest confidence under key.
// Ties resolve to the earliest-inserted signal.
func (c *AnalysisContext) GetBestSignal(key string) (Signal, bool) {
	entries := c.signals[key]
	if len(entries) == 0 {
		return Signal{}, false
	}
	best := entries[0]
	for _, s := range entries[1:] {
		if s.Confidence > best.Confidence {
			best = s
		}
	}
	return best, true
}

func (c *AnalysisContext) HasSignal(key string) bool {
	return len(c.signals[key]) > 0
}

// Keys returns every signal key in first-appearance order.
func (c *AnalysisContext) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// AllSignals flattens the store: every signal under every key, keys in
// first-appearance order, entries within a key in insertion order.
func (c *AnalysisContext) AllSignals() []Signal {
	var out []Signal
	for _, key := range c.keys {
		out = append(out, c.signals[key]...)
	}
	return out
}

func (c *AnalysisContext) SignalCount() int {
	n := 0
	for _, entries := range c.signals {
		n += len(entries)
	}
	return n
}

func (c *AnalysisContext) SetCached(key string, v any) {
	c.cache[key] = v
}

func (c *AnalysisContext) GetCached(key string) (any, bool) {
	v, ok := c.cache[key]
	return v, ok
}

// ClearCache drops every scratch entry. Called once a run completes so
// large decoded buffers do not outlive the analysis.
func (c *AnalysisContext) ClearCache() {
	c.cache = make(map[string]any)
}

// Value returns the best signal's value under key converted to T, or
// fallback when the key is absent or the value cannot be converted.
func Value[T any](c *AnalysisContext, key string, fallback T) T {
	best, ok := c.GetBestSignal(key)
	if !ok {
		return fallback
	}
	if v, ok := best.Value.(T); ok {
		return v
	}
	var zero T
	switch any(zero).(type) {
	case float64:
		if n, ok := NumericValue(best.Value); ok {
			return any(n).(T)
		}
	case bool:
		if b, ok := BoolValue(best.Value); ok {
			return any(b).(T)
		}
	case string:
		return any(StringValue(best.Value)).(T)
	}
	return fallback
}
