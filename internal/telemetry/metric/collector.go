package metric

import "github.com/prometheus/client_golang/prometheus"

// StateCollector reports the current value of a labelled state as a gauge
// set to 1 for the active state and 0 for the others.
type StateCollector struct {
	desc   *prometheus.Desc
	states []string
	fn     func() string
}

// NewStateCollector creates a collector for a state read through fn.
func NewStateCollector(subsystem, name, help string, states []string, fn func() string) *StateCollector {
	return &StateCollector{
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, name),
			help,
			[]string{"state"},
			nil,
		),
		states: states,
		fn:     fn,
	}
}

// Describe implements prometheus.Collector.
func (c *StateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *StateCollector) Collect(ch chan<- prometheus.Metric) {
	current := c.fn()
	for _, s := range c.states {
		v := 0.0
		if s == current {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, v, s)
	}
}
