// Package sysmon samples host CPU and memory load for the gateway's
// /metrics and /health routes.
package sysmon

import (
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats holds a single snapshot of system-wide resource usage.
type Stats struct {
	CPUPercent float64 `json:"cpu_percent"` // 0.0 .. 100.0
	MemPercent float64 `json:"mem_percent"` // 0.0 .. 100.0
}

// Sample collects a single system-wide CPU and memory snapshot.
// CPU uses interval=0 (delta since last call). Returns zero values on error.
func Sample() Stats {
	var s Stats
	cpuPcts, err := cpu.Percent(0, false)
	if err == nil && len(cpuPcts) > 0 {
		s.CPUPercent = cpuPcts[0]
	}
	vmem, err := mem.VirtualMemory()
	if err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
	}
	return s
}

// Sampler reuses a sample for MinInterval so that several gauges read in
// one scrape see the same snapshot.
type Sampler struct {
	MinInterval time.Duration

	mu     sync.Mutex
	last   Stats
	at     time.Time
	sample func() Stats
	now    func() time.Time
}

// NewSampler returns a Sampler backed by Sample.
func NewSampler(minInterval time.Duration) *Sampler {
	return &Sampler{MinInterval: minInterval, sample: Sample, now: time.Now}
}

// Stats returns the cached snapshot, refreshing it when it is older than
// MinInterval.
func (s *Sampler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.at.IsZero() || now.Sub(s.at) >= s.MinInterval {
		s.last = s.sample()
		s.at = now
	}
	return s.last
}

// CPUPercent is Stats().CPUPercent, shaped for prometheus.NewGaugeFunc.
func (s *Sampler) CPUPercent() float64 { return s.Stats().CPUPercent }

// MemPercent is Stats().MemPercent, shaped for prometheus.NewGaugeFunc.
func (s *Sampler) MemPercent() float64 { return s.Stats().MemPercent }
