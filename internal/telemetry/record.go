// Package telemetry holds the typed device records produced from nvidia-smi
// summary output and the parser that builds them.
package telemetry

import "time"

// DeviceRecord is one GPU at one sample time.
type DeviceRecord struct {
	ID             string
	Name           string
	TemperatureC   *int // nil when the sensor is unreadable
	UtilizationPct int  // always within [0,100]
	MemoryUsedMB   int
	MemoryTotalMB  int      // 0 means unknown capacity
	PowerDrawW     *float64 // nil when unreported; 0 is a real reading
}

// HasTemperature reports whether a temperature reading is present.
func (r DeviceRecord) HasTemperature() bool {
	return r.TemperatureC != nil
}

// HasPowerDraw reports whether a power reading is present.
func (r DeviceRecord) HasPowerDraw() bool {
	return r.PowerDrawW != nil
}

// Sample is one poll result: device records keyed by id, in the order the
// devices appeared in the source text.
type Sample struct {
	CapturedAt time.Time
	order      []string
	records    map[string]DeviceRecord
}

// NewSample creates an empty sample captured at t.
func NewSample(t time.Time) *Sample {
	return &Sample{
		CapturedAt: t,
		records:    make(map[string]DeviceRecord),
	}
}

// Put inserts or replaces a record. A replaced record keeps the position of
// its first appearance. Records with an empty id are ignored.
func (s *Sample) Put(rec DeviceRecord) {
	if rec.ID == "" {
		return
	}
	if s.records == nil {
		s.records = make(map[string]DeviceRecord)
	}
	if _, exists := s.records[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = rec
}

// Get returns the record for id.
func (s *Sample) Get(id string) (DeviceRecord, bool) {
	if s == nil {
		return DeviceRecord{}, false
	}
	rec, ok := s.records[id]
	return rec, ok
}

// IDs returns device ids in insertion order.
func (s *Sample) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Records returns the records in insertion order.
func (s *Sample) Records() []DeviceRecord {
	if s == nil {
		return nil
	}
	out := make([]DeviceRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// Len returns the number of devices in the sample.
func (s *Sample) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Metrics returns a fresh id -> record map safe to hand to another goroutine.
func (s *Sample) Metrics() map[string]DeviceRecord {
	out := make(map[string]DeviceRecord, s.Len())
	if s == nil {
		return out
	}
	for id, rec := range s.records {
		out[id] = rec
	}
	return out
}
