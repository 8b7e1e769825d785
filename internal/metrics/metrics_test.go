package metrics

import (
	"errors"
	"testing"
	"time"
)

// captureBackend records every call for assertions.
type captureBackend struct {
	counters   map[string]float64
	lastLabels Labels
	flushed    int
}

func newCapture() *captureBackend {
	return &captureBackend{counters: map[string]float64{}}
}

func (c *captureBackend) IncCounter(name string, delta float64, labels Labels) {
	c.counters[name] += delta
	c.lastLabels = labels
}

func (c *captureBackend) ObserveHistogram(name string, value float64, labels Labels) {
	c.counters[name+"_observed"]++
}

func (c *captureBackend) Flush() error {
	c.flushed++
	return nil
}

/*
TestRecordStep verifies the step counter/duration pair and the status label
derived from the error.
*/
func TestRecordStep(t *testing.T) {
	c := newCapture()
	SetBackend(c)
	defer SetBackend(nopBackend{})

	RecordStep("odietl", "extract", nil, 10*time.Millisecond)
	if c.counters["ingest_step_total"] != 1 {
		t.Errorf("step counter = %v, want 1", c.counters["ingest_step_total"])
	}
	if c.counters["ingest_step_duration_seconds_observed"] != 1 {
		t.Error("duration not observed")
	}
	if c.lastLabels["status"] != "success" {
		t.Errorf("status = %q, want success", c.lastLabels["status"])
	}

	RecordStep("odietl", "extract", errors.New("boom"), time.Millisecond)
	if c.lastLabels["status"] != "failure" {
		t.Errorf("status = %q, want failure", c.lastLabels["status"])
	}
}

/*
TestRecordRow verifies the record counter and that non-positive deltas are
dropped.
*/
func TestRecordRow(t *testing.T) {
	c := newCapture()
	SetBackend(c)
	defer SetBackend(nopBackend{})

	RecordRow("odietl", "rows_read", 42)
	RecordRow("odietl", "rows_read", 0)
	RecordRow("odietl", "rows_read", -5)

	if c.counters["ingest_records_total"] != 42 {
		t.Errorf("record counter = %v, want 42", c.counters["ingest_records_total"])
	}
	if c.lastLabels["kind"] != "rows_read" {
		t.Errorf("kind = %q", c.lastLabels["kind"])
	}
}

/*
TestSetBackend_Nil verifies that a nil backend keeps the previous one and
that the default nop backend swallows everything safely.
*/
func TestSetBackend_Nil(t *testing.T) {
	c := newCapture()
	SetBackend(c)
	defer SetBackend(nopBackend{})

	SetBackend(nil)
	RecordDataset("odietl", 1)
	if c.counters["ingest_datasets_total"] != 1 {
		t.Error("nil SetBackend replaced the active backend")
	}
	if err := Flush(); err != nil || c.flushed != 1 {
		t.Errorf("Flush: err=%v flushed=%d", err, c.flushed)
	}
}
