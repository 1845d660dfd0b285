package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakePublisher struct {
	mu      sync.Mutex
	topics  []string
	batches [][]AggregatedLogEntry
	service string
}

func (p *fakePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	batch := payload.(LogBatch)
	p.service = batch.Service
	p.batches = append(p.batches, batch.Entries)
	return nil
}

func TestCollectorDeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &fakePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		c.AddLog("error", "upstream failed", map[string]interface{}{"commodity": "coffee"}, "x.go:1")
	}
	c.AddLog("error", "upstream failed", map[string]interface{}{"commodity": "corn"}, "x.go:1")
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 1 {
		t.Fatalf("expected one batch, got %d", len(pub.batches))
	}
	if pub.topics[0] != "logs" {
		t.Fatalf("unexpected topic %s", pub.topics[0])
	}
	counts := map[interface{}]int{}
	for _, e := range pub.batches[0] {
		counts[e.Fields["commodity"]] = e.Count
	}
	if counts["coffee"] != 3 || counts["corn"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &fakePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "logs", Publisher: pub})
	c.AddLog("error", "a", nil, "")
	c.AddLog("error", "b", nil, "")
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 1 || len(pub.batches[0]) != 2 {
		t.Fatalf("expected a single batch of 2, got %v", pub.batches)
	}
}

func TestLoggerErrorFeedsCollector(t *testing.T) {
	pub := &fakePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})
	l.Error("fetch failed", Error(errors.New("boom")), String("commodity", "rice"))
	l.Warn("not collected")
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 1 || len(pub.batches[0]) != 1 {
		t.Fatalf("expected one collected error, got %v", pub.batches)
	}
	e := pub.batches[0][0]
	if e.Message != "fetch failed" || e.Fields["error"] != "boom" || e.Fields["commodity"] != "rice" {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestCollectorSharedWithChildren(t *testing.T) {
	pub := &fakePublisher{}
	root := Nop()
	child := root.With(String("session", "abc"))

	root.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Service: "priceboard", Publisher: pub})
	for i := 0; i < 2; i++ {
		child.Error("ws write failed")
	}
	root.RemoveCollector()
	child.Error("after removal")

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 1 || len(pub.batches[0]) != 1 || pub.batches[0][0].Count != 2 {
		t.Fatalf("unexpected batches %+v", pub.batches)
	}
	if pub.service != "priceboard" {
		t.Fatalf("service = %q", pub.service)
	}
}

func TestEntryKeyIgnoresFieldOrder(t *testing.T) {
	a := entryKey("error", "m", map[string]interface{}{"a": 1, "b": "x"}, "c.go:1")
	b := entryKey("error", "m", map[string]interface{}{"b": "x", "a": 1}, "c.go:1")
	if a != b {
		t.Fatal("equal fields hashed differently")
	}
	if a == entryKey("error", "m", map[string]interface{}{"a": 2, "b": "x"}, "c.go:1") {
		t.Fatal("different fields hashed equally")
	}
}
