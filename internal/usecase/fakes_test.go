package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/psxom3/genai-regwatch/internal/domain"
)

// memoryRepo is an in-memory DocumentRepository and IntakeRepository that
// records every write in order.
type memoryRepo struct {
	mu        sync.Mutex
	docs      map[int64]*domain.Document
	nextID    int64
	events    []string
	summaries map[int64][]string
	actions   map[int64][]string
	failOn    map[string]error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		docs:      map[int64]*domain.Document{},
		summaries: map[int64][]string{},
		actions:   map[int64][]string{},
		failOn:    map[string]error{},
	}
}

func (m *memoryRepo) add(doc domain.Document) domain.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	doc.ID = m.nextID
	if doc.State == "" {
		doc.State = domain.StateNew
	}
	m.docs[doc.ID] = &doc
	return doc
}

func (m *memoryRepo) record(event string) error {
	m.events = append(m.events, event)
	op, _, _ := strings.Cut(event, ":")
	return m.failOn[op]
}

func (m *memoryRepo) doc(id int64) domain.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.docs[id]
}

func (m *memoryRepo) eventsFor(id int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	suffix := fmt.Sprintf(":%d", id)
	var out []string
	for _, e := range m.events {
		if strings.HasSuffix(e, suffix) {
			out = append(out, e)
		}
	}
	return out
}

func (m *memoryRepo) FetchNew(context.Context) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn["fetch"]; err != nil {
		return nil, err
	}
	var out []domain.Document
	for id := int64(1); id <= m.nextID; id++ {
		if d, ok := m.docs[id]; ok && d.State == domain.StateNew {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memoryRepo) InsertSummary(_ context.Context, id int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(fmt.Sprintf("summary:%d", id)); err != nil {
		return err
	}
	m.summaries[id] = append(m.summaries[id], text)
	return nil
}

func (m *memoryRepo) InsertActions(_ context.Context, id int64, actionsJSON string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(fmt.Sprintf("actions:%d", id)); err != nil {
		return err
	}
	m.actions[id] = append(m.actions[id], actionsJSON)
	return nil
}

func (m *memoryRepo) MarkProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(fmt.Sprintf("processed:%d", id)); err != nil {
		return err
	}
	m.docs[id].State = domain.StateProcessed
	return nil
}

func (m *memoryRepo) RecordFailure(_ context.Context, id int64, reason string, maxAttempts int) (domain.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.record(fmt.Sprintf("failure:%d", id))
	d, ok := m.docs[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	d.Attempts++
	d.LastError = reason
	if d.Attempts >= maxAttempts {
		d.State = domain.StateFailed
	} else {
		d.State = domain.StateNew
	}
	return d.State, nil
}

func (m *memoryRepo) ExistsByHash(_ context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.Hash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) Create(_ context.Context, doc domain.Document) (domain.Document, error) {
	if ok, _ := m.ExistsByHash(context.Background(), doc.Hash); ok {
		return domain.Document{}, domain.ErrDuplicate
	}
	doc.State = domain.StateNew
	doc.DiscoveredAt = time.Now().UTC()
	return m.add(doc), nil
}

func (m *memoryRepo) Requeue(_ context.Context, hash string) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.Hash == hash {
			d.State = domain.StateNew
			d.Attempts = 0
			d.LastError = ""
			return *d, nil
		}
	}
	return domain.Document{}, domain.ErrNotFound
}

// memoryBlobs stores bytes by name and counts writes.
type memoryBlobs struct {
	mu    sync.Mutex
	files map[string][]byte
	saves int
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{files: map[string][]byte{}}
}

func (b *memoryBlobs) Save(name string, content []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saves++
	ref := "/raw/" + name
	b.files[ref] = append([]byte(nil), content...)
	return ref, nil
}

func (b *memoryBlobs) Read(ref string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.files[ref]
	if !ok {
		return nil, errors.New("no such blob")
	}
	return data, nil
}

// scriptedCompleter answers action prompts and summary prompts separately and
// tracks the highest number of concurrent calls.
type scriptedCompleter struct {
	actionReply  string
	summaryReply string
	delay        time.Duration

	active  atomic.Int32
	peak    atomic.Int32
	calls   atomic.Int32
	mu      sync.Mutex
	prompts []string
}

func (s *scriptedCompleter) Complete(_ context.Context, prompt string, _ int) string {
	s.calls.Add(1)
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}

	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if strings.Contains(prompt, "Extract compliance action points") {
		return s.actionReply
	}
	return s.summaryReply
}

func (s *scriptedCompleter) promptsContaining(substr string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.prompts {
		if strings.Contains(p, substr) {
			n++
		}
	}
	return n
}

// recordingNotifier captures alerts and optionally fails.
type recordingNotifier struct {
	mu     sync.Mutex
	alerts []domain.Alert
	err    error
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) Notify(_ context.Context, alert domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}
