package app

import (
	"context"
	"errors"
	"sync"

	"github.com/whaydenschwartz-lang/SeeAgain/internal/domain"
)

type fakeLedger struct {
	mu      sync.Mutex
	records map[string]domain.PaymentRecord
	getErr  error
	putErr  error
	allErr  error
}

func newFakeLedger(records ...domain.PaymentRecord) *fakeLedger {
	l := &fakeLedger{records: make(map[string]domain.PaymentRecord)}
	for _, rec := range records {
		l.records[rec.JobID] = rec
	}
	return l
}

func (l *fakeLedger) Get(_ context.Context, jobID string) (domain.PaymentRecord, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.getErr != nil {
		return domain.PaymentRecord{}, false, l.getErr
	}
	rec, ok := l.records[jobID]
	return rec, ok, nil
}

func (l *fakeLedger) Put(_ context.Context, rec domain.PaymentRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.putErr != nil {
		return l.putErr
	}
	l.records[rec.JobID] = rec
	return nil
}

func (l *fakeLedger) All(_ context.Context) ([]domain.PaymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allErr != nil {
		return nil, l.allErr
	}
	out := make([]domain.PaymentRecord, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, rec)
	}
	return out, nil
}

func (l *fakeLedger) record(jobID string) domain.PaymentRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records[jobID]
}

var errGatewayDown = errors.New("gateway unavailable")

type fakeGateway struct {
	mu         sync.Mutex
	captures   []string
	cancels    []string
	failCancel  bool
	failCapture bool
}

func (g *fakeGateway) Capture(_ context.Context, ref string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captures = append(g.captures, ref)
	if g.failCapture {
		return errGatewayDown
	}
	return nil
}

func (g *fakeGateway) Cancel(_ context.Context, ref string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancels = append(g.cancels, ref)
	if g.failCancel {
		return errGatewayDown
	}
	return nil
}

func (g *fakeGateway) calls() (captures, cancels []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.captures...), append([]string(nil), g.cancels...)
}
