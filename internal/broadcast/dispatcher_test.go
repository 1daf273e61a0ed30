package broadcast

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/MrSnakeDoc/chatrelay/internal/logger"
	"github.com/MrSnakeDoc/chatrelay/internal/registry"
)

type fakeSender struct {
	fail  map[string]error
	calls []string
}

func (f *fakeSender) SendText(_ context.Context, chatID, _ string) error {
	f.calls = append(f.calls, chatID)
	return f.fail[chatID]
}

type fakeRemover struct {
	removed []string
}

func (f *fakeRemover) Remove(_ context.Context, id string) bool {
	f.removed = append(f.removed, id)
	return true
}

type nopStore struct{ ids []string }

func (s *nopStore) Name() string { return "memory" }

func (s *nopStore) Load(context.Context) ([]string, error) { return s.ids, nil }

func (s *nopStore) Save(_ context.Context, ids []string) error {
	s.ids = ids
	return nil
}

func TestSendAllEmpty(t *testing.T) {
	sender := &fakeSender{}
	remover := &fakeRemover{}
	d := New(sender, remover, nil, logger.New("error", false))

	got := d.SendAll(context.Background(), "hello", nil)

	if got.SentCount != 0 || got.TotalChats != 0 {
		t.Errorf("SendAll() = %+v, want {0 0}", got)
	}
	if len(sender.calls) != 0 {
		t.Errorf("sender called %d times, want 0", len(sender.calls))
	}
	if len(remover.removed) != 0 {
		t.Errorf("registry touched: %v", remover.removed)
	}
}

func TestSendAllAccounting(t *testing.T) {
	tests := []struct {
		name        string
		ids         []string
		fail        map[string]error
		wantSent    int
		wantRemoved []string
	}{
		{
			name:     "all succeed",
			ids:      []string{"1", "2", "3"},
			wantSent: 3,
		},
		{
			name:     "transient failures keep destinations",
			ids:      []string{"1", "2", "3"},
			fail:     map[string]error{"1": errors.New("timeout"), "3": errors.New("Too Many Requests: retry after 5")},
			wantSent: 1,
		},
		{
			name:        "permanent failure in the middle does not abort",
			ids:         []string{"1", "2", "3"},
			fail:        map[string]error{"2": errors.New("Bad Request: chat not found")},
			wantSent:    2,
			wantRemoved: []string{"2"},
		},
		{
			name: "everything fails",
			ids:  []string{"1", "2"},
			fail: map[string]error{
				"1": errors.New("Forbidden: bot was blocked by the user"),
				"2": errors.New("connection reset"),
			},
			wantSent:    0,
			wantRemoved: []string{"1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{fail: tt.fail}
			remover := &fakeRemover{}
			d := New(sender, remover, nil, logger.New("error", false))

			got := d.SendAll(context.Background(), "report", tt.ids)

			if got.SentCount != tt.wantSent {
				t.Errorf("SentCount = %d, want %d", got.SentCount, tt.wantSent)
			}
			if got.TotalChats != len(tt.ids) {
				t.Errorf("TotalChats = %d, want %d", got.TotalChats, len(tt.ids))
			}
			if !reflect.DeepEqual(sender.calls, tt.ids) {
				t.Errorf("send order = %v, want %v", sender.calls, tt.ids)
			}
			if len(remover.removed) != len(tt.wantRemoved) ||
				(len(tt.wantRemoved) > 0 && !reflect.DeepEqual(remover.removed, tt.wantRemoved)) {
				t.Errorf("removed = %v, want %v", remover.removed, tt.wantRemoved)
			}
		})
	}
}

func TestSendAllUsesClassifier(t *testing.T) {
	sentinel := errors.New("gone")
	classify := func(err error) Failure {
		if errors.Is(err, sentinel) {
			return FailurePermanent
		}
		return FailureTransient
	}
	sender := &fakeSender{fail: map[string]error{
		"1": fmt.Errorf("wrapped: %w", sentinel),
		"2": errors.New("chat not found"), // ignored by the custom classifier
	}}
	remover := &fakeRemover{}
	d := New(sender, remover, classify, logger.New("error", false))

	d.SendAll(context.Background(), "report", []string{"1", "2"})

	if !reflect.DeepEqual(remover.removed, []string{"1"}) {
		t.Errorf("removed = %v, want [1]", remover.removed)
	}
}

func TestBroadcastScenario(t *testing.T) {
	ctx := context.Background()
	log := logger.New("error", false)

	reg := registry.New(&nopStore{}, log)
	reg.Load(ctx)
	reg.Add(ctx, "111", "group")
	reg.Add(ctx, "222", "private")
	reg.Add(ctx, "111", "group")

	if got, want := reg.List(), []string{"111", "222"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}

	sender := &fakeSender{fail: map[string]error{"222": errors.New("chat not found")}}
	d := New(sender, reg, nil, log)

	got := d.SendAll(ctx, "hello", reg.List())

	if got.SentCount != 1 || got.TotalChats != 2 {
		t.Errorf("SendAll() = %+v, want {SentCount:1 TotalChats:2}", got)
	}
	if final, want := reg.List(), []string{"111"}; !reflect.DeepEqual(final, want) {
		t.Errorf("List() after broadcast = %v, want %v", final, want)
	}
}

func TestClassifyByMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Failure
	}{
		{name: "nil", err: nil, want: FailureTransient},
		{name: "chat not found", err: errors.New("chat not found"), want: FailurePermanent},
		{name: "upper case", err: errors.New("Bad Request: CHAT NOT FOUND"), want: FailurePermanent},
		{name: "blocked", err: errors.New("Forbidden: bot was blocked by the user"), want: FailurePermanent},
		{name: "kicked", err: errors.New("Forbidden: bot was kicked from the supergroup chat"), want: FailurePermanent},
		{name: "deactivated", err: errors.New("Forbidden: user is deactivated"), want: FailurePermanent},
		{name: "rate limited", err: errors.New("Too Many Requests: retry after 3"), want: FailureTransient},
		{name: "network", err: errors.New("dial tcp: i/o timeout"), want: FailureTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyByMessage(tt.err); got != tt.want {
				t.Errorf("ClassifyByMessage(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
