package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/local-api-gateway/internal/audit"
	"github.com/nerrad567/local-api-gateway/internal/graphql"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/config"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/logging"
)

// fakeAuditLog returns Logs and remembers the last filter it was asked for.
type fakeAuditLog struct {
	mu     sync.Mutex
	Logs   []audit.Log
	Err    error
	filter audit.Filter
}

func (f *fakeAuditLog) List(_ context.Context, filter audit.Filter) (*audit.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	if f.Err != nil {
		return nil, f.Err
	}
	logs := append([]audit.Log{}, f.Logs...)
	return &audit.ListResult{Logs: logs, Total: len(logs), Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (f *fakeAuditLog) lastFilter() audit.Filter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter
}

func TestAudit(t *testing.T) {
	env := newTestEnv(t)
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	env.audit.Logs = []audit.Log{{
		ID:        "aud-1",
		Action:    audit.ActionChatMessage,
		World:     "minecraft:overworld",
		Details:   map[string]any{"message": "hi"},
		CreatedAt: at,
	}}

	w := env.do(http.MethodGet, "/audit?action=chat.message&world=minecraft:overworld&limit=10&offset=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	want := audit.Filter{Action: audit.ActionChatMessage, World: "minecraft:overworld", Limit: 10, Offset: 5}
	if got := env.audit.lastFilter(); got != want {
		t.Errorf("filter = %+v, want %+v", got, want)
	}

	var res audit.ListResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Total != 1 || len(res.Logs) != 1 {
		t.Fatalf("result = %+v", res)
	}
	got := res.Logs[0]
	if got.Action != audit.ActionChatMessage || got.Details["message"] != "hi" || !got.CreatedAt.Equal(at) {
		t.Errorf("log = %+v", got)
	}
}

func TestAudit_BadPaginationIgnored(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/audit?limit=lots&offset=-", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := env.audit.lastFilter(); got != (audit.Filter{}) {
		t.Errorf("filter = %+v, want zero value", got)
	}
}

func TestAudit_ListError(t *testing.T) {
	env := newTestEnv(t)
	env.audit.Err = errors.New("database is locked")

	w := env.do(http.MethodGet, "/audit", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if w.Body.String() != MsgInternal {
		t.Errorf("body = %q, want %q", w.Body.String(), MsgInternal)
	}
}

func TestAudit_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	exec, err := graphql.New(env.srv.registry, env.srv.hosts)
	if err != nil {
		t.Fatalf("graphql.New() error: %v", err)
	}
	srv, err := New(Deps{
		Config:   config.NewStore("", config.Default()),
		Logger:   logging.Discard(),
		Registry: env.srv.registry,
		Hosts:    env.srv.hosts,
		Hub:      env.hub,
		GraphQL:  exec,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	env.srv = srv

	w := env.do(http.MethodGet, "/audit", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if w.Body.String() != MsgNoAuditLog {
		t.Errorf("body = %q, want %q", w.Body.String(), MsgNoAuditLog)
	}
}
