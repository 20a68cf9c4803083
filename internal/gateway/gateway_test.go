package gateway

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/local-api-gateway/internal/host"
	"github.com/nerrad567/local-api-gateway/internal/host/hosttest"
	"github.com/nerrad567/local-api-gateway/internal/infrastructure/config"
	"github.com/nerrad567/local-api-gateway/internal/stream"
)

type operatorLog struct {
	mu   sync.Mutex
	msgs []string
}

func (o *operatorLog) Notify(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
}

func (o *operatorLog) last() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.msgs) == 0 {
		return ""
	}
	return o.msgs[len(o.msgs)-1]
}

type fakeService struct {
	mu      sync.Mutex
	started int
	stopped int
}

func (s *fakeService) Name() string { return "fake" }

func (s *fakeService) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started++
	return nil
}

func (s *fakeService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped++
	return nil
}

func testConfig(port int) *config.Config {
	cfg := config.Default()
	cfg.Gateway.Host = "127.0.0.1"
	cfg.Gateway.Port = port
	cfg.Gateway.Timeouts.Shutdown = 2
	cfg.Gateway.Timeouts.HostCall = 2
	cfg.Stream.KeepAliveInterval = 0
	return cfg
}

func newGateway(t *testing.T, cfg *config.Config) (*Gateway, *operatorLog) {
	t.Helper()
	op := &operatorLog{}
	g, err := New(Deps{
		Config:   config.NewStore("", cfg),
		Operator: op,
		Identity: host.Identity{Application: "Minecraft", Version: "1.21.1"},
		Version:  "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if g.State() == Running {
			_ = g.Stop()
		}
	})
	return g, op
}

// runTicks drives g.Tick against h until the test ends.
func runTicks(t *testing.T, g *Gateway, h host.Host) {
	t.Helper()
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(2 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				g.Tick(h)
			}
		}
	}()
	t.Cleanup(func() {
		close(done)
		<-stopped
	})
}

func TestStartStop(t *testing.T) {
	g, op := newGateway(t, testConfig(0))
	svc := &fakeService{}
	g.AddService(svc)

	assert.Equal(t, Stopped, g.State())
	assert.Empty(t, g.Addr())

	require.NoError(t, g.Start(context.Background()))
	assert.Equal(t, Running, g.State())
	assert.NotEmpty(t, g.Addr())
	assert.True(t, g.Hub().Accepting())
	assert.Contains(t, op.last(), "Local API started on http://"+g.Addr())
	assert.Equal(t, 1, svc.started)

	require.NoError(t, g.Stop())
	assert.Equal(t, Stopped, g.State())
	assert.Empty(t, g.Addr())
	assert.False(t, g.Hub().Accepting())
	assert.Equal(t, "Local API stopped.", op.last())
	assert.Equal(t, 1, svc.stopped)
}

func TestStartWhileRunning(t *testing.T) {
	g, op := newGateway(t, testConfig(0))
	require.NoError(t, g.Start(context.Background()))
	addr := g.Addr()

	err := g.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Equal(t, Running, g.State())
	assert.Equal(t, addr, g.Addr(), "second start must not rebind")
	assert.Equal(t, "Local API is already running.", op.last())
}

func TestStopWhileStopped(t *testing.T) {
	g, op := newGateway(t, testConfig(0))

	assert.ErrorIs(t, g.Stop(), ErrNotRunning)
	assert.Equal(t, Stopped, g.State())
	assert.Equal(t, "Local API is not running.", op.last())
}

func TestBindConflict(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()
	port := occupied.Addr().(*net.TCPAddr).Port

	g, op := newGateway(t, testConfig(port))
	err = g.Start(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBind)
	assert.ErrorIs(t, err, ErrBindConflict)
	assert.Equal(t, Stopped, g.State())
	assert.Contains(t, op.last(), "already in use")

	// The gateway stays usable once the port is free.
	occupied.Close()
	require.NoError(t, g.Start(context.Background()))
	assert.Equal(t, Running, g.State())
}

func TestRestart(t *testing.T) {
	g, _ := newGateway(t, testConfig(0))
	fake := hosttest.New()
	runTicks(t, g, fake)

	for i := 0; i < 2; i++ {
		require.NoError(t, g.Start(context.Background()))
		resp, err := http.Get("http://" + g.Addr() + "/player/world")
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "minecraft:overworld", string(body))
		require.NoError(t, g.Stop())
	}
}

func TestTickRunsQueuedCalls(t *testing.T) {
	g, _ := newGateway(t, testConfig(0))
	fake := hosttest.New()

	result := make(chan error, 1)
	go func() {
		result <- g.Executor().Do(context.Background(), func(h host.Host) error {
			return h.SendChatMessage("queued")
		})
	}()

	require.Eventually(t, func() bool {
		g.Tick(fake)
		return len(fake.Messages()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, <-result)
}

// recorder is a stream client that keeps what it receives.
type recorder struct {
	mu     sync.Mutex
	events []stream.Event
	done   chan struct{}
	once   sync.Once
	id     string
}

func newRecorder(id string) *recorder {
	return &recorder{id: id, done: make(chan struct{})}
}

func (r *recorder) ID() string { return r.id }
func (r *recorder) Send(e stream.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return true
}
func (r *recorder) Close()                { r.once.Do(func() { close(r.done) }) }
func (r *recorder) Done() <-chan struct{} { return r.done }
func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

func TestTickDetectsOnlyWhileRunning(t *testing.T) {
	g, _ := newGateway(t, testConfig(0))
	fake := hosttest.New()

	require.NoError(t, g.Start(context.Background()))
	rec := newRecorder("a")
	require.NoError(t, g.Hub().Subscribe(rec, stream.Event{Name: "hello"}))

	g.Tick(fake)
	fake.SetPosition(host.Vec3{X: 5})
	g.Tick(fake)
	assert.Equal(t, []string{"hello", stream.EventChangeWorld, stream.EventPosition}, rec.names())

	require.NoError(t, g.Stop())
	assert.Equal(t, 0, g.Hub().ClientCount())
	select {
	case <-rec.Done():
	default:
		t.Fatal("stream client not closed by Stop")
	}

	// Stopped: nothing is detected.
	fake.SetPosition(host.Vec3{X: 50})
	g.Tick(fake)

	// After a restart the detector starts fresh, so the unchanged world
	// is announced again.
	require.NoError(t, g.Start(context.Background()))
	rec2 := newRecorder("b")
	require.NoError(t, g.Hub().Subscribe(rec2, stream.Event{Name: "hello"}))
	g.Tick(fake)
	assert.Equal(t, []string{"hello", stream.EventPosition, stream.EventChangeWorld}, rec2.names())
}

func TestStopClosesLiveStreams(t *testing.T) {
	g, _ := newGateway(t, testConfig(0))
	fake := hosttest.New()
	runTicks(t, g, fake)
	require.NoError(t, g.Start(context.Background()))

	resp, err := http.Get("http://" + g.Addr() + "/player/position/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: position", strings.TrimSpace(line))
	require.Eventually(t, func() bool { return g.Hub().ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	stopErr := make(chan error, 1)
	go func() { stopErr <- g.Stop() }()

	// The stream ends instead of holding up the shutdown.
	_, err = io.Copy(io.Discard, r)
	assert.True(t, err == nil || errors.Is(err, io.ErrUnexpectedEOF), "unexpected read error: %v", err)
	require.NoError(t, <-stopErr)
	assert.Equal(t, 0, g.Hub().ClientCount())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "starting", Starting.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "stopping", Stopping.String())
	assert.Equal(t, "state(9)", State(9).String())
}
