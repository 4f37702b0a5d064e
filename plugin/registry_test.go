package plugin_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/vault/plugin"
)

type recordingPlugin struct {
	name     string
	locked   int
	consumed int
	rolled   []uint64
	err      error
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) OnLocked(_ context.Context, _ interface{}) error {
	p.locked++
	return p.err
}

func (p *recordingPlugin) OnConsumed(_ context.Context, _ interface{}) error {
	p.consumed++
	return p.err
}

func (p *recordingPlugin) OnPeriodRolled(_ context.Context, _, newPeriod uint64) error {
	p.rolled = append(p.rolled, newPeriod)
	return p.err
}

type blockingPlugin struct{ release chan struct{} }

func (p *blockingPlugin) Name() string { return "blocking" }

func (p *blockingPlugin) OnLocked(_ context.Context, _ interface{}) error {
	<-p.release
	return nil
}

func TestRegisterAndDispatch(t *testing.T) {
	r := plugin.NewRegistry()
	p := &recordingPlugin{name: "recorder"}

	if err := r.Register(p); err != nil {
		t.Fatal(err)
	}
	if r.Count() != 1 {
		t.Fatalf("count: got %d, want 1", r.Count())
	}
	if r.Get("recorder") == nil {
		t.Fatal("Get returned nil for registered plugin")
	}

	ctx := context.Background()
	r.EmitLocked(ctx, nil)
	r.EmitLocked(ctx, nil)
	r.EmitConsumed(ctx, nil)
	r.EmitPeriodRolled(ctx, 0, 1)

	if p.locked != 2 {
		t.Errorf("locked: got %d, want 2", p.locked)
	}
	if p.consumed != 1 {
		t.Errorf("consumed: got %d, want 1", p.consumed)
	}
	if len(p.rolled) != 1 || p.rolled[0] != 1 {
		t.Errorf("rolled: got %v, want [1]", p.rolled)
	}
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := plugin.NewRegistry()
	if err := r.Register(&recordingPlugin{name: "dup"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&recordingPlugin{name: "dup"}); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestFailingPluginDoesNotStopDispatch(t *testing.T) {
	r := plugin.NewRegistry()
	bad := &recordingPlugin{name: "bad", err: errors.New("boom")}
	good := &recordingPlugin{name: "good"}

	if err := r.Register(bad); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(good); err != nil {
		t.Fatal(err)
	}

	r.EmitLocked(context.Background(), nil)

	if bad.locked != 1 || good.locked != 1 {
		t.Errorf("both plugins should have run: bad=%d good=%d", bad.locked, good.locked)
	}
}

func TestCanceledContextUnblocksEmit(t *testing.T) {
	r := plugin.NewRegistry()
	p := &blockingPlugin{release: make(chan struct{})}
	if err := r.Register(p); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		r.EmitLocked(ctx, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("EmitLocked did not return after context cancellation")
	}
	close(p.release)
}
