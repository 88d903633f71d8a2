// Showfeed - TV Show Discovery and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showfeed

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// testService runs until cancelled, failing its first fails starts.
type testService struct {
	name   string
	fails  int32
	starts atomic.Int32
	stops  atomic.Int32
}

func (s *testService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	defer s.stops.Add(1)
	if n <= s.fails {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *testService) String() string {
	return s.name
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDefaultTreeConfig(t *testing.T) {
	config := DefaultTreeConfig()

	if config.FailureThreshold != 5.0 {
		t.Errorf("expected FailureThreshold 5.0, got %f", config.FailureThreshold)
	}
	if config.FailureDecay != 30.0 {
		t.Errorf("expected FailureDecay 30.0, got %f", config.FailureDecay)
	}
	if config.FailureBackoff != 15*time.Second {
		t.Errorf("expected FailureBackoff 15s, got %v", config.FailureBackoff)
	}
	if config.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected ShutdownTimeout 10s, got %v", config.ShutdownTimeout)
	}
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	tree, err := NewSupervisorTree(nil, TreeConfig{FailureBackoff: time.Second})
	if err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("root supervisor should not be nil")
	}
	if tree.logger == nil {
		t.Error("expected the default logger for a nil logger")
	}
	if tree.config.FailureBackoff != time.Second {
		t.Errorf("expected FailureBackoff 1s kept, got %v", tree.config.FailureBackoff)
	}
	if tree.config.FailureThreshold != 5.0 || tree.config.FailureDecay != 30.0 || tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected defaults for zero fields, got %+v", tree.config)
	}
}

func TestSupervisorTree_StartsEveryLayer(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}

	data := &testService{name: "badger-gc"}
	messaging := &testService{name: "websocket-hub"}
	api := &testService{name: "http-server"}
	tree.AddDataService(data)
	tree.AddMessagingService(messaging)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for _, svc := range []*testService{data, messaging, api} {
		svc := svc
		waitFor(t, svc.name+" start", func() bool { return svc.starts.Load() >= 1 })
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not shut down in time")
	}

	for _, svc := range []*testService{data, messaging, api} {
		if svc.stops.Load() != svc.starts.Load() {
			t.Errorf("%s: expected every start to stop, got %d starts %d stops", svc.name, svc.starts.Load(), svc.stops.Load())
		}
	}
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) != 0 {
		t.Errorf("expected no unstopped services, got %v", report)
	}
}

func TestSupervisorTree_RestartsFailingService(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	failing := &testService{name: "event-router", fails: 2}
	stable := &testService{name: "http-server"}
	tree.AddMessagingService(failing)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitFor(t, "restarts", func() bool { return failing.starts.Load() >= 3 })

	// The failing messaging service does not restart the API layer.
	if got := stable.starts.Load(); got != 1 {
		t.Errorf("expected stable service started once, got %d", got)
	}

	cancel()
	<-errCh
}

func TestLayerString(t *testing.T) {
	tests := map[Layer]string{
		LayerData:      "data-layer",
		LayerMessaging: "messaging-layer",
		LayerAPI:       "api-layer",
		Layer(7):       "layer(7)",
	}
	for layer, want := range tests {
		if got := layer.String(); got != want {
			t.Errorf("Layer(%d).String() = %q, expected %q", int(layer), got, want)
		}
	}
}

func TestSupervisorTree_AddByLayer(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})

	if _, err := tree.Add(Layer(-1), &testService{name: "nowhere"}); err == nil {
		t.Error("expected an error for an unknown layer")
	}

	svc := &testService{name: "feed-manager"}
	if _, err := tree.Add(LayerData, svc); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)
	waitFor(t, "feed-manager start", func() bool { return svc.starts.Load() == 1 })
	cancel()
	<-errCh
}
