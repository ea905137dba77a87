// Shipshape - Charter Marketplace Media & Schema Reconciliation
// Copyright 2026 Etoile Yachts
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/etoile-yachts/shipshape

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/etoile-yachts/shipshape/internal/models"
	"github.com/etoile-yachts/shipshape/internal/queue"
)

type mockBroker struct {
	running       atomic.Bool
	shutdownErr   error
	shutdownCount atomic.Int32
}

func (m *mockBroker) IsRunning() bool { return m.running.Load() }

func (m *mockBroker) Shutdown(ctx context.Context) error {
	m.shutdownCount.Add(1)
	m.running.Store(false)
	return m.shutdownErr
}

func TestBrokerGuardImplementsSutureService(t *testing.T) {
	var _ suture.Service = (*BrokerGuardService)(nil)
	var _ suture.Service = (*ConsumerService)(nil)
}

func TestBrokerGuardShutsBrokerDownOnCancel(t *testing.T) {
	broker := &mockBroker{}
	broker.running.Store(true)
	svc := NewBrokerGuardService(broker)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Serve(ctx)
	}()

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	if broker.shutdownCount.Load() != 1 {
		t.Errorf("expected 1 Shutdown call, got %d", broker.shutdownCount.Load())
	}
}

func TestBrokerGuardTerminatesTreeWhenBrokerDies(t *testing.T) {
	broker := &mockBroker{}
	svc := NewBrokerGuardService(broker)
	svc.pollInterval = 10 * time.Millisecond

	err := svc.Serve(context.Background())
	if !errors.Is(err, suture.ErrTerminateSupervisorTree) {
		t.Errorf("expected ErrTerminateSupervisorTree, got %v", err)
	}
}

type mockConsumer struct {
	runErr   error
	runCount atomic.Int32
	block    bool
}

func (m *mockConsumer) Run(ctx context.Context, handler queue.TaskHandler) error {
	m.runCount.Add(1)
	if m.runErr != nil {
		return m.runErr
	}
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (m *mockConsumer) Close() error { return nil }

func TestConsumerServiceReturnsContextErrOnCancel(t *testing.T) {
	consumer := &mockConsumer{block: true}
	svc := NewConsumerService(consumer, func(ctx context.Context, task models.TaskMessage) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Serve(ctx)
	}()

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestConsumerServiceWrapsRunFailure(t *testing.T) {
	runErr := errors.New("subscription lost")
	consumer := &mockConsumer{runErr: runErr}
	svc := NewConsumerService(consumer, nil)

	err := svc.Serve(context.Background())
	if !errors.Is(err, runErr) {
		t.Errorf("expected error wrapping %v, got %v", runErr, err)
	}
}
