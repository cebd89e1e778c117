// demo/shutdown.go
package demo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// ShutdownManager cancels work on SIGINT/SIGTERM and closes registered resources in reverse order
type ShutdownManager struct {
	mu      sync.Mutex
	closers []namedCloser
	done    bool
	logger  logrus.FieldLogger
}

type namedCloser struct {
	name string
	c    io.Closer
}

// NewShutdownManager returns a manager and a context cancelled by the first interrupt
func NewShutdownManager(parent context.Context, logger logrus.FieldLogger) (*ShutdownManager, context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return &ShutdownManager{logger: logger}, ctx, stop
}

// Register adds a resource to close on Shutdown
func (sm *ShutdownManager) Register(name string, c io.Closer) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.closers = append(sm.closers, namedCloser{name: name, c: c})
}

// Shutdown closes everything registered, newest first. It runs once and gives up after a timeout.
func (sm *ShutdownManager) Shutdown() error {
	sm.mu.Lock()
	if sm.done {
		sm.mu.Unlock()
		return nil
	}
	sm.done = true
	closers := sm.closers
	sm.closers = nil
	sm.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			nc := closers[i]
			if err := nc.c.Close(); err != nil {
				sm.logger.WithError(err).Warnf("error closing %s", nc.name)
				errs = append(errs, fmt.Errorf("%s: %w", nc.name, err))
			}
		}
		errCh <- errors.Join(errs...)
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(shutdownTimeout):
		return fmt.Errorf("shutdown timed out after %s", shutdownTimeout)
	}
}

// IsShuttingDown reports whether Shutdown has started
func (sm *ShutdownManager) IsShuttingDown() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.done
}

// CloserFunc adapts a function to io.Closer
type CloserFunc func() error

func (f CloserFunc) Close() error { return f() }
