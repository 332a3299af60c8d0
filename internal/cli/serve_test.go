package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer() *http.Server {
	return &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
}

func TestRunServer_workerFailureStopsEverything(t *testing.T) {
	stopped := make(chan struct{})
	waiter := func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return nil
	}
	failing := func(context.Context) error { return errors.New("broker gone") }

	done := make(chan error, 1)
	go func() {
		done <- runServer(context.Background(), testServer(), make(chan os.Signal), time.Second, waiter, failing)
	}()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "broker gone")
	case <-time.After(5 * time.Second):
		t.Fatal("server kept running after a worker failed")
	}
	select {
	case <-stopped:
	default:
		t.Fatal("other workers were not cancelled")
	}
}

func TestRunServer_signalShutsDown(t *testing.T) {
	quit := make(chan os.Signal, 1)
	stopped := make(chan struct{})
	waiter := func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- runServer(context.Background(), testServer(), quit, time.Second, waiter)
	}()
	quit <- syscall.SIGTERM

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down on signal")
	}
	<-stopped
}

func TestRunServer_listenError(t *testing.T) {
	srv := &http.Server{Addr: "256.0.0.1:bad", Handler: http.NotFoundHandler()}
	err := runServer(context.Background(), srv, make(chan os.Signal), time.Second)
	assert.ErrorContains(t, err, "http server")
}
