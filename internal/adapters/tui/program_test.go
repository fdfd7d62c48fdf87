package tui

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/bnema/ctix/internal/application"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	recordingDispatcher
	presenter application.Presenter
	shown     chan struct{}
}

func (r *scriptedRunner) Run(ctx context.Context) error {
	r.presenter.ShowState(application.StateConnected)
	r.presenter.ShowNotice("ready")
	close(r.shown)
	<-ctx.Done()
	return ctx.Err()
}

func TestRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runner := &scriptedRunner{shown: make(chan struct{})}
	go func() {
		<-runner.shown
		cancel()
	}()

	err := Run(ctx, func(presenter application.Presenter) Runner {
		runner.presenter = presenter
		return runner
	}, tea.WithInput(nil), tea.WithOutput(io.Discard))

	require.NoError(t, err)
}

// floodingRunner keeps the presenter busy until it is stopped, so cancellation
// lands while the program is still handling messages.
type floodingRunner struct {
	recordingDispatcher
	presenter application.Presenter
	started   chan struct{}
}

func (r *floodingRunner) Run(ctx context.Context) error {
	close(r.started)
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		r.presenter.ShowNotice(fmt.Sprintf("notice %d", i))
	}
}

func TestRunStopsWhileMessagesAreInFlight(t *testing.T) {
	for i := 0; i < 20; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		runner := &floodingRunner{started: make(chan struct{})}
		go func() {
			<-runner.started
			time.Sleep(time.Millisecond)
			cancel()
		}()

		done := make(chan error, 1)
		go func() {
			done <- Run(ctx, func(presenter application.Presenter) Runner {
				runner.presenter = presenter
				return runner
			}, tea.WithInput(nil), tea.WithOutput(io.Discard))
		}()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatalf("run %d did not stop after cancel", i)
		}
		cancel()
	}
}
