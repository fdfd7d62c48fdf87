package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/ctix/internal/application"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

// Runner is the loop the UI drives.
type Runner interface {
	Dispatcher
	Run(ctx context.Context) error
}

// Run starts the interactive UI. build receives the presenter that feeds the
// program and returns the loop to dispatch into.
func Run(ctx context.Context, build func(application.Presenter) Runner, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	presenter := &Presenter{}
	runner := build(presenter)

	program := tea.NewProgram(New(runner), opts...)
	presenter.program = program

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := runner.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// Shut down through the regular QuitMsg path. Cancelling the program's
	// own context can strand the event loop mid-send on bubbletea v1.3.4.
	go func() {
		<-groupCtx.Done()
		program.Quit()
	}()

	_, runErr := program.Run()
	cancel()

	if err := group.Wait(); err != nil {
		return fmt.Errorf("synchronizer: %w", err)
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("run ui: %w", runErr)
	}

	return nil
}
