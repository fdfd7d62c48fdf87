package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/ctix/internal/application"
	"github.com/spf13/cobra"
)

// collectingPresenter keeps the latest view of each kind so a one-shot
// command can print it once the synchronizer has settled.
type collectingPresenter struct {
	mu      sync.Mutex
	session application.SessionView
	event   *application.EventView
	cards   []application.TicketCard
	detail  *application.TicketDetail
	prompt  string
	notices []string
}

var _ application.Presenter = (*collectingPresenter)(nil)

func (p *collectingPresenter) ShowState(application.State) {}

func (p *collectingPresenter) ShowError(error) {}

func (p *collectingPresenter) ShowSession(view application.SessionView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = view
}

func (p *collectingPresenter) ShowConnectPrompt(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompt = message
}

func (p *collectingPresenter) ShowEventDetails(view application.EventView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.event = &view
}

func (p *collectingPresenter) ShowTicketList(cards []application.TicketCard) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cards = append([]application.TicketCard(nil), cards...)
}

func (p *collectingPresenter) ShowTicketDetail(detail application.TicketDetail) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detail = &detail
}

func (p *collectingPresenter) ShowNotice(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, message)
}

func (p *collectingPresenter) lastNotice() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.notices) == 0 {
		return ""
	}
	return p.notices[len(p.notices)-1]
}

// withSession connects the wallet, waits for the first refresh and hands the
// running synchronizer to fn.
func withSession(cmd *cobra.Command, app *app, fn func(ctx context.Context, synchronizer *application.Synchronizer, view *collectingPresenter) error) error {
	conn, err := app.connect(cmd.Context())
	if err != nil {
		return err
	}
	defer conn.close()

	view := &collectingPresenter{}
	synchronizer := application.NewSynchronizer(conn.wallet, conn.binder, view, application.SynchronizerOptions{Logger: app.logger})

	ctx, cancel := context.WithCancel(cmd.Context())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = synchronizer.Run(ctx)
	}()
	defer func() {
		cancel()
		<-stopped
	}()

	if err := synchronizer.Request(ctx, application.Connect{}); err != nil {
		return fmt.Errorf("connect wallet: %w", err)
	}

	return fn(ctx, synchronizer, view)
}
