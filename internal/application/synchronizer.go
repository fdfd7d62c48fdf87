package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
	"github.com/google/uuid"
)

const inboxSize = 64

var ErrSynchronizerStopped = errors.New("synchronizer stopped")

// flow is one user-visible operation awaiting completion.
type flow struct {
	id      string
	kind    ActionKind
	version uint64
	command command
	waiters []chan error
}

func (f *flow) settle(err error) {
	if f == nil {
		return
	}
	for _, waiter := range f.waiters {
		waiter <- err
	}
	f.waiters = nil
}

type SynchronizerOptions struct {
	// AutoConnect requests accounts as soon as Run starts, the way a page
	// connects on load.
	AutoConnect bool
	Logger      *slog.Logger
}

// Synchronizer owns the Session and reacts to wallet notifications and user
// actions. All state lives on the Run goroutine; asynchronous steps post
// their results back tagged with the session version they started under and
// are dropped when that version is no longer current.
type Synchronizer struct {
	wallet    ports.WalletProvider
	sessions  *SessionManager
	presenter Presenter
	logger    *slog.Logger
	opts      SynchronizerOptions

	inbox   chan any
	stopped chan struct{}

	// Owned by the Run goroutine.
	ctx            context.Context
	state          State
	session        Session
	version        uint64
	tickets        []domain.Ticket
	sessionWaiters []chan error
	refreshSeq     uint64
	refreshWaiters map[uint64][]*flow
}

func NewSynchronizer(wallet ports.WalletProvider, binder ports.GatewayBinder, presenter Presenter, opts SynchronizerOptions) *Synchronizer {
	if presenter == nil {
		presenter = NopPresenter{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sessions := NewSessionManager(wallet, binder)

	return &Synchronizer{
		wallet:         wallet,
		sessions:       sessions,
		presenter:      presenter,
		logger:         logger,
		opts:           opts,
		inbox:          make(chan any, inboxSize),
		stopped:        make(chan struct{}),
		session:        sessions.Clear(0),
		refreshWaiters: map[uint64][]*flow{},
	}
}

// Dispatch enqueues msg without waiting for its outcome.
func (s *Synchronizer) Dispatch(msg Message) {
	select {
	case s.inbox <- envelope{msg: msg}:
	case <-s.stopped:
	}
}

// Request enqueues msg and waits until the operation it starts has settled:
// for Connect, until the session is live and its first refresh applied; for
// actions, until the follow-up refresh is applied. Failures are returned here
// in addition to reaching the presenter.
func (s *Synchronizer) Request(ctx context.Context, msg Message) error {
	done := make(chan error, 1)

	select {
	case s.inbox <- envelope{msg: msg, done: done}:
	case <-s.stopped:
		return ErrSynchronizerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-s.stopped:
		return ErrSynchronizerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Synchronizer) Inspect(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)

	select {
	case s.inbox <- inspectRequest{reply: reply}:
	case <-s.stopped:
		return Snapshot{}, ErrSynchronizerStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case snapshot := <-reply:
		return snapshot, nil
	case <-s.stopped:
		return Snapshot{}, ErrSynchronizerStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Run processes messages until ctx is cancelled.
func (s *Synchronizer) Run(ctx context.Context) error {
	defer close(s.stopped)
	s.ctx = ctx

	s.presenter.ShowState(s.state)
	if s.wallet == nil {
		s.presenter.ShowConnectPrompt("No wallet configured. Set wallet.keystore or wallet.bridge_url to connect.")
	} else {
		go s.forwardWalletEvents(ctx)
		if s.opts.AutoConnect {
			s.handleConnect(nil)
		} else {
			s.presenter.ShowConnectPrompt("Connect your wallet to continue.")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item := <-s.inbox:
			s.handle(item)
		}
	}
}

func (s *Synchronizer) forwardWalletEvents(ctx context.Context) {
	for event := range s.wallet.Subscribe(ctx) {
		var msg Message
		switch event.Kind {
		case domain.WalletAccountsChanged:
			msg = AccountsChanged{Accounts: event.Accounts}
		case domain.WalletChainChanged:
			msg = ChainChanged{ChainID: event.ChainID}
		default:
			continue
		}
		s.post(msg, nil)
	}
}

// post delivers a message or result to the loop unless it has stopped.
func (s *Synchronizer) post(item any, done chan error) {
	if msg, ok := item.(Message); ok {
		item = envelope{msg: msg, done: done}
	}
	select {
	case s.inbox <- item:
	case <-s.stopped:
	}
}

func (s *Synchronizer) handle(item any) {
	switch item := item.(type) {
	case envelope:
		s.handleMessage(item.msg, item.done)
	case accountsResult:
		s.handleAccountsResult(item)
	case establishResult:
		s.handleEstablishResult(item)
	case refreshResult:
		s.handleRefreshResult(item)
	case txSubmitted:
		s.logger.Info("transaction submitted", "op", item.flow.id, "action", string(item.flow.kind), "tx", item.hash)
		s.presenter.ShowNotice(fmt.Sprintf("Transaction %s submitted, waiting for confirmation.", shortHash(item.hash)))
	case commandResult:
		s.handleCommandResult(item)
	case inspectRequest:
		tickets := make([]domain.Ticket, len(s.tickets))
		copy(tickets, s.tickets)
		item.reply <- Snapshot{State: s.state, Session: s.session, Tickets: tickets}
	}
}

func (s *Synchronizer) handleMessage(msg Message, done chan error) {
	switch msg := msg.(type) {
	case Connect:
		s.handleConnect(done)
	case AccountsChanged:
		s.handleAccountsChanged(msg.Accounts)
		settle(done, nil)
	case ChainChanged:
		s.handleChainChanged(msg.ChainID)
		settle(done, nil)
	case Refresh:
		if !s.session.Live() {
			s.fail(done, domain.ErrNotConnected)
			return
		}
		var waiters []*flow
		if done != nil {
			waiters = append(waiters, &flow{id: uuid.NewString(), version: s.version, waiters: []chan error{done}})
		}
		s.beginRefresh(waiters...)
	case SelectTicket:
		s.handleSelectTicket(msg.ID, done)
	case Buy, MarkUsed, Transfer, Withdraw:
		s.handleAction(msg, done)
	default:
		s.fail(done, fmt.Errorf("%w: unsupported message %T", domain.ErrInvalidInput, msg))
	}
}

func (s *Synchronizer) handleConnect(done chan error) {
	if s.wallet == nil {
		s.fail(done, domain.ErrWalletUnavailable)
		s.presenter.ShowConnectPrompt("No wallet available. Install or configure a wallet to use this application.")
		return
	}

	switch s.state {
	case StateConnected:
		settle(done, nil)
		return
	case StateConnecting, StateRefreshing:
		s.addSessionWaiter(done)
		return
	}

	s.addSessionWaiter(done)
	s.version++
	s.session = s.sessions.Clear(s.version)
	s.setState(StateConnecting)
	s.requestAccounts()
}

func (s *Synchronizer) requestAccounts() {
	version := s.version
	s.logger.Debug("requesting wallet accounts", "version", version)

	go func() {
		accounts, err := s.wallet.RequestAccounts(s.ctx)
		s.post(accountsResult{version: version, accounts: accounts, err: err}, nil)
	}()
}

func (s *Synchronizer) handleAccountsResult(result accountsResult) {
	if result.version != s.version {
		s.logger.Debug("discarding stale accounts result", "version", result.version, "current", s.version)
		return
	}

	if result.err != nil {
		s.disconnect(fmt.Errorf("request accounts: %w", result.err))
		return
	}

	if len(result.accounts) == 0 {
		s.disconnect(nil)
		return
	}

	s.beginEstablish(result.accounts[0])
}

func (s *Synchronizer) handleAccountsChanged(accounts []domain.Address) {
	if len(accounts) == 0 {
		s.logger.Info("wallet reported no accounts")
		s.disconnect(nil)
		return
	}

	account := accounts[0]
	if account.Equal(s.session.Account) && s.state != StateDisconnected {
		return
	}

	s.logger.Info("wallet account changed", "account", account.String())
	s.beginEstablish(account)
}

// handleChainChanged drops every binding, as a page reload would, and
// connects again from scratch. This happens even when no session existed yet,
// matching a reloaded page that auto-connects to an authorised wallet.
func (s *Synchronizer) handleChainChanged(chainID uint64) {
	s.logger.Info("wallet network changed", "chain_id", chainID)

	s.version++
	s.session = s.sessions.Clear(s.version)
	s.tickets = nil
	s.setState(StateDisconnected)
	s.presenter.ShowSession(ProjectSession(s.session))

	s.setState(StateConnecting)
	s.requestAccounts()
}

func (s *Synchronizer) beginEstablish(account domain.Address) {
	s.version++
	version := s.version
	s.session = s.sessions.Pending(version, account)
	s.tickets = nil
	s.setState(StateConnecting)
	s.presenter.ShowSession(ProjectSession(s.session))

	go func() {
		session, err := s.sessions.Establish(s.ctx, version, account)
		s.post(establishResult{version: version, session: session, err: err}, nil)
	}()
}

func (s *Synchronizer) handleEstablishResult(result establishResult) {
	if result.version != s.version {
		s.logger.Debug("discarding stale session", "version", result.version, "current", s.version)
		return
	}

	if result.err != nil {
		s.disconnect(fmt.Errorf("connect wallet: %w", result.err))
		return
	}

	s.session = result.session
	s.logger.Info("session established",
		"account", s.session.Account.String(),
		"owner", s.session.IsOwner,
		"version", s.session.Version,
	)
	s.presenter.ShowSession(ProjectSession(s.session))
	s.beginRefresh()
}

// disconnect clears the session. A non-nil cause is surfaced once and handed
// to anyone waiting on the connect flow.
func (s *Synchronizer) disconnect(cause error) {
	s.version++
	s.session = s.sessions.Clear(s.version)
	s.tickets = nil
	s.setState(StateDisconnected)
	s.presenter.ShowSession(ProjectSession(s.session))

	waiterErr := cause
	if cause != nil {
		s.logger.Warn("wallet connection failed", "error", cause)
		s.presenter.ShowError(cause)
	} else {
		waiterErr = domain.ErrNotConnected
	}
	s.presenter.ShowConnectPrompt("Connect your wallet to continue.")
	s.settleSession(waiterErr)
}

func (s *Synchronizer) beginRefresh(waiters ...*flow) {
	s.refreshSeq++
	seq := s.refreshSeq
	version := s.version
	gateway := s.session.Gateway
	account := s.session.Account

	if len(waiters) > 0 {
		s.refreshWaiters[seq] = waiters
	}
	s.setState(StateRefreshing)

	go func() {
		result := refreshResult{version: version, seq: seq}
		result.event, result.err = LoadEventInfo(s.ctx, gateway)
		if result.err == nil {
			result.tickets, result.err = LoadTickets(s.ctx, gateway, account)
		}
		s.post(result, nil)
	}()
}

func (s *Synchronizer) handleRefreshResult(result refreshResult) {
	waiters := s.refreshWaiters[result.seq]
	delete(s.refreshWaiters, result.seq)

	if result.version != s.version {
		// The newer session runs its own refresh; waiters here already saw
		// their outcome.
		s.logger.Debug("discarding stale refresh", "version", result.version, "current", s.version)
		for _, f := range waiters {
			f.settle(nil)
		}
		return
	}

	if result.seq != s.refreshSeq {
		// A newer refresh of the same session is in flight and will land
		// after this one.
		for _, f := range waiters {
			f.settle(nil)
		}
		return
	}

	s.setState(StateConnected)

	if result.err != nil {
		err := fmt.Errorf("refresh: %w", result.err)
		s.logger.Warn("refresh failed", "error", err)
		s.presenter.ShowError(err)
		for _, f := range waiters {
			f.settle(err)
		}
		s.settleSession(err)
		return
	}

	s.tickets = result.tickets
	s.presenter.ShowEventDetails(ProjectEvent(result.event))
	s.presenter.ShowTicketList(ProjectTicketCards(result.tickets))

	for _, f := range waiters {
		f.settle(nil)
	}
	s.settleSession(nil)
}

func (s *Synchronizer) handleSelectTicket(id domain.TicketID, done chan error) {
	if !s.session.Live() {
		s.fail(done, domain.ErrNotConnected)
		return
	}

	for _, ticket := range s.tickets {
		if ticket.ID == id {
			s.presenter.ShowTicketDetail(ProjectTicketDetail(ticket, s.session.Gateway.Address(), s.session.Account))
			settle(done, nil)
			return
		}
	}

	s.fail(done, fmt.Errorf("%w: #%s", domain.ErrTicketNotFound, id))
}

func (s *Synchronizer) handleAction(msg Message, done chan error) {
	if !s.session.Live() {
		s.fail(done, domain.ErrNotConnected)
		return
	}

	cmd, err := prepare(msg, s.session, s.tickets)
	if err != nil {
		s.fail(done, err)
		return
	}

	f := &flow{id: uuid.NewString(), kind: cmd.kind, version: s.version, command: cmd}
	if done != nil {
		f.waiters = append(f.waiters, done)
	}

	s.logger.Info("submitting action", "op", f.id, "action", string(cmd.kind), "account", s.session.Account.String())
	s.presenter.ShowNotice(cmd.pending)

	gateway := s.session.Gateway
	go func() {
		receipt, err := submitAndWait(s.ctx, gateway, cmd, func(hash string) {
			s.post(txSubmitted{flow: f, hash: hash}, nil)
		})
		s.post(commandResult{version: f.version, flow: f, receipt: receipt, err: err}, nil)
	}()
}

func (s *Synchronizer) handleCommandResult(result commandResult) {
	f := result.flow
	logger := s.logger.With("op", f.id, "action", string(f.kind))

	stale := result.version != s.version

	if result.err != nil {
		logger.Warn("action failed", "error", result.err)
		s.presenter.ShowError(result.err)
		f.settle(result.err)
		return
	}

	logger.Info("action confirmed", "tx", result.receipt.TxHash, "block", result.receipt.BlockNumber)
	s.presenter.ShowNotice(f.command.success(result.receipt))

	// Views track a newer session now; never refresh them from the old binding.
	if stale {
		logger.Info("skipping refresh for action from a previous session", "version", result.version, "current", s.version)
		f.settle(nil)
		return
	}
	s.beginRefresh(f)
}

func (s *Synchronizer) setState(state State) {
	if s.state == state {
		return
	}
	s.logger.Debug("state transition", "from", s.state.String(), "to", state.String(), "version", s.version)
	s.state = state
	s.presenter.ShowState(state)
}

func (s *Synchronizer) addSessionWaiter(done chan error) {
	if done != nil {
		s.sessionWaiters = append(s.sessionWaiters, done)
	}
}

func (s *Synchronizer) settleSession(err error) {
	for _, waiter := range s.sessionWaiters {
		waiter <- err
	}
	s.sessionWaiters = nil
}

// fail reports err to the presenter and to the waiter, if any.
func (s *Synchronizer) fail(done chan error, err error) {
	s.logger.Warn("request failed", "error", err)
	s.presenter.ShowError(err)
	settle(done, err)
}

// shortHash trims a transaction hash to 0x1234…abcd.
func shortHash(hash string) string {
	if len(hash) < 14 {
		return hash
	}
	return hash[:6] + "…" + hash[len(hash)-4:]
}

func settle(done chan error, err error) {
	if done != nil {
		done <- err
	}
}
