package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/ports"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Bridge is a ports.WalletProvider that forwards EIP-1193 requests over a
// websocket to a wallet running elsewhere, typically a browser extension
// behind a small relay page.
type Bridge struct {
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	mu          sync.Mutex
	nextID      uint64
	pending     map[uint64]chan frame
	subscribers map[*subscriber]struct{}
	err         error

	done chan struct{}
}

var _ ports.WalletProvider = (*Bridge)(nil)

// Dial connects to the bridge at url and starts reading.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Bridge, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial wallet bridge %s: %v", domain.ErrWalletUnavailable, url, err)
	}

	b := &Bridge{
		conn:        conn,
		logger:      logger,
		pending:     map[uint64]chan frame{},
		subscribers: map[*subscriber]struct{}{},
		done:        make(chan struct{}),
	}
	go b.readLoop()
	go b.pingLoop()

	return b, nil
}

func (b *Bridge) Close() error {
	b.writeMu.Lock()
	_ = b.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	b.writeMu.Unlock()
	return b.conn.Close()
}

func (b *Bridge) RequestAccounts(ctx context.Context) ([]domain.Address, error) {
	var raw []string
	if err := b.call(ctx, "eth_requestAccounts", &raw); err != nil {
		return nil, err
	}
	return parseAccounts(raw)
}

func (b *Bridge) Signer(ctx context.Context, account domain.Address) (ports.Signer, error) {
	chainID, err := b.chainID(ctx)
	if err != nil {
		return nil, err
	}
	return &signer{bridge: b, account: account, chainID: chainID}, nil
}

// Subscribe delivers provider notifications until ctx is done or the bridge
// connection drops.
func (b *Bridge) Subscribe(ctx context.Context) <-chan domain.WalletEvent {
	sub := newSubscriber()
	out := make(chan domain.WalletEvent)

	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		defer close(out)
		defer func() {
			b.mu.Lock()
			delete(b.subscribers, sub)
			b.mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-b.done:
				return
			case <-sub.wake:
				for _, event := range sub.drain() {
					select {
					case out <- event:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out
}

func (b *Bridge) chainID(ctx context.Context) (*big.Int, error) {
	var raw hexutil.Big
	if err := b.call(ctx, "eth_chainId", &raw); err != nil {
		return nil, err
	}
	return raw.ToInt(), nil
}

func (b *Bridge) call(ctx context.Context, method string, result interface{}, params ...interface{}) error {
	reply := make(chan frame, 1)

	b.mu.Lock()
	if b.err != nil {
		err := b.err
		b.mu.Unlock()
		return fmt.Errorf("%s: %w", method, err)
	}
	b.nextID++
	id := b.nextID
	b.pending[id] = reply
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	if params == nil {
		params = []interface{}{}
	}
	if err := b.write(request{JSONRPC: jsonRPCVersion, ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("%s: %w: %v", method, domain.ErrWalletUnavailable, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return fmt.Errorf("%s: %w", method, b.closedErr())
	case resp := <-reply:
		if resp.Error != nil {
			return classify(method, resp.Error)
		}
		if result == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return domain.NewRemoteError(method, fmt.Errorf("decode result: %w", err))
		}
		return nil
	}
}

func (b *Bridge) write(v interface{}) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	_ = b.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return b.conn.WriteJSON(v)
}

func (b *Bridge) readLoop() {
	defer close(b.done)

	b.conn.SetPongHandler(func(string) error {
		return b.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	_ = b.conn.SetReadDeadline(time.Now().Add(pongTimeout))

	for {
		var msg frame
		if err := b.conn.ReadJSON(&msg); err != nil {
			var (
				syntaxErr *json.SyntaxError
				typeErr   *json.UnmarshalTypeError
			)
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				b.logger.Debug("skipping malformed bridge frame", "error", err)
				continue
			}
			b.mu.Lock()
			b.err = fmt.Errorf("%w: bridge connection closed: %v", domain.ErrWalletUnavailable, err)
			b.mu.Unlock()
			b.logger.Warn("wallet bridge disconnected", "error", err)
			return
		}

		if msg.ID != nil {
			b.mu.Lock()
			reply, ok := b.pending[*msg.ID]
			b.mu.Unlock()
			if ok {
				reply <- msg
			}
			continue
		}

		event, ok := b.notification(msg)
		if !ok {
			continue
		}
		b.mu.Lock()
		for sub := range b.subscribers {
			if sub.push(event) {
				b.logger.Debug("coalesced wallet notification for slow subscriber", "kind", string(event.Kind))
			}
		}
		b.mu.Unlock()
	}
}

func (b *Bridge) notification(msg frame) (domain.WalletEvent, bool) {
	switch domain.WalletEventKind(msg.Method) {
	case domain.WalletAccountsChanged:
		var params [][]string
		if err := json.Unmarshal(msg.Params, &params); err != nil || len(params) != 1 {
			b.logger.Debug("bad accountsChanged params", "params", string(msg.Params))
			return domain.WalletEvent{}, false
		}
		accounts, err := parseAccounts(params[0])
		if err != nil {
			b.logger.Debug("bad accountsChanged address", "error", err)
			return domain.WalletEvent{}, false
		}
		return domain.WalletEvent{Kind: domain.WalletAccountsChanged, Accounts: accounts}, true

	case domain.WalletChainChanged:
		var params []hexutil.Big
		if err := json.Unmarshal(msg.Params, &params); err != nil || len(params) != 1 {
			b.logger.Debug("bad chainChanged params", "params", string(msg.Params))
			return domain.WalletEvent{}, false
		}
		return domain.WalletEvent{Kind: domain.WalletChainChanged, ChainID: params[0].ToInt().Uint64()}, true
	}

	return domain.WalletEvent{}, false
}

func (b *Bridge) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.writeMu.Lock()
			err := b.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			b.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (b *Bridge) closedErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	return domain.ErrWalletUnavailable
}

func parseAccounts(raw []string) ([]domain.Address, error) {
	accounts := make([]domain.Address, 0, len(raw))
	for _, value := range raw {
		addr, err := domain.ParseAddress(value)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, addr)
	}
	return accounts, nil
}

// maxPendingEvents bounds a stalled subscriber's queue. Past it the queue
// collapses to the newest event of each kind.
const maxPendingEvents = 64

// subscriber buffers notifications for one Subscribe caller in arrival
// order. Consecutive undelivered events of the same kind collapse into the
// newest, so a slow reader still ends on the wallet's latest accounts and
// chain without seeing notifications out of order.
type subscriber struct {
	mu      sync.Mutex
	pending []domain.WalletEvent
	wake    chan struct{}
}

func newSubscriber() *subscriber {
	return &subscriber{wake: make(chan struct{}, 1)}
}

// push queues event. When the newest queued event has the same kind it is
// replaced in place, and push reports true.
func (s *subscriber) push(event domain.WalletEvent) bool {
	s.mu.Lock()
	replaced := false
	if n := len(s.pending); n > 0 && s.pending[n-1].Kind == event.Kind {
		s.pending[n-1] = event
		replaced = true
	} else {
		s.pending = append(s.pending, event)
	}
	if len(s.pending) > maxPendingEvents {
		s.pending = latestPerKind(s.pending)
		replaced = true
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return replaced
}

// latestPerKind keeps the last event of each kind, in their relative order.
func latestPerKind(events []domain.WalletEvent) []domain.WalletEvent {
	last := make(map[domain.WalletEventKind]int, 2)
	for i, event := range events {
		last[event.Kind] = i
	}
	kept := make([]domain.WalletEvent, 0, len(last))
	for i, event := range events {
		if last[event.Kind] == i {
			kept = append(kept, event)
		}
	}
	return kept
}

func (s *subscriber) drain() []domain.WalletEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.pending
	s.pending = nil
	return events
}
