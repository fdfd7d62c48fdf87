package bridge

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/ctix/internal/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// walletPage plays the browser side of the bridge.
type walletPage struct {
	key     *ecdsa.PrivateKey
	chainID *big.Int
	reject  bool
	signAs  *ecdsa.PrivateKey

	mu   sync.Mutex
	conn *websocket.Conn
}

type pageRequest struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func (p *walletPage) address() common.Address {
	return crypto.PubkeyToAddress(p.key.PublicKey)
}

func (p *walletPage) send(t *testing.T, v interface{}) {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotNil(t, p.conn)
	require.NoError(t, p.conn.WriteJSON(v))
}

func (p *walletPage) reply(conn *websocket.Conn, v interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = conn.WriteJSON(v)
}

func (p *walletPage) serve(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		p.mu.Lock()
		p.conn = conn
		p.mu.Unlock()

		for {
			var req pageRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			p.reply(conn, p.handle(t, req))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (p *walletPage) handle(t *testing.T, req pageRequest) map[string]interface{} {
	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}

	switch req.Method {
	case "eth_requestAccounts":
		if p.reject {
			resp["error"] = map[string]interface{}{"code": 4001, "message": "User rejected the request."}
			return resp
		}
		resp["result"] = []string{p.address().Hex()}
	case "eth_chainId":
		resp["result"] = (*hexutil.Big)(p.chainID)
	case "eth_signTransaction":
		var args txArgs
		if err := json.Unmarshal(req.Params[0], &args); err != nil {
			t.Errorf("decode tx args: %v", err)
			return resp
		}
		tx := types.NewTx(&types.DynamicFeeTx{
			ChainID:   args.ChainID.ToInt(),
			Nonce:     uint64(args.Nonce),
			GasTipCap: args.MaxPriorityFeePerGas.ToInt(),
			GasFeeCap: args.MaxFeePerGas.ToInt(),
			Gas:       uint64(args.Gas),
			To:        args.To,
			Value:     args.Value.ToInt(),
			Data:      args.Data,
		})
		key := p.key
		if p.signAs != nil {
			key = p.signAs
		}
		signed, err := types.SignTx(tx, types.LatestSignerForChainID(p.chainID), key)
		if err != nil {
			t.Errorf("sign: %v", err)
			return resp
		}
		raw, err := signed.MarshalBinary()
		if err != nil {
			t.Errorf("encode: %v", err)
			return resp
		}
		resp["result"] = hexutil.Bytes(raw)
	default:
		resp["error"] = map[string]interface{}{"code": 4200, "message": "unsupported method"}
	}

	return resp
}

func newWalletPage(t *testing.T) *walletPage {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &walletPage{key: key, chainID: big.NewInt(31337)}
}

func dialPage(t *testing.T, page *walletPage) *Bridge {
	t.Helper()
	srv := page.serve(t)

	b, err := Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func testTx() *types.Transaction {
	to := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(31337),
		Nonce:     3,
		GasTipCap: big.NewInt(1_000_000_000),
		GasFeeCap: big.NewInt(3_000_000_000),
		Gas:       120_000,
		To:        &to,
		Value:     big.NewInt(10_000_000_000_000_000),
		Data:      []byte{0x12, 0x34, 0x56, 0x78},
	})
}

func TestBridgeRequestAccounts(t *testing.T) {
	page := newWalletPage(t)
	b := dialPage(t, page)

	accounts, err := b.RequestAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.True(t, accounts[0].Equal(domain.Address(page.address().Hex())))
}

func TestBridgeUserRejection(t *testing.T) {
	page := newWalletPage(t)
	page.reject = true
	b := dialPage(t, page)

	_, err := b.RequestAccounts(context.Background())
	require.ErrorIs(t, err, domain.ErrConnectionRejected)
	assert.Contains(t, err.Error(), "User rejected the request.")
}

func TestBridgeSignerRoundTrip(t *testing.T) {
	page := newWalletPage(t)
	b := dialPage(t, page)

	account := domain.Address(page.address().Hex())
	signer, err := b.Signer(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, int64(31337), signer.ChainID().Int64())

	tx := testTx()
	signed, err := signer.SignTx(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, tx.Nonce(), signed.Nonce())
	assert.Equal(t, tx.Data(), signed.Data())
	assert.Equal(t, 0, tx.Value().Cmp(signed.Value()))
}

func TestBridgeSignerRejectsForeignSignature(t *testing.T) {
	page := newWalletPage(t)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	page.signAs = other
	b := dialPage(t, page)

	signer, err := b.Signer(context.Background(), domain.Address(page.address().Hex()))
	require.NoError(t, err)

	_, err = signer.SignTx(context.Background(), testTx())
	require.ErrorIs(t, err, domain.ErrRemoteRejected)
}

func TestBridgeForwardsNotifications(t *testing.T) {
	page := newWalletPage(t)
	b := dialPage(t, page)

	// A round trip guarantees the page has registered the connection.
	_, err := b.RequestAccounts(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := b.Subscribe(ctx)

	next := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	page.send(t, map[string]interface{}{"jsonrpc": "2.0", "method": "accountsChanged", "params": [][]string{{next.Hex()}}})
	page.send(t, map[string]interface{}{"jsonrpc": "2.0", "method": "chainChanged", "params": []string{"0xaa36a7"}})
	page.send(t, map[string]interface{}{"jsonrpc": "2.0", "method": "accountsChanged", "params": [][]string{{}}})

	want := []domain.WalletEvent{
		{Kind: domain.WalletAccountsChanged, Accounts: []domain.Address{domain.Address(next.Hex())}},
		{Kind: domain.WalletChainChanged, ChainID: 11155111},
		{Kind: domain.WalletAccountsChanged, Accounts: []domain.Address{}},
	}
	for _, expected := range want {
		select {
		case event := <-events:
			assert.Equal(t, expected, event)
		case <-time.After(2 * time.Second):
			t.Fatalf("missing %s notification", expected.Kind)
		}
	}
}

func TestBridgeCallsFailAfterDisconnect(t *testing.T) {
	page := newWalletPage(t)
	b := dialPage(t, page)

	_, err := b.RequestAccounts(context.Background())
	require.NoError(t, err)

	page.mu.Lock()
	require.NoError(t, page.conn.Close())
	page.mu.Unlock()

	require.Eventually(t, func() bool {
		_, err := b.RequestAccounts(context.Background())
		return errors.Is(err, domain.ErrWalletUnavailable)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubscriberCollapsesConsecutiveEventsOfOneKind(t *testing.T) {
	sub := newSubscriber()
	accountA := domain.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	accountB := domain.Address("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	assert.False(t, sub.push(domain.WalletEvent{Kind: domain.WalletChainChanged, ChainID: 5}))
	assert.False(t, sub.push(domain.WalletEvent{Kind: domain.WalletAccountsChanged, Accounts: []domain.Address{accountA}}))
	assert.True(t, sub.push(domain.WalletEvent{Kind: domain.WalletAccountsChanged, Accounts: []domain.Address{accountB}}))

	select {
	case <-sub.wake:
	default:
		t.Fatal("subscriber was not woken")
	}

	assert.Equal(t, []domain.WalletEvent{
		{Kind: domain.WalletChainChanged, ChainID: 5},
		{Kind: domain.WalletAccountsChanged, Accounts: []domain.Address{accountB}},
	}, sub.drain())
	assert.Empty(t, sub.drain())
}

func TestSubscriberKeepsArrivalOrderAcrossKinds(t *testing.T) {
	sub := newSubscriber()
	accountA := domain.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	events := []domain.WalletEvent{
		{Kind: domain.WalletAccountsChanged, Accounts: []domain.Address{accountA}},
		{Kind: domain.WalletChainChanged, ChainID: 11155111},
		{Kind: domain.WalletAccountsChanged, Accounts: []domain.Address{}},
	}
	for _, event := range events {
		assert.False(t, sub.push(event))
	}

	assert.Equal(t, events, sub.drain())
}

func TestSubscriberBoundsQueueForStalledReader(t *testing.T) {
	sub := newSubscriber()
	accountA := domain.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	accountB := domain.Address("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	for i := 0; i < 10*maxPendingEvents; i++ {
		sub.push(domain.WalletEvent{Kind: domain.WalletAccountsChanged, Accounts: []domain.Address{accountA}})
		sub.push(domain.WalletEvent{Kind: domain.WalletChainChanged, ChainID: uint64(i)})
		require.LessOrEqual(t, len(sub.pending), maxPendingEvents)
	}
	sub.push(domain.WalletEvent{Kind: domain.WalletAccountsChanged, Accounts: []domain.Address{accountB}})

	events := sub.drain()
	require.NotEmpty(t, events)
	assert.LessOrEqual(t, len(events), maxPendingEvents)
	assert.Equal(t, domain.WalletEvent{Kind: domain.WalletAccountsChanged, Accounts: []domain.Address{accountB}}, events[len(events)-1])

	var lastChain domain.WalletEvent
	for _, event := range events {
		if event.Kind == domain.WalletChainChanged {
			lastChain = event
		}
	}
	assert.Equal(t, uint64(10*maxPendingEvents-1), lastChain.ChainID)
}

func TestLatestPerKindKeepsRelativeOrder(t *testing.T) {
	accountA := domain.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	events := []domain.WalletEvent{
		{Kind: domain.WalletChainChanged, ChainID: 1},
		{Kind: domain.WalletAccountsChanged, Accounts: []domain.Address{}},
		{Kind: domain.WalletChainChanged, ChainID: 2},
		{Kind: domain.WalletAccountsChanged, Accounts: []domain.Address{accountA}},
	}

	assert.Equal(t, []domain.WalletEvent{
		{Kind: domain.WalletChainChanged, ChainID: 2},
		{Kind: domain.WalletAccountsChanged, Accounts: []domain.Address{accountA}},
	}, latestPerKind(events))
}
