package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/bnema/ctix/internal/domain"
)

const jsonRPCVersion = "2.0"

// EIP-1193 provider error codes.
const (
	codeUserRejected  = 4001
	codeUnauthorized  = 4100
	codeUnsupported   = 4200
	codeDisconnected  = 4900
	codeChainDisabled = 4901
)

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// frame is anything the bridge sends: a response when ID is set, otherwise a
// provider notification.
type frame struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// classify maps a provider error onto the domain taxonomy.
func classify(method string, err *rpcError) error {
	switch err.Code {
	case codeUserRejected, codeUnauthorized:
		return fmt.Errorf("%s: %w: %s", method, domain.ErrConnectionRejected, err.Message)
	case codeDisconnected, codeChainDisabled, codeUnsupported:
		return fmt.Errorf("%s: %w: %s", method, domain.ErrWalletUnavailable, err.Message)
	default:
		return domain.NewRemoteError(method, err)
	}
}
