package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bnema/ctix/internal/domain"
	"github.com/bnema/ctix/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionPrintsVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), nil, "version")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", stdout)
}

func TestDeploymentAddListUse(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, nil,
		"deployment", "add",
		"--chain-id", "31337",
		"--name", "hardhat",
		"--rpc-url", "http://127.0.0.1:8545",
		"--contract", contract.String(),
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Saved hardhat (chain 31337): "+contract.String())

	_, _, err = executeCLI(t, home, nil,
		"deployment", "add",
		"--chain-id", "11155111",
		"--rpc-url", "https://rpc.sepolia.org",
		"--contract", "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0",
	)
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, home, nil, "deployment", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "* 31337\thardhat\t"+contract.String())
	assert.Contains(t, stdout, "  11155111\t\t0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")

	stdout, _, err = executeCLI(t, home, nil, "deployment", "use", "11155111")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Default deployment: chain 11155111")

	data, err := os.ReadFile(filepath.Join(home, ".ctix", "deployments.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "chain_id = 11155111")
}

func TestDeploymentAddRequiresContractFlag(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), nil,
		"deployment", "add",
		"--chain-id", "31337",
		"--rpc-url", "http://127.0.0.1:8545",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"contract\" not set")
}

func TestDeploymentAddRejectsInvalidContract(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), nil,
		"deployment", "add",
		"--chain-id", "31337",
		"--rpc-url", "http://127.0.0.1:8545",
		"--contract", "0x1234",
	)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDeploymentUseUnknownChain(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), nil, "deployment", "use", "5")
	require.ErrorIs(t, err, domain.ErrDeploymentNotFound)
}

func TestEventRendersEventDetails(t *testing.T) {
	gateway := newChainGateway(festivalTicket(1, false), festivalTicket(2, true))

	stdout, _, err := executeCLI(t, t.TempDir(), chainConnection(organizer, gateway), "event")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Annual Music Festival")
	assert.Contains(t, stdout, "98 / 100")
	assert.Contains(t, stdout, "0.01 ETH")
	assert.Contains(t, stdout, "organizer")
}

func TestEventJSONOutput(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), chainConnection(attendee, newChainGateway()), "event", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"Remaining\": 100")
	assert.Contains(t, stdout, "\"PriceEther\": \"0.01\"")
}

func TestTicketsListAndShow(t *testing.T) {
	home := t.TempDir()
	gateway := newChainGateway(festivalTicket(1, false), festivalTicket(4, true))

	stdout, _, err := executeCLI(t, home, chainConnection(attendee, gateway), "tickets")
	require.NoError(t, err)
	assert.Contains(t, stdout, "my tickets: 2")
	assert.Contains(t, stdout, "Ticket #1 [Valid]")
	assert.Contains(t, stdout, "Ticket #4 [Used]")

	stdout, _, err = executeCLI(t, home, chainConnection(attendee, gateway), "tickets", "show", "4", "--no-qr")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Ticket #4 [Used]")
	assert.Contains(t, stdout, "venue: City Stadium")
	assert.Contains(t, stdout, "actions: none")

	stdout, _, err = executeCLI(t, home, chainConnection(attendee, gateway), "tickets", "show", "#1", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "\"CanTransfer\": true")
	assert.Contains(t, stdout, `\"ticketId\":\"1\"`)
}

func TestTicketsShowUnknownTicket(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), chainConnection(attendee, newChainGateway()), "tickets", "show", "9")
	require.ErrorIs(t, err, domain.ErrTicketNotFound)
}

func TestBuyReportsPurchasedTicket(t *testing.T) {
	gateway := newChainGateway(festivalTicket(1, false))

	stdout, _, err := executeCLI(t, t.TempDir(), chainConnection(attendee, gateway), "buy")
	require.NoError(t, err)
	assert.Equal(t, "Ticket #2 purchased.\n", stdout)

	total, err := gateway.TotalSupply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
}

func TestUseMarksTicketUsed(t *testing.T) {
	gateway := newChainGateway(festivalTicket(3, false))

	stdout, _, err := executeCLI(t, t.TempDir(), chainConnection(attendee, gateway), "use", "3")
	require.NoError(t, err)
	assert.Equal(t, "Ticket #3 marked as used.\n", stdout)

	used, err := gateway.IsTicketUsed(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, used)

	_, _, err = executeCLI(t, t.TempDir(), chainConnection(attendee, gateway), "use", "3")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTransferRejectsInvalidRecipient(t *testing.T) {
	gateway := newChainGateway(festivalTicket(1, false))

	_, _, err := executeCLI(t, t.TempDir(), chainConnection(attendee, gateway), "transfer", "1", "not-an-address")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, gateway.transferCount())

	stdout, _, err := executeCLI(t, t.TempDir(), chainConnection(attendee, gateway), "transfer", "1", organizer.String())
	require.NoError(t, err)
	assert.Contains(t, stdout, "Ticket #1 transferred to "+organizer.String())
	assert.Equal(t, 1, gateway.transferCount())
}

func TestWithdrawRequiresOrganizer(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), chainConnection(attendee, newChainGateway()), "withdraw")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	stdout, _, err := executeCLI(t, t.TempDir(), chainConnection(organizer, newChainGateway()), "withdraw")
	require.NoError(t, err)
	assert.Equal(t, "Funds withdrawn.\n", stdout)
}

func TestCommandsWithoutWalletFail(t *testing.T) {
	conn := &connection{binder: stubBinder{gateway: newChainGateway()}, close: func() {}}

	_, _, err := executeCLI(t, t.TempDir(), conn, "tickets")
	require.ErrorIs(t, err, domain.ErrWalletUnavailable)
}

func TestEventWithoutRPCURLFails(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), nil, "event")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "no rpc url configured")
}

func TestUnsupportedLogFormat(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), nil, "deployment", "list", "--log-format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported log format \"xml\"")
}

func TestLogFileReceivesStructuredLogs(t *testing.T) {
	home := t.TempDir()
	logPath := filepath.Join(home, "ctix.log")

	_, _, err := executeCLI(t, home, chainConnection(organizer, newChainGateway()),
		"withdraw", "--log-file", logPath, "--log-format", "json", "--log-level", "info")
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"msg\":\"action confirmed\"")
	assert.Contains(t, string(data), "\"action\":\"withdraw\"")
}

// executeCLI runs the command tree against home. A non-nil conn replaces the
// chain and wallet dial.
func TestWalletPassphraseSetAndForget(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, ".ctix", "secrets", strings.ToLower(organizer.String()))

	stdout, _, err := executeCLIWithInput(t, home, nil, "hunter2\n", "wallet", "passphrase", "set", organizer.String())
	require.NoError(t, err)
	assert.Equal(t, "Passphrase stored for "+organizer.String()+"\n", stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(data))

	stdout, _, err = executeCLI(t, home, nil, "wallet", "passphrase", "forget", organizer.String())
	require.NoError(t, err)
	assert.Equal(t, "Passphrase removed for "+organizer.String()+"\n", stdout)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWalletPassphraseSetRejectsEmptyInput(t *testing.T) {
	_, _, err := executeCLIWithInput(t, t.TempDir(), nil, "\n", "wallet", "passphrase", "set", organizer.String())
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWalletPassphraseSetRejectsInvalidAccount(t *testing.T) {
	_, _, err := executeCLIWithInput(t, t.TempDir(), nil, "pw\n", "wallet", "passphrase", "set", "bob")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUnsupportedSecretsBackend(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CTIX_WALLET_SECRETS_BACKEND", "vault")

	_, err := wireApp()
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func executeCLI(t *testing.T, home string, conn *connection, args ...string) (string, string, error) {
	t.Helper()
	return executeCLIWithInput(t, home, conn, "", args...)
}

func executeCLIWithInput(t *testing.T, home string, conn *connection, input string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("CTIX_WALLET_SECRETS_BACKEND", "file")

	root := buildRootCmd(func() (*app, error) {
		a, err := wireApp()
		if err != nil {
			return nil, err
		}
		if conn != nil {
			a.connect = func(context.Context) (*connection, error) {
				return conn, nil
			}
		}
		return a, nil
	})
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
