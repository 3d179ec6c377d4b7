package escrow

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"
)

// escrowABI is the call surface of the deployed escrow contract.
const escrowABI = `[
  {"name":"createGame","type":"function","stateMutability":"nonpayable","inputs":[{"name":"sessionCode","type":"string"},{"name":"wagerAmount","type":"uint256"}],"outputs":[]},
  {"name":"depositWager","type":"function","stateMutability":"payable","inputs":[{"name":"sessionCode","type":"string"}],"outputs":[]},
  {"name":"getGameInfo","type":"function","stateMutability":"view","inputs":[{"name":"sessionCode","type":"string"}],"outputs":[{"name":"owner","type":"address"},{"name":"wagerAmount","type":"uint256"},{"name":"totalDeposits","type":"uint256"},{"name":"playerCount","type":"uint8"},{"name":"isFinished","type":"bool"},{"name":"winner","type":"address"}]},
  {"name":"hasPlayerDeposited","type":"function","stateMutability":"view","inputs":[{"name":"sessionCode","type":"string"},{"name":"player","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"name":"distributePrize","type":"function","stateMutability":"nonpayable","inputs":[{"name":"sessionCode","type":"string"},{"name":"winner","type":"address"}],"outputs":[]},
  {"name":"emergencyRefund","type":"function","stateMutability":"nonpayable","inputs":[{"name":"sessionCode","type":"string"}],"outputs":[]}
]`

// ContractGate is the Gate implementation backed by the deployed escrow
// contract over JSON-RPC.
type ContractGate struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	key      *ecdsa.PrivateKey
	chainID  *big.Int
	from     common.Address
}

// NewContractGate dials the RPC endpoint and binds the escrow contract.
// keyHex is the hex-encoded private key of the local participant's wallet.
func NewContractGate(ctx context.Context, rpcURL, contractAddr, keyHex string, chainID int64) (*ContractGate, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain RPC: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(escrowABI))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to parse escrow ABI: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to parse wallet key: %w", err)
	}

	addr := common.HexToAddress(contractAddr)
	g := &ContractGate{
		client:   client,
		contract: bind.NewBoundContract(addr, parsed, client, client, client),
		key:      key,
		chainID:  big.NewInt(chainID),
		from:     crypto.PubkeyToAddress(key.PublicKey),
	}

	log.Info().
		Str("contract", addr.Hex()).
		Str("wallet", g.from.Hex()).
		Int64("chain_id", chainID).
		Msg("bound escrow contract")
	return g, nil
}

// From returns the local wallet address the gate transacts as.
func (g *ContractGate) From() common.Address {
	return g.from
}

func (g *ContractGate) transactOpts(ctx context.Context, value *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(g.key, g.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to build transactor: %w", err)
	}
	opts.Context = ctx
	opts.Value = value
	return opts, nil
}

// transact submits a state-changing call and waits for it to mine, so the
// caller observes the contract's accept/reject decision rather than just
// mempool admission.
func (g *ContractGate) transact(ctx context.Context, value *big.Int, method string, args ...any) error {
	opts, err := g.transactOpts(ctx, value)
	if err != nil {
		return err
	}
	tx, err := g.contract.Transact(opts, method, args...)
	if err != nil {
		return Classify(err)
	}

	receipt, err := bind.WaitMined(ctx, g.client, tx)
	if err != nil {
		return fmt.Errorf("failed to wait for %s tx: %w", method, err)
	}
	if receipt.Status == 0 {
		log.Warn().Str("method", method).Str("tx", tx.Hash().Hex()).Msg("escrow transaction reverted")
		return ErrReverted
	}

	log.Info().Str("method", method).Str("tx", tx.Hash().Hex()).Msg("escrow transaction mined")
	return nil
}

func (g *ContractGate) CreateGame(ctx context.Context, sessionCode string, wager *big.Int) error {
	return g.transact(ctx, nil, "createGame", sessionCode, wager)
}

func (g *ContractGate) DepositWager(ctx context.Context, sessionCode string) error {
	info, err := g.GameInfo(ctx, sessionCode)
	if err != nil {
		return err
	}
	return g.transact(ctx, info.WagerAmount, "depositWager", sessionCode)
}

func (g *ContractGate) GameInfo(ctx context.Context, sessionCode string) (*GameInfo, error) {
	var out []any
	err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getGameInfo", sessionCode)
	if err != nil {
		return nil, Classify(err)
	}
	if len(out) != 6 {
		return nil, fmt.Errorf("unexpected getGameInfo result arity %d", len(out))
	}
	return &GameInfo{
		Owner:         out[0].(common.Address),
		WagerAmount:   out[1].(*big.Int),
		TotalDeposits: out[2].(*big.Int),
		PlayerCount:   out[3].(uint8),
		IsFinished:    out[4].(bool),
		Winner:        out[5].(common.Address),
	}, nil
}

func (g *ContractGate) HasPlayerDeposited(ctx context.Context, sessionCode string, addr common.Address) (bool, error) {
	var out []any
	err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, "hasPlayerDeposited", sessionCode, addr)
	if err != nil {
		return false, Classify(err)
	}
	return out[0].(bool), nil
}

func (g *ContractGate) DistributePrize(ctx context.Context, sessionCode string, winner common.Address) error {
	// The contract rejects double payouts on its own, but checking first
	// avoids burning gas on the common both-owners-triggered race.
	info, err := g.GameInfo(ctx, sessionCode)
	if err == nil && info.IsFinished {
		return ErrAlreadyFinished
	}
	return g.transact(ctx, nil, "distributePrize", sessionCode, winner)
}

func (g *ContractGate) EmergencyRefund(ctx context.Context, sessionCode string) error {
	return g.transact(ctx, nil, "emergencyRefund", sessionCode)
}

func (g *ContractGate) Close() {
	g.client.Close()
}
