package ledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/okian/gscore/pkg/logger"
)

// DefaultRPCURL is the public Coston2 endpoint.
const DefaultRPCURL = "https://coston2-api.flare.network/ext/C/rpc"

const noScoreRevert = "no score found"

// EVMConfig configures the contract client.
type EVMConfig struct {
	RPCURL          string
	ContractAddress string
	PrivateKey      string
	// ChainID is looked up from the node when zero.
	ChainID int64
}

// EVMOption applies a configuration option to the EVM ledger.
type EVMOption func(*EVM)

// WithEVMLogger sets the logger.
func WithEVMLogger(l logger.Logger) EVMOption {
	return func(e *EVM) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMineTimeout bounds how long a write waits for its receipt.
func WithMineTimeout(d time.Duration) EVMOption {
	return func(e *EVM) {
		if d > 0 {
			e.mineTimeout = d
		}
	}
}

// EVM talks to the deployed registry contract. Connection is established on
// first use so a missing configuration surfaces per request, not at startup.
type EVM struct {
	cfg         EVMConfig
	parsed      abi.ABI
	logger      logger.Logger
	mineTimeout time.Duration

	mu       sync.Mutex
	client   *ethclient.Client
	contract *bind.BoundContract
	key      *ecdsa.PrivateKey
	chainID  *big.Int
}

// NewEVM creates the client. It never dials.
func NewEVM(cfg EVMConfig, opts ...EVMOption) (*EVM, error) {
	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}
	if cfg.RPCURL == "" {
		cfg.RPCURL = DefaultRPCURL
	}
	e := &EVM{
		cfg:         cfg,
		parsed:      parsed,
		logger:      logger.Nop(),
		mineTimeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Configured reports whether both the contract address and signer key are set.
func (e *EVM) Configured() bool {
	return e.cfg.ContractAddress != "" && e.cfg.PrivateKey != ""
}

func (e *EVM) bound(ctx context.Context) (*bind.BoundContract, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.contract != nil {
		return e.contract, nil
	}
	if !common.IsHexAddress(e.cfg.ContractAddress) {
		return nil, fmt.Errorf("%w: contract address", ErrNotConfigured)
	}
	client, err := ethclient.DialContext(ctx, e.cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", e.cfg.RPCURL, err)
	}
	e.client = client
	e.contract = bind.NewBoundContract(common.HexToAddress(e.cfg.ContractAddress), e.parsed, client, client, client)
	e.logger.Info(ctx, "connected to registry contract",
		logger.String("rpc", e.cfg.RPCURL),
		logger.String("contract", e.cfg.ContractAddress),
	)
	return e.contract, nil
}

func (e *EVM) signer(ctx context.Context) (*bind.TransactOpts, error) {
	if e.cfg.PrivateKey == "" {
		return nil, fmt.Errorf("%w: private key", ErrNotConfigured)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.key == nil {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(e.cfg.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("%w: private key: %v", ErrNotConfigured, err)
		}
		e.key = key
	}
	if e.chainID == nil {
		if e.cfg.ChainID > 0 {
			e.chainID = big.NewInt(e.cfg.ChainID)
		} else {
			id, err := e.client.ChainID(ctx)
			if err != nil {
				return nil, fmt.Errorf("chain id: %w", err)
			}
			e.chainID = id
		}
	}
	opts, err := bind.NewKeyedTransactorWithChainID(e.key, e.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

func (e *EVM) call(ctx context.Context, method string, args ...any) ([]any, error) {
	c, err := e.bound(ctx)
	if err != nil {
		return nil, err
	}
	var out []any
	if err := c.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		if isNoScoreRevert(err) {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return out, nil
}

func (e *EVM) transact(ctx context.Context, method string, args ...any) (Receipt, error) {
	c, err := e.bound(ctx)
	if err != nil {
		return Receipt{}, err
	}
	opts, err := e.signer(ctx)
	if err != nil {
		return Receipt{}, err
	}
	tx, err := c.Transact(opts, method, args...)
	if err != nil {
		return Receipt{}, err
	}
	e.logger.Debug(ctx, "transaction sent", logger.String("method", method), logger.String("tx", tx.Hash().Hex()))

	waitCtx, cancel := context.WithTimeout(ctx, e.mineTimeout)
	defer cancel()
	rcpt, err := bind.WaitMined(waitCtx, e.client, tx)
	if err != nil {
		return Receipt{TxHash: tx.Hash()}, fmt.Errorf("wait mined %s: %w", tx.Hash().Hex(), err)
	}
	if rcpt.Status != types.ReceiptStatusSuccessful {
		return Receipt{TxHash: tx.Hash()}, fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return Receipt{TxHash: rcpt.TxHash, BlockNumber: rcpt.BlockNumber.Uint64()}, nil
}

// StoreScore implements Ledger.
func (e *EVM) StoreScore(ctx context.Context, wallet common.Address, identity string, score int, ts int64) (Receipt, error) {
	const op = "store_score"
	start := time.Now()
	r, err := e.transact(ctx, "storeScore", wallet, identity, big.NewInt(int64(score)), big.NewInt(ts))
	observe(op, start, err)
	return r, wrapUnlessConfig(op, err)
}

// StoreVerifiedScore implements Ledger.
func (e *EVM) StoreVerifiedScore(ctx context.Context, wallet common.Address, identity string, score int, ts int64, att common.Hash) (Receipt, error) {
	const op = "store_verified_score"
	start := time.Now()
	r, err := e.transact(ctx, "storeFdcVerifiedScore", wallet, identity, big.NewInt(int64(score)), big.NewInt(ts), [32]byte(att))
	observe(op, start, err)
	return r, wrapUnlessConfig(op, err)
}

// GetScore implements Ledger.
func (e *EVM) GetScore(ctx context.Context, wallet common.Address, identity string) (int, int64, error) {
	const op = "get_score"
	start := time.Now()
	out, err := e.call(ctx, "getScore", wallet, identity)
	observe(op, start, err)
	if err != nil {
		return 0, 0, wrapUnlessConfig(op, err)
	}
	score, ts, err := twoInts(out)
	return score, ts, wrap(op, err)
}

// LatestScore implements Ledger.
func (e *EVM) LatestScore(ctx context.Context, wallet common.Address) (Record, error) {
	const op = "latest_score"
	start := time.Now()
	out, err := e.call(ctx, "getUserLatestScore", wallet)
	observe(op, start, err)
	if errors.Is(err, ErrNoRecord) {
		return Record{}, ErrNoRecord
	}
	if err != nil {
		return Record{}, wrapUnlessConfig(op, err)
	}
	if len(out) != 3 {
		return Record{}, wrap(op, fmt.Errorf("unexpected output arity %d", len(out)))
	}
	identity, ok := out[0].(string)
	if !ok {
		return Record{}, wrap(op, fmt.Errorf("unexpected identity type %T", out[0]))
	}
	score, ts, err := twoInts(out[1:])
	if err != nil {
		return Record{}, wrap(op, err)
	}
	if identity == "" && score == 0 && ts == 0 {
		return Record{}, ErrNoRecord
	}
	return Record{Wallet: wallet, Identity: identity, Score: score, Timestamp: ts}, nil
}

// IsVerified implements Ledger.
func (e *EVM) IsVerified(ctx context.Context, wallet common.Address, identity string) (bool, common.Hash, error) {
	const op = "is_verified"
	start := time.Now()
	out, err := e.call(ctx, "isFdcVerified", wallet, identity)
	observe(op, start, err)
	if err != nil {
		return false, common.Hash{}, wrapUnlessConfig(op, err)
	}
	if len(out) != 2 {
		return false, common.Hash{}, wrap(op, fmt.Errorf("unexpected output arity %d", len(out)))
	}
	verified, ok1 := out[0].(bool)
	att, ok2 := out[1].([32]byte)
	if !ok1 || !ok2 {
		return false, common.Hash{}, wrap(op, fmt.Errorf("unexpected output types %T, %T", out[0], out[1]))
	}
	return verified, common.Hash(att), nil
}

// Count implements Ledger.
func (e *EVM) Count(ctx context.Context) (int, error) {
	const op = "count"
	start := time.Now()
	out, err := e.call(ctx, "getScoreAddressesCount")
	observe(op, start, err)
	if err != nil {
		return 0, wrapUnlessConfig(op, err)
	}
	if len(out) != 1 {
		return 0, wrap(op, fmt.Errorf("unexpected output arity %d", len(out)))
	}
	n, ok := out[0].(*big.Int)
	if !ok || !n.IsInt64() {
		return 0, wrap(op, fmt.Errorf("unexpected count %v", out[0]))
	}
	return int(n.Int64()), nil
}

// EntryAt implements Ledger.
func (e *EVM) EntryAt(ctx context.Context, i int) (common.Address, error) {
	const op = "entry_at"
	start := time.Now()
	out, err := e.call(ctx, "getScoreAddress", big.NewInt(int64(i)))
	observe(op, start, err)
	if err != nil {
		return common.Address{}, wrapUnlessConfig(op, err)
	}
	if len(out) != 1 {
		return common.Address{}, wrap(op, fmt.Errorf("unexpected output arity %d", len(out)))
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, wrap(op, fmt.Errorf("unexpected address type %T", out[0]))
	}
	return addr, nil
}

// Close releases the RPC connection.
func (e *EVM) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		e.client.Close()
		e.client = nil
		e.contract = nil
	}
	return nil
}

func twoInts(out []any) (int, int64, error) {
	if len(out) < 2 {
		return 0, 0, fmt.Errorf("unexpected output arity %d", len(out))
	}
	a, ok1 := out[0].(*big.Int)
	b, ok2 := out[1].(*big.Int)
	if !ok1 || !ok2 {
		return 0, 0, fmt.Errorf("unexpected output types %T, %T", out[0], out[1])
	}
	return int(a.Int64()), b.Int64(), nil
}

func isNoScoreRevert(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), noScoreRevert)
}

// wrapUnlessConfig leaves configuration errors unwrapped so callers can tell
// them apart from node failures.
func wrapUnlessConfig(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotConfigured) {
		return err
	}
	return wrap(op, err)
}
