package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"positionScope/internal/model"
)

// Caller is the slice of the chain client the reader needs.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// TokenMetaCache caches token metadata by address.
type TokenMetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func NewTokenMetaCache() *TokenMetaCache {
	return &TokenMetaCache{data: make(map[common.Address]model.TokenMeta)}
}

func (c *TokenMetaCache) Get(address common.Address) (model.TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *TokenMetaCache) Set(address common.Address, meta model.TokenMeta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// Reader supplies pool and position snapshots for one monitored position.
// It performs the contract reads; retries belong to the caller.
type Reader struct {
	chain      Caller
	pool       common.Address
	manager    common.Address
	tokenID    *big.Int
	tokenCache *TokenMetaCache
	logger     *zap.Logger
}

// NewReader builds a contract reader for a pool and an NFT position.
func NewReader(chainClient Caller, pool, manager common.Address, tokenID *big.Int, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		chain:      chainClient,
		pool:       pool,
		manager:    manager,
		tokenID:    tokenID,
		tokenCache: NewTokenMetaCache(),
		logger:     logger,
	}
}

// PoolState reads the pool's live state as one immutable snapshot.
func (r *Reader) PoolState(ctx context.Context) (model.PoolState, error) {
	if r.chain == nil {
		return model.PoolState{}, fmt.Errorf("chain client is nil")
	}

	poolABI, err := V3PoolABI()
	if err != nil {
		return model.PoolState{}, fmt.Errorf("parse pool abi: %w", err)
	}

	values, err := r.callMethod(ctx, r.pool, poolABI, "slot0")
	if err != nil {
		return model.PoolState{}, err
	}
	if len(values) < 2 {
		return model.PoolState{}, fmt.Errorf("slot0 return size %d", len(values))
	}
	sqrtPrice, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("sqrt price: %w", err)
	}
	tickInt, err := asBigInt(values[1])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tick: %w", err)
	}
	tick, err := int24FromBig(tickInt)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("tick: %w", err)
	}

	values, err = r.callMethod(ctx, r.pool, poolABI, "liquidity")
	if err != nil {
		return model.PoolState{}, err
	}
	liquidity, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("liquidity: %w", err)
	}

	values, err = r.callMethod(ctx, r.pool, poolABI, "feeGrowthGlobal0X128")
	if err != nil {
		return model.PoolState{}, err
	}
	feeGrowth0, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("fee growth global0: %w", err)
	}

	values, err = r.callMethod(ctx, r.pool, poolABI, "feeGrowthGlobal1X128")
	if err != nil {
		return model.PoolState{}, err
	}
	feeGrowth1, err := asBigInt(values[0])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("fee growth global1: %w", err)
	}

	observedAt := time.Now().UTC()
	if number, err := r.chain.LatestBlockNumber(ctx); err == nil {
		if ts, err := r.chain.BlockTimestamp(ctx, number); err == nil {
			observedAt = time.Unix(int64(ts), 0).UTC()
		}
	}

	return model.PoolState{
		Address:              r.pool.Hex(),
		CurrentTick:          int(tick),
		SqrtPriceX96:         sqrtPrice,
		Liquidity:            liquidity,
		FeeGrowthGlobal0X128: feeGrowth0,
		FeeGrowthGlobal1X128: feeGrowth1,
		ObservedAt:           observedAt,
	}, nil
}

// Position reads the monitored NFT position, including token metadata.
func (r *Reader) Position(ctx context.Context) (model.Position, error) {
	if r.chain == nil {
		return model.Position{}, fmt.Errorf("chain client is nil")
	}

	managerABI, err := PositionManagerABI()
	if err != nil {
		return model.Position{}, fmt.Errorf("parse position manager abi: %w", err)
	}

	values, err := r.callMethod(ctx, r.manager, managerABI, "positions", r.tokenID)
	if err != nil {
		return model.Position{}, err
	}
	if len(values) < 12 {
		return model.Position{}, fmt.Errorf("positions return size %d", len(values))
	}

	token0, err := asAddress(values[2])
	if err != nil {
		return model.Position{}, fmt.Errorf("token0: %w", err)
	}
	token1, err := asAddress(values[3])
	if err != nil {
		return model.Position{}, fmt.Errorf("token1: %w", err)
	}
	feeInt, err := asBigInt(values[4])
	if err != nil {
		return model.Position{}, fmt.Errorf("fee: %w", err)
	}
	tickLowerInt, err := asBigInt(values[5])
	if err != nil {
		return model.Position{}, fmt.Errorf("tick lower: %w", err)
	}
	tickLower, err := int24FromBig(tickLowerInt)
	if err != nil {
		return model.Position{}, fmt.Errorf("tick lower: %w", err)
	}
	tickUpperInt, err := asBigInt(values[6])
	if err != nil {
		return model.Position{}, fmt.Errorf("tick upper: %w", err)
	}
	tickUpper, err := int24FromBig(tickUpperInt)
	if err != nil {
		return model.Position{}, fmt.Errorf("tick upper: %w", err)
	}
	liquidity, err := asBigInt(values[7])
	if err != nil {
		return model.Position{}, fmt.Errorf("liquidity: %w", err)
	}
	tokensOwed0, err := asBigInt(values[10])
	if err != nil {
		return model.Position{}, fmt.Errorf("tokens owed0: %w", err)
	}
	tokensOwed1, err := asBigInt(values[11])
	if err != nil {
		return model.Position{}, fmt.Errorf("tokens owed1: %w", err)
	}

	meta0, err := r.tokenMeta(ctx, token0)
	if err != nil {
		return model.Position{}, err
	}
	meta1, err := r.tokenMeta(ctx, token1)
	if err != nil {
		return model.Position{}, err
	}

	return model.Position{
		TickLower:   int(tickLower),
		TickUpper:   int(tickUpper),
		Liquidity:   liquidity,
		TokensOwed0: tokensOwed0,
		TokensOwed1: tokensOwed1,
		Token0:      meta0,
		Token1:      meta1,
		Fee:         uint32(feeInt.Uint64()),
	}, nil
}

// tokenMeta caches successful fetches only. A failed fetch fails the
// position read; without real decimals any fee valuation would be wrong,
// and a cached guess would stay wrong for the life of the process.
func (r *Reader) tokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	if meta, ok := r.tokenCache.Get(token); ok {
		return meta, nil
	}
	meta, err := FetchTokenMeta(ctx, r.chain, token, r.logger)
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("token %s metadata: %w", token.Hex(), err)
	}
	r.tokenCache.Set(token, meta)
	return meta, nil
}

// FetchTokenMeta loads token metadata via ERC20 calls, trying the string ABI
// first and falling back to bytes32 returns for older tokens.
func FetchTokenMeta(ctx context.Context, chainClient Caller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if chainClient == nil {
		return meta, fmt.Errorf("chain client is nil")
	}

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		msg := ethereum.CallMsg{To: &token, Data: data}
		resp, err := chainClient.CallContract(ctx, msg, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		return values, nil
	}

	values, err := call("decimals", stringABI)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := call("symbol", stringABI); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := call("symbol", bytes32ABI); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else if logger != nil {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := call("name", stringABI); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := call("name", bytes32ABI); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else if logger != nil {
		logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

func (r *Reader) callMethod(ctx context.Context, target common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &target, Data: data}
	resp, err := r.chain.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func int24FromBig(value *big.Int) (int32, error) {
	min := big.NewInt(-1 << 23)
	max := big.NewInt((1 << 23) - 1)
	if value.Cmp(min) < 0 || value.Cmp(max) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}
