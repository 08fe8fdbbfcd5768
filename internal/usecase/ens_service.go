package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/AnkanMisra/SettleOne/internal/metrics"
)

// ENS registry on mainnet, EIP-137.
const ensRegistryAddress = "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"

// Function selectors for the registry and resolver calls we make.
var (
	selectorResolver = [4]byte{0x01, 0x78, 0xb8, 0xbf} // resolver(bytes32)
	selectorAddr     = [4]byte{0x3b, 0x3b, 0x57, 0xde} // addr(bytes32)
	selectorName     = [4]byte{0x69, 0x1f, 0x34, 0x31} // name(bytes32)
)

var (
	ErrInvalidEnsName  = errors.New("invalid ENS name")
	ErrEnsNameNotFound = errors.New("ENS name not found")
	ErrInvalidAddress  = errors.New("invalid address")
)

// EnsResult is a resolved name/address pair. Avatar is only populated when
// the fallback API supplies one.
type EnsResult struct {
	Name    string
	Address string
	Avatar  string
}

// contractCaller is the slice of ethclient.Client we need; narrowed so tests
// can substitute a fake chain.
type contractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// EnsService resolves ENS names to addresses and back. Resolution runs
// through a provider chain: on-chain lookup against the ENS registry first,
// then an HTTP resolution API as fallback. Successful results are cached
// with a TTL; failures are not cached.
type EnsService struct {
	chain    contractCaller
	client   *http.Client
	apiURL   string
	logger   *zap.Logger
	recorder metrics.Recorder
	cache    *ensCache
}

// NewEnsService creates an ENS service. rpcURL may be empty, in which case
// only the API provider is used.
func NewEnsService(rpcURL, apiURL string, cacheTTL time.Duration, logger *zap.Logger, recorder metrics.Recorder) *EnsService {
	var chain contractCaller
	if rpcURL != "" {
		ethClient, err := ethclient.Dial(rpcURL)
		if err != nil {
			logger.Warn("ethereum RPC unavailable, ENS falls back to API only",
				zap.String("rpc_url", rpcURL),
				zap.Error(err))
		} else {
			chain = ethClient
		}
	}

	return &EnsService{
		chain:    chain,
		client:   &http.Client{Timeout: 10 * time.Second},
		apiURL:   strings.TrimRight(apiURL, "/"),
		logger:   logger,
		recorder: recorder,
		cache:    newEnsCache(cacheTTL),
	}
}

// Resolve resolves an ENS name to an address.
func (s *EnsService) Resolve(ctx context.Context, name string) (EnsResult, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !IsValidEnsName(name) {
		return EnsResult{}, fmt.Errorf("%w: %s", ErrInvalidEnsName, name)
	}

	cacheKey := "name:" + name
	if result, ok := s.cache.get(cacheKey); ok {
		s.recorder.IncCounter("ens_resolve", map[string]string{"outcome": "cache_hit"})
		return result, nil
	}

	if s.chain != nil {
		addr, err := s.resolveOnChain(ctx, name)
		if err != nil {
			s.logger.Warn("on-chain ENS resolution failed, trying API",
				zap.String("name", name),
				zap.Error(err))
		} else if addr != (common.Address{}) {
			result := EnsResult{Name: name, Address: addr.Hex()}
			s.cache.put(cacheKey, result)
			s.recorder.IncCounter("ens_resolve", map[string]string{"outcome": "chain"})
			return result, nil
		}
	}

	apiResult, err := s.queryAPI(ctx, name)
	if err != nil {
		s.recorder.IncCounter("ens_resolve", map[string]string{"outcome": "error"})
		return EnsResult{}, err
	}
	if apiResult.Address == "" {
		s.recorder.IncCounter("ens_resolve", map[string]string{"outcome": "not_found"})
		return EnsResult{}, fmt.Errorf("%w: %s", ErrEnsNameNotFound, name)
	}

	apiResult.Name = name
	s.cache.put(cacheKey, apiResult)
	s.recorder.IncCounter("ens_resolve", map[string]string{"outcome": "api"})
	return apiResult, nil
}

// ReverseLookup resolves an address to its primary ENS name. An address with
// no name set yields an empty string, not an error.
func (s *EnsService) ReverseLookup(ctx context.Context, address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}
	addr := common.HexToAddress(address)

	cacheKey := "addr:" + strings.ToLower(addr.Hex())
	if result, ok := s.cache.get(cacheKey); ok {
		s.recorder.IncCounter("ens_lookup", map[string]string{"outcome": "cache_hit"})
		return result.Name, nil
	}

	if s.chain != nil {
		name, err := s.reverseOnChain(ctx, addr)
		if err != nil {
			s.logger.Warn("on-chain reverse lookup failed, trying API",
				zap.String("address", FormatAddress(addr.Hex(), 4)),
				zap.Error(err))
		} else if name != "" {
			s.cache.put(cacheKey, EnsResult{Name: name, Address: addr.Hex()})
			s.recorder.IncCounter("ens_lookup", map[string]string{"outcome": "chain"})
			return name, nil
		}
	}

	apiResult, err := s.queryAPI(ctx, strings.ToLower(addr.Hex()))
	if err != nil {
		s.recorder.IncCounter("ens_lookup", map[string]string{"outcome": "error"})
		return "", err
	}
	if apiResult.Name != "" {
		apiResult.Address = addr.Hex()
		s.cache.put(cacheKey, apiResult)
	}
	s.recorder.IncCounter("ens_lookup", map[string]string{"outcome": "api"})
	return apiResult.Name, nil
}

// resolveOnChain looks up the resolver for the name in the registry and asks
// it for the address record. A zero address means the name is unset.
func (s *EnsService) resolveOnChain(ctx context.Context, name string) (common.Address, error) {
	node := Namehash(name)

	resolverOut, err := s.callNode(ctx, common.HexToAddress(ensRegistryAddress), selectorResolver, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("registry call: %w", err)
	}
	resolver := wordToAddress(resolverOut)
	if resolver == (common.Address{}) {
		return common.Address{}, nil
	}

	addrOut, err := s.callNode(ctx, resolver, selectorAddr, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("resolver call: %w", err)
	}
	return wordToAddress(addrOut), nil
}

// reverseOnChain resolves <addr>.addr.reverse to a name and verifies the
// claimed name resolves forward to the same address before trusting it.
func (s *EnsService) reverseOnChain(ctx context.Context, addr common.Address) (string, error) {
	reverseName := strings.ToLower(addr.Hex()[2:]) + ".addr.reverse"
	node := Namehash(reverseName)

	resolverOut, err := s.callNode(ctx, common.HexToAddress(ensRegistryAddress), selectorResolver, node)
	if err != nil {
		return "", fmt.Errorf("registry call: %w", err)
	}
	resolver := wordToAddress(resolverOut)
	if resolver == (common.Address{}) {
		return "", nil
	}

	nameOut, err := s.callNode(ctx, resolver, selectorName, node)
	if err != nil {
		return "", fmt.Errorf("resolver call: %w", err)
	}
	name, err := decodeABIString(nameOut)
	if err != nil || name == "" {
		return "", err
	}

	// Reverse records are claims; the forward record is authoritative.
	forward, err := s.resolveOnChain(ctx, name)
	if err != nil || forward != addr {
		return "", err
	}
	return name, nil
}

func (s *EnsService) callNode(ctx context.Context, to common.Address, selector [4]byte, node common.Hash) ([]byte, error) {
	data := make([]byte, 0, 36)
	data = append(data, selector[:]...)
	data = append(data, node[:]...)
	return s.chain.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

// queryAPI hits the fallback resolution API, which answers both names and
// addresses on the same endpoint.
func (s *EnsService) queryAPI(ctx context.Context, query string) (EnsResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"/"+query, nil)
	if err != nil {
		return EnsResult{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return EnsResult{}, fmt.Errorf("ENS API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return EnsResult{}, fmt.Errorf("ENS API request failed: status %d", resp.StatusCode)
	}

	var body struct {
		Address *string `json:"address"`
		Name    *string `json:"name"`
		Avatar  *string `json:"avatar"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return EnsResult{}, fmt.Errorf("ENS API response decode failed: %w", err)
	}

	result := EnsResult{}
	if body.Address != nil {
		result.Address = *body.Address
	}
	if body.Name != nil {
		result.Name = *body.Name
	}
	if body.Avatar != nil {
		result.Avatar = *body.Avatar
	}
	return result, nil
}

// Namehash computes the EIP-137 node hash for a name.
func Namehash(name string) common.Hash {
	node := make([]byte, 32)
	if name != "" {
		labels := strings.Split(name, ".")
		for i := len(labels) - 1; i >= 0; i-- {
			labelHash := crypto.Keccak256([]byte(labels[i]))
			node = crypto.Keccak256(node, labelHash)
		}
	}
	return common.BytesToHash(node)
}

// IsValidEnsName reports whether name looks like a resolvable .eth name:
// at least a three character label of [a-z0-9-] plus the ".eth" suffix.
func IsValidEnsName(name string) bool {
	if !strings.HasSuffix(name, ".eth") {
		return false
	}
	if len(name) < 7 {
		return false
	}
	label := name[:len(name)-4]
	for _, c := range label {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

// FormatAddress shortens an address for log output, e.g. 0xd8dA...6045.
func FormatAddress(address string, chars int) string {
	if len(address) < chars*2+2 {
		return address
	}
	return address[:chars+2] + "..." + address[len(address)-chars:]
}

// wordToAddress extracts an address from a 32-byte ABI return word.
func wordToAddress(word []byte) common.Address {
	if len(word) < 32 {
		return common.Address{}
	}
	return common.BytesToAddress(word[12:32])
}

// decodeABIString decodes a single ABI-encoded string return value.
func decodeABIString(out []byte) (string, error) {
	if len(out) < 64 {
		return "", nil
	}
	offset := new(big.Int).SetBytes(out[:32])
	if !offset.IsUint64() || offset.Uint64()+32 > uint64(len(out)) {
		return "", fmt.Errorf("malformed string return: bad offset")
	}
	o := offset.Uint64()
	length := new(big.Int).SetBytes(out[o : o+32])
	if !length.IsUint64() || o+32+length.Uint64() > uint64(len(out)) {
		return "", fmt.Errorf("malformed string return: bad length")
	}
	return string(out[o+32 : o+32+length.Uint64()]), nil
}

type ensCacheEntry struct {
	result    EnsResult
	expiresAt time.Time
}

// ensCache is a process-local TTL cache for resolved names and addresses.
type ensCache struct {
	mu      sync.RWMutex
	entries map[string]ensCacheEntry
	ttl     time.Duration
}

func newEnsCache(ttl time.Duration) *ensCache {
	return &ensCache{
		entries: make(map[string]ensCacheEntry),
		ttl:     ttl,
	}
}

func (c *ensCache) get(key string) (EnsResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return EnsResult{}, false
	}
	return entry.result, true
}

func (c *ensCache) put(key string, result EnsResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = ensCacheEntry{
		result:    result,
		expiresAt: time.Now().Add(c.ttl),
	}
}
