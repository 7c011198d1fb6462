package cluster

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/savings-vault/vault-cranker/model/solana"
)

// DefaultCacheSize is the number of endpoints whose genesis hash is remembered.
const DefaultCacheSize = 16

// GenesisSource is a ledger endpoint which exposes its genesis hash.
type GenesisSource interface {
	Endpoint() string
	GetGenesisHash(ctx context.Context) (solana.Hash, error)
}

// EndpointUnreachableError is returned when the genesis hash of an endpoint could not be fetched.
type EndpointUnreachableError struct {
	Endpoint string
	err      error
}

func NewEndpointUnreachableError(endpoint string, err error) EndpointUnreachableError {
	return EndpointUnreachableError{Endpoint: endpoint, err: err}
}

func (e EndpointUnreachableError) Error() string {
	return fmt.Sprintf("could not fetch genesis hash from %s: %v", e.Endpoint, e.err)
}

func (e EndpointUnreachableError) Unwrap() error {
	return e.err
}

// IsEndpointUnreachableError returns whether err is an EndpointUnreachableError
func IsEndpointUnreachableError(err error) bool {
	var target EndpointUnreachableError
	return errors.As(err, &target)
}

// Classify maps a genesis hash to the network it belongs to. Hashes of unknown clusters
// (local validators, private test clusters) are classified as test networks.
func Classify(genesis solana.Hash) solana.Network {
	switch genesis {
	case solana.MainnetGenesisHash:
		return solana.NetworkProduction
	case solana.DevnetGenesisHash:
		return solana.NetworkTest
	default:
		return solana.NetworkTest
	}
}

// Identifier resolves the network an endpoint is connected to. The genesis hash of an endpoint
// never changes, so successful lookups are cached by endpoint.
type Identifier struct {
	log   zerolog.Logger
	cache *lru.Cache[string, solana.Hash]
}

func NewIdentifier(log zerolog.Logger, cacheSize int) (*Identifier, error) {
	cache, err := lru.New[string, solana.Hash](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create genesis cache: %w", err)
	}
	return &Identifier{
		log:   log.With().Str("component", "cluster_identifier").Logger(),
		cache: cache,
	}, nil
}

// Identify returns the network source is connected to.
// Expected errors during normal operations:
//   - EndpointUnreachableError if the genesis hash could not be fetched
func (i *Identifier) Identify(ctx context.Context, source GenesisSource) (solana.Network, error) {
	endpoint := source.Endpoint()

	genesis, ok := i.cache.Get(endpoint)
	if !ok {
		var err error
		genesis, err = source.GetGenesisHash(ctx)
		if err != nil {
			return solana.NetworkUnknown, NewEndpointUnreachableError(endpoint, err)
		}
		i.cache.Add(endpoint, genesis)
	}

	network := Classify(genesis)
	i.log.Debug().
		Str("endpoint", endpoint).
		Str("genesis_hash", genesis.String()).
		Str("network", network.String()).
		Msg("identified cluster")
	return network, nil
}
