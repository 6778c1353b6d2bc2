// Package registry holds the administrative records the engines read:
// the global config, baskets, their token registrations and the compliance
// allow list. Records are stored encoded in the ledger at their derived
// addresses.
package registry

import (
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/ledger"
	"github.com/hxuan190/basket-engine/internal/services/authority"
)

// RecordReader returns the record stored at an address.
type RecordReader interface {
	AccountData(key solana.PublicKey) ([]byte, error)
}

// Lookup reads registry records from a ledger or from an open transaction.
type Lookup struct {
	reader  RecordReader
	deriver *authority.Deriver
}

func NewLookup(reader RecordReader, deriver *authority.Deriver) Lookup {
	return Lookup{reader: reader, deriver: deriver}
}

func (l Lookup) AccountData(key solana.PublicKey) ([]byte, error) {
	return l.reader.AccountData(key)
}

func (l Lookup) Config() (*domain.Config, error) {
	addr, _, err := l.deriver.ConfigAddress()
	if err != nil {
		return nil, err
	}
	data, err := l.reader.AccountData(addr)
	if err != nil {
		return nil, err
	}
	return domain.DecodeConfig(data)
}

// Basket returns the basket with the given id and its address.
func (l Lookup) Basket(basketID uint64) (*domain.Basket, solana.PublicKey, error) {
	addr, _, err := l.deriver.BasketAddress(basketID)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	b, err := l.BasketAt(addr)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	return b, addr, nil
}

func (l Lookup) BasketAt(addr solana.PublicKey) (*domain.Basket, error) {
	data, err := l.reader.AccountData(addr)
	if err != nil {
		return nil, err
	}
	return domain.DecodeBasket(data)
}

// AssetRegistration returns the registration stored at key.
func (l Lookup) AssetRegistration(key solana.PublicKey) (*domain.BasketToken, error) {
	data, err := l.reader.AccountData(key)
	if err != nil {
		return nil, err
	}
	return domain.DecodeBasketToken(data)
}

// AllowList returns the compliance entry at key. A missing entry is
// domain.ErrAccountNotFound.
func (l Lookup) AllowList(key solana.PublicKey) (*domain.UserAllowList, error) {
	data, err := l.reader.AccountData(key)
	if err != nil {
		return nil, err
	}
	return domain.DecodeUserAllowList(data)
}

// Registry is the read side plus the administrative operations.
type Registry struct {
	Lookup

	ledger  *ledger.Ledger
	deriver *authority.Deriver
	locks   *ledger.KeyedMutex

	// configMu orders config writes.
	configMu sync.Mutex
}

func New(l *ledger.Ledger, deriver *authority.Deriver, locks *ledger.KeyedMutex) *Registry {
	if locks == nil {
		locks = &ledger.KeyedMutex{}
	}
	return &Registry{
		Lookup:  NewLookup(l, deriver),
		ledger:  l,
		deriver: deriver,
		locks:   locks,
	}
}

func (r *Registry) Deriver() *authority.Deriver {
	return r.deriver
}

func (r *Registry) Locks() *ledger.KeyedMutex {
	return r.locks
}

// Within returns a Lookup that sees the writes buffered in tx.
func (r *Registry) Within(tx *ledger.Tx) Lookup {
	return NewLookup(tx, r.deriver)
}

// RegisteredToken is a registration with its address.
type RegisteredToken struct {
	Key   solana.PublicKey
	Token *domain.BasketToken
}

// Listing reads registry records, lists included, from one ledger Reader.
type Listing struct {
	Lookup
	src ledger.Reader
}

// At returns a Listing over src, typically the Reader of ledger.View.
func (r *Registry) At(src ledger.Reader) Listing {
	return Listing{Lookup: NewLookup(src, r.deriver), src: src}
}

// BasketTokens lists the registrations of a basket in registration order.
func (r *Registry) BasketTokens(basketID uint64) ([]RegisteredToken, error) {
	return r.At(r.ledger).BasketTokens(basketID)
}

// Baskets lists every basket with its address, ordered by id.
func (r *Registry) Baskets() []BasketEntry {
	return r.At(r.ledger).Baskets()
}

func (s Listing) BasketTokens(basketID uint64) ([]RegisteredToken, error) {
	_, addr, err := s.Basket(basketID)
	if err != nil {
		return nil, err
	}

	var tokens []RegisteredToken
	s.src.RangeRecords(func(key solana.PublicKey, data []byte) bool {
		bt, err := domain.DecodeBasketToken(data)
		if err != nil || !bt.Basket.Equals(addr) {
			return true
		}
		tokens = append(tokens, RegisteredToken{Key: key, Token: bt})
		return true
	})

	order := make(map[solana.PublicKey]int)
	for i, e := range s.src.Events(func(e domain.Event) bool {
		p, ok := e.Payload.(*domain.TokenAdded)
		return ok && p.Basket.Equals(addr)
	}) {
		order[e.Payload.(*domain.TokenAdded).Mint] = i
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		oi, iok := order[tokens[i].Token.Mint]
		oj, jok := order[tokens[j].Token.Mint]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return tokens[i].Token.Mint.String() < tokens[j].Token.Mint.String()
		}
	})
	return tokens, nil
}

func (s Listing) Baskets() []BasketEntry {
	var out []BasketEntry
	s.src.RangeRecords(func(key solana.PublicKey, data []byte) bool {
		b, err := domain.DecodeBasket(data)
		if err != nil {
			return true
		}
		out = append(out, BasketEntry{Key: key, Basket: b})
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Basket.BasketID < out[j].Basket.BasketID
	})
	return out
}

type BasketEntry struct {
	Key    solana.PublicKey
	Basket *domain.Basket
}
