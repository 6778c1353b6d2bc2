package ledger

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/hxuan190/basket-engine/internal/domain"
)

// state is a copy-on-write overlay over the live ledger.
type state struct {
	base     *Ledger
	accounts map[solana.PublicKey]*domain.TokenAccount
	mints    map[solana.PublicKey]*domain.Mint
	records  map[solana.PublicKey][]byte
}

func newState(base *Ledger) *state {
	return &state{
		base:     base,
		accounts: make(map[solana.PublicKey]*domain.TokenAccount),
		mints:    make(map[solana.PublicKey]*domain.Mint),
		records:  make(map[solana.PublicKey][]byte),
	}
}

func (s *state) account(key solana.PublicKey) (*domain.TokenAccount, bool) {
	if a, ok := s.accounts[key]; ok {
		return a, true
	}
	live, ok := s.base.accounts.Get(key)
	if !ok {
		return nil, false
	}
	a := live
	s.accounts[key] = &a
	return &a, true
}

func (s *state) mint(key solana.PublicKey) (*domain.Mint, bool) {
	if m, ok := s.mints[key]; ok {
		return m, true
	}
	live, ok := s.base.mints.Get(key)
	if !ok {
		return nil, false
	}
	m := live
	s.mints[key] = &m
	return &m, true
}

func (s *state) record(key solana.PublicKey) ([]byte, bool) {
	if r, ok := s.records[key]; ok {
		return r, true
	}
	return s.base.records.Get(key)
}

// changeset collects every entry the overlay touched.
func (s *state) changeset() *Changeset {
	cs := &Changeset{}
	for _, a := range s.accounts {
		cs.Accounts = append(cs.Accounts, *a)
	}
	for _, m := range s.mints {
		cs.Mints = append(cs.Mints, *m)
	}
	for k, r := range s.records {
		cs.Records = append(cs.Records, Record{Key: k, Data: r})
	}
	return cs
}

type op func(s *state) error

// Tx buffers ledger operations. Each operation is validated against the
// overlay when it is issued; nothing reaches the live ledger before Commit.
// A Tx is not safe for concurrent use.
type Tx struct {
	ledger *Ledger
	state  *state
	ops    []op
	events []domain.Event
	closed bool
}

func (tx *Tx) do(o op) error {
	if tx.closed {
		return ErrTxClosed
	}
	if err := o(tx.state); err != nil {
		return err
	}
	tx.ops = append(tx.ops, o)
	return nil
}

func (tx *Tx) TokenAccount(key solana.PublicKey) (domain.TokenAccount, error) {
	a, ok := tx.state.account(key)
	if !ok {
		return domain.TokenAccount{}, ErrUninitializedAccount
	}
	return *a, nil
}

func (tx *Tx) Mint(key solana.PublicKey) (domain.Mint, error) {
	m, ok := tx.state.mint(key)
	if !ok {
		return domain.Mint{}, ErrUninitializedAccount
	}
	return *m, nil
}

// AccountData returns the program record at key as seen by this Tx.
func (tx *Tx) AccountData(key solana.PublicKey) ([]byte, error) {
	data, ok := tx.state.record(key)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return append([]byte(nil), data...), nil
}

// InitMint creates a mint with zero supply.
func (tx *Tx) InitMint(key solana.PublicKey, decimals uint8, authority solana.PublicKey) error {
	return tx.do(func(s *state) error {
		if _, ok := s.mint(key); ok {
			return ErrAlreadyInUse
		}
		s.mints[key] = &domain.Mint{Key: key, Decimals: decimals, MintAuthority: authority}
		return nil
	})
}

// InitAccount creates an empty token account and fails if one exists.
func (tx *Tx) InitAccount(key, mint, owner solana.PublicKey) error {
	return tx.do(func(s *state) error {
		if _, ok := s.account(key); ok {
			return ErrAlreadyInUse
		}
		if _, ok := s.mint(mint); !ok {
			return ErrUninitializedAccount
		}
		s.accounts[key] = &domain.TokenAccount{Key: key, Mint: mint, Owner: owner}
		return nil
	})
}

// InitAccountIfNeeded creates the account unless an identical one exists.
func (tx *Tx) InitAccountIfNeeded(key, mint, owner solana.PublicKey) error {
	return tx.do(func(s *state) error {
		if a, ok := s.account(key); ok {
			if !a.Mint.Equals(mint) {
				return ErrMintMismatch
			}
			if !a.Owner.Equals(owner) {
				return ErrOwnerMismatch
			}
			return nil
		}
		if _, ok := s.mint(mint); !ok {
			return ErrUninitializedAccount
		}
		s.accounts[key] = &domain.TokenAccount{Key: key, Mint: mint, Owner: owner}
		return nil
	})
}

// TransferChecked moves amount from one account to another of the same mint,
// signed by the owner of the source.
func (tx *Tx) TransferChecked(from, to, mint, authority solana.PublicKey, amount uint64, decimals uint8) error {
	return tx.do(func(s *state) error {
		src, ok := s.account(from)
		if !ok {
			return ErrUninitializedAccount
		}
		dst, ok := s.account(to)
		if !ok {
			return ErrUninitializedAccount
		}
		m, ok := s.mint(mint)
		if !ok {
			return ErrUninitializedAccount
		}
		if !src.Mint.Equals(mint) || !dst.Mint.Equals(mint) {
			return ErrMintMismatch
		}
		if m.Decimals != decimals {
			return ErrMintDecimalsMismatch
		}
		if !src.Owner.Equals(authority) {
			return ErrOwnerMismatch
		}
		if src.Amount < amount {
			return ErrInsufficientFunds
		}
		if from.Equals(to) {
			return nil
		}
		if dst.Amount+amount < dst.Amount {
			return ErrOverflow
		}
		src.Amount -= amount
		dst.Amount += amount
		return nil
	})
}

// MintTo issues amount of mint into to, signed by the mint authority.
func (tx *Tx) MintTo(mint, to, authority solana.PublicKey, amount uint64) error {
	return tx.do(func(s *state) error {
		m, ok := s.mint(mint)
		if !ok {
			return ErrUninitializedAccount
		}
		if !m.MintAuthority.Equals(authority) {
			return ErrOwnerMismatch
		}
		return issue(s, m, to, amount)
	})
}

// Credit issues amount into an account without an authority check. It is the
// operator faucet for seeding balances.
func (tx *Tx) Credit(account solana.PublicKey, amount uint64) error {
	return tx.do(func(s *state) error {
		a, ok := s.account(account)
		if !ok {
			return ErrUninitializedAccount
		}
		m, ok := s.mint(a.Mint)
		if !ok {
			return ErrUninitializedAccount
		}
		return issue(s, m, account, amount)
	})
}

func issue(s *state, m *domain.Mint, to solana.PublicKey, amount uint64) error {
	dst, ok := s.account(to)
	if !ok {
		return ErrUninitializedAccount
	}
	if !dst.Mint.Equals(m.Key) {
		return ErrMintMismatch
	}
	if m.Supply+amount < m.Supply || dst.Amount+amount < dst.Amount {
		return ErrOverflow
	}
	m.Supply += amount
	dst.Amount += amount
	return nil
}

// Burn destroys amount from an account, signed by its owner.
func (tx *Tx) Burn(mint, from, owner solana.PublicKey, amount uint64) error {
	return tx.do(func(s *state) error {
		m, ok := s.mint(mint)
		if !ok {
			return ErrUninitializedAccount
		}
		src, ok := s.account(from)
		if !ok {
			return ErrUninitializedAccount
		}
		if !src.Mint.Equals(mint) {
			return ErrMintMismatch
		}
		if !src.Owner.Equals(owner) {
			return ErrOwnerMismatch
		}
		if src.Amount < amount || m.Supply < amount {
			return ErrInsufficientFunds
		}
		src.Amount -= amount
		m.Supply -= amount
		return nil
	})
}

// CreateRecord stores program data at a fresh address.
func (tx *Tx) CreateRecord(key solana.PublicKey, data []byte) error {
	data = append([]byte(nil), data...)
	return tx.do(func(s *state) error {
		if _, ok := s.record(key); ok {
			return ErrAlreadyInUse
		}
		s.records[key] = data
		return nil
	})
}

// PutRecord stores program data at key, replacing any existing data.
func (tx *Tx) PutRecord(key solana.PublicKey, data []byte) error {
	data = append([]byte(nil), data...)
	return tx.do(func(s *state) error {
		s.records[key] = data
		return nil
	})
}

// Emit appends a completion record that is published on commit.
func (tx *Tx) Emit(typ domain.EventType, payload any) domain.Event {
	e := domain.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	tx.events = append(tx.events, e)
	return e
}

// Commit applies every buffered operation to the ledger and persists the
// result in one write. On error the ledger is unchanged.
func (tx *Tx) Commit() error {
	if tx.closed {
		return ErrTxClosed
	}
	tx.closed = true
	return tx.ledger.commit(tx)
}

// Rollback discards the Tx. It is safe to call after Commit.
func (tx *Tx) Rollback() {
	tx.closed = true
	tx.ops = nil
	tx.events = nil
}
