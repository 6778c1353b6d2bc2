// Package ledger is the token and record state the basket engines act on. It
// stands in for the host chain: token accounts, mints and program records
// live here, and every change goes through a Tx that is applied all or
// nothing.
package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/metrics"
)

// Record is raw program-owned data stored at an address.
type Record struct {
	Key  solana.PublicKey
	Data []byte
}

// Changeset is everything one commit writes.
type Changeset struct {
	Accounts []domain.TokenAccount
	Mints    []domain.Mint
	Records  []Record
	Events   []domain.Event
}

func (c *Changeset) Empty() bool {
	return len(c.Accounts) == 0 && len(c.Mints) == 0 && len(c.Records) == 0 && len(c.Events) == 0
}

// Store persists committed changesets. Commit must be all or nothing.
type Store interface {
	Commit(cs *Changeset) error
	Load() (*Changeset, error)
}

// Reader is the read side of the ledger. *Ledger reads each entry on its
// own; the Reader handed to View sees one committed state throughout.
type Reader interface {
	TokenAccount(key solana.PublicKey) (domain.TokenAccount, error)
	Mint(key solana.PublicKey) (domain.Mint, error)
	AccountData(key solana.PublicKey) ([]byte, error)
	RangeRecords(f func(key solana.PublicKey, data []byte) bool)
	Events(filter func(domain.Event) bool) []domain.Event
}

type Ledger struct {
	accounts *shardedMap[domain.TokenAccount]
	mints    *shardedMap[domain.Mint]
	records  *shardedMap[[]byte]
	events   []domain.Event

	// installMu is held for writing while a changeset is installed, so
	// readers never see part of a commit.
	installMu sync.RWMutex

	// commitMu orders commits; reads never take it.
	commitMu  sync.Mutex
	lastEvent time.Time
	store     Store
}

// New returns an empty ledger. store may be nil for a memory-only ledger.
func New(store Store) *Ledger {
	return &Ledger{
		accounts: newShardedMap[domain.TokenAccount](),
		mints:    newShardedMap[domain.Mint](),
		records:  newShardedMap[[]byte](),
		store:    store,
	}
}

// Restore loads previously committed state from the store.
func (l *Ledger) Restore() error {
	if l.store == nil {
		return nil
	}
	cs, err := l.store.Load()
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	l.commitMu.Lock()
	for _, e := range cs.Events {
		if e.Timestamp.After(l.lastEvent) {
			l.lastEvent = e.Timestamp
		}
	}
	l.commitMu.Unlock()
	l.install(cs)

	log.Info().
		Int("accounts", len(cs.Accounts)).
		Int("mints", len(cs.Mints)).
		Int("records", len(cs.Records)).
		Int("events", len(cs.Events)).
		Msg("[ledger] restored state")
	return nil
}

func (l *Ledger) install(cs *Changeset) {
	l.installMu.Lock()
	defer l.installMu.Unlock()

	for _, a := range cs.Accounts {
		l.accounts.Set(a.Key, a)
	}
	for _, m := range cs.Mints {
		l.mints.Set(m.Key, m)
	}
	for _, r := range cs.Records {
		l.records.Set(r.Key, r.Data)
	}
	if len(cs.Events) > 0 {
		l.events = append(l.events, cs.Events...)
		sort.SliceStable(l.events, func(i, j int) bool {
			return l.events[i].Timestamp.Before(l.events[j].Timestamp)
		})
	}
}

// stamp makes event timestamps strictly increasing across commits so their
// order survives a restore. Callers hold commitMu.
func (l *Ledger) stamp(events []domain.Event) {
	for i := range events {
		if !events[i].Timestamp.After(l.lastEvent) {
			events[i].Timestamp = l.lastEvent.Add(time.Nanosecond)
		}
		l.lastEvent = events[i].Timestamp
	}
}

// View calls fn with a Reader that sees a single committed state. fn must
// not call back into l or commit.
func (l *Ledger) View(fn func(r Reader) error) error {
	l.installMu.RLock()
	defer l.installMu.RUnlock()
	return fn(snapshot{l})
}

func (l *Ledger) TokenAccount(key solana.PublicKey) (domain.TokenAccount, error) {
	l.installMu.RLock()
	defer l.installMu.RUnlock()
	return snapshot{l}.TokenAccount(key)
}

func (l *Ledger) Mint(key solana.PublicKey) (domain.Mint, error) {
	l.installMu.RLock()
	defer l.installMu.RUnlock()
	return snapshot{l}.Mint(key)
}

// AccountData returns the program record stored at key.
func (l *Ledger) AccountData(key solana.PublicKey) ([]byte, error) {
	l.installMu.RLock()
	defer l.installMu.RUnlock()
	return snapshot{l}.AccountData(key)
}

// RangeRecords calls f for every program record until f returns false.
func (l *Ledger) RangeRecords(f func(key solana.PublicKey, data []byte) bool) {
	l.installMu.RLock()
	defer l.installMu.RUnlock()
	snapshot{l}.RangeRecords(f)
}

// AccountsByOwner lists the token accounts owned by owner.
func (l *Ledger) AccountsByOwner(owner solana.PublicKey) []domain.TokenAccount {
	l.installMu.RLock()
	defer l.installMu.RUnlock()

	var out []domain.TokenAccount
	l.accounts.Range(func(_ solana.PublicKey, a domain.TokenAccount) bool {
		if a.Owner.Equals(owner) {
			out = append(out, a)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

// Events returns committed completion records accepted by filter, oldest first.
func (l *Ledger) Events(filter func(domain.Event) bool) []domain.Event {
	l.installMu.RLock()
	defer l.installMu.RUnlock()
	return snapshot{l}.Events(filter)
}

// snapshot reads l without locking; its owner holds installMu.
type snapshot struct {
	l *Ledger
}

func (s snapshot) TokenAccount(key solana.PublicKey) (domain.TokenAccount, error) {
	a, ok := s.l.accounts.Get(key)
	if !ok {
		return domain.TokenAccount{}, ErrUninitializedAccount
	}
	return a, nil
}

func (s snapshot) Mint(key solana.PublicKey) (domain.Mint, error) {
	m, ok := s.l.mints.Get(key)
	if !ok {
		return domain.Mint{}, ErrUninitializedAccount
	}
	return m, nil
}

func (s snapshot) AccountData(key solana.PublicKey) ([]byte, error) {
	data, ok := s.l.records.Get(key)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s snapshot) RangeRecords(f func(key solana.PublicKey, data []byte) bool) {
	s.l.records.Range(f)
}

func (s snapshot) Events(filter func(domain.Event) bool) []domain.Event {
	out := make([]domain.Event, 0)
	for _, e := range s.l.events {
		if filter == nil || filter(e) {
			out = append(out, e)
		}
	}
	return out
}

// Begin starts a transaction reading the current state.
func (l *Ledger) Begin() *Tx {
	return &Tx{
		ledger: l,
		state:  newState(l),
	}
}

// Update runs fn in a transaction and commits it when fn returns nil.
func (l *Ledger) Update(fn func(tx *Tx) error) error {
	tx := l.Begin()
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (l *Ledger) commit(tx *Tx) error {
	l.commitMu.Lock()
	defer l.commitMu.Unlock()

	if err := l.apply(tx); err != nil {
		metrics.LedgerCommits.WithLabelValues("error").Inc()
		return err
	}
	metrics.LedgerCommits.WithLabelValues("ok").Inc()
	return nil
}

func (l *Ledger) apply(tx *Tx) error {
	// Replay against the state as it is now, not as it was when tx began.
	replay := newState(l)
	for _, op := range tx.ops {
		if err := op(replay); err != nil {
			return err
		}
	}

	cs := replay.changeset()
	cs.Events = tx.events
	if cs.Empty() {
		return nil
	}
	l.stamp(cs.Events)
	if l.store != nil {
		if err := l.store.Commit(cs); err != nil {
			return fmt.Errorf("persist changeset: %w", err)
		}
	}
	l.install(cs)
	return nil
}
