package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/ledger"
)

const (
	AccountsBucket = "token_accounts"
	MintsBucket    = "mints"
	RecordsBucket  = "records"
	EventsBucket   = "events"

	DefaultDBPath = "./data/basket.db"
)

type StoredTokenAccount struct {
	Key    string `json:"key"`
	Mint   string `json:"mint"`
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount"`
}

type StoredMint struct {
	Key           string `json:"key"`
	Decimals      uint8  `json:"decimals"`
	Supply        uint64 `json:"supply"`
	MintAuthority string `json:"mintAuthority"`
}

type StoredEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Storage persists the ledger in a bolt file. It implements ledger.Store.
type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

var _ ledger.Store = (*Storage)(nil)

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[basketStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Commit writes a changeset in a single batch.
func (s *Storage) Commit(cs *ledger.Changeset) error {
	if cs == nil || cs.Empty() {
		return nil
	}

	batch := s.db.NewBatch()
	add := func(bucket string, key string, value []byte) error {
		v := value
		op := &boltdb.WriteOperation{
			Bucket: []byte(bucket),
			Key:    []byte(key),
			Value:  &v,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add %s/%s to batch: %w", bucket, key, err)
		}
		return nil
	}

	for _, a := range cs.Accounts {
		data, err := sonic.Marshal(accountToStored(a))
		if err != nil {
			return fmt.Errorf("failed to marshal token account %s: %w", a.Key, err)
		}
		if err := add(AccountsBucket, a.Key.String(), data); err != nil {
			return err
		}
	}
	for _, m := range cs.Mints {
		data, err := sonic.Marshal(mintToStored(m))
		if err != nil {
			return fmt.Errorf("failed to marshal mint %s: %w", m.Key, err)
		}
		if err := add(MintsBucket, m.Key.String(), data); err != nil {
			return err
		}
	}
	for _, r := range cs.Records {
		if err := add(RecordsBucket, r.Key.String(), r.Data); err != nil {
			return err
		}
	}
	for _, e := range cs.Events {
		stored, err := eventToStored(e)
		if err != nil {
			return err
		}
		data, err := sonic.Marshal(stored)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", e.ID, err)
		}
		if err := add(EventsBucket, eventKey(e), data); err != nil {
			return err
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).
			Int("accounts", len(cs.Accounts)).
			Int("records", len(cs.Records)).
			Msg("[basketStorage] FAILED to execute batch")
		return err
	}

	log.Debug().
		Int("accounts", len(cs.Accounts)).
		Int("mints", len(cs.Mints)).
		Int("records", len(cs.Records)).
		Int("events", len(cs.Events)).
		Msg("[basketStorage] committed changeset")
	return nil
}

// Load reads back everything ever committed.
func (s *Storage) Load() (*ledger.Changeset, error) {
	cs := &ledger.Changeset{}

	accounts := s.list(AccountsBucket)
	for key, value := range accounts {
		var stored StoredTokenAccount
		if err := sonic.Unmarshal(value, &stored); err != nil {
			return nil, fmt.Errorf("failed to unmarshal token account %s: %w", key, err)
		}
		a, err := storedToAccount(&stored)
		if err != nil {
			return nil, fmt.Errorf("token account %s: %w", key, err)
		}
		cs.Accounts = append(cs.Accounts, a)
	}

	mints := s.list(MintsBucket)
	for key, value := range mints {
		var stored StoredMint
		if err := sonic.Unmarshal(value, &stored); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mint %s: %w", key, err)
		}
		m, err := storedToMint(&stored)
		if err != nil {
			return nil, fmt.Errorf("mint %s: %w", key, err)
		}
		cs.Mints = append(cs.Mints, m)
	}

	records := s.list(RecordsBucket)
	for key, value := range records {
		k, err := solana.PublicKeyFromBase58(key)
		if err != nil {
			return nil, fmt.Errorf("invalid record key %s: %w", key, err)
		}
		cs.Records = append(cs.Records, ledger.Record{Key: k, Data: append([]byte(nil), value...)})
	}

	events := s.list(EventsBucket)
	skipped := 0
	for key, value := range events {
		var stored StoredEvent
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("key", key).Err(err).Msg("[basketStorage] failed to unmarshal event, skipping")
			skipped++
			continue
		}
		e, err := storedToEvent(&stored)
		if err != nil {
			log.Error().Str("key", key).Err(err).Msg("[basketStorage] failed to decode event payload, skipping")
			skipped++
			continue
		}
		cs.Events = append(cs.Events, e)
	}

	log.Info().
		Int("accounts", len(cs.Accounts)).
		Int("mints", len(cs.Mints)).
		Int("records", len(cs.Records)).
		Int("events", len(cs.Events)).
		Int("events_skipped", skipped).
		Msg("[basketStorage] loading completed")

	return cs, nil
}

// list returns the bucket contents. A bucket that was never written reads
// as empty.
func (s *Storage) list(bucket string) map[string][]byte {
	data, err := s.db.List(bucket)
	if err != nil {
		log.Warn().Str("bucket", bucket).Err(err).Msg("[basketStorage] failed to list bucket, treating as empty")
		return nil
	}
	return data
}

func eventKey(e domain.Event) string {
	return fmt.Sprintf("%020d-%s", e.Timestamp.UnixNano(), e.ID)
}

func accountToStored(a domain.TokenAccount) *StoredTokenAccount {
	return &StoredTokenAccount{
		Key:    a.Key.String(),
		Mint:   a.Mint.String(),
		Owner:  a.Owner.String(),
		Amount: a.Amount,
	}
}

func storedToAccount(stored *StoredTokenAccount) (domain.TokenAccount, error) {
	key, err := solana.PublicKeyFromBase58(stored.Key)
	if err != nil {
		return domain.TokenAccount{}, fmt.Errorf("invalid key: %w", err)
	}
	mint, err := solana.PublicKeyFromBase58(stored.Mint)
	if err != nil {
		return domain.TokenAccount{}, fmt.Errorf("invalid mint: %w", err)
	}
	owner, err := solana.PublicKeyFromBase58(stored.Owner)
	if err != nil {
		return domain.TokenAccount{}, fmt.Errorf("invalid owner: %w", err)
	}
	return domain.TokenAccount{Key: key, Mint: mint, Owner: owner, Amount: stored.Amount}, nil
}

func mintToStored(m domain.Mint) *StoredMint {
	return &StoredMint{
		Key:           m.Key.String(),
		Decimals:      m.Decimals,
		Supply:        m.Supply,
		MintAuthority: m.MintAuthority.String(),
	}
}

func storedToMint(stored *StoredMint) (domain.Mint, error) {
	key, err := solana.PublicKeyFromBase58(stored.Key)
	if err != nil {
		return domain.Mint{}, fmt.Errorf("invalid key: %w", err)
	}
	authority, err := solana.PublicKeyFromBase58(stored.MintAuthority)
	if err != nil {
		return domain.Mint{}, fmt.Errorf("invalid mintAuthority: %w", err)
	}
	return domain.Mint{Key: key, Decimals: stored.Decimals, Supply: stored.Supply, MintAuthority: authority}, nil
}

func eventToStored(e domain.Event) (*StoredEvent, error) {
	payload, err := sonic.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", e.Type, err)
	}
	return &StoredEvent{
		ID:        e.ID,
		Type:      string(e.Type),
		Timestamp: e.Timestamp,
		Payload:   payload,
	}, nil
}

func storedToEvent(stored *StoredEvent) (domain.Event, error) {
	payload, err := domain.NewEventPayload(domain.EventType(stored.Type))
	if err != nil {
		return domain.Event{}, err
	}
	if err := sonic.Unmarshal(stored.Payload, payload); err != nil {
		return domain.Event{}, err
	}
	return domain.Event{
		ID:        stored.ID,
		Type:      domain.EventType(stored.Type),
		Timestamp: stored.Timestamp,
		Payload:   payload,
	}, nil
}
