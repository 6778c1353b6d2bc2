package authority

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/basket-engine/internal/domain"
)

const (
	IntentDeposit  = "deposit"
	IntentWithdraw = "withdraw"

	// MaxIntentTTL bounds how far in the future an intent may expire.
	MaxIntentTTL = 10 * time.Minute

	intentTag = "basket-engine:intent:v1\n"
)

var (
	ErrMissingSignature = domain.NewError(100, "MissingSignature", "request is not signed by the user", domain.KindAuthorization)
	ErrBadSignature     = domain.NewError(101, "BadSignature", "signature does not match the user", domain.KindAuthorization)
	ErrIntentExpired    = domain.NewError(102, "IntentExpired", "signed request has expired or expires too far ahead", domain.KindAuthorization)
	ErrIntentReplayed   = domain.NewError(103, "IntentReplayed", "signed request was already used", domain.KindAuthorization)
)

// Intent is what a user signs to move their own funds: the operation, the
// basket, the amounts (the share count for a withdrawal) and every account
// the call will touch.
type Intent struct {
	Op        string
	Program   solana.PublicKey
	BasketID  uint64
	User      solana.PublicKey
	Amounts   []uint64
	ShareAta  solana.PublicKey
	Records   []solana.PublicKey
	Nonce     uint64
	ExpiresAt int64
}

// Message is the byte string the user signs: a fixed tag followed by the
// Borsh encoding of the intent.
func (i *Intent) Message() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteString(intentTag)
	if err := bin.NewBorshEncoder(buf).Encode(i); err != nil {
		return nil, fmt.Errorf("encode intent: %w", err)
	}
	return buf.Bytes(), nil
}

func (i *Intent) Sign(key solana.PrivateKey) (solana.Signature, error) {
	msg, err := i.Message()
	if err != nil {
		return solana.Signature{}, err
	}
	return key.Sign(msg)
}

// Verify checks that sig is the user's signature over the intent and that
// the intent is live at now.
func (i *Intent) Verify(sig solana.Signature, now time.Time) error {
	if sig.IsZero() {
		return ErrMissingSignature
	}
	expires := time.Unix(i.ExpiresAt, 0)
	if !expires.After(now) || expires.After(now.Add(MaxIntentTTL)) {
		return ErrIntentExpired
	}
	msg, err := i.Message()
	if err != nil {
		return err
	}
	if !i.User.Verify(msg, sig) {
		return ErrBadSignature
	}
	return nil
}

// ReplayGuard remembers accepted signatures until their intent expires.
type ReplayGuard struct {
	mu   sync.Mutex
	seen map[solana.Signature]time.Time
}

func NewReplayGuard() *ReplayGuard {
	return &ReplayGuard{seen: make(map[solana.Signature]time.Time)}
}

// Claim records sig and fails if it was claimed before and has not expired.
func (g *ReplayGuard) Claim(sig solana.Signature, expires, now time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for s, exp := range g.seen {
		if !exp.After(now) {
			delete(g.seen, s)
		}
	}
	if _, ok := g.seen[sig]; ok {
		return ErrIntentReplayed
	}
	g.seen[sig] = expires
	return nil
}
