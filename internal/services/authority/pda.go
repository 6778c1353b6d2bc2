// Package authority derives the program-owned addresses of a basket and
// checks caller-supplied authorities against them.
package authority

import (
	"encoding/binary"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/basket-engine/internal/common"
)

func le64(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

// Derive recomputes the authority address for (seed, basketID) from a stored
// bump. It never searches for a bump.
func Derive(programID solana.PublicKey, seed string, basketID uint64, bump uint8) (solana.PublicKey, error) {
	return solana.CreateProgramAddress(
		[][]byte{
			[]byte(seed),
			le64(basketID),
			{bump},
		},
		programID,
	)
}

// AssertDerived fails with errOnMismatch unless supplied is exactly the
// address derived from (seed, basketID, bump). A bump that yields no valid
// address also fails.
func AssertDerived(programID solana.PublicKey, seed string, basketID uint64, bump uint8, supplied solana.PublicKey, errOnMismatch error) error {
	expected, err := Derive(programID, seed, basketID, bump)
	if err != nil {
		return errOnMismatch
	}
	if !expected.Equals(supplied) {
		return errOnMismatch
	}
	return nil
}

type seedKey struct {
	seed string
	a    solana.PublicKey
	b    solana.PublicKey
	id   uint64
}

type derived struct {
	addr solana.PublicKey
	bump uint8
}

// Deriver finds basket addresses for one program and caches them.
type Deriver struct {
	programID solana.PublicKey

	cacheMu sync.RWMutex
	cache   map[seedKey]derived
}

func NewDeriver(programID solana.PublicKey) *Deriver {
	return &Deriver{
		programID: programID,
		cache:     make(map[seedKey]derived),
	}
}

func (d *Deriver) ProgramID() solana.PublicKey {
	return d.programID
}

func (d *Deriver) find(key seedKey, seeds [][]byte) (solana.PublicKey, uint8, error) {
	d.cacheMu.RLock()
	if cached, ok := d.cache[key]; ok {
		d.cacheMu.RUnlock()
		return cached.addr, cached.bump, nil
	}
	d.cacheMu.RUnlock()

	addr, bump, err := solana.FindProgramAddress(seeds, d.programID)
	if err != nil {
		return solana.PublicKey{}, 0, err
	}

	d.cacheMu.Lock()
	d.cache[key] = derived{addr: addr, bump: bump}
	d.cacheMu.Unlock()

	return addr, bump, nil
}

func (d *Deriver) ConfigAddress() (solana.PublicKey, uint8, error) {
	return d.find(seedKey{seed: common.ConfigSeed}, [][]byte{[]byte(common.ConfigSeed)})
}

func (d *Deriver) BasketAddress(basketID uint64) (solana.PublicKey, uint8, error) {
	return d.findByID(common.BasketSeed, basketID)
}

func (d *Deriver) FindVaultAuthority(basketID uint64) (solana.PublicKey, uint8, error) {
	return d.findByID(common.VaultAuthoritySeed, basketID)
}

func (d *Deriver) FindMintAuthority(basketID uint64) (solana.PublicKey, uint8, error) {
	return d.findByID(common.MintAuthoritySeed, basketID)
}

func (d *Deriver) BasketTokenAddress(basket, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return d.findByPair(common.BasketTokenSeed, basket, mint)
}

func (d *Deriver) FeeVaultAddress(basket, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return d.findByPair(common.FeeVaultSeed, basket, mint)
}

func (d *Deriver) AllowListAddress(basket, user solana.PublicKey) (solana.PublicKey, uint8, error) {
	return d.findByPair(common.UserAllowSeed, basket, user)
}

func (d *Deriver) findByID(seed string, basketID uint64) (solana.PublicKey, uint8, error) {
	return d.find(
		seedKey{seed: seed, id: basketID},
		[][]byte{[]byte(seed), le64(basketID)},
	)
}

func (d *Deriver) findByPair(seed string, a, b solana.PublicKey) (solana.PublicKey, uint8, error) {
	return d.find(
		seedKey{seed: seed, a: a, b: b},
		[][]byte{[]byte(seed), a[:], b[:]},
	)
}
