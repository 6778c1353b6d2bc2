package domain

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// Account names used for discriminators.
const (
	AccountConfig        = "Config"
	AccountBasket        = "Basket"
	AccountBasketToken   = "BasketToken"
	AccountUserAllowList = "UserAllowList"
)

// Discriminator returns the 8-byte record tag: sha256("account:<name>")[:8].
func Discriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

var (
	ConfigDiscriminator        = Discriminator(AccountConfig)
	BasketDiscriminator        = Discriminator(AccountBasket)
	BasketTokenDiscriminator   = Discriminator(AccountBasketToken)
	UserAllowListDiscriminator = Discriminator(AccountUserAllowList)
)

// EncodeAccount writes discriminator followed by the Borsh body of v.
func EncodeAccount(disc [8]byte, v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeAccount checks the discriminator and decodes the Borsh body into v.
func DecodeAccount(data []byte, disc [8]byte, v any) error {
	if len(data) < 8 || !bytes.Equal(data[:8], disc[:]) {
		return ErrAccountDidNotDeserialize
	}
	if err := bin.NewBorshDecoder(data[8:]).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrAccountDidNotDeserialize, err)
	}
	return nil
}

func DecodeConfig(data []byte) (*Config, error) {
	var c Config
	if err := DecodeAccount(data, ConfigDiscriminator, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func DecodeBasket(data []byte) (*Basket, error) {
	var b Basket
	if err := DecodeAccount(data, BasketDiscriminator, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func DecodeBasketToken(data []byte) (*BasketToken, error) {
	var t BasketToken
	if err := DecodeAccount(data, BasketTokenDiscriminator, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func DecodeUserAllowList(data []byte) (*UserAllowList, error) {
	var a UserAllowList
	if err := DecodeAccount(data, UserAllowListDiscriminator, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
