package http

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/basket-engine/internal/common"
)

func parseKey(field, s string) (solana.PublicKey, error) {
	k, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, common.HTTPErrorBadRequest("invalid " + field + " address")
	}
	return k, nil
}

// parseOptionalKey leaves def in place when s is empty.
func parseOptionalKey(field, s string, def solana.PublicKey) (solana.PublicKey, error) {
	if s == "" {
		return def, nil
	}
	return parseKey(field, s)
}

func parseKeys(field string, ss []string) ([]solana.PublicKey, error) {
	out := make([]solana.PublicKey, len(ss))
	for i, s := range ss {
		k, err := parseKey(field, s)
		if err != nil {
			return nil, err
		}
		out[i] = k
	}
	return out, nil
}

func parseAmount(field, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, common.HTTPErrorBadRequest("invalid " + field + ": must be an unsigned integer in base units")
	}
	return v, nil
}

func basketIDParam(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, common.HTTPErrorBadRequest("invalid basket id")
	}
	return id, nil
}

func keyStrings(keys []solana.PublicKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}
