package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/basket-engine/internal/basket"
	"github.com/hxuan190/basket-engine/internal/config"
)

var (
	dbPath    = flag.String("db", "", "ledger file (default: BASKET_DB_PATH or ./data/basket.db)")
	programID = flag.String("program", "", "program id the addresses derive under (default: BASKET_PROGRAM_ID)")
)

func openService() (*basket.Service, error) {
	cfg := &config.BasketConfig{}
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	cfg.PersistenceEnabled = true
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *programID != "" {
		id, err := solana.PublicKeyFromBase58(*programID)
		if err != nil {
			return nil, fmt.Errorf("invalid -program: %w", err)
		}
		cfg.ProgramID = id
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return basket.NewService(cfg)
}

func parseKey(name, s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, fmt.Errorf("-%s is required", name)
	}
	k, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid -%s: %w", name, err)
	}
	return k, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printJSON(v any) {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
