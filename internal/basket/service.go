package basket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/basket-engine/internal/adapters/persistence"
	"github.com/hxuan190/basket-engine/internal/config"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/ledger"
	"github.com/hxuan190/basket-engine/internal/metrics"
	"github.com/hxuan190/basket-engine/internal/registry"
	"github.com/hxuan190/basket-engine/internal/services"
	"github.com/hxuan190/basket-engine/internal/services/authority"
	"github.com/hxuan190/basket-engine/internal/services/engine"
)

const BASKET_SERVICE = "basket-service"

var ErrUnknownOperation = errors.New("unknown operation")

type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	config   *config.BasketConfig
	storage  *persistence.Storage
	ledger   *ledger.Ledger
	registry *registry.Registry
	engine   *engine.Engine
	replay   *authority.ReplayGuard
}

// NewService opens a service outside the container, e.g. for the CLI.
func NewService(cfg *config.BasketConfig) (*Service, error) {
	svc := &Service{}
	if err := svc.open(cfg); err != nil {
		return nil, err
	}
	return svc, nil
}

func (svc *Service) ID() string {
	return BASKET_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	cfg, ok := c.GetConfig(config.BASKET_CONFIG_KEY).(*config.BasketConfig)
	if !ok || cfg == nil {
		return errors.New("invalid basket config")
	}
	return svc.open(cfg)
}

func (svc *Service) open(cfg *config.BasketConfig) error {
	svc.logger = services.NewServiceLogger(svc).ForProgram(cfg.ProgramID)
	svc.config = cfg

	var store ledger.Store
	if cfg.PersistenceEnabled {
		storage, err := persistence.NewStorage(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		svc.storage = storage
		store = storage
	}

	svc.ledger = ledger.New(store)
	if err := svc.ledger.Restore(); err != nil {
		return err
	}
	svc.registry = registry.New(svc.ledger, authority.NewDeriver(cfg.ProgramID), nil)
	svc.engine = engine.New(svc.registry, svc.ledger)
	svc.replay = authority.NewReplayGuard()
	svc.refreshGauges()

	svc.logger.Info().
		Bool("persistence", cfg.PersistenceEnabled).
		Msg("[BasketService] configured")
	return nil
}

func (svc *Service) Start() error {
	svc.logger.Info().Int("baskets", len(svc.registry.Baskets())).Msg("[BasketService] started")
	return nil
}

func (svc *Service) Stop() error {
	if svc.storage == nil {
		return nil
	}
	if err := svc.storage.Close(); err != nil {
		svc.logger.Error().Err(err).Msg("[BasketService] failed to close storage")
		return err
	}
	return nil
}

func (svc *Service) Registry() *registry.Registry {
	return svc.registry
}

func (svc *Service) Ledger() *ledger.Ledger {
	return svc.ledger
}

func (svc *Service) ProgramID() solana.PublicKey {
	return svc.config.ProgramID
}

func (svc *Service) AdminEnabled() bool {
	return svc.config.AdminEnabled
}

func (svc *Service) Deposit(ctx context.Context, req engine.DepositRequest) (*engine.DepositResult, error) {
	return svc.engine.Deposit(ctx, req)
}

func (svc *Service) Withdraw(ctx context.Context, req engine.WithdrawRequest) (*engine.WithdrawResult, error) {
	return svc.engine.Withdraw(ctx, req)
}

// DepositRequest fills in the share mint, mint authority and record layout
// of basket basketID for user.
func (svc *Service) DepositRequest(basketID uint64, user solana.PublicKey, amounts []uint64) (engine.DepositRequest, error) {
	b, _, err := svc.registry.Basket(basketID)
	if err != nil {
		return engine.DepositRequest{}, err
	}
	mintAuth, _, err := svc.registry.Deriver().FindMintAuthority(basketID)
	if err != nil {
		return engine.DepositRequest{}, err
	}
	records, err := svc.Records(basketID, user, "deposit")
	if err != nil {
		return engine.DepositRequest{}, err
	}
	return engine.DepositRequest{
		BasketID:      basketID,
		User:          user,
		Amounts:       amounts,
		ShareMint:     b.ShareMint,
		MintAuthority: mintAuth,
		Records:       records,
	}, nil
}

func (svc *Service) WithdrawRequest(basketID uint64, user solana.PublicKey, shares uint64) (engine.WithdrawRequest, error) {
	b, _, err := svc.registry.Basket(basketID)
	if err != nil {
		return engine.WithdrawRequest{}, err
	}
	records, err := svc.Records(basketID, user, "withdraw")
	if err != nil {
		return engine.WithdrawRequest{}, err
	}
	return engine.WithdrawRequest{
		BasketID:       basketID,
		User:           user,
		SharesToBurn:   shares,
		ShareMint:      b.ShareMint,
		VaultAuthority: b.VaultAuthority,
		Records:        records,
	}, nil
}

// DepositIntent is the message user signs to authorize req.
func (svc *Service) DepositIntent(req engine.DepositRequest, nonce uint64, expiresAt int64) *authority.Intent {
	return &authority.Intent{
		Op:        authority.IntentDeposit,
		Program:   svc.config.ProgramID,
		BasketID:  req.BasketID,
		User:      req.User,
		Amounts:   req.Amounts,
		ShareAta:  req.UserShareAta,
		Records:   req.Records,
		Nonce:     nonce,
		ExpiresAt: expiresAt,
	}
}

func (svc *Service) WithdrawIntent(req engine.WithdrawRequest, nonce uint64, expiresAt int64) *authority.Intent {
	return &authority.Intent{
		Op:        authority.IntentWithdraw,
		Program:   svc.config.ProgramID,
		BasketID:  req.BasketID,
		User:      req.User,
		Amounts:   []uint64{req.SharesToBurn},
		ShareAta:  req.UserShareAta,
		Records:   req.Records,
		Nonce:     nonce,
		ExpiresAt: expiresAt,
	}
}

// Authorize accepts intent only when its user signed it, it has not expired
// and sig has not been used before.
func (svc *Service) Authorize(intent *authority.Intent, sig solana.Signature) error {
	now := time.Now()
	if err := intent.Verify(sig, now); err != nil {
		svc.logger.Rejected(intent.Op, err).Str("user", intent.User.String()).Msg("[BasketService] request not authorized")
		return err
	}
	return svc.replay.Claim(sig, time.Unix(intent.ExpiresAt, 0), now)
}

// AllowListAddress is the compliance entry address of user in basketID.
func (svc *Service) AllowListAddress(basketID uint64, user solana.PublicKey) (solana.PublicKey, error) {
	_, addr, err := svc.registry.Basket(basketID)
	if err != nil {
		return solana.PublicKey{}, err
	}
	entry, _, err := svc.registry.Deriver().AllowListAddress(addr, user)
	return entry, err
}

func (svc *Service) Events(filter func(domain.Event) bool) []domain.Event {
	return svc.ledger.Events(filter)
}

func (svc *Service) refreshGauges() {
	baskets := svc.registry.Baskets()
	var tokens int
	for _, b := range baskets {
		tokens += int(b.Basket.TokenCount)
	}
	metrics.BasketCount.Set(float64(len(baskets)))
	metrics.RegisteredTokens.Set(float64(tokens))
}
