package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/basket-engine/internal/basket"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/http/httputil"
)

// AccountHandler serves ledger balances and, on the admin group, the dev
// faucet used to seed mints and user accounts.
type AccountHandler struct {
	basketSvc *basket.Service
}

func NewAccountHandler(basketSvc *basket.Service) *AccountHandler {
	return &AccountHandler{basketSvc: basketSvc}
}

func (h *AccountHandler) Root() string {
	return "/accounts"
}

func (h *AccountHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getBalance)
	admin.POST("/mints", h.createMint)
	admin.POST("", h.openAccount)
	admin.POST("/credit", h.credit)
}

type BalanceResponse struct {
	Owner    string `json:"owner"`
	Mint     string `json:"mint"`
	Amount   uint64 `json:"amount"`
	AmountUI string `json:"amountUi"`
}

// @Summary Get balance
// @Tags accounts
// @Produce json
// @Param user query string true "Owner wallet"
// @Param mint query string true "Mint"
// @Success 200 {object} BalanceResponse
// @Router /api/v1/accounts [get]
func (h *AccountHandler) getBalance(c *gin.Context) {
	user, err := parseKey("user", c.Query("user"))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	mint, err := parseKey("mint", c.Query("mint"))
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	m, err := h.basketSvc.Ledger().Mint(mint)
	if err != nil {
		httputil.HandleNotFound(c, "mint not found")
		return
	}
	amount, err := h.basketSvc.Balance(user, mint)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, BalanceResponse{
		Owner:    user.String(),
		Mint:     mint.String(),
		Amount:   amount,
		AmountUI: domain.FormatUnits(amount, m.Decimals),
	})
}

type CreateMintBody struct {
	Decimals  uint8  `json:"decimals"`
	Authority string `json:"authority" binding:"required"`
}

// @Summary Create mint
// @Tags admin
// @Accept json
// @Produce json
// @Param body body CreateMintBody true "Mint"
// @Success 200 {object} map[string]string
// @Router /api/v1/admin/accounts/mints [post]
func (h *AccountHandler) createMint(c *gin.Context) {
	var body CreateMintBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.HandleBadRequest(c, "invalid body: "+err.Error())
		return
	}
	authority, err := parseKey("authority", body.Authority)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	mint, err := h.basketSvc.CreateMint(body.Decimals, authority)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, gin.H{"mint": mint.String()})
}

type OpenAccountBody struct {
	Owner string `json:"owner" binding:"required"`
	Mint  string `json:"mint" binding:"required"`
}

// @Summary Open associated account
// @Tags admin
// @Accept json
// @Produce json
// @Param body body OpenAccountBody true "Account"
// @Success 200 {object} map[string]string
// @Router /api/v1/admin/accounts [post]
func (h *AccountHandler) openAccount(c *gin.Context) {
	var body OpenAccountBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.HandleBadRequest(c, "invalid body: "+err.Error())
		return
	}
	owner, err := parseKey("owner", body.Owner)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	mint, err := parseKey("mint", body.Mint)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	ata, err := h.basketSvc.OpenAccount(owner, mint)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, gin.H{"account": ata.String()})
}

type CreditBody struct {
	Owner  string `json:"owner" binding:"required"`
	Mint   string `json:"mint" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// @Summary Credit account (dev faucet)
// @Tags admin
// @Accept json
// @Produce json
// @Param body body CreditBody true "Credit"
// @Success 200 {object} domain.TokenAccount
// @Router /api/v1/admin/accounts/credit [post]
func (h *AccountHandler) credit(c *gin.Context) {
	var body CreditBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.HandleBadRequest(c, "invalid body: "+err.Error())
		return
	}
	owner, err := parseKey("owner", body.Owner)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	mint, err := parseKey("mint", body.Mint)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	amount, err := parseAmount("amount", body.Amount)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	acct, err := h.basketSvc.Credit(owner, mint, amount)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, acct)
}
