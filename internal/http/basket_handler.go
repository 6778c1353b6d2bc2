package http

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/basket-engine/internal/basket"
	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/http/httputil"
	"github.com/hxuan190/basket-engine/internal/services/authority"
)

type BasketHandler struct {
	basketSvc *basket.Service
}

func NewBasketHandler(basketSvc *basket.Service) *BasketHandler {
	return &BasketHandler{basketSvc: basketSvc}
}

func (h *BasketHandler) Root() string {
	return "/baskets"
}

func (h *BasketHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.listBaskets)
	pub.GET("/:id", h.getBasket)
	pub.GET("/:id/records", h.getRecords)
	pub.GET("/:id/events", h.getEvents)
	pub.POST("/:id/deposit", h.deposit)
	pub.POST("/:id/withdraw", h.withdraw)

	admin.POST("", h.createBasket)
	admin.POST("/:id/tokens", h.addToken)
	admin.POST("/:id/allow-list", h.updateAllowList)
	admin.POST("/:id/verify-owner", h.verifyOwner)
}

// @Summary List baskets
// @Tags baskets
// @Produce json
// @Success 200 {array} basket.View
// @Router /api/v1/baskets [get]
func (h *BasketHandler) listBaskets(c *gin.Context) {
	views, err := h.basketSvc.Views()
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, views)
}

// @Summary Get basket
// @Description Basket record with every registered asset, vault and fee vault balances and the share supply.
// @Tags baskets
// @Produce json
// @Param id path int true "Basket id"
// @Success 200 {object} basket.View
// @Failure 404 {object} httputil.Response
// @Router /api/v1/baskets/{id} [get]
func (h *BasketHandler) getBasket(c *gin.Context) {
	id, err := basketIDParam(c)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	view, err := h.basketSvc.View(id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			httputil.HandleNotFound(c, "basket not found")
			return
		}
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, view)
}

type RecordsQuery struct {
	User string `form:"user" binding:"required"`
	Op   string `form:"op" binding:"required" enums:"deposit,withdraw"`
}

type RecordsResponse struct {
	Op      string   `json:"op"`
	Stride  int      `json:"stride"`
	Records []string `json:"records"`
}

// @Summary Build record layout
// @Description Record sequence a user submits with a deposit (5 per asset) or withdrawal (4 per asset), in registration order.
// @Tags baskets
// @Produce json
// @Param id path int true "Basket id"
// @Param user query string true "User wallet"
// @Param op query string true "deposit or withdraw" Enums(deposit, withdraw)
// @Success 200 {object} RecordsResponse
// @Router /api/v1/baskets/{id}/records [get]
func (h *BasketHandler) getRecords(c *gin.Context) {
	id, err := basketIDParam(c)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	var q RecordsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.HandleBadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	user, err := parseKey("user", q.User)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	records, err := h.basketSvc.Records(id, user, q.Op)
	if err != nil {
		if errors.Is(err, basket.ErrUnknownOperation) {
			httputil.HandleBadRequest(c, err.Error())
			return
		}
		httputil.HandleError(c, err)
		return
	}
	stride := 5
	if q.Op == "withdraw" {
		stride = 4
	}
	httputil.HandleSuccess(c, RecordsResponse{Op: q.Op, Stride: stride, Records: keyStrings(records)})
}

// @Summary List completion records
// @Tags baskets
// @Produce json
// @Param id path int true "Basket id"
// @Param user query string false "Only records of this user"
// @Success 200 {array} domain.Event
// @Router /api/v1/baskets/{id}/events [get]
func (h *BasketHandler) getEvents(c *gin.Context) {
	id, err := basketIDParam(c)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	view, err := h.basketSvc.View(id)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	var user *solana.PublicKey
	if raw := c.Query("user"); raw != "" {
		u, err := parseKey("user", raw)
		if err != nil {
			httputil.HandleError(c, err)
			return
		}
		user = &u
	}

	events := h.basketSvc.Events(func(e domain.Event) bool {
		b, ok := e.Basket()
		if !ok || !b.Equals(view.Address) {
			return false
		}
		if user == nil {
			return true
		}
		u, ok := e.User()
		return ok && u.Equals(*user)
	})
	httputil.HandleSuccess(c, events)
}

type DepositBody struct {
	User string `json:"user" binding:"required"`
	// Amounts in base units, one per registered asset in registration order.
	Amounts []string `json:"amounts"`
	// UIAmounts is the alternative to Amounts, e.g. "1.5".
	UIAmounts     []string `json:"uiAmounts"`
	ShareMint     string   `json:"shareMint"`
	MintAuthority string   `json:"mintAuthority"`
	UserShareAta  string   `json:"userShareAta"`
	AllowList     string   `json:"allowList"`
	// Records defaults to the layout derived for User.
	Records []string `json:"records"`
	SignedBody
}

// SignedBody carries the user's signature over the intent of the request,
// see authority.Intent.
type SignedBody struct {
	Nonce     uint64 `json:"nonce"`
	ExpiresAt int64  `json:"expiresAt"`
	Signature string `json:"signature"`
}

func (b SignedBody) signature() (solana.Signature, error) {
	if b.Signature == "" {
		return solana.Signature{}, authority.ErrMissingSignature
	}
	sig, err := solana.SignatureFromBase58(b.Signature)
	if err != nil {
		return solana.Signature{}, common.HTTPErrorBadRequest("invalid signature encoding")
	}
	return sig, nil
}

func (h *BasketHandler) authorize(intent *authority.Intent, body SignedBody) error {
	sig, err := body.signature()
	if err != nil {
		return err
	}
	return h.basketSvc.Authorize(intent, sig)
}

// @Summary Deposit
// @Description Deposits one amount of every asset, charges the fee and mints shares. Omitted accounts are derived.
// @Description The user signs the deposit intent (basket, amounts in base units, records, nonce, expiry) with their wallet key.
// @Tags baskets
// @Accept json
// @Produce json
// @Param id path int true "Basket id"
// @Param body body DepositBody true "Deposit"
// @Success 200 {object} engine.DepositResult
// @Failure 400 {object} httputil.Response
// @Failure 403 {object} httputil.Response
// @Failure 409 {object} httputil.Response
// @Failure 422 {object} httputil.Response
// @Router /api/v1/baskets/{id}/deposit [post]
func (h *BasketHandler) deposit(c *gin.Context) {
	id, err := basketIDParam(c)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	var body DepositBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.HandleBadRequest(c, "invalid body: "+err.Error())
		return
	}
	user, err := parseKey("user", body.User)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	amounts, err := h.depositAmounts(id, body)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	req, err := h.basketSvc.DepositRequest(id, user, amounts)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	if req.ShareMint, err = parseOptionalKey("shareMint", body.ShareMint, req.ShareMint); err != nil {
		httputil.HandleError(c, err)
		return
	}
	if req.MintAuthority, err = parseOptionalKey("mintAuthority", body.MintAuthority, req.MintAuthority); err != nil {
		httputil.HandleError(c, err)
		return
	}
	if req.UserShareAta, err = parseOptionalKey("userShareAta", body.UserShareAta, solana.PublicKey{}); err != nil {
		httputil.HandleError(c, err)
		return
	}
	allow, err := h.basketSvc.AllowListAddress(id, user)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	if allow, err = parseOptionalKey("allowList", body.AllowList, allow); err != nil {
		httputil.HandleError(c, err)
		return
	}
	req.AllowList = &allow
	if len(body.Records) > 0 {
		if req.Records, err = parseKeys("record", body.Records); err != nil {
			httputil.HandleError(c, err)
			return
		}
	}

	if err := h.authorize(h.basketSvc.DepositIntent(req, body.Nonce, body.ExpiresAt), body.SignedBody); err != nil {
		httputil.HandleError(c, err)
		return
	}

	res, err := h.basketSvc.Deposit(c.Request.Context(), req)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, res)
}

func (h *BasketHandler) depositAmounts(id uint64, body DepositBody) ([]uint64, error) {
	switch {
	case len(body.Amounts) > 0 && len(body.UIAmounts) > 0:
		return nil, common.HTTPErrorBadRequest("set either amounts or uiAmounts")
	case len(body.Amounts) > 0:
		out := make([]uint64, len(body.Amounts))
		for i, s := range body.Amounts {
			v, err := parseAmount("amount", s)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case len(body.UIAmounts) > 0:
		view, err := h.basketSvc.View(id)
		if err != nil {
			return nil, err
		}
		if len(body.UIAmounts) != len(view.Tokens) {
			return nil, domain.ErrIncompleteWithdrawal
		}
		out := make([]uint64, len(body.UIAmounts))
		for i, s := range body.UIAmounts {
			v, err := domain.ParseUnits(s, view.Tokens[i].Decimals)
			if err != nil {
				return nil, common.HTTPErrorBadRequest(err.Error())
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, common.HTTPErrorBadRequest("amounts required")
	}
}

type WithdrawBody struct {
	User           string   `json:"user" binding:"required"`
	Shares         string   `json:"shares" binding:"required"`
	ShareMint      string   `json:"shareMint"`
	VaultAuthority string   `json:"vaultAuthority"`
	UserShareAta   string   `json:"userShareAta"`
	Records        []string `json:"records"`
	SignedBody
}

// @Summary Withdraw
// @Description Burns shares and pays out the same fraction of every vault. No fee is charged.
// @Description The user signs the withdrawal intent (basket, shares, records, nonce, expiry) with their wallet key.
// @Tags baskets
// @Accept json
// @Produce json
// @Param id path int true "Basket id"
// @Param body body WithdrawBody true "Withdrawal"
// @Success 200 {object} engine.WithdrawResult
// @Failure 400 {object} httputil.Response
// @Failure 403 {object} httputil.Response
// @Failure 409 {object} httputil.Response
// @Router /api/v1/baskets/{id}/withdraw [post]
func (h *BasketHandler) withdraw(c *gin.Context) {
	id, err := basketIDParam(c)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	var body WithdrawBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.HandleBadRequest(c, "invalid body: "+err.Error())
		return
	}
	user, err := parseKey("user", body.User)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	shares, err := parseAmount("shares", body.Shares)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}

	req, err := h.basketSvc.WithdrawRequest(id, user, shares)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	if req.ShareMint, err = parseOptionalKey("shareMint", body.ShareMint, req.ShareMint); err != nil {
		httputil.HandleError(c, err)
		return
	}
	if req.VaultAuthority, err = parseOptionalKey("vaultAuthority", body.VaultAuthority, req.VaultAuthority); err != nil {
		httputil.HandleError(c, err)
		return
	}
	if req.UserShareAta, err = parseOptionalKey("userShareAta", body.UserShareAta, solana.PublicKey{}); err != nil {
		httputil.HandleError(c, err)
		return
	}
	if len(body.Records) > 0 {
		if req.Records, err = parseKeys("record", body.Records); err != nil {
			httputil.HandleError(c, err)
			return
		}
	}

	if err := h.authorize(h.basketSvc.WithdrawIntent(req, body.Nonce, body.ExpiresAt), body.SignedBody); err != nil {
		httputil.HandleError(c, err)
		return
	}

	res, err := h.basketSvc.Withdraw(c.Request.Context(), req)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.HandleSuccess(c, res)
}
