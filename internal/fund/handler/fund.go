package handler

import (
	"net/http"

	"github.com/wareflow/wareflow-backend/internal/fund/repository"
	"github.com/wareflow/wareflow-backend/internal/fund/service"
	"github.com/wareflow/wareflow-backend/pkg/errors"
	"github.com/wareflow/wareflow-backend/pkg/httputil"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// FundHandler handles cash-fund endpoints
type FundHandler struct {
	fund   *service.FundService
	logger *logger.Logger
}

// NewFundHandler creates a new fund handler
func NewFundHandler(fund *service.FundService, log *logger.Logger) *FundHandler {
	return &FundHandler{
		fund:   fund,
		logger: log,
	}
}

// CreateAccount creates a new account
func (h *FundHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var input service.CreateAccountInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	account, err := h.fund.CreateAccount(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, account)
}

// ListAccounts lists all accounts
func (h *FundHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.fund.ListAccounts(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, accounts)
}

// CreateRevenueType creates a new revenue type
func (h *FundHandler) CreateRevenueType(w http.ResponseWriter, r *http.Request) {
	var input service.CreateRevenueTypeInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	revenueType, err := h.fund.CreateRevenueType(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, revenueType)
}

// ListRevenueTypes lists all revenue types
func (h *FundHandler) ListRevenueTypes(w http.ResponseWriter, r *http.Request) {
	revenueTypes, err := h.fund.ListRevenueTypes(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, revenueTypes)
}

// CreateReceipt records a receipt or payment
func (h *FundHandler) CreateReceipt(w http.ResponseWriter, r *http.Request) {
	var input service.RecordReceiptInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(input); err != nil {
		httputil.Error(w, err)
		return
	}

	receipt, err := h.fund.RecordReceipt(r.Context(), input)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, receipt)
}

// ListReceipts lists receipts with account, type and date filters
func (h *FundHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePagination(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	accountID, err := httputil.QueryInt64(r, "account_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	dates, err := httputil.ParseDateRange(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	filter := repository.ReceiptFilter{
		AccountID: accountID,
		Type:      r.URL.Query().Get("type"),
		Start:     dates.Start,
		End:       dates.End,
	}

	receipts, total, err := h.fund.ListReceipts(r.Context(), filter, page.Limit, page.Offset())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, receipts, httputil.NewMeta(page, total))
}

// Balance reconstructs an account balance at the end of a target day
func (h *FundHandler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID, err := httputil.QueryInt64(r, "account_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if accountID == 0 {
		httputil.Error(w, errors.BadRequest("account_id is required"))
		return
	}
	date, err := httputil.ParseDateParam(r, "date")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	balance, err := h.fund.BalanceAt(r.Context(), accountID, date)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"account_id": accountID,
		"date":       date.Format(httputil.DateLayout),
		"balance":    balance,
	})
}
