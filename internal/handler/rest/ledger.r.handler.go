package hrest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/internal/usecase"
	"ledger-service/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
)

type LedgerRestHandler struct {
	postingUC *usecase.PostingUsecase
	reportUC  *usecase.ReportUsecase
}

func NewLedgerRestHandler(
	postingUC *usecase.PostingUsecase,
	reportUC *usecase.ReportUsecase,
) *LedgerRestHandler {
	return &LedgerRestHandler{
		postingUC: postingUC,
		reportUC:  reportUC,
	}
}

type PostingJSON struct {
	Scope       string          `json:"scope"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	OccurredOn  string          `json:"occurred_on"` // 2006-01-02
	RefType     string          `json:"ref_type"`
	RefID       string          `json:"ref_id"`
	CreatedBy   string          `json:"created_by"`
}

func (h *LedgerRestHandler) CreatePosting(w http.ResponseWriter, r *http.Request) {
	var in PostingJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	occurredOn := time.Now()
	if in.OccurredOn != "" {
		parsed, err := time.Parse("2006-01-02", in.OccurredOn)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "invalid occurred_on, expected YYYY-MM-DD")
			return
		}
		occurredOn = parsed
	}

	req := &domain.PostingRequest{
		Scope:       domain.Scope(in.Scope),
		Kind:        domain.TransactionKind(in.Kind),
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		OccurredOn:  occurredOn,
		CreatedBy:   in.CreatedBy,
	}
	if in.RefType != "" && in.RefID != "" {
		req.BusinessRef = &domain.BusinessReference{Type: in.RefType, ID: in.RefID}
	}

	result, err := h.postingUC.Post(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, result)
}

func (h *LedgerRestHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	scope := domain.Scope(chi.URLParam(r, "scope"))
	balance, err := h.postingUC.GetBalance(r.Context(), scope)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"scope":   scope,
		"balance": balance,
	})
}

func (h *LedgerRestHandler) GetBalanceAsOf(w http.ResponseWriter, r *http.Request) {
	scope := domain.Scope(chi.URLParam(r, "scope"))
	at, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	balance, err := h.reportUC.BalanceAsOf(r.Context(), scope, at)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"scope":   scope,
		"date":    at.Format("2006-01-02"),
		"balance": balance,
	})
}

func (h *LedgerRestHandler) GetMonthlyReport(w http.ResponseWriter, r *http.Request) {
	scope := domain.Scope(r.URL.Query().Get("scope"))
	month, err := time.Parse("2006-01", r.URL.Query().Get("month"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid month, expected YYYY-MM")
		return
	}
	report, err := h.reportUC.MonthlyReport(r.Context(), scope, month.Year(), month.Month())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, report)
}

func (h *LedgerRestHandler) GetAccountSummary(w http.ResponseWriter, r *http.Request) {
	scope := domain.Scope(r.URL.Query().Get("scope"))
	summary, err := h.reportUC.AccountSummary(r.Context(), scope)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, summary)
}

func (h *LedgerRestHandler) GetCategoryTotals(w http.ResponseWriter, r *http.Request) {
	scope := domain.Scope(r.URL.Query().Get("scope"))
	from, to, err := parsePeriod(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	totals, err := h.reportUC.CategoryTotals(r.Context(), scope, from, to)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, totals)
}

func (h *LedgerRestHandler) GetVoucherTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.reportUC.VoucherTotals(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, totals)
}

func (h *LedgerRestHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := &domain.TransactionFilter{}
	q := r.URL.Query()
	if s := q.Get("scope"); s != "" {
		scope := domain.Scope(s)
		filter.Scope = &scope
	}
	if k := q.Get("kind"); k != "" {
		kind := domain.TransactionKind(k)
		filter.Kind = &kind
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "invalid from, expected YYYY-MM-DD")
			return
		}
		filter.From = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "invalid to, expected YYYY-MM-DD")
			return
		}
		filter.To = &t
	}
	filter.Limit = parseIntQuery(q.Get("limit"))
	filter.Offset = parseIntQuery(q.Get("offset"))

	txns, err := h.reportUC.ListTransactions(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, txns)
}

func (h *LedgerRestHandler) ListVouchers(w http.ResponseWriter, r *http.Request) {
	filter := &domain.VoucherFilter{}
	q := r.URL.Query()
	if t := q.Get("type"); t != "" {
		vt := domain.VoucherType(t)
		filter.Type = &vt
	}
	if s := q.Get("source_scope"); s != "" {
		scope := domain.Scope(s)
		filter.SourceScope = &scope
	}
	if d := q.Get("date"); d != "" {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		filter.Date = &t
	}
	filter.Limit = parseIntQuery(q.Get("limit"))
	filter.Offset = parseIntQuery(q.Get("offset"))

	vouchers, err := h.reportUC.ListVouchers(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, vouchers)
}

func (h *LedgerRestHandler) FindByReference(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope := domain.Scope(q.Get("scope"))
	txn, err := h.postingUC.FindByBusinessReference(r.Context(), scope, q.Get("ref_type"), q.Get("ref_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, txn)
}

func (h *LedgerRestHandler) registerRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Post("/postings", h.CreatePosting)
		r.Get("/balances/{scope}", h.GetBalance)
		r.Get("/balances/{scope}/asof", h.GetBalanceAsOf)
		r.Get("/reports/monthly", h.GetMonthlyReport)
		r.Get("/reports/summary", h.GetAccountSummary)
		r.Get("/reports/categories", h.GetCategoryTotals)
		r.Get("/reports/vouchers", h.GetVoucherTotals)
		r.Get("/transactions", h.ListTransactions)
		r.Get("/transactions/by-ref", h.FindByReference)
		r.Get("/vouchers", h.ListVouchers)
	})
}

// Handler builds the full routed handler. Exposed for httptest.
func (h *LedgerRestHandler) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	h.registerRoutes(r)
	return r
}

func (h *LedgerRestHandler) Start(addr string) {
	server := &http.Server{
		Addr:    addr,
		Handler: h.Handler(),
	}

	log.Printf("🚀 Ledger REST service running on %s", addr)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("failed to start server: %v", err)
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		response.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicateReference):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnknownScope),
		errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrAmountNotPositive),
		errors.Is(err, domain.ErrAmountPrecision),
		errors.Is(err, domain.ErrMissingDate):
		response.Error(w, http.StatusBadRequest, err.Error())
	default:
		response.Error(w, http.StatusInternalServerError, err.Error())
	}
}

func parsePeriod(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid from, expected YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid to, expected YYYY-MM-DD")
	}
	return from, to, nil
}

func parseIntQuery(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
