// Package api implements the JSON endpoints the quick-order UI calls.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/quickorder/internal/csvimport"
	"github.com/dukerupert/quickorder/internal/domain"
	"github.com/dukerupert/quickorder/internal/handler"
	"github.com/dukerupert/quickorder/internal/middleware"
	"github.com/dukerupert/quickorder/internal/pricing"
	"github.com/dukerupert/quickorder/internal/service"
	"github.com/dukerupert/quickorder/internal/telemetry"
)

// UploadField is the multipart field holding the CSV file.
const UploadField = "file"

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 1 << 20

// QuickOrderConfig holds the store settings the handler needs.
type QuickOrderConfig struct {
	DefaultCurrency string
	CSV             csvimport.Options
}

// QuickOrderHandler serves reconcile, upload and submit.
type QuickOrderHandler struct {
	reconciler service.ReconcileService
	checkout   service.CheckoutFlow
	cfg        QuickOrderConfig
	validate   *validator.Validate
	metrics    *telemetry.BusinessMetrics
	logger     *slog.Logger
}

// NewQuickOrderHandler creates a new quick-order handler
func NewQuickOrderHandler(
	reconciler service.ReconcileService,
	checkout service.CheckoutFlow,
	cfg QuickOrderConfig,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
) *QuickOrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuickOrderHandler{
		reconciler: reconciler,
		checkout:   checkout,
		cfg:        cfg,
		validate:   newValidator(),
		metrics:    metrics,
		logger:     logger,
	}
}

// reconcileResponse is the partition of one pass. Valid and Errors keep
// input order.
type reconcileResponse struct {
	ListID     string               `json:"list_id,omitempty"`
	Generation uint64               `json:"generation"`
	CartID     string               `json:"cart_id,omitempty"`
	Valid      []domain.OrderLine   `json:"valid"`
	Errors     []domain.LineError   `json:"errors"`
	Summary    pricing.Summary      `json:"summary"`
	RowErrors  []csvimport.RowError `json:"row_errors,omitempty"`
}

func newReconcileResponse(res *service.ReconcileResult) reconcileResponse {
	out := reconcileResponse{
		ListID:     res.Ticket.ListID,
		Generation: res.Ticket.Generation,
		CartID:     res.CartID,
		Valid:      res.Reconciliation.Valid,
		Errors:     res.Reconciliation.Errors,
		Summary:    res.Summary,
	}
	if out.Valid == nil {
		out.Valid = []domain.OrderLine{}
	}
	if out.Errors == nil {
		out.Errors = []domain.LineError{}
	}
	return out
}

type submitResponse struct {
	Reconciliation reconcileResponse     `json:"reconciliation"`
	Submitted      bool                  `json:"submitted"`
	Submission     *service.SubmitResult `json:"submission,omitempty"`
	Failures       []service.Failure     `json:"failures,omitempty"`
}

// Reconcile handles POST /api/quick-order/reconcile
//
// Validates the lines against one product search and one cart lookup and
// returns the valid and rejected partitions. A pass overtaken by a newer
// one for the same list answers 409; the client should keep the newer
// result.
func (h *QuickOrderHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var body listRequest
	if err := decodeJSON(r, h.validate, "api.reconcile", &body); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	res, err := h.reconciler.Reconcile(r.Context(), h.reconcileRequest(r, body))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if res.Stale {
		handler.ErrorResponse(w, r, service.ErrStalePass)
		return
	}

	handler.JSONResponse(w, http.StatusOK, newReconcileResponse(res))
}

// Upload handles POST /api/quick-order/upload
//
// Accepts a CSV (variant_sku, qty) in the "file" field plus optional
// list_id, cart_id and buyer form fields. Rows that cannot become lines
// are reported in row_errors; the remaining lines are reconciled.
func (h *QuickOrderHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handler.ErrorResponse(w, r, domain.Errorf(domain.ETOOLARGE, "api.upload", "The uploaded file must be at most %d bytes.", tooLarge.Limit))
			return
		}
		handler.ErrorResponse(w, r, domain.Invalid("api.upload", "Upload must be multipart form data."))
		return
	}
	defer r.MultipartForm.RemoveAll()

	buyer, err := h.formBuyer(r)
	if err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	file, _, err := r.FormFile(UploadField)
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("api.upload", "Attach a CSV file in the \"file\" field."))
		return
	}
	defer file.Close()

	lines, rowErrors, err := csvimport.Parse(file, h.cfg.CSV)
	if err != nil {
		h.metrics.RecordUpload("rejected", 0)
		handler.ErrorResponse(w, r, err)
		return
	}
	h.metrics.RecordUpload("accepted", len(rowErrors))

	listID := strings.TrimSpace(r.FormValue("list_id"))
	cartID := strings.TrimSpace(r.FormValue("cart_id"))

	if len(lines) == 0 {
		// Every row failed to parse; the row errors are the whole answer.
		middleware.GetLogger(r.Context(), h.logger).Info("csv upload produced no lines", "row_errors", len(rowErrors))
		handler.JSONResponse(w, http.StatusOK, reconcileResponse{
			ListID:    listID,
			CartID:    cartID,
			Valid:     []domain.OrderLine{},
			Errors:    []domain.LineError{},
			RowErrors: rowErrors,
		})
		return
	}

	res, err := h.reconciler.Reconcile(r.Context(), service.ReconcileRequest{
		ListID: listID,
		CartID: cartID,
		Buyer:  buyer,
		Source: domain.LineSourceCSV,
		Lines:  lines,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if res.Stale {
		handler.ErrorResponse(w, r, service.ErrStalePass)
		return
	}

	out := newReconcileResponse(res)
	out.RowErrors = rowErrors
	handler.JSONResponse(w, http.StatusOK, out)
}

// Submit handles POST /api/quick-order/submit
//
// Reconciles the lines and adds the valid subset to the cart in one
// request. Platform rejections come back as failures with submitted=false;
// the caller decides whether to fix and resubmit.
func (h *QuickOrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var body listRequest
	if err := decodeJSON(r, h.validate, "api.submit", &body); err != nil {
		handler.ValidationErrorResponse(w, r, err)
		return
	}

	res, err := h.checkout.ReconcileAndSubmit(r.Context(), h.reconcileRequest(r, body))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	out := submitResponse{
		Reconciliation: newReconcileResponse(res.Reconcile),
		Submitted:      res.Submitted(),
		Submission:     res.Submission,
		Failures:       res.Failures,
	}
	if res.Submitted() {
		out.Reconciliation.CartID = res.Submission.CartID
	}

	handler.JSONResponse(w, http.StatusOK, out)
}

// reconcileRequest builds the service request. A buyer in the body wins
// over the one resolved from headers.
func (h *QuickOrderHandler) reconcileRequest(r *http.Request, body listRequest) service.ReconcileRequest {
	buyer := domain.BuyerOrDefault(r.Context(), h.cfg.DefaultCurrency)
	if body.Buyer != nil {
		buyer = domain.Buyer{
			CompanyID:       body.Buyer.CompanyID,
			CustomerGroupID: body.Buyer.CustomerGroupID,
			CurrencyCode:    strings.ToUpper(body.Buyer.CurrencyCode),
		}
		if buyer.CurrencyCode == "" {
			buyer.CurrencyCode = h.cfg.DefaultCurrency
		}
	}

	return service.ReconcileRequest{
		ListID: body.ListID,
		CartID: body.CartID,
		Buyer:  buyer,
		Source: body.source(),
		Lines:  body.orderLines(),
	}
}

// formBuyer reads the buyer from upload form fields, falling back to the
// header-resolved buyer for fields that are absent.
func (h *QuickOrderHandler) formBuyer(r *http.Request) (domain.Buyer, error) {
	buyer := domain.BuyerOrDefault(r.Context(), h.cfg.DefaultCurrency)

	var verr error
	if id, ok, err := formID(r, "company_id"); err != nil {
		verr = domain.AddFieldError(verr, "company_id", "company_id must be 0 or greater")
	} else if ok {
		buyer.CompanyID = id
	}
	if id, ok, err := formID(r, "customer_group_id"); err != nil {
		verr = domain.AddFieldError(verr, "customer_group_id", "customer_group_id must be 0 or greater")
	} else if ok {
		buyer.CustomerGroupID = id
	}
	if currency := strings.TrimSpace(r.FormValue("currency_code")); currency != "" {
		if len(currency) != 3 {
			verr = domain.AddFieldError(verr, "currency_code", "currency_code must be exactly 3 characters")
		} else {
			buyer.CurrencyCode = strings.ToUpper(currency)
		}
	}

	return buyer, verr
}

func formID(r *http.Request, name string) (int64, bool, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, err
	}
	if id < 0 {
		return 0, false, strconv.ErrRange
	}
	return id, true, nil
}
