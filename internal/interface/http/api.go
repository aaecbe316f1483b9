package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	domdetail "github.com/SebasTaclar/appstorepro-back/internal/domain/orderdetail"
	domproduct "github.com/SebasTaclar/appstorepro-back/internal/domain/product"
	dompurchase "github.com/SebasTaclar/appstorepro-back/internal/domain/purchase"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/cache"
	authuc "github.com/SebasTaclar/appstorepro-back/internal/usecase/auth"
	purchaseuc "github.com/SebasTaclar/appstorepro-back/internal/usecase/purchase"
	reconcileuc "github.com/SebasTaclar/appstorepro-back/internal/usecase/reconcile"
	reportuc "github.com/SebasTaclar/appstorepro-back/internal/usecase/report"
)

// WebhookVerifier checks the gateway event checksum before any processing.
type WebhookVerifier interface {
	VerifyEventChecksum(properties []string, timestamp int64, checksum string) bool
}

type API struct {
	authSvc      *authuc.Service
	purchaseSvc  *purchaseuc.Service
	reconcileSvc *reconcileuc.Service
	reportSvc    *reportuc.Service
	verifier     WebhookVerifier
	cache        cache.Cache
	tokenSvc     authuc.TokenService
	validator    *validator.Validate
}

type Dependencies struct {
	AuthService      *authuc.Service
	PurchaseService  *purchaseuc.Service
	ReconcileService *reconcileuc.Service
	ReportService    *reportuc.Service
	WebhookVerifier  WebhookVerifier
	Cache            cache.Cache
	TokenService     authuc.TokenService
}

func NewAPI(deps Dependencies) *API {
	return &API{
		authSvc:      deps.AuthService,
		purchaseSvc:  deps.PurchaseService,
		reconcileSvc: deps.ReconcileService,
		reportSvc:    deps.ReportService,
		verifier:     deps.WebhookVerifier,
		cache:        deps.Cache,
		tokenSvc:     deps.TokenService,
		validator:    validator.New(),
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(15 * time.Second))
	r.Use(chimw.AllowContentType("application/json", "text/plain"))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", a.handleLogin)

		r.Post("/purchases", a.handleCreatePurchase)
		r.Get("/purchases", a.handlePurchasesByEmail)
		r.Get("/purchases/{id}/status", a.handlePurchaseStatus)

		r.Post("/webhooks/wompi", a.handleWompiWebhook)

		r.Group(func(ar chi.Router) {
			ar.Use(a.authMiddleware)
			ar.Use(a.requireAdmin)

			ar.Route("/admin", func(admin chi.Router) {
				admin.Get("/backup", a.handleBackup)
				admin.Post("/purchases/{id}/resend-email", a.handleResendEmail)
				admin.Patch("/purchases/{id}", a.handleUpdatePurchase)
				admin.Patch("/purchases/{id}/order-status", a.handleUpdateOrderStatus)

				admin.Route("/order-details", func(od chi.Router) {
					od.Get("/{id}", a.handleGetOrderDetail)
					od.Patch("/{id}", a.handleUpdateOrderDetail)
					od.Delete("/{id}", a.handleDeleteOrderDetail)
				})
			})
		})
	})

	return r
}

func (a *API) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return a.validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseIDParam(r *http.Request, key string) (int64, error) {
	idStr := chi.URLParam(r, key)
	return strconv.ParseInt(idStr, 10, 64)
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dompurchase.ErrValidation),
		errors.Is(err, dompurchase.ErrInvalidStatus),
		errors.Is(err, dompurchase.ErrInvalidOrderStatus),
		errors.Is(err, dompurchase.ErrEmailNotAllowed),
		errors.Is(err, domdetail.ErrInvalidQuantity),
		errors.Is(err, domproduct.ErrProductUnavailable):
		respondError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, dompurchase.ErrPurchaseNotFound),
		errors.Is(err, domproduct.ErrProductNotFound),
		errors.Is(err, domdetail.ErrOrderDetailNotFound):
		respondError(w, http.StatusNotFound, err)
	case errors.Is(err, authuc.ErrInvalidCredential):
		respondError(w, http.StatusUnauthorized, err)
	default:
		respondError(w, http.StatusInternalServerError, err)
	}
}

func mapPurchase(p *dompurchase.Purchase) map[string]any {
	return map[string]any{
		"id":                    p.ID,
		"email":                 p.Email,
		"full_name":             p.FullName,
		"identification_number": p.IdentificationNumber,
		"contact_number":        p.ContactNumber,
		"shipping_address":      p.ShippingAddress,
		"status":                p.Status,
		"order_status":          p.OrderStatus,
		"amount_cents":          p.AmountCents,
		"currency":              p.Currency,
		"payment_provider":      p.PaymentProvider,
		"external_reference":    p.ExternalReference,
		"wompi_transaction_id":  p.WompiTransactionID,
		"created_at":            p.CreatedAt,
		"updated_at":            p.UpdatedAt,
	}
}

func mapPurchaseView(v reportuc.PurchaseView) map[string]any {
	out := mapPurchase(v.Purchase)
	items := make([]map[string]any, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, map[string]any{
			"id":             it.DetailID,
			"product_id":     it.ProductID,
			"product_name":   it.ProductName,
			"quantity":       it.Quantity,
			"unit_price":     it.UnitPrice,
			"total_price":    it.TotalPrice,
			"selected_color": it.SelectedColor,
		})
	}
	out["items"] = items
	return out
}

func mapOrderDetail(d *domdetail.OrderDetail) map[string]any {
	return map[string]any{
		"id":             d.ID,
		"purchase_id":    d.PurchaseID,
		"product_id":     d.ProductID,
		"quantity":       d.Quantity,
		"unit_price":     d.UnitPrice,
		"total_price":    d.TotalPrice,
		"selected_color": d.SelectedColor,
		"created_at":     d.CreatedAt,
	}
}
