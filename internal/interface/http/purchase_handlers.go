package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/SebasTaclar/appstorepro-back/internal/infra/cache"
	purchaseuc "github.com/SebasTaclar/appstorepro-back/internal/usecase/purchase"
)

var errMissingEmail = errors.New("email query parameter is required")

type cartItemRequest struct {
	ProductID     int64  `json:"product_id" validate:"required,gt=0"`
	Quantity      int64  `json:"quantity" validate:"required,gt=0"`
	SelectedColor string `json:"selected_color,omitempty"`
}

type createPurchaseRequest struct {
	Email                string            `json:"email" validate:"required"`
	FullName             string            `json:"full_name" validate:"required"`
	IdentificationNumber string            `json:"identification_number" validate:"required"`
	ContactNumber        string            `json:"contact_number" validate:"required"`
	ShippingAddress      string            `json:"shipping_address,omitempty"`
	Items                []cartItemRequest `json:"items" validate:"required,dive"`
}

func (a *API) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req createPurchaseRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	items := make([]purchaseuc.CartItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, purchaseuc.CartItem{
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			SelectedColor: it.SelectedColor,
		})
	}

	result, err := a.purchaseSvc.CreatePurchase(r.Context(), purchaseuc.CreatePurchaseInput{
		Email:                req.Email,
		FullName:             req.FullName,
		IdentificationNumber: req.IdentificationNumber,
		ContactNumber:        req.ContactNumber,
		ShippingAddress:      req.ShippingAddress,
		Items:                items,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respItems := make([]map[string]any, 0, len(result.Items))
	for _, it := range result.Items {
		respItems = append(respItems, map[string]any{
			"product_id":     it.ProductID,
			"product_name":   it.ProductName,
			"quantity":       it.Quantity,
			"unit_price":     it.UnitPrice,
			"total_price":    it.TotalPrice,
			"selected_color": it.SelectedColor,
		})
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"purchase_id":        result.PurchaseID,
		"transaction_id":     result.TransactionID,
		"payment_url":        result.PaymentURL,
		"external_reference": result.Reference,
		"amount_cents":       result.AmountCents,
		"currency":           result.Currency,
		"total":              result.Total,
		"items":              respItems,
	})
}

func (a *API) handlePurchasesByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		respondError(w, http.StatusBadRequest, errMissingEmail)
		return
	}

	views, err := a.reportSvc.GetPurchasesByEmail(r.Context(), email)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	resp := make([]map[string]any, 0, len(views))
	for _, v := range views {
		resp = append(resp, mapPurchaseView(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": resp})
}

type purchaseStatusBody struct {
	Status      string `json:"status"`
	OrderStatus string `json:"order_status"`
}

// handlePurchaseStatus serves the storefront's checkout-result poll. The
// status is cached briefly; the database stays the source of truth.
func (a *API) handlePurchaseStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	key := fmt.Sprintf(cache.KeyPurchaseStatus, id)
	if s, err := a.cache.Get(r.Context(), key); err == nil && s != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s))
		return
	}

	view, err := a.reportSvc.GetPurchase(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	body, _ := json.Marshal(purchaseStatusBody{
		Status:      string(view.Purchase.Status),
		OrderStatus: string(view.Purchase.OrderStatus),
	})
	_ = a.cache.Set(r.Context(), key, string(body), cache.TTLStatusCache)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
