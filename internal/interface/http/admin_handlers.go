package http

import (
	"fmt"
	"net/http"

	dompurchase "github.com/SebasTaclar/appstorepro-back/internal/domain/purchase"
	"github.com/SebasTaclar/appstorepro-back/internal/infra/cache"
	reportuc "github.com/SebasTaclar/appstorepro-back/internal/usecase/report"
)

func (a *API) handleBackup(w http.ResponseWriter, r *http.Request) {
	data, err := a.reportSvc.GenerateBackupData(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	purchases := make([]map[string]any, 0, len(data.Purchases))
	for _, v := range data.Purchases {
		purchases = append(purchases, mapPurchaseView(v))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"statistics": map[string]any{
			"total_purchases":      data.TotalPurchases,
			"counts_by_status":     data.CountsByStatus,
			"revenue_cents":        data.RevenueCents,
			"unique_products_sold": data.UniqueProductsSold,
		},
		"purchases": purchases,
	})
}

func (a *API) handleResendEmail(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.reportSvc.ResendEmailForPurchase(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

type updatePurchaseRequest struct {
	Email         *string `json:"email,omitempty"`
	FullName      *string `json:"full_name,omitempty"`
	ContactNumber *string `json:"contact_number,omitempty"`
}

func (a *API) handleUpdatePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var req updatePurchaseRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	p, err := a.reportSvc.UpdatePurchase(r.Context(), id, dompurchase.BuyerPatch{
		Email:         req.Email,
		FullName:      req.FullName,
		ContactNumber: req.ContactNumber,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapPurchase(p))
}

type updateOrderStatusRequest struct {
	OrderStatus string `json:"order_status" validate:"required"`
}

func (a *API) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var req updateOrderStatusRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	p, err := a.reportSvc.UpdateOrderStatus(r.Context(), id, dompurchase.OrderStatus(req.OrderStatus))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	// The storefront status poll caches order_status too.
	_ = a.cache.Delete(r.Context(), fmt.Sprintf(cache.KeyPurchaseStatus, id))
	writeJSON(w, http.StatusOK, mapPurchase(p))
}

func (a *API) handleGetOrderDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	d, err := a.reportSvc.GetOrderDetail(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderDetail(d))
}

type updateOrderDetailRequest struct {
	Quantity      *int64  `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	SelectedColor *string `json:"selected_color,omitempty"`
}

func (a *API) handleUpdateOrderDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var req updateOrderDetailRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	d, err := a.reportSvc.UpdateOrderDetail(r.Context(), id, reportuc.OrderDetailPatch{
		Quantity:      req.Quantity,
		SelectedColor: req.SelectedColor,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderDetail(d))
}

func (a *API) handleDeleteOrderDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.reportSvc.DeleteOrderDetail(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
