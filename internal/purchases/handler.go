package purchases

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ayurbooks/ayurbooks/internal/platform/httpx"
	"github.com/ayurbooks/ayurbooks/internal/shared"
)

// Handler exposes purchase endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers purchase endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/purchases", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Post("/{id}/returns", h.HandleReturn)
	})
	r.Route("/goods-received", func(r chi.Router) {
		r.Post("/", h.HandleCreateGRN)
		r.Post("/{id}/link/{purchaseId}", h.HandleLinkGRN)
	})
}

type productPayload struct {
	ProductID         int64   `json:"productId" validate:"required"`
	Name              string  `json:"name"`
	Quantity          float64 `json:"quantity" validate:"gt=0"`
	UnitCostBeforeTax float64 `json:"unitCostBeforeTax" validate:"gte=0"`
	DiscountPercent   float64 `json:"discountPercent" validate:"gte=0,lte=100"`
	TaxRate           float64 `json:"taxRate" validate:"gte=0"`
	LocationID        int64   `json:"locationId"`
}

type createPayload struct {
	SupplierID               int64            `json:"supplierId" validate:"required"`
	ReferenceNo              string           `json:"referenceNo"`
	PurchaseDate             string           `json:"purchaseDate" validate:"required"`
	Products                 []productPayload `json:"products" validate:"required,min=1,dive"`
	PaymentAmount            float64          `json:"paymentAmount" validate:"gte=0"`
	AdvanceUtilized          float64          `json:"advanceUtilized" validate:"gte=0"`
	ShippingChargesBeforeTax float64          `json:"shippingChargesBeforeTax" validate:"gte=0"`
	ShippingTaxAmount        float64          `json:"shippingTaxAmount" validate:"gte=0"`
	IsUsedForGoods           bool             `json:"isUsedForGoods"`
}

// HandleCreate records a new purchase.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := shared.ParseDate(payload.PurchaseDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := CreateInput{
		SupplierID:               payload.SupplierID,
		ReferenceNo:              payload.ReferenceNo,
		PurchaseDate:             date,
		PaymentAmount:            payload.PaymentAmount,
		AdvanceUtilized:          payload.AdvanceUtilized,
		ShippingChargesBeforeTax: payload.ShippingChargesBeforeTax,
		ShippingTaxAmount:        payload.ShippingTaxAmount,
		IsUsedForGoods:           payload.IsUsedForGoods,
	}
	for _, line := range payload.Products {
		input.Products = append(input.Products, Product{
			ProductID:         line.ProductID,
			Name:              line.Name,
			Quantity:          line.Quantity,
			UnitCostBeforeTax: line.UnitCostBeforeTax,
			DiscountPercent:   line.DiscountPercent,
			TaxRate:           line.TaxRate,
			LocationID:        line.LocationID,
		})
	}
	created, err := h.service.CreatePurchase(r.Context(), input)
	if err != nil {
		h.respondWriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// HandleList returns purchases within ?from=&to=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	period, err := shared.NewDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	out, err := h.service.ListInRange(r.Context(), period.From, period.To)
	if err != nil {
		h.logger.Error("list purchases", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// HandleGet loads a purchase.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	p, err := h.service.GetPurchase(r.Context(), id)
	if err != nil {
		h.respondWriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

type updatePayload struct {
	ReferenceNo              string           `json:"referenceNo"`
	PurchaseDate             string           `json:"purchaseDate"`
	Products                 []productPayload `json:"products" validate:"dive"`
	PaymentAmount            float64          `json:"paymentAmount" validate:"gte=0"`
	ShippingChargesBeforeTax float64          `json:"shippingChargesBeforeTax" validate:"gte=0"`
	ShippingTaxAmount        float64          `json:"shippingTaxAmount" validate:"gte=0"`
}

// HandleUpdate edits a purchase; the supplier balance moves by the due delta.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	var payload updatePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := UpdateInput{
		ID:                       id,
		ReferenceNo:              payload.ReferenceNo,
		PaymentAmount:            payload.PaymentAmount,
		ShippingChargesBeforeTax: payload.ShippingChargesBeforeTax,
		ShippingTaxAmount:        payload.ShippingTaxAmount,
	}
	if payload.PurchaseDate != "" {
		date, err := shared.ParseDate(payload.PurchaseDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		input.PurchaseDate = date
	}
	for _, line := range payload.Products {
		input.Products = append(input.Products, Product{
			ProductID:         line.ProductID,
			Name:              line.Name,
			Quantity:          line.Quantity,
			UnitCostBeforeTax: line.UnitCostBeforeTax,
			DiscountPercent:   line.DiscountPercent,
			TaxRate:           line.TaxRate,
			LocationID:        line.LocationID,
		})
	}
	updated, err := h.service.UpdatePurchase(r.Context(), input)
	if err != nil {
		h.respondWriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

type returnPayload struct {
	Date     string `json:"date"`
	Products []struct {
		ProductID      int64   `json:"productId" validate:"required"`
		ReturnQuantity float64 `json:"returnQuantity" validate:"gt=0"`
		TaxAmount      float64 `json:"taxAmount" validate:"gte=0"`
		LineTotal      float64 `json:"lineTotal" validate:"gte=0"`
		LocationID     int64   `json:"locationId"`
	} `json:"products" validate:"required,min=1,dive"`
}

// HandleReturn processes a purchase return with stock adjustments.
func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	var payload returnPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := ReturnInput{PurchaseID: id}
	if payload.Date != "" {
		date, err := shared.ParseDate(payload.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		input.Date = date
	}
	for _, line := range payload.Products {
		input.Products = append(input.Products, ReturnProduct{
			ProductID:      line.ProductID,
			ReturnQuantity: line.ReturnQuantity,
			TaxAmount:      line.TaxAmount,
			LineTotal:      line.LineTotal,
			LocationID:     line.LocationID,
		})
	}
	ret, err := h.service.ProcessReturnWithStock(r.Context(), input)
	if err != nil {
		h.respondWriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ret)
}

type grnPayload struct {
	ReceivedAt            string `json:"receivedAt"`
	LinkedPurchaseID      int64  `json:"linkedPurchaseId"`
	LinkedPurchaseOrderID int64  `json:"linkedPurchaseOrderId"`
	Products              []struct {
		ProductID        int64   `json:"productId" validate:"required"`
		ReceivedQuantity float64 `json:"receivedQuantity" validate:"gt=0"`
		UnitPrice        float64 `json:"unitPrice" validate:"gte=0"`
		LocationID       int64   `json:"locationId"`
	} `json:"products" validate:"required,min=1,dive"`
}

// HandleCreateGRN records a goods received note.
func (h *Handler) HandleCreateGRN(w http.ResponseWriter, r *http.Request) {
	var payload grnPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	grn := GoodsReceived{
		LinkedPurchaseID:      payload.LinkedPurchaseID,
		LinkedPurchaseOrderID: payload.LinkedPurchaseOrderID,
	}
	if payload.ReceivedAt != "" {
		date, err := shared.ParseDate(payload.ReceivedAt)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		grn.ReceivedAt = date
	}
	for _, line := range payload.Products {
		grn.Products = append(grn.Products, GRNProduct{
			ProductID:        line.ProductID,
			ReceivedQuantity: line.ReceivedQuantity,
			UnitPrice:        line.UnitPrice,
			LocationID:       line.LocationID,
		})
	}
	created, err := h.service.CreateGoodsReceived(r.Context(), grn)
	if err != nil {
		h.respondWriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// HandleLinkGRN links a GRN to a purchase.
func (h *Handler) HandleLinkGRN(w http.ResponseWriter, r *http.Request) {
	grnID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	purchaseID, err := strconv.ParseInt(chi.URLParam(r, "purchaseId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase id")
		return
	}
	if err := h.service.LinkGoodsReceived(r.Context(), grnID, purchaseID); err != nil {
		h.respondWriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondWriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrReturnExceedsQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("purchase write", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
