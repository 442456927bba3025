package sales

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

// Handler exposes sale endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers sale endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/sales", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Post("/{id}/returns", h.HandleReturn)
	})
}

type productPayload struct {
	ProductID          int64   `json:"productId" validate:"required"`
	Name               string  `json:"name"`
	Quantity           float64 `json:"quantity" validate:"gt=0"`
	UnitPriceBeforeTax float64 `json:"unitPriceBeforeTax" validate:"gte=0"`
	DiscountPercent    float64 `json:"discountPercent" validate:"gte=0,lte=100"`
	TaxRate            float64 `json:"taxRate" validate:"gte=0"`
	LocationID         int64   `json:"locationId"`
}

type createPayload struct {
	CustomerName    string           `json:"customerName" validate:"required"`
	CustomerGSTIN   string           `json:"customerGstin"`
	InvoiceNo       string           `json:"invoiceNo"`
	SaleDate        string           `json:"saleDate" validate:"required"`
	IsInterState    bool             `json:"isInterState"`
	Products        []productPayload `json:"products" validate:"required,min=1,dive"`
	PaymentAmount   float64          `json:"paymentAmount" validate:"gte=0"`
	PackingCharges  float64          `json:"packingCharges" validate:"gte=0"`
	ShippingCharges float64          `json:"shippingCharges" validate:"gte=0"`
	ServiceCharge   float64          `json:"serviceCharge" validate:"gte=0"`
}

// HandleCreate records a new sale.
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
	date, err := shared.ParseDate(payload.SaleDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := CreateInput{
		CustomerName:    payload.CustomerName,
		CustomerGSTIN:   payload.CustomerGSTIN,
		InvoiceNo:       payload.InvoiceNo,
		SaleDate:        date,
		IsInterState:    payload.IsInterState,
		PaymentAmount:   payload.PaymentAmount,
		PackingCharges:  payload.PackingCharges,
		ShippingCharges: payload.ShippingCharges,
		ServiceCharge:   payload.ServiceCharge,
	}
	for _, line := range payload.Products {
		input.Products = append(input.Products, Product{
			ProductID:          line.ProductID,
			Name:               line.Name,
			Quantity:           line.Quantity,
			UnitPriceBeforeTax: line.UnitPriceBeforeTax,
			DiscountPercent:    line.DiscountPercent,
			TaxRate:            line.TaxRate,
			LocationID:         line.LocationID,
		})
	}
	created, err := h.service.CreateSale(r.Context(), input)
	if err != nil {
		h.respondWriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// HandleList returns sales within ?from=&to=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	period, err := shared.NewDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	out, err := h.service.ListInRange(r.Context(), period.From, period.To)
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// HandleGet loads a sale.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	sale, err := h.service.GetSale(r.Context(), id)
	if err != nil {
		h.respondWriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
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

// HandleReturn processes a sale return with restocking.
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
	input := ReturnInput{SaleID: id}
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
	ret, err := h.service.ProcessReturn(r.Context(), input)
	if err != nil {
		h.respondWriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ret)
}

func (h *Handler) respondWriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrReturnExceedsQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("sale write", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
