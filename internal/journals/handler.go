package journals

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ayurbooks/ayurbooks/internal/ledger"
	"github.com/ayurbooks/ayurbooks/internal/platform/httpx"
	"github.com/ayurbooks/ayurbooks/internal/shared"
)

// Handler exposes journal CRUD endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers journal endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/journals", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

type itemPayload struct {
	AccountID   int64   `json:"accountId"`
	AccountType string  `json:"accountType" validate:"required,oneof=account income_category expense_category tax_rate"`
	HeadGroup   string  `json:"headGroup"`
	HeadValue   string  `json:"headValue"`
	Debit       float64 `json:"debit" validate:"gte=0"`
	Credit      float64 `json:"credit" validate:"gte=0"`
}

type journalPayload struct {
	Date                 string        `json:"date" validate:"required"`
	Reference            string        `json:"reference"`
	Description          string        `json:"description"`
	IsCapitalTransaction bool          `json:"isCapitalTransaction"`
	Items                []itemPayload `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) decode(r *http.Request) (Journal, error) {
	var payload journalPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		return Journal{}, err
	}
	if err := h.validate.Struct(payload); err != nil {
		return Journal{}, err
	}
	date, err := shared.ParseDate(payload.Date)
	if err != nil {
		return Journal{}, err
	}
	j := Journal{
		Date:                 date,
		Reference:            payload.Reference,
		Description:          payload.Description,
		IsCapitalTransaction: payload.IsCapitalTransaction,
	}
	for _, item := range payload.Items {
		j.Items = append(j.Items, Item{
			AccountID:   item.AccountID,
			AccountType: ItemType(item.AccountType),
			AccountHead: ledger.AccountHead{Group: item.HeadGroup, Value: item.HeadValue},
			Debit:       item.Debit,
			Credit:      item.Credit,
		})
	}
	return j, nil
}

// HandleList returns journals within ?from=&to=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	period, err := shared.NewDateRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	journals, err := h.service.ListInRange(r.Context(), period.From, period.To)
	if err != nil {
		h.logger.Error("list journals", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, journals)
}

// HandleGet returns one journal.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	j, err := h.service.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		return
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, j)
}

// HandleCreate saves a new journal.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	j, err := h.decode(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), j)
	if err != nil {
		h.respondWriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// HandleUpdate rewrites an existing journal.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	j, err := h.decode(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	j.ID = id
	updated, err := h.service.Update(r.Context(), j)
	if err != nil {
		h.respondWriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// HandleDelete removes a journal and its derived transactions.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondWriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondWriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnbalanced), errors.Is(err, ErrNoItems):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrDuplicateReference):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("journal write", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
