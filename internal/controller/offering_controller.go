package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lexserve/bookings/internal/domain/booking"
	"github.com/lexserve/bookings/internal/service"
)

type OfferingController struct {
	catalogService *service.CatalogService
}

func NewOfferingController(catalogService *service.CatalogService) *OfferingController {
	return &OfferingController{catalogService: catalogService}
}

// List returns the purchasable catalog, optionally filtered by kind.
func (h *OfferingController) List(w http.ResponseWriter, r *http.Request) {
	var kind *booking.Kind
	if k := booking.Kind(r.URL.Query().Get("kind")); booking.ValidKind(k) {
		kind = &k
	}

	offerings, err := h.catalogService.ListActiveOfferings(r.Context(), kind)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*OfferingResponse, 0, len(offerings))
	for _, o := range offerings {
		resp = append(resp, FromOffering(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OfferingController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOfferingRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	o, err := h.catalogService.CreateOffering(r.Context(), service.CreateOfferingRequest{
		Kind:     booking.Kind(req.Kind),
		Name:     req.Name,
		FeeCents: floatToCents(req.Fee),
		Currency: req.Currency,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromOffering(o))
}

func (h *OfferingController) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid offering id", Code: "invalid_id"})
		return
	}

	o, err := h.catalogService.DeactivateOffering(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromOffering(o))
}
