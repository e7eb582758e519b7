// internal/handler/customer_type_handler.go
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/customer-directory/internal/model"
	"github.com/unclebandit/customer-directory/internal/service"
)

// CustomerTypeHandler serves the customer type catalog.
type CustomerTypeHandler struct {
	Service service.CustomerTypeServiceInterface
	Logger  *zap.Logger
}

func NewCustomerTypeHandler(svc service.CustomerTypeServiceInterface, logger *zap.Logger) *CustomerTypeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerTypeHandler{Service: svc, Logger: logger}
}

// Routes mounts the catalog under /customer-types.
func (h *CustomerTypeHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{code}", h.Get)
	r.Put("/{code}", h.Update)
	r.Delete("/{code}", h.Delete)
}

func (h *CustomerTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	types, err := h.Service.List(r.Context())
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, types)
}

func (h *CustomerTypeHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.Service.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, t)
}

func (h *CustomerTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.CustomerTypeInput
	if err := DecodeJSON(r, &in); err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	t, err := h.Service.Create(r.Context(), in)
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, t)
}

func (h *CustomerTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in model.CustomerTypeInput
	if err := DecodeJSON(r, &in); err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	t, err := h.Service.Update(r.Context(), chi.URLParam(r, "code"), in)
	if err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, t)
}

func (h *CustomerTypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		WriteError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
