// internal/controller/customer_controller.go
package controller

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/customer-directory/internal/errors"
	"github.com/unclebandit/customer-directory/internal/handler"
	"github.com/unclebandit/customer-directory/internal/model"
	"github.com/unclebandit/customer-directory/internal/service"
)

type CustomerController struct {
	CustomerService service.CustomerServiceInterface
	SearchService   service.SearchServiceInterface
	DefaultPageSize int
	Logger          *zap.Logger
}

// Routes mounts the customer endpoints under /customers.
func (c *CustomerController) Routes(r chi.Router) {
	r.Get("/", c.ListCustomers)
	r.Post("/", c.CreateCustomer)
	r.Get("/search", c.SearchCustomers)
	r.Get("/nationalId/{nationalId}", c.GetByNationalID)
	r.Get("/email/{email}", c.GetByEmail)
	r.Get("/type/{typeCode}", c.ListByType)
	r.Get("/{id}", c.GetCustomer)
	r.Put("/{id}", c.UpdateCustomer)
	r.Delete("/{id}", c.DeleteCustomer)
}

func (c *CustomerController) fail(w http.ResponseWriter, err error) {
	handler.WriteError(w, c.Logger, err)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.NewFieldValidation("id", "must be a positive integer")
	}
	return id, nil
}

// pathParam returns the decoded value of a path segment. chi matches on
// RawPath when the request carries one, so only then is the segment still
// percent-encoded.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

func (c *CustomerController) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := c.CustomerService.ListAll(r.Context())
	if err != nil {
		c.fail(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, customers)
}

func (c *CustomerController) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		c.fail(w, err)
		return
	}
	customer, err := c.CustomerService.GetByID(r.Context(), id)
	if err != nil {
		c.fail(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, customer)
}

func (c *CustomerController) GetByNationalID(w http.ResponseWriter, r *http.Request) {
	customer, err := c.CustomerService.GetByNationalID(r.Context(), pathParam(r, "nationalId"))
	if err != nil {
		c.fail(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, customer)
}

func (c *CustomerController) GetByEmail(w http.ResponseWriter, r *http.Request) {
	customer, err := c.CustomerService.GetByEmail(r.Context(), pathParam(r, "email"))
	if err != nil {
		c.fail(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, customer)
}

func (c *CustomerController) ListByType(w http.ResponseWriter, r *http.Request) {
	customers, err := c.CustomerService.ListByType(r.Context(), pathParam(r, "typeCode"))
	if err != nil {
		c.fail(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, customers)
}

func (c *CustomerController) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in model.CustomerInput
	if err := handler.DecodeJSON(r, &in); err != nil {
		c.fail(w, err)
		return
	}
	customer, err := c.CustomerService.Create(r.Context(), in)
	if err != nil {
		c.fail(w, err)
		return
	}
	w.Header().Set("Location", "/customers/"+strconv.FormatInt(customer.ID, 10))
	handler.WriteJSON(w, http.StatusCreated, customer)
}

func (c *CustomerController) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		c.fail(w, err)
		return
	}
	var in model.CustomerInput
	if err := handler.DecodeJSON(r, &in); err != nil {
		c.fail(w, err)
		return
	}
	customer, err := c.CustomerService.Update(r.Context(), id, in)
	if err != nil {
		c.fail(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, customer)
}

func (c *CustomerController) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		c.fail(w, err)
		return
	}
	if err := c.CustomerService.Delete(r.Context(), id); err != nil {
		c.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// optional treats an empty query value the same as an absent one.
func optional(q url.Values, key string) *string {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil
	}
	return &v
}

func intParam(q url.Values, key string, def int, fields map[string]string) int {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		fields[key] = "must be an integer"
		return def
	}
	return n
}

// parseSearch reads filters, paging and sort from the query string.
func (c *CustomerController) parseSearch(q url.Values) (model.CustomerFilter, model.PageRequest, error) {
	filter := model.CustomerFilter{
		GivenName:  optional(q, "name"),
		FamilyName: optional(q, "lastName"),
		Email:      optional(q, "email"),
		TypeCode:   optional(q, "typeCode"),
	}

	fields := map[string]string{}
	size := c.DefaultPageSize
	if size <= 0 {
		size = 10
	}
	req := model.PageRequest{
		Page: intParam(q, "page", 0, fields),
		Size: intParam(q, "size", size, fields),
	}
	sort, err := model.ParseSort(q.Get("sortBy"), q.Get("sortDir"))
	if err != nil {
		fields["sort"] = err.Error()
	}
	req.Sort = sort
	if len(fields) > 0 {
		return filter, req, appErrors.NewValidation(fields)
	}
	return filter, req, nil
}

func (c *CustomerController) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	filter, req, err := c.parseSearch(r.URL.Query())
	if err != nil {
		c.fail(w, err)
		return
	}
	page, err := c.SearchService.Search(r.Context(), filter, req)
	if err != nil {
		c.fail(w, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, page)
}
