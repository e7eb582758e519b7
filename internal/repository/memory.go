package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	appErrors "github.com/unclebandit/customer-directory/internal/errors"
	"github.com/unclebandit/customer-directory/internal/model"
)

var errReadOnlyTx = errors.New("write attempted in read-only transaction")

type memState struct {
	customers   map[int64]model.Customer
	types       map[string]model.CustomerType
	phones      map[int64]model.Phone
	nextCustID  int64
	nextPhoneID int64
}

func (s *memState) clone() memState {
	out := memState{
		customers:   make(map[int64]model.Customer, len(s.customers)),
		types:       make(map[string]model.CustomerType, len(s.types)),
		phones:      make(map[int64]model.Phone, len(s.phones)),
		nextCustID:  s.nextCustID,
		nextPhoneID: s.nextPhoneID,
	}
	for k, v := range s.customers {
		out.customers[k] = v
	}
	for k, v := range s.types {
		out.types[k] = v
	}
	for k, v := range s.phones {
		out.phones[k] = v
	}
	return out
}

// MemoryStore keeps the directory in process. A coarse lock serialises
// writers and a snapshot taken at the start of RunInTx is restored when the
// callback fails, so it honours the same all-or-nothing contract as Postgres.
// It enforces the unique keys and foreign keys of the SQL schema.
type MemoryStore struct {
	mu    sync.RWMutex
	state memState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: memState{
		customers: map[int64]model.Customer{},
		types:     map[string]model.CustomerType{},
		phones:    map[int64]model.Phone{},
	}}
}

func (m *MemoryStore) stores(readOnly bool) Stores {
	return Stores{
		Customers: &memCustomers{st: &m.state, readOnly: readOnly},
		Types:     &memTypes{st: &m.state, readOnly: readOnly},
		Phones:    &memPhones{st: &m.state, readOnly: readOnly},
	}
}

func (m *MemoryStore) RunInTx(ctx context.Context, fn func(Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(m.stores(false)); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *MemoryStore) RunReadOnly(ctx context.Context, fn func(Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(m.stores(true))
}

func (m *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

// ---- customers ----

type memCustomers struct {
	st       *memState
	readOnly bool
}

func (r *memCustomers) hydrate(c model.Customer) model.Customer {
	t := r.st.types[c.CustomerTypeCode]
	c.Type = &t
	c.Phones = []model.Phone{}
	return c
}

func (r *memCustomers) checkKeys(c *model.Customer) error {
	if taken, _ := r.ExistsByNationalID(context.Background(), c.NationalID, c.ID); taken {
		return appErrors.NewDuplicateKey("customer", "nationalId", c.NationalID)
	}
	if taken, _ := r.ExistsByEmail(context.Background(), c.Email, c.ID); taken {
		return appErrors.NewDuplicateKey("customer", "email", c.Email)
	}
	if _, ok := r.st.types[c.CustomerTypeCode]; !ok {
		return appErrors.NewNotFound("customer type", "code", c.CustomerTypeCode)
	}
	return nil
}

func stripCustomer(c *model.Customer) model.Customer {
	row := *c
	row.Type = nil
	row.Phones = nil
	return row
}

func (r *memCustomers) Create(_ context.Context, c *model.Customer) error {
	if r.readOnly {
		return errReadOnlyTx
	}
	c.ID = 0
	if err := r.checkKeys(c); err != nil {
		return err
	}
	r.st.nextCustID++
	c.ID = r.st.nextCustID
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.st.customers[c.ID] = stripCustomer(c)
	return nil
}

func (r *memCustomers) Update(_ context.Context, c *model.Customer) error {
	if r.readOnly {
		return errReadOnlyTx
	}
	existing, ok := r.st.customers[c.ID]
	if !ok {
		return appErrors.NewNotFound("customer", "id", c.ID)
	}
	if err := r.checkKeys(c); err != nil {
		return err
	}
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	r.st.customers[c.ID] = stripCustomer(c)
	return nil
}

func (r *memCustomers) Delete(_ context.Context, id int64) error {
	if r.readOnly {
		return errReadOnlyTx
	}
	if _, ok := r.st.customers[id]; !ok {
		return appErrors.NewNotFound("customer", "id", id)
	}
	delete(r.st.customers, id)
	for pid, p := range r.st.phones {
		if p.CustomerID == id {
			delete(r.st.phones, pid)
		}
	}
	return nil
}

func (r *memCustomers) GetByID(_ context.Context, id int64) (*model.Customer, error) {
	c, ok := r.st.customers[id]
	if !ok {
		return nil, appErrors.NewNotFound("customer", "id", id)
	}
	out := r.hydrate(c)
	return &out, nil
}

func (r *memCustomers) find(field string, value string, match func(model.Customer) bool) (*model.Customer, error) {
	for _, c := range r.st.customers {
		if match(c) {
			out := r.hydrate(c)
			return &out, nil
		}
	}
	return nil, appErrors.NewNotFound("customer", field, value)
}

func (r *memCustomers) GetByNationalID(_ context.Context, nationalID string) (*model.Customer, error) {
	return r.find("nationalId", nationalID, func(c model.Customer) bool { return c.NationalID == nationalID })
}

func (r *memCustomers) GetByEmail(_ context.Context, email string) (*model.Customer, error) {
	return r.find("email", email, func(c model.Customer) bool { return c.Email == email })
}

func (r *memCustomers) ExistsByNationalID(_ context.Context, nationalID string, excludeID int64) (bool, error) {
	for id, c := range r.st.customers {
		if id != excludeID && c.NationalID == nationalID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memCustomers) ExistsByEmail(_ context.Context, email string, excludeID int64) (bool, error) {
	for id, c := range r.st.customers {
		if id != excludeID && c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memCustomers) collect(match func(model.Customer) bool) []model.Customer {
	out := []model.Customer{}
	for _, c := range r.st.customers {
		if match(c) {
			out = append(out, r.hydrate(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memCustomers) ListAll(_ context.Context) ([]model.Customer, error) {
	return r.collect(func(model.Customer) bool { return true }), nil
}

func (r *memCustomers) ListByType(_ context.Context, code string) ([]model.Customer, error) {
	return r.collect(func(c model.Customer) bool { return c.CustomerTypeCode == code }), nil
}

func (r *memCustomers) CountByType(_ context.Context, code string) (int, error) {
	n := 0
	for _, c := range r.st.customers {
		if c.CustomerTypeCode == code {
			n++
		}
	}
	return n, nil
}

func containsFold(s string, sub *string) bool {
	if sub == nil {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(*sub))
}

func matches(c model.Customer, f model.CustomerFilter) bool {
	if f.TypeCode != nil && c.CustomerTypeCode != *f.TypeCode {
		return false
	}
	return containsFold(c.GivenName, f.GivenName) &&
		containsFold(c.FamilyName, f.FamilyName) &&
		containsFold(c.Email, f.Email)
}

// compareCustomers orders by the sort field; ties fall back to id ascending.
func compareCustomers(a, b model.Customer, s model.Sort) bool {
	cmp := 0
	switch s.Field {
	case model.SortByNationalID:
		cmp = strings.Compare(a.NationalID, b.NationalID)
	case model.SortByGivenName:
		cmp = strings.Compare(a.GivenName, b.GivenName)
	case model.SortByFamilyName:
		cmp = strings.Compare(a.FamilyName, b.FamilyName)
	case model.SortByEmail:
		cmp = strings.Compare(a.Email, b.Email)
	case model.SortByTypeCode:
		cmp = strings.Compare(a.CustomerTypeCode, b.CustomerTypeCode)
	case model.SortByAge:
		switch {
		case a.Age == nil && b.Age == nil:
		case a.Age == nil:
			return false
		case b.Age == nil:
			return true
		default:
			cmp = *a.Age - *b.Age
		}
	default:
		cmp = int(a.ID - b.ID)
	}
	if s.Desc {
		cmp = -cmp
	}
	if cmp == 0 {
		return a.ID < b.ID
	}
	return cmp < 0
}

func (r *memCustomers) Search(_ context.Context, f model.CustomerFilter, p model.PageRequest) ([]model.Customer, int, error) {
	if _, ok := sortColumns[p.Sort.Field]; !ok {
		return nil, 0, errors.New("unsupported sort field " + string(p.Sort.Field))
	}
	matched := r.collect(func(c model.Customer) bool { return matches(c, f) })
	sort.SliceStable(matched, func(i, j int) bool { return compareCustomers(matched[i], matched[j], p.Sort) })

	total := len(matched)
	start := p.Offset()
	if start < 0 || start >= total {
		return []model.Customer{}, total, nil
	}
	end := start + p.Size
	if end > total || end < start {
		end = total
	}
	return matched[start:end], total, nil
}

// ---- customer types ----

type memTypes struct {
	st       *memState
	readOnly bool
}

func (r *memTypes) Create(_ context.Context, t *model.CustomerType) error {
	if r.readOnly {
		return errReadOnlyTx
	}
	if _, ok := r.st.types[t.Code]; ok {
		return appErrors.NewDuplicateKey("customer type", "code", t.Code)
	}
	r.st.types[t.Code] = *t
	return nil
}

func (r *memTypes) Update(_ context.Context, t *model.CustomerType) error {
	if r.readOnly {
		return errReadOnlyTx
	}
	if _, ok := r.st.types[t.Code]; !ok {
		return appErrors.NewNotFound("customer type", "code", t.Code)
	}
	r.st.types[t.Code] = *t
	return nil
}

func (r *memTypes) Delete(_ context.Context, code string) error {
	if r.readOnly {
		return errReadOnlyTx
	}
	if _, ok := r.st.types[code]; !ok {
		return appErrors.NewNotFound("customer type", "code", code)
	}
	for _, c := range r.st.customers {
		if c.CustomerTypeCode == code {
			return appErrors.NewReferentialViolation("customer type", code, nil)
		}
	}
	delete(r.st.types, code)
	return nil
}

func (r *memTypes) GetByCode(_ context.Context, code string) (*model.CustomerType, error) {
	t, ok := r.st.types[code]
	if !ok {
		return nil, appErrors.NewNotFound("customer type", "code", code)
	}
	return &t, nil
}

func (r *memTypes) Exists(_ context.Context, code string) (bool, error) {
	_, ok := r.st.types[code]
	return ok, nil
}

func (r *memTypes) ListAll(_ context.Context) ([]model.CustomerType, error) {
	out := make([]model.CustomerType, 0, len(r.st.types))
	for _, t := range r.st.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// ---- phones ----

type memPhones struct {
	st       *memState
	readOnly bool
}

func (r *memPhones) Create(_ context.Context, p *model.Phone) error {
	if r.readOnly {
		return errReadOnlyTx
	}
	if _, ok := r.st.customers[p.CustomerID]; !ok {
		return appErrors.NewNotFound("customer", "id", p.CustomerID)
	}
	r.st.nextPhoneID++
	p.ID = r.st.nextPhoneID
	r.st.phones[p.ID] = *p
	return nil
}

func (r *memPhones) DeleteByCustomer(_ context.Context, customerID int64) (int64, error) {
	if r.readOnly {
		return 0, errReadOnlyTx
	}
	var n int64
	for id, p := range r.st.phones {
		if p.CustomerID == customerID {
			delete(r.st.phones, id)
			n++
		}
	}
	return n, nil
}

func (r *memPhones) ListByCustomer(ctx context.Context, customerID int64) ([]model.Phone, error) {
	byCustomer, _ := r.ListByCustomers(ctx, []int64{customerID})
	if phones, ok := byCustomer[customerID]; ok {
		return phones, nil
	}
	return []model.Phone{}, nil
}

func (r *memPhones) ListByCustomers(_ context.Context, customerIDs []int64) (map[int64][]model.Phone, error) {
	wanted := make(map[int64]bool, len(customerIDs))
	for _, id := range customerIDs {
		wanted[id] = true
	}
	out := make(map[int64][]model.Phone, len(customerIDs))
	for _, p := range r.st.phones {
		if wanted[p.CustomerID] {
			out[p.CustomerID] = append(out[p.CustomerID], p)
		}
	}
	for id := range out {
		phones := out[id]
		sort.Slice(phones, func(i, j int) bool { return phones[i].ID < phones[j].ID })
	}
	return out, nil
}

var _ TxRunner = (*MemoryStore)(nil)
