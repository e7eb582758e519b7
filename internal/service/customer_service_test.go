package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	appErrors "github.com/unclebandit/customer-directory/internal/errors"
	"github.com/unclebandit/customer-directory/internal/model"
	"github.com/unclebandit/customer-directory/internal/repository"
	"github.com/unclebandit/customer-directory/internal/service"
)

func phones(numbers ...string) *[]string {
	return &numbers
}

func intPtr(v int) *int { return &v }

func juan() model.CustomerInput {
	return model.CustomerInput{
		NationalID:       "11.111.111-1",
		GivenName:        "Juan",
		FamilyName:       "Perez",
		Email:            "juan@x.com",
		CustomerTypeCode: "VIP",
	}
}

type CustomerServiceSuite struct {
	suite.Suite
	ctx   context.Context
	store *repository.MemoryStore
	svc   *service.CustomerService
	types *service.CustomerTypeService
}

func (s *CustomerServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = repository.NewMemoryStore()
	s.svc = service.NewCustomerService(s.store)
	s.types = service.NewCustomerTypeService(s.store)

	_, err := s.types.Create(s.ctx, model.CustomerTypeInput{Code: "VIP", Description: "VIP customer"})
	s.Require().NoError(err)
	_, err = s.types.Create(s.ctx, model.CustomerTypeInput{Code: "REG", Description: "Regular customer"})
	s.Require().NoError(err)
}

func TestCustomerServiceSuite(t *testing.T) {
	suite.Run(t, new(CustomerServiceSuite))
}

func (s *CustomerServiceSuite) count() int {
	all, err := s.svc.ListAll(s.ctx)
	s.Require().NoError(err)
	return len(all)
}

func (s *CustomerServiceSuite) TestCreateHydratesCustomer() {
	in := juan()
	in.Age = intPtr(30)
	in.Phones = phones("+56 9 1111")

	c, err := s.svc.Create(s.ctx, in)
	s.Require().NoError(err)

	s.NotZero(c.ID)
	s.Require().NotNil(c.Type)
	s.Equal("VIP customer", c.Type.Description)
	s.Require().Len(c.Phones, 1)
	s.Equal("+56 9 1111", c.Phones[0].Number)
	s.Equal(model.PhoneKindMobile, c.Phones[0].Kind)
	s.False(c.Phones[0].IsPrimary)
}

func (s *CustomerServiceSuite) TestCreateWithoutPhonesHasEmptyCollection() {
	c, err := s.svc.Create(s.ctx, juan())
	s.Require().NoError(err)
	s.NotNil(c.Phones)
	s.Empty(c.Phones)
}

func (s *CustomerServiceSuite) TestCreateDuplicateNationalID() {
	_, err := s.svc.Create(s.ctx, juan())
	s.Require().NoError(err)

	again := juan()
	again.Email = "other@x.com"
	_, err = s.svc.Create(s.ctx, again)
	s.ErrorIs(err, appErrors.ErrDuplicateKey)
	s.Contains(err.Error(), "nationalId")
	s.Equal(1, s.count())
}

func (s *CustomerServiceSuite) TestCreateDuplicateEmail() {
	_, err := s.svc.Create(s.ctx, juan())
	s.Require().NoError(err)

	again := juan()
	again.NationalID = "22.222.222-2"
	_, err = s.svc.Create(s.ctx, again)
	s.ErrorIs(err, appErrors.ErrDuplicateKey)
	s.Contains(err.Error(), "email")
}

func (s *CustomerServiceSuite) TestCreateReportsNationalIDBeforeEmailAndType() {
	_, err := s.svc.Create(s.ctx, juan())
	s.Require().NoError(err)

	// every check fails; the nationalId conflict wins
	again := juan()
	again.CustomerTypeCode = "NOPE"
	_, err = s.svc.Create(s.ctx, again)
	var ae *appErrors.Error
	s.Require().ErrorAs(err, &ae)
	s.Equal(appErrors.KindDuplicateKey, ae.Kind)
	s.Equal("nationalId", ae.Field)

	again.NationalID = "33.333.333-3"
	_, err = s.svc.Create(s.ctx, again)
	s.Require().ErrorAs(err, &ae)
	s.Equal("email", ae.Field)
}

func (s *CustomerServiceSuite) TestCreateUnknownTypeWritesNothing() {
	in := juan()
	in.CustomerTypeCode = "GOLD"
	in.Phones = phones("1234")

	_, err := s.svc.Create(s.ctx, in)
	s.ErrorIs(err, appErrors.ErrNotFound)
	s.Contains(err.Error(), "GOLD")
	s.Equal(0, s.count())
}

func (s *CustomerServiceSuite) TestCreateValidation() {
	in := juan()
	in.Email = "not-an-email"
	in.Age = intPtr(151)
	in.GivenName = "   "

	_, err := s.svc.Create(s.ctx, in)
	var ae *appErrors.Error
	s.Require().ErrorAs(err, &ae)
	s.Equal(appErrors.KindValidation, ae.Kind)
	s.Contains(ae.Fields, "email")
	s.Contains(ae.Fields, "age")
	s.Contains(ae.Fields, "name")
	s.Equal(0, s.count())
}

func (s *CustomerServiceSuite) TestCreateRejectsBadPhoneBeforePersisting() {
	in := juan()
	in.Phones = phones("12345", "abc", "")

	_, err := s.svc.Create(s.ctx, in)
	var ae *appErrors.Error
	s.Require().ErrorAs(err, &ae)
	s.Equal(appErrors.KindValidation, ae.Kind)
	s.Contains(ae.Fields, "phones[1]")
	s.Contains(ae.Fields, "phones[2]")
	s.NotContains(ae.Fields, "phones[0]")
	s.Equal(0, s.count())
}

func (s *CustomerServiceSuite) TestUpdateKeepsOwnKeys() {
	c, err := s.svc.Create(s.ctx, juan())
	s.Require().NoError(err)

	in := juan()
	in.GivenName = "Juan Pablo"
	in.CustomerTypeCode = "REG"
	updated, err := s.svc.Update(s.ctx, c.ID, in)
	s.Require().NoError(err)
	s.Equal(c.ID, updated.ID)
	s.Equal("Juan Pablo", updated.GivenName)
	s.Equal("REG", updated.Type.Code)
}

func (s *CustomerServiceSuite) TestUpdateRejectsAnotherCustomersKeys() {
	_, err := s.svc.Create(s.ctx, juan())
	s.Require().NoError(err)
	other := juan()
	other.NationalID = "22.222.222-2"
	other.Email = "maria@x.com"
	o, err := s.svc.Create(s.ctx, other)
	s.Require().NoError(err)

	steal := other
	steal.Email = "juan@x.com"
	_, err = s.svc.Update(s.ctx, o.ID, steal)
	s.ErrorIs(err, appErrors.ErrDuplicateKey)

	steal = other
	steal.NationalID = "11.111.111-1"
	_, err = s.svc.Update(s.ctx, o.ID, steal)
	s.ErrorIs(err, appErrors.ErrDuplicateKey)

	got, err := s.svc.GetByID(s.ctx, o.ID)
	s.Require().NoError(err)
	s.Equal("maria@x.com", got.Email)
}

func (s *CustomerServiceSuite) TestUpdateMissingCustomer() {
	_, err := s.svc.Update(s.ctx, 999, juan())
	s.ErrorIs(err, appErrors.ErrNotFound)
}

func (s *CustomerServiceSuite) TestUpdateUnknownTypeLeavesRowUntouched() {
	c, err := s.svc.Create(s.ctx, juan())
	s.Require().NoError(err)

	in := juan()
	in.GivenName = "Changed"
	in.CustomerTypeCode = "GOLD"
	_, err = s.svc.Update(s.ctx, c.ID, in)
	s.ErrorIs(err, appErrors.ErrNotFound)

	got, err := s.svc.GetByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("Juan", got.GivenName)
}

func (s *CustomerServiceSuite) TestUpdateReplacesPhones() {
	in := juan()
	in.Phones = phones("111", "222", "333")
	c, err := s.svc.Create(s.ctx, in)
	s.Require().NoError(err)

	in.Phones = phones("+56 9 1111", "22223333")
	_, err = s.svc.Update(s.ctx, c.ID, in)
	s.Require().NoError(err)

	got, err := s.svc.GetByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"+56 9 1111", "22223333"}, got.PhoneNumbers())
}

func (s *CustomerServiceSuite) TestUpdateNilPhonesLeavesCollection() {
	in := juan()
	in.Phones = phones("111", "222")
	c, err := s.svc.Create(s.ctx, in)
	s.Require().NoError(err)

	in.Phones = nil
	updated, err := s.svc.Update(s.ctx, c.ID, in)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"111", "222"}, updated.PhoneNumbers())
}

func (s *CustomerServiceSuite) TestUpdateEmptyPhonesClearsCollection() {
	in := juan()
	in.Phones = phones("111", "222")
	c, err := s.svc.Create(s.ctx, in)
	s.Require().NoError(err)

	in.Phones = phones()
	_, err = s.svc.Update(s.ctx, c.ID, in)
	s.Require().NoError(err)

	got, err := s.svc.GetByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(got.Phones)
}

func (s *CustomerServiceSuite) TestUpdateBadPhoneKeepsOldCollection() {
	in := juan()
	in.Phones = phones("111")
	c, err := s.svc.Create(s.ctx, in)
	s.Require().NoError(err)

	in.Phones = phones("222", "x-ray")
	_, err = s.svc.Update(s.ctx, c.ID, in)
	s.ErrorIs(err, appErrors.ErrValidation)

	got, err := s.svc.GetByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal([]string{"111"}, got.PhoneNumbers())
}

func (s *CustomerServiceSuite) TestDeleteCascadesPhonesOnly() {
	in := juan()
	in.Phones = phones("111", "222")
	c, err := s.svc.Create(s.ctx, in)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Delete(s.ctx, c.ID))

	_, err = s.svc.GetByID(s.ctx, c.ID)
	s.ErrorIs(err, appErrors.ErrNotFound)
	_, err = s.types.Get(s.ctx, "VIP")
	s.NoError(err)

	err = s.store.RunReadOnly(s.ctx, func(st repository.Stores) error {
		left, err := st.Phones.ListByCustomer(s.ctx, c.ID)
		s.Empty(left)
		return err
	})
	s.NoError(err)
}

func (s *CustomerServiceSuite) TestDeleteMissing() {
	err := s.svc.Delete(s.ctx, 42)
	s.ErrorIs(err, appErrors.ErrNotFound)
}

func (s *CustomerServiceSuite) TestLookups() {
	c, err := s.svc.Create(s.ctx, juan())
	s.Require().NoError(err)

	byNID, err := s.svc.GetByNationalID(s.ctx, "11.111.111-1")
	s.Require().NoError(err)
	s.Equal(c.ID, byNID.ID)

	byEmail, err := s.svc.GetByEmail(s.ctx, "juan@x.com")
	s.Require().NoError(err)
	s.Equal(c.ID, byEmail.ID)

	_, err = s.svc.GetByEmail(s.ctx, "nobody@x.com")
	s.ErrorIs(err, appErrors.ErrNotFound)
}

func (s *CustomerServiceSuite) TestListByType() {
	_, err := s.svc.Create(s.ctx, juan())
	s.Require().NoError(err)
	reg := juan()
	reg.NationalID, reg.Email, reg.CustomerTypeCode = "2-2", "reg@x.com", "REG"
	_, err = s.svc.Create(s.ctx, reg)
	s.Require().NoError(err)

	vips, err := s.svc.ListByType(s.ctx, "VIP")
	s.Require().NoError(err)
	s.Require().Len(vips, 1)
	s.Equal("juan@x.com", vips[0].Email)

	none, err := s.svc.ListByType(s.ctx, "UNKNOWN")
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}

func (s *CustomerServiceSuite) TestKeysStayPairwiseDistinct() {
	for i := 0; i < 10; i++ {
		in := juan()
		in.NationalID = fmt.Sprintf("%d-%d", i%4, i%4)
		in.Email = fmt.Sprintf("user%d@x.com", i%3)
		_, _ = s.svc.Create(s.ctx, in)
	}

	all, err := s.svc.ListAll(s.ctx)
	s.Require().NoError(err)
	nids := map[string]bool{}
	emails := map[string]bool{}
	for _, c := range all {
		s.False(nids[c.NationalID], c.NationalID)
		s.False(emails[c.Email], c.Email)
		nids[c.NationalID] = true
		emails[c.Email] = true
	}
}

// blindStore hides existing keys from the pre-checks, as happens when two
// writers race between the existence query and the insert.
type blindStore struct {
	*repository.MemoryStore
}

type blindCustomers struct {
	repository.CustomerRepositoryInterface
}

func (blindCustomers) ExistsByNationalID(context.Context, string, int64) (bool, error) {
	return false, nil
}

func (blindCustomers) ExistsByEmail(context.Context, string, int64) (bool, error) {
	return false, nil
}

func (b blindStore) RunInTx(ctx context.Context, fn func(repository.Stores) error) error {
	return b.MemoryStore.RunInTx(ctx, func(st repository.Stores) error {
		st.Customers = blindCustomers{st.Customers}
		return fn(st)
	})
}

func TestCreateRaceStillReportsDuplicateKey(t *testing.T) {
	ctx := context.Background()
	mem := repository.NewMemoryStore()
	_, err := service.NewCustomerTypeService(mem).Create(ctx, model.CustomerTypeInput{Code: "VIP", Description: "VIP customer"})
	require.NoError(t, err)

	svc := service.NewCustomerService(blindStore{mem})
	_, err = svc.Create(ctx, juan())
	require.NoError(t, err)

	again := juan()
	again.Email = "other@x.com"
	again.Phones = phones("123")
	_, err = svc.Create(ctx, again)
	assert.ErrorIs(t, err, appErrors.ErrDuplicateKey)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
