package datastore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/scoutbook/internal/dependencies/mocks"
	"github.com/mcoot/scoutbook/internal/model"
	"github.com/mcoot/scoutbook/internal/storage"
	"github.com/mcoot/scoutbook/internal/storage/memory"
	"github.com/mcoot/scoutbook/internal/testutil"
)

type StoreSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	store   *Store
	ctx     context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.ctx = context.Background()
	s.store = s.newStore()
	s.Require().NoError(s.store.Load(s.ctx))
}

func (s *StoreSuite) newStore() *Store {
	return New(s.storage, s.clock, s.random, testutil.NopLogger())
}

// Load tests

func (s *StoreSuite) TestLoadSeedsDemoData() {
	users := s.store.Users()
	s.Require().Len(users, 1)
	s.Equal("admin@demo.com", users[0].Email)
	s.True(users[0].IsAdmin)
	s.Equal(model.UserID(1), users[0].ID)

	codes := s.store.RegistrationCodes()
	s.Require().Len(codes, 3)
	s.Equal("EAGLES2024", codes[0].Code)
	s.Equal("Eagles Baseball", codes[0].TeamName)
	s.Equal(50, codes[0].MaxUses)
	s.Equal(30, codes[1].MaxUses)
	s.Equal(100, codes[2].MaxUses)

	reports := s.store.Reports()
	s.Require().Len(reports, 2)
	s.Equal("John Smith", reports[0].PlayerName)
	s.Equal("Sarah Davis", reports[1].PlayerName)
}

func (s *StoreSuite) TestLoadPersistsSeed() {
	for _, key := range []string{storage.KeyUsers, storage.KeyRegistrationCodes, storage.KeyReports} {
		exists, err := s.storage.Exists(s.ctx, key)
		s.Require().NoError(err)
		s.True(exists, key)
	}
}

func (s *StoreSuite) TestLoadReadsExistingState() {
	_, err := s.store.UpsertUser(s.ctx, model.User{FirstName: "A", LastName: "B", Email: "a@b.com"})
	s.Require().NoError(err)

	reloaded := s.newStore()
	s.Require().NoError(reloaded.Load(s.ctx))

	s.Equal(s.store.Users(), reloaded.Users())
	s.Equal(s.store.RegistrationCodes(), reloaded.RegistrationCodes())
	s.Equal(s.store.Reports(), reloaded.Reports())
}

func (s *StoreSuite) TestLoadDoesNotReseedEmptyCollection() {
	_ = s.storage.Set(s.ctx, storage.KeyReports, []byte("[]"))

	reloaded := s.newStore()
	s.Require().NoError(reloaded.Load(s.ctx))
	s.Empty(reloaded.Reports())
}

func (s *StoreSuite) TestLoadFailsOnCorruptCollection() {
	_ = s.storage.Set(s.ctx, storage.KeyUsers, []byte("{not json"))

	err := s.newStore().Load(s.ctx)

	var storageErr *model.StorageError
	s.Require().ErrorAs(err, &storageErr)
	s.Equal("decode", storageErr.Op)
	s.Equal(storage.KeyUsers, storageErr.Key)
}

// User tests

func (s *StoreSuite) TestFindUserByEmailIsCaseInsensitive() {
	user, err := s.store.FindUserByEmail("  ADMIN@Demo.com ")
	s.Require().NoError(err)
	s.Equal(model.UserID(1), user.ID)
}

func (s *StoreSuite) TestFindUserByEmailNotFound() {
	_, err := s.store.FindUserByEmail("nobody@demo.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StoreSuite) TestFindUserByFederatedIDEmpty() {
	_, err := s.store.FindUserByFederatedID("")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StoreSuite) TestUpsertUserAppendsWithNextID() {
	user, err := s.store.UpsertUser(s.ctx, model.User{FirstName: "A", LastName: "B", Email: "a@b.com"})
	s.Require().NoError(err)

	s.Equal(model.UserID(2), user.ID)
	s.Equal(s.clock.Now(), user.CreatedAt)
	s.Len(s.store.Users(), 2)
	s.Equal(model.UserID(3), s.store.NextUserID())
}

func (s *StoreSuite) TestUpsertUserUpdatesByEmail() {
	created, _ := s.store.UpsertUser(s.ctx, model.User{FirstName: "A", LastName: "B", Email: "a@b.com"})

	updated, err := s.store.UpsertUser(s.ctx, model.User{FirstName: "Alice", LastName: "B", Email: "A@B.com", FederatedID: "fed-1"})
	s.Require().NoError(err)

	s.Equal(created.ID, updated.ID)
	s.Equal(created.CreatedAt, updated.CreatedAt)
	s.Len(s.store.Users(), 2)

	found, err := s.store.FindUserByFederatedID("fed-1")
	s.Require().NoError(err)
	s.Equal("Alice", found.FirstName)
}

func (s *StoreSuite) TestUpsertUserUpdatesByFederatedID() {
	created, _ := s.store.UpsertUser(s.ctx, model.User{Email: "relay@x.com", FederatedID: "fed-1"})

	updated, err := s.store.UpsertUser(s.ctx, model.User{Email: "real@x.com", FederatedID: "fed-1"})
	s.Require().NoError(err)

	s.Equal(created.ID, updated.ID)
	_, err = s.store.FindUserByEmail("relay@x.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StoreSuite) TestUpsertUserRejectsEmailOwnedByAnotherRecord() {
	created, _ := s.store.UpsertUser(s.ctx, model.User{Email: "a@b.com"})

	created.Email = "admin@demo.com"
	_, err := s.store.UpsertUser(s.ctx, *created)
	s.ErrorIs(err, model.ErrEmailAlreadyExists)
}

func (s *StoreSuite) TestUpsertUserRejectsFederatedIDOwnedByAnotherRecord() {
	_, _ = s.store.UpsertUser(s.ctx, model.User{Email: "a@b.com", FederatedID: "fed-1"})
	other, _ := s.store.UpsertUser(s.ctx, model.User{Email: "c@d.com"})

	other.FederatedID = "fed-1"
	_, err := s.store.UpsertUser(s.ctx, *other)
	s.ErrorIs(err, model.ErrFederatedInUse)
}

func (s *StoreSuite) TestDeleteUser() {
	created, _ := s.store.UpsertUser(s.ctx, model.User{Email: "a@b.com"})

	s.Require().NoError(s.store.DeleteUser(s.ctx, created.ID))

	_, err := s.store.FindUserByID(created.ID)
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StoreSuite) TestDeleteUserNotFound() {
	s.ErrorIs(s.store.DeleteUser(s.ctx, 999), model.ErrUserNotFound)
}

func (s *StoreSuite) TestDeleteLastAdminLeavesStoreUnchanged() {
	before := s.store.Users()
	persisted, _ := s.storage.Get(s.ctx, storage.KeyUsers)

	err := s.store.DeleteUser(s.ctx, 1)
	s.ErrorIs(err, model.ErrLastAdmin)

	s.Equal(before, s.store.Users())
	after, _ := s.storage.Get(s.ctx, storage.KeyUsers)
	s.Equal(persisted, after)
}

func (s *StoreSuite) TestDeleteAdminAllowedWhenAnotherAdminExists() {
	second, _ := s.store.UpsertUser(s.ctx, model.User{Email: "coach@b.com", IsAdmin: true})

	s.Require().NoError(s.store.DeleteUser(s.ctx, 1))
	s.ErrorIs(s.store.DeleteUser(s.ctx, second.ID), model.ErrLastAdmin)
}

func (s *StoreSuite) TestUpdateUserAdminStatus() {
	created, _ := s.store.UpsertUser(s.ctx, model.User{Email: "a@b.com"})

	promoted, err := s.store.UpdateUserAdminStatus(s.ctx, created.ID, true)
	s.Require().NoError(err)
	s.True(promoted.IsAdmin)

	demoted, err := s.store.UpdateUserAdminStatus(s.ctx, 1, false)
	s.Require().NoError(err)
	s.False(demoted.IsAdmin)
}

func (s *StoreSuite) TestUpdateUserAdminStatusRefusesLastAdmin() {
	_, err := s.store.UpdateUserAdminStatus(s.ctx, 1, false)
	s.ErrorIs(err, model.ErrLastAdmin)

	admin, _ := s.store.FindUserByID(1)
	s.True(admin.IsAdmin)
}

// Registration code tests

func (s *StoreSuite) TestAddRegistrationCode() {
	rc, err := s.store.AddRegistrationCode(s.ctx, " LIONS2024 ", "Lions", 0)
	s.Require().NoError(err)

	s.NotEmpty(rc.ID)
	s.Equal("LIONS2024", rc.Code)
	s.True(rc.IsActive)
	s.Equal(model.DefaultMaxUses, rc.MaxUses)
	s.Equal(0, rc.CurrentUses)
	s.Len(s.store.RegistrationCodes(), 4)
}

func (s *StoreSuite) TestAddRegistrationCodeRejectsDuplicate() {
	_, err := s.store.AddRegistrationCode(s.ctx, "eagles2024", "Other", 10)
	s.ErrorIs(err, model.ErrCodeExists)
}

func (s *StoreSuite) TestAddRegistrationCodeRejectsBlank() {
	_, err := s.store.AddRegistrationCode(s.ctx, " ", "Team", 10)
	s.ErrorIs(err, model.ErrInvalidInput)
}

func (s *StoreSuite) TestGenerateCodeSkipsExisting() {
	s.random.QueueString("EAGLES2024", "NEWCODE1")

	s.Equal("NEWCODE1", s.store.GenerateCode())
}

func (s *StoreSuite) TestMarkRegistrationCodeUsedIncrements() {
	rc, err := s.store.MarkRegistrationCodeUsed(s.ctx, "eagles2024")
	s.Require().NoError(err)
	s.Equal(1, rc.CurrentUses)

	reloaded := s.newStore()
	s.Require().NoError(reloaded.Load(s.ctx))
	s.Equal(1, reloaded.RegistrationCodes()[0].CurrentUses)
}

func (s *StoreSuite) TestMarkRegistrationCodeUsedExhausts() {
	rc, _ := s.store.AddRegistrationCode(s.ctx, "ONCE", "Team", 1)

	_, err := s.store.MarkRegistrationCodeUsed(s.ctx, "once")
	s.Require().NoError(err)

	_, err = s.store.MarkRegistrationCodeUsed(s.ctx, "once")
	s.ErrorIs(err, model.ErrInvalidRegistrationCode)

	stored, _ := s.store.FindRegistrationCode(rc.ID)
	s.Equal(1, stored.CurrentUses)
}

func (s *StoreSuite) TestReleaseRegistrationCode() {
	rc, err := s.store.MarkRegistrationCodeUsed(s.ctx, "EAGLES2024")
	s.Require().NoError(err)

	s.Require().NoError(s.store.ReleaseRegistrationCode(s.ctx, rc.ID))
	s.Equal(0, s.store.RegistrationCodes()[0].CurrentUses)

	// never goes below zero
	s.Require().NoError(s.store.ReleaseRegistrationCode(s.ctx, rc.ID))
	s.Equal(0, s.store.RegistrationCodes()[0].CurrentUses)

	s.ErrorIs(s.store.ReleaseRegistrationCode(s.ctx, "missing"), model.ErrCodeNotFound)
}

func (s *StoreSuite) TestSetRegistrationCodeActive() {
	id := s.store.RegistrationCodes()[0].ID

	rc, err := s.store.SetRegistrationCodeActive(s.ctx, id, false)
	s.Require().NoError(err)
	s.False(rc.IsActive)

	_, err = s.store.MarkRegistrationCodeUsed(s.ctx, "EAGLES2024")
	s.ErrorIs(err, model.ErrInvalidRegistrationCode)
}

func (s *StoreSuite) TestDeleteRegistrationCode() {
	id := s.store.RegistrationCodes()[1].ID

	s.Require().NoError(s.store.DeleteRegistrationCode(s.ctx, id))
	s.Len(s.store.RegistrationCodes(), 2)
	s.ErrorIs(s.store.DeleteRegistrationCode(s.ctx, id), model.ErrCodeNotFound)
}

// Report tests

func (s *StoreSuite) TestNewReportDefaults() {
	r := s.store.NewReport()

	s.Equal(model.ReportID(1002), r.ID)
	s.Empty(r.PlayerName)
	s.Equal(s.clock.Now(), r.ScoutDate)
	s.Equal(model.UnnamedPlayer, r.DisplayName())
}

func (s *StoreSuite) TestNewReportIDsAreUnique() {
	a := s.store.NewReport()
	b := s.store.NewReport()
	s.NotEqual(a.ID, b.ID)
}

func (s *StoreSuite) TestUpsertReportInsertsAndUpdates() {
	r := s.store.NewReport()
	r.PlayerName = "Mike Brown"

	_, err := s.store.UpsertReport(s.ctx, r)
	s.Require().NoError(err)
	s.Len(s.store.Reports(), 3)

	r.Notes = "Quick bat"
	_, err = s.store.UpsertReport(s.ctx, r)
	s.Require().NoError(err)
	s.Len(s.store.Reports(), 3)

	found, err := s.store.FindReport(r.ID)
	s.Require().NoError(err)
	s.Equal("Quick bat", found.Notes)
}

func (s *StoreSuite) TestUpsertReportAssignsID() {
	saved, err := s.store.UpsertReport(s.ctx, model.Report{PlayerName: "X"})
	s.Require().NoError(err)
	s.NotZero(saved.ID)
}

func (s *StoreSuite) TestDeleteReport() {
	id := s.store.Reports()[0].ID

	s.Require().NoError(s.store.DeleteReport(s.ctx, id))
	_, err := s.store.FindReport(id)
	s.ErrorIs(err, model.ErrReportNotFound)
	s.ErrorIs(s.store.DeleteReport(s.ctx, id), model.ErrReportNotFound)
}

func (s *StoreSuite) TestSearchReports() {
	s.Len(s.store.SearchReports("hawks"), 1)
	s.Len(s.store.SearchReports("coach"), 2)
	s.Len(s.store.SearchReports(""), 2)
	s.Empty(s.store.SearchReports("lions"))
}

func (s *StoreSuite) TestReportsRoundTripIncludingEmptyFields() {
	r := s.store.NewReport()
	r.PlayerName = ""
	r.Notes = "line one\nline two"
	_, err := s.store.UpsertReport(s.ctx, r)
	s.Require().NoError(err)

	data, err := s.store.Export(storage.KeyReports)
	s.Require().NoError(err)

	var decoded []model.Report
	s.Require().NoError(json.Unmarshal(data, &decoded))
	s.Equal(s.store.Reports(), decoded)
}

// Persistence failure tests

func (s *StoreSuite) TestFailedWriteLeavesStateUnchanged() {
	before := s.store.Reports()
	s.storage.FailWrites = errors.New("disk full")

	err := s.store.DeleteReport(s.ctx, before[0].ID)

	var storageErr *model.StorageError
	s.Require().ErrorAs(err, &storageErr)
	s.Equal("set", storageErr.Op)
	s.Equal(before, s.store.Reports())
}

func (s *StoreSuite) TestFailedUserWriteDoesNotCreateUser() {
	s.storage.FailWrites = errors.New("disk full")

	_, err := s.store.UpsertUser(s.ctx, model.User{Email: "a@b.com"})
	s.Error(err)

	_, err = s.store.FindUserByEmail("a@b.com")
	s.ErrorIs(err, model.ErrUserNotFound)
}
