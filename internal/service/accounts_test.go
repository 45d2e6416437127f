package service

import (
	"cedarhill/portal-api/db"
	"cedarhill/portal-api/internal/model"
	"cedarhill/portal-api/pkg/security"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "portal.db") + "?_busy_timeout=5000&_foreign_keys=on"

	g, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(g))

	return g
}

// fakeMailer records tokens instead of sending anything.
type fakeMailer struct {
	mu            sync.Mutex
	verifications []string
	resets        []string
}

func (f *fakeMailer) SendVerification(to, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifications = append(f.verifications, token)
}

func (f *fakeMailer) SendReset(to, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, token)
}

func (f *fakeMailer) lastVerification() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.verifications) == 0 {
		return ""
	}
	return f.verifications[len(f.verifications)-1]
}

func (f *fakeMailer) lastReset() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.resets) == 0 {
		return ""
	}
	return f.resets[len(f.resets)-1]
}

func newTestAccounts(t *testing.T) (*Accounts, *fakeMailer, *gorm.DB) {
	t.Helper()

	g := newTestDB(t)
	mailer := &fakeMailer{}
	acc := NewAccounts(g, mailer, NewAuditor(g), security.NewHasher(10))

	return acc, mailer, g
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()

	require.Error(t, err)

	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, kind, svcErr.Kind)
}

func auditCount(t *testing.T, g *gorm.DB, action string) int64 {
	t.Helper()

	var n int64
	require.NoError(t, g.Model(model.AuditLog{}).Where("action = ?", action).Count(&n).Error)

	return n
}

func TestRegisterVerifyLogin(t *testing.T) {
	acc, mailer, g := newTestAccounts(t)

	user, err := acc.Register("a@x.com", "Pw123!secret", "Alice")
	require.NoError(t, err)
	require.Len(t, user.ID, 16)
	assert.False(t, user.Admin)
	assert.False(t, user.Verified)

	token := mailer.lastVerification()
	require.Len(t, token, 64)

	var stored model.User
	require.NoError(t, g.Where("email = ?", "a@x.com").First(&stored).Error)
	assert.False(t, stored.Verified)
	require.NotNil(t, stored.VerifyToken)
	assert.Equal(t, token, *stored.VerifyToken)
	assert.NotEqual(t, "Pw123!secret", stored.PasswordHash)

	// Can't log in before verifying, and the answer is the dedicated
	// one, not the generic bad-credentials error
	_, err = acc.Login("a@x.com", "Pw123!secret")
	requireKind(t, err, KindForbidden)

	verified, err := acc.Verify(token)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	assert.Nil(t, verified.VerifyToken)
	assert.Equal(t, int64(1), auditCount(t, g, model.ActionEmailVerified))

	// Tokens are single use
	_, err = acc.Verify(token)
	requireKind(t, err, KindNotFound)

	logged, err := acc.Login("a@x.com", "Pw123!secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.Equal(t, "a@x.com", logged.Email)
	assert.Equal(t, "Alice", logged.Name)
}

func TestRegisterValidation(t *testing.T) {
	acc, _, _ := newTestAccounts(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "Pw123!secret"},
		{"invalid email", "not-an-email", "Pw123!secret"},
		{"empty password", "a@x.com", ""},
		{"short password", "a@x.com", "short"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := acc.Register(test.email, test.password, "")
			requireKind(t, err, KindValidation)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	acc, _, g := newTestAccounts(t)

	_, err := acc.Register("a@x.com", "Pw123!secret", "")
	require.NoError(t, err)

	_, err = acc.Register("a@x.com", "Other!secret", "")
	requireKind(t, err, KindConflict)

	var n int64
	require.NoError(t, g.Model(model.User{}).Where("email = ?", "a@x.com").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

// The duplicate email pre-check selects an aggregate only. If the query
// builder appends its primary key ordering clause again, postgres
// rejects the statement and registration breaks on that driver, so pin
// the generated SQL shape.
func TestRegisterDuplicateCheckSQLShape(t *testing.T) {
	g, err := gorm.Open(postgres.Open("host=localhost user=dryrun dbname=dryrun"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	var found bool

	stmt := g.Model(model.User{}).
		Select("count(*) > 0").
		Where("email = ?", "a@x.com").
		Take(&found).Statement

	assert.NotContains(t, stmt.SQL.String(), "ORDER BY")
}

func TestLoginDoesNotLeakAccounts(t *testing.T) {
	acc, mailer, _ := newTestAccounts(t)

	_, err := acc.Register("a@x.com", "Pw123!secret", "")
	require.NoError(t, err)
	_, err = acc.Verify(mailer.lastVerification())
	require.NoError(t, err)

	// Unknown address and wrong password must be indistinguishable
	_, unknownErr := acc.Login("ghost@x.com", "Pw123!secret")
	requireKind(t, unknownErr, KindUnauthorized)

	_, wrongErr := acc.Login("a@x.com", "wrong password")
	requireKind(t, wrongErr, KindUnauthorized)

	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLoginValidation(t *testing.T) {
	acc, _, _ := newTestAccounts(t)

	_, err := acc.Login("", "pw")
	requireKind(t, err, KindValidation)

	_, err = acc.Login("a@x.com", "")
	requireKind(t, err, KindValidation)
}

func TestRequestResetUnknownEmail(t *testing.T) {
	acc, mailer, g := newTestAccounts(t)

	_, err := acc.Register("a@x.com", "Pw123!secret", "")
	require.NoError(t, err)

	// Outwardly identical to a known address, inwardly a no-op
	require.NoError(t, acc.RequestReset("ghost@x.com"))

	assert.Empty(t, mailer.resets)
	assert.Equal(t, int64(0), auditCount(t, g, model.ActionPasswordResetRequested))

	var stored model.User
	require.NoError(t, g.Where("email = ?", "a@x.com").First(&stored).Error)
	assert.Nil(t, stored.ResetToken)
	assert.Nil(t, stored.ResetExpiresAt)
}

func TestRequestResetOverwritesPriorToken(t *testing.T) {
	acc, mailer, g := newTestAccounts(t)

	_, err := acc.Register("a@x.com", "Pw123!secret", "")
	require.NoError(t, err)

	require.NoError(t, acc.RequestReset("a@x.com"))
	first := mailer.lastReset()
	require.Len(t, first, 64)

	require.NoError(t, acc.RequestReset("a@x.com"))
	second := mailer.lastReset()
	require.NotEqual(t, first, second)

	// Only the newest window stays open
	var stored model.User
	require.NoError(t, g.Where("email = ?", "a@x.com").First(&stored).Error)
	require.NotNil(t, stored.ResetToken)
	assert.Equal(t, second, *stored.ResetToken)
	require.NotNil(t, stored.ResetExpiresAt)
	assert.WithinDuration(t, time.Now().Add(ResetTokenTTL), *stored.ResetExpiresAt, time.Minute)

	_, err = acc.CompleteReset(first, "NewPw123!secret")
	requireKind(t, err, KindNotFound)

	_, err = acc.CompleteReset(second, "NewPw123!secret")
	require.NoError(t, err)

	assert.Equal(t, int64(2), auditCount(t, g, model.ActionPasswordResetRequested))
	assert.Equal(t, int64(1), auditCount(t, g, model.ActionPasswordResetCompleted))
}

func TestCompleteResetReplacesPassword(t *testing.T) {
	acc, mailer, g := newTestAccounts(t)

	_, err := acc.Register("a@x.com", "Pw123!secret", "")
	require.NoError(t, err)
	_, err = acc.Verify(mailer.lastVerification())
	require.NoError(t, err)

	require.NoError(t, acc.RequestReset("a@x.com"))

	_, err = acc.CompleteReset(mailer.lastReset(), "NewPw123!secret")
	require.NoError(t, err)

	var stored model.User
	require.NoError(t, g.Where("email = ?", "a@x.com").First(&stored).Error)
	assert.Nil(t, stored.ResetToken)
	assert.Nil(t, stored.ResetExpiresAt)

	_, err = acc.Login("a@x.com", "Pw123!secret")
	requireKind(t, err, KindUnauthorized)

	_, err = acc.Login("a@x.com", "NewPw123!secret")
	require.NoError(t, err)
}

func TestCompleteResetExpiredToken(t *testing.T) {
	acc, mailer, g := newTestAccounts(t)

	_, err := acc.Register("a@x.com", "Pw123!secret", "")
	require.NoError(t, err)
	require.NoError(t, acc.RequestReset("a@x.com"))

	token := mailer.lastReset()

	// Push the expiry into the past. The token string still matches,
	// which must not be enough
	err = g.Model(model.User{}).
		Where("email = ?", "a@x.com").
		Update("reset_expires_at", time.Now().Add(-time.Minute)).
		Error
	require.NoError(t, err)

	_, err = acc.CompleteReset(token, "NewPw123!secret")
	requireKind(t, err, KindNotFound)

	assert.Equal(t, int64(0), auditCount(t, g, model.ActionPasswordResetCompleted))
}

func TestCompleteResetConcurrentConsumption(t *testing.T) {
	acc, mailer, g := newTestAccounts(t)

	_, err := acc.Register("a@x.com", "Pw123!secret", "")
	require.NoError(t, err)
	require.NoError(t, acc.RequestReset("a@x.com"))

	token := mailer.lastReset()

	const attempts = 4

	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := range attempts {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()
			_, errs[n] = acc.CompleteReset(token, fmt.Sprintf("NewPw123!secret%d", n))
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			requireKind(t, err, KindNotFound)
		}
	}
	assert.Equal(t, 1, wins)

	// The winner cleared the token, nobody can use it again
	var stored model.User
	require.NoError(t, g.Where("email = ?", "a@x.com").First(&stored).Error)
	assert.Nil(t, stored.ResetToken)

	assert.Equal(t, int64(1), auditCount(t, g, model.ActionPasswordResetCompleted))
}

func TestToggleAdmin(t *testing.T) {
	acc, mailer, g := newTestAccounts(t)

	admin, err := acc.Register("admin@x.com", "Pw123!secret", "Root")
	require.NoError(t, err)
	_, err = acc.Verify(mailer.lastVerification())
	require.NoError(t, err)
	require.NoError(t, g.Model(model.User{}).Where("id = ?", admin.ID).Update("admin", true).Error)
	admin.Admin = true

	client, err := acc.Register("client@x.com", "Pw123!secret", "Client")
	require.NoError(t, err)

	promoted, err := acc.ToggleAdmin(admin, client.ID)
	require.NoError(t, err)
	assert.True(t, promoted.Admin)

	var entry model.AuditLog
	require.NoError(t, g.Where("action = ?", model.ActionUserPromoted).First(&entry).Error)
	assert.Equal(t, admin.ID, entry.ActorID)
	assert.Equal(t, client.ID, entry.ResourceID)
	assert.Contains(t, entry.Detail, "client@x.com")

	demoted, err := acc.ToggleAdmin(admin, client.ID)
	require.NoError(t, err)
	assert.False(t, demoted.Admin)
	assert.Equal(t, int64(1), auditCount(t, g, model.ActionUserDemoted))
}

func TestToggleAdminGuards(t *testing.T) {
	acc, _, g := newTestAccounts(t)

	admin, err := acc.Register("admin@x.com", "Pw123!secret", "")
	require.NoError(t, err)
	require.NoError(t, g.Model(model.User{}).Where("id = ?", admin.ID).Update("admin", true).Error)
	admin.Admin = true

	client, err := acc.Register("client@x.com", "Pw123!secret", "")
	require.NoError(t, err)

	// Nobody touches their own flag, not even admins
	_, err = acc.ToggleAdmin(admin, admin.ID)
	requireKind(t, err, KindValidation)

	_, err = acc.ToggleAdmin(client, admin.ID)
	requireKind(t, err, KindForbidden)

	_, err = acc.ToggleAdmin(admin, "nope")
	requireKind(t, err, KindNotFound)
}

func TestDeleteUser(t *testing.T) {
	acc, _, g := newTestAccounts(t)

	admin, err := acc.Register("admin@x.com", "Pw123!secret", "")
	require.NoError(t, err)
	require.NoError(t, g.Model(model.User{}).Where("id = ?", admin.ID).Update("admin", true).Error)
	admin.Admin = true

	client, err := acc.Register("client@x.com", "Pw123!secret", "")
	require.NoError(t, err)

	// Give the client a file so the cascade has something to do
	file := model.File{
		ID:           "file0000000yesno",
		OwnerID:      client.ID,
		StorageKey:   "k1",
		OriginalName: "contract.pdf",
		ContentType:  "application/pdf",
		Size:         42,
	}
	require.NoError(t, g.Create(&file).Error)

	require.NoError(t, acc.Delete(admin, client.ID))

	var n int64
	require.NoError(t, g.Model(model.User{}).Where("id = ?", client.ID).Count(&n).Error)
	assert.Equal(t, int64(0), n)

	require.NoError(t, g.Model(model.File{}).Where("owner_id = ?", client.ID).Count(&n).Error)
	assert.Equal(t, int64(0), n)

	var entry model.AuditLog
	require.NoError(t, g.Where("action = ?", model.ActionUserDeleted).First(&entry).Error)
	assert.Equal(t, admin.ID, entry.ActorID)
	assert.Equal(t, "client@x.com", entry.Detail)
}

func TestDeleteUserGuards(t *testing.T) {
	acc, _, g := newTestAccounts(t)

	admin, err := acc.Register("admin@x.com", "Pw123!secret", "")
	require.NoError(t, err)
	require.NoError(t, g.Model(model.User{}).Where("id = ?", admin.ID).Update("admin", true).Error)
	admin.Admin = true

	client, err := acc.Register("client@x.com", "Pw123!secret", "")
	require.NoError(t, err)

	requireKind(t, acc.Delete(admin, admin.ID), KindValidation)
	requireKind(t, acc.Delete(client, admin.ID), KindForbidden)
	requireKind(t, acc.Delete(admin, "nope"), KindNotFound)
}

func TestListUsers(t *testing.T) {
	acc, _, _ := newTestAccounts(t)

	_, err := acc.Register("a@x.com", "Pw123!secret", "A")
	require.NoError(t, err)
	_, err = acc.Register("b@x.com", "Pw123!secret", "B")
	require.NoError(t, err)

	users, err := acc.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a@x.com", users[0].Email)
	assert.Equal(t, "b@x.com", users[1].Email)
}

func TestEnsureSeedUsers(t *testing.T) {
	acc, _, g := newTestAccounts(t)

	viper.Set("seed.admin.email", "admin@example.com")
	viper.Set("seed.admin.password", "SeedAdmin123!")
	viper.Set("seed.admin.name", "Administrator")
	viper.Set("seed.client.email", "client@example.com")
	viper.Set("seed.client.password", "SeedClient123!")
	viper.Set("seed.client.name", "Client")

	require.NoError(t, acc.EnsureSeedUsers())

	var users []model.User
	require.NoError(t, g.Order("email").Find(&users).Error)
	require.Len(t, users, 2)

	assert.True(t, users[0].Admin)
	assert.True(t, users[0].Verified)
	assert.False(t, users[1].Admin)
	assert.True(t, users[1].Verified)

	// Seeds land in the login flow like any other verified account
	_, err := acc.Login("admin@example.com", "SeedAdmin123!")
	require.NoError(t, err)

	// A second run must not duplicate anything
	require.NoError(t, acc.EnsureSeedUsers())

	var n int64
	require.NoError(t, g.Model(model.User{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

func TestEnsureSeedUsersSkipsNonEmptyStore(t *testing.T) {
	acc, _, g := newTestAccounts(t)

	_, err := acc.Register("someone@x.com", "Pw123!secret", "")
	require.NoError(t, err)

	viper.Set("seed.admin.password", "SeedAdmin123!")
	viper.Set("seed.client.password", "SeedClient123!")

	require.NoError(t, acc.EnsureSeedUsers())

	var n int64
	require.NoError(t, g.Model(model.User{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
