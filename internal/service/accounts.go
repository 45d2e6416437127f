package service

import (
	"cedarhill/portal-api/internal/model"
	"cedarhill/portal-api/pkg/security"
	"cedarhill/portal-api/validators"
	"errors"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ResetTokenTTL is how long a password reset link stays usable.
const ResetTokenTTL = time.Hour

// Accounts owns every state transition touching a user account or one
// of its single-use tokens. Handlers stay thin and call into it.
type Accounts struct {
	db     *gorm.DB
	mail   MailSender
	audit  *Auditor
	hasher *security.Hasher
}

func NewAccounts(db *gorm.DB, mail MailSender, audit *Auditor, hasher *security.Hasher) *Accounts {
	return &Accounts{
		db:     db,
		mail:   mail,
		audit:  audit,
		hasher: hasher,
	}
}

func newAccountID() (string, error) {
	return gonanoid.Generate(idCharset, 16)
}

// Register creates an unverified account and dispatches the
// verification mail. The caller never learns whether the mail went out.
func (a *Accounts) Register(email, password, name string) (*model.User, error) {
	if err := validators.EmailValidator(email); err != nil {
		return nil, Invalid(err.Error())
	}

	if err := validators.PasswordValidator(password); err != nil {
		return nil, Invalid(err.Error())
	}

	var found bool

	// Take, not First: First adds a primary key ORDER BY, which
	// postgres rejects on an aggregate-only select
	r := a.db.Model(model.User{}).
		Select("count(*) > 0").
		Where("email = ?", email).
		Take(&found)
	if r.Error != nil && !errors.Is(r.Error, gorm.ErrRecordNotFound) {
		return nil, StoreError(r.Error)
	}

	if found {
		return nil, Conflict("this email is already registered")
	}

	hash, err := a.hasher.GenerateFromPassword(password)
	if err != nil {
		return nil, StoreError(err)
	}

	token, err := security.MakeToken()
	if err != nil {
		return nil, StoreError(err)
	}

	id, err := newAccountID()
	if err != nil {
		return nil, StoreError(err)
	}

	user := model.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		VerifyToken:  &token,
	}

	if err := a.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race against a concurrent registration for the
			// same address
			return nil, Conflict("this email is already registered")
		}

		return nil, StoreError(err)
	}

	// Mail goes out only after the row is durable, and never blocks
	// the response
	a.mail.SendVerification(email, token)

	return &user, nil
}

// Verify consumes a verification token. Wrong, expired and already
// used tokens are indistinguishable to the caller.
func (a *Accounts) Verify(token string) (*model.User, error) {
	if token == "" {
		return nil, Invalid("no verification token provided")
	}

	var user model.User

	err := a.db.Where("verify_token = ?", token).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("token expired or invalid")
		}

		return nil, StoreError(err)
	}

	// Consume in a single statement so two concurrent requests can't
	// both win with the same token
	r := a.db.Model(model.User{}).
		Where("id = ? AND verify_token = ?", user.ID, token).
		Updates(map[string]any{
			"verified":     true,
			"verify_token": nil,
		})
	if r.Error != nil {
		return nil, StoreError(r.Error)
	}

	if r.RowsAffected == 0 {
		return nil, NotFound("token expired or invalid")
	}

	user.Verified = true
	user.VerifyToken = nil

	a.audit.Log(model.ActionEmailVerified, user.ID, "user", user.ID, user.Email)

	return &user, nil
}

// Login checks credentials and returns the account on success. Unknown
// addresses and wrong passwords produce the same error so the login
// form can't be used to probe which emails exist. Unverified accounts
// get a distinct answer before the password is even checked.
func (a *Accounts) Login(email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, Invalid("email and password are required")
	}

	var user model.User

	err := a.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Unauthorized("invalid email or password")
		}

		return nil, StoreError(err)
	}

	if !user.Verified {
		return nil, Forbidden("email not verified")
	}

	ok, err := a.hasher.VerifyPasswd(password, user.PasswordHash)
	if err != nil {
		return nil, StoreError(err)
	}

	if !ok {
		return nil, Unauthorized("invalid email or password")
	}

	return &user, nil
}

// RequestReset opens a one hour reset window for the account behind
// the given email. Callers get the same outcome whether or not the
// address exists, so the handler must pair a nil return with one fixed
// message.
func (a *Accounts) RequestReset(email string) error {
	if email == "" {
		return Invalid("no email address provided")
	}

	var user model.User

	err := a.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Unknown address. No mutation, no audit entry, no mail
			return nil
		}

		return StoreError(err)
	}

	token, err := security.MakeToken()
	if err != nil {
		return StoreError(err)
	}

	// Overwrites any earlier token, there is never more than one open
	// window per account
	err = a.db.Model(model.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"reset_token":      token,
			"reset_expires_at": time.Now().Add(ResetTokenTTL),
		}).Error
	if err != nil {
		return StoreError(err)
	}

	a.mail.SendReset(user.Email, token)
	a.audit.Log(model.ActionPasswordResetRequested, user.ID, "user", user.ID, user.Email)

	return nil
}

// CompleteReset consumes a reset token and replaces the password.
func (a *Accounts) CompleteReset(token, password string) (*model.User, error) {
	if token == "" {
		return nil, Invalid("no reset token provided")
	}

	if err := validators.PasswordValidator(password); err != nil {
		return nil, Invalid(err.Error())
	}

	var user model.User

	err := a.db.Where("reset_token = ?", token).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("token expired or invalid")
		}

		return nil, StoreError(err)
	}

	hash, err := a.hasher.GenerateFromPassword(password)
	if err != nil {
		return nil, StoreError(err)
	}

	// The expiry check lives inside the update itself. Two concurrent
	// requests may both pass the lookup above, but only one of these
	// statements can match the token
	r := a.db.Model(model.User{}).
		Where("reset_token = ? AND reset_expires_at > ?", token, time.Now()).
		Updates(map[string]any{
			"password_hash":    hash,
			"reset_token":      nil,
			"reset_expires_at": nil,
		})
	if r.Error != nil {
		return nil, StoreError(r.Error)
	}

	if r.RowsAffected == 0 {
		return nil, NotFound("token expired or invalid")
	}

	a.audit.Log(model.ActionPasswordResetCompleted, user.ID, "user", user.ID, user.Email)

	return &user, nil
}

// ToggleAdmin flips the admin flag of the target account. Admins can't
// change their own flag, somebody else has to.
func (a *Accounts) ToggleAdmin(actor *model.User, targetID string) (*model.User, error) {
	if !actor.Admin {
		return nil, Forbidden("admin privileges required")
	}

	if actor.ID == targetID {
		return nil, Invalid("you can't change your own admin status")
	}

	var target model.User

	err := a.db.Where("id = ?", targetID).First(&target).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("user not found")
		}

		return nil, StoreError(err)
	}

	// Single statement so concurrent toggles serialize in the store
	err = a.db.Model(model.User{}).
		Where("id = ?", targetID).
		Update("admin", gorm.Expr("NOT admin")).
		Error
	if err != nil {
		return nil, StoreError(err)
	}

	if err := a.db.Where("id = ?", targetID).First(&target).Error; err != nil {
		return nil, StoreError(err)
	}

	action := model.ActionUserDemoted
	role := "client"

	if target.Admin {
		action = model.ActionUserPromoted
		role = "admin"
	}

	a.audit.Log(action, actor.ID, "user", target.ID, fmt.Sprintf("%s is now %s", target.Email, role))

	return &target, nil
}

// Delete removes the target account. File rows owned by the account go
// with it through the foreign key cascade.
func (a *Accounts) Delete(actor *model.User, targetID string) error {
	if !actor.Admin {
		return Forbidden("admin privileges required")
	}

	if actor.ID == targetID {
		return Invalid("you can't delete your own account")
	}

	var target model.User

	err := a.db.Where("id = ?", targetID).First(&target).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("user not found")
		}

		return StoreError(err)
	}

	if err := a.db.Delete(&target).Error; err != nil {
		return StoreError(err)
	}

	a.audit.Log(model.ActionUserDeleted, actor.ID, "user", target.ID, target.Email)

	return nil
}

func (a *Accounts) ListUsers() ([]model.User, error) {
	var users []model.User

	if err := a.db.Order("created_at").Find(&users).Error; err != nil {
		return nil, StoreError(err)
	}

	return users, nil
}

// EnsureSeedUsers creates the initial admin and client accounts on an
// empty database so a fresh install can be logged into right away.
// Both come up verified.
func (a *Accounts) EnsureSeedUsers() error {
	var count int64

	if err := a.db.Model(model.User{}).Count(&count).Error; err != nil {
		return StoreError(err)
	}

	if count > 0 {
		return nil
	}

	seeds := []struct {
		email    string
		password string
		name     string
		admin    bool
	}{
		{
			email:    viper.GetString("seed.admin.email"),
			password: viper.GetString("seed.admin.password"),
			name:     viper.GetString("seed.admin.name"),
			admin:    true,
		},
		{
			email:    viper.GetString("seed.client.email"),
			password: viper.GetString("seed.client.password"),
			name:     viper.GetString("seed.client.name"),
			admin:    false,
		},
	}

	for _, s := range seeds {
		if s.password == "" {
			zap.L().Warn("Skipping seed account with no password set", zap.String("email", s.email))
			continue
		}

		hash, err := a.hasher.GenerateFromPassword(s.password)
		if err != nil {
			return StoreError(err)
		}

		id, err := newAccountID()
		if err != nil {
			return StoreError(err)
		}

		user := model.User{
			ID:           id,
			Email:        s.email,
			PasswordHash: hash,
			Name:         s.name,
			Admin:        s.admin,
			Verified:     true,
		}

		if err := a.db.Create(&user).Error; err != nil {
			return StoreError(err)
		}

		zap.L().Info("Created seed account",
			zap.String("email", s.email),
			zap.Bool("admin", s.admin),
		)
	}

	return nil
}
