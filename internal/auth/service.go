// Package auth owns the session lifecycle: sign-in, registration (with
// invite redemption), sign-out, session restore and password reset.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"fitpro-server/internal/apperror"
	"fitpro-server/internal/mailer"
	"fitpro-server/internal/model"
	"fitpro-server/internal/rbac"
	"fitpro-server/pkg/jwtutil"
	"fitpro-server/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// State is the session lifecycle state. Restore starts from StateLoading and
// resolves to exactly one of the other two.
type State string

const (
	StateLoading       State = "loading"
	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// Session holds the resolved principal and its token. User is nil unless
// State is StateAuthenticated.
type Session struct {
	State State       `json:"state"`
	User  *model.User `json:"user,omitempty"`
	Token string      `json:"token,omitempty"`
}

// Anonymous is the signed-out session.
func Anonymous() *Session {
	return &Session{State: StateAnonymous}
}

// Service implements the session operations against the user store.
type Service struct {
	db             *gorm.DB
	mail           mailer.Sender
	bootstrapEmail string // lowercase
	now            func() time.Time
}

// NewService builds a session service. bootstrapEmail is the fixed
// super-admin address; registration with it yields a sysadmin account.
func NewService(db *gorm.DB, mail mailer.Sender, bootstrapEmail string) *Service {
	return &Service{
		db:             db,
		mail:           mail,
		bootstrapEmail: strings.ToLower(bootstrapEmail),
		now:            time.Now,
	}
}

// SignIn verifies credentials and returns an authenticated session carrying
// a token with the user's gym context. One profile read per call.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.New(apperror.InvalidInput, "email and password are required")
	}

	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "user not found")
		}
		return nil, apperror.Wrap(apperror.Unavailable, "user lookup failed", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperror.New(apperror.Unauthorized, "invalid credentials")
	}

	if !user.Active {
		return nil, apperror.New(apperror.Unauthorized, "account is disabled")
	}

	token, err := s.issueToken(ctx, &user)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("User signed in",
		zap.String("email", user.Email),
		zap.String("role", user.Role))

	return &Session{State: StateAuthenticated, User: &user, Token: token}, nil
}

// RegisterParams are the inputs to Register. GymID is a tenant hint used
// only when no invite code is supplied; the bootstrap super-admin match
// overrides both.
type RegisterParams struct {
	Email      string
	Password   string
	Name       string
	Phone      string
	InviteCode string
	GymID      *uint
}

// Register creates a new user. The default role is alumno; a valid invite
// binds the user to the invite's gym and grants the invite's role; the
// bootstrap super-admin email yields sysadmin with no gym binding.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.New(apperror.InvalidInput, "a valid email is required")
	}
	if len(p.Password) < 6 {
		return nil, apperror.New(apperror.InvalidInput, "password must be at least 6 characters")
	}

	var existing model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, apperror.New(apperror.Conflict, "email already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Wrap(apperror.Unavailable, "user lookup failed", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(apperror.Unavailable, "password hashing failed", err)
	}

	user := model.User{
		Email:    email,
		Password: string(hashed),
		Name:     p.Name,
		Phone:    p.Phone,
		Role:     string(rbac.RoleAlumno),
		GymID:    p.GymID,
		Active:   true,
	}

	if email == s.bootstrapEmail {
		// The fixed super-admin operates across gyms: any tenant hint or
		// invite is discarded.
		user.Role = string(rbac.RoleSysadmin)
		user.GymID = nil
		p.InviteCode = ""
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.InviteCode != "" {
			invite, err := s.redeemInvite(tx, p.InviteCode)
			if err != nil {
				return err
			}
			user.GymID = &invite.GymID
			if rbac.Valid(rbac.Role(invite.Role)) {
				user.Role = invite.Role
			}
		}

		if err := tx.Create(&user).Error; err != nil {
			return apperror.Wrap(apperror.Unavailable, "user creation failed", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	logger.FromContext(ctx).Info("User registered",
		zap.String("email", user.Email),
		zap.String("role", user.Role))

	return &user, nil
}

// redeemInvite validates the invite inside the registration transaction and
// increments its use counter. The guarded update keeps the counter from
// passing max_uses under concurrent registrations.
func (s *Service) redeemInvite(tx *gorm.DB, code string) (*model.Invite, error) {
	var invite model.Invite
	if err := tx.Where("code = ?", code).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "invite not found")
		}
		return nil, apperror.Wrap(apperror.Unavailable, "invite lookup failed", err)
	}

	if !invite.Redeemable(s.now()) {
		return nil, apperror.New(apperror.Conflict, "invite is no longer valid")
	}

	update := tx.Model(&model.Invite{}).
		Where("id = ? AND is_active = ?", invite.ID, true)
	if invite.MaxUses != nil {
		update = update.Where("used_count < ?", *invite.MaxUses)
	}
	result := update.Update("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return nil, apperror.Wrap(apperror.Unavailable, "invite update failed", result.Error)
	}
	if result.RowsAffected == 0 {
		// Lost the race against a concurrent redemption.
		return nil, apperror.New(apperror.Conflict, "invite is no longer valid")
	}

	invite.UsedCount++
	return &invite, nil
}

// Restore resolves a session from a previously issued token: one profile
// read per call. A missing, invalid or expired token yields an anonymous
// session, never an error.
func (s *Service) Restore(ctx context.Context, token string) *Session {
	if token == "" {
		return Anonymous()
	}

	claims, err := jwtutil.ValidateToken(token)
	if err != nil {
		return Anonymous()
	}

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		return Anonymous()
	}
	if !user.Active {
		return Anonymous()
	}

	return &Session{State: StateAuthenticated, User: &user, Token: token}
}

// SignOut clears the session. Idempotent: signing out an anonymous session
// stays anonymous and produces no error.
func (s *Service) SignOut(sess *Session) *Session {
	if sess == nil || sess.State != StateAuthenticated {
		return Anonymous()
	}
	return Anonymous()
}

// RequestPasswordReset emails a reset token when the account exists. The
// response is identical whether or not the email is registered, so the
// endpoint cannot be used to enumerate accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperror.New(apperror.InvalidInput, "email is required")
	}

	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		// Deliberately indistinguishable from the success path.
		logger.FromContext(ctx).Info("Password reset requested for unknown email")
		return nil
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.Role)
	if err != nil {
		return apperror.Wrap(apperror.Unavailable, "reset token generation failed", err)
	}

	msg := mailer.Message{
		To:      []string{user.Email},
		Subject: "FitPro password reset",
		HTML:    "<p>Use the following code to reset your password:</p><pre>" + token + "</pre>",
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return apperror.Wrap(apperror.Unavailable, "reset mail delivery failed", err)
	}

	return nil
}

// ResetPassword consumes a reset token and installs the new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return apperror.New(apperror.InvalidInput, "password must be at least 6 characters")
	}

	claims, err := jwtutil.ValidateToken(token)
	if err != nil {
		return apperror.New(apperror.Unauthorized, "invalid or expired reset token")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Wrap(apperror.Unavailable, "password hashing failed", err)
	}

	result := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", claims.UserID).
		Update("password", string(hashed))
	if result.Error != nil {
		return apperror.Wrap(apperror.Unavailable, "password update failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.New(apperror.NotFound, "user not found")
	}

	logger.FromContext(ctx).Info("Password reset completed", zap.Uint("user_id", claims.UserID))
	return nil
}

// issueToken builds a JWT carrying the user's gym context when bound.
func (s *Service) issueToken(ctx context.Context, user *model.User) (string, error) {
	var gymName string
	if user.GymID != nil {
		var gym model.Gym
		if err := s.db.WithContext(ctx).Select("name").First(&gym, *user.GymID).Error; err == nil {
			gymName = gym.Name
		}
	}

	token, err := jwtutil.GenerateTokenWithGym(user.Email, user.ID, user.Role, user.GymID, gymName)
	if err != nil {
		return "", apperror.Wrap(apperror.Unavailable, "token generation failed", err)
	}
	return token, nil
}
