package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"fitpro-server/internal/apperror"
	"fitpro-server/internal/mailer"
	"fitpro-server/internal/model"
	"fitpro-server/internal/rbac"
	"fitpro-server/pkg/config"
	"fitpro-server/pkg/jwtutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const bootstrapEmail = "root@fitpro.test"

func TestMain(m *testing.M) {
	jwtutil.Initialize(&config.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: 1,
	})
	os.Exit(m.Run())
}

// recordingSender captures outbound mail for assertions.
type recordingSender struct {
	messages []mailer.Message
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.messages = append(s.messages, msg)
	return nil
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *recordingSender) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))

	sender := &recordingSender{}
	return NewService(db, sender, bootstrapEmail), db, sender
}

func seedGym(t *testing.T, db *gorm.DB, name string) model.Gym {
	t.Helper()
	gym := model.Gym{Name: name, Active: true}
	require.NoError(t, db.Create(&gym).Error)
	return gym
}

func seedUser(t *testing.T, db *gorm.DB, email, password, role string, gymID *uint) model.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := model.User{
		Email:    email,
		Password: string(hashed),
		Role:     role,
		GymID:    gymID,
		Active:   true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestRegisterDefaultsToAlumno(t *testing.T) {
	svc, _, _ := newTestService(t)

	user, err := svc.Register(context.Background(), RegisterParams{
		Email:    "member@box.test",
		Password: "secret123",
		Name:     "Member",
	})
	require.NoError(t, err)

	assert.Equal(t, string(rbac.RoleAlumno), user.Role)
	assert.Nil(t, user.GymID)
	assert.True(t, user.Active)
	assert.NotEqual(t, "secret123", user.Password, "password must be stored hashed")
}

func TestRegisterBootstrapSysadmin(t *testing.T) {
	svc, db, _ := newTestService(t)
	gym := seedGym(t, db, "Box Uno")

	invite := model.Invite{Code: "welcome", GymID: gym.ID, Role: string(rbac.RoleProfesor), IsActive: true}
	require.NoError(t, db.Create(&invite).Error)

	// The bootstrap address wins over both the tenant hint and the invite.
	user, err := svc.Register(context.Background(), RegisterParams{
		Email:      "Root@FitPro.Test",
		Password:   "secret123",
		InviteCode: "welcome",
		GymID:      &gym.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, string(rbac.RoleSysadmin), user.Role)
	assert.Nil(t, user.GymID)

	var reread model.Invite
	require.NoError(t, db.First(&reread, invite.ID).Error)
	assert.Equal(t, 0, reread.UsedCount, "bootstrap registration must not consume the invite")
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterParams{Email: "not-an-email", Password: "secret123"})
	assert.Equal(t, apperror.InvalidInput, apperror.KindOf(err))

	_, err = svc.Register(ctx, RegisterParams{Email: "a@b.test", Password: "short"})
	assert.Equal(t, apperror.InvalidInput, apperror.KindOf(err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedUser(t, db, "taken@box.test", "secret123", string(rbac.RoleAlumno), nil)

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:    "TAKEN@box.test",
		Password: "secret123",
	})
	assert.Equal(t, apperror.Conflict, apperror.KindOf(err))
}

func TestRegisterWithInvite(t *testing.T) {
	svc, db, _ := newTestService(t)
	gym := seedGym(t, db, "Box Uno")

	maxUses := 2
	invite := model.Invite{
		Code:     "coach-code",
		GymID:    gym.ID,
		Role:     string(rbac.RoleProfesor),
		IsActive: true,
		MaxUses:  &maxUses,
	}
	require.NoError(t, db.Create(&invite).Error)

	user, err := svc.Register(context.Background(), RegisterParams{
		Email:      "coach@box.test",
		Password:   "secret123",
		InviteCode: "coach-code",
	})
	require.NoError(t, err)

	assert.Equal(t, string(rbac.RoleProfesor), user.Role)
	require.NotNil(t, user.GymID)
	assert.Equal(t, gym.ID, *user.GymID)

	var reread model.Invite
	require.NoError(t, db.First(&reread, invite.ID).Error)
	assert.Equal(t, 1, reread.UsedCount)
}

func TestRegisterInviteWithBogusRoleKeepsDefault(t *testing.T) {
	svc, db, _ := newTestService(t)
	gym := seedGym(t, db, "Box Uno")

	invite := model.Invite{Code: "odd", GymID: gym.ID, Role: "superhero", IsActive: true}
	require.NoError(t, db.Create(&invite).Error)

	user, err := svc.Register(context.Background(), RegisterParams{
		Email:      "member@box.test",
		Password:   "secret123",
		InviteCode: "odd",
	})
	require.NoError(t, err)

	assert.Equal(t, string(rbac.RoleAlumno), user.Role)
	require.NotNil(t, user.GymID)
	assert.Equal(t, gym.ID, *user.GymID)
}

func TestRegisterExhaustedInvite(t *testing.T) {
	svc, db, _ := newTestService(t)
	gym := seedGym(t, db, "Box Uno")

	maxUses := 1
	invite := model.Invite{
		Code:      "used-up",
		GymID:     gym.ID,
		Role:      string(rbac.RoleAlumno),
		IsActive:  true,
		MaxUses:   &maxUses,
		UsedCount: 1,
	}
	require.NoError(t, db.Create(&invite).Error)

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:      "late@box.test",
		Password:   "secret123",
		InviteCode: "used-up",
	})
	assert.Equal(t, apperror.Conflict, apperror.KindOf(err))

	// A failed redemption must not create the user.
	var count int64
	db.Model(&model.User{}).Where("email = ?", "late@box.test").Count(&count)
	assert.Zero(t, count)
}

func TestRegisterExpiredInvite(t *testing.T) {
	svc, db, _ := newTestService(t)
	gym := seedGym(t, db, "Box Uno")

	expired := time.Now().Add(-time.Hour)
	invite := model.Invite{Code: "stale", GymID: gym.ID, Role: string(rbac.RoleAlumno), IsActive: true, ExpiresAt: &expired}
	require.NoError(t, db.Create(&invite).Error)

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:      "late@box.test",
		Password:   "secret123",
		InviteCode: "stale",
	})
	assert.Equal(t, apperror.Conflict, apperror.KindOf(err))
}

func TestRegisterUnknownInvite(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:      "late@box.test",
		Password:   "secret123",
		InviteCode: "no-such-code",
	})
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func TestSignIn(t *testing.T) {
	svc, db, _ := newTestService(t)
	gym := seedGym(t, db, "Box Uno")
	seedUser(t, db, "member@box.test", "secret123", string(rbac.RoleAlumno), &gym.ID)

	sess, err := svc.SignIn(context.Background(), "Member@Box.Test", "secret123")
	require.NoError(t, err)

	assert.Equal(t, StateAuthenticated, sess.State)
	require.NotNil(t, sess.User)
	assert.NotEmpty(t, sess.Token)

	claims, err := jwtutil.ValidateToken(sess.Token)
	require.NoError(t, err)
	require.NotNil(t, claims.GymID)
	assert.Equal(t, gym.ID, *claims.GymID)
	assert.Equal(t, "Box Uno", claims.GymName)
}

func TestSignInFailures(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedUser(t, db, "member@box.test", "secret123", string(rbac.RoleAlumno), nil)

	disabled := seedUser(t, db, "gone@box.test", "secret123", string(rbac.RoleAlumno), nil)
	require.NoError(t, db.Model(&disabled).Update("active", false).Error)

	_, err := svc.SignIn(context.Background(), "member@box.test", "wrong-password")
	assert.Equal(t, apperror.Unauthorized, apperror.KindOf(err))

	_, err = svc.SignIn(context.Background(), "nobody@box.test", "secret123")
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))

	_, err = svc.SignIn(context.Background(), "gone@box.test", "secret123")
	assert.Equal(t, apperror.Unauthorized, apperror.KindOf(err))

	_, err = svc.SignIn(context.Background(), "", "")
	assert.Equal(t, apperror.InvalidInput, apperror.KindOf(err))
}

func TestRestore(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedUser(t, db, "member@box.test", "secret123", string(rbac.RoleAlumno), nil)

	sess, err := svc.SignIn(context.Background(), "member@box.test", "secret123")
	require.NoError(t, err)

	restored := svc.Restore(context.Background(), sess.Token)
	assert.Equal(t, StateAuthenticated, restored.State)
	require.NotNil(t, restored.User)
	assert.Equal(t, "member@box.test", restored.User.Email)

	assert.Equal(t, StateAnonymous, svc.Restore(context.Background(), "").State)
	assert.Equal(t, StateAnonymous, svc.Restore(context.Background(), "garbage-token").State)
}

func TestRestoreDisabledAccount(t *testing.T) {
	svc, db, _ := newTestService(t)
	user := seedUser(t, db, "member@box.test", "secret123", string(rbac.RoleAlumno), nil)

	sess, err := svc.SignIn(context.Background(), "member@box.test", "secret123")
	require.NoError(t, err)

	require.NoError(t, db.Model(&user).Update("active", false).Error)
	assert.Equal(t, StateAnonymous, svc.Restore(context.Background(), sess.Token).State)
}

func TestSignOutIdempotent(t *testing.T) {
	svc, db, _ := newTestService(t)
	seedUser(t, db, "member@box.test", "secret123", string(rbac.RoleAlumno), nil)

	sess, err := svc.SignIn(context.Background(), "member@box.test", "secret123")
	require.NoError(t, err)

	out := svc.SignOut(sess)
	assert.Equal(t, StateAnonymous, out.State)
	assert.Nil(t, out.User)

	// Signing out again, or signing out nothing, stays anonymous.
	assert.Equal(t, StateAnonymous, svc.SignOut(out).State)
	assert.Equal(t, StateAnonymous, svc.SignOut(nil).State)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, db, sender := newTestService(t)
	seedUser(t, db, "member@box.test", "secret123", string(rbac.RoleAlumno), nil)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "member@box.test"))
	require.Len(t, sender.messages, 1)
	assert.Equal(t, []string{"member@box.test"}, sender.messages[0].To)

	token, err := jwtutil.GenerateToken("member@box.test", 1, string(rbac.RoleAlumno))
	require.NoError(t, err)
	require.NoError(t, svc.ResetPassword(context.Background(), token, "brand-new-pass"))

	_, err = svc.SignIn(context.Background(), "member@box.test", "secret123")
	assert.Equal(t, apperror.Unauthorized, apperror.KindOf(err))

	sess, err := svc.SignIn(context.Background(), "member@box.test", "brand-new-pass")
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, sess.State)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	svc, _, sender := newTestService(t)

	// Unknown addresses get the same nil result and no mail.
	assert.NoError(t, svc.RequestPasswordReset(context.Background(), "nobody@box.test"))
	assert.Empty(t, sender.messages)
}

func TestResetPasswordValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.ResetPassword(context.Background(), "whatever", "short")
	assert.Equal(t, apperror.InvalidInput, apperror.KindOf(err))

	err = svc.ResetPassword(context.Background(), "garbage-token", "brand-new-pass")
	assert.Equal(t, apperror.Unauthorized, apperror.KindOf(err))
}
