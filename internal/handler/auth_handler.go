package handler

import (
	"net/http"

	"fitpro-server/internal/apperror"
	"fitpro-server/internal/auth"
	"fitpro-server/pkg/logger"
	"fitpro-server/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Login handles email/password sign-in
func Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	sess, err := authService.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		log.Error("Login failed", zap.String("email", req.Email), zap.Error(err))
		switch apperror.KindOf(err) {
		case apperror.NotFound, apperror.Unauthorized:
			// Same response for unknown email and bad password.
			prometheus.RecordAuthError("login_failure")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		default:
			prometheus.RecordAuthError("login_error")
			return respondError(c, err)
		}
	}

	prometheus.IncreaseActiveTokens()

	log.Info("User logged in",
		zap.String("email", sess.User.Email),
		zap.String("role", sess.User.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"token": sess.Token,
		"user":  sess.User,
	})
}

// Register handles account creation, optionally redeeming an invite code
func Register(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		Name       string `json:"name"`
		Phone      string `json:"phone"`
		InviteCode string `json:"invite_code,omitempty"`
		GymID      *uint  `json:"gym_id,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	user, err := authService.Register(c.Request().Context(), auth.RegisterParams{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Phone:      req.Phone,
		InviteCode: req.InviteCode,
		GymID:      req.GymID,
	})
	if err != nil {
		log.Error("Registration failed", zap.String("email", req.Email), zap.Error(err))
		prometheus.RecordAuthError("registration_failed")
		return respondError(c, err)
	}

	if req.InviteCode != "" {
		prometheus.InviteRedemptionCounter.Inc()
	}

	log.Info("User registered", zap.String("email", user.Email), zap.String("role", user.Role))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// GetSession restores the session for the presented token. An invalid or
// missing token yields an anonymous session, not an error.
func GetSession(c echo.Context) error {
	token := bearerToken(c)
	sess := authService.Restore(c.Request().Context(), token)
	return c.JSON(http.StatusOK, sess)
}

// Logout signs the caller out. Idempotent: an anonymous caller gets the same
// response as an authenticated one.
func Logout(c echo.Context) error {
	log := logger.FromEcho(c)

	sess := authService.Restore(c.Request().Context(), bearerToken(c))
	if sess.State == auth.StateAuthenticated {
		// The token stays valid until expiry, so the gauge is approximate.
		prometheus.DecreaseActiveTokens()
		log.Info("User logged out", zap.String("email", sess.User.Email))
	}
	out := authService.SignOut(sess)

	return c.JSON(http.StatusOK, out)
}

// RequestPasswordReset emails a reset code. The response never reveals
// whether the email is registered.
func RequestPasswordReset(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := authService.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		if apperror.KindOf(err) == apperror.InvalidInput {
			return respondError(c, err)
		}
		// Delivery failures are logged but not surfaced: the generic
		// response must stay indistinguishable.
		log.Error("Password reset delivery failed", zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "If the email is registered, a reset code has been sent",
	})
}

// ResetPassword consumes a reset code and installs a new password
func ResetPassword(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := authService.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		log.Error("Password reset failed", zap.Error(err))
		prometheus.RecordAuthError("password_reset_failed")
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated successfully"})
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
