package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"shoppingtop/internal/apperror"
	"shoppingtop/internal/middleware"
	"shoppingtop/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const defaultLoginRedirect = "/shoppinglist/"

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService   *services.AuthService
	validate      *validator.Validate
	secureCookies bool
	logger        *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		validate:      validator.New(),
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// RegisterRoutes registers the account routes. sessionRequired guards the
// routes that act on the logged in user.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, sessionRequired fiber.Handler) {
	accounts := router.Group("/accounts")
	accounts.Get("/login", h.HandleLoginForm)
	accounts.Post("/login", h.HandleLogin)
	accounts.Get("/register", h.HandleRegisterForm)
	accounts.Post("/register", h.HandleRegister)
	accounts.Post("/delete", sessionRequired, h.HandleDeleteAccount)

	router.Get("/logout", h.HandleLogout)
	router.Post("/logout", h.HandleLogout)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
	Next     string `json:"next" form:"next"`
}

// RegisterRequest represents the request body for sign up.
type RegisterRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// HandleLoginForm shows the login page.
func (h *AuthHandler) HandleLoginForm(c *fiber.Ctx) error {
	return h.renderLogin(c, fiber.StatusOK, "", "", c.Query("next"))
}

// HandleLogin checks the credentials and starts a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Debug("invalid login request body", slog.String("error", err.Error()))
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Next == "" {
		req.Next = c.Query("next")
	}

	if err := h.validate.Struct(req); err != nil {
		return h.renderLogin(c, fiber.StatusBadRequest, "Please enter a username and password.", req.Username, req.Next)
	}

	token, user, err := h.authService.LoginUser(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			h.logger.Info("login failed", slog.String("username", req.Username))
			return h.renderLogin(c, fiber.StatusUnauthorized, "Please enter a correct username and password.", req.Username, req.Next)
		}
		return err
	}

	middleware.SetSessionCookie(c, token, h.authService.TokenDuration(), h.secureCookies)
	if wantsJSON(c) {
		return c.JSON(fiber.Map{
			"message": "Login successful",
			"token":   token,
			"user":    user,
		})
	}
	return c.Redirect(safeRedirect(req.Next), fiber.StatusFound)
}

// HandleLogout ends the session and sends the user back to the lists.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	middleware.ClearSessionCookie(c, h.secureCookies)
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"message": "Logged out"})
	}
	return c.Redirect(defaultLoginRedirect, fiber.StatusFound)
}

// HandleRegisterForm shows the sign up page.
func (h *AuthHandler) HandleRegisterForm(c *fiber.Ctx) error {
	return h.renderRegister(c, fiber.StatusOK, RegisterRequest{}, nil)
}

// HandleRegister creates a new account.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)

	user, err := h.authService.RegisterUser(c.UserContext(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperror.ErrValidation):
			return h.renderRegister(c, fiber.StatusBadRequest, req, apperror.Fields(err))
		case errors.Is(err, apperror.ErrConflict):
			return h.renderRegister(c, fiber.StatusConflict, req, map[string]string{"username": err.Error()})
		}
		return err
	}

	h.logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)))
	if wantsJSON(c) {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "User registered successfully",
			"user":    user,
		})
	}
	return c.Redirect(middleware.LoginURL, fiber.StatusFound)
}

// HandleDeleteAccount deletes the logged in user and all of their lists.
func (h *AuthHandler) HandleDeleteAccount(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)
	if err := h.authService.DeleteUser(c.UserContext(), userID); err != nil {
		return err
	}

	h.logger.Info("user deleted", slog.Uint64("user_id", uint64(userID)))
	middleware.ClearSessionCookie(c, h.secureCookies)
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"message": "Account deleted"})
	}
	return c.Redirect(defaultLoginRedirect, fiber.StatusFound)
}

func (h *AuthHandler) renderLogin(c *fiber.Ctx, status int, message, username, next string) error {
	if wantsJSON(c) {
		if status == fiber.StatusOK {
			return c.JSON(fiber.Map{"message": "Log in with username and password", "next": next})
		}
		return c.Status(status).JSON(fiber.Map{
			"message": "Authentication failed",
			"error":   message,
		})
	}
	return page(c, status, "accounts/login", fiber.Map{
		"Title":     "Log in",
		"Error":     message,
		"LoginName": username,
		"Next":      next,
	})
}

func (h *AuthHandler) renderRegister(c *fiber.Ctx, status int, req RegisterRequest, fieldErrors map[string]string) error {
	if fieldErrors == nil {
		fieldErrors = map[string]string{}
	}
	if wantsJSON(c) {
		if status == fiber.StatusOK {
			return c.JSON(fiber.Map{"message": "Sign up with username and password"})
		}
		return c.Status(status).JSON(fiber.Map{
			"message": "Registration failed",
			"errors":  fieldErrors,
		})
	}
	return page(c, status, "accounts/register", fiber.Map{
		"Title":  "Sign up",
		"Form":   req,
		"Errors": fieldErrors,
	})
}

// safeRedirect only follows local paths so "next" cannot send users off-site.
func safeRedirect(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.Contains(next, "\\") {
		return next
	}
	return defaultLoginRedirect
}
