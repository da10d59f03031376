package controllers

import (
	"net/http"

	"campusdesk-be/middlewares"
	"campusdesk-be/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthController serves the /api/auth routes.
type AuthController struct {
	auth *services.AuthService
	log  *zap.Logger
}

func NewAuthController(auth *services.AuthService, log *zap.Logger) *AuthController {
	return &AuthController{auth: auth, log: log}
}

// Register handles user registration
func (ac *AuthController) Register(c *gin.Context) {
	var input services.RegisterInput
	if !bindJSON(c, ac.log, &input) {
		return
	}

	if _, err := ac.auth.Register(c.Request.Context(), input); err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

// Login handles email and password login
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, ac.log, &input) {
		return
	}

	session, err := ac.auth.Authenticate(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Google signs in with an account already verified by Google on the client.
func (ac *AuthController) Google(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		GoogleID string `json:"googleId"`
	}
	if !bindJSON(c, ac.log, &input) {
		return
	}

	session, err := ac.auth.FederatedLogin(c.Request.Context(), input.Email, input.Name, input.GoogleID)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Me retrieves the authenticated user's information
func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.auth.CurrentUser(c.Request.Context(), middlewares.CurrentIdentity(c))
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Profile returns the user, their issues and any new resolution notices.
func (ac *AuthController) Profile(c *gin.Context) {
	profile, err := ac.auth.Profile(c.Request.Context(), middlewares.CurrentIdentity(c))
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
