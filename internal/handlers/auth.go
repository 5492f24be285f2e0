package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sem0ark/projecthub/internal/auth"
	"github.com/sem0ark/projecthub/internal/store"
	"github.com/sem0ark/projecthub/internal/types"
)

type Auth struct {
	users  *store.UserStore
	tokens *auth.TokenManager
}

func NewAuth(users *store.UserStore, tokens *auth.TokenManager) *Auth {
	return &Auth{users: users, tokens: tokens}
}

type RegisterRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Auth) Register(ctx *gin.Context) {
	var body RegisterRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "login and a password of at least 6 characters are required"})
		return
	}

	passwordHash, err := auth.HashPassword(body.Password)

	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user, err := h.users.Create(ctx.Request.Context(), body.Login, passwordHash)

	if err != nil {
		if errors.Is(err, store.ErrDuplicateLogin) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "Login already taken"})
			return
		}
		log.Error().Err(err).Msg("failed to create user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, types.UserResponse{
		ID:    user.ID,
		Login: user.Login,
	})
}

func (h *Auth) Login(ctx *gin.Context) {
	var body LoginRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "login and password are required"})
		return
	}

	h.authenticate(ctx, body.Login, body.Password)
}

// LoginForm accepts the same credentials as Login, posted as an OAuth2
// password form (username/password fields).
func (h *Auth) LoginForm(ctx *gin.Context) {
	login := ctx.PostForm("username")
	password := ctx.PostForm("password")

	if login == "" || password == "" {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "username and password are required"})
		return
	}

	h.authenticate(ctx, login, password)
}

func (h *Auth) authenticate(ctx *gin.Context, login, password string) {
	user, err := h.users.GetByLogin(ctx.Request.Context(), login)

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Incorrect login or password"})
			return
		}
		log.Error().Err(err).Msg("failed to fetch user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Incorrect login or password"})
		return
	}

	token, err := h.tokens.Issue(user.ID)

	if err != nil {
		log.Error().Err(err).Msg("failed to issue token")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, types.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
