package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/middleware"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/utils"
)

const tokenIssuer = "kos-dashboard"

type AuthController struct {
	DB            *gorm.DB
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	All          bool   `json:"all"`
}

type tokenPair struct {
	Token string
	JTI   string
}

func (a *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	var user models.User
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := a.DB.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !user.Active || !utils.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	access, refresh, err := a.issueTokens(a.DB.WithContext(c.Request.Context()), user)
	if err != nil {
		log.Printf("issue tokens for %s: %v", user.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue tokens"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":       access.Token,
		"token_type":         "Bearer",
		"expires_in":         int(a.AccessTTL.Seconds()),
		"role":               user.Role,
		"refresh_token":      refresh.Token,
		"refresh_expires_in": int(a.RefreshTTL.Seconds()),
		"user":               userJSON(user),
	})
}

func (a *AuthController) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, userJSON(user))
}

func (a *AuthController) issueTokens(db *gorm.DB, user models.User) (access tokenPair, refresh tokenPair, err error) {
	now := time.Now().UTC()
	acl := middleware.Claims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.AccessTTL)),
			Subject:   user.ID,
		},
	}
	atStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, acl).SignedString([]byte(a.AccessSecret))
	if err != nil {
		return
	}
	access = tokenPair{Token: atStr}

	jti := uuid.NewString()
	rcl := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.RefreshTTL)),
		Subject:   user.ID,
		ID:        jti,
	}
	rtStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, rcl).SignedString([]byte(a.RefreshSecret))
	if err != nil {
		return
	}
	refresh = tokenPair{Token: rtStr, JTI: jti}

	rec := models.RefreshToken{
		TokenID:   jti,
		UserIDRef: user.ID,
		TokenHash: utils.SHA256Hex(rtStr),
		ExpiresAt: now.Add(a.RefreshTTL),
	}
	err = db.Create(&rec).Error
	return
}

var errRefreshRejected = errors.New("refresh token expired or revoked")

// Refresh rotates a refresh token: the presented one is revoked and a new pair issued.
func (a *AuthController) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	claims := &jwt.RegisteredClaims{}
	if err := middleware.ParseToken(req.RefreshToken, a.RefreshSecret, claims); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	var access, next tokenPair
	err := a.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var rec models.RefreshToken
		if err := tx.Where("token_hash = ?", utils.SHA256Hex(req.RefreshToken)).First(&rec).Error; err != nil {
			return errRefreshRejected
		}
		if rec.RevokedAt != nil || time.Now().UTC().After(rec.ExpiresAt) || rec.TokenID != claims.ID {
			return errRefreshRejected
		}
		var user models.User
		if err := tx.Where("id = ? AND active = ?", rec.UserIDRef, true).First(&user).Error; err != nil {
			return errRefreshRejected
		}
		var err error
		access, next, err = a.issueTokens(tx, user)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		return tx.Model(&rec).Updates(map[string]interface{}{
			"revoked_at":           &now,
			"replaced_by_token_id": next.JTI,
		}).Error
	})
	if errors.Is(err, errRefreshRejected) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("refresh token rotation: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue tokens"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":       access.Token,
		"token_type":         "Bearer",
		"expires_in":         int(a.AccessTTL.Seconds()),
		"refresh_token":      next.Token,
		"refresh_expires_in": int(a.RefreshTTL.Seconds()),
	})
}

// Logout revokes the given refresh token, or every token of the caller with all=true.
// Access tokens stay valid until they expire.
func (a *AuthController) Logout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)
	db := a.DB.WithContext(c.Request.Context())
	now := time.Now().UTC()
	user, hasUser := currentUser(c)
	if req.RefreshToken != "" {
		q := db.Model(&models.RefreshToken{}).
			Where("token_hash = ? AND revoked_at IS NULL", utils.SHA256Hex(req.RefreshToken))
		if hasUser {
			q = q.Where("user_id_ref = ?", user.ID)
		}
		if err := q.Update("revoked_at", &now).Error; err != nil {
			log.Printf("revoke refresh token: %v", err)
		}
	}
	if req.All && hasUser {
		if err := db.Model(&models.RefreshToken{}).
			Where("user_id_ref = ? AND revoked_at IS NULL", user.ID).
			Update("revoked_at", &now).Error; err != nil {
			log.Printf("revoke refresh tokens of %s: %v", user.ID, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
