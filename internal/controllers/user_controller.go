package controllers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/models"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/services"
	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/utils"
)

// UserController manages dashboard operator accounts. Admin only.
type UserController struct {
	DB *gorm.DB
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=150"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
	Active   *bool  `json:"active"`
}

type updateUserRequest struct {
	Name     *string         `json:"name" binding:"omitempty,max=100"`
	Email    *string         `json:"email" binding:"omitempty,email,max=150"`
	Password *FlexibleString `json:"password"`
	Role     *string         `json:"role"`
	Active   *bool           `json:"active"`
}

func currentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get("user")
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}

func (uc *UserController) ListUsers(c *gin.Context) {
	p := parseListParams(c, 50, "created_at", map[string]string{
		"created_at": "created_at",
		"name":       "name",
		"email":      "email",
		"role":       "role",
		"active":     "active",
	})
	active, ok := queryBool(c, "active")
	if !ok {
		return
	}
	qText := strings.TrimSpace(c.Query("q"))
	role := strings.TrimSpace(strings.ToLower(c.Query("role")))
	if role != "" && !IsValidRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	filtered := func() *gorm.DB {
		q := uc.DB.WithContext(c.Request.Context()).Model(&models.User{})
		if qText != "" {
			like := "%" + strings.ToLower(qText) + "%"
			q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
		}
		if role != "" {
			q = q.Where("role = ?", role)
		}
		if active != nil {
			q = q.Where("active = ?", *active)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}
	listQ := filtered().Order(p.Order())
	if !p.All {
		listQ = listQ.Offset(p.Offset()).Limit(p.Limit)
	}
	var users []models.User
	if err := listQ.Find(&users).Error; err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON(u))
	}
	meta := p.Meta(total)
	if qText != "" {
		meta["q"] = qText
	}
	if role != "" {
		meta["role"] = role
	}
	if active != nil {
		meta["active"] = *active
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "meta": meta})
}

func (uc *UserController) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = RoleStaff
	}
	if !IsValidRole(role) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "errors": gin.H{"role": "must be admin or staff"}})
		return
	}
	pw, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}
	u := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: pw,
		Role:     role,
		Active:   req.Active == nil || *req.Active,
	}
	if err := uc.DB.WithContext(c.Request.Context()).Create(&u).Error; err != nil {
		if services.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		respondError(c, err)
		return
	}
	log.Printf("user %s created with role %s", u.Email, u.Role)
	c.JSON(http.StatusCreated, gin.H{"message": "created", "data": userJSON(u)})
}

func (uc *UserController) GetUser(c *gin.Context) {
	id, ok := pathID(c, "user not found")
	if !ok {
		return
	}
	var u models.User
	if err := uc.DB.WithContext(c.Request.Context()).Where("id = ?", id).First(&u).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": userJSON(u)})
}

func (uc *UserController) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "user not found")
	if !ok {
		return
	}
	db := uc.DB.WithContext(c.Request.Context())
	var u models.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*req.Role))
		if !IsValidRole(role) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "errors": gin.H{"role": "must be admin or staff"}})
			return
		}
		u.Role = role
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	if me, ok := currentUser(c); ok && me.ID == u.ID && (!u.Active || u.Role != RoleAdmin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot deactivate or demote your own account"})
		return
	}
	if req.Password != nil {
		raw := strings.TrimSpace(req.Password.String())
		if raw != "" {
			if len(raw) < utils.MinPasswordLength {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "errors": gin.H{"password": "min 8"}})
				return
			}
			pw, err := utils.HashPassword(raw)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
				return
			}
			u.Password = pw
		}
	}

	if err := db.Save(&u).Error; err != nil {
		if services.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated", "data": userJSON(u)})
}

// DeleteUser removes the account and its refresh tokens.
func (uc *UserController) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "user not found")
	if !ok {
		return
	}
	if me, ok := currentUser(c); ok && me.ID == id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}
	var deleted int64
	err := uc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id_ref = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.User{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
