package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hospital-records-server/internal/middleware"
	"hospital-records-server/internal/models"
	"hospital-records-server/internal/utils"
)

// UserHandler manages staff accounts. Everything except GetDoctors is
// admin-only.
type UserHandler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB, log *zap.Logger) *UserHandler {
	return &UserHandler{DB: db, Log: log}
}

// CreateUserRequest represents the request body for creating a user by an admin.
type CreateUserRequest struct {
	FirstName   string `json:"firstName" binding:"required,max=100"`
	LastName    string `json:"lastName" binding:"required,max=100"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Role        string `json:"role" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,max=32"`
	Department  string `json:"department" binding:"omitempty,max=100"`
}

// CreateUser handles creating a new user (admin).
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		utils.BadRequest(c, "role must be one of admin, doctor, pharmacist, pathologist")
		return
	}

	if taken, err := h.emailTaken(req.Email, ""); err != nil {
		utils.InternalServerError(c, "Database error")
		return
	} else if taken {
		utils.Conflict(c, "User with this email already exists")
		return
	}

	user := models.User{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Role:        role,
		PhoneNumber: req.PhoneNumber,
		Department:  req.Department,
		IsActive:    true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password")
		return
	}

	if err := h.DB.Create(&user).Error; err != nil {
		h.Log.Error("create user failed", zap.Error(err))
		utils.InternalServerError(c, "Failed to create user")
		return
	}

	h.Log.Info("staff account created",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.String("by", actor(c)),
	)
	utils.Created(c, "User created successfully", user.Sanitize())
}

func (h *UserHandler) emailTaken(email, exceptID string) (bool, error) {
	q := h.DB.Model(&models.User{}).Where("email = ?", email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetUsers lists staff accounts, optionally filtered by ?role=.
func (h *UserHandler) GetUsers(c *gin.Context) {
	q := h.DB.Order("last_name, first_name")
	if r := c.Query("role"); r != "" {
		role, ok := models.ParseRole(r)
		if !ok {
			utils.BadRequest(c, "Unknown role "+r)
			return
		}
		q = q.Where("role = ?", role)
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch users")
		return
	}
	utils.Success(c, "Users fetched successfully", sanitizeAll(users))
}

// GetUserByID handles fetching a single user by ID (admin).
func (h *UserHandler) GetUserByID(c *gin.Context) {
	user, ok := h.load(c)
	if !ok {
		return
	}
	utils.Success(c, "User fetched successfully", user.Sanitize())
}

func (h *UserHandler) load(c *gin.Context) (*models.User, bool) {
	var user models.User
	if err := h.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error")
		}
		return nil, false
	}
	return &user, true
}

// UpdateUserRequest represents the request body for updating a user by an admin.
// Passwords are not changed here.
type UpdateUserRequest struct {
	FirstName   string `json:"firstName" binding:"omitempty,max=100"`
	LastName    string `json:"lastName" binding:"omitempty,max=100"`
	Email       string `json:"email" binding:"omitempty,email"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,max=32"`
	Department  string `json:"department" binding:"omitempty,max=100"`
	IsActive    *bool  `json:"isActive"`
}

// UpdateUser handles updating a user by ID (admin).
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	user, ok := h.load(c)
	if !ok {
		return
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Email != "" && req.Email != user.Email {
		if taken, err := h.emailTaken(req.Email, user.ID); err != nil {
			utils.InternalServerError(c, "Database error checking email")
			return
		} else if taken {
			utils.Conflict(c, "New email is already in use")
			return
		}
		user.Email = req.Email
	}
	if req.Role != "" {
		role, ok := models.ParseRole(req.Role)
		if !ok {
			utils.BadRequest(c, "role must be one of admin, doctor, pharmacist, pathologist")
			return
		}
		user.Role = role
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.Department != "" {
		user.Department = req.Department
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.DB.Save(user).Error; err != nil {
		utils.InternalServerError(c, "Failed to update user")
		return
	}
	utils.Success(c, "User updated successfully", user.Sanitize())
}

// DeleteUser handles deleting a user by ID (admin). Admins cannot delete
// their own account.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	user, ok := h.load(c)
	if !ok {
		return
	}
	if user.ID == actor(c) {
		utils.BadRequest(c, "You cannot delete your own account")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Preference{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		h.Log.Error("delete user failed", zap.String("user_id", user.ID), zap.Error(err))
		utils.InternalServerError(c, "Failed to delete user")
		return
	}

	h.Log.Info("staff account deleted", zap.String("user_id", user.ID), zap.String("by", actor(c)))
	utils.Success(c, "User deleted successfully", nil)
}

// GetDoctors lists active doctors for the appointment doctor picker.
func (h *UserHandler) GetDoctors(c *gin.Context) {
	var doctors []models.User
	if err := h.DB.Where("role = ? AND is_active = ?", models.RoleDoctor, true).
		Order("last_name, first_name").Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors")
		return
	}
	utils.Success(c, "Doctors fetched successfully", sanitizeAll(doctors))
}

func sanitizeAll(users []models.User) []models.UserSanitized {
	out := make([]models.UserSanitized, len(users))
	for i := range users {
		out[i] = users[i].Sanitize()
	}
	return out
}

func actor(c *gin.Context) string {
	id, _ := middleware.GetUserIDFromContext(c)
	return id
}
