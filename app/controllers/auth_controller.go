package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/AJ-Collins/elite-trading-sub000/app/models"
	"github.com/AJ-Collins/elite-trading-sub000/app/repository"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/jwt"
	"github.com/AJ-Collins/elite-trading-sub000/internal/pkg/mail"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new account and returns a signed token.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	repo := repository.GetGlobalFactory().GetUserRepository()

	if _, err := repo.GetByEmail(req.Email); err == nil {
		return jsonError(c, fiber.StatusConflict, "conflict", "An account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("[Auth] email lookup failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Registration failed")
	}

	user, err := models.CreateUser(strings.TrimSpace(req.Name), req.Email, req.Password)
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}
	user.Phone = strings.TrimSpace(req.Phone)
	if err := user.GenerateReferralCode(); err != nil {
		log.Warnf("[Auth] referral code generation failed: %v", err)
	}

	if err := repo.Create(user); err != nil {
		log.Errorf("[Auth] user create failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Registration failed")
	}

	token, err := jwt.GenerateToken(user.ID, user.Role)
	if err != nil {
		log.Errorf("[Auth] token generation failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Registration succeeded but login failed")
	}

	go func(email, name string) {
		if err := mail.SendWelcome(email, name); err != nil {
			log.Warnf("[Auth] welcome mail to %s failed: %v", email, err)
		}
	}(user.Email, user.Name)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// HandleLogin verifies credentials and returns a signed token.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid email or password")
		}
		log.Errorf("[Auth] login lookup failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Login failed")
	}

	if !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Invalid email or password")
	}
	if !user.IsActive() {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "Account is "+user.Status)
	}

	token, err := jwt.GenerateToken(user.ID, user.Role)
	if err != nil {
		log.Errorf("[Auth] token generation failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Login failed")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repo.Update(user); err != nil {
		log.Warnf("[Auth] last login update failed: %v", err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}
