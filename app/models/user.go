package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER        = "user"
	ROLE_ADMIN       = "admin"
	STATUS_ACTIVE    = "active"
	STATUS_INACTIVE  = "inactive"
	STATUS_SUSPENDED = "suspended"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email        string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password     string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Phone        string         `gorm:"type:varchar(20);default:null" json:"phone" validate:"max=20"`
	Role         string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Status       string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive suspended"`
	ReferralCode string         `gorm:"type:varchar(50);index;default:null" json:"referral_code"`
	Bio          string         `gorm:"type:text;default:null" json:"bio" validate:"max=1000"`
	AvatarURL    string         `gorm:"type:varchar(255);default:null" json:"avatar_url" validate:"max=255"`
	LastLoginAt  *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(name string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:     name,
		Email:    email,
		Password: pw,
		Role:     ROLE_USER,
		Status:   STATUS_ACTIVE,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool {
	return u.Role == ROLE_ADMIN
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// GenerateReferralCode assigns a random referral code to the user.
func (u *User) GenerateReferralCode() error {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	u.ReferralCode = hex.EncodeToString(b)
	return nil
}
