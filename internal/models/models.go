package models

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Setting is the singleton row holding sandbox-wide secrets
type Setting struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // 64 hex chars, generated on first start
}

// User represents an account of the platform
type User struct {
	BaseModel
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name"`
	IsAdmin      bool      `json:"is_admin" gorm:"not null;default:false"`
	IsBusiness   bool      `json:"is_business" gorm:"not null;default:false"`
	UpdatedAt    time.Time `json:"-" gorm:"autoUpdateTime"`
}

// Session backs one auth_token cookie. Deleting the row revokes the cookie.
type Session struct {
	BaseModel
	UserID    string    `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Expired reports whether the session is past its expiry
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Magazine is a business warehouse packages are sent from
type Magazine struct {
	BaseModel
	OwnerID string  `json:"-" gorm:"not null;index"`
	Name    string  `json:"name" gorm:"not null"`
	Address string  `json:"address" gorm:"not null"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`

	Owner User `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}

// Package sizes
const (
	SizeSmall  = "S"
	SizeMedium = "M"
	SizeLarge  = "L"
)

// Package statuses
const (
	StatusCreated   = "CREATED"
	StatusInTransit = "IN_TRANSIT"
	StatusInLocker  = "IN_LOCKER"
	StatusDelivered = "DELIVERED"
	StatusReturned  = "RETURNED"
)

var statusDisplay = map[string]string{
	StatusCreated:   "Created",
	StatusInTransit: "In transit",
	StatusInLocker:  "Ready for pickup",
	StatusDelivered: "Delivered",
	StatusReturned:  "Returned to sender",
}

// ValidStatus reports whether status is a known package status
func ValidStatus(status string) bool {
	_, ok := statusDisplay[status]
	return ok
}

// StatusDisplay returns the human label of a package status
func StatusDisplay(status string) string {
	if label, ok := statusDisplay[status]; ok {
		return label
	}
	return status
}

var sizePrices = map[string]string{
	SizeSmall:  "10.00",
	SizeMedium: "15.00",
	SizeLarge:  "20.00",
}

// PriceForSize returns the flat price of a package size
func PriceForSize(size string) (string, bool) {
	price, ok := sizePrices[size]
	return price, ok
}

// Package is a parcel created by a business account
type Package struct {
	BaseModel
	OwnerID         string  `json:"-" gorm:"not null;index"`
	MagazineID      string  `json:"magazine_id" gorm:"not null"`
	ReceiverName    string  `json:"receiver_name" gorm:"not null"`
	ReceiverAddress string  `json:"receiver_address" gorm:"not null"`
	Size            string  `json:"size" gorm:"type:varchar(1);not null"`
	Weight          float64 `json:"weight"`
	Status          string  `json:"status" gorm:"not null;default:CREATED"`
	IsPaid          bool    `json:"is_paid" gorm:"not null;default:false"`
	Price           string  `json:"price" gorm:"not null"`
	PickupCode      string  `json:"pickup_code" gorm:"type:varchar(6);uniqueIndex"`

	Magazine Magazine      `json:"-" gorm:"foreignKey:MagazineID;constraint:OnDelete:CASCADE"`
	History  []StatusEvent `json:"-" gorm:"foreignKey:PackageID"`
}

// maxPickupCodeAttempts bounds the search for an unused pickup code
const maxPickupCodeAttempts = 10

// ErrPickupCodesExhausted is returned when no unused pickup code was drawn
var ErrPickupCodesExhausted = errors.New("could not allocate a unique pickup code")

// newPickupCode is replaced in tests to force collisions
var newPickupCode = GeneratePickupCode

// BeforeCreate generates the ULID and a six digit pickup code not used by
// any other package
func (p *Package) BeforeCreate(tx *gorm.DB) error {
	if err := p.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	if p.PickupCode != "" {
		return nil
	}

	lookup := tx.Session(&gorm.Session{NewDB: true})
	for attempt := 0; attempt < maxPickupCodeAttempts; attempt++ {
		code, err := newPickupCode()
		if err != nil {
			return err
		}

		var count int64
		if err := lookup.Model(&Package{}).Where("pickup_code = ?", code).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check pickup code: %w", err)
		}
		if count == 0 {
			p.PickupCode = code
			return nil
		}
	}
	return ErrPickupCodesExhausted
}

// GeneratePickupCode returns a random six digit code
func GeneratePickupCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	code := n.String()
	for len(code) < 6 {
		code = "0" + code
	}
	return code, nil
}

// SetStatus moves the package to status and appends the matching history
// entry. Callers run it inside a transaction.
func (p *Package) SetStatus(tx *gorm.DB, status string, at time.Time) error {
	if !ValidStatus(status) {
		return fmt.Errorf("unknown package status %q", status)
	}
	if err := tx.Model(p).Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update package status: %w", err)
	}
	if err := tx.Create(&StatusEvent{PackageID: p.ID, Status: status, Timestamp: at}).Error; err != nil {
		return fmt.Errorf("failed to record status event: %w", err)
	}
	p.Status = status
	return nil
}

// StatusEvent is one entry of a package's tracking history
type StatusEvent struct {
	BaseModel
	PackageID string    `gorm:"not null;index"`
	Status    string    `gorm:"not null"`
	Timestamp time.Time `gorm:"not null"`
}

// Business request statuses
const (
	RequestPending  = "PENDING"
	RequestApproved = "APPROVED"
	RequestRejected = "REJECTED"
)

// BusinessRequest is a user's application for a business account.
// A user has at most one, and a tax ID is used at most once.
type BusinessRequest struct {
	BaseModel
	UserID      string `json:"-" gorm:"not null;uniqueIndex"`
	CompanyName string `json:"company_name" gorm:"not null"`
	TaxID       string `json:"tax_id" gorm:"type:varchar(50);not null;uniqueIndex"`
	Address     string `json:"address"`
	Status      string `json:"status" gorm:"not null;default:PENDING"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&Setting{}, &User{}, &Session{}, &Magazine{}, &Package{}, &StatusEvent{}, &BusinessRequest{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
