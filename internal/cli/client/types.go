package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ID is a resource identifier. The platform backend uses integer keys while
// the sandbox uses ULIDs, so both JSON numbers and strings are accepted.
type ID string

// UnmarshalJSON accepts a JSON string or number
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
}

// User is the authenticated account
type User struct {
	ID         ID     `json:"id" yaml:"id"`
	Email      string `json:"email" yaml:"email"`
	Name       string `json:"name" yaml:"name"`
	IsAdmin    bool   `json:"is_admin" yaml:"is_admin"`
	IsBusiness bool   `json:"is_business" yaml:"is_business"`
}

// DashboardStats summarises the business panel
type DashboardStats struct {
	TotalPackages  int `json:"total_packages" yaml:"total_packages"`
	UnpaidPackages int `json:"unpaid_packages" yaml:"unpaid_packages"`
	TotalMagazines int `json:"total_magazines" yaml:"total_magazines"`
}

// Magazine is a business warehouse packages are sent from
type Magazine struct {
	ID      ID      `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Address string  `json:"address" yaml:"address"`
	Lat     float64 `json:"lat" yaml:"lat"`
	Lng     float64 `json:"lng" yaml:"lng"`
}

// CreateMagazineRequest represents the magazine creation request
type CreateMagazineRequest struct {
	Name    string  `json:"name" validate:"required"`
	Address string  `json:"address" validate:"required"`
	Lat     float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng     float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Package is a parcel created by a business account
type Package struct {
	ID              ID        `json:"id" yaml:"id"`
	MagazineID      ID        `json:"magazine_id" yaml:"magazine_id"`
	ReceiverName    string    `json:"receiver_name" yaml:"receiver_name"`
	ReceiverAddress string    `json:"receiver_address" yaml:"receiver_address"`
	Size            string    `json:"size" yaml:"size"`
	Weight          float64   `json:"weight" yaml:"weight"`
	Status          string    `json:"status" yaml:"status"`
	IsPaid          bool      `json:"is_paid" yaml:"is_paid"`
	Price           string    `json:"price" yaml:"price"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
}

// CreatePackageRequest represents the package creation request
type CreatePackageRequest struct {
	MagazineID      ID      `json:"magazine_id" validate:"required"`
	ReceiverName    string  `json:"receiver_name" validate:"required"`
	ReceiverAddress string  `json:"receiver_address" validate:"required"`
	Size            string  `json:"size" validate:"required,oneof=S M L"`
	Weight          float64 `json:"weight" validate:"gt=0"`
}

// StatusEvent is one entry of a package's tracking history
type StatusEvent struct {
	Status        string    `json:"status" yaml:"status"`
	StatusDisplay string    `json:"status_display" yaml:"status_display"`
	Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`
}

// TrackedPackage is the public tracking view of a package
type TrackedPackage struct {
	ID        ID            `json:"id" yaml:"id"`
	Status    string        `json:"status" yaml:"status"`
	Size      string        `json:"size" yaml:"size"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	History   []StatusEvent `json:"history" yaml:"history"`
}

// BusinessRequest is a user's application for a business account
type BusinessRequest struct {
	ID          ID        `json:"id" yaml:"id"`
	CompanyName string    `json:"company_name" yaml:"company_name"`
	TaxID       string    `json:"tax_id" yaml:"tax_id"`
	Status      string    `json:"status" yaml:"status"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// SubmitBusinessRequest represents the business onboarding request
type SubmitBusinessRequest struct {
	TaxID       string `json:"tax_id" validate:"required,numeric,len=10"`
	CompanyName string `json:"company_name" validate:"required"`
	Address     string `json:"address,omitempty"`
}

// Business request review actions
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionDelete  = "delete"
)

// BusinessRequestActionResponse is returned after an admin review action
type BusinessRequestActionResponse struct {
	Status    string `json:"status" yaml:"status"`
	NewStatus string `json:"new_status,omitempty" yaml:"new_status,omitempty"`
	Deleted   bool   `json:"deleted,omitempty" yaml:"deleted,omitempty"`
}

// RegisterRequest represents the account registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

// PickupRequest opens the locker holding a package
type PickupRequest struct {
	Contact    string `json:"contact" validate:"required"`
	UnlockCode string `json:"unlock_code" validate:"required,numeric,len=6"`
}

// PickupResponse confirms a collected package
type PickupResponse struct {
	Message string `json:"message" yaml:"message"`
}

// Package statuses, in delivery order
var PackageStatuses = []string{"CREATED", "IN_TRANSIT", "IN_LOCKER", "DELIVERED", "RETURNED"}

// UpdateStatusResponse is returned after an admin status change
type UpdateStatusResponse struct {
	Message       string `json:"message" yaml:"message"`
	Status        string `json:"status" yaml:"status"`
	StatusDisplay string `json:"status_display" yaml:"status_display"`
}
