package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/postmat-dev/postmat/internal/models"
)

// PickupRequest opens the locker holding a package
type PickupRequest struct {
	Contact    string `json:"contact" binding:"required"`
	UnlockCode string `json:"unlock_code" binding:"required,numeric,len=6"`
}

// UpdateStatusRequest moves a package to a new status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=CREATED IN_TRANSIT IN_LOCKER DELIVERED RETURNED"`
}

// UpdateStatusResponse is returned after an admin status change
type UpdateStatusResponse struct {
	Message       string `json:"message"`
	Status        string `json:"status"`
	StatusDisplay string `json:"status_display"`
}

// listUserPackages returns the parcels sent from the current account
func (s *Server) listUserPackages(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	packages := []models.Package{}
	if err := s.db.Where("owner_id = ?", sessionData.UserID).Order("created_at DESC").Find(&packages).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list user packages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, packages)
}

// pickupPackage hands a package waiting in a locker to its receiver. The
// contact must match the receiver name and the unlock code the pickup code.
func (s *Server) pickupPackage(c *gin.Context) {
	var req PickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Contact and a six digit unlock code are required."})
		return
	}

	var pkg models.Package
	if err := s.db.Where("pickup_code = ?", req.UnlockCode).First(&pkg).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().Err(err).Msg("Failed to find package for pickup")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contact or unlock code."})
		return
	}

	if !strings.EqualFold(strings.TrimSpace(req.Contact), strings.TrimSpace(pkg.ReceiverName)) {
		s.logger.Warn().Str("package_id", pkg.ID).Msg("Pickup attempted with wrong contact")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contact or unlock code."})
		return
	}

	if pkg.Status != models.StatusInLocker {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Package is not ready for pickup."})
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return pkg.SetStatus(tx, models.StatusDelivered, s.now().UTC())
	})
	if err != nil {
		s.logger.Error().Err(err).Str("package_id", pkg.ID).Msg("Failed to complete pickup")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().Str("package_id", pkg.ID).Msg("Package picked up")
	c.JSON(http.StatusOK, gin.H{"message": "Package collected. The locker is open."})
}

func (s *Server) updatePackageStatus(c *gin.Context) {
	packageID := c.Param("id")
	if err := s.validator.Var(packageID, "ulid"); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	var pkg models.Package
	if err := models.FindByID(s.db, packageID, &pkg); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find package")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return pkg.SetStatus(tx, req.Status, s.now().UTC())
	})
	if err != nil {
		s.logger.Error().Err(err).Str("package_id", pkg.ID).Msg("Failed to update package status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("package_id", pkg.ID).
		Str("admin_id", sessionData.UserID).
		Str("status", req.Status).
		Msg("Package status updated")

	c.JSON(http.StatusOK, UpdateStatusResponse{
		Message:       "Status updated successfully",
		Status:        req.Status,
		StatusDisplay: models.StatusDisplay(req.Status),
	})
}
