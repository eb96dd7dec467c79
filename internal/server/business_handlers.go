package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/postmat-dev/postmat/internal/models"
)

// DashboardStatsResponse summarises the business panel
type DashboardStatsResponse struct {
	TotalPackages  int64 `json:"total_packages"`
	UnpaidPackages int64 `json:"unpaid_packages"`
	TotalMagazines int64 `json:"total_magazines"`
}

// CreateMagazineRequest represents the magazine creation request
type CreateMagazineRequest struct {
	Name    string  `json:"name" binding:"required"`
	Address string  `json:"address" binding:"required"`
	Lat     float64 `json:"lat" binding:"gte=-90,lte=90"`
	Lng     float64 `json:"lng" binding:"gte=-180,lte=180"`
}

// CreatePackageRequest represents the package creation request
type CreatePackageRequest struct {
	MagazineID      string  `json:"magazine_id" binding:"required"`
	ReceiverName    string  `json:"receiver_name" binding:"required"`
	ReceiverAddress string  `json:"receiver_address" binding:"required"`
	Size            string  `json:"size" binding:"required,oneof=S M L"`
	Weight          float64 `json:"weight" binding:"gt=0"`
}

func (s *Server) dashboardStats(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var stats DashboardStatsResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Package{}).Where("owner_id = ?", sessionData.UserID).Count(&stats.TotalPackages).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Package{}).Where("owner_id = ? AND is_paid = ?", sessionData.UserID, false).Count(&stats.UnpaidPackages).Error; err != nil {
			return err
		}
		return tx.Model(&models.Magazine{}).Where("owner_id = ?", sessionData.UserID).Count(&stats.TotalMagazines).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute dashboard stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (s *Server) listMagazines(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	magazines := []models.Magazine{}
	if err := s.db.Where("owner_id = ?", sessionData.UserID).Order("created_at ASC").Find(&magazines).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list magazines")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, magazines)
}

func (s *Server) createMagazine(c *gin.Context) {
	var req CreateMagazineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionData, _ := GetSessionData(c)

	magazine := &models.Magazine{
		OwnerID: sessionData.UserID,
		Name:    req.Name,
		Address: req.Address,
		Lat:     req.Lat,
		Lng:     req.Lng,
	}
	if err := s.db.Create(magazine).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create magazine")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create magazine"})
		return
	}

	s.logger.Info().Str("magazine_id", magazine.ID).Str("owner_id", sessionData.UserID).Msg("Magazine created")
	c.JSON(http.StatusCreated, magazine)
}

func (s *Server) listPackages(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	packages := []models.Package{}
	if err := s.db.Where("owner_id = ?", sessionData.UserID).Order("created_at DESC").Find(&packages).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list packages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, packages)
}

// createPackage creates an unpaid package priced by its size, with a CREATED
// entry in its tracking history
func (s *Server) createPackage(c *gin.Context) {
	var req CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionData, _ := GetSessionData(c)

	var magazine models.Magazine
	if err := s.db.Where("id = ? AND owner_id = ?", req.MagazineID, sessionData.UserID).First(&magazine).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Magazine not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find magazine")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	price, _ := models.PriceForSize(req.Size)
	pkg := &models.Package{
		OwnerID:         sessionData.UserID,
		MagazineID:      magazine.ID,
		ReceiverName:    req.ReceiverName,
		ReceiverAddress: req.ReceiverAddress,
		Size:            req.Size,
		Weight:          req.Weight,
		Status:          models.StatusCreated,
		Price:           price,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(pkg).Error; err != nil {
			return err
		}
		return tx.Create(&models.StatusEvent{
			PackageID: pkg.ID,
			Status:    models.StatusCreated,
			Timestamp: s.now().UTC(),
		}).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create package")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create package"})
		return
	}

	s.logger.Info().Str("package_id", pkg.ID).Str("owner_id", sessionData.UserID).Str("size", pkg.Size).Msg("Package created")
	c.JSON(http.StatusCreated, pkg)
}
