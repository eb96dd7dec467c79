package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/postmat-dev/postmat/internal/models"
)

// SubmitBusinessRequest represents the business onboarding request
type SubmitBusinessRequest struct {
	TaxID       string `json:"tax_id" binding:"required,numeric,len=10"`
	CompanyName string `json:"company_name" binding:"required"`
	Address     string `json:"address"`
}

// BusinessRequestActionRequest represents an admin review action
type BusinessRequestActionRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject delete"`
}

func (s *Server) getBusinessRequest(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req models.BusinessRequest
	if err := s.db.Where("user_id = ?", sessionData.UserID).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "No request found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find business request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, req)
}

func (s *Server) submitBusinessRequest(c *gin.Context) {
	var body SubmitBusinessRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionData, _ := GetSessionData(c)

	var count int64
	if err := s.db.Model(&models.BusinessRequest{}).Where("tax_id = ?", body.TaxID).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check tax id")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This NIP is already registered with an existing account."})
		return
	}

	if err := s.db.Model(&models.BusinessRequest{}).Where("user_id = ?", sessionData.UserID).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check existing request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You have already submitted a business request."})
		return
	}

	req := &models.BusinessRequest{
		UserID:      sessionData.UserID,
		CompanyName: body.CompanyName,
		TaxID:       body.TaxID,
		Address:     body.Address,
		Status:      models.RequestPending,
	}
	if err := s.db.Create(req).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create business request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create business request"})
		return
	}

	s.logger.Info().Str("request_id", req.ID).Str("user_id", sessionData.UserID).Msg("Business request submitted")
	c.JSON(http.StatusCreated, req)
}

func (s *Server) listBusinessRequests(c *gin.Context) {
	requests := []models.BusinessRequest{}
	if err := s.db.Order("created_at DESC").Find(&requests).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list business requests")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, requests)
}

// actOnBusinessRequest approves, rejects or deletes a request. Approval
// grants the requester the business role; rejection withdraws it.
func (s *Server) actOnBusinessRequest(c *gin.Context) {
	requestID := c.Param("id")
	if err := s.validator.Var(requestID, "ulid"); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	var body BusinessRequestActionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req models.BusinessRequest
	if err := models.FindByID(s.db, requestID, &req); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find business request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	sessionData, _ := GetSessionData(c)

	if body.Action == "delete" {
		if err := s.db.Delete(&req).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to delete business request")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		s.logger.Info().Str("request_id", req.ID).Str("admin_id", sessionData.UserID).Msg("Business request deleted")
		c.JSON(http.StatusOK, gin.H{"status": "success", "deleted": true})
		return
	}

	newStatus := models.RequestApproved
	if body.Action == "reject" {
		newStatus = models.RequestRejected
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&req).Update("status", newStatus).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", req.UserID).
			Update("is_business", newStatus == models.RequestApproved).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to update business request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().
		Str("request_id", req.ID).
		Str("admin_id", sessionData.UserID).
		Str("new_status", newStatus).
		Msg("Business request reviewed")
	c.JSON(http.StatusOK, gin.H{"status": "success", "new_status": newStatus})
}
