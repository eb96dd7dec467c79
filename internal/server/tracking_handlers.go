package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/postmat-dev/postmat/internal/models"
)

// TrackingEvent is one entry of the public tracking history
type TrackingEvent struct {
	Status        string    `json:"status"`
	StatusDisplay string    `json:"status_display"`
	Timestamp     time.Time `json:"timestamp"`
}

// TrackingResponse is the public view of a package
type TrackingResponse struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Size      string          `json:"size"`
	CreatedAt time.Time       `json:"created_at"`
	History   []TrackingEvent `json:"history"`
}

// trackPackage looks a package up by ID, falling back to its pickup code
func (s *Server) trackPackage(c *gin.Context) {
	query := c.Param("id")

	var pkg models.Package
	err := s.db.Preload("History", func(db *gorm.DB) *gorm.DB {
		return db.Order("timestamp ASC")
	}).Where("id = ? OR pickup_code = ?", query, query).First(&pkg).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Package not found. Please check the ID."})
		return
	}

	resp := TrackingResponse{
		ID:        pkg.ID,
		Status:    pkg.Status,
		Size:      pkg.Size,
		CreatedAt: pkg.CreatedAt,
		History:   make([]TrackingEvent, 0, len(pkg.History)),
	}
	for _, event := range pkg.History {
		resp.History = append(resp.History, TrackingEvent{
			Status:        event.Status,
			StatusDisplay: models.StatusDisplay(event.Status),
			Timestamp:     event.Timestamp,
		})
	}

	c.JSON(http.StatusOK, resp)
}
