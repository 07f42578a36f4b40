package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	readingdomain "github.com/gridsense/wattkeeper/internal/reading/domain"
)

func (s *Server) GetPresignedURL(c *gin.Context) {
	customerID := strings.TrimSpace(c.Query("customerId"))
	fileName := strings.TrimSpace(c.Query("fileName"))
	if customerID == "" || fileName == "" {
		AbortWithError(c, newValidationError("fileName", "invalid_request", "Missing customerId or fileName"))
		return
	}

	key := "uploads/" + fileName
	presignedURL, err := s.store.PresignPut(c.Request.Context(), key, "text/csv")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"presignedUrl": presignedURL,
		"fileUrl":      s.store.ObjectURL(key),
	})
}

func (s *Server) ProcessFile(c *gin.Context) {
	var req readingdomain.ImportCSVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if _, err := s.readingSvc.ImportCSV(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File processed and data stored successfully!"})
}
