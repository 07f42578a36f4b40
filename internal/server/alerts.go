package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	alertdomain "github.com/gridsense/wattkeeper/internal/alert/domain"
)

func (s *Server) SetThreshold(c *gin.Context) {
	var req alertdomain.SetThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if _, err := s.alertSvc.Set(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Threshold set successfully"})
}

func (s *Server) GetCurrentThreshold(c *gin.Context) {
	config, err := s.alertSvc.Current(c.Request.Context(), c.Query("customer_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if config == nil {
		c.JSON(http.StatusOK, gin.H{
			"threshold": nil,
			"message":   "No threshold set for this customer",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"threshold": config.ThresholdKWh.InexactFloat64()})
}
