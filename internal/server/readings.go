package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	readingdomain "github.com/gridsense/wattkeeper/internal/reading/domain"
)

func (s *Server) SubmitReading(c *gin.Context) {
	var req readingdomain.SubmitReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if _, err := s.readingSvc.Submit(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Energy usage submitted successfully"})
}

func (s *Server) GetHistory(c *gin.Context) {
	entries, err := s.readingSvc.History(c.Request.Context(), readingdomain.HistoryRequest{
		CustomerID: c.Query("customer_id"),
		StartDate:  c.Query("startDate"),
		EndDate:    c.Query("endDate"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (s *Server) GetSummary(c *gin.Context) {
	period := c.Query("period")
	if period == "" {
		period = readingdomain.PeriodDaily
	}

	entries, err := s.readingSvc.Summary(c.Request.Context(), readingdomain.SummaryRequest{
		CustomerID: c.Query("customer_id"),
		Period:     period,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (s *Server) GetCosts(c *gin.Context) {
	entries, err := s.readingSvc.Costs(c.Request.Context(), c.Query("customer_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}
