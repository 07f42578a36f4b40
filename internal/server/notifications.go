package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type emailRequest struct {
	Email string `json:"email"`
}

func (s *Server) SubscribeEmail(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	arn, err := s.notifySvc.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "SNS subscription set up successfully",
		"SubscriptionArn": arn,
	})
}

func (s *Server) UnsubscribeEmail(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.notifySvc.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unsubscribed from SNS successfully"})
}

func (s *Server) CheckSubscription(c *gin.Context) {
	subscribed, err := s.notifySvc.IsSubscribed(c.Request.Context(), c.Query("email"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"isSubscribed": subscribed})
}
