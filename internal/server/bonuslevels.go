package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	bonusleveldomain "github.com/smallbiznis/lumina/internal/bonuslevel/domain"
)

func (s *Server) ListBonusLevels(c *gin.Context) {
	levels, err := s.bonusLevelSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": levels})
}

func (s *Server) CreateBonusLevel(c *gin.Context) {
	var req bonusleveldomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	level, err := s.bonusLevelSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": level})
}

func (s *Server) UpdateBonusLevel(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req bonusleveldomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	level, err := s.bonusLevelSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": level})
}

func (s *Server) DeleteBonusLevel(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.bonusLevelSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
