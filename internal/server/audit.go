package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuditCheck compares stored aggregates against recomputation. Scope narrows
// with member_id, and subtree=true widens one member to its whole downline.
func (s *Server) AuditCheck(c *gin.Context) {
	periodStart, err := parsePeriodParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	memberID, err := parseOptionalSnowflakeID(c.Query("member_id"))
	if err != nil {
		AbortWithError(c, newValidationError("member_id", "invalid_id", "invalid member id"))
		return
	}

	subtree := strings.EqualFold(strings.TrimSpace(c.Query("subtree")), "true")

	ctx := c.Request.Context()
	switch {
	case memberID != nil && subtree:
		findings, checkErr := s.auditSvc.CheckSubtree(ctx, *memberID, periodStart)
		if checkErr != nil {
			AbortWithError(c, checkErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": findings})
	case memberID != nil:
		findings, checkErr := s.auditSvc.CheckMember(ctx, *memberID, periodStart)
		if checkErr != nil {
			AbortWithError(c, checkErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": findings})
	default:
		findings, checkErr := s.auditSvc.CheckAll(ctx, periodStart)
		if checkErr != nil {
			AbortWithError(c, checkErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": findings})
	}
}

type auditFixRequest struct {
	MemberID  string `json:"member_id"`
	CheckType string `json:"check_type"`
}

func (s *Server) AuditFix(c *gin.Context) {
	var req auditFixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	periodStart, err := parsePeriodParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	memberID, err := parseOptionalSnowflakeID(req.MemberID)
	if err != nil || memberID == nil {
		AbortWithError(c, newValidationError("member_id", "invalid_id", "invalid member id"))
		return
	}

	ctx := c.Request.Context()
	switch strings.ToLower(strings.TrimSpace(req.CheckType)) {
	case "personal":
		err = s.auditSvc.FixPersonalTurnover(ctx, *memberID, periodStart)
	case "team":
		err = s.auditSvc.FixTeamTurnover(ctx, *memberID, periodStart)
	case "hierarchy":
		ids, fixErr := s.auditSvc.FixHierarchy(ctx, *memberID)
		if fixErr != nil {
			AbortWithError(c, fixErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"mutated": ids}})
		return
	default:
		AbortWithError(c, newValidationError("check_type", "invalid_check_type", "check_type must be personal, team or hierarchy"))
		return
	}

	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"fixed": true}})
}

func (s *Server) AuditFixAll(c *gin.Context) {
	periodStart, err := parsePeriodParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.auditSvc.FixAll(c.Request.Context(), periodStart)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}
