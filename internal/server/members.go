package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/lumina/internal/audit/domain"
	hierarchydomain "github.com/smallbiznis/lumina/internal/hierarchy/domain"
	memberdomain "github.com/smallbiznis/lumina/internal/member/domain"
	orderdomain "github.com/smallbiznis/lumina/internal/order/domain"
)

type createMemberRequest struct {
	ParentID string `json:"parent_id"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

func (s *Server) CreateMember(c *gin.Context) {
	var req createMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	parentID, err := parseOptionalSnowflakeID(req.ParentID)
	if err != nil {
		AbortWithError(c, newValidationError("parent_id", "invalid_parent_id", "invalid parent id"))
		return
	}

	member := &memberdomain.Member{
		ID:       s.genID.Generate(),
		ParentID: parentID,
		Role:     strings.TrimSpace(req.Role),
		Status:   strings.TrimSpace(req.Status),
	}
	if member.Role == "" {
		member.Role = "dealer"
	}
	if member.Status == "" {
		member.Status = memberdomain.StatusActive
	}

	if parentID != nil {
		parent, findErr := s.memberRepo.FindByID(c.Request.Context(), s.db, *parentID)
		if findErr != nil {
			AbortWithError(c, findErr)
			return
		}
		if parent == nil {
			AbortWithError(c, memberdomain.ErrNotFound)
			return
		}
	}

	if err := s.memberRepo.Insert(c.Request.Context(), s.db, member); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": member})
}

func (s *Server) GetMember(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	member, err := s.memberRepo.FindByID(c.Request.Context(), s.db, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if member == nil {
		AbortWithError(c, memberdomain.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": member})
}

func (s *Server) GetMemberParent(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	parentID, ok, err := s.hierarchySvc.ResolveParent(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"data": nil})
		return
	}

	parent, err := s.memberRepo.FindByID(c.Request.Context(), s.db, parentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if parent == nil {
		AbortWithError(c, memberdomain.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": parent})
}

func (s *Server) ListMemberChildren(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	children, err := s.hierarchySvc.ResolveChildren(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": children})
}

func (s *Server) ListMemberAncestors(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ancestors, err := s.hierarchySvc.WalkAncestors(c.Request.Context(), id, 0)
	if err != nil && !errors.Is(err, hierarchydomain.ErrCycleDetected) {
		AbortWithError(c, err)
		return
	}

	resp := gin.H{"data": ancestors}
	if errors.Is(err, hierarchydomain.ErrCycleDetected) {
		resp["warning"] = hierarchydomain.ErrCycleDetected.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListMemberDescendants(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	descendants, err := s.hierarchySvc.WalkDescendants(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": descendants})
}

type createOrderRequest struct {
	TotalAmount int64  `json:"total_amount"`
	Status      string `json:"status"`
	PaidAt      string `json:"paid_at"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	memberID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.TotalAmount <= 0 {
		AbortWithError(c, newValidationError("total_amount", "invalid_amount", "total_amount must be positive"))
		return
	}

	owner, err := s.memberRepo.FindByID(c.Request.Context(), s.db, memberID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if owner == nil {
		AbortWithError(c, memberdomain.ErrNotFound)
		return
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = orderdomain.StatusPending
	}

	var paidAt *time.Time
	if strings.TrimSpace(req.PaidAt) != "" {
		parsed, parseErr := time.Parse(time.RFC3339, strings.TrimSpace(req.PaidAt))
		if parseErr != nil {
			AbortWithError(c, newValidationError("paid_at", "invalid_paid_at", "paid_at must be RFC3339"))
			return
		}
		paidAt = &parsed
	}
	if status == orderdomain.StatusPaid && paidAt == nil {
		now := time.Now().UTC()
		paidAt = &now
	}

	order := &orderdomain.Order{
		ID:          s.genID.Generate(),
		MemberID:    memberID,
		TotalAmount: req.TotalAmount,
		Status:      status,
		PaidAt:      paidAt,
	}
	if err := s.orderRepo.Insert(c.Request.Context(), s.db, order); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) GetMemberTurnover(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	periodStart, err := parsePeriodParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	record, err := s.ledger.Current(c.Request.Context(), id, periodStart)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if record == nil {
		AbortWithError(c, auditdomain.ErrNoTurnoverRecord)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}

func (s *Server) ListMemberBonuses(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	periodStart, err := parsePeriodParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	bonuses, err := s.ledger.ListMonthlyBonuses(c.Request.Context(), periodStart, &id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bonuses})
}
