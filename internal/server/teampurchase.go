package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/lumina/pkg/db/pagination"
)

type createTeamPurchaseRequest struct {
	Title    string         `json:"title"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) CreateTeamPurchase(c *gin.Context) {
	var req createTeamPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		AbortWithError(c, newValidationError("title", "required", "title is required"))
		return
	}

	purchase, err := s.teamPurchaseSvc.Create(c.Request.Context(), strings.TrimSpace(req.Title), req.Metadata)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": purchase})
}

func (s *Server) GetTeamPurchase(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	purchase, err := s.teamPurchaseSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": purchase})
}

type addContributionRequest struct {
	MemberID string `json:"member_id"`
	Amount   int64  `json:"amount"`
}

func (s *Server) AddTeamPurchaseContribution(c *gin.Context) {
	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req addContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	memberID, err := parseOptionalSnowflakeID(req.MemberID)
	if err != nil || memberID == nil {
		AbortWithError(c, newValidationError("member_id", "invalid_id", "invalid member id"))
		return
	}

	contribution, err := s.teamPurchaseSvc.AddContribution(c.Request.Context(), purchaseID, *memberID, req.Amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": contribution})
}

func (s *Server) CalculateTeamPurchase(c *gin.Context) {
	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summary, err := s.teamPurchaseSvc.CalculateBonuses(c.Request.Context(), purchaseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

type approveTeamPurchaseRequest struct {
	ApproverID string `json:"approver_id"`
}

func (s *Server) ApproveTeamPurchase(c *gin.Context) {
	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req approveTeamPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	approverID, err := parseOptionalSnowflakeID(req.ApproverID)
	if err != nil || approverID == nil {
		AbortWithError(c, newValidationError("approver_id", "invalid_id", "invalid approver id"))
		return
	}

	if err := s.teamPurchaseSvc.Approve(c.Request.Context(), purchaseID, *approverID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"approved": true}})
}

func (s *Server) PayoutTeamPurchase(c *gin.Context) {
	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.teamPurchaseSvc.Payout(c.Request.Context(), purchaseID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"paid_out": true}})
}

func (s *Server) ListTeamPurchaseBonuses(c *gin.Context) {
	purchaseID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	bonuses, err := s.teamPurchaseSvc.BonusesByPurchase(c.Request.Context(), purchaseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bonuses})
}

// ListMemberTeamBonuses serves the member-facing payout feed, cursor
// paginated. role=contributor flips the view from beneficiary to contributor.
func (s *Server) ListMemberTeamBonuses(c *gin.Context) {
	memberID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	if strings.EqualFold(strings.TrimSpace(c.Query("role")), "contributor") {
		bonuses, info, listErr := s.teamPurchaseSvc.BonusesByContributor(ctx, memberID, page)
		if listErr != nil {
			AbortWithError(c, listErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": bonuses, "page_info": info})
		return
	}

	bonuses, info, err := s.teamPurchaseSvc.BonusesByBeneficiary(ctx, memberID, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bonuses, "page_info": info})
}
