package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/lumina/internal/audit/domain"
)

func (s *Server) ListTurnover(c *gin.Context) {
	periodStart, err := parsePeriodParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	records, err := s.ledger.ListCurrent(c.Request.Context(), periodStart)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}

// RecalculateTurnover recomputes either one member (member_id given) or the
// whole period.
func (s *Server) RecalculateTurnover(c *gin.Context) {
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

	if memberID != nil {
		record, recalcErr := s.aggregator.RecalculateMember(c.Request.Context(), *memberID, periodStart)
		if recalcErr != nil {
			AbortWithError(c, recalcErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
		return
	}

	count, err := s.aggregator.RecalculateAll(c.Request.Context(), periodStart)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"records_written": count}})
}

func (s *Server) InitializePeriod(c *gin.Context) {
	periodStart, err := parsePeriodParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	created, err := s.ledger.InitializePeriod(c.Request.Context(), periodStart)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"rows_created": created}})
}

func (s *Server) FinalizePeriod(c *gin.Context) {
	periodStart, err := parsePeriodParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	snapshotted, err := s.ledger.Finalize(c.Request.Context(), periodStart)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"rows_finalized": snapshotted}})
}

func (s *Server) MarkPeriodPaid(c *gin.Context) {
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

	updated, err := s.ledger.MarkPaid(c.Request.Context(), periodStart, memberID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"rows_paid": updated}})
}

func (s *Server) ListTurnoverHistory(c *gin.Context) {
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

	if memberID != nil {
		record, histErr := s.ledger.History(c.Request.Context(), *memberID, periodStart)
		if histErr != nil {
			AbortWithError(c, histErr)
			return
		}
		if record == nil {
			AbortWithError(c, auditdomain.ErrNoTurnoverRecord)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
		return
	}

	records, err := s.ledger.ListHistory(c.Request.Context(), periodStart)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}

func (s *Server) ListMonthlyBonuses(c *gin.Context) {
	periodStart, err := parsePeriodParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	beneficiaryID, err := parseOptionalSnowflakeID(strings.TrimSpace(c.Query("beneficiary_id")))
	if err != nil {
		AbortWithError(c, newValidationError("beneficiary_id", "invalid_id", "invalid beneficiary id"))
		return
	}

	bonuses, err := s.ledger.ListMonthlyBonuses(c.Request.Context(), periodStart, beneficiaryID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bonuses})
}
