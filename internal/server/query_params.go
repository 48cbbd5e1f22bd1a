package server

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/lumina/internal/period"
)

const periodLayout = "2006-01"

// parsePeriodParam reads the "period" query value ("2006-01"). An empty value
// resolves to the current month.
func parsePeriodParam(c *gin.Context) (time.Time, error) {
	raw := strings.TrimSpace(c.Query("period"))
	if raw == "" {
		return period.Of(time.Now().UTC()), nil
	}
	parsed, err := time.Parse(periodLayout, raw)
	if err != nil {
		return time.Time{}, newValidationError("period", "invalid_period", "period must be formatted YYYY-MM")
	}
	return period.Of(parsed), nil
}

func parseIDParam(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, newValidationError(name, "invalid_id", "invalid identifier")
	}
	return id, nil
}

func parseOptionalSnowflakeID(value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed == 0 {
		return nil, errors.New("invalid_snowflake_id")
	}
	return &parsed, nil
}
