package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/lease"
)

// pathID reads the :id parameter and rejects anything that is not a UUID with a 404,
// since no row can match it.
func pathID(c *gin.Context, notFound string) (string, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	if _, err := uuid.Parse(raw); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return "", false
	}
	return raw, true
}

// listParams is the limit/page/all/sort_by/sort_dir contract shared by list endpoints.
type listParams struct {
	All     bool
	Limit   int
	Page    int
	SortCol string
	SortDir string
}

func parseListParams(c *gin.Context, defaultLimit int, defaultSort string, allowedSorts map[string]string) listParams {
	p := listParams{
		All:   strings.EqualFold(c.Query("all"), "true") || c.Query("all") == "1",
		Limit: defaultLimit,
		Page:  1,
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Limit = n
		}
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}
	sortBy := strings.ToLower(c.DefaultQuery("sort_by", defaultSort))
	col, ok := allowedSorts[sortBy]
	if !ok {
		col = allowedSorts[defaultSort]
	}
	p.SortCol = col
	p.SortDir = strings.ToUpper(c.DefaultQuery("sort_dir", "DESC"))
	if p.SortDir != "ASC" && p.SortDir != "DESC" {
		p.SortDir = "DESC"
	}
	return p
}

func (p listParams) Order() string { return fmt.Sprintf("%s %s", p.SortCol, p.SortDir) }

func (p listParams) Offset() int { return (p.Page - 1) * p.Limit }

func (p listParams) Meta(total int64) gin.H {
	meta := gin.H{"total": total, "all": p.All}
	if !p.All {
		meta["limit"] = p.Limit
		meta["page"] = p.Page
		meta["sort_by"] = p.SortCol
		meta["sort_dir"] = p.SortDir
	}
	return meta
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(c *gin.Context, key string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	t, err := lease.ParseDate(raw)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation failed",
			"errors": gin.H{key: "must be a date in YYYY-MM-DD format"},
		})
		return nil, false
	}
	return &t, true
}

// queryBool accepts true/false/1/0; empty means unset.
func queryBool(c *gin.Context, key string) (*bool, bool) {
	switch strings.TrimSpace(strings.ToLower(c.Query(key))) {
	case "":
		return nil, true
	case "true", "1":
		v := true
		return &v, true
	case "false", "0":
		v := false
		return &v, true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key + " value"})
		return nil, false
	}
}
