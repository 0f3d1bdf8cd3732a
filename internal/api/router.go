package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/LJTian/CompetitorTracker/internal/storage"
	"github.com/gin-gonic/gin"
)

type Server struct {
	store *storage.Store
}

func NewServer(store *storage.Store) *Server {
	return &Server{store: store}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/reports", s.listReports)
		// :date 为 YYYY-MM-DD 或 latest
		v1.GET("/reports/:date", s.getReport)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listReports(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "31"))
	if err != nil || limit <= 0 {
		limit = 31
	}

	dates, err := s.store.ListDates(limit)
	if err != nil {
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    dates,
	})
}

func (s *Server) getReport(c *gin.Context) {
	date := c.Param("date")
	if date == "latest" {
		latest, err := s.store.Latest()
		if err != nil {
			s.reportError(c, err)
			return
		}
		date = latest
	}

	data, err := s.store.Load(date)
	if err != nil {
		s.reportError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", data)
}

func (s *Server) reportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrReportNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "message": "report not found"})
	case errors.Is(err, storage.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid_date", "message": "date must be YYYY-MM-DD or latest"})
	default:
		internalError(c)
	}
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}
