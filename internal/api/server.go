package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/podsight/internal/auth"
	"github.com/podsight/internal/database"
	"github.com/podsight/internal/models"
	"github.com/podsight/internal/report"

	"github.com/gin-gonic/gin"
)

type Server struct {
	service  *report.Service
	pipeline *report.Pipeline
	router   *gin.Engine
}

func NewServer(service *report.Service, pipeline *report.Pipeline) *Server {
	server := &Server{
		service:  service,
		pipeline: pipeline,
		router:   gin.Default(),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.POST("/api/v1/auth/login", s.login)

	api := s.router.Group("/api/v1")
	api.Use(auth.AuthMiddleware())

	api.GET("/reports", s.listReports)
	api.GET("/reports/:id", s.getReport)
	api.DELETE("/reports/:id", auth.RequireRole(models.RoleAdmin), s.deleteReport)
	api.POST("/reports/:type/generate", auth.RequireRole(models.RoleAdmin), s.generateReport)

	api.GET("/episodes", s.listEpisodes)
}

func (s *Server) Start(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

func (s *Server) login(c *gin.Context) {
	var loginReq struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.GetDB().Where("username = ?", loginReq.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !user.CheckPassword(loginReq.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) listReports(c *gin.Context) {
	reportType := models.ReportType(c.Query("type"))

	reports, err := s.service.List(c.Request.Context(), reportType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, reports)
}

func (s *Server) getReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report ID"})
		return
	}

	rep, err := s.service.Get(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, report.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	themes, err := s.service.Themes(c.Request.Context(), rep.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": rep, "themes": themes})
}

func (s *Server) deleteReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report ID"})
		return
	}

	if err := s.service.Delete(c.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, report.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "report deleted successfully"})
}

type generateRequest struct {
	Date    string `json:"date"`    // daily: YYYY-MM-DD
	Monday  string `json:"monday"`  // weekly
	Sunday  string `json:"sunday"`  // weekly
	Year    int    `json:"year"`    // monthly, quarterly
	Month   int    `json:"month"`   // monthly
	Quarter int    `json:"quarter"` // quarterly
}

func (s *Server) generateReport(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	period, err := buildPeriod(models.ReportType(c.Param("type")), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	generated, err := s.pipeline.Generate(c.Request.Context(), report.Request{
		Period:      period,
		Generation:  models.GenerationManual,
		TriggeredBy: strconv.FormatUint(uint64(c.GetUint("user_id")), 10),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if generated == nil {
		c.JSON(http.StatusOK, gin.H{"skipped": true, "reason": "insufficient source data"})
		return
	}

	c.JSON(http.StatusCreated, generated)
}

func buildPeriod(reportType models.ReportType, req generateRequest) (report.Period, error) {
	switch reportType {
	case models.ReportTypeDaily:
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return report.Period{}, fmt.Errorf("invalid date: %v", err)
		}
		return report.DailyPeriod(date), nil

	case models.ReportTypeWeekly:
		monday, err := time.Parse("2006-01-02", req.Monday)
		if err != nil {
			return report.Period{}, fmt.Errorf("invalid monday: %v", err)
		}
		sunday, err := time.Parse("2006-01-02", req.Sunday)
		if err != nil {
			return report.Period{}, fmt.Errorf("invalid sunday: %v", err)
		}
		return report.WeeklyPeriod(monday, sunday), nil

	case models.ReportTypeMonthly:
		if req.Year == 0 || req.Month < 1 || req.Month > 12 {
			return report.Period{}, fmt.Errorf("year and month (1-12) are required")
		}
		return report.MonthlyPeriod(req.Year, time.Month(req.Month)), nil

	case models.ReportTypeQuarterly:
		if req.Year == 0 || req.Quarter < 1 || req.Quarter > 4 {
			return report.Period{}, fmt.Errorf("year and quarter (1-4) are required")
		}
		return report.QuarterlyPeriod(req.Year, req.Quarter), nil
	}

	return report.Period{}, fmt.Errorf("unknown report type: %s", reportType)
}

func (s *Server) listEpisodes(c *gin.Context) {
	var episodes []models.Episode

	query := database.GetDB().Preload("Summary.Bullets").Order("published_at desc")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if limit := c.Query("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			query = query.Limit(l)
		}
	}

	if err := query.Find(&episodes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch episodes"})
		return
	}

	c.JSON(http.StatusOK, episodes)
}
