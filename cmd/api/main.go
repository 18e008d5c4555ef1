package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendance/internal/attendance"
	"attendance/internal/config"
	"attendance/internal/course"
	"attendance/internal/httpmiddleware"
	"attendance/internal/metrics"
	"attendance/internal/queue"
	"attendance/internal/report"
	"attendance/internal/session"
	"attendance/internal/store"
	"attendance/internal/student"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		if db == nil {
			return err
		}
		log.Printf("warning: db not reachable: %v", err)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	if db != nil && cfg.MigrateOnStart {
		if err := store.Migrate(db.Client); err != nil {
			log.Printf("warning: migrations failed: %v", err)
		}
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:scans")
	}

	courseRepo := course.NewRepository(db.Client)
	studentRepo := student.NewRepository(db.Client)
	eventRepo := attendance.NewRepository(db.Client)
	reportRepo := report.NewRepository(db.Client)

	courses := course.NewService(courseRepo)
	students := student.NewService(studentRepo)
	issuer := session.NewIssuer(courseRepo)
	recorder := attendance.NewService(courseRepo, studentRepo, eventRepo, cfg.SessionTTL)
	reports := report.NewService(reportRepo, courseRepo, studentRepo)

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	r := gin.New()

	// Recovery middleware
	r.Use(gin.Recovery())

	// Custom logger
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	// CORS middleware
	r.Use(corsMiddleware())

	// Security headers
	r.Use(securityHeaders())

	// Rate limiting
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db != nil && db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	// Course management

	r.POST("/api/courses", func(c *gin.Context) {
		var req struct {
			Name        string `json:"name" binding:"required"`
			Instructor  string `json:"instructor" binding:"required"`
			Schedule    string `json:"schedule"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		created, err := courses.Create(c.Request.Context(), req.Name, req.Instructor, req.Schedule, req.Description)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	r.GET("/api/courses", func(c *gin.Context) {
		list, err := courses.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch courses"})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.GET("/api/courses/:id", func(c *gin.Context) {
		found, err := courses.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, course.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch course"})
			return
		}
		c.JSON(http.StatusOK, found)
	})

	r.DELETE("/api/courses/:id", func(c *gin.Context) {
		if err := courses.Delete(c.Request.Context(), c.Param("id")); err != nil {
			if errors.Is(err, course.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete course"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "course deleted successfully"})
	})

	// Session token issuance: generates the QR code students scan.
	r.POST("/api/courses/:id/qr-code", func(c *gin.Context) {
		tok, err := issuer.Issue(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, course.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate qr code"})
			return
		}
		dataURL, err := session.QRDataURL(tok, cfg.PublicBaseURL, cfg.QRSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render qr code"})
			return
		}
		collector.SessionIssued()
		c.JSON(http.StatusOK, gin.H{
			"qrCode":    dataURL,
			"sessionId": tok.SessionID,
			"issuedAt":  tok.IssuedAt,
			"token":     tok.Encode(),
			"url":       tok.ScannerURL(cfg.PublicBaseURL),
		})
	})

	// Advisory head-count for the current session, fed by the worker.
	r.GET("/api/courses/:id/live", func(c *gin.Context) {
		found, err := courses.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, course.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch course"})
			return
		}
		if found.SessionID == nil {
			c.JSON(http.StatusOK, gin.H{"count": 0})
			return
		}
		n, err := redisClient.LiveCount(c.Request.Context(), *found.SessionID)
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"count": 0})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessionId": *found.SessionID, "count": n})
	})

	// Student management

	r.POST("/api/students", func(c *gin.Context) {
		var req struct {
			Name      string   `json:"name" binding:"required"`
			StudentID string   `json:"studentId" binding:"required"`
			Email     string   `json:"email"`
			CourseIDs []string `json:"courseIds"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		created, err := students.Create(c.Request.Context(), req.Name, req.StudentID, req.Email, req.CourseIDs)
		if err != nil {
			if errors.Is(err, student.ErrDuplicateRef) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "student ID already exists"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	r.GET("/api/students", func(c *gin.Context) {
		list, err := students.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch students"})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.GET("/api/students/search", func(c *gin.Context) {
		found, err := students.Search(c.Request.Context(), c.Query("studentId"), c.Query("email"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search for student"})
			return
		}
		c.JSON(http.StatusOK, found)
	})

	r.GET("/api/students/attendance-percentages", func(c *gin.Context) {
		stats, err := reports.StudentPercentages(c.Request.Context(), c.Query("date"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get attendance percentages"})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	r.PUT("/api/students/:id", func(c *gin.Context) {
		var req struct {
			Name      string   `json:"name"`
			Email     string   `json:"email"`
			CourseIDs []string `json:"courseIds"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		updated, err := students.Update(c.Request.Context(), c.Param("id"), req.Name, req.Email, req.CourseIDs)
		if err != nil {
			if errors.Is(err, student.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, updated)
	})

	r.DELETE("/api/students/:id", func(c *gin.Context) {
		if err := students.Delete(c.Request.Context(), c.Param("id")); err != nil {
			if errors.Is(err, student.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete student"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "student deleted successfully"})
	})

	// Scan recording

	ctx := context.Background()

	r.POST("/api/attendance/scan", func(c *gin.Context) {
		var req struct {
			QRData    string `json:"qrData" binding:"required"`
			StudentID string `json:"studentId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tok, err := session.Decode(req.QRData)
		if err != nil {
			collector.ScanRejected(metrics.ReasonInvalidToken)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid QR code data"})
			return
		}

		evt, err := recorder.Record(c.Request.Context(), tok, req.StudentID)
		if err != nil {
			status, reason := scanFailure(err)
			collector.ScanRejected(reason)
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		collector.ScanAccepted()
		if err := q.Publish(ctx, queue.Message{Type: queue.TypeScan, Body: []byte(evt.SessionID)}); err != nil {
			log.Printf("queue publish failed: %v", err)
		}

		c.JSON(http.StatusOK, gin.H{"message": "attendance recorded successfully", "record": evt})
	})

	r.GET("/api/attendance", func(c *gin.Context) {
		dayStart, dayEnd, err := report.DayBounds(c.Query("date"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		records, err := eventRepo.ListRecords(c.Request.Context(), c.Query("courseId"), dayStart, dayEnd)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch attendance records"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	})

	// Reporting

	r.GET("/api/reports/attendance/:courseId", func(c *gin.Context) {
		rep, err := reports.CourseReport(c.Request.Context(), c.Param("courseId"), c.Query("date"))
		if err != nil {
			if errors.Is(err, course.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate attendance report"})
			return
		}
		c.JSON(http.StatusOK, rep)
	})

	r.GET("/api/reports", func(c *gin.Context) {
		reps, err := reports.AllCourses(c.Request.Context(), c.Query("date"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate reports"})
			return
		}
		summaries := make([]gin.H, 0, len(reps))
		for _, rep := range reps {
			summaries = append(summaries, gin.H{
				"courseId":       rep.Course.ID,
				"courseName":     rep.Course.Name,
				"instructor":     rep.Course.Instructor,
				"totalEnrolled":  rep.TotalEnrolled,
				"present":        rep.Present,
				"absent":         rep.Absent,
				"attendanceRate": rep.AttendanceRate,
			})
		}
		c.JSON(http.StatusOK, summaries)
	})

	r.GET("/api/reports/download/:courseId", func(c *gin.Context) {
		date := c.Query("date")
		rep, err := reports.CourseReport(c.Request.Context(), c.Param("courseId"), date)
		if err != nil {
			if errors.Is(err, course.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to download report"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+report.CourseCSVFilename(rep.Course.Name, date)+`"`)
		c.Data(http.StatusOK, "text/csv", report.CourseCSV(rep))
	})

	r.GET("/api/reports/download-all", func(c *gin.Context) {
		date := c.Query("date")
		reps, err := reports.AllCourses(c.Request.Context(), date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to download reports"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+report.AllCoursesCSVFilename(date)+`"`)
		c.Data(http.StatusOK, "text/csv", report.AllCoursesCSV(reps))
	})

	r.StaticFile("/", "web/index.html")
	r.StaticFile("/student", "web/student.html")
	r.Static("/static", "web/static")

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// scanFailure maps recorder errors to an HTTP status and metric reason.
func scanFailure(err error) (int, string) {
	switch {
	case errors.Is(err, attendance.ErrCourseNotFound), errors.Is(err, attendance.ErrStudentNotFound):
		return http.StatusNotFound, metrics.ReasonNotFound
	case errors.Is(err, attendance.ErrNotEnrolled):
		return http.StatusBadRequest, metrics.ReasonNotEnrolled
	case errors.Is(err, attendance.ErrTokenExpired):
		return http.StatusBadRequest, metrics.ReasonExpired
	case errors.Is(err, attendance.ErrAlreadyRecorded):
		return http.StatusConflict, metrics.ReasonAlreadyRecorded
	default:
		return http.StatusInternalServerError, metrics.ReasonStoreError
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
