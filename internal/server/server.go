// Package server exposes the analysis pipeline and the profile store over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/menta2k/room-advisor/internal/profile"
	"github.com/menta2k/room-advisor/internal/utils"
	"github.com/menta2k/room-advisor/pkg/types"
)

// Analyzer runs a batch of images. *pipeline.Pipeline implements it.
type Analyzer interface {
	Run(ctx context.Context, images []types.Image) types.Response
}

// Config holds the server settings
type Config struct {
	UploadDir string
	// PublicURL is the externally visible base URL used in upload links
	PublicURL string
	// MaxUploadBytes caps the body of one upload request
	MaxUploadBytes int64
	// MaxProfileBytes caps the body of a profile update
	MaxProfileBytes int64
}

// UploadResponse is the body of a successful upload
type UploadResponse struct {
	Message     string          `json:"message"`
	Filenames   []string        `json:"filenames"`
	URLs        []string        `json:"urls"`
	Suggestions []types.Record  `json:"suggestions"`
	Warnings    []types.Warning `json:"warnings,omitempty"`
}

// Server wires HTTP routes to the pipeline and the profile store
type Server struct {
	cfg      Config
	analyzer Analyzer
	profiles profile.Store
	log      logrus.FieldLogger
	engine   *gin.Engine
}

// New creates the server and registers its routes
func New(cfg Config, analyzer Analyzer, profiles profile.Store, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 64 << 20
	}
	if cfg.MaxProfileBytes <= 0 {
		cfg.MaxProfileBytes = 1 << 20
	}
	cfg.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")

	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		profiles: profiles,
		log:      logger,
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), cors())

	router.POST("/api/upload", s.handleUpload)
	router.GET("/api/profile", s.handleGetProfile)
	router.POST("/api/profile", s.handleSetProfile)
	router.Static("/uploads", cfg.UploadDir)

	s.engine = router
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	if err := utils.EnsureDir(s.cfg.UploadDir); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("[Server] Listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("[Server] Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("[Server] Request handled")
	}
}

func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	form, err := c.MultipartForm()
	if tooLarge(err) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":   "Upload too large",
			"details": fmt.Sprintf("request exceeds %s", utils.FormatFileSize(s.cfg.MaxUploadBytes)),
		})
		return
	}
	if err != nil || len(form.File["file"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}
	files := form.File["file"]

	for _, fh := range files {
		if !utils.IsImageFile(fh.Filename) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Unsupported file type",
				"details": fmt.Sprintf("%s is not an image", fh.Filename),
			})
			return
		}
	}

	if err := utils.EnsureDir(s.cfg.UploadDir); err != nil {
		s.internalError(c, err)
		return
	}

	images := make([]types.Image, 0, len(files))
	filenames := make([]string, 0, len(files))
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		name := utils.UploadName(fh.Filename)
		if err := c.SaveUploadedFile(fh, filepath.Join(s.cfg.UploadDir, name)); err != nil {
			s.internalError(c, err)
			return
		}
		data, err := readUpload(fh)
		if err != nil {
			s.internalError(c, err)
			return
		}
		s.log.WithFields(logrus.Fields{
			"file": name,
			"size": utils.FormatFileSize(fh.Size),
		}).Info("[Server] Stored upload")

		images = append(images, types.Image{Filename: name, Data: data})
		filenames = append(filenames, name)
		urls = append(urls, s.cfg.PublicURL+"/uploads/"+name)
	}

	resp := s.analyzer.Run(c.Request.Context(), images)

	c.JSON(http.StatusOK, UploadResponse{
		Message:     resp.Message,
		Filenames:   filenames,
		URLs:        urls,
		Suggestions: resp.Suggestions,
		Warnings:    resp.Warnings,
	})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.log.WithError(err).Error("[Server] Upload failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":      "Internal server error",
		"details":    err.Error(),
		"suggestion": "Please try again. If the problem persists, the AI service may be temporarily unavailable.",
	})
}

func (s *Server) handleGetProfile(c *gin.Context) {
	doc, err := s.profiles.Get(c.Request.Context())
	if err != nil {
		s.log.WithError(err).Error("[Server] Couldn't load profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Couldn't load profile - please try again later"})
		return
	}
	if doc == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
}

func (s *Server) handleSetProfile(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxProfileBytes))
	if tooLarge(err) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Profile too large"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Couldn't read request body"})
		return
	}
	doc, err := profile.Validate(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.profiles.Set(c.Request.Context(), doc); err != nil {
		s.log.WithError(err).Error("[Server] Couldn't save profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Couldn't save profile - please try again later"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
