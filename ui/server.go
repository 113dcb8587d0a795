package ui

import (
	"bytes"
	"context"
	"encoding/base64"
	stderrors "errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gostatsplot/adapters/excel"
	"gostatsplot/app"
	"gostatsplot/domain/core"
	"gostatsplot/domain/dataset"
	"gostatsplot/domain/stats"
	"gostatsplot/internal"
	"gostatsplot/internal/errors"
	"gostatsplot/ports"
	"gostatsplot/ui/middleware"
)

// ServerConfig holds the settings of the JSON API
type ServerConfig struct {
	// OutputDir receives one PNG per request; empty keeps images in memory
	OutputDir      string
	MaxUploadBytes int64
	// Defaults seed the options of every request before its body is read
	Defaults stats.Options
}

// Server is the JSON API over the plot operations
type Server struct {
	router *gin.Engine
	plots  *app.StatsPlotService
	runs   ports.RunStore
	reader ports.TableReader
	config ServerConfig
	logger *internal.Logger
}

// PlotBody is the request body of POST /api/plots/:operation. The table is
// sent inline as CSV text; FileName selects the delimiter (".tsv").
type PlotBody struct {
	app.Request
	CSV      string `json:"csv"`
	FileName string `json:"file_name,omitempty"`
	Image    bool   `json:"image"` // return the PNG base64 encoded
}

// GroupedBody is the request body of POST /api/plots/:operation/grouped
type GroupedBody struct {
	app.GroupedRequest
	CSV      string `json:"csv"`
	FileName string `json:"file_name,omitempty"`
	Image    bool   `json:"image"`
}

// Panel is the text of one rendered figure
type Panel struct {
	RunID    string `json:"run_id,omitempty"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Caption  string `json:"caption"`
}

// PlotResponse answers a plot request
type PlotResponse struct {
	Operation string  `json:"operation"`
	Panels    []Panel `json:"panels"`
	ImagePath string  `json:"image_path,omitempty"`
	Image     string  `json:"image,omitempty"`
}

// NewServer creates the API. runs is also handed to plots for recording;
// reader defaults to the CSV/XLSX reader.
func NewServer(plots *app.StatsPlotService, runs ports.RunStore, reader ports.TableReader, config ServerConfig, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NopLogger()
	}
	if reader == nil {
		reader = excel.NewDataReader(excel.DefaultReaderConfig(), logger)
	}
	if config.Defaults.K == 0 && config.Defaults.ConfLevel == 0 {
		config.Defaults = stats.DefaultOptions()
	}
	s := &Server{
		router: gin.New(),
		plots:  plots,
		runs:   runs,
		reader: reader,
		config: config,
		logger: logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(middleware.MaxBody(s.config.MaxUploadBytes))
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := s.router.Group("/api")
	api.GET("/operations", s.handleOperations)
	api.POST("/plots/:operation", s.handlePlot)
	api.POST("/plots/:operation/grouped", s.handleGroupedPlot)
	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
}

// Handler exposes the router, e.g. for httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves the API on addr until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	return Serve(ctx, addr, s.router, shutdownTimeout, s.logger)
}

func (s *Server) handleOperations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"operations": app.Operations()})
}

func (s *Server) readTable(ctx context.Context, name, text string) (*dataset.Table, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.InvalidInput("csv is required")
	}
	if name == "" {
		name = "data.csv"
	}
	if excel.FileType(name) != "csv" {
		return nil, errors.InvalidInput("file_name must end in .csv, .tsv or .txt")
	}
	return s.reader.ReadTable(ctx, name, strings.NewReader(text))
}

func (s *Server) bind(c *gin.Context, body interface{}) bool {
	if err := c.ShouldBindJSON(body); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error(), "code": errors.CodeInvalidInput})
			return false
		}
		s.respondError(c, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "invalid request body")))
		return false
	}
	return true
}

// imagePath is where a figure is stored, or "" without an output directory
func (s *Server) imagePath(id core.FigureID) (string, error) {
	if s.config.OutputDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(s.config.OutputDir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create output directory")
	}
	return filepath.Join(s.config.OutputDir, id.String()+".png"), nil
}

func encodePNG(write func(*bytes.Buffer) (int64, error)) (string, error) {
	var buf bytes.Buffer
	if _, err := write(&buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (s *Server) handlePlot(c *gin.Context) {
	ctx := c.Request.Context()
	name := strings.ToLower(strings.TrimSpace(c.Param("operation")))
	op, err := s.plots.Operation(name)
	if err != nil {
		s.respondError(c, err)
		return
	}

	body := PlotBody{Request: app.Request{Options: s.config.Defaults}}
	if !s.bind(c, &body) {
		return
	}
	req := body.Request
	if req.Data, err = s.readTable(ctx, body.FileName, body.CSV); err != nil {
		s.respondError(c, err)
		return
	}

	fig, err := op(ctx, req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	resp := PlotResponse{Operation: name}
	if resp.ImagePath, err = s.imagePath(fig.ID); err != nil {
		s.respondError(c, err)
		return
	}
	if resp.ImagePath != "" {
		if err := fig.Save(resp.ImagePath); err != nil {
			s.respondError(c, err)
			return
		}
	}

	rn, err := s.plots.Record(ctx, name, req, fig, resp.ImagePath)
	if err != nil {
		s.respondError(c, err)
		return
	}
	resp.Panels = []Panel{{RunID: rn.ID.String(), Title: fig.Title, Subtitle: fig.Subtitle, Caption: fig.Caption}}

	if body.Image {
		if resp.Image, err = encodePNG(func(b *bytes.Buffer) (int64, error) { return fig.WriteTo(b) }); err != nil {
			s.respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGroupedPlot(c *gin.Context) {
	ctx := c.Request.Context()
	name := strings.ToLower(strings.TrimSpace(c.Param("operation")))
	op, err := s.plots.GroupedOperation(name)
	if err != nil {
		s.respondError(c, err)
		return
	}

	body := GroupedBody{GroupedRequest: app.GroupedRequest{Request: app.Request{Options: s.config.Defaults}}}
	if !s.bind(c, &body) {
		return
	}
	req := body.GroupedRequest
	if req.Data, err = s.readTable(ctx, body.FileName, body.CSV); err != nil {
		s.respondError(c, err)
		return
	}

	grid, err := op(ctx, req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	resp := PlotResponse{Operation: name}
	if resp.ImagePath, err = s.imagePath(grid.ID); err != nil {
		s.respondError(c, err)
		return
	}
	if resp.ImagePath != "" {
		if err := grid.Save(resp.ImagePath); err != nil {
			s.respondError(c, err)
			return
		}
	}

	for _, fig := range grid.Panels {
		rn, err := s.plots.Record(ctx, name, req.Request, fig, resp.ImagePath)
		if err != nil {
			s.respondError(c, err)
			return
		}
		resp.Panels = append(resp.Panels, Panel{RunID: rn.ID.String(), Title: fig.Title, Subtitle: fig.Subtitle, Caption: fig.Caption})
	}

	if body.Image {
		if resp.Image, err = encodePNG(func(b *bytes.Buffer) (int64, error) { return grid.WriteTo(b) }); err != nil {
			s.respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusOK, gin.H{"runs": []interface{}{}})
		return
	}
	f, err := filters(c.Request)
	if err != nil {
		s.respondError(c, err)
		return
	}
	runs, err := s.runs.List(c.Request.Context(), f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleGetRun(c *gin.Context) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		s.respondError(c, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}
	if s.runs == nil {
		s.respondError(c, core.NewNotFoundError("run", id.String()))
		return
	}
	rn, err := s.runs.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rn)
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[API] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}
