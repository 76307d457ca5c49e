package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nickhildebrandt/memegen/internal/categories"
	"github.com/nickhildebrandt/memegen/internal/compose"
)

// customTopic stands in for the topic when a request carries only custom captions.
const customTopic = "Custom Meme"

func (s *Server) routes() {
	s.echo.GET("/", s.index)

	api := s.echo.Group("/api")
	api.GET("/categories", s.listCategories)
	api.POST("/generate", s.generate)
	api.POST("/random", s.random)
	api.GET("/download/:filename", s.download)
	api.GET("/view/:filename", s.view)
	api.GET("/health", s.health)
}

func (s *Server) index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"name": "memegen",
		"endpoints": []string{
			"GET /api/categories",
			"POST /api/generate",
			"POST /api/random",
			"GET /api/download/:filename",
			"GET /api/view/:filename",
			"GET /api/health",
		},
	})
}

func (s *Server) listCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"categories": categories.ByKey(),
	})
}

type generateRequest struct {
	Topic            string `json:"topic"`
	Context          string `json:"context"`
	CustomTopText    string `json:"custom_top_text"`
	CustomBottomText string `json:"custom_bottom_text"`
	TemplateURL      string `json:"template_url"`
	TemplateID       string `json:"template_id"`
}

func (r *generateRequest) trim() {
	r.Topic = strings.TrimSpace(r.Topic)
	r.Context = strings.TrimSpace(r.Context)
	r.CustomTopText = strings.TrimSpace(r.CustomTopText)
	r.CustomBottomText = strings.TrimSpace(r.CustomBottomText)
	r.TemplateURL = strings.TrimSpace(r.TemplateURL)
	r.TemplateID = strings.TrimSpace(r.TemplateID)
}

type failureBody struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error"`
	ErrorKind compose.ErrorKind `json:"error_kind"`
}

type randomBody struct {
	compose.Result
	Category string `json:"category"`
}

func (s *Server) generate(c echo.Context) error {
	var body generateRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid JSON body"})
	}
	if body == (generateRequest{}) {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "No data provided"})
	}
	body.trim()

	custom := body.CustomTopText != "" && body.CustomBottomText != ""
	if body.Topic == "" && !custom {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Topic is required or both custom texts must be provided"})
	}

	req := compose.Request{Topic: body.Topic, Context: body.Context}
	if custom {
		if req.Topic == "" {
			req.Topic = customTopic
		}
		req.TopText = body.CustomTopText
		req.BottomText = body.CustomBottomText
		req.TemplateURL = body.TemplateURL
		if body.TemplateID != "" {
			s.logger.DebugContext(c.Request().Context(), "template_id is accepted but not used", "template_id", body.TemplateID)
		}
	}

	res := s.composer.Compose(c.Request().Context(), req)
	if !res.Success {
		return c.JSON(http.StatusInternalServerError, failureBody{Error: res.Message, ErrorKind: res.ErrorKind})
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) random(c echo.Context) error {
	pick := categories.Random(s.pick)
	res := s.composer.Compose(c.Request().Context(), compose.Request{Topic: pick.Topic, Context: pick.Context()})
	if !res.Success {
		return c.JSON(http.StatusInternalServerError, failureBody{Error: res.Message, ErrorKind: res.ErrorKind})
	}
	return c.JSON(http.StatusOK, randomBody{Result: res, Category: pick.Category.Name})
}

func (s *Server) download(c echo.Context) error {
	path, name, ok := s.memePath(c.Param("filename"))
	if !ok {
		return c.JSON(http.StatusNotFound, errorBody{Error: "File not found"})
	}
	return c.Attachment(path, name)
}

func (s *Server) view(c echo.Context) error {
	path, _, ok := s.memePath(c.Param("filename"))
	if !ok {
		return c.JSON(http.StatusNotFound, errorBody{Error: "File not found"})
	}
	return c.File(path)
}

// memePath maps a request parameter to a regular file directly inside the output directory.
// Only the base name is used, so path segments cannot escape the directory.
func (s *Server) memePath(param string) (path, name string, ok bool) {
	name = filepath.Base(filepath.Clean("/" + param))
	if name == "/" || name == "." || strings.HasPrefix(name, ".") {
		return "", "", false
	}
	path = filepath.Join(s.composer.OutputDir(), name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", "", false
	}
	return path, name, true
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":          "healthy",
		"timestamp":       s.now().Format(time.RFC3339),
		"generator_ready": s.composer.CaptionsReady(),
	})
}
