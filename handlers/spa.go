package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"servicehub/config"
	"servicehub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// contentTypes maps file extensions to the Content-Type sent for them.
var contentTypes = map[string]string{
	".html":  "text/html",
	".js":    "application/javascript",
	".css":   "text/css",
	".json":  "application/json",
	".png":   "image/png",
	".jpg":   "image/jpg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".eot":   "application/vnd.ms-fontobject",
}

// assetPattern matches paths that name a static file rather than an SPA route.
var assetPattern = regexp.MustCompile(`\.(js|css|png|jpg|jpeg|gif|ico|svg|woff|woff2|ttf|eot)$`)

// ContentType returns the Content-Type for a file name.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

type SPAHandler struct {
	distPath string
	index    []byte
}

// NewSPAHandler reads index.html from distPath once and injects env as
// window.env ahead of </head>.
func NewSPAHandler(distPath string, env map[string]string) (*SPAHandler, error) {
	raw, err := os.ReadFile(filepath.Join(distPath, "index.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to read SPA entry document: %w", err)
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	script := "<script>window.env = " + string(payload) + ";</script></head>"
	index := strings.Replace(string(raw), "</head>", script, 1)
	return &SPAHandler{distPath: distPath, index: []byte(index)}, nil
}

// Health handles GET /health.
func (h *SPAHandler) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Status handles GET /api/status with the last backend health snapshot.
func (h *SPAHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, utils.GetHealthStatus())
}

// DebugEnv handles GET /debug-env. Only presence is reported, never values.
func (h *SPAHandler) DebugEnv(c *gin.Context) {
	env := config.FrontendEnv()
	present := make(map[string]bool, len(config.FrontendEnvKeys))
	for _, key := range config.FrontendEnvKeys {
		present[key] = env[key] != ""
	}
	c.JSON(http.StatusOK, gin.H{"hasEnvVars": present})
}

// Asset handles GET /assets/*filepath.
func (h *SPAHandler) Asset(c *gin.Context) {
	if !h.serveFile(c, c.Request.URL.Path) {
		getLogger(c).Warn("Error serving static file", zap.String("path", c.Request.URL.Path))
		c.String(http.StatusNotFound, "File not found")
	}
}

// Static serves files at the root of the dist directory and stops the chain
// when one was written. Asset-looking paths that do not exist end in 404.
func (h *SPAHandler) Static(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		utils.JSONError(c, http.StatusNotFound, "Not found", "")
		return
	}
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		utils.JSONError(c, http.StatusNotFound, "Not found", "")
		return
	}
	if h.serveFile(c, c.Request.URL.Path) {
		c.Abort()
		return
	}
	if assetPattern.MatchString(c.Request.URL.Path) {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	c.Next()
}

// Index serves the entry document for every SPA route.
func (h *SPAHandler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html", h.index)
}

// serveFile writes the file at urlPath under the dist directory. Paths that
// escape it, directories and missing files are not served. The entry document
// is left to Index so it always carries the injected settings.
func (h *SPAHandler) serveFile(c *gin.Context, urlPath string) bool {
	rel := filepath.FromSlash(strings.TrimPrefix(filepath.Clean("/"+urlPath), "/"))
	if rel == "" || rel == "." || rel == "index.html" {
		return false
	}
	full := filepath.Join(h.distPath, rel)

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return false
	}
	content, err := os.ReadFile(full)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			getLogger(c).Error("Error reading static file", zap.String("path", full), zap.Error(err))
		}
		return false
	}
	c.Data(http.StatusOK, ContentType(full), content)
	return true
}
