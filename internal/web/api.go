package web

import (
	"net/http"
	"time"

	"github.com/aretw0/introspection"
	"github.com/gin-gonic/gin"
)

// EntrySummary is one item of GET /api/entries.
type EntrySummary struct {
	Title string `json:"title"`
	Key   string `json:"key"`
	URL   string `json:"url"`
}

// EntryResponse is the body of GET /api/entries/:title.
type EntryResponse struct {
	Title    string         `json:"title"`
	Key      string         `json:"key"`
	Content  string         `json:"content"`
	HTML     string         `json:"html,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	ModTime  *time.Time     `json:"mod_time,omitempty"`
}

func (s *WebServer) apiListEntries(c *gin.Context) {
	entries, err := s.Service.ListEntries(c.Request.Context())
	if err != nil {
		s.apiError(c, err)
		return
	}
	out := make([]EntrySummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntrySummary{Title: e.Title, Key: e.Key, URL: entryURL(e.Title)})
	}
	c.JSON(http.StatusOK, out)
}

// apiGetEntry returns one entry; ?html=1 adds the rendered page.
func (s *WebServer) apiGetEntry(c *gin.Context) {
	entry, err := s.Service.GetEntry(c.Request.Context(), c.Param("title"))
	if err != nil {
		s.apiError(c, err)
		return
	}

	resp := EntryResponse{
		Title:    entry.Title,
		Key:      entry.Key,
		Content:  entry.Content,
		Metadata: entry.Metadata,
	}
	if !entry.ModTime.IsZero() {
		resp.ModTime = &entry.ModTime
	}
	if c.Query("html") != "" {
		html, err := s.render(entry)
		if err != nil {
			s.apiError(c, err)
			return
		}
		resp.HTML = string(html)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *WebServer) apiError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError && s.logger != nil {
		s.logger.Error("api request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": messageFor(err)})
}

func (s *WebServer) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.StartTime).Round(time.Second).String(),
	})
}

// debugState reports the introspection state of the service and its repository.
func (s *WebServer) debugState(c *gin.Context) {
	state := gin.H{
		"service":    s.Service.State(),
		"page_cache": s.pages.State(),
	}
	if repo, ok := s.Service.Repository().(introspection.Introspectable); ok {
		state["repository"] = repo.State()
	}
	c.JSON(http.StatusOK, state)
}
