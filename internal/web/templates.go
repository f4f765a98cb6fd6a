package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplates = []string{"index.html", "entry.html", "create.html", "edit.html", "search.html", "error.html"}

var templateFuncs = template.FuncMap{
	"entryURL": entryURL,
	"editURL":  func(title string) string { return entryURL(title) + "/edit" },
	"rawURL":   func(title string) string { return entryURL(title) + "/raw" },
}

// TemplateData is shared by every page.
type TemplateData struct {
	Title    string
	ReadOnly bool
	Query    string
	Flash    string
}

// parseTemplates pairs each page with the layout. Pages are parsed
// separately so their "content" blocks do not clash.
func parseTemplates() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		tmpl, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		out[name] = tmpl
	}
	return out, nil
}

func (s *WebServer) getBaseTemplateData(c *gin.Context, title string) TemplateData {
	return TemplateData{
		Title:    title,
		ReadOnly: s.Config.ReadOnly,
		Query:    c.Query("q"),
	}
}

// renderTemplate writes the named page with the given status.
func (s *WebServer) renderTemplate(c *gin.Context, status int, name string, data any) {
	tmpl, ok := s.templates[name]
	if !ok {
		s.renderError(c, http.StatusInternalServerError, "Template error", "unknown template "+name)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := tmpl.ExecuteTemplate(c.Writer, "layout.html", data); err != nil && s.logger != nil {
		s.logger.Error("template render failed", "template", name, "error", err)
	}
}

// ErrorPageData feeds error.html.
type ErrorPageData struct {
	TemplateData
	Error      string
	StatusCode int
}

// renderError renders the error page. detail is logged, never shown.
func (s *WebServer) renderError(c *gin.Context, status int, message, detail string) {
	if s.logger != nil {
		attrs := []any{"status", status, "message", message, "detail", detail, "path", c.Request.URL.Path}
		if status >= http.StatusInternalServerError {
			s.logger.Error("request failed", attrs...)
		} else {
			s.logger.Debug("request rejected", attrs...)
		}
	}

	tmpl := s.templates["error.html"]
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	err := tmpl.ExecuteTemplate(c.Writer, "layout.html", ErrorPageData{
		TemplateData: s.getBaseTemplateData(c, "Error"),
		Error:        message,
		StatusCode:   status,
	})
	if err != nil {
		c.String(status, "Error: %s", message)
	}
	c.Abort()
}

func entryURL(title string) string {
	return "/wiki/" + url.PathEscape(title)
}
