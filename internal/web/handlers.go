package web

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aretw0/encyclopedia/pkg/core"
)

// IndexPageData feeds index.html.
type IndexPageData struct {
	TemplateData
	Titles []string
}

// EntryPageData feeds entry.html.
type EntryPageData struct {
	TemplateData
	Entry core.Entry
	HTML  template.HTML
}

// FormPageData feeds create.html and edit.html.
type FormPageData struct {
	TemplateData
	Original string // title being edited
	Form     EntryForm
	Errors   map[string]string
}

// SearchPageData feeds search.html.
type SearchPageData struct {
	TemplateData
	Matches []string
}

var flashes = map[string]string{
	"created": "Page created.",
	"updated": "Updated Successfully!",
}

func (s *WebServer) indexPage(c *gin.Context) {
	titles, err := s.Service.ListTitles(c.Request.Context())
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Could not list entries.", err.Error())
		return
	}
	s.renderTemplate(c, http.StatusOK, "index.html", IndexPageData{
		TemplateData: s.getBaseTemplateData(c, "Encyclopedia"),
		Titles:       titles,
	})
}

func (s *WebServer) entryPage(c *gin.Context) {
	entry, ok := s.loadEntry(c)
	if !ok {
		return
	}

	html, err := s.render(entry)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Could not render this page.", err.Error())
		return
	}

	data := EntryPageData{
		TemplateData: s.getBaseTemplateData(c, entry.Title),
		Entry:        entry,
		HTML:         html,
	}
	data.Flash = flashes[c.Query("flash")]
	s.renderTemplate(c, http.StatusOK, "entry.html", data)
}

func (s *WebServer) rawEntry(c *gin.Context) {
	entry, ok := s.loadEntry(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(entry.Content))
}

func (s *WebServer) createPage(c *gin.Context) {
	if s.Config.ReadOnly {
		s.renderError(c, http.StatusForbidden, "This encyclopedia is read-only.", "create")
		return
	}
	s.renderTemplate(c, http.StatusOK, "create.html", FormPageData{
		TemplateData: s.getBaseTemplateData(c, "Create New Page"),
	})
}

func (s *WebServer) submitCreate(c *gin.Context) {
	page := FormPageData{TemplateData: s.getBaseTemplateData(c, "Create New Page")}
	if err := c.ShouldBind(&page.Form); err != nil {
		page.Errors = fieldErrors(err)
		s.renderTemplate(c, http.StatusBadRequest, "create.html", page)
		return
	}
	page.Form.normalize()

	if err := page.Form.Validate(); err != nil {
		page.Errors = fieldErrors(err)
		s.renderTemplate(c, http.StatusBadRequest, "create.html", page)
		return
	}

	entry, err := s.Service.CreateEntry(c.Request.Context(), page.Form.Title, page.Form.Content)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError || status == http.StatusForbidden {
			s.renderError(c, status, messageFor(err), err.Error())
			return
		}
		page.Errors = map[string]string{"title": messageFor(err)}
		s.renderTemplate(c, status, "create.html", page)
		return
	}

	s.pages.Invalidate(entry.Key)
	c.Redirect(http.StatusSeeOther, entryURL(entry.Title)+"?flash=created")
}

func (s *WebServer) editPage(c *gin.Context) {
	if s.Config.ReadOnly {
		s.renderError(c, http.StatusForbidden, "This encyclopedia is read-only.", "edit")
		return
	}
	entry, ok := s.loadEntry(c)
	if !ok {
		return
	}
	s.renderTemplate(c, http.StatusOK, "edit.html", FormPageData{
		TemplateData: s.getBaseTemplateData(c, "Edit "+entry.Title),
		Original:     entry.Title,
		Form:         EntryForm{Title: entry.Title, Content: entry.Content},
	})
}

func (s *WebServer) submitEdit(c *gin.Context) {
	original := c.Param("title")
	page := FormPageData{
		TemplateData: s.getBaseTemplateData(c, "Edit "+original),
		Original:     original,
	}
	if err := c.ShouldBind(&page.Form); err != nil {
		page.Errors = fieldErrors(err)
		s.renderTemplate(c, http.StatusBadRequest, "edit.html", page)
		return
	}
	page.Form.normalize()

	if err := page.Form.Validate(); err != nil {
		page.Errors = fieldErrors(err)
		s.renderTemplate(c, http.StatusBadRequest, "edit.html", page)
		return
	}

	ctx := c.Request.Context()
	entry, err := s.Service.EditEntry(ctx, original, page.Form.Title, page.Form.Content)
	if err != nil {
		status := statusFor(err)
		switch status {
		case http.StatusConflict, http.StatusBadRequest:
			page.Errors = map[string]string{"title": messageFor(err)}
			s.renderTemplate(c, status, "edit.html", page)
		default:
			s.renderError(c, status, messageFor(err), err.Error())
		}
		return
	}

	if oldKey, err := core.Key(original); err == nil {
		s.pages.Invalidate(oldKey)
	}
	s.pages.Invalidate(entry.Key)
	c.Redirect(http.StatusSeeOther, entryURL(entry.Title)+"?flash=updated")
}

// searchPage handles GET /search?q= and the sidebar's POST form.
func (s *WebServer) searchPage(c *gin.Context) {
	query := c.Query("q")
	if c.Request.Method == http.MethodPost {
		query = c.PostForm("q")
	}

	res, err := s.Service.Search(c.Request.Context(), query)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Search failed.", err.Error())
		return
	}

	if res.Exact != "" {
		status := http.StatusFound
		if c.Request.Method == http.MethodPost {
			status = http.StatusSeeOther
		}
		c.Redirect(status, entryURL(res.Exact))
		return
	}

	data := SearchPageData{
		TemplateData: s.getBaseTemplateData(c, "Search"),
		Matches:      res.Matches,
	}
	data.Query = res.Query
	s.renderTemplate(c, http.StatusOK, "search.html", data)
}

func (s *WebServer) randomEntry(c *gin.Context) {
	title, err := s.Service.RandomTitle(c.Request.Context())
	if errors.Is(err, core.ErrNotFound) {
		s.renderError(c, http.StatusNotFound, "The encyclopedia has no entries yet.", err.Error())
		return
	}
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Could not pick a page.", err.Error())
		return
	}
	c.Redirect(http.StatusFound, entryURL(title))
}

// loadEntry fetches the entry named by the :title parameter, rendering the
// error page itself when that fails.
func (s *WebServer) loadEntry(c *gin.Context) (core.Entry, bool) {
	title := c.Param("title")
	entry, err := s.Service.GetEntry(c.Request.Context(), title)
	if err != nil {
		status := statusFor(err)
		msg := messageFor(err)
		if status == http.StatusNotFound || status == http.StatusBadRequest {
			status = http.StatusNotFound
			msg = "The requested page \"" + title + "\" was not found."
		}
		s.renderError(c, status, msg, err.Error())
		return core.Entry{}, false
	}
	return entry, true
}

// render converts entry content to HTML through the page cache.
func (s *WebServer) render(entry core.Entry) (template.HTML, error) {
	if html, ok := s.pages.Get(entry.Key, entry.ModTime); ok {
		return html, nil
	}
	out, err := s.renderer.Render(entry.Content)
	if err != nil {
		return "", err
	}
	// goldmark output is trusted: raw HTML is omitted unless explicitly enabled.
	html := template.HTML(out)
	s.pages.Set(entry.Key, entry.ModTime, html)
	return html, nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrExists):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidTitle):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrReadOnly):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return "The requested page was not found."
	case errors.Is(err, core.ErrExists):
		return "This entry already exists."
	case errors.Is(err, core.ErrInvalidTitle):
		return "That title cannot be used."
	case errors.Is(err, core.ErrReadOnly):
		return "This encyclopedia is read-only."
	default:
		return "Something went wrong."
	}
}
