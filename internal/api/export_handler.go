package api

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ExportSection streams the spreadsheet export of a section
// GET /sections/:section/export
func (h *Handler) ExportSection(c *gin.Context) {
	ctrl := controllerFrom(c)
	def := ctrl.Definition()
	if !def.Exportable {
		h.renderError(c, http.StatusNotFound, "This section cannot be exported", sectionURL(def.Key))
		return
	}

	download, err := ctrl.Export(c.Request.Context())
	if err != nil {
		h.log.Warnw("export failed", "section", def.Key, "error", err)
		h.renderSection(c, statusOf(err), sectionPage{view: ctrl.Load(c.Request.Context()), banner: err})
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": download.Filename}))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, download.ContentType, download.Body)
}
