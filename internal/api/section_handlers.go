package api

import (
	"context"
	stderrors "errors"
	"html/template"
	"net/http"
	"net/url"

	apperrors "github.com/aethra/misight/internal/errors"
	"github.com/aethra/misight/internal/schema"
	"github.com/aethra/misight/internal/section"
	"github.com/aethra/misight/internal/ui"
	"github.com/gin-gonic/gin"
)

// notices are the fixed confirmations shown after a redirect
var notices = map[string]string{
	"created": "Record created.",
	"updated": "Changes saved.",
	"deleted": "Record deleted.",
}

func sectionURL(key string) string {
	return "/sections/" + url.PathEscape(key)
}

func recordURL(key, id string) string {
	return sectionURL(key) + "/" + url.PathEscape(id)
}

type sectionView struct {
	Error      string
	Notice     string
	Singular   string
	ReloadURL  string
	DismissURL string
	CreateURL  string
	ExportURL  string
	RangeURL   string
	RangeStart string
	RangeEnd   string
	Table      template.HTML
	Modal      template.HTML
}

// sectionPage carries what a section response shows around the table
type sectionPage struct {
	view       *section.View
	banner     error
	notice     string
	overlay    template.HTML
	rangeStart string
	rangeEnd   string
}

func (h *Handler) renderSection(c *gin.Context, status int, p sectionPage) {
	ctrl := controllerFrom(c)
	perm := permissionFrom(c)
	def := ctrl.Definition()
	base := sectionURL(def.Key)

	var actions *ui.Actions
	if perm.CanEdit || perm.CanDelete {
		actions = &ui.Actions{}
		if perm.CanEdit {
			actions.Edit = func(rec schema.Record) string {
				id, _ := rec.ID()
				return recordURL(def.Key, id) + "/edit"
			}
		}
		if perm.CanDelete {
			actions.Delete = func(id string) string { return recordURL(def.Key, id) + "/delete" }
		}
	}

	table, err := h.renderer.Table(p.view.Collection, p.view.Columns, actions)
	if err != nil {
		h.log.Errorw("render table failed", "section", def.Key, "error", err)
		h.renderError(c, http.StatusInternalServerError, "internal server error", "/dashboard")
		return
	}

	banner := p.banner
	if banner == nil {
		banner = p.view.Err
	}
	notice := p.notice
	if notice == "" && len(p.view.LookupErrs) > 0 {
		notice = "Some related data could not be loaded, raw ids are shown instead."
	}
	view := sectionView{
		Error:      apperrors.UserMessage(banner),
		Notice:     notice,
		Singular:   def.Singular,
		ReloadURL:  base,
		DismissURL: base,
		Table:      table,
		Modal:      p.overlay,
		RangeStart: p.rangeStart,
		RangeEnd:   p.rangeEnd,
	}
	if perm.CanCreate {
		view.CreateURL = base + "/new"
	}
	if perm.CanExport && def.Exportable {
		view.ExportURL = base + "/export"
	}
	if def.DateField != "" {
		view.RangeURL = base + "/range"
	}

	content, err := h.renderer.Fragment("section", view)
	if err != nil {
		h.log.Errorw("render section failed", "section", def.Key, "error", err)
		h.renderError(c, http.StatusInternalServerError, "internal server error", "/dashboard")
		return
	}
	h.writePage(c, status, ui.Page{Title: def.Title, Active: def.Key}, content)
}

// newModal builds the management modal of the section, posting to action
func newModal(ctrl *section.Controller, view *section.View, title, action string) *ui.Modal {
	return &ui.Modal{
		Title:     title,
		Fields:    view.Fields,
		Action:    action,
		CancelURL: sectionURL(ctrl.Definition().Key),
	}
}

func (h *Handler) renderModal(c *gin.Context, status int, view *section.View, m *ui.Modal, banner error) {
	overlay, err := h.renderer.Modal(m)
	if err != nil {
		h.log.Errorw("render modal failed", "error", err)
		h.renderError(c, http.StatusInternalServerError, "internal server error", "/dashboard")
		return
	}
	h.renderSection(c, status, sectionPage{view: view, overlay: overlay, banner: banner})
}

// ListSection shows the table of a section
// GET /sections/:section
func (h *Handler) ListSection(c *gin.Context) {
	view := controllerFrom(c).Load(c.Request.Context())
	h.renderSection(c, http.StatusOK, sectionPage{view: view, notice: notices[c.Query("notice")]})
}

// RangeSection shows the records of a dated section between two dates
// GET /sections/:section/range?start=&end=
func (h *Handler) RangeSection(c *gin.Context) {
	ctrl := controllerFrom(c)
	if ctrl.Definition().DateField == "" {
		h.renderError(c, http.StatusNotFound, "This section has no date view", sectionURL(ctrl.Definition().Key))
		return
	}
	start, end := c.Query("start"), c.Query("end")
	view := ctrl.LoadRange(c.Request.Context(), start, end)
	status := http.StatusOK
	if view.Err != nil {
		status = statusOf(view.Err)
	}
	h.renderSection(c, status, sectionPage{view: view, rangeStart: start, rangeEnd: end})
}

// NewRecord opens the modal in create mode
// GET /sections/:section/new
func (h *Handler) NewRecord(c *gin.Context) {
	ctrl := controllerFrom(c)
	def := ctrl.Definition()
	view := ctrl.Load(c.Request.Context())

	m := newModal(ctrl, view, "Add "+def.Singular, sectionURL(def.Key))
	m.OpenCreate()
	h.renderModal(c, http.StatusOK, view, m, nil)
}

// CreateRecord submits the create modal
// POST /sections/:section
func (h *Handler) CreateRecord(c *gin.Context) {
	ctrl := controllerFrom(c)
	def := ctrl.Definition()
	ctx := c.Request.Context()
	view := ctrl.Load(ctx)

	m := newModal(ctrl, view, "Add "+def.Singular, sectionURL(def.Key))
	m.OnSubmit = ctrl.Add
	m.OpenCreate()

	if err := m.Submit(ctx, postedForm(c)); err != nil {
		h.renderModal(c, statusOf(err), view, m, nil)
		return
	}
	c.Redirect(http.StatusSeeOther, sectionURL(def.Key)+"?notice=created")
}

// EditRecord opens the modal in edit mode
// GET /sections/:section/:id/edit
func (h *Handler) EditRecord(c *gin.Context) {
	ctrl := controllerFrom(c)
	def := ctrl.Definition()
	ctx := c.Request.Context()
	id := c.Param("id")
	view := ctrl.Load(ctx)

	rec, err := ctrl.Find(ctx, view, id)
	if err != nil {
		h.renderSection(c, statusOf(err), sectionPage{view: view, banner: err})
		return
	}

	m := newModal(ctrl, view, "Edit "+def.Singular, recordURL(def.Key, id))
	m.OpenEdit(rec)
	h.renderModal(c, http.StatusOK, view, m, nil)
}

// UpdateRecord submits the edit modal
// POST /sections/:section/:id
func (h *Handler) UpdateRecord(c *gin.Context) {
	ctrl := controllerFrom(c)
	def := ctrl.Definition()
	ctx := c.Request.Context()
	id := c.Param("id")
	view := ctrl.Load(ctx)

	rec, err := ctrl.Find(ctx, view, id)
	if err != nil {
		h.renderSection(c, statusOf(err), sectionPage{view: view, banner: err})
		return
	}

	m := newModal(ctrl, view, "Edit "+def.Singular, recordURL(def.Key, id))
	m.OnSubmit = func(ctx context.Context, values schema.Values) error {
		return ctrl.Edit(ctx, id, values)
	}
	m.OpenEdit(rec)

	if err := m.Submit(ctx, postedForm(c)); err != nil {
		h.renderModal(c, statusOf(err), view, m, nil)
		return
	}
	c.Redirect(http.StatusSeeOther, sectionURL(def.Key)+"?notice=updated")
}

type confirmView struct {
	Singular  string
	Label     string
	Action    string
	CancelURL string
}

// ConfirmDelete asks before deleting a record
// GET /sections/:section/:id/delete
func (h *Handler) ConfirmDelete(c *gin.Context) {
	ctrl := controllerFrom(c)
	def := ctrl.Definition()
	ctx := c.Request.Context()
	id := c.Param("id")
	view := ctrl.Load(ctx)

	rec, err := ctrl.Find(ctx, view, id)
	if err != nil {
		h.renderSection(c, statusOf(err), sectionPage{view: view, banner: err})
		return
	}

	overlay, err := h.renderer.Fragment("confirm", confirmView{
		Singular:  def.Singular,
		Label:     def.Label(rec),
		Action:    recordURL(def.Key, id) + "/delete",
		CancelURL: sectionURL(def.Key),
	})
	if err != nil {
		h.renderError(c, http.StatusInternalServerError, "internal server error", sectionURL(def.Key))
		return
	}
	h.renderSection(c, http.StatusOK, sectionPage{view: view, overlay: overlay})
}

// DeleteRecord deletes a record once confirmed
// POST /sections/:section/:id/delete
func (h *Handler) DeleteRecord(c *gin.Context) {
	ctrl := controllerFrom(c)
	def := ctrl.Definition()
	ctx := c.Request.Context()
	confirmed := c.PostForm("confirm") == "yes"

	if err := ctrl.Delete(ctx, c.Param("id"), confirmed); err != nil {
		status := statusOf(err)
		if stderrors.Is(err, section.ErrNotConfirmed) {
			status = http.StatusBadRequest
		}
		h.renderSection(c, status, sectionPage{view: ctrl.Load(ctx), banner: err})
		return
	}
	c.Redirect(http.StatusSeeOther, sectionURL(def.Key)+"?notice=deleted")
}

func postedForm(c *gin.Context) url.Values {
	if err := c.Request.ParseForm(); err != nil {
		return url.Values{}
	}
	return c.Request.PostForm
}
