package patient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/patientor/internal/client"
	"github.com/jwalitptl/patientor/internal/form"
	"github.com/jwalitptl/patientor/internal/middleware"
	"github.com/jwalitptl/patientor/internal/model"
	"github.com/jwalitptl/patientor/internal/store"
	"github.com/jwalitptl/patientor/internal/task"
	"github.com/jwalitptl/patientor/internal/view"
	apperrors "github.com/jwalitptl/patientor/pkg/errors"
)

// Form actions posted with the entry form.
const (
	ActionUpdate    = "update"
	ActionRatingInc = "rating_inc"
	ActionRatingDec = "rating_dec"
	ActionCancel    = "cancel"
	ActionSubmit    = "submit"
)

var errNoSession = errors.New("no session bound to request")

// API is the part of the patients API the pages use.
type API interface {
	Ping(ctx context.Context) error
	ListPatients(ctx context.Context) ([]model.Patient, error)
	GetPatient(ctx context.Context, id string) (model.Patient, error)
	AddEntry(ctx context.Context, patientID string, entry model.Entry) (model.Entry, error)
	ListDiagnoses(ctx context.Context) ([]model.Diagnosis, error)
}

type Handler struct {
	api   API
	tasks *task.Tracker
	now   func() time.Time
}

func NewHandler(api API, tasks *task.Tracker) *Handler {
	return &Handler{
		api:   api,
		tasks: tasks,
		now:   time.Now,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/", h.ListPatients)

	patients := r.Group("/patients")
	{
		patients.GET("", h.ListPatients)
		patients.GET("/:id", h.GetPatient)
		patients.GET("/:id/entries/new", h.NewEntry)
		patients.POST("/:id/entries", h.AddEntry)
	}
}

// Bootstrap loads what every page of a new session needs. The ping result
// is ignored; each fetch failure is only logged.
func (h *Handler) Bootstrap(ctx context.Context, s *store.Store) {
	g := task.NewGroup(ctx, h.tasks)
	task.Go(g, "ping", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.api.Ping(ctx)
	}, func(struct{}) {})
	task.Go(g, "patients", h.api.ListPatients, func(patients []model.Patient) {
		s.Dispatch(store.SetPatientListAction(patients))
	})
	task.Go(g, "diagnoses", h.api.ListDiagnoses, func(diagnoses []model.Diagnosis) {
		s.Dispatch(store.SetDiagnosesDataAction(diagnoses))
	})
	_ = g.Wait()
}

// ListPatients refreshes the patient list and renders it from the store.
// A failed refresh renders whatever the store already holds.
func (h *Handler) ListPatients(c *gin.Context) {
	s, ok := h.store(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	// A session started by this request was just bootstrapped with the list.
	if !middleware.SessionCreated(c) {
		err := task.Run(ctx, h.tasks, "patients", h.api.ListPatients, func(patients []model.Patient) {
			s.Dispatch(store.SetPatientListAction(patients))
		})
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to fetch patient list")
		}
	}

	c.HTML(http.StatusOK, view.PageList, view.ListPage{Patients: s.SortedPatients()})
}

// GetPatient renders the detail page. "?modal=open" opens the entry form.
func (h *Handler) GetPatient(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.HTML(http.StatusOK, view.PageEmpty, nil)
		return
	}
	if c.Query("modal") == "open" {
		h.NewEntry(c)
		return
	}

	s, ok := h.store(c)
	if !ok {
		return
	}
	h.ensureDetail(c.Request.Context(), s, id)
	h.renderDetail(c, http.StatusOK, s, id, nil)
}

// NewEntry renders the detail page with a fresh entry form. The "type"
// query parameter preselects a variant.
func (h *Handler) NewEntry(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.HTML(http.StatusOK, view.PageEmpty, nil)
		return
	}
	s, ok := h.store(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	h.ensureDetail(ctx, s, id)
	h.ensureDiagnoses(ctx, s)

	initial := form.Initial(h.now())
	v := initial
	if t := model.EntryType(c.Query("type")); t.Valid() {
		v = v.WithType(t)
	}

	h.renderDetail(c, http.StatusOK, s, id, view.NewFormView(id, v, initial, nil, s.DiagnosisList()))
}

// AddEntry handles every action posted by the entry form.
func (h *Handler) AddEntry(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.HTML(http.StatusOK, view.PageEmpty, nil)
		return
	}
	s, ok := h.store(c)
	if !ok {
		return
	}

	var v form.Values
	if err := c.ShouldBindWith(&v, binding.Form); err != nil {
		_ = c.Error(apperrors.NewBadRequest("invalid entry form", err))
		return
	}

	ctx := c.Request.Context()
	initial := form.Initial(h.now())
	diagnoses := loadedDiagnoses(s)
	formView := func(v form.Values, errs form.Errors) *view.FormView {
		return view.NewFormView(id, v, initial, errs, s.DiagnosisList())
	}

	switch c.PostForm("action") {
	case ActionCancel:
		form.Cancel(func() {
			c.Redirect(http.StatusSeeOther, "/patients/"+id)
		})

	case ActionRatingInc:
		h.renderDetail(c, http.StatusOK, s, id, formView(v.IncrementRating(), nil))

	case ActionRatingDec:
		h.renderDetail(c, http.StatusOK, s, id, formView(v.DecrementRating(), nil))

	case ActionSubmit:
		errs, err := form.Submit(ctx, v, diagnoses, func(ctx context.Context, e model.Entry) error {
			created, err := h.api.AddEntry(ctx, id, e)
			if errors.Is(err, client.ErrMalformedResponse) {
				// Stored but unreadable; reload the record.
				zerolog.Ctx(ctx).Warn().Err(err).Str("patient_id", id).Msg("Created entry unreadable, reloading patient")
				h.refreshDetail(ctx, s, id)
				return nil
			}
			if err != nil {
				return err
			}
			if p, ok := s.Patient(id); ok {
				s.Dispatch(store.UpdatePatientAction(p.WithEntry(created)))
			}
			return nil
		})

		switch {
		case !errs.Empty():
			_ = c.Error(apperrors.NewValidation(fmt.Errorf("invalid fields: %s", strings.Join(errs.Fields(), ", "))))
			h.renderDetail(c, http.StatusUnprocessableEntity, s, id, formView(v, errs))
		case err != nil:
			ev := zerolog.Ctx(ctx).Error()
			if apperrors.CodeOf(err) == apperrors.ErrUpstream {
				ev = zerolog.Ctx(ctx).Warn()
			}
			ev.Err(err).Str("patient_id", id).Msg("Entry rejected")
			fv := formView(v, nil)
			fv.ServerError = client.MessageOf(err)
			h.renderDetail(c, http.StatusBadRequest, s, id, fv)
		default:
			c.Redirect(http.StatusSeeOther, "/patients/"+id)
		}

	default: // ActionUpdate
		h.renderDetail(c, http.StatusOK, s, id, formView(v, form.ValidateAgainst(v, diagnoses)))
	}
}

// ensureDetail fetches the full patient record unless the store already
// holds it.
func (h *Handler) ensureDetail(ctx context.Context, s *store.Store, id string) {
	if p, ok := s.Patient(id); ok && p.HasDetail() {
		return
	}
	h.refreshDetail(ctx, s, id)
}

// refreshDetail fetches the full patient record into the store.
func (h *Handler) refreshDetail(ctx context.Context, s *store.Store, id string) {
	err := task.Run(ctx, h.tasks, "patient", func(ctx context.Context) (model.Patient, error) {
		return h.api.GetPatient(ctx, id)
	}, func(p model.Patient) {
		s.Dispatch(store.UpdatePatientAction(p))
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("patient_id", id).Msg("Failed to fetch patient")
	}
}

// ensureDiagnoses loads the diagnoses when the session bootstrap could not.
func (h *Handler) ensureDiagnoses(ctx context.Context, s *store.Store) {
	if len(s.State().Diagnoses) > 0 {
		return
	}
	err := task.Run(ctx, h.tasks, "diagnoses", h.api.ListDiagnoses, func(diagnoses []model.Diagnosis) {
		s.Dispatch(store.SetDiagnosesDataAction(diagnoses))
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to fetch diagnoses")
	}
}

func (h *Handler) renderDetail(c *gin.Context, status int, s *store.Store, id string, fv *view.FormView) {
	p, ok := s.Patient(id)
	if !ok {
		_ = c.Error(apperrors.NewNotFound("patient "+id, nil))
		c.HTML(http.StatusNotFound, view.PageDetail, view.DetailPage{})
		return
	}

	entries, err := view.RenderEntries(p.Entries, s.State().Diagnoses)
	if err != nil {
		_ = c.Error(apperrors.NewInternal(err))
		return
	}
	c.HTML(status, view.PageDetail, view.DetailPage{
		Patient: &p,
		Entries: entries,
		Form:    fv,
	})
}

func (h *Handler) store(c *gin.Context) (*store.Store, bool) {
	s, ok := middleware.Store(c)
	if !ok {
		_ = c.Error(apperrors.NewInternal(errNoSession))
		return nil, false
	}
	return s, true
}

// loadedDiagnoses returns the diagnoses to check selected codes against, or
// nil when none are loaded yet.
func loadedDiagnoses(s *store.Store) map[string]model.Diagnosis {
	d := s.State().Diagnoses
	if len(d) == 0 {
		return nil
	}
	return d
}
