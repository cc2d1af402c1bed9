// internal/app/features/celulas/reports.go
package celulas

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/htmlsanitize"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/httpjson"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type reportRequest struct {
	MeetingDate  string   `json:"meeting_date"` // RFC 3339 date, e.g. 2026-08-21
	PresentIDs   []string `json:"present_ids"`
	VisitorCount int      `json:"visitor_count"`
	Notes        string   `json:"notes"`
}

// HandleCreateReport files an attendance report for one meeting.
// Every listed attendee is tenant-validated.
func (h *Handler) HandleCreateReport(w http.ResponseWriter, r *http.Request) {
	celulaID, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	var req reportRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	meetingDate, err := time.Parse("2006-01-02", req.MeetingDate)
	if err != nil {
		apperr.Render(w, apperr.Invalidf("invalid meeting date"), h.Log)
		return
	}
	if req.VisitorCount < 0 {
		apperr.Render(w, apperr.Invalidf("visitor count cannot be negative"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Tenant.Celula(ctx, celulaID, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := permissions.RequireCelulaAccess(perm, celulaID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	present := make([]primitive.ObjectID, 0, len(req.PresentIDs))
	seen := make(map[primitive.ObjectID]bool, len(req.PresentIDs))
	for _, hex := range req.PresentIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			apperr.Render(w, apperr.Invalidf("invalid attendee id"), h.Log)
			return
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := h.Tenant.Member(ctx, id, principal.MatrixID); err != nil {
			apperr.Render(w, err, h.Log)
			return
		}
		present = append(present, id)
	}

	report, err := h.Reports.Create(ctx, models.CelulaReport{
		CelulaID:     celulaID,
		MatrixID:     principal.MatrixID,
		MeetingDate:  meetingDate,
		PresentIDs:   present,
		VisitorCount: req.VisitorCount,
		Notes:        htmlsanitize.Sanitize(req.Notes),
	})
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	httpjson.Write(w, http.StatusCreated, report)
}

// HandleListReports returns the célula's reports, newest meeting
// first. An optional ?limit= caps the page.
func (h *Handler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	celulaID, err := pathID(r, "id")
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			apperr.Render(w, apperr.Invalidf("invalid limit"), h.Log)
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Tenant.Celula(ctx, celulaID, principal.MatrixID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if err := permissions.RequireCelulaAccess(perm, celulaID); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	reports, err := h.Reports.ListByCelula(ctx, celulaID, limit)
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}
	if reports == nil {
		reports = []models.CelulaReport{}
	}
	httpjson.Write(w, http.StatusOK, reports)
}
