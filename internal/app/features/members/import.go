// internal/app/features/members/import.go
package members

import (
	"context"
	"errors"
	"net/http"

	memberstore "github.com/Pelezi/videira-caruaru-api/internal/app/store/members"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/apperr"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/auth"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/csvutil"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/httpjson"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/normalize"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/permissions"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/timeouts"
	"github.com/Pelezi/videira-caruaru-api/internal/app/system/txn"
	"github.com/Pelezi/videira-caruaru-api/internal/domain/models"
	"go.uber.org/zap"
)

type importRejection struct {
	Errors []csvutil.RowError `json:"errors"`
}

type importResult struct {
	Imported int `json:"imported"`
}

// HandleImport bulk-registers members from a CSV body (columns: full
// name, email, phone; header optional) and enrolls all of them in the
// session matrix. The file is validated in full before any write, and
// the import is atomic: one duplicate email aborts everything.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	perm, _ := permissions.Current(r)
	principal, _ := auth.CurrentPrincipal(r)
	if err := requireLeadership(perm); err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	body := http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	rows, rowErrs, err := csvutil.PreScanMembersCSV(body)
	if err != nil {
		if errors.Is(err, csvutil.ErrTooManyRows) {
			apperr.Render(w, apperr.Invalidf("csv exceeds %d rows", csvutil.MaxRows), h.Log)
			return
		}
		apperr.Render(w, apperr.Invalidf("unreadable csv"), h.Log)
		return
	}
	if len(rowErrs) > 0 {
		httpjson.Write(w, http.StatusBadRequest, importRejection{Errors: rowErrs})
		return
	}
	if len(rows) == 0 {
		apperr.Render(w, apperr.Invalidf("csv has no member rows"), h.Log)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err = txn.Run(ctx, h.Client, h.Log, func(sc context.Context) error {
		for _, row := range rows {
			created, err := h.Members.Create(sc, models.Member{
				FullName: normalize.Name(row.FullName),
				Email:    normalize.Email(row.Email),
				Phone:    normalize.Phone(row.Phone),
				Status:   models.StatusActive,
			})
			if errors.Is(err, memberstore.ErrDuplicateEmail) {
				return apperr.Preconditionf("email %s is already registered", row.Email)
			}
			if err != nil {
				return err
			}
			if err := h.Memberships.Add(sc, created.ID, principal.MatrixID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		apperr.Render(w, err, h.Log)
		return
	}

	h.Log.Info("members imported",
		zap.Int("count", len(rows)),
		zap.String("matrix_id", principal.MatrixID.Hex()))
	httpjson.Write(w, http.StatusCreated, importResult{Imported: len(rows)})
}
