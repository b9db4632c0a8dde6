package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
)

// ══════════════════════════════════════════════════════════════════════════════
// CERTIFICATE LOOKUP
// Read-only endpoint the certificate page queries after a period ends.
// ══════════════════════════════════════════════════════════════════════════════

// certificateResponse is the JSON shape of one certificate.
type certificateResponse struct {
	Period    string    `json:"period"`
	Nickname  string    `json:"nickname"`
	Content   string    `json:"content"`
	Checkins  int       `json:"checkins"`
	Qualified bool      `json:"qualified"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CertificateHandler serves GET /api/v1/certificates?period=<name>&nickname=<n>.
type CertificateHandler struct {
	repo   challenge.Repository
	logger *slog.Logger
}

// NewCertificateHandler creates a CertificateHandler.
func NewCertificateHandler(repo challenge.Repository, logger *slog.Logger) *CertificateHandler {
	return &CertificateHandler{repo: repo, logger: logger}
}

// ServeHTTP implements http.Handler.
func (h *CertificateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	periodName := r.URL.Query().Get("period")
	nickname := r.URL.Query().Get("nickname")
	if nickname == "" {
		http.Error(w, "nickname is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	var period *challenge.Period
	var err error
	if periodName != "" {
		period, err = h.repo.PeriodByName(ctx, periodName)
	} else {
		period, err = h.repo.LatestPeriod(ctx)
	}
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			http.Error(w, "period not found", http.StatusNotFound)
			return
		}
		h.logger.Error("certificate period lookup failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	cert, err := h.repo.CertificateByNickname(ctx, period.ID, nickname)
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			http.Error(w, "certificate not found", http.StatusNotFound)
			return
		}
		h.logger.Error("certificate lookup failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, certificateResponse{
		Period:    period.Name,
		Nickname:  cert.Nickname,
		Content:   cert.Content,
		Checkins:  cert.Checkins,
		Qualified: cert.Qualified,
		UpdatedAt: cert.UpdatedAt,
	})
}
