package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/headdrop/leaderboard-web/internal/logic"
	"github.com/headdrop/leaderboard-web/internal/models"
	"github.com/headdrop/leaderboard-web/internal/render"
)

// GetLeaderboard renders one page of the head collection leaderboard.
// The page comes from the "page" query parameter and defaults to 1; pages
// past the data render an empty table. Failures to read the store surface
// as a bare 500.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	snapshot, err := h.ranker.Ranked(ctx)
	if err != nil {
		h.logger.Errorw("Failed to build leaderboard", "request_id", RequestIDFromContext(ctx), "error", err)
		leaderboardRequests.WithLabelValues("error").Inc()
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	page := logic.ParsePage(r.URL.RawQuery)
	window := logic.Paginate(len(snapshot), page, models.PageSize)

	body, err := render.Render(snapshot, window, h.now())
	if err != nil {
		h.logger.Errorw("Failed to render leaderboard", "request_id", RequestIDFromContext(ctx), "page", page, "error", err)
		leaderboardRequests.WithLabelValues("error").Inc()
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	renderDuration.Observe(time.Since(start).Seconds())

	setNoCacheHeaders(w.Header())
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, body); err != nil {
		// Client went away mid-response; nothing left to do for this request.
		h.logger.Warnw("Failed to write leaderboard response", "request_id", RequestIDFromContext(ctx), "error", err)
		leaderboardRequests.WithLabelValues("write_error").Inc()
		return
	}
	leaderboardRequests.WithLabelValues("ok").Inc()
}
