package api

import (
	"net/http"

	"github.com/Julianb233/better-together-live-sub001/internal/feed"
	"github.com/go-chi/chi/v5"
)

type feedResponse struct {
	Posts   []*feed.PostView `json:"posts"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
	HasMore bool             `json:"hasMore"`
}

// GetFeed — GET /api/feed?userId&page&limit&filter
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	page, limit, err := h.pagination(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	viewerID := r.URL.Query().Get("userId")
	filter := feed.ParseHomeFilter(r.URL.Query().Get("filter"))

	result, err := h.composer.Home(r.Context(), viewerID, filter, page, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, feedResponse{
		Posts:   result.Posts,
		Page:    result.Page,
		Limit:   result.Limit,
		HasMore: result.HasMore,
	})
}

// GetTrendingFeed — GET /api/feed/trending?timeframe&page&limit&userId
func (h *Handler) GetTrendingFeed(w http.ResponseWriter, r *http.Request) {
	page, limit, err := h.pagination(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	viewerID := r.URL.Query().Get("userId")
	timeframe := feed.ParseTimeframe(r.URL.Query().Get("timeframe"))

	result, err := h.composer.Trending(r.Context(), viewerID, timeframe, page, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, struct {
		Posts     []*feed.PostView `json:"posts"`
		Timeframe string           `json:"timeframe"`
		Page      int              `json:"page"`
		Limit     int              `json:"limit"`
		HasMore   bool             `json:"hasMore"`
	}{result.Posts, string(timeframe), result.Page, result.Limit, result.HasMore})
}

// GetCommunityFeed — GET /api/feed/community/{communityID}?userId&page&limit&pinnedFirst
func (h *Handler) GetCommunityFeed(w http.ResponseWriter, r *http.Request) {
	page, limit, err := h.pagination(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	communityID := chi.URLParam(r, "communityID")
	viewerID := r.URL.Query().Get("userId")
	pinnedFirst := r.URL.Query().Get("pinnedFirst") == "true"

	result, err := h.composer.Community(r.Context(), communityID, viewerID, pinnedFirst, page, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, struct {
		Posts       []*feed.PostView `json:"posts"`
		CommunityID string           `json:"communityId"`
		Page        int              `json:"page"`
		Limit       int              `json:"limit"`
		HasMore     bool             `json:"hasMore"`
	}{result.Posts, communityID, result.Page, result.Limit, result.HasMore})
}

// GetUserFeed — GET /api/feed/user/{targetUserID}?viewerId&page&limit
func (h *Handler) GetUserFeed(w http.ResponseWriter, r *http.Request) {
	page, limit, err := h.pagination(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	targetID := chi.URLParam(r, "targetUserID")
	viewerID := r.URL.Query().Get("viewerId")

	result, target, err := h.composer.Profile(r.Context(), targetID, viewerID, page, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, struct {
		Posts    []*feed.PostView `json:"posts"`
		UserID   string           `json:"userId"`
		UserName string           `json:"userName"`
		Page     int              `json:"page"`
		Limit    int              `json:"limit"`
		HasMore  bool             `json:"hasMore"`
	}{result.Posts, target.ID, target.Name, result.Page, result.Limit, result.HasMore})
}

func (h *Handler) pagination(r *http.Request) (page, limit int, err error) {
	page, err = queryInt(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	limit, err = queryInt(r, "limit", 0)
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}
