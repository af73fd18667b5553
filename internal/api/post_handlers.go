package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Julianb233/better-together-live-sub001/internal/apperr"
	"github.com/Julianb233/better-together-live-sub001/internal/domain"
	"github.com/Julianb233/better-together-live-sub001/internal/feed"
	"github.com/Julianb233/better-together-live-sub001/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

type createPostRequest struct {
	AuthorID            string   `json:"authorId" validate:"required"`
	Content             string   `json:"content"`
	MediaURLs           []string `json:"mediaUrls" validate:"omitempty,dive,url"`
	Visibility          string   `json:"visibility" validate:"required,oneof=public community connections private"`
	CommunityID         *string  `json:"communityId"`
	ContentType         string   `json:"contentType" validate:"omitempty,oneof=text image video link"`
	RelationshipID      *string  `json:"relationshipId"`
	LinkedActivityID    *string  `json:"linkedActivityId"`
	LinkedChallengeID   *string  `json:"linkedChallengeId"`
	LinkedAchievementID *string  `json:"linkedAchievementId"`
}

// CreatePost — POST /api/posts
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.Content == "" && len(req.MediaURLs) == 0 {
		h.respondError(w, r, apperr.InvalidArgument("either content or media urls required"))
		return
	}

	visibility := domain.Visibility(req.Visibility)
	// Инварианты пары (community_id, visibility).
	if visibility == domain.VisibilityCommunity && req.CommunityID == nil {
		h.respondError(w, r, apperr.InvalidArgument("community visibility requires a community id"))
		return
	}
	if req.CommunityID != nil && visibility != domain.VisibilityPublic && visibility != domain.VisibilityCommunity {
		h.respondError(w, r, apperr.InvalidArgument("community posts must be public or community visible"))
		return
	}

	contentType := domain.ContentType(req.ContentType)
	if contentType == "" {
		contentType = domain.ContentTypeText
	}

	post := &domain.Post{
		AuthorID:            req.AuthorID,
		RelationshipID:      req.RelationshipID,
		CommunityID:         req.CommunityID,
		ContentType:         contentType,
		Content:             req.Content,
		MediaURLs:           marshalMediaURLs(req.MediaURLs),
		LinkedActivityID:    req.LinkedActivityID,
		LinkedChallengeID:   req.LinkedChallengeID,
		LinkedAchievementID: req.LinkedAchievementID,
		Visibility:          visibility,
	}

	created, err := h.store.CreatePost(r.Context(), post)
	if err != nil {
		if errors.Is(err, storage.ErrNotMember) {
			h.respondError(w, r, apperr.AccessDenied("not a member of this community"))
			return
		}
		h.respondError(w, r, apperr.Unavailable("failed to create post", err))
		return
	}

	views, err := feed.ProjectPosts(r.Context(), []*domain.Post{created}, created.AuthorID)
	if err != nil {
		h.respondError(w, r, apperr.Unavailable("failed to create post", err))
		return
	}
	h.respondJSON(w, http.StatusCreated, struct {
		Success bool           `json:"success"`
		Post    *feed.PostView `json:"post"`
	}{true, views[0]})
}

// GetPost — GET /api/posts/{postID}?userId
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	view, err := h.composer.Post(r.Context(), chi.URLParam(r, "postID"), r.URL.Query().Get("userId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, view)
}

type updatePostRequest struct {
	UserID     string   `json:"userId" validate:"required"`
	Content    *string  `json:"content"`
	MediaURLs  []string `json:"mediaUrls" validate:"omitempty,dive,url"`
	Visibility *string  `json:"visibility" validate:"omitempty,oneof=public community connections private"`
}

// UpdatePost — PUT /api/posts/{postID}; менять пост может только автор.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req updatePostRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	post, err := h.store.GetPostByID(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		h.respondError(w, r, notFoundOr(err, "post not found", "failed to update post"))
		return
	}
	if post.AuthorID != req.UserID {
		h.respondError(w, r, apperr.AccessDenied("only the author can update this post"))
		return
	}

	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.MediaURLs != nil {
		post.MediaURLs = marshalMediaURLs(req.MediaURLs)
	}
	if req.Visibility != nil {
		post.Visibility = domain.Visibility(*req.Visibility)
	}

	// Инварианты пары (community_id, visibility) действуют и при правке.
	if post.Visibility == domain.VisibilityCommunity && post.CommunityID == nil {
		h.respondError(w, r, apperr.InvalidArgument("community visibility requires a community id"))
		return
	}
	if post.CommunityID != nil && post.Visibility != domain.VisibilityPublic && post.Visibility != domain.VisibilityCommunity {
		h.respondError(w, r, apperr.InvalidArgument("community posts must be public or community visible"))
		return
	}

	if err := h.store.UpdatePost(r.Context(), post); err != nil {
		h.respondError(w, r, apperr.Unavailable("failed to update post", err))
		return
	}
	h.respondJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{true, "Post updated"})
}

// DeletePost — DELETE /api/posts/{postID}?userId
// Мягкое удаление: автор либо модератор/админ/владелец сообщества.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		h.respondError(w, r, apperr.InvalidArgument("user id required"))
		return
	}

	post, err := h.store.GetPostByID(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		h.respondError(w, r, notFoundOr(err, "post not found", "failed to delete post"))
		return
	}

	canDelete := post.AuthorID == userID
	if !canDelete && post.CommunityID != nil {
		member, err := h.store.GetMembership(r.Context(), *post.CommunityID, userID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			h.respondError(w, r, apperr.Unavailable("failed to delete post", err))
			return
		}
		if err == nil && member.Status == domain.MemberActive && member.Role.CanModerate() {
			canDelete = true
		}
	}
	if !canDelete {
		h.respondError(w, r, apperr.AccessDenied("insufficient permissions to delete this post"))
		return
	}

	if err := h.store.SoftDeletePost(r.Context(), post.ID); err != nil {
		h.respondError(w, r, apperr.Unavailable("failed to delete post", err))
		return
	}
	h.respondJSON(w, http.StatusOK, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{true, "Post deleted"})
}

type sharePostRequest struct {
	UserID      string  `json:"userId" validate:"required"`
	Content     string  `json:"content"`
	Visibility  string  `json:"visibility" validate:"omitempty,oneof=public community connections private"`
	CommunityID *string `json:"communityId"`
}

// SharePost — POST /api/posts/{postID}/share
// Создает пост-репост и атомарно инкрементирует share_count оригинала.
func (h *Handler) SharePost(w http.ResponseWriter, r *http.Request) {
	var req sharePostRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	original, err := h.store.GetPostByID(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		h.respondError(w, r, notFoundOr(err, "original post not found", "failed to share post"))
		return
	}

	content := req.Content
	if content == "" {
		content = fmt.Sprintf("Shared a post from %s", original.AuthorID)
	}
	// Репост без явной видимости уходит связям; репост в сообщество —
	// его участникам. Инварианты пары (community_id, visibility) те же,
	// что при создании поста.
	visibility := domain.Visibility(req.Visibility)
	if visibility == "" {
		visibility = domain.VisibilityConnections
		if req.CommunityID != nil {
			visibility = domain.VisibilityCommunity
		}
	}
	if visibility == domain.VisibilityCommunity && req.CommunityID == nil {
		h.respondError(w, r, apperr.InvalidArgument("community visibility requires a community id"))
		return
	}
	if req.CommunityID != nil && visibility != domain.VisibilityPublic && visibility != domain.VisibilityCommunity {
		h.respondError(w, r, apperr.InvalidArgument("community posts must be public or community visible"))
		return
	}

	share := &domain.Post{
		AuthorID:    req.UserID,
		CommunityID: req.CommunityID,
		ContentType: domain.ContentTypeText,
		Content:     content,
		Visibility:  visibility,
	}
	created, err := h.store.CreatePost(r.Context(), share)
	if err != nil {
		if errors.Is(err, storage.ErrNotMember) {
			h.respondError(w, r, apperr.AccessDenied("not a member of this community"))
			return
		}
		h.respondError(w, r, apperr.Unavailable("failed to share post", err))
		return
	}

	if err := h.store.IncrementShareCount(r.Context(), original.ID); err != nil {
		h.respondError(w, r, apperr.Unavailable("failed to share post", err))
		return
	}
	h.respondJSON(w, http.StatusCreated, struct {
		Success     bool   `json:"success"`
		SharePostID string `json:"sharePostId"`
		Message     string `json:"message"`
	}{true, created.ID, "Post shared successfully"})
}

func marshalMediaURLs(urls []string) *string {
	if len(urls) == 0 {
		return nil
	}
	raw, err := json.Marshal(urls)
	if err != nil {
		return nil
	}
	s := string(raw)
	return &s
}

func notFoundOr(err error, notFoundMsg, unavailableMsg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound(notFoundMsg)
	}
	return apperr.Unavailable(unavailableMsg, err)
}
