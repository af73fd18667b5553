package api

import (
	"errors"
	"net/http"

	"github.com/Julianb233/better-together-live-sub001/internal/apperr"
	"github.com/Julianb233/better-together-live-sub001/internal/domain"
	"github.com/Julianb233/better-together-live-sub001/internal/storage"
	"github.com/go-chi/chi/v5"
)

type successResponse struct {
	Success bool `json:"success"`
}

type reactionRequest struct {
	UserID       string `json:"userId" validate:"required"`
	ReactionType string `json:"reactionType" validate:"required,oneof=like love celebrate support insightful"`
}

// PutReaction — PUT /api/posts/{postID}/reaction
// Upsert: на пару (пользователь, пост) не более одной реакции. Новая
// реакция атомарно инкрементирует like_count; смена типа — нет.
func (h *Handler) PutReaction(w http.ResponseWriter, r *http.Request) {
	var req reactionRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	post, err := h.store.GetPostByID(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		h.respondError(w, r, notFoundOr(err, "post not found", "failed to add reaction"))
		return
	}

	created, err := h.store.UpsertReaction(r.Context(), req.UserID, post.ID, req.ReactionType)
	if err != nil {
		h.respondError(w, r, apperr.Unavailable("failed to add reaction", err))
		return
	}
	h.respondJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		Created bool `json:"created"`
	}{true, created})
}

// DeleteReaction — DELETE /api/posts/{postID}/reaction?userId
func (h *Handler) DeleteReaction(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		h.respondError(w, r, apperr.InvalidArgument("user id required"))
		return
	}

	if _, err := h.store.DeleteReaction(r.Context(), userID, chi.URLParam(r, "postID")); err != nil {
		h.respondError(w, r, apperr.Unavailable("failed to remove reaction", err))
		return
	}
	h.respondJSON(w, http.StatusOK, successResponse{Success: true})
}

type connectionRequest struct {
	FollowerID  string `json:"followerId" validate:"required"`
	FollowingID string `json:"followingId" validate:"required"`
}

// CreateConnection — POST /api/connections; связь создается в статусе pending.
func (h *Handler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.FollowerID == req.FollowingID {
		h.respondError(w, r, apperr.InvalidArgument("cannot connect to yourself"))
		return
	}

	blocked, err := h.store.IsBlockedEither(r.Context(), req.FollowerID, req.FollowingID)
	if err != nil {
		h.respondError(w, r, apperr.Unavailable("failed to create connection", err))
		return
	}
	if blocked {
		h.respondError(w, r, apperr.AccessDenied("access denied"))
		return
	}

	conn, err := h.store.CreateConnection(r.Context(), &domain.Connection{
		FollowerID:  req.FollowerID,
		FollowingID: req.FollowingID,
		Status:      domain.ConnectionPending,
	})
	if err != nil {
		h.respondError(w, r, apperr.Unavailable("failed to create connection", err))
		return
	}
	h.respondJSON(w, http.StatusCreated, struct {
		Success    bool               `json:"success"`
		Connection *domain.Connection `json:"connection"`
	}{true, conn})
}

type acceptConnectionRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// AcceptConnection — POST /api/connections/{followerID}/accept
// Принять запрос может только тот, на кого он направлен.
func (h *Handler) AcceptConnection(w http.ResponseWriter, r *http.Request) {
	var req acceptConnectionRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	err := h.store.AcceptConnection(r.Context(), chi.URLParam(r, "followerID"), req.UserID)
	if err != nil {
		h.respondError(w, r, notFoundOr(err, "connection request not found", "failed to accept connection"))
		return
	}
	h.respondJSON(w, http.StatusOK, successResponse{Success: true})
}

type blockRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// BlockUser — PUT /api/users/{userID}/block
// Блокировка также разрывает связи между парой в обе стороны.
func (h *Handler) BlockUser(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	targetID := chi.URLParam(r, "userID")
	if req.UserID == targetID {
		h.respondError(w, r, apperr.InvalidArgument("cannot block yourself"))
		return
	}

	if err := h.store.CreateBlock(r.Context(), req.UserID, targetID); err != nil {
		h.respondError(w, r, apperr.Unavailable("failed to block user", err))
		return
	}
	h.respondJSON(w, http.StatusOK, successResponse{Success: true})
}

// UnblockUser — DELETE /api/users/{userID}/block?userId
func (h *Handler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	blockerID := r.URL.Query().Get("userId")
	if blockerID == "" {
		h.respondError(w, r, apperr.InvalidArgument("user id required"))
		return
	}

	if err := h.store.DeleteBlock(r.Context(), blockerID, chi.URLParam(r, "userID")); err != nil {
		h.respondError(w, r, apperr.Unavailable("failed to unblock user", err))
		return
	}
	h.respondJSON(w, http.StatusOK, successResponse{Success: true})
}

type membershipRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// JoinCommunity — POST /api/communities/{communityID}/join
// Открытые сообщества принимают сразу; закрытые и инвайтовые без
// приглашения (вне поверхности этого сервиса) отклоняют запрос.
func (h *Handler) JoinCommunity(w http.ResponseWriter, r *http.Request) {
	var req membershipRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	communityID := chi.URLParam(r, "communityID")

	community, err := h.store.GetCommunityByID(r.Context(), communityID)
	if err != nil {
		h.respondError(w, r, notFoundOr(err, "community not found", "failed to join community"))
		return
	}
	if community.PrivacyLevel != domain.PrivacyPublic {
		h.respondError(w, r, apperr.AccessDenied("community requires an invite"))
		return
	}

	existing, err := h.store.GetMembership(r.Context(), communityID, req.UserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.respondError(w, r, apperr.Unavailable("failed to join community", err))
		return
	}
	if existing != nil && existing.Status == domain.MemberBanned {
		h.respondError(w, r, apperr.AccessDenied("access denied"))
		return
	}

	role := domain.RoleMember
	if existing != nil {
		role = existing.Role
	}
	err = h.store.UpsertMembership(r.Context(), &domain.CommunityMember{
		CommunityID: communityID,
		UserID:      req.UserID,
		Role:        role,
		Status:      domain.MemberActive,
	})
	if err != nil {
		h.respondError(w, r, apperr.Unavailable("failed to join community", err))
		return
	}
	h.respondJSON(w, http.StatusOK, successResponse{Success: true})
}

// LeaveCommunity — POST /api/communities/{communityID}/leave
func (h *Handler) LeaveCommunity(w http.ResponseWriter, r *http.Request) {
	var req membershipRequest
	if err := h.decode(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	communityID := chi.URLParam(r, "communityID")

	member, err := h.store.GetMembership(r.Context(), communityID, req.UserID)
	if err != nil {
		h.respondError(w, r, notFoundOr(err, "membership not found", "failed to leave community"))
		return
	}

	member.Status = domain.MemberLeft
	if err := h.store.UpsertMembership(r.Context(), member); err != nil {
		h.respondError(w, r, apperr.Unavailable("failed to leave community", err))
		return
	}
	h.respondJSON(w, http.StatusOK, successResponse{Success: true})
}
