package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Julianb233/better-together-live-sub001/internal/domain"
	"github.com/Julianb233/better-together-live-sub001/internal/storage"
	"github.com/google/uuid"
)

// Store реализует интерфейс Storage в памяти. Используется тестами и
// dev-режимом; предикат ленты интерпретируется обычными проверками на Go.
type Store struct {
	mu          sync.RWMutex
	posts       map[string]*domain.Post
	users       map[string]*domain.User
	communities map[string]*domain.Community
	members     map[string]*domain.CommunityMember // key: communityID|userID
	connections map[string]*domain.Connection      // key: followerID|followingID
	blocks      map[string]*domain.UserBlock       // key: blockerID|blockedID
	reactions   map[string]*domain.Reaction        // key: userID|postID
}

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		posts:       make(map[string]*domain.Post),
		users:       make(map[string]*domain.User),
		communities: make(map[string]*domain.Community),
		members:     make(map[string]*domain.CommunityMember),
		connections: make(map[string]*domain.Connection),
		blocks:      make(map[string]*domain.UserBlock),
		reactions:   make(map[string]*domain.Reaction),
	}
}

func pairKey(a, b string) string {
	return a + "|" + b
}

// === Feed Methods ===

func (s *Store) FeedCandidates(ctx context.Context, scope storage.FeedScope, limit int) ([]*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	excluded := make(map[string]struct{}, len(scope.ExcludeAuthors))
	for _, id := range scope.ExcludeAuthors {
		excluded[id] = struct{}{}
	}

	var result []*domain.Post
	for _, p := range s.posts {
		if p.Deleted() {
			continue
		}
		if _, ok := excluded[p.AuthorID]; ok {
			continue
		}
		if !s.matchesScope(p, scope) {
			continue
		}
		result = append(result, copyOf(p))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// matchesScope — Go-интерпретация предиката видимости; вызывается под RLock.
func (s *Store) matchesScope(p *domain.Post, scope storage.FeedScope) bool {
	switch scope.Kind {
	case storage.FeedHome:
		return s.matchesHome(p, scope)
	case storage.FeedTrending:
		if p.Visibility != domain.VisibilityPublic {
			return false
		}
		return scope.Since.IsZero() || !p.CreatedAt.Before(scope.Since)
	case storage.FeedCommunity:
		return p.CommunityID != nil && *p.CommunityID == scope.CommunityID
	case storage.FeedProfile:
		if p.AuthorID != scope.AuthorID {
			return false
		}
		if scope.Visibilities == nil {
			return true
		}
		for _, v := range scope.Visibilities {
			if p.Visibility == v {
				return true
			}
		}
		return false
	}
	return false
}

func (s *Store) matchesHome(p *domain.Post, scope storage.FeedScope) bool {
	viewer := scope.ViewerID
	switch scope.Filter {
	case storage.FilterCommunities:
		if p.CommunityID == nil || !s.activeMemberLocked(*p.CommunityID, viewer) {
			return false
		}
		return p.Visibility == domain.VisibilityPublic || p.Visibility == domain.VisibilityCommunity
	case storage.FilterConnections:
		if p.AuthorID != viewer && !s.acceptedLocked(viewer, p.AuthorID) {
			return false
		}
		return p.Visibility == domain.VisibilityPublic || p.Visibility == domain.VisibilityConnections
	default:
		if p.AuthorID == viewer {
			return true
		}
		switch p.Visibility {
		case domain.VisibilityPublic:
			return true
		case domain.VisibilityCommunity:
			return p.CommunityID != nil && s.activeMemberLocked(*p.CommunityID, viewer)
		case domain.VisibilityConnections:
			return s.acceptedLocked(viewer, p.AuthorID)
		}
		return false
	}
}

func (s *Store) activeMemberLocked(communityID, userID string) bool {
	m, ok := s.members[pairKey(communityID, userID)]
	return ok && m.Status == domain.MemberActive
}

func (s *Store) acceptedLocked(followerID, followingID string) bool {
	c, ok := s.connections[pairKey(followerID, followingID)]
	return ok && c.Status == domain.ConnectionAccepted
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.CommunityID != nil {
		if !s.activeMemberLocked(*post.CommunityID, post.AuthorID) {
			return nil, storage.ErrNotMember
		}
		if c, ok := s.communities[*post.CommunityID]; ok {
			c.PostCount++
		}
	}

	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	s.posts[post.ID] = copyOf(post)
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok || post.Deleted() {
		return nil, storage.ErrNotFound
	}
	return copyOf(post), nil
}

func (s *Store) UpdatePost(ctx context.Context, post *domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[post.ID]; !ok {
		return storage.ErrNotFound
	}
	post.UpdatedAt = time.Now().UTC()
	s.posts[post.ID] = copyOf(post)
	return nil
}

func (s *Store) SoftDeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok || post.Deleted() {
		return storage.ErrNotFound
	}
	now := time.Now().UTC()
	post.DeletedAt = &now
	if post.CommunityID != nil {
		if c, ok := s.communities[*post.CommunityID]; ok && c.PostCount > 0 {
			c.PostCount--
		}
	}
	return nil
}

func (s *Store) IncrementShareCount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return storage.ErrNotFound
	}
	post.ShareCount++
	return nil
}

// === User / Community Methods ===

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyOf(user), nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			result[id] = copyOf(user)
		}
	}
	return result, nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = copyOf(user)
	return user, nil
}

func (s *Store) GetCommunityByID(ctx context.Context, id string) (*domain.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	community, ok := s.communities[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyOf(community), nil
}

func (s *Store) GetCommunitiesByIDs(ctx context.Context, ids []string) (map[string]*domain.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.Community, len(ids))
	for _, id := range ids {
		if community, ok := s.communities[id]; ok {
			result[id] = copyOf(community)
		}
	}
	return result, nil
}

func (s *Store) CreateCommunity(ctx context.Context, community *domain.Community) (*domain.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if community.ID == "" {
		community.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if community.CreatedAt.IsZero() {
		community.CreatedAt = now
	}
	community.UpdatedAt = now
	if community.PrivacyLevel == "" {
		community.PrivacyLevel = domain.PrivacyPublic
	}
	s.communities[community.ID] = copyOf(community)
	return community, nil
}

// === Membership Methods ===

func (s *Store) GetMembership(ctx context.Context, communityID, userID string) (*domain.CommunityMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, ok := s.members[pairKey(communityID, userID)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyOf(member), nil
}

func (s *Store) UpsertMembership(ctx context.Context, member *domain.CommunityMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now().UTC()
	}
	s.members[pairKey(member.CommunityID, member.UserID)] = copyOf(member)

	if c, ok := s.communities[member.CommunityID]; ok {
		count := 0
		for _, m := range s.members {
			if m.CommunityID == member.CommunityID && m.Status == domain.MemberActive {
				count++
			}
		}
		c.MemberCount = count
	}
	return nil
}

// === Connection Methods ===

func (s *Store) HasAcceptedConnection(ctx context.Context, followerID, followingID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.acceptedLocked(followerID, followingID), nil
}

func (s *Store) CreateConnection(ctx context.Context, conn *domain.Connection) (*domain.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now
	if conn.Status == "" {
		conn.Status = domain.ConnectionPending
	}
	s.connections[pairKey(conn.FollowerID, conn.FollowingID)] = copyOf(conn)
	return conn, nil
}

func (s *Store) AcceptConnection(ctx context.Context, followerID, followingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, ok := s.connections[pairKey(followerID, followingID)]
	if !ok {
		return storage.ErrNotFound
	}
	conn.Status = domain.ConnectionAccepted
	conn.UpdatedAt = time.Now().UTC()
	return nil
}

// === Block Methods ===

func (s *Store) BlockedUserIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, b := range s.blocks {
		if b.BlockerID == userID {
			ids = append(ids, b.BlockedID)
		}
	}
	return ids, nil
}

func (s *Store) BlockerUserIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, b := range s.blocks {
		if b.BlockedID == userID {
			ids = append(ids, b.BlockerID)
		}
	}
	return ids, nil
}

func (s *Store) IsBlockedEither(ctx context.Context, a, b string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ab := s.blocks[pairKey(a, b)]
	_, ba := s.blocks[pairKey(b, a)]
	return ab || ba, nil
}

func (s *Store) CreateBlock(ctx context.Context, blockerID, blockedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(blockerID, blockedID)
	if _, ok := s.blocks[key]; !ok {
		s.blocks[key] = &domain.UserBlock{
			ID:        uuid.NewString(),
			BlockerID: blockerID,
			BlockedID: blockedID,
			CreatedAt: time.Now().UTC(),
		}
	}
	// Блокировка разрывает связи в обе стороны.
	delete(s.connections, pairKey(blockerID, blockedID))
	delete(s.connections, pairKey(blockedID, blockerID))
	return nil
}

func (s *Store) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blocks, pairKey(blockerID, blockedID))
	return nil
}

// === Reaction Methods ===

func (s *Store) ReactionsByPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]string)
	for _, postID := range postIDs {
		if r, ok := s.reactions[pairKey(userID, postID)]; ok {
			result[postID] = r.ReactionType
		}
	}
	return result, nil
}

func (s *Store) UpsertReaction(ctx context.Context, userID, postID, reactionType string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(userID, postID)
	if r, ok := s.reactions[key]; ok {
		r.ReactionType = reactionType
		return false, nil
	}
	s.reactions[key] = &domain.Reaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		TargetType:   "post",
		TargetID:     postID,
		ReactionType: reactionType,
		CreatedAt:    time.Now().UTC(),
	}
	if post, ok := s.posts[postID]; ok {
		post.LikeCount++
	}
	return true, nil
}

func (s *Store) DeleteReaction(ctx context.Context, userID, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(userID, postID)
	if _, ok := s.reactions[key]; !ok {
		return false, nil
	}
	delete(s.reactions, key)
	if post, ok := s.posts[postID]; ok && post.LikeCount > 0 {
		post.LikeCount--
	}
	return true, nil
}

// copyOf разделяет каноническую запись под мьютексом и то, что видят
// вызывающие: наружу и внутрь карт идут только копии.
func copyOf[T any](v *T) *T {
	cp := *v
	return &cp
}
