package storage

import (
	"context"
	"time"

	"github.com/Julianb233/better-together-live-sub001/internal/domain"
)

// FeedKind различает четыре вида лент.
type FeedKind string

const (
	FeedHome      FeedKind = "home"
	FeedTrending  FeedKind = "trending"
	FeedCommunity FeedKind = "community"
	FeedProfile   FeedKind = "profile"
)

// HomeFilter сужает домашнюю ленту.
type HomeFilter string

const (
	FilterAll         HomeFilter = "all"
	FilterCommunities HomeFilter = "communities"
	FilterConnections HomeFilter = "connections"
)

// FeedScope — предикат видимости как объект-значение. Резолвер видимости
// собирает его, а каждое хранилище переводит в собственный язык выборки:
// postgres — в условия SQL, inmemory — в проверку на Go.
// Удаленные посты исключаются всегда, независимо от остальных полей.
type FeedScope struct {
	Kind     FeedKind
	ViewerID string // пустая строка = аноним

	// Только для FeedHome.
	Filter HomeFilter

	// Только для FeedCommunity.
	CommunityID string

	// Только для FeedProfile: автор и допустимый набор видимостей.
	// nil означает «все» (просмотр собственного профиля).
	AuthorID     string
	Visibilities []domain.Visibility

	// Только для FeedTrending: нижняя граница created_at.
	Since time.Time

	// Авторы, исключенные по блокировкам.
	ExcludeAuthors []string
}

// Storage определяет контракт для хранилищ.
type Storage interface {
	// === Лента ===

	// FeedCandidates возвращает не более limit неудаленных постов,
	// удовлетворяющих предикату, в порядке убывания created_at.
	FeedCandidates(ctx context.Context, scope FeedScope, limit int) ([]*domain.Post, error)

	// === Посты ===

	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	// GetPostByID возвращает только неудаленные посты.
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	UpdatePost(ctx context.Context, post *domain.Post) error
	SoftDeletePost(ctx context.Context, id string) error
	// IncrementShareCount выполняет атомарный share_count = share_count + 1.
	IncrementShareCount(ctx context.Context, id string) error

	// === Пользователи и сообщества ===

	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetCommunityByID(ctx context.Context, id string) (*domain.Community, error)
	GetCommunitiesByIDs(ctx context.Context, ids []string) (map[string]*domain.Community, error)
	CreateCommunity(ctx context.Context, community *domain.Community) (*domain.Community, error)

	// === Членство ===

	GetMembership(ctx context.Context, communityID, userID string) (*domain.CommunityMember, error)
	UpsertMembership(ctx context.Context, member *domain.CommunityMember) error

	// === Связи ===

	HasAcceptedConnection(ctx context.Context, followerID, followingID string) (bool, error)
	CreateConnection(ctx context.Context, conn *domain.Connection) (*domain.Connection, error)
	AcceptConnection(ctx context.Context, followerID, followingID string) error

	// === Блокировки ===

	// BlockedUserIDs: кого заблокировал userID.
	BlockedUserIDs(ctx context.Context, userID string) ([]string, error)
	// BlockerUserIDs: кто заблокировал userID.
	BlockerUserIDs(ctx context.Context, userID string) ([]string, error)
	IsBlockedEither(ctx context.Context, a, b string) (bool, error)
	// CreateBlock также удаляет связи между парой в обе стороны.
	CreateBlock(ctx context.Context, blockerID, blockedID string) error
	DeleteBlock(ctx context.Context, blockerID, blockedID string) error

	// === Реакции ===

	// ReactionsByPostIDs возвращает тип реакции зрителя по каждому посту,
	// где она есть. Один запрос на пачку — метод для дата-лоадера.
	ReactionsByPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]string, error)
	// UpsertReaction возвращает true, если реакция была создана,
	// false — если обновлен тип существующей.
	UpsertReaction(ctx context.Context, userID, postID, reactionType string) (bool, error)
	// DeleteReaction возвращает true, если реакция существовала.
	DeleteReaction(ctx context.Context, userID, postID string) (bool, error)
}
