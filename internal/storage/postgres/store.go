package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Julianb233/better-together-live-sub001/internal/domain"
	"github.com/Julianb233/better-together-live-sub001/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store реализует интерфейс Storage с использованием PostgreSQL.
type Store struct {
	db *gorm.DB
}

// New создает новый экземпляр хранилища PostgreSQL.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Выполняем миграцию схемы
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Community{},
		&domain.CommunityMember{},
		&domain.Connection{},
		&domain.UserBlock{},
		&domain.Reaction{},
		&domain.Post{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB оборачивает готовое соединение; используется тестами.
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}

// === Feed Methods ===

// FeedCandidates переводит предикат видимости в условия SQL.
// Весь перевод собран здесь, чтобы формирование запроса не расползалось
// по обработчикам и не превращалось в конкатенацию строк.
func (s *Store) FeedCandidates(ctx context.Context, scope storage.FeedScope, limit int) ([]*domain.Post, error) {
	q := s.db.WithContext(ctx).Model(&domain.Post{}).Where("deleted_at IS NULL")

	switch scope.Kind {
	case storage.FeedHome:
		q = s.applyHomeScope(q, scope)
	case storage.FeedTrending:
		q = q.Where("visibility = ?", domain.VisibilityPublic)
		if !scope.Since.IsZero() {
			q = q.Where("created_at >= ?", scope.Since)
		}
	case storage.FeedCommunity:
		q = q.Where("community_id = ?", scope.CommunityID)
	case storage.FeedProfile:
		q = q.Where("author_id = ?", scope.AuthorID)
		if scope.Visibilities != nil {
			q = q.Where("visibility IN ?", scope.Visibilities)
		}
	default:
		return nil, fmt.Errorf("unknown feed kind %q", scope.Kind)
	}

	if len(scope.ExcludeAuthors) > 0 {
		q = q.Where("author_id NOT IN ?", scope.ExcludeAuthors)
	}

	var posts []*domain.Post
	err := q.Order("created_at DESC").Limit(limit).Find(&posts).Error
	return posts, err
}

func (s *Store) applyHomeScope(q *gorm.DB, scope storage.FeedScope) *gorm.DB {
	memberCommunities := s.db.Model(&domain.CommunityMember{}).
		Select("community_id").
		Where("user_id = ? AND status = ?", scope.ViewerID, domain.MemberActive)
	acceptedFollowing := s.db.Model(&domain.Connection{}).
		Select("following_id").
		Where("follower_id = ? AND status = ?", scope.ViewerID, domain.ConnectionAccepted)

	switch scope.Filter {
	case storage.FilterCommunities:
		// Только посты сообществ зрителя. Видимость сужается до
		// public|community: чужим private-постам в ленте не место.
		return q.Where("community_id IN (?)", memberCommunities).
			Where("visibility IN ?", []domain.Visibility{domain.VisibilityPublic, domain.VisibilityCommunity})
	case storage.FilterConnections:
		return q.Where("(author_id IN (?) OR author_id = ?)", acceptedFollowing, scope.ViewerID).
			Where("visibility IN ?", []domain.Visibility{domain.VisibilityPublic, domain.VisibilityConnections})
	default:
		return q.Where(
			s.db.Where("author_id = ?", scope.ViewerID).
				Or("visibility = ?", domain.VisibilityPublic).
				Or("visibility = ? AND community_id IN (?)", domain.VisibilityCommunity, memberCommunities).
				Or("visibility = ? AND author_id IN (?)", domain.VisibilityConnections, acceptedFollowing),
		)
	}
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	// Пост в сообщество требует активного членства; проверка и вставка
	// в одной транзакции.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if post.CommunityID != nil {
			var member domain.CommunityMember
			err := tx.First(&member, "community_id = ? AND user_id = ?", *post.CommunityID, post.AuthorID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && member.Status != domain.MemberActive) {
				return storage.ErrNotMember
			}
			if err != nil {
				return err
			}
			if err := tx.Model(&domain.Community{}).Where("id = ?", *post.CommunityID).
				UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error; err != nil {
				return err
			}
		}
		return tx.Create(post).Error
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ? AND deleted_at IS NULL", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &post, nil
}

func (s *Store) UpdatePost(ctx context.Context, post *domain.Post) error {
	return s.db.WithContext(ctx).Save(post).Error
}

func (s *Store) SoftDeletePost(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post domain.Post
		if err := tx.First(&post, "id = ? AND deleted_at IS NULL", id).Error; err != nil {
			return wrapNotFound(err)
		}
		if err := tx.Model(&domain.Post{}).Where("id = ?", id).
			UpdateColumn("deleted_at", gorm.Expr("now()")).Error; err != nil {
			return err
		}
		if post.CommunityID != nil {
			return tx.Model(&domain.Community{}).Where("id = ?", *post.CommunityID).
				UpdateColumn("post_count", gorm.Expr("GREATEST(post_count - 1, 0)")).Error
		}
		return nil
	})
}

func (s *Store) IncrementShareCount(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&domain.Post{}).Where("id = ?", id).
		UpdateColumn("share_count", gorm.Expr("share_count + 1")).Error
}

// === User / Community Methods ===

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	var users []*domain.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	result := make(map[string]*domain.User, len(users))
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) GetCommunityByID(ctx context.Context, id string) (*domain.Community, error) {
	var community domain.Community
	if err := s.db.WithContext(ctx).First(&community, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &community, nil
}

func (s *Store) GetCommunitiesByIDs(ctx context.Context, ids []string) (map[string]*domain.Community, error) {
	var communities []*domain.Community
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&communities).Error; err != nil {
		return nil, err
	}
	result := make(map[string]*domain.Community, len(communities))
	for _, c := range communities {
		result[c.ID] = c
	}
	return result, nil
}

func (s *Store) CreateCommunity(ctx context.Context, community *domain.Community) (*domain.Community, error) {
	if err := s.db.WithContext(ctx).Create(community).Error; err != nil {
		return nil, err
	}
	return community, nil
}

// === Membership Methods ===

func (s *Store) GetMembership(ctx context.Context, communityID, userID string) (*domain.CommunityMember, error) {
	var member domain.CommunityMember
	err := s.db.WithContext(ctx).First(&member, "community_id = ? AND user_id = ?", communityID, userID).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &member, nil
}

func (s *Store) UpsertMembership(ctx context.Context, member *domain.CommunityMember) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.CommunityMember
		err := tx.First(&existing, "community_id = ? AND user_id = ?", member.CommunityID, member.UserID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(member).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.Model(&domain.CommunityMember{}).
				Where("community_id = ? AND user_id = ?", member.CommunityID, member.UserID).
				Updates(map[string]interface{}{"role": member.Role, "status": member.Status}).Error; err != nil {
				return err
			}
		}
		// member_count отражает только активные членства.
		return tx.Model(&domain.Community{}).Where("id = ?", member.CommunityID).
			UpdateColumn("member_count", tx.Model(&domain.CommunityMember{}).
				Select("COUNT(*)").
				Where("community_id = ? AND status = ?", member.CommunityID, domain.MemberActive)).Error
	})
}

// === Connection Methods ===

func (s *Store) HasAcceptedConnection(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Connection{}).
		Where("follower_id = ? AND following_id = ? AND status = ?", followerID, followingID, domain.ConnectionAccepted).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) CreateConnection(ctx context.Context, conn *domain.Connection) (*domain.Connection, error) {
	if err := s.db.WithContext(ctx).Create(conn).Error; err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *Store) AcceptConnection(ctx context.Context, followerID, followingID string) error {
	res := s.db.WithContext(ctx).Model(&domain.Connection{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Update("status", domain.ConnectionAccepted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// === Block Methods ===

func (s *Store) BlockedUserIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&domain.UserBlock{}).
		Where("blocker_id = ?", userID).
		Pluck("blocked_id", &ids).Error
	return ids, err
}

func (s *Store) BlockerUserIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&domain.UserBlock{}).
		Where("blocked_id = ?", userID).
		Pluck("blocker_id", &ids).Error
	return ids, err
}

func (s *Store) IsBlockedEither(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) CreateBlock(ctx context.Context, blockerID, blockedID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.UserBlock{}).
			Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := tx.Create(&domain.UserBlock{BlockerID: blockerID, BlockedID: blockedID}).Error; err != nil {
				return err
			}
		}
		// Блокировка разрывает связи в обе стороны.
		return tx.Where("(follower_id = ? AND following_id = ?) OR (follower_id = ? AND following_id = ?)",
			blockerID, blockedID, blockedID, blockerID).
			Delete(&domain.Connection{}).Error
	})
}

func (s *Store) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	return s.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&domain.UserBlock{}).Error
}

// === Reaction Methods ===

func (s *Store) ReactionsByPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]string, error) {
	var reactions []*domain.Reaction
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id IN ?", userID, "post", postIDs).
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(reactions))
	for _, r := range reactions {
		result[r.TargetID] = r.ReactionType
	}
	return result, nil
}

func (s *Store) UpsertReaction(ctx context.Context, userID, postID, reactionType string) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Reaction
		err := tx.First(&existing, "user_id = ? AND target_type = ? AND target_id = ?", userID, "post", postID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			if err := tx.Create(&domain.Reaction{
				UserID:       userID,
				TargetType:   "post",
				TargetID:     postID,
				ReactionType: reactionType,
			}).Error; err != nil {
				return err
			}
			// Счетчик инкрементируется атомарно, чтобы параллельные
			// реакции не теряли обновления.
			return tx.Model(&domain.Post{}).Where("id = ?", postID).
				UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
		case err != nil:
			return err
		default:
			// Смена типа реакции счетчик не трогает.
			return tx.Model(&domain.Reaction{}).Where("id = ?", existing.ID).
				Update("reaction_type", reactionType).Error
		}
	})
	return created, err
}

func (s *Store) DeleteReaction(ctx context.Context, userID, postID string) (bool, error) {
	existed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND target_type = ? AND target_id = ?", userID, "post", postID).
			Delete(&domain.Reaction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		existed = true
		return tx.Model(&domain.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("GREATEST(like_count - 1, 0)")).Error
	})
	return existed, err
}
