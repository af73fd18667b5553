package domain

import "time"

// Visibility определяет класс аудитории поста.
type Visibility string

const (
	VisibilityPublic      Visibility = "public"
	VisibilityCommunity   Visibility = "community"
	VisibilityConnections Visibility = "connections"
	VisibilityPrivate     Visibility = "private"
)

// ValidVisibility проверяет, что значение входит в допустимый набор.
func ValidVisibility(v Visibility) bool {
	switch v {
	case VisibilityPublic, VisibilityCommunity, VisibilityConnections, VisibilityPrivate:
		return true
	}
	return false
}

// ContentType определяет тип содержимого поста.
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
	ContentTypeVideo ContentType = "video"
	ContentTypeLink  ContentType = "link"
)

// PrivacyLevel определяет уровень приватности сообщества.
type PrivacyLevel string

const (
	PrivacyPublic     PrivacyLevel = "public"
	PrivacyPrivate    PrivacyLevel = "private"
	PrivacyInviteOnly PrivacyLevel = "invite_only"
)

// MemberRole определяет роль участника сообщества.
type MemberRole string

const (
	RoleOwner     MemberRole = "owner"
	RoleAdmin     MemberRole = "admin"
	RoleModerator MemberRole = "moderator"
	RoleMember    MemberRole = "member"
)

// CanModerate сообщает, позволяет ли роль удалять чужие посты сообщества.
func (r MemberRole) CanModerate() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleModerator
}

// MemberStatus определяет состояние членства в сообществе.
type MemberStatus string

const (
	MemberActive MemberStatus = "active"
	MemberBanned MemberStatus = "banned"
	MemberLeft   MemberStatus = "left"
)

// ConnectionStatus определяет состояние связи между пользователями.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
)

// User представляет пользователя (автора постов).
type User struct {
	ID              string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name            string    `json:"name" gorm:"type:varchar(255);not null"`
	ProfilePhotoURL *string   `json:"profilePhotoUrl,omitempty" gorm:"type:text"`
	CreatedAt       time.Time `json:"createdAt" gorm:"not null;default:now()"`
}

// Community представляет сообщество.
type Community struct {
	ID           string       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name         string       `json:"name" gorm:"type:varchar(255);not null"`
	Slug         string       `json:"slug" gorm:"type:varchar(255);not null;uniqueIndex"`
	PrivacyLevel PrivacyLevel `json:"privacyLevel" gorm:"type:varchar(32);not null;default:'public'"`
	MemberCount  int          `json:"memberCount" gorm:"not null;default:0"`
	PostCount    int          `json:"postCount" gorm:"not null;default:0"`
	CreatedAt    time.Time    `json:"createdAt" gorm:"not null;default:now()"`
	UpdatedAt    time.Time    `json:"updatedAt" gorm:"not null;default:now()"`
}

// CommunityMember представляет членство пользователя в сообществе.
// Доступ к community-постам дает только статус active.
type CommunityMember struct {
	CommunityID string       `json:"communityId" gorm:"type:uuid;primaryKey"`
	UserID      string       `json:"userId" gorm:"type:uuid;primaryKey"`
	Role        MemberRole   `json:"role" gorm:"type:varchar(32);not null;default:'member'"`
	Status      MemberStatus `json:"status" gorm:"type:varchar(32);not null;default:'active'"`
	CreatedAt   time.Time    `json:"createdAt" gorm:"not null;default:now()"`
}

// Connection представляет направленную связь follower -> following.
// Доступ к connections-постам дает только статус accepted, причем
// ребро должно идти от зрителя к автору.
type Connection struct {
	ID          string           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	FollowerID  string           `json:"followerId" gorm:"type:uuid;not null;index:idx_connection_pair,unique"`
	FollowingID string           `json:"followingId" gorm:"type:uuid;not null;index:idx_connection_pair,unique"`
	Status      ConnectionStatus `json:"status" gorm:"type:varchar(32);not null;default:'pending'"`
	CreatedAt   time.Time        `json:"createdAt" gorm:"not null;default:now()"`
	UpdatedAt   time.Time        `json:"updatedAt" gorm:"not null;default:now()"`
}

// UserBlock представляет направленную блокировку blocker -> blocked.
type UserBlock struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BlockerID string    `json:"blockerId" gorm:"type:uuid;not null;index:idx_block_pair,unique"`
	BlockedID string    `json:"blockedId" gorm:"type:uuid;not null;index:idx_block_pair,unique"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;default:now()"`
}

// Reaction представляет реакцию пользователя на пост.
// На пару (user, target) допускается не более одной реакции.
type Reaction struct {
	ID           string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID       string    `json:"userId" gorm:"type:uuid;not null;index:idx_reaction_target,unique"`
	TargetType   string    `json:"targetType" gorm:"type:varchar(32);not null;index:idx_reaction_target,unique"`
	TargetID     string    `json:"targetId" gorm:"type:uuid;not null;index:idx_reaction_target,unique"`
	ReactionType string    `json:"reactionType" gorm:"type:varchar(32);not null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"not null;default:now()"`
}

// Post представляет пост. media_urls хранится сериализованным JSON-массивом;
// разбор выполняется только на этапе проекции, с деградацией к пустому списку.
type Post struct {
	ID                  string      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AuthorID            string      `json:"authorId" gorm:"type:uuid;not null;index"`
	RelationshipID      *string     `json:"relationshipId,omitempty" gorm:"type:uuid"`
	CommunityID         *string     `json:"communityId,omitempty" gorm:"type:uuid;index"`
	ContentType         ContentType `json:"contentType" gorm:"type:varchar(32);not null;default:'text'"`
	Content             string      `json:"content" gorm:"type:text"`
	MediaURLs           *string     `json:"-" gorm:"type:text"`
	LinkedActivityID    *string     `json:"linkedActivityId,omitempty" gorm:"type:uuid"`
	LinkedChallengeID   *string     `json:"linkedChallengeId,omitempty" gorm:"type:uuid"`
	LinkedAchievementID *string     `json:"linkedAchievementId,omitempty" gorm:"type:uuid"`
	Visibility          Visibility  `json:"visibility" gorm:"type:varchar(32);not null;index"`
	IsPinned            bool        `json:"isPinned" gorm:"not null;default:false"`
	IsFeatured          bool        `json:"isFeatured" gorm:"not null;default:false"`
	LikeCount           int         `json:"likeCount" gorm:"not null;default:0"`
	CommentCount        int         `json:"commentCount" gorm:"not null;default:0"`
	ShareCount          int         `json:"shareCount" gorm:"not null;default:0"`
	CreatedAt           time.Time   `json:"createdAt" gorm:"not null;default:now();index"`
	UpdatedAt           time.Time   `json:"updatedAt" gorm:"not null;default:now()"`
	DeletedAt           *time.Time  `json:"-" gorm:"index"`
}

// Deleted сообщает, помечен ли пост как удаленный.
func (p *Post) Deleted() bool {
	return p.DeletedAt != nil
}
