package feed

import (
	"context"
	"errors"
	"time"

	"github.com/Julianb233/better-together-live-sub001/internal/dataloader"
	"github.com/Julianb233/better-together-live-sub001/internal/domain"
	gjson "github.com/goccy/go-json"
	gdataloader "github.com/graph-gophers/dataloader"
)

// PostView — внешняя форма поста.
type PostView struct {
	ID                  string    `json:"id"`
	AuthorID            string    `json:"authorId"`
	AuthorName          string    `json:"authorName"`
	AuthorPhoto         *string   `json:"authorPhoto"`
	RelationshipID      *string   `json:"relationshipId,omitempty"`
	CommunityID         *string   `json:"communityId,omitempty"`
	CommunityName       *string   `json:"communityName,omitempty"`
	CommunitySlug       *string   `json:"communitySlug,omitempty"`
	ContentType         string    `json:"contentType"`
	Content             string    `json:"content"`
	MediaURLs           []string  `json:"mediaUrls"`
	LinkedActivityID    *string   `json:"linkedActivityId,omitempty"`
	LinkedChallengeID   *string   `json:"linkedChallengeId,omitempty"`
	LinkedAchievementID *string   `json:"linkedAchievementId,omitempty"`
	Visibility          string    `json:"visibility"`
	IsPinned            bool      `json:"isPinned"`
	IsFeatured          bool      `json:"isFeatured"`
	LikeCount           int       `json:"likeCount"`
	CommentCount        int       `json:"commentCount"`
	ShareCount          int       `json:"shareCount"`
	UserReaction        *string   `json:"userReaction"`
	TrendingScore       *float64  `json:"trendingScore,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// ErrNoLoaders возвращается, когда в контексте нет дата-лоадеров.
var ErrNoLoaders = errors.New("dataloaders are not attached to context")

// ParseMediaURLs разбирает сериализованный список media-URL. Пустое или
// некорректное значение деградирует к пустому списку, а не к ошибке.
func ParseMediaURLs(raw *string) []string {
	if raw == nil || *raw == "" {
		return []string{}
	}
	var urls []string
	if err := gjson.Unmarshal([]byte(*raw), &urls); err != nil {
		return []string{}
	}
	if urls == nil {
		return []string{}
	}
	return urls
}

// ProjectPosts превращает страницу постов в PostView-записи, дозагружая
// автора, сообщество и реакцию зрителя через батч-лоадеры: сначала
// создаются все санки, затем они разрешаются — так страница стоит
// постоянного числа запросов к хранилищу.
func ProjectPosts(ctx context.Context, posts []*domain.Post, viewerID string) ([]*PostView, error) {
	loaders := dataloader.For(ctx)
	if loaders == nil {
		return nil, ErrNoLoaders
	}

	type thunks struct {
		author    gdataloader.Thunk
		community gdataloader.Thunk
		reaction  gdataloader.Thunk
	}

	pending := make([]thunks, len(posts))
	for i, p := range posts {
		pending[i].author = loaders.UserByID.Load(ctx, gdataloader.StringKey(p.AuthorID))
		if p.CommunityID != nil {
			pending[i].community = loaders.CommunityByID.Load(ctx, gdataloader.StringKey(*p.CommunityID))
		}
		if viewerID != "" {
			key := dataloader.ReactionKey(viewerID, p.ID)
			pending[i].reaction = loaders.ReactionByKey.Load(ctx, gdataloader.StringKey(key))
		}
	}

	views := make([]*PostView, len(posts))
	for i, p := range posts {
		view := &PostView{
			ID:                  p.ID,
			AuthorID:            p.AuthorID,
			RelationshipID:      p.RelationshipID,
			CommunityID:         p.CommunityID,
			ContentType:         string(p.ContentType),
			Content:             p.Content,
			MediaURLs:           ParseMediaURLs(p.MediaURLs),
			LinkedActivityID:    p.LinkedActivityID,
			LinkedChallengeID:   p.LinkedChallengeID,
			LinkedAchievementID: p.LinkedAchievementID,
			Visibility:          string(p.Visibility),
			IsPinned:            p.IsPinned,
			IsFeatured:          p.IsFeatured,
			LikeCount:           p.LikeCount,
			CommentCount:        p.CommentCount,
			ShareCount:          p.ShareCount,
			CreatedAt:           p.CreatedAt,
			UpdatedAt:           p.UpdatedAt,
		}

		data, err := pending[i].author()
		if err != nil {
			return nil, err
		}
		// Автор может отсутствовать (удаленный аккаунт) — это не ошибка.
		if author, ok := data.(*domain.User); ok && author != nil {
			view.AuthorName = author.Name
			view.AuthorPhoto = author.ProfilePhotoURL
		}

		if pending[i].community != nil {
			data, err := pending[i].community()
			if err != nil {
				return nil, err
			}
			if community, ok := data.(*domain.Community); ok && community != nil {
				view.CommunityName = &community.Name
				view.CommunitySlug = &community.Slug
			}
		}

		if pending[i].reaction != nil {
			data, err := pending[i].reaction()
			if err != nil {
				return nil, err
			}
			if rt, ok := data.(string); ok && rt != "" {
				view.UserReaction = &rt
			}
		}

		views[i] = view
	}
	return views, nil
}
