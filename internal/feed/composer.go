package feed

import (
	"context"
	"errors"
	"time"

	"github.com/Julianb233/better-together-live-sub001/internal/apperr"
	"github.com/Julianb233/better-together-live-sub001/internal/domain"
	"github.com/Julianb233/better-together-live-sub001/internal/storage"
)

// Options ограничивают пагинацию и окно кандидатов композитора.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	// CandidateWindow — сколько новейших постов загружается из хранилища
	// для лент, ранжируемых не по времени. Страницы глубже окна пусты;
	// это осознанный компромисс в пользу одного ограниченного чтения
	// на запрос.
	CandidateWindow int
}

// Page — страница ленты.
// HasMore — эвристика «строк вернулось ровно limit»: она ошибочно
// истинна, когда последняя страница заполнена точно до конца.
type Page struct {
	Posts   []*PostView
	Page    int
	Limit   int
	HasMore bool
}

// Composer собирает ленты: проверяет параметры, строит предикат
// видимости, исключает заблокированных авторов, ранжирует и нарезает
// страницы. Состояния между запросами не держит.
type Composer struct {
	store  storage.Storage
	blocks *BlockRegistry
	opts   Options
	now    func() time.Time
}

func NewComposer(store storage.Storage, blocks *BlockRegistry, opts Options) *Composer {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = 20
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = opts.DefaultPageSize
	}
	if opts.CandidateWindow < opts.MaxPageSize {
		opts.CandidateWindow = opts.MaxPageSize * 5
	}
	return &Composer{
		store:  store,
		blocks: blocks,
		opts:   opts,
		now:    time.Now,
	}
}

// Home — персональная лента, engagement-recency порядок.
func (c *Composer) Home(ctx context.Context, viewerID string, filter storage.HomeFilter, page, limit int) (*Page, error) {
	if viewerID == "" {
		return nil, apperr.InvalidArgument("user id required")
	}
	page, limit = c.normalize(page, limit)

	exclude, err := c.blocks.BlockedAuthors(ctx, viewerID)
	if err != nil {
		return nil, apperr.Unavailable("failed to get feed", err)
	}

	scope := HomeScope(viewerID, filter, exclude)
	posts, hasMore, err := c.candidates(ctx, scope, OrderEngagement, page, limit)
	if err != nil {
		return nil, err
	}
	return c.page(ctx, posts, viewerID, page, limit, hasMore)
}

// Trending — глобальная трендовая лента: только публичные посты внутри
// временного окна, к каждому посту прикладывается trendingScore.
func (c *Composer) Trending(ctx context.Context, viewerID string, timeframe Timeframe, page, limit int) (*Page, error) {
	page, limit = c.normalize(page, limit)
	now := c.now()

	exclude, err := c.blocks.BlockedAuthors(ctx, viewerID)
	if err != nil {
		return nil, apperr.Unavailable("failed to get trending feed", err)
	}

	scope := TrendingScope(viewerID, timeframe.Cutoff(now), exclude)
	posts, hasMore, err := c.candidates(ctx, scope, OrderTrending, page, limit)
	if err != nil {
		return nil, err
	}

	result, err := c.page(ctx, posts, viewerID, page, limit, hasMore)
	if err != nil {
		return nil, err
	}
	for i, p := range posts {
		score := TrendingScore(p, now)
		result.Posts[i].TrendingScore = &score
	}
	return result, nil
}

// Community — лента сообщества. Вход в непубличное сообщество требует
// активного членства; внутри ленты видимость постов не фильтруется.
func (c *Composer) Community(ctx context.Context, communityID, viewerID string, pinnedFirst bool, page, limit int) (*Page, error) {
	page, limit = c.normalize(page, limit)

	community, err := c.store.GetCommunityByID(ctx, communityID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("community not found")
		}
		return nil, apperr.Unavailable("failed to get community feed", err)
	}

	if community.PrivacyLevel != domain.PrivacyPublic {
		if viewerID == "" {
			return nil, apperr.AccessDenied("access denied")
		}
		member, err := c.store.GetMembership(ctx, communityID, viewerID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, apperr.AccessDenied("access denied - not a member")
			}
			return nil, apperr.Unavailable("failed to get community feed", err)
		}
		if member.Status != domain.MemberActive {
			return nil, apperr.AccessDenied("access denied - not a member")
		}
	}

	exclude, err := c.blocks.BlockedAuthors(ctx, viewerID)
	if err != nil {
		return nil, apperr.Unavailable("failed to get community feed", err)
	}

	order := OrderRecency
	if pinnedFirst {
		order = OrderPinnedFirst
	}
	scope := CommunityScope(viewerID, communityID, exclude)
	posts, hasMore, err := c.candidates(ctx, scope, order, page, limit)
	if err != nil {
		return nil, err
	}
	return c.page(ctx, posts, viewerID, page, limit, hasMore)
}

// Profile — лента профиля, только убывание created_at. Блокировка в
// любую сторону между зрителем и владельцем профиля закрывает доступ.
func (c *Composer) Profile(ctx context.Context, targetID, viewerID string, page, limit int) (*Page, *domain.User, error) {
	page, limit = c.normalize(page, limit)

	target, err := c.store.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, apperr.NotFound("user not found")
		}
		return nil, nil, apperr.Unavailable("failed to get user feed", err)
	}

	connected := false
	if viewerID != "" && viewerID != targetID {
		blocked, err := c.store.IsBlockedEither(ctx, viewerID, targetID)
		if err != nil {
			return nil, nil, apperr.Unavailable("failed to get user feed", err)
		}
		if blocked {
			return nil, nil, apperr.AccessDenied("access denied")
		}
		connected, err = c.store.HasAcceptedConnection(ctx, viewerID, targetID)
		if err != nil {
			return nil, nil, apperr.Unavailable("failed to get user feed", err)
		}
	}

	scope := ProfileScope(viewerID, targetID, connected)
	posts, hasMore, err := c.candidates(ctx, scope, OrderRecency, page, limit)
	if err != nil {
		return nil, nil, err
	}
	result, err := c.page(ctx, posts, viewerID, page, limit, hasMore)
	if err != nil {
		return nil, nil, err
	}
	return result, target, nil
}

// Post возвращает одиночный пост с проверкой видимости на уровне поста.
// Блокировка в любую сторону скрывает сам факт существования поста.
func (c *Composer) Post(ctx context.Context, postID, viewerID string) (*PostView, error) {
	post, err := c.store.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, apperr.Unavailable("failed to get post", err)
	}

	if err := c.authorizePost(ctx, post, viewerID); err != nil {
		return nil, err
	}

	views, err := ProjectPosts(ctx, []*domain.Post{post}, viewerID)
	if err != nil {
		return nil, apperr.Unavailable("failed to get post", err)
	}
	return views[0], nil
}

func (c *Composer) authorizePost(ctx context.Context, post *domain.Post, viewerID string) error {
	if viewerID == post.AuthorID && viewerID != "" {
		return nil
	}
	if viewerID == "" {
		if post.Visibility != domain.VisibilityPublic {
			return apperr.AccessDenied("access denied")
		}
		return nil
	}

	blocked, err := c.store.IsBlockedEither(ctx, viewerID, post.AuthorID)
	if err != nil {
		return apperr.Unavailable("failed to get post", err)
	}
	if blocked {
		return apperr.NotFound("post not found")
	}

	switch post.Visibility {
	case domain.VisibilityPublic:
		return nil
	case domain.VisibilityPrivate:
		return apperr.AccessDenied("access denied")
	case domain.VisibilityCommunity:
		if post.CommunityID == nil {
			return apperr.AccessDenied("access denied")
		}
		member, err := c.store.GetMembership(ctx, *post.CommunityID, viewerID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return apperr.AccessDenied("access denied")
			}
			return apperr.Unavailable("failed to get post", err)
		}
		if member.Status != domain.MemberActive {
			return apperr.AccessDenied("access denied")
		}
		return nil
	case domain.VisibilityConnections:
		connected, err := c.store.HasAcceptedConnection(ctx, viewerID, post.AuthorID)
		if err != nil {
			return apperr.Unavailable("failed to get post", err)
		}
		if !connected {
			return apperr.AccessDenied("access denied")
		}
		return nil
	default:
		return apperr.AccessDenied("access denied")
	}
}

// normalize приводит пагинацию к допустимым границам.
func (c *Composer) normalize(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = c.opts.DefaultPageSize
	}
	if limit > c.opts.MaxPageSize {
		limit = c.opts.MaxPageSize
	}
	return page, limit
}

// candidates загружает кандидатов из хранилища, ранжирует и нарезает
// страницу. Для лент по времени окно чтения равно offset+limit и выдача
// точна на любой глубине; для ранжируемых лент чтение ограничено окном
// кандидатов (закрепленный пост может быть сколь угодно старым, поэтому
// порядок created_at из хранилища недостаточен).
func (c *Composer) candidates(ctx context.Context, scope storage.FeedScope, order Order, page, limit int) ([]*domain.Post, bool, error) {
	offset := (page - 1) * limit
	fetchLimit := offset + limit
	if order != OrderRecency && fetchLimit < c.opts.CandidateWindow {
		fetchLimit = c.opts.CandidateWindow
	}

	posts, err := c.store.FeedCandidates(ctx, scope, fetchLimit)
	if err != nil {
		return nil, false, apperr.Unavailable("failed to read feed", err)
	}

	Sort(posts, order, c.now())

	if offset >= len(posts) {
		return []*domain.Post{}, false, nil
	}
	end := offset + limit
	if end > len(posts) {
		end = len(posts)
	}
	pagePosts := posts[offset:end]
	return pagePosts, len(pagePosts) == limit, nil
}

func (c *Composer) page(ctx context.Context, posts []*domain.Post, viewerID string, page, limit int, hasMore bool) (*Page, error) {
	views, err := ProjectPosts(ctx, posts, viewerID)
	if err != nil {
		return nil, apperr.Unavailable("failed to project posts", err)
	}
	return &Page{Posts: views, Page: page, Limit: limit, HasMore: hasMore}, nil
}
