package feed

import (
	"math"
	"sort"
	"time"

	"github.com/Julianb233/better-together-live-sub001/internal/domain"
)

// Веса и законы затухания двух формул ранжирования. Домашняя лента
// поддерживает отношения: комментарии весят больше лайков, закрепление и
// продвижение дают фиксированный бонус. Трендовая лента — поверхность
// открытия: сильнее всего весят репосты, затухание круче, бонусов нет.
const (
	homeLikeWeight    = 1.0
	homeCommentWeight = 2.0
	homeShareWeight   = 3.0
	pinnedBonus       = 100.0
	featuredBonus     = 50.0
	// Сдвиг +2 удерживает знаменатель от нуля на свежих постах и
	// сглаживает всплеск первых минут.
	homeDecayOffset = 2.0
	homeDecayExp    = 1.5

	trendingLikeWeight    = 1.0
	trendingCommentWeight = 3.0
	trendingShareWeight   = 5.0
	trendingDecayExp      = 1.8
)

// hoursSince возвращает возраст поста в часах, не меньше нуля.
func hoursSince(createdAt, now time.Time) float64 {
	h := now.Sub(createdAt).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// EngagementScore — формула домашней и community-ленты:
// (1·likes + 2·comments + 3·shares + 100·pinned + 50·featured) / (h+2)^1.5.
func EngagementScore(p *domain.Post, now time.Time) float64 {
	score := float64(p.LikeCount)*homeLikeWeight +
		float64(p.CommentCount)*homeCommentWeight +
		float64(p.ShareCount)*homeShareWeight
	if p.IsPinned {
		score += pinnedBonus
	}
	if p.IsFeatured {
		score += featuredBonus
	}
	return score / math.Pow(hoursSince(p.CreatedAt, now)+homeDecayOffset, homeDecayExp)
}

// TrendingScore — формула трендовой ленты:
// (1·likes + 3·comments + 5·shares) / max(h, 1)^1.8.
func TrendingScore(p *domain.Post, now time.Time) float64 {
	score := float64(p.LikeCount)*trendingLikeWeight +
		float64(p.CommentCount)*trendingCommentWeight +
		float64(p.ShareCount)*trendingShareWeight
	return score / math.Pow(math.Max(hoursSince(p.CreatedAt, now), 1), trendingDecayExp)
}

// Order задает порядок сортировки ленты.
type Order int

const (
	// OrderRecency — убывание created_at (профиль, сообщество).
	OrderRecency Order = iota
	// OrderEngagement — убывание EngagementScore (домашняя лента).
	OrderEngagement
	// OrderTrending — убывание TrendingScore (трендовая лента).
	OrderTrending
	// OrderPinnedFirst — закрепленные раньше остальных, внутри групп
	// убывание created_at (лента сообщества с pinnedFirst).
	OrderPinnedFirst
)

// Sort упорядочивает посты на месте. Тай-брейк везде один: убывание
// created_at. Момент now фиксируется на запрос, чтобы порядок был
// стабилен в пределах одной выдачи.
func Sort(posts []*domain.Post, order Order, now time.Time) {
	switch order {
	case OrderEngagement:
		sortByScore(posts, func(p *domain.Post) float64 { return EngagementScore(p, now) })
	case OrderTrending:
		sortByScore(posts, func(p *domain.Post) float64 { return TrendingScore(p, now) })
	case OrderPinnedFirst:
		sort.SliceStable(posts, func(i, j int) bool {
			if posts[i].IsPinned != posts[j].IsPinned {
				return posts[i].IsPinned
			}
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	default:
		sort.SliceStable(posts, func(i, j int) bool {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		})
	}
}

func sortByScore(posts []*domain.Post, score func(*domain.Post) float64) {
	scores := make(map[*domain.Post]float64, len(posts))
	for _, p := range posts {
		scores[p] = score(p)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		si, sj := scores[posts[i]], scores[posts[j]]
		if si != sj {
			return si > sj
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
