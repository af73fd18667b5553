// Package feed реализует движок видимости и ранжирования лент:
// резолвер видимости, реестр блокировок, формулы ранжирования,
// композитор лент и проекцию поста в выходную форму.
package feed

import (
	"time"

	"github.com/Julianb233/better-together-live-sub001/internal/domain"
	"github.com/Julianb233/better-together-live-sub001/internal/storage"
)

// Timeframe задает окно трендовой ленты.
type Timeframe string

const (
	Timeframe24h   Timeframe = "24h"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
)

// ParseTimeframe разбирает параметр запроса; незнакомые значения
// трактуются как 24h — так же вел себя исходный API.
func ParseTimeframe(s string) Timeframe {
	switch Timeframe(s) {
	case TimeframeWeek:
		return TimeframeWeek
	case TimeframeMonth:
		return TimeframeMonth
	default:
		return Timeframe24h
	}
}

// Cutoff возвращает нижнюю границу created_at для окна.
func (t Timeframe) Cutoff(now time.Time) time.Time {
	switch t {
	case TimeframeWeek:
		return now.Add(-7 * 24 * time.Hour)
	case TimeframeMonth:
		return now.Add(-30 * 24 * time.Hour)
	default:
		return now.Add(-24 * time.Hour)
	}
}

// ParseHomeFilter разбирает фильтр домашней ленты; незнакомые значения
// трактуются как all.
func ParseHomeFilter(s string) storage.HomeFilter {
	switch storage.HomeFilter(s) {
	case storage.FilterCommunities:
		return storage.FilterCommunities
	case storage.FilterConnections:
		return storage.FilterConnections
	default:
		return storage.FilterAll
	}
}

// HomeScope строит предикат домашней ленты: свои посты, публичные,
// community-посты сообществ с активным членством и connections-посты
// авторов с принятой связью от зрителя.
func HomeScope(viewerID string, filter storage.HomeFilter, exclude []string) storage.FeedScope {
	return storage.FeedScope{
		Kind:           storage.FeedHome,
		ViewerID:       viewerID,
		Filter:         filter,
		ExcludeAuthors: exclude,
	}
}

// TrendingScope строит предикат трендовой ленты: только публичные посты
// внутри временного окна. Членства и связи здесь не играют роли.
func TrendingScope(viewerID string, since time.Time, exclude []string) storage.FeedScope {
	return storage.FeedScope{
		Kind:           storage.FeedTrending,
		ViewerID:       viewerID,
		Since:          since,
		ExcludeAuthors: exclude,
	}
}

// CommunityScope строит предикат ленты сообщества. Допуск в закрытое
// сообщество проверяет композитор; внутри ленты пост-уровневая видимость
// не фильтруется — доступ определяется членством.
func CommunityScope(viewerID, communityID string, exclude []string) storage.FeedScope {
	return storage.FeedScope{
		Kind:           storage.FeedCommunity,
		ViewerID:       viewerID,
		CommunityID:    communityID,
		ExcludeAuthors: exclude,
	}
}

// ProfileScope строит предикат ленты профиля. Свой профиль — без фильтра
// видимости; при принятой связи зритель видит public и connections;
// иначе (в том числе аноним) — только public.
func ProfileScope(viewerID, targetID string, connected bool) storage.FeedScope {
	scope := storage.FeedScope{
		Kind:     storage.FeedProfile,
		ViewerID: viewerID,
		AuthorID: targetID,
	}
	switch {
	case viewerID == targetID && viewerID != "":
		scope.Visibilities = nil
	case connected:
		scope.Visibilities = []domain.Visibility{domain.VisibilityPublic, domain.VisibilityConnections}
	default:
		scope.Visibilities = []domain.Visibility{domain.VisibilityPublic}
	}
	return scope
}
