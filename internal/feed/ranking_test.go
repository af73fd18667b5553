package feed

import (
	"testing"
	"time"

	"github.com/Julianb233/better-together-live-sub001/internal/domain"

	"github.com/stretchr/testify/assert"
)

func postAged(age time.Duration, now time.Time, likes, comments, shares int) *domain.Post {
	return &domain.Post{
		LikeCount:    likes,
		CommentCount: comments,
		ShareCount:   shares,
		CreatedAt:    now.Add(-age),
	}
}

func TestEngagementScore_KnownValue(t *testing.T) {
	now := time.Now()
	// (10 + 2*2 + 0) / (1+2)^1.5 = 14 / 5.196... ≈ 2.694
	p := postAged(time.Hour, now, 10, 2, 0)
	assert.InDelta(t, 2.694, EngagementScore(p, now), 0.001)
}

func TestEngagementScore_Bonuses(t *testing.T) {
	now := time.Now()
	base := postAged(time.Hour, now, 0, 0, 0)
	pinned := postAged(time.Hour, now, 0, 0, 0)
	pinned.IsPinned = true
	featured := postAged(time.Hour, now, 0, 0, 0)
	featured.IsFeatured = true

	assert.Equal(t, 0.0, EngagementScore(base, now))
	// Бонус закрепления вдвое больше бонуса продвижения.
	assert.InDelta(t, 2*EngagementScore(featured, now), EngagementScore(pinned, now), 1e-9)
}

func TestScores_StrictlyDecreaseWithAge(t *testing.T) {
	now := time.Now()
	ages := []time.Duration{0, time.Hour, 10 * time.Hour, 24 * time.Hour, 7 * 24 * time.Hour}

	prevEng, prevTrend := -1.0, -1.0
	for i, age := range ages {
		p := postAged(age, now, 10, 2, 1)
		eng := EngagementScore(p, now)
		trend := TrendingScore(p, now)
		if i > 0 {
			assert.Less(t, eng, prevEng, "engagement score must strictly decrease, age %v", age)
			if age > time.Hour {
				// Трендовое затухание включается после max(h,1).
				assert.Less(t, trend, prevTrend, "trending score must strictly decrease, age %v", age)
			}
		}
		prevEng, prevTrend = eng, trend
	}
}

func TestTrendingScore_NoPinBonus(t *testing.T) {
	now := time.Now()
	plain := postAged(2*time.Hour, now, 5, 1, 1)
	pinned := postAged(2*time.Hour, now, 5, 1, 1)
	pinned.IsPinned = true
	pinned.IsFeatured = true

	assert.Equal(t, TrendingScore(plain, now), TrendingScore(pinned, now))
}

func TestTrendingScore_WeightsSharesHighest(t *testing.T) {
	now := time.Now()
	shares := postAged(2*time.Hour, now, 0, 0, 10)
	comments := postAged(2*time.Hour, now, 0, 10, 0)
	likes := postAged(2*time.Hour, now, 10, 0, 0)

	assert.Greater(t, TrendingScore(shares, now), TrendingScore(comments, now))
	assert.Greater(t, TrendingScore(comments, now), TrendingScore(likes, now))
}

func TestHoursSince_FutureClampedToZero(t *testing.T) {
	now := time.Now()
	p := postAged(-time.Hour, now, 1, 0, 0) // created_at в будущем
	assert.Equal(t, EngagementScore(p, now), EngagementScore(postAged(0, now, 1, 0, 0), now))
}

func TestSort_EngagementWithRecencyTieBreak(t *testing.T) {
	now := time.Now()
	hot := postAged(time.Hour, now, 100, 50, 20)
	hot.ID = "hot"
	oldTie := postAged(5*time.Hour, now, 0, 0, 0)
	oldTie.ID = "old-tie"
	newTie := postAged(2*time.Hour, now, 0, 0, 0)
	newTie.ID = "new-tie"

	posts := []*domain.Post{oldTie, newTie, hot}
	Sort(posts, OrderEngagement, now)

	assert.Equal(t, "hot", posts[0].ID)
	// Оба балла строго нулевые; побеждает тай-брейк по created_at.
	assert.Equal(t, "new-tie", posts[1].ID)
	assert.Equal(t, "old-tie", posts[2].ID)
}

func TestSort_Recency(t *testing.T) {
	now := time.Now()
	a := postAged(3*time.Hour, now, 99, 99, 99)
	a.ID = "a"
	b := postAged(time.Hour, now, 0, 0, 0)
	b.ID = "b"

	posts := []*domain.Post{a, b}
	Sort(posts, OrderRecency, now)

	assert.Equal(t, []string{"b", "a"}, []string{posts[0].ID, posts[1].ID})
}

func TestSort_PinnedFirst(t *testing.T) {
	now := time.Now()
	oldPinned := postAged(48*time.Hour, now, 0, 0, 0)
	oldPinned.ID = "old-pinned"
	oldPinned.IsPinned = true
	fresh := postAged(time.Hour, now, 0, 0, 0)
	fresh.ID = "fresh"
	newPinned := postAged(12*time.Hour, now, 0, 0, 0)
	newPinned.ID = "new-pinned"
	newPinned.IsPinned = true

	posts := []*domain.Post{fresh, oldPinned, newPinned}
	Sort(posts, OrderPinnedFirst, now)

	assert.Equal(t, "new-pinned", posts[0].ID)
	assert.Equal(t, "old-pinned", posts[1].ID)
	assert.Equal(t, "fresh", posts[2].ID)
}

func TestParseTimeframe(t *testing.T) {
	now := time.Now()
	tests := []struct {
		in   string
		want Timeframe
		ago  time.Duration
	}{
		{"24h", Timeframe24h, 24 * time.Hour},
		{"week", TimeframeWeek, 7 * 24 * time.Hour},
		{"month", TimeframeMonth, 30 * 24 * time.Hour},
		{"", Timeframe24h, 24 * time.Hour},
		{"garbage", Timeframe24h, 24 * time.Hour},
	}
	for _, tc := range tests {
		tf := ParseTimeframe(tc.in)
		assert.Equal(t, tc.want, tf, "input %q", tc.in)
		assert.Equal(t, now.Add(-tc.ago), tf.Cutoff(now))
	}
}
