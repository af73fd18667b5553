package feed

import (
	"context"
	"testing"

	"github.com/Julianb233/better-together-live-sub001/internal/domain"
	"github.com/Julianb233/better-together-live-sub001/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaURLs(t *testing.T) {
	tests := []struct {
		name string
		raw  *string
		want []string
	}{
		{"nil", nil, []string{}},
		{"empty string", strPtr(""), []string{}},
		{"json null", strPtr("null"), []string{}},
		{"garbage", strPtr("{not json"), []string{}},
		{"wrong type", strPtr(`{"a":1}`), []string{}},
		{"empty array", strPtr("[]"), []string{}},
		{"urls", strPtr(`["https://a.test/1.jpg","https://a.test/2.jpg"]`),
			[]string{"https://a.test/1.jpg", "https://a.test/2.jpg"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseMediaURLs(tc.raw))
		})
	}
}

func TestProjectPosts_NoLoadersInContext(t *testing.T) {
	_, err := ProjectPosts(context.Background(), nil, "alice")
	assert.ErrorIs(t, err, ErrNoLoaders)
}

func TestProjectPosts_MissingAuthorTolerated(t *testing.T) {
	f := newFixture(t)

	// Автор не существует в хранилище — пост все равно проецируется.
	p := f.addPost(t, &domain.Post{AuthorID: "ghost", Content: "orphan",
		Visibility: domain.VisibilityPublic, CreatedAt: f.now})

	views, err := ProjectPosts(f.ctx, []*domain.Post{p}, "")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "ghost", views[0].AuthorID)
	assert.Empty(t, views[0].AuthorName)
	assert.Nil(t, views[0].AuthorPhoto)
}

func TestParseHomeFilter(t *testing.T) {
	assert.Equal(t, storage.FilterCommunities, ParseHomeFilter("communities"))
	assert.Equal(t, storage.FilterConnections, ParseHomeFilter("connections"))
	assert.Equal(t, storage.FilterAll, ParseHomeFilter("all"))
	assert.Equal(t, storage.FilterAll, ParseHomeFilter(""))
	assert.Equal(t, storage.FilterAll, ParseHomeFilter("bogus"))
}
