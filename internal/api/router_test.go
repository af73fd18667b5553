package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Julianb233/better-together-live-sub001/internal/config"
	"github.com/Julianb233/better-together-live-sub001/internal/domain"
	"github.com/Julianb233/better-together-live-sub001/internal/feed"
	"github.com/Julianb233/better-together-live-sub001/internal/storage/inmemory"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer поднимает полный роутер над in-memory хранилищем:
// alice и bob связаны (bob -> alice), оба в публичном "hikers",
// carol посторонняя, "vault" — приватное сообщество.
func newTestServer(t *testing.T) (*httptest.Server, *inmemory.Store) {
	t.Helper()
	store := inmemory.New()
	ctx := context.Background()

	for _, id := range []string{"alice", "bob", "carol"} {
		_, err := store.CreateUser(ctx, &domain.User{ID: id, Name: id})
		require.NoError(t, err)
	}
	_, err := store.CreateCommunity(ctx, &domain.Community{
		ID: "hikers", Name: "Weekend Hikers", Slug: "weekend-hikers",
		PrivacyLevel: domain.PrivacyPublic,
	})
	require.NoError(t, err)
	_, err = store.CreateCommunity(ctx, &domain.Community{
		ID: "vault", Name: "The Vault", Slug: "the-vault",
		PrivacyLevel: domain.PrivacyPrivate,
	})
	require.NoError(t, err)

	for _, uid := range []string{"alice", "bob"} {
		require.NoError(t, store.UpsertMembership(ctx, &domain.CommunityMember{
			CommunityID: "hikers", UserID: uid,
			Role: domain.RoleMember, Status: domain.MemberActive,
		}))
	}
	_, err = store.CreateConnection(ctx, &domain.Connection{
		FollowerID: "bob", FollowingID: "alice", Status: domain.ConnectionAccepted,
	})
	require.NoError(t, err)

	composer := feed.NewComposer(store, feed.NewBlockRegistry(store), feed.Options{
		DefaultPageSize: 20, MaxPageSize: 100, CandidateWindow: 500,
	})
	log := zerolog.Nop()
	h := NewHandler(store, composer, log)
	router := NewRouter(h, store, log, config.HTTPConfig{
		CORSOrigins: []string{"*"},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func seedPost(t *testing.T, store *inmemory.Store, p *domain.Post) *domain.Post {
	t.Helper()
	if p.ContentType == "" {
		p.ContentType = domain.ContentTypeText
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Add(-time.Hour)
	}
	created, err := store.CreatePost(context.Background(), p)
	require.NoError(t, err)
	return created
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetFeed_RequiresUserID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/feed")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetFeed_ReturnsVisiblePosts(t *testing.T) {
	srv, store := newTestServer(t)

	seedPost(t, store, &domain.Post{ID: "pub", AuthorID: "carol",
		Content: "hello", Visibility: domain.VisibilityPublic})
	seedPost(t, store, &domain.Post{ID: "conn", AuthorID: "alice",
		Content: "friends", Visibility: domain.VisibilityConnections})
	seedPost(t, store, &domain.Post{ID: "priv", AuthorID: "alice",
		Content: "diary", Visibility: domain.VisibilityPrivate})

	resp, err := http.Get(srv.URL + "/api/feed?userId=bob")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Posts   []*feed.PostView `json:"posts"`
		Page    int              `json:"page"`
		Limit   int              `json:"limit"`
		HasMore bool             `json:"hasMore"`
	}
	decodeBody(t, resp, &body)

	got := make([]string, len(body.Posts))
	for i, p := range body.Posts {
		got[i] = p.ID
	}
	assert.ElementsMatch(t, []string{"pub", "conn"}, got)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 20, body.Limit)
	assert.False(t, body.HasMore)
	// Имя автора дотянуто через лоадеры
	for _, p := range body.Posts {
		assert.NotEmpty(t, p.AuthorName)
	}
}

func TestGetFeed_InvalidPageParam(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/feed?userId=bob&page=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetTrendingFeed(t *testing.T) {
	srv, store := newTestServer(t)

	seedPost(t, store, &domain.Post{ID: "hot", AuthorID: "carol",
		Content: "viral", Visibility: domain.VisibilityPublic, LikeCount: 10})
	seedPost(t, store, &domain.Post{ID: "hidden", AuthorID: "alice",
		Content: "friends", Visibility: domain.VisibilityConnections, LikeCount: 99})

	resp, err := http.Get(srv.URL + "/api/feed/trending?timeframe=week")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Posts     []*feed.PostView `json:"posts"`
		Timeframe string           `json:"timeframe"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "week", body.Timeframe)
	require.Len(t, body.Posts, 1)
	assert.Equal(t, "hot", body.Posts[0].ID)
	assert.NotNil(t, body.Posts[0].TrendingScore)
}

func TestGetCommunityFeed_AccessControl(t *testing.T) {
	srv, store := newTestServer(t)
	vault := "vault"

	require.NoError(t, store.UpsertMembership(context.Background(), &domain.CommunityMember{
		CommunityID: "vault", UserID: "alice",
		Role: domain.RoleOwner, Status: domain.MemberActive,
	}))
	seedPost(t, store, &domain.Post{ID: "secret", AuthorID: "alice", CommunityID: &vault,
		Content: "secret", Visibility: domain.VisibilityCommunity})

	// Посторонний — 403
	resp, err := http.Get(srv.URL + "/api/feed/community/vault?userId=carol")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Участник — 200
	resp, err = http.Get(srv.URL + "/api/feed/community/vault?userId=alice")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Posts       []*feed.PostView `json:"posts"`
		CommunityID string           `json:"communityId"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "vault", body.CommunityID)
	require.Len(t, body.Posts, 1)
	assert.Equal(t, "secret", body.Posts[0].ID)

	// Несуществующее сообщество — 404
	resp, err = http.Get(srv.URL + "/api/feed/community/nope?userId=alice")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetUserFeed(t *testing.T) {
	srv, store := newTestServer(t)

	seedPost(t, store, &domain.Post{ID: "pub", AuthorID: "alice",
		Content: "hello", Visibility: domain.VisibilityPublic})
	seedPost(t, store, &domain.Post{ID: "conn", AuthorID: "alice",
		Content: "date night", Visibility: domain.VisibilityConnections})

	// Связанный bob видит оба поста
	resp, err := http.Get(srv.URL + "/api/feed/user/alice?viewerId=bob")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Posts    []*feed.PostView `json:"posts"`
		UserID   string           `json:"userId"`
		UserName string           `json:"userName"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "alice", body.UserID)
	assert.Equal(t, "alice", body.UserName)
	assert.Len(t, body.Posts, 2)

	// Посторонняя carol — только публичный
	resp, err = http.Get(srv.URL + "/api/feed/user/alice?viewerId=carol")
	require.NoError(t, err)
	body.Posts = nil
	decodeBody(t, resp, &body)
	require.Len(t, body.Posts, 1)
	assert.Equal(t, "pub", body.Posts[0].ID)

	// Неизвестный профиль — 404
	resp, err = http.Get(srv.URL + "/api/feed/user/nobody?viewerId=bob")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreatePost_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	// Нет ни контента, ни медиа
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/posts", map[string]interface{}{
		"authorId": "alice", "visibility": "public",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Неизвестная видимость
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/posts", map[string]interface{}{
		"authorId": "alice", "content": "hi", "visibility": "everyone",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// community-видимость без communityId
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/posts", map[string]interface{}{
		"authorId": "alice", "content": "hi", "visibility": "community",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// connections-пост в сообщество запрещен
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/posts", map[string]interface{}{
		"authorId": "alice", "content": "hi", "visibility": "connections",
		"communityId": "hikers",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreatePost_CommunityMembershipEnforced(t *testing.T) {
	srv, _ := newTestServer(t)

	// carol не участница hikers
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/posts", map[string]interface{}{
		"authorId": "carol", "content": "let me in", "visibility": "community",
		"communityId": "hikers",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// bob участник — 201 с проекцией
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/posts", map[string]interface{}{
		"authorId": "bob", "content": "trail this weekend", "visibility": "community",
		"communityId": "hikers",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Success bool           `json:"success"`
		Post    *feed.PostView `json:"post"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	require.NotNil(t, body.Post)
	assert.Equal(t, "bob", body.Post.AuthorName)
	require.NotNil(t, body.Post.CommunityName)
	assert.Equal(t, "Weekend Hikers", *body.Post.CommunityName)
}

func TestGetPost_Authorization(t *testing.T) {
	srv, store := newTestServer(t)

	priv := seedPost(t, store, &domain.Post{AuthorID: "alice",
		Content: "diary", Visibility: domain.VisibilityPrivate})

	resp, err := http.Get(srv.URL + "/api/posts/" + priv.ID + "?userId=bob")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/posts/" + priv.ID + "?userId=alice")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var view feed.PostView
	decodeBody(t, resp, &view)
	assert.Equal(t, priv.ID, view.ID)

	resp, err = http.Get(srv.URL + "/api/posts/no-such-post?userId=alice")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdatePost_AuthorOnly(t *testing.T) {
	srv, store := newTestServer(t)

	p := seedPost(t, store, &domain.Post{AuthorID: "alice",
		Content: "v1", Visibility: domain.VisibilityPublic})

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/posts/"+p.ID, map[string]interface{}{
		"userId": "bob", "content": "hijack",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/posts/"+p.ID, map[string]interface{}{
		"userId": "alice", "content": "v2",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := store.GetPostByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)
}

func TestDeletePost_AuthorOrModerator(t *testing.T) {
	srv, store := newTestServer(t)
	hikers := "hikers"

	p := seedPost(t, store, &domain.Post{AuthorID: "bob", CommunityID: &hikers,
		Content: "off topic", Visibility: domain.VisibilityCommunity})

	// Рядовой участник чужой пост не удалит
	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/posts/"+p.ID+"?userId=alice", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Модератор — удалит
	require.NoError(t, store.UpsertMembership(context.Background(), &domain.CommunityMember{
		CommunityID: "hikers", UserID: "alice",
		Role: domain.RoleModerator, Status: domain.MemberActive,
	}))
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/posts/"+p.ID+"?userId=alice", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err := store.GetPostByID(context.Background(), p.ID)
	assert.Error(t, err)
}

func TestSharePost(t *testing.T) {
	srv, store := newTestServer(t)

	p := seedPost(t, store, &domain.Post{AuthorID: "alice",
		Content: "worth sharing", Visibility: domain.VisibilityPublic})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/posts/"+p.ID+"/share", map[string]interface{}{
		"userId": "bob",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Success     bool   `json:"success"`
		SharePostID string `json:"sharePostId"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.SharePostID)

	// Счетчик оригинала двинулся, репост получил дефолты
	got, err := store.GetPostByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ShareCount)

	share, err := store.GetPostByID(context.Background(), body.SharePostID)
	require.NoError(t, err)
	assert.Equal(t, domain.VisibilityConnections, share.Visibility)
	assert.Contains(t, share.Content, "alice")
}

func TestSharePost_CommunityInvariants(t *testing.T) {
	srv, store := newTestServer(t)

	p := seedPost(t, store, &domain.Post{AuthorID: "alice",
		Content: "worth sharing", Visibility: domain.VisibilityPublic})

	// Репост в сообщество без явной видимости уходит участникам
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/posts/"+p.ID+"/share", map[string]interface{}{
		"userId": "bob", "communityId": "hikers",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		SharePostID string `json:"sharePostId"`
	}
	decodeBody(t, resp, &body)
	share, err := store.GetPostByID(context.Background(), body.SharePostID)
	require.NoError(t, err)
	assert.Equal(t, domain.VisibilityCommunity, share.Visibility)

	// Пост сообщества не бывает connections или private
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/posts/"+p.ID+"/share", map[string]interface{}{
		"userId": "bob", "communityId": "hikers", "visibility": "private",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// community-видимость без communityId
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/posts/"+p.ID+"/share", map[string]interface{}{
		"userId": "bob", "visibility": "community",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdatePost_CommunityInvariants(t *testing.T) {
	srv, store := newTestServer(t)
	hikers := "hikers"

	p := seedPost(t, store, &domain.Post{AuthorID: "bob", CommunityID: &hikers,
		Content: "trail", Visibility: domain.VisibilityCommunity})

	// Автор не может увести пост сообщества в private или connections
	for _, vis := range []string{"private", "connections"} {
		resp := doJSON(t, http.MethodPut, srv.URL+"/api/posts/"+p.ID, map[string]interface{}{
			"userId": "bob", "visibility": vis,
		})
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "visibility %q", vis)
	}

	got, err := store.GetPostByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VisibilityCommunity, got.Visibility)

	// Перевод в public допустим
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/posts/"+p.ID, map[string]interface{}{
		"userId": "bob", "visibility": "public",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// community-видимость на посте вне сообщества
	solo := seedPost(t, store, &domain.Post{AuthorID: "bob",
		Content: "solo", Visibility: domain.VisibilityPublic})
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/posts/"+solo.ID, map[string]interface{}{
		"userId": "bob", "visibility": "community",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReactionLifecycle(t *testing.T) {
	srv, store := newTestServer(t)

	p := seedPost(t, store, &domain.Post{AuthorID: "alice",
		Content: "react", Visibility: domain.VisibilityPublic})

	// Недопустимый тип реакции
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/posts/"+p.ID+"/reaction", map[string]interface{}{
		"userId": "bob", "reactionType": "angry",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Создание
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/posts/"+p.ID+"/reaction", map[string]interface{}{
		"userId": "bob", "reactionType": "like",
	})
	var putBody struct {
		Success bool `json:"success"`
		Created bool `json:"created"`
	}
	decodeBody(t, resp, &putBody)
	assert.True(t, putBody.Created)

	// Смена типа
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/posts/"+p.ID+"/reaction", map[string]interface{}{
		"userId": "bob", "reactionType": "love",
	})
	decodeBody(t, resp, &putBody)
	assert.False(t, putBody.Created)

	got, err := store.GetPostByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount)

	// Снятие
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/posts/"+p.ID+"/reaction?userId=bob", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	got, err = store.GetPostByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.LikeCount)
}

func TestConnectionFlow(t *testing.T) {
	srv, store := newTestServer(t)

	// Связь с самим собой
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/connections", map[string]interface{}{
		"followerId": "carol", "followingId": "carol",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Запрос создается в статусе pending
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/connections", map[string]interface{}{
		"followerId": "carol", "followingId": "alice",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Success    bool               `json:"success"`
		Connection *domain.Connection `json:"connection"`
	}
	decodeBody(t, resp, &body)
	require.NotNil(t, body.Connection)
	assert.Equal(t, domain.ConnectionPending, body.Connection.Status)

	ok, err := store.HasAcceptedConnection(context.Background(), "carol", "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	// Принимает адресат запроса
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/connections/carol/accept", map[string]interface{}{
		"userId": "alice",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ok, err = store.HasAcceptedConnection(context.Background(), "carol", "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	// Несуществующий запрос — 404
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/connections/bob/accept", map[string]interface{}{
		"userId": "carol",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBlockUser(t *testing.T) {
	srv, store := newTestServer(t)

	// Самоблокировка
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/users/alice/block", map[string]interface{}{
		"userId": "alice",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Блокировка разрывает принятую связь bob -> alice
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/users/bob/block", map[string]interface{}{
		"userId": "alice",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ok, err := store.HasAcceptedConnection(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	// После блокировки запрос связи отклоняется
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/connections", map[string]interface{}{
		"followerId": "bob", "followingId": "alice",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Разблокировка
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/users/bob/block?userId=alice", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	blocked, err := store.IsBlockedEither(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestCommunityMembershipFlow(t *testing.T) {
	srv, store := newTestServer(t)

	// Вступление в открытое сообщество
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/communities/hikers/join", map[string]interface{}{
		"userId": "carol",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	m, err := store.GetMembership(context.Background(), "hikers", "carol")
	require.NoError(t, err)
	assert.Equal(t, domain.MemberActive, m.Status)

	// Приватное сообщество без приглашения
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/communities/vault/join", map[string]interface{}{
		"userId": "carol",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Несуществующее сообщество
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/communities/nope/join", map[string]interface{}{
		"userId": "carol",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Выход
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/communities/hikers/leave", map[string]interface{}{
		"userId": "carol",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	m, err = store.GetMembership(context.Background(), "hikers", "carol")
	require.NoError(t, err)
	assert.Equal(t, domain.MemberLeft, m.Status)

	// Забаненного назад не пускает
	require.NoError(t, store.UpsertMembership(context.Background(), &domain.CommunityMember{
		CommunityID: "hikers", UserID: "carol",
		Role: domain.RoleMember, Status: domain.MemberBanned,
	}))
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/communities/hikers/join", map[string]interface{}{
		"userId": "carol",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
