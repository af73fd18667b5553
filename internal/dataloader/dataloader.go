// Package dataloader дает запросные батч-лоадеры для стадии проекции:
// авторы, сообщества и реакции зрителя собираются по одному запросу
// к хранилищу на страницу вместо N+1.
package dataloader

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Julianb233/better-together-live-sub001/internal/storage"
	"github.com/graph-gophers/dataloader"
)

type contextKey string

const key = contextKey("dataloaders")

// reactionKeySep разделяет зрителя и пост в ключе лоадера реакций.
const reactionKeySep = "|"

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	UserByID      *dataloader.Loader
	CommunityByID *dataloader.Loader
	// ReactionByKey ожидает ключ вида "<viewerID>|<postID>" (см. ReactionKey)
	// и возвращает тип реакции (string) либо nil.
	ReactionByKey *dataloader.Loader
}

// ReactionKey собирает составной ключ лоадера реакций.
func ReactionKey(viewerID, postID string) string {
	return viewerID + reactionKeySep + postID
}

// New создает лоадеры поверх хранилища. Лоадеры живут не дольше запроса.
func New(store storage.Storage) *Loaders {
	userBatch := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]string, len(keys))
		for i, k := range keys {
			ids[i] = k.String()
		}
		users, err := store.GetUsersByIDs(ctx, ids)
		if err != nil {
			return errorResults(keys, err)
		}
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			// Отсутствующий пользователь — не ошибка: автор мог быть удален.
			results[i] = &dataloader.Result{Data: users[id]}
		}
		return results
	}

	communityBatch := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]string, len(keys))
		for i, k := range keys {
			ids[i] = k.String()
		}
		communities, err := store.GetCommunitiesByIDs(ctx, ids)
		if err != nil {
			return errorResults(keys, err)
		}
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			results[i] = &dataloader.Result{Data: communities[id]}
		}
		return results
	}

	reactionBatch := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		// В пределах запроса зритель один, поэтому все ключи несут
		// одинаковый префикс; группировка по зрителю — на всякий случай.
		byViewer := make(map[string][]string)
		for _, k := range keys {
			viewerID, postID, ok := splitReactionKey(k.String())
			if !ok {
				continue
			}
			byViewer[viewerID] = append(byViewer[viewerID], postID)
		}

		reactions := make(map[string]string)
		for viewerID, postIDs := range byViewer {
			m, err := store.ReactionsByPostIDs(ctx, viewerID, postIDs)
			if err != nil {
				return errorResults(keys, err)
			}
			for postID, rt := range m {
				reactions[ReactionKey(viewerID, postID)] = rt
			}
		}

		results := make([]*dataloader.Result, len(keys))
		for i, k := range keys {
			if rt, ok := reactions[k.String()]; ok {
				results[i] = &dataloader.Result{Data: rt}
			} else {
				results[i] = &dataloader.Result{}
			}
		}
		return results
	}

	wait := dataloader.WithWait(time.Millisecond * 1)
	return &Loaders{
		UserByID:      dataloader.NewBatchedLoader(userBatch, wait),
		CommunityByID: dataloader.NewBatchedLoader(communityBatch, wait),
		ReactionByKey: dataloader.NewBatchedLoader(reactionBatch, wait),
	}
}

func errorResults(keys dataloader.Keys, err error) []*dataloader.Result {
	results := make([]*dataloader.Result, len(keys))
	for i := range results {
		results[i] = &dataloader.Result{Error: err}
	}
	return results
}

func splitReactionKey(k string) (viewerID, postID string, ok bool) {
	i := strings.Index(k, reactionKeySep)
	if i < 0 {
		return "", "", false
	}
	return k[:i], k[i+1:], true
}

// Middleware внедряет свежие лоадеры в контекст каждого запроса.
func Middleware(store storage.Storage, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := Attach(r.Context(), store)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Attach кладет лоадеры в контекст; используется middleware и тестами.
func Attach(ctx context.Context, store storage.Storage) context.Context {
	return context.WithValue(ctx, key, New(store))
}

// For извлекает лоадеры из контекста.
func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(key).(*Loaders)
	return loaders
}
