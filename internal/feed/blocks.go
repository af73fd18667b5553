package feed

import (
	"context"
	"fmt"
	"sort"

	"github.com/Julianb233/better-together-live-sub001/internal/storage"
)

// BlockRegistry отвечает на один вопрос: каких авторов исключить из
// выдачи для данного зрителя. Политика взаимная: исключаются и те, кого
// заблокировал зритель, и те, кто заблокировал его. Ошибка чтения
// хранилища пробрасывается наверх и никогда не трактуется как
// «блокировок нет».
type BlockRegistry struct {
	store storage.Storage
}

func NewBlockRegistry(store storage.Storage) *BlockRegistry {
	return &BlockRegistry{store: store}
}

// BlockedAuthors возвращает отсортированный список без дубликатов.
// Для анонимного зрителя список пуст.
func (r *BlockRegistry) BlockedAuthors(ctx context.Context, viewerID string) ([]string, error) {
	if viewerID == "" {
		return nil, nil
	}

	blocked, err := r.store.BlockedUserIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load blocked users: %w", err)
	}
	blockers, err := r.store.BlockerUserIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load blocking users: %w", err)
	}

	seen := make(map[string]struct{}, len(blocked)+len(blockers))
	out := make([]string, 0, len(blocked)+len(blockers))
	for _, id := range blocked {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range blockers {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}
