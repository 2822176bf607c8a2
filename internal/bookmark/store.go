package bookmark

import (
	"context"

	"github.com/atomicstack/tag-popup-control/internal/store"
)

// StoreBookmarks keeps bookmarks in the local database.
type StoreBookmarks struct {
	Store *store.Store
}

// Tags implements Bookmarks.
func (b StoreBookmarks) Tags(ctx context.Context, id string) ([]string, bool, error) {
	return b.Store.BookmarkTags(ctx, id)
}

// SetTags implements Bookmarks.
func (b StoreBookmarks) SetTags(ctx context.Context, id string, tags []string) error {
	return b.Store.SetBookmarkTags(ctx, id, tags)
}
