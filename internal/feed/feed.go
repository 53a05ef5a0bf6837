// Package feed maintains the per-user notification inbox: the in-memory,
// most-recent-first list backing the dashboard's notification panel and its
// unread badge. The inbox is loaded from the store on first access and then
// kept current by merging change-feed events. The merge is idempotent under
// duplicate delivery, so the initial batch fetch and the subscription's first
// event need no ordering between them.
package feed

import (
	"context"
	"sync"

	"branch-inventory-api-server/internal/models"
)

// Store is the slice of the notification store the feed needs. MarkNotificationRead
// is scoped to the recipient; ids owned by another user read as not found.
type Store interface {
	NotificationsForUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error
}

// Inbox is one user's materialized notification list.
type Inbox struct {
	mu            sync.Mutex
	notifications []models.Notification
	unread        int
}

// Merge applies one change-feed event. An incoming notification replaces any
// existing entry with the same id, otherwise it is prepended: newly arriving
// notifications float to the top regardless of their own timestamp.
func (in *Inbox) Merge(n models.Notification) {
	in.mu.Lock()
	defer in.mu.Unlock()

	kept := make([]models.Notification, 0, len(in.notifications)+1)
	kept = append(kept, n)
	for _, existing := range in.notifications {
		if existing.NotificationID != n.NotificationID {
			kept = append(kept, existing)
		}
	}
	in.notifications = kept
	in.recountUnread()
}

// load installs the initial batch (already most-recent-first). Entries that
// arrived through the subscription before the batch resolved win over their
// stored copy.
func (in *Inbox) load(batch []models.Notification) {
	in.mu.Lock()
	defer in.mu.Unlock()

	seen := make(map[string]bool, len(in.notifications))
	for _, n := range in.notifications {
		seen[n.NotificationID] = true
	}
	for _, n := range batch {
		if !seen[n.NotificationID] {
			in.notifications = append(in.notifications, n)
			seen[n.NotificationID] = true
		}
	}
	in.recountUnread()
}

// Notifications returns a copy of the current list, most recent first.
func (in *Inbox) Notifications() []models.Notification {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]models.Notification, len(in.notifications))
	copy(out, in.notifications)
	return out
}

// UnreadCount reports count(read == false), recomputed after every merge and
// mark-read.
func (in *Inbox) UnreadCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.unread
}

// setRead flips the local read flag. Reports whether the entry exists and
// whether the flag actually changed.
func (in *Inbox) setRead(notificationID string, read bool) (found, changed bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i := range in.notifications {
		if in.notifications[i].NotificationID == notificationID {
			found = true
			if in.notifications[i].Read != read {
				in.notifications[i].Read = read
				changed = true
				in.recountUnread()
			}
			return
		}
	}
	return
}

// recountUnread must be called with mu held.
func (in *Inbox) recountUnread() {
	count := 0
	for _, n := range in.notifications {
		if !n.Read {
			count++
		}
	}
	in.unread = count
}

// Feed owns the inboxes for all signed-in users.
type Feed struct {
	store Store

	mu      sync.Mutex
	inboxes map[string]*Inbox
	loaded  map[string]bool
}

func New(store Store) *Feed {
	return &Feed{
		store:   store,
		inboxes: make(map[string]*Inbox),
		loaded:  make(map[string]bool),
	}
}

// Inbox returns the user's inbox, fetching the stored notifications on first
// access.
func (f *Feed) Inbox(ctx context.Context, userID string) (*Inbox, error) {
	f.mu.Lock()
	in, ok := f.inboxes[userID]
	if !ok {
		in = &Inbox{}
		f.inboxes[userID] = in
	}
	needsLoad := !f.loaded[userID]
	f.mu.Unlock()

	if needsLoad {
		batch, err := f.store.NotificationsForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		in.load(batch)
		f.mu.Lock()
		f.loaded[userID] = true
		f.mu.Unlock()
	}
	return in, nil
}

// Publish merges a change-feed event into the recipient's inbox, if one is
// materialized. Users who have never opened their feed pick the notification
// up from the store on first access instead.
func (f *Feed) Publish(n models.Notification) {
	f.mu.Lock()
	in, ok := f.inboxes[n.UserID]
	f.mu.Unlock()
	if ok {
		in.Merge(n)
	}
}

// MarkRead flips the notification's read flag locally, persists the change,
// and reverts the local flip if the persist fails.
func (f *Feed) MarkRead(ctx context.Context, userID, notificationID string) error {
	in, err := f.Inbox(ctx, userID)
	if err != nil {
		return err
	}

	found, changed := in.setRead(notificationID, true)
	if found && !changed {
		// Already read; nothing to persist.
		return nil
	}
	// An id missing from the inbox still goes to the store, which reports
	// whether the notification exists for this user at all.
	if err := f.store.MarkNotificationRead(ctx, userID, notificationID); err != nil {
		if changed {
			in.setRead(notificationID, false)
		}
		return err
	}
	return nil
}

// Release drops the user's inbox when their session ends. The next sign-in
// reloads from the store.
func (f *Feed) Release(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.inboxes, userID)
	delete(f.loaded, userID)
}
