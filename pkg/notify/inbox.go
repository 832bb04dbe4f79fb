package notify

import (
	"sync"

	"github.com/goliatone/go-onboard/pkg/model"
)

// Inbox holds notifications newest first. It is safe for concurrent use.
type Inbox struct {
	mu    sync.RWMutex
	items []model.NotificationRecord
}

// NewInbox returns an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{}
}

// Add stores record at the top of the inbox.
func (in *Inbox) Add(record model.NotificationRecord) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.items = append([]model.NotificationRecord{record}, in.items...)
}

// List returns a copy of every notification, newest first.
func (in *Inbox) List() []model.NotificationRecord {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return append([]model.NotificationRecord(nil), in.items...)
}

// MarkRead flags one notification as read and reports whether it exists.
func (in *Inbox) MarkRead(id string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i := range in.items {
		if in.items[i].ID == id {
			in.items[i].Read = true
			return true
		}
	}
	return false
}

// MarkAllRead flags every notification as read.
func (in *Inbox) MarkAllRead() {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i := range in.items {
		in.items[i].Read = true
	}
}

// Unread returns the unread notifications, newest first.
func (in *Inbox) Unread() []model.NotificationRecord {
	in.mu.RLock()
	defer in.mu.RUnlock()
	var out []model.NotificationRecord
	for _, item := range in.items {
		if !item.Read {
			out = append(out, item)
		}
	}
	return out
}

// UnreadCount reports how many notifications are unread.
func (in *Inbox) UnreadCount() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	count := 0
	for _, item := range in.items {
		if !item.Read {
			count++
		}
	}
	return count
}

// CountByType tallies notifications per type.
func (in *Inbox) CountByType() map[model.NotificationType]int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	counts := make(map[model.NotificationType]int)
	for _, item := range in.items {
		counts[item.Type]++
	}
	return counts
}
