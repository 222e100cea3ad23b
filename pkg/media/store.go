package media

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wentf9/commkit/pkg/utils/concurrent"
)

const (
	DefaultTTL = 30 * time.Minute
	MaxSize    = 5 << 20 // WhatsApp 图片上限 5MB
)

var (
	ErrEmpty       = errors.New("media is empty")
	ErrTooLarge    = errors.New("media exceeds 5MB")
	ErrUnsupported = errors.New("unsupported media type")
)

// Item 一份待 Twilio 拉取的图片
type Item struct {
	ID          string
	ContentType string
	Data        []byte
	Expires     time.Time
}

// Store 进程内的临时图片存储, 为 WhatsApp 消息提供可公开访问的 MediaUrl
type Store struct {
	items *concurrent.Map[string, Item]
	ttl   time.Duration
	now   func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		items: concurrent.NewMap[string, Item](concurrent.HashString),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put 保存图片并返回 ID, 内容类型以嗅探结果为准
func (s *Store) Put(data []byte) (Item, error) {
	if len(data) == 0 {
		return Item{}, ErrEmpty
	}
	if len(data) > MaxSize {
		return Item{}, ErrTooLarge
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return Item{}, ErrUnsupported
	}
	item := Item{
		ID:          uuid.NewString(),
		ContentType: ct,
		Data:        data,
		Expires:     s.now().Add(s.ttl),
	}
	s.items.Set(item.ID, item)
	return item, nil
}

// Get 过期的条目视为不存在并被移除
func (s *Store) Get(id string) (Item, bool) {
	item, ok := s.items.Get(id)
	if !ok {
		return Item{}, false
	}
	if s.now().After(item.Expires) {
		s.items.Pop(id)
		return Item{}, false
	}
	return item, true
}

// Delete 立即移除条目, 发送失败时不再对外提供
func (s *Store) Delete(id string) {
	s.items.Pop(id)
}

// Len 当前保存的条目数, 包括尚未清理的过期条目
func (s *Store) Len() int {
	return s.items.Count()
}

// Sweep 清理所有过期条目
func (s *Store) Sweep() int {
	now := s.now()
	return s.items.RemoveIf(func(_ string, item Item) bool {
		return now.After(item.Expires)
	})
}

// URL 拼接公开访问地址
func URL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/media/" + id
}
