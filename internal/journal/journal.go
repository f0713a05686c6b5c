// Package journal — журнал выполненных действий. Заменяет вызов хранилища:
// вместо записи ресурса фиксируется, что именно было бы сделано.
package journal

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"proverka/internal/schema"
)

type Op string

const (
	OpCreate Op = "create"
	OpRead   Op = "read"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Entry — одна запись журнала.
type Entry struct {
	ID         string        `json:"id"`
	Table      string        `json:"table"`
	Op         Op            `json:"op"`
	Key        *uint32       `json:"key,omitempty"` // nil для create: id назначил бы сервер
	Fields     schema.Fields `json:"fields,omitempty"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// Recorder сохраняет запись журнала. Единственная точка ожидания в обработке запроса.
type Recorder interface {
	Record(ctx context.Context, t *schema.Table, e Entry) error
}

// IDSource выдаёт монотонные ULID. ulid.Monotonic не потокобезопасен, поэтому мьютекс.
type IDSource struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

func NewIDSource() *IDSource {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &IDSource{
		entropy: ulid.Monotonic(src, 0),
		now:     time.Now,
	}
}

func (s *IDSource) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

// LogRecorder пишет записи журнала в структурированный лог.
type LogRecorder struct {
	Log *slog.Logger
}

func (r LogRecorder) Record(ctx context.Context, t *schema.Table, e Entry) error {
	attrs := []slog.Attr{
		slog.String("entry", e.ID),
		slog.String("table", e.Table),
		slog.String("op", string(e.Op)),
	}
	if e.Key != nil {
		attrs = append(attrs, slog.Any(t.Key(), *e.Key))
	}
	if len(e.Fields) > 0 {
		group := make([]any, 0, len(e.Fields))
		for _, nv := range e.Fields.Ordered(t) {
			group = append(group, slog.Any(nv.Name, nv.Value.Native()))
		}
		attrs = append(attrs, slog.Group("fields", group...))
	}
	r.Log.LogAttrs(ctx, slog.LevelInfo, "journal", attrs...)
	return nil
}

// Multi пишет запись во все рекордеры по порядку; первая ошибка прерывает запись.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, t *schema.Table, e Entry) error {
	for _, r := range m {
		if err := r.Record(ctx, t, e); err != nil {
			return err
		}
	}
	return nil
}
