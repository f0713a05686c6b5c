// Package ops — операции над ресурсом. Данные сюда приходят уже проверенными
// движком экстракции и повторно не валидируются.
package ops

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"proverka/internal/apperr"
	"proverka/internal/journal"
	"proverka/internal/schema"
)

// Result — успешный итог операции.
type Result struct {
	Message string        `json:"message"`
	Entry   journal.Entry `json:"-"`
}

type Service struct {
	recorder journal.Recorder
	ids      *journal.IDSource
	log      *slog.Logger
	now      func() time.Time
}

func NewService(recorder journal.Recorder, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if recorder == nil {
		recorder = journal.LogRecorder{Log: log}
	}
	return &Service{
		recorder: recorder,
		ids:      journal.NewIDSource(),
		log:      log,
		now:      time.Now,
	}
}

// Create — POST. Сообщение адресовано значению display-поля таблицы.
func (s *Service) Create(ctx context.Context, t *schema.Table, fields schema.Fields) (Result, error) {
	who := "new " + title(t)
	if t.Display() != "" {
		name, ok, err := fields.String(t.Display())
		if err != nil {
			return Result{}, err
		}
		if ok {
			who = name
		}
	}

	e, err := s.record(ctx, t, journal.OpCreate, nil, fields)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Message: fmt.Sprintf("Welcome, %s! If this was hooked up to a database, you would be added.", who),
		Entry:   e,
	}, nil
}

func (s *Service) Read(ctx context.Context, t *schema.Table, id uint32) (Result, error) {
	e, err := s.record(ctx, t, journal.OpRead, &id, nil)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Message: fmt.Sprintf("Welcome, %s #%d! If this was hooked up to a database, your information would be retrieved.", title(t), id),
		Entry:   e,
	}, nil
}

// Update — PATCH. Пустой набор полей допустим: запись журнала всё равно создаётся.
func (s *Service) Update(ctx context.Context, t *schema.Table, id uint32, fields schema.Fields) (Result, error) {
	e, err := s.record(ctx, t, journal.OpUpdate, &id, fields)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Message: fmt.Sprintf("Welcome, %s #%d! If this was hooked up to a database, your information would be changed.", title(t), id),
		Entry:   e,
	}, nil
}

func (s *Service) Delete(ctx context.Context, t *schema.Table, id uint32) (Result, error) {
	e, err := s.record(ctx, t, journal.OpDelete, &id, nil)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Message: fmt.Sprintf("Goodbye, %s #%d. If this was hooked up to a database, your information would be deleted.", title(t), id),
		Entry:   e,
	}, nil
}

func (s *Service) record(ctx context.Context, t *schema.Table, op journal.Op, key *uint32, fields schema.Fields) (journal.Entry, error) {
	// отменённый запрос ничего не пишет
	if err := ctx.Err(); err != nil {
		return journal.Entry{}, err
	}
	e := journal.Entry{
		ID:         s.ids.New(),
		Table:      t.Name(),
		Op:         op,
		Key:        key,
		Fields:     fields,
		RecordedAt: s.now().UTC(),
	}
	if err := s.recorder.Record(ctx, t, e); err != nil {
		return journal.Entry{}, apperr.Wrap(apperr.KindInternal, err, "failed to record %s of %s", op, t.Name())
	}
	return e, nil
}

// title: "user" -> "User", "access_group" -> "Access Group".
// Caser не потокобезопасен, поэтому создаётся на каждый вызов.
func title(t *schema.Table) string {
	return cases.Title(language.English).String(strings.ReplaceAll(t.Name(), "_", " "))
}
