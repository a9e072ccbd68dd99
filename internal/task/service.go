// Package task はタスクの一覧・取得・作成・更新・削除を提供する。
package task

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/taskman/internal/metrics"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
	"github.com/hitoshi/taskman/internal/security"
)

// 入力値の上限（文字数）。
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 10000
)

// Input はタスク作成・更新の入力。
type Input struct {
	Title       string
	Description string
}

// TaskService はタスクのサービス層。
type TaskService struct {
	taskRepo  repository.TaskRepository
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// NewTaskService はTaskServiceの新しいインスタンスを生成する。
func NewTaskService(
	taskRepo repository.TaskRepository,
	sanitizer security.TextSanitizer,
	mc metrics.MetricsCollector,
) *TaskService {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &TaskService{
		taskRepo:  taskRepo,
		sanitizer: sanitizer,
		metrics:   mc,
		now:       time.Now,
	}
}

// ListTasks は全タスクを作成順で返す。0件の場合は空スライスを返す。
func (s *TaskService) ListTasks(ctx context.Context) ([]*model.Task, error) {
	tasks, err := s.taskRepo.List(ctx)
	if err != nil {
		s.metrics.RecordTaskOperation("list", metrics.OutcomeError)
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}
	s.metrics.RecordTaskOperation("list", metrics.OutcomeSuccess)
	return tasks, nil
}

// GetTask は指定IDのタスクを返す。
// 存在しない場合、またはIDがUUID形式でない場合はTASK_NOT_FOUNDを返す。
func (s *TaskService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	if !validID(id) {
		s.metrics.RecordTaskOperation("get", metrics.OutcomeFailure)
		return nil, model.NewTaskNotFoundError()
	}

	t, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		s.metrics.RecordTaskOperation("get", metrics.OutcomeError)
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if t == nil {
		s.metrics.RecordTaskOperation("get", metrics.OutcomeFailure)
		return nil, model.NewTaskNotFoundError()
	}

	s.metrics.RecordTaskOperation("get", metrics.OutcomeSuccess)
	return t, nil
}

// CreateTask はタスクを作成する。
func (s *TaskService) CreateTask(ctx context.Context, in Input) (*model.Task, error) {
	title, description, err := s.clean(in)
	if err != nil {
		s.metrics.RecordTaskOperation("create", metrics.OutcomeInvalid)
		return nil, err
	}

	now := s.now().UTC()
	t := &model.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, t); err != nil {
		s.metrics.RecordTaskOperation("create", metrics.OutcomeError)
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}

	s.metrics.RecordTaskOperation("create", metrics.OutcomeSuccess)
	return t, nil
}

// UpdateTask はタスクのタイトルと説明を置き換える。
func (s *TaskService) UpdateTask(ctx context.Context, id string, in Input) (*model.Task, error) {
	if !validID(id) {
		s.metrics.RecordTaskOperation("update", metrics.OutcomeFailure)
		return nil, model.NewTaskNotFoundError()
	}

	title, description, err := s.clean(in)
	if err != nil {
		s.metrics.RecordTaskOperation("update", metrics.OutcomeInvalid)
		return nil, err
	}

	t := &model.Task{
		ID:          id,
		Title:       title,
		Description: description,
		UpdatedAt:   s.now().UTC(),
	}

	found, err := s.taskRepo.Update(ctx, t)
	if err != nil {
		s.metrics.RecordTaskOperation("update", metrics.OutcomeError)
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	if !found {
		s.metrics.RecordTaskOperation("update", metrics.OutcomeFailure)
		return nil, model.NewTaskNotFoundError()
	}

	s.metrics.RecordTaskOperation("update", metrics.OutcomeSuccess)
	return t, nil
}

// DeleteTask はタスクを削除する。
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if !validID(id) {
		s.metrics.RecordTaskOperation("delete", metrics.OutcomeFailure)
		return model.NewTaskNotFoundError()
	}

	found, err := s.taskRepo.Delete(ctx, id)
	if err != nil {
		s.metrics.RecordTaskOperation("delete", metrics.OutcomeError)
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	if !found {
		s.metrics.RecordTaskOperation("delete", metrics.OutcomeFailure)
		return model.NewTaskNotFoundError()
	}

	s.metrics.RecordTaskOperation("delete", metrics.OutcomeSuccess)
	return nil
}

// markupReason はマークアップやエンティティを含む入力に対するフィールドエラー。
const markupReason = "The %s may not contain HTML markup or character references."

// clean は前後の空白を除いた入力値を検証する。
// 無害化で内容が変わる入力は書き換えずにバリデーションエラーとする。
func (s *TaskService) clean(in Input) (string, string, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)

	errs := model.ValidationErrors{}
	switch {
	case title == "":
		errs.Add("title", "The title field is required.")
	case s.sanitizer.Sanitize(title) != title:
		errs.Add("title", fmt.Sprintf(markupReason, "title"))
	case utf8.RuneCountInString(title) > MaxTitleLength:
		errs.Add("title", fmt.Sprintf("The title may not be greater than %d characters.", MaxTitleLength))
	}
	switch {
	case s.sanitizer.Sanitize(description) != description:
		errs.Add("description", fmt.Sprintf(markupReason, "description"))
	case utf8.RuneCountInString(description) > MaxDescriptionLength:
		errs.Add("description", fmt.Sprintf("The description may not be greater than %d characters.", MaxDescriptionLength))
	}
	if err := errs.Err(); err != nil {
		return "", "", err
	}
	return title, description, nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
