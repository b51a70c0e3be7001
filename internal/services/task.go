package services

import (
	"context"

	"github.com/deskhub/deskhub/internal/model"
	"github.com/deskhub/deskhub/internal/store"
)

// TaskService handles task CRUD.
type TaskService struct {
	store store.Store
}

func NewTaskService(s store.Store) *TaskService { return &TaskService{store: s} }

func (s *TaskService) CreateTask(ctx context.Context, t *model.Task) (*model.Task, error) {
	if t.Status == "" {
		t.Status = model.TaskStatusTodo
	}
	if t.Priority == "" {
		t.Priority = model.TaskPriorityMedium
	}
	return s.store.Tasks().Create(ctx, t)
}

func (s *TaskService) GetTask(ctx context.Context, userID, taskID string) (*model.Task, error) {
	return s.store.Tasks().Get(ctx, userID, taskID)
}

func (s *TaskService) ListTasks(ctx context.Context, req model.ListTasksRequest) ([]*model.Task, error) {
	return s.store.Tasks().List(ctx, req)
}

func (s *TaskService) UpdateTask(ctx context.Context, t *model.Task) (*model.Task, error) {
	return s.store.Tasks().Update(ctx, t)
}

func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) error {
	return s.store.Tasks().Delete(ctx, userID, taskID)
}
