package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"taskFlow/internal/models/task"
	"taskFlow/internal/repository"
	"taskFlow/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTaskService(repo *MockTaskRepository) *service.TaskService {
	return service.NewTaskService(repo, fixedClock)
}

func TestTaskService_List(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name       string
		query      service.TaskQuery
		setupMock  func(*MockTaskRepository)
		expectCode string
		check      func(*testing.T, *service.TaskPage)
	}{
		{
			name:  "defaults and overdue transition before listing",
			query: service.TaskQuery{},
			setupMock: func(m *MockTaskRepository) {
				m.On("MarkOverdue", mock.Anything, &userID, fixedNow).Return(int64(2), nil).Once()
				m.On("List", mock.Anything, repository.TaskFilter{
					UserID:    &userID,
					SortBy:    "dueDate",
					SortOrder: repository.SortAsc,
				}, repository.Page{Page: 1, Limit: service.DefaultTaskLimit}).
					Return([]*task.Task{{Title: "a"}}, 1, nil).Once()
			},
			check: func(t *testing.T, p *service.TaskPage) {
				assert.Len(t, p.Tasks, 1)
				assert.Equal(t, service.Pagination{Page: 1, Limit: 1000, Total: 1, Pages: 1}, p.Pagination)
			},
		},
		{
			name:  "all means no filter",
			query: service.TaskQuery{Page: 2, Limit: 5, Status: "all", Category: "all", SortBy: "title", SortOrder: "DESC"},
			setupMock: func(m *MockTaskRepository) {
				m.On("MarkOverdue", mock.Anything, &userID, fixedNow).Return(int64(0), nil).Once()
				m.On("List", mock.Anything, repository.TaskFilter{
					UserID:    &userID,
					SortBy:    "title",
					SortOrder: repository.SortDesc,
				}, repository.Page{Page: 2, Limit: 5}).
					Return([]*task.Task{}, 11, nil).Once()
			},
			check: func(t *testing.T, p *service.TaskPage) {
				assert.Equal(t, 3, p.Pagination.Pages)
			},
		},
		{
			name:  "huge page and limit are clamped",
			query: service.TaskQuery{Page: math.MaxInt, Limit: 1_000_000},
			setupMock: func(m *MockTaskRepository) {
				m.On("MarkOverdue", mock.Anything, &userID, fixedNow).Return(int64(0), nil).Once()
				m.On("List", mock.Anything, mock.Anything, repository.Page{Page: 2147484, Limit: service.MaxPageLimit}).
					Return([]*task.Task{}, 3, nil).Once()
			},
			check: func(t *testing.T, p *service.TaskPage) {
				assert.Equal(t, service.MaxPageLimit, p.Pagination.Limit)
				assert.Empty(t, p.Tasks)
			},
		},
		{
			name:       "unknown sort field",
			query:      service.TaskQuery{SortBy: "userId"},
			setupMock:  func(m *MockTaskRepository) {},
			expectCode: service.CodeValidation,
		},
		{
			name:       "unknown status",
			query:      service.TaskQuery{Status: "archived"},
			setupMock:  func(m *MockTaskRepository) {},
			expectCode: service.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockTaskRepository)
			tt.setupMock(repo)

			page, err := newTaskService(repo).List(context.Background(), userID, tt.query)

			if tt.expectCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectCode, businessCode(err))
				repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			tt.check(t, page)
			repo.AssertExpectations(t)
		})
	}
}

func TestTaskService_Stats(t *testing.T) {
	userID := uuid.New()
	repo := new(MockTaskRepository)
	repo.On("MarkOverdue", mock.Anything, &userID, fixedNow).Return(int64(1), nil).Once()
	repo.On("Count", mock.Anything, &userID, task.Status("")).Return(6, nil)
	repo.On("Count", mock.Anything, &userID, task.StatusCompleted).Return(3, nil)
	repo.On("Count", mock.Anything, &userID, task.StatusPending).Return(2, nil)
	repo.On("Count", mock.Anything, &userID, task.StatusOverdue).Return(1, nil)

	stats, err := newTaskService(repo).Stats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, &service.TaskStats{Total: 6, Completed: 3, Pending: 2, Overdue: 1}, stats)
	repo.AssertExpectations(t)
}

func TestTaskService_Stats_RepositoryError(t *testing.T) {
	userID := uuid.New()
	repo := new(MockTaskRepository)
	repo.On("MarkOverdue", mock.Anything, &userID, fixedNow).Return(int64(0), errors.New("db down"))

	_, err := newTaskService(repo).Stats(context.Background(), userID)
	assert.Error(t, err)
	assert.Empty(t, businessCode(err))
}

func TestTaskService_Create(t *testing.T) {
	userID := uuid.New()

	t.Run("today is allowed and defaults applied", func(t *testing.T) {
		repo := new(MockTaskRepository)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(tk *task.Task) bool {
			return tk.UserID == userID &&
				tk.Status == task.StatusPending &&
				tk.Priority == task.PriorityMedium &&
				tk.Title == "Pay rent" &&
				tk.CompletedAt == nil
		})).Return(nil).Once()

		created, err := newTaskService(repo).Create(context.Background(), userID, service.CreateTaskInput{
			Title:    "  Pay rent ",
			Category: task.CategoryFinance,
			DueDate:  task.StartOfDay(fixedNow),
			Tags:     []string{" bills ", "", "  "},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"bills"}, created.Tags)
		assert.NotNil(t, created.Attachments)
		repo.AssertExpectations(t)
	})

	t.Run("yesterday is rejected", func(t *testing.T) {
		repo := new(MockTaskRepository)

		_, err := newTaskService(repo).Create(context.Background(), userID, service.CreateTaskInput{
			Title:    "late",
			Category: task.CategoryWork,
			DueDate:  task.StartOfDay(fixedNow).Add(-time.Second),
		})
		require.Error(t, err)
		assert.Equal(t, service.CodeValidation, businessCode(err))
		assert.Contains(t, err.Error(), "Due date cannot be in the past")
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestTaskService_OwnershipIsNotFound(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	id := uuid.New()
	foreign := &task.Task{ID: id, UserID: owner, Status: task.StatusPending, DueDate: fixedNow.Add(time.Hour)}

	repo := new(MockTaskRepository)
	repo.On("GetByID", mock.Anything, id).Return(foreign, nil)
	svc := newTaskService(repo)
	ctx := context.Background()

	_, err := svc.Get(ctx, stranger, id)
	assert.Equal(t, service.CodeNotFound, businessCode(err))

	title := "hijack"
	_, err = svc.Update(ctx, stranger, id, service.UpdateTaskInput{Title: &title})
	assert.Equal(t, service.CodeNotFound, businessCode(err))

	err = svc.Delete(ctx, stranger, id)
	assert.Equal(t, service.CodeNotFound, businessCode(err))

	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestTaskService_GetMissing(t *testing.T) {
	repo := new(MockTaskRepository)
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, repository.ErrNotFound)

	_, err := newTaskService(repo).Get(context.Background(), uuid.New(), id)
	assert.Equal(t, service.CodeNotFound, businessCode(err))
}

func TestTaskService_GetAppliesOverdue(t *testing.T) {
	userID := uuid.New()
	id := uuid.New()
	stale := &task.Task{ID: id, UserID: userID, Status: task.StatusPending, DueDate: fixedNow.Add(-time.Hour)}

	repo := new(MockTaskRepository)
	repo.On("GetByID", mock.Anything, id).Return(stale, nil)
	repo.On("Update", mock.Anything, stale).Return(nil).Once()

	got, err := newTaskService(repo).Get(context.Background(), userID, id)
	require.NoError(t, err)
	assert.Equal(t, task.StatusOverdue, got.Status)
	repo.AssertExpectations(t)
}

func TestTaskService_Update_CompletedAtLifecycle(t *testing.T) {
	userID := uuid.New()
	id := uuid.New()
	current := &task.Task{ID: id, UserID: userID, Title: "Pay rent", Status: task.StatusPending, DueDate: fixedNow.Add(24 * time.Hour)}

	repo := new(MockTaskRepository)
	repo.On("GetByID", mock.Anything, id).Return(current, nil)
	repo.On("Update", mock.Anything, current).Return(nil)
	svc := newTaskService(repo)
	ctx := context.Background()

	completed := task.StatusCompleted
	got, err := svc.Update(ctx, userID, id, service.UpdateTaskInput{Status: &completed})
	require.NoError(t, err)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, fixedNow, *got.CompletedAt)

	// повторное completed не меняет отметку
	firstStamp := *got.CompletedAt
	got, err = svc.Update(ctx, userID, id, service.UpdateTaskInput{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, firstStamp, *got.CompletedAt)

	pending := task.StatusPending
	got, err = svc.Update(ctx, userID, id, service.UpdateTaskInput{Status: &pending})
	require.NoError(t, err)
	assert.Nil(t, got.CompletedAt)
	assert.Equal(t, "Pay rent", got.Title)
}

func TestTaskService_Update_PastDueDateRejected(t *testing.T) {
	repo := new(MockTaskRepository)
	past := fixedNow.AddDate(0, 0, -1)

	_, err := newTaskService(repo).Update(context.Background(), uuid.New(), uuid.New(), service.UpdateTaskInput{DueDate: &past})
	assert.Equal(t, service.CodeValidation, businessCode(err))
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestTaskService_Delete(t *testing.T) {
	userID := uuid.New()
	id := uuid.New()
	repo := new(MockTaskRepository)
	repo.On("GetByID", mock.Anything, id).Return(&task.Task{ID: id, UserID: userID}, nil)
	repo.On("Delete", mock.Anything, id).Return(nil).Once()

	require.NoError(t, newTaskService(repo).Delete(context.Background(), userID, id))
	repo.AssertExpectations(t)
}
