package http

import (
	"context"

	"mediahub/domain/model"
	"mediahub/domain/repository"
	"mediahub/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

type MockTaskUsecase struct{ mock.Mock }

func (m *MockTaskUsecase) Create(ctx context.Context, userID string, in usecase.CreateTaskInput) (*usecase.CreateTaskResult, error) {
	args := m.Called(ctx, userID, in)
	res, _ := args.Get(0).(*usecase.CreateTaskResult)
	return res, args.Error(1)
}

func (m *MockTaskUsecase) Get(ctx context.Context, userID, taskID string) (*usecase.TaskView, error) {
	args := m.Called(ctx, userID, taskID)
	res, _ := args.Get(0).(*usecase.TaskView)
	return res, args.Error(1)
}

func (m *MockTaskUsecase) List(ctx context.Context, userID string) ([]*usecase.TaskView, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).([]*usecase.TaskView)
	return res, args.Error(1)
}

func (m *MockTaskUsecase) Cancel(ctx context.Context, userID, taskID string) error {
	return m.Called(ctx, userID, taskID).Error(0)
}

type MockAccountUsecase struct{ mock.Mock }

func (m *MockAccountUsecase) List(ctx context.Context, userID string) ([]*model.Account, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).([]*model.Account)
	return res, args.Error(1)
}

func (m *MockAccountUsecase) Delete(ctx context.Context, userID, accountID string) error {
	return m.Called(ctx, userID, accountID).Error(0)
}

func (m *MockAccountUsecase) Refresh(ctx context.Context, userID, accountID string) (*model.Account, error) {
	args := m.Called(ctx, userID, accountID)
	res, _ := args.Get(0).(*model.Account)
	return res, args.Error(1)
}

type MockAuthUsecase struct{ mock.Mock }

func (m *MockAuthUsecase) Begin(ctx context.Context, userID, platform string) (string, error) {
	args := m.Called(ctx, userID, platform)
	return args.String(0), args.Error(1)
}

func (m *MockAuthUsecase) Callback(ctx context.Context, platform, code, state string) (*model.Account, error) {
	args := m.Called(ctx, platform, code, state)
	res, _ := args.Get(0).(*model.Account)
	return res, args.Error(1)
}

type MockShareUsecase struct{ mock.Mock }

func (m *MockShareUsecase) Schema(ctx context.Context, userID, platform, taskID string) (*usecase.ShareSchema, error) {
	args := m.Called(ctx, userID, platform, taskID)
	res, _ := args.Get(0).(*usecase.ShareSchema)
	return res, args.Error(1)
}

type MockDraftUsecase struct{ mock.Mock }

func (m *MockDraftUsecase) Create(ctx context.Context, userID string, d *model.Draft) (*model.Draft, error) {
	args := m.Called(ctx, userID, d)
	res, _ := args.Get(0).(*model.Draft)
	return res, args.Error(1)
}

func (m *MockDraftUsecase) List(ctx context.Context, userID string) ([]*model.Draft, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).([]*model.Draft)
	return res, args.Error(1)
}

func (m *MockDraftUsecase) Get(ctx context.Context, userID, id string) (*model.Draft, error) {
	args := m.Called(ctx, userID, id)
	res, _ := args.Get(0).(*model.Draft)
	return res, args.Error(1)
}

func (m *MockDraftUsecase) Update(ctx context.Context, userID, id string, d *model.Draft) (*model.Draft, error) {
	args := m.Called(ctx, userID, id, d)
	res, _ := args.Get(0).(*model.Draft)
	return res, args.Error(1)
}

func (m *MockDraftUsecase) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

type MockWebhookUsecase struct{ mock.Mock }

func (m *MockWebhookUsecase) Handle(ctx context.Context, platform string, body []byte, signature string) (map[string]interface{}, error) {
	args := m.Called(ctx, platform, body, signature)
	res, _ := args.Get(0).(map[string]interface{})
	return res, args.Error(1)
}

// asUser stands in for the auth middleware.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	}
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

type fakeRegistry []string

func (r fakeRegistry) Get(name string) (repository.IPlatform, error) {
	return nil, model.ErrUnsupportedPlatform
}

func (r fakeRegistry) Names() []string { return r }
