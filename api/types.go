package api

import (
	"context"

	"github.com/DevADOBAN/Taskhub/auth"
	"github.com/DevADOBAN/Taskhub/domain"
)

// Storage abstracts task persistence for handlers. Every method is scoped
// to the owner resolved from the request's token.
type Storage interface {
	CreateTask(ctx context.Context, ownerID int64, in domain.NewTask) (domain.Task, error)
	ListTasks(ctx context.Context, ownerID int64) ([]domain.Task, error)
	GetTask(ctx context.Context, ownerID, taskID int64) (domain.Task, error)
	UpdateTask(ctx context.Context, ownerID, taskID int64, patch domain.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, taskID int64) error
	Ping(ctx context.Context) error
}

// Accounts runs the credential flows.
type Accounts interface {
	Signup(ctx context.Context, in auth.SignupInput) (domain.User, error)
	Login(ctx context.Context, in auth.LoginInput) (string, error)
	Me(ctx context.Context, userID int64) (domain.User, error)
}

// Authenticator is implemented by types able to resolve a raw bearer token
// to a user id.
type Authenticator interface {
	Authenticate(token string) (int64, error)
}

type messageResponse struct {
	Message string `json:"message"`
}

type signupResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type meResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
