package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/DevADOBAN/Taskhub/auth"
	"github.com/DevADOBAN/Taskhub/domain"
)

const healthTimeout = 2 * time.Second

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, accounts Accounts, authn Authenticator, logger *log.Logger) {
	e.JSONSerializer = sonicSerializer{}
	e.HTTPErrorHandler = ErrorHandler(logger)

	e.Use(middleware.BodyLimit("64K"))
	e.Use(GzipRequestMiddleware())
	e.Use(RequestMetrics(logger))

	e.GET("/healthz", healthz(store))

	e.POST("/auth/signup", signup(accounts))
	e.POST("/auth/login", login(accounts))

	protected := RequireAuth(authn, logger)
	e.GET("/auth/me", me(accounts), protected)
	e.GET("/me", me(accounts), protected)

	for _, prefix := range []string{"/tasks", "/api/tasks"} {
		g := e.Group(prefix, protected)
		g.POST("", createTask(store))
		g.GET("", listTasks(store))
		g.GET("/:id", getTask(store))
		g.PUT("/:id", updateTask(store))
		g.DELETE("/:id", deleteTask(store))
	}
}

func healthz(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			stage(c, "ping")
			return echo.NewHTTPError(http.StatusServiceUnavailable, "storage unavailable").SetInternal(err)
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "ok"})
	}
}

func signup(accounts Accounts) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in auth.SignupInput
		if err := decodeJSON(c, &in); err != nil {
			stage(c, "decode")
			return err
		}
		user, err := accounts.Signup(c.Request().Context(), in)
		if err != nil {
			stage(c, "signup")
			return err
		}
		return c.JSON(http.StatusCreated, signupResponse{Message: "user created", UserID: user.ID})
	}
}

func login(accounts Accounts) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in auth.LoginInput
		if err := decodeJSON(c, &in); err != nil {
			stage(c, "decode")
			return err
		}
		token, err := accounts.Login(c.Request().Context(), in)
		if err != nil {
			stage(c, "login")
			return err
		}
		return c.JSON(http.StatusOK, loginResponse{AccessToken: token})
	}
}

func me(accounts Accounts) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := userIDFrom(c)
		if err != nil {
			return err
		}
		user, err := accounts.Me(c.Request().Context(), userID)
		if err != nil {
			stage(c, "me")
			return err
		}
		return c.JSON(http.StatusOK, meResponse{ID: user.ID, Email: user.Email, Name: user.Name})
	}
}

func createTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := userIDFrom(c)
		if err != nil {
			return err
		}
		var in domain.NewTask
		if err := decodeJSON(c, &in); err != nil {
			stage(c, "decode")
			return err
		}
		task, err := store.CreateTask(c.Request().Context(), userID, in)
		if err != nil {
			stage(c, "create_task")
			return err
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func listTasks(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := userIDFrom(c)
		if err != nil {
			return err
		}
		tasks, err := store.ListTasks(c.Request().Context(), userID)
		if err != nil {
			stage(c, "list_tasks")
			return err
		}
		if m := metricsFrom(c); m != nil {
			m.SetTasksReturned(len(tasks))
		}
		return c.JSON(http.StatusOK, tasks)
	}
}

func getTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, taskID, err := taskRequest(c)
		if err != nil {
			return err
		}
		task, err := store.GetTask(c.Request().Context(), userID, taskID)
		if err != nil {
			stage(c, "get_task")
			return err
		}
		return c.JSON(http.StatusOK, task)
	}
}

func updateTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, taskID, err := taskRequest(c)
		if err != nil {
			return err
		}
		var patch domain.TaskPatch
		if err := decodeJSON(c, &patch); err != nil {
			stage(c, "decode")
			return err
		}
		task, err := store.UpdateTask(c.Request().Context(), userID, taskID, patch)
		if err != nil {
			stage(c, "update_task")
			return err
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, taskID, err := taskRequest(c)
		if err != nil {
			return err
		}
		if err := store.DeleteTask(c.Request().Context(), userID, taskID); err != nil {
			stage(c, "delete_task")
			return err
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "task deleted"})
	}
}

// taskRequest resolves the caller and the :id path parameter. Ids that are
// not positive integers cannot name a task, so they are reported as 404.
func taskRequest(c echo.Context) (int64, int64, error) {
	userID, err := userIDFrom(c)
	if err != nil {
		return 0, 0, err
	}
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || taskID <= 0 {
		stage(c, "task_id")
		return 0, 0, fmt.Errorf("%w: task %q", domain.ErrNotFound, c.Param("id"))
	}
	return userID, taskID, nil
}
