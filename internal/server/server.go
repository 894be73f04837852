package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hiveline/internal/domain"
	"hiveline/internal/engine"
	"hiveline/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"assignment not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Hiveline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// schema-level request validation is a 400, not a 422
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	hcfg := huma.DefaultConfig("Hiveline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerUsers(group, cfg.Engine)
	registerHives(group, cfg.Engine)
	registerGroups(group, cfg.Engine)
	registerTasks(group, cfg.Engine)
	registerAssignments(group, cfg.Engine)
	registerProgress(group, cfg.Engine)
	registerHistory(group, cfg.Engine)
	registerNotifications(group, cfg.Engine)
	registerSweep(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case engine.IsValidation(err):
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	case errors.Is(err, engine.ErrNotCompleted):
		return newAPIError(http.StatusUnprocessableEntity, "not_completed", err.Error(), nil)
	case errors.Is(err, engine.ErrAlreadyRated):
		return newAPIError(http.StatusUnprocessableEntity, "already_rated", err.Error(), nil)
	case errors.Is(err, engine.ErrAlreadyReviewed):
		return newAPIError(http.StatusUnprocessableEntity, "already_reviewed", err.Error(), nil)
	case errors.Is(err, engine.ErrNotParticipant):
		return newAPIError(http.StatusUnprocessableEntity, "not_participant", err.Error(), nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Hiveline API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerUsers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/users",
		Summary:       "Create user",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateUserRequest `json:"body"`
	}) (*struct {
		Body domain.User `json:"body"`
	}, error) {
		if input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		u := domain.User{
			ID:        input.Body.ID,
			Name:      input.Body.Name,
			Email:     input.Body.Email,
			Role:      input.Body.Role,
			CreatedAt: e.Now().UTC().Format(time.RFC3339),
		}
		if u.ID == "" {
			u.ID = uuid.New().String()
		}
		if u.Role == "" {
			u.Role = "user"
		}
		if err := e.Repo.InsertUser(ctx, u); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.User `json:"body"`
		}{Body: u}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.User `json:"body"`
	}, error) {
		items, err := e.Repo.ListUsers(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.User `json:"body"`
		}{Body: items}, nil
	})
}

func registerHives(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-hive",
		Method:        http.MethodPost,
		Path:          "/hives",
		Summary:       "Create hive",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateHiveRequest `json:"body"`
	}) (*struct {
		Body domain.Hive `json:"body"`
	}, error) {
		if input.Body.Label == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "label is required", nil)
		}
		now := e.Now().UTC().Format(time.RFC3339)
		h := domain.Hive{
			ID:        input.Body.ID,
			Label:     input.Body.Label,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if h.ID == "" {
			h.ID = uuid.New().String()
		}
		if input.Body.OwnerUserID != "" {
			h.OwnerUserID = &input.Body.OwnerUserID
		}
		if err := e.Repo.InsertHive(ctx, h); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Hive `json:"body"`
		}{Body: h}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-hives",
		Method:      http.MethodGet,
		Path:        "/hives",
		Summary:     "List hives",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Hive `json:"body"`
	}, error) {
		items, err := e.Repo.ListHives(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Hive `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-hive",
		Method:      http.MethodGet,
		Path:        "/hives/{id}",
		Summary:     "Get hive",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.Hive `json:"body"`
	}, error) {
		h, err := e.Repo.GetHive(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Hive `json:"body"`
		}{Body: h}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-hive",
		Method:      http.MethodPatch,
		Path:        "/hives/{id}",
		Summary:     "Update hive",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string            `path:"id"`
		ActorID string            `header:"X-Actor-Id"`
		Body    UpdateHiveRequest `json:"body"`
	}) (*struct {
		Body domain.Hive `json:"body"`
	}, error) {
		h, err := e.UpdateHive(ctx, input.ID, engine.HiveUpdateOptions{
			Label:   input.Body.Label,
			OwnerID: input.Body.OwnerUserID,
			ActorID: input.ActorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Hive `json:"body"`
		}{Body: h}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-hive-member",
		Method:        http.MethodPut,
		Path:          "/hives/{id}/members/{user_id}",
		Summary:       "Add hive member",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID     string `path:"id"`
		UserID string `path:"user_id"`
	}) (*struct{}, error) {
		if _, err := e.Repo.GetHive(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		if _, err := e.Repo.GetUser(ctx, input.UserID); err != nil {
			return nil, handleError(err)
		}
		if err := e.Repo.AddHiveMember(ctx, input.ID, input.UserID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "remove-hive-member",
		Method:        http.MethodDelete,
		Path:          "/hives/{id}/members/{user_id}",
		Summary:       "Remove hive member",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID     string `path:"id"`
		UserID string `path:"user_id"`
	}) (*struct{}, error) {
		if _, err := e.Repo.GetHive(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		if err := e.Repo.RemoveHiveMember(ctx, input.ID, input.UserID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "hive-summary",
		Method:      http.MethodGet,
		Path:        "/hives/{id}/summary",
		Summary:     "Hive summary",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body engine.HiveSummary `json:"body"`
	}, error) {
		s, err := e.Summary(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.HiveSummary `json:"body"`
		}{Body: s}, nil
	})
}

func registerGroups(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-group",
		Method:        http.MethodPost,
		Path:          "/groups",
		Summary:       "Create group",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateGroupRequest `json:"body"`
	}) (*struct {
		Body domain.Group `json:"body"`
	}, error) {
		if input.Body.Name == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		g := domain.Group{
			ID:        input.Body.ID,
			Name:      input.Body.Name,
			CreatedAt: e.Now().UTC().Format(time.RFC3339),
		}
		if g.ID == "" {
			g.ID = uuid.New().String()
		}
		if err := e.Repo.InsertGroup(ctx, g); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Group `json:"body"`
		}{Body: g}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-group-member",
		Method:        http.MethodPut,
		Path:          "/groups/{id}/members/{user_id}",
		Summary:       "Add group member",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID     string `path:"id"`
		UserID string `path:"user_id"`
	}) (*struct{}, error) {
		if _, err := e.Repo.GetGroup(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		if _, err := e.Repo.GetUser(ctx, input.UserID); err != nil {
			return nil, handleError(err)
		}
		if err := e.Repo.AddGroupMember(ctx, input.ID, input.UserID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerTasks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		ActorID string            `header:"X-Actor-Id"`
		Body    CreateTaskRequest `json:"body"`
	}) (*struct {
		Body domain.Task `json:"body"`
	}, error) {
		if input.Body.Title == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "title is required", nil)
		}
		now := e.Now().UTC().Format(time.RFC3339)
		t := domain.Task{
			ID:            input.Body.ID,
			Title:         input.Body.Title,
			Category:      input.Body.Category,
			DueWindowDays: input.Body.DueWindowDays,
			CreatedAt:     now,
		}
		if t.ID == "" {
			t.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(t.Title+"|"+now)).String()
		}
		if input.ActorID != "" {
			t.CreatedByUserID = &input.ActorID
		}
		if err := e.Repo.InsertTask(ctx, t); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Task `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
	}, func(ctx context.Context, input *struct {
		IncludeArchived bool `query:"include_archived"`
	}) (*struct {
		Body []domain.Task `json:"body"`
	}, error) {
		items, err := e.Repo.ListTasks(ctx, input.IncludeArchived)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Task `json:"body"`
		}{Body: items}, nil
	})

	type taskWithSteps struct {
		Task  domain.Task       `json:"task"`
		Steps []domain.TaskStep `json:"steps"`
	}
	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get task with steps",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body taskWithSteps `json:"body"`
	}, error) {
		t, err := e.Repo.GetTask(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		steps, err := e.Repo.ListTaskSteps(ctx, t.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body taskWithSteps `json:"body"`
		}{Body: taskWithSteps{Task: t, Steps: steps}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-task-step",
		Method:        http.MethodPost,
		Path:          "/tasks/{id}/steps",
		Summary:       "Add task step",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string                `path:"id"`
		Body CreateTaskStepRequest `json:"body"`
	}) (*struct {
		Body domain.TaskStep `json:"body"`
	}, error) {
		if input.Body.Title == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "title is required", nil)
		}
		if _, err := e.Repo.GetTask(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		s := domain.TaskStep{
			ID:               input.Body.ID,
			TaskID:           input.ID,
			OrderIndex:       input.Body.OrderIndex,
			Title:            input.Body.Title,
			RequireUserMedia: input.Body.RequireUserMedia,
			CreatedAt:        e.Now().UTC().Format(time.RFC3339),
		}
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		if input.Body.ContentText != "" {
			s.ContentText = &input.Body.ContentText
		}
		if input.Body.MediaURL != "" {
			s.MediaURL = &input.Body.MediaURL
		}
		if input.Body.MediaKind != "" {
			s.MediaKind = &input.Body.MediaKind
		}
		if err := e.Repo.InsertTaskStep(ctx, s); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.TaskStep `json:"body"`
		}{Body: s}, nil
	})
}

func registerAssignments(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-assignment",
		Method:        http.MethodPost,
		Path:          "/assignments",
		Summary:       "Create assignment",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ActorID string                  `header:"X-Actor-Id"`
		Body    CreateAssignmentRequest `json:"body"`
	}) (*struct {
		Body domain.Assignment `json:"body"`
	}, error) {
		a, err := e.CreateAssignment(ctx, engine.AssignmentCreateOptions{
			TaskID:    input.Body.TaskID,
			HiveID:    input.Body.HiveID,
			GroupID:   input.Body.GroupID,
			StartDate: input.Body.StartDate,
			DueDate:   input.Body.DueDate,
			ActorID:   input.ActorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Assignment `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-assignments-bulk",
		Method:        http.MethodPost,
		Path:          "/assignments/bulk",
		Summary:       "Assign one task to many hives",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ActorID string                       `header:"X-Actor-Id"`
		Body    CreateAssignmentsBulkRequest `json:"body"`
	}) (*struct {
		Body []domain.Assignment `json:"body"`
	}, error) {
		res, err := e.CreateAssignmentsBulk(ctx, input.Body.TaskID, input.Body.HiveIDs, input.Body.StartDate, input.Body.DueDate, input.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Assignment `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-assignments",
		Method:      http.MethodGet,
		Path:        "/assignments",
		Summary:     "List assignments",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		HiveID          string `query:"hive_id"`
		TaskID          string `query:"task_id"`
		Status          string `query:"status"`
		AvailableNow    bool   `query:"available_now"`
		IncludeArchived bool   `query:"include_archived"`
		Limit           int    `query:"limit" default:"50"`
	}) (*struct {
		Body []engine.AssignmentView `json:"body"`
	}, error) {
		items, err := e.ListAssignments(ctx, engine.AssignmentListFilters{
			Repo: repo.AssignmentFilters{
				HiveID:          input.HiveID,
				TaskID:          input.TaskID,
				IncludeArchived: input.IncludeArchived,
				Limit:           input.Limit,
			},
			ViewStatus:   input.Status,
			AvailableNow: input.AvailableNow,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []engine.AssignmentView `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-assignment",
		Method:      http.MethodGet,
		Path:        "/assignments/{id}",
		Summary:     "Assignment details",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body engine.AssignmentDetails `json:"body"`
	}, error) {
		d, err := e.AssignmentDetails(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.AssignmentDetails `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-assignment-dates",
		Method:      http.MethodPatch,
		Path:        "/assignments/{id}/dates",
		Summary:     "Update assignment dates",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string             `path:"id"`
		ActorID string             `header:"X-Actor-Id"`
		Body    UpdateDatesRequest `json:"body"`
	}) (*struct {
		Body domain.Assignment `json:"body"`
	}, error) {
		a, err := e.UpdateAssignmentDates(ctx, input.ID, input.Body.StartDate, input.Body.DueDate, input.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Assignment `json:"body"`
		}{Body: a}, nil
	})

	archive := func(archived bool) func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.Assignment `json:"body"`
	}, error) {
		return func(ctx context.Context, input *struct {
			ID string `path:"id"`
		}) (*struct {
			Body domain.Assignment `json:"body"`
		}, error) {
			a, err := e.SetAssignmentArchived(ctx, input.ID, archived)
			if err != nil {
				return nil, handleError(err)
			}
			return &struct {
				Body domain.Assignment `json:"body"`
			}{Body: a}, nil
		}
	}
	huma.Register(api, huma.Operation{
		OperationID: "archive-assignment",
		Method:      http.MethodPost,
		Path:        "/assignments/{id}/archive",
		Summary:     "Archive assignment",
		Errors:      []int{http.StatusNotFound},
	}, archive(true))
	huma.Register(api, huma.Operation{
		OperationID: "unarchive-assignment",
		Method:      http.MethodPost,
		Path:        "/assignments/{id}/unarchive",
		Summary:     "Unarchive assignment",
		Errors:      []int{http.StatusNotFound},
	}, archive(false))

	huma.Register(api, huma.Operation{
		OperationID: "review-assignment",
		Method:      http.MethodPost,
		Path:        "/assignments/{id}/review",
		Summary:     "Review assignment",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID      string        `path:"id"`
		ActorID string        `header:"X-Actor-Id"`
		Body    ReviewRequest `json:"body"`
	}) (*struct {
		Body domain.Assignment `json:"body"`
	}, error) {
		a, err := e.ReviewAssignment(ctx, input.ID, input.Body.Status, input.Body.Comment, input.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Assignment `json:"body"`
		}{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rate-assignment",
		Method:      http.MethodPost,
		Path:        "/assignments/{id}/rating",
		Summary:     "Rate assignment",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID      string        `path:"id"`
		ActorID string        `header:"X-Actor-Id"`
		Body    RatingRequest `json:"body"`
	}) (*struct {
		Body domain.Assignment `json:"body"`
	}, error) {
		a, err := e.RateAssignment(ctx, input.ID, input.Body.Rating, input.Body.Comment, input.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Assignment `json:"body"`
		}{Body: a}, nil
	})
}

func registerProgress(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "complete-step",
		Method:      http.MethodPost,
		Path:        "/assignments/{id}/steps/{step_id}/complete",
		Summary:     "Complete a step",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, input *struct {
		ID      string              `path:"id"`
		StepID  string              `path:"step_id"`
		ActorID string              `header:"X-Actor-Id"`
		Body    CompleteStepRequest `json:"body"`
	}) (*struct {
		Body domain.Progress `json:"body"`
	}, error) {
		userID := input.Body.UserID
		if userID == "" {
			userID = input.ActorID
		}
		p, err := e.CompleteStep(ctx, engine.CompleteStepOptions{
			AssignmentID: input.ID,
			StepID:       input.StepID,
			UserID:       userID,
			Notes:        input.Body.Notes,
			EvidenceURL:  input.Body.EvidenceURL,
			EvidenceKind: input.Body.EvidenceKind,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Progress `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-progress",
		Method:      http.MethodGet,
		Path:        "/assignments/{id}/progress",
		Summary:     "List assignment progress",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body []domain.Progress `json:"body"`
	}, error) {
		if _, err := e.Repo.GetAssignment(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		rows, err := e.Repo.ListProgress(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Progress `json:"body"`
		}{Body: rows}, nil
	})
}

func registerHistory(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "hive-history",
		Method:      http.MethodGet,
		Path:        "/hives/{id}/history",
		Summary:     "Hive history",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID    string `path:"id"`
		Page  int    `query:"page" default:"1"`
		Limit int    `query:"limit"`
	}) (*struct {
		Body engine.HistoryPage `json:"body"`
	}, error) {
		page, err := e.HiveHistory(ctx, input.ID, input.Page, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.HistoryPage `json:"body"`
		}{Body: page}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-manual-note",
		Method:        http.MethodPost,
		Path:          "/hives/{id}/notes",
		Summary:       "Add manual note",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID      string            `path:"id"`
		ActorID string            `header:"X-Actor-Id"`
		Body    ManualNoteRequest `json:"body"`
	}) (*struct {
		Body domain.HiveEvent `json:"body"`
	}, error) {
		evt, err := e.CreateManualNote(ctx, input.ID, input.Body.Text, input.Body.Attachments, input.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.HiveEvent `json:"body"`
		}{Body: evt}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-manual-note",
		Method:      http.MethodPatch,
		Path:        "/notes/{id}",
		Summary:     "Edit manual note",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   int64             `path:"id"`
		Body ManualNoteRequest `json:"body"`
	}) (*struct {
		Body domain.HiveEvent `json:"body"`
	}, error) {
		evt, err := e.UpdateManualNote(ctx, input.ID, input.Body.Text, input.Body.Attachments)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.HiveEvent `json:"body"`
		}{Body: evt}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-manual-note",
		Method:        http.MethodDelete,
		Path:          "/notes/{id}",
		Summary:       "Delete manual note",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct{}, error) {
		if err := e.DeleteManualNote(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerNotifications(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-notifications",
		Method:      http.MethodGet,
		Path:        "/notifications",
		Summary:     "List notifications for a user",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		UserID  string `query:"user_id"`
		ActorID string `header:"X-Actor-Id"`
		Limit   int    `query:"limit" default:"50"`
	}) (*struct {
		Body []domain.Notification `json:"body"`
	}, error) {
		userID := input.UserID
		if userID == "" {
			userID = input.ActorID
		}
		if userID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "user_id is required", nil)
		}
		items, err := e.Repo.ListNotifications(ctx, userID, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Notification `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "read-notification",
		Method:        http.MethodPost,
		Path:          "/notifications/{id}/read",
		Summary:       "Mark notification read",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if err := e.Repo.MarkNotificationRead(ctx, input.ID, e.Now().UTC().Format(time.RFC3339)); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerSweep(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "sweep-tick",
		Method:      http.MethodPost,
		Path:        "/sweep/tick",
		Summary:     "Run one notification sweep",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body engine.SweepResult `json:"body"`
	}, error) {
		res, err := e.SweepTick(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.SweepResult `json:"body"`
		}{Body: res}, nil
	})
}
