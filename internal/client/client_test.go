package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/kelsos/artisan/internal/config"
	"github.com/kelsos/artisan/internal/jobtest"
	"github.com/kelsos/artisan/internal/models"
)

func newTestClient(t *testing.T) (*APIClient, *jobtest.Server) {
	t.Helper()
	srv := jobtest.NewServer(t)
	cfg := config.NewConfig()
	cfg.SetBaseURL(srv.URL)
	return NewAPIClient(cfg), srv
}

func TestCreateTask(t *testing.T) {
	c, srv := newTestClient(t)
	srv.OnGenerate(jobtest.JSON(http.StatusOK, map[string]string{"task_id": "T1"}))

	taskID, err := c.CreateTask(context.Background(), map[string]string{
		"prompt": "a red chair",
		"style":  "low-poly",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taskID != "T1" {
		t.Errorf("expected T1, got %q", taskID)
	}

	submissions := srv.Submissions()
	if len(submissions) != 1 {
		t.Fatalf("expected one submission, got %d", len(submissions))
	}
	if submissions[0]["prompt"] != "a red chair" || submissions[0]["style"] != "low-poly" {
		t.Errorf("unexpected body %v", submissions[0])
	}
}

func TestCreateTask_MissingTaskID(t *testing.T) {
	c, srv := newTestClient(t)
	srv.OnGenerate(jobtest.JSON(http.StatusOK, map[string]string{"status": "queued"}))

	_, err := c.CreateTask(context.Background(), map[string]string{"prompt": "x"})
	if !errors.Is(err, ErrMissingTaskID) {
		t.Errorf("expected ErrMissingTaskID, got %v", err)
	}
}

func TestCreateTask_ErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		resp   jobtest.Response
		code   int
		detail string
	}{
		{
			name:   "string detail",
			resp:   jobtest.JSON(http.StatusInternalServerError, map[string]string{"detail": "rate limited"}),
			code:   http.StatusInternalServerError,
			detail: "rate limited",
		},
		{
			name: "validation list",
			resp: jobtest.Raw(http.StatusUnprocessableEntity,
				`{"detail":[{"loc":["body","prompt"],"msg":"field required"},{"msg":"too long"}]}`),
			code:   http.StatusUnprocessableEntity,
			detail: "field required; too long",
		},
		{
			name:   "no detail field",
			resp:   jobtest.Raw(http.StatusServiceUnavailable, `{"error":"down"}`),
			code:   http.StatusServiceUnavailable,
			detail: "Server error: 503",
		},
		{
			name:   "body is not json",
			resp:   jobtest.Raw(http.StatusBadGateway, "<html>bad gateway</html>"),
			code:   http.StatusBadGateway,
			detail: models.DefaultErrorDetail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newTestClient(t)
			srv.OnGenerate(tt.resp)

			_, err := c.CreateTask(context.Background(), map[string]string{"prompt": "x"})

			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected HTTPError, got %v", err)
			}
			if httpErr.StatusCode != tt.code || httpErr.Detail != tt.detail {
				t.Errorf("expected %d %q, got %d %q", tt.code, tt.detail, httpErr.StatusCode, httpErr.Detail)
			}
		})
	}
}

func TestFetchStatus(t *testing.T) {
	c, srv := newTestClient(t)
	srv.OnStatus("T1",
		jobtest.JSON(http.StatusOK, map[string]interface{}{"status": "PENDING", "result": nil}),
		jobtest.JSON(http.StatusOK, map[string]interface{}{"status": "FAILURE", "result": "GPU out of memory"}),
	)

	first, err := c.FetchStatus(context.Background(), "T1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Status != models.TaskStatusPending || first.Detail() != "" {
		t.Errorf("unexpected first snapshot %+v", first)
	}

	second, err := c.FetchStatus(context.Background(), "T1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Status != models.TaskStatusFailure || second.Detail() != "GPU out of memory" {
		t.Errorf("unexpected second snapshot %+v", second)
	}

	if calls := srv.StatusCalls("T1"); calls != 2 {
		t.Errorf("expected 2 status calls, got %d", calls)
	}
}

func TestFetchStatus_UnknownTask(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.FetchStatus(context.Background(), "missing")

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
	if httpErr.Detail != "Task not found" {
		t.Errorf("unexpected detail %q", httpErr.Detail)
	}
}

func TestFetchStatus_TransportError(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Close()

	_, err := c.FetchStatus(context.Background(), "T1")
	if err == nil {
		t.Fatal("expected an error from a closed server")
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		t.Errorf("transport failures must not look like HTTP errors, got %v", err)
	}
}

func TestOpenModel(t *testing.T) {
	c, srv := newTestClient(t)
	srv.OnModel("T1", []byte("glTF-binary"), "red_chair.glb")
	srv.OnModel("T2", []byte("glTF-binary"), "")

	body, name, err := c.OpenModel(context.Background(), "T1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "glTF-binary" {
		t.Errorf("unexpected body %q", data)
	}
	if name != "red_chair.glb" {
		t.Errorf("expected name from Content-Disposition, got %q", name)
	}

	body2, name2, err := c.OpenModel(context.Background(), "T2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body2.Close()
	if name2 != "T2.glb" {
		t.Errorf("expected fallback name, got %q", name2)
	}

	if _, _, err := c.OpenModel(context.Background(), "T3"); err == nil {
		t.Error("expected an error for a missing model")
	}
}

func TestAttachmentName(t *testing.T) {
	tests := []struct {
		disposition string
		want        string
	}{
		{`attachment; filename="chair.glb"`, "chair.glb"},
		{`attachment; filename="../../etc/passwd"`, "passwd"},
		{`attachment; filename=../x.glb`, "T1.glb"},
		{`attachment; filename="..\\evil.glb"`, "evil.glb"},
		{`attachment`, "T1.glb"},
		{`;;;`, "T1.glb"},
		{``, "T1.glb"},
	}

	for _, tt := range tests {
		if got := attachmentName(tt.disposition, "T1"); got != tt.want {
			t.Errorf("attachmentName(%q) = %q, want %q", tt.disposition, got, tt.want)
		}
	}
}

func TestAttachmentName_UnsafeTaskID(t *testing.T) {
	tests := []struct {
		disposition string
		taskID      string
		want        string
	}{
		{``, "../../escape", "escape.glb"},
		{``, `..\..\escape`, "escape.glb"},
		{``, "..", "model.glb"},
		{``, "", "model.glb"},
		{`attachment; filename="chair.glb"`, "../../escape", "chair.glb"},
		{`attachment; filename=".."`, "../../escape", "escape.glb"},
	}

	for _, tt := range tests {
		if got := attachmentName(tt.disposition, tt.taskID); got != tt.want {
			t.Errorf("attachmentName(%q, %q) = %q, want %q", tt.disposition, tt.taskID, got, tt.want)
		}
	}
}

func TestRequestsCarryRequestID(t *testing.T) {
	c, srv := newTestClient(t)
	srv.OnGenerate(jobtest.JSON(http.StatusOK, map[string]string{"task_id": "T1"}))
	srv.OnStatus("T1", jobtest.JSON(http.StatusOK, map[string]string{"status": "SUCCESS"}))

	_, _ = c.CreateTask(context.Background(), map[string]string{"prompt": "x"})
	_, _ = c.FetchStatus(context.Background(), "T1")

	ids := srv.RequestIDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(ids))
	}
	if ids[0] == "" || ids[1] == "" || ids[0] == ids[1] {
		t.Errorf("expected distinct request ids, got %v", ids)
	}
}

func TestModelURL(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SetBaseURL("http://svc:8000/")
	c := NewAPIClient(cfg)

	if got := c.ModelURL("T1"); got != "http://svc:8000/model/T1" {
		t.Errorf("unexpected url %q", got)
	}
}
