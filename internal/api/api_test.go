package api

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	enums "go.temporal.io/api/enums/v1"
	workflowpb "go.temporal.io/api/workflow/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/yourorg/rips-import/internal/driver"
	"github.com/yourorg/rips-import/internal/kv"
	"github.com/yourorg/rips-import/internal/models"
	"github.com/yourorg/rips-import/internal/runstate"
	"github.com/yourorg/rips-import/internal/transport"
	"github.com/yourorg/rips-import/internal/types"
	"github.com/yourorg/rips-import/internal/workflow"
)

type fakeImporter struct {
	store    *runstate.Store
	err      error
	batch    types.Batch
	settings types.Settings
}

func (f *fakeImporter) Begin(ctx context.Context, batch types.Batch, settings types.Settings) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.batch, f.settings = batch, settings
	return "run-1", f.store.Begin(ctx, batch, settings)
}

type fakeOutcomes struct {
	rows []models.ImportOutcome
	got  models.OutcomeFilter
}

func (f *fakeOutcomes) ListOutcomes(flt models.OutcomeFilter) ([]models.ImportOutcome, error) {
	f.got = flt
	return f.rows, nil
}

func (f *fakeOutcomes) Runs(int) ([]models.RunSummary, error) {
	return []models.RunSummary{{RunID: "run-1", Outcomes: 2}}, nil
}

type harness struct {
	store  *runstate.Store
	srv    *Server
	router *gin.Engine
	imp    *fakeImporter
}

func newHarness(t *testing.T, mutate func(*Deps)) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := runstate.New(kv.NewMemory(), nil)
	t.Cleanup(func() { _ = store.Close() })
	imp := &fakeImporter{store: store}
	d := Deps{
		Store:       store,
		Coordinator: transport.New(store, nil),
		Importer:    imp,
		TaskQueue:   "rips-import",
	}
	if mutate != nil {
		mutate(&d)
	}
	srv := New(d)
	t.Cleanup(srv.Close)
	r := gin.New()
	srv.Mount(r)
	return &harness{store: store, srv: srv, router: r, imp: imp}
}

func (h *harness) do(method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) postJSON(path, body string) *httptest.ResponseRecorder {
	return h.do(http.MethodPost, path, "application/json", []byte(body))
}

func TestPostMessageStoreAndGet(t *testing.T) {
	h := newHarness(t, nil)

	w := h.postJSON("/api/v1/messages", `{"action":"store_data_to_chrome_storage_local","dataObj":{"ACTION_STATE":"WAITING"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `["Saved: ACTION_STATE:WAITING"]`, w.Body.String())

	w = h.postJSON("/api/v1/messages", `{"action":"get_data_from_chrome_storage_local","keysObj":["ACTION_STATE"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ACTION_STATE":"WAITING"}`, w.Body.String())
}

func TestPostMessageStatuses(t *testing.T) {
	h := newHarness(t, nil)

	w := h.postJSON("/api/v1/messages", `{"action":"store_data_to_chrome_storage_local","dataObj":{"NOPE":1}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.postJSON("/api/v1/messages", `{"action":"unknown_thing"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.postJSON("/api/v1/messages", `{"action":"catch_error","noCallback":true}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.postJSON("/api/v1/messages", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetState(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.store.Begin(ctx, types.Batch{{"FIRST NAME": "A"}, {"FIRST NAME": "B"}}, types.DefaultSettings()))
	require.NoError(t, h.store.AddMessage(ctx, "hello"))

	w := h.do(http.MethodGet, "/api/v1/state", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var v StateView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, string(types.StateSearch), v.Action)
	assert.Equal(t, 2, v.Records)
	assert.Equal(t, []string{"hello"}, v.ErrorLog)
	assert.Equal(t, []string{}, v.Duplicates)
	assert.Equal(t, runstate.SchemaVersion, v.SchemaVersion)
	require.NotNil(t, v.Settings)
}

func TestPostImportText(t *testing.T) {
	h := newHarness(t, nil)

	body := `{"text":"FIRST NAME\tLAST NAME\nAnna\tBell\nbroken\n","settings":{"otherSettings":{"createNew":true},"searchSettings":{"byPhone":true},"matchSettings":{"matchFirst":true}}}`
	w := h.postJSON("/api/v1/imports", body)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"run_id":"run-1"`)
	assert.Contains(t, w.Body.String(), `"records":1`)

	require.Len(t, h.imp.batch, 1)
	assert.Equal(t, "Anna", h.imp.batch[0]["FIRST NAME"])
	assert.True(t, h.imp.settings.OtherSettings.CreateNew)
	assert.True(t, h.imp.settings.SearchSettings.ByPhone)

	st, err := h.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ROW #3 HAS DIFFERENT # OF COLUMNS THAN HEADER"}, st.ErrorLog)
}

func TestPostImportFile(t *testing.T) {
	h := newHarness(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "clients.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("FIRST NAME,LAST NAME\nAnna,Bell\nCarl,Dunn\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := h.do(http.MethodPost, "/api/v1/imports", mw.FormDataContentType(), buf.Bytes())
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Len(t, h.imp.batch, 2)
	assert.Equal(t, types.DefaultSettings(), h.imp.settings)
}

func TestPostImportErrors(t *testing.T) {
	h := newHarness(t, nil)
	w := h.postJSON("/api/v1/imports", `{"text":"no delimiters here\nat all"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	h.imp.err = driver.ErrTooManyTabs
	w = h.postJSON("/api/v1/imports", `{"text":"FIRST NAME,LAST NAME\nAnna,Bell"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	h.imp.err = errors.New("disk full")
	w = h.postJSON("/api/v1/imports", `{"text":"FIRST NAME,LAST NAME\nAnna,Bell"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	h = newHarness(t, func(d *Deps) { d.Importer = nil })
	w = h.postJSON("/api/v1/imports", `{"text":"a,b\nc,d"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetOutcomes(t *testing.T) {
	oc := &fakeOutcomes{rows: []models.ImportOutcome{
		{ID: 1, RunID: "run-1", ClientNumber: 1, Kind: "skipped", Message: "Skipping Client #1: x"},
	}}
	h := newHarness(t, func(d *Deps) { d.Outcomes = oc })

	w := h.do(http.MethodGet, "/api/v1/outcomes?run_id=run-1&kind=skipped&limit=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Skipping Client #1: x")
	assert.Equal(t, models.OutcomeFilter{RunID: "run-1", Kind: "skipped", Limit: 10}, oc.got)

	w = h.do(http.MethodGet, "/api/v1/outcomes?kind=exploded", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/v1/runs", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"run_id":"run-1"`)

	h = newHarness(t, nil)
	w = h.do(http.MethodGet, "/api/v1/outcomes", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStartImportWorkflow(t *testing.T) {
	tc := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	run.On("GetID").Return("rips-import-x")
	run.On("GetRunID").Return("r-1")
	tc.On("ExecuteWorkflow", mock.Anything, mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
		return o.TaskQueue == "rips-import" && strings.HasPrefix(o.ID, "rips-import-")
	}), workflow.WorkflowName, mock.MatchedBy(func(p types.ImportRunParams) bool {
		return p.InputURI == "s3://b/clients.xlsx" && p.Settings == types.DefaultSettings()
	})).Return(run, nil)

	h := newHarness(t, func(d *Deps) { d.Temporal = tc })
	w := h.postJSON("/api/v1/workflows/import", `{"input_uri":"s3://b/clients.xlsx"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"workflow_id":"rips-import-x","run_id":"r-1"}`, w.Body.String())
	tc.AssertExpectations(t)
}

func TestGetWorkflowStatusRunning(t *testing.T) {
	tc := &mocks.Client{}
	tc.On("DescribeWorkflowExecution", mock.Anything, "wf-1", "").Return(&workflowservice.DescribeWorkflowExecutionResponse{
		WorkflowExecutionInfo: &workflowpb.WorkflowExecutionInfo{
			Status:    enums.WORKFLOW_EXECUTION_STATUS_RUNNING,
			StartTime: timestamppb.New(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)),
		},
	}, nil)

	h := newHarness(t, func(d *Deps) { d.Temporal = tc })
	w := h.do(http.MethodGet, "/api/v1/workflows/wf-1/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "wf-1", body["workflow_id"])
	assert.Equal(t, enums.WORKFLOW_EXECUTION_STATUS_RUNNING.String(), body["status"])
	assert.NotContains(t, body, "result")
	tc.AssertNotCalled(t, "GetWorkflow", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkflowRoutesNeedTemporal(t *testing.T) {
	h := newHarness(t, nil)
	w := h.postJSON("/api/v1/workflows/import", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventsFeed(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.srv.Run(ctx)

	ts := httptest.NewServer(h.router)
	defer ts.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/v1/events", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	// a reply proves the connection is registered before anything is written
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"get_data_from_chrome_storage_local","keysObj":["ACTION_STATE"]}`)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"get_data_from_chrome_storage_local","response":{}}`, string(frame))

	require.NoError(t, h.store.SetAction(context.Background(), types.StateWaiting))
	_, frame, err = conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(frame, &ev))
	assert.Equal(t, Event{Type: "change", Key: "ACTION_STATE", New: "WAITING"}, ev)

	h.postJSON("/api/v1/messages", `{"action":"mystery"}`)
	_, frame, err = conn.ReadMessage()
	require.NoError(t, err)
	ev = Event{}
	require.NoError(t, json.Unmarshal(frame, &ev))
	assert.Equal(t, Event{Type: "notice", Message: transport.NotHandled, Action: "mystery"}, ev)
}
