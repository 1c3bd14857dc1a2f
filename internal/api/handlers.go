package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourorg/rips-import/internal/driver"
	"github.com/yourorg/rips-import/internal/ingest"
	"github.com/yourorg/rips-import/internal/models"
	"github.com/yourorg/rips-import/internal/runstate"
	"github.com/yourorg/rips-import/internal/transport"
	"github.com/yourorg/rips-import/internal/types"
)

// PostMessage runs one transport message. A message without a response
// body answers 204.
func (s *Server) PostMessage(c *gin.Context) {
	var m transport.Message
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	body, err := s.d.Coordinator.Handle(c.Request.Context(), m)
	if err != nil {
		c.JSON(messageStatus(err), gin.H{"error": err.Error()})
		return
	}
	if body == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, body)
}

func messageStatus(err error) int {
	switch {
	case errors.Is(err, runstate.ErrUnknownKey),
		errors.Is(err, runstate.ErrBadValue),
		errors.Is(err, transport.ErrNoData),
		errors.Is(err, transport.ErrBadKeys):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// StateView is the JSON shape of the run state.
type StateView struct {
	Action        string          `json:"action"`
	ClientIndex   int             `json:"client_index"`
	Records       int             `json:"records"`
	Settings      *types.Settings `json:"settings,omitempty"`
	ErrorLog      []string        `json:"error_log"`
	Duplicates    []string        `json:"duplicates"`
	SchemaVersion int             `json:"schema_version"`
	SchemaError   string          `json:"schema_error,omitempty"`
}

func (s *Server) GetState(c *gin.Context) {
	st, err := s.d.Store.Load(c.Request.Context())
	view := StateView{}
	if err != nil {
		if !errors.Is(err, runstate.ErrSchemaVersion) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		view.SchemaError = err.Error()
	}
	view.Action = string(st.Action)
	view.ClientIndex = st.ClientIndex
	view.Records = len(st.ClientData)
	view.Settings = st.Settings
	view.ErrorLog = nonNil(st.ErrorLog)
	view.Duplicates = nonNil(st.Duplicates)
	view.SchemaVersion = st.SchemaVersion
	c.JSON(http.StatusOK, view)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ImportRequest is the JSON form of POST /imports.
type ImportRequest struct {
	Text     string          `json:"text" binding:"required"`
	Settings *types.Settings `json:"settings"`
}

// PostImport parses an uploaded sheet (multipart "file") or pasted text
// (JSON) and begins the batch.
func (s *Server) PostImport(c *gin.Context) {
	if s.d.Importer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no browser attached"})
		return
	}
	var (
		res      ingest.Result
		settings = types.DefaultSettings()
		err      error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, header, ferr := c.Request.FormFile("file")
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File upload error: " + ferr.Error()})
			return
		}
		defer file.Close()
		b, rerr := io.ReadAll(file)
		if rerr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": rerr.Error()})
			return
		}
		if raw := c.PostForm("settings"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &settings); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "settings: " + err.Error()})
				return
			}
		}
		res, err = ingest.Parse(header.Filename, b)
	} else {
		var req ImportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Settings != nil {
			settings = *req.Settings
		}
		res, err = ingest.ParseText(req.Text)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file parsing error: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	runID, err := s.d.Importer.Begin(ctx, res.Batch, settings)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, driver.ErrNoTargetTab) || errors.Is(err, driver.ErrTooManyTabs) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	for _, m := range res.Messages() {
		if err := s.d.Store.AddMessage(ctx, m); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusAccepted, gin.H{
		"run_id":   runID,
		"records":  len(res.Batch),
		"rejected": nonNil(res.Messages()),
	})
}

func (s *Server) GetOutcomes(c *gin.Context) {
	if s.d.Outcomes == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit trail disabled"})
		return
	}
	kind := c.Query("kind")
	if kind != "" && !types.OutcomeKind(kind).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown kind " + kind})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	rows, err := s.d.Outcomes.ListOutcomes(models.OutcomeFilter{
		RunID:  c.Query("run_id"),
		Kind:   kind,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]types.Outcome, len(rows))
	for i, r := range rows {
		out[i] = r.Outcome()
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": out})
}

func (s *Server) GetRuns(c *gin.Context) {
	if s.d.Outcomes == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit trail disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := s.d.Outcomes.Runs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
