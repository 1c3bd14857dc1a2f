package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	enums "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"github.com/yourorg/rips-import/internal/types"
	"github.com/yourorg/rips-import/internal/workflow"
)

// StartWorkflowRequest starts ImportRunWorkflow. Settings default like the
// settings page when omitted.
type StartWorkflowRequest struct {
	InputURI      string          `json:"input_uri"`
	Settings      *types.Settings `json:"settings"`
	ReportURI     string          `json:"report_uri"`
	ClearOnFinish bool            `json:"clear_on_finish"`
}

type StartWorkflowResponse struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
}

func (s *Server) StartImportWorkflow(c *gin.Context) {
	var req StartWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	params := types.ImportRunParams{
		InputURI:      req.InputURI,
		Settings:      types.DefaultSettings(),
		ReportURI:     req.ReportURI,
		ClearOnFinish: req.ClearOnFinish,
	}
	if req.Settings != nil {
		params.Settings = *req.Settings
	}

	options := client.StartWorkflowOptions{
		ID:        "rips-import-" + uuid.NewString(),
		TaskQueue: s.d.TaskQueue,
	}
	run, err := s.d.Temporal.ExecuteWorkflow(c.Request.Context(), options, workflow.WorkflowName, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start workflow: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, StartWorkflowResponse{
		WorkflowID: run.GetID(),
		RunID:      run.GetRunID(),
	})
}

// GetWorkflowStatus reports the execution status, plus the result once the
// run has completed.
func (s *Server) GetWorkflowStatus(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	describe, err := s.d.Temporal.DescribeWorkflowExecution(ctx, id, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to describe workflow: " + err.Error()})
		return
	}
	info := describe.GetWorkflowExecutionInfo()
	resp := gin.H{
		"workflow_id": id,
		"status":      info.GetStatus().String(),
		"start_time":  info.GetStartTime().AsTime(),
	}
	if info.GetStatus() == enums.WORKFLOW_EXECUTION_STATUS_COMPLETED {
		var result types.ImportRunResult
		if err := s.d.Temporal.GetWorkflow(ctx, id, "").Get(ctx, &result); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read result: " + err.Error()})
			return
		}
		resp["result"] = result
	}
	c.JSON(http.StatusOK, resp)
}
