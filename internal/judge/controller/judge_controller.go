package controller

import (
	"context"

	"codejudge/internal/judge/model"
	"codejudge/internal/judge/service"
	"codejudge/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// JudgeService is the part of the judge service exposed over HTTP.
type JudgeService interface {
	Execute(ctx context.Context, req model.ExecutionRequest) (model.RunStatus, error)
	Get(ctx context.Context, executionID string) (model.RunStatus, error)
	BackendInfo(ctx context.Context) service.BackendInfo
}

// JudgeController handles execution requests.
type JudgeController struct {
	svc JudgeService
}

// NewJudgeController creates a new controller.
func NewJudgeController(svc JudgeService) *JudgeController {
	return &JudgeController{svc: svc}
}

// Register mounts the judge routes on a group.
func (h *JudgeController) Register(group *gin.RouterGroup) {
	group.POST("/executions", h.Execute)
	group.GET("/executions/:id", h.GetStatus)
	group.GET("/backend", h.Backend)
}

// Execute runs a submission synchronously and returns its final status.
func (h *JudgeController) Execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	status, err := h.svc.Execute(c.Request.Context(), req.toModel())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

// GetStatus returns status for one execution.
func (h *JudgeController) GetStatus(c *gin.Context) {
	executionID := c.Param("id")
	if executionID == "" {
		response.BadRequest(c, "Invalid execution id")
		return
	}
	status, err := h.svc.Get(c.Request.Context(), executionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

// Backend reports the active execution method.
func (h *JudgeController) Backend(c *gin.Context) {
	response.Success(c, h.svc.BackendInfo(c.Request.Context()))
}
