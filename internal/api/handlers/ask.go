package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/frostdev-ops/ranalyzer-go/internal/core/classifier"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
	"github.com/frostdev-ops/ranalyzer-go/pkg/utils"
)

// AskRequest carries a natural language question plus the analysis
// context it should be answered against. The client supplies the data
// from its most recent analysis; the server keeps no session state.
type AskRequest struct {
	Question  string             `json:"question" binding:"required"`
	KPIData   []kpi.Sample       `json:"kpi_data"`
	RCAResult *classifier.Result `json:"rca_result"`
	UseLocal  *bool              `json:"use_local"`
}

// Ask answers a natural language question about KPI behavior.
func (h *Handlers) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	useLocal := true
	if req.UseLocal != nil {
		useLocal = *req.UseLocal
	}

	answer := h.responder.Ask(c.Request.Context(), req.Question, req.KPIData, req.RCAResult, useLocal)
	utils.SendSuccess(c, answer)
}
