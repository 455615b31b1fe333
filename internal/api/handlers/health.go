package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/frostdev-ops/ranalyzer-go/pkg/utils"
)

var startTime = time.Now()

// Health returns the health status of the service
func (h *Handlers) Health(c *gin.Context) {
	health := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "ranalyzer-go",
		"version":   "1.0.0",
		"uptime":    time.Since(startTime).Round(time.Second).String(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		health["memory_used_percent"] = vm.UsedPercent
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		health["cpu_percent"] = percents[0]
	}

	utils.SendSuccess(c, health)
}
