package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/frostdev-ops/ranalyzer-go/pkg/utils"
)

// Upload stores a PM file for later analysis. Stored files are subject
// to the retention sweep.
func (h *Handlers) Upload(c *gin.Context) {
	name, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	stored, err := h.store.Save(name, bytes.NewReader(data))
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to store file: "+err.Error())
		return
	}

	h.log.WithField("file", stored.OriginalName).Info("file uploaded")
	utils.SendSuccess(c, stored)
}

// ListUploads returns the retained uploads, newest first.
func (h *Handlers) ListUploads(c *gin.Context) {
	files, err := h.store.List()
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to list files: "+err.Error())
		return
	}
	utils.SendSuccessWithMeta(c, files, gin.H{"count": len(files)})
}
