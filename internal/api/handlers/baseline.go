package handlers

import (
	"net/http"

	"github.com/beevik/etree"
	"github.com/gin-gonic/gin"

	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
	apperr "github.com/frostdev-ops/ranalyzer-go/pkg/errors"
	"github.com/frostdev-ops/ranalyzer-go/pkg/utils"
)

// GetBaseline returns the stored drift baseline for a site.
func (h *Handlers) GetBaseline(c *gin.Context) {
	site := c.Param("site")

	baseline, err := h.comparator.Get(c.Request.Context(), site)
	if err != nil {
		if be, ok := err.(*apperr.BaselineCorruptError); ok {
			utils.SendErrorWithDetails(c, http.StatusInternalServerError, be.Error(), gin.H{
				"site": be.Site,
			})
			return
		}
		utils.SendError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if baseline == nil {
		utils.SendError(c, http.StatusNotFound, "No baseline exists for site "+site)
		return
	}

	utils.SendSuccess(c, baseline)
}

func containsSite(samples []kpi.Sample, site string) bool {
	for _, s := range samples {
		if s.Site == site {
			return true
		}
	}
	return false
}

// RefreshBaseline replaces a site's drift baseline from an uploaded PM
// file. This is the only way an existing baseline changes.
func (h *Handlers) RefreshBaseline(c *gin.Context) {
	site := c.Param("site")

	name, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	xmlData, err := extractXML(name, data)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlData); err != nil {
		utils.SendError(c, http.StatusBadRequest, "Malformed XML: "+err.Error())
		return
	}

	samples, err := h.service.Normalize(doc)
	if err != nil {
		if pe, ok := err.(*apperr.ParseError); ok {
			utils.SendErrorWithDetails(c, http.StatusBadRequest, pe.Error(), gin.H{
				"markers_searched": pe.MarkersSearched,
			})
			return
		}
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if !containsSite(samples, site) {
		utils.SendError(c, http.StatusBadRequest, "Uploaded file contains no samples for site "+site)
		return
	}

	if err := h.service.RefreshBaseline(c.Request.Context(), site, samples); err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to refresh baseline: "+err.Error())
		return
	}

	baseline, err := h.comparator.Get(c.Request.Context(), site)
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.SendSuccess(c, baseline)
}
