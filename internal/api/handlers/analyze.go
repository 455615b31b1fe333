package handlers

import (
	"io"
	"net/http"

	"github.com/beevik/etree"
	"github.com/gin-gonic/gin"

	"github.com/frostdev-ops/ranalyzer-go/internal/api/middleware"
	apperr "github.com/frostdev-ops/ranalyzer-go/pkg/errors"
	"github.com/frostdev-ops/ranalyzer-go/pkg/utils"
)

const maxUploadSize = 256 << 20 // 256 MiB

// Analyze parses an uploaded PM file and runs the full analysis
// pipeline. The upload may be plain XML, gzip or a ZIP archive.
func (h *Handlers) Analyze(c *gin.Context) {
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

	report, err := h.service.Analyze(c.Request.Context(), doc)
	if err != nil {
		if pe, ok := err.(*apperr.ParseError); ok {
			utils.SendErrorWithDetails(c, http.StatusBadRequest, pe.Error(), gin.H{
				"markers_searched": pe.MarkersSearched,
			})
			return
		}
		utils.SendError(c, http.StatusInternalServerError, "Analysis failed: "+err.Error())
		return
	}

	middleware.RecordAnalysis(string(report.Severity))

	// A structurally valid file with no extractable samples is a
	// warning, not a failure.
	if len(report.KPIData) == 0 {
		utils.SendSuccessWithMeta(c, report, gin.H{
			"warning": "no KPI data found in file",
		})
		return
	}

	utils.SendSuccess(c, report)
}

// readUpload pulls the multipart "file" part into memory.
func (h *Handlers) readUpload(c *gin.Context) (string, []byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Missing multipart file field \"file\"")
		return "", nil, false
	}
	if fileHeader.Size > maxUploadSize {
		utils.SendError(c, http.StatusRequestEntityTooLarge, "Uploaded file is too large")
		return "", nil, false
	}

	f, err := fileHeader.Open()
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Failed to open uploaded file")
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, "Failed to read uploaded file")
		return "", nil, false
	}
	return fileHeader.Filename, data, true
}
