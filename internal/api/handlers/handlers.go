// Package handlers implements the HTTP handlers for the analysis API.
package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/ranalyzer-go/internal/ai"
	"github.com/frostdev-ops/ranalyzer-go/internal/config"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/analysis"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/drift"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/files"
)

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	cfg        *config.Config
	log        *logrus.Logger
	service    *analysis.Service
	comparator *drift.Comparator
	responder  *ai.Responder
	store      *files.Store
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	cfg *config.Config,
	logger *logrus.Logger,
	service *analysis.Service,
	comparator *drift.Comparator,
	responder *ai.Responder,
	store *files.Store,
) *Handlers {
	return &Handlers{
		cfg:        cfg,
		log:        logger,
		service:    service,
		comparator: comparator,
		responder:  responder,
		store:      store,
	}
}
