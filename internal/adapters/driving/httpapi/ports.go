// Package httpapi serves paperqa's JSON API and answer websocket with gin.
package httpapi

import (
	"errors"

	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
)

// ErrMissingPort is returned when a required service is not provided.
var ErrMissingPort = errors.New("httpapi: required service is missing")

// Ports aggregates the driving ports the HTTP API calls.
type Ports struct {
	Ingest   driving.IngestService
	Search   driving.SearchService
	Answer   driving.AnswerService
	Document driving.DocumentService

	// Chat is optional; without it the /api/chat routes are not mounted.
	Chat driving.ChatService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	switch {
	case p == nil:
		return ErrMissingPort
	case p.Ingest == nil:
		return errors.Join(ErrMissingPort, errors.New("ingest"))
	case p.Search == nil:
		return errors.Join(ErrMissingPort, errors.New("search"))
	case p.Answer == nil:
		return errors.Join(ErrMissingPort, errors.New("answer"))
	case p.Document == nil:
		return errors.Join(ErrMissingPort, errors.New("document"))
	}
	return nil
}
