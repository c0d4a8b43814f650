package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ipfs/go-cid"
	"github.com/sufield/evault/internal/adapters/outbound/docstore"
)

// DocumentStore stores immutable case documents by content identifier.
type DocumentStore interface {
	Put(data []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
}

// DocumentController serves the shared document endpoints.
type DocumentController struct {
	store   DocumentStore
	maxSize int64
}

// NewDocumentController creates a controller accepting documents of at
// most maxSize bytes.
func NewDocumentController(store DocumentStore, maxSize int64) *DocumentController {
	return &DocumentController{store: store, maxSize: maxSize}
}

// Upload handles POST /api/documents. The raw request body is the document.
func (c *DocumentController) Upload(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, c.maxSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Document exceeds %d bytes", c.maxSize))
			return
		}
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(data) == 0 {
		writeFailure(w, http.StatusBadRequest, "document body is required")
		return
	}

	id, err := c.store.Put(data)
	if err != nil {
		log.Printf("[%s] failed to store document: %v", middleware.GetReqID(r.Context()), err)
		writeFailure(w, http.StatusInternalServerError, fmt.Sprintf("Failed to store document: %v", err))
		return
	}
	writeData(w, map[string]any{"cid": id.String(), "size": len(data)})
}

// Download handles GET /api/documents/{cid}.
func (c *DocumentController) Download(w http.ResponseWriter, r *http.Request) {
	id, err := docstore.Parse(chi.URLParam(r, "cid"))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid document id")
		return
	}

	data, err := c.store.Get(id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			writeFailure(w, http.StatusNotFound, "Document not found")
			return
		}
		log.Printf("[%s] failed to read document %s: %v", middleware.GetReqID(r.Context()), id, err)
		writeFailure(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read document: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("ETag", `"`+id.String()+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
