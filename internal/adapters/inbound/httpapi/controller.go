package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sufield/evault/internal/debug"
	"github.com/sufield/evault/internal/ports"
	"github.com/sufield/evault/internal/recordstore"
)

// RoleController serves the case endpoints of one portal. The portal's
// identity comes from the request Session, so a single controller serves
// every role.
type RoleController struct {
	connector ports.Connector
}

// NewRoleController creates a controller that opens sessions on connector.
func NewRoleController(connector ports.Connector) *RoleController {
	return &RoleController{connector: connector}
}

// invoke opens one session, runs call on it and always closes it.
func (c *RoleController) invoke(ctx context.Context, call func(h ports.Handle) ([]byte, error)) (out []byte, err error) {
	s, ok := SessionFrom(ctx)
	if !ok {
		return nil, errors.New("no session bound to request")
	}

	h, err := c.connector.Connect(ctx, s.Target())
	defer func() {
		if cerr := ports.Disconnect(h); cerr != nil {
			log.Printf("[%s] failed to disconnect %s ledger session: %v", middleware.GetReqID(ctx), s.Role, cerr)
		}
	}()
	if err != nil {
		return nil, err
	}

	debug.GetLogger().Debugf("[%s] %s as %s@%s on %s", middleware.GetReqID(ctx), s.Role, s.User, s.Org, s.Target().Namespace())
	return call(h)
}

func (c *RoleController) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	role := "unknown"
	if s, ok := SessionFrom(r.Context()); ok {
		role = s.Role.String()
	}
	log.Printf("[%s] %s: failed to %s: %v", middleware.GetReqID(r.Context()), role, action, err)
	writeFailure(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s: %v", action, err))
}

// caseIDField is a case ID sent as a JSON string or number. Numbers keep
// their literal text, so large IDs are not rounded.
type caseIDField string

func (f *caseIDField) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
		*f = ""
	case string:
		*f = caseIDField(v)
	case json.Number:
		*f = caseIDField(v.String())
	default:
		return fmt.Errorf("caseID must be a string or a number")
	}
	return nil
}

type createCaseRequest struct {
	CaseID   caseIDField     `json:"caseID"`
	CaseData json.RawMessage `json:"caseData"`
}

// CreateCase handles POST /case/create.
func (c *RoleController) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if isAbsent(req.CaseData) {
		writeFailure(w, http.StatusBadRequest, "caseData is required")
		return
	}
	caseID := string(req.CaseID)
	if caseID == "" {
		caseID = embeddedCaseID(req.CaseData)
	}
	if caseID == "" {
		writeFailure(w, http.StatusBadRequest, "caseID is required")
		return
	}

	_, err := c.invoke(r.Context(), func(h ports.Handle) ([]byte, error) {
		return h.Submit(r.Context(), recordstore.FnCreate, caseID, ledgerValue(req.CaseData))
	})
	if err != nil {
		c.fail(w, r, "create case", err)
		return
	}
	writeMessage(w, fmt.Sprintf("Case %s created successfully", caseID))
}

// GetCase handles GET /case/{caseID}.
func (c *RoleController) GetCase(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		writeFailure(w, http.StatusBadRequest, "caseID is required")
		return
	}

	out, err := c.invoke(r.Context(), func(h ports.Handle) ([]byte, error) {
		return h.Evaluate(r.Context(), recordstore.FnRead, caseID)
	})
	if err != nil {
		c.fail(w, r, "read case", err)
		return
	}
	writeData(w, ledgerResult(out))
}

// CaseExists handles GET /case/{caseID}/exists.
func (c *RoleController) CaseExists(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		writeFailure(w, http.StatusBadRequest, "caseID is required")
		return
	}

	out, err := c.invoke(r.Context(), func(h ports.Handle) ([]byte, error) {
		return h.Evaluate(r.Context(), recordstore.FnExists, caseID)
	})
	if err != nil {
		c.fail(w, r, "check case", err)
		return
	}
	writeData(w, ledgerResult(out))
}

type updateCaseRequest struct {
	CaseID  caseIDField     `json:"caseID"`
	Updates json.RawMessage `json:"updates"`
}

// UpdateCase handles PUT /case/update. The stored value is replaced by updates.
func (c *RoleController) UpdateCase(w http.ResponseWriter, r *http.Request) {
	var req updateCaseRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CaseID == "" || isAbsent(req.Updates) {
		writeFailure(w, http.StatusBadRequest, "caseID and updates are required")
		return
	}

	_, err := c.invoke(r.Context(), func(h ports.Handle) ([]byte, error) {
		return h.Submit(r.Context(), recordstore.FnUpdate, string(req.CaseID), ledgerValue(req.Updates))
	})
	if err != nil {
		c.fail(w, r, "update case", err)
		return
	}
	writeMessage(w, fmt.Sprintf("Case %s updated successfully", req.CaseID))
}

// DeleteCase handles DELETE /case/{caseID}.
func (c *RoleController) DeleteCase(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		writeFailure(w, http.StatusBadRequest, "caseID is required")
		return
	}

	_, err := c.invoke(r.Context(), func(h ports.Handle) ([]byte, error) {
		return h.Submit(r.Context(), recordstore.FnDelete, caseID)
	})
	if err != nil {
		c.fail(w, r, "delete case", err)
		return
	}
	writeMessage(w, fmt.Sprintf("Case %s deleted successfully", caseID))
}

// Stats handles GET /stats.
func (c *RoleController) Stats(w http.ResponseWriter, r *http.Request) {
	out, err := c.invoke(r.Context(), func(h ports.Handle) ([]byte, error) {
		return h.Evaluate(r.Context(), recordstore.FnCount)
	})
	if err != nil {
		c.fail(w, r, "fetch stats", err)
		return
	}

	total, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		c.fail(w, r, "fetch stats", fmt.Errorf("unexpected count %q", out))
		return
	}
	writeData(w, map[string]int{"total": total})
}

// decodeBody decodes a JSON body. An empty body decodes to the zero value
// so the presence checks report the missing field.
func decodeBody(r *http.Request, dst any) error {
	if err := readJSON(r, dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func isAbsent(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null" || s == `""`
}

// embeddedCaseID returns caseData.caseID when caseData is an object.
func embeddedCaseID(raw json.RawMessage) string {
	var obj struct {
		CaseID caseIDField `json:"caseID"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	return string(obj.CaseID)
}

// ledgerValue turns a request field into the ledger argument: JSON strings
// are passed unquoted, any other JSON is passed as sent.
func ledgerValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ledgerResult embeds a JSON ledger result as is and anything else as a string.
func ledgerResult(out []byte) any {
	if json.Valid(out) {
		return json.RawMessage(out)
	}
	return string(out)
}
