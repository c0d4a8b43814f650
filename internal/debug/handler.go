package debug

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const maxRequestBodyBytes = 10 * 1024

// FaultRequest represents a fault injection request
type FaultRequest struct {
	FailNextConnect     *bool `json:"fail_next_connect,omitempty"`
	FailNextCall        *bool `json:"fail_next_call,omitempty"`
	DelayNextCallMillis *int  `json:"delay_next_call_millis,omitempty"`
}

// Handler serves the debug endpoints. Mount it only when debug mode is on.
//
//	GET  /_debug/state          debug flag, faults and the introspector snapshot
//	GET  /_debug/faults         current faults
//	POST /_debug/faults         set faults (FaultRequest)
//	POST /_debug/faults/reset   clear faults
//
// introspector may be nil.
func Handler(introspector Introspector) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/_debug/state", func(w http.ResponseWriter, r *http.Request) {
		state := map[string]any{
			"debug_enabled": Active.Enabled,
			"faults":        Faults.Snapshot(),
		}
		if introspector != nil {
			state["ledger"] = introspector.SnapshotData(r.Context())
		}
		writeJSON(w, state)
	})

	mux.HandleFunc("/_debug/faults", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, Faults.Snapshot())
		case http.MethodPost:
			setFaults(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/_debug/faults/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		Faults.Reset()
		GetLogger().Debug("All faults reset")
		writeJSON(w, map[string]string{"status": "reset"})
	})

	return mux
}

func setFaults(w http.ResponseWriter, r *http.Request) {
	logger := GetLogger()
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	var req FaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	if req.DelayNextCallMillis != nil {
		if err := Faults.SetDelayNextCall(*req.DelayNextCallMillis); err != nil {
			http.Error(w, fmt.Sprintf("Invalid delay: %v", err), http.StatusBadRequest)
			return
		}
		logger.Debugf("Fault set: delay_next_call_millis=%d", *req.DelayNextCallMillis)
	}
	if req.FailNextConnect != nil {
		Faults.SetFailNextConnect(*req.FailNextConnect)
		logger.Debugf("Fault set: fail_next_connect=%v", *req.FailNextConnect)
	}
	if req.FailNextCall != nil {
		Faults.SetFailNextCall(*req.FailNextCall)
		logger.Debugf("Fault set: fail_next_call=%v", *req.FailNextCall)
	}

	writeJSON(w, Faults.Snapshot())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
