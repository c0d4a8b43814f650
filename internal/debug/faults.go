package debug

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInjected is returned by operations failed through the fault profile.
var ErrInjected = errors.New("injected fault")

// FaultProfile defines faults that can be injected into ledger sessions.
// All faults are one-shot (consumed after check).
type FaultProfile struct {
	mu sync.RWMutex

	// FailNextConnect makes the next session open fail.
	FailNextConnect bool

	// FailNextCall makes the next ledger function call fail.
	FailNextCall bool

	// DelayNextCallMillis delays the next ledger function call (must be >= 0).
	DelayNextCallMillis int
}

// Faults is the global fault profile
var Faults = &FaultProfile{}

func (f *FaultProfile) SetFailNextConnect(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailNextConnect = enabled
}

// ShouldFailConnect checks and consumes the connect fault.
func (f *FaultProfile) ShouldFailConnect() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailNextConnect {
		f.FailNextConnect = false
		return true
	}
	return false
}

func (f *FaultProfile) SetFailNextCall(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailNextCall = enabled
}

// ShouldFailCall checks and consumes the call fault.
func (f *FaultProfile) ShouldFailCall() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailNextCall {
		f.FailNextCall = false
		return true
	}
	return false
}

// SetDelayNextCall sets the delay for the next ledger call.
func (f *FaultProfile) SetDelayNextCall(millis int) error {
	if millis < 0 {
		return fmt.Errorf("delay must be non-negative, got %d", millis)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DelayNextCallMillis = millis
	return nil
}

// GetAndClearDelay gets and clears the delay setting
func (f *FaultProfile) GetAndClearDelay() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.DelayNextCallMillis
	f.DelayNextCallMillis = 0
	return d
}

// Reset clears all fault flags
func (f *FaultProfile) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailNextConnect = false
	f.FailNextCall = false
	f.DelayNextCallMillis = 0
}

// Snapshot returns a point-in-time view of all faults.
func (f *FaultProfile) Snapshot() map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return map[string]any{
		"fail_next_connect":      f.FailNextConnect,
		"fail_next_call":         f.FailNextCall,
		"delay_next_call_millis": f.DelayNextCallMillis,
	}
}
