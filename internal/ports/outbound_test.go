package ports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingHandle struct{ closed int }

func (h *countingHandle) Submit(context.Context, string, ...string) ([]byte, error)   { return nil, nil }
func (h *countingHandle) Evaluate(context.Context, string, ...string) ([]byte, error) { return nil, nil }
func (h *countingHandle) Close() error                                                { h.closed++; return nil }

func TestDisconnect(t *testing.T) {
	assert.NoError(t, Disconnect(nil))

	h := &countingHandle{}
	assert.NoError(t, Disconnect(h))
	assert.Equal(t, 1, h.closed)
}

func TestTarget_Namespace(t *testing.T) {
	tgt := Target{Org: "LawyersOrg", User: "admin", Channel: "lawyerschannel", Contract: "records"}
	assert.Equal(t, "lawyerschannel/records", tgt.Namespace())
}
