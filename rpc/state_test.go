package rpc_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmconrad/fc/api"
	"github.com/pmconrad/fc/rpc"
)

func raw(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func TestLocalCall(t *testing.T) {
	s := rpc.NewState()
	s.AddMethod("add", func(params []json.RawMessage) (json.RawMessage, error) {
		var a, b int
		require.NoError(t, json.Unmarshal(params[0], &a))
		require.NoError(t, json.Unmarshal(params[1], &b))
		return raw(a + b), nil
	})

	res, err := s.LocalCall("add", []json.RawMessage{raw(2), raw(3)})
	require.NoError(t, err)
	assert.JSONEq(t, "5", string(res))

	_, err = s.LocalCall("missing", nil)
	assert.Equal(t, api.KindRPC, api.KindOf(err))

	s.RemoveMethod("add")
	_, err = s.LocalCall("add", nil)
	assert.Error(t, err)
}

func TestUnhandledFallback(t *testing.T) {
	s := rpc.NewState()
	s.OnUnhandled(func(method string, _ []json.RawMessage) (json.RawMessage, error) {
		return raw("fallback:" + method), nil
	})
	res, err := s.LocalCall("anything", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `"fallback:anything"`, string(res))
}

func TestRemoteCallReplyRouting(t *testing.T) {
	s := rpc.NewState()
	req1, fut1 := s.StartRemoteCall("one", nil)
	req2, fut2 := s.StartRemoteCall("two", nil)
	require.NotNil(t, req1.ID)
	require.NotNil(t, req2.ID)
	assert.NotEqual(t, *req1.ID, *req2.ID)

	r2 := raw("second")
	require.NoError(t, s.HandleReply(rpc.Response{ID: req2.ID, Result: &r2}))
	v2, err := fut2.Get()
	require.NoError(t, err)
	assert.JSONEq(t, `"second"`, string(v2))

	require.NoError(t, s.HandleReply(rpc.Response{
		ID:    req1.ID,
		Error: &rpc.ErrorInfo{Code: -1, Message: "nope"},
	}))
	_, err = fut1.Get()
	assert.Equal(t, api.KindRPC, api.KindOf(err))
}

func TestReplyValidation(t *testing.T) {
	s := rpc.NewState()
	assert.Error(t, s.HandleReply(rpc.Response{}))
	id := uint64(42)
	assert.Error(t, s.HandleReply(rpc.Response{ID: &id}))
}

func TestCloseFailsPendingWithEOF(t *testing.T) {
	s := rpc.NewState()
	_, fut := s.StartRemoteCall("pending", nil)
	s.Close()
	_, err := fut.Get()
	assert.Equal(t, api.KindEOF, api.KindOf(err))
}
