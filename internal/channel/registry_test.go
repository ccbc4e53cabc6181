package channel

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConn struct {
	mu       sync.Mutex
	written  []Envelope
	writeErr error
	closed   int
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, v.(Envelope))
	return nil
}

func (f *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeConn) messages() []Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Envelope, len(f.written))
	copy(out, f.written)
	return out
}

func TestRegistryRejectsSecondRegistration(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	require.NoError(t, reg.Register("enroll_1", &fakeConn{}))

	err := reg.Register("enroll_1", &fakeConn{})
	assert.ErrorIs(t, err, ErrChannelTaken)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistrySendStampsTimestamp(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	conn := &fakeConn{}
	require.NoError(t, reg.Register("enroll_1", conn))

	ok := reg.Send("enroll_1", Envelope{Type: TypeStatus, Data: map[string]string{"stage": "INITIATED"}})
	require.True(t, ok)

	msgs := conn.messages()
	require.Len(t, msgs, 1)
	assert.Greater(t, msgs[0].Timestamp, float64(0))
}

func TestRegistrySendWithoutEntry(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	assert.False(t, reg.Send("missing", Envelope{Type: TypeStatus}))
}

func TestRegistrySendFailureTearsDownEntry(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	conn := &fakeConn{writeErr: errors.New("broken pipe")}
	require.NoError(t, reg.Register("enroll_1", conn))

	assert.False(t, reg.Send("enroll_1", Envelope{Type: TypeStatus}))
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 1, conn.closed)
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	conn := &fakeConn{}
	require.NoError(t, reg.Register("enroll_1", conn))

	reg.Unregister("enroll_1")
	reg.Unregister("enroll_1")

	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 1, conn.closed)
}

func TestRegistryReRegisterAfterUnregister(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	require.NoError(t, reg.Register("enroll_1", &fakeConn{}))
	reg.Unregister("enroll_1")
	assert.NoError(t, reg.Register("enroll_1", &fakeConn{}))
}

func TestRegistryShutdownClosesAll(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	a, b := &fakeConn{}, &fakeConn{}
	require.NoError(t, reg.Register("enroll_a", a))
	require.NoError(t, reg.Register("enroll_b", b))

	reg.Shutdown()

	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 1, a.closed)
	assert.Equal(t, 1, b.closed)
}
