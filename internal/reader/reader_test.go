package reader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractUID(t *testing.T) {
	cases := []struct {
		name   string
		output string
		uid    string
		found  bool
	}{
		{
			name:   "enrolled for line",
			output: "SIM_ENROLL: starting\nCard SIM_UID_42 enrolled for alice\n",
			uid:    "SIM_UID_42",
			found:  true,
		},
		{
			name:   "uid received line",
			output: "booting terminal\nUID_RECEIVED:AB12CD34\ndone\n",
			uid:    "AB12CD34",
			found:  true,
		},
		{
			name:   "first match wins",
			output: "UID_RECEIVED:FIRST\nCard SECOND enrolled for bob\n",
			uid:    "FIRST",
			found:  true,
		},
		{
			name:   "no recognized line",
			output: "terminal ready\nwaiting for card\n",
			found:  false,
		},
		{
			name:   "prefixed progress line ignored",
			output: "SIM_ENROLL: Card SIM_UID_9 enrolled for bob.\n",
			found:  false,
		},
		{
			name:   "progress line then uid line",
			output: "SIM_ENROLL: Card SIM_UID_9 enrolled for bob.\nUID_RECEIVED:SIM_UID_9\n",
			uid:    "SIM_UID_9",
			found:  true,
		},
		{
			name:   "enrolled phrase without card anchor",
			output: "alice was enrolled for CSC101\n",
			found:  false,
		},
		{
			name:   "empty prefix payload ignored",
			output: "UID_RECEIVED:\n",
			found:  false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uid, found := ExtractUID(tc.output)
			assert.Equal(t, tc.found, found)
			assert.Equal(t, tc.uid, uid)
		})
	}
}

func TestExecReaderSuccess(t *testing.T) {
	r, err := NewExecReader([]string{"sh", "-c", `echo "Card SIM_UID_42 enrolled for alice"`}, zap.NewNop())
	require.NoError(t, err)

	uid, err := r.ReadCard(context.Background(), "alice", "u-100")
	require.NoError(t, err)
	assert.Equal(t, "SIM_UID_42", uid)
}

func TestExecReaderProcessFailure(t *testing.T) {
	r, err := NewExecReader([]string{"sh", "-c", `echo "no card" >&2; exit 1`}, zap.NewNop())
	require.NoError(t, err)

	_, err = r.ReadCard(context.Background(), "alice", "u-100")
	var procErr *ProcessError
	require.ErrorAs(t, err, &procErr)
	assert.Contains(t, procErr.Stderr, "no card")
	assert.Contains(t, procErr.Error(), "no card")
}

func TestExecReaderNoUID(t *testing.T) {
	r, err := NewExecReader([]string{"sh", "-c", `echo "terminal ready"`}, zap.NewNop())
	require.NoError(t, err)

	_, err = r.ReadCard(context.Background(), "alice", "u-100")
	assert.ErrorIs(t, err, ErrNoUID)
}

func TestNewExecReaderRequiresCommand(t *testing.T) {
	_, err := NewExecReader(nil, zap.NewNop())
	assert.Error(t, err)
}

func TestSimReaderYieldsUID(t *testing.T) {
	r := NewSimReader(time.Millisecond)
	uid, err := r.ReadCard(context.Background(), "alice", "u-100")
	require.NoError(t, err)
	assert.Contains(t, uid, "SIM_UID_")
}

func TestSimReaderHonorsContext(t *testing.T) {
	r := NewSimReader(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.ReadCard(ctx, "alice", "u-100")
	assert.ErrorIs(t, err, context.Canceled)
}
