package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reachwell/reachwell/internal/calibration"
)

func newTestStore(t *testing.T) *CalibrationStore {
	t.Helper()
	database, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewCalibrationStore(database)
}

func testRecord() calibration.Record {
	five, three := 5, 3
	rec := calibration.Default()
	rec.T = time.Now().UnixMilli()
	rec.LeftIndex = &five
	rec.RightIndex = &three
	rec.LeftY = 0.43
	rec.RightY = 0.64
	rec.ROM = calibration.ROM{NeutralY: 0.82, MaxReachLeftY: 0.22, MaxReachRightY: 0.25}
	return rec
}

func TestWriteStoresAllScopes(t *testing.T) {
	store := newTestStore(t)
	rec := testRecord()

	require.NoError(t, store.Write(rec, "ses_abc", "user-1"))

	for _, scope := range []string{SessionScope("ses_abc"), UserScope("user-1"), LegacyScope} {
		got, err := store.Load(scope)
		require.NoError(t, err, "scope %s", scope)
		assert.Equal(t, rec, got, "scope %s", scope)
	}
}

func TestScopePayloadsAreByteIdentical(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Write(testRecord(), "ses_abc", "user-1"))

	payloads := make(map[string]string)
	for _, scope := range []string{SessionScope("ses_abc"), UserScope("user-1"), LegacyScope} {
		var payload string
		err := store.db.QueryRow("SELECT payload FROM calibrations WHERE scope = ?", scope).Scan(&payload)
		require.NoError(t, err)
		payloads[scope] = payload
	}

	assert.Equal(t, payloads[LegacyScope], payloads[SessionScope("ses_abc")])
	assert.Equal(t, payloads[LegacyScope], payloads[UserScope("user-1")])
}

func TestWriteUpsertsExistingScopes(t *testing.T) {
	store := newTestStore(t)
	first := testRecord()
	require.NoError(t, store.Write(first, "ses_one", "user-1"))

	second := testRecord()
	second.ROM.NeutralY = 0.79
	require.NoError(t, store.Write(second, "ses_two", "user-1"))

	// the user and legacy scopes now carry the newer record
	got, err := store.Load(UserScope("user-1"))
	require.NoError(t, err)
	assert.Equal(t, 0.79, got.ROM.NeutralY)

	got, err = store.Load(LegacyScope)
	require.NoError(t, err)
	assert.Equal(t, 0.79, got.ROM.NeutralY)

	// the older session's scope still has its own copy
	got, err = store.Load(SessionScope("ses_one"))
	require.NoError(t, err)
	assert.Equal(t, first.ROM.NeutralY, got.ROM.NeutralY)
}

func TestWriteRejectsInvalidRecord(t *testing.T) {
	store := newTestStore(t)
	rec := testRecord()
	rec.RightIndex = nil

	err := store.Write(rec, "ses_abc", "user-1")
	require.Error(t, err)

	_, err = store.Load(LegacyScope)
	assert.True(t, errors.Is(err, ErrNotFound), "invalid write must not leave partial rows")
}

func TestLoadMissingScope(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Load(UserScope("nobody"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSessionSummaries(t *testing.T) {
	store := newTestStore(t)
	started := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	ended := started.Add(45 * time.Second)

	sum := SessionSummary{
		SessionID:     "ses_abc",
		UserID:        "user-1",
		Kind:          "exercise",
		Exercise:      "shoulder_abduction",
		Level:         3,
		Frames:        412,
		MessagesShown: 9,
		Started:       started,
		Ended:         ended,
	}
	require.NoError(t, store.RecordSession(sum))

	// upsert with updated rollups
	sum.Frames = 890
	sum.Ended = ended.Add(30 * time.Second)
	require.NoError(t, store.RecordSession(sum))

	got, err := store.Sessions(10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ses_abc", got[0].SessionID)
	assert.Equal(t, int64(890), got[0].Frames)
	assert.Equal(t, "shoulder_abduction", got[0].Exercise)
	assert.True(t, got[0].Started.Equal(started))
}
