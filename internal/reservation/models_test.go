package reservation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSplitFields(t *testing.T) {
	it := SyncItem{FirstName: "Jan", Date: "2025-06-07", Time: "18:30", PeopleCount: 4}

	rec, err := it.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "2025-06-07", rec.Day.Format("2006-01-02"))
	assert.Equal(t, "18:30:00", rec.Time)
	assert.Equal(t, 4, rec.PeopleCount)
}

func TestResolveDottedDate(t *testing.T) {
	it := SyncItem{Date: "07.06.2025", Time: "18:30:15"}

	rec, err := it.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "2025-06-07", rec.Day.Format("2006-01-02"))
	assert.Equal(t, "18:30:15", rec.Time)
}

func TestResolveStartTimeFallback(t *testing.T) {
	it := SyncItem{StartTime: "2025-06-07T19:00:00"}

	rec, err := it.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "2025-06-07", rec.Day.Format("2006-01-02"))
	assert.Equal(t, "19:00:00", rec.Time)
}

func TestResolveDefaultsTimeToNoon(t *testing.T) {
	rec, err := SyncItem{Date: "2025-06-07"}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "12:00:00", rec.Time)
}

func TestResolveUnparseable(t *testing.T) {
	_, err := SyncItem{Date: "soon"}.Resolve()
	assert.Error(t, err)

	_, err = SyncItem{StartTime: "tonight"}.Resolve()
	assert.Error(t, err)

	_, err = SyncItem{}.Resolve()
	assert.Error(t, err)
}

func TestResolveClampsPeopleCount(t *testing.T) {
	rec, err := SyncItem{Date: "2025-06-07", PeopleCount: 0}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 1, rec.PeopleCount)
}

func TestLenientBool(t *testing.T) {
	cases := map[string]bool{
		`true`:    true,
		`false`:   false,
		`"true"`:  true,
		`"TRUE"`:  true,
		`"tak"`:   true,
		`1`:       true,
		`0`:       false,
		`"1"`:     true,
		`"no"`:    false,
		`null`:    false,
		`{"x":1}`: false,
	}
	for raw, want := range cases {
		var b LenientBool
		require.NoError(t, json.Unmarshal([]byte(raw), &b), raw)
		assert.Equal(t, want, bool(b), raw)
	}
}
