package mapstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-map/model"
)

type fakeRemote struct {
	mu    sync.Mutex
	calls []string
	err   error
	data  model.MapData
	block chan struct{} // 非 nil 时每次调用等待它关闭
}

func (f *fakeRemote) record(call string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeRemote) AddPoint(_ context.Context, id string, lat, lng float64) error {
	return f.record(fmt.Sprintf("add-point %s %g %g", id, lat, lng))
}

func (f *fakeRemote) AddLine(_ context.Context, id, start, end string) error {
	return f.record(fmt.Sprintf("add-line %s %s %s", id, start, end))
}

func (f *fakeRemote) RemovePoint(_ context.Context, id string) error {
	return f.record("remove-point " + id)
}

func (f *fakeRemote) RemoveLine(_ context.Context, id string) error {
	return f.record("remove-line " + id)
}

func (f *fakeRemote) MapData(context.Context) (model.MapData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data, f.err
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestStore(t *testing.T, remote *fakeRemote, session SessionRepository) *Store {
	t.Helper()
	if session == nil {
		session = NewMemorySession()
	}
	s, err := Open(context.Background(), session, remote, NewQueue(16, time.Second, nil), nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func TestAddPointDeterministicID(t *testing.T) {
	remote := &fakeRemote{}
	s := newTestStore(t, remote, nil)

	cases := []struct {
		lat, lng float64
		want     string
	}{
		{40.7128, -74.006, "40.712800,-74.006000"},
		{0, 0, "0.000000,0.000000"},
		{1.23456789, 2.5, "1.234568,2.500000"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, s.AddPoint(tc.lat, tc.lng))
	}

	flush(t, s)
	assert.Equal(t, []string{"0.000000,0.000000", "1.234568,2.500000", "40.712800,-74.006000"}, s.Points())
	assert.Equal(t, "add-point 40.712800,-74.006000 40.7128 -74.006", remote.Calls()[0])
}

func TestAddPointTwiceKeepsSingleEntry(t *testing.T) {
	s := newTestStore(t, &fakeRemote{}, nil)
	s.AddPoint(1, 2)
	s.AddPoint(1, 2)
	assert.Len(t, s.Points(), 1)
}

func TestAddLineIsUndirected(t *testing.T) {
	remote := &fakeRemote{}
	s := newTestStore(t, remote, nil)

	id, ok := s.AddLine("b", "a")
	require.True(t, ok)
	assert.Equal(t, "a|b", id)

	id, ok = s.AddLine("a", "b")
	assert.False(t, ok)
	assert.Empty(t, id)

	_, ok = s.AddLine("b", "a")
	assert.False(t, ok)

	_, ok = s.AddLine("a", "a")
	assert.False(t, ok)

	flush(t, s)
	assert.Equal(t, []string{"a|b"}, s.Lines())
	assert.Equal(t, []string{"add-line a|b a b"}, remote.Calls())
}

func TestRemovePointDropsConnectedLines(t *testing.T) {
	remote := &fakeRemote{}
	s := newTestStore(t, remote, nil)

	p1 := s.AddPoint(1, 1)
	p2 := s.AddPoint(2, 2)
	p3 := s.AddPoint(3, 3)
	l12, _ := s.AddLine(p1, p2)
	l23, _ := s.AddLine(p2, p3)
	l13, _ := s.AddLine(p3, p1)
	flush(t, s)

	s.RemovePoint(p2)
	flush(t, s)

	assert.Equal(t, []string{p1, p3}, s.Points())
	assert.Equal(t, []string{l13}, s.Lines())

	calls := remote.Calls()
	tail := calls[len(calls)-3:]
	assert.ElementsMatch(t, []string{"remove-line " + l12, "remove-line " + l23}, tail[:2])
	assert.Equal(t, "remove-point "+p2, tail[2])
}

func TestRemoveLine(t *testing.T) {
	remote := &fakeRemote{}
	s := newTestStore(t, remote, nil)

	id, _ := s.AddLine("a", "b")
	s.RemoveLine(id)
	flush(t, s)

	assert.Empty(t, s.Lines())
	assert.Equal(t, []string{"add-line a|b a b", "remove-line a|b"}, remote.Calls())
}

func TestRestoreDoesNotCallRemote(t *testing.T) {
	remote := &fakeRemote{}
	s := newTestStore(t, remote, nil)

	s.RestorePoint("not,validated")
	s.RestoreLine("z|a")
	s.RestoreLine("a|z")
	flush(t, s)

	assert.Equal(t, []string{"not,validated"}, s.Points())
	assert.Equal(t, []string{"z|a"}, s.Lines())
	assert.Empty(t, remote.Calls())

	_, ok := s.AddLine("a", "z")
	assert.False(t, ok)
}

func TestAddPointNegativeZeroSharesID(t *testing.T) {
	s := newTestStore(t, &fakeRemote{}, nil)

	neg, err := s.AddPointFromText("-0", "-0.0000001")
	require.NoError(t, err)
	pos, err := s.AddPointFromText("0", "0")
	require.NoError(t, err)

	assert.Equal(t, pos, neg)
	assert.Equal(t, []string{"0.000000,0.000000"}, s.Points())
}

func TestAddPointFromText(t *testing.T) {
	s := newTestStore(t, &fakeRemote{}, nil)

	id, err := s.AddPointFromText(" 10.5", "20")
	require.NoError(t, err)
	assert.Equal(t, "10.500000,20.000000", id)

	_, err = s.AddPointFromText("91", "0")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, "latitude must be between -90 and 90", err.Error())

	_, err = s.AddPointFromText("0", "-180.5")
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, "longitude must be between -180 and 180", err.Error())

	_, err = s.AddPointFromText("abc", "0")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "invalid coordinates", err.Error())

	_, err = s.AddPointFromText("NaN", "0")
	assert.ErrorIs(t, err, ErrInvalidInput)

	var inputErr *InputError
	_, err = s.AddPointFromText("-90.0001", "0")
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "lat", inputErr.Field)

	assert.Equal(t, []string{id}, s.Points())
}

func TestClearAllWaitsForRemovals(t *testing.T) {
	remote := &fakeRemote{}
	session := NewMemorySession()
	s := newTestStore(t, remote, session)

	p1 := s.AddPoint(1, 1)
	p2 := s.AddPoint(2, 2)
	l, _ := s.AddLine(p1, p2)
	s.SavePoint(p1)
	s.SaveLine(l)

	require.NoError(t, s.ClearAll(context.Background()))

	// ClearAll 返回时远端删除已经全部完成
	calls := remote.Calls()
	assert.Contains(t, calls, "remove-line "+l)
	assert.Contains(t, calls, "remove-point "+p1)
	assert.Contains(t, calls, "remove-point "+p2)

	assert.Empty(t, s.Points())
	assert.Empty(t, s.Lines())
	assert.Empty(t, s.SavedPoints())
	assert.Empty(t, s.SavedLines())

	st, err := session.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, State{}, st)
}

func TestClearAllOnEmptyStore(t *testing.T) {
	remote := &fakeRemote{}
	s := newTestStore(t, remote, nil)

	require.NoError(t, s.ClearAll(context.Background()))
	assert.Empty(t, s.Points())
	assert.Empty(t, remote.Calls())
}

func TestClearAllCancelledKeepsState(t *testing.T) {
	remote := &fakeRemote{block: make(chan struct{})}
	s := newTestStore(t, remote, nil)
	s.RestorePoint("p1")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := s.ClearAll(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"p1"}, s.Points())

	close(remote.block)
}

func TestRemoteFailuresAreSwallowed(t *testing.T) {
	remote := &fakeRemote{err: errors.New("boom")}
	s := newTestStore(t, remote, nil)

	id := s.AddPoint(1, 2)
	flush(t, s)
	assert.Equal(t, []string{id}, s.Points())

	require.NoError(t, s.ClearAll(context.Background()))
	assert.Empty(t, s.Points())
}

func TestStatePersistsAcrossOpen(t *testing.T) {
	session := NewMemorySession()
	s := newTestStore(t, &fakeRemote{}, session)
	p1 := s.AddPoint(1, 1)
	p2 := s.AddPoint(2, 2)
	l, _ := s.AddLine(p1, p2)
	s.SavePoint(p2)
	s.SaveLine(l)
	s.DeleteSavedPoint(p2)

	reopened := newTestStore(t, &fakeRemote{}, session)
	assert.Equal(t, []string{p1, p2}, reopened.Points())
	assert.Equal(t, []string{l}, reopened.Lines())
	assert.Empty(t, reopened.SavedPoints())
	assert.Equal(t, []string{l}, reopened.SavedLines())
	assert.True(t, reopened.HasPoint(p1))
}

func TestPullReplacesLocalState(t *testing.T) {
	remote := &fakeRemote{data: model.MapData{
		Points: []model.Point{{PointID: "a"}, {PointID: "b"}},
		Lines:  []model.Line{{LineID: "b|a", StartPointID: "b", EndPointID: "a"}},
	}}
	s := newTestStore(t, remote, nil)
	s.RestorePoint("stale")

	require.NoError(t, s.Pull(context.Background()))
	assert.Equal(t, []string{"a", "b"}, s.Points())
	assert.Equal(t, []string{"b|a"}, s.Lines())

	remote.err = errors.New("down")
	assert.Error(t, s.Pull(context.Background()))
	assert.Equal(t, []string{"a", "b"}, s.Points())
}

func TestPulledLineKeepsServerID(t *testing.T) {
	remote := &fakeRemote{data: model.MapData{
		Points: []model.Point{{PointID: "a"}, {PointID: "b"}},
		Lines: []model.Line{
			{LineID: "b|a", StartPointID: "b", EndPointID: "a"},
			{LineID: "a|b", StartPointID: "a", EndPointID: "b"},
		},
	}}
	s := newTestStore(t, remote, nil)
	require.NoError(t, s.Pull(context.Background()))
	require.Equal(t, []string{"b|a"}, s.Lines())

	_, ok := s.AddLine("a", "b")
	assert.False(t, ok)

	for _, id := range s.Lines() {
		s.RemoveLine(id)
	}
	flush(t, s)
	assert.Empty(t, s.Lines())
	assert.Equal(t, []string{"remove-line b|a"}, remote.Calls())
}

func TestRemovePointDropsPulledLines(t *testing.T) {
	remote := &fakeRemote{data: model.MapData{
		Points: []model.Point{{PointID: "a"}, {PointID: "b"}},
		Lines:  []model.Line{{LineID: "b|a", StartPointID: "b", EndPointID: "a"}},
	}}
	s := newTestStore(t, remote, nil)
	require.NoError(t, s.Pull(context.Background()))

	s.RemovePoint("a")
	flush(t, s)
	assert.Empty(t, s.Lines())
	assert.Equal(t, []string{"remove-line b|a", "remove-point a"}, remote.Calls())
}
