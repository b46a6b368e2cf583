package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swagger2postman/internal/collection"
)

func TestCaptureThenDrain(t *testing.T) {
	t.Parallel()
	st := NewStore()

	_, err := CaptureIDs().Run(st, []byte(`{"data":{"content":[{"id":1},{"id":2}]}}`))
	require.NoError(t, err)
	ids, ok := st.Get(IDs)
	require.True(t, ok)
	assert.Equal(t, []any{int64(1), int64(2)}, ids)

	drain := Drain("delete")
	next, err := drain.Run(st, nil)
	require.NoError(t, err)
	assert.Equal(t, Next{Called: true, Request: "delete"}, next)
	id, _ := st.Get(ID)
	assert.Equal(t, int64(1), id)

	next, _ = drain.Run(st, nil)
	assert.Equal(t, Next{Called: true, Request: "delete"}, next)
	id, _ = st.Get(ID)
	assert.Equal(t, int64(2), id)

	next, _ = drain.Run(st, nil)
	assert.Equal(t, Next{Called: true}, next, "empty list stops the chain")
}

func TestCaptureIDs_MissingContent(t *testing.T) {
	t.Parallel()
	st := NewStore()
	_, err := CaptureIDs().Run(st, []byte(`{"data":{}}`))
	require.NoError(t, err)
	ids, _ := st.Get(IDs)
	assert.Equal(t, []any{}, ids)
}

func TestCaptureIDs_InvalidResponse(t *testing.T) {
	t.Parallel()
	_, err := CaptureIDs().Run(NewStore(), []byte(`<html>`))
	assert.Error(t, err)
}

func TestDrain_AbsentList(t *testing.T) {
	t.Parallel()
	next, err := Drain("update").Run(NewStore(), nil)
	require.NoError(t, err)
	assert.Equal(t, Next{Called: true}, next)
}

func TestCaptureToken(t *testing.T) {
	t.Parallel()
	st := NewStore()
	_, err := CaptureToken().Run(st, []byte(`{"token_type":"bearer"}`))
	require.NoError(t, err)
	_, ok := st.Get(AccessToken)
	assert.False(t, ok)

	_, err = CaptureToken().Run(st, []byte(`{"access_token":"abc"}`))
	require.NoError(t, err)
	tok, _ := st.Get(AccessToken)
	assert.Equal(t, "abc", tok)
}

func TestCapturePermissions(t *testing.T) {
	t.Parallel()
	st := NewStore()
	_, err := CapturePermissions().Run(st, []byte(`{"data":[{"id":7},{"id":9}]}`))
	require.NoError(t, err)
	perms, _ := st.Get(Permissions)
	assert.Equal(t, "[7,9]", perms)
}

func TestStampCurrentDate(t *testing.T) {
	t.Parallel()
	fixed := time.Date(2024, time.March, 5, 7, 8, 9, 0, time.UTC)
	st := NewStore().WithClock(func() time.Time { return fixed })
	_, err := StampCurrentDate().Run(st, nil)
	require.NoError(t, err)
	got, _ := st.Get(CurrentDate)
	assert.Equal(t, "05/03/2024 07:08:09", got)
}

func TestDrain_QuotesRequestName(t *testing.T) {
	t.Parallel()
	s := Drain("owner's pet")
	assert.Contains(t, s.Exec, `    pm.execution.setNextRequest('owner\'s pet');`)
}

func TestIdentify(t *testing.T) {
	t.Parallel()
	s, ok := Identify(Drain("update").Event(), "update")
	require.True(t, ok)
	assert.Equal(t, KindDrain, s.Kind)

	_, ok = Identify(Drain("update").Event(), "delete")
	assert.False(t, ok, "drain targets must name their own request")

	_, ok = Identify(collection.NewScript(collection.ListenTest, "console.log(1)"), "x")
	assert.False(t, ok)
}

func minimalCollection() *collection.Collection {
	return &collection.Collection{
		Event:    []collection.Event{StampCurrentDate().Event(), Noop().Event()},
		Variable: []collection.Variable{{Key: "localUrl"}, {Key: "accessToken"}, {Key: "currentDate"}},
		Auth:     &collection.Auth{Type: "bearer", Bearer: []collection.AuthAttribute{{Key: "token", Value: "{{accessToken}}"}}},
		Item: []collection.Item{{
			Name: "local",
			Item: []collection.Item{
				{Name: "requestToken", Event: []collection.Event{CaptureToken().Event()}, Request: req("POST", "{{localUrl}}/api/token")},
				{Name: "pet", Item: []collection.Item{
					{Name: "list", Event: []collection.Event{CaptureIDs().Event()}, Request: req("GET", "{{localUrl}}/pet/list")},
					{Name: "delete", Event: []collection.Event{Drain("delete").Event()}, Request: req("DELETE", "{{localUrl}}/pet/1")},
				}},
			},
		}},
	}
}

func TestVerify_Consistent(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Verify(minimalCollection()))
}

func TestVerify_DrainWithoutCaptureIsTolerated(t *testing.T) {
	t.Parallel()
	c := minimalCollection()
	pet := c.Find("local", "pet")
	pet.Item = pet.Item[1:]
	assert.NoError(t, Verify(c))
}

func TestVerify_UnwrittenVariable(t *testing.T) {
	t.Parallel()
	c := minimalCollection()
	c.Find("local", "pet", "delete").Request.Body = collection.RawJSONBody(`{"permissions": {{permissions}}}`)

	err := Verify(c)
	var ce *ContractError
	require.True(t, errors.As(err, &ce), "expected ContractError, got %v", err)
	require.Len(t, ce.Issues, 1)
	assert.Contains(t, ce.Issues[0], `"permissions" is read but never written`)

	// A permission listing supplies it.
	root := c.Root("local")
	root.Item = append(root.Item, collection.Item{
		Name: "permission",
		Item: []collection.Item{{Name: "list", Event: []collection.Event{CapturePermissions().Event()}, Request: req("GET", "{{localUrl}}/v1/permission/list")}},
	})
	assert.NoError(t, Verify(c))
}

func TestVerify_UnknownScript(t *testing.T) {
	t.Parallel()
	c := minimalCollection()
	c.Find("local", "pet", "list").Event = []collection.Event{collection.NewScript(collection.ListenTest, "pm.test()")}
	err := Verify(c)
	var ce *ContractError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Issues[0], "unrecognised test script")
}

func req(method, raw string) *collection.Request {
	return &collection.Request{Method: method, Header: []collection.Header{}, URL: collection.URL{Raw: raw}}
}
