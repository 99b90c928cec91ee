package client_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gridpulse/microgrid-dispatch/api"
	"github.com/gridpulse/microgrid-dispatch/client"
	"github.com/gridpulse/microgrid-dispatch/core/dispatch"
	"github.com/gridpulse/microgrid-dispatch/core/events"
	"github.com/gridpulse/microgrid-dispatch/dispatchtest"
	infraevents "github.com/gridpulse/microgrid-dispatch/infra/events"
)

func mustSelector(t *testing.T, ids ...uint64) dispatch.ComponentSelector {
	t.Helper()
	sel, err := dispatch.SelectComponents(ids...)
	if err != nil {
		t.Fatalf("select components: %v", err)
	}
	return sel
}

func createReq(t *testing.T) client.CreateRequest {
	t.Helper()
	dur := time.Hour
	return client.CreateRequest{
		MicrogridID: 12,
		Type:        "PEAK_SHAVING",
		StartTime:   time.Now().Add(2 * time.Hour).Truncate(time.Second),
		Duration:    &dur,
		Selector:    mustSelector(t, 1, 2),
		Active:      true,
		Payload:     map[string]any{"power_kw": 50.0},
		Recurrence: dispatch.RecurrenceRule{
			Frequency: dispatch.FrequencyDaily,
			Interval:  1,
			ByHours:   []int32{8},
		},
	}
}

func TestCreateGetUpdateDelete(t *testing.T) {
	c, _ := dispatchtest.NewClient()
	ctx := context.Background()

	created, err := c.Create(ctx, createReq(t))
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, created.CreateTime, created.UpdateTime)

	got, err := c.Get(ctx, created.MicrogridID, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	updated, err := c.Update(ctx, created.MicrogridID, created.ID, []dispatch.FieldUpdate{
		{Path: "active", Value: false},
		{Path: "recurrence.byhours", Value: []int{5}},
	})
	require.NoError(t, err)
	require.False(t, updated.Active)
	require.Equal(t, []int32{5}, updated.Recurrence.ByHours)
	require.True(t, updated.UpdateTime.After(updated.CreateTime),
		"update_time must move strictly forward")
	// Fields outside the mask stay put.
	require.Equal(t, created.Type, updated.Type)
	require.True(t, updated.StartTime.Equal(created.StartTime))

	// A fresh read sees the patched record.
	reread, err := c.Get(ctx, created.MicrogridID, created.ID)
	require.NoError(t, err)
	require.Equal(t, updated, reread)

	require.NoError(t, c.Delete(ctx, created.MicrogridID, created.ID))
	_, err = c.Get(ctx, created.MicrogridID, created.ID)
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestCreateRejectsPastStartLocally(t *testing.T) {
	c, svc := dispatchtest.NewClient()
	req := createReq(t)
	req.StartTime = time.Now().Add(-time.Minute)

	_, err := c.Create(context.Background(), req)
	require.ErrorIs(t, err, dispatch.ErrStartTimeInPast)
	require.Empty(t, svc.Dispatches(req.MicrogridID), "nothing may reach the service")
}

func TestCreateRejectsNegativeDurationLocally(t *testing.T) {
	c, svc := dispatchtest.NewClient()
	req := createReq(t)
	neg := -time.Hour
	req.Duration = &neg

	_, err := c.Create(context.Background(), req)
	require.ErrorIs(t, err, dispatch.ErrNegativeDuration)
	require.Empty(t, svc.Dispatches(req.MicrogridID), "nothing may reach the service")
}

func TestCreateRejectsEmptySelector(t *testing.T) {
	c, _ := dispatchtest.NewClient()
	req := createReq(t)
	req.Selector = dispatch.ComponentSelector{}

	_, err := c.Create(context.Background(), req)
	require.Error(t, err)
}

func TestUpdateEmptySetIssuesNoCall(t *testing.T) {
	c, svc := dispatchtest.NewClient()
	ctx := context.Background()
	created, err := c.Create(ctx, createReq(t))
	require.NoError(t, err)

	_, err = c.Update(ctx, created.MicrogridID, created.ID, nil)
	require.ErrorIs(t, err, dispatch.ErrNoFieldsToUpdate)

	_, err = c.UpdateFields(ctx, created.MicrogridID, created.ID, map[string]any{})
	require.ErrorIs(t, err, dispatch.ErrNoFieldsToUpdate)

	stored := svc.Dispatches(created.MicrogridID)
	require.Len(t, stored, 1)
	require.Equal(t, created.UpdateTime, stored[0].UpdateTime, "record must stay untouched")
}

func TestUpdateImmutableAndUnknownFailLocally(t *testing.T) {
	c, _ := dispatchtest.NewClient()
	ctx := context.Background()
	created, err := c.Create(ctx, createReq(t))
	require.NoError(t, err)

	_, err = c.UpdateFields(ctx, created.MicrogridID, created.ID, map[string]any{"type": "OTHER"})
	require.ErrorIs(t, err, dispatch.ErrImmutableField)

	_, err = c.UpdateFields(ctx, created.MicrogridID, created.ID, map[string]any{"bogus": 1})
	require.ErrorIs(t, err, dispatch.ErrUnknownField)
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	c, _ := dispatchtest.NewClient()
	ctx := context.Background()

	err := c.Delete(ctx, 12, 999)
	require.Equal(t, codes.NotFound, status.Code(err))

	created, err := c.Create(ctx, createReq(t))
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, created.MicrogridID, created.ID))
	err = c.Delete(ctx, created.MicrogridID, created.ID)
	require.Equal(t, codes.NotFound, status.Code(err), "second delete of the same id")
}

func TestCredentials(t *testing.T) {
	cases := []struct {
		name string
		key  string
		want codes.Code
	}{
		{"missing", "", codes.Unauthenticated},
		{"unknown", dispatchtest.KeyInvalid, codes.Unauthenticated},
		{"no permissions", dispatchtest.KeyNoPermissions, codes.PermissionDenied},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := dispatchtest.NewClient(client.WithKey(tc.key))
			_, err := c.Get(context.Background(), 12, 1)
			require.Equal(t, tc.want, status.Code(err))
		})
	}
}

func TestNotifierReceivesLifecycleEvents(t *testing.T) {
	pub := infraevents.NewMockPublisher()
	c, _ := dispatchtest.NewClient(client.WithNotifier(pub))
	ctx := context.Background()

	created, err := c.Create(ctx, createReq(t))
	require.NoError(t, err)
	_, err = c.UpdateFields(ctx, created.MicrogridID, created.ID, map[string]any{"active": false})
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, created.MicrogridID, created.ID))

	evs := pub.Events()
	require.Len(t, evs, 3)
	require.Equal(t, events.ActionCreated, evs[0].Action)
	require.Equal(t, events.ActionUpdated, evs[1].Action)
	require.Equal(t, events.ActionDeleted, evs[2].Action)
	for _, ev := range evs {
		require.Equal(t, created.MicrogridID, ev.MicrogridID)
		require.Equal(t, created.ID, ev.DispatchID)
		require.NotEmpty(t, ev.ID)
	}
}

func TestNotifierFailureDoesNotFailTheCall(t *testing.T) {
	pub := infraevents.NewMockPublisher()
	pub.Fail = true
	c, _ := dispatchtest.NewClient(client.WithNotifier(pub))

	_, err := c.Create(context.Background(), createReq(t))
	require.NoError(t, err)
}

// failingService returns a fixed error from every call.
type failingService struct {
	err error
}

func (f failingService) ListMicrogridDispatches(context.Context, *api.ListRequest) (*api.ListResponse, error) {
	return nil, f.err
}

func (f failingService) CreateMicrogridDispatch(context.Context, *api.CreateRequest) (*api.CreateResponse, error) {
	return nil, f.err
}

func (f failingService) UpdateMicrogridDispatch(context.Context, *api.UpdateRequest) (*api.UpdateResponse, error) {
	return nil, f.err
}

func (f failingService) GetMicrogridDispatch(context.Context, *api.GetRequest) (*api.GetResponse, error) {
	return nil, f.err
}

func (f failingService) DeleteMicrogridDispatch(context.Context, *api.DeleteRequest) error {
	return f.err
}

func TestRemoteErrorsPassThrough(t *testing.T) {
	wantErr := status.Error(codes.Unavailable, "down")
	c := client.New(failingService{err: wantErr})
	ctx := context.Background()

	_, err := c.Get(ctx, 1, 1)
	require.Equal(t, codes.Unavailable, status.Code(err))
	err = c.Delete(ctx, 1, 1)
	require.Equal(t, codes.Unavailable, status.Code(err))

	_, err = c.List(client.ListRequest{MicrogridID: 1}).Next(ctx)
	if !errors.Is(err, wantErr) && status.Code(err) != codes.Unavailable {
		t.Fatalf("list err = %v, want Unavailable", err)
	}
}
