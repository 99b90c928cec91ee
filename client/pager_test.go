package client_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridpulse/microgrid-dispatch/client"
	"github.com/gridpulse/microgrid-dispatch/core/dispatch"
	"github.com/gridpulse/microgrid-dispatch/dispatchtest"
)

// seed inserts n records into the scope, alternating the active flag.
func seed(t *testing.T, svc *dispatchtest.Service, microgridID uint64, n int) {
	t.Helper()
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		dur := time.Hour
		sel, err := dispatch.SelectComponents(uint64(i%3 + 1))
		if err != nil {
			t.Fatalf("selector: %v", err)
		}
		svc.Insert(dispatch.Dispatch{
			ID:          uint64(i + 1),
			MicrogridID: microgridID,
			Type:        fmt.Sprintf("JOB_%d", i),
			StartTime:   base.Add(time.Duration(i) * time.Hour),
			Duration:    &dur,
			Selector:    sel,
			Active:      i%2 == 0,
			CreateTime:  base,
			UpdateTime:  base,
		})
	}
}

func TestListPaginatesAllRecords(t *testing.T) {
	c, svc := dispatchtest.NewClient()
	seed(t, svc, 12, 100)

	pager := c.List(client.ListRequest{MicrogridID: 12, PageSize: 7})
	ctx := context.Background()

	seen := map[uint64]bool{}
	pages := 0
	for {
		page, err := pager.Next(ctx)
		if err == client.ErrDone {
			break
		}
		require.NoError(t, err)
		require.LessOrEqual(t, len(page), 7)
		pages++
		for _, d := range page {
			require.False(t, seen[d.ID], "dispatch %d yielded twice", d.ID)
			seen[d.ID] = true
		}
	}
	require.Len(t, seen, 100)
	require.Equal(t, 15, pages)

	// The pager stays exhausted.
	_, err := pager.Next(ctx)
	require.ErrorIs(t, err, client.ErrDone)
	_, err = pager.Next(ctx)
	require.ErrorIs(t, err, client.ErrDone)
}

func TestListAll(t *testing.T) {
	c, svc := dispatchtest.NewClient(client.WithPageSize(9))
	seed(t, svc, 12, 25)

	all, err := c.List(client.ListRequest{MicrogridID: 12}).All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 25)
}

func TestListFilterAppliesAcrossPages(t *testing.T) {
	c, svc := dispatchtest.NewClient()
	seed(t, svc, 12, 40)

	active := true
	all, err := c.List(client.ListRequest{
		MicrogridID: 12,
		Active:      &active,
		PageSize:    3,
	}).All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 20)
	for _, d := range all {
		require.True(t, d.Active)
	}
}

func TestListScopeIsolation(t *testing.T) {
	c, svc := dispatchtest.NewClient()
	seed(t, svc, 12, 5)
	seed(t, svc, 13, 3)

	all, err := c.List(client.ListRequest{MicrogridID: 12}).All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 5)
	for _, d := range all {
		require.Equal(t, uint64(12), d.MicrogridID)
	}
}

func TestListEmptyScope(t *testing.T) {
	c, _ := dispatchtest.NewClient()
	pager := c.List(client.ListRequest{MicrogridID: 99})

	page, err := pager.Next(context.Background())
	require.NoError(t, err)
	require.Empty(t, page)
	_, err = pager.Next(context.Background())
	require.ErrorIs(t, err, client.ErrDone)
}

func TestListSelectorFilter(t *testing.T) {
	c, svc := dispatchtest.NewClient()
	seed(t, svc, 12, 30) // selectors cycle {1},{2},{3}

	sel, err := dispatch.SelectComponents(2)
	require.NoError(t, err)
	all, err := c.List(client.ListRequest{
		MicrogridID: 12,
		Selectors:   []dispatch.ComponentSelector{sel},
	}).All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 10)
	for _, d := range all {
		require.True(t, d.Selector.Equal(sel))
	}
}

func TestListStartWindow(t *testing.T) {
	c, svc := dispatchtest.NewClient()
	seed(t, svc, 12, 24) // hourly starts from 2026-06-01T00:00Z

	from := time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	all, err := c.List(client.ListRequest{
		MicrogridID: 12,
		StartFrom:   &from,
		StartTo:     &to,
	}).All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 6, "half-open window keeps 06:00 through 11:00")
	for _, d := range all {
		require.False(t, d.StartTime.Before(from))
		require.True(t, d.StartTime.Before(to))
	}
}
