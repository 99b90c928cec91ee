package client

import (
	"context"
	"errors"
	"time"

	"github.com/gridpulse/microgrid-dispatch/api"
	"github.com/gridpulse/microgrid-dispatch/core/dispatch"
)

// ErrDone is returned by Pager.Next once every page has been yielded.
var ErrDone = errors.New("no more pages")

// ListRequest describes a filtered listing of one microgrid's dispatches.
// Absent predicates impose no constraint; specified ones are ANDed.
type ListRequest struct {
	MicrogridID uint64

	// Selectors match by structural equality, OR-ed across entries.
	Selectors []dispatch.ComponentSelector

	// Half-open [From, To) intervals over start time and end time.
	StartFrom *time.Time
	StartTo   *time.Time
	EndFrom   *time.Time
	EndTo     *time.Time

	Active *bool
	DryRun *bool

	// PageSize overrides the client default hint for the first request.
	PageSize int32
}

func (r ListRequest) filter() dispatch.Filter {
	return dispatch.Filter{
		MicrogridID: r.MicrogridID,
		Selectors:   r.Selectors,
		StartFrom:   r.StartFrom,
		StartTo:     r.StartTo,
		EndFrom:     r.EndFrom,
		EndTo:       r.EndTo,
		Active:      r.Active,
		DryRun:      r.DryRun,
	}
}

// List starts a paginated listing. Pages are fetched lazily, one remote call
// per Pager.Next. The filter travels only on the first request; follow-ups
// carry the continuation token alone.
func (c *Client) List(req ListRequest) *Pager {
	first := &api.ListRequest{
		MicrogridID: req.MicrogridID,
		Filter:      dispatch.FilterToWire(req.filter()),
	}
	size := req.PageSize
	if size == 0 {
		size = c.pageSize
	}
	if size > 0 {
		first.Pagination = &api.PaginationParams{PageSize: size}
	}
	return &Pager{c: c, microgridID: req.MicrogridID, first: first}
}

// Pager walks the pages of one list call in strict server order. It is not
// safe for concurrent use.
type Pager struct {
	c           *Client
	microgridID uint64
	first       *api.ListRequest
	token       string
	started     bool
	done        bool
}

// Next fetches the next page of records. It returns ErrDone after the final
// page; any remote or decode failure aborts the whole sequence.
func (p *Pager) Next(ctx context.Context) ([]dispatch.Dispatch, error) {
	if p.done {
		return nil, ErrDone
	}

	req := p.first
	if p.started {
		req = &api.ListRequest{
			MicrogridID: p.microgridID,
			Pagination:  &api.PaginationParams{PageToken: p.token},
		}
	}

	start := p.c.now()
	resp, err := p.c.svc.ListMicrogridDispatches(p.c.withKey(ctx), req)
	p.c.observe("ListMicrogridDispatches", p.microgridID, start, err)
	if err != nil {
		p.done = true
		return nil, err
	}
	p.started = true

	page := make([]dispatch.Dispatch, 0, len(resp.Dispatches))
	for _, w := range resp.Dispatches {
		d, err := dispatch.FromWire(w)
		if err != nil {
			p.done = true
			return nil, err
		}
		page = append(page, d)
	}

	if resp.NextPageToken == "" {
		p.done = true
	} else {
		p.token = resp.NextPageToken
	}
	return page, nil
}

// All drains the remaining pages and returns the concatenated records in
// page order.
func (p *Pager) All(ctx context.Context) ([]dispatch.Dispatch, error) {
	var all []dispatch.Dispatch
	for {
		page, err := p.Next(ctx)
		if errors.Is(err, ErrDone) {
			return all, nil
		}
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
	}
}
