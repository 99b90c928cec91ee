// Package client implements the dispatch API client: create, list, update,
// get and delete of dispatch records against any api.DispatchService
// transport. Partial updates go through the field-mask builder in
// core/dispatch; listing is paginated through a Pager.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/gridpulse/microgrid-dispatch/api"
	"github.com/gridpulse/microgrid-dispatch/core/dispatch"
	"github.com/gridpulse/microgrid-dispatch/core/events"
	corelogger "github.com/gridpulse/microgrid-dispatch/core/logger"
	"github.com/gridpulse/microgrid-dispatch/core/metrics"
	"github.com/gridpulse/microgrid-dispatch/infra/logger"
)

// metadataKey is the per-call credential entry expected by the service.
const metadataKey = "key"

// Client talks to a dispatch service endpoint. All remote failures are
// returned as gRPC status errors; local validation failures are returned
// before any call leaves the process.
type Client struct {
	svc      api.DispatchService
	key      string
	pageSize int32
	log      corelogger.Logger
	sink     metrics.Sink
	notifier events.Publisher
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithKey sets the API key attached to every call.
func WithKey(key string) Option {
	return func(c *Client) { c.key = key }
}

// WithPageSize sets the page size hint sent on the first list request.
func WithPageSize(n int32) Option {
	return func(c *Client) { c.pageSize = n }
}

// WithLogger replaces the no-op default logger.
func WithLogger(l corelogger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetricsSink records one event per remote call on the given sink.
func WithMetricsSink(s metrics.Sink) Option {
	return func(c *Client) { c.sink = s }
}

// WithNotifier publishes a lifecycle event after every successful mutation.
func WithNotifier(p events.Publisher) Option {
	return func(c *Client) { c.notifier = p }
}

// New creates a client for the given service transport.
func New(svc api.DispatchService, opts ...Option) *Client {
	c := &Client{
		svc:  svc,
		log:  logger.NopLogger{},
		sink: metrics.NopSink{},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateRequest carries the caller-settable fields of a new dispatch. ID and
// the timestamps are assigned by the service.
type CreateRequest struct {
	MicrogridID uint64
	Type        string
	StartTime   time.Time
	// Duration may be nil for a dispatch that never ends.
	Duration   *time.Duration
	Selector   dispatch.ComponentSelector
	Active     bool
	DryRun     bool
	Payload    map[string]any
	Recurrence dispatch.RecurrenceRule
}

// Create submits a new dispatch and returns the canonical record. The start
// time must be strictly in the future; this is checked before the call.
func (c *Client) Create(ctx context.Context, req CreateRequest) (dispatch.Dispatch, error) {
	if err := dispatch.ValidateStartTime(req.StartTime, c.now()); err != nil {
		return dispatch.Dispatch{}, err
	}
	if err := dispatch.ValidateDuration(req.Duration); err != nil {
		return dispatch.Dispatch{}, err
	}
	if err := req.Selector.Validate(); err != nil {
		return dispatch.Dispatch{}, err
	}
	if err := dispatch.ValidatePayload(req.Payload); err != nil {
		return dispatch.Dispatch{}, err
	}

	wire := &api.CreateRequest{
		MicrogridID: req.MicrogridID,
		Type:        req.Type,
		StartTime:   api.NewTimestamp(req.StartTime),
		Selector:    dispatch.SelectorToWire(req.Selector),
		IsActive:    req.Active,
		IsDryRun:    req.DryRun,
		Payload:     req.Payload,
		Recurrence:  dispatch.RecurrenceToWire(req.Recurrence),
	}
	if req.Duration != nil {
		secs := uint32(*req.Duration / time.Second)
		wire.Duration = &secs
	}

	start := c.now()
	resp, err := c.svc.CreateMicrogridDispatch(c.withKey(ctx), wire)
	c.observe("CreateMicrogridDispatch", req.MicrogridID, start, err)
	if err != nil {
		return dispatch.Dispatch{}, err
	}
	created, err := dispatch.FromWire(resp.Dispatch)
	if err != nil {
		return dispatch.Dispatch{}, err
	}
	c.notify(events.ActionCreated, created.MicrogridID, created.ID)
	return created, nil
}

// Update patches the fields named by the given updates and returns the
// record after the patch. Unknown or immutable paths and empty update sets
// fail locally before any remote call.
func (c *Client) Update(ctx context.Context, microgridID, dispatchID uint64, updates []dispatch.FieldUpdate) (dispatch.Dispatch, error) {
	delta, paths, err := dispatch.BuildUpdate(updates)
	if err != nil {
		return dispatch.Dispatch{}, err
	}

	req := &api.UpdateRequest{
		MicrogridID: microgridID,
		DispatchID:  dispatchID,
		Update:      delta,
		UpdateMask:  paths,
	}
	start := c.now()
	resp, err := c.svc.UpdateMicrogridDispatch(c.withKey(ctx), req)
	c.observe("UpdateMicrogridDispatch", microgridID, start, err)
	if err != nil {
		return dispatch.Dispatch{}, err
	}
	updated, err := dispatch.FromWire(resp.Dispatch)
	if err != nil {
		return dispatch.Dispatch{}, err
	}
	c.notify(events.ActionUpdated, microgridID, dispatchID)
	return updated, nil
}

// UpdateFields is the map convenience form of Update. Paths are applied in
// sorted order so the emitted mask is reproducible.
func (c *Client) UpdateFields(ctx context.Context, microgridID, dispatchID uint64, fields map[string]any) (dispatch.Dispatch, error) {
	return c.Update(ctx, microgridID, dispatchID, dispatch.FieldUpdates(fields))
}

// Get fetches one dispatch by scope and id.
func (c *Client) Get(ctx context.Context, microgridID, dispatchID uint64) (dispatch.Dispatch, error) {
	req := &api.GetRequest{MicrogridID: microgridID, DispatchID: dispatchID}
	start := c.now()
	resp, err := c.svc.GetMicrogridDispatch(c.withKey(ctx), req)
	c.observe("GetMicrogridDispatch", microgridID, start, err)
	if err != nil {
		return dispatch.Dispatch{}, err
	}
	return dispatch.FromWire(resp.Dispatch)
}

// Delete removes one dispatch. Deleting an id that does not exist in the
// scope is a NotFound error, not a no-op.
func (c *Client) Delete(ctx context.Context, microgridID, dispatchID uint64) error {
	req := &api.DeleteRequest{MicrogridID: microgridID, DispatchID: dispatchID}
	start := c.now()
	err := c.svc.DeleteMicrogridDispatch(c.withKey(ctx), req)
	c.observe("DeleteMicrogridDispatch", microgridID, start, err)
	if err != nil {
		return err
	}
	c.notify(events.ActionDeleted, microgridID, dispatchID)
	return nil
}

func (c *Client) withKey(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx, metadataKey, c.key)
}

func (c *Client) observe(method string, microgridID uint64, start time.Time, callErr error) {
	ev := metrics.RPCEvent{
		Method:      method,
		Code:        status.Code(callErr).String(),
		Duration:    c.now().Sub(start),
		MicrogridID: microgridID,
	}
	if err := c.sink.RecordRPC(ev); err != nil {
		c.log.Warnf("record rpc metric: %v", err)
	}
	if callErr != nil {
		c.log.Debugw("rpc failed", map[string]any{
			"method": method,
			"error":  fmt.Sprint(callErr),
		})
	}
}

func (c *Client) notify(action events.Action, microgridID, dispatchID uint64) {
	if c.notifier == nil {
		return
	}
	ev := events.Event{
		ID:          uuid.NewString(),
		Action:      action,
		MicrogridID: microgridID,
		DispatchID:  dispatchID,
		Time:        c.now().UTC(),
	}
	if err := c.notifier.Publish(ev); err != nil {
		c.log.Errorf("publish %s event: %v", action, err)
	}
}
