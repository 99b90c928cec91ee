// Package api holds the wire representation of the dispatch service: the
// messages exchanged with the remote endpoint and the call contract every
// transport (and the in-memory test service) implements. The types are pure
// data; conversion to and from the domain model lives in core/dispatch.
package api

import (
	"context"
	"time"
)

// Timestamp is the wire encoding of an instant, UTC seconds plus nanos.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos,omitempty"`
}

// NewTimestamp encodes t. Returns nil for the zero time.
func NewTimestamp(t time.Time) *Timestamp {
	if t.IsZero() {
		return nil
	}
	return &Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

// Time decodes the timestamp. A nil timestamp decodes to the zero time.
func (ts *Timestamp) Time() time.Time {
	if ts == nil {
		return time.Time{}
	}
	return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC()
}

// ComponentSelector is the wire variant of the domain selector. Exactly one
// of ComponentIDs or ComponentCategory is set.
type ComponentSelector struct {
	ComponentIDs      []uint64 `json:"component_ids,omitempty"`
	ComponentCategory int32    `json:"component_category,omitempty"`
}

// EndCriteria terminates a recurrence, one of count or until.
type EndCriteria struct {
	Count *uint32    `json:"count,omitempty"`
	Until *Timestamp `json:"until,omitempty"`
}

// RecurrenceRule is the wire encoding of a recurrence rule.
type RecurrenceRule struct {
	Freq        int32        `json:"freq,omitempty"`
	Interval    uint32       `json:"interval,omitempty"`
	EndCriteria *EndCriteria `json:"end_criteria,omitempty"`
	ByMinutes   []int32      `json:"byminutes,omitempty"`
	ByHours     []int32      `json:"byhours,omitempty"`
	ByWeekdays  []int32      `json:"byweekdays,omitempty"`
	ByMonthDays []int32      `json:"bymonthdays,omitempty"`
	ByMonths    []int32      `json:"bymonths,omitempty"`
}

// Dispatch is the wire encoding of a dispatch record.
type Dispatch struct {
	ID          uint64            `json:"id"`
	MicrogridID uint64            `json:"microgrid_id"`
	Type        string            `json:"type"`
	StartTime   *Timestamp        `json:"start_time"`
	Duration    *uint32           `json:"duration,omitempty"`
	Selector    ComponentSelector `json:"selector"`
	IsActive    bool              `json:"is_active"`
	IsDryRun    bool              `json:"is_dry_run"`
	Payload     map[string]any    `json:"payload,omitempty"`
	Recurrence  RecurrenceRule    `json:"recurrence"`
	CreateTime  *Timestamp        `json:"create_time"`
	UpdateTime  *Timestamp        `json:"update_time"`
}

// RecurrenceDelta carries the recurrence fields of a partial update. Which
// fields apply is decided by the update mask, not by field presence.
type RecurrenceDelta struct {
	Freq        *int32       `json:"freq,omitempty"`
	Interval    *uint32      `json:"interval,omitempty"`
	EndCriteria *EndCriteria `json:"end_criteria,omitempty"`
	ByMinutes   []int32      `json:"byminutes,omitempty"`
	ByHours     []int32      `json:"byhours,omitempty"`
	ByWeekdays  []int32      `json:"byweekdays,omitempty"`
	ByMonthDays []int32      `json:"bymonthdays,omitempty"`
	ByMonths    []int32      `json:"bymonths,omitempty"`
}

// DispatchDelta is the sparse update body of an UpdateRequest: only the
// fields named in the accompanying mask paths carry meaning.
type DispatchDelta struct {
	StartTime  *Timestamp         `json:"start_time,omitempty"`
	Duration   *uint32            `json:"duration,omitempty"`
	Selector   *ComponentSelector `json:"selector,omitempty"`
	IsActive   *bool              `json:"is_active,omitempty"`
	Payload    map[string]any     `json:"payload,omitempty"`
	Recurrence *RecurrenceDelta   `json:"recurrence,omitempty"`
}

// TimeInterval is a half-open interval [From, To); either side may be nil.
type TimeInterval struct {
	From *Timestamp `json:"from,omitempty"`
	To   *Timestamp `json:"to,omitempty"`
}

// DispatchFilter narrows a list call. Absent fields impose no constraint.
type DispatchFilter struct {
	Selectors         []ComponentSelector `json:"selectors,omitempty"`
	StartTimeInterval *TimeInterval       `json:"start_time_interval,omitempty"`
	EndTimeInterval   *TimeInterval       `json:"end_time_interval,omitempty"`
	IsActive          *bool               `json:"is_active,omitempty"`
	IsDryRun          *bool               `json:"is_dry_run,omitempty"`
}

// PaginationParams carries either a page size hint (first request) or a
// continuation token (follow-up requests), never both.
type PaginationParams struct {
	PageSize  int32  `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

// ListRequest asks for the dispatches of one microgrid.
type ListRequest struct {
	MicrogridID uint64            `json:"microgrid_id"`
	Filter      *DispatchFilter   `json:"filter,omitempty"`
	Pagination  *PaginationParams `json:"pagination_params,omitempty"`
}

// ListResponse is one page of matching dispatches. An empty NextPageToken
// marks the final page.
type ListResponse struct {
	Dispatches    []*Dispatch `json:"dispatches"`
	NextPageToken string      `json:"next_page_token,omitempty"`
}

// CreateRequest submits a new dispatch; the service assigns id and times.
type CreateRequest struct {
	MicrogridID uint64            `json:"microgrid_id"`
	Type        string            `json:"type"`
	StartTime   *Timestamp        `json:"start_time"`
	Duration    *uint32           `json:"duration,omitempty"`
	Selector    ComponentSelector `json:"selector"`
	IsActive    bool              `json:"is_active"`
	IsDryRun    bool              `json:"is_dry_run"`
	Payload     map[string]any    `json:"payload,omitempty"`
	Recurrence  RecurrenceRule    `json:"recurrence"`
}

// CreateResponse returns the canonical created record.
type CreateResponse struct {
	Dispatch *Dispatch `json:"dispatch"`
}

// UpdateRequest patches the fields named by UpdateMask with the values in
// Update.
type UpdateRequest struct {
	MicrogridID uint64         `json:"microgrid_id"`
	DispatchID  uint64         `json:"dispatch_id"`
	Update      *DispatchDelta `json:"update"`
	UpdateMask  []string       `json:"update_mask"`
}

// UpdateResponse returns the record after the patch.
type UpdateResponse struct {
	Dispatch *Dispatch `json:"dispatch"`
}

// GetRequest fetches one dispatch by scope and id.
type GetRequest struct {
	MicrogridID uint64 `json:"microgrid_id"`
	DispatchID  uint64 `json:"dispatch_id"`
}

// GetResponse wraps the fetched record.
type GetResponse struct {
	Dispatch *Dispatch `json:"dispatch"`
}

// DeleteRequest removes one dispatch by scope and id.
type DeleteRequest struct {
	MicrogridID uint64 `json:"microgrid_id"`
	DispatchID  uint64 `json:"dispatch_id"`
}

// DispatchService is the call contract of the remote dispatch endpoint.
// Implementations report failures as gRPC status errors (NotFound,
// Unauthenticated, PermissionDenied, InvalidArgument).
type DispatchService interface {
	ListMicrogridDispatches(ctx context.Context, req *ListRequest) (*ListResponse, error)
	CreateMicrogridDispatch(ctx context.Context, req *CreateRequest) (*CreateResponse, error)
	UpdateMicrogridDispatch(ctx context.Context, req *UpdateRequest) (*UpdateResponse, error)
	GetMicrogridDispatch(ctx context.Context, req *GetRequest) (*GetResponse, error)
	DeleteMicrogridDispatch(ctx context.Context, req *DeleteRequest) error
}
