// Package dispatchtest provides an in-memory double of the dispatch service
// plus a ready-wired client. The double implements the same filter, mask and
// credential semantics as the real endpoint, so client code can be exercised
// without a network.
package dispatchtest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/gridpulse/microgrid-dispatch/api"
	"github.com/gridpulse/microgrid-dispatch/core/dispatch"
)

// Canonical credentials recognized by the service double.
const (
	// KeyFullAccess is accepted for every operation.
	KeyFullAccess = "full-access"
	// KeyNoPermissions is recognized but authorized for nothing.
	KeyNoPermissions = "none"
	// KeyInvalid is not recognized at all.
	KeyInvalid = "invalid"
)

// DefaultPageSize is used when a list request carries no page size hint.
const DefaultPageSize = 50

// Service is the in-memory dispatch service. It holds one record list per
// microgrid scope; mutations on a scope are serialized against concurrent
// reads of the same scope, scopes are independent.
type Service struct {
	mu       sync.Mutex
	scopes   map[uint64]*scope
	sessions map[string]*session
	lastID   uint64
	now      func() time.Time
}

type scope struct {
	mu         sync.Mutex
	dispatches []dispatch.Dispatch
}

// session is the server-side pagination state bound to a continuation token.
type session struct {
	remaining []dispatch.Dispatch
	pageSize  int32
}

// NewService creates an empty service double.
func NewService() *Service {
	return &Service{
		scopes:   make(map[uint64]*scope),
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// SetNow replaces the service clock, for tests that need fixed timestamps.
func (s *Service) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Service) clock() func() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *Service) scopeFor(microgridID uint64) *scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scopes[microgridID]
	if !ok {
		sc = &scope{}
		s.scopes[microgridID] = sc
	}
	return sc
}

// Dispatches returns a snapshot of the records stored for a scope.
func (s *Service) Dispatches(microgridID uint64) []dispatch.Dispatch {
	sc := s.scopeFor(microgridID)
	sc.mu.Lock()
	defer sc.mu.Unlock()
	out := make([]dispatch.Dispatch, len(sc.dispatches))
	for i, d := range sc.dispatches {
		out[i] = d.Clone()
	}
	return out
}

// Insert seeds a record directly, bypassing validation. Test helper.
func (s *Service) Insert(d dispatch.Dispatch) {
	s.mu.Lock()
	if d.ID > s.lastID {
		s.lastID = d.ID
	}
	s.mu.Unlock()
	sc := s.scopeFor(d.MicrogridID)
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.dispatches = append(sc.dispatches, d.Clone())
}

func authorize(ctx context.Context) error {
	md, _ := metadata.FromOutgoingContext(ctx)
	keys := md.Get("key")
	if len(keys) == 0 || keys[0] == "" {
		return status.Error(codes.Unauthenticated, "no API key provided")
	}
	switch keys[0] {
	case KeyFullAccess:
		return nil
	case KeyNoPermissions:
		return status.Error(codes.PermissionDenied, "key has no permissions")
	default:
		return status.Error(codes.Unauthenticated, "unknown API key")
	}
}

// ListMicrogridDispatches filters the scope's records and returns one page,
// handing out a continuation token while records remain.
func (s *Service) ListMicrogridDispatches(ctx context.Context, req *api.ListRequest) (*api.ListResponse, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}

	if tok := pageToken(req.Pagination); tok != "" {
		if req.Pagination.PageSize > 0 {
			return nil, status.Error(codes.InvalidArgument, "page_size and page_token are mutually exclusive")
		}
		return s.continueSession(tok)
	}

	filter, err := dispatch.FilterFromWire(req.MicrogridID, req.Filter)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid filter: %v", err)
	}

	sc := s.scopeFor(req.MicrogridID)
	sc.mu.Lock()
	var matched []dispatch.Dispatch
	for _, d := range sc.dispatches {
		if filter.Matches(d) {
			matched = append(matched, d.Clone())
		}
	}
	sc.mu.Unlock()

	size := int32(DefaultPageSize)
	if req.Pagination != nil && req.Pagination.PageSize > 0 {
		size = req.Pagination.PageSize
	}
	return s.emitPage(matched, size), nil
}

func pageToken(p *api.PaginationParams) string {
	if p == nil {
		return ""
	}
	return p.PageToken
}

func (s *Service) continueSession(token string) (*api.ListResponse, error) {
	s.mu.Lock()
	sess, ok := s.sessions[token]
	if ok {
		delete(s.sessions, token)
	}
	s.mu.Unlock()
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "unknown page token")
	}
	return s.emitPage(sess.remaining, sess.pageSize), nil
}

func (s *Service) emitPage(records []dispatch.Dispatch, size int32) *api.ListResponse {
	page := records
	var rest []dispatch.Dispatch
	if int32(len(records)) > size {
		page = records[:size]
		rest = records[size:]
	}

	resp := &api.ListResponse{}
	for _, d := range page {
		resp.Dispatches = append(resp.Dispatches, dispatch.ToWire(d))
	}
	if len(rest) > 0 {
		token := uuid.NewString()
		s.mu.Lock()
		s.sessions[token] = &session{remaining: rest, pageSize: size}
		s.mu.Unlock()
		resp.NextPageToken = token
	}
	return resp
}

// CreateMicrogridDispatch validates and stores a new dispatch, assigning id
// and timestamps.
func (s *Service) CreateMicrogridDispatch(ctx context.Context, req *api.CreateRequest) (*api.CreateResponse, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}

	now := s.clock()().UTC()
	if err := dispatch.ValidateStartTime(req.StartTime.Time(), now); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	d, err := dispatch.FromWire(&api.Dispatch{
		MicrogridID: req.MicrogridID,
		Type:        req.Type,
		StartTime:   req.StartTime,
		Duration:    req.Duration,
		Selector:    req.Selector,
		IsActive:    req.IsActive,
		IsDryRun:    req.IsDryRun,
		Payload:     req.Payload,
		Recurrence:  req.Recurrence,
	})
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid dispatch: %v", err)
	}

	s.mu.Lock()
	s.lastID++
	d.ID = s.lastID
	s.mu.Unlock()
	d.CreateTime = now
	d.UpdateTime = now

	// Clone both ways: the decoded record still aliases the request's
	// payload map, and the response must not alias the store.
	sc := s.scopeFor(req.MicrogridID)
	sc.mu.Lock()
	sc.dispatches = append(sc.dispatches, d.Clone())
	sc.mu.Unlock()

	return &api.CreateResponse{Dispatch: dispatch.ToWire(d.Clone())}, nil
}

// UpdateMicrogridDispatch applies the mask onto the stored record,
// atomically replaces it and bumps its update time.
func (s *Service) UpdateMicrogridDispatch(ctx context.Context, req *api.UpdateRequest) (*api.UpdateResponse, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}

	sc := s.scopeFor(req.MicrogridID)
	sc.mu.Lock()
	defer sc.mu.Unlock()

	idx := -1
	for i, d := range sc.dispatches {
		if d.ID == req.DispatchID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, status.Error(codes.NotFound, "dispatch not found")
	}

	applied, err := dispatch.ApplyDelta(sc.dispatches[idx], req.Update, req.UpdateMask)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid update: %v", err)
	}

	now := s.clock()().UTC()
	// update_time stays strictly monotonic even on a coarse clock.
	if !now.After(applied.UpdateTime) {
		now = applied.UpdateTime.Add(time.Millisecond)
	}
	applied.UpdateTime = now
	sc.dispatches[idx] = applied

	return &api.UpdateResponse{Dispatch: dispatch.ToWire(applied.Clone())}, nil
}

// GetMicrogridDispatch returns one record by scope and id.
func (s *Service) GetMicrogridDispatch(ctx context.Context, req *api.GetRequest) (*api.GetResponse, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}

	sc := s.scopeFor(req.MicrogridID)
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for _, d := range sc.dispatches {
		if d.ID == req.DispatchID {
			return &api.GetResponse{Dispatch: dispatch.ToWire(d.Clone())}, nil
		}
	}
	return nil, status.Error(codes.NotFound, "dispatch not found")
}

// DeleteMicrogridDispatch removes one record; a missing id is an error.
func (s *Service) DeleteMicrogridDispatch(ctx context.Context, req *api.DeleteRequest) error {
	if err := authorize(ctx); err != nil {
		return err
	}

	sc := s.scopeFor(req.MicrogridID)
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for i, d := range sc.dispatches {
		if d.ID == req.DispatchID {
			sc.dispatches = append(sc.dispatches[:i], sc.dispatches[i+1:]...)
			return nil
		}
	}
	return status.Error(codes.NotFound, "dispatch not found")
}
