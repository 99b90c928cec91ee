// Package rpc implements the api.DispatchService call contract over
// JSON-encoded HTTP. Each RPC is one POST to {base}/v1/{method}; failures
// come back as gRPC status errors so callers see the same taxonomy as with
// any other transport.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/gridpulse/microgrid-dispatch/api"
)

// Transport is an HTTP-backed dispatch service endpoint.
type Transport struct {
	base   string
	client *http.Client
}

// New creates a transport for the given base URL.
func New(base string) *Transport {
	return &Transport{
		base:   strings.TrimSuffix(base, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type errorBody struct {
	Code    uint32 `json:"code"`
	Message string `json:"message"`
}

func (t *Transport) call(ctx context.Context, method string, req, resp any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return status.Errorf(codes.Internal, "encode request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/%s", t.base, method), bytes.NewReader(body))
	if err != nil {
		return status.Errorf(codes.Internal, "build request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if md, ok := metadata.FromOutgoingContext(ctx); ok {
		if keys := md.Get("key"); len(keys) > 0 {
			httpReq.Header.Set("X-API-Key", keys[0])
		}
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return status.Errorf(codes.Unavailable, "call %s: %v", method, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return status.Errorf(codes.Unavailable, "read %s response: %v", method, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return decodeError(httpResp.StatusCode, data)
	}
	if resp == nil {
		return nil
	}
	if err := json.Unmarshal(data, resp); err != nil {
		return status.Errorf(codes.Internal, "decode %s response: %v", method, err)
	}
	return nil
}

// decodeError prefers the status carried in the body and falls back to a
// mapping from the HTTP status code.
func decodeError(httpStatus int, data []byte) error {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Code != 0 {
		return status.Error(codes.Code(body.Code), body.Message)
	}
	code := codes.Internal
	switch httpStatus {
	case http.StatusBadRequest:
		code = codes.InvalidArgument
	case http.StatusUnauthorized:
		code = codes.Unauthenticated
	case http.StatusForbidden:
		code = codes.PermissionDenied
	case http.StatusNotFound:
		code = codes.NotFound
	case http.StatusServiceUnavailable:
		code = codes.Unavailable
	}
	return status.Error(code, strings.TrimSpace(string(data)))
}

func (t *Transport) ListMicrogridDispatches(ctx context.Context, req *api.ListRequest) (*api.ListResponse, error) {
	var resp api.ListResponse
	if err := t.call(ctx, "ListMicrogridDispatches", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (t *Transport) CreateMicrogridDispatch(ctx context.Context, req *api.CreateRequest) (*api.CreateResponse, error) {
	var resp api.CreateResponse
	if err := t.call(ctx, "CreateMicrogridDispatch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (t *Transport) UpdateMicrogridDispatch(ctx context.Context, req *api.UpdateRequest) (*api.UpdateResponse, error) {
	var resp api.UpdateResponse
	if err := t.call(ctx, "UpdateMicrogridDispatch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (t *Transport) GetMicrogridDispatch(ctx context.Context, req *api.GetRequest) (*api.GetResponse, error) {
	var resp api.GetResponse
	if err := t.call(ctx, "GetMicrogridDispatch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (t *Transport) DeleteMicrogridDispatch(ctx context.Context, req *api.DeleteRequest) error {
	return t.call(ctx, "DeleteMicrogridDispatch", req, nil)
}
