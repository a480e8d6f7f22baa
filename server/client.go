package server

import (
	"context"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote DocumentService.
type Client struct {
	get   *connect.Client[emptypb.Empty, structpb.Struct]
	put   *connect.Client[structpb.Struct, emptypb.Empty]
	patch *connect.Client[structpb.Struct, structpb.Struct]
}

// NewClient creates a Client for the service at baseURL, e.g.
// "http://localhost:8080".
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		get:   connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+GetProcedure, opts...),
		put:   connect.NewClient[structpb.Struct, emptypb.Empty](httpClient, baseURL+PutProcedure, opts...),
		patch: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+PatchProcedure, opts...),
	}
}

// Get fetches the current document.
func (c *Client) Get(ctx context.Context) (map[string]any, error) {
	resp, err := c.get.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.AsMap(), nil
}

// Put replaces the remote document.
func (c *Client) Put(ctx context.Context, doc map[string]any) error {
	msg, err := structpb.NewStruct(doc)
	if err != nil {
		return err
	}
	_, err = c.put.CallUnary(ctx, connect.NewRequest(msg))
	return err
}

// Patch merges fields into the remote document; nil values delete keys.
func (c *Client) Patch(ctx context.Context, fields map[string]any) (map[string]any, error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	resp, err := c.patch.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg.AsMap(), nil
}
