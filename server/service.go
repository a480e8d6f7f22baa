package server

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/ark/store"
)

// ServiceName is the fully-qualified name of the document service.
const ServiceName = "ark.v1.DocumentService"

// Procedure paths served by the handler.
const (
	GetProcedure   = "/" + ServiceName + "/Get"
	PutProcedure   = "/" + ServiceName + "/Put"
	PatchProcedure = "/" + ServiceName + "/Patch"
)

// Service serves a map-shaped document. It serializes its own mutations of
// Data and waits for each save outside the lock, so concurrent requests
// coalesce in the store's writer.
type Service struct {
	mu    sync.Mutex
	store *store.Store[map[string]any]
	last  *store.Completion
}

// NewService wraps a connected store.
func NewService(s *store.Store[map[string]any]) *Service {
	return &Service{store: s}
}

// NewHandler builds the HTTP handler for svc and returns the path prefix it
// should be mounted on.
func NewHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(GetProcedure, connect.NewUnaryHandler(GetProcedure, svc.Get, opts...))
	mux.Handle(PutProcedure, connect.NewUnaryHandler(PutProcedure, svc.Put, opts...))
	mux.Handle(PatchProcedure, connect.NewUnaryHandler(PatchProcedure, svc.Patch, opts...))
	return "/" + ServiceName + "/", mux
}

// Get returns the current document.
func (s *Service) Get(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	s.mu.Lock()
	doc, err := structpb.NewStruct(s.store.Data)
	s.mu.Unlock()
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(doc), nil
}

// Put replaces the whole document and returns once it is on disk.
func (s *Service) Put(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[emptypb.Empty], error) {
	s.mu.Lock()
	s.store.Data = req.Msg.AsMap()
	pending := s.store.SaveAsync()
	s.last = pending
	s.mu.Unlock()

	if err := pending.Wait(ctx); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// Patch merges top-level keys into the document. A null value removes the
// key. Returns the resulting document once it is on disk.
func (s *Service) Patch(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	s.mu.Lock()
	next := make(map[string]any, len(s.store.Data)+len(req.Msg.GetFields()))
	maps.Copy(next, s.store.Data)
	for key, value := range req.Msg.GetFields() {
		if _, isNull := value.GetKind().(*structpb.Value_NullValue); isNull {
			delete(next, key)
			continue
		}
		next[key] = value.AsInterface()
	}
	doc, err := structpb.NewStruct(next)
	if err != nil {
		s.mu.Unlock()
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	s.store.Data = next
	pending := s.store.SaveAsync()
	s.last = pending
	s.mu.Unlock()

	if err := pending.Wait(ctx); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(doc), nil
}

// Flush waits until the most recent save accepted by the service has
// finished. Writes complete in acceptance order, so every earlier save has
// finished too. Returns that save's outcome, or ctx's error if it expires
// first.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	if last == nil {
		return nil
	}
	return last.Wait(ctx)
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, store.ErrEncodeFailed):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
