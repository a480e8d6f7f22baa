// Package server exposes one store document over Connect RPC as the
// ark.v1.DocumentService. Messages are protobuf well-known types
// (google.protobuf.Struct and google.protobuf.Empty), so the service needs no
// generated code and any Connect, gRPC or gRPC-Web client can call it.
//
//	path, handler := server.NewHandler(server.NewService(s))
//	mux.Handle(path, handler)
package server
