// Package store keeps one in-memory document mirrored to one file.
//
// Clients mutate Store.Data directly and call Save. Every save encodes the
// whole document and hands the text to the store's writer, which allows one
// physical write at a time. Saves that arrive while a write is in flight
// collapse into a single follow-up write of the most recent text, and all of
// those callers share its outcome.
//
// A physical write stages the text in a hidden sibling file
// (<dir>/.<base>.tmp) and renames it over the document, so readers of the
// document path see either the previous or the next complete version.
//
//	s := store.New[map[string]any]("data/app.json")
//	if err := s.Connect(ctx); err != nil {
//		return err
//	}
//	s.Data["theme"] = "dark"
//	if err := s.Save(ctx); err != nil {
//		return err
//	}
//
// Store does not synchronize access to Data. Callers that mutate it from
// several goroutines must serialize those mutations together with the call
// to Save or SaveAsync, which reads Data before returning.
package store
