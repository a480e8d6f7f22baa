package store_test

import (
	"errors"
	"os"
	"sync"

	"github.com/spf13/afero"
)

var errInjected = errors.New("injected rename failure")

// gatedFs wraps an afero.Fs so tests can pause physical writes at the rename
// step and fail chosen renames. Renames are numbered from 1 in arrival order.
type gatedFs struct {
	afero.Fs

	mu      sync.Mutex
	renames int
	gate    chan struct{}
	entered chan int
	failAt  map[int]bool
}

func newGatedFs() *gatedFs {
	return &gatedFs{
		Fs:     afero.NewMemMapFs(),
		failAt: make(map[int]bool),
	}
}

// hold makes subsequent renames block until release is called.
func (g *gatedFs) hold() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gate = make(chan struct{})
	g.entered = make(chan int, 64)
}

func (g *gatedFs) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gate)
}

func (g *gatedFs) failRename(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failAt[n] = true
}

func (g *gatedFs) renameCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.renames
}

func (g *gatedFs) Rename(oldname, newname string) error {
	g.mu.Lock()
	g.renames++
	n := g.renames
	gate, entered := g.gate, g.entered
	fail := g.failAt[n]
	g.mu.Unlock()

	if gate != nil {
		entered <- n
		<-gate
	}
	if fail {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: errInjected}
	}
	return g.Fs.Rename(oldname, newname)
}
