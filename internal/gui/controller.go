package gui

import (
	"context"
	"sync"

	"github.com/thiagokokada/gitree-go/internal/git"
	"github.com/thiagokokada/gitree-go/internal/tree"
	"github.com/thiagokokada/gitree-go/internal/viewstate"
)

type Controller struct {
	view  *tree.View
	store *viewstate.Store

	cfg   controllerConfig
	theme controllerTheme
	repos controllerRepos

	ui appWidgets

	state controllerState
}

type controllerConfig struct {
	pageSize            int
	autoReloadRequested bool
	verbose             bool
}

type controllerTheme struct {
	pref    ThemePreference
	palette colorPalette
}

type controllerRepos struct {
	// paths preserves mount order; the first repository is the default
	// scope for jump targets.
	paths    []string
	services map[string]*git.Service
}

type controllerState struct {
	panel panelState
	jump  jumpState
	watch autoReloadState
}

// panelState tracks which widget items exist and which are expanded. Only
// the UI goroutine touches items; expanded is shared with the shutdown path
// persisting the layout.
type panelState struct {
	mu       sync.Mutex
	expanded map[string]bool
}

func (p *panelState) setExpanded(id string, open bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.expanded == nil {
		p.expanded = make(map[string]bool)
	}
	if open {
		p.expanded[id] = true
	} else {
		delete(p.expanded, id)
	}
}

func (p *panelState) snapshot() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]bool, len(p.expanded))
	for id := range p.expanded {
		out[id] = true
	}
	return out
}

// jumpState serializes reveal commands from the jump entry. Issuing a new
// jump cancels the one in flight.
type jumpState struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

func (j *jumpState) begin() context.Context {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		j.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	return ctx
}

func (j *jumpState) stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		j.cancel()
		j.cancel = nil
	}
}

func (a *Controller) service(repoPath string) *git.Service {
	return a.repos.services[repoPath]
}

func (a *Controller) defaultRepoPath() string {
	if len(a.repos.paths) == 0 {
		return ""
	}
	return a.repos.paths[0]
}
