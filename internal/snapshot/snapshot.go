// Package snapshot builds the consolidated workspaceInfo view.
package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/host"
	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	SolutionGlob  = "**/*.sln"
	WorkspaceGlob = "**/*.code-workspace"
	DeployDirName = ".deploy"
	DeployGlob    = "**/" + DeployDirName
)

// Aggregator reads workspace state and runs the discovery queries. A failing
// query contributes nothing and is logged.
type Aggregator struct {
	ws  host.Workspace
	log logger.Logger
	now func() time.Time
}

func NewAggregator(ws host.Workspace, log logger.Logger) *Aggregator {
	return &Aggregator{ws: ws, log: log, now: time.Now}
}

// Snapshot returns a fresh view. The only error is ctx ending before the
// queries finish.
func (a *Aggregator) Snapshot(ctx context.Context) (models.WorkspaceInfo, error) {
	info := models.WorkspaceInfo{
		WorkspaceFolders: a.ws.Folders(),
		ActiveFile:       a.ws.ActiveEditor(),
		WorkspaceName:    a.ws.Name(),
		Extensions:       a.ws.Extensions(),
	}
	if f := a.ws.WorkspaceFile(); f != "" {
		info.WorkspaceFile = &f
	}
	if info.WorkspaceFolders == nil {
		info.WorkspaceFolders = []models.WorkspaceFolder{}
	}
	if info.Extensions == nil {
		info.Extensions = []models.Extension{}
	}

	// Queries swallow their own failures, so the group only errors when the
	// caller's context ends.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info.SlnFiles = a.find(gctx, SolutionGlob)
		return gctx.Err()
	})
	g.Go(func() error {
		info.CodeWorkspaceFiles = a.find(gctx, WorkspaceGlob)
		return gctx.Err()
	})
	g.Go(func() error {
		info.DeployFolders = a.deployFolders(gctx)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return models.WorkspaceInfo{}, fmt.Errorf("snapshot aborted: %w", err)
	}

	info.Timestamp = a.now().UnixMilli()
	a.log.Debug("Workspace snapshot built",
		"folders", len(info.WorkspaceFolders),
		"extensions", len(info.Extensions),
		"sln", len(info.SlnFiles),
		"workspaces", len(info.CodeWorkspaceFiles),
		"deploy", len(info.DeployFolders))
	return info, nil
}

func (a *Aggregator) find(ctx context.Context, glob string) []string {
	paths, err := a.ws.FindFiles(ctx, glob)
	if err != nil {
		a.log.Warn("Discovery query failed", "glob", glob, "err", err)
		return []string{}
	}
	return dedup(paths)
}

// deployFolders combines a direct listing of every root with a recursive glob.
// Both strategies see a root-level .deploy, so results are deduplicated.
func (a *Aggregator) deployFolders(ctx context.Context) []string {
	var found []string
	for _, folder := range a.ws.Folders() {
		if folder.Scheme != "" && folder.Scheme != "file" {
			continue
		}
		entries, err := a.ws.ReadDir(ctx, folder.URI)
		if err != nil {
			a.log.Warn("Error listing workspace folder", "path", folder.URI, "err", err)
			continue
		}
		for _, e := range entries {
			if e.Name == DeployDirName && e.IsDir {
				found = append(found, filepath.Join(folder.URI, e.Name))
			}
		}
	}

	matches, err := a.ws.FindFiles(ctx, DeployGlob)
	if err != nil {
		a.log.Warn("Discovery query failed", "glob", DeployGlob, "err", err)
	}
	for _, m := range matches {
		st, err := a.ws.Stat(ctx, m)
		if err != nil {
			a.log.Debug("Could not stat deploy candidate", "path", m, "err", err)
			continue
		}
		if st.IsDir {
			found = append(found, m)
		}
	}
	return dedup(found)
}

// CanonicalPath is the equality key used for deduplication: absolute, cleaned
// and with symlinks resolved when they resolve.
func CanonicalPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	p = filepath.Clean(p)
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	return p
}

// dedup keeps the first path seen for each canonical path, in order.
func dedup(paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		key := CanonicalPath(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Broadcaster receives the finished snapshot message.
type Broadcaster interface {
	Broadcast(msg models.Message)
}

// Publisher runs aggregations in the background and broadcasts the result.
type Publisher struct {
	ctx     context.Context
	agg     *Aggregator
	out     Broadcaster
	log     logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewPublisher(ctx context.Context, agg *Aggregator, out Broadcaster, log logger.Logger) *Publisher {
	return &Publisher{ctx: ctx, agg: agg, out: out, log: log, timeout: 30 * time.Second}
}

// RequestSnapshot starts an aggregation and returns immediately.
func (p *Publisher) RequestSnapshot() {
	if p.ctx.Err() != nil {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
		defer cancel()
		info, err := p.agg.Snapshot(ctx)
		if err != nil {
			p.log.Warn("Dropping workspace snapshot", "err", err)
			return
		}
		p.out.Broadcast(models.Message{Type: models.MsgWorkspaceInfo, Payload: info})
	}()
}

// Wait blocks until every in-flight aggregation has finished.
func (p *Publisher) Wait() {
	p.wg.Wait()
}
