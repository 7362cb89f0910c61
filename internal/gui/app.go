package gui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/thiagokokada/gitree-go/internal/git"
	"github.com/thiagokokada/gitree-go/internal/tree"
	"github.com/thiagokokada/gitree-go/internal/viewstate"

	. "modernc.org/tk9.0"
	_ "modernc.org/tk9.0/themes/azure" // load theme
)

// RunConfig describes the parameters that control the GUI runtime.
type RunConfig struct {
	RepoPaths       []string
	PageSize        int
	ThemePreference ThemePreference
	AutoReload      bool
	Verbose         bool
	StateDir        string
}

func Run(cfg RunConfig) error {
	if len(cfg.RepoPaths) == 0 {
		cfg.RepoPaths = []string{"."}
	}
	if err := InitializeExtension("eval"); err != nil && err != AlreadyInitialized {
		return fmt.Errorf("init eval extension: %v", err)
	}
	pref := cfg.ThemePreference
	if pref < ThemeAuto || pref > ThemeDark {
		pref = ThemeAuto
	}
	a := &Controller{
		store: viewstate.NewStore(cfg.StateDir),
		cfg: controllerConfig{
			pageSize:            cfg.PageSize,
			autoReloadRequested: cfg.AutoReload,
			verbose:             cfg.Verbose,
		},
		theme: controllerTheme{
			pref: pref,
		},
		repos: controllerRepos{
			services: make(map[string]*git.Service),
		},
	}
	a.view = tree.NewView(&treeHost{a: a}, tree.Config{PageSize: cfg.PageSize})
	for _, path := range cfg.RepoPaths {
		svc, err := git.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		canonical := svc.RepoPath()
		if _, mounted := a.repos.services[canonical]; mounted {
			continue
		}
		a.repos.paths = append(a.repos.paths, canonical)
		a.repos.services[canonical] = svc
		a.view.AddRepository(svc)
	}
	return a.run()
}

func (a *Controller) run() error {
	defer a.shutdown()
	level := slog.LevelInfo
	if a.cfg.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	a.theme.palette = paletteForPreference(a.theme.pref)
	if a.theme.palette.ThemeName != "" {
		err := ActivateTheme(a.theme.palette.ThemeName)
		if err != nil {
			slog.Error(
				"activate theme",
				slog.String("theme", a.theme.palette.ThemeName),
				slog.Any("error", err),
			)
		}
	}
	a.buildUI()
	a.initAutoReload(a.cfg.autoReloadRequested)
	a.renderRoots()
	a.setStatus(a.statusSummary())
	layout := a.store.LoadLayout()
	if len(layout.Expanded) > 0 {
		go a.restoreLayout(layout.Expanded)
	}
	App.WmTitle("gitree-go")
	App.SetResizable(true, true)
	App.Center().Wait()
	return nil
}

func (a *Controller) shutdown() {
	a.state.jump.stop()
	a.disableAutoReload()
	a.persistState()
}

func (a *Controller) persistState() {
	if err := a.store.SaveLayout(viewstate.Layout{
		Version:  viewstate.LayoutVersion,
		Expanded: a.state.panel.snapshot(),
	}); err != nil {
		slog.Error("save layout", slog.Any("error", err))
	}
	if err := a.store.SaveSettings(viewstate.Settings{
		Theme:        a.theme.pref.String(),
		Watch:        a.cfg.autoReloadRequested,
		PageSize:     a.cfg.pageSize,
		Repositories: a.repos.paths,
	}); err != nil {
		slog.Error("save settings", slog.Any("error", err))
	}
}

func (a *Controller) buildUI() {
	GridColumnConfigure(App, 0, Weight(1))
	GridRowConfigure(App, 1, Weight(1))

	controls := App.TFrame(Padding("8p"))
	Grid(controls, Row(0), Column(0), Sticky(WE))
	GridColumnConfigure(controls.Window, 1, Weight(1))

	repoLabel := fmt.Sprintf("Repositories: %s", strings.Join(a.repos.paths, ", "))
	a.ui.repoLabel = controls.TLabel(Txt(repoLabel), Anchor(W))
	Grid(a.ui.repoLabel, Row(0), Column(0), Columnspan(4), Sticky(W))

	Grid(controls.TLabel(Txt("Jump to:"), Anchor(E)), Row(1), Column(0), Sticky(E))
	a.ui.jumpEntry = controls.TEntry(Width(48), Textvariable(""))
	Grid(a.ui.jumpEntry, Row(1), Column(1), Sticky(WE), Padx("4p"))
	Bind(a.ui.jumpEntry, "<Return>", Command(a.onJump))

	a.ui.jumpButton = controls.TButton(Txt("Go"), Command(a.onJump))
	Grid(a.ui.jumpButton, Row(1), Column(2), Sticky(E), Padx("4p"))
	a.ui.reloadButton = controls.TButton(Txt("Reload"), Command(a.onReloadButton))
	Grid(a.ui.reloadButton, Row(1), Column(3), Sticky(E))

	listArea := App.TFrame()
	Grid(listArea, Row(1), Column(0), Sticky(NEWS), Padx("4p"), Pady("4p"))
	GridRowConfigure(listArea.Window, 0, Weight(1))
	GridColumnConfigure(listArea.Window, 0, Weight(1))

	treeScroll := listArea.TScrollbar()
	a.ui.treeView = listArea.TTreeview(
		Show("tree headings"),
		Columns("kind"),
		Selectmode("browse"),
		Height(28),
		Yscrollcommand(func(e *Event) { e.ScrollSet(treeScroll) }),
	)
	a.ui.treeView.Column("#0", Anchor(W), Width(520))
	a.ui.treeView.Column("kind", Anchor(W), Width(140))
	a.ui.treeView.Heading("#0", Txt("Name"))
	a.ui.treeView.Heading("kind", Txt("Kind"))
	a.ui.treeView.TagConfigure("section", Background(a.theme.palette.SectionRow))
	a.ui.treeView.TagConfigure("currentBranch", Background(a.theme.palette.CurrentBranch))
	a.ui.treeView.TagConfigure("loadMore", Background(a.theme.palette.LoadMoreRow))
	Grid(a.ui.treeView, Row(0), Column(0), Sticky(NEWS))
	Grid(treeScroll, Row(0), Column(1), Sticky(NS))
	treeScroll.Configure(Command(func(e *Event) { e.Yview(a.ui.treeView) }))

	Bind(a.ui.treeView, "<<TreeviewSelect>>", Command(a.onTreeSelectionChanged))
	Bind(a.ui.treeView, "<<TreeviewOpen>>", Command(a.onTreeOpened))
	Bind(a.ui.treeView, "<<TreeviewClose>>", Command(a.onTreeClosed))

	a.ui.status = App.TLabel(Anchor(W), Relief(SUNKEN), Padding("4p"))
	Grid(a.ui.status, Row(2), Column(0), Sticky(WE))
}

func (a *Controller) setStatus(msg string) {
	text := msg
	PostEvent(func() {
		a.ui.status.Configure(Txt(text))
	}, false)
}

func (a *Controller) statusSummary() string {
	n := len(a.repos.paths)
	if n == 1 {
		return fmt.Sprintf("1 repository — %s", a.repos.paths[0])
	}
	return fmt.Sprintf("%d repositories", n)
}

// onJump runs on the UI goroutine: it parses the entry, captures the scope
// repository from the current selection and hands off to a worker. A new
// jump cancels the one still in flight.
func (a *Controller) onJump() {
	raw := a.ui.jumpEntry.Textvariable()
	target, err := parseJumpTarget(raw)
	if err != nil {
		a.setStatus(err.Error())
		return
	}
	repoPath := a.jumpScopeRepo()
	if repoPath == "" {
		a.setStatus("No repository mounted.")
		return
	}
	ctx := a.state.jump.begin()
	a.setStatus(fmt.Sprintf("Searching for %s...", target.arg))
	go a.executeJump(ctx, repoPath, target)
}

// jumpScopeRepo picks the repository the jump applies to: the one owning
// the selected row, or the first mounted repository.
func (a *Controller) jumpScopeRepo() string {
	sel := a.ui.treeView.Selection("")
	if len(sel) > 0 {
		for _, path := range a.repos.paths {
			if tree.InScope(sel[0], tree.RepoNodeID(path)) {
				return path
			}
		}
	}
	return a.defaultRepoPath()
}

func (a *Controller) executeJump(ctx context.Context, repoPath string, target jumpTarget) {
	opts := tree.RevealOptions{Select: true, Focus: true, Expand: 0}
	var (
		m   tree.Match
		err error
	)
	switch target.kind {
	case jumpBranch:
		var branch git.Branch
		branch, err = a.resolveBranch(ctx, repoPath, target.arg)
		if err == nil {
			m, err = a.view.RevealBranch(ctx, repoPath, branch, opts)
		}
	case jumpCommit:
		m, err = a.view.RevealCommit(ctx, repoPath, target.arg, true, opts)
	case jumpTag:
		m, err = a.view.RevealTag(ctx, repoPath, target.arg, opts)
	case jumpRemote:
		m, err = a.view.RevealRemote(ctx, repoPath, target.arg, opts)
	case jumpStash:
		index, _ := strconv.Atoi(target.arg)
		m, err = a.view.RevealStash(ctx, repoPath, index, opts)
	case jumpContributor:
		m, err = a.view.RevealContributor(ctx, repoPath, target.arg, opts)
	case jumpWorktree:
		m, err = a.view.RevealWorktree(ctx, repoPath, target.arg, opts)
	case jumpNodeID:
		m, err = a.view.FindByID(ctx, target.arg, tree.SearchOptions{})
		if err == nil && m.Found() {
			err = a.view.Reveal(ctx, m.Node, opts)
		}
	case jumpCompare:
		a.pinCompareRef(repoPath, target.arg)
		return
	}
	if err != nil {
		slog.Error("jump failed",
			slog.String("repo", repoPath),
			slog.String("target", target.arg),
			slog.Any("error", err),
		)
		a.setStatus(fmt.Sprintf("Jump failed: %v", err))
		return
	}
	switch m.Outcome {
	case tree.OutcomeFound:
		a.setStatus(fmt.Sprintf("Revealed %s", m.Node.Name()))
	case tree.OutcomeCancelled:
		a.setStatus("Search cancelled.")
	default:
		a.setStatus(fmt.Sprintf("No match for %q.", target.arg))
	}
}

// resolveBranch maps a short name like "main" or "origin/main" to the
// branch record the reveal needs.
func (a *Controller) resolveBranch(ctx context.Context, repoPath, name string) (git.Branch, error) {
	svc := a.service(repoPath)
	if svc == nil {
		return git.Branch{}, fmt.Errorf("repository %s not mounted", repoPath)
	}
	locals, err := svc.Branches(ctx)
	if err != nil {
		return git.Branch{}, err
	}
	for _, b := range locals {
		if b.Name == name {
			return b, nil
		}
	}
	remote, _, ok := strings.Cut(name, "/")
	if !ok {
		return git.Branch{}, fmt.Errorf("branch %q not found", name)
	}
	remoteBranches, err := svc.RemoteBranches(ctx, remote)
	if err != nil {
		return git.Branch{}, err
	}
	for _, b := range remoteBranches {
		if b.Name == name {
			return b, nil
		}
	}
	return git.Branch{}, fmt.Errorf("branch %q not found", name)
}

// pinCompareRef mounts a compare node for ref under the repository and
// re-renders its row so the new child shows up.
func (a *Controller) pinCompareRef(repoPath, ref string) {
	if err := a.view.SetCompareRef(repoPath, ref); err != nil {
		a.setStatus(fmt.Sprintf("Compare: %v", err))
		return
	}
	repoID := tree.RepoNodeID(repoPath)
	a.materializeAsync(repoID)
	a.setStatus(fmt.Sprintf("Comparing against %s", ref))
}
