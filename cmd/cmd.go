package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thiagokokada/gitree-go/internal/buildinfo"
	"github.com/thiagokokada/gitree-go/internal/gui"
	"github.com/thiagokokada/gitree-go/internal/tree"
	"github.com/thiagokokada/gitree-go/internal/viewstate"
)

func Run() error {
	return run(os.Args[1:])
}

func run(args []string) error {
	fs := flag.NewFlagSet("gitree-go", flag.ContinueOnError)
	pageSize := fs.Int("page-size", tree.DefaultPageSize, "number of commits to load per history page")
	mode := fs.String("mode", "", "color mode: auto, light, or dark (default from saved settings)")
	noWatch := fs.Bool("nowatch", false, "disable automatic reload when a repository changes")
	noState := fs.Bool("nostate", false, "do not load or persist view state")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	showVersion := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Println(buildinfo.VersionWithTags())
		return nil
	}

	stateDir := ""
	if !*noState {
		stateDir = defaultStateDir()
	}
	settings := viewstate.NewStore(stateDir).LoadSettings()

	repoPaths := fs.Args()
	if len(repoPaths) == 0 {
		if len(settings.Repositories) > 0 {
			repoPaths = settings.Repositories
		} else {
			repoPaths = []string{"."}
		}
	}
	theme := settings.Theme
	if *mode != "" {
		theme = *mode
	}
	size := *pageSize
	if size == tree.DefaultPageSize && settings.PageSize > 0 {
		size = settings.PageSize
	}
	watch := settings.Watch && !*noWatch

	return gui.Run(gui.RunConfig{
		RepoPaths:       repoPaths,
		PageSize:        size,
		ThemePreference: gui.ThemePreferenceFromString(theme),
		AutoReload:      watch,
		Verbose:         *verbose,
		StateDir:        stateDir,
	})
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gitree-go")
}
