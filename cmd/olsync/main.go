package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/olsync/olsync/internal/config"
	"github.com/olsync/olsync/internal/logger"
	"github.com/olsync/olsync/internal/realtime"
	"github.com/olsync/olsync/internal/service"
	"github.com/olsync/olsync/internal/session"
	"github.com/olsync/olsync/internal/tui"
	"github.com/olsync/olsync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	log := logger.New("olsync")

	if err := newApp(log).Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("olsync failed")
	}
}

func newApp(log *logger.Logger) *cli.App {
	return &cli.App{
		Name:    "olsync",
		Usage:   "sync Overleaf projects from the command line",
		Version: version(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a JSON config file"},
			&cli.StringFlag{Name: "base-url", Usage: "Overleaf instance URL"},
			&cli.DurationFlag{Name: "timeout", Usage: "per-request HTTP timeout"},
			&cli.DurationFlag{Name: "join-timeout", Usage: "wait for the realtime join response (negative waits forever)"},
		},
		Commands: []*cli.Command{
			joinCommand(log),
			loginCommand(log),
			logoutCommand(log),
			whoamiCommand(log),
			projectsCommand(log),
			cloneCommand(log),
			pullCommand(log),
			pushCommand(log),
		},
	}
}

func version() string {
	if buildVersion == "" {
		return "dev"
	}
	return fmt.Sprintf("%s (%s, %s)", buildVersion, buildCommit, buildDate)
}

// loadConfig merges CLI flags over environment, JSON file, and defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.Get(&config.Config{
		BaseURL:        c.String("base-url"),
		RequestTimeout: c.Duration("timeout"),
		JoinTimeout:    c.Duration("join-timeout"),
		JSONFilePath:   c.String("config"),
	})
}

func newServices(c *cli.Context, log *logger.Logger) (*service.Services, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	return service.NewServices(cfg, session.NewStore(cfg.SessionFile), log), cfg, nil
}

func joinCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:      "join",
		Usage:     "join a project's realtime channel and print its metadata",
		ArgsUsage: "<GCLB> <overleaf_session2> <project-id> | <project-id>",
		Action: func(c *cli.Context) error {
			svc, cfg, err := newServices(c, log)
			if err != nil {
				return err
			}

			var meta models.ProjectMetadata
			switch c.NArg() {
			case 3:
				meta, err = realtime.JoinProject(c.Context, realtime.JoinConfig{
					BaseURL: cfg.BaseURL,
					Credentials: session.Credentials{
						GCLB:    c.Args().Get(0),
						Session: c.Args().Get(1),
					},
					ProjectID:        c.Args().Get(2),
					HandshakeTimeout: cfg.RequestTimeout,
					JoinTimeout:      cfg.JoinTimeout,
					Logger:           log,
				})
			case 1:
				meta, err = svc.Sync.JoinProjectMetadata(c.Context, c.Args().Get(0))
			default:
				return fmt.Errorf("expected <GCLB> <overleaf_session2> <project-id> or <project-id>, got %d args", c.NArg())
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(c.App.Writer, meta)
			return nil
		},
	}
}

func loginCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "cache a session from an overleaf_session2 cookie value",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Usage: "overleaf_session2 cookie value", Required: true},
		},
		Action: func(c *cli.Context) error {
			svc, _, err := newServices(c, log)
			if err != nil {
				return err
			}

			var info models.SessionInfo
			err = tui.RunWithSpinner("Logging in", func() error {
				info, err = svc.Auth.Login(c.Context, c.String("session"))
				return err
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "Logged in as %s\n", info.Email)
			return nil
		},
	}
}

func logoutCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the cached session",
		Action: func(c *cli.Context) error {
			svc, _, err := newServices(c, log)
			if err != nil {
				return err
			}
			if err = svc.Auth.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "Logged out")
			return nil
		},
	}
}

func whoamiCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the account of the cached session",
		Action: func(c *cli.Context) error {
			svc, _, err := newServices(c, log)
			if err != nil {
				return err
			}
			info, err := svc.Auth.CurrentSession()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, info.Email)
			return nil
		},
	}
}

func projectsCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "list the account's projects",
		Action: func(c *cli.Context) error {
			svc, _, err := newServices(c, log)
			if err != nil {
				return err
			}
			list, err := svc.Sync.Projects(c.Context)
			if err != nil {
				return err
			}
			for _, p := range list.Projects {
				fmt.Fprintf(c.App.Writer, "%s  %s\n", p.ID, p.Name)
			}
			return nil
		},
	}
}

func cloneCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "clone",
		Usage: "download a project into a new directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "project name to clone"},
			&cli.StringFlag{Name: "id", Usage: "project id to clone"},
		},
		Action: func(c *cli.Context) error {
			svc, _, err := newServices(c, log)
			if err != nil {
				return err
			}

			project, err := resolveOrPick(c, svc)
			if err != nil {
				return err
			}

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			var root string
			err = tui.RunWithSpinner("Cloning "+project.Name, func() error {
				root, err = svc.Sync.Clone(c.Context, cwd, project)
				return err
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(c.App.Writer, "Cloned %s into %s\n", project.Name, root)
			return nil
		},
	}
}

func pullCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:  "pull",
		Usage: "replace the working tree with the remote project contents",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-backup", Usage: "skip the local backup before overwriting"},
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "skip the confirmation prompt"},
		},
		Action: func(c *cli.Context) error {
			svc, _, err := newServices(c, log)
			if err != nil {
				return err
			}

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			if !c.Bool("force") {
				ok, err := tui.Confirm(
					"Overwrite local files with the remote project?",
					"Local changes are backed up under .olsync unless --no-backup is set.",
				)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(c.App.Writer, "Aborted")
					return nil
				}
			}

			err = tui.RunWithSpinner("Pulling", func() error {
				return svc.Sync.Pull(c.Context, cwd, c.Bool("no-backup"))
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(c.App.Writer, "Pulled")
			return nil
		},
	}
}

func pushCommand(log *logger.Logger) *cli.Command {
	return &cli.Command{
		Name:      "push",
		Usage:     "upload files into the project's root folder",
		ArgsUsage: "<file> [file...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "skip the confirmation prompt"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return errors.New("expected at least one file to push")
			}

			svc, _, err := newServices(c, log)
			if err != nil {
				return err
			}

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			files := c.Args().Slice()
			if !c.Bool("force") {
				ok, err := tui.Confirm(
					fmt.Sprintf("Upload %d file(s) to the project root folder?", len(files)),
					"Remote files with the same name are overwritten.",
				)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(c.App.Writer, "Aborted")
					return nil
				}
			}

			err = tui.RunWithSpinner(fmt.Sprintf("Pushing %d file(s)", len(files)), func() error {
				return svc.Sync.Push(c.Context, cwd, files)
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(c.App.Writer, "Pushed")
			return nil
		},
	}
}

// resolveOrPick resolves the clone target from --name or --id, falling
// back to an interactive picker.
func resolveOrPick(c *cli.Context, svc *service.Services) (models.Project, error) {
	name := c.String("name")
	id := c.String("id")
	if name != "" || id != "" {
		return svc.Sync.ResolveProject(c.Context, name, id)
	}

	list, err := svc.Sync.Projects(c.Context)
	if err != nil {
		return models.Project{}, err
	}
	return tui.SelectProject(list.Projects)
}
