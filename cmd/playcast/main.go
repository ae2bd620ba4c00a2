package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/playcast-gg/playcast-cli/internal/api"
	"github.com/playcast-gg/playcast-cli/internal/auth"
	"github.com/playcast-gg/playcast-cli/internal/config"
	"github.com/playcast-gg/playcast-cli/internal/dev"
	"github.com/playcast-gg/playcast-cli/internal/logging"
	"github.com/playcast-gg/playcast-cli/internal/notify"
	"github.com/playcast-gg/playcast-cli/internal/platform"
	"github.com/playcast-gg/playcast-cli/internal/push"
	"github.com/playcast-gg/playcast-cli/internal/updater"
	"github.com/playcast-gg/playcast-cli/internal/upload"
	"github.com/playcast-gg/playcast-cli/internal/version"
)

type rootFlags struct {
	Verbose   bool
	LogLevel  string
	LogFormat string
}

func (f *rootFlags) logger() zerolog.Logger {
	level := f.LogLevel
	if f.Verbose {
		level = "debug"
	}
	return logging.Configure(level, f.LogFormat)
}

func main() {
	root := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "playcast",
		Short:         "CLI for uploading and previewing game builds on playcast",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&root.Verbose, "verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&root.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&root.LogFormat, "log-format", "console", "Log format (console, json)")

	rootCmd.AddCommand(newAuthCmd(root))
	rootCmd.AddCommand(newBuildCmd(root))
	rootCmd.AddCommand(newDevCmd(root))
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newAchievementsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newUpdateCmd())

	checker := newChecker()
	if checker != nil {
		checker.MaybeNotify()
	}
	var waitForCheck func()
	if checker != nil {
		waitForCheck = checker.CheckInBackground(context.Background())
	}

	err := rootCmd.Execute()

	if waitForCheck != nil {
		waitForCheck()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newChecker wires the update checker when the environment allows it;
// a broken config dir or missing token never blocks a command.
func newChecker() *updater.Checker {
	dir, err := platform.ConfigDir()
	if err != nil {
		return nil
	}
	token, _, _ := authManager(dir).Token()
	return &updater.Checker{
		Dir:    dir,
		Source: api.New(platform.APIHost(), token),
	}
}

func authManager(configDir string) auth.Manager {
	return auth.Manager{Store: auth.NewStore(configDir)}
}

func requireClient() (*api.Client, error) {
	dir, err := platform.ConfigDir()
	if err != nil {
		return nil, err
	}
	token, _, err := authManager(dir).Token()
	if err != nil {
		return nil, err
	}
	return api.New(platform.APIHost(), token), nil
}

func newAuthCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
	}

	var token string
	login := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := platform.ConfigDir()
			if err != nil {
				return err
			}
			store := auth.NewStore(dir)

			if token != "" {
				if err := store.SetToken(token); err != nil {
					return err
				}
				fmt.Println("Successfully stored API key")
				return nil
			}

			result, err := auth.LoginWithBrowser(cmd.Context(), platform.SiteHost())
			if err != nil {
				return err
			}
			if err := store.SetToken(result.APIKey); err != nil {
				return err
			}
			fmt.Println("Successfully authenticated!")
			return nil
		},
	}
	login.Flags().StringVar(&token, "token", "", "API key for manual authentication")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := platform.ConfigDir()
			if err != nil {
				return err
			}
			if err := auth.NewStore(dir).Clear(); err != nil {
				return err
			}
			fmt.Println("Successfully logged out")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := platform.ConfigDir()
			if err != nil {
				return err
			}
			token, source, err := authManager(dir).Token()
			if err != nil {
				fmt.Println("Not authenticated. Run 'playcast auth login' or set PLAYCAST_TOKEN.")
				return nil
			}
			fmt.Printf("Authenticated (via %s)\n", source)
			fmt.Printf("API key: %s\n", auth.MaskToken(token))
			return nil
		},
	}

	cmd.AddCommand(login, logout, status)
	return cmd
}

func newBuildCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Manage game builds",
	}

	var configPath string
	var message string
	var concurrency int
	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Upload the build directory to the platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := root.logger()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			client, err := requireClient()
			if err != nil {
				return err
			}

			progress := &upload.Progress{Out: os.Stdout}
			pusher := &push.Pusher{
				Config:      cfg,
				API:         client,
				Log:         logger,
				Notifier:    notify.FromConfig(cfg.Notify),
				Message:     message,
				Concurrency: concurrency,
				OnProgress:  progress.Update,
			}

			result, err := pusher.Run(cmd.Context())
			if err != nil {
				return err
			}
			progress.Finish()
			logger.Info().
				Str("build_id", result.BuildID).
				Int("files", result.Files).
				Int64("bytes", result.TotalBytes).
				Msg("build uploaded")
			fmt.Println("Build uploaded successfully!")
			return nil
		},
	}
	pushCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultFileName, "Path to playcast.toml")
	pushCmd.Flags().StringVarP(&message, "message", "m", "", "Build message")
	pushCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent file transfers (default 10)")

	cmd.AddCommand(pushCmd)
	return cmd
}

func newDevCmd(root *rootFlags) *cobra.Command {
	var configPath string
	var noOpen bool
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Serve a local HTTPS preview of the build",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := platform.ConfigDir()
			if err != nil {
				return err
			}
			if _, _, err := authManager(dir).Token(); err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			server := &dev.Server{
				Config:    cfg,
				ConfigDir: dir,
				SiteHost:  platform.SiteHost(),
				Log:       root.logger(),
				NoOpen:    noOpen,
			}
			return server.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultFileName, "Path to playcast.toml")
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "Don't open the sandbox URL in the browser")
	return cmd
}

// projectClient loads the project config and an authenticated API
// client, the pair every control-plane command needs.
func projectClient(configPath string) (*config.ProjectConfig, *api.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	client, err := requireClient()
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

func newStatsCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Manage game stats",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFileName, "Path to playcast.toml")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all stats for the game",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := projectClient(configPath)
			if err != nil {
				return err
			}
			stats, err := client.ListStats(cmd.Context(), cfg.Game)
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				fmt.Println("No stats found.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "IDENTIFIER\tDISPLAY NAME\tAUTHORITY\tTYPE")
			for _, s := range stats {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Identifier, s.DisplayName, s.Authority, s.Type)
			}
			return w.Flush()
		},
	}

	var createName, createAuthority, createType string
	create := &cobra.Command{
		Use:   "create IDENTIFIER",
		Short: "Create a new stat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := projectClient(configPath)
			if err != nil {
				return err
			}
			authority, err := api.ParseAuthority(createAuthority)
			if err != nil {
				return err
			}
			statType, err := api.ParseStatType(createType)
			if err != nil {
				return err
			}
			req := api.CreateStatRequest{
				Identifier:  args[0],
				DisplayName: createName,
				Authority:   authority,
				Type:        statType,
			}
			if err := client.CreateStat(cmd.Context(), cfg.Game, req); err != nil {
				return err
			}
			fmt.Printf("Created stat '%s'\n", args[0])
			return nil
		},
	}
	create.Flags().StringVar(&createName, "display-name", "", "Display name")
	create.Flags().StringVar(&createAuthority, "authority", "", "Authority level (client, server)")
	create.Flags().StringVar(&createType, "type", "", "Stat type (integer, float, avg-rate)")
	_ = create.MarkFlagRequired("display-name")
	_ = create.MarkFlagRequired("authority")
	_ = create.MarkFlagRequired("type")

	var updateName, updateAuthority, updateType string
	update := &cobra.Command{
		Use:   "update IDENTIFIER",
		Short: "Update an existing stat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd api.StatUpdate
			if cmd.Flags().Changed("display-name") {
				upd.DisplayName = &updateName
			}
			if cmd.Flags().Changed("authority") {
				authority, err := api.ParseAuthority(updateAuthority)
				if err != nil {
					return err
				}
				upd.Authority = &authority
			}
			if cmd.Flags().Changed("type") {
				statType, err := api.ParseStatType(updateType)
				if err != nil {
					return err
				}
				upd.Type = &statType
			}
			if upd.Empty() {
				return fmt.Errorf("at least one of --display-name, --authority, or --type is required")
			}

			cfg, client, err := projectClient(configPath)
			if err != nil {
				return err
			}
			if err := client.UpdateStat(cmd.Context(), cfg.Game, args[0], upd); err != nil {
				return err
			}
			fmt.Printf("Updated stat '%s'\n", args[0])
			return nil
		},
	}
	update.Flags().StringVar(&updateName, "display-name", "", "New display name")
	update.Flags().StringVar(&updateAuthority, "authority", "", "New authority level (client, server)")
	update.Flags().StringVar(&updateType, "type", "", "New stat type (integer, float, avg-rate)")

	del := &cobra.Command{
		Use:   "delete IDENTIFIER",
		Short: "Delete a stat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := projectClient(configPath)
			if err != nil {
				return err
			}
			if err := client.DeleteStat(cmd.Context(), cfg.Game, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted stat '%s'\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, create, update, del)
	return cmd
}

func newAchievementsCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "Manage game achievements",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFileName, "Path to playcast.toml")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all achievements for the game",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := projectClient(configPath)
			if err != nil {
				return err
			}
			achievements, err := client.ListAchievements(cmd.Context(), cfg.Game)
			if err != nil {
				return err
			}
			if len(achievements) == 0 {
				fmt.Println("No achievements found.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "IDENTIFIER\tDISPLAY NAME\tDESCRIPTION\tAUTHORITY\tPOINTS\tLINKED STAT")
			for _, a := range achievements {
				desc := a.Description
				if len(desc) > 40 {
					desc = desc[:37] + "..."
				}
				points := "-"
				if a.Points != nil {
					points = fmt.Sprintf("%d", *a.Points)
				}
				linked := "-"
				switch {
				case a.StatIdentifier != nil && a.StatThreshold != nil:
					linked = fmt.Sprintf("%s >= %v", *a.StatIdentifier, *a.StatThreshold)
				case a.StatIdentifier != nil:
					linked = *a.StatIdentifier
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					a.Identifier, a.DisplayName, desc, a.Authority, points, linked)
			}
			return w.Flush()
		},
	}

	var createName, createDesc, createImage, createAuthority, createStatID string
	var createPoints int64
	var createThreshold float64
	create := &cobra.Command{
		Use:   "create IDENTIFIER",
		Short: "Create a new achievement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			authority, err := api.ParseAuthority(createAuthority)
			if err != nil {
				return err
			}
			req := api.CreateAchievementRequest{
				Identifier:  args[0],
				DisplayName: createName,
				Description: createDesc,
				Image:       createImage,
				Authority:   authority,
			}
			if cmd.Flags().Changed("points") {
				req.Points = &createPoints
			}
			if cmd.Flags().Changed("stat-identifier") {
				req.StatIdentifier = &createStatID
			}
			if cmd.Flags().Changed("stat-threshold") {
				req.StatThreshold = &createThreshold
			}

			cfg, client, err := projectClient(configPath)
			if err != nil {
				return err
			}
			if err := client.CreateAchievement(cmd.Context(), cfg.Game, req); err != nil {
				return err
			}
			fmt.Printf("Created achievement '%s'\n", args[0])
			return nil
		},
	}
	create.Flags().StringVar(&createName, "display-name", "", "Display name")
	create.Flags().StringVar(&createDesc, "description", "", "Description")
	create.Flags().StringVar(&createImage, "image", "", "Image URL")
	create.Flags().StringVar(&createAuthority, "authority", "", "Authority level (client, server)")
	create.Flags().Int64Var(&createPoints, "points", 0, "Points awarded for earning this achievement")
	create.Flags().StringVar(&createStatID, "stat-identifier", "", "Stat identifier to link (for automatic unlocking)")
	create.Flags().Float64Var(&createThreshold, "stat-threshold", 0, "Stat threshold for automatic unlocking")
	_ = create.MarkFlagRequired("display-name")
	_ = create.MarkFlagRequired("description")
	_ = create.MarkFlagRequired("image")
	_ = create.MarkFlagRequired("authority")

	var updateName, updateDesc, updateImage, updateAuthority, updateStatID string
	var updatePoints int64
	var updateThreshold float64
	update := &cobra.Command{
		Use:   "update IDENTIFIER",
		Short: "Update an existing achievement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd api.AchievementUpdate
			if cmd.Flags().Changed("display-name") {
				upd.DisplayName = &updateName
			}
			if cmd.Flags().Changed("description") {
				upd.Description = &updateDesc
			}
			if cmd.Flags().Changed("image") {
				upd.Image = &updateImage
			}
			if cmd.Flags().Changed("authority") {
				authority, err := api.ParseAuthority(updateAuthority)
				if err != nil {
					return err
				}
				upd.Authority = &authority
			}
			if cmd.Flags().Changed("points") {
				upd.Points = &updatePoints
			}
			if cmd.Flags().Changed("stat-identifier") {
				// "none" clears the stat link.
				if updateStatID == "none" {
					upd.UnlinkStat = true
				} else {
					upd.StatIdentifier = &updateStatID
				}
			}
			if cmd.Flags().Changed("stat-threshold") {
				upd.StatThreshold = &updateThreshold
			}
			if upd.Empty() {
				return fmt.Errorf("at least one of --display-name, --description, --image, --authority, --points, --stat-identifier, or --stat-threshold is required")
			}

			cfg, client, err := projectClient(configPath)
			if err != nil {
				return err
			}
			if err := client.UpdateAchievement(cmd.Context(), cfg.Game, args[0], upd); err != nil {
				return err
			}
			fmt.Printf("Updated achievement '%s'\n", args[0])
			return nil
		},
	}
	update.Flags().StringVar(&updateName, "display-name", "", "New display name")
	update.Flags().StringVar(&updateDesc, "description", "", "New description")
	update.Flags().StringVar(&updateImage, "image", "", "New image URL")
	update.Flags().StringVar(&updateAuthority, "authority", "", "New authority level (client, server)")
	update.Flags().Int64Var(&updatePoints, "points", 0, "New points value")
	update.Flags().StringVar(&updateStatID, "stat-identifier", "", `Stat identifier to link (use "none" to unlink)`)
	update.Flags().Float64Var(&updateThreshold, "stat-threshold", 0, "New stat threshold")

	del := &cobra.Command{
		Use:   "delete IDENTIFIER",
		Short: "Delete an achievement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := projectClient(configPath)
			if err != nil {
				return err
			}
			if err := client.DeleteAchievement(cmd.Context(), cfg.Game, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted achievement '%s'\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, create, update, del)
	return cmd
}

func newConfigCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or update playcast.toml configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Println(cfg.Summary())
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFileName, "Path to playcast.toml")

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a config field value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			old, err := config.SetField(configPath, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Updated %s: %s -> %s\n", args[0], old, args[1])
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Println(cfg.Summary())
			return nil
		},
	}

	cmd.AddCommand(set, show)
	return cmd
}

func newInitCmd() *cobra.Command {
	var org, game, environment, engine string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new playcast.toml config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(config.DefaultFileName); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", config.DefaultFileName)
			}

			env, err := config.ParseEnvironment(environment)
			if err != nil {
				return err
			}

			kind := config.EngineKind(engine)
			switch kind {
			case config.EngineGodot, config.EngineUnity, config.EngineCustom:
			default:
				return fmt.Errorf("invalid engine %q: must be godot, unity, or custom", engine)
			}

			opts := config.InitOptions{Org: org, Game: game, Environment: env, Engine: kind}
			if err := config.WriteInitial(config.DefaultFileName, opts); err != nil {
				return err
			}
			fmt.Printf("Created %s\n", config.DefaultFileName)
			return nil
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "Organization slug")
	cmd.Flags().StringVar(&game, "game", "", "Game slug")
	cmd.Flags().StringVar(&environment, "environment", "sandbox", "Environment (production, demo, sandbox)")
	cmd.Flags().StringVar(&engine, "engine", "godot", "Engine (godot, unity, custom)")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("game")
	return cmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("playcast %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}

	var configPath string
	bump := &cobra.Command{
		Use:       "bump [patch|minor|major]",
		Short:     "Bump the build version in playcast.toml",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"patch", "minor", "major"},
		RunE: func(cmd *cobra.Command, args []string) error {
			level := config.BumpPatch
			if len(args) == 1 {
				level = config.BumpLevel(args[0])
			}
			old, next, err := config.BumpVersion(configPath, level)
			if err != nil {
				return err
			}
			fmt.Printf("Bumped version: %s -> %s\n", old, next)
			return nil
		},
	}
	bump.Flags().StringVarP(&configPath, "config", "c", config.DefaultFileName, "Path to playcast.toml")

	cmd.AddCommand(bump)
	return cmd
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Check for a newer CLI release",
		RunE: func(cmd *cobra.Command, args []string) error {
			checker := newChecker()
			if checker == nil {
				return fmt.Errorf("could not resolve config directory")
			}
			latest, err := checker.CheckNow(cmd.Context())
			if err != nil {
				return err
			}
			checker.Acknowledge()
			if latest == version.Version {
				fmt.Println("Already on the latest version")
				return nil
			}
			fmt.Printf("Latest release: %s (running %s)\n", latest, version.Version)
			fmt.Println("Download it from https://playcast.gg/developers/cli")
			return nil
		},
	}
}
