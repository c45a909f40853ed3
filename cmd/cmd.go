// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func xmlFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "xml",
		Aliases: []string{"x"},
		Usage:   "Path to the Rekordbox XML export (default: library.xml_path)",
	}
}

// playlistsCommand handles building and inspecting playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Build and inspect Rekordbox playlists",
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Run the playlist parsers and write auto_<name>.xml next to the export",
				Flags: []cli.Flag{
					xmlFlag(),
					&cli.StringFlag{
						Name:    "playlist-config",
						Aliases: []string{"p"},
						Usage:   "Path to the playlist parser YAML (default: library.playlist_config)",
					},
					&cli.BoolFlag{
						Name:  "no-history",
						Usage: "Do not record this run in the history database",
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Only print the summary",
					},
				},
				Action: r.PlaylistsBuild,
			},
			{
				Name:  "query",
				Usage: "Evaluate a selector expression and print the matching tracks",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "expr",
					},
				},
				Flags: []cli.Flag{
					xmlFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: table, text, csv, markdown",
						Value:   "table",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the tracks to a file instead of stdout",
					},
				},
				Action: r.PlaylistsQuery,
			},
			{
				Name:  "show",
				Usage: "Print the playlist tree, or the tracks of one playlist",
				Flags: []cli.Flag{
					xmlFlag(),
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Print the tracks of the playlist with this name",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, markdown (tracks also accept table and csv)",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the playlist's tracks to a file instead of stdout",
					},
				},
				Action: r.PlaylistsShow,
			},
		},
	}
}

// historyCommand lists recorded builds
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded playlist builds",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to return",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only show runs with this status (succeeded, failed)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.HistoryList,
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the playlists one run wrote",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Remove a run from history",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}

// setupCommand writes starter configuration and prepares the database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write example config.toml and playlists.yaml files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:    "playlist-config",
						Aliases: []string{"p"},
						Usage:   "Path to playlist parser file",
						Value:   "playlists.yaml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead of applying pending ones",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
