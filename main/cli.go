package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/devlights/gomy/output"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/samehada"
	"github.com/ryogrid/SamehadaDict/server"
	"github.com/ryogrid/SamehadaDict/server/signal_handle"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

type RootOptions struct {
	ConfigPath string
	WALDir     string
	LogLevel   string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	cmd := &cobra.Command{
		Use:   "samehada-dict",
		Short: "SQL data dictionary and prepared statement engine",
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path of a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.WALDir, "wal-dir", "", "keep the log in this directory instead of memory")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override log.level of the config")

	cmd.AddCommand(newExecCommand(opts))
	cmd.AddCommand(newReplCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			output.Stdoutl("samehada-dict", version)
		},
	})
	return cmd
}

func (opts *RootOptions) config() (*common.Config, error) {
	cfg := common.DefaultConfig()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = common.LoadConfig(opts.ConfigPath); err != nil {
			return nil, err
		}
	}
	if opts.WALDir != "" {
		cfg.WAL.Mode = common.WALFile
		cfg.WAL.Dir = opts.WALDir
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	return cfg, nil
}

func (opts *RootOptions) openDB() (*samehada.SamehadaDB, error) {
	cfg, err := opts.config()
	if err != nil {
		return nil, err
	}
	return samehada.NewSamehadaDB(cfg)
}

func printResult(rows [][]interface{}) {
	output.Stdoutl("----")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprint(v)
			}
		}
		output.Stdoutl("", strings.Join(cells, " "))
	}
}

func runStatement(db *samehada.SamehadaDB, sql string) error {
	rows, err := db.ExecuteSQL(sql)
	if err != nil {
		return err
	}
	if rows != nil {
		printResult(rows)
	}
	return nil
}

func newExecCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "exec <sql>...",
		Short:        "Run SQL statements in order and print their results",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			defer db.Shutdown()
			for _, sql := range args {
				if err := runStatement(db, sql); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newReplCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "repl",
		Short:        "Read statements from stdin, one per line",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			defer db.Shutdown()
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				switch {
				case line == "":
					continue
				case line == ".quit" || line == ".exit":
					return nil
				case line == ".stats":
					output.Stdoutf("[stmt cache]", "%+v\n", db.GetStmtCache().Stats())
					continue
				}
				if err := runStatement(db, line); err != nil {
					cmd.PrintErrln("[error]", common.ErrorMessage(err))
				}
			}
			return scanner.Err()
		},
	}
}

func newServeCommand(opts *RootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve the HTTP query API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.openDB()
			if err != nil {
				return err
			}
			srv, err := server.NewServer(db)
			if err != nil {
				return err
			}
			exitNotifyCh := make(chan bool, 1)
			go signal_handle.SignalHandlerTh(srv, db, exitNotifyCh)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe(addr) }()

			select {
			case <-exitNotifyCh:
				output.Stdoutl("", "Server is stopped gracefully")
				return nil
			case err := <-errCh:
				srv.Stop()
				db.Shutdown()
				return err
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "0.0.0.0:19999", "listen address")
	return cmd
}
