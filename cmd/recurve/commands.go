package main

import (
	"fmt"
	"path/filepath"

	"github.com/huynhanx03/recurvedb/pkg/common/cache"
	"github.com/huynhanx03/recurvedb/pkg/hamt"
	"github.com/huynhanx03/recurvedb/pkg/kvs"
	"github.com/huynhanx03/recurvedb/pkg/logger"
	"github.com/huynhanx03/recurvedb/pkg/recurve"
	"github.com/huynhanx03/recurvedb/pkg/settings"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// kvStoreName is the store the kv commands read and write.
const kvStoreName = "kv"

type cli struct {
	configPath string
	dir        string
	cfg        settings.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "recurve",
		Short:         "Inspect and write a recurve store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "init" {
				return nil
			}
			cfg, err := settings.LoadOrDefault(filepath.Join(c.dir, c.configPath))
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", settings.DefaultFile, "settings file, relative to --dir")
	root.PersistentFlags().StringVar(&c.dir, "dir", ".", "working directory")

	kv := &cobra.Command{
		Use:   "kv",
		Short: "Read and write plain key-value pairs",
	}
	kv.AddCommand(
		&cobra.Command{
			Use:   "write KEY VALUE",
			Short: "Store VALUE under KEY",
			Args:  cobra.ExactArgs(2),
			RunE:  c.runKVWrite,
		},
		&cobra.Command{
			Use:   "read KEY",
			Short: "Print the value under KEY, or fail",
			Args:  cobra.ExactArgs(1),
			RunE:  c.runKVRead,
		},
	)

	root.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Write a default " + settings.DefaultFile,
			Args:  cobra.NoArgs,
			RunE:  c.runInit,
		},
		kv,
		&cobra.Command{
			Use:   "release TARGET RING ARROW",
			Short: "Attach a string ARROW to TARGET at RING (name/aspect)",
			Args:  cobra.ExactArgs(3),
			RunE:  c.runRelease,
		},
		&cobra.Command{
			Use:   "recall TARGET RING",
			Short: "Print the arrow of TARGET at RING (name/aspect)",
			Args:  cobra.ExactArgs(2),
			RunE:  c.runRecall,
		},
	)
	return root
}

// connConfig turns the loaded settings into connection options.
func (c *cli) connConfig() (recurve.Config, func(), error) {
	log, err := logger.New(c.cfg.Logger)
	if err != nil {
		return recurve.Config{}, nil, err
	}
	conf := recurve.Config{
		MailboxSize: c.cfg.Store.MailboxSize,
		SyncWrites:  c.cfg.Store.SyncWrites,
		Logger:      log,
	}
	cleanup := func() { _ = log.Sync() }

	if c.cfg.Cache.Enabled {
		frames, err := cache.NewRistretto[uint64, hamt.Frame](cache.Config{
			MaxCost:     c.cfg.Cache.MaxFrames,
			NumCounters: c.cfg.Cache.NumCounters,
		})
		if err != nil {
			return recurve.Config{}, nil, err
		}
		conf.FrameCache = frames
		cleanup = func() {
			frames.Close()
			_ = log.Sync()
		}
	}
	if c.cfg.Metrics.Enabled {
		conf.Registerer = prometheus.DefaultRegisterer
	}
	return conf, cleanup, nil
}

func (c *cli) folder() string {
	return filepath.Join(c.dir, c.cfg.Store.Folder)
}

func (c *cli) runInit(cmd *cobra.Command, _ []string) error {
	path := filepath.Join(c.dir, c.configPath)
	if err := settings.Write(path, settings.Default()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
	return nil
}

func (c *cli) openKV() (*kvs.Store[string], func(), error) {
	conf, cleanup, err := c.connConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := kvs.Open[string](kvStoreName, c.folder(), conf)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return store, func() {
		_ = store.Close()
		cleanup()
	}, nil
}

func (c *cli) runKVWrite(_ *cobra.Command, args []string) error {
	store, done, err := c.openKV()
	if err != nil {
		return err
	}
	defer done()

	_, err = store.WriteString(args[0], args[1])
	return err
}

func (c *cli) runKVRead(cmd *cobra.Command, args []string) error {
	store, done, err := c.openKV()
	if err != nil {
		return err
	}
	defer done()

	catalog, err := store.Catalog()
	if err != nil {
		return err
	}
	value, err := catalog.ReadOr(args[0], "fail")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func (c *cli) connect() (*recurve.Recurve, func(), error) {
	conf, cleanup, err := c.connConfig()
	if err != nil {
		return nil, nil, err
	}
	conn, err := recurve.Connect(c.cfg.Store.Name, c.folder(), conf)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return conn, func() {
		_ = conn.Close()
		cleanup()
	}, nil
}

func (c *cli) runRelease(_ *cobra.Command, args []string) error {
	ring, err := recurve.ParseRing(args[1])
	if err != nil {
		return err
	}
	conn, done, err := c.connect()
	if err != nil {
		return err
	}
	defer done()

	_, err = conn.Release(recurve.Volley{{
		Target: recurve.TextTarget(args[0]),
		Ring:   ring,
		Arrow:  recurve.StringArrow(args[2]),
	}})
	return err
}

func (c *cli) runRecall(cmd *cobra.Command, args []string) error {
	ring, err := recurve.ParseRing(args[1])
	if err != nil {
		return err
	}
	conn, done, err := c.connect()
	if err != nil {
		return err
	}
	defer done()

	b, err := conn.Latest()
	if err != nil {
		return err
	}
	arrow, ok, err := b.Arrow(recurve.TextTarget(args[0]), ring)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "fail")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), arrow)
	return nil
}
