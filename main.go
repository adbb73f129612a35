package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "comsentinel",
		Usage: "watches COM ports and reports plugs, unplugs and number conflicts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "file listing one device name per line (.gz and .zz are decompressed)",
				EnvVars: []string{"COMSENTINEL_SOURCE"},
			},
			&cli.IntSliceFlag{
				Name:  "ports",
				Usage: "fixed list of port numbers, used when no source file is given",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				EnvVars: []string{"COMSENTINEL_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "log-format",
				Value: "text",
				Usage: "text or json",
			},
		},
		Before: func(c *cli.Context) error {
			logger, err := NewLogger(os.Stderr, c.String("log-level"), c.String("log-format"))
			if err != nil {
				return err
			}
			c.App.Metadata = map[string]interface{}{"logger": logger}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "watch",
				Usage: "poll the source and print a line for every change",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:    "interval",
						Value:   time.Second,
						EnvVars: []string{"COMSENTINEL_INTERVAL"},
					},
					&cli.StringFlag{
						Name:    "state",
						Usage:   "file keeping the last seen ports across restarts",
						EnvVars: []string{"COMSENTINEL_STATE"},
					},
					&cli.BoolFlag{
						Name: "no-color",
					},
				},
				Action: watchAction,
			},
			{
				Name:   "list",
				Usage:  "print the ports currently present",
				Action: listAction,
			},
			{
				Name:  "dump",
				Usage: "print the port bitmap in hex",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "bits",
						Value: 16,
					},
				},
				Action: dumpAction,
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func loggerFrom(c *cli.Context) *Logger {
	if logger, ok := c.App.Metadata["logger"].(*Logger); ok {
		return logger
	}
	return NoopLogger()
}

func sourceFrom(c *cli.Context) (PortSource, error) {
	if path := c.String("source"); path != "" {
		return &FileSource{Path: path, Logger: loggerFrom(c)}, nil
	}
	if ports := c.IntSlice("ports"); len(ports) > 0 {
		return StaticSource(ports), nil
	}
	return nil, ErrNoSource
}

func watchAction(c *cli.Context) error {
	source, err := sourceFrom(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runWatch(ctx, watchConfig{
		Source:    source,
		StatePath: c.String("state"),
		Interval:  c.Duration("interval"),
		Out:       os.Stdout,
		NoColor:   c.Bool("no-color"),
		Logger:    loggerFrom(c),
	})
}

func listAction(c *cli.Context) error {
	source, err := sourceFrom(c)
	if err != nil {
		return err
	}
	e, err := NewSentinel(WithLogger(loggerFrom(c))).Poll(c.Context, source)
	if err != nil {
		return err
	}
	fmt.Println(PortListString(e))
	return nil
}

func dumpAction(c *cli.Context) error {
	source, err := sourceFrom(c)
	if err != nil {
		return err
	}
	sentinel := NewSentinel(WithLogger(loggerFrom(c)))
	if _, err = sentinel.Poll(c.Context, source); err != nil {
		return err
	}
	current := sentinel.Current()
	fmt.Println(current.Dump(c.Int("bits")))
	return nil
}
