// File: cmd/fcdemo/main.go
// fcdemo exercises the runtime end to end: a WebSocket echo server and
// a client that sends one message through a fiber.

package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pmconrad/fc/control"
	"github.com/pmconrad/fc/fiber"
	"github.com/pmconrad/fc/log"
	"github.com/pmconrad/fc/network/websocket"
)

var (
	configPath     string
	reactorThreads int
	logLevel       string
	listenAddr     string
)

func loadConfig() (control.Config, error) {
	cfg := control.Default()
	if configPath != "" {
		var err error
		cfg, err = control.Load(configPath)
		if err != nil {
			return cfg, err
		}
	}
	if reactorThreads > 0 {
		cfg.ReactorThreads = reactorThreads
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	return cfg, cfg.Apply()
}

func main() {
	root := &cobra.Command{
		Use:           "fcdemo",
		Short:         "fc runtime demo: websocket echo over fibers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	root.PersistentFlags().IntVar(&reactorThreads, "reactor-threads", 0, "reactor thread count (one-shot)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "run the echo server",
		RunE:  runServe,
	}
	serve.Flags().StringVar(&listenAddr, "listen", "", "listen address (host:port)")

	send := &cobra.Command{
		Use:   "send <url> <message>",
		Short: "send one message and print the reply",
		Args:  cobra.ExactArgs(2),
		RunE:  runSend,
	}

	root.AddCommand(serve, send)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	l := log.For("fcdemo")
	srv := websocket.NewServer(func(c *websocket.Connection) {
		c.OnMessage(func(msg string) {
			if err := c.Send("echo: " + msg); err != nil {
				l.Warn().Str("conn", c.ID()).Err(err).Msg("echo failed")
			}
		})
	})
	if err := srv.Listen(cfg.Listen); err != nil {
		return err
	}
	l.Info().Str("addr", srv.Addr()).Msg("echo server listening")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	return srv.Close()
}

func runSend(_ *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	url, msg := args[0], args[1]
	w := fiber.NewWorker("fcdemo client")
	defer w.Close()
	reply, err := fiber.Spawn(func() (string, error) {
		conn, err := websocket.Connect(url)
		if err != nil {
			return "", err
		}
		defer conn.Close()
		p := fiber.NewPromise[string]()
		conn.OnMessage(p.Set)
		if err := conn.Send(msg); err != nil {
			return "", err
		}
		return p.Future().Get()
	}, fiber.OnWorker(w.ID()), fiber.WithName("send")).Get()
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}
