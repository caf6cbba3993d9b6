// Command marwind starts the window manager: it dials the X server,
// wires a core.World from a Config, and runs the event pump until a
// signal asks it to stop.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/patrislav/marwind/core"
	"github.com/patrislav/marwind/x11"
)

// reexec replaces the current process image with a fresh run of the
// same binary and arguments, used after a Restart-triggered shutdown.
func reexec(log *logrus.Logger) {
	self, err := os.Executable()
	if err != nil {
		log.WithError(err).Fatal("marwind: restart: could not resolve executable path")
	}
	if err := syscall.Exec(self, os.Args, os.Environ()); err != nil {
		log.WithError(err).Fatal("marwind: restart: exec failed")
	}
}

func main() {
	var (
		numWorkspaces = flag.Int("workspaces", 0, "number of workspaces (0 keeps the default)")
		statePath     = flag.String("state", "", "path to the MPX state file (empty keeps the default)")
		stealWM       = flag.Bool("replace", false, "steal the WM_Sn selection from a running window manager")
		crashOnErrors = flag.Bool("crash-on-errors", false, "abort instead of repairing on an integrity violation")
		verbose       = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := core.DefaultConfig()
	if *numWorkspaces > 0 {
		cfg.NumWorkspaces = *numWorkspaces
	}
	if *statePath != "" {
		cfg.StatePersistPath = *statePath
	}
	cfg.StealWMSelection = *stealWM
	cfg.CrashOnErrors = *crashOnErrors

	conn, err := x11.Dial(log)
	if err != nil {
		log.WithError(err).Fatal("marwind: failed to connect to the X server")
	}

	w := core.New(cfg, conn, log)
	if err := w.Init(); err != nil {
		log.WithError(err).Fatal("marwind: startup failed")
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigc {
			switch sig {
			case syscall.SIGHUP:
				log.Info("marwind: SIGHUP received, restarting")
				w.Restart()
			default:
				log.WithField("signal", sig).Info("marwind: signal received, shutting down")
				w.Quit()
			}
		}
	}()

	if err := w.Run(); err != nil {
		log.WithError(err).Fatal("marwind: event loop exited with an error")
	}
	if w.Restarting() {
		reexec(log)
	}
}
