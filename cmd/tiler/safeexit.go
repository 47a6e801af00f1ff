package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var safeExitInst *SafeExit

func initSafeExit() {
	safeExitInst = new(SafeExit)
	go safeExitInst.ListenSignal()
}

// SafeExit runs registered cleanups before the process exits on a signal.
type SafeExit struct {
	funcs []func()
	mu    sync.Mutex
}

func (s *SafeExit) Register(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.funcs = append(s.funcs, f)
}

// run calls the cleanups in registration order
func (s *SafeExit) run() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.funcs {
		f()
	}
}

func (s *SafeExit) ListenSignal() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	sig := <-sigs
	log.Warnf("got signal %s, stopping task, please wait", sig)
	s.run()
	os.Exit(0)
}
