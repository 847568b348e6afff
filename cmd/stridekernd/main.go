package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	stridekerndhttp "github.com/stridekernd/stridekernd/internal/api/http"
	"github.com/stridekernd/stridekernd/internal/kernel"
	"github.com/stridekernd/stridekernd/pkg/fmtt"
	stridekerndredis "github.com/stridekernd/stridekernd/redis"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// manifestEntry is one workload to fork at boot, matching the body
// shape of POST /api/procs.
type manifestEntry struct {
	Name     string   `json:"name"`
	Tickets  int      `json:"tickets"`
	EndTicks int64    `json:"end_ticks,omitempty"`
	Argv     []string `json:"argv,omitempty"`
}

func main() {
	var (
		addr      = flag.String("addr", "127.0.0.1:8080", "HTTP listen address")
		nproc     = flag.Int("nproc", kernel.DefaultNProc, "process table size")
		ncpu      = flag.Int("ncpu", runtime.NumCPU(), "number of scheduler CPUs")
		quantum   = flag.Duration("quantum", kernel.DefaultTickQuantum, "scheduler tick quantum")
		traceReb  = flag.Bool("trace-rebase", false, "log every Rebase pass")
		manifest  = flag.String("manifest", os.Getenv("STRIDEKERND_MANIFEST"), "path to a JSON array of {name,tickets,end_ticks,argv} workloads to fork at boot")
		redisAddr = flag.String("redis-addr", "", "optional Redis address for snapshot mirroring (empty disables it)")
		redisDB   = flag.Int("redis-db", 0, "Redis logical DB")
	)
	flag.Parse()

	isDev := os.Getenv("ENV") == "dev"

	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	log := zap.Must(logConfig.Build())
	defer log.Sync()
	log = log.Named("main")

	binding.EnableDecoderDisallowUnknownFields = true

	var redisClient *stridekerndredis.Client
	if *redisAddr != "" {
		redisClient = stridekerndredis.NewClient(*redisAddr, *redisDB, log)
		defer redisClient.Close()
	}

	k := kernel.NewKernel(kernel.Config{
		NProc:       *nproc,
		NCPU:        *ncpu,
		TickQuantum: *quantum,
		TraceRebase: *traceReb,
	}, log)

	if *manifest != "" {
		if err := forkManifest(k, log, *manifest); err != nil {
			if isDev {
				fmtt.PrintErrChainDebug(err)
			}
			log.Fatal("manifest load failed", zap.Error(err))
		}
	}

	sessionKey := make([]byte, 32)
	if _, err := rand.Read(sessionKey); err != nil {
		log.Fatal("session key generation failed", zap.Error(err))
	}

	router := stridekerndhttp.NewRouter(log, k, redisClient, sessionKey, isDev)
	server := stridekerndhttp.NewServer(*addr, router, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return k.RunScheduler(gctx)
	})

	g.Go(func() error {
		log.Info("running HTTP server", zap.String("addr", *addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		if isDev {
			fmtt.PrintErrChainDebug(err)
		}
		log.Fatal("exited with error", zap.Error(err))
	}

	killAll(k, log)
}

// forkManifest reads a JSON array of workload descriptions and forks
// each one as a child of init before the scheduler starts.
func forkManifest(k *kernel.Kernel, log *zap.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	var entries []manifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}

	for _, e := range entries {
		tickets := e.Tickets
		if tickets < 1 {
			tickets = kernel.StrideMax
		}
		p, err := k.Fork(e.Name, tickets, e.EndTicks, e.Argv)
		if err != nil {
			return fmt.Errorf("fork %q: %w", e.Name, err)
		}
		log.Info("manifest fork", zap.Int64("pid", p.PID), zap.String("name", e.Name))
	}
	return nil
}

// killAll marks every live process killed on shutdown, so no workload
// is left running once the daemon exits. The scheduler loops have
// already stopped by the time this runs, so any still-paused
// subprocess is reaped here directly rather than on its next quantum.
func killAll(k *kernel.Kernel, log *zap.Logger) {
	initPID := k.Table.Init.PID
	for _, p := range k.Snapshot() {
		if p.PID == initPID || p.State == kernel.Unused || p.State == kernel.Zombie {
			continue
		}
		if err := k.Kill(p.PID); err != nil {
			log.Warn("shutdown kill failed", zap.Int64("pid", p.PID), zap.Error(err))
		}
	}
}
