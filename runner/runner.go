// Package runner owns the browser lifecycle for funnel runs: preflight,
// launch, execute, release.
package runner

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"quote-funnel-go/api/websocket"
	"quote-funnel-go/browser"
	"quote-funnel-go/config"
	"quote-funnel-go/funnel"
	"quote-funnel-go/tlsclient"
)

type Runner struct {
	cfg *config.Config
	tls *tlsclient.Client
	hub *websocket.Hub
}

func New(cfg *config.Config, tls *tlsclient.Client, hub *websocket.Hub) *Runner {
	return &Runner{cfg: cfg, tls: tls, hub: hub}
}

// Run executes one funnel pass in a fresh browser session. The session is
// released on every exit path; no state survives into the next run.
func (r *Runner) Run(ctx context.Context, req funnel.QuoteRequest) funnel.RunResult {
	// Cheap reachability check before a whole browser is spent on it.
	if r.tls != nil {
		if err := r.tls.Preflight(r.cfg.FunnelBaseURL); err != nil {
			log.Printf("preflight failed: %v", err)
			// Infrastructure failures still earn a run ID; only rejected
			// input goes back without one.
			return funnel.RunResult{
				RunID:   uuid.NewString(),
				Success: false,
				Message: "funnel site unreachable",
				Errors:  []string{err.Error()},
			}
		}
	}

	drv, err := browser.Launch(ctx, browser.LaunchOptions{
		Headless:   r.cfg.Headless,
		ChromePath: r.cfg.ChromePath,
	})
	if err != nil {
		return funnel.RunResult{
			RunID:   uuid.NewString(),
			Success: false,
			Message: "browser launch failed",
			Errors:  []string{err.Error()},
		}
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := drv.Close(closeCtx); err != nil {
			log.Printf("browser close: %v", err)
		}
	}()

	eng := funnel.NewEngine(drv, funnel.EngineOptions{
		JitterMin: time.Duration(r.cfg.JitterMinMs) * time.Millisecond,
		JitterMax: time.Duration(r.cfg.JitterMaxMs) * time.Millisecond,
		PollEvery: time.Duration(r.cfg.ReadyPollMs) * time.Millisecond,
	})

	profile := funnel.DefaultSiteProfile()
	profile.PremiumMin = r.cfg.PremiumMin
	profile.PremiumMax = r.cfg.PremiumMax

	m := funnel.NewMachine(funnel.MachineOptions{
		Engine:  eng,
		Profile: profile,
		BaseURL: r.cfg.FunnelBaseURL,
		Capabilities: funnel.Capabilities{
			MultiVehicle: r.cfg.MultiVehicle,
			MultiDriver:  r.cfg.MultiDriver,
		},
		StageTimeout: time.Duration(r.cfg.StageTimeoutMs) * time.Millisecond,
		Screenshots:  r.saveScreenshot,
		Events:       r.publish,
	})

	return m.Run(ctx, req)
}

// saveScreenshot writes a diagnostic capture, named by stage and timestamp.
func (r *Runner) saveScreenshot(stage funnel.Stage, image []byte) {
	if err := os.MkdirAll(r.cfg.ScreenshotDir, 0o755); err != nil {
		log.Printf("screenshot dir: %v", err)
		return
	}
	name := fmt.Sprintf("%s-%s.png", stage, time.Now().Format("20060102-150405.000"))
	path := filepath.Join(r.cfg.ScreenshotDir, name)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		log.Printf("screenshot write: %v", err)
		return
	}
	log.Printf("screenshot saved: %s", path)
}

// publish forwards machine lifecycle events to the dashboard hub.
func (r *Runner) publish(eventType, runID string, stage funnel.Stage, message string) {
	if r.hub == nil {
		return
	}
	r.hub.Publish(websocket.NewEvent(eventType, websocket.RunEventData{
		RunID:   runID,
		Stage:   string(stage),
		Message: message,
	}))
}
