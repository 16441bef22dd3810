package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/shaderscene"
	"github.com/gogpu/shaderscene/host"
	"github.com/gogpu/shaderscene/internal/app"
	"github.com/gogpu/shaderscene/internal/config"
	"github.com/gogpu/shaderscene/internal/fetch"
	"github.com/gogpu/shaderscene/internal/gpudev"
	"github.com/gogpu/shaderscene/internal/metrics"
)

// runtime is everything a long-running command needs: device, loop,
// controller, generator and metrics registry.
type runtime struct {
	dev      *gpudev.Device
	loop     *host.Loop
	mount    *host.Mount
	ctrl     *shaderscene.Controller
	app      *app.App
	registry *prometheus.Registry
	cache    *fetch.Cache
}

func newRuntime(c config.Config) (*runtime, error) {
	dev, err := gpudev.Open(c.Backend)
	if err != nil {
		return nil, err
	}
	shaderscene.Logger().Info("device opened",
		slog.String("backend", c.Backend),
		slog.String("adapter", dev.Adapter))

	mount, err := host.NewMount(c.Viewport.Width, c.Viewport.Height)
	if err != nil {
		dev.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	obs, err := metrics.New(reg)
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	loop := host.NewLoop(c.FrameRate)
	ctrl := shaderscene.NewController(dev.Device, dev.Queue, loop, mount, shaderscene.WithObserver(obs))
	if err := metrics.RegisterLiveObjects(reg, ctrl.LiveResources); err != nil {
		dev.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	rt := &runtime{
		dev:      dev,
		loop:     loop,
		mount:    mount,
		ctrl:     ctrl,
		registry: reg,
	}

	var gen fetch.Generator = fetch.NewClient(c.Generator.Endpoint, c.Generator.Timeout)
	if c.Redis.Addr != "" {
		rt.cache = fetch.NewCache(gen, c.Redis.Addr, c.Redis.Password, c.Redis.DB, fetch.WithTTL(c.Redis.TTL))
		gen = rt.cache
	}
	rt.app = app.New(loop, ctrl, gen)
	return rt, nil
}

// run drives the loop until ctx is done, then closes the controller on the
// loop goroutine and releases the device.
func (rt *runtime) run(ctx context.Context) error {
	err := rt.loop.Run(ctx)
	rt.ctrl.Close()
	if rt.cache != nil {
		_ = rt.cache.Close()
	}
	rt.dev.Close()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
