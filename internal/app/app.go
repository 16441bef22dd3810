// Package app runs a session controller on a host loop and feeds it
// scenes from a generator. It is the entry point shared by the HTTP API,
// the MCP server and the CLI.
package app

import (
	"context"
	"log/slog"

	"github.com/gogpu/shaderscene"
	"github.com/gogpu/shaderscene/host"
	"github.com/gogpu/shaderscene/internal/fetch"
)

// App hands work from request goroutines to the loop goroutine that owns
// the controller.
type App struct {
	loop *host.Loop
	ctrl *shaderscene.Controller
	gen  fetch.Generator
}

// New returns an App. The caller runs loop; ctrl must be driven by it.
func New(loop *host.Loop, ctrl *shaderscene.Controller, gen fetch.Generator) *App {
	return &App{loop: loop, ctrl: ctrl, gen: gen}
}

// Controller returns the controller. It may only be used on the loop
// goroutine.
func (a *App) Controller() *shaderscene.Controller { return a.ctrl }

// Generate asks the generator for a scene and applies it. While the
// request is in flight the controller reports Loading; a fetch failure
// leaves the current scene running. A request abandoned through ctx
// clears Loading without recording an error.
func (a *App) Generate(ctx context.Context, prompt string) (shaderscene.State, error) {
	if err := a.loop.Do(ctx, a.ctrl.SetLoading); err != nil {
		// SetLoading may still run after Do gave up.
		a.loop.Post(a.ctrl.ClearLoading)
		return shaderscene.State{}, err
	}
	shaderscene.Logger().Info("generating scene", slog.Int("prompt_len", len(prompt)))

	data, err := a.gen.Generate(ctx, prompt)
	if err != nil && ctx.Err() != nil {
		a.loop.Post(a.ctrl.ClearLoading)
		return shaderscene.State{}, err
	}
	if err != nil {
		a.loop.Post(func() { a.ctrl.ReportFetchFailure(err) })
		st, _ := a.State(ctx)
		return st, err
	}
	return a.Apply(ctx, data)
}

// Apply applies a payload on the loop goroutine and returns the resulting
// state together with the controller's error, if any.
func (a *App) Apply(ctx context.Context, payload any) (shaderscene.State, error) {
	type result struct {
		st  shaderscene.State
		err error
	}
	res := make(chan result, 1)
	if err := a.loop.Do(ctx, func() {
		err := a.ctrl.Apply(payload)
		res <- result{a.ctrl.State(), err}
	}); err != nil {
		return shaderscene.State{}, err
	}
	r := <-res
	return r.st, r.err
}

// State returns the controller state.
func (a *App) State(ctx context.Context) (shaderscene.State, error) {
	res := make(chan shaderscene.State, 1)
	if err := a.loop.Do(ctx, func() { res <- a.ctrl.State() }); err != nil {
		return shaderscene.State{}, err
	}
	return <-res, nil
}

// Teardown disposes the current session.
func (a *App) Teardown(ctx context.Context) error {
	return a.loop.Do(ctx, a.ctrl.Teardown)
}

// Close closes the controller. Further Apply calls fail.
func (a *App) Close(ctx context.Context) error {
	return a.loop.Do(ctx, a.ctrl.Close)
}

// LiveResources returns the number of live GPU objects. It is safe to call
// from any goroutine.
func (a *App) LiveResources() int { return a.ctrl.LiveResources() }
