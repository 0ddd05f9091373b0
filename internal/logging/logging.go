// Package logging lets library packages log through the process-wide
// LixenWraith logger without depending on its global state directly.
package logging

import (
	"context"

	"github.com/LixenWraith/logger"
)

// Logger is the structured, context-first logging surface used across the
// module. Arguments are alternating key/value pairs.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
}

type global struct{}

// Global forwards to the logger initialized with logger.Init.
func Global() Logger { return global{} }

func (global) Debug(ctx context.Context, msg string, args ...any) { logger.Debug(ctx, msg, args...) }
func (global) Info(ctx context.Context, msg string, args ...any)  { logger.Info(ctx, msg, args...) }
func (global) Warn(ctx context.Context, msg string, args ...any)  { logger.Warn(ctx, msg, args...) }
func (global) Error(ctx context.Context, msg string, args ...any) { logger.Error(ctx, msg, args...) }

type discard struct{}

// Discard drops everything.
func Discard() Logger { return discard{} }

func (discard) Debug(context.Context, string, ...any) {}
func (discard) Info(context.Context, string, ...any)  {}
func (discard) Warn(context.Context, string, ...any)  {}
func (discard) Error(context.Context, string, ...any) {}
