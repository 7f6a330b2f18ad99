// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package pipeio

import (
	"fmt"

	"github.com/joeycumines/logiface"
)

// DefaultBufferSize is the usable capacity, in bytes, of the reader's ring
// buffer and of the writer's slot, unless overridden via [WithBufferSize].
const DefaultBufferSize = 4096

// deviceOptions holds configuration options for Device creation.
type deviceOptions struct {
	logger       *logiface.Logger[logiface.Event]
	readyRead    func()
	bytesWritten func(int)
	aboutToClose func()
	bufferSize   int
}

// --- Device Options ---

// Option configures a [Device] instance.
type Option interface {
	applyDevice(*deviceOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyDeviceFunc func(*deviceOptions) error
}

func (o *optionImpl) applyDevice(opts *deviceOptions) error {
	return o.applyDeviceFunc(opts)
}

// WithBufferSize sets the usable capacity, in bytes, of the reader's ring
// buffer and of the writer's single slot. Values below one are rejected.
// Defaults to [DefaultBufferSize].
func WithBufferSize(size int) Option {
	return &optionImpl{func(opts *deviceOptions) error {
		if size < 1 {
			return fmt.Errorf("pipeio: buffer size must be positive, got %d", size)
		}
		opts.bufferSize = size
		return nil
	}}
}

// WithLogger attaches a structured logger to the device. The logger is used
// for trace/debug level diagnostics of worker and facade behavior. A nil
// logger (the default) disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *deviceOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithReadyRead registers a callback invoked on the device's dispatcher
// goroutine whenever the reader worker has made data (or a terminal
// end-of-stream/error condition) observable. The reader worker does not
// overwrite the state the callback may inspect until the callback has
// returned.
func WithReadyRead(fn func()) Option {
	return &optionImpl{func(opts *deviceOptions) error {
		opts.readyRead = fn
		return nil
	}}
}

// WithBytesWritten registers a callback invoked on the device's dispatcher
// goroutine after the writer worker drains its slot; the argument is the
// number of bytes flushed to the OS (zero when the writer parks on an empty
// slot, or on writer termination).
func WithBytesWritten(fn func(n int)) Option {
	return &optionImpl{func(opts *deviceOptions) error {
		opts.bytesWritten = fn
		return nil
	}}
}

// WithAboutToClose registers a callback invoked synchronously at the start
// of [Device.Close], before the workers are cancelled.
func WithAboutToClose(fn func()) Option {
	return &optionImpl{func(opts *deviceOptions) error {
		opts.aboutToClose = fn
		return nil
	}}
}

// resolveOptions applies Option instances to deviceOptions.
func resolveOptions(opts []Option) (*deviceOptions, error) {
	cfg := &deviceOptions{
		bufferSize: DefaultBufferSize, // default
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyDevice(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
