package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pd0mz/go-lmr/channel"
	"github.com/pd0mz/go-lmr/config"
	"github.com/pd0mz/go-lmr/metrics"
	"github.com/pd0mz/go-lmr/publish"
	"github.com/pd0mz/go-lmr/storage"
)

// outputs fans decoded events out to the configured adapters.
type outputs struct {
	handlers []channel.Handler
	closers  []io.Closer
	metrics  *metrics.Metrics
	listen   string
}

func openOutputs(ctx context.Context, o config.Outputs, session string, w io.Writer) (*outputs, error) {
	out := &outputs{listen: o.Prometheus}
	opened := false
	defer func() {
		if !opened {
			_ = out.Close()
		}
	}()

	if o.Log {
		out.handlers = append(out.handlers, printer(w))
	}
	if o.NATS != nil {
		p, err := publish.NewNATS(*o.NATS, session)
		if err != nil {
			return nil, err
		}
		out.add(p, publish.Handler(ctx, p))
	}
	if o.MQTT != nil {
		p, err := publish.NewMQTT(*o.MQTT, session)
		if err != nil {
			return nil, err
		}
		out.add(p, publish.Handler(ctx, p))
	}
	if o.SQLite != "" {
		db, err := storage.Open(o.SQLite)
		if err != nil {
			return nil, err
		}
		out.add(db, storage.Handler(ctx, db, session))
	}
	if o.Postgres != nil {
		db, err := storage.OpenPostgres(ctx, *o.Postgres)
		if err != nil {
			return nil, err
		}
		if err = out.addStore(ctx, db, session); err != nil {
			return nil, err
		}
	}
	if o.ClickHouse != nil {
		db, err := storage.OpenClickHouse(ctx, *o.ClickHouse)
		if err != nil {
			return nil, err
		}
		if err = out.addStore(ctx, db, session); err != nil {
			return nil, err
		}
	}
	if o.Prometheus != "" {
		out.metrics = metrics.New()
		out.handlers = append(out.handlers, out.metrics.Handler())
	}
	opened = true
	return out, nil
}

func (out *outputs) add(c io.Closer, h channel.Handler) {
	out.closers = append(out.closers, c)
	out.handlers = append(out.handlers, h)
}

func (out *outputs) addStore(ctx context.Context, s storage.Store, session string) error {
	out.closers = append(out.closers, s)
	if err := s.CreateSchema(ctx); err != nil {
		return err
	}
	out.handlers = append(out.handlers, storage.Handler(ctx, s, session))
	return nil
}

// Handler returns the handler passed to every channel.
func (out *outputs) Handler() channel.Handler {
	return channel.Multi(out.handlers...)
}

// Observe updates the framer gauges of a channel, if metrics are enabled.
func (out *outputs) Observe(c *channel.Channel) {
	if out.metrics != nil {
		out.metrics.Update(c)
	}
}

// Serve runs the metrics endpoint until the context is done.
func (out *outputs) Serve(ctx context.Context) error {
	if out.metrics == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", out.metrics.HTTPHandler())
	server := &http.Server{Addr: out.listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdown)
	}()
	log.Infof("serving metrics on %s/metrics", out.listen)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}

func (out *outputs) Close() error {
	var errs []error
	for i := len(out.closers) - 1; i >= 0; i-- {
		if err := out.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	out.closers = nil
	return errors.Join(errs...)
}

// printer writes one line per event.
func printer(w io.Writer) channel.Handler {
	return func(e channel.Event) {
		fmt.Fprintf(w, "%s %-12s %s\n", e.Message.Timestamp().Format("2006-01-02 15:04:05.000"), e.Channel, e.Message)
	}
}
