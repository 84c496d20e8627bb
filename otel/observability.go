package otel

import (
	"context"

	"github.com/juju/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/KumKeeHyun/observed"
)

const (
	instrumentationName = "github.com/KumKeeHyun/observed"
)

// Observability implements observed.Observability using OpenTelemetry.
// Every Notify is traced as a span; stream events are counted per stream.
type Observability struct {
	tracer trace.Tracer
	meter  metric.Meter

	notifyCounter   metric.Int64Counter
	deliverCounter  metric.Int64Counter
	dropCounter     metric.Int64Counter
	completeCounter metric.Int64Counter
	cancelCounter   metric.Int64Counter
}

var _ observed.Observability = (*Observability)(nil)

type Option func(*Observability)

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(o *Observability) {
		o.tracer = provider.Tracer(instrumentationName)
	}
}

func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *Observability) {
		o.meter = provider.Meter(instrumentationName)
	}
}

// New uses the global providers unless overridden by opts.
func New(opts ...Option) (*Observability, error) {
	obs := &Observability{
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(obs)
	}

	counters := []struct {
		counter     *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&obs.notifyCounter, "observed.notify.count", "Number of change notifications", "{notification}"},
		{&obs.deliverCounter, "observed.deliver.count", "Number of values delivered to subscribers", "{value}"},
		{&obs.dropCounter, "observed.drop.count", "Number of values dropped for lack of demand", "{value}"},
		{&obs.completeCounter, "observed.complete.count", "Number of subscriptions completed by exhausted demand", "{subscription}"},
		{&obs.cancelCounter, "observed.cancel.count", "Number of cancelled subscriptions", "{subscription}"},
	}
	for _, c := range counters {
		counter, err := obs.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, errors.Annotatef(err, "create counter %s", c.name)
		}
		*c.counter = counter
	}

	return obs, nil
}

func (o *Observability) OnNotify(objectType string, listeners int) func() {
	ctx, span := o.tracer.Start(context.Background(), "observed.notify: "+objectType,
		trace.WithAttributes(
			attribute.String("object.type", objectType),
			attribute.Int("listeners", listeners),
		),
	)
	o.notifyCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("object.type", objectType),
		),
	)
	return func() {
		span.End()
	}
}

func (o *Observability) OnDeliver(stream string) {
	o.deliverCounter.Add(context.Background(), 1, streamAttributes(stream))
}

func (o *Observability) OnDrop(stream string) {
	o.dropCounter.Add(context.Background(), 1, streamAttributes(stream))
}

func (o *Observability) OnComplete(stream string) {
	o.completeCounter.Add(context.Background(), 1, streamAttributes(stream))
}

func (o *Observability) OnCancel(stream string) {
	o.cancelCounter.Add(context.Background(), 1, streamAttributes(stream))
}

func streamAttributes(stream string) metric.AddOption {
	return metric.WithAttributes(attribute.String("stream", stream))
}
