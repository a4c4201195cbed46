// Package eventloop drains device events from the devctl channel and
// dispatches them to the node lifecycle manager.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"devmapperd/internal/attributes"
	"devmapperd/internal/devctl"
	"devmapperd/internal/devnode"
	"devmapperd/internal/match"
)

// ErrDesynchronized reports that the devctl stream could not deliver a
// whole record. The kernel and this daemon disagree on framing from that
// point on, so the loop aborts rather than guess at record boundaries.
var ErrDesynchronized = errors.New("eventloop: devctl stream desynchronized")

// Loop is the endless dispatch loop over the devctl event stream.
//
// Insertion failures abort the loop: a node the system expects to exist
// could not be materialized and nothing downstream can fix that. Removal
// failures only log: the device is gone regardless of what the bookkeeping
// thinks, so the loop keeps draining.
type Loop struct {
	stream    io.Reader
	manager   *devnode.Manager
	tracer    trace.Tracer
	evaluator *attributes.Evaluator
}

// New creates a loop reading from stream. tracer and evaluator may be nil
// to disable span emission.
func New(stream io.Reader, manager *devnode.Manager, tracer trace.Tracer, evaluator *attributes.Evaluator) *Loop {
	return &Loop{
		stream:    stream,
		manager:   manager,
		tracer:    tracer,
		evaluator: evaluator,
	}
}

// Run drains events until the stream desynchronizes or an insertion fails.
// It never returns nil.
func (l *Loop) Run() error {
	for {
		event, err := devctl.ReadEvent(l.stream)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDesynchronized, err)
		}

		// Events for the devctl node itself are skipped: the channel being
		// read must never be torn down by its own events.
		if event.IsControlDevice() {
			continue
		}

		nodeType := match.Character
		if event.IsBlockDevice != 0 {
			nodeType = match.Block
		}

		switch event.State {
		case devctl.DEVICE_INSERTED:
			if nodeType == match.Character {
				if once, ok := match.ClassifyOnce(event.MajorNumber, event.MinorNumber); ok {
					// Pluggable-once devices are created blindly and never
					// registered; they appear at most once per boot.
					if err := l.manager.CreateOnceNode(once); err != nil {
						return err
					}
					continue
				}
			}
			if err := l.handleInsert(nodeType, event); err != nil {
				return err
			}
		case devctl.DEVICE_REMOVED:
			if err := l.handleRemove(nodeType, event); err != nil {
				log.Printf("unregistering device %s %d:%d failed: %v",
					nodeType, event.MajorNumber, event.MinorNumber, err)
			}
		default:
			log.Printf("unhandled device event (0x%x)", event.State)
		}
	}
}

func (l *Loop) handleInsert(nodeType match.NodeType, event *devctl.Event) error {
	end := l.startSpan("device.insert", "insert", nodeType, event)
	err := l.manager.RegisterNewDevice(nodeType, event.MajorNumber, event.MinorNumber)
	end(err)
	return err
}

func (l *Loop) handleRemove(nodeType match.NodeType, event *devctl.Event) error {
	end := l.startSpan("device.remove", "remove", nodeType, event)
	err := l.manager.UnregisterDevice(nodeType, event.MajorNumber, event.MinorNumber)
	end(err)
	return err
}

// startSpan opens a span for one handled event and returns its completion
// func. With no tracer configured it is a no-op.
func (l *Loop) startSpan(name, action string, nodeType match.NodeType, event *devctl.Event) func(error) {
	if l.tracer == nil {
		return func(error) {}
	}

	family := ""
	if rule, ok := match.Classify(nodeType, event.MajorNumber); ok {
		family = rule.Family
	}

	_, span := l.tracer.Start(context.Background(), name)
	span.SetAttributes(
		attribute.String("device.kind", nodeType.String()),
		attribute.Int64("device.major", int64(event.MajorNumber)),
		attribute.Int64("device.minor", int64(event.MinorNumber)),
	)
	if family != "" {
		span.SetAttributes(attribute.String("device.family", family))
	}
	if l.evaluator != nil {
		span.SetAttributes(l.evaluator.Evaluate(attributes.EventContext{
			Action: action,
			Kind:   nodeType.String(),
			Major:  event.MajorNumber,
			Minor:  event.MinorNumber,
			Family: family,
		})...)
	}

	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
