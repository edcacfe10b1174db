package app

import (
	"context"
	"time"

	"github.com/dshills/quire/internal/dispatcher"
	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/event"
	"github.com/dshills/quire/internal/store"
)

const startKey = "app.start"

// publishEvents connects the dispatcher and the engine to the bus. Events
// raised during an edit are published while the engine is locked, so
// subscribers that read the document must use async delivery.
func (app *Application) publishEvents() {
	app.dispatcher.RegisterPreHook(dispatcher.PreDispatchFunc(
		func(_ *handler.Action, ec *execctx.ExecutionContext) bool {
			ec.Data[startKey] = time.Now()
			return true
		}))

	app.dispatcher.RegisterPostHook(dispatcher.PostDispatchFunc(
		func(action *handler.Action, ec *execctx.ExecutionContext, result *handler.Result) {
			payload := event.CommandDispatched{
				Command:     action.Name,
				Args:        action.Args.Clone(),
				ExecutionID: ec.ID,
				Nested:      ec.Parent != nil,
				Status:      result.Status.String(),
				Message:     result.Message,
			}
			if start, ok := ec.Data[startKey].(time.Time); ok {
				payload.Duration = time.Since(start)
			}
			app.publish(event.TopicCommandDispatched, payload)
		}))

	app.unwatch = app.doc.Engine.OnChange(func(e vnode.ChildListEvent) {
		app.publish(event.TopicDocumentChanged, event.DocumentChanged{
			Container: e.Container.Name(),
			NodeID:    uint64(e.Container.ID()),
		})
	})
}

// journal records top-level commands in the store.
func (app *Application) journal() error {
	_, err := app.events.SubscribeFunc(event.TopicCommandDispatched, func(ev event.Event) error {
		p := ev.Payload.(event.CommandDispatched)
		_, err := app.store.AddEntry(store.Entry{
			Document: app.docName,
			Command:  p.Command,
			Args:     p.Args,
			Status:   p.Status,
			Time:     ev.Timestamp,
		})
		return err
	}, event.WithAsync(), event.WithFilter(func(ev event.Event) bool {
		p, ok := ev.Payload.(event.CommandDispatched)
		return ok && !p.Nested
	}))
	return err
}

func (app *Application) publish(t event.Topic, payload any) {
	if err := app.events.Publish(context.Background(), event.New(t, payload, "app")); err != nil {
		app.logger.Debug("publish %s: %v", t, err)
	}
}

// Subscribe registers fn for events matching pattern. Delivery is
// asynchronous, in publish order.
func (app *Application) Subscribe(pattern event.Topic, fn func(event.Event) error) (*event.Subscription, error) {
	return app.events.SubscribeFunc(pattern, fn, event.WithAsync())
}

// Events returns the event bus.
func (app *Application) Events() *event.Bus { return app.events }
