package tasks

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	wla "github.com/ma-hartma/watermill-logrus-adapter"

	"github.com/rasphia/rasphia/pkg/models"
)

const TaskCountThrottle = 50 // messages per second
const MaxQueueRetries = 3
const TaskTimeout = 60 // seconds

// TaskRouter is a wrapper around watermill's Router that adds some
// functionality for managing tasks and handlers. All handlers subscribe to an
// in-process GoChannel Pub/Sub, so delivery is at-most-once and decoupled
// from the request that published the task.
type TaskRouter struct {
	*message.Router
	appState *models.AppState
	pubsub   *gochannel.GoChannel
	logger   watermill.LoggerAdapter
}

var _ models.TaskRouter = &TaskRouter{}

// NewTaskRouter creates a new TaskRouter backed by a GoChannel Pub/Sub.
// The returned router shares its Pub/Sub with the TaskPublisher.
func NewTaskRouter(appState *models.AppState, pubsub *gochannel.GoChannel) (*TaskRouter, error) {
	var wlog = wla.NewLogrusLogger(log)

	cfg := message.RouterConfig{}
	router, err := message.NewRouter(cfg, wlog)
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(
		// CorrelationID will copy the correlation id from the incoming message's metadata to the produced messages
		middleware.CorrelationID,

		// Throttle limits the number of messages processed per second.
		middleware.NewThrottle(TaskCountThrottle, time.Second).Middleware,

		// Recoverer handles panics from handlers.
		// In this case, it passes them as errors to the Retry middleware.
		middleware.Recoverer,

		// The handler function is retried if it returns an error.
		// After MaxRetries, the message is Nacked and dropped by the
		// GoChannel Pub/Sub. Embedding recompute is best-effort; the record
		// stays stale until the next write or a manual recompute.
		middleware.Retry{
			MaxRetries:      MaxQueueRetries,
			InitialInterval: 1 * time.Second,
			Multiplier:      2,
			Logger:          wlog,
		}.Middleware,
	)

	return &TaskRouter{
		Router:   router,
		appState: appState,
		pubsub:   pubsub,
		logger:   wlog,
	}, nil
}

// NewGoChannelPubSub creates the in-process Pub/Sub shared by the task router
// and publisher.
func NewGoChannelPubSub() *gochannel.GoChannel {
	var wlog = wla.NewLogrusLogger(log)
	return gochannel.NewGoChannel(gochannel.Config{}, wlog)
}

// AddTask adds a task handler to the router.
func (tr *TaskRouter) AddTask(_ context.Context, name, taskType string, task models.Task) {
	tr.AddNoPublisherHandler(
		name,
		taskType,
		tr.pubsub,
		TaskHandler(task),
	)
}

// Close closes the router and its Pub/Sub.
func (tr *TaskRouter) Close() error {
	if err := tr.Router.Close(); err != nil {
		return err
	}
	return tr.pubsub.Close()
}

// TaskHandler returns a message handler function for the given task.
func TaskHandler(task models.Task) func(msg *message.Message) error {
	return func(msg *message.Message) error {
		ctx, done := context.WithTimeout(msg.Context(), TaskTimeout*time.Second)
		defer done()

		if err := task.Execute(ctx, msg); err != nil {
			task.HandleError(err)
			return err
		}

		return nil
	}
}

// RunTaskRouter starts the task router in its own goroutine and registers all
// tasks with it. Blocks until the router is running.
func RunTaskRouter(ctx context.Context, appState *models.AppState, pubsub *gochannel.GoChannel) (*TaskRouter, error) {
	router, err := NewTaskRouter(appState, pubsub)
	if err != nil {
		return nil, err
	}

	Initialize(ctx, appState, router)

	go func() {
		if err := router.Run(ctx); err != nil {
			log.Errorf("task router failed to run: %v", err)
		}
	}()

	<-router.Running()

	return router, nil
}
