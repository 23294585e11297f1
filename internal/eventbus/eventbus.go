package eventbus

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FeedEvent is the document stored in the feed_events collection.
type FeedEvent struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	OriginMachineID string             `bson:"originMachineId"`
	UserID          string             `bson:"userId"`
	Message         []byte             `bson:"message"`
	CreatedAt       time.Time          `bson:"createdAt"`
}

// DeliverFunc hands a feed message to the sockets of userID on this machine.
type DeliverFunc func(userID string, message []byte)

// EventBus relays record feed messages between server instances through a
// MongoDB collection watched with a change stream. Each instance delivers its
// own messages locally and only picks up those published elsewhere.
type EventBus struct {
	machineID  string
	collection *mongo.Collection
	deliver    DeliverFunc
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
}

func generateMachineID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// New creates an EventBus. If collection is nil, the EventBus runs in
// local-only mode (Publish is a no-op, no watcher runs).
func New(collection *mongo.Collection, deliver DeliverFunc) *EventBus {
	return &EventBus{
		machineID:  generateMachineID(),
		collection: collection,
		deliver:    deliver,
	}
}

// MachineID returns this instance's unique identifier.
func (eb *EventBus) MachineID() string {
	return eb.machineID
}

// EnsureIndexes creates the TTL index on feed_events.createdAt.
func (eb *EventBus) EnsureIndexes(ctx context.Context) error {
	if eb.collection == nil {
		return nil
	}
	_, err := eb.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: 1}},
		Options: options.Index().
			SetExpireAfterSeconds(60).
			SetName("ttl_createdAt_60s"),
	})
	return err
}

// Start begins the change stream watcher in a background goroutine.
func (eb *EventBus) Start() {
	if eb.collection == nil {
		log.Println("[EventBus] No collection configured, running in local-only mode")
		return
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	eb.cancelFunc = cancel
	eb.running = true
	eb.wg.Add(1)

	go eb.watchLoop(ctx)
	log.Printf("[EventBus] Started (machineId=%s)", eb.machineID)
}

// Stop cancels the watcher and waits for it to exit.
func (eb *EventBus) Stop() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if !eb.running {
		return
	}
	eb.running = false
	if eb.cancelFunc != nil {
		eb.cancelFunc()
	}
	eb.wg.Wait()
	log.Println("[EventBus] Stopped")
}

// Publish records a feed message for the other instances.
// Errors are logged, never returned.
func (eb *EventBus) Publish(userID string, message []byte) {
	if eb.collection == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	doc := FeedEvent{
		OriginMachineID: eb.machineID,
		UserID:          userID,
		Message:         message,
		CreatedAt:       time.Now(),
	}
	if _, err := eb.collection.InsertOne(ctx, doc); err != nil {
		log.Printf("[EventBus] Failed to publish feed event: %v", err)
	}
}

// dispatch delivers an event seen on the change stream. Events from this
// machine were already delivered when published.
func (eb *EventBus) dispatch(event FeedEvent) bool {
	if event.OriginMachineID == eb.machineID || eb.deliver == nil {
		return false
	}
	eb.deliver(event.UserID, event.Message)
	return true
}

// watchLoop runs the change stream in a reconnecting loop.
func (eb *EventBus) watchLoop(ctx context.Context) {
	defer eb.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}
		err := eb.watch(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Printf("[EventBus] Change stream error (reconnecting in 2s): %v", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (eb *EventBus) watch(ctx context.Context) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "operationType", Value: "insert"},
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	cs, err := eb.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return err
	}
	defer cs.Close(ctx)

	for cs.Next(ctx) {
		var changeDoc struct {
			FullDocument FeedEvent `bson:"fullDocument"`
		}
		if err := cs.Decode(&changeDoc); err != nil {
			log.Printf("[EventBus] Failed to decode change event: %v", err)
			continue
		}
		eb.dispatch(changeDoc.FullDocument)
	}

	return cs.Err()
}
