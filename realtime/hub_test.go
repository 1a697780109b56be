package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrayerWall/models"
	"github.com/PrayerWall/store"
)

func setupHubServer(t *testing.T) (*httptest.Server, *Hub, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	memStore := store.NewMemoryStore()
	hub := NewHub(memStore)
	go hub.Run()

	router := gin.New()
	router.GET("/ws", hub.HandleConnection)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, hub, memStore
}

// connect dials the hub and consumes the initial-comments frame, returning
// it. Once that frame has arrived the client is guaranteed registered.
func connect(t *testing.T, server *httptest.Server) (*websocket.Conn, []models.Comment) {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	event := readEvent(t, conn)
	require.Equal(t, EventInitialComments, event.Event)

	var snapshot []models.Comment
	require.NoError(t, json.Unmarshal(event.Data, &snapshot))
	return conn, snapshot
}

func readEvent(t *testing.T, conn *websocket.Conn) ClientEvent {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event ClientEvent
	require.NoError(t, json.Unmarshal(raw, &event))
	return event
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()

	raw, err := json.Marshal(map[string]any{"event": event, "data": data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

func TestHubInitialCommentsSnapshot(t *testing.T) {
	server, _, memStore := setupHubServer(t)

	for i := 0; i < 55; i++ {
		_, err := memStore.CreateComment(context.Background(), models.CommentCreate{
			Author: "Amy",
			Text:   fmt.Sprintf("comment %d", i),
		})
		require.NoError(t, err)
	}

	_, snapshot := connect(t, server)

	// Capped at the live feed limit, newest first.
	require.Len(t, snapshot, models.LiveFeedLimit)
	assert.Equal(t, "comment 54", snapshot[0].Text)
	assert.Equal(t, "comment 5", snapshot[len(snapshot)-1].Text)
}

func TestHubEmptySnapshotIsEmptyArray(t *testing.T) {
	server, _, _ := setupHubServer(t)

	_, snapshot := connect(t, server)
	assert.Empty(t, snapshot)
}

func TestHubNewCommentPersistsAndBroadcasts(t *testing.T) {
	server, _, memStore := setupHubServer(t)

	sender, _ := connect(t, server)
	viewer, _ := connect(t, server)

	before := time.Now().Add(-time.Second)
	sendEvent(t, sender, EventNewComment, models.CommentCreate{Author: "Amy", Text: "Hello"})

	// Both the sender and the other viewer get the broadcast.
	for _, conn := range []*websocket.Conn{sender, viewer} {
		event := readEvent(t, conn)
		require.Equal(t, EventNewComment, event.Event)

		var comment models.Comment
		require.NoError(t, json.Unmarshal(event.Data, &comment))
		assert.NotEmpty(t, comment.ID)
		assert.Equal(t, "Amy", comment.Author)
		assert.Equal(t, "Hello", comment.Text)
		assert.True(t, comment.Timestamp.After(before))
	}

	// And it was persisted.
	comments, err := memStore.ListComments(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Hello", comments[0].Text)
}

func TestHubInvalidCommentIsNotBroadcast(t *testing.T) {
	server, _, memStore := setupHubServer(t)

	conn, _ := connect(t, server)

	// Empty text fails validation; nothing may reach any viewer.
	sendEvent(t, conn, EventNewComment, models.CommentCreate{Author: "Amy"})
	// A valid follow-up proves the failed one produced no frame: delivery is
	// FIFO, so the next frame we read must be the valid comment.
	sendEvent(t, conn, EventNewComment, models.CommentCreate{Author: "Amy", Text: "valid"})

	event := readEvent(t, conn)
	require.Equal(t, EventNewComment, event.Event)

	var comment models.Comment
	require.NoError(t, json.Unmarshal(event.Data, &comment))
	assert.Equal(t, "valid", comment.Text)

	comments, err := memStore.ListComments(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestHubBroadcastReachesAllClientsInOrder(t *testing.T) {
	server, hub, memStore := setupHubServer(t)

	first, _ := connect(t, server)
	second, _ := connect(t, server)

	prayer, err := memStore.CreatePrayerRequest(context.Background(), models.PrayerRequestCreate{
		Request: "Please pray",
	})
	require.NoError(t, err)

	hub.Broadcast(PrayerRequestAdded(prayer))
	hub.Broadcast(PrayerRequestDeleted(prayer.ID))
	hub.Broadcast(PrayerRequestsCleared(3))

	expectedTypes := []string{ChangeAdded, ChangeDeleted, ChangeDeletedAll}
	for _, conn := range []*websocket.Conn{first, second} {
		for _, expected := range expectedTypes {
			event := readEvent(t, conn)
			require.Equal(t, EventPrayerRequestUpdated, event.Event)

			var change PrayerRequestChange
			require.NoError(t, json.Unmarshal(event.Data, &change))
			assert.Equal(t, expected, change.Type)
		}
	}
}

// slowSnapshotStore holds ListComments open until released, and signals when
// the fetch has started, so a test can act inside the snapshot window.
type slowSnapshotStore struct {
	store.Store
	started chan struct{}
	release chan struct{}
}

func (s *slowSnapshotStore) ListComments(ctx context.Context, limit int) ([]models.Comment, error) {
	close(s.started)
	<-s.release
	return s.Store.ListComments(ctx, limit)
}

// A broadcast that fires while a new client's snapshot is still loading must
// still reach that client, after its initial history.
func TestHubBroadcastDuringSnapshotIsNotLost(t *testing.T) {
	gin.SetMode(gin.TestMode)

	memStore := store.NewMemoryStore()
	slow := &slowSnapshotStore{
		Store:   memStore,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	hub := NewHub(slow)
	go hub.Run()

	router := gin.New()
	router.GET("/ws", hub.HandleConnection)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	prayer, err := memStore.CreatePrayerRequest(context.Background(), models.PrayerRequestCreate{
		Request: "Please pray",
	})
	require.NoError(t, err)

	// Wait until the snapshot fetch is underway, then broadcast into the
	// registration window before letting the fetch finish.
	<-slow.started
	hub.Broadcast(PrayerRequestAdded(prayer))
	close(slow.release)

	event := readEvent(t, conn)
	require.Equal(t, EventInitialComments, event.Event)

	event = readEvent(t, conn)
	require.Equal(t, EventPrayerRequestUpdated, event.Event)

	var change PrayerRequestChange
	require.NoError(t, json.Unmarshal(event.Data, &change))
	assert.Equal(t, ChangeAdded, change.Type)
}

func TestHubClientCount(t *testing.T) {
	server, hub, _ := setupHubServer(t)

	assert.Equal(t, int64(0), hub.ClientCount())

	conn, _ := connect(t, server)
	_, _ = connect(t, server)
	assert.Equal(t, int64(2), hub.ClientCount())

	conn.Close()
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}
