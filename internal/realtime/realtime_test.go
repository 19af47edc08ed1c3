package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
)

type fakeLookup struct{ w *models.Webinar }

func (f fakeLookup) GetBySlug(_ context.Context, slug string, _ bool) (*models.Webinar, error) {
	if slug != f.w.Slug {
		return nil, apperr.NotFound("webinar")
	}
	return f.w, nil
}

func serve(t *testing.T, hub *Hub, w *models.Webinar) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/webinars/:slug", ServeWs(hub, fakeLookup{w: w}, NewUpgrader(nil), nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readCount(t *testing.T, conn *websocket.Conn) AttendeeCount {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, EventAttendees, msg.Event)
	var got AttendeeCount
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	return got
}

func TestServeWs_InitialCountThenUpdates(t *testing.T) {
	max := 30
	w := &models.Webinar{ID: uuid.New(), Slug: "tillage", CurrentAttendees: 7, MaxAttendees: &max}
	hub := NewHub(nil, nil, nil)
	url := serve(t, hub, w)

	conn, _, err := websocket.DefaultDialer.Dial(url+"/ws/webinars/tillage", nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readCount(t, conn)
	assert.Equal(t, 7, first.Count)
	assert.Equal(t, 30, *first.Max)

	require.Eventually(t, func() bool { return hub.ViewerCount(w.ID) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.TotalViewers())
	hub.PublishAttendees(w.ID, 8, &max)
	assert.Equal(t, 8, readCount(t, conn).Count)
}

func TestServeWs_UnknownWebinar(t *testing.T) {
	w := &models.Webinar{ID: uuid.New(), Slug: "tillage"}
	url := serve(t, NewHub(nil, nil, nil), w)

	_, resp, err := websocket.DefaultDialer.Dial(url+"/ws/webinars/missing", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestPublishAttendees_FansOutAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ps := NewRedisPubSub(client, nil)
	viewerHub := NewHub(nil, ps, ps)
	writerHub := NewHub(nil, ps, ps)
	t.Cleanup(viewerHub.Close)

	w := &models.Webinar{ID: uuid.New(), Slug: "irrigation", CurrentAttendees: 1}
	url := serve(t, viewerHub, w)
	conn, _, err := websocket.DefaultDialer.Dial(url+"/ws/webinars/irrigation", nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, 1, readCount(t, conn).Count)

	require.Eventually(t, func() bool { return viewerHub.ViewerCount(w.ID) == 1 }, time.Second, 10*time.Millisecond)
	writerHub.PublishAttendees(w.ID, 2, nil)

	got := readCount(t, conn)
	assert.Equal(t, 2, got.Count)
	assert.Nil(t, got.Max)
}

func TestUpgrader_CheckOrigin(t *testing.T) {
	up := NewUpgrader([]string{"https://agrimech.org"})
	req := httptest.NewRequest("GET", "/ws/webinars/x", nil)
	req.Header.Set("Origin", "https://agrimech.org")
	assert.True(t, up.CheckOrigin(req))
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, up.CheckOrigin(req))
}

func TestRedisPubSub_DeliversTypedCounts(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ps := NewRedisPubSub(client, nil)

	webinarID := uuid.New()
	got := make(chan AttendeeCount, 4)
	cancel, err := ps.SubscribeAttendeeCounts(webinarID, func(c AttendeeCount) { got <- c })
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, client.Publish(context.Background(), attendeeChannel(webinarID), "not-json").Err())
	max := 40
	require.NoError(t, ps.PublishAttendeeCount(webinarID, AttendeeCount{Count: 12, Max: &max}))

	select {
	case c := <-got:
		assert.Equal(t, 12, c.Count)
		require.NotNil(t, c.Max)
		assert.Equal(t, 40, *c.Max)
	case <-time.After(2 * time.Second):
		t.Fatal("no attendee count delivered")
	}
	assert.Empty(t, got)
}

type failingPublisher struct{}

func (failingPublisher) PublishAttendeeCount(uuid.UUID, AttendeeCount) error {
	return errors.New("redis down")
}

func TestPublishAttendees_FallsBackToLocalBroadcast(t *testing.T) {
	w := &models.Webinar{ID: uuid.New(), Slug: "harvesters", CurrentAttendees: 3}
	hub := NewHub(nil, failingPublisher{}, nil)
	url := serve(t, hub, w)

	conn, _, err := websocket.DefaultDialer.Dial(url+"/ws/webinars/harvesters", nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, 3, readCount(t, conn).Count)

	require.Eventually(t, func() bool { return hub.ViewerCount(w.ID) == 1 }, time.Second, 10*time.Millisecond)
	hub.PublishAttendees(w.ID, 4, nil)
	assert.Equal(t, 4, readCount(t, conn).Count)
}
