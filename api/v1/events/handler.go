package events

import (
	"strconv"

	"a2a_registry/internal/httpx"
	"a2a_registry/internal/model"
	"a2a_registry/internal/ws"

	"github.com/gin-gonic/gin"
)

// Incremental handles GET /api/v1/events/incremental — the REST companion to
// the websocket feed, for clients that poll instead of holding a connection.
func Incremental(c *gin.Context) {
	topic := c.DefaultQuery("topic", model.EventTopicAgents)
	if topic != model.EventTopicAgents && topic != model.EventTopicPeers {
		httpx.FailErr(c, httpx.ErrParamIllegal("unknown topic"))
		return
	}

	lastEventId, _ := strconv.ParseInt(c.DefaultQuery("lastEventId", "0"), 10, 64)
	maxCount, _ := strconv.Atoi(c.DefaultQuery("maxCount", "100"))
	if maxCount <= 0 || maxCount > 500 {
		maxCount = 100
	}

	items, err := ws.GetIncrementalEvents(topic, lastEventId, maxCount)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to query events", err))
		return
	}

	latest, err := ws.GetLatestEventId(topic)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to query latest event id", err))
		return
	}

	httpx.OK(c, gin.H{
		"items":         items,
		"total":         len(items),
		"latestEventId": latest,
	})
}
