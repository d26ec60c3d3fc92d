package api

import (
	"net/http"
	"time"

	"github.com/voxcore/assistant-sdk/internal/cli/health"
	"github.com/voxcore/assistant-sdk/internal/dialogux"
	"github.com/voxcore/assistant-sdk/internal/directive"
	"github.com/voxcore/assistant-sdk/internal/focus"
)

// channelView is the wire shape for one entry of GET /channels.
type channelView struct {
	Name          string `json:"name"`
	Priority      uint32 `json:"priority"`
	Focus         string `json:"focus"`
	InterfaceName string `json:"interfaceName,omitempty"`
	ContentType   string `json:"contentType,omitempty"`
}

type channelsHandler struct {
	focus *focus.Manager
}

func (h *channelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.focus.Snapshot()
	views := make([]channelView, 0, len(snapshot))
	for _, s := range snapshot {
		views = append(views, channelView{
			Name:          s.Name,
			Priority:      s.Priority,
			Focus:         s.Focus.String(),
			InterfaceName: s.InterfaceName,
			ContentType:   string(s.ContentType),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

type directiveQueueHandler struct {
	processor *directive.Processor
}

func (h *directiveQueueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.processor.Stats())
}

type dialogStateHandler struct {
	aggregator *dialogux.Aggregator
}

type dialogStateView struct {
	State string `json:"state"`
}

func (h *dialogStateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dialogStateView{State: h.aggregator.State().String()})
}

// livenessHandler reports liveness plus process uptime, in the wire
// shape internal/cli/health.Response (and vassistctl's health command)
// expect.
type livenessHandler struct {
	startedAt time.Time
}

func (h *livenessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startedAt)

	resp := health.Response{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	resp.Data.Service = "vassist-coordination-core"
	resp.Data.StartedAt = h.startedAt.UTC().Format(time.RFC3339)
	resp.Data.Uptime = uptime.String()
	resp.Data.UptimeSec = int64(uptime.Seconds())

	writeJSON(w, http.StatusOK, resp)
}
