package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"RankPulse/internal/domain/models"
	"RankPulse/internal/usecase"
	xhttp "RankPulse/pkg/http"
	xlogger "RankPulse/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The API fronts internal dashboards; origin policy is enforced at the
	// gateway.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// streamFrame is one websocket message. Kind is "progress" while queries run
// and "report" for the final payload.
type streamFrame struct {
	Kind     string                  `json:"kind"`
	Progress *usecase.ProgressUpdate `json:"progress,omitempty"`
	Report   *models.EnrichedReport  `json:"report,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// StreamReport upgrades to a websocket, reads one report request, and streams
// per-query progress while the batch runs. SERP polling can hold a request
// open for minutes, so long-running clients watch the stream instead of
// staring at a pending POST.
func (h *ReportHandler) StreamReport(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	req := &models.ReportRequest{}
	if err := conn.ReadJSON(req); err != nil {
		h.logger.Warn("stream request unreadable", xlogger.Error(err))
		writeFrame(conn, streamFrame{Kind: "error", Error: "invalid request payload"})
		return nil
	}
	if verr := xhttp.ValidateStruct(c.Request().Context(), req); verr != nil {
		writeFrame(conn, streamFrame{Kind: "error", Error: verr.Error()})
		return nil
	}

	h.logger.Info("report stream started",
		xlogger.String("domain", req.Domain),
		xlogger.Int("keywords", len(req.Keywords)),
	)

	// Progress callbacks arrive from the fetch goroutines; gorilla conns
	// allow one concurrent writer only.
	var writeMu sync.Mutex
	progress := func(u usecase.ProgressUpdate) {
		writeMu.Lock()
		defer writeMu.Unlock()
		writeFrame(conn, streamFrame{Kind: "progress", Progress: &u})
	}

	report := h.reports.Generate(c.Request().Context(), req, usecase.WithProgress(progress))

	writeMu.Lock()
	defer writeMu.Unlock()
	writeFrame(conn, streamFrame{Kind: "report", Report: report})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return nil
}

func writeFrame(conn *websocket.Conn, frame streamFrame) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(frame)
}
