package server

import (
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleDonorStream pushes the caller's scoped donor list over SSE: the full
// current result set on connect, then again on every change. The subscription
// is torn down when the client goes away.
func (s *Server) handleDonorStream(c *gin.Context) {
	sub, err := s.store.WatchDonors(c.Request.Context(), scopeFor(c).Donors())
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	defer sub.Stop()

	s.logger.Debug("Donor stream opened", zap.String("uid", currentProfile(c).UID))

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case donors, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("donors", donors)
			return true
		}
	})
}
