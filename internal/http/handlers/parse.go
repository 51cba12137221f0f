package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// parsePathID reads a positive integer path parameter; on failure it
// writes the 400 itself and reports ok=false.
func parsePathID(ctx *gin.Context, name string) (int64, bool) {
	raw := ctx.Param(name)

	id, err := strconv.ParseInt(raw, 10, 64)

	if err != nil || id < 1 {
		RespondBadRequest(ctx, name+" must be a positive integer", gin.H{"field": name})
		return 0, false
	}

	return id, true
}
