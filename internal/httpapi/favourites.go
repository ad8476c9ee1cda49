package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foresightlab/signalhub/internal/middleware"
)

func (a *API) listFavourites(c *gin.Context) {
	signals, err := a.signals.Favourites(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": signals})
}

func (a *API) toggleFavourite(c *gin.Context) {
	id, err := pathID(c, "signalID")
	if err != nil {
		writeError(c, err)
		return
	}
	added, err := a.signals.ToggleFavourite(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	status := "deleted"
	if added {
		status = "created"
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}
