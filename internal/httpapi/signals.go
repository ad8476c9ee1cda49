package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foresightlab/signalhub/internal/apperr"
	"github.com/foresightlab/signalhub/internal/middleware"
	"github.com/foresightlab/signalhub/internal/models"
	"github.com/foresightlab/signalhub/internal/search"
)

func (a *API) searchSignals(c *gin.Context) {
	req, err := search.ParseRequest(models.KindSignal, c.Request.URL.Query())
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := a.signals.Search(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *API) getSignal(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	signal, err := a.signals.Get(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, signal)
}

func (a *API) createSignal(c *gin.Context) {
	var signal models.Signal
	if err := c.ShouldBindJSON(&signal); err != nil {
		writeError(c, apperr.Validationf("invalid signal body: %v", err))
		return
	}
	created, err := a.signals.Create(c.Request.Context(), middleware.GetIdentity(c), &signal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *API) updateSignal(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var signal models.Signal
	if err := c.ShouldBindJSON(&signal); err != nil {
		writeError(c, apperr.Validationf("invalid signal body: %v", err))
		return
	}
	signal.ID = id
	updated, err := a.signals.Update(c.Request.Context(), middleware.GetIdentity(c), &signal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *API) deleteSignal(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	if err := a.signals.Delete(c.Request.Context(), middleware.GetIdentity(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
