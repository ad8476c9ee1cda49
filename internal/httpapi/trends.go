package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foresightlab/signalhub/internal/apperr"
	"github.com/foresightlab/signalhub/internal/middleware"
	"github.com/foresightlab/signalhub/internal/models"
	"github.com/foresightlab/signalhub/internal/search"
)

func (a *API) searchTrends(c *gin.Context) {
	req, err := search.ParseRequest(models.KindTrend, c.Request.URL.Query())
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := a.trends.Search(c.Request.Context(), middleware.GetIdentity(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (a *API) getTrend(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	trend, err := a.trends.Get(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trend)
}

func (a *API) createTrend(c *gin.Context) {
	var trend models.Trend
	if err := c.ShouldBindJSON(&trend); err != nil {
		writeError(c, apperr.Validationf("invalid trend body: %v", err))
		return
	}
	created, err := a.trends.Create(c.Request.Context(), middleware.GetIdentity(c), &trend)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (a *API) updateTrend(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var trend models.Trend
	if err := c.ShouldBindJSON(&trend); err != nil {
		writeError(c, apperr.Validationf("invalid trend body: %v", err))
		return
	}
	trend.ID = id
	updated, err := a.trends.Update(c.Request.Context(), middleware.GetIdentity(c), &trend)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (a *API) deleteTrend(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	if err := a.trends.Delete(c.Request.Context(), middleware.GetIdentity(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
