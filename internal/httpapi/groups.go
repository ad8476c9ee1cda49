package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foresightlab/signalhub/internal/apperr"
	"github.com/foresightlab/signalhub/internal/middleware"
)

func (a *API) listGroups(c *gin.Context) {
	groups, err := a.groups.ListGroups(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": groups})
}

func (a *API) createGroup(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, apperr.Validationf("invalid group body: %v", err))
		return
	}
	group, err := a.groups.CreateGroup(c.Request.Context(), middleware.GetIdentity(c), body.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (a *API) getGroup(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	group, err := a.groups.GetGroup(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

func (a *API) deleteGroup(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	if err := a.groups.DeleteGroup(c.Request.Context(), middleware.GetIdentity(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) groupAudit(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	entries, err := a.groups.AuditTrail(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}

func (a *API) groupMembers(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	members, err := a.groups.Members(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// groupMutation runs one membership-style mutation after parsing the
// group and subject ids from the path.
func (a *API) groupMutation(c *gin.Context, param string, fn func(groupID, subjectID int64) error) {
	groupID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	subjectID, err := pathID(c, param)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := fn(groupID, subjectID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) addMember(c *gin.Context) {
	user := middleware.GetIdentity(c)
	a.groupMutation(c, "userID", func(groupID, userID int64) error {
		return a.groups.AddMember(c.Request.Context(), user, groupID, userID)
	})
}

func (a *API) removeMember(c *gin.Context) {
	user := middleware.GetIdentity(c)
	a.groupMutation(c, "userID", func(groupID, userID int64) error {
		return a.groups.RemoveMember(c.Request.Context(), user, groupID, userID)
	})
}

func (a *API) addAdmin(c *gin.Context) {
	user := middleware.GetIdentity(c)
	a.groupMutation(c, "userID", func(groupID, userID int64) error {
		return a.groups.AddAdmin(c.Request.Context(), user, groupID, userID)
	})
}

func (a *API) removeAdmin(c *gin.Context) {
	user := middleware.GetIdentity(c)
	a.groupMutation(c, "userID", func(groupID, userID int64) error {
		return a.groups.RemoveAdmin(c.Request.Context(), user, groupID, userID)
	})
}

func (a *API) addGroupSignal(c *gin.Context) {
	user := middleware.GetIdentity(c)
	a.groupMutation(c, "signalID", func(groupID, signalID int64) error {
		return a.groups.AddSignal(c.Request.Context(), user, groupID, signalID)
	})
}

func (a *API) removeGroupSignal(c *gin.Context) {
	user := middleware.GetIdentity(c)
	a.groupMutation(c, "signalID", func(groupID, signalID int64) error {
		return a.groups.RemoveSignal(c.Request.Context(), user, groupID, signalID)
	})
}

func (a *API) setCollaborators(c *gin.Context) {
	groupID, err := pathID(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	signalID, err := pathID(c, "signalID")
	if err != nil {
		writeError(c, err)
		return
	}
	var body struct {
		UserIDs []int64 `json:"user_ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, apperr.Validationf("invalid collaborators body: %v", err))
		return
	}
	if err := a.groups.SetCollaborators(c.Request.Context(), middleware.GetIdentity(c), groupID, signalID, body.UserIDs); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
