package app

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// POST /api/requests
func (a *App) CreateRequestHandler(c *gin.Context) {
	var in CreateRequestInput
	if err := c.BindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := a.CreateRequest(c.Request.Context(), in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, req)
}

// GET /api/requests/:id
func (a *App) GetRequestHandler(c *gin.Context) {
	req, err := a.Store.FindRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type submitAvailabilityReq struct {
	InterviewerID string          `json:"interviewer_id" binding:"required"`
	Ranges        []TimeRange     `json:"ranges"`
	Slots         []InterviewSlot `json:"slots"`
}

// POST /api/requests/:id/availability
func (a *App) SubmitAvailabilityHandler(c *gin.Context) {
	var body submitAvailabilityReq
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := a.SubmitAvailability(c.Request.Context(), c.Param("id"), body.InterviewerID, body.Ranges, body.Slots)
	switch {
	case errors.Is(err, ErrAwaitingResponses):
		// recorded, but other interviewers still owe their availability
		c.JSON(http.StatusAccepted, gin.H{"status": req.Status, "waiting": true})
	case errors.Is(err, ErrNoMutualSlots):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": req.Status,
			"error":  "no mutual availability across interviewers",
		})
	case err != nil:
		a.renderError(c, err)
	default:
		c.JSON(http.StatusOK, req)
	}
}

// GET /api/requests/:id/slots
func (a *App) OfferedSlotsHandler(c *gin.Context) {
	req, offered, err := a.OfferedSlots(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request_id": req.ID, "slots": offered})
}

type reserveSlotReq struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

// POST /api/requests/:id/reserve
func (a *App) ReserveSlotHandler(c *gin.Context) {
	var body reserveSlotReq
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chosen := InterviewSlot{Date: body.Date, Time: body.Time}
	req, err := a.ReserveSlot(c.Request.Context(), c.Param("id"), chosen)
	if errors.Is(err, ErrSlotTaken) {
		// lost the race: hand back the shrunk offer set so the candidate
		// can pick again
		offered, ferr := a.Ledger.FilterReserved(c.Request.Context(), req, req.AvailableSlots)
		if ferr != nil {
			offered = nil
		}
		c.JSON(http.StatusConflict, gin.H{"error": "slot already taken", "slots": offered})
		return
	}
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type declineReq struct {
	Note string `json:"note" binding:"required"`
}

// POST /api/requests/:id/decline
func (a *App) DeclineOffersHandler(c *gin.Context) {
	var body declineReq
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req, err := a.DeclineOffers(c.Request.Context(), c.Param("id"), body.Note)
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// DELETE /api/requests/:id
func (a *App) CancelRequestHandler(c *gin.Context) {
	req, err := a.CancelRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		a.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// GET /api/requests
func (a *App) ListRequestsHandler(c *gin.Context) {
	reqs, err := a.Store.ListRequests(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// GET /api/employees/:id
func (a *App) EmployeeInfoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, a.Directory.EmployeeInfo(c.Request.Context(), c.Param("id")))
}

func (a *App) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrIllegalTransition):
		status = http.StatusConflict
	case errors.Is(err, ErrSlotNotOffered):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
