// Package simulation exposes the simulation engine over HTTP with gin.
package simulation

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/ridesim/core/analysis"
	"github.com/kilianp07/ridesim/core/model"
	"github.com/kilianp07/ridesim/core/simulation"
)

// Handler serves the /api/simulation routes.
type Handler struct {
	eng   *simulation.Engine
	seeds []model.Position
}

// NewHandler returns a handler over eng. seeds are used by initialize when the
// request body names no drivers.
func NewHandler(eng *simulation.Engine, seeds []model.Position) *Handler {
	return &Handler{eng: eng, seeds: seeds}
}

type addDriverRequest struct {
	X *int `json:"x" binding:"required"`
	Y *int `json:"y" binding:"required"`
}

type addRiderRequest struct {
	PickupX  *int `json:"pickup_x" binding:"required"`
	PickupY  *int `json:"pickup_y" binding:"required"`
	DropoffX *int `json:"dropoff_x" binding:"required"`
	DropoffY *int `json:"dropoff_y" binding:"required"`
}

type setOnlineRequest struct {
	Online *bool `json:"online" binding:"required"`
}

type initializeRequest struct {
	Drivers []model.Position `json:"drivers"`
}

type success struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/api/simulation")
	g.GET("/state", h.State)
	g.GET("/queue", h.Queue)
	g.POST("/drivers", h.AddDriver)
	g.DELETE("/drivers/:id", h.RemoveDriver)
	g.PATCH("/drivers/:id", h.SetDriverOnline)
	g.POST("/riders", h.AddRider)
	g.DELETE("/riders/:id", h.RemoveRider)
	g.POST("/riders/:id/request", h.RequestRide)
	g.POST("/tick", h.Tick)
	g.POST("/reset", h.Reset)
	g.GET("/stats", h.Stats)
	g.GET("/config", h.GetConfig)
	g.PUT("/config", h.UpdateConfig)
	g.POST("/initialize", h.Initialize)
	g.GET("/scores", h.Scores)
	g.GET("/fairness", h.Fairness)
}

func (h *Handler) State(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.eng.State())
}

func (h *Handler) Queue(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.eng.QueueInfo())
}

func (h *Handler) AddDriver(c *gin.Context) {
	var req addDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "x and y are required")
		return
	}
	d, err := h.eng.AddDriver(*req.X, *req.Y)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, d)
}

func (h *Handler) RemoveDriver(c *gin.Context) {
	id, err := model.ParseDriverID(c.Param("id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	if err := h.eng.RemoveDriver(id); err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, success{Success: true})
}

func (h *Handler) SetDriverOnline(c *gin.Context) {
	id, err := model.ParseDriverID(c.Param("id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	var req setOnlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "online is required")
		return
	}
	d, err := h.eng.SetDriverOnline(id, *req.Online)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, d)
}

func (h *Handler) AddRider(c *gin.Context) {
	var req addRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "pickup_x, pickup_y, dropoff_x and dropoff_y are required")
		return
	}
	rider, ride, err := h.eng.AddRider(
		model.Position{X: *req.PickupX, Y: *req.PickupY},
		model.Position{X: *req.DropoffX, Y: *req.DropoffY},
	)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"rider": rider, "request": ride})
}

func (h *Handler) RemoveRider(c *gin.Context) {
	id, err := model.ParseRiderID(c.Param("id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	if err := h.eng.RemoveRider(id); err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, success{Success: true})
}

func (h *Handler) RequestRide(c *gin.Context) {
	id, err := model.ParseRiderID(c.Param("id"))
	if err != nil {
		writeEngineError(c, err)
		return
	}
	ride, err := h.eng.CreateRequest(id)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, ride)
}

func (h *Handler) Tick(c *gin.Context) {
	res := h.eng.Tick()
	writeJSON(c, http.StatusOK, gin.H{
		"success":   true,
		"tick":      res.Tick,
		"arrivals":  res.Arrivals,
		"completed": res.Completed,
		"assigned":  res.Assigned,
	})
}

func (h *Handler) Reset(c *gin.Context) {
	h.eng.Reset()
	writeJSON(c, http.StatusOK, success{Success: true})
}

func (h *Handler) Stats(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.eng.Stats())
}

func (h *Handler) GetConfig(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.eng.Config())
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var patch model.ConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeError(c, http.StatusBadRequest, "invalid config body: "+err.Error())
		return
	}
	cfg, err := h.eng.UpdateConfig(patch)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, cfg)
}

func (h *Handler) Initialize(c *gin.Context) {
	var req initializeRequest
	// The body is optional and may arrive chunked, so bind whenever one is
	// present and treat an empty stream as no body.
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(c, http.StatusBadRequest, "invalid initialize body: "+err.Error())
			return
		}
	}
	seeds := req.Drivers
	if len(seeds) == 0 {
		seeds = h.seeds
	}
	drivers, err := h.eng.Initialize(seeds)
	if err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Simulation initialized with " + strconv.Itoa(len(drivers)) + " drivers",
		"drivers": drivers,
	})
}

func (h *Handler) Scores(c *gin.Context) {
	x, errX := strconv.Atoi(c.Query("x"))
	y, errY := strconv.Atoi(c.Query("y"))
	if errX != nil || errY != nil {
		writeError(c, http.StatusBadRequest, "x and y query parameters must be integers")
		return
	}
	scores, err := h.eng.Scores(model.Position{X: x, Y: y})
	if err != nil {
		writeEngineError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"pickup": model.Position{X: x, Y: y}, "scores": scores})
}

func (h *Handler) Fairness(c *gin.Context) {
	writeJSON(c, http.StatusOK, analysis.Summarize(h.eng.Drivers()))
}
