package simulation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apidispatch "github.com/kilianp07/ridesim/api/dispatch"
	"github.com/kilianp07/ridesim/core/dispatch/logging"
	"github.com/kilianp07/ridesim/core/logger"
	"github.com/kilianp07/ridesim/core/model"
	"github.com/kilianp07/ridesim/core/simulation"
	infralogger "github.com/kilianp07/ridesim/infra/logger"
)

// RouterOptions wires the optional parts of the API.
type RouterOptions struct {
	Seeds       []model.Position
	CORSOrigins []string
	// Logs enables GET /api/dispatch/logs when set.
	Logs      logging.LogStore
	LogsToken string
	// Stream enables GET /api/simulation/ws when set.
	Stream *Stream
	Logger logger.Logger
}

// NewRouter builds the gin engine serving the whole public API.
func NewRouter(eng *simulation.Engine, opts RouterOptions) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = infralogger.NopLogger{}
	}
	r := gin.New()
	r.Use(Recovery(log), Logging(log), CORS(opts.CORSOrigins))

	r.GET("/", func(c *gin.Context) {
		writeJSON(c, http.StatusOK, gin.H{"message": "Ride Simulation API"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	NewHandler(eng, opts.Seeds).Register(r)
	if opts.Stream != nil {
		r.GET("/api/simulation/ws", opts.Stream.Serve)
	}
	if opts.Logs != nil {
		r.GET("/api/dispatch/logs", gin.WrapH(apidispatch.NewLogHandler(opts.Logs, opts.LogsToken)))
	}
	return r
}
