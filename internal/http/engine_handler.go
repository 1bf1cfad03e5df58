package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/domain"
	"github.com/hxuan190/clamm-engine/internal/http/httputil"
	"github.com/hxuan190/clamm-engine/internal/storage"
)

// EngineReader is the read side of the engine the ops API exposes.
type EngineReader interface {
	Stats() storage.Stats
	GetFeeTiers() []domain.FeeTier
	GetProtocolFee() decimal.Percentage
}

type EngineHandler struct {
	engine EngineReader
}

func NewEngineHandler(engine EngineReader) *EngineHandler {
	return &EngineHandler{engine: engine}
}

func (h *EngineHandler) Root() string {
	return "/engine"
}

func (h *EngineHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/stats", h.getStats)
	pub.GET("/fee-tiers", h.getFeeTiers)
}

type StatsResponse struct {
	Pools       int    `json:"pools"`
	Ticks       int    `json:"ticks"`
	Positions   int    `json:"positions"`
	FeeTiers    int    `json:"fee_tiers"`
	ProtocolFee string `json:"protocol_fee"`
}

func (h *EngineHandler) getStats(c *gin.Context) {
	st := h.engine.Stats()
	httputil.Success(c, StatsResponse{
		Pools:       st.Pools,
		Ticks:       st.Ticks,
		Positions:   st.Positions,
		FeeTiers:    st.FeeTiers,
		ProtocolFee: h.engine.GetProtocolFee().String(),
	})
}

func (h *EngineHandler) getFeeTiers(c *gin.Context) {
	httputil.Success(c, h.engine.GetFeeTiers())
}
