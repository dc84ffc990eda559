package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vidscope-backend/internal/shared/server/respond"
)

// Handler serves the provider and task catalog.
type Handler struct {
	// KeyFor reports the configured credential for a provider id, if any.
	// Only its presence is exposed, never the value.
	KeyFor func(providerID string) string
}

// NewHandler constructs a Handler.
func NewHandler(keyFor func(providerID string) string) *Handler {
	return &Handler{KeyFor: keyFor}
}

// RegisterRoutes attaches catalog routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/providers", h.listProviders)
	rg.GET("/tasks", h.listTasks)
}

func (h *Handler) listProviders(c *gin.Context) {
	providers := ListProviders()
	resp := make([]gin.H, 0, len(providers))
	for _, p := range providers {
		configured := false
		if h.KeyFor != nil {
			configured = h.KeyFor(string(p.ID)) != ""
		}
		resp = append(resp, gin.H{
			"id":           p.ID,
			"name":         p.Name,
			"capabilities": p.Capabilities,
			"freeTier":     p.FreeTier,
			"bestFor":      p.BestFor,
			"configured":   configured,
		})
	}
	respond.JSON(c, http.StatusOK, gin.H{"providers": resp})
}

func (h *Handler) listTasks(c *gin.Context) {
	tasks := ListTasks()
	resp := make([]gin.H, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, gin.H{
			"id":               t.ID,
			"name":             t.Name,
			"description":      t.Description,
			"kind":             t.Kind,
			"creditCost":       t.CreditCost,
			"primaryProvider":  t.Primary,
			"fallbackProvider": t.Fallback,
			"requiresQuery":    t.RequiresQuery,
		})
	}
	respond.JSON(c, http.StatusOK, gin.H{"tasks": resp})
}
