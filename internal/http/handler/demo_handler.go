package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DemoHandler serves canned data for the try-it-out flow. No authentication
// required; nothing here touches the vault.
type DemoHandler struct{}

func NewDemoHandler() *DemoHandler {
	return &DemoHandler{}
}

var demoProjects = []gin.H{
	{"id": "demo-project-prod", "name": "acme-prod", "provider": "gcp"},
	{"id": "demo-project-staging", "name": "acme-staging", "provider": "gcp"},
}

var demoOverview = gin.H{
	"summary": gin.H{
		"total_resources":   24,
		"waste_count":       12,
		"with_metrics":      18,
		"over_provisioned":  3,
		"under_provisioned": 1,
	},
	"summary_cards": []gin.H{
		{"id": "total_resources", "label": "Total resources", "value": 24},
		{"id": "waste_count", "label": "Waste", "value": 12, "sublabel": "need attention"},
		{"id": "with_metrics", "label": "With metrics", "value": 18},
		{"id": "potential_savings", "label": "Potential savings", "value": "447.8", "sublabel": "USD/month"},
	},
	"highlights": []gin.H{
		{
			"type": "compute", "resource_type": "vm", "id": "vm-1",
			"name":               "e2-medium-instance-prod",
			"reason":             "Idle / low utilization",
			"recommended_action": "Downsize to e2-small or stop when not needed.",
			"estimated_savings":  gin.H{"value": 28, "currency": "USD"},
		},
		{
			"type": "compute", "resource_type": "disk", "id": "disk-1",
			"name":               "pd-ssd-100gb-unattached",
			"reason":             "Unattached disk",
			"recommended_action": "Delete if no longer needed or snapshot and remove.",
			"estimated_savings":  gin.H{"value": 17, "currency": "USD"},
		},
		{
			"type": "compute", "resource_type": "ip", "id": "ip-1",
			"name":               "static-ip-unused",
			"reason":             "Static IP not in use",
			"recommended_action": "Release the address to avoid ongoing cost.",
			"estimated_savings":  gin.H{"value": 3.6, "currency": "USD"},
		},
	},
}

func (h *DemoHandler) Projects(c *gin.Context) {
	c.JSON(http.StatusOK, demoProjects)
}

func (h *DemoHandler) Overview(c *gin.Context) {
	// The ?project= filter is accepted for parity with the real overview
	// endpoint; the demo payload is the same either way.
	c.JSON(http.StatusOK, demoOverview)
}
