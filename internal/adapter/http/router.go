package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AnjanaKvd/ZeroX-sub001/internal/adapter/http/middleware"
	"github.com/AnjanaKvd/ZeroX-sub001/internal/logging"
)

func NewRouter(ch *CartHandler, sh *ScanHandler, th *TokenHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Info("health check")
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	v1 := r.Group("/v1")
	{
		v1.GET("/cart", authz.Require("cart.read"), ch.GetCart)
		v1.DELETE("/cart", authz.Require("cart.write"), ch.ClearCart)
		v1.POST("/cart/items", authz.Require("cart.write"), ch.AddItem)
		v1.PATCH("/cart/items/:productId", authz.Require("cart.write"), ch.UpdateQuantity)
		v1.DELETE("/cart/items/:productId", authz.Require("cart.write"), ch.RemoveItem)
		v1.POST("/cart/coupon", authz.Require("cart.write"), ch.ApplyCoupon)
		v1.DELETE("/cart/coupon", authz.Require("cart.write"), ch.RemoveCoupon)
		v1.GET("/notifications", authz.Require("cart.read"), ch.Notifications)

		v1.POST("/scan/sessions", authz.Require("scan.write"), sh.OpenSession)
		v1.POST("/scan/sessions/:id/frames", authz.Require("scan.write"), sh.PushFrame)
		v1.GET("/scan/sessions/:id", authz.Require("scan.write"), sh.GetSession)
		v1.POST("/scan/sessions/:id/switch", authz.Require("scan.write"), sh.SwitchBackend)
		v1.DELETE("/scan/sessions/:id", authz.Require("scan.write"), sh.CloseSession)

		v1.GET("/admin/scans", authz.Require("scans.read"), sh.ListScans)
		v1.GET("/admin/scans/:id", authz.Require("scans.read"), sh.GetScan)
	}

	return r
}
