package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certverify.client/internal/interfaces/http/handlers"
	"certverify.client/internal/interfaces/http/middleware"
)

const (
	serviceName    = "certverify-client"
	serviceVersion = "0.1.0"
)

type routeDeps struct {
	adminHandler          *handlers.AdminHandler
	certificateHandler    *handlers.CertificateHandler
	walletHandler         *handlers.WalletHandler
	rewardsHandler        *handlers.RewardsHandler
	stateHandler          *handlers.StateHandler
	authMiddleware        gin.HandlerFunc
	idempotencyMiddleware gin.HandlerFunc
}

func (d routeDeps) adminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{d.authMiddleware, middleware.RequireAdmin()}
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		v1.POST("/admin/login", d.adminHandler.Login)

		certificates := v1.Group("/certificates")
		{
			certificates.GET("", d.certificateHandler.ListCertificates)
			certificates.GET("/verify/:hash", d.certificateHandler.VerifyCertificate)
			certificates.GET("/verify-blockchain/:hash", d.certificateHandler.VerifyOnBlockchain)
			certificates.POST("/verify-qr", d.certificateHandler.VerifyQR)

			// Admin only
			issue := d.adminOnly()
			if d.idempotencyMiddleware != nil {
				issue = append(issue, d.idempotencyMiddleware)
			}
			issue = append(issue, d.certificateHandler.IssueCertificate)
			certificates.POST("/issue", issue...)

			revoke := append(d.adminOnly(), d.certificateHandler.RevokeCertificate)
			certificates.POST("/revoke/:hash", revoke...)
		}

		v1.GET("/networks", d.walletHandler.ListNetworks)

		wallet := v1.Group("/wallet")
		{
			wallet.GET("", d.walletHandler.GetWallet)
			wallet.POST("/connect", d.walletHandler.ConnectWallet)
			wallet.POST("/disconnect", d.walletHandler.DisconnectWallet)
			wallet.POST("/switch-network", d.walletHandler.SwitchNetwork)
		}

		rewards := v1.Group("/rewards")
		{
			rewards.GET("/leaderboard", d.rewardsHandler.Leaderboard)
			rewards.GET("/institutions/:address/stats", d.rewardsHandler.InstitutionStats)
			rewards.POST("/register-wallet", d.rewardsHandler.RegisterWallet)
			rewards.PATCH("/institutions/:address", d.rewardsHandler.UpdateInstitution)
		}

		state := v1.Group("/state")
		{
			state.GET("/onboarding", d.stateHandler.GetOnboarding)
			state.PUT("/onboarding", d.stateHandler.UpdateOnboarding)
			state.DELETE("/onboarding", d.stateHandler.ResetOnboarding)
			state.GET("/search-history", d.stateHandler.GetSearchHistory)
			state.POST("/search-history", d.stateHandler.AddSearchTerm)
			state.DELETE("/search-history", d.stateHandler.ClearSearchHistory)
		}
	}
}

func applyCORSMiddleware(r *gin.Engine, allowedOrigins []string) {
	r.Use(middleware.CORSMiddleware(allowedOrigins))
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	})
}

func registerMetricsRoute(r *gin.Engine, gatherer prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
