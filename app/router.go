package app

import (
	"bitwise74/invoice-api/app/billing"
	"bitwise74/invoice-api/app/chat"
	"bitwise74/invoice-api/app/client"
	"bitwise74/invoice-api/app/demo"
	"bitwise74/invoice-api/app/invoice"
	"bitwise74/invoice-api/app/root"
	"bitwise74/invoice-api/app/session"
	"bitwise74/invoice-api/app/share"
	"bitwise74/invoice-api/app/user"
	"bitwise74/invoice-api/internal"
	"bitwise74/invoice-api/pkg/middleware"
	"context"
	"strings"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var responseCache = persist.NewMemoryStore(time.Minute)

// multipart boundaries and the other form fields ride on top of the PDF
const formOverhead = 1 << 20

type RouterConfig struct {
	CORS      []string
	RateLimit int
	Turnstile middleware.TurnstileConfig
}

// NewRouter builds every dependency from the loaded config and returns the
// engine serving them. The returned cron must be stopped on shutdown.
func NewRouter(ctx context.Context) (*gin.Engine, *cron.Cron, error) {
	d, c, err := NewDeps(ctx)
	if err != nil {
		return nil, nil, err
	}

	rateLimit := viper.GetInt("security.rate_limit")

	r := NewEngine(d, RouterConfig{
		CORS:      corsOrigins(viper.GetStringSlice("host.cors")),
		RateLimit: rateLimit,
		Turnstile: middleware.TurnstileConfig{
			Enabled: viper.GetBool("cloudflare.turnstile.enabled"),
			Secret:  viper.GetString("cloudflare.turnstile.secret_token"),
		},
	})

	return r, c, nil
}

// NewEngine registers all routes on a fresh engine
func NewEngine(d *internal.Deps, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	if len(cfg.CORS) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Backend", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		zap.L().Warn("No CORS origins configured, browsers on other origins will be refused")
	}

	router.Use(
		ginzap.RecoveryWithZap(zap.L(), true),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 5 << 20

	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit,
		Burst:             cfg.RateLimit * 2,
	})
	turnstile := middleware.NewTurnstileMiddleware(cfg.Turnstile)
	bodyLimit := middleware.BodySizeLimiter(d.MaxUploadSize + formOverhead)

	auth := middleware.NewSessionMiddleware(d.Sessions, true)
	optionalAuth := middleware.NewSessionMiddleware(d.Sessions, false)

	// GET /metrics				-> Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	m := router.Group("/api", rateLimiter, bodyLimit)
	{
		// HEAD /api/heartbeat			-> Used to check if the server is alive
		m.HEAD("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })
	}

	s := m.Group("/session")
	{
		// POST /api/session			-> Signs in with an identity provider token
		s.POST("", func(c *gin.Context) { session.SignIn(c, d) })

		// POST /api/session/demo		-> Switches to demo mode
		s.POST("/demo", func(c *gin.Context) { session.EnterDemo(c, d) })

		// DELETE /api/session			-> Signs out and leaves demo mode
		s.DELETE("", optionalAuth, func(c *gin.Context) { session.SignOut(c, d) })
	}

	u := m.Group("/users", auth)
	{
		// GET /api/users			-> Returns the profile of the current user
		u.GET("", func(c *gin.Context) { user.UserFetch(c, d) })

		// POST /api/users/gift-code		-> Redeems a gift code for a free trial
		u.POST("/gift-code", func(c *gin.Context) { user.UserRedeemGiftCode(c, d) })
	}

	cl := m.Group("/clients", auth)
	{
		// GET /api/clients			-> Lists the clients of the current user
		cl.GET("", func(c *gin.Context) { client.ClientFetch(c, d) })

		// POST /api/clients			-> Creates a client
		cl.POST("", func(c *gin.Context) { client.ClientCreate(c, d) })

		// DELETE /api/clients/:id		-> Deletes a client and all of its invoices
		cl.DELETE("/:id", func(c *gin.Context) { client.ClientDelete(c, d) })
	}

	i := m.Group("/invoices", auth)
	{
		// GET /api/invoices			-> Lists invoices, filtered by the query
		i.GET("", func(c *gin.Context) { invoice.InvoiceFetch(c, d) })

		// POST /api/invoices			-> Archives an invoice with its PDF
		i.POST("", func(c *gin.Context) { invoice.InvoiceUpload(c, d) })

		// GET /api/invoices/:id		-> Returns an invoice with its client
		i.GET("/:id", func(c *gin.Context) { invoice.InvoiceFetchOne(c, d) })

		// PATCH /api/invoices/:id		-> Edits an invoice
		i.PATCH("/:id", func(c *gin.Context) { invoice.InvoiceEdit(c, d) })

		// DELETE /api/invoices/:id		-> Deletes an invoice and its PDF
		i.DELETE("/:id", func(c *gin.Context) { invoice.InvoiceDelete(c, d) })

		// GET /api/invoices/:id/pdf		-> Returns a time limited URL to the PDF
		i.GET("/:id/pdf", func(c *gin.Context) { invoice.InvoicePDF(c, d) })

		// PUT /api/invoices/:id/pdf		-> Attaches the PDF of an unfinished upload
		i.PUT("/:id/pdf", func(c *gin.Context) { invoice.InvoiceUploadPDF(c, d) })

		// POST /api/invoices/:id/share		-> Creates a share link, optionally mails it
		i.POST("/:id/share", func(c *gin.Context) { invoice.InvoiceShare(c, d) })
	}

	sh := m.Group("/share")
	{
		// GET /api/share/:token		-> Public view of a shared invoice
		sh.GET("/:token", turnstile, func(c *gin.Context) { share.ShareFetch(c, d) })

		// GET /api/share/:token/pdf		-> Public PDF of a shared invoice
		sh.GET("/:token/pdf", func(c *gin.Context) { share.SharePDF(c, d) })
	}

	// GET /api/demo/pdf/:invoiceID		-> Streams a PDF kept by the demo store
	m.GET("/demo/pdf/:invoiceID", auth, func(c *gin.Context) { demo.DemoPDF(c, d) })

	b := m.Group("/billing")
	{
		// POST /api/billing/checkout		-> Opens a Stripe checkout for a plan
		b.POST("/checkout", auth, func(c *gin.Context) { billing.BillingCheckout(c, d) })

		// POST /api/billing/webhook		-> Receives Stripe events
		b.POST("/webhook", func(c *gin.Context) { billing.BillingWebhook(c, d) })
	}

	ch := m.Group("/chat")
	{
		// POST /api/chat			-> Asks the assistant
		ch.POST("", turnstile, optionalAuth, func(c *gin.Context) { chat.ChatReply(c, d) })

		// GET /api/chat/context		-> Static part of the assistant prompt
		ch.GET("/context", cacheFor(10*60), chat.ChatContext)
	}

	return router
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(responseCache, time.Second*time.Duration(sec))
}

// corsOrigins accepts both a list and a single comma separated value, the
// latter is what HOST_CORS ends up as
func corsOrigins(in []string) []string {
	var out []string
	for _, s := range in {
		for _, o := range strings.Split(s, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}
