// Package httpapi is the gin transport over the marketplace services.
// Authentication is optional on every route: handlers pass the resolved
// actor (or nil) down and the access layer decides.
package httpapi

import (
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"landmarket/favorite"
	"landmarket/identity"
	"landmarket/inquiry"
	"landmarket/listing"
	"landmarket/notify"
	"landmarket/savedsearch"
)

type Services struct {
	Users         *identity.Service
	Listings      *listing.Service
	Inquiries     *inquiry.Service
	Favorites     *favorite.Service
	SavedSearches *savedsearch.Service
	Notifications *notify.Store
}

type Options struct {
	Env            string
	RateLimitRPS   float64
	RateLimitBurst int
}

// New assembles the router with the full middleware chain and all routes.
func New(log *zap.Logger, svcs Services, opts Options) *gin.Engine {
	if opts.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(RequestID())
	r.Use(ginzap.Ginzap(log, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(log, true))
	if opts.RateLimitRPS > 0 {
		r.Use(RateLimitPerIP(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst))
	}
	r.Use(Authenticate(svcs.Users))

	auth := &authHandler{users: svcs.Users}
	listings := &listingHandler{listings: svcs.Listings}
	inquiries := &inquiryHandler{inquiries: svcs.Inquiries}
	favorites := &favoriteHandler{favorites: svcs.Favorites}
	searches := &savedSearchHandler{searches: svcs.SavedSearches}
	admin := &adminHandler{users: svcs.Users, listings: svcs.Listings}
	notifications := &notificationHandler{store: svcs.Notifications}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/register", auth.register)
		v1.POST("/auth/login", auth.login)
		v1.GET("/auth/me", auth.me)

		v1.GET("/lands", listings.search)
		v1.POST("/lands", listings.create)
		v1.GET("/lands/mine", listings.listMine)
		v1.GET("/lands/stats", listings.stats)
		v1.GET("/lands/:id", listings.get)
		v1.PATCH("/lands/:id", listings.update)
		v1.DELETE("/lands/:id", listings.delete)
		v1.POST("/lands/:id/submit", listings.submit)
		v1.POST("/lands/:id/sold", listings.markSold)

		v1.POST("/lands/:id/images", listings.addImage)
		v1.DELETE("/lands/:id/images/:imageID", listings.deleteImage)
		v1.POST("/lands/:id/images/:imageID/primary", listings.setPrimaryImage)

		v1.PUT("/lands/:id/favorite", favorites.add)
		v1.DELETE("/lands/:id/favorite", favorites.remove)
		v1.GET("/lands/:id/favorite", favorites.check)
		v1.GET("/favorites", favorites.list)

		v1.GET("/searches", searches.list)
		v1.POST("/searches", searches.create)
		v1.GET("/searches/:id", searches.get)
		v1.PUT("/searches/:id", searches.update)
		v1.DELETE("/searches/:id", searches.delete)
		v1.POST("/searches/:id/toggle", searches.toggle)
		v1.GET("/searches/:id/results", searches.results)

		v1.POST("/inquiries", inquiries.create)
		v1.GET("/inquiries/inbox", inquiries.inbox)
		v1.GET("/inquiries/sent", inquiries.sent)
		v1.GET("/inquiries/unread_count", inquiries.unreadCount)
		v1.GET("/inquiries/:id", inquiries.get)
		v1.POST("/inquiries/:id/respond", inquiries.respond)
		v1.POST("/inquiries/:id/read", inquiries.markRead)

		v1.GET("/notifications", notifications.list)
		v1.GET("/notifications/unread_count", notifications.unreadCount)
		v1.POST("/notifications/:id/read", notifications.markRead)
		v1.POST("/notifications/read_all", notifications.markAllRead)

		v1.GET("/admin/lands", admin.moderationQueue)
		v1.POST("/admin/lands/:id/approve", admin.approve)
		v1.POST("/admin/lands/:id/reject", admin.reject)
		v1.POST("/admin/users/:id/active", admin.setUserActive)
	}

	return r
}
