package middleware

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"inventaris/internal/config"
	"inventaris/internal/database"
	"inventaris/internal/logger"
	"inventaris/internal/models"
	"inventaris/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const SessionCookie = "session_id"

type rateLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type clientTracker struct {
	errors404    []time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

var (
	trackers   = make(map[string]*clientTracker)
	trackersMu sync.Mutex
)

// limitPerIP keeps one token bucket per client address and forgets clients
// idle for longer than idle.
func limitPerIP(cfg *config.Config, every time.Duration, burst int, idle time.Duration, message string) gin.HandlerFunc {
	clients := make(map[string]*rateLimiter)
	var mu sync.Mutex

	return func(c *gin.Context) {
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		client, exists := clients[ip]
		if !exists {
			client = &rateLimiter{limiter: rate.NewLimiter(rate.Every(every), burst)}
			clients[ip] = client
		}
		client.lastSeen = now
		allowed := client.limiter.Allow()

		for clientIP, cl := range clients {
			if now.Sub(cl.lastSeen) > idle {
				delete(clients, clientIP)
			}
		}
		mu.Unlock()

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": message})
			return
		}

		c.Next()
	}
}

func RateLimit(cfg *config.Config) gin.HandlerFunc {
	return limitPerIP(cfg, time.Second/20, 20, 10*time.Minute, "Rate limit exceeded")
}

// AuthRateLimit guards the login endpoint: five attempts, then one a minute.
func AuthRateLimit(cfg *config.Config) gin.HandlerFunc {
	return limitPerIP(cfg, time.Minute, 5, 30*time.Minute, "Too many login attempts, please wait")
}

func IPBlocker(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		ip := c.ClientIP()

		trackersMu.Lock()
		tracker, exists := trackers[ip]
		blocked := exists && time.Now().Before(tracker.blockedUntil)
		trackersMu.Unlock()

		if blocked {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Your IP has been temporarily blocked due to excessive invalid requests",
			})
			return
		}

		c.Next()
	}
}

// Track404AndBlock blocks a client for 15 minutes after ten requests for
// unknown routes within five minutes. A 404 from a matched route is a normal
// API answer and is not counted.
func Track404AndBlock(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if cfg.IsDevelopment() || c.Writer.Status() != http.StatusNotFound || c.FullPath() != "" {
			return
		}

		ip := c.ClientIP()
		now := time.Now()

		trackersMu.Lock()
		defer trackersMu.Unlock()

		tracker, exists := trackers[ip]
		if !exists {
			tracker = &clientTracker{}
			trackers[ip] = tracker
		}
		tracker.lastSeen = now

		cutoff := now.Add(-5 * time.Minute)
		recent := tracker.errors404[:0]
		for _, t := range tracker.errors404 {
			if t.After(cutoff) {
				recent = append(recent, t)
			}
		}
		tracker.errors404 = append(recent, now)

		if len(tracker.errors404) >= 10 {
			tracker.blockedUntil = now.Add(15 * time.Minute)
			logger.Warn("Blocked client after repeated 404s", "ip", ip, "count", len(tracker.errors404))
			tracker.errors404 = nil
		}

		for trackerIP, t := range trackers {
			if now.Sub(t.lastSeen) > 30*time.Minute && now.After(t.blockedUntil) {
				delete(trackers, trackerIP)
			}
		}
	}
}

func CORS(allowedOrigins string) gin.HandlerFunc {
	var origins []string
	for _, origin := range strings.Split(allowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func SetSessionCookie(c *gin.Context, cfg *config.Config, sessionID string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, sessionID, int(cfg.SessionDuration.Seconds()), "/", "", cfg.SecureCookies(), true)
}

func ClearSessionCookie(c *gin.Context, cfg *config.Config) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", cfg.SecureCookies(), true)
}

// AuthRequired resolves the session cookie to a user and stores it as
// "user" in the context.
func AuthRequired(db *sql.DB, store session.Store, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookie)
		if err != nil || sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		userID, err := store.Validate(c.Request.Context(), sessionID)
		if err != nil {
			if !errors.Is(err, session.ErrInvalid) {
				logger.Error("Failed to validate session", "session_id", sessionID, "error", err)
			}
			ClearSessionCookie(c, cfg)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired, please log in again"})
			return
		}

		user, err := database.GetUserByID(db, userID)
		if err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				logger.Error("Failed to load session user", "user_id", userID, "error", err)
			}
			ClearSessionCookie(c, cfg)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session expired, please log in again"})
			return
		}

		// Keep the cookie lifetime in step with the session the store just renewed.
		SetSessionCookie(c, cfg, sessionID)

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("session_id", sessionID)
		c.Next()
	}
}

// RoleRequired rejects users of any other role and points them at their
// own home screen.
func RoleRequired(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet("user").(*models.User)
		if user.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": fmt.Sprintf("%s access required", role),
				"home":  user.Role.HomePath(),
			})
			return
		}
		c.Next()
	}
}

func SecurityHeaders(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.IsDevelopment() {
			c.Next()
			return
		}

		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "same-origin")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Next()
	}
}

func LogRequests() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] %s %s %d %s %s\n",
			param.TimeStamp.Format("2006/01/02 15:04:05"),
			param.Method,
			param.Path,
			param.StatusCode,
			param.Latency,
			param.ClientIP,
		)
	})
}

func AddDBContext(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("db", db)
		c.Next()
	}
}
