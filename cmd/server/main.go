package main

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/volunteerhub/backend/internal/config"
	"github.com/volunteerhub/backend/internal/database"
	"github.com/volunteerhub/backend/internal/handler"
	"github.com/volunteerhub/backend/internal/push"
	"github.com/volunteerhub/backend/internal/queue"
	"github.com/volunteerhub/backend/internal/repository"
	"github.com/volunteerhub/backend/internal/router"
	"github.com/volunteerhub/backend/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	store := storage.New(cfg.StorageRoot)
	if err := store.Init(); err != nil {
		log.Fatalf("storage: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	events := repository.NewEventRepo(db)
	regs := repository.NewRegistrationRepo(db)
	posts := repository.NewPostRepo(db)
	reactions := repository.NewReactionRepo(db)
	subs := repository.NewSubscriptionRepo(db)

	var sender *push.Sender
	if cfg.PushEnabled {
		sender = push.NewSender(cfg.VapidPublic, cfg.VapidPrivate, cfg.VapidSubject)
		go func() {
			if err := queue.StartNotificationConsumer(cfg.AMQPURL, subs, sender); err != nil {
				log.Printf("notification consumer stopped: %v", err)
			}
		}()
	} else {
		log.Println("web push disabled; notifications will queue but not deliver")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.HTTPErrorHandler = httpErrorHandler

	auth := handler.NewAuthHandler(cfg, users)
	router.RegisterRoutes(e, filepath.Join(cfg.StorageRoot, "uploads"), rdb)
	router.RegisterAuth(e, auth)
	router.RegisterAPI(e, router.API{
		Cfg:           cfg,
		Users:         users,
		Auth:          auth,
		Events:        handler.NewEventHandler(events),
		AdminEvents:   handler.NewAdminEventHandler(cfg, events),
		Registrations: handler.NewRegistrationHandler(cfg, events, regs),
		Posts:         handler.NewPostHandler(events, regs, posts, reactions, store),
		Uploads:       handler.NewUploadHandler(store),
		WebPush:       handler.NewWebPushHandler(subs, sender),
	}, rdb)

	log.Printf("listening on :%s (env=%s)", cfg.Port, cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
}

// httpErrorHandler renders every error Echo surfaces (404 on unknown
// routes, 405, binder failures) in the same {status, message, path}
// shape the handlers use.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	message := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if s, ok := he.Message.(string); ok {
			message = s
		}
	}

	_ = c.JSON(status, map[string]interface{}{
		"status":  status,
		"message": message,
		"path":    c.Request().URL.Path,
	})
}
