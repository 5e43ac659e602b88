package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beka-birhanu/vinom-maze-race/api"
	gameapi "github.com/beka-birhanu/vinom-maze-race/api/game"
	api_i "github.com/beka-birhanu/vinom-maze-race/api/i"
	"github.com/beka-birhanu/vinom-maze-race/api/identity"
	"github.com/beka-birhanu/vinom-maze-race/config"
	"github.com/beka-birhanu/vinom-maze-race/game"
	"github.com/beka-birhanu/vinom-maze-race/infrastruture/encoder"
	"github.com/beka-birhanu/vinom-maze-race/infrastruture/presence"
	"github.com/beka-birhanu/vinom-maze-race/infrastruture/repo"
	"github.com/beka-birhanu/vinom-maze-race/infrastruture/token"
	"github.com/beka-birhanu/vinom-maze-race/infrastruture/ws"
	"github.com/beka-birhanu/vinom-maze-race/service"
	"github.com/beka-birhanu/vinom-maze-race/service/i"
	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	logger "github.com/beka-birhanu/vinom-common/log"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Global variables for dependencies
var (
	mongoClient        *mongo.Client
	redisClient        *redis.Client
	gameArchive        i.GameArchive
	sessionManager     i.SessionManager
	hub                *ws.Hub
	gameSessionManager *service.GameSessionManager
	jwtTokenizer       i.Tokenizer
	gameController     api_i.Controller
	authController     api_i.Controller
	router             *api.Router
	appLogger          general_i.Logger
)

func newLogger(prefix, color string) general_i.Logger {
	l, err := logger.New(prefix, color, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating %s logger: %v", prefix, err))
		os.Exit(1)
	}
	return l
}

func initMongo(ctx context.Context) {
	if config.Envs.DBHost == "" {
		appLogger.Warning("DB_HOST not set, finished games will not be archived")
		return
	}

	uri := fmt.Sprintf("mongodb://%s:%s@%s:%v", config.Envs.DBUser, config.Envs.DBPassword, config.Envs.DBHost, config.Envs.DBPort)

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	mongoClient, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Failed to connect to MongoDB: %v", err))
		os.Exit(1)
	}
	if err = mongoClient.Ping(ctx, nil); err != nil {
		appLogger.Error(fmt.Sprintf("MongoDB ping failed: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to MongoDB")

	gameArchive = repo.NewGameArchive(mongoClient, config.Envs.DBName, "games")
	appLogger.Info("Game archive initialized")
}

func initSessionManager(ctx context.Context) {
	presenceLogger := newLogger("PRESENCE", config.ColorPurple)

	switch config.Envs.PresenceBackend {
	case "memory":
		sessionManager = service.NewSessionManager(presenceLogger)
	case "redis":
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.Envs.RedisAddr,
			Password: config.Envs.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			appLogger.Error(fmt.Sprintf("Redis ping failed: %v", err))
			os.Exit(1)
		}
		sessionManager = presence.NewRedisPresence(redisClient, config.Envs.PresenceTTLSeconds, presenceLogger)
	default:
		appLogger.Error(fmt.Sprintf("Unknown presence backend %q", config.Envs.PresenceBackend))
		os.Exit(1)
	}

	appLogger.Info(fmt.Sprintf("Session manager initialized with %s presence", config.Envs.PresenceBackend))
}

func initHub() {
	enc, err := encoder.New(config.Envs.StateEncoding)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating encoder: %v", err))
		os.Exit(1)
	}

	hub = ws.NewHub(&ws.Config{
		Encoder:     enc,
		Logger:      newLogger("WS-HUB", config.ColorBlue),
		CheckOrigin: func(*http.Request) bool { return true },
	})
	appLogger.Info("Websocket hub initialized")
}

func initGameSessionManager() {
	generator := game.NewGenerator(config.Envs.MazeSeed)
	placerSeed := config.Envs.MazeSeed
	if placerSeed != 0 {
		placerSeed++
	}
	placer := game.NewPlacer(placerSeed)

	var err error
	gameSessionManager, err = service.NewGameSessionManager(&service.Config{
		Store:         service.NewGameStore(),
		Sessions:      sessionManager,
		Broadcaster:   hub,
		Archive:       gameArchive,
		MazeFactory:   generator.Generate,
		PowerUpPlacer: placer.Place,
		GameDuration:  time.Duration(config.Envs.GameDurationSeconds) * time.Second,
		Logger:        newLogger("GAME-MANAGER", config.ColorCyan),
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating game session manager: %v", err))
		os.Exit(1)
	}

	hub.SetSessionHandler(gameSessionManager)
	appLogger.Info("Game session manager initialized")
}

func initJWTTokenizer() {
	jwtTokenizer = token.NewJwtService(config.Envs.JWTSecret, config.Envs.JWTIssuer)
	appLogger.Info("JWT Tokenizer initialized")
}

func initControllers() {
	var err error
	gameController, err = gameapi.NewGameController(gameSessionManager, hub)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating game controller: %v", err))
		os.Exit(1)
	}

	authController = identity.NewIdentityServer(jwtTokenizer, time.Duration(config.Envs.TokenTTLMinutes)*time.Minute)
	appLogger.Info("Controllers initialized")
}

func initRouter(t i.Tokenizer) {
	router = api.NewRouter(api.Config{
		Addr:                    fmt.Sprintf("%s:%v", config.Envs.HostIP, config.Envs.RESTPort),
		BaseURL:                 "/api",
		GinMode:                 config.Envs.GinMode,
		Controllers:             []api_i.Controller{authController, gameController},
		AuthorizationMiddleware: identity.Authoriz(t),
	})
	appLogger.Info("Router initialized")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	appLogger, err = logger.New("APP", config.ColorGreen, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Creating APP logger: %v\n", err)
		os.Exit(1)
	}

	initCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	initMongo(initCtx)
	defer func() {
		if mongoClient != nil {
			_ = mongoClient.Disconnect(context.Background())
		}
	}()

	initSessionManager(initCtx)
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	initHub()
	initGameSessionManager()
	initJWTTokenizer()
	initControllers()
	initRouter(jwtTokenizer)

	if err := router.Run(ctx); err != nil {
		appLogger.Error(fmt.Sprintf("Running server: %v", err))
	}

	gameSessionManager.StopAll()
	hub.Close()
	appLogger.Info("Server stopped")
}
