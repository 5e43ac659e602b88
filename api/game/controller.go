// Package gameapi exposes game sessions over HTTP and websocket.
package gameapi

import (
	"errors"
	"net/http"

	"github.com/beka-birhanu/vinom-maze-race/api/identity"
	"github.com/beka-birhanu/vinom-maze-race/game"
	"github.com/beka-birhanu/vinom-maze-race/service/i"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Streamer serves the live event stream of a game.
type Streamer interface {
	Serve(w http.ResponseWriter, r *http.Request, gameID, playerID uuid.UUID) error
}

// GameController manages game session operations.
type GameController struct {
	gameSessionManager i.GameSessionManager
	streamer           Streamer
}

// NewGameController initializes a GameController.
func NewGameController(gsm i.GameSessionManager, s Streamer) (*GameController, error) {
	if gsm == nil || s == nil {
		return nil, errors.New("game controller needs a session manager and a streamer")
	}
	return &GameController{
		gameSessionManager: gsm,
		streamer:           s,
	}, nil
}

// RegisterPublic registers public routes.
func (gc *GameController) RegisterPublic(route *gin.RouterGroup) {}

// RegisterProtected registers protected routes.
func (gc *GameController) RegisterProtected(route *gin.RouterGroup) {
	games := route.Group("/games")
	{
		games.POST("", gc.create)
		games.GET("/:ID", gc.state)
		games.POST("/:ID/moves", gc.move)
		games.POST("/:ID/finish", gc.finish)
		games.GET("/:ID/ws", gc.stream)
	}
}

// create starts a new game.
func (gc *GameController) create(ctx *gin.Context) {
	var request NewGameRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gameID := uuid.New()
	if request.GameID != "" {
		var err error
		if gameID, err = uuid.Parse(request.GameID); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
			return
		}
	}

	players := make([]uuid.UUID, 0, len(request.PlayerIDs))
	for _, raw := range request.PlayerIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id " + raw})
			return
		}
		players = append(players, id)
	}

	state, err := gc.gameSessionManager.InitializeGame(ctx, i.NewGameRequest{
		GameID:    gameID,
		SizeClass: request.SizeClass,
		PlayerIDs: players,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, &GameStateResponse{State: state})
}

// state returns the current state of a game.
func (gc *GameController) state(ctx *gin.Context) {
	gameID, ok := gameIDParam(ctx)
	if !ok {
		return
	}

	state, err := gc.gameSessionManager.GetCurrentState(ctx, gameID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, &GameStateResponse{State: state})
}

// move applies one step of the authenticated player.
func (gc *GameController) move(ctx *gin.Context) {
	gameID, ok := gameIDParam(ctx)
	if !ok {
		return
	}
	playerID, ok := identity.PlayerID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return
	}

	var request MoveRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := gc.gameSessionManager.MovePlayer(ctx, gameID, playerID, request.Direction)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, &GameStateResponse{State: state})
}

// finish closes a game. Only its players may do so.
func (gc *GameController) finish(ctx *gin.Context) {
	gameID, _, ok := gc.participant(ctx)
	if !ok {
		return
	}

	state, err := gc.gameSessionManager.FinishGame(ctx, gameID)
	if err != nil && state == nil {
		writeError(ctx, err)
		return
	}
	if err != nil {
		// Finished but not archived; the live state stays readable.
		ctx.JSON(http.StatusAccepted, &GameStateResponse{State: state})
		return
	}

	ctx.JSON(http.StatusOK, &GameStateResponse{State: state})
}

// stream upgrades to a websocket carrying the events of a game.
func (gc *GameController) stream(ctx *gin.Context) {
	gameID, playerID, ok := gc.participant(ctx)
	if !ok {
		return
	}

	if err := gc.streamer.Serve(ctx.Writer, ctx.Request, gameID, playerID); err != nil {
		_ = ctx.Error(err)
	}
}

// participant resolves the game and the caller, writing the error response
// when the caller does not play in that game.
func (gc *GameController) participant(ctx *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	gameID, ok := gameIDParam(ctx)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	playerID, ok := identity.PlayerID(ctx)
	if !ok {
		ctx.Status(http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}

	state, err := gc.gameSessionManager.GetCurrentState(ctx, gameID)
	if err != nil {
		writeError(ctx, err)
		return uuid.Nil, uuid.Nil, false
	}
	if _, ok := state.Player(playerID); !ok {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "not a player of this game"})
		return uuid.Nil, uuid.Nil, false
	}
	return gameID, playerID, true
}

func gameIDParam(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Params.ByName("ID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps game errors onto HTTP statuses.
func writeError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrInvalidMove):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, game.ErrConflict):
		status = http.StatusConflict
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "unexpected error"
	}
	ctx.JSON(status, gin.H{"error": message})
}
