package network

// Inbound event names (client -> coordinator).
const (
	EventHeartbeat       = "heartbeat"
	EventJoinGame        = "joinGame"
	EventStartGame       = "startGame"
	EventAskQuestion     = "askQuestion"
	EventAnswerQuestion  = "answerQuestion"
	EventEndTurn         = "endTurn"
	EventNextTurn        = "nextTurn"
	EventSelectCharacter = "selectCharacter"
	EventMakeGuess       = "makeGuess"
)

// Outbound event names (coordinator -> room).
const (
	EventUpdatePlayers            = "updatePlayers"
	EventUpdateTurn               = "updateTurn"
	EventGameStarted              = "gameStarted"
	EventReceiveQuestion          = "receiveQuestion"
	EventReceiveAnswer            = "receiveAnswer"
	EventUpdateSelectedCharacters = "updateSelectedCharacters"
	EventGameOver                 = "gameOver"
)
