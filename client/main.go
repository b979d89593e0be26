// Interactive test client. Connects with a token and exposes the game
// events as simple stdin commands:
//
//	join <gameId>
//	start <gameId>
//	ask <gameId> <question...>
//	answer <gameId> <answer...>
//	end <gameId>
//	select <gameId> <playerId> <characterId> <characterName>
//	guess <gameId> <playerId> <characterId> <characterName>
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/gorilla/websocket"
)

type event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data,omitempty"`
}

func send(c *websocket.Conn, name string, data interface{}) {
	if err := c.WriteJSON(event{Name: name, Data: data}); err != nil {
		log.Println("Write error:", err)
		return
	}
	log.Printf("-> SENT: %s", name)
}

type character struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func main() {
	addr := flag.String("addr", "localhost:3000", "server address")
	token := flag.String("token", "", "JWT from POST /login")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: "token=" + url.QueryEscape(*token)}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	// Read loop
	go func() {
		for {
			var env struct {
				Name string          `json:"event"`
				Data json.RawMessage `json:"data"`
			}
			if err := c.ReadJSON(&env); err != nil {
				log.Println("Read error:", err)
				os.Exit(0)
			}
			log.Printf("<- RECV %s: %s", env.Name, string(env.Data))
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		cmd, gameID := fields[0], fields[1]
		rest := fields[2:]

		switch cmd {
		case "join":
			send(c, "joinGame", map[string]interface{}{"sessionId": gameID})
		case "start":
			send(c, "startGame", map[string]string{"sessionId": gameID})
		case "ask":
			send(c, "askQuestion", map[string]string{"sessionId": gameID, "question": strings.Join(rest, " ")})
		case "answer":
			send(c, "answerQuestion", map[string]string{"sessionId": gameID, "answer": strings.Join(rest, " ")})
		case "end":
			send(c, "endTurn", map[string]string{"sessionId": gameID})
		case "select":
			if len(rest) < 3 {
				continue
			}
			send(c, "selectCharacter", map[string]interface{}{
				"sessionId": gameID,
				"playerId":  rest[0],
				"character": character{ID: rest[1], Name: strings.Join(rest[2:], " ")},
			})
		case "guess":
			if len(rest) < 3 {
				continue
			}
			send(c, "makeGuess", map[string]interface{}{
				"sessionId":        gameID,
				"playerId":         rest[0],
				"guessedCharacter": character{ID: rest[1], Name: strings.Join(rest[2:], " ")},
			})
		default:
			log.Printf("Unknown command %q", cmd)
		}
	}
}
