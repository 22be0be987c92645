// Command client is a small interactive trivia client for manual play.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"

	"github.com/wfunc/trivianight/models"
	"github.com/wfunc/trivianight/network"
)

const usage = `commands:
  create <username> <rounds.json>   create a game as host
  join <code> <username> [role]     join as Contestant (default), Spectator or Host
  start | allow | buzz | end | game | leave
  pick <questionId>
  right | wrong                     confirm the buzzed answer
  score <username> <points>         host score override
  quit`

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, v any) error {
	var data []byte
	if v != nil {
		var err error
		if data, err = json.Marshal(v); err != nil {
			return err
		}
	}
	packet, err := network.Encode(msgID, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

// command turns one input line into a request.
func command(line string) (uint16, any, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, nil
	}

	switch fields[0] {
	case "create":
		if len(fields) != 3 {
			return 0, nil, fmt.Errorf("usage: create <username> <rounds.json>")
		}
		raw, err := os.ReadFile(fields[2])
		if err != nil {
			return 0, nil, err
		}
		var rounds []models.Round
		if err := json.Unmarshal(raw, &rounds); err != nil {
			return 0, nil, fmt.Errorf("parse %s: %w", fields[2], err)
		}
		return network.MsgTypeCreateGame, network.CreateGameRequest{Username: fields[1], Rounds: rounds}, nil
	case "join":
		if len(fields) < 3 {
			return 0, nil, fmt.Errorf("usage: join <code> <username> [role]")
		}
		role := models.RoleContestant
		if len(fields) > 3 {
			r, err := models.ParsePlayerRole(fields[3])
			if err != nil {
				return 0, nil, err
			}
			role = r
		}
		return network.MsgTypeJoinGame, network.JoinGameRequest{Code: fields[1], Username: fields[2], Role: role}, nil
	case "pick":
		if len(fields) != 2 {
			return 0, nil, fmt.Errorf("usage: pick <questionId>")
		}
		return network.MsgTypePickQuestion, network.PickQuestionRequest{QuestionID: fields[1]}, nil
	case "right", "wrong":
		return network.MsgTypeConfirmAnswer, network.ConfirmAnswerRequest{IsCorrect: fields[0] == "right"}, nil
	case "score":
		if len(fields) != 3 {
			return 0, nil, fmt.Errorf("usage: score <username> <points>")
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return 0, nil, err
		}
		return network.MsgTypeUpdateScore, network.UpdateScoreRequest{Username: fields[1], NewScore: n}, nil
	case "start":
		return network.MsgTypeStartGame, nil, nil
	case "allow":
		return network.MsgTypeAllowAnswering, nil, nil
	case "buzz":
		return network.MsgTypeBuzz, nil, nil
	case "end":
		return network.MsgTypeEndQuestion, nil, nil
	case "game":
		return network.MsgTypeGetGame, nil, nil
	case "leave":
		return network.MsgTypeLeaveGame, nil, nil
	}
	return 0, nil, fmt.Errorf("unknown command %q\n%s", fields[0], usage)
}

func run(ctx context.Context, cmd *cli.Command) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: cmd.String("addr"), Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			p, err := network.Decode(message)
			if err != nil {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			log.Printf("<- RECV (ID: %d): %s", p.MsgID, p.Data)
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	fmt.Println(usage)
	for {
		select {
		case <-done:
			return nil
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return nil
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "quit" {
				return nil
			}
			msgID, req, err := command(line)
			if err != nil {
				log.Println(err)
				continue
			}
			if msgID == 0 {
				continue
			}
			if err := send(c, msgID, req); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "trivia-client",
		Usage: "interactive trivia night client",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "localhost:8080", Usage: "server host:port"},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
