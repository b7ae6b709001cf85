// Command wsclient subscribes to a session's live quest events and prints them.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

func main() {
	url := flag.String("url", "ws://localhost:8000/ws", "websocket endpoint")
	session := flag.String("session", "", "session_id cookie value")
	flag.Parse()

	if *session == "" {
		log.Fatal("-session is required")
	}

	header := http.Header{}
	header.Add("Cookie", (&http.Cookie{Name: "session_id", Value: *session}).String())
	header.Add("Origin", "http://localhost:8000")

	conn, resp, err := websocket.DefaultDialer.Dial(*url, header)
	if err != nil {
		if resp != nil {
			log.Fatalf("dial: %v (status %d)", err, resp.StatusCode)
		}
		log.Fatal("dial:", err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	messageQueue := make(chan Message)

	go func() {
		defer close(messageQueue)
		for {
			_, p, err := conn.ReadMessage()
			if err != nil {
				log.Println("read error:", err)
				return
			}

			var msg Message
			if err := json.Unmarshal(p, &msg); err != nil {
				log.Printf("skipping malformed message: %s", p)
				continue
			}
			messageQueue <- msg
		}
	}()

	for {
		select {
		case msg, ok := <-messageQueue:
			if !ok {
				return
			}
			log.Printf("Received %s: %v\n", msg.Type, msg.Payload)
		case <-interrupt:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
