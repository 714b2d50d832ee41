package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

// ws_smoke subscribes to the live feed, creates, toggles and deletes a task
// over HTTP and prints every event it receives.
func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server host:port")
	email := flag.String("email", "smoke@example.com", "owner identity")
	flag.Parse()

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"email": *email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		log.Fatalf("token: %v", err)
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	wsURL := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: "token=" + url.QueryEscape(token)}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	base := "http://" + *addr
	created := call(http.MethodPost, base+"/tasks", token, `{"title":"smoke test"}`)
	var task struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(created, &task); err != nil || task.ID == "" {
		log.Fatalf("create: unexpected response %s", created)
	}
	call(http.MethodPut, base+"/tasks/"+task.ID+"/toggle", token, "")
	call(http.MethodDelete, base+"/tasks/"+task.ID, token, "")

	for i := 0; i < 3; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("read event %d: %v", i+1, err)
		}
		log.Printf("event: %s", msg)
	}

	log.Println("smoke test finished")
}

func call(method, target, token, body string) []byte {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, target, r)
	if err != nil {
		log.Fatalf("%s %s: %v", method, target, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, target, err)
	}
	defer res.Body.Close()

	out, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK {
		log.Fatalf("%s %s: status %d: %s", method, target, res.StatusCode, out)
	}
	fmt.Printf("%s %s -> %s\n", method, target, out)
	return out
}
