package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/arcadescore-live/internal/apiclient"
	"github.com/park285/arcadescore-live/internal/pushws"
	"github.com/park285/arcadescore-live/pkg/scoredto"
)

// pushcheck probes the REST API and the push channel with the agent's
// environment and prints what it sees for a short window.
func main() {
	baseURL := os.Getenv("API_BASE_URL")
	wsURL := os.Getenv("PUSH_WS_URL")
	userID := strings.TrimSpace(os.Getenv("USER_ID"))
	sessionID := strings.TrimSpace(os.Getenv("X_SESSION_ID"))

	if baseURL == "" {
		log.Fatal("API_BASE_URL is required")
	}

	headers := func() map[string]string {
		m := map[string]string{}
		if userID != "" {
			m["X-User-Id"] = userID
		}
		if sessionID != "" {
			m["X-Session-Id"] = sessionID
		}
		return m
	}

	client := apiclient.New(baseURL,
		apiclient.WithHeaderProvider(headers),
		apiclient.WithUser(userID),
		apiclient.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if boards, err := client.Scoreboards(ctx); err != nil {
		log.Printf("/api/v1/scoreboards error: %v", err)
	} else {
		log.Printf("/api/v1/scoreboards ok: %d scoreboards", len(boards))
	}
	if userID != "" {
		if list, err := client.RoomGames(ctx); err != nil {
			log.Printf("/api/%s error: %v", userID, err)
		} else {
			log.Printf("/api/%s ok: %d games", userID, len(list))
		}
	}

	if wsURL == "" {
		log.Println("PUSH_WS_URL not set; skipping push check")
		return
	}

	ws := pushws.New(wsURL, pushws.WithReconnect(5, time.Second), pushws.WithHeaderProvider(headers))
	ws.OnStateChange(func(state pushws.State) {
		log.Printf("push state: %s", state)
	})
	ws.OnMessage(func(env scoredto.Envelope) {
		fmt.Printf("push event=%s bytes=%d\n", env.Event, len(env.Data))
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("push connect error: %v", err)
		return
	}

	t := time.NewTimer(10 * time.Second)
	<-t.C

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	_ = ws.Close(closeCtx)
}
