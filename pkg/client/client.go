// Package client implements the Vindinium HTTP API: starting arena or
// training games and submitting moves.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/herohde/beagle/pkg/board"
	"github.com/seekerror/logw"
)

// DefaultServer is the public Vindinium server.
const DefaultServer = "http://vindinium.org"

// Client talks to a Vindinium server on behalf of one bot key.
type Client struct {
	server string
	key    string
	hc     *http.Client
}

// New returns a client for the given server and bot key.
func New(server, key string) *Client {
	return &Client{
		server: server,
		key:    key,
		hc: &http.Client{
			Timeout: time.Minute,
		},
	}
}

// StartArena enters the matchmaking queue and blocks until a game starts.
func (c *Client) StartArena(ctx context.Context) (*board.State, error) {
	form := url.Values{"key": {c.key}}
	return c.post(ctx, c.server+"/api/arena", form)
}

// StartTraining starts a training game against server-driven opponents. Zero
// turns and an empty map name use the server defaults.
func (c *Client) StartTraining(ctx context.Context, turns int, mapName string) (*board.State, error) {
	form := url.Values{"key": {c.key}}
	if turns > 0 {
		form.Set("turns", strconv.Itoa(turns))
	}
	if mapName != "" {
		form.Set("map", mapName)
	}
	return c.post(ctx, c.server+"/api/training", form)
}

// Play submits a direction to the state's play URL and returns the server's
// next snapshot.
func (c *Client) Play(ctx context.Context, playURL string, d board.Direction) (*board.State, error) {
	form := url.Values{"key": {c.key}, "dir": {d.String()}}
	return c.post(ctx, playURL, form)
}

func (c *Client) post(ctx context.Context, target string, form url.Values) (*board.State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %v: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %v: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("post %v: %v: %s", target, resp.Status, body)
	}

	ret := &board.State{}
	if err := json.Unmarshal(body, ret); err != nil {
		return nil, fmt.Errorf("decode %v: %w", target, err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	if err := ret.Game.Board.Initialize(); err != nil {
		return nil, err
	}

	logw.Debugf(ctx, "Received turn %v/%v for %v", ret.Game.Turn, ret.Game.MaxTurns, &ret.Hero)
	return ret, nil
}
