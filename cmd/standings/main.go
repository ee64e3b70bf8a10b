package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"text/tabwriter"
)

type playerEntry struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	MatchesPlayed int    `json:"matchesPlayed"`
	Status        string `json:"status"`
}

type standingsResponse struct {
	Success bool          `json:"success"`
	Players []playerEntry `json:"players"`
}

func fetchStandings(httpClient *http.Client, baseURL string) (standingsResponse, error) {
	resp, err := httpClient.Get(fmt.Sprintf("%s/v1/players", baseURL))
	if err != nil {
		return standingsResponse{}, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return standingsResponse{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return standingsResponse{}, fmt.Errorf("server returned %d - %s", resp.StatusCode, string(data))
	}

	var standings standingsResponse
	if err := json.Unmarshal(data, &standings); err != nil {
		return standingsResponse{}, fmt.Errorf("parsing response: %w", err)
	}

	return standings, nil
}

func main() {
	baseURL := os.Getenv("GUNSLINGER_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	standings, err := fetchStandings(&http.Client{}, baseURL)
	if err != nil {
		log.Fatalf("Failed fetching standings: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tID\tNAME\tW\tL\tPLAYED\tSTATUS")
	for i, player := range standings.Players {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			i+1, player.ID, player.Name, player.Wins, player.Losses, player.MatchesPlayed, player.Status)
	}
	w.Flush()
}
