// Command seed populates the songs collection from a line-delimited JSON
// fixture file, replacing any existing contents and ensuring the search
// index.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tunelab/songbook/internal/config"
	"github.com/tunelab/songbook/internal/logger"
	"github.com/tunelab/songbook/internal/model"
	"github.com/tunelab/songbook/internal/repository"
	"github.com/tunelab/songbook/internal/server"
)

const seedTimeout = 30 * time.Second

func main() {
	file := flag.String("file", "songs.json", "path to the line-delimited JSON fixture")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	log := logger.New(cfg)

	songs, err := readFixture(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("failed to read fixture")
	}
	if len(songs) == 0 {
		log.Fatal().Str("file", *file).Msg("fixture contains no songs")
	}

	s, err := server.New(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}
	defer func() {
		_ = s.DB.Close()
	}()

	repos := repository.NewRepositories(s)

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	if err := repos.Songs.Seed(ctx, songs); err != nil {
		log.Fatal().Err(err).Msg("failed to seed songs collection")
	}

	log.Info().Int("count", len(songs)).Str("file", *file).Msg("songs collection seeded")
}

// readFixture parses one song document per line, skipping blank lines.
func readFixture(path string) ([]model.Song, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var songs []model.Song

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var song model.Song
		if err := json.Unmarshal(raw, &song); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		songs = append(songs, song)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return songs, nil
}
