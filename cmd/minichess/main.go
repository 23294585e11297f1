// Command minichess plays a game of 5x6 MiniChess against the engine in the
// terminal and keeps the finished games in a local database.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"minichess/internal/agent"
	"minichess/internal/config"
	"minichess/internal/game"
	"minichess/internal/session"
	"minichess/internal/storage"
)

func main() {
	var (
		side    = flag.String("side", "white", "side you play: white or black")
		depth   = flag.Int("depth", 0, "engine search depth (0 uses the config)")
		user    = flag.String("user", "local", "user id the finished game is recorded under")
		dbDir   = flag.String("db", "", "record database directory (default per-user config dir)")
		useConf = flag.Bool("config", false, "load engine settings from configs/config.<env>.json")
		noSave  = flag.Bool("no-save", false, "do not record the finished game")
	)
	flag.Parse()

	cfg := config.Default()
	if *useConf {
		loaded, err := config.Load(config.GetEnv())
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *depth > 0 {
		cfg.Engine.Depth = *depth
	}

	human := game.White
	switch strings.ToLower(*side) {
	case "white", "w":
	case "black", "b":
		human = game.Black
	default:
		log.Fatalf("Unknown side %q", *side)
	}

	searcher := agent.NewSearcher(agent.NewEvaluator(agent.DefaultWeights()), cfg.Engine.Workers)
	player := agent.NewPlayer(searcher, human.Opponent(), agent.PlayerOptions{
		Depth:       cfg.Engine.Depth,
		ThinkDelay:  cfg.Engine.ThinkDelay(),
		MoveTimeout: cfg.Engine.MoveTimeout(),
	})
	sess := session.New(human, player, cfg.Engine.MaxPlies)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := play(ctx, sess, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			fmt.Println("\nGame abandoned.")
			return
		}
		log.Fatalf("Game failed: %v", err)
	}

	if *noSave {
		return
	}
	if err := save(sess, *user, *dbDir, cfg.Storage.Dir); err != nil {
		log.Printf("Failed to record game: %v", err)
	}
}

// play runs the game loop until the game ends.
func play(ctx context.Context, sess *session.Session, in io.Reader, out io.Writer) error {
	sess.Observe(func(ev session.Event) {
		who := "You"
		if ev.ByEngine {
			who = "Engine"
		}
		fmt.Fprintf(out, "%s played %s\n", who, ev.Notation)
		if ev.After.InCheck() && !ev.After.Terminal() {
			fmt.Fprintln(out, "Check!")
		}
	})

	scanner := bufio.NewScanner(in)
	for !sess.State().Terminal() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if sess.EngineTurn() {
			fmt.Fprintln(out, "Engine is thinking...")
			if err := sess.EngineMove(ctx); err != nil {
				return err
			}
			continue
		}

		printBoard(out, sess.State())
		fmt.Fprintf(out, "%s to move (e.g. \"b2 b3\", \"moves b1\", \"quit\"): ", sess.State().ToMove())
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return err
			}
			return io.EOF
		}
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		switch {
		case len(fields) == 0:
			continue
		case fields[0] == "quit" || fields[0] == "exit":
			return context.Canceled
		case fields[0] == "moves" && len(fields) == 2:
			showMoves(out, sess, fields[1])
		case len(fields) == 2:
			if err := humanMove(sess, fields[0], fields[1]); err != nil {
				fmt.Fprintf(out, "Invalid move: %v\n", err)
			}
		default:
			fmt.Fprintln(out, "Enter a move as two squares, e.g. \"b2 b3\"")
		}
	}

	printBoard(out, sess.State())
	printResult(out, sess)
	return nil
}

func humanMove(sess *session.Session, from, to string) error {
	f, err := game.ParseSquare(from)
	if err != nil {
		return err
	}
	t, err := game.ParseSquare(to)
	if err != nil {
		return err
	}
	return sess.Move(game.Move{From: f, To: t})
}

func showMoves(out io.Writer, sess *session.Session, square string) {
	sq, err := game.ParseSquare(square)
	if err != nil {
		fmt.Fprintf(out, "Invalid square: %v\n", err)
		return
	}
	targets, err := sess.LegalMoves(sq)
	if err != nil {
		fmt.Fprintf(out, "No moves: %v\n", err)
		return
	}
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.String()
	}
	fmt.Fprintf(out, "%s: %s\n", sq, strings.Join(names, " "))
}

func printBoard(out io.Writer, st game.State) {
	b := st.Board()
	fmt.Fprintln(out)
	for r := 0; r < game.Rows; r++ {
		fmt.Fprintf(out, "%d ", game.Rows-r)
		for c := 0; c < game.Cols; c++ {
			p := b.At(game.Square{Row: r, Col: c})
			if p.Empty() {
				fmt.Fprint(out, " .")
				continue
			}
			fmt.Fprintf(out, " %c", p.Letter())
		}
		fmt.Fprintln(out)
	}
	fmt.Fprint(out, "  ")
	for c := 0; c < game.Cols; c++ {
		fmt.Fprintf(out, " %c", 'a'+c)
	}
	fmt.Fprintln(out)
}

func printResult(out io.Writer, sess *session.Session) {
	st := sess.State()
	result, err := sess.Result()
	if err != nil {
		return
	}
	fmt.Fprintf(out, "Game over: %s (%s) after %d plies in %s. You %s.\n",
		st.Outcome(), st.Reason(), st.Ply(), sess.Duration().Round(time.Second), result)
}

func save(sess *session.Session, userID, dir, configDir string) error {
	if dir == "" {
		dir = configDir
	}
	if dir == "" {
		var err error
		if dir, err = storage.DefaultDir(); err != nil {
			return err
		}
	}

	store, err := storage.Open(dir)
	if err != nil {
		return fmt.Errorf("open record database: %w", err)
	}
	defer store.Close()

	rec, err := sess.Record(userID)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := store.Create(ctx, rec); err != nil {
		return fmt.Errorf("save record: %w", err)
	}

	stats, err := store.Stats(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Printf("Games: %d  Wins: %d  Losses: %d  Draws: %d  Streak: %d  Win rate: %.0f%%\n",
		stats.GamesPlayed, stats.Wins, stats.Losses, stats.Draws, stats.CurrentStreak, stats.WinRate())
	return nil
}
